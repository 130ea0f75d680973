package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"atelier/internal/auth"
	"atelier/internal/catalog"
	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/observability"
	"atelier/internal/pagination"
	"atelier/internal/repository"
	"atelier/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmissionView is the API shape of a product submission.
type SubmissionView struct {
	ID              uint                    `json:"id"`
	ProductID       string                  `json:"productId"`
	VendorID        uint                    `json:"vendorId"`
	VendorName      string                  `json:"vendorName"`
	VendorEmail     string                  `json:"vendorEmail"`
	SubmissionType  models.SubmissionType   `json:"submissionType"`
	Status          models.SubmissionStatus `json:"status"`
	VendorNote      string                  `json:"vendorNote"`
	RejectionReason string                  `json:"rejectionReason"`
	Snapshot        models.Product          `json:"snapshot"`
	BaseSnapshot    *models.Product         `json:"baseSnapshot"`
	ChangedFields   int                     `json:"changedFields"`
	Diff            []catalog.FieldDiff     `json:"diff,omitempty"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
	ReviewedAt      *time.Time              `json:"reviewedAt"`
	ReviewedBy      *uint                   `json:"reviewedBy"`
}

// SubmitInput is a vendor batch of proposed product changes.
type SubmitInput struct {
	Products []map[string]any
	Note     string
}

// ItemFailure explains why one item of a batch produced no submission.
type ItemFailure struct {
	Index     int    `json:"index"`
	ProductID string `json:"productId"`
	Code      string `json:"code"`
	Error     string `json:"error"`
	err       error
}

// Err returns the underlying AppError.
func (f ItemFailure) Err() error { return f.err }

// SubmitResult reports each item of a batch independently.
type SubmitResult struct {
	Created  []SubmissionView `json:"created"`
	Failures []ItemFailure    `json:"failures"`
}

// SubmissionQuery filters a submission listing.
type SubmissionQuery struct {
	Status   string
	VendorID *uint
	Search   string
	Sort     string
	Desc     bool
	Page     pagination.Request
}

// SubmissionPage is one page of submissions.
type SubmissionPage struct {
	Items  []SubmissionView  `json:"items"`
	Paging pagination.Paging `json:"paging"`
}

// SubmissionService runs the vendor submission review pipeline.
type SubmissionService struct {
	db          *gorm.DB
	submissions repository.SubmissionRepository
	content     *ContentService
	notifier    *notifications.Notifier
	now         func() time.Time
}

// NewSubmissionService returns a SubmissionService.
func NewSubmissionService(db *gorm.DB, submissions repository.SubmissionRepository, content *ContentService, notifier *notifications.Notifier) *SubmissionService {
	return &SubmissionService{
		db:          db,
		submissions: submissions,
		content:     content,
		notifier:    notifier,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Submit records one pending submission per proposed product. Items succeed
// or fail independently; a failing item creates no row.
func (s *SubmissionService) Submit(ctx context.Context, vendor *models.Account, in SubmitInput) (result *SubmitResult, err error) {
	ctx, span := observability.StartSpan(ctx, "SubmissionService", "Submit",
		attribute.Int("vendor.id", int(vendor.ID)),
		attribute.Int("items", len(in.Products)))
	defer func() { observability.EndSpan(span, err) }()

	if err := auth.Require(vendor, models.RoleVendor); err != nil {
		return nil, err
	}
	if len(in.Products) == 0 {
		return nil, models.NewValidationError("At least one product is required")
	}
	note, err := validation.OptionalText("note", in.Note, validation.MaxVendorNoteLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	doc, err := s.content.Read(ctx)
	if err != nil {
		return nil, err
	}

	result = &SubmitResult{Created: []SubmissionView{}, Failures: []ItemFailure{}}
	for i, raw := range in.Products {
		sub, itemErr := s.submitOne(ctx, vendor, doc.Products, raw, note, i)
		if itemErr != nil {
			var appErr *models.AppError
			code, msg := models.CodeInternal, "Internal server error"
			if errors.As(itemErr, &appErr) && appErr.Code != models.CodeInternal {
				code, msg = appErr.Code, appErr.Message
			} else {
				observability.GlobalLogger.ErrorContext(ctx, "submission item failed",
					slog.Int("index", i), slog.String("error", itemErr.Error()))
			}
			productID, _ := raw["id"].(string)
			productID = strings.TrimSpace(productID)
			result.Failures = append(result.Failures, ItemFailure{Index: i, ProductID: productID, Code: code, Error: msg, err: itemErr})
			continue
		}
		sub.Vendor = vendor
		result.Created = append(result.Created, toView(sub, false))
	}
	return result, nil
}

func (s *SubmissionService) submitOne(ctx context.Context, vendor *models.Account, products []models.Product, raw map[string]any, note string, index int) (*models.ProductSubmission, error) {
	if raw == nil {
		return nil, models.NewValidationError("Product must be an object")
	}
	fields := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		fields[k] = v
	}
	fields["owner_user_id"] = vendor.ID
	proposed := catalog.Normalize(fields, index)
	if strings.TrimSpace(proposed.Name) == "" {
		return nil, models.NewValidationError("Product name is required")
	}

	subType := models.SubmissionTypeCreate
	var base datatypes.JSON
	if existing, idx := catalog.FindProduct(products, proposed.ID); idx >= 0 {
		if !existing.OwnedBy(vendor.ID) {
			return nil, models.NewOwnershipError(proposed.ID)
		}
		subType = models.SubmissionTypeUpdate
		// Keep the catalog position unless the vendor asked for a new one.
		if _, ok := raw["sort_order"]; !ok {
			proposed.SortOrder = existing.SortOrder
		}
		if raw["created_at"] == nil {
			proposed.CreatedAt = existing.CreatedAt
		}
		b, err := json.Marshal(existing)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		base = datatypes.JSON(b)
	} else if _, ok := raw["sort_order"]; !ok {
		proposed.SortOrder = len(products) + index
	}

	snapshot, err := json.Marshal(proposed)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	sub := &models.ProductSubmission{
		VendorID:       vendor.ID,
		ProductID:      proposed.ID,
		SubmissionType: subType,
		Snapshot:       datatypes.JSON(snapshot),
		BaseSnapshot:   base,
		VendorNote:     note,
		Status:         models.SubmissionStatusPending,
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		return nil, err
	}

	observability.SubmissionsTotal.WithLabelValues(string(subType)).Inc()
	recordActivity(ctx, s.notifier, notifications.ActivityEvent{
		Type:      notifications.EventSubmissionCreated,
		ActorID:   vendor.ID,
		SubjectID: fmt.Sprint(sub.ID),
		Summary:   fmt.Sprintf("%s submitted %s for %q", vendor.Name, subType, proposed.Name),
		Details:   map[string]any{"productId": proposed.ID, "type": subType},
	})
	return sub, nil
}

// Approve merges a pending submission into the catalog. The status claim and
// the catalog write share one transaction, so the merge applies exactly once.
func (s *SubmissionService) Approve(ctx context.Context, id uint, admin *models.Account) (view *SubmissionView, err error) {
	ctx, span := observability.StartSpan(ctx, "SubmissionService", "Approve", attribute.Int("submission.id", int(id)))
	defer func() { observability.EndSpan(span, err) }()

	if err := auth.Require(admin, models.RoleAdmin); err != nil {
		return nil, err
	}

	var reviewed *models.ProductSubmission
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subs := s.submissions.WithTx(tx)
		sub, err := subs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !sub.IsPending() {
			return alreadyReviewed(sub)
		}

		claimed, err := subs.MarkReviewed(ctx, id, repository.Review{
			Status:     models.SubmissionStatusApproved,
			ReviewerID: admin.ID,
			At:         s.now(),
		})
		if err != nil {
			return err
		}
		if !claimed {
			return models.NewConflictError("Submission has already been reviewed")
		}

		snapshot, err := catalog.DecodeProduct(sub.Snapshot)
		if err != nil {
			return models.NewInternalError(err)
		}
		if _, err := s.content.WithTx(tx).UpdateCatalog(ctx, &admin.ID, OriginApproval, func(products []models.Product) ([]models.Product, error) {
			return catalog.Merge(products, snapshot), nil
		}); err != nil {
			return err
		}

		reviewed, err = subs.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.SubmissionReviewsTotal.WithLabelValues(string(models.SubmissionStatusApproved)).Inc()
	s.announceReview(ctx, admin, reviewed, notifications.EventSubmissionApproved)
	v := toView(reviewed, true)
	return &v, nil
}

// Reject declines a pending submission with a mandatory reason. The catalog
// is not touched.
func (s *SubmissionService) Reject(ctx context.Context, id uint, admin *models.Account, reason string) (view *SubmissionView, err error) {
	ctx, span := observability.StartSpan(ctx, "SubmissionService", "Reject", attribute.Int("submission.id", int(id)))
	defer func() { observability.EndSpan(span, err) }()

	if err := auth.Require(admin, models.RoleAdmin); err != nil {
		return nil, err
	}
	reason, err = validation.RequiredText("reason", reason, validation.MaxRejectionReasonLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	var reviewed *models.ProductSubmission
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subs := s.submissions.WithTx(tx)
		sub, err := subs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !sub.IsPending() {
			return alreadyReviewed(sub)
		}
		claimed, err := subs.MarkReviewed(ctx, id, repository.Review{
			Status:     models.SubmissionStatusRejected,
			ReviewerID: admin.ID,
			Reason:     reason,
			At:         s.now(),
		})
		if err != nil {
			return err
		}
		if !claimed {
			return models.NewConflictError("Submission has already been reviewed")
		}
		reviewed, err = subs.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.SubmissionReviewsTotal.WithLabelValues(string(models.SubmissionStatusRejected)).Inc()
	s.announceReview(ctx, admin, reviewed, notifications.EventSubmissionRejected)
	v := toView(reviewed, true)
	return &v, nil
}

func (s *SubmissionService) announceReview(ctx context.Context, admin *models.Account, sub *models.ProductSubmission, event string) {
	recordActivity(ctx, s.notifier, notifications.ActivityEvent{
		Type:      event,
		ActorID:   admin.ID,
		SubjectID: fmt.Sprint(sub.ID),
		Summary:   fmt.Sprintf("Submission %d for %q %s", sub.ID, sub.ProductID, sub.Status),
		Details:   map[string]any{"productId": sub.ProductID, "vendorId": sub.VendorID, "reason": sub.RejectionReason},
	})

	payload, err := json.Marshal(map[string]any{
		"type":            event,
		"submissionId":    sub.ID,
		"productId":       sub.ProductID,
		"status":          sub.Status,
		"rejectionReason": sub.RejectionReason,
	})
	if err == nil {
		_ = s.notifier.PublishVendor(ctx, sub.VendorID, string(payload))
	}
}

// List returns submissions visible to actor. Vendors only ever see their own.
func (s *SubmissionService) List(ctx context.Context, actor *models.Account, q SubmissionQuery) (*SubmissionPage, error) {
	if err := auth.Require(actor, models.RoleAdmin, models.RoleVendor); err != nil {
		return nil, err
	}

	filter := repository.SubmissionFilter{
		Search: q.Search,
		Sort:   q.Sort,
		Desc:   q.Desc,
	}
	if q.Status != "" {
		status := models.SubmissionStatus(strings.ToLower(q.Status))
		if !status.Valid() {
			return nil, models.NewValidationError(fmt.Sprintf("Unknown status %q", q.Status))
		}
		filter.Status = status
	}
	if actor.Role == models.RoleVendor {
		id := actor.ID
		filter.VendorID = &id
	} else if q.VendorID != nil {
		filter.VendorID = q.VendorID
	}

	subs, paging, err := s.page(ctx, filter, q.Page)
	if err != nil {
		return nil, err
	}
	items := make([]SubmissionView, 0, len(subs))
	for i := range subs {
		items = append(items, toView(&subs[i], false))
	}
	return &SubmissionPage{Items: items, Paging: paging}, nil
}

// page fetches one clamped page; an out-of-range page is re-read as the last page.
func (s *SubmissionService) page(ctx context.Context, filter repository.SubmissionFilter, req pagination.Request) ([]models.ProductSubmission, pagination.Paging, error) {
	req = req.Normalize()
	filter.Limit = req.PageSize
	filter.Offset = (req.Page - 1) * req.PageSize

	subs, total, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, pagination.Paging{}, err
	}
	paging, start, _ := pagination.Compute(int(total), req)
	if start != filter.Offset {
		filter.Offset = start
		if subs, _, err = s.submissions.List(ctx, filter); err != nil {
			return nil, pagination.Paging{}, err
		}
	}
	return subs, paging, nil
}

// Get returns one submission with its diff. Vendors cannot see other vendors' submissions.
func (s *SubmissionService) Get(ctx context.Context, actor *models.Account, id uint) (*SubmissionView, error) {
	if err := auth.Require(actor, models.RoleAdmin, models.RoleVendor); err != nil {
		return nil, err
	}
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleVendor && sub.VendorID != actor.ID {
		return nil, models.NewNotFoundError("Submission", id)
	}
	v := toView(sub, true)
	return &v, nil
}

func alreadyReviewed(sub *models.ProductSubmission) error {
	return models.NewConflictError(fmt.Sprintf("Submission %d has already been %s", sub.ID, sub.Status))
}

func toView(sub *models.ProductSubmission, withDiff bool) SubmissionView {
	v := SubmissionView{
		ID:              sub.ID,
		ProductID:       sub.ProductID,
		VendorID:        sub.VendorID,
		SubmissionType:  sub.SubmissionType,
		Status:          sub.Status,
		VendorNote:      sub.VendorNote,
		RejectionReason: sub.RejectionReason,
		CreatedAt:       sub.CreatedAt,
		UpdatedAt:       sub.UpdatedAt,
		ReviewedAt:      sub.ReviewedAt,
		ReviewedBy:      sub.ReviewedBy,
	}
	if sub.Vendor != nil {
		v.VendorName = sub.Vendor.Name
		v.VendorEmail = sub.Vendor.Email
	}
	if p, err := catalog.DecodeProduct(sub.Snapshot); err == nil {
		v.Snapshot = p
	}
	if len(sub.BaseSnapshot) > 0 && string(sub.BaseSnapshot) != "null" {
		if p, err := catalog.DecodeProduct(sub.BaseSnapshot); err == nil {
			v.BaseSnapshot = &p
		}
	}

	diff := catalog.DiffProducts(v.BaseSnapshot, v.Snapshot)
	v.ChangedFields = len(catalog.ChangedOnly(diff))
	if withDiff {
		v.Diff = diff
	}
	return v
}
