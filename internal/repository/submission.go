package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"atelier/internal/models"
	"atelier/internal/observability"

	"gorm.io/gorm"
)

// SubmissionSortColumns are the accepted SubmissionFilter.Sort values.
var SubmissionSortColumns = []string{"created_at", "status", "product_id"}

// SubmissionFilter narrows a submission listing. VendorID scopes to one vendor.
type SubmissionFilter struct {
	Status   models.SubmissionStatus
	VendorID *uint
	Search   string
	Sort     string
	Desc     bool
	Offset   int
	Limit    int
}

// Review is the outcome recorded when a pending submission is claimed.
type Review struct {
	Status     models.SubmissionStatus
	ReviewerID uint
	Reason     string
	At         time.Time
}

// SubmissionRepository defines persistence operations for product submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *models.ProductSubmission) error
	GetByID(ctx context.Context, id uint) (*models.ProductSubmission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]models.ProductSubmission, int64, error)
	// MarkReviewed moves a pending submission to a terminal state. It reports
	// false without error when the row was no longer pending.
	MarkReviewed(ctx context.Context, id uint, review Review) (bool, error)
	DeleteByVendor(ctx context.Context, vendorID uint) (int64, error)
	WithTx(tx *gorm.DB) SubmissionRepository
}

type submissionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewSubmissionRepository returns a new SubmissionRepository implementation.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db, log: observability.NewRepoLogger("product_submissions")}
}

func (r *submissionRepository) WithTx(tx *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: tx, log: r.log}
}

func (r *submissionRepository) Create(ctx context.Context, sub *models.ProductSubmission) error {
	if sub.Status == "" {
		sub.Status = models.SubmissionStatusPending
	}
	if err := r.db.WithContext(ctx).Omit("Vendor").Create(sub).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{
		"submission_id": sub.ID,
		"vendor_id":     sub.VendorID,
		"product_id":    sub.ProductID,
		"type":          sub.SubmissionType,
	})
	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (*models.ProductSubmission, error) {
	var sub models.ProductSubmission
	if err := r.db.WithContext(ctx).Preload("Vendor").First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Submission", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &sub, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.ProductSubmission, int64, error) {
	defer observability.TrackQuery("list", "product_submissions")()

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("product_submissions.status = ?", filter.Status)
		}
		if filter.VendorID != nil {
			db = db.Where("product_submissions.vendor_id = ?", *filter.VendorID)
		}
		if strings.TrimSpace(filter.Search) != "" {
			p := likePattern(filter.Search)
			db = db.Joins("LEFT JOIN accounts ON accounts.id = product_submissions.vendor_id").
				Where("(LOWER(product_submissions.product_id) LIKE ? ESCAPE '\\' OR LOWER(accounts.name) LIKE ? ESCAPE '\\' OR LOWER(accounts.email) LIKE ? ESCAPE '\\')", p, p, p)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.ProductSubmission{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	column := "created_at"
	for _, c := range SubmissionSortColumns {
		if filter.Sort == c {
			column = c
		}
	}
	dir := orderDirection(filter.Desc)

	var subs []models.ProductSubmission
	q := r.db.WithContext(ctx).Model(&models.ProductSubmission{}).
		Select("product_submissions.*").
		Scopes(scope).
		Preload("Vendor").
		Order("product_submissions." + column + " " + dir).
		Order("product_submissions.id " + dir).
		Offset(filter.Offset)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Find(&subs).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return subs, total, nil
}

func (r *submissionRepository) MarkReviewed(ctx context.Context, id uint, review Review) (bool, error) {
	reviewer := review.ReviewerID
	at := review.At
	res := r.db.WithContext(ctx).Model(&models.ProductSubmission{}).
		Where("id = ? AND status = ?", id, models.SubmissionStatusPending).
		Updates(map[string]any{
			"status":           review.Status,
			"rejection_reason": review.Reason,
			"reviewed_at":      &at,
			"reviewed_by":      &reviewer,
			"updated_at":       at,
		})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "review")
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	r.log.LogUpdate(ctx, map[string]any{"submission_id": id, "status": review.Status, "reviewed_by": reviewer})
	return true, nil
}

func (r *submissionRepository) DeleteByVendor(ctx context.Context, vendorID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID).Delete(&models.ProductSubmission{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return 0, models.NewInternalError(res.Error)
	}
	r.log.LogDelete(ctx, map[string]any{"vendor_id": vendorID, "rows": res.RowsAffected})
	return res.RowsAffected, nil
}
