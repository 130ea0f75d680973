package server

import (
	"time"

	"atelier/internal/catalog"
	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Edit is the submission shape served to clients of the older /api/edits routes.
type Edit struct {
	ID         uint                    `json:"id"`
	ProductID  string                  `json:"productId"`
	VendorID   uint                    `json:"vendorId"`
	VendorName string                  `json:"vendorName"`
	Type       models.SubmissionType   `json:"type"`
	Status     models.SubmissionStatus `json:"status"`
	Note       string                  `json:"note"`
	Changes    []catalog.FieldDiff     `json:"changes"`
	Proposed   models.Product          `json:"proposed"`
	Current    *models.Product         `json:"current"`
	Reason     string                  `json:"reason"`
	CreatedAt  time.Time               `json:"createdAt"`
	ReviewedAt *time.Time              `json:"reviewedAt"`
	ReviewedBy *uint                   `json:"reviewedBy"`
}

func toEdit(v service.SubmissionView) Edit {
	return Edit{
		ID:         v.ID,
		ProductID:  v.ProductID,
		VendorID:   v.VendorID,
		VendorName: v.VendorName,
		Type:       v.SubmissionType,
		Status:     v.Status,
		Note:       v.VendorNote,
		Changes:    catalog.ChangedOnly(catalog.DiffProducts(v.BaseSnapshot, v.Snapshot)),
		Proposed:   v.Snapshot,
		Current:    v.BaseSnapshot,
		Reason:     v.RejectionReason,
		CreatedAt:  v.CreatedAt,
		ReviewedAt: v.ReviewedAt,
		ReviewedBy: v.ReviewedBy,
	}
}

// legacyProposal builds the full product a legacy edit proposes.
func (s *Server) legacyProposal(c *fiber.Ctx, productID string, changes map[string]any) (map[string]any, error) {
	if productID != "" {
		doc, err := s.content.Read(c.UserContext())
		if err != nil {
			return nil, err
		}
		if existing, idx := catalog.FindProduct(doc.Products, productID); idx >= 0 {
			raw := catalog.ApplyPatch(existing, changes)
			raw["id"] = productID
			return raw, nil
		}
	}
	raw := make(map[string]any, len(changes)+1)
	for k, v := range changes {
		raw[k] = v
	}
	if productID != "" {
		raw["id"] = productID
	}
	return raw, nil
}

func toEdits(views []service.SubmissionView) []Edit {
	out := make([]Edit, 0, len(views))
	for _, v := range views {
		out = append(out, toEdit(v))
	}
	return out
}

// CreateEdits handles POST /api/edits. Besides the submission body it accepts
// {productId, changes, note}, where changes is applied on top of the current
// product with that id, or taken as a new product when none exists.
// @Summary Submit product edits (legacy)
// @Tags edits
// @Accept json
// @Produce json
// @Param request body object{productId=string,changes=object,note=string} true "Proposed change"
// @Success 201 {object} object{edits=[]Edit,failures=[]service.ItemFailure}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /edits [post]
func (s *Server) CreateEdits(c *fiber.Ctx) error {
	var req struct {
		submitRequest
		ProductID string         `json:"productId"`
		Changes   map[string]any `json:"changes"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	items := req.items()
	if len(items) == 0 && req.Changes != nil {
		raw, err := s.legacyProposal(c, req.ProductID, req.Changes)
		if err != nil {
			return s.respond(c, err)
		}
		items = []map[string]any{raw}
	}

	result, ok := s.submit(c, service.SubmitInput{Products: items, Note: req.Note})
	if !ok {
		return nil
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"edits":    toEdits(result.Created),
		"failures": result.Failures,
	})
}

// ListEdits handles GET /api/edits
// @Summary List edits (legacy)
// @Tags edits
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} listResponse
// @Security BearerAuth
// @Router /edits [get]
func (s *Server) ListEdits(c *fiber.Ctx) error {
	q, err := submissionQuery(c)
	if err != nil {
		return s.respond(c, err)
	}

	page, err := s.submissions.List(c.UserContext(), currentAccount(c), q)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(listResponse{
		Items:   toEdits(page.Items),
		Paging:  page.Paging,
		Sort:    newSortInfo(q.Sort, q.Desc),
		Filters: activeFilters(map[string]any{"status": q.Status, "vendorId": q.VendorID, "search": q.Search}),
	})
}

// ApproveEdit handles PATCH /api/edits/:id/approve
// @Summary Approve an edit (legacy)
// @Tags edits
// @Produce json
// @Param id path int true "Edit ID"
// @Success 200 {object} Edit
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /edits/{id}/approve [patch]
func (s *Server) ApproveEdit(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	view, err := s.submissions.Approve(c.UserContext(), id, currentAccount(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(toEdit(*view))
}

// RejectEdit handles PATCH /api/edits/:id/reject
// @Summary Reject an edit (legacy)
// @Tags edits
// @Accept json
// @Produce json
// @Param id path int true "Edit ID"
// @Param request body object{reason=string} true "Rejection reason"
// @Success 200 {object} Edit
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /edits/{id}/reject [patch]
func (s *Server) RejectEdit(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	view, err := s.submissions.Reject(c.UserContext(), id, currentAccount(c), req.Reason)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(toEdit(*view))
}
