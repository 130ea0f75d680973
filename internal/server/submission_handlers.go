package server

import (
	"strconv"

	"atelier/internal/models"
	"atelier/internal/repository"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

type submitRequest struct {
	Products []map[string]any `json:"products"`
	Product  map[string]any   `json:"product"`
	Note     string           `json:"note"`
}

func (r submitRequest) items() []map[string]any {
	if len(r.Products) == 0 && r.Product != nil {
		return []map[string]any{r.Product}
	}
	return r.Products
}

// submit runs a batch and writes the response. A batch where nothing was
// created answers with the first failure's status.
func (s *Server) submit(c *fiber.Ctx, in service.SubmitInput) (*service.SubmitResult, bool) {
	result, err := s.submissions.Submit(c.UserContext(), currentAccount(c), in)
	if err != nil {
		_ = s.respond(c, err)
		return nil, false
	}
	if len(result.Created) == 0 && len(result.Failures) > 0 {
		_ = s.respond(c, result.Failures[0].Err())
		return nil, false
	}
	return result, true
}

// CreateSubmissions handles POST /api/submissions
// @Summary Submit product changes
// @Description Vendors propose one or more products; each item is accepted or rejected independently
// @Tags submissions
// @Accept json
// @Produce json
// @Param request body object{products=[]object,note=string} true "Proposed products"
// @Success 201 {object} service.SubmitResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /submissions [post]
func (s *Server) CreateSubmissions(c *fiber.Ctx) error {
	var req submitRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	result, ok := s.submit(c, service.SubmitInput{Products: req.items(), Note: req.Note})
	if !ok {
		return nil
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// submissionQuery reads the shared submission list parameters.
func submissionQuery(c *fiber.Ctx) (service.SubmissionQuery, error) {
	sort, desc := sortQuery(c, repository.SubmissionSortColumns, "created_at", true)
	q := service.SubmissionQuery{
		Status: c.Query("status"),
		Search: c.Query("search", c.Query("q")),
		Sort:   sort,
		Desc:   desc,
		Page:   pageRequest(c),
	}
	if raw := c.Query("vendorId", c.Query("vendor_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return q, models.NewValidationError("Invalid vendor ID")
		}
		vendorID := uint(id)
		q.VendorID = &vendorID
	}
	return q, nil
}

// ListSubmissions handles GET /api/submissions and GET /api/admin/submissions
// @Summary List submissions
// @Description Vendors see their own submissions; admins see all, optionally scoped to one vendor
// @Tags submissions
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Param vendorId query int false "Vendor account ID (admin only)"
// @Param search query string false "Matches vendor name, email or product ID"
// @Param sort query string false "created_at, status or product_id"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} listResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /submissions [get]
func (s *Server) ListSubmissions(c *fiber.Ctx) error {
	q, err := submissionQuery(c)
	if err != nil {
		return s.respond(c, err)
	}

	page, err := s.submissions.List(c.UserContext(), currentAccount(c), q)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(listResponse{
		Items:   page.Items,
		Paging:  page.Paging,
		Sort:    newSortInfo(q.Sort, q.Desc),
		Filters: activeFilters(map[string]any{"status": q.Status, "vendorId": q.VendorID, "search": q.Search}),
	})
}

// GetSubmission handles GET /api/submissions/:id
// @Summary Get a submission with its field diff
// @Tags submissions
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} service.SubmissionView
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /submissions/{id} [get]
func (s *Server) GetSubmission(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	view, err := s.submissions.Get(c.UserContext(), currentAccount(c), id)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(view)
}

// ApproveSubmission handles PATCH /api/admin/submissions/:id/approve
// @Summary Approve a submission
// @Description Merges the snapshot into the catalog. Only pending submissions can be reviewed.
// @Tags admin
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} service.SubmissionView
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/submissions/{id}/approve [patch]
func (s *Server) ApproveSubmission(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	view, err := s.submissions.Approve(c.UserContext(), id, currentAccount(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(view)
}

// RejectSubmission handles PATCH /api/admin/submissions/:id/reject
// @Summary Reject a submission
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param request body object{reason=string} true "Rejection reason"
// @Success 200 {object} service.SubmissionView
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/submissions/{id}/reject [patch]
func (s *Server) RejectSubmission(c *fiber.Ctx) error {
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
	return c.JSON(view)
}
