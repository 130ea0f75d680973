package server

import (
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListProducts handles GET /api/products
// @Summary List products
// @Description Anonymous callers and users see active products, vendors their own, admins everything
// @Tags products
// @Produce json
// @Param search query string false "Free-text search"
// @Param galleryType query string false "art, designs, books, photography or sculpture"
// @Param category query string false "Category"
// @Param status query string false "active, inactive or draft"
// @Param featured query bool false "Only featured products"
// @Param sort query string false "sort_order, name, price, created_at or updated_at"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} listResponse
// @Router /products [get]
func (s *Server) ListProducts(c *fiber.Ctx) error {
	sort, desc := sortQuery(c, service.ProductSortFields, "sort_order", false)
	q := service.ProductQuery{
		Search:      c.Query("search", c.Query("q")),
		GalleryType: c.Query("galleryType", c.Query("gallery_type")),
		Category:    c.Query("category"),
		Status:      c.Query("status"),
		Featured:    queryBool(c, "featured"),
		Sort:        sort,
		Desc:        desc,
		Page:        pageRequest(c),
	}

	page, err := s.products.List(c.UserContext(), currentAccount(c), q)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(listResponse{
		Items:  page.Items,
		Paging: page.Paging,
		Sort:   newSortInfo(sort, desc),
		Filters: activeFilters(map[string]any{
			"search":      q.Search,
			"galleryType": q.GalleryType,
			"category":    q.Category,
			"status":      q.Status,
			"featured":    q.Featured,
		}),
	})
}

// GetProduct handles GET /api/products/:id
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [get]
func (s *Server) GetProduct(c *fiber.Ctx) error {
	p, err := s.products.Get(c.UserContext(), currentAccount(c), c.Params("id"))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(p)
}

// CreateProduct handles POST /api/products
// @Summary Create a product
// @Tags admin
// @Accept json
// @Produce json
// @Param request body object true "Product fields"
// @Success 201 {object} models.Product
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products [post]
func (s *Server) CreateProduct(c *fiber.Ctx) error {
	var raw map[string]any
	if err := s.parseBody(c, &raw); err != nil {
		return nil
	}

	p, err := s.products.Create(c.UserContext(), currentAccount(c), raw)
	if err != nil {
		return s.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// UpdateProduct handles PATCH /api/products/:id
// @Summary Update a product
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body object true "Fields to change"
// @Success 200 {object} models.Product
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products/{id} [patch]
func (s *Server) UpdateProduct(c *fiber.Ctx) error {
	var patch map[string]any
	if err := s.parseBody(c, &patch); err != nil {
		return nil
	}

	p, err := s.products.Update(c.UserContext(), currentAccount(c), c.Params("id"), patch)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(p)
}

// DeleteProduct handles DELETE /api/products/:id
// @Summary Delete a product
// @Tags admin
// @Param id path string true "Product ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products/{id} [delete]
func (s *Server) DeleteProduct(c *fiber.Ctx) error {
	if err := s.products.Delete(c.UserContext(), currentAccount(c), c.Params("id")); err != nil {
		return s.respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
