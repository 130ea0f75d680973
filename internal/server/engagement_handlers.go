package server

import (
	"atelier/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetLikeStatus handles GET /api/products/:id/like
// @Summary Like count and whether the caller liked the product
// @Tags engagement
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} service.LikeStatus
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id}/like [get]
func (s *Server) GetLikeStatus(c *fiber.Ctx) error {
	status, err := s.engagement.LikeStatus(c.UserContext(), currentAccount(c), c.Params("id"))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(status)
}

// LikeProduct handles POST /api/products/:id/like
// @Summary Like a product
// @Tags engagement
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} service.LikeStatus
// @Security BearerAuth
// @Router /products/{id}/like [post]
func (s *Server) LikeProduct(c *fiber.Ctx) error {
	status, err := s.engagement.Like(c.UserContext(), currentAccount(c), c.Params("id"))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(status)
}

// UnlikeProduct handles DELETE /api/products/:id/like
// @Summary Remove a like
// @Tags engagement
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} service.LikeStatus
// @Security BearerAuth
// @Router /products/{id}/like [delete]
func (s *Server) UnlikeProduct(c *fiber.Ctx) error {
	status, err := s.engagement.Unlike(c.UserContext(), currentAccount(c), c.Params("id"))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(status)
}

// ListComments handles GET /api/products/:id/comments
// @Summary List comments, newest first
// @Tags engagement
// @Produce json
// @Param id path string true "Product ID"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} listResponse
// @Router /products/{id}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	page, err := s.engagement.ListComments(c.UserContext(), currentAccount(c), c.Params("id"), pageRequest(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(listResponse{
		Items:   page.Items,
		Paging:  page.Paging,
		Sort:    newSortInfo("created_at", true),
		Filters: map[string]any{"productId": c.Params("id")},
	})
}

// AddComment handles POST /api/products/:id/comments
// @Summary Comment on a product
// @Tags engagement
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body object{body=string} true "Comment"
// @Success 201 {object} service.CommentView
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products/{id}/comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	var req struct {
		Body string `json:"body"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.engagement.AddComment(c.UserContext(), currentAccount(c), c.Params("id"), req.Body)
	if err != nil {
		return s.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetCart handles GET /api/cart
// @Summary The caller's cart
// @Tags cart
// @Produce json
// @Success 200 {object} service.Cart
// @Security BearerAuth
// @Router /cart [get]
func (s *Server) GetCart(c *fiber.Ctx) error {
	cart, err := s.engagement.Cart(c.UserContext(), currentAccount(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(cart)
}

// AddToCart handles POST /api/cart
// @Summary Add a product to the cart
// @Tags cart
// @Accept json
// @Produce json
// @Param request body object{productId=string,quantity=int} true "Line to add"
// @Success 200 {object} service.Cart
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /cart [post]
func (s *Server) AddToCart(c *fiber.Ctx) error {
	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	if req.ProductID == "" {
		return s.respond(c, models.NewValidationError("productId is required"))
	}

	cart, err := s.engagement.AddToCart(c.UserContext(), currentAccount(c), req.ProductID, req.Quantity)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(cart)
}

// UpdateCartItem handles PATCH /api/cart/:productId
// @Summary Change a cart line quantity
// @Tags cart
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param request body object{quantity=int} true "New quantity"
// @Success 200 {object} service.Cart
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /cart/{productId} [patch]
func (s *Server) UpdateCartItem(c *fiber.Ctx) error {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	cart, err := s.engagement.SetCartQuantity(c.UserContext(), currentAccount(c), c.Params("productId"), req.Quantity)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(cart)
}

// RemoveCartItem handles DELETE /api/cart/:productId
// @Summary Remove a cart line
// @Tags cart
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} service.Cart
// @Security BearerAuth
// @Router /cart/{productId} [delete]
func (s *Server) RemoveCartItem(c *fiber.Ctx) error {
	cart, err := s.engagement.RemoveFromCart(c.UserContext(), currentAccount(c), c.Params("productId"))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(cart)
}

// ClearCart handles DELETE /api/cart
// @Summary Empty the cart
// @Tags cart
// @Produce json
// @Success 200 {object} service.Cart
// @Security BearerAuth
// @Router /cart [delete]
func (s *Server) ClearCart(c *fiber.Ctx) error {
	cart, err := s.engagement.ClearCart(c.UserContext(), currentAccount(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(cart)
}
