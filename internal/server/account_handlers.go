package server

import (
	"atelier/internal/models"
	"atelier/internal/repository"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListAccounts handles GET /api/admin/users and GET /api/admin/vendors
// @Summary List accounts of one role
// @Tags admin
// @Produce json
// @Param status query string false "active or disabled"
// @Param search query string false "Matches name or email"
// @Param sort query string false "created_at, name, email or last_login_at"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} listResponse
// @Security BearerAuth
// @Router /admin/users [get]
// @Router /admin/vendors [get]
func (s *Server) ListAccounts(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sort, desc := sortQuery(c, repository.AccountSortColumns, "created_at", true)
		q := service.AccountQuery{
			Status: c.Query("status"),
			Search: c.Query("search", c.Query("q")),
			Sort:   sort,
			Desc:   desc,
			Page:   pageRequest(c),
		}

		page, err := s.accounts.List(c.UserContext(), role, q)
		if err != nil {
			return s.respond(c, err)
		}
		return c.JSON(listResponse{
			Items:   page.Items,
			Paging:  page.Paging,
			Sort:    newSortInfo(sort, desc),
			Filters: activeFilters(map[string]any{"role": string(role), "status": q.Status, "search": q.Search}),
		})
	}
}

// GetAccount handles GET /api/admin/users/:id and GET /api/admin/vendors/:id
// @Summary Get an account
// @Tags admin
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} models.Account
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [get]
// @Router /admin/vendors/{id} [get]
func (s *Server) GetAccount(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}

		acc, err := s.accounts.Get(c.UserContext(), role, id)
		if err != nil {
			return s.respond(c, err)
		}
		return c.JSON(acc)
	}
}

// UpdateAccount handles PATCH /api/admin/users/:id and PATCH /api/admin/vendors/:id
// @Summary Update an account
// @Description Disabling an account revokes all of its sessions
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Account ID"
// @Param request body object{name=string,email=string,status=string} true "Fields to change"
// @Success 200 {object} models.Account
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [patch]
// @Router /admin/vendors/{id} [patch]
func (s *Server) UpdateAccount(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		var req struct {
			Name   *string               `json:"name"`
			Email  *string               `json:"email"`
			Status *models.AccountStatus `json:"status"`
		}
		if err := s.parseBody(c, &req); err != nil {
			return nil
		}

		acc, err := s.accounts.Update(c.UserContext(), currentAccount(c), role, id, service.AccountUpdate{
			Name:   req.Name,
			Email:  req.Email,
			Status: req.Status,
		})
		if err != nil {
			return s.respond(c, err)
		}
		return c.JSON(acc)
	}
}

// DeleteAccount handles DELETE /api/admin/users/:id and DELETE /api/admin/vendors/:id
// @Summary Delete an account
// @Description Removes the account with its submissions, likes, comments and cart. Products it owned become admin-owned.
// @Tags admin
// @Param id path int true "Account ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
// @Router /admin/vendors/{id} [delete]
func (s *Server) DeleteAccount(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}

		if err := s.accounts.Delete(c.UserContext(), currentAccount(c), role, id); err != nil {
			return s.respond(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ResetAccountPassword handles POST /api/admin/users/:id/password-reset
// @Summary Reset an account password
// @Description Generates a temporary password and revokes existing sessions
// @Tags admin
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} object{temporaryPassword=string}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id}/password-reset [post]
// @Router /admin/vendors/{id}/password-reset [post]
func (s *Server) ResetAccountPassword(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}

		temp, err := s.accounts.ResetPassword(c.UserContext(), currentAccount(c), role, id)
		if err != nil {
			return s.respond(c, err)
		}
		return c.JSON(fiber.Map{"temporaryPassword": temp})
	}
}

// RevokeAccountSessions handles POST /api/admin/users/:id/revoke-sessions
// @Summary Revoke every session of an account
// @Tags admin
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id}/revoke-sessions [post]
// @Router /admin/vendors/{id}/revoke-sessions [post]
func (s *Server) RevokeAccountSessions(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}

		if err := s.accounts.RevokeSessions(c.UserContext(), currentAccount(c), role, id); err != nil {
			return s.respond(c, err)
		}
		return c.JSON(fiber.Map{"message": "Sessions revoked"})
	}
}
