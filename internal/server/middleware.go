package server

import (
	"context"
	"strings"

	"atelier/internal/auth"
	"atelier/internal/featureflags"
	"atelier/internal/middleware"
	"atelier/internal/models"

	"github.com/gofiber/fiber/v2"
)

const accountLocal = "account"

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// authenticate validates the bearer token and stores the account on the request.
func (s *Server) authenticate(c *fiber.Ctx, token string) error {
	acc, _, err := s.sessions.Validate(c.UserContext(), token)
	if err != nil {
		return err
	}

	c.Locals(accountLocal, acc)
	c.Locals("userID", acc.ID)
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, acc.ID)
	ctx = context.WithValue(ctx, middleware.RoleKey, string(acc.Role))
	c.SetUserContext(ctx)
	return nil
}

// AuthRequired rejects requests without a valid, current session token.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals(accountLocal).(*models.Account); ok {
			return c.Next()
		}

		token := bearerToken(c)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Authorization required"))
		}
		if err := s.authenticate(c, token); err != nil {
			return s.respond(c, err)
		}
		return c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is sent. Invalid or
// stale tokens are treated as anonymous.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := bearerToken(c); token != "" {
			if err := s.authenticate(c, token); err != nil && !models.HasCode(err, models.CodeUnauthenticated) {
				return s.respond(c, err)
			}
		}
		return c.Next()
	}
}

// RoleRequired allows only the listed roles. It must run after AuthRequired.
func (s *Server) RoleRequired(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := auth.Require(currentAccount(c), roles...); err != nil {
			return s.respond(c, err)
		}
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin accounts with 403.
func (s *Server) AdminRequired() fiber.Handler {
	return s.RoleRequired(models.RoleAdmin)
}

// LegacyEditsEnabled hides the /api/edits aliases when the flag is off.
func (s *Server) LegacyEditsEnabled() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if acc := currentAccount(c); acc != nil {
			id = acc.ID
		}
		if !s.featureFlags.Enabled(featureflags.LegacyEdits, id) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				&models.AppError{Code: models.CodeNotFound, Message: "Not found"})
		}
		return c.Next()
	}
}

// currentAccount returns the authenticated account, or nil for anonymous callers.
func currentAccount(c *fiber.Ctx) *models.Account {
	acc, _ := c.Locals(accountLocal).(*models.Account)
	return acc
}
