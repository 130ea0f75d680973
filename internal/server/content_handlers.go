package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetContent handles GET /api/content
// @Summary Public site sections
// @Tags content
// @Produce json
// @Success 200 {object} object{sections=object,revision=int,updatedAt=string}
// @Router /content [get]
func (s *Server) GetContent(c *fiber.Ctx) error {
	doc, err := s.content.Read(c.UserContext())
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(fiber.Map{
		"sections":  doc.Sections,
		"revision":  doc.Revision,
		"updatedAt": doc.UpdatedAt,
	})
}

// GetAdminContent handles GET /api/admin/content
// @Summary Full site document including every product
// @Tags admin
// @Produce json
// @Success 200 {object} service.SiteDocument
// @Security BearerAuth
// @Router /admin/content [get]
func (s *Server) GetAdminContent(c *fiber.Ctx) error {
	doc, err := s.content.Read(c.UserContext())
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(doc)
}

// SaveSection handles PUT /api/admin/content/sections/:name. The body is the
// new section value.
// @Summary Replace one site section
// @Tags admin
// @Accept json
// @Produce json
// @Param name path string true "hero, about, galleries, contact or footer"
// @Param request body object true "Section content"
// @Success 200 {object} service.SiteDocument
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/content/sections/{name} [put]
func (s *Server) SaveSection(c *fiber.Ctx) error {
	var value any
	if err := s.parseBody(c, &value); err != nil {
		return nil
	}

	doc, err := s.content.SaveSection(c.UserContext(), c.Params("name"), value, currentAccount(c).ID)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(doc)
}

// GetActivity handles GET /api/admin/activity
// @Summary Recent admin activity, newest first
// @Tags admin
// @Produce json
// @Param limit query int false "Maximum events (default 50)"
// @Success 200 {object} object{items=[]notifications.ActivityEvent}
// @Security BearerAuth
// @Router /admin/activity [get]
func (s *Server) GetActivity(c *fiber.Ctx) error {
	events, err := s.notifier.RecentActivity(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(fiber.Map{"items": events})
}

// GetFeatureFlags handles GET /api/admin/feature-flags
// @Summary Configured feature flags
// @Tags admin
// @Produce json
// @Success 200 {object} object{flags=object,evaluated=object}
// @Security BearerAuth
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"flags":     s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(currentAccount(c).ID),
	})
}
