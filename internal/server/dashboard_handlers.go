package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetDashboard godoc
// @Summary Own articles
// @Description The caller's articles newest-first with the number of comments received
// @Tags dashboard
// @Produce json
// @Success 200 {object} service.Dashboard
// @Security BearerAuth
// @Router /dashboard [get]
func (s *Server) GetDashboard(c *fiber.Ctx) error {
	dash, err := s.articleService.ListByAuthor(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dash)
}

// GetAnalytics godoc
// @Summary Author analytics
// @Tags dashboard
// @Produce json
// @Success 200 {object} service.Analytics
// @Security BearerAuth
// @Router /dashboard/analytics [get]
func (s *Server) GetAnalytics(c *fiber.Ctx) error {
	analytics, err := s.analyticsService.ForAuthor(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(analytics)
}

// GetSavedArticles godoc
// @Summary Saved articles
// @Tags dashboard
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /dashboard/saved [get]
func (s *Server) GetSavedArticles(c *fiber.Ctx) error {
	articles, err := s.articleService.ListSaved(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"articles": articles})
}

// GetMe godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Security BearerAuth
// @Router /me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	return c.JSON(actorFrom(c))
}

// GetFeatures godoc
// @Summary Feature flags for the caller
// @Tags users
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /features [get]
func (s *Server) GetFeatures(c *fiber.Ctx) error {
	return c.JSON(s.flags.Snapshot(viewerID(c)))
}
