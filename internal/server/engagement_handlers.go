package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Body string `json:"body" form:"body"`
}

// CreateComment godoc
// @Summary Comment on an article
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Article ID"
// @Param request body commentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /articles/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		req.Body = c.FormValue("body")
	}

	comment, err := s.commentService.Create(c.UserContext(), actorFrom(c), id, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, comment, fmt.Sprintf("/articles/%d", id))
}

// ToggleLike godoc
// @Summary Like or unlike an article
// @Tags engagement
// @Produce json
// @Param id path int true "Article ID"
// @Success 200 {object} service.ToggleResult
// @Security BearerAuth
// @Router /articles/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	res, err := s.engagementService.ToggleLike(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// ToggleSave godoc
// @Summary Save or unsave an article
// @Tags engagement
// @Produce json
// @Param id path int true "Article ID"
// @Success 200 {object} service.ToggleResult
// @Security BearerAuth
// @Router /articles/{id}/save [post]
func (s *Server) ToggleSave(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	res, err := s.engagementService.ToggleSave(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
