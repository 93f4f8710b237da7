package server

import (
	"fmt"
	"net/url"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ArticleListResponse is one page of the article listing.
type ArticleListResponse struct {
	Items      []models.Article `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

// ArticleDetailResponse is an article with its comments and the viewer's engagement.
type ArticleDetailResponse struct {
	Article  models.Article   `json:"article"`
	Comments []models.Comment `json:"comments"`
	IsLiked  bool             `json:"is_liked"`
	IsSaved  bool             `json:"is_saved"`
}

// ListArticles godoc
// @Summary List articles
// @Description Newest-first listing with optional search and category filter
// @Tags articles
// @Produce json
// @Param search query string false "Substring matched against title, category and content"
// @Param category query string false "Exact category, case-insensitive"
// @Param page query int false "1-based page"
// @Param limit query int false "Page size"
// @Success 200 {object} ArticleListResponse
// @Router /articles [get]
func (s *Server) ListArticles(c *fiber.Ctx) error {
	p := parsePagination(c, s.articleService.PageSize())

	page, err := s.articleService.List(c.UserContext(), service.ListArticlesInput{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Limit:    p.Limit,
		Offset:   p.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(ArticleListResponse{
		Items:      page.Items,
		Total:      page.Total,
		Page:       p.Page,
		TotalPages: service.TotalPages(page.Total, page.Limit),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
}

// GetArticle godoc
// @Summary Get an article
// @Tags articles
// @Produce json
// @Param id path int true "Article ID"
// @Success 200 {object} ArticleDetailResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{id} [get]
func (s *Server) GetArticle(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.articleService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	viewer := viewerID(c)
	return c.JSON(ArticleDetailResponse{
		Article:  detail.Article,
		Comments: detail.Comments,
		IsLiked:  detail.LikedBy(viewer),
		IsSaved:  detail.SavedBy(viewer),
	})
}

// CreateArticle godoc
// @Summary Create an article
// @Tags articles
// @Accept mpfd
// @Produce json
// @Param title formData string true "Title"
// @Param category formData string true "Category"
// @Param content formData string true "Rich text content"
// @Param featuredImage formData file true "Featured image"
// @Success 201 {object} models.Article
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /articles [post]
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	in, err := readArticleInput(c)
	if err != nil {
		return respondError(c, err)
	}

	article, err := s.articleService.Create(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, article, "/dashboard")
}

// GetArticleForEdit godoc
// @Summary Get an article for editing
// @Tags articles
// @Produce json
// @Param id path int true "Article ID"
// @Success 200 {object} models.Article
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /articles/{id}/edit [get]
func (s *Server) GetArticleForEdit(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	article, err := s.articleService.GetForEdit(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}

// UpdateArticle godoc
// @Summary Edit an article
// @Description The featured image is replaced only when a new file is sent
// @Tags articles
// @Accept mpfd
// @Produce json
// @Param id path int true "Article ID"
// @Param title formData string true "Title"
// @Param category formData string true "Category"
// @Param content formData string true "Rich text content"
// @Param featuredImage formData file false "New featured image"
// @Success 200 {object} models.Article
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /articles/{id} [put]
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	in, err := readArticleInput(c)
	if err != nil {
		return respondError(c, err)
	}

	article, err := s.articleService.Edit(c.UserContext(), actorFrom(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, article, "/dashboard")
}

// DeleteArticle godoc
// @Summary Delete an article
// @Tags articles
// @Param id path int true "Article ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /articles/{id} [delete]
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.articleService.Delete(c.UserContext(), actorFrom(c), id); err != nil {
		return respondError(c, err)
	}
	if wantsHTML(c) {
		return c.Redirect("/dashboard", fiber.StatusSeeOther)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SearchRedirect godoc
// @Summary Submit the search form
// @Tags articles
// @Accept x-www-form-urlencoded
// @Param search formData string false "Search term"
// @Success 303
// @Router /search [post]
func (s *Server) SearchRedirect(c *fiber.Ctx) error {
	term := strings.TrimSpace(c.FormValue("search"))
	if term == "" {
		term = strings.TrimSpace(c.FormValue("q"))
	}
	location := "/articles"
	if term != "" {
		location = fmt.Sprintf("/articles?search=%s", url.QueryEscape(term))
	}
	return c.Redirect(location, fiber.StatusSeeOther)
}
