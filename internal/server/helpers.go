package server

import (
	"errors"
	"io"
	"strings"

	"inkwell/internal/imagehost"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed paging query parameters.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

const maxPaginationLimit = 50

// parsePagination reads page (1-based), limit and offset. page wins over offset.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	page := c.QueryInt("page", 0)
	if page >= 1 {
		offset = (page - 1) * limit
	} else {
		page = offset/limit + 1
	}

	return Pagination{Page: page, Limit: limit, Offset: offset}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid article ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// respondError maps err to its status code and writes the error body.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// wantsHTML reports whether the caller is a browser form submission.
func wantsHTML(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML)
}

// respond writes data as JSON, or a 303 redirect to location for browser callers.
func respond(c *fiber.Ctx, status int, data interface{}, location string) error {
	if location != "" && wantsHTML(c) {
		return c.Redirect(location, fiber.StatusSeeOther)
	}
	return c.Status(status).JSON(data)
}

type articleForm struct {
	Title    string `json:"title" form:"title"`
	Category string `json:"category" form:"category"`
	Content  string `json:"content" form:"content"`
}

// readArticleInput parses a multipart or JSON article form.
// The featuredImage file is optional here; the service decides whether it is required.
func readArticleInput(c *fiber.Ctx) (service.ArticleInput, error) {
	var form articleForm
	if err := c.BodyParser(&form); err != nil {
		return service.ArticleInput{}, models.NewValidationError("Invalid request body")
	}
	in := service.ArticleInput{Title: form.Title, Category: form.Category, Content: form.Content}

	file, err := c.FormFile("featuredImage")
	if err != nil {
		return in, nil
	}
	if file.Size == 0 {
		return in, nil
	}

	src, err := file.Open()
	if err != nil {
		return in, models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(src)
	if err != nil {
		return in, models.NewValidationError("Unable to read uploaded file")
	}
	in.Media = &imagehost.Media{
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}
	return in, nil
}

func requireWebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
