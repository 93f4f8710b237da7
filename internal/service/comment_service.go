package service

import (
	"context"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

type CommentService struct {
	comments repository.CommentRepository
	articles repository.ArticleRepository
	views    ViewStore
}

func NewCommentService(comments repository.CommentRepository, articles repository.ArticleRepository, views ViewStore) *CommentService {
	return &CommentService{comments: comments, articles: articles, views: views}
}

// Create adds a comment by actor to an existing article.
func (s *CommentService) Create(ctx context.Context, actor *models.User, articleID uint, body string) (*models.Comment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validation.AsAppError(validation.Comment(body)); err != nil {
		return nil, err
	}

	authorID, err := s.articles.AuthorOf(ctx, articleID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Body:      strings.TrimSpace(body),
		UserID:    actor.ID,
		ArticleID: articleID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.views.MarkStale(ctx,
		cache.ArticleView(articleID),
		cache.AnalyticsView(authorID),
		cache.DashboardView(authorID),
	)
	return comment, nil
}
