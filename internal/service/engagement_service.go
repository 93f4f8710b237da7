package service

import (
	"context"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

// ToggleResult is the membership state after a toggle and the article's fresh count.
type ToggleResult struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
}

// EngagementService toggles likes and saves through one generic path.
type EngagementService struct {
	engagement repository.EngagementRepository
	articles   repository.ArticleRepository
	views      ViewStore
}

func NewEngagementService(engagement repository.EngagementRepository, articles repository.ArticleRepository, views ViewStore) *EngagementService {
	return &EngagementService{engagement: engagement, articles: articles, views: views}
}

func (s *EngagementService) ToggleLike(ctx context.Context, actor *models.User, articleID uint) (*ToggleResult, error) {
	return s.toggle(ctx, repository.RelationLike, actor, articleID)
}

func (s *EngagementService) ToggleSave(ctx context.Context, actor *models.User, articleID uint) (*ToggleResult, error) {
	return s.toggle(ctx, repository.RelationSave, actor, articleID)
}

func relationLabel(rel repository.Relation) string {
	if rel == repository.RelationSave {
		return "save"
	}
	return "like"
}

func (s *EngagementService) toggle(ctx context.Context, rel repository.Relation, actor *models.User, articleID uint) (*ToggleResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	authorID, err := s.articles.AuthorOf(ctx, articleID)
	if err != nil {
		return nil, err
	}

	active, err := s.engagement.Toggle(ctx, rel, actor.ID, articleID)
	if err != nil {
		return nil, err
	}
	count, err := s.engagement.Count(ctx, rel, articleID)
	if err != nil {
		return nil, err
	}

	state := "off"
	if active {
		state = "on"
	}
	observability.EngagementToggles.WithLabelValues(relationLabel(rel), state).Inc()

	views := []cache.View{cache.ArticleView(articleID), cache.AnalyticsView(authorID)}
	if rel == repository.RelationSave {
		views = append(views, cache.SavedView(actor.ID))
	}
	s.views.MarkStale(ctx, views...)

	return &ToggleResult{Active: active, Count: count}, nil
}
