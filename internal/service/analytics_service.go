package service

import (
	"context"
	"math"
	"sort"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const (
	defaultAnalyticsWindow = 10
	topCategoryLimit       = 5
	recentPeriod           = 30 * 24 * time.Hour
)

// CategoryCount is the number of articles in a category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Analytics summarises an author's articles and their engagement.
type Analytics struct {
	TotalArticles         int64                          `json:"total_articles"`
	TotalLikes            int64                          `json:"total_likes"`
	TotalComments         int64                          `json:"total_comments"`
	TotalSaves            int64                          `json:"total_saves"`
	TotalEngagement       int64                          `json:"total_engagement"`
	AvgLikesPerArticle    float64                        `json:"avg_likes_per_article"`
	AvgCommentsPerArticle float64                        `json:"avg_comments_per_article"`
	ArticlesLast30Days    int64                          `json:"articles_last_30_days"`
	Recent                []repository.ArticleEngagement `json:"recent"`
	TopCategories         []CategoryCount                `json:"top_categories"`
	MostEngaged           *repository.ArticleEngagement  `json:"most_engaged,omitempty"`
}

type AnalyticsService struct {
	analytics repository.AnalyticsRepository
	views     ViewStore
	window    int
	now       func() time.Time
}

// NewAnalyticsService creates the aggregator. window is the number of recent
// articles used for per-article stats, top categories and the most engaged article.
func NewAnalyticsService(analytics repository.AnalyticsRepository, views ViewStore, window int) *AnalyticsService {
	if window <= 0 {
		window = defaultAnalyticsWindow
	}
	return &AnalyticsService{analytics: analytics, views: views, window: window, now: time.Now}
}

// ForAuthor computes the actor's analytics.
func (s *AnalyticsService) ForAuthor(ctx context.Context, actor *models.User) (*Analytics, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var out Analytics
	err := s.views.Aside(ctx, cache.AnalyticsView(actor.ID), "summary", &out, func() error {
		a, err := s.compute(ctx, actor.ID)
		if err != nil {
			return err
		}
		out = *a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AnalyticsService) compute(ctx context.Context, authorID uint) (*Analytics, error) {
	totals, err := s.analytics.Totals(ctx, authorID)
	if err != nil {
		return nil, err
	}
	recent, err := s.analytics.RecentEngagement(ctx, authorID, s.window)
	if err != nil {
		return nil, err
	}
	last30, err := s.analytics.CountSince(ctx, authorID, s.now().Add(-recentPeriod))
	if err != nil {
		return nil, err
	}

	a := &Analytics{
		TotalArticles:      totals.Articles,
		TotalLikes:         totals.Likes,
		TotalComments:      totals.Comments,
		TotalSaves:         totals.Saves,
		TotalEngagement:    totals.Likes + totals.Comments + totals.Saves,
		ArticlesLast30Days: last30,
		Recent:             recent,
		TopCategories:      topCategories(recent, topCategoryLimit),
		MostEngaged:        mostEngaged(recent),
	}
	if totals.Articles > 0 {
		a.AvgLikesPerArticle = roundTenth(float64(totals.Likes) / float64(totals.Articles))
		a.AvgCommentsPerArticle = roundTenth(float64(totals.Comments) / float64(totals.Articles))
	}
	return a, nil
}

// topCategories counts categories in rows and returns the n largest.
// Ties keep first-encountered order.
func topCategories(rows []repository.ArticleEngagement, n int) []CategoryCount {
	out := []CategoryCount{}
	index := map[string]int{}
	for _, r := range rows {
		if i, ok := index[r.Category]; ok {
			out[i].Count++
			continue
		}
		index[r.Category] = len(out)
		out = append(out, CategoryCount{Category: r.Category, Count: 1})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// mostEngaged returns the first row with the strictly largest total, or nil
// when no row has any engagement.
func mostEngaged(rows []repository.ArticleEngagement) *repository.ArticleEngagement {
	var best *repository.ArticleEngagement
	var top int64
	for i := range rows {
		if t := rows[i].Total(); t > top {
			top = t
			best = &rows[i]
		}
	}
	if best == nil {
		return nil
	}
	pick := *best
	return &pick
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
