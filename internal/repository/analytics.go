package repository

import (
	"context"
	"time"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// AuthorTotals aggregates engagement over every article an author owns.
type AuthorTotals struct {
	Articles int64
	Likes    int64
	Comments int64
	Saves    int64
}

// ArticleEngagement is the per-article engagement row used by analytics.
type ArticleEngagement struct {
	ArticleID uint      `json:"article_id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int64     `json:"likes"`
	Comments  int64     `json:"comments"`
	Saves     int64     `json:"saves"`
}

// Total is likes + comments + saves.
func (e ArticleEngagement) Total() int64 {
	return e.Likes + e.Comments + e.Saves
}

// AnalyticsRepository reads author-level aggregates.
type AnalyticsRepository interface {
	Totals(ctx context.Context, authorID uint) (AuthorTotals, error)
	RecentEngagement(ctx context.Context, authorID uint, limit int) ([]ArticleEngagement, error)
	CountSince(ctx context.Context, authorID uint, since time.Time) (int64, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

const authorTotalsSQL = `SELECT
	(SELECT COUNT(*) FROM articles WHERE articles.author_id = @author) AS articles,
	(SELECT COUNT(*) FROM likes JOIN articles ON articles.id = likes.article_id WHERE articles.author_id = @author) AS likes,
	(SELECT COUNT(*) FROM comments JOIN articles ON articles.id = comments.article_id WHERE articles.author_id = @author) AS comments,
	(SELECT COUNT(*) FROM saved_articles JOIN articles ON articles.id = saved_articles.article_id WHERE articles.author_id = @author) AS saves`

func (r *analyticsRepository) Totals(ctx context.Context, authorID uint) (AuthorTotals, error) {
	var t AuthorTotals
	err := readDB(r.db).WithContext(ctx).
		Raw(authorTotalsSQL, map[string]interface{}{"author": authorID}).
		Scan(&t).Error
	if err != nil {
		return AuthorTotals{}, models.NewInternalError(err)
	}
	return t, nil
}

// RecentEngagement returns engagement for the author's newest articles.
// A non-positive limit returns every article.
func (r *analyticsRepository) RecentEngagement(ctx context.Context, authorID uint, limit int) ([]ArticleEngagement, error) {
	rows := []ArticleEngagement{}
	q := readDB(r.db).WithContext(ctx).
		Model(&models.Article{}).
		Select("articles.id AS article_id, articles.title, articles.category, articles.created_at, "+
			"(SELECT COUNT(*) FROM likes WHERE likes.article_id = articles.id) AS likes, "+
			"(SELECT COUNT(*) FROM comments WHERE comments.article_id = articles.id) AS comments, "+
			"(SELECT COUNT(*) FROM saved_articles WHERE saved_articles.article_id = articles.id) AS saves").
		Where("articles.author_id = ?", authorID).
		Order("articles.created_at DESC, articles.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (r *analyticsRepository) CountSince(ctx context.Context, authorID uint, since time.Time) (int64, error) {
	var n int64
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Article{}).
		Where("author_id = ? AND created_at >= ?", authorID, since).
		Count(&n).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
