package repository

import (
	"context"
	"strings"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// ListArticlesFilter narrows and pages the article listing.
type ListArticlesFilter struct {
	Search   string
	Category string
	AuthorID uint
	Limit    int
	Offset   int
}

// ArticleRepository defines persistence operations for articles.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id uint) (*models.Article, error)
	AuthorOf(ctx context.Context, id uint) (uint, error)
	List(ctx context.Context, filter ListArticlesFilter) ([]models.Article, int64, error)
	ListSavedBy(ctx context.Context, userID uint) ([]models.Article, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

// withEngagementCounts selects article columns plus read-only engagement counts.
func withEngagementCounts(db *gorm.DB) *gorm.DB {
	return db.Select("articles.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.article_id = articles.id) AS likes_count, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.article_id = articles.id) AS comments_count, " +
		"(SELECT COUNT(*) FROM saved_articles WHERE saved_articles.article_id = articles.id) AS saves_count")
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(article).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *articleRepository) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).
		Scopes(withEngagementCounts).
		Preload("Author", publicUser).
		First(&article, id).Error
	if err != nil {
		return nil, translateError(err, "Article", id)
	}
	return &article, nil
}

// AuthorOf returns the author id of an article, or NOT_FOUND.
func (r *articleRepository) AuthorOf(ctx context.Context, id uint) (uint, error) {
	var article models.Article
	err := r.db.WithContext(ctx).Select("id", "author_id").First(&article, id).Error
	if err != nil {
		return 0, translateError(err, "Article", id)
	}
	return article.AuthorID, nil
}

func (r *articleRepository) filtered(ctx context.Context, f ListArticlesFilter) *gorm.DB {
	q := readDB(r.db).WithContext(ctx).Model(&models.Article{})
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where("(LOWER(articles.title) LIKE ? ESCAPE '!' OR LOWER(articles.category) LIKE ? ESCAPE '!' OR LOWER(articles.content) LIKE ? ESCAPE '!')",
			like, like, like)
	}
	if category := strings.TrimSpace(f.Category); category != "" {
		q = q.Where("LOWER(articles.category) = ?", strings.ToLower(category))
	}
	if f.AuthorID != 0 {
		q = q.Where("articles.author_id = ?", f.AuthorID)
	}
	return q
}

// List returns one page of matching articles newest-first and the total match count.
func (r *articleRepository) List(ctx context.Context, f ListArticlesFilter) ([]models.Article, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	q := r.filtered(ctx, f).
		Scopes(withEngagementCounts).
		Preload("Author", publicUser).
		Order("articles.created_at DESC, articles.id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	articles := []models.Article{}
	if err := q.Find(&articles).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return articles, total, nil
}

// ListSavedBy returns the articles a user saved, most recently saved first.
func (r *articleRepository) ListSavedBy(ctx context.Context, userID uint) ([]models.Article, error) {
	articles := []models.Article{}
	err := readDB(r.db).WithContext(ctx).
		Scopes(withEngagementCounts).
		Preload("Author", publicUser).
		Joins("JOIN saved_articles ON saved_articles.article_id = articles.id AND saved_articles.user_id = ?", userID).
		Order("saved_articles.created_at DESC, articles.id DESC").
		Find(&articles).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return articles, nil
}

func (r *articleRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Article{ID: id}).Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Article", id)
	}
	return nil
}

// Delete removes the article and its comments, likes and saves in one transaction.
func (r *articleRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{&models.Comment{}, &models.Like{}, &models.SavedArticle{}} {
			if err := tx.Where("article_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Article{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Article", id)
		}
		return nil
	})
	return translateError(err, "Article", id)
}
