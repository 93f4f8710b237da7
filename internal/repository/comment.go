package repository

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByArticle(ctx context.Context, articleID uint) ([]models.Comment, error)
	CountForAuthor(ctx context.Context, authorID uint) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment and loads its author's public fields.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("User").Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Select(models.PublicUserColumns).First(&comment.User, comment.UserID).Error; err != nil {
		return translateError(err, "User", comment.UserID)
	}
	return nil
}

// ListByArticle returns every comment on an article, newest first.
func (r *commentRepository) ListByArticle(ctx context.Context, articleID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.db.WithContext(ctx).
		Preload("User", publicUser).
		Where("article_id = ?", articleID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// CountForAuthor counts comments received across all of an author's articles.
func (r *commentRepository) CountForAuthor(ctx context.Context, authorID uint) (int64, error) {
	var n int64
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Comment{}).
		Joins("JOIN articles ON articles.id = comments.article_id").
		Where("articles.author_id = ?", authorID).
		Count(&n).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
