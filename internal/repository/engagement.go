package repository

import (
	"context"
	"fmt"

	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Relation names a user-article membership table.
type Relation string

const (
	RelationLike Relation = "likes"
	RelationSave Relation = "saved_articles"
)

func (r Relation) row(userID, articleID uint) (interface{}, error) {
	switch r {
	case RelationLike:
		return &models.Like{UserID: userID, ArticleID: articleID}, nil
	case RelationSave:
		return &models.SavedArticle{UserID: userID, ArticleID: articleID}, nil
	default:
		return nil, fmt.Errorf("unknown relation %q", string(r))
	}
}

// EngagementRepository manages like and save memberships through one code path.
type EngagementRepository interface {
	Toggle(ctx context.Context, rel Relation, userID, articleID uint) (bool, error)
	Exists(ctx context.Context, rel Relation, userID, articleID uint) (bool, error)
	Count(ctx context.Context, rel Relation, articleID uint) (int64, error)
	UserIDs(ctx context.Context, rel Relation, articleID uint) ([]uint, error)
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

// Toggle removes the membership when present and inserts it otherwise.
// It returns whether the membership exists afterwards.
func (r *engagementRepository) Toggle(ctx context.Context, rel Relation, userID, articleID uint) (bool, error) {
	row, err := rel.row(userID, articleID)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	blank, _ := rel.row(0, 0)

	var present bool
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND article_id = ?", userID, articleID).Delete(blank)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			present = false
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
			return err
		}
		present = true
		return nil
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return present, nil
}

func (r *engagementRepository) Exists(ctx context.Context, rel Relation, userID, articleID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Table(string(rel)).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *engagementRepository) Count(ctx context.Context, rel Relation, articleID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table(string(rel)).Where("article_id = ?", articleID).Count(&n).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// UserIDs lists the members of a relation for an article.
func (r *engagementRepository) UserIDs(ctx context.Context, rel Relation, articleID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Table(string(rel)).
		Where("article_id = ?", articleID).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
