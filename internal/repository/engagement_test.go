package repository

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagementRepository_ToggleTwiceRestoresState(t *testing.T) {
	for _, rel := range []Relation{RelationLike, RelationSave} {
		t.Run(string(rel), func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewEngagementRepository(db)
			ctx := context.Background()
			author := createUser(t, db, "author")
			reader := createUser(t, db, "reader")
			a := createArticle(t, db, author.ID, "Toggled", "General", 1)

			present, err := repo.Toggle(ctx, rel, reader.ID, a.ID)
			require.NoError(t, err)
			assert.True(t, present)

			exists, err := repo.Exists(ctx, rel, reader.ID, a.ID)
			require.NoError(t, err)
			assert.True(t, exists)

			count, err := repo.Count(ctx, rel, a.ID)
			require.NoError(t, err)
			assert.EqualValues(t, 1, count)

			present, err = repo.Toggle(ctx, rel, reader.ID, a.ID)
			require.NoError(t, err)
			assert.False(t, present)

			count, err = repo.Count(ctx, rel, a.ID)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestEngagementRepository_RelationsAreIndependent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "author")
	reader := createUser(t, db, "reader")
	a := createArticle(t, db, author.ID, "Both", "General", 1)

	_, err := repo.Toggle(ctx, RelationLike, reader.ID, a.ID)
	require.NoError(t, err)

	saved, err := repo.Exists(ctx, RelationSave, reader.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	var likes []models.Like
	require.NoError(t, db.Find(&likes).Error)
	require.Len(t, likes, 1)
	assert.Equal(t, reader.ID, likes[0].UserID)
}

func TestEngagementRepository_UserIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "author")
	r1 := createUser(t, db, "r1")
	r2 := createUser(t, db, "r2")
	a := createArticle(t, db, author.ID, "Popular", "General", 1)

	require.NoError(t, db.Create(&models.SavedArticle{UserID: r2.ID, ArticleID: a.ID, CreatedAt: baseTime}).Error)
	require.NoError(t, db.Create(&models.SavedArticle{UserID: r1.ID, ArticleID: a.ID, CreatedAt: baseTime.Add(time.Minute)}).Error)

	ids, err := repo.UserIDs(ctx, RelationSave, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{r2.ID, r1.ID}, ids)
}

func TestEngagementRepository_UnknownRelation(t *testing.T) {
	repo := NewEngagementRepository(setupTestDB(t))
	_, err := repo.Toggle(context.Background(), Relation("follows"), 1, 1)
	assert.True(t, models.HasCode(err, models.CodeInternal))
}
