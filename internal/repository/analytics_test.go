package repository

import (
	"context"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAnalyticsRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	other := createUser(t, db, "other")
	reader := createUser(t, db, "reader")

	old := createArticle(t, db, author.ID, "Old", "Go", 0)
	fresh := createArticle(t, db, author.ID, "Fresh", "Rust", 60*24*40)
	foreign := createArticle(t, db, other.ID, "Foreign", "Go", 5)

	require.NoError(t, db.Create(&models.Like{UserID: reader.ID, ArticleID: old.ID}).Error)
	require.NoError(t, db.Create(&models.Like{UserID: other.ID, ArticleID: fresh.ID}).Error)
	require.NoError(t, db.Create(&models.SavedArticle{UserID: reader.ID, ArticleID: fresh.ID}).Error)
	require.NoError(t, db.Create(&models.Like{UserID: reader.ID, ArticleID: foreign.ID}).Error)
	require.NoError(t, comments.Create(ctx, &models.Comment{UserID: reader.ID, ArticleID: fresh.ID, Body: "Great"}))

	totals, err := repo.Totals(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, AuthorTotals{Articles: 2, Likes: 2, Comments: 1, Saves: 1}, totals)

	recent, err := repo.RecentEngagement(ctx, author.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Fresh", recent[0].Title)
	assert.Equal(t, "Rust", recent[0].Category)
	assert.EqualValues(t, 3, recent[0].Total())
	assert.Equal(t, old.ID, recent[1].ArticleID)

	limited, err := repo.RecentEngagement(ctx, author.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	n, err := repo.CountSince(ctx, author.ID, baseTime.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	received, err := comments.CountForAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, received)
}

func TestCommentRepository_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "author")
	reader := createUser(t, db, "reader")
	a := createArticle(t, db, author.ID, "Discussed", "General", 1)

	first := &models.Comment{UserID: reader.ID, ArticleID: a.ID, Body: "First!"}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, reader.Name, first.User.Name)

	require.NoError(t, repo.Create(ctx, &models.Comment{UserID: author.ID, ArticleID: a.ID, Body: "Thanks"}))

	list, err := repo.ListByArticle(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Thanks", list[0].Body)
	assert.Equal(t, author.Name, list[0].User.Name)
}
