package service

import (
	"context"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagementService_LikeTwiceRestores(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	author := createUser(t, f.db, "user_author")
	reader := createUser(t, f.db, "user_reader")
	a, err := f.articles.Create(ctx, author, validInput("Likeable"))
	require.NoError(t, err)

	on, err := f.engage.ToggleLike(ctx, reader, a.ID)
	require.NoError(t, err)
	assert.True(t, on.Active)
	assert.Equal(t, int64(1), on.Count)

	off, err := f.engage.ToggleLike(ctx, reader, a.ID)
	require.NoError(t, err)
	assert.False(t, off.Active)
	assert.Zero(t, off.Count)

	var n int64
	require.NoError(t, f.db.Model(&models.Like{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestEngagementService_SaveInvalidatesSavedView(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	author := createUser(t, f.db, "user_author")
	reader := createUser(t, f.db, "user_reader")
	a, err := f.articles.Create(ctx, author, validInput("Saveable"))
	require.NoError(t, err)
	f.views.reset()

	res, err := f.engage.ToggleSave(ctx, reader, a.ID)
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.ElementsMatch(t, []cache.View{
		cache.ArticleView(a.ID), cache.AnalyticsView(author.ID), cache.SavedView(reader.ID),
	}, f.views.marked())

	f.views.reset()
	_, err = f.engage.ToggleLike(ctx, reader, a.ID)
	require.NoError(t, err)
	assert.NotContains(t, f.views.marked(), cache.SavedView(reader.ID))
}

func TestEngagementService_LikeAndSaveAreIndependent(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	author := createUser(t, f.db, "user_author")
	a, err := f.articles.Create(ctx, author, validInput("Both"))
	require.NoError(t, err)

	_, err = f.engage.ToggleLike(ctx, author, a.ID)
	require.NoError(t, err)
	saved, err := f.engage.ToggleSave(ctx, author, a.ID)
	require.NoError(t, err)
	assert.True(t, saved.Active)
	assert.Equal(t, int64(1), saved.Count)

	detail, err := f.articles.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, detail.LikedBy(author.ID))
	assert.True(t, detail.SavedBy(author.ID))
}

func TestEngagementService_Errors(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	reader := createUser(t, f.db, "user_reader")

	_, err := f.engage.ToggleLike(ctx, nil, 1)
	assertCode(t, err, models.CodeUnauthorized)

	_, err = f.engage.ToggleSave(ctx, reader, 404)
	assertCode(t, err, models.CodeNotFound)
}
