package service

import (
	"context"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_Create(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	author := createUser(t, f.db, "user_author")
	reader := createUser(t, f.db, "user_reader")
	a, err := f.articles.Create(ctx, author, validInput("Discussed"))
	require.NoError(t, err)
	f.views.reset()

	c, err := f.comments.Create(ctx, reader, a.ID, "  Nice article!  ")
	require.NoError(t, err)
	assert.Equal(t, "Nice article!", c.Body)
	assert.Equal(t, reader.ID, c.User.ID)
	assert.Equal(t, reader.Name, c.User.Name)

	assert.ElementsMatch(t, []cache.View{
		cache.ArticleView(a.ID), cache.AnalyticsView(author.ID), cache.DashboardView(author.ID),
	}, f.views.marked())

	detail, err := f.articles.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "Nice article!", detail.Comments[0].Body)
}

func TestCommentService_Errors(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	reader := createUser(t, f.db, "user_reader")

	_, err := f.comments.Create(ctx, nil, 1, "hello")
	assertCode(t, err, models.CodeUnauthorized)

	_, err = f.comments.Create(ctx, reader, 1, "   ")
	assertCode(t, err, models.CodeValidation)

	_, err = f.comments.Create(ctx, reader, 404, "hello")
	assertCode(t, err, models.CodeNotFound)
}
