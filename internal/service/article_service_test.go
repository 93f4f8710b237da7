package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/imagehost"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleService_CreateThenGet(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	author := createUser(t, f.db, "user_author")

	in := validInput("Next.js Basics")
	created, err := f.articles.Create(ctx, author, in)
	require.NoError(t, err)
	assert.Equal(t, author.ID, created.Author.ID)

	detail, err := f.articles.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Title, detail.Article.Title)
	assert.Equal(t, in.Category, detail.Article.Category)
	assert.Equal(t, in.Content, detail.Article.Content)
	assert.Equal(t, "https://img.example/blog-articles/img-1", detail.Article.FeaturedImage)
	assert.Equal(t, author.ID, detail.Article.AuthorID)
	assert.Equal(t, author.Name, detail.Article.Author.Name)
	assert.Empty(t, detail.Comments)
	assert.False(t, detail.LikedBy(author.ID))

	assert.ElementsMatch(t, []cache.View{
		cache.ViewHome, cache.ViewArticles, cache.DashboardView(author.ID), cache.AnalyticsView(author.ID),
	}, f.views.marked())
}

func TestArticleService_CreateValidation(t *testing.T) {
	f := newArticleFixture(t)
	author := createUser(t, f.db, "user_author")

	_, err := f.articles.Create(context.Background(), author, ArticleInput{Title: "ab", Content: "short"})
	assertCode(t, err, models.CodeValidation)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "title")
	assert.Contains(t, appErr.Fields, "category")
	assert.Contains(t, appErr.Fields, "content")
	assert.Contains(t, appErr.Fields, "featuredImage")
	assert.Empty(t, f.host.Uploads())
}

func TestArticleService_CreateRequiresActor(t *testing.T) {
	f := newArticleFixture(t)
	_, err := f.articles.Create(context.Background(), nil, validInput("Title"))
	assertCode(t, err, models.CodeUnauthorized)
}

func TestArticleService_UploadFailure(t *testing.T) {
	f := newArticleFixture(t)
	author := createUser(t, f.db, "user_author")
	f.host.FailUploads(errors.New("host unavailable"))

	_, err := f.articles.Create(context.Background(), author, validInput("Broken Upload"))
	assertCode(t, err, models.CodeUpstream)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "featuredImage")

	var n int64
	require.NoError(t, f.db.Model(&models.Article{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, f.views.marked())
}

func TestArticleService_NonAuthorCannotMutate(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	author := createUser(t, f.db, "user_author")
	other := createUser(t, f.db, "user_other")

	created, err := f.articles.Create(ctx, author, validInput("Original Title"))
	require.NoError(t, err)
	uploadsBefore := len(f.host.Uploads())

	_, err = f.articles.Edit(ctx, other, created.ID, validInput("Hijacked Title"))
	assertCode(t, err, models.CodeForbidden)

	err = f.articles.Delete(ctx, other, created.ID)
	assertCode(t, err, models.CodeForbidden)

	_, err = f.articles.GetForEdit(ctx, other, created.ID)
	assertCode(t, err, models.CodeForbidden)

	var stored models.Article
	require.NoError(t, f.db.First(&stored, created.ID).Error)
	assert.Equal(t, "Original Title", stored.Title)
	assert.Equal(t, created.FeaturedImage, stored.FeaturedImage)
	assert.Len(t, f.host.Uploads(), uploadsBefore)
	assert.Empty(t, f.host.Deleted())
}

func TestArticleService_EditMissing(t *testing.T) {
	f := newArticleFixture(t)
	author := createUser(t, f.db, "user_author")

	_, err := f.articles.Edit(context.Background(), author, 999, validInput("Whatever"))
	assertCode(t, err, models.CodeNotFound)
}

func TestArticleService_EditKeepsImageWithoutMedia(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	author := createUser(t, f.db, "user_author")

	created, err := f.articles.Create(ctx, author, validInput("First Title"))
	require.NoError(t, err)

	in := validInput("Second Title")
	in.Media = nil
	updated, err := f.articles.Edit(ctx, author, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Second Title", updated.Title)
	assert.Equal(t, created.FeaturedImage, updated.FeaturedImage)
	assert.Empty(t, f.host.Deleted())
}

func TestArticleService_EditReplacesImage(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	author := createUser(t, f.db, "user_author")
	saver := createUser(t, f.db, "user_saver")

	created, err := f.articles.Create(ctx, author, validInput("First Title"))
	require.NoError(t, err)
	_, err = f.engage.ToggleSave(ctx, saver, created.ID)
	require.NoError(t, err)
	f.views.reset()

	updated, err := f.articles.Edit(ctx, author, created.ID, validInput("Second Title"))
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/blog-articles/img-2", updated.FeaturedImage)
	assert.Equal(t, []string{"blog-articles/img-1"}, f.host.Deleted())

	marked := f.views.marked()
	assert.Contains(t, marked, cache.ArticleView(created.ID))
	assert.Contains(t, marked, cache.SavedView(saver.ID))
	assert.Contains(t, marked, cache.ViewHome)
}

func TestArticleService_DeleteCascades(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	author := createUser(t, f.db, "user_author")
	reader := createUser(t, f.db, "user_reader")

	created, err := f.articles.Create(ctx, author, validInput("Doomed Article"))
	require.NoError(t, err)

	_, err = f.comments.Create(ctx, reader, created.ID, "Great read")
	require.NoError(t, err)
	_, err = f.engage.ToggleLike(ctx, reader, created.ID)
	require.NoError(t, err)
	_, err = f.engage.ToggleSave(ctx, reader, created.ID)
	require.NoError(t, err)
	f.views.reset()

	require.NoError(t, f.articles.Delete(ctx, author, created.ID))

	for _, model := range []interface{}{&models.Article{}, &models.Comment{}, &models.Like{}, &models.SavedArticle{}} {
		var n int64
		require.NoError(t, f.db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T rows remain", model)
	}
	assert.Equal(t, []string{created.FeaturedImageKey}, f.host.Deleted())
	assert.Contains(t, f.views.marked(), cache.SavedView(reader.ID))

	_, err = f.articles.Get(ctx, created.ID)
	assertCode(t, err, models.CodeNotFound)
}

func TestArticleService_DeleteSwallowsCleanupFailure(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	author := createUser(t, f.db, "user_author")

	created, err := f.articles.Create(ctx, author, validInput("Doomed Article"))
	require.NoError(t, err)

	f.host.FailDeletes(errors.New("host unavailable"))
	require.NoError(t, f.articles.Delete(ctx, author, created.ID))
}

func TestArticleService_SearchNewestFirst(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	author := createUser(t, f.db, "user_author")

	for i, title := range []string{"Next.js Basics", "Rust Ownership", "Next.js Advanced"} {
		a := &models.Article{
			Title: title, Category: "Programming", Content: "Body for " + title,
			FeaturedImage: "https://img.example/x", AuthorID: author.ID,
			CreatedAt: time.Date(2026, 1, 1, 0, i, 0, 0, time.UTC),
		}
		require.NoError(t, f.db.Omit("Author").Create(a).Error)
	}

	page, err := f.articles.List(ctx, ListArticlesInput{Search: "next.js"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "Next.js Advanced", page.Items[0].Title)
	assert.Equal(t, "Next.js Basics", page.Items[1].Title)
}

func TestArticleService_Pagination(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	author := createUser(t, f.db, "user_author")

	for i := 0; i < 13; i++ {
		a := &models.Article{
			Title: fmt.Sprintf("Article %02d", i), Category: "General", Content: "Some content here",
			FeaturedImage: "https://img.example/x", AuthorID: author.ID,
			CreatedAt: time.Date(2026, 1, 1, 0, i, 0, 0, time.UTC),
		}
		require.NoError(t, f.db.Omit("Author").Create(a).Error)
	}

	size := f.articles.PageSize()
	require.Equal(t, 6, size)

	first, err := f.articles.List(ctx, ListArticlesInput{})
	require.NoError(t, err)
	assert.Len(t, first.Items, 6)
	assert.Equal(t, int64(13), first.Total)
	assert.Equal(t, 3, TotalPages(first.Total, size))

	third, err := f.articles.List(ctx, ListArticlesInput{Limit: size, Offset: 2 * size})
	require.NoError(t, err)
	require.Len(t, third.Items, 1)
	assert.Equal(t, "Article 00", third.Items[0].Title)
}

func TestArticleService_DashboardAndSaved(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	author := createUser(t, f.db, "user_author")
	reader := createUser(t, f.db, "user_reader")

	a1, err := f.articles.Create(ctx, author, validInput("Author First"))
	require.NoError(t, err)
	_, err = f.articles.Create(ctx, author, validInput("Author Second"))
	require.NoError(t, err)

	_, err = f.comments.Create(ctx, reader, a1.ID, "first!")
	require.NoError(t, err)
	_, err = f.engage.ToggleSave(ctx, reader, a1.ID)
	require.NoError(t, err)

	dash, err := f.articles.ListByAuthor(ctx, author)
	require.NoError(t, err)
	assert.Len(t, dash.Articles, 2)
	assert.Equal(t, int64(1), dash.TotalComments)

	saved, err := f.articles.ListSaved(ctx, reader)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, a1.ID, saved[0].ID)

	empty, err := f.articles.ListSaved(ctx, author)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestArticleService_DetailViewerFlags(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	author := createUser(t, f.db, "user_author")
	reader := createUser(t, f.db, "user_reader")

	a, err := f.articles.Create(ctx, author, validInput("Flags"))
	require.NoError(t, err)
	_, err = f.engage.ToggleLike(ctx, reader, a.ID)
	require.NoError(t, err)

	detail, err := f.articles.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, detail.LikedBy(reader.ID))
	assert.False(t, detail.SavedBy(reader.ID))
	assert.False(t, detail.LikedBy(author.ID))
	assert.False(t, detail.LikedBy(0))
	assert.Equal(t, int64(1), detail.Article.LikesCount)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 6))
	assert.Equal(t, 1, TotalPages(6, 6))
	assert.Equal(t, 2, TotalPages(7, 6))
	assert.Equal(t, 0, TotalPages(10, 0))
}

func TestArticleService_RemovesUploadWhenStoreFails(t *testing.T) {
	f := newArticleFixture(t)
	author := createUser(t, f.db, "user_author")

	// the insert fails after the upload succeeded
	require.NoError(t, f.db.Exec("DROP TABLE articles").Error)

	_, err := f.articles.Create(context.Background(), author, ArticleInput{
		Title: "Lost", Category: "General", Content: "Long enough content",
		Media: &imagehost.Media{Data: pngData},
	})
	assertCode(t, err, models.CodeInternal)
	assert.Equal(t, f.host.Uploads(), f.host.Deleted())
}
