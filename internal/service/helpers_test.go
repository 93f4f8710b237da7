package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"inkwell/internal/auth"
	"inkwell/internal/cache"
	"inkwell/internal/imagehost"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	return testutil.OpenSQLite(t, "service")
}

func createUser(t *testing.T, db *gorm.DB, externalID string) *models.User {
	t.Helper()
	u := &models.User{ExternalID: externalID, Name: "User " + externalID}
	require.NoError(t, db.Create(u).Error)
	return u
}

// recordingViews passes reads through and records every view marked stale.
type recordingViews struct {
	mu    sync.Mutex
	stale []cache.View
}

func (r *recordingViews) Aside(_ context.Context, _ cache.View, _ string, _ interface{}, fetch func() error) error {
	return fetch()
}

func (r *recordingViews) MarkStale(_ context.Context, views ...cache.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale = append(r.stale, views...)
}

func (r *recordingViews) marked() []cache.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]cache.View(nil), r.stale...)
}

func (r *recordingViews) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale = nil
}

type profileStub struct {
	profile auth.Profile
	err     error
	calls   int
	mu      sync.Mutex
}

func (p *profileStub) Profile(context.Context, string) (auth.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.profile, p.err
}

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func validInput(title string) ArticleInput {
	return ArticleInput{
		Title:    title,
		Category: "Web Development",
		Content:  "<p>Some long enough article body.</p>",
		Media:    &imagehost.Media{Filename: "cover.png", ContentType: "image/png", Data: pngData},
	}
}

type articleFixture struct {
	db       *gorm.DB
	views    *recordingViews
	host     *testutil.ImageHostStub
	articles *ArticleService
	comments *CommentService
	engage   *EngagementService
}

func newArticleFixture(t *testing.T) *articleFixture {
	t.Helper()
	db := setupTestDB(t)
	views := &recordingViews{}
	host := testutil.NewImageHostStub()

	articleRepo := repository.NewArticleRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)

	return &articleFixture{
		db:    db,
		views: views,
		host:  host,
		articles: NewArticleService(articleRepo, commentRepo, engagementRepo, host, views, ArticleOptions{
			MaxUploadBytes: 1 << 20,
		}),
		comments: NewCommentService(commentRepo, articleRepo, views),
		engage:   NewEngagementService(engagementRepo, articleRepo, views),
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
