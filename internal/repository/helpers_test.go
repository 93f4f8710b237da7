package repository

import (
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func setupTestDB(t *testing.T) *gorm.DB {
	return testutil.OpenSQLite(t, "repository")
}

func createUser(t *testing.T, db *gorm.DB, externalID string) *models.User {
	t.Helper()
	u := &models.User{ExternalID: externalID, Name: "User " + externalID}
	require.NoError(t, db.Create(u).Error)
	return u
}

var baseTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// createArticle inserts an article created `minutes` after baseTime.
func createArticle(t *testing.T, db *gorm.DB, authorID uint, title, category string, minutes int) *models.Article {
	t.Helper()
	a := &models.Article{
		Title:         title,
		Category:      category,
		Content:       "Content about " + title,
		FeaturedImage: "https://img.example/" + title,
		AuthorID:      authorID,
		CreatedAt:     baseTime.Add(time.Duration(minutes) * time.Minute),
	}
	require.NoError(t, db.Omit("Author").Create(a).Error)
	return a
}
