// Package testutil provides shared test doubles and fixtures for package tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/imagehost"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite returns a migrated in-memory database private to the test.
// The single connection keeps the shared-cache database alive until cleanup.
func OpenSQLite(t testing.TB, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// PNG encodes a small gradient image.
func PNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 16), B: uint8(y * 16), A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// ImageHostStub is an in-memory imagehost.Host. Keys are "<folder>/img-N"
// and URLs live under https://img.example/.
type ImageHostStub struct {
	mu        sync.Mutex
	next      int
	uploadErr error
	deleteErr error
	uploads   []string
	deleted   []string
}

var _ imagehost.Host = (*ImageHostStub)(nil)

// NewImageHostStub creates an empty stub.
func NewImageHostStub() *ImageHostStub {
	return &ImageHostStub{}
}

// FailUploads makes subsequent uploads return err (nil restores success).
func (h *ImageHostStub) FailUploads(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.uploadErr = err
}

// FailDeletes makes subsequent deletes return err after recording the key.
func (h *ImageHostStub) FailDeletes(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleteErr = err
}

// Upload records a stored asset.
func (h *ImageHostStub) Upload(_ context.Context, folder string, _ imagehost.Media) (*imagehost.Stored, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.uploadErr != nil {
		return nil, h.uploadErr
	}
	h.next++
	key := fmt.Sprintf("%s/img-%d", folder, h.next)
	h.uploads = append(h.uploads, key)
	return &imagehost.Stored{URL: "https://img.example/" + key, Key: key}, nil
}

// Delete records the key.
func (h *ImageHostStub) Delete(_ context.Context, key string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, key)
	return h.deleteErr
}

// Uploads returns the keys stored so far.
func (h *ImageHostStub) Uploads() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.uploads...)
}

// Deleted returns the keys deleted so far, including failed attempts.
func (h *ImageHostStub) Deleted() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.deleted...)
}
