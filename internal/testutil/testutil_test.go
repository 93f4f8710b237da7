package testutil

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"inkwell/internal/imagehost"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNG_Decodes(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(PNG(5, 3)))
	require.NoError(t, err)
	assert.Equal(t, 5, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
}

func TestImageHostStub(t *testing.T) {
	h := NewImageHostStub()
	ctx := context.Background()

	stored, err := h.Upload(ctx, "covers", imagehost.Media{})
	require.NoError(t, err)
	assert.Equal(t, "covers/img-1", stored.Key)
	assert.Equal(t, "https://img.example/covers/img-1", stored.URL)

	h.FailUploads(errors.New("down"))
	_, err = h.Upload(ctx, "covers", imagehost.Media{})
	assert.Error(t, err)

	h.FailDeletes(errors.New("down"))
	assert.Error(t, h.Delete(ctx, stored.Key))
	assert.Equal(t, []string{"covers/img-1"}, h.Uploads())
	assert.Equal(t, []string{"covers/img-1"}, h.Deleted())
}

func TestOpenSQLite_Migrated(t *testing.T) {
	db := OpenSQLite(t, "testutil")
	require.NoError(t, db.Create(&models.User{ExternalID: "u1", Name: "One"}).Error)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
