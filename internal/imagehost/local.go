package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// MaxDimension bounds the longest side of a stored image.
	MaxDimension = 2048
	webPQuality  = 80
)

// LocalHost re-encodes images as WebP under a directory served by the API.
type LocalHost struct {
	dir     string
	baseURL string
}

// NewLocalHost creates the upload directory if needed.
func NewLocalHost(dir, baseURL string) (*LocalHost, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalHost{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the directory assets are written to.
func (h *LocalHost) Dir() string { return h.dir }

func (h *LocalHost) Upload(_ context.Context, folder string, media Media) (*Stored, error) {
	src, _, err := image.Decode(bytes.NewReader(media.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, resizeToFit(src, MaxDimension), &webp.Options{Quality: webPQuality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}

	key := path.Join(sanitizeFolder(folder), uuid.NewString()+".webp")
	full := filepath.Join(h.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	if err := os.WriteFile(full, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}

	return &Stored{URL: h.baseURL + "/" + key, Key: key}, nil
}

// Delete removes the asset. Missing files are not an error.
func (h *LocalHost) Delete(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key || strings.Contains(key, "..") {
		return fmt.Errorf("invalid image key %q", key)
	}
	err := os.Remove(filepath.Join(h.dir, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func sanitizeFolder(folder string) string {
	clean := strings.Trim(path.Clean("/"+folder), "/")
	if clean == "" || clean == "." {
		return "uploads"
	}
	return clean
}

func resizeToFit(src image.Image, maxSide int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxSide && h <= maxSide {
		return src
	}

	scale := float64(maxSide) / float64(w)
	if hs := float64(maxSide) / float64(h); hs < scale {
		scale = hs
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
