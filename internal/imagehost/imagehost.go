// Package imagehost stores article featured images with an external host or on local disk.
package imagehost

import (
	"context"
	"fmt"

	"inkwell/internal/config"
	"inkwell/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Media is an uploaded file as received from the client.
type Media struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Stored identifies an uploaded asset.
type Stored struct {
	// URL is the public address stored on the article.
	URL string
	// Key is the host-specific identifier used to delete the asset.
	Key string
}

// Host uploads and deletes images.
type Host interface {
	Upload(ctx context.Context, folder string, media Media) (*Stored, error)
	Delete(ctx context.Context, key string) error
}

// NewHost builds the host selected by IMAGE_HOST, wrapped with metrics and tracing.
func NewHost(cfg *config.Config) (Host, error) {
	switch cfg.ImageHost {
	case config.ImageHostCloudinary:
		h, err := NewCloudinaryHost(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			return nil, err
		}
		return Instrument(h, config.ImageHostCloudinary), nil
	case config.ImageHostLocal:
		h, err := NewLocalHost(cfg.ImageUploadDir, cfg.ImagePublicBaseURL)
		if err != nil {
			return nil, err
		}
		return Instrument(h, config.ImageHostLocal), nil
	default:
		return nil, fmt.Errorf("unsupported image host %q", cfg.ImageHost)
	}
}

type instrumentedHost struct {
	next Host
	name string
}

// Instrument records latency, failures and a span for every call to h.
func Instrument(h Host, name string) Host {
	return &instrumentedHost{next: h, name: name}
}

func (h *instrumentedHost) Upload(ctx context.Context, folder string, media Media) (stored *Stored, err error) {
	ctx, span := observability.StartSpan(ctx, "imagehost", "upload",
		attribute.String("imagehost.name", h.name),
		attribute.String("imagehost.folder", folder),
		attribute.Int("imagehost.bytes", len(media.Data)),
	)
	done := observability.TrackImageHost(h.name, "upload")
	defer func() {
		done(err)
		span.End(err)
	}()
	return h.next.Upload(ctx, folder, media)
}

func (h *instrumentedHost) Delete(ctx context.Context, key string) (err error) {
	ctx, span := observability.StartSpan(ctx, "imagehost", "delete",
		attribute.String("imagehost.name", h.name),
		attribute.String("imagehost.key", key),
	)
	done := observability.TrackImageHost(h.name, "delete")
	defer func() {
		done(err)
		span.End(err)
	}()
	return h.next.Delete(ctx, key)
}
