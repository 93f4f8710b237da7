// Package service holds the business rules between the HTTP handlers and the repositories.
// Every operation that acts on behalf of a user takes the resolved local user explicitly.
package service

import (
	"context"
	"log/slog"

	"inkwell/internal/cache"
	"inkwell/internal/imagehost"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
)

// ViewStore caches read views and marks them stale after writes.
// *cache.ViewCache implements it.
type ViewStore interface {
	Aside(ctx context.Context, v cache.View, variant string, dest interface{}, fetch func() error) error
	MarkStale(ctx context.Context, views ...cache.View)
}

// TotalPages returns the number of pages of the given size needed for total items.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

func requireActor(actor *models.User) error {
	if actor == nil || actor.ID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	return nil
}

// discardAsset removes an image best-effort. Failures are logged and swallowed.
func discardAsset(ctx context.Context, images imagehost.Host, key, reason string) {
	if images == nil || key == "" {
		return
	}
	if err := images.Delete(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "image cleanup failed",
			slog.String("key", key),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
	}
}
