package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
)

// View is a logical, invalidatable page of data such as "home" or "article:42".
type View string

const (
	ViewHome     View = "home"
	ViewArticles View = "articles"
)

// DashboardView is an author's own-article listing.
func DashboardView(userID uint) View { return View(fmt.Sprintf("dashboard:%d", userID)) }

// AnalyticsView is an author's analytics page.
func AnalyticsView(userID uint) View { return View(fmt.Sprintf("analytics:%d", userID)) }

// SavedView is a user's saved-articles page.
func SavedView(userID uint) View { return View(fmt.Sprintf("saved:%d", userID)) }

// ArticleView is an article's detail page.
func ArticleView(articleID uint) View { return View(fmt.Sprintf("article:%d", articleID)) }

// Family strips the id suffix, e.g. "article:42" -> "article".
func (v View) Family() string {
	family, _, _ := strings.Cut(string(v), ":")
	return family
}

// StalePublisher receives the views marked stale by a mutation.
type StalePublisher interface {
	PublishStale(ctx context.Context, views []string) error
}

// ViewCache is a generation-keyed cache-aside store. Marking a view stale
// bumps its generation so every cached variant of it is skipped at once.
// A nil client disables caching but still forwards stale notifications.
type ViewCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	publisher StalePublisher
}

// NewViewCache creates a view cache. rdb and publisher may be nil.
func NewViewCache(rdb *redis.Client, ttl time.Duration, publisher StalePublisher) *ViewCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ViewCache{rdb: rdb, ttl: ttl, publisher: publisher}
}

func generationKey(v View) string {
	return "view:" + string(v) + ":gen"
}

func (c *ViewCache) variantKey(ctx context.Context, v View, variant string) (string, error) {
	gen, err := c.rdb.Get(ctx, generationKey(v)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("view:%s:g%d:%s", v, gen, variant), nil
}

// Aside loads dest from the cache or fills it with fetch and stores the result.
// Cache failures fall through to fetch.
func (c *ViewCache) Aside(ctx context.Context, v View, variant string, dest interface{}, fetch func() error) error {
	if c == nil || c.rdb == nil {
		return fetch()
	}

	key, err := c.variantKey(ctx, v, variant)
	if err != nil {
		observability.ViewCacheLookups.WithLabelValues(v.Family(), "error").Inc()
		return fetch()
	}

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		if json.Unmarshal(raw, dest) == nil {
			observability.ViewCacheLookups.WithLabelValues(v.Family(), "hit").Inc()
			return nil
		}
	}
	observability.ViewCacheLookups.WithLabelValues(v.Family(), "miss").Inc()

	if err := fetch(); err != nil {
		return err
	}

	raw, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "view cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// MarkStale invalidates the given views and notifies subscribers. Failures are logged.
func (c *ViewCache) MarkStale(ctx context.Context, views ...View) {
	if c == nil || len(views) == 0 {
		return
	}

	seen := make(map[View]struct{}, len(views))
	keys := make([]string, 0, len(views))
	for _, v := range views {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		keys = append(keys, string(v))
		observability.ViewInvalidations.WithLabelValues(v.Family()).Inc()

		if c.rdb != nil {
			if err := c.rdb.Incr(ctx, generationKey(v)).Err(); err != nil {
				middleware.Logger.WarnContext(ctx, "view invalidation failed", slog.String("view", string(v)), slog.String("error", err.Error()))
			}
		}
	}

	if c.publisher != nil {
		if err := c.publisher.PublishStale(ctx, keys); err != nil {
			middleware.Logger.WarnContext(ctx, "stale view publish failed", slog.String("error", err.Error()))
		}
	}
}
