package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"inkwell/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// StaleChannel is the Redis channel carrying stale-view payloads.
const StaleChannel = "views:stale"

// StaleMessage is the payload sent to view-stream clients.
type StaleMessage struct {
	Type  string   `json:"type"`
	Stale []string `json:"stale"`
}

// Notifier publishes stale-view signals. With Redis every process receives
// them; without Redis they are delivered in-process only.
type Notifier struct {
	rdb *redis.Client

	mu    sync.RWMutex
	local func(payload string)
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishStale announces that the named views changed.
func (n *Notifier) PublishStale(ctx context.Context, views []string) error {
	if len(views) == 0 {
		return nil
	}
	raw, err := json.Marshal(StaleMessage{Type: "views_stale", Stale: views})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if n.rdb != nil {
		return n.rdb.Publish(ctx, StaleChannel, string(raw)).Err()
	}

	n.mu.RLock()
	deliver := n.local
	n.mu.RUnlock()
	if deliver != nil {
		deliver(string(raw))
	}
	return nil
}

// StartStaleSubscriber calls onMessage for every stale-view payload until ctx is done.
func (n *Notifier) StartStaleSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n.rdb == nil {
		n.mu.Lock()
		n.local = onMessage
		n.mu.Unlock()
		return nil
	}

	sub := n.rdb.Subscribe(ctx, StaleChannel)
	// Wait for the subscription so publishes issued right after this call are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", StaleChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in stale subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
