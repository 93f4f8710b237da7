package notifications

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = 2 * time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()

	a, err := hub.Register(0, nil)
	require.NoError(t, err)
	b, err := hub.Register(7, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Count())

	hub.BroadcastAll(`{"type":"views_stale"}`)
	assert.Equal(t, `{"type":"views_stale"}`, string(<-a.Send))
	assert.Equal(t, `{"type":"views_stale"}`, string(<-b.Send))

	hub.UnregisterClient(a)
	hub.UnregisterClient(a)
	assert.Equal(t, 1, hub.Count())
	_, open := <-a.Send
	assert.False(t, open)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.Count())

	_, err = hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrHubFull)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(0, nil)
	require.NoError(t, err)

	for i := 0; i < sendBufferSize+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBufferSize)
}

func TestNotifier_LocalDeliveryWithoutRedis(t *testing.T) {
	n := NewNotifier(nil)
	var got []string
	require.NoError(t, n.StartStaleSubscriber(context.Background(), func(p string) { got = append(got, p) }))

	require.NoError(t, n.PublishStale(context.Background(), []string{"home", "article:3"}))
	require.NoError(t, n.PublishStale(context.Background(), nil))
	require.Len(t, got, 1)

	var msg StaleMessage
	require.NoError(t, json.Unmarshal([]byte(got[0]), &msg))
	assert.Equal(t, "views_stale", msg.Type)
	assert.Equal(t, []string{"home", "article:3"}, msg.Stale)
}

func TestNotifier_RedisFanOut(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	client, err := hub.Register(0, nil)
	require.NoError(t, err)

	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))
	require.NoError(t, n.PublishStale(ctx, []string{"articles"}))

	select {
	case raw := <-client.Send:
		assert.JSONEq(t, `{"type":"views_stale","stale":["articles"]}`, string(raw))
	case <-time.After(testEventuallyTimeout):
		t.Fatal("stale message was not delivered")
	}
}

func TestHub_WebSocketStream(t *testing.T) {
	hub := NewHub()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", fiberws.New(func(conn *fiberws.Conn) {
		client, err := hub.Register(0, conn)
		if err != nil {
			return
		}
		go client.WritePump()
		client.ReadPump()
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = app.Shutdown()
		wg.Wait()
	})

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, testEventuallyTimeout, testPollInterval)

	hub.BroadcastAll(`{"type":"views_stale","stale":["home"]}`)
	_ = conn.SetReadDeadline(time.Now().Add(testEventuallyTimeout))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"views_stale","stale":["home"]}`, string(msg))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, testEventuallyTimeout, testPollInterval)
}
