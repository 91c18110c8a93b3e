package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, cleanup
}

func TestPublishSubscribe(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	sub := NewSubscriber(client)
	received := make(chan *ProgressMessage, 1)

	go func() {
		_ = sub.Subscribe(ctx, func(msg *ProgressMessage) {
			received <- msg
		})
	}()

	// 等待订阅建立
	time.Sleep(100 * time.Millisecond)

	pub := NewPublisher(client)
	err := pub.PublishProgress(ctx, &ProgressMessage{
		UserID:    10,
		RequestID: 42,
		Status:    "processing",
		Stage:     "collect",
		Progress:  15,
		Message:   "正在收集互关列表",
	})
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, "analysis_progress", msg.Type)
		assert.Equal(t, int64(10), msg.UserID)
		assert.Equal(t, int64(42), msg.RequestID)
		assert.Equal(t, "collect", msg.Stage)
		assert.Equal(t, 15, msg.Progress)
	case <-ctx.Done():
		t.Fatal("did not receive progress message")
	}
}

func TestPublishProgress_SetsType(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	pub := NewPublisher(client)
	msg := &ProgressMessage{RequestID: 1, Stage: "analyze"}

	err := pub.PublishProgress(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "analysis_progress", msg.Type)
}

func TestSubscribe_ContextCancel(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	sub := NewSubscriber(client)
	go func() {
		done <- sub.Subscribe(ctx, func(*ProgressMessage) {})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not exit after cancel")
	}
}
