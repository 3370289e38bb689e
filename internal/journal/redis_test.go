package journal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadymuxd/searching-the-fox-sub001/shared/logger"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()

	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewRedisStore(rdb, StaleAfter, logger.NewDefault().Logger), srv, rdb
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, srv, _ := newTestRedisStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.Save(ctx, "session-1", sampleState(now)))

	// Every journal key lives under the fixed namespace, with the
	// staleness bound as TTL.
	assert.True(t, srv.Exists("stf:journal:session-1"))
	assert.Equal(t, StaleAfter, srv.TTL("stf:journal:session-1"))

	loaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "op-1", loaded.OperationID)
	assert.Len(t, loaded.Jobs, 3)
}

func TestRedisStore_MissingSessionLoadsNil(t *testing.T) {
	store, _, _ := newTestRedisStore(t)

	loaded, err := store.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_StaleJournalIsDiscarded(t *testing.T) {
	ctx := context.Background()
	store, srv, _ := newTestRedisStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.Save(ctx, "session-1", sampleState(now)))

	// Two hours pass before the next load.
	store.now = func() time.Time { return now.Add(2 * time.Hour) }

	loaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.False(t, srv.Exists("stf:journal:session-1"))
}

func TestRedisStore_CorruptJournalIsDiscarded(t *testing.T) {
	ctx := context.Background()
	store, srv, _ := newTestRedisStore(t)

	require.NoError(t, srv.Set("stf:journal:session-1", "{not json"))

	loaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.False(t, srv.Exists("stf:journal:session-1"))
}

func TestRedisStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, srv, _ := newTestRedisStore(t)

	require.NoError(t, store.Save(ctx, "session-1", sampleState(time.Now().UTC())))
	require.NoError(t, store.Delete(ctx, "session-1"))
	assert.False(t, srv.Exists("stf:journal:session-1"))
}

func TestRedisCompletionPublisher(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, _, rdb := newTestRedisStore(t)
	publisher := NewRedisCompletionPublisher(rdb, logger.NewDefault().Logger)

	sub := rdb.Subscribe(ctx, CompletionChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	state := sampleState(time.Now().UTC())
	state.Completed = true
	state.SuccessCount = 2
	state.FailedCount = 1
	require.NoError(t, publisher.PublishCompletion(ctx, state))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &payload))
	assert.Equal(t, "op-1", payload["operationId"])
	assert.Equal(t, float64(2), payload["successCount"])
	assert.Equal(t, float64(1), payload["failedCount"])
}
