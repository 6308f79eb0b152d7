package workers

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollRepliesAndAcks(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	h := newHandler()
	w := NewRedisStreamWorker(rdb, h.rewards, h.ranking, StreamOptions{
		CommandStream: "bot:commands",
		ReplyStream:   "bot:replies",
		Group:         "ledger",
		Consumer:      "test",
		Block:         10 * time.Millisecond,
	})
	require.NoError(t, w.EnsureGroup(ctx))
	require.NoError(t, w.EnsureGroup(ctx))

	for _, values := range []map[string]interface{}{
		{"type": "claim", "user_id": "42"},
		{"type": "claim", "user_id": "42"},
		{"type": "claim"},
	} {
		require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{Stream: "bot:commands", Values: values}).Err())
	}

	n, err := w.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	replies, err := rdb.XRange(ctx, "bot:replies", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, replies, 3)

	assert.Equal(t, "42", replies[0].Values["user_id"])
	assert.Equal(t, "true", replies[0].Values["ok"])
	assert.Equal(t, "250", replies[0].Values["points"])
	assert.NotEmpty(t, replies[0].Values["command_id"])

	assert.Equal(t, "false", replies[1].Values["ok"])
	assert.Equal(t, "COOLDOWN_ACTIVE", replies[1].Values["code"])

	assert.Equal(t, "VALIDATION_ERROR", replies[2].Values["code"])

	pending, err := rdb.XPending(ctx, "bot:commands", "ledger").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)

	n, err = w.Poll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUnpublishedReplyStaysPendingUntilReplayed(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	h := newHandler()
	w := NewRedisStreamWorker(rdb, h.rewards, h.ranking, StreamOptions{
		CommandStream: "bot:commands",
		ReplyStream:   "bot:replies",
		Group:         "ledger",
		Consumer:      "test",
		Block:         10 * time.Millisecond,
	})
	require.NoError(t, w.EnsureGroup(ctx))
	require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: "bot:commands",
		Values: map[string]interface{}{"type": "status", "user_id": "7"},
	}).Err())

	// A string key makes XADD fail with WRONGTYPE.
	require.NoError(t, mr.Set("bot:replies", "blocked"))
	n, err := w.Poll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	pending, err := rdb.XPending(ctx, "bot:commands", "ledger").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)

	n, err = w.Poll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "new-message reads do not redeliver pending commands")

	mr.Del("bot:replies")
	n, err = w.RecoverPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	replies, err := rdb.XRange(ctx, "bot:replies", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "7", replies[0].Values["user_id"])

	pending, err = rdb.XPending(ctx, "bot:commands", "ledger").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)

	n, err = w.RecoverPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
