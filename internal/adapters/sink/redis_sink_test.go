package sink

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisStreamSink_Save(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStreamSink(client, "triage:records", 2, zap.NewNop())
	defer s.Stop()
	s.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))
	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, s.Save(ctx, testRecord(id)))
	}

	entries, err := client.XRange(ctx, "triage:records", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	last := entries[1].Values
	assert.Equal(t, "m3", last["message_id"])
	assert.Equal(t, "96", last["confidence_score"])
	assert.Equal(t, "Finance,Support", last["team_tags"])
	assert.Equal(t, "Completed", last["processing_status"])
	assert.Equal(t, "2024-09-09T12:00:00Z", last["processed_at"])
}

func TestRedisStreamSink_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	s := NewRedisStreamSink(client, "triage:records", 0, zap.NewNop())
	mr.Close()

	assert.Error(t, s.Ping(context.Background()))
	assert.Error(t, s.Save(context.Background(), testRecord("m1")))
}
