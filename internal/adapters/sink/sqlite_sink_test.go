package sink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSQLiteSink_RoundTrip(t *testing.T) {
	s, err := NewSQLiteSink(":memory:", zap.NewNop(), 24*time.Hour, 0)
	require.NoError(t, err)
	defer s.Stop()
	s.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Save(ctx, testRecord("m1")))

	row, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "thread-m1", row.ThreadID)
	assert.Equal(t, "ana@example.com", row.SenderEmail)
	assert.Equal(t, []string{"send_invoice", "billing_question"}, row.Commands)
	assert.Equal(t, []string{"Finance", "Support"}, row.TeamTags)
	assert.Equal(t, 96, row.ConfidenceScore)
	assert.Equal(t, ProcessingCompleted, row.ProcessingStatus)
	assert.True(t, fixedNow.Equal(row.ProcessedAt))

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteSink_UpsertAndCleanup(t *testing.T) {
	s, err := NewSQLiteSink(":memory:", zap.NewNop(), 24*time.Hour, 0)
	require.NoError(t, err)
	defer s.Stop()
	ctx := context.Background()

	s.now = func() time.Time { return fixedNow.Add(-72 * time.Hour) }
	require.NoError(t, s.Save(ctx, testRecord("old")))

	s.now = func() time.Time { return fixedNow }
	require.NoError(t, s.Save(ctx, testRecord("new")))
	again := testRecord("new")
	again.ActionStatus = "Needs Review"
	require.NoError(t, s.Save(ctx, again))

	require.NoError(t, s.Cleanup(ctx))

	_, err = s.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	row, err := s.Get(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "Needs Review", row.ActionStatus)
}
