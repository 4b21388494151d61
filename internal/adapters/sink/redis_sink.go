package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStreamSink appends each record to a Redis stream for downstream workers
type RedisStreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.Logger
	now    func() time.Time
}

// NewRedisStreamSink creates a sink writing to stream. A positive maxLen trims the stream.
func NewRedisStreamSink(client *redis.Client, stream string, maxLen int64, logger *zap.Logger) *RedisStreamSink {
	return &RedisStreamSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: logger,
		now:    time.Now,
	}
}

// NewRedisClient creates a go-redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Name identifies the sink
func (s *RedisStreamSink) Name() string {
	return "redis"
}

// Save appends the record as one stream entry
func (s *RedisStreamSink) Save(ctx context.Context, record *core.EmailRecord) error {
	row := NewRow(record, s.now())

	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Values: streamValues(row),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to append record %s: %w", row.MessageID, err)
	}

	s.logger.Debug("Appended record to stream",
		zap.String("stream", s.stream),
		zap.String("entry_id", id),
		zap.String("message_id", row.MessageID))
	return nil
}

// Ping checks the Redis connection
func (s *RedisStreamSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Stop closes the client
func (s *RedisStreamSink) Stop() {
	if err := s.client.Close(); err != nil {
		s.logger.Error("Failed to close Redis client", zap.Error(err))
	}
}

func streamValues(row *Row) map[string]any {
	return map[string]any{
		"message_id":         row.MessageID,
		"thread_id":          row.ThreadID,
		"subject":            row.Subject,
		"sender":             row.Sender,
		"sender_email":       row.SenderEmail,
		"received_at":        row.ReceivedAt.Format(time.RFC3339),
		"language":           row.Language,
		"summary":            row.Summary,
		"commands":           joinList(row.Commands),
		"tone":               row.Tone,
		"team_tags":          joinList(row.TeamTags),
		"confidence_score":   strconv.Itoa(row.ConfidenceScore),
		"action_status":      row.ActionStatus,
		"draft_professional": row.DraftProfessional,
		"draft_friendly":     row.DraftFriendly,
		"processing_status":  row.ProcessingStatus,
		"processing_error":   row.ProcessingError,
		"processed_at":       row.ProcessedAt.Format(time.RFC3339),
	}
}
