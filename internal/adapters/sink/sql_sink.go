package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

var recordColumns = []string{
	"message_id", "thread_id", "subject", "sender", "sender_email", "received_at",
	"language", "summary", "commands", "tone", "team_tags", "confidence_score",
	"action_status", "draft_professional", "draft_friendly", "processing_status",
	"processing_error", "processed_at",
}

// sqlDialect holds the statements that differ between database engines
type sqlDialect struct {
	name   string
	schema []string
	upsert string
}

// SQLSink writes rows to the triage_records table
type SQLSink struct {
	db          *sql.DB
	dialect     sqlDialect
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

func newSQLSink(db *sql.DB, dialect sqlDialect, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLSink, error) {
	for _, stmt := range dialect.schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to create %s schema: %w", dialect.name, err)
		}
	}

	s := &SQLSink{
		db:          db,
		dialect:     dialect,
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}

	if retention > 0 && cleanupFreq > 0 {
		go s.startCleanupTask()
	}
	return s, nil
}

// Name identifies the sink
func (s *SQLSink) Name() string {
	return s.dialect.name
}

// Save inserts or replaces the row for a record
func (s *SQLSink) Save(ctx context.Context, record *core.EmailRecord) error {
	row := NewRow(record, s.now())

	_, err := s.db.ExecContext(ctx, s.dialect.upsert,
		row.MessageID,
		row.ThreadID,
		row.Subject,
		row.Sender,
		row.SenderEmail,
		row.ReceivedAt,
		row.Language,
		row.Summary,
		joinList(row.Commands),
		row.Tone,
		joinList(row.TeamTags),
		row.ConfidenceScore,
		row.ActionStatus,
		row.DraftProfessional,
		row.DraftFriendly,
		row.ProcessingStatus,
		row.ProcessingError,
		row.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", row.MessageID, err)
	}
	return nil
}

// Get returns the row stored for a message
func (s *SQLSink) Get(ctx context.Context, messageID string) (*Row, error) {
	query := fmt.Sprintf("SELECT %s FROM triage_records WHERE message_id = ?",
		strings.Join(recordColumns, ", "))

	var (
		row      Row
		commands string
		teams    string
	)
	err := s.db.QueryRowContext(ctx, query, messageID).Scan(
		&row.MessageID,
		&row.ThreadID,
		&row.Subject,
		&row.Sender,
		&row.SenderEmail,
		&row.ReceivedAt,
		&row.Language,
		&row.Summary,
		&commands,
		&row.Tone,
		&teams,
		&row.ConfidenceScore,
		&row.ActionStatus,
		&row.DraftProfessional,
		&row.DraftFriendly,
		&row.ProcessingStatus,
		&row.ProcessingError,
		&row.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record %s: %w", messageID, err)
	}

	row.Commands = splitList(commands)
	row.TeamTags = splitList(teams)
	return &row, nil
}

// Cleanup removes rows processed before the retention window
func (s *SQLSink) Cleanup(ctx context.Context) error {
	cutoff := s.now().Add(-s.retention).UTC()

	result, err := s.db.ExecContext(ctx, "DELETE FROM triage_records WHERE processed_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up expired rows: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		s.logger.Debug("Cleaned up expired rows", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

// Ping checks the database connection
func (s *SQLSink) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLSink) startCleanupTask() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Cleanup(context.Background()); err != nil {
				s.logger.Error("Failed to clean up rows", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (s *SQLSink) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database", zap.String("sink", s.dialect.name), zap.Error(err))
		}
	})
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
