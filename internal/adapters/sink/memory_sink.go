package sink

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// MemorySink keeps rows in process memory, keyed by message id
type MemorySink struct {
	rows        map[string]*Row
	mu          sync.RWMutex
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

// NewMemorySink creates an in-memory sink. Rows older than retention are dropped
// every cleanupFreq; a zero retention keeps everything.
func NewMemorySink(logger *zap.Logger, retention, cleanupFreq time.Duration) *MemorySink {
	s := &MemorySink{
		rows:        make(map[string]*Row),
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}

	if retention > 0 && cleanupFreq > 0 {
		go s.startCleanupTask()
	}
	return s
}

// Name identifies the sink
func (s *MemorySink) Name() string {
	return "memory"
}

// Save stores or replaces the row for a record
func (s *MemorySink) Save(_ context.Context, record *core.EmailRecord) error {
	row := NewRow(record, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.MessageID] = row
	return nil
}

// Get returns the row stored for a message
func (s *MemorySink) Get(_ context.Context, messageID string) (*Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[messageID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

// Len returns the number of stored rows
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Cleanup removes rows processed before the retention window
func (s *MemorySink) Cleanup(_ context.Context) error {
	cutoff := s.now().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, row := range s.rows {
		if row.ProcessedAt.Before(cutoff) {
			delete(s.rows, id)
			removed++
		}
	}

	s.logger.Debug("Cleaned up expired rows", zap.Int("expired_count", removed))
	return nil
}

// Ping always succeeds
func (s *MemorySink) Ping(_ context.Context) error {
	return nil
}

func (s *MemorySink) startCleanupTask() {
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

// Stop stops the background cleanup task
func (s *MemorySink) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
