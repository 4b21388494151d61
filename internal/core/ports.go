package core

import (
	"context"
)

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// Complete returns a short text completion for the prompt
	Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)
}

// MessageSource supplies raw emails for a time window
type MessageSource interface {
	// ListRecent returns at most limit emails received within the last windowDays days.
	// An empty slice is a valid result.
	ListRecent(ctx context.Context, windowDays int, limit int) ([]*RawEmail, error)
}

// RecordSink persists finished analysis records
type RecordSink interface {
	// Save persists one record
	Save(ctx context.Context, record *EmailRecord) error

	// Name identifies the sink in logs and reports
	Name() string
}

// SenderFilter decides which senders bypass model analysis
type SenderFilter interface {
	IsBypassed(sender string) bool
}

// StageObserver is notified of stage fallbacks and completed batches
type StageObserver interface {
	ObserveFallback(stage string, kind StageErrorKind)
	ObserveEmail(status ActionStatus, failed bool)
}

type noopObserver struct{}

func (noopObserver) ObserveFallback(string, StageErrorKind) {}
func (noopObserver) ObserveEmail(ActionStatus, bool)        {}
