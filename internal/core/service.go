package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/llm-mail-triage/internal/resilience"
	"go.uber.org/zap"
)

// NoEmailsMessage is reported when a fetch window holds no mail
const NoEmailsMessage = "No emails found to process"

// ErrSourceUnavailable wraps failures to fetch the batch
var ErrSourceUnavailable = errors.New("message source unavailable")

// Pinger is implemented by collaborators that can check their connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// TriageService runs the fetch, analyze and sync phases of a batch
type TriageService struct {
	source     MessageSource
	analyzer   *EmailAnalyzer
	aggregator *BatchAggregator
	sink       RecordSink
	llm        LLMClient
	taxonomy   *Taxonomy
	retrier    *resilience.Retrier
	logger     *zap.Logger
}

// NewTriageService creates the service. sink may be nil when persistence is disabled.
func NewTriageService(
	source MessageSource,
	analyzer *EmailAnalyzer,
	aggregator *BatchAggregator,
	sink RecordSink,
	llm LLMClient,
	taxonomy *Taxonomy,
	retrier *resilience.Retrier,
	logger *zap.Logger,
) *TriageService {
	return &TriageService{
		source:     source,
		analyzer:   analyzer,
		aggregator: aggregator,
		sink:       sink,
		llm:        llm,
		taxonomy:   taxonomy,
		retrier:    retrier,
		logger:     logger,
	}
}

// Taxonomy returns the label catalog in use
func (s *TriageService) Taxonomy() *Taxonomy {
	return s.taxonomy
}

// ProcessBatch fetches recent mail and runs the whole pipeline. Only a failed fetch
// yields Success=false; per-email and sink failures are reported inside the result.
func (s *TriageService) ProcessBatch(ctx context.Context, windowDays, limit int) *BatchResult {
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID))
	start := time.Now()

	logger.Info("Starting batch",
		zap.Int("window_days", windowDays),
		zap.Int("limit", limit))

	var emails []*RawEmail
	err := s.retrier.Do(ctx, "fetch_messages", func(ctx context.Context) error {
		var err error
		emails, err = s.source.ListRecent(ctx, windowDays, limit)
		return err
	})
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		logger.Error("Failed to fetch messages", zap.Error(err))
		return &BatchResult{
			RunID:       runID,
			Success:     false,
			Error:       err.Error(),
			ProcessedAt: time.Now().UTC(),
			Emails:      []*EmailRecord{},
		}
	}

	if len(emails) == 0 {
		logger.Info("No messages in window")
		result := s.aggregator.reduce(nil)
		result.RunID = runID
		result.Message = NoEmailsMessage
		result.ElapsedTime = time.Since(start)
		result.ProcessingSeconds = result.ElapsedTime.Seconds()
		return result
	}

	result := s.aggregator.Run(ctx, emails)
	result.RunID = runID

	if s.sink != nil {
		result.SinkSync = s.syncRecords(ctx, logger, result.Emails)
	}

	result.ElapsedTime = time.Since(start)
	result.ProcessingSeconds = result.ElapsedTime.Seconds()
	return result
}

// AnalyzeOne runs the full per-email pipeline for a single message
func (s *TriageService) AnalyzeOne(ctx context.Context, raw *RawEmail) (*EmailRecord, error) {
	record, err := s.analyzer.Analyze(ctx, raw)
	if err != nil {
		return nil, err
	}
	Finalize(s.taxonomy, record)
	return record, nil
}

// syncRecords persists every record, continuing past failures
func (s *TriageService) syncRecords(ctx context.Context, logger *zap.Logger, records []*EmailRecord) *SyncReport {
	report := &SyncReport{Sink: s.sink.Name(), Attempted: len(records)}

	for _, r := range records {
		err := s.retrier.Do(ctx, "sink_save", func(ctx context.Context) error {
			return s.sink.Save(ctx, r)
		})
		if err != nil {
			report.Failed++
			logger.Warn("Failed to persist record",
				zap.String("sink", report.Sink),
				zap.String("message_id", r.MessageID),
				zap.Error(err))
			continue
		}
		report.Succeeded++
	}

	logger.Info("Sink sync finished",
		zap.String("sink", report.Sink),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
	return report
}

// ConnectionReport is the outcome of a collaborator connectivity check
type ConnectionReport struct {
	Source        bool      `json:"source_api"`
	SourceError   string    `json:"source_error,omitempty"`
	Model         bool      `json:"llm_api"`
	ModelError    string    `json:"llm_error,omitempty"`
	Sink          bool      `json:"sink_api"`
	SinkError     string    `json:"sink_error,omitempty"`
	OverallStatus bool      `json:"overall_status"`
	Timestamp     time.Time `json:"timestamp"`
}

// TestConnections checks the source, the model and the sink without processing mail.
// Overall status needs the source and the model.
func (s *TriageService) TestConnections(ctx context.Context) *ConnectionReport {
	report := &ConnectionReport{Timestamp: time.Now().UTC()}

	if p, ok := s.source.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			report.SourceError = err.Error()
		} else {
			report.Source = true
		}
	} else {
		report.Source = true
	}

	reply, err := s.llm.Complete(ctx, "Test connection - reply with 'OK'", 0, 10)
	switch {
	case err != nil:
		report.ModelError = err.Error()
	case parseOK(reply):
		report.Model = true
	default:
		report.ModelError = fmt.Sprintf("unexpected reply %q", reply)
	}

	switch p, ok := s.sink.(Pinger); {
	case s.sink == nil:
		report.SinkError = "sink not configured"
	case ok:
		if err := p.Ping(ctx); err != nil {
			report.SinkError = err.Error()
		} else {
			report.Sink = true
		}
	default:
		report.Sink = true
	}

	report.OverallStatus = report.Source && report.Model
	return report
}

func parseOK(reply string) bool {
	return strings.EqualFold(strings.Trim(strings.TrimSpace(reply), ".!'\""), "ok")
}
