package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the analysis pool size when none is configured
const DefaultWorkers = 4

// HistogramBuckets are the fixed confidence buckets, upper bound inclusive
var HistogramBuckets = []struct {
	Label string
	Upper int
}{
	{"0-20", 20},
	{"21-40", 40},
	{"41-60", 60},
	{"61-80", 80},
	{"81-100", 100},
}

// highPriorityScore is the confidence at or above which an email is high priority
const highPriorityScore = 80

// BatchAggregator analyzes a batch in parallel and reduces the records into a BatchResult
type BatchAggregator struct {
	analyzer *EmailAnalyzer
	taxonomy *Taxonomy
	workers  int
	timeout  time.Duration
	observer StageObserver
	logger   *zap.Logger
}

// NewBatchAggregator creates an aggregator. A zero timeout disables the batch deadline.
func NewBatchAggregator(
	analyzer *EmailAnalyzer,
	taxonomy *Taxonomy,
	workers int,
	timeout time.Duration,
	observer StageObserver,
	logger *zap.Logger,
) *BatchAggregator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &BatchAggregator{
		analyzer: analyzer,
		taxonomy: taxonomy,
		workers:  workers,
		timeout:  timeout,
		observer: observer,
		logger:   logger,
	}
}

// Run processes every email and aggregates the finished records. Per-email failures
// never fail the batch; emails still running when the deadline passes are left out.
func (b *BatchAggregator) Run(ctx context.Context, emails []*RawEmail) *BatchResult {
	start := time.Now()

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	records := make([]*EmailRecord, len(emails))

	// Workers never return an error so one email cannot cancel the others
	g := new(errgroup.Group)
	g.SetLimit(b.workers)
	for i, raw := range emails {
		if ctx.Err() != nil {
			b.logger.Warn("Batch deadline reached, not starting remaining emails",
				zap.Int("remaining", len(emails)-i))
			break
		}
		g.Go(func() error {
			records[i] = b.process(ctx, raw)
			return nil
		})
	}
	_ = g.Wait()

	result := b.reduce(records)
	result.ElapsedTime = time.Since(start)
	result.ProcessingSeconds = result.ElapsedTime.Seconds()

	b.logger.Info("Batch processed",
		zap.Int("input", len(emails)),
		zap.Int("processed", result.ProcessedCount),
		zap.Int("high_priority", result.HighPriorityCount),
		zap.Int("needs_review", result.NeedsReviewCount),
		zap.Duration("elapsed", result.ElapsedTime))

	return result
}

// process runs analyze, score and route for one email. A nil record means the email is dropped.
func (b *BatchAggregator) process(ctx context.Context, raw *RawEmail) (record *EmailRecord) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("Dropping email after unrecovered failure",
				zap.String("message_id", raw.ID),
				zap.String("error", fmt.Sprint(p)))
			record = nil
		}
	}()

	record, err := b.analyzer.Analyze(ctx, raw)
	if err != nil {
		b.logger.Warn("Email analysis interrupted",
			zap.String("message_id", raw.ID),
			zap.Error(err))
		return nil
	}

	Finalize(b.taxonomy, record)
	b.observer.ObserveEmail(record.ActionStatus, record.ProcessingError != "")
	return record
}

// reduce aggregates finished records in input order
func (b *BatchAggregator) reduce(records []*EmailRecord) *BatchResult {
	languages := newCounter()
	commands := newCounter()
	tones := newCounter()
	teams := newCounter()
	histogram := make(Frequency, len(HistogramBuckets))
	for i, bucket := range HistogramBuckets {
		histogram[i] = FrequencyEntry{Key: bucket.Label}
	}

	result := &BatchResult{
		Success:     true,
		ProcessedAt: time.Now().UTC(),
		Emails:      make([]*EmailRecord, 0, len(records)),
	}

	for _, r := range records {
		if r == nil {
			continue
		}
		result.Emails = append(result.Emails, r)

		languages.add(r.DetectedLanguage)
		for _, c := range r.DetectedCommands {
			commands.add(string(c))
		}
		tones.add(string(r.Tone))
		for _, t := range r.TeamTags {
			teams.add(t)
		}
		histogram[bucketIndex(r.ConfidenceScore)].Count++

		if r.Tone == ToneUrgent || r.ConfidenceScore >= highPriorityScore {
			result.HighPriorityCount++
		}
		if r.HasCommand(CommandRequiresHumanReview) {
			result.NeedsReviewCount++
		}
	}

	result.ProcessedCount = len(result.Emails)
	result.LanguageSet = languages.firstSeen().Keys()
	result.CommandFrequency = commands.descending()
	result.ConfidenceHistogram = histogram
	result.ToneFrequency = tones.firstSeen()
	result.TeamFrequency = teams.firstSeen()
	return result
}

func bucketIndex(score int) int {
	score = clampScore(score)
	for i, bucket := range HistogramBuckets {
		if score <= bucket.Upper {
			return i
		}
	}
	return len(HistogramBuckets) - 1
}
