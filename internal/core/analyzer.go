package core

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mikey/llm-mail-triage/internal/utils"
	"go.uber.org/zap"
)

const (
	// SkipMarkerPrefix starts every skipped reply draft
	SkipMarkerPrefix = "[SKIPPED"
	// ErrorMarker flags a reply draft that failed, matched case-insensitively
	ErrorMarker = "ERROR"

	minLanguageSampleLength = 20
	maxErrorReasonLength    = 100
)

// SkipMarker builds the draft placeholder for non-actionable emails
func SkipMarker(commands []Command) string {
	return fmt.Sprintf("%s - %s]", SkipMarkerPrefix, joinCommands(commands))
}

// ReplyErrorMarker builds the draft placeholder for a failed draft stage
func ReplyErrorMarker(reason error) string {
	msg := "unknown error"
	if reason != nil {
		msg = reason.Error()
	}
	if utf8.RuneCountInString(msg) > maxErrorReasonLength {
		msg = string([]rune(msg)[:maxErrorReasonLength])
	}
	return fmt.Sprintf("[Reply Generation Error: %s]", msg)
}

// IsSkipMarker reports whether a draft is a skip placeholder
func IsSkipMarker(draft string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(draft)), SkipMarkerPrefix)
}

// HasErrorMarker reports whether a draft carries the error marker
func HasErrorMarker(draft string) bool {
	return strings.Contains(strings.ToUpper(draft), ErrorMarker)
}

// summaryPlaceholder names the subject when no summary could be produced
func summaryPlaceholder(subject string) string {
	return fmt.Sprintf("[Summary unavailable - Subject: %s]", subject)
}

// EmailAnalyzer runs the analysis stages for one email in dependency order
type EmailAnalyzer struct {
	runner        *StageRunner
	taxonomy      *Taxonomy
	textProcessor *utils.TextProcessor
	bypass        SenderFilter
	logger        *zap.Logger
	parseCommands func(string) ([]Command, error)
}

// NewEmailAnalyzer creates a new analyzer. bypass may be nil.
func NewEmailAnalyzer(
	runner *StageRunner,
	taxonomy *Taxonomy,
	textProcessor *utils.TextProcessor,
	bypass SenderFilter,
	logger *zap.Logger,
) *EmailAnalyzer {
	return &EmailAnalyzer{
		runner:        runner,
		taxonomy:      taxonomy,
		textProcessor: textProcessor,
		bypass:        bypass,
		logger:        logger,
		parseCommands: commandParser(taxonomy),
	}
}

// Analyze produces an annotated record. Stage failures degrade to fallbacks; any other
// failure is stored in ProcessingError with a zero score. The returned error is only
// set when ctx ended before all stages ran.
func (a *EmailAnalyzer) Analyze(ctx context.Context, raw *RawEmail) (record *EmailRecord, err error) {
	record = NewEmailRecord(raw)

	defer func() {
		if p := recover(); p != nil {
			record.ProcessingError = fmt.Sprintf("analysis failed: %v", p)
			record.ConfidenceScore = 0
			if len(record.DetectedCommands) == 0 {
				record.DetectedCommands = []Command{CommandNoAction}
			}
			a.logger.Error("Email analysis failed",
				zap.String("message_id", raw.ID),
				zap.String("subject", raw.Subject),
				zap.Any("panic", p))
			err = nil
		}
	}()

	if a.bypass != nil && a.bypass.IsBypassed(raw.Sender) {
		a.logger.Info("Skipping analysis for bypassed sender",
			zap.String("sender", raw.Sender),
			zap.String("action", "bypass"))
		record.Summary = summaryPlaceholder(raw.Subject)
		record.DetectedCommands = []Command{CommandNoAction}
		record.ReplyDraftProfessional = SkipMarker(record.DetectedCommands)
		record.ReplyDraftFriendly = record.ReplyDraftProfessional
		return record, nil
	}

	steps := []func(context.Context, *EmailRecord){
		a.detectLanguage,
		a.summarize,
		a.classify,
		a.detectTone,
		a.draftReplies,
	}
	for _, step := range steps {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return record, fmt.Errorf("analysis interrupted: %w", ctxErr)
		}
		step(ctx, record)
	}

	// A deadline during the last stage leaves a fallback draft, not a finished record
	if ctxErr := ctx.Err(); ctxErr != nil {
		return record, fmt.Errorf("analysis interrupted: %w", ctxErr)
	}

	return record, nil
}

func (a *EmailAnalyzer) detectLanguage(ctx context.Context, r *EmailRecord) {
	if r.Body == NoTextContent || utf8.RuneCountInString(strings.TrimSpace(r.Body)) < minLanguageSampleLength {
		r.DetectedLanguage = DefaultLanguage
		return
	}
	r.DetectedLanguage = RunStage(ctx, a.runner, a.languageSpec(r), parseLanguage, DefaultLanguage)
}

func (a *EmailAnalyzer) summarize(ctx context.Context, r *EmailRecord) {
	placeholder := summaryPlaceholder(r.Subject)
	if strings.TrimSpace(r.Body) == "" || r.Body == NoTextContent {
		r.Summary = placeholder
		return
	}
	r.Summary = RunStage(ctx, a.runner, a.summarySpec(r), parseText, placeholder)
}

func (a *EmailAnalyzer) classify(ctx context.Context, r *EmailRecord) {
	r.DetectedCommands = RunStage(ctx, a.runner, a.classificationSpec(r), a.parseCommands,
		[]Command{CommandRequiresHumanReview})
}

func (a *EmailAnalyzer) detectTone(ctx context.Context, r *EmailRecord) {
	if strings.TrimSpace(r.Body) == "" || r.Body == NoTextContent {
		r.Tone = ToneNeutral
		return
	}
	r.Tone = RunStage(ctx, a.runner, a.toneSpec(r), parseTone, ToneNeutral)
}

func (a *EmailAnalyzer) draftReplies(ctx context.Context, r *EmailRecord) {
	if shouldSkipDrafts(r.DetectedCommands) {
		marker := SkipMarker(r.DetectedCommands)
		r.ReplyDraftProfessional = marker
		r.ReplyDraftFriendly = marker
		return
	}
	r.ReplyDraftProfessional = a.draft(ctx, StageDraftFormal, r, formalDirective)
	r.ReplyDraftFriendly = a.draft(ctx, StageDraftWarm, r, warmDirective)
}

func (a *EmailAnalyzer) draft(ctx context.Context, stage string, r *EmailRecord, directive string) string {
	result := ExecuteStage(ctx, a.runner, a.draftSpec(stage, r, directive), parseText)
	if result.Err != nil {
		a.runner.reportFallback(result.Err)
		return ReplyErrorMarker(result.Err.Err)
	}
	return result.Value
}

func shouldSkipDrafts(commands []Command) bool {
	if len(commands) == 0 {
		return true
	}
	for _, c := range commands {
		if c == CommandNoAction || c == CommandSpamDetected {
			return true
		}
	}
	return false
}
