package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailAnalyzer_Analyze(t *testing.T) {
	llm := newFakeLLM()
	a := newTestAnalyzer(t, llm, nil, nil)

	r, err := a.Analyze(context.Background(), testEmail("m1", longBody))
	require.NoError(t, err)

	assert.Equal(t, "Spanish", r.DetectedLanguage)
	assert.Equal(t, "Customer asks for a copy of the March invoice.", r.Summary)
	assert.Equal(t, []Command{"send_invoice"}, r.DetectedCommands)
	assert.Equal(t, ToneNeutral, r.Tone)
	assert.Equal(t, sixtyWordDraft, r.ReplyDraftProfessional)
	assert.Empty(t, r.ProcessingError)
	assert.Equal(t, []string{
		StageLanguage, StageSummary, StageClassification, StageTone, StageDraftFormal, StageDraftWarm,
	}, llm.stages())
}

func TestEmailAnalyzer_StageFallbacks(t *testing.T) {
	t.Run("model failures degrade per stage", func(t *testing.T) {
		llm := newFakeLLM()
		llm.errs[StageLanguage] = errors.New("timeout")
		llm.errs[StageSummary] = errors.New("timeout")
		llm.errs[StageTone] = errors.New("timeout")
		observer := newRecordingObserver()
		a := newTestAnalyzer(t, llm, observer, nil)

		r, err := a.Analyze(context.Background(), testEmail("m1", longBody))
		require.NoError(t, err)

		assert.Equal(t, DefaultLanguage, r.DetectedLanguage)
		assert.Equal(t, "[Summary unavailable - Subject: Invoice for March]", r.Summary)
		assert.Equal(t, ToneNeutral, r.Tone)
		assert.Equal(t, StageErrorInvocation, observer.fallbacks[StageLanguage])
	})

	t.Run("classification call failure needs review", func(t *testing.T) {
		llm := newFakeLLM()
		llm.errs[StageClassification] = errors.New("503")
		a := newTestAnalyzer(t, llm, nil, nil)

		r, err := a.Analyze(context.Background(), testEmail("m1", longBody))
		require.NoError(t, err)
		assert.Equal(t, []Command{CommandRequiresHumanReview}, r.DetectedCommands)
	})

	t.Run("malformed classification needs review", func(t *testing.T) {
		llm := newFakeLLM()
		llm.responses[StageClassification] = `["send_invoice"`
		observer := newRecordingObserver()
		a := newTestAnalyzer(t, llm, observer, nil)

		r, err := a.Analyze(context.Background(), testEmail("m1", longBody))
		require.NoError(t, err)
		assert.Equal(t, []Command{CommandRequiresHumanReview}, r.DetectedCommands)
		assert.Equal(t, StageErrorValidation, observer.fallbacks[StageClassification])
	})

	t.Run("classification outside taxonomy is no action", func(t *testing.T) {
		llm := newFakeLLM()
		llm.responses[StageClassification] = `["order_pizza"]`
		a := newTestAnalyzer(t, llm, nil, nil)

		r, err := a.Analyze(context.Background(), testEmail("m1", longBody))
		require.NoError(t, err)
		assert.Equal(t, []Command{CommandNoAction}, r.DetectedCommands)
		assert.Equal(t, "[SKIPPED - no_action]", r.ReplyDraftProfessional)
		assert.Equal(t, "[SKIPPED - no_action]", r.ReplyDraftFriendly)
	})

	t.Run("unknown tone is neutral", func(t *testing.T) {
		llm := newFakeLLM()
		llm.responses[StageTone] = "furious"
		a := newTestAnalyzer(t, llm, nil, nil)

		r, err := a.Analyze(context.Background(), testEmail("m1", longBody))
		require.NoError(t, err)
		assert.Equal(t, ToneNeutral, r.Tone)
	})

	t.Run("draft failure becomes error marker", func(t *testing.T) {
		llm := newFakeLLM()
		llm.errs[StageDraftFormal] = errors.New(strings.Repeat("x", 300))
		a := newTestAnalyzer(t, llm, nil, nil)

		r, err := a.Analyze(context.Background(), testEmail("m1", longBody))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(r.ReplyDraftProfessional, "[Reply Generation Error: "))
		assert.Len(t, r.ReplyDraftProfessional, len("[Reply Generation Error: ]")+100)
		assert.Equal(t, "Hi there, happy to send that over today!", r.ReplyDraftFriendly)
	})
}

func TestEmailAnalyzer_ShortCircuits(t *testing.T) {
	llm := newFakeLLM()
	a := newTestAnalyzer(t, llm, nil, nil)

	r, err := a.Analyze(context.Background(), testEmail("m1", NoTextContent))
	require.NoError(t, err)

	assert.Equal(t, DefaultLanguage, r.DetectedLanguage)
	assert.Equal(t, "[Summary unavailable - Subject: Invoice for March]", r.Summary)
	assert.Equal(t, ToneNeutral, r.Tone)
	assert.NotContains(t, llm.stages(), StageLanguage)
	assert.NotContains(t, llm.stages(), StageSummary)
	assert.NotContains(t, llm.stages(), StageTone)
}

func TestEmailAnalyzer_SpamSkipsDrafts(t *testing.T) {
	llm := newFakeLLM()
	llm.responses[StageClassification] = `["spam_detected", "unsubscribe"]`
	a := newTestAnalyzer(t, llm, nil, nil)

	r, err := a.Analyze(context.Background(), testEmail("m1", longBody))
	require.NoError(t, err)

	assert.Equal(t, "[SKIPPED - spam_detected, unsubscribe]", r.ReplyDraftProfessional)
	assert.Equal(t, r.ReplyDraftProfessional, r.ReplyDraftFriendly)
	assert.NotContains(t, llm.stages(), StageDraftFormal)
}

func TestEmailAnalyzer_BypassedSender(t *testing.T) {
	llm := newFakeLLM()
	a := newTestAnalyzer(t, llm, nil, domainBypass("example.com"))

	r, err := a.Analyze(context.Background(), testEmail("m1", longBody))
	require.NoError(t, err)

	assert.Empty(t, llm.stages())
	assert.Equal(t, []Command{CommandNoAction}, r.DetectedCommands)
	assert.True(t, IsSkipMarker(r.ReplyDraftProfessional))
}

func TestEmailAnalyzer_RecoversFromPanic(t *testing.T) {
	llm := newFakeLLM()
	llm.panicOn = "POISON"
	a := newTestAnalyzer(t, llm, nil, nil)

	r, err := a.Analyze(context.Background(), testEmail("bad", "POISON body that is long enough to analyze"))
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Contains(t, r.ProcessingError, "model client crashed")
	assert.Equal(t, 0, r.ConfidenceScore)
	assert.Equal(t, "bad", r.MessageID)
	assert.Equal(t, []Command{CommandNoAction}, r.DetectedCommands)
}

func TestEmailAnalyzer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newTestAnalyzer(t, newFakeLLM(), nil, nil)
	_, err := a.Analyze(ctx, testEmail("m1", longBody))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmailAnalyzer_DeadlineDuringLastStage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	a := newTestAnalyzer(t, &draftBlockingLLM{fakeLLM: newFakeLLM()}, nil, nil)
	record, err := a.Analyze(ctx, testEmail("m1", longBody))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "Spanish", record.DetectedLanguage)
}

func TestMarkers(t *testing.T) {
	assert.Equal(t, "[SKIPPED - no_action]", SkipMarker([]Command{CommandNoAction}))
	assert.True(t, IsSkipMarker("[skipped - no_action]"))
	assert.False(t, IsSkipMarker("Skipped lunch"))
	assert.False(t, IsSkipMarker("As noted in [SKIPPED - no_action], we will reply later."))
	assert.True(t, HasErrorMarker("an Error occurred"))
	assert.Equal(t, "[Reply Generation Error: unknown error]", ReplyErrorMarker(nil))
}
