package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mikey/llm-mail-triage/internal/utils"
	"go.uber.org/zap"
)

// sixtyWordDraft has 60 words and two quality phrases
var sixtyWordDraft = "Thank you for reaching out. " + strings.Repeat("details ", 52) + "Best regards, Team"

// fakeLLM answers by stage, identified from the prompt text
type fakeLLM struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	panicOn   string
	calls     []string
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{
		responses: map[string]string{
			StageLanguage:       "Spanish",
			StageSummary:        "Customer asks for a copy of the March invoice.",
			StageClassification: `["send_invoice"]`,
			StageTone:           "neutral",
			StageDraftFormal:    sixtyWordDraft,
			StageDraftWarm:      "Hi there, happy to send that over today!",
		},
		errs: map[string]error{},
	}
}

func stageOf(prompt string) string {
	switch {
	case strings.Contains(prompt, formalDirective):
		return StageDraftFormal
	case strings.Contains(prompt, warmDirective):
		return StageDraftWarm
	case strings.Contains(prompt, "email classification system"):
		return StageClassification
	case strings.Contains(prompt, "Analyze the emotional tone"):
		return StageTone
	case strings.Contains(prompt, "Create a professional, concise summary"):
		return StageSummary
	case strings.Contains(prompt, "Detect the primary language"):
		return StageLanguage
	}
	return "unknown"
}

func (f *fakeLLM) Complete(_ context.Context, prompt string, _ float32, _ int) (string, error) {
	if f.panicOn != "" && strings.Contains(prompt, f.panicOn) {
		panic("model client crashed")
	}
	stage := stageOf(prompt)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, stage)
	if err := f.errs[stage]; err != nil {
		return "", err
	}
	if r, ok := f.responses[stage]; ok {
		return r, nil
	}
	return "", errors.New("no scripted response")
}

func (f *fakeLLM) stages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

type recordingObserver struct {
	mu        sync.Mutex
	fallbacks map[string]StageErrorKind
	emails    int
	failed    int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{fallbacks: map[string]StageErrorKind{}}
}

func (o *recordingObserver) ObserveFallback(stage string, kind StageErrorKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallbacks[stage] = kind
}

func (o *recordingObserver) ObserveEmail(_ ActionStatus, failed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.emails++
	if failed {
		o.failed++
	}
}

type domainBypass string

func (d domainBypass) IsBypassed(sender string) bool {
	return strings.HasSuffix(sender, "@"+string(d))
}

func newTestAnalyzer(t *testing.T, llm LLMClient, observer StageObserver, bypass SenderFilter) *EmailAnalyzer {
	t.Helper()
	logger := zap.NewNop()
	runner := NewStageRunner(llm, logger, 0, observer)
	return NewEmailAnalyzer(runner, DefaultTaxonomy(), utils.NewTextProcessor(logger), bypass, logger)
}

func testEmail(id, body string) *RawEmail {
	return &RawEmail{
		ID:       id,
		ThreadID: "thread-" + id,
		Subject:  "Invoice for March",
		Sender:   "Ana Lopez <ana@example.com>",
		Body:     body,
	}
}

const longBody = "Hola, necesito una copia de la factura de marzo para nuestra contabilidad, gracias."
