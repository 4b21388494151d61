package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// StageErrorKind separates model failures from unusable model output
type StageErrorKind string

const (
	// StageErrorInvocation means the model call failed or timed out
	StageErrorInvocation StageErrorKind = "invocation"
	// StageErrorValidation means the response did not parse or was outside the allowed values
	StageErrorValidation StageErrorKind = "validation"
)

// StageError describes why a stage fell back
type StageError struct {
	Stage string
	Kind  StageErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage %s error: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageSpec is a fully built prompt plus the model parameters for one stage
type StageSpec struct {
	Name        string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// StageResult holds either a parsed value or the reason the stage failed
type StageResult[T any] struct {
	Value T
	Err   *StageError
}

// OK reports whether the stage produced a value
func (r StageResult[T]) OK() bool {
	return r.Err == nil
}

// OrElse returns the value, or fallback when the stage failed
func (r StageResult[T]) OrElse(fallback T) T {
	if r.Err != nil {
		return fallback
	}
	return r.Value
}

// StageRunner invokes the model for a single analysis step
type StageRunner struct {
	llm      LLMClient
	logger   *zap.Logger
	timeout  time.Duration
	observer StageObserver
}

// NewStageRunner creates a stage runner. A zero timeout leaves the caller's deadline in place.
func NewStageRunner(llm LLMClient, logger *zap.Logger, timeout time.Duration, observer StageObserver) *StageRunner {
	if observer == nil {
		observer = noopObserver{}
	}
	return &StageRunner{
		llm:      llm,
		logger:   logger,
		timeout:  timeout,
		observer: observer,
	}
}

// ExecuteStage calls the model and parses the response. It never panics on model
// errors and never retries parse failures.
func ExecuteStage[T any](ctx context.Context, r *StageRunner, spec StageSpec, parse func(string) (T, error)) StageResult[T] {
	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	text, err := r.llm.Complete(callCtx, spec.Prompt, spec.Temperature, spec.MaxTokens)
	if err != nil {
		return StageResult[T]{Err: &StageError{Stage: spec.Name, Kind: StageErrorInvocation, Err: err}}
	}

	value, err := parse(text)
	if err != nil {
		return StageResult[T]{Err: &StageError{Stage: spec.Name, Kind: StageErrorValidation, Err: err}}
	}
	return StageResult[T]{Value: value}
}

// RunStage executes a stage and degrades to fallback on any failure
func RunStage[T any](ctx context.Context, r *StageRunner, spec StageSpec, parse func(string) (T, error), fallback T) T {
	result := ExecuteStage(ctx, r, spec, parse)
	if result.Err != nil {
		r.reportFallback(result.Err)
		return fallback
	}
	return result.Value
}

// reportFallback logs the fallback with a signature per error kind
func (r *StageRunner) reportFallback(err *StageError) {
	r.observer.ObserveFallback(err.Stage, err.Kind)

	switch err.Kind {
	case StageErrorValidation:
		r.logger.Warn("Model response rejected, using fallback",
			zap.String("stage", err.Stage),
			zap.String("kind", string(err.Kind)),
			zap.Error(err.Err))
	default:
		r.logger.Warn("Model call failed, using fallback",
			zap.String("stage", err.Stage),
			zap.String("kind", string(err.Kind)),
			zap.Error(err.Err))
	}
}
