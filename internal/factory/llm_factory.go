package factory

import (
	"fmt"

	"github.com/mikey/llm-mail-triage/internal/adapters/bedrock"
	"github.com/mikey/llm-mail-triage/internal/adapters/gemini"
	"github.com/mikey/llm-mail-triage/internal/adapters/openai"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/resilience"
	"go.uber.org/zap"
)

// LLMFactory creates the model client for the configured provider
type LLMFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	retrier *resilience.Retrier
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, retrier *resilience.Retrier) *LLMFactory {
	return &LLMFactory{
		cfg:     cfg,
		logger:  logger,
		retrier: retrier,
	}
}

// CreateLLMClient creates the provider client wrapped in retries and a circuit breaker
func (f *LLMFactory) CreateLLMClient() (*resilience.GuardedCompleter, error) {
	llmConfig := f.cfg.GetLLM()

	var (
		client resilience.Completer
		err    error
	)
	switch llmConfig.Provider {
	case "bedrock":
		client, err = bedrock.NewFactory(f.cfg, f.logger).CreateLLMClient()
	case "gemini":
		client, err = gemini.NewFactory(f.cfg, f.logger).CreateLLMClient()
	case "openai":
		client, err = openai.NewFactory(f.cfg, f.logger).CreateLLMClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Info("Created LLM client", zap.String("provider", llmConfig.Provider))
	return resilience.NewGuardedCompleter(client, f.retrier, resilience.BreakerSettings{
		Name:                llmConfig.Provider,
		ConsecutiveFailures: llmConfig.BreakerFailures,
		OpenTimeout:         llmConfig.BreakerTimeout,
	}, f.logger), nil
}

// NewRetrier builds the transport retry policy from configuration
func NewRetrier(cfg *config.Config, logger *zap.Logger) *resilience.Retrier {
	retryCfg := cfg.GetRetry()
	return resilience.NewRetrier(resilience.RetryPolicy{
		MaxRetries:      retryCfg.MaxRetries,
		InitialInterval: retryCfg.InitialInterval,
		MaxInterval:     retryCfg.MaxInterval,
	}, logger)
}
