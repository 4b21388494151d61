package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/bypass"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/factory"
	"github.com/mikey/llm-mail-triage/internal/ports"
	"github.com/mikey/llm-mail-triage/internal/resilience"
	"github.com/mikey/llm-mail-triage/internal/utils"
)

// SourceResult carries the message source and, for sources that receive mail
// themselves, the listener that must be started
type SourceResult struct {
	dig.Out

	Source   core.MessageSource
	Listener ports.Frontend `name:"source_listener"`
}

// provideAll registers every provider in order, stopping at the first error
func provideAll(container *dig.Container, constructors ...interface{}) error {
	for _, c := range constructors {
		if err := container.Provide(c); err != nil {
			return err
		}
	}
	return nil
}

// providePipeline registers the triage pipeline shared by the server and the CLI.
// The container must already provide *config.Config, *zap.Logger and core.StageObserver.
func providePipeline(container *dig.Container) error {
	return provideAll(container,
		factory.NewRetrier,
		factory.NewLLMFactory,
		factory.NewSourceFactory,
		factory.NewSinkFactory,
		utils.NewTextProcessor,
		core.DefaultTaxonomy,

		// Model client behind retries and the circuit breaker
		func(f *factory.LLMFactory) (*resilience.GuardedCompleter, error) {
			return f.CreateLLMClient()
		},
		func(g *resilience.GuardedCompleter) core.LLMClient {
			return g
		},

		func(f *factory.SourceFactory) (SourceResult, error) {
			src, listener, err := f.CreateMessageSource(context.Background())
			return SourceResult{Source: src, Listener: listener}, err
		},
		func(f *factory.SinkFactory) (core.RecordSink, error) {
			return f.CreateRecordSink()
		},

		func(cfg *config.Config, logger *zap.Logger) core.SenderFilter {
			return bypass.NewChecker(cfg.GetPipeline().BypassDomains, logger)
		},
		func(cfg *config.Config, llm core.LLMClient, logger *zap.Logger, observer core.StageObserver) *core.StageRunner {
			return core.NewStageRunner(llm, logger, cfg.GetLLM().StageTimeout, observer)
		},
		core.NewEmailAnalyzer,
		func(cfg *config.Config, analyzer *core.EmailAnalyzer, taxonomy *core.Taxonomy,
			observer core.StageObserver, logger *zap.Logger) *core.BatchAggregator {
			pipeline := cfg.GetPipeline()
			return core.NewBatchAggregator(analyzer, taxonomy, pipeline.Workers, pipeline.BatchTimeout, observer, logger)
		},
		core.NewTriageService,
	)
}
