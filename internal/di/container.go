package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/adapters/api"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/logging"
	"github.com/mikey/llm-mail-triage/internal/metrics"
	"github.com/mikey/llm-mail-triage/internal/resilience"
)

// Version is reported by the health and stats endpoints
var Version = "2.0.0"

// BuildContainer creates the dependency injection container for the server
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	if err := provideAll(container,
		config.New,
		logging.InitLogger,

		// Metrics registry with the Go runtime collectors
		func() *prometheus.Registry {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			return reg
		},
		metrics.NewTriageMetrics,
		func(m *metrics.TriageMetrics) core.StageObserver {
			return m
		},
	); err != nil {
		return nil, err
	}

	if err := providePipeline(container); err != nil {
		return nil, err
	}

	if err := provideAll(container,
		func(
			cfg *config.Config,
			service *core.TriageService,
			taxonomy *core.Taxonomy,
			m *metrics.TriageMetrics,
			sink core.RecordSink,
			logger *zap.Logger,
		) *api.Handler {
			pipeline := cfg.GetPipeline()
			sinkName := ""
			if sink != nil {
				sinkName = sink.Name()
			}
			return api.NewHandler(service, taxonomy, m, api.Options{
				Version:           Version,
				SourceName:        cfg.GetSource().Type,
				ModelName:         cfg.GetLLM().Provider,
				SinkName:          sinkName,
				DefaultDays:       pipeline.DefaultDays,
				DefaultMaxResults: pipeline.DefaultMaxResults,
			}, logger)
		},
		func(
			cfg *config.Config,
			h *api.Handler,
			m *metrics.TriageMetrics,
			reg *prometheus.Registry,
			llm *resilience.GuardedCompleter,
			logger *zap.Logger,
		) *api.Server {
			serverCfg := cfg.GetServer()
			metricsHandler := m.Handler()
			if cfg.GetBool("metrics.enabled") {
				metrics.RegisterBreakerState(reg, cfg.GetLLM().Provider, llm.State)
			} else {
				metricsHandler = nil
			}
			router := api.NewRouter(h, metricsHandler, logger)
			return api.NewServer(serverCfg.ListenAddress, router, serverCfg.ReadTimeout, serverCfg.WriteTimeout, logger)
		},
	); err != nil {
		return nil, err
	}

	return container, nil
}
