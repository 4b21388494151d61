package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/logging"
	"github.com/mikey/llm-mail-triage/internal/metrics"
)

// CLIFlags are the command line settings that override the config file
type CLIFlags struct {
	ConfigFile string
	Verbose    bool
	JSONLog    bool
	Provider   string
	Source     string
	MaildirDir string
	Sink       string
	Workers    int
}

// overrides maps the non-empty flags onto config keys
func (f CLIFlags) overrides() map[string]interface{} {
	o := make(map[string]interface{})
	if f.Provider != "" {
		o["llm.provider"] = f.Provider
	}
	if f.Source != "" {
		o["source.type"] = f.Source
	}
	if f.MaildirDir != "" {
		o["source.maildir.path"] = f.MaildirDir
	}
	if f.Sink != "" {
		o["sink.type"] = f.Sink
	}
	if f.Workers > 0 {
		o["pipeline.workers"] = f.Workers
	}
	return o
}

// BuildCLIContainer creates the dependency injection container for the command line tool
func BuildCLIContainer(flags CLIFlags) (*dig.Container, error) {
	container := dig.New()

	if err := provideAll(container,
		func() (*zap.Logger, error) {
			return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
		},
		func(logger *zap.Logger) (*config.Config, error) {
			cfg, err := config.Load(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			for key, value := range flags.overrides() {
				cfg.Set(key, value)
			}
			if used := cfg.GetViper().ConfigFileUsed(); used != "" {
				logger.Info("Loaded configuration from file", zap.String("file", used))
			}
			return cfg, nil
		},

		// Counters are kept in a private registry that is never scraped
		func() *metrics.TriageMetrics {
			return metrics.NewTriageMetrics(prometheus.NewRegistry())
		},
		func(m *metrics.TriageMetrics) core.StageObserver {
			return m
		},
	); err != nil {
		return nil, err
	}

	if err := providePipeline(container); err != nil {
		return nil, err
	}

	return container, nil
}
