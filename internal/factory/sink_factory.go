package factory

import (
	"fmt"

	"github.com/mikey/llm-mail-triage/internal/adapters/sink"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// SinkFactory creates the configured record sink
type SinkFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSinkFactory creates a new sink factory
func NewSinkFactory(cfg *config.Config, logger *zap.Logger) *SinkFactory {
	return &SinkFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateRecordSink creates the sink. Type "none" disables persistence and returns nil.
func (f *SinkFactory) CreateRecordSink() (core.RecordSink, error) {
	sinkCfg := f.cfg.GetSink()

	switch sinkCfg.Type {
	case "none", "":
		f.logger.Info("Record sink disabled")
		return nil, nil
	case "memory":
		return sink.NewMemorySink(f.logger, sinkCfg.Retention, sinkCfg.CleanupFrequency), nil
	case "sqlite":
		return sink.NewSQLiteSink(sinkCfg.SQLitePath, f.logger, sinkCfg.Retention, sinkCfg.CleanupFrequency)
	case "mysql":
		return sink.NewMySQLSink(sinkCfg.MySQLDSN, f.logger, sinkCfg.Retention, sinkCfg.CleanupFrequency)
	case "redis":
		client := sink.NewRedisClient(sinkCfg.Redis.Address, sinkCfg.Redis.Password, sinkCfg.Redis.DB)
		return sink.NewRedisStreamSink(client, sinkCfg.Redis.Stream, sinkCfg.Redis.MaxLen, f.logger), nil
	case "notion":
		if sinkCfg.Notion.Token == "" || sinkCfg.Notion.DatabaseID == "" {
			return nil, fmt.Errorf("notion sink requires a token and a database id")
		}
		return sink.NewNotionSink(nil,
			sinkCfg.Notion.BaseURL,
			sinkCfg.Notion.Token,
			sinkCfg.Notion.DatabaseID,
			sinkCfg.Notion.Version,
			f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", sinkCfg.Type)
	}
}
