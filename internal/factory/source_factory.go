package factory

import (
	"context"
	"fmt"

	"github.com/mikey/llm-mail-triage/internal/adapters/source"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/ports"
	"go.uber.org/zap"
)

// SourceFactory creates the configured message source
type SourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger) *SourceFactory {
	return &SourceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMessageSource creates the source. The frontend is non-nil when the source
// listens for mail itself and has to be started.
func (f *SourceFactory) CreateMessageSource(ctx context.Context) (core.MessageSource, ports.Frontend, error) {
	srcCfg := f.cfg.GetSource()

	switch srcCfg.Type {
	case "gmail":
		svc, err := source.NewGmailService(ctx, srcCfg.Gmail.CredentialsFile, srcCfg.Gmail.DelegatedUser)
		if err != nil {
			return nil, nil, err
		}
		return source.NewGmailSource(svc, srcCfg.Gmail.UserID, srcCfg.Gmail.FetchWorkers, f.logger), nil, nil

	case "maildir":
		return source.NewMaildirSource(srcCfg.MaildirDir, f.logger), nil, nil

	case "smtp":
		inbox := source.NewSMTPInbox(f.logger,
			srcCfg.SMTP.ListenAddress,
			srcCfg.SMTP.Domain,
			srcCfg.SMTP.BufferSize,
			srcCfg.SMTP.MaxMessageBytes)
		return inbox, inbox, nil

	default:
		return nil, nil, fmt.Errorf("unsupported message source: %s", srcCfg.Type)
	}
}
