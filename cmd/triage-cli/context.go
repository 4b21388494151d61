package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/di"
	"github.com/mikey/llm-mail-triage/internal/ports"
)

type commandContext struct {
	flags di.CLIFlags
}

// serviceParams are the dependencies a command runs against
type serviceParams struct {
	dig.In

	Logger  *zap.Logger
	Service *core.TriageService
	Sink    core.RecordSink
}

// withService builds the pipeline and hands the service to fn, releasing the sink afterwards
func (c *commandContext) withService(fn func(context.Context, *core.TriageService) error) error {
	container, err := di.BuildCLIContainer(c.flags)
	if err != nil {
		return err
	}

	var runErr error
	err = container.Invoke(func(p serviceParams) {
		defer p.Logger.Sync()
		defer func() {
			if stopper, ok := p.Sink.(ports.Stopper); ok {
				stopper.Stop()
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		runErr = fn(ctx, p.Service)
	})
	if err != nil {
		return err
	}
	return runErr
}
