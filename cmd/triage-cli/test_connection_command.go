package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/mikey/llm-mail-triage/internal/core"
)

func newTestConnectionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Check the message source, the model and the sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(runCtx context.Context, service *core.TriageService) error {
				report := service.TestConnections(runCtx)
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				if !report.OverallStatus {
					return errors.New("connection test failed")
				}
				return nil
			})
		},
	}
}
