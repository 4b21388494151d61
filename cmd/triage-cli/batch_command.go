package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikey/llm-mail-triage/internal/core"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var days, maxResults int
	var full bool

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Fetch recent mail and run the whole pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 || days > 30 {
				return fmt.Errorf("days must be an integer between 1 and 30")
			}
			if maxResults < 1 || maxResults > 100 {
				return fmt.Errorf("max must be an integer between 1 and 100")
			}

			return ctx.withService(func(runCtx context.Context, service *core.TriageService) error {
				result := service.ProcessBatch(runCtx, days, maxResults)
				if !full {
					result = result.Redacted()
				}
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
				if !result.Success {
					return fmt.Errorf("batch failed: %s", result.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Fetch window in days")
	cmd.Flags().IntVar(&maxResults, "max", 50, "Maximum number of messages")
	cmd.Flags().BoolVar(&full, "full", false, "Include bodies and raw headers in the output")
	return cmd
}
