package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mikey/llm-mail-triage/internal/adapters/source"
	"github.com/mikey/llm-mail-triage/internal/core"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var file string
	var full bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a single RFC 5322 message",
		Long:  "Analyze reads one message from --file or stdin and prints the triage record as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				in io.Reader = cmd.InOrStdin()
				id           = uuid.NewString()
			)
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open message: %w", err)
				}
				defer f.Close()
				in = f
				id = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			}

			raw, _, err := source.ParseMessage(id, bufio.NewReader(in))
			if err != nil {
				return err
			}

			// A single message needs no mailbox
			if ctx.flags.Source == "" {
				ctx.flags.Source = "maildir"
			}

			return ctx.withService(func(runCtx context.Context, service *core.TriageService) error {
				record, err := service.AnalyzeOne(runCtx, raw)
				if err != nil {
					return err
				}
				if !full {
					record = record.Redacted()
				}
				return writeJSON(cmd, record)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Message file (stdin when empty)")
	cmd.Flags().BoolVar(&full, "full", false, "Include the body and raw headers in the output")
	return cmd
}
