package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "triage-cli",
		Short:         "Run the mail triage pipeline from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.flags.ConfigFile, "config", "c", "", "Configuration file path")
	flags.BoolVarP(&ctx.flags.Verbose, "verbose", "v", false, "Enable verbose logging")
	flags.BoolVar(&ctx.flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flags.StringVar(&ctx.flags.Provider, "provider", "", "LLM provider (bedrock, gemini, openai)")
	flags.StringVar(&ctx.flags.Source, "source", "", "Message source (gmail, maildir, smtp)")
	flags.StringVar(&ctx.flags.MaildirDir, "maildir", "", "Directory of .eml files for the maildir source")
	flags.StringVar(&ctx.flags.Sink, "sink", "", "Record sink (none, memory, sqlite, mysql, redis, notion)")
	flags.IntVar(&ctx.flags.Workers, "workers", 0, "Emails analyzed concurrently")

	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newBatchCommand(ctx))
	rootCmd.AddCommand(newTestConnectionCommand(ctx))

	return rootCmd
}
