package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() (*cobra.Command, *commandContext) {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "tagcurator",
		Short:         "Analyze and consolidate album genre tags",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.flags.Env, "env", "", "Environment (development, staging, production)")
	flags.StringVar(&ctx.flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&ctx.flags.StorePath, "store", "", "Path to the tag store (default: ~/.tagcurator/store)")
	flags.StringVar(&ctx.flags.RulesFile, "rules", "", "TOML file of consolidation rules to load")
	flags.StringVar(&ctx.flags.Threshold, "threshold", "", "Minimum similarity for merge suggestions (default: 0.6)")
	flags.StringVar(&ctx.flags.Resolution, "resolution", "", "Cluster resolution; higher gives smaller clusters (default: 1.0)")
	flags.StringVar(&ctx.flags.EnvFile, "env-file", ".env", "Path to .env file")
	flags.BoolVar(&ctx.inMemory, "in-memory", false, "Use a throwaway in-memory store")
	flags.BoolVar(&ctx.jsonOutput, "json", false, "Write JSON instead of tables")

	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newClustersCommand(ctx))
	rootCmd.AddCommand(newHierarchyCommand(ctx))
	rootCmd.AddCommand(newSimilarCommand(ctx))
	rootCmd.AddCommand(newSearchCommand(ctx))
	rootCmd.AddCommand(newSuggestCommand(ctx))
	rootCmd.AddCommand(newPreviewCommand(ctx))
	rootCmd.AddCommand(newMergeCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newRuleCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))

	return rootCmd, ctx
}
