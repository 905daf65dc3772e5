package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "eduverse",
	Short: "Terminal client for EduVerse topics",
	Long: `eduverse browses EduVerse grammar topics, shows their rules, examples and media,
collects your feedback and keeps live stats, news and recent feedback on screen.

Run without arguments for the interactive browser, or use the subcommands for
scripting.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(topicCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(watchCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "eduverse %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
