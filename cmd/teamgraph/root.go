package main

import (
	"fmt"
	"os"

	"github.com/smallnest/teamgraph/config"
	"github.com/smallnest/teamgraph/log"
	"github.com/spf13/cobra"
)

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "teamgraph",
	Short: "Hierarchical research and writing agent teams",
	Long: `teamgraph answers questions with a top supervisor that delegates to a research
team and a writing team of tool-using agents. Configuration is read from the
environment (LLM_PROVIDER, OPENAI_API_KEY, TAVILY_API_KEY, SERVER_PORT, ...).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		level, err := log.ParseLevel(loaded.LogLevel)
		if err != nil {
			return err
		}
		log.SetDefaultLogger(log.NewServiceLogger(os.Stderr, level))
		cfg = loaded
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error, none); overrides LOG_LEVEL")
}
