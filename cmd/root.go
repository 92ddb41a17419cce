// Package cmd contains all Cobra commands for snowchat.
//
// Design decision: the root command loads secrets.toml, connects nothing
// itself, and launches the TUI. The Snowflake session is established inside
// the TUI behind a connecting screen so the user sees progress and errors
// in one place. A missing or incomplete secrets file aborts here, before
// any UI starts.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"snowchat/config"
	"snowchat/tui"
)

var secretsPath string

var rootCmd = &cobra.Command{
	Use:   "snowchat",
	Short: "Chat with Snowflake Cortex Analyst from your terminal",
	Long: `snowchat is a terminal chat client for Snowflake Cortex Analyst:
  • Ask questions in natural language
  • Replies render inline: text, follow-up suggestions, SQL + results
  • Query results as a table, line chart, or bar chart
  • One Snowflake session, reused for the whole conversation

Credentials are read from secrets.toml (see --secrets).`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(secretsPath)
		if err != nil {
			return fmt.Errorf("configuration: %w", err)
		}
		return tui.Start(cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&secretsPath, "secrets", "",
		"path to secrets.toml (default: ./secrets.toml, then ~/.snowchat/secrets.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
