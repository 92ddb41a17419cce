// snowchat – terminal chat client for Snowflake Cortex Analyst.
//
// Entry point: initializes the Cobra root command and launches
// the Bubble Tea chat UI by default (no subcommand required).
package main

import (
	"os"

	"snowchat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
