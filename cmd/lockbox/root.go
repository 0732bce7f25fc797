package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lockbox",
	Short: "Lockbox drives a multi-puzzle lock box",
	Long: `Lockbox runs the puzzle box coordinator over simulated hardware, ` +
		`records every transition into a session database, and serves a ` +
		`monitoring page for observing and controlling the box.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
