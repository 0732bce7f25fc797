package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sintlab/lockbox/box"
	"github.com/sintlab/lockbox/eventlog"
	"github.com/sintlab/lockbox/monitoring"
	"github.com/sintlab/lockbox/puzzle"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the box with simulated hardware",
	Long: `Starts the coordinator over simulated hardware, ticks it until ` +
		`interrupted, and serves the monitoring page. Configuration comes ` +
		`from flags, or from LOCKBOX_* environment variables, optionally ` +
		`loaded from a .env file.`,
	Run: func(cmd *cobra.Command, _ []string) {
		port, _ := cmd.Flags().GetInt("port")
		dbPath, _ := cmd.Flags().GetString("db")
		tickMs, _ := cmd.Flags().GetInt("tick-ms")
		open, _ := cmd.Flags().GetBool("open")

		loadEnvConfig(cmd, &port, &dbPath, &tickMs)

		logger := log.New(os.Stderr, "lockbox ", log.LstdFlags)

		coordinator, _ := buildSimBox(logger)

		recorder := eventlog.NewRecorder(dbPath)
		eventHook := eventlog.NewEventHook(recorder)
		coordinator.AcceptHook(eventHook)
		for _, p := range coordinator.Puzzles() {
			if hookable, ok := p.(puzzle.Hookable); ok {
				hookable.AcceptHook(eventHook)
			}
		}

		coordinator.Begin()

		runner := box.NewRunner(
			coordinator, time.Duration(tickMs)*time.Millisecond, logger)
		runner.Run()

		monitor := monitoring.NewMonitor()
		monitor.WithPortNumber(port)
		monitor.RegisterCoordinator(coordinator)
		monitor.RegisterRunner(runner)
		boundPort := monitor.StartServer()

		if open {
			url := fmt.Sprintf("http://localhost:%d", boundPort)
			if err := browser.OpenURL(url); err != nil {
				logger.Printf("cannot open browser: %v", err)
			}
		}

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		<-shutdown

		logger.Printf("shutting down")
		runner.Stop()
		recorder.Flush()
		atexit.Exit(0)
	},
}

// loadEnvConfig overlays LOCKBOX_* environment variables onto settings whose
// flags were not given explicitly. A .env file in the working directory is
// loaded first when present.
func loadEnvConfig(cmd *cobra.Command, port *int, dbPath *string, tickMs *int) {
	_ = godotenv.Load()

	if !cmd.Flags().Changed("port") {
		if v, err := strconv.Atoi(os.Getenv("LOCKBOX_PORT")); err == nil {
			*port = v
		}
	}

	if !cmd.Flags().Changed("db") {
		if v := os.Getenv("LOCKBOX_DB"); v != "" {
			*dbPath = v
		}
	}

	if !cmd.Flags().Changed("tick-ms") {
		if v, err := strconv.Atoi(os.Getenv("LOCKBOX_TICK_MS")); err == nil {
			*tickMs = v
		}
	}
}

func init() {
	runCmd.Flags().Int("port", 0, "monitoring port, 0 picks a free one")
	runCmd.Flags().String("db", "", "session database path, empty generates one")
	runCmd.Flags().Int("tick-ms", 10, "tick period in milliseconds")
	runCmd.Flags().Bool("open", false, "open the monitoring page in a browser")

	rootCmd.AddCommand(runCmd)
}
