package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run the indicator self-test on simulated hardware",
	Run: func(_ *cobra.Command, _ []string) {
		logger := log.New(os.Stderr, "lockbox ", log.LstdFlags)

		coordinator, hardware := buildSimBox(logger)
		coordinator.Begin()
		coordinator.StartSelfTest()

		now := time.Now()
		for coordinator.SelfTestRunning() {
			coordinator.Tick(now)
			now = now.Add(10 * time.Millisecond)
		}

		for i, ind := range hardware.Indicators {
			if ind.On() {
				fmt.Printf("indicator %d stuck on after self-test\n", i)
				os.Exit(1)
			}
		}

		fmt.Println("self-test complete")
	},
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}
