// Package main - test_runner.go
// Executable to run the headless playtest suite.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
	"github.com/MRamiBalles/brainclicker/test"
)

func main() {
	seed := flag.Int64("seed", 0, "Override every scenario's seed (0 keeps the defaults)")
	duration := flag.Duration("duration", 0, "Override every scenario's simulated duration")
	debug := flag.Bool("debug", false, "Log engine internals")
	flag.Parse()

	fmt.Println("BRAIN CLICKER - PLAYTEST SUITE")
	fmt.Println(strings.Repeat("=", 48))

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelInfo
	}
	runner := test.NewPlaytest(logger.New(os.Stdout, os.Stderr, level), true)

	started := time.Now()
	for _, sc := range test.DefaultScenarios() {
		if *seed != 0 {
			sc.Seed = *seed
		}
		if *duration > 0 {
			sc.Duration = *duration
		}
		runner.Run(sc)
	}

	passed, failed := 0, 0
	for _, r := range runner.GetResults() {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("   Passed: %d\n", passed)
	fmt.Printf("   Failed: %d\n", failed)
	fmt.Printf("   Wall time: %v\n", time.Since(started).Round(time.Millisecond))

	if failed > 0 {
		fmt.Println("\nThe economy needs rebalancing")
		os.Exit(1)
	}
	fmt.Println("\nAll playtests passed")
}
