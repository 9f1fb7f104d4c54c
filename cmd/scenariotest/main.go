package main

import (
	"os"

	"github.com/arthur-debert/scenariotest/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
