package main

import (
	"os"

	"github.com/tasi-labs/finpipe/cmd/finpipe/commands"
)

// main is the entry point for the finpipe CLI.
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
