// Package main provides the entry point for the trailstore CLI.
package main

import (
	"os"

	"github.com/trailstore/trailstore/cmd/trailstore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
