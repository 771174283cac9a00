// Package main is the entry point for the mtree worker binary.
//
// Usage:
//
//	worker [flags] <command> [args]
//
// Commands:
//
//	serve    - Run the worker HTTP server
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/mtreecluster/cmd/worker/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
