// Package main is the entry point for the mtree coordinator binary.
//
// Usage:
//
//	coordinator [flags] <command> [args]
//
// Commands:
//
//	serve    - Run the coordinator HTTP server
//	status   - Print a one-shot cluster status report
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/mtreecluster/cmd/coordinator/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
