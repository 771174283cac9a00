package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "Metric tree worker: owns one shard of a vector search cluster",
	Long: `worker - runs a single shard of a distributed metric tree cluster.

A worker owns one in-memory m-tree and answers insert, k-NN, and range
queries against it. It never talks to other workers directly; a
coordinator routes writes to it by consistent hash and fans reads out
across every worker in the cluster.

Configuration is read from the environment (see 'worker serve --help').

Examples:
  worker serve
  M_TREE_DISTANCE_METRIC=cosine WORKER_BASE_PORT=5002 worker serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
