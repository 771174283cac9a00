package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "coordinator",
	Short: "Metric tree coordinator: routes writes and fans out reads across workers",
	Long: `coordinator - routes a distributed metric tree cluster.

The coordinator holds a consistent-hash ring over a set of registered
workers. It routes each insert to exactly one worker, and fans k-NN and
range queries out to every registered worker, merging results under the
global distance ordering before returning them.

Configuration is read from the environment (see 'coordinator serve --help').

Examples:
  coordinator serve
  coordinator status --addr http://localhost:5000`,
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
