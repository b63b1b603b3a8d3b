package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nbkv/cmd/kv"
	"nbkv/cmd/serve"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "nbkv",
		Short: "non-blocking key-value store",
		Long: fmt.Sprintf(`nbkv (v%s)

An embedded key-value store with a fully asynchronous API,
bridging blocking storage engines to callback-driven callers
via a pool of background workers.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of nbkv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nbkv v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
