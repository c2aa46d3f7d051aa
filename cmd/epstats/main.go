// Command epstats is the evaluation service's entrypoint: a
// github.com/spf13/cobra root command with a serve subcommand (the gin HTTP
// server) and a sample-size subcommand (a one-shot invocation of the
// sample-size formula for scripting).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "epstats",
		Short: "Statistical evaluation service for online controlled experiments",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newSampleSizeCmd())
	return root
}
