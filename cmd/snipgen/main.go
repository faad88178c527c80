// Package main provides the snipgen CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/snipgen/pkg/version"
)

const formatJSON = "json"

type rootOptions struct {
	cfgFile string
	verbose bool
	quiet   bool
	stderr  io.Writer
}

func main() {
	version.InitBinaryVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(os.Stderr).ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Logs go to stderr.
func newRootCmd(stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "snipgen",
		Short: "Synthesize code rewriting snippets from examples",
		Long: `snipgen turns before/after code examples into rewriter snippets.

Commands:
  generate  Synthesize verified snippets from examples
  run       Apply a snippet to files
  parse     List the node paths of a source file
  mcp       Serve the tools over the Model Context Protocol`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default ./.snipgen.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(generateCmd(opts))
	rootCmd.AddCommand(runCmd(opts))
	rootCmd.AddCommand(parseCmd(opts))
	rootCmd.AddCommand(mcpCmd(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "snipgen %s\n", version.String())
		},
	}
}
