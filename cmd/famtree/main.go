// Package main provides the entry point for the famtree CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version       = "0.1.0-dev"
	globalVerbose bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:           "famtree",
		Short:         "A family tree editor backed by a relational row store",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "Log at the configured level instead of errors only")

	rootCmd.AddCommand(
		newInitCmd(),
		newShowCmd(),
		newTypesCmd(),
		newMemberCmd(),
		newRelationshipCmd(),
		newConnectCmd(),
		newMoveCmd(),
		newExportCmd(),
		newServeCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
