package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/famtree-core/internal/application/handlers"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new family tree",
		Long:  "Creates a .famtree directory with default configuration, creates the tables and seeds the default relationship types.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	result, err := handlers.NewInitHandler(openSchema).Handle(ctx, cwd)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s\n", result.ConfigPath)
	fmt.Printf("Store driver: %s\n", result.Driver)
	if result.TypesSeeded > 0 {
		fmt.Printf("Seeded %d relationship types\n", result.TypesSeeded)
	}
	fmt.Println("Family tree initialized successfully!")

	return nil
}
