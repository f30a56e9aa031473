package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect <source-id> <target-id>",
		Short: "Connect a family member and a relationship",
		Long: `Links a family member into a relationship, like dragging a connection on the canvas.
The member is a parent when it is the source and a child when it is the target.

Examples:
  famtree connect <member-id> <relationship-id>   # member joins as parent
  famtree connect <relationship-id> <member-id>   # member joins as child`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				edge, err := d.Tree.HandleConnect(cmd.Context(), args[0], args[1])
				if err != nil {
					return fmt.Errorf("connecting: %w", err)
				}
				fmt.Printf("Created connection: %s\n", edge.ID)
				fmt.Printf("  %s -[%s]-> %s\n", edge.Source, edge.Role, edge.Target)
				return nil
			})
		},
	}
}
