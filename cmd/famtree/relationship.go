package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/famtree-core/internal/domain/entities"
)

func newRelationshipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relationship",
		Short: "Add relationships or change their type",
	}

	cmd.AddCommand(newRelationshipAddCmd())
	cmd.AddCommand(newRelationshipSetTypeCmd())

	return cmd
}

func newRelationshipAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Add a relationship of the first type at a random position",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				view, err := d.Tree.HandleAddRelationship(cmd.Context())
				if err != nil {
					return fmt.Errorf("adding relationship: %w", err)
				}
				fmt.Printf("Created relationship: %s (%s)\n", view.ID, view.Visual.Label)
				return nil
			})
		},
	}
}

func newRelationshipSetTypeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-type <id> <type>",
		Short: "Change the type of a relationship",
		Long: `Changes the type of a relationship. The type is given by id or name.

Examples:
  famtree relationship set-type <id> Marriage
  famtree relationship set-type <id> <type-id>`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				typeID := resolveTypeID(d.Tree.HandleTypes(), args[1])
				view, err := d.Tree.HandleSetRelationshipType(cmd.Context(), args[0], typeID)
				if err != nil {
					return fmt.Errorf("changing relationship type: %w", err)
				}
				fmt.Printf("Relationship %s is now %s\n", view.ID, view.Visual.Label)
				return nil
			})
		},
	}
}

// resolveTypeID maps a type name to its id. Anything else is returned as given.
func resolveTypeID(types []entities.RelationshipType, ref string) string {
	for _, t := range types {
		if t.ID == ref {
			return t.ID
		}
	}
	for _, t := range types {
		if strings.EqualFold(t.Name, ref) {
			return t.ID
		}
	}
	return ref
}
