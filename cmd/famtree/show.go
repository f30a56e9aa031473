package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/famtree-core/internal/application/handlers"
	"github.com/ersonp/famtree-core/internal/domain/graph"
)

func newShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the family tree",
		Long:  "Loads the tree and prints its members and relationships, or the canvas graph as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				view := d.Tree.HandleView()
				if asJSON {
					encoder := json.NewEncoder(os.Stdout)
					encoder.SetIndent("", "  ")
					return encoder.Encode(view)
				}
				return formatTree(os.Stdout, view)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the graph as JSON")

	return cmd
}

// formatTree prints members, then each relationship with its linked members.
func formatTree(w io.Writer, view *handlers.TreeView) error {
	members, relationships := view.Counts()
	if members == 0 && relationships == 0 {
		_, err := fmt.Fprintln(w, "The family tree is empty.")
		return err
	}

	fmt.Fprintf(w, "Family members (%d):\n", members)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tNAME\tBORN\tGENDER\tPOSITION")
	for _, n := range view.Nodes {
		if n.Kind != graph.KindFamily {
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t(%.0f, %.0f)\n",
			n.ID, n.Visual.Label, orDash(n.Visual.Subtitle), n.Visual.Gender, n.Position.X, n.Position.Y)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nRelationships (%d):\n", relationships)
	for _, n := range view.Nodes {
		if n.Kind != graph.KindRelationship {
			continue
		}
		fmt.Fprintf(w, "  %s  %s\n", n.ID, n.Visual.Label)
		for _, line := range relationshipMembers(view, n.ID) {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	return nil
}

// relationshipMembers lists "role: name" for each edge touching the relationship.
func relationshipMembers(view *handlers.TreeView, relID string) []string {
	var lines []string
	for _, e := range view.Edges {
		other := ""
		switch relID {
		case e.Source:
			other = e.Target
		case e.Target:
			other = e.Source
		default:
			continue
		}
		name := other
		if n, ok := view.Node(other); ok {
			name = n.Visual.Label
		}
		lines = append(lines, fmt.Sprintf("%s: %s", e.Role, name))
	}
	return lines
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
