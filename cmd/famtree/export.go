package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/ports"
)

type exportFlags struct {
	format string
	output string
}

// treeExport is the row-level content of a family tree.
type treeExport struct {
	Types         []entities.RelationshipType         `json:"relationship_types"`
	Members       []entities.FamilyMember             `json:"family_members"`
	Relationships []entities.RelationshipWithType     `json:"relationships"`
	Memberships   []entities.FamilyRelationshipMember `json:"family_relationship_members"`
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the family tree to file",
		Long:  "Exports every row to JSON, the family members to CSV, or the tree to markdown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format (json, csv, markdown)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if !contains(validFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validFormats)
	}

	ctx := cmd.Context()

	return withEnvironment(func(env *environment) error {
		return withInternalDeps(ctx, env, depsOptions{}, func(d *internalDeps) error {
			tree, err := fetchExport(ctx, d.rows)
			if err != nil {
				return err
			}
			return writeExport(tree, flags)
		})
	})
}

func fetchExport(ctx context.Context, rows ports.RowStore) (*treeExport, error) {
	types, err := rows.ListRelationshipTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing relationship types: %w", err)
	}
	members, err := rows.ListFamilyMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing family members: %w", err)
	}
	relationships, err := rows.ListRelationships(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	memberships, err := rows.ListMemberships(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	return &treeExport{
		Types:         types,
		Members:       members,
		Relationships: relationships,
		Memberships:   memberships,
	}, nil
}

func writeExport(tree *treeExport, flags exportFlags) (err error) {
	var w io.Writer
	var f *os.File

	if flags.output != "" {
		f, err = os.OpenFile(flags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("creating file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing file: %w", cerr)
			}
		}()
		w = f
	} else {
		w = os.Stdout
	}

	if err := formatExport(w, flags.format, tree); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if flags.output != "" {
		fmt.Printf("Exported %d family members and %d relationships to %s\n",
			len(tree.Members), len(tree.Relationships), flags.output)
	}

	return nil
}

func formatExport(w io.Writer, format string, tree *treeExport) error {
	switch format {
	case "json":
		return formatJSON(w, tree)
	case "csv":
		return formatCSV(w, tree.Members)
	case "markdown":
		return formatMarkdown(w, tree)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func formatJSON(w io.Writer, tree *treeExport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(tree)
}

func formatCSV(w io.Writer, members []entities.FamilyMember) error {
	writer := csv.NewWriter(w)

	header := []string{"id", "name", "birth_date", "gender", "image_url", "position_x", "position_y"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, m := range members {
		row := []string{
			m.ID,
			m.Name,
			m.BirthDate,
			string(m.Gender),
			m.ImageURL,
			strconv.FormatFloat(m.Position.X, 'f', -1, 64),
			strconv.FormatFloat(m.Position.Y, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatMarkdown(w io.Writer, tree *treeExport) error {
	names := make(map[string]string, len(tree.Members))
	for _, m := range tree.Members {
		names[m.ID] = m.Name
	}

	fmt.Fprintln(w, "# Family Tree")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "## Family Members")
	fmt.Fprintln(w)
	for _, m := range tree.Members {
		line := "- **" + m.Name + "**"
		if m.BirthDate != "" {
			line += " (born " + m.BirthDate + ")"
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "## Relationships")
	for _, r := range tree.Relationships {
		typeName := r.TypeID
		if r.Type != nil {
			typeName = r.Type.Name
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "### %s\n\n", typeName)
		for _, link := range tree.Memberships {
			if link.RelationshipID != r.ID {
				continue
			}
			name, ok := names[link.FamilyMemberID]
			if !ok {
				name = link.FamilyMemberID
			}
			fmt.Fprintf(w, "- %s: %s\n", link.Role, name)
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}
