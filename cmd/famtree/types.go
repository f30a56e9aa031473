package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List relationship types",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				types := d.Tree.HandleTypes()
				if len(types) == 0 {
					fmt.Println("No relationship types found.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tCOLOR")
				for _, t := range types {
					fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, t.Color)
				}
				return w.Flush()
			})
		},
	}
}
