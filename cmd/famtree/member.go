package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ersonp/famtree-core/internal/domain/entities"
)

func newMemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Add or edit family members",
	}

	cmd.AddCommand(newMemberAddCmd())
	cmd.AddCommand(newMemberEditCmd())

	return cmd
}

func newMemberAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Add a family member at a random position",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				view, err := d.Tree.HandleAddMember(cmd.Context())
				if err != nil {
					return fmt.Errorf("adding family member: %w", err)
				}
				fmt.Printf("Created family member: %s\n", view.ID)
				return nil
			})
		},
	}
}

type memberEditFlags struct {
	name      string
	birthDate string
	gender    string
	imageURL  string
}

func newMemberEditCmd() *cobra.Command {
	var flags memberEditFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a family member",
		Long: `Updates the given fields of a family member.
Pass an empty --birth-date or --image-url to clear it.

Examples:
  famtree member edit <id> --name "Ada Lovelace" --birth-date 1815-12-10
  famtree member edit <id> --gender female --image-url ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := buildMemberUpdate(cmd.Flags(), flags)
			if err != nil {
				return err
			}

			return withDeps(cmd.Context(), func(d *Deps) error {
				view, err := d.Tree.HandleEditMember(cmd.Context(), args[0], update)
				if err != nil {
					return fmt.Errorf("editing family member: %w", err)
				}
				fmt.Printf("Updated family member: %s (%s)\n", view.Visual.Label, view.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "Full name")
	cmd.Flags().StringVar(&flags.birthDate, "birth-date", "", "Birth date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.gender, "gender", "", "Gender (male, female, other)")
	cmd.Flags().StringVar(&flags.imageURL, "image-url", "", "Portrait URL")

	return cmd
}

// buildMemberUpdate turns the flags that were set into a partial update.
func buildMemberUpdate(fs *pflag.FlagSet, flags memberEditFlags) (entities.FamilyMemberUpdate, error) {
	var u entities.FamilyMemberUpdate

	if fs.Changed("name") {
		u.Name = &flags.name
	}
	if fs.Changed("birth-date") {
		u.BirthDate = &flags.birthDate
	}
	if fs.Changed("gender") {
		if !contains(validGenders, flags.gender) {
			return u, fmt.Errorf("invalid gender %q, valid genders: %v", flags.gender, validGenders)
		}
		g := entities.Gender(flags.gender)
		u.Gender = &g
	}
	if fs.Changed("image-url") {
		u.ImageURL = &flags.imageURL
	}

	if u.IsEmpty() {
		return u, errors.New("nothing to update (use --name, --birth-date, --gender or --image-url)")
	}
	return u, nil
}
