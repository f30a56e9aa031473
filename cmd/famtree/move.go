package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ersonp/famtree-core/internal/domain/entities"
)

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <node-id> <x> <y>",
		Short: "Move a node on the canvas",
		Long:  "Replays a drag of the node to the given coordinates and saves its resting position.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[1], args[2])
			if err != nil {
				return err
			}

			return withDeps(cmd.Context(), func(d *Deps) error {
				if err := d.Tree.HandleMove(cmd.Context(), args[0], pos); err != nil {
					return fmt.Errorf("moving node: %w", err)
				}
				fmt.Printf("Moved %s to (%g, %g)\n", args[0], pos.X, pos.Y)
				return nil
			})
		},
	}
}

func parsePosition(xs, ys string) (entities.Position, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return entities.Position{}, fmt.Errorf("invalid x %q: %w", xs, err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return entities.Position{}, fmt.Errorf("invalid y %q: %w", ys, err)
	}
	return entities.Position{X: x, Y: y}, nil
}
