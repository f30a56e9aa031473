package services

import (
	"context"
	"fmt"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/graph"
	"github.com/ersonp/famtree-core/internal/domain/ports"
)

// CreateFamilyMember inserts a member with the default name at a random position,
// appends the stored row as a node and opens its edit dialog.
func (s *Synchronizer) CreateFamilyMember(ctx context.Context) (graph.Node, error) {
	const title = "Failed to add family member"

	row, err := s.rows.InsertFamilyMember(ctx, entities.NewFamilyMember{
		Name:     entities.DefaultMemberName,
		Position: s.randomPosition(),
	})
	if err != nil {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, fmt.Errorf("inserting family member: %w", err))
	}

	node := familyNode(*row)
	if err := s.store.AppendNode(node); err != nil {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, err)
	}

	s.logger.InfoContext(ctx, "family member created", "id", row.ID)
	s.succeed(ctx, "Family member added")
	s.dialogs.OpenFamilyMemberDialog(ctx, row.ID)
	return node, nil
}

// CreateRelationship inserts a relationship of the first loaded type at a random
// position, appends it as a node and opens its edit dialog.
func (s *Synchronizer) CreateRelationship(ctx context.Context) (graph.Node, error) {
	const title = "Failed to add relationship"

	types := s.RelationshipTypes()
	if len(types) == 0 {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, ErrNoRelationshipTypes)
	}
	relType := types[0]

	row, err := s.rows.InsertRelationship(ctx, entities.NewRelationship{
		TypeID:   relType.ID,
		Position: s.randomPosition(),
	})
	if err != nil {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, fmt.Errorf("inserting relationship: %w", err))
	}

	node := relationshipNode(*row, relType)
	if err := s.store.AppendNode(node); err != nil {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, err)
	}

	s.logger.InfoContext(ctx, "relationship created", "id", row.ID, "type", relType.Name)
	s.succeed(ctx, "Relationship added")
	s.dialogs.OpenRelationshipDialog(ctx, row.ID)
	return node, nil
}
