package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/graph"
	"github.com/ersonp/famtree-core/internal/domain/ports"
)

// EditFamilyMember persists a member dialog result and merges it into the node.
func (s *Synchronizer) EditFamilyMember(ctx context.Context, id string, u entities.FamilyMemberUpdate) (graph.Node, error) {
	const title = "Failed to update family member"

	node, ok := s.store.Node(id)
	if !ok {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, fmt.Errorf("%s: %w", id, graph.ErrNodeNotFound))
	}
	if node.Kind != graph.KindFamily {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, fmt.Errorf("%s is a %s node: %w", id, node.Kind, ErrInvalidUpdate))
	}
	u, err := normalizeMemberUpdate(u)
	if err != nil {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, err)
	}

	if err := s.rows.UpdateFamilyMember(ctx, id, u); err != nil {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, fmt.Errorf("updating family member: %w", err))
	}

	updated, err := s.store.MergeNode(id, graph.NodePatch{Family: &u})
	if err != nil {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, err)
	}

	s.logger.InfoContext(ctx, "family member updated", "id", id)
	s.succeed(ctx, "Family member updated")
	return updated, nil
}

// EditRelationshipType switches a relationship to another loaded type and
// re-attaches the resolved type to the node.
func (s *Synchronizer) EditRelationshipType(ctx context.Context, id, typeID string) (graph.Node, error) {
	const title = "Failed to update relationship"

	node, ok := s.store.Node(id)
	if !ok {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, fmt.Errorf("%s: %w", id, graph.ErrNodeNotFound))
	}
	if node.Kind != graph.KindRelationship {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, fmt.Errorf("%s is a %s node: %w", id, node.Kind, ErrInvalidUpdate))
	}
	relType, ok := s.findType(typeID)
	if !ok {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, fmt.Errorf("%s: %w", typeID, ErrUnknownRelationshipType))
	}

	if err := s.rows.UpdateRelationship(ctx, id, entities.RelationshipUpdate{TypeID: &relType.ID}); err != nil {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, fmt.Errorf("updating relationship: %w", err))
	}

	updated, err := s.store.MergeNode(id, graph.NodePatch{RelationshipType: &relType})
	if err != nil {
		return graph.Node{}, s.fail(ctx, ports.LevelError, title, err)
	}

	s.logger.InfoContext(ctx, "relationship updated", "id", id, "type", relType.Name)
	s.succeed(ctx, "Relationship updated")
	return updated, nil
}

// normalizeMemberUpdate trims and validates a dialog result.
func normalizeMemberUpdate(u entities.FamilyMemberUpdate) (entities.FamilyMemberUpdate, error) {
	if u.IsEmpty() {
		return u, fmt.Errorf("nothing to update: %w", ErrInvalidUpdate)
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return u, fmt.Errorf("name is required: %w", ErrInvalidUpdate)
		}
		u.Name = &name
	}
	if u.BirthDate != nil {
		date := strings.TrimSpace(*u.BirthDate)
		if date != "" {
			if _, err := time.Parse(entities.BirthDateLayout, date); err != nil {
				return u, fmt.Errorf("birth date %q is not YYYY-MM-DD: %w", date, ErrInvalidUpdate)
			}
		}
		u.BirthDate = &date
	}
	if u.Gender != nil && !u.Gender.IsValid() {
		return u, fmt.Errorf("gender %q is not male, female or other: %w", *u.Gender, ErrInvalidUpdate)
	}
	if u.ImageURL != nil {
		url := strings.TrimSpace(*u.ImageURL)
		u.ImageURL = &url
	}
	return u, nil
}
