package services

import (
	"context"
	"fmt"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/graph"
	"github.com/ersonp/famtree-core/internal/domain/ports"
)

// titleLoadFailed is the single notification emitted when hydration fails.
const titleLoadFailed = "Failed to load family tree"

// Hydrate loads every collection and publishes the resulting graph.
// Nothing is published unless all four fetches succeed and the rows are consistent.
func (s *Synchronizer) Hydrate(ctx context.Context) error {
	nodes, edges, types, err := s.load(ctx)
	if err != nil {
		return s.fail(ctx, ports.LevelError, titleLoadFailed, err)
	}

	for i := range nodes {
		s.carryDrag(&nodes[i])
	}

	// Types are swapped first so observers of the new graph see them.
	prev := s.RelationshipTypes()
	s.setTypes(types)
	if err := s.store.ReplaceAll(nodes, edges); err != nil {
		s.setTypes(prev)
		return s.fail(ctx, ports.LevelError, titleLoadFailed, fmt.Errorf("publishing graph: %w", err))
	}

	s.logger.InfoContext(ctx, "family tree loaded",
		"types", len(types),
		"nodes", len(nodes),
		"edges", len(edges),
	)
	return nil
}

func (s *Synchronizer) load(ctx context.Context) ([]graph.Node, []graph.Edge, []entities.RelationshipType, error) {
	types, err := s.rows.ListRelationshipTypes(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetching relationship types: %w", err)
	}
	members, err := s.rows.ListFamilyMembers(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetching family members: %w", err)
	}
	relationships, err := s.rows.ListRelationships(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetching relationships: %w", err)
	}
	memberships, err := s.rows.ListMemberships(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetching relationship members: %w", err)
	}

	nodes := make([]graph.Node, 0, len(members)+len(relationships))
	kinds := make(map[string]graph.NodeKind, cap(nodes))

	for i := range members {
		nodes = append(nodes, familyNode(members[i]))
		kinds[members[i].ID] = graph.KindFamily
	}
	for i := range relationships {
		r := relationships[i]
		if r.Type == nil {
			return nil, nil, nil, fmt.Errorf("relationship %s references type %s: %w", r.ID, r.TypeID, ErrIntegrity)
		}
		nodes = append(nodes, relationshipNode(r.Relationship, *r.Type))
		kinds[r.ID] = graph.KindRelationship
	}

	edges := make([]graph.Edge, 0, len(memberships))
	for i := range memberships {
		e, err := membershipEdge(memberships[i], kinds)
		if err != nil {
			return nil, nil, nil, err
		}
		edges = append(edges, e)
	}

	return nodes, edges, types, nil
}

// membershipEdge turns a membership row into an edge. Parents point into the
// relationship node; children hang off it.
func membershipEdge(m entities.FamilyRelationshipMember, kinds map[string]graph.NodeKind) (graph.Edge, error) {
	if kinds[m.FamilyMemberID] != graph.KindFamily {
		return graph.Edge{}, fmt.Errorf("membership %s references family member %s: %w", m.ID, m.FamilyMemberID, ErrIntegrity)
	}
	if kinds[m.RelationshipID] != graph.KindRelationship {
		return graph.Edge{}, fmt.Errorf("membership %s references relationship %s: %w", m.ID, m.RelationshipID, ErrIntegrity)
	}

	switch m.Role {
	case entities.RoleParent:
		return graph.Edge{ID: m.ID, Source: m.FamilyMemberID, Target: m.RelationshipID, Role: m.Role}, nil
	case entities.RoleChild:
		return graph.Edge{ID: m.ID, Source: m.RelationshipID, Target: m.FamilyMemberID, Role: m.Role}, nil
	default:
		return graph.Edge{}, fmt.Errorf("membership %s has role %q: %w", m.ID, m.Role, ErrIntegrity)
	}
}
