package services

import (
	"context"
	"fmt"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/graph"
	"github.com/ersonp/famtree-core/internal/domain/ports"
)

// Connect persists a membership link for a connect gesture and appends its edge.
// The family endpoint is a parent when the gesture starts at it, a child otherwise.
func (s *Synchronizer) Connect(ctx context.Context, conn graph.Connection) (graph.Edge, error) {
	const title = "Failed to connect"

	source, ok := s.store.Node(conn.Source)
	if !ok {
		return graph.Edge{}, s.fail(ctx, ports.LevelError, title, fmt.Errorf("source %s: %w", conn.Source, graph.ErrNodeNotFound))
	}
	target, ok := s.store.Node(conn.Target)
	if !ok {
		return graph.Edge{}, s.fail(ctx, ports.LevelError, title, fmt.Errorf("target %s: %w", conn.Target, graph.ErrNodeNotFound))
	}
	if source.Kind == target.Kind {
		return graph.Edge{}, s.fail(ctx, ports.LevelError, "Invalid connection", ErrSameKind)
	}

	membership := entities.NewMembership{Role: entities.RoleChild}
	if source.Kind == graph.KindFamily {
		membership.Role = entities.RoleParent
		membership.FamilyMemberID = source.ID
		membership.RelationshipID = target.ID
	} else {
		membership.FamilyMemberID = target.ID
		membership.RelationshipID = source.ID
	}

	row, err := s.rows.InsertMembership(ctx, membership)
	if err != nil {
		return graph.Edge{}, s.fail(ctx, ports.LevelError, title, fmt.Errorf("inserting relationship member: %w", err))
	}

	edge := graph.Edge{
		ID:     row.ID,
		Source: conn.Source,
		Target: conn.Target,
		Role:   row.Role,
	}
	if err := s.store.AppendEdge(edge); err != nil {
		return graph.Edge{}, s.fail(ctx, ports.LevelError, title, err)
	}

	s.logger.InfoContext(ctx, "connection created",
		"id", row.ID,
		"family_member", membership.FamilyMemberID,
		"relationship", membership.RelationshipID,
		"role", row.Role,
	)
	s.succeed(ctx, "Connection added")
	return edge, nil
}
