package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/graph"
	"github.com/ersonp/famtree-core/internal/domain/ports"
)

// HandleNodeChanges applies canvas deltas and persists the resting position of
// every node whose drag ended in this batch. Position failures are warnings:
// the local position is kept.
func (s *Synchronizer) HandleNodeChanges(ctx context.Context, changes []graph.NodeChange) error {
	return s.PersistPositions(ctx, s.ApplyNodeChanges(ctx, changes))
}

// ApplyNodeChanges merges deltas into the graph store and returns the nodes whose
// drag ended, as they stood at that moment. Drags are tracked by the synchronizer,
// so a hydration in the middle of a drag does not lose the release.
// Intermediate drag frames only touch the store.
func (s *Synchronizer) ApplyNodeChanges(ctx context.Context, changes []graph.NodeChange) []graph.Node {
	var released []graph.Node
	for _, c := range changes {
		switch c.Type {
		case graph.ChangePosition:
			prev, ok := s.store.Node(c.ID)
			if !ok {
				s.logger.WarnContext(ctx, "position change for unknown node", "id", c.ID)
				continue
			}
			node, err := s.store.MergeNode(c.ID, graph.NodePatch{Position: c.Position, Dragging: c.Dragging})
			if err != nil {
				s.logger.WarnContext(ctx, "applying position change", "id", c.ID, "error", err)
				continue
			}
			if c.Dragging != nil {
				ended := s.trackDrag(c.ID, *c.Dragging)
				if !*c.Dragging && (ended || prev.Dragging) {
					released = append(released, node)
				}
			}
		case graph.ChangeSelect:
			if _, err := s.store.MergeNode(c.ID, graph.NodePatch{Selected: c.Selected}); err != nil {
				s.logger.WarnContext(ctx, "applying select change", "id", c.ID, "error", err)
			}
		case graph.ChangeRemove:
			// Deletion is not exposed; the node stays.
			s.logger.DebugContext(ctx, "ignoring node removal", "id", c.ID)
		default:
			// dimensions and anything else carry no persisted state.
		}
	}
	return released
}

// trackDrag records whether id is being dragged and reports whether a drag
// in progress just ended.
func (s *Synchronizer) trackDrag(id string, dragging bool) bool {
	s.dragMu.Lock()
	defer s.dragMu.Unlock()

	_, active := s.drags[id]
	if dragging {
		s.drags[id] = struct{}{}
		return false
	}
	delete(s.drags, id)
	return active
}

// carryDrag keeps the local state of a node that is mid-drag when the store is
// replaced, so the canvas does not snap it back to its stored position.
func (s *Synchronizer) carryDrag(n *graph.Node) {
	s.dragMu.Lock()
	_, active := s.drags[n.ID]
	s.dragMu.Unlock()
	if !active {
		return
	}
	cur, ok := s.store.Node(n.ID)
	if !ok || cur.Kind != n.Kind {
		return
	}
	n.Dragging = true
	n.Position = cur.Position
	switch {
	case n.Family != nil:
		n.Family.Position = cur.Position
	case n.Relationship != nil:
		n.Relationship.Relationship.Position = cur.Position
	}
}

// HandleEdgeChanges applies selection deltas. Edge removal is not exposed.
func (s *Synchronizer) HandleEdgeChanges(ctx context.Context, changes []graph.EdgeChange) {
	for _, c := range changes {
		if c.Type != graph.ChangeSelect {
			s.logger.DebugContext(ctx, "ignoring edge change", "id", c.ID, "type", c.Type)
			continue
		}
		if _, err := s.store.MergeEdge(c.ID, graph.EdgePatch{Selected: c.Selected}); err != nil {
			s.logger.WarnContext(ctx, "applying edge select change", "id", c.ID, "error", err)
		}
	}
}

// PersistPositions writes the position of each node to its row.
// Each failure is reported as its own warning; the returned error joins them.
func (s *Synchronizer) PersistPositions(ctx context.Context, nodes []graph.Node) error {
	var errs []error
	for i := range nodes {
		if err := s.persistPosition(ctx, nodes[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Synchronizer) persistPosition(ctx context.Context, node graph.Node) error {
	pos := node.Position
	superseded, err := s.positions.write(ctx, node.ID, func(ctx context.Context) error {
		switch node.Kind {
		case graph.KindFamily:
			return s.rows.UpdateFamilyMember(ctx, node.ID, entities.FamilyMemberUpdate{Position: &pos})
		case graph.KindRelationship:
			return s.rows.UpdateRelationship(ctx, node.ID, entities.RelationshipUpdate{Position: &pos})
		default:
			return fmt.Errorf("unknown node kind %q", node.Kind)
		}
	})
	if superseded {
		s.logger.DebugContext(ctx, "position write superseded", "id", node.ID, "error", err)
		return nil
	}
	if err != nil {
		label := node.ID
		if node.Family != nil {
			label = node.Family.Name
		}
		return s.fail(ctx, ports.LevelWarning, "Failed to save position of "+label,
			fmt.Errorf("updating position of %s: %w", node.ID, err))
	}

	s.logger.DebugContext(ctx, "position saved", "id", node.ID, "x", pos.X, "y", pos.Y)
	return nil
}
