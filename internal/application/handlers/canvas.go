package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/graph"
	"github.com/ersonp/famtree-core/internal/infrastructure/canvas"
)

// NodesChangeData is the payload of a nodes_change message.
type NodesChangeData struct {
	Changes []graph.NodeChange `json:"changes"`
}

// EdgesChangeData is the payload of an edges_change message.
type EdgesChangeData struct {
	Changes []graph.EdgeChange `json:"changes"`
}

// EditMemberData is the payload of an edit_member message.
type EditMemberData struct {
	ID     string                      `json:"id"`
	Update entities.FamilyMemberUpdate `json:"update"`
}

// EditRelationshipData is the payload of an edit_relationship message.
type EditRelationshipData struct {
	ID     string `json:"id"`
	TypeID string `json:"type_id"`
}

// GraphPublisher receives a graph message after every change.
type GraphPublisher interface {
	PublishGraph(msg canvas.Message)
}

// CanvasHandler routes canvas messages to the tree.
// Store-only changes are applied inline, in arrival order; anything that
// waits on the row store runs in the background and reports through the
// notifier.
type CanvasHandler struct {
	tree   *TreeHandler
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewCanvasHandler creates a new CanvasHandler.
func NewCanvasHandler(tree *TreeHandler, logger *slog.Logger) *CanvasHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CanvasHandler{tree: tree, logger: logger}
}

// Attach publishes the current graph to pub and again after every store change.
// The returned function stops publishing.
func (h *CanvasHandler) Attach(pub GraphPublisher) func() {
	publish := func(snap graph.Snapshot) {
		msg, err := canvas.NewMessage(canvas.MessageTypeGraph, h.tree.viewOf(snap))
		if err != nil {
			h.logger.Error("marshaling graph", "error", err)
			return
		}
		pub.PublishGraph(msg)
	}

	return h.tree.synchronizer.Store().Watch(publish)
}

// Dispatch implements canvas.Dispatcher.
func (h *CanvasHandler) Dispatch(ctx context.Context, msg canvas.Message) {
	switch msg.Type {
	case canvas.MessageTypeNodesChange:
		var data NodesChangeData
		if !h.decode(msg, &data) {
			return
		}
		released := h.tree.synchronizer.ApplyNodeChanges(ctx, data.Changes)
		if len(released) > 0 {
			h.background(ctx, msg.Type, func(ctx context.Context) error {
				return h.tree.synchronizer.PersistPositions(ctx, released)
			})
		}

	case canvas.MessageTypeEdgesChange:
		var data EdgesChangeData
		if !h.decode(msg, &data) {
			return
		}
		h.tree.synchronizer.HandleEdgeChanges(ctx, data.Changes)

	case canvas.MessageTypeConnect:
		var data graph.Connection
		if !h.decode(msg, &data) {
			return
		}
		h.background(ctx, msg.Type, func(ctx context.Context) error {
			_, err := h.tree.HandleConnect(ctx, data.Source, data.Target)
			return err
		})

	case canvas.MessageTypeAddMember:
		h.background(ctx, msg.Type, func(ctx context.Context) error {
			_, err := h.tree.HandleAddMember(ctx)
			return err
		})

	case canvas.MessageTypeAddRelationship:
		h.background(ctx, msg.Type, func(ctx context.Context) error {
			_, err := h.tree.HandleAddRelationship(ctx)
			return err
		})

	case canvas.MessageTypeEditMember:
		var data EditMemberData
		if !h.decode(msg, &data) {
			return
		}
		h.background(ctx, msg.Type, func(ctx context.Context) error {
			_, err := h.tree.HandleEditMember(ctx, data.ID, data.Update)
			return err
		})

	case canvas.MessageTypeEditRelationship:
		var data EditRelationshipData
		if !h.decode(msg, &data) {
			return
		}
		h.background(ctx, msg.Type, func(ctx context.Context) error {
			_, err := h.tree.HandleSetRelationshipType(ctx, data.ID, data.TypeID)
			return err
		})

	case canvas.MessageTypeReload:
		h.background(ctx, msg.Type, h.tree.HandleLoad)

	default:
		h.logger.WarnContext(ctx, "unknown canvas message", "type", msg.Type)
	}
}

// Wait blocks until every background operation has finished.
func (h *CanvasHandler) Wait() {
	h.wg.Wait()
}

func (h *CanvasHandler) decode(msg canvas.Message, v any) bool {
	if len(msg.Data) == 0 {
		h.logger.Warn("canvas message without data", "type", msg.Type)
		return false
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		h.logger.Warn("decoding canvas message", "type", msg.Type, "error", err)
		return false
	}
	return true
}

// background runs fn off the read loop. Failures have already been
// notified by the synchronizer and are only logged here.
func (h *CanvasHandler) background(ctx context.Context, t canvas.MessageType, fn func(context.Context) error) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := fn(ctx); err != nil {
			h.logger.DebugContext(ctx, "canvas operation failed", "type", t, "error", err)
		}
	}()
}

var _ canvas.Dispatcher = (*CanvasHandler)(nil)
