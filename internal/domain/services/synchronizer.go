// Package services contains the synchronizer between the canvas graph and the row store.
package services

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/graph"
	"github.com/ersonp/famtree-core/internal/domain/ports"
)

// DefaultSpread is the side of the square new nodes are placed in.
const DefaultSpread = 500

var (
	// ErrSameKind is returned when a connection joins two nodes of the same kind.
	ErrSameKind = errors.New("nodes of the same kind cannot be connected")
	// ErrNoRelationshipTypes is returned when a relationship is created with no types loaded.
	ErrNoRelationshipTypes = errors.New("no relationship types available")
	// ErrUnknownRelationshipType is returned when an edit names a type that is not loaded.
	ErrUnknownRelationshipType = errors.New("unknown relationship type")
	// ErrIntegrity is returned when stored rows reference missing rows or hold invalid values.
	ErrIntegrity = errors.New("data integrity error")
	// ErrInvalidUpdate is returned when an edit dialog result fails validation.
	ErrInvalidUpdate = errors.New("invalid update")
)

// Options configures a Synchronizer. Zero values select the defaults.
type Options struct {
	// Spread is the side of the square random positions are drawn from.
	Spread float64
	// Random returns a float in [0,1). Defaults to math/rand/v2.
	Random func() float64
	Logger *slog.Logger
}

// Synchronizer keeps the graph store and the row store in step.
// Creations, connections and edits touch the graph only after the row store
// confirms them. Position writes are fire-and-forget: local state wins.
type Synchronizer struct {
	rows     ports.RowStore
	store    *graph.Store
	notifier ports.Notifier
	dialogs  ports.DialogOpener
	logger   *slog.Logger
	spread   float64
	random   func() float64

	typesMu sync.RWMutex
	types   []entities.RelationshipType

	positions *positionWriter

	// dragMu guards drags, the ids of nodes between drag start and release.
	// It outlives hydration, which replaces every node in the store.
	dragMu sync.Mutex
	drags  map[string]struct{}
}

// NewSynchronizer creates a new Synchronizer.
func NewSynchronizer(
	rows ports.RowStore,
	store *graph.Store,
	notifier ports.Notifier,
	dialogs ports.DialogOpener,
	opts Options,
) *Synchronizer {
	if opts.Spread <= 0 {
		opts.Spread = DefaultSpread
	}
	if opts.Random == nil {
		opts.Random = rand.Float64
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Synchronizer{
		rows:      rows,
		store:     store,
		notifier:  notifier,
		dialogs:   dialogs,
		logger:    opts.Logger,
		spread:    opts.Spread,
		random:    opts.Random,
		positions: newPositionWriter(),
		drags:     make(map[string]struct{}),
	}
}

// Store returns the graph store the synchronizer publishes into.
func (s *Synchronizer) Store() *graph.Store {
	return s.store
}

// RelationshipTypes returns the relationship types loaded by the last hydration.
func (s *Synchronizer) RelationshipTypes() []entities.RelationshipType {
	s.typesMu.RLock()
	defer s.typesMu.RUnlock()
	return append([]entities.RelationshipType(nil), s.types...)
}

func (s *Synchronizer) setTypes(types []entities.RelationshipType) {
	s.typesMu.Lock()
	s.types = append([]entities.RelationshipType(nil), types...)
	s.typesMu.Unlock()
}

func (s *Synchronizer) findType(id string) (entities.RelationshipType, bool) {
	s.typesMu.RLock()
	defer s.typesMu.RUnlock()
	for _, t := range s.types {
		if t.ID == id {
			return t, true
		}
	}
	return entities.RelationshipType{}, false
}

func (s *Synchronizer) randomPosition() entities.Position {
	return entities.Position{
		X: s.random() * s.spread,
		Y: s.random() * s.spread,
	}
}

// fail reports err to the user and the log, then returns it.
func (s *Synchronizer) fail(ctx context.Context, level ports.Level, title string, err error) error {
	if level == ports.LevelWarning {
		s.logger.WarnContext(ctx, title, "error", err)
	} else {
		s.logger.ErrorContext(ctx, title, "error", err)
	}
	s.notifier.Notify(ctx, ports.Notification{
		Level:   level,
		Title:   title,
		Message: err.Error(),
	})
	return err
}

func (s *Synchronizer) succeed(ctx context.Context, title string) {
	s.notifier.Notify(ctx, ports.Notification{Level: ports.LevelSuccess, Title: title})
}

func familyNode(m entities.FamilyMember) graph.Node {
	if !m.Gender.IsValid() {
		m.Gender = entities.GenderOther
	}
	return graph.Node{
		ID:       m.ID,
		Kind:     graph.KindFamily,
		Position: m.Position,
		Family:   &m,
	}
}

func relationshipNode(r entities.Relationship, t entities.RelationshipType) graph.Node {
	return graph.Node{
		ID:       r.ID,
		Kind:     graph.KindRelationship,
		Position: r.Position,
		Relationship: &graph.RelationshipData{
			Relationship: r,
			Type:         t,
		},
	}
}
