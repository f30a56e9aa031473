package graph

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateID is returned when a node or edge id is already present.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrNodeNotFound is returned when a node id is not in the store.
	ErrNodeNotFound = errors.New("node not found")
	// ErrEdgeNotFound is returned when an edge id is not in the store.
	ErrEdgeNotFound = errors.New("edge not found")
	// ErrKindMismatch is returned when a patch does not fit the node kind.
	ErrKindMismatch = errors.New("patch does not match node kind")
)

// Store holds the ordered node and edge collections. It is safe for concurrent use.
// Every change bumps the version. Observers are called synchronously after each
// change, one delivery at a time, with strictly increasing versions; a snapshot
// older than one already delivered is dropped. Observers must not mutate the store.
type Store struct {
	mu        sync.RWMutex
	nodes     []Node
	nodeIndex map[string]int
	edges     []Edge
	edgeIndex map[string]int
	version   uint64

	// deliverMu orders deliveries; delivered is the last version sent to observers.
	deliverMu sync.Mutex
	delivered uint64

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObsID int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		nodeIndex: make(map[string]int),
		edgeIndex: make(map[string]int),
		observers: make(map[int]Observer),
	}
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return s.unsubscribe(id)
}

// Watch registers an observer and calls it with the current snapshot first.
// No later delivery can reach fn before that snapshot.
func (s *Store) Watch(fn Observer) func() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	unsubscribe := s.Subscribe(fn)
	fn(s.Snapshot())
	return unsubscribe
}

func (s *Store) unsubscribe(id int) func() {
	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// ReplaceAll swaps the whole contents. The input must not contain duplicate ids
// and every edge must reference nodes in the input.
func (s *Store) ReplaceAll(nodes []Node, edges []Edge) error {
	nodeIndex := make(map[string]int, len(nodes))
	newNodes := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if _, ok := nodeIndex[n.ID]; ok {
			return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateID)
		}
		nodeIndex[n.ID] = len(newNodes)
		newNodes = append(newNodes, n.Clone())
	}

	edgeIndex := make(map[string]int, len(edges))
	newEdges := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if _, ok := edgeIndex[e.ID]; ok {
			return fmt.Errorf("edge %s: %w", e.ID, ErrDuplicateID)
		}
		if err := checkEndpoints(nodeIndex, e); err != nil {
			return err
		}
		edgeIndex[e.ID] = len(newEdges)
		newEdges = append(newEdges, e)
	}

	s.mu.Lock()
	s.nodes, s.nodeIndex = newNodes, nodeIndex
	s.edges, s.edgeIndex = newEdges, edgeIndex
	s.version++
	s.mu.Unlock()

	s.publish()
	return nil
}

// AppendNode adds a node at the end of the node collection.
func (s *Store) AppendNode(n Node) error {
	s.mu.Lock()
	if _, ok := s.nodeIndex[n.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateID)
	}
	s.nodeIndex[n.ID] = len(s.nodes)
	s.nodes = append(s.nodes, n.Clone())
	s.version++
	s.mu.Unlock()

	s.publish()
	return nil
}

// AppendEdge adds an edge at the end of the edge collection. Both endpoints must exist.
func (s *Store) AppendEdge(e Edge) error {
	s.mu.Lock()
	if _, ok := s.edgeIndex[e.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("edge %s: %w", e.ID, ErrDuplicateID)
	}
	if err := checkEndpoints(s.nodeIndex, e); err != nil {
		s.mu.Unlock()
		return err
	}
	s.edgeIndex[e.ID] = len(s.edges)
	s.edges = append(s.edges, e)
	s.version++
	s.mu.Unlock()

	s.publish()
	return nil
}

// MergeNode applies patch to the node with the given id and returns the result.
func (s *Store) MergeNode(id string, patch NodePatch) (Node, error) {
	s.mu.Lock()
	i, ok := s.nodeIndex[id]
	if !ok {
		s.mu.Unlock()
		return Node{}, fmt.Errorf("node %s: %w", id, ErrNodeNotFound)
	}
	n := s.nodes[i].Clone()
	if err := applyNodePatch(&n, patch); err != nil {
		s.mu.Unlock()
		return Node{}, fmt.Errorf("node %s: %w", id, err)
	}
	s.nodes[i] = n
	s.version++
	s.mu.Unlock()

	s.publish()
	return n.Clone(), nil
}

// MergeEdge applies patch to the edge with the given id.
func (s *Store) MergeEdge(id string, patch EdgePatch) (Edge, error) {
	s.mu.Lock()
	i, ok := s.edgeIndex[id]
	if !ok {
		s.mu.Unlock()
		return Edge{}, fmt.Errorf("edge %s: %w", id, ErrEdgeNotFound)
	}
	if patch.Selected != nil {
		s.edges[i].Selected = *patch.Selected
	}
	e := s.edges[i]
	s.version++
	s.mu.Unlock()

	s.publish()
	return e, nil
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.nodeIndex[id]
	if !ok {
		return Node{}, false
	}
	return s.nodes[i].Clone(), true
}

// Edge returns a copy of the edge with the given id.
func (s *Store) Edge(id string) (Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.edgeIndex[id]
	if !ok {
		return Edge{}, false
	}
	return s.edges[i], true
}

// Snapshot returns a copy of the current contents, in insertion order.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Version returns the number of changes applied so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Len returns the number of nodes and edges.
func (s *Store) Len() (nodes, edges int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes), len(s.edges)
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version: s.version,
		Nodes:   make([]Node, len(s.nodes)),
		Edges: make([]Edge, len(s.edges)),
	}
	for i := range s.nodes {
		snap.Nodes[i] = s.nodes[i].Clone()
	}
	copy(snap.Edges, s.edges)
	return snap
}

// publish delivers the newest snapshot. The snapshot is taken after deliverMu is
// held, so a publish that waited behind a slow observer sends the latest state,
// and one whose change was already covered sends nothing.
func (s *Store) publish() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	snap := s.Snapshot()
	if snap.Version <= s.delivered {
		return
	}
	s.delivered = snap.Version

	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func checkEndpoints(nodeIndex map[string]int, e Edge) error {
	if _, ok := nodeIndex[e.Source]; !ok {
		return fmt.Errorf("edge %s source %s: %w", e.ID, e.Source, ErrNodeNotFound)
	}
	if _, ok := nodeIndex[e.Target]; !ok {
		return fmt.Errorf("edge %s target %s: %w", e.ID, e.Target, ErrNodeNotFound)
	}
	return nil
}

func applyNodePatch(n *Node, p NodePatch) error {
	if p.Family != nil && n.Kind != KindFamily {
		return ErrKindMismatch
	}
	if p.RelationshipType != nil && n.Kind != KindRelationship {
		return ErrKindMismatch
	}

	if p.Position != nil {
		n.Position = *p.Position
		switch {
		case n.Family != nil:
			n.Family.Position = *p.Position
		case n.Relationship != nil:
			n.Relationship.Relationship.Position = *p.Position
		}
	}
	if p.Dragging != nil {
		n.Dragging = *p.Dragging
	}
	if p.Selected != nil {
		n.Selected = *p.Selected
	}
	if p.Family != nil && n.Family != nil {
		p.Family.Apply(n.Family)
		if p.Family.Position != nil {
			n.Position = *p.Family.Position
		}
	}
	if p.RelationshipType != nil && n.Relationship != nil {
		n.Relationship.Type = *p.RelationshipType
		n.Relationship.Relationship.TypeID = p.RelationshipType.ID
	}
	return nil
}
