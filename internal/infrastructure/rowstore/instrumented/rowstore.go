// Package instrumented wraps a RowStore with Prometheus metrics.
package instrumented

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/ports"
)

// Result label values.
const (
	resultOK    = "ok"
	resultError = "error"
)

// Metrics holds the collectors shared by every instrumented store.
type Metrics struct {
	Calls    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the row store collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "famtree",
			Subsystem: "rowstore",
			Name:      "calls_total",
			Help:      "Row store calls by operation and result.",
		}, []string{"operation", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "famtree",
			Subsystem: "rowstore",
			Name:      "call_duration_seconds",
			Help:      "Row store call latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(m.Calls, m.Duration)
	return m
}

// RowStore records a call count and latency for every operation of the wrapped store.
type RowStore struct {
	next    ports.RowStore
	metrics *Metrics
}

// Wrap returns next instrumented with metrics.
func Wrap(next ports.RowStore, metrics *Metrics) *RowStore {
	return &RowStore{next: next, metrics: metrics}
}

func (s *RowStore) observe(op string, start time.Time, err error) {
	result := resultOK
	if err != nil {
		result = resultError
	}
	s.metrics.Calls.WithLabelValues(op, result).Inc()
	s.metrics.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ListRelationshipTypes implements ports.RowStore.
func (s *RowStore) ListRelationshipTypes(ctx context.Context) (_ []entities.RelationshipType, err error) {
	defer func(start time.Time) { s.observe("list_relationship_types", start, err) }(time.Now())
	return s.next.ListRelationshipTypes(ctx)
}

// ListFamilyMembers implements ports.RowStore.
func (s *RowStore) ListFamilyMembers(ctx context.Context) (_ []entities.FamilyMember, err error) {
	defer func(start time.Time) { s.observe("list_family_members", start, err) }(time.Now())
	return s.next.ListFamilyMembers(ctx)
}

// ListRelationships implements ports.RowStore.
func (s *RowStore) ListRelationships(ctx context.Context) (_ []entities.RelationshipWithType, err error) {
	defer func(start time.Time) { s.observe("list_relationships", start, err) }(time.Now())
	return s.next.ListRelationships(ctx)
}

// ListMemberships implements ports.RowStore.
func (s *RowStore) ListMemberships(ctx context.Context) (_ []entities.FamilyRelationshipMember, err error) {
	defer func(start time.Time) { s.observe("list_memberships", start, err) }(time.Now())
	return s.next.ListMemberships(ctx)
}

// InsertFamilyMember implements ports.RowStore.
func (s *RowStore) InsertFamilyMember(ctx context.Context, m entities.NewFamilyMember) (_ *entities.FamilyMember, err error) {
	defer func(start time.Time) { s.observe("insert_family_member", start, err) }(time.Now())
	return s.next.InsertFamilyMember(ctx, m)
}

// UpdateFamilyMember implements ports.RowStore.
func (s *RowStore) UpdateFamilyMember(ctx context.Context, id string, u entities.FamilyMemberUpdate) (err error) {
	defer func(start time.Time) { s.observe("update_family_member", start, err) }(time.Now())
	return s.next.UpdateFamilyMember(ctx, id, u)
}

// InsertRelationship implements ports.RowStore.
func (s *RowStore) InsertRelationship(ctx context.Context, r entities.NewRelationship) (_ *entities.Relationship, err error) {
	defer func(start time.Time) { s.observe("insert_relationship", start, err) }(time.Now())
	return s.next.InsertRelationship(ctx, r)
}

// UpdateRelationship implements ports.RowStore.
func (s *RowStore) UpdateRelationship(ctx context.Context, id string, u entities.RelationshipUpdate) (err error) {
	defer func(start time.Time) { s.observe("update_relationship", start, err) }(time.Now())
	return s.next.UpdateRelationship(ctx, id, u)
}

// InsertMembership implements ports.RowStore.
func (s *RowStore) InsertMembership(ctx context.Context, m entities.NewMembership) (_ *entities.FamilyRelationshipMember, err error) {
	defer func(start time.Time) { s.observe("insert_membership", start, err) }(time.Now())
	return s.next.InsertMembership(ctx, m)
}

var _ ports.RowStore = (*RowStore)(nil)
