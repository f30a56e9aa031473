package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/famtree-core/internal/domain/ports"
)

// Notifier records every notification it receives.
type Notifier struct {
	mu            sync.Mutex
	notifications []ports.Notification
}

// Notify records n.
func (m *Notifier) Notify(_ context.Context, n ports.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
}

// All returns a copy of the recorded notifications.
func (m *Notifier) All() []ports.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.Notification(nil), m.notifications...)
}

// ByLevel returns the recorded notifications of the given level.
func (m *Notifier) ByLevel(level ports.Level) []ports.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []ports.Notification
	for _, n := range m.notifications {
		if n.Level == level {
			result = append(result, n)
		}
	}
	return result
}

// DialogOpener records which dialogs were opened.
type DialogOpener struct {
	mu                  sync.Mutex
	MemberDialogs       []string
	RelationshipDialogs []string
}

// OpenFamilyMemberDialog records the id.
func (m *DialogOpener) OpenFamilyMemberDialog(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MemberDialogs = append(m.MemberDialogs, id)
}

// OpenRelationshipDialog records the id.
func (m *DialogOpener) OpenRelationshipDialog(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RelationshipDialogs = append(m.RelationshipDialogs, id)
}
