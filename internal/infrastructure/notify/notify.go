// Package notify provides Notifier and DialogOpener implementations for
// surfaces that have no canvas attached.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ersonp/famtree-core/internal/domain/ports"
)

// Console prints notifications as single lines, the way the CLI reports results.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole returns a Notifier printing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Notify prints n.
func (c *Console) Notify(_ context.Context, n ports.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	symbol := "✓"
	switch n.Level {
	case ports.LevelWarning:
		symbol = "!"
	case ports.LevelError:
		symbol = "✗"
	}
	if n.Message == "" {
		fmt.Fprintf(c.w, "%s %s\n", symbol, n.Title)
		return
	}
	fmt.Fprintf(c.w, "%s %s: %s\n", symbol, n.Title, n.Message)
}

// HintDialogs stands in for edit dialogs on the command line by printing
// the command that edits the new node.
type HintDialogs struct {
	w io.Writer
}

// NewHintDialogs returns a DialogOpener printing to w.
func NewHintDialogs(w io.Writer) *HintDialogs {
	return &HintDialogs{w: w}
}

// OpenFamilyMemberDialog prints the member edit hint.
func (d *HintDialogs) OpenFamilyMemberDialog(_ context.Context, id string) {
	fmt.Fprintf(d.w, "  Edit with: famtree member edit %s --name <name>\n", id)
}

// OpenRelationshipDialog prints the relationship edit hint.
func (d *HintDialogs) OpenRelationshipDialog(_ context.Context, id string) {
	fmt.Fprintf(d.w, "  Edit with: famtree relationship set-type %s <type-id>\n", id)
}

var (
	_ ports.Notifier     = (*Console)(nil)
	_ ports.DialogOpener = (*HintDialogs)(nil)
)
