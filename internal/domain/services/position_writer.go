package services

import (
	"context"
	"errors"
	"sync"
)

// errSuperseded is the cancel cause of a position write replaced by a newer one.
var errSuperseded = errors.New("superseded by a newer position write")

type pendingWrite struct {
	seq    uint64
	cancel context.CancelCauseFunc
}

// positionWriter keeps at most one position write per node in flight.
// Starting a write for a node cancels the previous one for that node.
type positionWriter struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]pendingWrite
}

func newPositionWriter() *positionWriter {
	return &positionWriter{inflight: make(map[string]pendingWrite)}
}

// write runs fn for id and reports whether a newer write superseded it.
func (w *positionWriter) write(ctx context.Context, id string, fn func(context.Context) error) (bool, error) {
	wctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	w.mu.Lock()
	w.seq++
	seq := w.seq
	if prev, ok := w.inflight[id]; ok {
		prev.cancel(errSuperseded)
	}
	w.inflight[id] = pendingWrite{seq: seq, cancel: cancel}
	w.mu.Unlock()

	err := fn(wctx)

	w.mu.Lock()
	if cur, ok := w.inflight[id]; ok && cur.seq == seq {
		delete(w.inflight, id)
	}
	w.mu.Unlock()

	return errors.Is(context.Cause(wctx), errSuperseded), err
}

// pending returns the number of writes in flight.
func (w *positionWriter) pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inflight)
}
