package service

import (
	"sync"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/types"
)

// diagnosticsRing keeps the most recent dropped-event diagnostics.
type diagnosticsRing struct {
	mu   sync.Mutex
	buf  []types.Diagnostic
	next int
	full bool
}

func newDiagnosticsRing(size int) *diagnosticsRing {
	return &diagnosticsRing{buf: make([]types.Diagnostic, size)}
}

func (r *diagnosticsRing) add(d types.Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = d
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// snapshot returns the retained diagnostics, oldest first.
func (r *diagnosticsRing) snapshot() []types.Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]types.Diagnostic(nil), r.buf[:r.next]...)
	}
	out := make([]types.Diagnostic, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}

func (r *diagnosticsRing) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.buf)
	}
	return r.next
}
