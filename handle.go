package gitnative

import (
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// handle pairs an engine-owned Raw with its release obligation. Every wrapper
// type embeds one. A handle derived from another (an object from its
// repository, an iterator from its owner) records the parent, and validity
// requires the whole chain to be live: closing an owner invalidates
// everything borrowed from it.
//
// Handles are confined to one goroutine at a time, matching the engine's
// error-slot contract; the struct carries no lock of its own.
type handle struct {
	eng      native.Engine
	raw      native.Raw
	free     func(native.Raw) native.Status
	parent   *handle
	children []*handle
	what     string
	closed   bool
}

// newHandle wraps a freshly acquired Raw and registers it with its parent so
// the parent's close releases it too. parent is nil for root handles.
func newHandle(eng native.Engine, raw native.Raw, what string,
	free func(native.Raw) native.Status, parent *handle,
) *handle {
	h := &handle{eng: eng, raw: raw, free: free, parent: parent, what: what}
	if parent != nil {
		parent.children = append(parent.children, h)
	}
	return h
}

// live reports whether this handle and every ancestor is still open.
func (h *handle) live() bool {
	for cur := h; cur != nil; cur = cur.parent {
		if cur.closed {
			return false
		}
	}
	return true
}

// use gates every engine call made through the handle. It fails fast with
// CodeHandleReleased when the handle or any owner has been closed; the raw
// value is never passed to the engine after that point.
func (h *handle) use() error {
	if h.live() {
		return nil
	}
	return &Error{
		Class:   native.ClassInvalid,
		Code:    CodeHandleReleased,
		Message: fmt.Sprintf("%s used after release", h.what),
	}
}

// close releases this handle and, first, everything derived from it, each
// exactly once. Further closes are no-ops returning nil, so defers stacked on
// explicit closes are harmless. The first release failure is reported;
// remaining handles are still released.
func (h *handle) close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	kids := h.children
	h.children = nil
	var firstErr error
	for i := len(kids) - 1; i >= 0; i-- {
		if err := kids[i].close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	h.detach()
	if err := translate(h.eng, h.free(h.raw)); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// detach removes h from its parent's children so that handles closed ahead of
// their owner do not accumulate on it. During a parent-driven cascade the
// parent has already taken its children, so this finds nothing.
func (h *handle) detach() {
	if h.parent == nil {
		return
	}
	kids := h.parent.children
	for i, c := range kids {
		if c == h {
			h.parent.children = append(kids[:i], kids[i+1:]...)
			return
		}
	}
}

// mustRaw returns the raw handle for an engine call. Callers must have
// checked use() first; the panic guards wrapper-internal bugs, not caller
// misuse.
func (h *handle) mustRaw() native.Raw {
	if h.closed {
		panic("gitnative: internal use of closed " + h.what + " handle")
	}
	return h.raw
}
