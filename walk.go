package gitnative

import (
	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// RevWalk iterates commit history newest-first from the pushed starting
// points, excluding hidden commits and their ancestry. It owns an engine
// handle and is invalidated by its own Close or the repository's.
type RevWalk struct {
	repo *Repository
	h    *handle
}

// Walk creates a new, empty revision walk.
func (r *Repository) Walk() (*RevWalk, error) {
	if err := r.h.use(); err != nil {
		return nil, err
	}
	raw, st := r.eng.RevwalkNew(r.h.mustRaw())
	if st != native.OK {
		return nil, translate(r.eng, st)
	}
	return &RevWalk{
		repo: r,
		h:    newHandle(r.eng, raw, "revwalk", r.eng.RevwalkFree, r.h),
	}, nil
}

// Close releases the walk handle. Idempotent.
func (w *RevWalk) Close() error { return w.h.close() }

// Push adds a starting commit to the walk, CodeNotFound when the id does not
// name a commit.
func (w *RevWalk) Push(id Oid) error {
	if err := w.h.use(); err != nil {
		return err
	}
	st := w.repo.eng.RevwalkPush(w.h.mustRaw(), id)
	if st != native.OK {
		return WrapErrorf(translate(w.repo.eng, st), "push %s", id)
	}
	return nil
}

// PushHead starts the walk at the commit HEAD resolves to.
func (w *RevWalk) PushHead() error {
	head, err := w.repo.Head()
	if err != nil {
		return WrapError(err, "push head")
	}
	return w.Push(head.Target())
}

// Hide excludes a commit and its ancestry from the walk.
func (w *RevWalk) Hide(id Oid) error {
	if err := w.h.use(); err != nil {
		return err
	}
	st := w.repo.eng.RevwalkHide(w.h.mustRaw(), id)
	if st != native.OK {
		return WrapErrorf(translate(w.repo.eng, st), "hide %s", id)
	}
	return nil
}

// Reset returns the walk to its initial empty state so it can be reused with
// new Push calls.
func (w *RevWalk) Reset() error {
	if err := w.h.use(); err != nil {
		return err
	}
	st := w.repo.eng.RevwalkReset(w.h.mustRaw())
	if st != native.OK {
		return translate(w.repo.eng, st)
	}
	return nil
}

// Next returns the next commit id, or ErrIterOver when the walk is
// exhausted.
func (w *RevWalk) Next() (Oid, error) {
	if err := w.h.use(); err != nil {
		return Oid{}, err
	}
	id, st := w.repo.eng.RevwalkNext(w.h.mustRaw())
	if st != native.OK {
		return Oid{}, translate(w.repo.eng, st)
	}
	return id, nil
}
