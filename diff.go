package gitnative

import (
	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// DeltaStatus describes what happened to a file between two trees.
type DeltaStatus = native.DeltaStatus

// Delta statuses.
const (
	DeltaAdded    = native.DeltaAdded
	DeltaDeleted  = native.DeltaDeleted
	DeltaModified = native.DeltaModified
)

// DiffFile identifies one side of a delta.
type DiffFile = native.DiffFile

// DiffDelta is one file-level change between two trees.
type DiffDelta = native.DiffDelta

// Diff is a computed tree-to-tree comparison. It owns an engine handle and
// is invalidated by its own Close or the repository's.
type Diff struct {
	repo *Repository
	h    *handle
}

// DiffTreeToTree compares two trees. Either may be nil, standing for the
// empty tree, so a diff against a repository's first commit works without a
// sentinel.
func (r *Repository) DiffTreeToTree(oldTree, newTree *Tree) (*Diff, error) {
	if err := r.h.use(); err != nil {
		return nil, err
	}
	var oldID, newID Oid
	if oldTree != nil {
		if err := oldTree.h.use(); err != nil {
			return nil, err
		}
		oldID = oldTree.ID()
	}
	if newTree != nil {
		if err := newTree.h.use(); err != nil {
			return nil, err
		}
		newID = newTree.ID()
	}
	raw, st := r.eng.DiffTreeToTree(r.h.mustRaw(), oldID, newID)
	if st != native.OK {
		return nil, WrapError(translate(r.eng, st), "diff trees")
	}
	return &Diff{
		repo: r,
		h:    newHandle(r.eng, raw, "diff", r.eng.DiffFree, r.h),
	}, nil
}

// Close releases the diff handle. Idempotent.
func (d *Diff) Close() error { return d.h.close() }

// NumDeltas returns the number of file-level changes.
func (d *Diff) NumDeltas() (int, error) {
	if err := d.h.use(); err != nil {
		return 0, err
	}
	n, st := d.repo.eng.DiffNumDeltas(d.h.mustRaw())
	if st != native.OK {
		return 0, translate(d.repo.eng, st)
	}
	return n, nil
}

// Delta returns the i-th change.
func (d *Diff) Delta(i int) (DiffDelta, error) {
	if err := d.h.use(); err != nil {
		return DiffDelta{}, err
	}
	delta, st := d.repo.eng.DiffDelta(d.h.mustRaw(), i)
	if st != native.OK {
		return DiffDelta{}, translate(d.repo.eng, st)
	}
	return delta, nil
}

// Deltas returns an iterator over the diff's changes. The iterator borrows
// the diff and fails with CodeHandleReleased once the diff or its repository
// is closed.
func (d *Diff) Deltas() *DeltaIter {
	return &DeltaIter{diff: d}
}

// DeltaIter yields deltas in diff order.
type DeltaIter struct {
	diff *Diff
	next int
}

// Next returns the next delta, or ErrIterOver when the diff is exhausted.
func (it *DeltaIter) Next() (DiffDelta, error) {
	if err := it.diff.h.use(); err != nil {
		return DiffDelta{}, err
	}
	n, st := it.diff.repo.eng.DiffNumDeltas(it.diff.h.mustRaw())
	if st != native.OK {
		return DiffDelta{}, translate(it.diff.repo.eng, st)
	}
	if it.next >= n {
		return DiffDelta{}, ErrIterOver
	}
	delta, err := it.diff.Delta(it.next)
	if err != nil {
		return DiffDelta{}, err
	}
	it.next++
	return delta, nil
}
