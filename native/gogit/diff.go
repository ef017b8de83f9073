package gogit

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// lookupTree loads a tree object, treating the zero Oid as the empty tree so
// diffs against an empty base work without a sentinel object.
func (e *Engine) lookupTree(r *repoHandle, id native.Oid) (*object.Tree, error) {
	if id.IsZero() {
		return &object.Tree{}, nil
	}
	return object.GetTree(r.repo.Storer, hashFromOid(id))
}

func deltaFromChange(change *object.Change) (native.DiffDelta, error) {
	action, err := change.Action()
	if err != nil {
		return native.DiffDelta{}, err
	}
	delta := native.DiffDelta{
		OldFile: native.DiffFile{
			Path: change.From.Name,
			ID:   oidFromHash(change.From.TreeEntry.Hash),
			Mode: uint32(change.From.TreeEntry.Mode),
		},
		NewFile: native.DiffFile{
			Path: change.To.Name,
			ID:   oidFromHash(change.To.TreeEntry.Hash),
			Mode: uint32(change.To.TreeEntry.Mode),
		},
	}
	switch action {
	case merkletrie.Insert:
		delta.Status = native.DeltaAdded
	case merkletrie.Delete:
		delta.Status = native.DeltaDeleted
	case merkletrie.Modify:
		delta.Status = native.DeltaModified
	}
	return delta, nil
}

// DiffTreeToTree implements native.Engine. Deltas are computed eagerly; the
// returned handle is a snapshot independent of the source trees.
func (e *Engine) DiffTreeToTree(repo native.Raw, oldTree, newTree native.Oid) (native.Raw, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return 0, st
	}
	from, err := e.lookupTree(r, oldTree)
	if err != nil {
		return 0, e.failErr(native.ClassObject, err)
	}
	to, err := e.lookupTree(r, newTree)
	if err != nil {
		return 0, e.failErr(native.ClassObject, err)
	}
	changes, err := object.DiffTree(from, to)
	if err != nil {
		return 0, e.failErr(native.ClassObject, err)
	}
	deltas := make([]native.DiffDelta, 0, len(changes))
	for _, change := range changes {
		delta, err := deltaFromChange(change)
		if err != nil {
			return 0, e.failErr(native.ClassObject, err)
		}
		deltas = append(deltas, delta)
	}
	raw := e.put(&diffHandle{deltas: deltas})
	e.ok()
	return raw, native.OK
}

func (e *Engine) diffOf(raw native.Raw) (*diffHandle, native.Status) {
	h, ok := e.get(raw)
	if !ok {
		return nil, e.fail(native.ClassObject, native.ErrInvalidSpec, "invalid diff handle")
	}
	dh, ok := h.(*diffHandle)
	if !ok {
		return nil, e.fail(native.ClassObject, native.ErrInvalidSpec, "handle is not a diff")
	}
	return dh, native.OK
}

// DiffFree implements native.Engine.
func (e *Engine) DiffFree(diff native.Raw) native.Status {
	if !e.drop(diff) {
		return e.fail(native.ClassObject, native.ErrInvalidSpec, "invalid diff handle")
	}
	return e.ok()
}

// DiffNumDeltas implements native.Engine.
func (e *Engine) DiffNumDeltas(diff native.Raw) (int, native.Status) {
	dh, st := e.diffOf(diff)
	if st != native.OK {
		return 0, st
	}
	n := len(dh.deltas)
	e.ok()
	return n, native.OK
}

// DiffDelta implements native.Engine.
func (e *Engine) DiffDelta(diff native.Raw, i int) (native.DiffDelta, native.Status) {
	dh, st := e.diffOf(diff)
	if st != native.OK {
		return native.DiffDelta{}, st
	}
	if i < 0 || i >= len(dh.deltas) {
		return native.DiffDelta{}, e.fail(native.ClassObject, native.ErrNotFound,
			fmt.Sprintf("delta index %d out of range", i))
	}
	e.ok()
	return dh.deltas[i], native.OK
}

// RevwalkNew implements native.Engine.
func (e *Engine) RevwalkNew(repo native.Raw) (native.Raw, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return 0, st
	}
	raw := e.put(&walkHandle{repo: r, seen: make(map[plumbing.Hash]bool)})
	e.ok()
	return raw, native.OK
}

func (e *Engine) walkOf(raw native.Raw) (*walkHandle, native.Status) {
	h, ok := e.get(raw)
	if !ok {
		return nil, e.fail(native.ClassObject, native.ErrInvalidSpec, "invalid revwalk handle")
	}
	wh, ok := h.(*walkHandle)
	if !ok {
		return nil, e.fail(native.ClassObject, native.ErrInvalidSpec, "handle is not a revwalk")
	}
	return wh, native.OK
}

// RevwalkFree implements native.Engine.
func (e *Engine) RevwalkFree(walk native.Raw) native.Status {
	if !e.drop(walk) {
		return e.fail(native.ClassObject, native.ErrInvalidSpec, "invalid revwalk handle")
	}
	return e.ok()
}

// RevwalkPush implements native.Engine.
func (e *Engine) RevwalkPush(walk native.Raw, id native.Oid) native.Status {
	wh, st := e.walkOf(walk)
	if st != native.OK {
		return st
	}
	h := hashFromOid(id)
	if _, err := object.GetCommit(wh.repo.repo.Storer, h); err != nil {
		return e.failErr(native.ClassObject, err)
	}
	wh.pending = append(wh.pending, h)
	return e.ok()
}

// RevwalkHide implements native.Engine. The commit and its ancestry are
// excluded from the walk.
func (e *Engine) RevwalkHide(walk native.Raw, id native.Oid) native.Status {
	wh, st := e.walkOf(walk)
	if st != native.OK {
		return st
	}
	wh.hidden = append(wh.hidden, hashFromOid(id))
	return e.ok()
}

// RevwalkReset implements native.Engine, returning the walk to its initial
// empty state so it can be reused.
func (e *Engine) RevwalkReset(walk native.Raw) native.Status {
	wh, st := e.walkOf(walk)
	if st != native.OK {
		return st
	}
	wh.pending = nil
	wh.hidden = nil
	wh.seen = make(map[plumbing.Hash]bool)
	return e.ok()
}

// markHiddenAncestry walks the ancestry of every hidden commit, marking it
// seen so Next never yields it.
func (wh *walkHandle) markHiddenAncestry() error {
	queue := wh.hidden
	wh.hidden = nil
	for len(queue) > 0 {
		h := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if wh.seen[h] {
			continue
		}
		wh.seen[h] = true
		commit, err := object.GetCommit(wh.repo.repo.Storer, h)
		if err != nil {
			return err
		}
		queue = append(queue, commit.ParentHashes...)
	}
	return nil
}

// RevwalkNext implements native.Engine. Commits are yielded newest-first by
// committer time; ErrIterOver signals exhaustion without filling the error
// slot.
func (e *Engine) RevwalkNext(walk native.Raw) (native.Oid, native.Status) {
	wh, st := e.walkOf(walk)
	if st != native.OK {
		return native.Oid{}, st
	}
	if err := wh.markHiddenAncestry(); err != nil {
		return native.Oid{}, e.failErr(native.ClassObject, err)
	}
	// Drop already-yielded and hidden commits from the frontier.
	pending := wh.pending[:0]
	for _, h := range wh.pending {
		if !wh.seen[h] {
			pending = append(pending, h)
		}
	}
	wh.pending = pending
	if len(wh.pending) == 0 {
		return native.Oid{}, e.iterOver()
	}
	best, bestAt := -1, (*object.Commit)(nil)
	for i, h := range wh.pending {
		commit, err := object.GetCommit(wh.repo.repo.Storer, h)
		if err != nil {
			return native.Oid{}, e.failErr(native.ClassObject, err)
		}
		if bestAt == nil || commit.Committer.When.After(bestAt.Committer.When) {
			best, bestAt = i, commit
		}
	}
	h := wh.pending[best]
	wh.pending = append(wh.pending[:best], wh.pending[best+1:]...)
	wh.seen[h] = true
	wh.pending = append(wh.pending, bestAt.ParentHashes...)
	e.ok()
	return oidFromHash(h), native.OK
}
