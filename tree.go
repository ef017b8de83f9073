package gitnative

import (
	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// TreeEntry is one row of a tree object.
type TreeEntry = native.TreeEntry

// Tree is a loaded tree object.
type Tree struct {
	*Object
}

// FindTree loads the tree with the given id.
func (r *Repository) FindTree(id Oid) (*Tree, error) {
	obj, err := r.lookupObject(id, ObjectTree)
	if err != nil {
		return nil, err
	}
	return &Tree{Object: obj}, nil
}

// EntryCount returns the number of entries in the tree.
func (t *Tree) EntryCount() (int, error) {
	if err := t.h.use(); err != nil {
		return 0, err
	}
	n, st := t.repo.eng.TreeEntryCount(t.h.mustRaw())
	if st != native.OK {
		return 0, translate(t.repo.eng, st)
	}
	return n, nil
}

// EntryByIndex returns the i-th entry.
func (t *Tree) EntryByIndex(i int) (TreeEntry, error) {
	if err := t.h.use(); err != nil {
		return TreeEntry{}, err
	}
	entry, st := t.repo.eng.TreeEntryByIndex(t.h.mustRaw(), i)
	if st != native.OK {
		return TreeEntry{}, translate(t.repo.eng, st)
	}
	return entry, nil
}

// EntryByName returns the entry with the given name, CodeNotFound when
// absent.
func (t *Tree) EntryByName(name string) (TreeEntry, error) {
	if err := t.h.use(); err != nil {
		return TreeEntry{}, err
	}
	entry, st := t.repo.eng.TreeEntryByName(t.h.mustRaw(), name)
	if st != native.OK {
		return TreeEntry{}, translate(t.repo.eng, st)
	}
	return entry, nil
}

// Entries returns an iterator over the tree's entries. The iterator borrows
// the tree and fails with CodeHandleReleased once the tree or its repository
// is closed.
func (t *Tree) Entries() *TreeIter {
	return &TreeIter{tree: t}
}

// TreeIter yields tree entries in storage order.
type TreeIter struct {
	tree *Tree
	next int
}

// Next returns the next entry, or ErrIterOver when the tree is exhausted.
func (it *TreeIter) Next() (TreeEntry, error) {
	if err := it.tree.h.use(); err != nil {
		return TreeEntry{}, err
	}
	n, st := it.tree.repo.eng.TreeEntryCount(it.tree.h.mustRaw())
	if st != native.OK {
		return TreeEntry{}, translate(it.tree.repo.eng, st)
	}
	if it.next >= n {
		return TreeEntry{}, ErrIterOver
	}
	entry, err := it.tree.EntryByIndex(it.next)
	if err != nil {
		return TreeEntry{}, err
	}
	it.next++
	return entry, nil
}
