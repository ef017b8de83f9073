package gitnative

import (
	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// IndexEntry is one staged path. Stage is 0 for a merged entry and 1..3 for
// the ancestor/ours/theirs sides of an unresolved conflict.
type IndexEntry = native.IndexEntry

// Index is the repository's staging area. A repository has one index;
// mutations are serialized by the repository's index lock no matter how many
// Index handles are open, reads go straight through.
type Index struct {
	repo *Repository
	h    *handle
}

// Index opens the repository's staging index. The handle borrows the
// repository and is released by either its own Close or the repository's.
func (r *Repository) Index() (*Index, error) {
	if err := r.h.use(); err != nil {
		return nil, err
	}
	raw, st := r.eng.IndexOpen(r.h.mustRaw())
	if st != native.OK {
		return nil, translate(r.eng, st)
	}
	return &Index{
		repo: r,
		h:    newHandle(r.eng, raw, "index", r.eng.IndexFree, r.h),
	}, nil
}

// Close releases the index handle. Idempotent.
func (i *Index) Close() error { return i.h.close() }

// AddPath stages the worktree file at path: its content is hashed into the
// object database and the entry upserted, like `git add <path>`.
func (i *Index) AddPath(path string) error {
	i.repo.indexMu.Lock()
	defer i.repo.indexMu.Unlock()
	if err := i.h.use(); err != nil {
		return err
	}
	st := i.repo.eng.IndexAddPath(i.h.mustRaw(), path)
	if st != native.OK {
		return WrapErrorf(translate(i.repo.eng, st), "add %q", path)
	}
	return nil
}

// RemovePath drops the entry for path, failing with CodeNotFound when the
// path is not staged.
func (i *Index) RemovePath(path string) error {
	i.repo.indexMu.Lock()
	defer i.repo.indexMu.Unlock()
	if err := i.h.use(); err != nil {
		return err
	}
	st := i.repo.eng.IndexRemovePath(i.h.mustRaw(), path)
	if st != native.OK {
		return WrapErrorf(translate(i.repo.eng, st), "remove %q", path)
	}
	return nil
}

// EntryCount returns the number of staged entries, conflict sides included.
func (i *Index) EntryCount() (int, error) {
	if err := i.h.use(); err != nil {
		return 0, err
	}
	n, st := i.repo.eng.IndexEntryCount(i.h.mustRaw())
	if st != native.OK {
		return 0, translate(i.repo.eng, st)
	}
	return n, nil
}

// EntryByIndex returns the entry at position idx.
func (i *Index) EntryByIndex(idx int) (IndexEntry, error) {
	if err := i.h.use(); err != nil {
		return IndexEntry{}, err
	}
	entry, st := i.repo.eng.IndexEntryByIndex(i.h.mustRaw(), idx)
	if st != native.OK {
		return IndexEntry{}, translate(i.repo.eng, st)
	}
	return entry, nil
}

// Entries returns a snapshot of all staged entries.
func (i *Index) Entries() ([]IndexEntry, error) {
	n, err := i.EntryCount()
	if err != nil {
		return nil, err
	}
	entries := make([]IndexEntry, 0, n)
	for idx := 0; idx < n; idx++ {
		entry, err := i.EntryByIndex(idx)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// HasConflicts reports whether any entry carries a nonzero conflict stage.
func (i *Index) HasConflicts() (bool, error) {
	if err := i.h.use(); err != nil {
		return false, err
	}
	conflicted, st := i.repo.eng.IndexHasConflicts(i.h.mustRaw())
	if st != native.OK {
		return false, translate(i.repo.eng, st)
	}
	return conflicted, nil
}

// Clear removes every entry from the index.
func (i *Index) Clear() error {
	i.repo.indexMu.Lock()
	defer i.repo.indexMu.Unlock()
	if err := i.h.use(); err != nil {
		return err
	}
	st := i.repo.eng.IndexClear(i.h.mustRaw())
	if st != native.OK {
		return translate(i.repo.eng, st)
	}
	return nil
}

// Write persists the index to storage.
func (i *Index) Write() error {
	i.repo.indexMu.Lock()
	defer i.repo.indexMu.Unlock()
	if err := i.h.use(); err != nil {
		return err
	}
	st := i.repo.eng.IndexWrite(i.h.mustRaw())
	if st != native.OK {
		return translate(i.repo.eng, st)
	}
	return nil
}

// WriteTree serializes the index into tree objects and returns the root tree
// id. While any conflict entry remains the call fails with CodeIndexConflict
// and nothing is written.
func (i *Index) WriteTree() (Oid, error) {
	i.repo.indexMu.Lock()
	defer i.repo.indexMu.Unlock()
	if err := i.h.use(); err != nil {
		return Oid{}, err
	}
	id, st := i.repo.eng.IndexWriteTree(i.h.mustRaw())
	if st != native.OK {
		return Oid{}, WrapError(translate(i.repo.eng, st), "write tree")
	}
	return id, nil
}
