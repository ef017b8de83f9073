package gogit

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	format "github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// IndexOpen implements native.Engine. The handle refers to the repository's
// single staging index; the engine reads and persists it per call.
func (e *Engine) IndexOpen(repo native.Raw) (native.Raw, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return 0, st
	}
	raw := e.put(&indexHandle{repo: r})
	e.ok()
	return raw, native.OK
}

func (e *Engine) indexOf(raw native.Raw) (*indexHandle, native.Status) {
	h, ok := e.get(raw)
	if !ok {
		return nil, e.fail(native.ClassIndex, native.ErrInvalidSpec, "invalid index handle")
	}
	ih, ok := h.(*indexHandle)
	if !ok {
		return nil, e.fail(native.ClassIndex, native.ErrInvalidSpec, "handle is not an index")
	}
	return ih, native.OK
}

// IndexFree implements native.Engine.
func (e *Engine) IndexFree(idx native.Raw) native.Status {
	if !e.drop(idx) {
		return e.fail(native.ClassIndex, native.ErrInvalidSpec, "invalid index handle")
	}
	return e.ok()
}

// IndexAddPath implements native.Engine. The worktree file is hashed into the
// object database and its entry upserted, mirroring `git add <path>`.
func (e *Engine) IndexAddPath(idx native.Raw, path string) native.Status {
	ih, st := e.indexOf(idx)
	if st != native.OK {
		return st
	}
	if ih.repo.worktree == nil {
		return e.fail(native.ClassIndex, native.ErrGeneric, "bare repository has no worktree")
	}
	wt, err := ih.repo.repo.Worktree()
	if err != nil {
		return e.failErr(native.ClassIndex, err)
	}
	if _, err := wt.Add(path); err != nil {
		return e.fail(native.ClassIndex, native.ErrNotFound,
			fmt.Sprintf("add %q: %s", path, err))
	}
	return e.ok()
}

// IndexRemovePath implements native.Engine.
func (e *Engine) IndexRemovePath(idx native.Raw, path string) native.Status {
	ih, st := e.indexOf(idx)
	if st != native.OK {
		return st
	}
	fidx, err := ih.repo.repo.Storer.Index()
	if err != nil {
		return e.failErr(native.ClassIndex, err)
	}
	if _, err := fidx.Remove(path); err != nil {
		if errors.Is(err, format.ErrEntryNotFound) {
			return e.fail(native.ClassIndex, native.ErrNotFound,
				fmt.Sprintf("path %q is not in the index", path))
		}
		return e.failErr(native.ClassIndex, err)
	}
	if err := ih.repo.repo.Storer.SetIndex(fidx); err != nil {
		return e.failErr(native.ClassIndex, err)
	}
	return e.ok()
}

// IndexEntryCount implements native.Engine.
func (e *Engine) IndexEntryCount(idx native.Raw) (int, native.Status) {
	ih, st := e.indexOf(idx)
	if st != native.OK {
		return 0, st
	}
	fidx, err := ih.repo.repo.Storer.Index()
	if err != nil {
		return 0, e.failErr(native.ClassIndex, err)
	}
	n := len(fidx.Entries)
	e.ok()
	return n, native.OK
}

// IndexEntryByIndex implements native.Engine.
func (e *Engine) IndexEntryByIndex(idx native.Raw, i int) (native.IndexEntry, native.Status) {
	ih, st := e.indexOf(idx)
	if st != native.OK {
		return native.IndexEntry{}, st
	}
	fidx, err := ih.repo.repo.Storer.Index()
	if err != nil {
		return native.IndexEntry{}, e.failErr(native.ClassIndex, err)
	}
	if i < 0 || i >= len(fidx.Entries) {
		return native.IndexEntry{}, e.fail(native.ClassIndex, native.ErrNotFound,
			fmt.Sprintf("index entry %d out of range", i))
	}
	entry := fidx.Entries[i]
	e.ok()
	return native.IndexEntry{
		Path:  entry.Name,
		ID:    oidFromHash(entry.Hash),
		Mode:  uint32(entry.Mode),
		Stage: int(entry.Stage),
	}, native.OK
}

// IndexHasConflicts implements native.Engine. Conflict sides carry a nonzero
// stage number.
func (e *Engine) IndexHasConflicts(idx native.Raw) (bool, native.Status) {
	ih, st := e.indexOf(idx)
	if st != native.OK {
		return false, st
	}
	fidx, err := ih.repo.repo.Storer.Index()
	if err != nil {
		return false, e.failErr(native.ClassIndex, err)
	}
	for _, entry := range fidx.Entries {
		if entry.Stage != 0 {
			e.ok()
			return true, native.OK
		}
	}
	e.ok()
	return false, native.OK
}

// IndexClear implements native.Engine.
func (e *Engine) IndexClear(idx native.Raw) native.Status {
	ih, st := e.indexOf(idx)
	if st != native.OK {
		return st
	}
	fidx, err := ih.repo.repo.Storer.Index()
	if err != nil {
		return e.failErr(native.ClassIndex, err)
	}
	fidx.Entries = nil
	if err := ih.repo.repo.Storer.SetIndex(fidx); err != nil {
		return e.failErr(native.ClassIndex, err)
	}
	return e.ok()
}

// IndexWrite implements native.Engine. Mutations are persisted per call, so
// this re-writes the current index file.
func (e *Engine) IndexWrite(idx native.Raw) native.Status {
	ih, st := e.indexOf(idx)
	if st != native.OK {
		return st
	}
	fidx, err := ih.repo.repo.Storer.Index()
	if err != nil {
		return e.failErr(native.ClassIndex, err)
	}
	if err := ih.repo.repo.Storer.SetIndex(fidx); err != nil {
		return e.failErr(native.ClassIndex, err)
	}
	return e.ok()
}

// IndexWriteTree implements native.Engine. Unresolved conflict entries block
// serialization with ErrUnmerged.
func (e *Engine) IndexWriteTree(idx native.Raw) (native.Oid, native.Status) {
	ih, st := e.indexOf(idx)
	if st != native.OK {
		return native.Oid{}, st
	}
	fidx, err := ih.repo.repo.Storer.Index()
	if err != nil {
		return native.Oid{}, e.failErr(native.ClassIndex, err)
	}
	for _, entry := range fidx.Entries {
		if entry.Stage != 0 {
			return native.Oid{}, e.fail(native.ClassIndex, native.ErrUnmerged,
				fmt.Sprintf("path %q has unresolved conflicts", entry.Name))
		}
	}
	h, err := writeTreeFromEntries(ih.repo.repo.Storer, fidx.Entries)
	if err != nil {
		return native.Oid{}, e.failErr(native.ClassIndex, err)
	}
	e.ok()
	return oidFromHash(h), native.OK
}

// treeBuilder accumulates index entries into a directory hierarchy before
// serializing tree objects bottom-up.
type treeBuilder struct {
	dirs  map[string]*treeBuilder
	files []object.TreeEntry
}

func newTreeBuilder() *treeBuilder {
	return &treeBuilder{dirs: make(map[string]*treeBuilder)}
}

func (b *treeBuilder) insert(path string, entry *format.Entry) {
	dir, rest, nested := strings.Cut(path, "/")
	if !nested {
		b.files = append(b.files, object.TreeEntry{
			Name: path,
			Mode: entry.Mode,
			Hash: entry.Hash,
		})
		return
	}
	child, ok := b.dirs[dir]
	if !ok {
		child = newTreeBuilder()
		b.dirs[dir] = child
	}
	child.insert(rest, entry)
}

func (b *treeBuilder) write(s storer.EncodedObjectStorer) (plumbing.Hash, error) {
	entries := append([]object.TreeEntry(nil), b.files...)
	for name, child := range b.dirs {
		h, err := child.write(s)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: h})
	}
	// Git orders tree entries as if directory names carried a trailing
	// slash.
	sort.Slice(entries, func(i, j int) bool {
		return treeSortKey(entries[i]) < treeSortKey(entries[j])
	})
	tree := &object.Tree{Entries: entries}
	enc := s.NewEncodedObject()
	if err := tree.Encode(enc); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.SetEncodedObject(enc)
}

func treeSortKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

func writeTreeFromEntries(s storer.EncodedObjectStorer, entries []*format.Entry) (plumbing.Hash, error) {
	root := newTreeBuilder()
	for _, entry := range entries {
		root.insert(entry.Name, entry)
	}
	return root.write(s)
}
