// Package gogit implements the native engine ABI on top of go-git.
//
// The engine keeps a table mapping opaque handle ids to go-git resources and
// reproduces the C-style error contract: a failing call fills the error slot,
// the next call overwrites or clears it. Callers (the gitnative package) are
// expected to translate immediately after a failing call.
package gogit

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// DefaultCacheSize is the default LRU object cache size for repository
// storage.
const DefaultCacheSize = 1000

// Engine is the go-git backed implementation of native.Engine.
//
// The handle table is guarded for memory safety, but the error slot is a
// single most-recent-error cell shared by all handles of this engine, exactly
// like the native library's thread-scoped slot. The confinement discipline
// documented on native.Engine is what keeps translations coherent.
type Engine struct {
	mu      sync.Mutex
	next    native.Raw
	handles map[native.Raw]any

	slot    slotError
	slotSet bool

	// fs, when non-nil, roots all repository paths (used for in-memory
	// testing). When nil, paths refer to the OS filesystem.
	fs billy.Filesystem

	cacheSize int
}

type slotError struct {
	class native.ErrorClass
	code  native.Status
	msg   string
}

var _ native.Engine = (*Engine)(nil)

// New returns an engine whose repository paths refer to the OS filesystem.
func New() *Engine {
	return &Engine{handles: make(map[native.Raw]any), cacheSize: DefaultCacheSize}
}

// NewWithFilesystem returns an engine rooted at fs. Repository paths are
// resolved by chrooting into fs, which makes the engine fully hermetic when
// given an in-memory filesystem.
func NewWithFilesystem(fs billy.Filesystem) *Engine {
	e := New()
	e.fs = fs
	return e
}

// repoHandle is the engine-side state of one open repository.
type repoHandle struct {
	repo     *git.Repository
	worktree billy.Filesystem // nil for bare repositories
	path     string
}

type objectHandle struct {
	repo *repoHandle
	kind native.Kind
	id   native.Oid

	commit *object.Commit
	tree   *object.Tree
	blob   *object.Blob
	tag    *object.Tag
}

type indexHandle struct {
	repo *repoHandle
}

type configHandle struct {
	repo *repoHandle
}

type diffHandle struct {
	deltas []native.DiffDelta
}

type walkHandle struct {
	repo    *repoHandle
	pending []plumbing.Hash
	seen    map[plumbing.Hash]bool
	hidden  []plumbing.Hash
}

// InitLibrary implements native.Engine. go-git needs no global setup, so this
// only prepares the handle table.
func (e *Engine) InitLibrary() native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handles == nil {
		e.handles = make(map[native.Raw]any)
	}
	return native.OK
}

// ShutdownLibrary implements native.Engine. Outstanding handles are dropped.
func (e *Engine) ShutdownLibrary() native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handles = make(map[native.Raw]any)
	e.slotSet = false
	return native.OK
}

// LastError implements native.Engine.
func (e *Engine) LastError() (native.ErrorClass, native.Status, string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.slotSet {
		return native.ClassNone, native.OK, "", false
	}
	return e.slot.class, e.slot.code, e.slot.msg, true
}

// ClearError implements native.Engine.
func (e *Engine) ClearError() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.slotSet = false
}

// ok clears the error slot and reports success. Every successful call ends
// here so that a stale slot never survives an intervening call.
func (e *Engine) ok() native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.slotSet = false
	return native.OK
}

// fail records the error triple in the slot and returns its status code.
func (e *Engine) fail(class native.ErrorClass, code native.Status, msg string) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.slot = slotError{class: class, code: code, msg: msg}
	e.slotSet = true
	return code
}

// failErr classifies a go-git error and records it in the slot.
func (e *Engine) failErr(class native.ErrorClass, err error) native.Status {
	return e.fail(class, statusFromError(err), err.Error())
}

// iterOver signals end-of-iteration without touching the slot; it is not a
// failure.
func (e *Engine) iterOver() native.Status {
	return native.ErrIterOver
}

// statusFromError maps go-git failures onto native status codes.
func statusFromError(err error) native.Status {
	switch {
	case errors.Is(err, plumbing.ErrObjectNotFound),
		errors.Is(err, plumbing.ErrReferenceNotFound),
		errors.Is(err, git.ErrRepositoryNotExists),
		errors.Is(err, git.ErrRemoteNotFound):
		return native.ErrNotFound
	case errors.Is(err, git.ErrRepositoryAlreadyExists),
		errors.Is(err, git.ErrRemoteExists):
		return native.ErrExists
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return native.ErrAuth
	default:
		return native.ErrGeneric
	}
}

func (e *Engine) put(h any) native.Raw {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next++
	raw := e.next
	e.handles[raw] = h
	return raw
}

func (e *Engine) get(raw native.Raw) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.handles[raw]
	return h, ok
}

func (e *Engine) drop(raw native.Raw) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.handles[raw]; !ok {
		return false
	}
	delete(e.handles, raw)
	return true
}

func (e *Engine) repoOf(raw native.Raw) (*repoHandle, native.Status) {
	h, ok := e.get(raw)
	if !ok {
		return nil, e.fail(native.ClassRepository, native.ErrInvalidSpec, "invalid repository handle")
	}
	r, ok := h.(*repoHandle)
	if !ok {
		return nil, e.fail(native.ClassRepository, native.ErrInvalidSpec, "handle is not a repository")
	}
	return r, native.OK
}

// pathFS resolves a repository path to a billy filesystem root.
func (e *Engine) pathFS(path string) (billy.Filesystem, error) {
	if e.fs == nil {
		return osfs.New(path), nil
	}
	return e.fs.Chroot(path)
}

// openStorage builds go-git storage and worktree filesystems for a repository
// root, placing object storage under .git for non-bare repositories. The LRU
// object cache keeps hot objects in memory.
func (e *Engine) openStorage(root billy.Filesystem, bare bool) (*filesystem.Storage, billy.Filesystem, error) {
	objCache := cache.NewObjectLRU(cache.FileSize(e.cacheSize))
	if bare {
		return filesystem.NewStorage(root, objCache), nil, nil
	}
	dotGit, err := root.Chroot(git.GitDirName)
	if err != nil {
		return nil, nil, fmt.Errorf("chroot %s: %w", git.GitDirName, err)
	}
	return filesystem.NewStorage(dotGit, objCache), root, nil
}

// RepositoryOpen implements native.Engine. Bareness is detected from the
// on-disk layout: a root with a .git directory opens as non-bare.
func (e *Engine) RepositoryOpen(path string) (native.Raw, native.Status) {
	root, err := e.pathFS(path)
	if err != nil {
		return 0, e.fail(native.ClassOS, native.ErrNotFound, err.Error())
	}
	bare := true
	if fi, statErr := root.Stat(git.GitDirName); statErr == nil && fi.IsDir() {
		bare = false
	}
	storage, worktree, err := e.openStorage(root, bare)
	if err != nil {
		return 0, e.failErr(native.ClassOS, err)
	}
	repo, err := git.Open(storage, worktree)
	if err != nil {
		return 0, e.failErr(native.ClassRepository, err)
	}
	raw := e.put(&repoHandle{repo: repo, worktree: worktree, path: path})
	e.ok()
	return raw, native.OK
}

// RepositoryInit implements native.Engine.
func (e *Engine) RepositoryInit(path string, bare bool) (native.Raw, native.Status) {
	root, err := e.pathFS(path)
	if err != nil {
		return 0, e.fail(native.ClassOS, native.ErrGeneric, err.Error())
	}
	storage, worktree, err := e.openStorage(root, bare)
	if err != nil {
		return 0, e.failErr(native.ClassOS, err)
	}
	repo, err := git.Init(storage, worktree)
	if err != nil {
		return 0, e.failErr(native.ClassRepository, err)
	}
	raw := e.put(&repoHandle{repo: repo, worktree: worktree, path: path})
	e.ok()
	return raw, native.OK
}

// RepositoryFree implements native.Engine.
func (e *Engine) RepositoryFree(repo native.Raw) native.Status {
	if !e.drop(repo) {
		return e.fail(native.ClassRepository, native.ErrInvalidSpec, "invalid repository handle")
	}
	return e.ok()
}

// RepositoryIsBare implements native.Engine.
func (e *Engine) RepositoryIsBare(repo native.Raw) (bool, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return false, st
	}
	return r.worktree == nil, e.ok()
}

// RepositoryIsEmpty implements native.Engine. A repository is empty while
// HEAD cannot be resolved to a commit.
func (e *Engine) RepositoryIsEmpty(repo native.Raw) (bool, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return false, st
	}
	_, err := r.repo.Head()
	if err == nil {
		return false, e.ok()
	}
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return true, e.ok()
	}
	return false, e.failErr(native.ClassRepository, err)
}

// RepositoryPath implements native.Engine.
func (e *Engine) RepositoryPath(repo native.Raw) (string, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return "", st
	}
	return r.path, e.ok()
}

// splitConfigName splits "section.key" or "section.subsection.key" config
// names the way git does: first dot ends the section, last dot starts the
// key.
func splitConfigName(name string) (section, subsection, key string, ok bool) {
	first := strings.Index(name, ".")
	last := strings.LastIndex(name, ".")
	if first < 1 || last == len(name)-1 {
		return "", "", "", false
	}
	section = name[:first]
	key = name[last+1:]
	if first != last {
		subsection = name[first+1 : last]
	}
	return section, subsection, key, true
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
