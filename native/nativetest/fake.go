// Package nativetest provides an instrumented in-memory engine for testing
// the wrapper's lifetime and error-translation contracts. It counts handle
// acquisitions and releases, records every call, and can be scripted to fail
// so tests can observe the error-slot discipline.
package nativetest

import (
	"fmt"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// Object is the fake engine's stored object. Populate the field matching
// Kind before looking it up.
type Object struct {
	Kind    native.Kind
	Data    []byte
	Commit  native.CommitInfo
	Tag     native.TagInfo
	Entries []native.TreeEntry
}

// Fake implements native.Engine with toy in-memory semantics and full
// instrumentation. The zero value is not usable; call New.
type Fake struct {
	mu   sync.Mutex
	next native.Raw
	live map[native.Raw]string

	// Acquired and Released count handle creations and frees. A leak-free
	// run ends with Acquired == Released.
	Acquired int
	Released int

	// Calls records every engine entry point invoked, in order.
	Calls []string

	// InvalidHandleCalls counts calls that referenced a freed or unknown
	// handle; a correct wrapper never lets this become nonzero.
	InvalidHandleCalls int

	// InitCalls and ShutdownCalls count global lifecycle invocations.
	InitCalls     int
	ShutdownCalls int

	slot    slotTriple
	slotSet bool

	failNext map[string]slotTriple

	// Objects, Refs, Remotes and Config hold the engine's fixture state,
	// freely mutable by tests.
	Objects      map[native.Oid]*Object
	Refs         map[string]native.RefInfo
	Remotes      map[string]string
	Config       map[string]string
	IndexEntries []native.IndexEntry

	objectByRaw map[native.Raw]native.Oid
	walkPending map[native.Raw][]native.Oid
}

type slotTriple struct {
	class native.ErrorClass
	code  native.Status
	msg   string
}

var _ native.Engine = (*Fake)(nil)

// New returns an empty fake engine.
func New() *Fake {
	return &Fake{
		live:     make(map[native.Raw]string),
		failNext: make(map[string]slotTriple),
		Objects:  make(map[native.Oid]*Object),
		Refs:     make(map[string]native.RefInfo),
		Remotes:  make(map[string]string),
		Config:   make(map[string]string),
	}
}

// Oid builds a deterministic SHA-1-width test id from a seed byte.
func Oid(seed byte) native.Oid {
	b := make([]byte, native.OidSizeSHA1)
	for i := range b {
		b[i] = seed
	}
	return native.NewOid(b)
}

// FailNext scripts the next invocation of the named entry point to fail with
// the given triple.
func (f *Fake) FailNext(op string, class native.ErrorClass, code native.Status, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[op] = slotTriple{class: class, code: code, msg: msg}
}

// Live reports the number of currently live handles.
func (f *Fake) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

// enter records the call and applies any scripted failure.
func (f *Fake) enter(op string) (native.Status, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op)
	if t, ok := f.failNext[op]; ok {
		delete(f.failNext, op)
		f.slot = t
		f.slotSet = true
		return t.code, true
	}
	return native.OK, false
}

func (f *Fake) ok() native.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slotSet = false
	return native.OK
}

func (f *Fake) fail(class native.ErrorClass, code native.Status, msg string) native.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slot = slotTriple{class: class, code: code, msg: msg}
	f.slotSet = true
	return code
}

func (f *Fake) acquire(kind string) native.Raw {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.live[f.next] = kind
	f.Acquired++
	return f.next
}

func (f *Fake) release(raw native.Raw, kind string) native.Status {
	f.mu.Lock()
	if got, ok := f.live[raw]; !ok || got != kind {
		f.InvalidHandleCalls++
		f.mu.Unlock()
		return f.fail(native.ClassInvalid, native.ErrInvalidSpec,
			fmt.Sprintf("free of invalid %s handle %d", kind, raw))
	}
	delete(f.live, raw)
	f.Released++
	f.slotSet = false
	f.mu.Unlock()
	return native.OK
}

func (f *Fake) check(raw native.Raw, kind string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if got, ok := f.live[raw]; ok && got == kind {
		return true
	}
	f.InvalidHandleCalls++
	return false
}

func (f *Fake) badHandle(kind string) native.Status {
	return f.fail(native.ClassInvalid, native.ErrInvalidSpec, "invalid "+kind+" handle")
}

// InitLibrary implements native.Engine.
func (f *Fake) InitLibrary() native.Status {
	f.mu.Lock()
	f.InitCalls++
	f.mu.Unlock()
	return native.OK
}

// ShutdownLibrary implements native.Engine.
func (f *Fake) ShutdownLibrary() native.Status {
	f.mu.Lock()
	f.ShutdownCalls++
	f.mu.Unlock()
	return native.OK
}

// LastError implements native.Engine.
func (f *Fake) LastError() (native.ErrorClass, native.Status, string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.slotSet {
		return native.ClassNone, native.OK, "", false
	}
	return f.slot.class, f.slot.code, f.slot.msg, true
}

// ClearError implements native.Engine.
func (f *Fake) ClearError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slotSet = false
}

// RepositoryOpen implements native.Engine.
func (f *Fake) RepositoryOpen(path string) (native.Raw, native.Status) {
	if st, failed := f.enter("RepositoryOpen"); failed {
		return 0, st
	}
	raw := f.acquire("repo")
	return raw, f.ok()
}

// RepositoryInit implements native.Engine.
func (f *Fake) RepositoryInit(path string, bare bool) (native.Raw, native.Status) {
	if st, failed := f.enter("RepositoryInit"); failed {
		return 0, st
	}
	raw := f.acquire("repo")
	return raw, f.ok()
}

// RepositoryClone implements native.Engine. A cancel callback returning true
// aborts immediately; otherwise the clone trivially succeeds.
func (f *Fake) RepositoryClone(url, path string, opts native.CloneOptions) (native.Raw, native.Status) {
	if st, failed := f.enter("RepositoryClone"); failed {
		return 0, st
	}
	if opts.Credentials != nil {
		if _, err := opts.Credentials(url, ""); err != nil {
			return 0, f.fail(native.ClassNet, native.ErrAuth, err.Error())
		}
	}
	if opts.Cancel != nil && opts.Cancel() {
		return 0, f.fail(native.ClassCallback, native.ErrCancelled, "operation cancelled by caller")
	}
	if opts.Progress != nil {
		opts.Progress("clone", 1, 1)
	}
	raw := f.acquire("repo")
	return raw, f.ok()
}

// RepositoryFree implements native.Engine.
func (f *Fake) RepositoryFree(repo native.Raw) native.Status {
	f.enter("RepositoryFree")
	return f.release(repo, "repo")
}

// RepositoryIsBare implements native.Engine.
func (f *Fake) RepositoryIsBare(repo native.Raw) (bool, native.Status) {
	if st, failed := f.enter("RepositoryIsBare"); failed {
		return false, st
	}
	if !f.check(repo, "repo") {
		return false, f.badHandle("repo")
	}
	return false, f.ok()
}

// RepositoryIsEmpty implements native.Engine.
func (f *Fake) RepositoryIsEmpty(repo native.Raw) (bool, native.Status) {
	if st, failed := f.enter("RepositoryIsEmpty"); failed {
		return false, st
	}
	if !f.check(repo, "repo") {
		return false, f.badHandle("repo")
	}
	return len(f.Objects) == 0, f.ok()
}

// RepositoryPath implements native.Engine.
func (f *Fake) RepositoryPath(repo native.Raw) (string, native.Status) {
	if st, failed := f.enter("RepositoryPath"); failed {
		return "", st
	}
	if !f.check(repo, "repo") {
		return "", f.badHandle("repo")
	}
	return "/fake", f.ok()
}

// ObjectLookup implements native.Engine.
func (f *Fake) ObjectLookup(repo native.Raw, id native.Oid, kind native.Kind) (native.Raw, native.Status) {
	if st, failed := f.enter("ObjectLookup"); failed {
		return 0, st
	}
	if !f.check(repo, "repo") {
		return 0, f.badHandle("repo")
	}
	obj, ok := f.Objects[id]
	if !ok {
		return 0, f.fail(native.ClassObject, native.ErrNotFound,
			fmt.Sprintf("object %s not found", id))
	}
	if kind != native.KindAny && obj.Kind != kind {
		return 0, f.fail(native.ClassObject, native.ErrTypeMismatch,
			fmt.Sprintf("object %s is a %s, not a %s", id, obj.Kind, kind))
	}
	raw := f.acquire("object")
	f.mu.Lock()
	f.objectIDs(raw, id)
	f.mu.Unlock()
	return raw, f.ok()
}

// objectIDs remembers which stored object a live object handle refers to.
// Callers must hold mu.
func (f *Fake) objectIDs(raw native.Raw, id native.Oid) {
	if f.objectByRaw == nil {
		f.objectByRaw = make(map[native.Raw]native.Oid)
	}
	f.objectByRaw[raw] = id
}

func (f *Fake) objectFor(raw native.Raw) (*Object, native.Oid, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.objectByRaw[raw]
	if !ok {
		return nil, native.Oid{}, false
	}
	obj, ok := f.Objects[id]
	return obj, id, ok
}

// ObjectKind implements native.Engine.
func (f *Fake) ObjectKind(obj native.Raw) (native.Kind, native.Status) {
	if st, failed := f.enter("ObjectKind"); failed {
		return native.KindAny, st
	}
	if !f.check(obj, "object") {
		return native.KindAny, f.badHandle("object")
	}
	o, _, ok := f.objectFor(obj)
	if !ok {
		return native.KindAny, f.badHandle("object")
	}
	return o.Kind, f.ok()
}

// ObjectID implements native.Engine.
func (f *Fake) ObjectID(obj native.Raw) (native.Oid, native.Status) {
	if st, failed := f.enter("ObjectID"); failed {
		return native.Oid{}, st
	}
	if !f.check(obj, "object") {
		return native.Oid{}, f.badHandle("object")
	}
	_, id, ok := f.objectFor(obj)
	if !ok {
		return native.Oid{}, f.badHandle("object")
	}
	return id, f.ok()
}

// ObjectFree implements native.Engine.
func (f *Fake) ObjectFree(obj native.Raw) native.Status {
	f.enter("ObjectFree")
	return f.release(obj, "object")
}

// BlobCreate implements native.Engine. The id is derived from the content so
// identical writes produce identical ids.
func (f *Fake) BlobCreate(repo native.Raw, data []byte) (native.Oid, native.Status) {
	if st, failed := f.enter("BlobCreate"); failed {
		return native.Oid{}, st
	}
	if !f.check(repo, "repo") {
		return native.Oid{}, f.badHandle("repo")
	}
	var sum byte
	for _, b := range data {
		sum += b
	}
	id := Oid(sum)
	f.mu.Lock()
	f.Objects[id] = &Object{Kind: native.KindBlob, Data: append([]byte(nil), data...)}
	f.mu.Unlock()
	return id, f.ok()
}

// BlobCreateFromPath implements native.Engine.
func (f *Fake) BlobCreateFromPath(repo native.Raw, path string) (native.Oid, native.Status) {
	if st, failed := f.enter("BlobCreateFromPath"); failed {
		return native.Oid{}, st
	}
	return f.BlobCreate(repo, []byte(path))
}

// BlobContent implements native.Engine.
func (f *Fake) BlobContent(obj native.Raw) ([]byte, native.Status) {
	if st, failed := f.enter("BlobContent"); failed {
		return nil, st
	}
	if !f.check(obj, "object") {
		return nil, f.badHandle("object")
	}
	o, _, ok := f.objectFor(obj)
	if !ok || o.Kind != native.KindBlob {
		return nil, f.fail(native.ClassObject, native.ErrTypeMismatch, "object is not a blob")
	}
	return o.Data, f.ok()
}

// CommitCreate implements native.Engine.
func (f *Fake) CommitCreate(repo native.Raw, updateRef string, author, committer native.Signature,
	message string, tree native.Oid, parents []native.Oid,
) (native.Oid, native.Status) {
	if st, failed := f.enter("CommitCreate"); failed {
		return native.Oid{}, st
	}
	if !f.check(repo, "repo") {
		return native.Oid{}, f.badHandle("repo")
	}
	id := Oid(byte(len(f.Objects) + 1))
	f.mu.Lock()
	f.Objects[id] = &Object{Kind: native.KindCommit, Commit: native.CommitInfo{
		TreeID: tree, ParentIDs: parents, Author: author, Committer: committer, Message: message,
	}}
	if updateRef != "" {
		f.Refs[updateRef] = native.RefInfo{Name: updateRef, TargetID: id}
	}
	f.mu.Unlock()
	return id, f.ok()
}

// CommitInfo implements native.Engine.
func (f *Fake) CommitInfo(obj native.Raw) (native.CommitInfo, native.Status) {
	if st, failed := f.enter("CommitInfo"); failed {
		return native.CommitInfo{}, st
	}
	if !f.check(obj, "object") {
		return native.CommitInfo{}, f.badHandle("object")
	}
	o, _, ok := f.objectFor(obj)
	if !ok || o.Kind != native.KindCommit {
		return native.CommitInfo{}, f.fail(native.ClassObject, native.ErrTypeMismatch, "object is not a commit")
	}
	return o.Commit, f.ok()
}

// TreeEntryCount implements native.Engine.
func (f *Fake) TreeEntryCount(obj native.Raw) (int, native.Status) {
	if st, failed := f.enter("TreeEntryCount"); failed {
		return 0, st
	}
	if !f.check(obj, "object") {
		return 0, f.badHandle("object")
	}
	o, _, ok := f.objectFor(obj)
	if !ok || o.Kind != native.KindTree {
		return 0, f.fail(native.ClassObject, native.ErrTypeMismatch, "object is not a tree")
	}
	return len(o.Entries), f.ok()
}

// TreeEntryByIndex implements native.Engine.
func (f *Fake) TreeEntryByIndex(obj native.Raw, i int) (native.TreeEntry, native.Status) {
	if st, failed := f.enter("TreeEntryByIndex"); failed {
		return native.TreeEntry{}, st
	}
	if !f.check(obj, "object") {
		return native.TreeEntry{}, f.badHandle("object")
	}
	o, _, ok := f.objectFor(obj)
	if !ok || o.Kind != native.KindTree {
		return native.TreeEntry{}, f.fail(native.ClassObject, native.ErrTypeMismatch, "object is not a tree")
	}
	if i < 0 || i >= len(o.Entries) {
		return native.TreeEntry{}, f.fail(native.ClassObject, native.ErrNotFound, "tree entry out of range")
	}
	return o.Entries[i], f.ok()
}

// TreeEntryByName implements native.Engine.
func (f *Fake) TreeEntryByName(obj native.Raw, name string) (native.TreeEntry, native.Status) {
	if st, failed := f.enter("TreeEntryByName"); failed {
		return native.TreeEntry{}, st
	}
	if !f.check(obj, "object") {
		return native.TreeEntry{}, f.badHandle("object")
	}
	o, _, ok := f.objectFor(obj)
	if !ok || o.Kind != native.KindTree {
		return native.TreeEntry{}, f.fail(native.ClassObject, native.ErrTypeMismatch, "object is not a tree")
	}
	for _, te := range o.Entries {
		if te.Name == name {
			return te, f.ok()
		}
	}
	return native.TreeEntry{}, f.fail(native.ClassObject, native.ErrNotFound,
		fmt.Sprintf("no tree entry named %q", name))
}

// TagCreate implements native.Engine.
func (f *Fake) TagCreate(repo native.Raw, name string, target native.Oid, tagger native.Signature,
	message string, force bool,
) (native.Oid, native.Status) {
	if st, failed := f.enter("TagCreate"); failed {
		return native.Oid{}, st
	}
	if !f.check(repo, "repo") {
		return native.Oid{}, f.badHandle("repo")
	}
	refName := "refs/tags/" + name
	f.mu.Lock()
	_, exists := f.Refs[refName]
	f.mu.Unlock()
	if exists && !force {
		return native.Oid{}, f.fail(native.ClassReference, native.ErrExists,
			fmt.Sprintf("tag %q already exists", name))
	}
	id := Oid(byte(len(f.Objects) + 101))
	f.mu.Lock()
	f.Objects[id] = &Object{Kind: native.KindTag, Tag: native.TagInfo{
		Name: name, TargetID: target, TargetKind: native.KindCommit, Tagger: tagger, Message: message,
	}}
	f.Refs[refName] = native.RefInfo{Name: refName, TargetID: id}
	f.mu.Unlock()
	return id, f.ok()
}

// TagInfo implements native.Engine.
func (f *Fake) TagInfo(obj native.Raw) (native.TagInfo, native.Status) {
	if st, failed := f.enter("TagInfo"); failed {
		return native.TagInfo{}, st
	}
	if !f.check(obj, "object") {
		return native.TagInfo{}, f.badHandle("object")
	}
	o, _, ok := f.objectFor(obj)
	if !ok || o.Kind != native.KindTag {
		return native.TagInfo{}, f.fail(native.ClassObject, native.ErrTypeMismatch, "object is not a tag")
	}
	return o.Tag, f.ok()
}

// IndexOpen implements native.Engine.
func (f *Fake) IndexOpen(repo native.Raw) (native.Raw, native.Status) {
	if st, failed := f.enter("IndexOpen"); failed {
		return 0, st
	}
	if !f.check(repo, "repo") {
		return 0, f.badHandle("repo")
	}
	raw := f.acquire("index")
	return raw, f.ok()
}

// IndexFree implements native.Engine.
func (f *Fake) IndexFree(idx native.Raw) native.Status {
	f.enter("IndexFree")
	return f.release(idx, "index")
}

// IndexAddPath implements native.Engine.
func (f *Fake) IndexAddPath(idx native.Raw, path string) native.Status {
	if st, failed := f.enter("IndexAddPath"); failed {
		return st
	}
	if !f.check(idx, "index") {
		return f.badHandle("index")
	}
	f.mu.Lock()
	for i, entry := range f.IndexEntries {
		if entry.Path == path && entry.Stage == 0 {
			f.IndexEntries[i].ID = Oid(byte(len(path)))
			f.mu.Unlock()
			return f.ok()
		}
	}
	f.IndexEntries = append(f.IndexEntries, native.IndexEntry{
		Path: path, ID: Oid(byte(len(path))), Mode: 0o100644,
	})
	f.mu.Unlock()
	return f.ok()
}

// IndexRemovePath implements native.Engine.
func (f *Fake) IndexRemovePath(idx native.Raw, path string) native.Status {
	if st, failed := f.enter("IndexRemovePath"); failed {
		return st
	}
	if !f.check(idx, "index") {
		return f.badHandle("index")
	}
	f.mu.Lock()
	for i, entry := range f.IndexEntries {
		if entry.Path == path {
			f.IndexEntries = append(f.IndexEntries[:i], f.IndexEntries[i+1:]...)
			f.mu.Unlock()
			return f.ok()
		}
	}
	f.mu.Unlock()
	return f.fail(native.ClassIndex, native.ErrNotFound,
		fmt.Sprintf("path %q is not in the index", path))
}

// IndexEntryCount implements native.Engine.
func (f *Fake) IndexEntryCount(idx native.Raw) (int, native.Status) {
	if st, failed := f.enter("IndexEntryCount"); failed {
		return 0, st
	}
	if !f.check(idx, "index") {
		return 0, f.badHandle("index")
	}
	return len(f.IndexEntries), f.ok()
}

// IndexEntryByIndex implements native.Engine.
func (f *Fake) IndexEntryByIndex(idx native.Raw, i int) (native.IndexEntry, native.Status) {
	if st, failed := f.enter("IndexEntryByIndex"); failed {
		return native.IndexEntry{}, st
	}
	if !f.check(idx, "index") {
		return native.IndexEntry{}, f.badHandle("index")
	}
	if i < 0 || i >= len(f.IndexEntries) {
		return native.IndexEntry{}, f.fail(native.ClassIndex, native.ErrNotFound, "index entry out of range")
	}
	return f.IndexEntries[i], f.ok()
}

// IndexHasConflicts implements native.Engine.
func (f *Fake) IndexHasConflicts(idx native.Raw) (bool, native.Status) {
	if st, failed := f.enter("IndexHasConflicts"); failed {
		return false, st
	}
	if !f.check(idx, "index") {
		return false, f.badHandle("index")
	}
	for _, entry := range f.IndexEntries {
		if entry.Stage > 0 {
			return true, f.ok()
		}
	}
	return false, f.ok()
}

// IndexClear implements native.Engine.
func (f *Fake) IndexClear(idx native.Raw) native.Status {
	if st, failed := f.enter("IndexClear"); failed {
		return st
	}
	if !f.check(idx, "index") {
		return f.badHandle("index")
	}
	f.mu.Lock()
	f.IndexEntries = nil
	f.mu.Unlock()
	return f.ok()
}

// IndexWrite implements native.Engine.
func (f *Fake) IndexWrite(idx native.Raw) native.Status {
	if st, failed := f.enter("IndexWrite"); failed {
		return st
	}
	if !f.check(idx, "index") {
		return f.badHandle("index")
	}
	return f.ok()
}

// IndexWriteTree implements native.Engine.
func (f *Fake) IndexWriteTree(idx native.Raw) (native.Oid, native.Status) {
	if st, failed := f.enter("IndexWriteTree"); failed {
		return native.Oid{}, st
	}
	if !f.check(idx, "index") {
		return native.Oid{}, f.badHandle("index")
	}
	var entries []native.TreeEntry
	f.mu.Lock()
	for _, entry := range f.IndexEntries {
		if entry.Stage > 0 {
			f.mu.Unlock()
			return native.Oid{}, f.fail(native.ClassIndex, native.ErrUnmerged,
				fmt.Sprintf("path %q has unresolved conflicts", entry.Path))
		}
		entries = append(entries, native.TreeEntry{
			Name: entry.Path, ID: entry.ID, Mode: entry.Mode, Kind: native.KindBlob,
		})
	}
	id := Oid(byte(200 + len(entries)))
	f.Objects[id] = &Object{Kind: native.KindTree, Entries: entries}
	f.mu.Unlock()
	return id, f.ok()
}

// ReferenceLookup implements native.Engine.
func (f *Fake) ReferenceLookup(repo native.Raw, name string) (native.RefInfo, native.Status) {
	if st, failed := f.enter("ReferenceLookup"); failed {
		return native.RefInfo{}, st
	}
	if !f.check(repo, "repo") {
		return native.RefInfo{}, f.badHandle("repo")
	}
	f.mu.Lock()
	info, ok := f.Refs[name]
	f.mu.Unlock()
	if !ok {
		return native.RefInfo{}, f.fail(native.ClassReference, native.ErrNotFound,
			fmt.Sprintf("reference %q not found", name))
	}
	return info, f.ok()
}

// ReferenceList implements native.Engine.
func (f *Fake) ReferenceList(repo native.Raw) ([]string, native.Status) {
	if st, failed := f.enter("ReferenceList"); failed {
		return nil, st
	}
	if !f.check(repo, "repo") {
		return nil, f.badHandle("repo")
	}
	f.mu.Lock()
	names := make([]string, 0, len(f.Refs))
	for name := range f.Refs {
		names = append(names, name)
	}
	f.mu.Unlock()
	return names, f.ok()
}

// ReferenceCreate implements native.Engine.
func (f *Fake) ReferenceCreate(repo native.Raw, name string, target native.Oid, force bool) native.Status {
	if st, failed := f.enter("ReferenceCreate"); failed {
		return st
	}
	if !f.check(repo, "repo") {
		return f.badHandle("repo")
	}
	f.mu.Lock()
	old, exists := f.Refs[name]
	if exists && !force && (old.Symbolic || old.TargetID != target) {
		f.mu.Unlock()
		return f.fail(native.ClassReference, native.ErrExists,
			fmt.Sprintf("reference %q already exists", name))
	}
	f.Refs[name] = native.RefInfo{Name: name, TargetID: target}
	f.mu.Unlock()
	return f.ok()
}

// ReferenceSymbolicCreate implements native.Engine.
func (f *Fake) ReferenceSymbolicCreate(repo native.Raw, name, target string, force bool) native.Status {
	if st, failed := f.enter("ReferenceSymbolicCreate"); failed {
		return st
	}
	if !f.check(repo, "repo") {
		return f.badHandle("repo")
	}
	f.mu.Lock()
	_, exists := f.Refs[name]
	if exists && !force {
		f.mu.Unlock()
		return f.fail(native.ClassReference, native.ErrExists,
			fmt.Sprintf("reference %q already exists", name))
	}
	f.Refs[name] = native.RefInfo{Name: name, Symbolic: true, TargetName: target}
	f.mu.Unlock()
	return f.ok()
}

// ReferenceRemove implements native.Engine.
func (f *Fake) ReferenceRemove(repo native.Raw, name string) native.Status {
	if st, failed := f.enter("ReferenceRemove"); failed {
		return st
	}
	if !f.check(repo, "repo") {
		return f.badHandle("repo")
	}
	f.mu.Lock()
	_, ok := f.Refs[name]
	delete(f.Refs, name)
	f.mu.Unlock()
	if !ok {
		return f.fail(native.ClassReference, native.ErrNotFound,
			fmt.Sprintf("reference %q not found", name))
	}
	return f.ok()
}

// RevparseSingle implements native.Engine. Only direct reference names and
// full hex ids resolve.
func (f *Fake) RevparseSingle(repo native.Raw, spec string) (native.Raw, native.Status) {
	if st, failed := f.enter("RevparseSingle"); failed {
		return 0, st
	}
	if !f.check(repo, "repo") {
		return 0, f.badHandle("repo")
	}
	f.mu.Lock()
	info, ok := f.Refs[spec]
	f.mu.Unlock()
	if !ok || info.Symbolic {
		return 0, f.fail(native.ClassInvalid, native.ErrNotFound,
			fmt.Sprintf("cannot resolve %q", spec))
	}
	return f.ObjectLookup(repo, info.TargetID, native.KindAny)
}

// ConfigOpen implements native.Engine.
func (f *Fake) ConfigOpen(repo native.Raw) (native.Raw, native.Status) {
	if st, failed := f.enter("ConfigOpen"); failed {
		return 0, st
	}
	if !f.check(repo, "repo") {
		return 0, f.badHandle("repo")
	}
	raw := f.acquire("config")
	return raw, f.ok()
}

// ConfigFree implements native.Engine.
func (f *Fake) ConfigFree(cfg native.Raw) native.Status {
	f.enter("ConfigFree")
	return f.release(cfg, "config")
}

// ConfigGet implements native.Engine.
func (f *Fake) ConfigGet(cfg native.Raw, name string) (string, native.Status) {
	if st, failed := f.enter("ConfigGet"); failed {
		return "", st
	}
	if !f.check(cfg, "config") {
		return "", f.badHandle("config")
	}
	f.mu.Lock()
	v, ok := f.Config[name]
	f.mu.Unlock()
	if !ok {
		return "", f.fail(native.ClassConfig, native.ErrNotFound,
			fmt.Sprintf("config value %q is not set", name))
	}
	return v, f.ok()
}

// ConfigSet implements native.Engine.
func (f *Fake) ConfigSet(cfg native.Raw, name, value string) native.Status {
	if st, failed := f.enter("ConfigSet"); failed {
		return st
	}
	if !f.check(cfg, "config") {
		return f.badHandle("config")
	}
	f.mu.Lock()
	f.Config[name] = value
	f.mu.Unlock()
	return f.ok()
}

// ConfigDelete implements native.Engine.
func (f *Fake) ConfigDelete(cfg native.Raw, name string) native.Status {
	if st, failed := f.enter("ConfigDelete"); failed {
		return st
	}
	if !f.check(cfg, "config") {
		return f.badHandle("config")
	}
	f.mu.Lock()
	delete(f.Config, name)
	f.mu.Unlock()
	return f.ok()
}

// RemoteList implements native.Engine.
func (f *Fake) RemoteList(repo native.Raw) ([]string, native.Status) {
	if st, failed := f.enter("RemoteList"); failed {
		return nil, st
	}
	if !f.check(repo, "repo") {
		return nil, f.badHandle("repo")
	}
	f.mu.Lock()
	names := make([]string, 0, len(f.Remotes))
	for name := range f.Remotes {
		names = append(names, name)
	}
	f.mu.Unlock()
	return names, f.ok()
}

// RemoteCreate implements native.Engine.
func (f *Fake) RemoteCreate(repo native.Raw, name, url string) native.Status {
	if st, failed := f.enter("RemoteCreate"); failed {
		return st
	}
	if !f.check(repo, "repo") {
		return f.badHandle("repo")
	}
	f.mu.Lock()
	_, exists := f.Remotes[name]
	if exists {
		f.mu.Unlock()
		return f.fail(native.ClassNet, native.ErrExists,
			fmt.Sprintf("remote %q already exists", name))
	}
	f.Remotes[name] = url
	f.mu.Unlock()
	return f.ok()
}

// RemoteLookup implements native.Engine.
func (f *Fake) RemoteLookup(repo native.Raw, name string) (native.RemoteInfo, native.Status) {
	if st, failed := f.enter("RemoteLookup"); failed {
		return native.RemoteInfo{}, st
	}
	if !f.check(repo, "repo") {
		return native.RemoteInfo{}, f.badHandle("repo")
	}
	f.mu.Lock()
	url, ok := f.Remotes[name]
	f.mu.Unlock()
	if !ok {
		return native.RemoteInfo{}, f.fail(native.ClassNet, native.ErrNotFound,
			fmt.Sprintf("remote %q not found", name))
	}
	return native.RemoteInfo{Name: name, URLs: []string{url}}, f.ok()
}

// RemoteFetch implements native.Engine.
func (f *Fake) RemoteFetch(repo native.Raw, name string, opts native.FetchOptions) native.Status {
	if st, failed := f.enter("RemoteFetch"); failed {
		return st
	}
	if !f.check(repo, "repo") {
		return f.badHandle("repo")
	}
	f.mu.Lock()
	_, ok := f.Remotes[name]
	f.mu.Unlock()
	if !ok {
		return f.fail(native.ClassNet, native.ErrNotFound,
			fmt.Sprintf("remote %q not found", name))
	}
	if opts.Cancel != nil && opts.Cancel() {
		return f.fail(native.ClassCallback, native.ErrCancelled, "operation cancelled by caller")
	}
	return f.ok()
}

// DiffTreeToTree implements native.Engine. The fake produces no deltas; it
// exists to exercise handle lifetimes.
func (f *Fake) DiffTreeToTree(repo native.Raw, oldTree, newTree native.Oid) (native.Raw, native.Status) {
	if st, failed := f.enter("DiffTreeToTree"); failed {
		return 0, st
	}
	if !f.check(repo, "repo") {
		return 0, f.badHandle("repo")
	}
	raw := f.acquire("diff")
	return raw, f.ok()
}

// DiffFree implements native.Engine.
func (f *Fake) DiffFree(diff native.Raw) native.Status {
	f.enter("DiffFree")
	return f.release(diff, "diff")
}

// DiffNumDeltas implements native.Engine.
func (f *Fake) DiffNumDeltas(diff native.Raw) (int, native.Status) {
	if st, failed := f.enter("DiffNumDeltas"); failed {
		return 0, st
	}
	if !f.check(diff, "diff") {
		return 0, f.badHandle("diff")
	}
	return 0, f.ok()
}

// DiffDelta implements native.Engine.
func (f *Fake) DiffDelta(diff native.Raw, i int) (native.DiffDelta, native.Status) {
	if st, failed := f.enter("DiffDelta"); failed {
		return native.DiffDelta{}, st
	}
	if !f.check(diff, "diff") {
		return native.DiffDelta{}, f.badHandle("diff")
	}
	return native.DiffDelta{}, f.fail(native.ClassObject, native.ErrNotFound, "delta index out of range")
}

// RevwalkNew implements native.Engine.
func (f *Fake) RevwalkNew(repo native.Raw) (native.Raw, native.Status) {
	if st, failed := f.enter("RevwalkNew"); failed {
		return 0, st
	}
	if !f.check(repo, "repo") {
		return 0, f.badHandle("repo")
	}
	raw := f.acquire("revwalk")
	return raw, f.ok()
}

// RevwalkFree implements native.Engine.
func (f *Fake) RevwalkFree(walk native.Raw) native.Status {
	f.enter("RevwalkFree")
	return f.release(walk, "revwalk")
}

// RevwalkPush implements native.Engine.
func (f *Fake) RevwalkPush(walk native.Raw, id native.Oid) native.Status {
	if st, failed := f.enter("RevwalkPush"); failed {
		return st
	}
	if !f.check(walk, "revwalk") {
		return f.badHandle("revwalk")
	}
	f.mu.Lock()
	if f.walkPending == nil {
		f.walkPending = make(map[native.Raw][]native.Oid)
	}
	f.walkPending[walk] = append(f.walkPending[walk], id)
	f.mu.Unlock()
	return f.ok()
}

// RevwalkHide implements native.Engine.
func (f *Fake) RevwalkHide(walk native.Raw, id native.Oid) native.Status {
	if st, failed := f.enter("RevwalkHide"); failed {
		return st
	}
	if !f.check(walk, "revwalk") {
		return f.badHandle("revwalk")
	}
	return f.ok()
}

// RevwalkReset implements native.Engine.
func (f *Fake) RevwalkReset(walk native.Raw) native.Status {
	if st, failed := f.enter("RevwalkReset"); failed {
		return st
	}
	if !f.check(walk, "revwalk") {
		return f.badHandle("revwalk")
	}
	f.mu.Lock()
	delete(f.walkPending, walk)
	f.mu.Unlock()
	return f.ok()
}

// RevwalkNext implements native.Engine. Pushed ids are yielded in order;
// parent traversal is out of the fake's scope.
func (f *Fake) RevwalkNext(walk native.Raw) (native.Oid, native.Status) {
	if st, failed := f.enter("RevwalkNext"); failed {
		return native.Oid{}, st
	}
	if !f.check(walk, "revwalk") {
		return native.Oid{}, f.badHandle("revwalk")
	}
	f.mu.Lock()
	pending := f.walkPending[walk]
	if len(pending) == 0 {
		f.mu.Unlock()
		return native.Oid{}, native.ErrIterOver
	}
	id := pending[0]
	f.walkPending[walk] = pending[1:]
	f.mu.Unlock()
	return id, f.ok()
}
