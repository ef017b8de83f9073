package gogit

import (
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

func oidFromHash(h plumbing.Hash) native.Oid {
	return native.NewOid(h[:])
}

func hashFromOid(id native.Oid) plumbing.Hash {
	var h plumbing.Hash
	copy(h[:], id.Bytes())
	return h
}

func kindFromType(t plumbing.ObjectType) native.Kind {
	switch t {
	case plumbing.CommitObject:
		return native.KindCommit
	case plumbing.TreeObject:
		return native.KindTree
	case plumbing.BlobObject:
		return native.KindBlob
	case plumbing.TagObject:
		return native.KindTag
	default:
		return native.KindAny
	}
}

func sigFromObject(s object.Signature) native.Signature {
	return native.Signature{Name: s.Name, Email: s.Email, When: s.When}
}

func sigToObject(s native.Signature) object.Signature {
	return object.Signature{Name: s.Name, Email: s.Email, When: s.When}
}

// loadObject reads one object from the database and wraps it in a handle.
func (e *Engine) loadObject(r *repoHandle, h plumbing.Hash) (*objectHandle, error) {
	obj, err := object.GetObject(r.repo.Storer, h)
	if err != nil {
		return nil, err
	}
	oh := &objectHandle{repo: r, id: oidFromHash(h), kind: kindFromType(obj.Type())}
	switch o := obj.(type) {
	case *object.Commit:
		oh.commit = o
	case *object.Tree:
		oh.tree = o
	case *object.Blob:
		oh.blob = o
	case *object.Tag:
		oh.tag = o
	default:
		return nil, fmt.Errorf("unsupported object type %s", obj.Type())
	}
	return oh, nil
}

// ObjectLookup implements native.Engine. When kind is not KindAny and the
// stored object has a different kind, the lookup fails with ErrTypeMismatch
// rather than reinterpreting the handle.
func (e *Engine) ObjectLookup(repo native.Raw, id native.Oid, kind native.Kind) (native.Raw, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return 0, st
	}
	oh, err := e.loadObject(r, hashFromOid(id))
	if err != nil {
		return 0, e.failErr(native.ClassObject, err)
	}
	if kind != native.KindAny && oh.kind != kind {
		return 0, e.fail(native.ClassObject, native.ErrTypeMismatch,
			fmt.Sprintf("object %s is a %s, not a %s", id, oh.kind, kind))
	}
	raw := e.put(oh)
	e.ok()
	return raw, native.OK
}

func (e *Engine) objectOf(raw native.Raw) (*objectHandle, native.Status) {
	h, ok := e.get(raw)
	if !ok {
		return nil, e.fail(native.ClassObject, native.ErrInvalidSpec, "invalid object handle")
	}
	oh, ok := h.(*objectHandle)
	if !ok {
		return nil, e.fail(native.ClassObject, native.ErrInvalidSpec, "handle is not an object")
	}
	return oh, native.OK
}

// ObjectKind implements native.Engine.
func (e *Engine) ObjectKind(obj native.Raw) (native.Kind, native.Status) {
	oh, st := e.objectOf(obj)
	if st != native.OK {
		return native.KindAny, st
	}
	return oh.kind, e.ok()
}

// ObjectID implements native.Engine.
func (e *Engine) ObjectID(obj native.Raw) (native.Oid, native.Status) {
	oh, st := e.objectOf(obj)
	if st != native.OK {
		return native.Oid{}, st
	}
	return oh.id, e.ok()
}

// ObjectFree implements native.Engine.
func (e *Engine) ObjectFree(obj native.Raw) native.Status {
	if !e.drop(obj) {
		return e.fail(native.ClassObject, native.ErrInvalidSpec, "invalid object handle")
	}
	return e.ok()
}

// BlobCreate implements native.Engine. Writing identical content twice
// produces the same id; the store is content addressed.
func (e *Engine) BlobCreate(repo native.Raw, data []byte) (native.Oid, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return native.Oid{}, st
	}
	enc := r.repo.Storer.NewEncodedObject()
	enc.SetType(plumbing.BlobObject)
	enc.SetSize(int64(len(data)))
	w, err := enc.Writer()
	if err != nil {
		return native.Oid{}, e.failErr(native.ClassObject, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return native.Oid{}, e.failErr(native.ClassObject, err)
	}
	if err := w.Close(); err != nil {
		return native.Oid{}, e.failErr(native.ClassObject, err)
	}
	h, err := r.repo.Storer.SetEncodedObject(enc)
	if err != nil {
		return native.Oid{}, e.failErr(native.ClassObject, err)
	}
	e.ok()
	return oidFromHash(h), native.OK
}

// BlobCreateFromPath implements native.Engine, reading path from the
// repository worktree.
func (e *Engine) BlobCreateFromPath(repo native.Raw, path string) (native.Oid, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return native.Oid{}, st
	}
	if r.worktree == nil {
		return native.Oid{}, e.fail(native.ClassRepository, native.ErrGeneric,
			"bare repository has no worktree")
	}
	data, err := util.ReadFile(r.worktree, path)
	if err != nil {
		return native.Oid{}, e.fail(native.ClassOS, native.ErrNotFound, err.Error())
	}
	return e.BlobCreate(repo, data)
}

// BlobContent implements native.Engine.
func (e *Engine) BlobContent(obj native.Raw) ([]byte, native.Status) {
	oh, st := e.objectOf(obj)
	if st != native.OK {
		return nil, st
	}
	if oh.blob == nil {
		return nil, e.fail(native.ClassObject, native.ErrTypeMismatch, "object is not a blob")
	}
	rd, err := oh.blob.Reader()
	if err != nil {
		return nil, e.failErr(native.ClassObject, err)
	}
	defer rd.Close()
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, e.failErr(native.ClassObject, err)
	}
	e.ok()
	return data, native.OK
}

// CommitCreate implements native.Engine. When updateRef is non-empty the
// named reference is moved to the new commit; a symbolic updateRef (commonly
// HEAD) moves the branch it points at, creating it for an unborn branch.
func (e *Engine) CommitCreate(repo native.Raw, updateRef string, author, committer native.Signature,
	message string, tree native.Oid, parents []native.Oid,
) (native.Oid, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return native.Oid{}, st
	}
	commit := &object.Commit{
		Author:    sigToObject(author),
		Committer: sigToObject(committer),
		Message:   message,
		TreeHash:  hashFromOid(tree),
	}
	for _, p := range parents {
		commit.ParentHashes = append(commit.ParentHashes, hashFromOid(p))
	}
	enc := r.repo.Storer.NewEncodedObject()
	if err := commit.Encode(enc); err != nil {
		return native.Oid{}, e.failErr(native.ClassObject, err)
	}
	h, err := r.repo.Storer.SetEncodedObject(enc)
	if err != nil {
		return native.Oid{}, e.failErr(native.ClassObject, err)
	}
	if updateRef != "" {
		name := plumbing.ReferenceName(updateRef)
		if ref, lookErr := r.repo.Storer.Reference(name); lookErr == nil && ref.Type() == plumbing.SymbolicReference {
			name = ref.Target()
		}
		if err := r.repo.Storer.SetReference(plumbing.NewHashReference(name, h)); err != nil {
			return native.Oid{}, e.failErr(native.ClassReference, err)
		}
	}
	e.ok()
	return oidFromHash(h), native.OK
}

// CommitInfo implements native.Engine.
func (e *Engine) CommitInfo(obj native.Raw) (native.CommitInfo, native.Status) {
	oh, st := e.objectOf(obj)
	if st != native.OK {
		return native.CommitInfo{}, st
	}
	if oh.commit == nil {
		return native.CommitInfo{}, e.fail(native.ClassObject, native.ErrTypeMismatch, "object is not a commit")
	}
	info := native.CommitInfo{
		TreeID:    oidFromHash(oh.commit.TreeHash),
		Author:    sigFromObject(oh.commit.Author),
		Committer: sigFromObject(oh.commit.Committer),
		Message:   oh.commit.Message,
	}
	for _, p := range oh.commit.ParentHashes {
		info.ParentIDs = append(info.ParentIDs, oidFromHash(p))
	}
	e.ok()
	return info, native.OK
}

func (e *Engine) treeOf(obj native.Raw) (*objectHandle, native.Status) {
	oh, st := e.objectOf(obj)
	if st != native.OK {
		return nil, st
	}
	if oh.tree == nil {
		return nil, e.fail(native.ClassObject, native.ErrTypeMismatch, "object is not a tree")
	}
	return oh, native.OK
}

func nativeTreeEntry(te object.TreeEntry) native.TreeEntry {
	kind := native.KindBlob
	switch te.Mode {
	case filemode.Dir:
		kind = native.KindTree
	case filemode.Submodule:
		kind = native.KindCommit
	}
	return native.TreeEntry{
		Name: te.Name,
		ID:   oidFromHash(te.Hash),
		Mode: uint32(te.Mode),
		Kind: kind,
	}
}

// TreeEntryCount implements native.Engine.
func (e *Engine) TreeEntryCount(obj native.Raw) (int, native.Status) {
	oh, st := e.treeOf(obj)
	if st != native.OK {
		return 0, st
	}
	n := len(oh.tree.Entries)
	e.ok()
	return n, native.OK
}

// TreeEntryByIndex implements native.Engine.
func (e *Engine) TreeEntryByIndex(obj native.Raw, i int) (native.TreeEntry, native.Status) {
	oh, st := e.treeOf(obj)
	if st != native.OK {
		return native.TreeEntry{}, st
	}
	if i < 0 || i >= len(oh.tree.Entries) {
		return native.TreeEntry{}, e.fail(native.ClassObject, native.ErrNotFound,
			fmt.Sprintf("tree entry index %d out of range", i))
	}
	e.ok()
	return nativeTreeEntry(oh.tree.Entries[i]), native.OK
}

// TreeEntryByName implements native.Engine.
func (e *Engine) TreeEntryByName(obj native.Raw, name string) (native.TreeEntry, native.Status) {
	oh, st := e.treeOf(obj)
	if st != native.OK {
		return native.TreeEntry{}, st
	}
	for _, te := range oh.tree.Entries {
		if te.Name == name {
			e.ok()
			return nativeTreeEntry(te), native.OK
		}
	}
	return native.TreeEntry{}, e.fail(native.ClassObject, native.ErrNotFound,
		fmt.Sprintf("no tree entry named %q", name))
}

// TagCreate implements native.Engine. It writes an annotated tag object and
// points refs/tags/<name> at it.
func (e *Engine) TagCreate(repo native.Raw, name string, target native.Oid, tagger native.Signature,
	message string, force bool,
) (native.Oid, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return native.Oid{}, st
	}
	refName := plumbing.NewTagReferenceName(name)
	if !force {
		if _, err := r.repo.Storer.Reference(refName); err == nil {
			return native.Oid{}, e.fail(native.ClassReference, native.ErrExists,
				fmt.Sprintf("tag %q already exists", name))
		}
	}
	targetObj, err := object.GetObject(r.repo.Storer, hashFromOid(target))
	if err != nil {
		return native.Oid{}, e.failErr(native.ClassObject, err)
	}
	tag := &object.Tag{
		Name:       name,
		Tagger:     sigToObject(tagger),
		Message:    message,
		TargetType: targetObj.Type(),
		Target:     hashFromOid(target),
	}
	enc := r.repo.Storer.NewEncodedObject()
	if err := tag.Encode(enc); err != nil {
		return native.Oid{}, e.failErr(native.ClassObject, err)
	}
	h, err := r.repo.Storer.SetEncodedObject(enc)
	if err != nil {
		return native.Oid{}, e.failErr(native.ClassObject, err)
	}
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(refName, h)); err != nil {
		return native.Oid{}, e.failErr(native.ClassReference, err)
	}
	e.ok()
	return oidFromHash(h), native.OK
}

// TagInfo implements native.Engine.
func (e *Engine) TagInfo(obj native.Raw) (native.TagInfo, native.Status) {
	oh, st := e.objectOf(obj)
	if st != native.OK {
		return native.TagInfo{}, st
	}
	if oh.tag == nil {
		return native.TagInfo{}, e.fail(native.ClassObject, native.ErrTypeMismatch, "object is not a tag")
	}
	e.ok()
	return native.TagInfo{
		Name:       oh.tag.Name,
		TargetID:   oidFromHash(oh.tag.Target),
		TargetKind: kindFromType(oh.tag.TargetType),
		Tagger:     sigFromObject(oh.tag.Tagger),
		Message:    oh.tag.Message,
	}, native.OK
}

// RevparseSingle implements native.Engine.
func (e *Engine) RevparseSingle(repo native.Raw, spec string) (native.Raw, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return 0, st
	}
	if spec == "" {
		return 0, e.fail(native.ClassInvalid, native.ErrInvalidSpec, "empty revision specifier")
	}
	h, err := r.repo.ResolveRevision(plumbing.Revision(spec))
	if err != nil {
		return 0, e.fail(native.ClassInvalid, native.ErrNotFound,
			fmt.Sprintf("cannot resolve %q: %s", spec, err))
	}
	oh, err := e.loadObject(r, *h)
	if err != nil {
		return 0, e.failErr(native.ClassObject, err)
	}
	raw := e.put(oh)
	e.ok()
	return raw, native.OK
}
