package gitnative

import (
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// Object is a loaded object of any kind. Typed accessors re-lookup through
// the repository, so a typed value owns its own handle independent of the
// Object it came from.
type Object struct {
	repo *Repository
	h    *handle
	kind ObjectKind
	id   Oid
}

// wrapObject takes ownership of a freshly looked-up raw object handle,
// capturing its kind and id. The raw is freed on failure.
func (r *Repository) wrapObject(raw native.Raw) (*Object, error) {
	kind, st := r.eng.ObjectKind(raw)
	if st != native.OK {
		err := translate(r.eng, st)
		_ = r.eng.ObjectFree(raw)
		return nil, err
	}
	id, st := r.eng.ObjectID(raw)
	if st != native.OK {
		err := translate(r.eng, st)
		_ = r.eng.ObjectFree(raw)
		return nil, err
	}
	return &Object{
		repo: r,
		h:    newHandle(r.eng, raw, "object", r.eng.ObjectFree, r.h),
		kind: kind,
		id:   id,
	}, nil
}

// lookupObject performs a kind-checked lookup, failing with CodeTypeMismatch
// when the stored object has a different kind than required.
func (r *Repository) lookupObject(id Oid, kind ObjectKind) (*Object, error) {
	if err := r.h.use(); err != nil {
		return nil, err
	}
	raw, st := r.eng.ObjectLookup(r.h.mustRaw(), id, kind)
	if st != native.OK {
		return nil, WrapErrorf(translate(r.eng, st), "lookup %s %s", kind, id)
	}
	return r.wrapObject(raw)
}

// FindObject loads the object with the given id. kind restricts the lookup;
// ObjectAny accepts whatever is stored.
func (r *Repository) FindObject(id Oid, kind ObjectKind) (*Object, error) {
	return r.lookupObject(id, kind)
}

// ID returns the object's content hash.
func (o *Object) ID() Oid { return o.id }

// Kind returns the object's stored kind.
func (o *Object) Kind() ObjectKind { return o.kind }

// Close releases the object handle. Idempotent.
func (o *Object) Close() error { return o.h.close() }

// typeMismatch builds the error for a peel to the wrong kind.
func (o *Object) typeMismatch(want ObjectKind) error {
	return &Error{
		Class:   native.ClassObject,
		Code:    CodeTypeMismatch,
		Message: fmt.Sprintf("object %s is a %s, not a %s", o.id, o.kind, want),
	}
}

// AsCommit returns the commit view of the object. The result owns a fresh
// handle; closing it does not affect the Object.
func (o *Object) AsCommit() (*Commit, error) {
	if err := o.h.use(); err != nil {
		return nil, err
	}
	if o.kind != ObjectCommit {
		return nil, o.typeMismatch(ObjectCommit)
	}
	return o.repo.FindCommit(o.id)
}

// AsTree returns the tree view of the object.
func (o *Object) AsTree() (*Tree, error) {
	if err := o.h.use(); err != nil {
		return nil, err
	}
	if o.kind != ObjectTree {
		return nil, o.typeMismatch(ObjectTree)
	}
	return o.repo.FindTree(o.id)
}

// AsBlob returns the blob view of the object.
func (o *Object) AsBlob() (*Blob, error) {
	if err := o.h.use(); err != nil {
		return nil, err
	}
	if o.kind != ObjectBlob {
		return nil, o.typeMismatch(ObjectBlob)
	}
	return o.repo.FindBlob(o.id)
}

// AsTag returns the annotated-tag view of the object.
func (o *Object) AsTag() (*Tag, error) {
	if err := o.h.use(); err != nil {
		return nil, err
	}
	if o.kind != ObjectTag {
		return nil, o.typeMismatch(ObjectTag)
	}
	return o.repo.FindTag(o.id)
}
