package gitnative

import (
	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// Tag is a loaded annotated tag object. The header fields are captured at
// lookup time.
type Tag struct {
	*Object
	info native.TagInfo
}

// FindTag loads the annotated tag with the given id.
func (r *Repository) FindTag(id Oid) (*Tag, error) {
	if err := r.h.use(); err != nil {
		return nil, err
	}
	raw, st := r.eng.ObjectLookup(r.h.mustRaw(), id, native.KindTag)
	if st != native.OK {
		return nil, WrapErrorf(translate(r.eng, st), "lookup tag %s", id)
	}
	obj, err := r.wrapObject(raw)
	if err != nil {
		return nil, err
	}
	info, st := r.eng.TagInfo(obj.h.mustRaw())
	if st != native.OK {
		err := translate(r.eng, st)
		_ = obj.Close()
		return nil, err
	}
	return &Tag{Object: obj, info: info}, nil
}

// Name returns the tag name without the refs/tags/ prefix.
func (t *Tag) Name() string { return t.info.Name }

// Message returns the tag message.
func (t *Tag) Message() string { return t.info.Message }

// Tagger returns the tagger signature.
func (t *Tag) Tagger() Signature { return t.info.Tagger }

// TargetID returns the id of the tagged object.
func (t *Tag) TargetID() Oid { return t.info.TargetID }

// TargetKind returns the kind of the tagged object.
func (t *Tag) TargetKind() ObjectKind { return t.info.TargetKind }

// Target loads the tagged object.
func (t *Tag) Target() (*Object, error) {
	if err := t.h.use(); err != nil {
		return nil, err
	}
	return t.repo.FindObject(t.info.TargetID, ObjectAny)
}
