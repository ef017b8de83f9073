package gitnative

import (
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// Commit is a loaded commit object. The header fields are captured at lookup
// time; accessors that reach back into the object database (Tree, Parent)
// validate the handle chain first.
type Commit struct {
	*Object
	info native.CommitInfo
}

// FindCommit loads the commit with the given id, failing with
// CodeTypeMismatch when the object is of another kind.
func (r *Repository) FindCommit(id Oid) (*Commit, error) {
	if err := r.h.use(); err != nil {
		return nil, err
	}
	raw, st := r.eng.ObjectLookup(r.h.mustRaw(), id, native.KindCommit)
	if st != native.OK {
		return nil, WrapErrorf(translate(r.eng, st), "lookup commit %s", id)
	}
	obj, err := r.wrapObject(raw)
	if err != nil {
		return nil, err
	}
	info, st := r.eng.CommitInfo(obj.h.mustRaw())
	if st != native.OK {
		err := translate(r.eng, st)
		_ = obj.Close()
		return nil, err
	}
	return &Commit{Object: obj, info: info}, nil
}

// TreeID returns the id of the commit's root tree.
func (c *Commit) TreeID() Oid { return c.info.TreeID }

// Tree loads the commit's root tree.
func (c *Commit) Tree() (*Tree, error) {
	if err := c.h.use(); err != nil {
		return nil, err
	}
	return c.repo.FindTree(c.info.TreeID)
}

// ParentCount returns the number of parents: 0 for a root commit, 2 or more
// for merges.
func (c *Commit) ParentCount() int { return len(c.info.ParentIDs) }

// ParentIDs returns the parent commit ids in order.
func (c *Commit) ParentIDs() []Oid {
	return append([]Oid(nil), c.info.ParentIDs...)
}

// Parent loads the i-th parent commit.
func (c *Commit) Parent(i int) (*Commit, error) {
	if err := c.h.use(); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(c.info.ParentIDs) {
		return nil, &Error{
			Class:   native.ClassObject,
			Code:    CodeNotFound,
			Message: fmt.Sprintf("commit %s has no parent %d", c.id, i),
		}
	}
	return c.repo.FindCommit(c.info.ParentIDs[i])
}

// Message returns the full commit message.
func (c *Commit) Message() string { return c.info.Message }

// Author returns the author signature.
func (c *Commit) Author() Signature { return c.info.Author }

// Committer returns the committer signature.
func (c *Commit) Committer() Signature { return c.info.Committer }
