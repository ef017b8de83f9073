package gitnative

import (
	"errors"
	"fmt"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// maxSymbolicHops bounds symbolic reference resolution. A chain longer than
// this, cycles included, fails with CodeReferenceInvalid.
const maxSymbolicHops = 5

// Reference is a value snapshot of one reference at lookup time. It holds no
// handle; a concurrent writer may move the stored reference after the
// snapshot is taken, which SetTarget detects.
type Reference struct {
	name       string
	symbolic   bool
	targetID   Oid
	targetName string
}

// Name returns the full reference name, e.g. "refs/heads/main".
func (r *Reference) Name() string { return r.name }

// IsSymbolic reports whether the reference points at another reference
// rather than directly at an object.
func (r *Reference) IsSymbolic() bool { return r.symbolic }

// Target returns the object id of a direct reference; the zero Oid for a
// symbolic one.
func (r *Reference) Target() Oid { return r.targetID }

// SymbolicTarget returns the referenced name of a symbolic reference; ""
// for a direct one.
func (r *Reference) SymbolicTarget() string { return r.targetName }

// ReferenceStore is the reference namespace of one repository. It borrows
// the repository handle; operations fail with CodeHandleReleased after the
// repository is closed.
type ReferenceStore struct {
	repo *Repository
}

func refFromInfo(info native.RefInfo) *Reference {
	return &Reference{
		name:       info.Name,
		symbolic:   info.Symbolic,
		targetID:   info.TargetID,
		targetName: info.TargetName,
	}
}

// Lookup returns a snapshot of the named reference without following
// symbolic targets.
func (s *ReferenceStore) Lookup(name string) (*Reference, error) {
	if err := s.repo.h.use(); err != nil {
		return nil, err
	}
	info, st := s.repo.eng.ReferenceLookup(s.repo.h.mustRaw(), name)
	if st != native.OK {
		return nil, WrapErrorf(translate(s.repo.eng, st), "lookup %q", name)
	}
	return refFromInfo(info), nil
}

// List returns all reference names, sorted.
func (s *ReferenceStore) List() ([]string, error) {
	if err := s.repo.h.use(); err != nil {
		return nil, err
	}
	names, st := s.repo.eng.ReferenceList(s.repo.h.mustRaw())
	if st != native.OK {
		return nil, translate(s.repo.eng, st)
	}
	return names, nil
}

// Resolve follows the symbolic chain from name to its terminal direct
// reference. At most maxSymbolicHops links are followed; a cycle or a longer
// chain fails with CodeReferenceInvalid. A chain that dangles at a missing
// local branch fails with CodeUnbornBranch, the state of HEAD in a
// repository with no commits; a missing starting name is plain CodeNotFound.
func (s *ReferenceStore) Resolve(name string) (*Reference, error) {
	if err := s.repo.h.use(); err != nil {
		return nil, err
	}
	current := name
	for hop := 0; hop <= maxSymbolicHops; hop++ {
		info, st := s.repo.eng.ReferenceLookup(s.repo.h.mustRaw(), current)
		if st != native.OK {
			err := translate(s.repo.eng, st)
			if hop > 0 && isLocalBranch(current) && isNotFound(err) {
				return nil, &Error{
					Class:   native.ClassReference,
					Code:    CodeUnbornBranch,
					Message: fmt.Sprintf("reference %q points at unborn branch %q", name, current),
				}
			}
			return nil, WrapErrorf(err, "resolve %q", name)
		}
		if !info.Symbolic {
			return refFromInfo(info), nil
		}
		current = info.TargetName
	}
	return nil, &Error{
		Class:   native.ClassReference,
		Code:    CodeReferenceInvalid,
		Message: fmt.Sprintf("resolving %q exceeded %d symbolic hops", name, maxSymbolicHops),
	}
}

func isLocalBranch(name string) bool {
	return strings.HasPrefix(name, "refs/heads/")
}

func isNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeNotFound
}

// SetTarget points the named direct reference at target. Without force, an
// existing reference already pointing elsewhere fails with CodeExists; the
// update is a compare-and-swap in the engine, so a concurrent writer cannot
// be overwritten silently.
func (s *ReferenceStore) SetTarget(name string, target Oid, force bool) error {
	if err := s.repo.h.use(); err != nil {
		return err
	}
	st := s.repo.eng.ReferenceCreate(s.repo.h.mustRaw(), name, target, force)
	if st != native.OK {
		return WrapErrorf(translate(s.repo.eng, st), "set %q", name)
	}
	return nil
}

// SetSymbolicTarget points the named symbolic reference at another reference
// name, with the same force contract as SetTarget.
func (s *ReferenceStore) SetSymbolicTarget(name, target string, force bool) error {
	if err := s.repo.h.use(); err != nil {
		return err
	}
	st := s.repo.eng.ReferenceSymbolicCreate(s.repo.h.mustRaw(), name, target, force)
	if st != native.OK {
		return WrapErrorf(translate(s.repo.eng, st), "set %q", name)
	}
	return nil
}

// Delete removes the named reference, CodeNotFound when absent.
func (s *ReferenceStore) Delete(name string) error {
	if err := s.repo.h.use(); err != nil {
		return err
	}
	st := s.repo.eng.ReferenceRemove(s.repo.h.mustRaw(), name)
	if st != native.OK {
		return WrapErrorf(translate(s.repo.eng, st), "delete %q", name)
	}
	return nil
}
