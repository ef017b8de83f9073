package gogit

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// validRefName performs the structural checks the engine applies before
// touching reference storage.
func validRefName(name string) bool {
	if name == "" || strings.HasSuffix(name, "/") || strings.Contains(name, "..") {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r == ' ' || r == '~' || r == '^' || r == ':' || r == '?' || r == '*' || r == '[' {
			return false
		}
	}
	return true
}

// ReferenceLookup implements native.Engine. Symbolic references are returned
// as stored, without resolving the chain; chain walking belongs to the caller.
func (e *Engine) ReferenceLookup(repo native.Raw, name string) (native.RefInfo, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return native.RefInfo{}, st
	}
	if !validRefName(name) {
		return native.RefInfo{}, e.fail(native.ClassReference, native.ErrInvalidSpec,
			fmt.Sprintf("invalid reference name %q", name))
	}
	ref, err := r.repo.Storer.Reference(plumbing.ReferenceName(name))
	if err != nil {
		return native.RefInfo{}, e.fail(native.ClassReference, native.ErrNotFound,
			fmt.Sprintf("reference %q not found", name))
	}
	info := native.RefInfo{Name: name}
	if ref.Type() == plumbing.SymbolicReference {
		info.Symbolic = true
		info.TargetName = string(ref.Target())
	} else {
		info.TargetID = oidFromHash(ref.Hash())
	}
	e.ok()
	return info, native.OK
}

// ReferenceList implements native.Engine. Names are returned sorted.
func (e *Engine) ReferenceList(repo native.Raw) ([]string, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return nil, st
	}
	iter, err := r.repo.Storer.IterReferences()
	if err != nil {
		return nil, e.failErr(native.ClassReference, err)
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, string(ref.Name()))
		return nil
	})
	if err != nil {
		return nil, e.failErr(native.ClassReference, err)
	}
	e.ok()
	return sortedStrings(names), native.OK
}

// ReferenceCreate implements native.Engine. Without force, an existing
// reference with a different target fails with ErrExists; the update is a
// compare-and-swap against the previously observed value so a concurrent
// writer cannot be clobbered silently.
func (e *Engine) ReferenceCreate(repo native.Raw, name string, target native.Oid, force bool) native.Status {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return st
	}
	if !validRefName(name) {
		return e.fail(native.ClassReference, native.ErrInvalidSpec,
			fmt.Sprintf("invalid reference name %q", name))
	}
	refName := plumbing.ReferenceName(name)
	newRef := plumbing.NewHashReference(refName, hashFromOid(target))
	old, err := r.repo.Storer.Reference(refName)
	if err != nil {
		old = nil
	}
	if !force && old != nil {
		if old.Type() != plumbing.HashReference || old.Hash() != hashFromOid(target) {
			return e.fail(native.ClassReference, native.ErrExists,
				fmt.Sprintf("reference %q already exists", name))
		}
	}
	if err := r.repo.Storer.CheckAndSetReference(newRef, old); err != nil {
		return e.failErr(native.ClassReference, err)
	}
	return e.ok()
}

// ReferenceSymbolicCreate implements native.Engine.
func (e *Engine) ReferenceSymbolicCreate(repo native.Raw, name, target string, force bool) native.Status {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return st
	}
	if !validRefName(name) || !validRefName(target) {
		return e.fail(native.ClassReference, native.ErrInvalidSpec,
			fmt.Sprintf("invalid reference name %q -> %q", name, target))
	}
	refName := plumbing.ReferenceName(name)
	if !force {
		if _, err := r.repo.Storer.Reference(refName); err == nil {
			return e.fail(native.ClassReference, native.ErrExists,
				fmt.Sprintf("reference %q already exists", name))
		}
	}
	ref := plumbing.NewSymbolicReference(refName, plumbing.ReferenceName(target))
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return e.failErr(native.ClassReference, err)
	}
	return e.ok()
}

// ReferenceRemove implements native.Engine.
func (e *Engine) ReferenceRemove(repo native.Raw, name string) native.Status {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return st
	}
	refName := plumbing.ReferenceName(name)
	if _, err := r.repo.Storer.Reference(refName); err != nil {
		return e.fail(native.ClassReference, native.ErrNotFound,
			fmt.Sprintf("reference %q not found", name))
	}
	if err := r.repo.Storer.RemoveReference(refName); err != nil {
		return e.failErr(native.ClassReference, err)
	}
	return e.ok()
}

// ConfigOpen implements native.Engine.
func (e *Engine) ConfigOpen(repo native.Raw) (native.Raw, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return 0, st
	}
	raw := e.put(&configHandle{repo: r})
	e.ok()
	return raw, native.OK
}

func (e *Engine) configOf(raw native.Raw) (*configHandle, native.Status) {
	h, ok := e.get(raw)
	if !ok {
		return nil, e.fail(native.ClassConfig, native.ErrInvalidSpec, "invalid config handle")
	}
	ch, ok := h.(*configHandle)
	if !ok {
		return nil, e.fail(native.ClassConfig, native.ErrInvalidSpec, "handle is not a config")
	}
	return ch, native.OK
}

// ConfigFree implements native.Engine.
func (e *Engine) ConfigFree(cfg native.Raw) native.Status {
	if !e.drop(cfg) {
		return e.fail(native.ClassConfig, native.ErrInvalidSpec, "invalid config handle")
	}
	return e.ok()
}

// ConfigGet implements native.Engine. Names use git's dotted form, e.g.
// "user.name" or "branch.main.remote".
func (e *Engine) ConfigGet(cfg native.Raw, name string) (string, native.Status) {
	ch, st := e.configOf(cfg)
	if st != native.OK {
		return "", st
	}
	section, subsection, key, ok := splitConfigName(name)
	if !ok {
		return "", e.fail(native.ClassConfig, native.ErrInvalidSpec,
			fmt.Sprintf("invalid config name %q", name))
	}
	conf, err := ch.repo.repo.Storer.Config()
	if err != nil {
		return "", e.failErr(native.ClassConfig, err)
	}
	sec := conf.Raw.Section(section)
	opts := sec.Options
	if subsection != "" {
		opts = sec.Subsection(subsection).Options
	}
	for _, opt := range opts {
		if opt.IsKey(key) {
			e.ok()
			return opt.Value, native.OK
		}
	}
	return "", e.fail(native.ClassConfig, native.ErrNotFound,
		fmt.Sprintf("config value %q is not set", name))
}

// ConfigSet implements native.Engine.
func (e *Engine) ConfigSet(cfg native.Raw, name, value string) native.Status {
	ch, st := e.configOf(cfg)
	if st != native.OK {
		return st
	}
	section, subsection, key, ok := splitConfigName(name)
	if !ok {
		return e.fail(native.ClassConfig, native.ErrInvalidSpec,
			fmt.Sprintf("invalid config name %q", name))
	}
	conf, err := ch.repo.repo.Storer.Config()
	if err != nil {
		return e.failErr(native.ClassConfig, err)
	}
	if subsection != "" {
		conf.Raw.Section(section).Subsection(subsection).SetOption(key, value)
	} else {
		conf.Raw.Section(section).SetOption(key, value)
	}
	if err := ch.repo.repo.Storer.SetConfig(conf); err != nil {
		return e.failErr(native.ClassConfig, err)
	}
	return e.ok()
}

// ConfigDelete implements native.Engine.
func (e *Engine) ConfigDelete(cfg native.Raw, name string) native.Status {
	ch, st := e.configOf(cfg)
	if st != native.OK {
		return st
	}
	section, subsection, key, ok := splitConfigName(name)
	if !ok {
		return e.fail(native.ClassConfig, native.ErrInvalidSpec,
			fmt.Sprintf("invalid config name %q", name))
	}
	conf, err := ch.repo.repo.Storer.Config()
	if err != nil {
		return e.failErr(native.ClassConfig, err)
	}
	if subsection != "" {
		conf.Raw.Section(section).Subsection(subsection).RemoveOption(key)
	} else {
		conf.Raw.Section(section).RemoveOption(key)
	}
	if err := ch.repo.repo.Storer.SetConfig(conf); err != nil {
		return e.failErr(native.ClassConfig, err)
	}
	return e.ok()
}
