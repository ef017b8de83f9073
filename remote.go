package gitnative

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// RemoteStore is the remote namespace of one repository. It borrows the
// repository handle.
type RemoteStore struct {
	repo *Repository
}

// Remote is a configured remote. It holds no engine handle; transfer
// operations validate the repository on use.
type Remote struct {
	repo *Repository
	name string
	urls []string
}

// Name returns the remote's configured name.
func (r *Remote) Name() string { return r.name }

// URLs returns the remote's fetch URLs.
func (r *Remote) URLs() []string {
	return append([]string(nil), r.urls...)
}

// List returns the configured remote names, sorted.
func (s *RemoteStore) List() ([]string, error) {
	if err := s.repo.h.use(); err != nil {
		return nil, err
	}
	names, st := s.repo.eng.RemoteList(s.repo.h.mustRaw())
	if st != native.OK {
		return nil, translate(s.repo.eng, st)
	}
	return names, nil
}

// Create adds a remote, CodeExists when the name is taken.
func (s *RemoteStore) Create(name, url string) (*Remote, error) {
	if err := s.repo.h.use(); err != nil {
		return nil, err
	}
	st := s.repo.eng.RemoteCreate(s.repo.h.mustRaw(), name, url)
	if st != native.OK {
		return nil, WrapErrorf(translate(s.repo.eng, st), "create remote %q", name)
	}
	return &Remote{repo: s.repo, name: name, urls: []string{url}}, nil
}

// Lookup returns the named remote, CodeNotFound when absent.
func (s *RemoteStore) Lookup(name string) (*Remote, error) {
	if err := s.repo.h.use(); err != nil {
		return nil, err
	}
	info, st := s.repo.eng.RemoteLookup(s.repo.h.mustRaw(), name)
	if st != native.OK {
		return nil, WrapErrorf(translate(s.repo.eng, st), "lookup remote %q", name)
	}
	return &Remote{repo: s.repo, name: info.Name, urls: info.URLs}, nil
}

// Fetch downloads objects and references from the remote. Cancelling ctx
// aborts the transfer with CodeCancelled; an already up-to-date remote is a
// success. A nil opts selects the defaults.
func (r *Remote) Fetch(ctx context.Context, opts *FetchOptions) error {
	if err := r.repo.h.use(); err != nil {
		return err
	}
	if opts == nil {
		opts = &FetchOptions{}
	}
	nopts := native.FetchOptions{Depth: opts.Depth}
	if opts.Credentials != nil {
		nopts.Credentials = opts.Credentials
	}
	if opts.Progress != nil {
		nopts.Progress = opts.Progress
	}
	if ctx != nil && ctx.Done() != nil {
		nopts.Cancel = func() bool { return ctx.Err() != nil }
	}
	st := r.repo.eng.RemoteFetch(r.repo.h.mustRaw(), r.name, nopts)
	if st != native.OK {
		return WrapErrorf(translate(r.repo.eng, st), "fetch %q", r.name)
	}
	return nil
}
