package gogit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// cancelPollInterval is how often a caller-supplied cancel callback is
// polled during a transfer.
const cancelPollInterval = 50 * time.Millisecond

// progressWriter adapts go-git's sideband progress stream to the ABI's
// progress callback.
type progressWriter struct {
	op    string
	total int
	cb    func(op string, current, total int)
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.total += len(p)
	if w.cb != nil {
		w.cb(w.op, w.total, 0)
	}
	return len(p), nil
}

// callbackContext wires a polling cancel callback into a context. The
// returned stop function must be called when the operation finishes.
func callbackContext(cancelFn func() bool) (context.Context, func()) {
	if cancelFn == nil {
		return context.Background(), func() {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cancelPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if cancelFn() {
					cancel()
					return
				}
			}
		}
	}()
	return ctx, func() {
		cancel()
		close(done)
	}
}

func authFor(url string, creds func(url, usernameFromURL string) (native.Userpass, error)) (transport.AuthMethod, error) {
	if creds == nil {
		return nil, nil
	}
	up, err := creds(url, "")
	if err != nil {
		return nil, err
	}
	if up.Username == "" && up.Password == "" {
		return nil, nil
	}
	return &githttp.BasicAuth{Username: up.Username, Password: up.Password}, nil
}

// transferStatus classifies a failed transfer, distinguishing caller
// cancellation from transport failures.
func (e *Engine) transferStatus(err error, cancelled func() bool) native.Status {
	if errors.Is(err, context.Canceled) || (cancelled != nil && cancelled()) {
		return e.fail(native.ClassCallback, native.ErrCancelled, "operation cancelled by caller")
	}
	st := statusFromError(err)
	if st == native.ErrAuth {
		return e.fail(native.ClassNet, native.ErrAuth, err.Error())
	}
	return e.fail(native.ClassNet, st, err.Error())
}

// RepositoryClone implements native.Engine. On failure any partial on-disk
// state is left in place for the caller to clean up.
func (e *Engine) RepositoryClone(url, path string, opts native.CloneOptions) (native.Raw, native.Status) {
	root, err := e.pathFS(path)
	if err != nil {
		return 0, e.fail(native.ClassOS, native.ErrGeneric, err.Error())
	}
	storage, worktree, err := e.openStorage(root, opts.Bare)
	if err != nil {
		return 0, e.failErr(native.ClassOS, err)
	}
	auth, err := authFor(url, opts.Credentials)
	if err != nil {
		return 0, e.fail(native.ClassNet, native.ErrAuth,
			fmt.Sprintf("credentials callback: %s", err))
	}
	cloneOpts := &git.CloneOptions{
		URL:          url,
		Auth:         auth,
		Depth:        opts.Depth,
		SingleBranch: opts.Depth > 0,
	}
	if opts.Progress != nil {
		cloneOpts.Progress = &progressWriter{op: "clone", cb: opts.Progress}
	}
	ctx, stop := callbackContext(opts.Cancel)
	defer stop()
	repo, err := git.CloneContext(ctx, storage, worktree, cloneOpts)
	if err != nil {
		return 0, e.transferStatus(err, opts.Cancel)
	}
	raw := e.put(&repoHandle{repo: repo, worktree: worktree, path: path})
	e.ok()
	return raw, native.OK
}

// RemoteList implements native.Engine. Names are returned sorted.
func (e *Engine) RemoteList(repo native.Raw) ([]string, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return nil, st
	}
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, e.failErr(native.ClassNet, err)
	}
	names := make([]string, 0, len(remotes))
	for _, remote := range remotes {
		names = append(names, remote.Config().Name)
	}
	e.ok()
	return sortedStrings(names), native.OK
}

// RemoteCreate implements native.Engine.
func (e *Engine) RemoteCreate(repo native.Raw, name, url string) native.Status {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return st
	}
	if name == "" || url == "" {
		return e.fail(native.ClassNet, native.ErrInvalidSpec, "remote name and url are required")
	}
	_, err := r.repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}})
	if err != nil {
		return e.failErr(native.ClassNet, err)
	}
	return e.ok()
}

// RemoteLookup implements native.Engine.
func (e *Engine) RemoteLookup(repo native.Raw, name string) (native.RemoteInfo, native.Status) {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return native.RemoteInfo{}, st
	}
	remote, err := r.repo.Remote(name)
	if err != nil {
		return native.RemoteInfo{}, e.failErr(native.ClassNet, err)
	}
	cfg := remote.Config()
	e.ok()
	return native.RemoteInfo{
		Name: cfg.Name,
		URLs: append([]string(nil), cfg.URLs...),
	}, native.OK
}

// RemoteFetch implements native.Engine. An already up-to-date remote is a
// success, matching the ABI's "no changes" contract.
func (e *Engine) RemoteFetch(repo native.Raw, name string, opts native.FetchOptions) native.Status {
	r, st := e.repoOf(repo)
	if st != native.OK {
		return st
	}
	remote, err := r.repo.Remote(name)
	if err != nil {
		return e.failErr(native.ClassNet, err)
	}
	url := ""
	if urls := remote.Config().URLs; len(urls) > 0 {
		url = urls[0]
	}
	auth, err := authFor(url, opts.Credentials)
	if err != nil {
		return e.fail(native.ClassNet, native.ErrAuth,
			fmt.Sprintf("credentials callback: %s", err))
	}
	fetchOpts := &git.FetchOptions{
		RemoteName: name,
		Auth:       auth,
		Depth:      opts.Depth,
	}
	if opts.Progress != nil {
		fetchOpts.Progress = &progressWriter{op: "fetch", cb: opts.Progress}
	}
	ctx, stop := callbackContext(opts.Cancel)
	defer stop()
	err = remote.FetchContext(ctx, fetchOpts)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return e.transferStatus(err, opts.Cancel)
	}
	return e.ok()
}
