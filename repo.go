package gitnative

import (
	"context"
	"sync"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// now is stubbed in tests that need deterministic signatures.
var now = time.Now

// Userpass carries plaintext credentials produced by a CredentialsFunc.
type Userpass = native.Userpass

// CredentialsFunc resolves credentials for a transport operation.
// usernameFromURL is the username embedded in the remote URL, if any.
type CredentialsFunc func(url, usernameFromURL string) (Userpass, error)

// ProgressFunc receives transfer progress notifications. total is zero when
// the engine cannot estimate the transfer size.
type ProgressFunc func(op string, current, total int)

// Options configures repository open and creation.
type Options struct {
	// Engine selects the native engine backing the repository.
	// Defaults to the process-wide go-git engine.
	Engine native.Engine

	// Bare creates a repository without a worktree. Only InitRepository
	// consults it; Open detects bareness from the on-disk layout.
	Bare bool
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.Engine == nil {
		o.Engine = defaultEngine()
	}
}

// CloneOptions configures Clone with the transport callback contract shared
// with fetch.
type CloneOptions struct {
	Options

	// Depth, when > 0, requests a shallow clone of that many commits.
	Depth int

	// Credentials, when non-nil, is invoked to authenticate the transport.
	Credentials CredentialsFunc

	// Progress, when non-nil, receives transfer progress notifications.
	Progress ProgressFunc
}

// Validate checks that the CloneOptions are properly configured.
func (o *CloneOptions) Validate() error {
	if o.Depth < 0 {
		return WrapError(ErrInvalidSpec, "Depth cannot be negative")
	}
	return o.Options.Validate()
}

// FetchOptions configures Remote.Fetch.
type FetchOptions struct {
	Depth       int
	Credentials CredentialsFunc
	Progress    ProgressFunc
}

// Repository owns a native repository handle. It is the root of the handle
// hierarchy: objects, the index, references, diffs and walks derived from it
// are invalidated by its Close. A Repository and its derived values must be
// confined to one goroutine at a time; open as many Repositories as you need
// for concurrency.
type Repository struct {
	eng native.Engine
	h   *handle

	// indexMu serializes staging mutations. A repository has one index, so
	// the lock lives here and is shared by every Index handle opened from it.
	indexMu sync.Mutex
}

func newRepository(eng native.Engine, raw native.Raw) *Repository {
	return &Repository{
		eng: eng,
		h:   newHandle(eng, raw, "repository", eng.RepositoryFree, nil),
	}
}

// Open opens an existing repository at path, which may be a worktree root or
// a bare repository directory. A nil opts selects the defaults.
func Open(path string, opts *Options) (*Repository, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}
	opts.applyDefaults()
	if err := retainEngine(opts.Engine); err != nil {
		return nil, err
	}
	raw, st := opts.Engine.RepositoryOpen(path)
	if st != native.OK {
		err := translate(opts.Engine, st)
		_ = releaseEngine(opts.Engine)
		return nil, WrapErrorf(err, "open repository %q", path)
	}
	return newRepository(opts.Engine, raw), nil
}

// InitRepository creates a new repository at path, bare or with a worktree
// per opts. A nil opts selects the defaults.
func InitRepository(path string, opts *Options) (*Repository, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}
	opts.applyDefaults()
	if err := retainEngine(opts.Engine); err != nil {
		return nil, err
	}
	raw, st := opts.Engine.RepositoryInit(path, opts.Bare)
	if st != native.OK {
		err := translate(opts.Engine, st)
		_ = releaseEngine(opts.Engine)
		return nil, WrapErrorf(err, "init repository %q", path)
	}
	return newRepository(opts.Engine, raw), nil
}

// Clone fetches url into a new repository at path. Cancelling ctx aborts the
// transfer with CodeCancelled. On failure any partial on-disk state at path
// is left for the caller to inspect or remove. A nil opts selects the
// defaults.
func Clone(ctx context.Context, url, path string, opts *CloneOptions) (*Repository, error) {
	if opts == nil {
		opts = &CloneOptions{}
	}
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}
	opts.applyDefaults()
	if err := retainEngine(opts.Engine); err != nil {
		return nil, err
	}
	nopts := native.CloneOptions{
		Bare:  opts.Bare,
		Depth: opts.Depth,
	}
	if opts.Credentials != nil {
		nopts.Credentials = opts.Credentials
	}
	if opts.Progress != nil {
		nopts.Progress = opts.Progress
	}
	if ctx != nil && ctx.Done() != nil {
		nopts.Cancel = func() bool { return ctx.Err() != nil }
	}
	raw, st := opts.Engine.RepositoryClone(url, path, nopts)
	if st != native.OK {
		err := translate(opts.Engine, st)
		_ = releaseEngine(opts.Engine)
		return nil, WrapErrorf(err, "clone %q", url)
	}
	return newRepository(opts.Engine, raw), nil
}

// Close releases the repository handle and every handle derived from it,
// exactly once. Further calls are no-ops returning nil. After Close, any use
// of the repository or a derived value fails with CodeHandleReleased without
// reaching the engine.
func (r *Repository) Close() error {
	if r.h.closed {
		return nil
	}
	err := r.h.close()
	if relErr := releaseEngine(r.eng); relErr != nil && err == nil {
		err = relErr
	}
	return err
}

// IsBare reports whether the repository has no worktree.
func (r *Repository) IsBare() (bool, error) {
	if err := r.h.use(); err != nil {
		return false, err
	}
	bare, st := r.eng.RepositoryIsBare(r.h.mustRaw())
	if st != native.OK {
		return false, translate(r.eng, st)
	}
	return bare, nil
}

// IsEmpty reports whether the repository has no commits yet.
func (r *Repository) IsEmpty() (bool, error) {
	if err := r.h.use(); err != nil {
		return false, err
	}
	empty, st := r.eng.RepositoryIsEmpty(r.h.mustRaw())
	if st != native.OK {
		return false, translate(r.eng, st)
	}
	return empty, nil
}

// Path returns the repository's storage directory: the .git directory for a
// worktree repository, the root for a bare one.
func (r *Repository) Path() (string, error) {
	if err := r.h.use(); err != nil {
		return "", err
	}
	path, st := r.eng.RepositoryPath(r.h.mustRaw())
	if st != native.OK {
		return "", translate(r.eng, st)
	}
	return path, nil
}

// CreateBlob writes data to the object database and returns its id. Writing
// identical content twice yields the same id and is not an error.
func (r *Repository) CreateBlob(data []byte) (Oid, error) {
	if err := r.h.use(); err != nil {
		return Oid{}, err
	}
	id, st := r.eng.BlobCreate(r.h.mustRaw(), data)
	if st != native.OK {
		return Oid{}, translate(r.eng, st)
	}
	return id, nil
}

// CreateBlobFromPath hashes the worktree file at path into the object
// database.
func (r *Repository) CreateBlobFromPath(path string) (Oid, error) {
	if err := r.h.use(); err != nil {
		return Oid{}, err
	}
	id, st := r.eng.BlobCreateFromPath(r.h.mustRaw(), path)
	if st != native.OK {
		return Oid{}, translate(r.eng, st)
	}
	return id, nil
}

// CreateCommit writes a commit over tree with the given parents. When
// updateRef is non-empty that reference (following a symbolic HEAD) is moved
// to the new commit.
func (r *Repository) CreateCommit(updateRef string, author, committer Signature,
	message string, tree Oid, parents ...Oid,
) (Oid, error) {
	if err := r.h.use(); err != nil {
		return Oid{}, err
	}
	id, st := r.eng.CommitCreate(r.h.mustRaw(), updateRef, author, committer, message, tree, parents)
	if st != native.OK {
		return Oid{}, translate(r.eng, st)
	}
	return id, nil
}

// CreateTag writes an annotated tag object pointing at target and the
// refs/tags/<name> reference for it. Without force an existing tag of the
// same name fails with CodeExists.
func (r *Repository) CreateTag(name string, target Oid, tagger Signature,
	message string, force bool,
) (Oid, error) {
	if err := r.h.use(); err != nil {
		return Oid{}, err
	}
	id, st := r.eng.TagCreate(r.h.mustRaw(), name, target, tagger, message, force)
	if st != native.OK {
		return Oid{}, translate(r.eng, st)
	}
	return id, nil
}

// RevparseSingle resolves a revision specifier (reference name, full or
// abbreviated id, peel syntax per the engine) to a single object.
func (r *Repository) RevparseSingle(spec string) (*Object, error) {
	if err := r.h.use(); err != nil {
		return nil, err
	}
	raw, st := r.eng.RevparseSingle(r.h.mustRaw(), spec)
	if st != native.OK {
		return nil, WrapErrorf(translate(r.eng, st), "revparse %q", spec)
	}
	return r.wrapObject(raw)
}

// Head resolves HEAD to its terminal direct reference. A fresh repository
// whose HEAD names a branch with no commits fails with CodeUnbornBranch.
func (r *Repository) Head() (*Reference, error) {
	return r.References().Resolve("HEAD")
}

// References returns the reference store view of the repository. The store
// borrows the repository handle and is invalidated by its Close.
func (r *Repository) References() *ReferenceStore {
	return &ReferenceStore{repo: r}
}

// Remotes returns the remote store view of the repository.
func (r *Repository) Remotes() *RemoteStore {
	return &RemoteStore{repo: r}
}

// DefaultSignature builds a signature from the repository's user.name and
// user.email configuration, stamped with the current time.
func (r *Repository) DefaultSignature() (Signature, error) {
	cfg, err := r.Config()
	if err != nil {
		return Signature{}, err
	}
	defer func() { _ = cfg.Close() }()
	name, err := cfg.Get("user.name")
	if err != nil {
		return Signature{}, WrapError(err, "default signature")
	}
	email, err := cfg.Get("user.email")
	if err != nil {
		return Signature{}, WrapError(err, "default signature")
	}
	return Signature{Name: name, Email: email, When: now()}, nil
}
