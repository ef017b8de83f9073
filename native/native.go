// Package native defines the foreign-function boundary to the underlying
// git engine. It is a deliberately C-shaped surface: opaque pointer-sized
// handles, integer status codes, plain value structs, and a most-recent-error
// slot that a failing call fills in and the next call overwrites.
//
// Everything behind this boundary (object encoding, compression, transports,
// the on-disk repository layout) belongs to the engine. The gitnative package
// is the sole consumer and the sole translator of its results; see the gogit
// subpackage for the production engine.
package native

import "time"

// Raw is an opaque engine-owned handle. The zero value is never a valid
// handle. Exactly one wrapper value owns the release obligation for each Raw.
type Raw uint64

// Status is the result code of an engine call. Zero means success; negative
// values identify failure conditions. A failing call additionally fills the
// engine's error slot with a (class, code, message) triple.
type Status int

const (
	// OK indicates success.
	OK Status = 0

	// ErrGeneric is an unclassified failure; consult the error slot.
	ErrGeneric Status = -1

	// ErrNotFound indicates the requested object, reference, or entry
	// does not exist.
	ErrNotFound Status = -3

	// ErrExists indicates the target already exists and force was not set.
	ErrExists Status = -4

	// ErrAmbiguous indicates a short identifier matched more than one object.
	ErrAmbiguous Status = -5

	// ErrCancelled indicates a caller-supplied cancel callback aborted the
	// operation.
	ErrCancelled Status = -7

	// ErrUnbornBranch indicates HEAD points at a branch with no commits.
	ErrUnbornBranch Status = -9

	// ErrUnmerged indicates the index contains unresolved conflict entries.
	ErrUnmerged Status = -10

	// ErrNonFastForward indicates a reference update was not a fast-forward.
	ErrNonFastForward Status = -11

	// ErrInvalidSpec indicates a name or revision specifier is malformed.
	ErrInvalidSpec Status = -12

	// ErrConflict indicates an operation was blocked by conflicting state.
	ErrConflict Status = -13

	// ErrAuth indicates authentication was missing or rejected.
	ErrAuth Status = -16

	// ErrTypeMismatch indicates an object was found but has a different
	// kind than the caller required.
	ErrTypeMismatch Status = -22

	// ErrIterOver signals the end of an iteration; it is not a failure and
	// does not fill the error slot.
	ErrIterOver Status = -31
)

// ErrorClass identifies the engine subsystem that produced an error.
type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassOS
	ClassInvalid
	ClassRepository
	ClassObject
	ClassReference
	ClassIndex
	ClassConfig
	ClassNet
	ClassCallback
)

// String returns the subsystem name used in rendered error messages.
func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassOS:
		return "os"
	case ClassInvalid:
		return "invalid"
	case ClassRepository:
		return "repository"
	case ClassObject:
		return "object"
	case ClassReference:
		return "reference"
	case ClassIndex:
		return "index"
	case ClassConfig:
		return "config"
	case ClassNet:
		return "net"
	case ClassCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Kind discriminates the object types stored in the object database.
type Kind int

const (
	// KindAny matches any object kind during lookup.
	KindAny Kind = iota
	KindCommit
	KindTree
	KindBlob
	KindTag
)

// String returns the git-conventional name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindCommit:
		return "commit"
	case KindTree:
		return "tree"
	case KindBlob:
		return "blob"
	case KindTag:
		return "tag"
	default:
		return "unknown"
	}
}

// OidSize constants for the supported object hash algorithms.
const (
	OidSizeSHA1   = 20
	OidSizeSHA256 = 32
)

// Oid is a fixed-width content hash identifying one object. It is an
// immutable value type; equality with == is the object identity contract.
type Oid struct {
	raw   [OidSizeSHA256]byte
	width uint8
}

// NewOid builds an Oid from a raw hash. The slice length must be 20 or 32
// bytes; any other length yields the zero Oid.
func NewOid(b []byte) Oid {
	if len(b) != OidSizeSHA1 && len(b) != OidSizeSHA256 {
		return Oid{}
	}
	var o Oid
	copy(o.raw[:], b)
	o.width = uint8(len(b))
	return o
}

// Bytes returns the hash bytes. The result must not be mutated.
func (o Oid) Bytes() []byte {
	if o.width == 0 {
		return nil
	}
	return o.raw[:o.width]
}

// IsZero reports whether the Oid is the zero value.
func (o Oid) IsZero() bool { return o.width == 0 }

// String renders the hash in lowercase hex.
func (o Oid) String() string {
	const hextable = "0123456789abcdef"
	buf := make([]byte, int(o.width)*2)
	for i := 0; i < int(o.width); i++ {
		buf[i*2] = hextable[o.raw[i]>>4]
		buf[i*2+1] = hextable[o.raw[i]&0x0f]
	}
	return string(buf)
}

// Signature identifies the author or committer of a commit or tag.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Userpass carries plaintext credentials produced by a credentials callback.
type Userpass struct {
	Username string
	Password string
}

// CloneOptions configures RepositoryClone.
type CloneOptions struct {
	// Bare clones without a worktree.
	Bare bool

	// Depth, when > 0, requests a shallow clone of that many commits.
	Depth int

	// Credentials, when non-nil, is invoked to obtain credentials for the
	// transport. usernameFromURL is the username embedded in the URL, if any.
	Credentials func(url, usernameFromURL string) (Userpass, error)

	// Progress, when non-nil, receives transfer progress notifications.
	Progress func(op string, current, total int)

	// Cancel, when non-nil, is polled during the transfer; returning true
	// aborts the operation with ErrCancelled.
	Cancel func() bool
}

// FetchOptions configures RemoteFetch with the same callback contract as
// CloneOptions.
type FetchOptions struct {
	Depth       int
	Credentials func(url, usernameFromURL string) (Userpass, error)
	Progress    func(op string, current, total int)
	Cancel      func() bool
}

// TreeEntry is one row of a tree object.
type TreeEntry struct {
	Name string
	ID   Oid
	Mode uint32
	Kind Kind
}

// CommitInfo is a value snapshot of a commit object.
type CommitInfo struct {
	TreeID    Oid
	ParentIDs []Oid
	Author    Signature
	Committer Signature
	Message   string
}

// TagInfo is a value snapshot of an annotated tag object.
type TagInfo struct {
	Name       string
	TargetID   Oid
	TargetKind Kind
	Tagger     Signature
	Message    string
}

// IndexEntry is one staged path. Stage is 0 for a merged entry and 1..3 for
// the ancestor/ours/theirs sides of an unresolved conflict.
type IndexEntry struct {
	Path  string
	ID    Oid
	Mode  uint32
	Stage int
}

// RefInfo is a value snapshot of one reference. Exactly one of TargetID and
// TargetName is meaningful, selected by Symbolic.
type RefInfo struct {
	Name       string
	Symbolic   bool
	TargetID   Oid
	TargetName string
}

// DeltaStatus describes what happened to a file between two trees.
type DeltaStatus int

const (
	DeltaAdded DeltaStatus = iota
	DeltaDeleted
	DeltaModified
)

// String returns the single-word delta status name.
func (s DeltaStatus) String() string {
	switch s {
	case DeltaAdded:
		return "added"
	case DeltaDeleted:
		return "deleted"
	case DeltaModified:
		return "modified"
	default:
		return "unknown"
	}
}

// DiffFile identifies one side of a delta.
type DiffFile struct {
	Path string
	ID   Oid
	Mode uint32
}

// DiffDelta is one file-level change between two trees.
type DiffDelta struct {
	Status  DeltaStatus
	OldFile DiffFile
	NewFile DiffFile
}

// RemoteInfo is a value snapshot of a configured remote.
type RemoteInfo struct {
	Name string
	URLs []string
}

// Engine is the native ABI. Calls are synchronous; each either completes or
// fails with a Status and, for failures other than ErrIterOver, fills the
// error slot read by LastError.
//
// Handles are not safe for concurrent use: a repository handle and every
// handle derived from it must be confined to one goroutine at a time, and the
// error slot is only coherent when translation happens immediately after the
// failing call on that same goroutine. Distinct repository handles may be
// used concurrently.
type Engine interface {
	// InitLibrary performs one-time global setup. It is idempotent.
	InitLibrary() Status
	// ShutdownLibrary tears down global state. It is idempotent.
	ShutdownLibrary() Status

	// LastError returns the most recent error triple. ok is false when the
	// slot is empty (no call failed, or a later call succeeded and cleared
	// it).
	LastError() (class ErrorClass, code Status, message string, ok bool)
	// ClearError empties the error slot.
	ClearError()

	RepositoryOpen(path string) (Raw, Status)
	RepositoryInit(path string, bare bool) (Raw, Status)
	RepositoryClone(url, path string, opts CloneOptions) (Raw, Status)
	RepositoryFree(repo Raw) Status
	RepositoryIsBare(repo Raw) (bool, Status)
	RepositoryIsEmpty(repo Raw) (bool, Status)
	RepositoryPath(repo Raw) (string, Status)

	ObjectLookup(repo Raw, id Oid, kind Kind) (Raw, Status)
	ObjectKind(obj Raw) (Kind, Status)
	ObjectID(obj Raw) (Oid, Status)
	ObjectFree(obj Raw) Status

	BlobCreate(repo Raw, data []byte) (Oid, Status)
	BlobCreateFromPath(repo Raw, path string) (Oid, Status)
	BlobContent(obj Raw) ([]byte, Status)

	CommitCreate(repo Raw, updateRef string, author, committer Signature,
		message string, tree Oid, parents []Oid) (Oid, Status)
	CommitInfo(obj Raw) (CommitInfo, Status)

	TreeEntryCount(obj Raw) (int, Status)
	TreeEntryByIndex(obj Raw, i int) (TreeEntry, Status)
	TreeEntryByName(obj Raw, name string) (TreeEntry, Status)

	TagCreate(repo Raw, name string, target Oid, tagger Signature,
		message string, force bool) (Oid, Status)
	TagInfo(obj Raw) (TagInfo, Status)

	IndexOpen(repo Raw) (Raw, Status)
	IndexFree(idx Raw) Status
	IndexAddPath(idx Raw, path string) Status
	IndexRemovePath(idx Raw, path string) Status
	IndexEntryCount(idx Raw) (int, Status)
	IndexEntryByIndex(idx Raw, i int) (IndexEntry, Status)
	IndexHasConflicts(idx Raw) (bool, Status)
	IndexClear(idx Raw) Status
	IndexWrite(idx Raw) Status
	IndexWriteTree(idx Raw) (Oid, Status)

	ReferenceLookup(repo Raw, name string) (RefInfo, Status)
	ReferenceList(repo Raw) ([]string, Status)
	ReferenceCreate(repo Raw, name string, target Oid, force bool) Status
	ReferenceSymbolicCreate(repo Raw, name, target string, force bool) Status
	ReferenceRemove(repo Raw, name string) Status

	RevparseSingle(repo Raw, spec string) (Raw, Status)

	ConfigOpen(repo Raw) (Raw, Status)
	ConfigFree(cfg Raw) Status
	ConfigGet(cfg Raw, name string) (string, Status)
	ConfigSet(cfg Raw, name, value string) Status
	ConfigDelete(cfg Raw, name string) Status

	RemoteList(repo Raw) ([]string, Status)
	RemoteCreate(repo Raw, name, url string) Status
	RemoteLookup(repo Raw, name string) (RemoteInfo, Status)
	RemoteFetch(repo Raw, name string, opts FetchOptions) Status

	DiffTreeToTree(repo Raw, oldTree, newTree Oid) (Raw, Status)
	DiffFree(diff Raw) Status
	DiffNumDeltas(diff Raw) (int, Status)
	DiffDelta(diff Raw, i int) (DiffDelta, Status)

	RevwalkNew(repo Raw) (Raw, Status)
	RevwalkFree(walk Raw) Status
	RevwalkPush(walk Raw, id Oid) Status
	RevwalkHide(walk Raw, id Oid) Status
	RevwalkReset(walk Raw) Status
	RevwalkNext(walk Raw) (Oid, Status)
}
