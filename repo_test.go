package gitnative

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native/gogit"
)

// newMemRepo initializes a repository on an in-memory filesystem. The
// returned filesystem is the engine root; the repository worktree lives
// under "repo/".
func newMemRepo(t *testing.T) (*Repository, billy.Filesystem) {
	t.Helper()
	fs := memfs.New()
	eng := gogit.NewWithFilesystem(fs)
	repo, err := InitRepository("repo", &Options{Engine: eng})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, fs
}

func testSignature(offset time.Duration) Signature {
	return Signature{
		Name:  "Test Author",
		Email: "author@example.com",
		When:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).Add(offset),
	}
}

// stageAndCommit writes content to path in the worktree, stages it, and
// commits the resulting tree onto HEAD.
func stageAndCommit(t *testing.T, repo *Repository, fs billy.Filesystem,
	path, content, message string, offset time.Duration,
) (commitID, treeID Oid) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, "repo/"+path, []byte(content), 0o644))

	idx, err := repo.Index()
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()
	require.NoError(t, idx.AddPath(path))

	treeID, err = idx.WriteTree()
	require.NoError(t, err)

	sig := testSignature(offset)
	var parents []Oid
	if head, headErr := repo.Head(); headErr == nil {
		parents = append(parents, head.Target())
	}
	commitID, err = repo.CreateCommit("HEAD", sig, sig, message, treeID, parents...)
	require.NoError(t, err)
	return commitID, treeID
}

func TestInitRepository(t *testing.T) {
	repo, _ := newMemRepo(t)

	bare, err := repo.IsBare()
	require.NoError(t, err)
	assert.False(t, bare)

	empty, err := repo.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)

	path, err := repo.Path()
	require.NoError(t, err)
	assert.Equal(t, "repo", path)
}

func TestInitBareRepository(t *testing.T) {
	fs := memfs.New()
	eng := gogit.NewWithFilesystem(fs)
	repo, err := InitRepository("bare", &Options{Engine: eng, Bare: true})
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()

	bare, err := repo.IsBare()
	require.NoError(t, err)
	assert.True(t, bare)
}

func TestOpenAfterInit(t *testing.T) {
	fs := memfs.New()
	eng := gogit.NewWithFilesystem(fs)
	repo, err := InitRepository("repo", &Options{Engine: eng})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	reopened, err := Open("repo", &Options{Engine: eng})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	bare, err := reopened.IsBare()
	require.NoError(t, err)
	assert.False(t, bare)
}

func TestOpenMissingRepository(t *testing.T) {
	eng := gogit.NewWithFilesystem(memfs.New())
	_, err := Open("nowhere", &Options{Engine: eng})
	require.Error(t, err)
}

func TestCreateBlobContentAddressed(t *testing.T) {
	repo, _ := newMemRepo(t)

	first, err := repo.CreateBlob([]byte("hello world\n"))
	require.NoError(t, err)
	second, err := repo.CreateBlob([]byte("hello world\n"))
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical content must hash to the same id")

	other, err := repo.CreateBlob([]byte("different\n"))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	blob, err := repo.FindBlob(first)
	require.NoError(t, err)
	defer func() { _ = blob.Close() }()
	content, err := blob.Content()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world\n"), content)
	size, err := blob.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(12), size)
}

func TestCreateBlobFromPath(t *testing.T) {
	repo, fs := newMemRepo(t)
	require.NoError(t, util.WriteFile(fs, "repo/data.txt", []byte("payload"), 0o644))

	fromPath, err := repo.CreateBlobFromPath("data.txt")
	require.NoError(t, err)
	direct, err := repo.CreateBlob([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, direct, fromPath)
}

func TestCommitAndHead(t *testing.T) {
	repo, fs := newMemRepo(t)
	commitID, treeID := stageAndCommit(t, repo, fs, "a.txt", "one\n", "initial commit\n", 0)

	empty, err := repo.IsEmpty()
	require.NoError(t, err)
	assert.False(t, empty)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.False(t, head.IsSymbolic())
	assert.Equal(t, commitID, head.Target())

	commit, err := repo.FindCommit(commitID)
	require.NoError(t, err)
	defer func() { _ = commit.Close() }()
	assert.Equal(t, treeID, commit.TreeID())
	assert.Equal(t, "initial commit\n", commit.Message())
	assert.Zero(t, commit.ParentCount())
	assert.Equal(t, "Test Author", commit.Author().Name)
	assert.Equal(t, "author@example.com", commit.Committer().Email)
}

func TestCommitChain(t *testing.T) {
	repo, fs := newMemRepo(t)
	first, _ := stageAndCommit(t, repo, fs, "a.txt", "one\n", "first\n", 0)
	second, _ := stageAndCommit(t, repo, fs, "a.txt", "two\n", "second\n", time.Hour)

	commit, err := repo.FindCommit(second)
	require.NoError(t, err)
	defer func() { _ = commit.Close() }()
	require.Equal(t, 1, commit.ParentCount())
	assert.Equal(t, []Oid{first}, commit.ParentIDs())

	parent, err := commit.Parent(0)
	require.NoError(t, err)
	defer func() { _ = parent.Close() }()
	assert.Equal(t, first, parent.ID())
	assert.Equal(t, "first\n", parent.Message())

	_, err = commit.Parent(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRevparseSingle(t *testing.T) {
	repo, fs := newMemRepo(t)
	commitID, _ := stageAndCommit(t, repo, fs, "a.txt", "one\n", "initial\n", 0)

	obj, err := repo.RevparseSingle("HEAD")
	require.NoError(t, err)
	defer func() { _ = obj.Close() }()
	assert.Equal(t, ObjectCommit, obj.Kind())
	assert.Equal(t, commitID, obj.ID())

	_, err = repo.RevparseSingle("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.RevparseSingle("")
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestDefaultSignature(t *testing.T) {
	repo, _ := newMemRepo(t)
	cfg, err := repo.Config()
	require.NoError(t, err)
	defer func() { _ = cfg.Close() }()

	_, err = repo.DefaultSignature()
	assert.ErrorIs(t, err, ErrNotFound, "unset identity must not produce a signature")

	require.NoError(t, cfg.Set("user.name", "Config User"))
	require.NoError(t, cfg.Set("user.email", "config@example.com"))

	fixed := time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	defer func() { now = time.Now }()

	sig, err := repo.DefaultSignature()
	require.NoError(t, err)
	assert.Equal(t, Signature{Name: "Config User", Email: "config@example.com", When: fixed}, sig)
}

func TestConfigRoundTrip(t *testing.T) {
	repo, _ := newMemRepo(t)
	cfg, err := repo.Config()
	require.NoError(t, err)
	defer func() { _ = cfg.Close() }()

	_, err = cfg.Get("user.name")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, cfg.Set("user.name", "Someone"))
	value, err := cfg.Get("user.name")
	require.NoError(t, err)
	assert.Equal(t, "Someone", value)

	require.NoError(t, cfg.Set("branch.main.remote", "origin"))
	value, err = cfg.Get("branch.main.remote")
	require.NoError(t, err)
	assert.Equal(t, "origin", value)

	require.NoError(t, cfg.Delete("user.name"))
	_, err = cfg.Get("user.name")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = cfg.Get("not-a-config-name")
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestParseOid(t *testing.T) {
	id, err := ParseOid("0123456789abcdef0123456789abcdef01234567")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", id.String())
	assert.False(t, id.IsZero())

	_, err = ParseOid("0123")
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = ParseOid("zz23456789abcdef0123456789abcdef01234567")
	assert.ErrorIs(t, err, ErrInvalidSpec)
}
