package gitnative

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native/nativetest"
)

func TestIndexAddPathAndWriteTree(t *testing.T) {
	repo, fs := newMemRepo(t)
	content := []byte("file contents\n")
	require.NoError(t, util.WriteFile(fs, "repo/hello.txt", content, 0o644))

	idx, err := repo.Index()
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	require.NoError(t, idx.AddPath("hello.txt"))

	n, err := idx.EntryCount()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	treeID, err := idx.WriteTree()
	require.NoError(t, err)

	// The staged entry and the serialized tree must agree with direct
	// content hashing: the store is content addressed end to end.
	blobID, err := repo.CreateBlob(content)
	require.NoError(t, err)

	entries, err := idx.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello.txt", entries[0].Path)
	assert.Equal(t, blobID, entries[0].ID)
	assert.Zero(t, entries[0].Stage)

	tree, err := repo.FindTree(treeID)
	require.NoError(t, err)
	defer func() { _ = tree.Close() }()
	entry, err := tree.EntryByName("hello.txt")
	require.NoError(t, err)
	assert.Equal(t, blobID, entry.ID)
}

func TestIndexNestedDirectories(t *testing.T) {
	repo, fs := newMemRepo(t)
	require.NoError(t, util.WriteFile(fs, "repo/docs/guide/intro.md", []byte("# intro\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "repo/readme.md", []byte("# readme\n"), 0o644))

	idx, err := repo.Index()
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()
	require.NoError(t, idx.AddPath("docs/guide/intro.md"))
	require.NoError(t, idx.AddPath("readme.md"))

	treeID, err := idx.WriteTree()
	require.NoError(t, err)

	root, err := repo.FindTree(treeID)
	require.NoError(t, err)
	defer func() { _ = root.Close() }()

	docs, err := root.EntryByName("docs")
	require.NoError(t, err)
	assert.Equal(t, ObjectTree, docs.Kind)

	_, err = root.EntryByName("readme.md")
	require.NoError(t, err)

	sub, err := repo.FindTree(docs.ID)
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()
	guide, err := sub.EntryByName("guide")
	require.NoError(t, err)
	assert.Equal(t, ObjectTree, guide.Kind)
}

func TestIndexAddMissingPath(t *testing.T) {
	repo, _ := newMemRepo(t)
	idx, err := repo.Index()
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	err = idx.AddPath("no-such-file.txt")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestIndexRemovePath(t *testing.T) {
	repo, fs := newMemRepo(t)
	require.NoError(t, util.WriteFile(fs, "repo/a.txt", []byte("a\n"), 0o644))

	idx, err := repo.Index()
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()
	require.NoError(t, idx.AddPath("a.txt"))

	require.NoError(t, idx.RemovePath("a.txt"))
	n, err := idx.EntryCount()
	require.NoError(t, err)
	assert.Zero(t, n)

	err = idx.RemovePath("a.txt")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestIndexClear(t *testing.T) {
	repo, fs := newMemRepo(t)
	require.NoError(t, util.WriteFile(fs, "repo/a.txt", []byte("a\n"), 0o644))

	idx, err := repo.Index()
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()
	require.NoError(t, idx.AddPath("a.txt"))
	require.NoError(t, idx.Clear())

	n, err := idx.EntryCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}

// A repository has one index, so mutations through any Index handle contend
// on the same repository-level lock.
func TestIndexHandlesShareRepositoryLock(t *testing.T) {
	_, repo := openFakeRepo(t)
	defer func() { _ = repo.Close() }()

	first, err := repo.Index()
	require.NoError(t, err)
	second, err := repo.Index()
	require.NoError(t, err)

	repo.indexMu.Lock()
	done := make(chan error, 1)
	go func() { done <- second.Clear() }()
	select {
	case <-done:
		t.Fatal("mutation through a second handle bypassed the repository lock")
	case <-time.After(20 * time.Millisecond):
	}
	repo.indexMu.Unlock()
	require.NoError(t, <-done)

	require.NoError(t, first.Close())
	require.NoError(t, second.Close())
}

func TestWriteTreeBlockedByConflicts(t *testing.T) {
	f, repo := openFakeRepo(t)
	defer func() { _ = repo.Close() }()
	f.IndexEntries = []native.IndexEntry{
		{Path: "merged.txt", ID: nativetest.Oid(1), Mode: 0o100644, Stage: 0},
		{Path: "clash.txt", ID: nativetest.Oid(2), Mode: 0o100644, Stage: 2},
		{Path: "clash.txt", ID: nativetest.Oid(3), Mode: 0o100644, Stage: 3},
	}

	idx, err := repo.Index()
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	conflicted, err := idx.HasConflicts()
	require.NoError(t, err)
	assert.True(t, conflicted)

	_, err = idx.WriteTree()
	require.ErrorIs(t, err, ErrIndexConflict)

	// Resolving the conflict unblocks serialization.
	f.IndexEntries = f.IndexEntries[:1]
	conflicted, err = idx.HasConflicts()
	require.NoError(t, err)
	assert.False(t, conflicted)

	_, err = idx.WriteTree()
	require.NoError(t, err)
}
