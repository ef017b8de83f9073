package gitnative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindObjectKindChecked(t *testing.T) {
	repo, fs := newMemRepo(t)
	commitID, treeID := stageAndCommit(t, repo, fs, "a.txt", "one\n", "initial\n", 0)

	obj, err := repo.FindObject(commitID, ObjectAny)
	require.NoError(t, err)
	defer func() { _ = obj.Close() }()
	assert.Equal(t, ObjectCommit, obj.Kind())
	assert.Equal(t, commitID, obj.ID())

	// Demanding the wrong kind is a type mismatch, not a reinterpretation.
	_, err = repo.FindObject(commitID, ObjectBlob)
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = repo.FindTree(commitID)
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = repo.FindCommit(treeID)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestFindObjectMissing(t *testing.T) {
	repo, _ := newMemRepo(t)
	missing, err := ParseOid("00000000000000000000000000000000000000ff")
	require.NoError(t, err)

	_, err = repo.FindObject(missing, ObjectAny)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestObjectPeel(t *testing.T) {
	repo, fs := newMemRepo(t)
	commitID, treeID := stageAndCommit(t, repo, fs, "a.txt", "one\n", "initial\n", 0)

	obj, err := repo.FindObject(commitID, ObjectAny)
	require.NoError(t, err)
	defer func() { _ = obj.Close() }()

	commit, err := obj.AsCommit()
	require.NoError(t, err)
	defer func() { _ = commit.Close() }()
	assert.Equal(t, treeID, commit.TreeID())

	_, err = obj.AsBlob()
	require.ErrorIs(t, err, ErrTypeMismatch)
	_, err = obj.AsTree()
	require.ErrorIs(t, err, ErrTypeMismatch)
	_, err = obj.AsTag()
	require.ErrorIs(t, err, ErrTypeMismatch)

	// Peeled values own independent handles: closing the source object does
	// not invalidate the commit view.
	require.NoError(t, obj.Close())
	tree, err := commit.Tree()
	require.NoError(t, err)
	defer func() { _ = tree.Close() }()
	assert.Equal(t, treeID, tree.ID())
}

func TestTreeIteration(t *testing.T) {
	repo, fs := newMemRepo(t)
	_, treeID := stageAndCommit(t, repo, fs, "b.txt", "two\n", "initial\n", 0)

	tree, err := repo.FindTree(treeID)
	require.NoError(t, err)
	defer func() { _ = tree.Close() }()

	n, err := tree.EntryCount()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	entry, err := tree.EntryByIndex(0)
	require.NoError(t, err)
	assert.Equal(t, "b.txt", entry.Name)

	_, err = tree.EntryByIndex(1)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = tree.EntryByName("missing.txt")
	require.ErrorIs(t, err, ErrNotFound)

	it := tree.Entries()
	first, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, entry, first)
	_, err = it.Next()
	require.ErrorIs(t, err, ErrIterOver)
}

func TestCreateTag(t *testing.T) {
	repo, fs := newMemRepo(t)
	commitID, _ := stageAndCommit(t, repo, fs, "a.txt", "one\n", "initial\n", 0)
	tagger := testSignature(0)

	tagID, err := repo.CreateTag("v1.0.0", commitID, tagger, "first release\n", false)
	require.NoError(t, err)

	tag, err := repo.FindTag(tagID)
	require.NoError(t, err)
	defer func() { _ = tag.Close() }()
	assert.Equal(t, "v1.0.0", tag.Name())
	assert.Equal(t, "first release\n", tag.Message())
	assert.Equal(t, commitID, tag.TargetID())
	assert.Equal(t, ObjectCommit, tag.TargetKind())
	assert.Equal(t, tagger.Email, tag.Tagger().Email)

	target, err := tag.Target()
	require.NoError(t, err)
	defer func() { _ = target.Close() }()
	assert.Equal(t, commitID, target.ID())

	// The tag reference was written alongside the object.
	ref, err := repo.References().Lookup("refs/tags/v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, tagID, ref.Target())
}

func TestCreateTagDuplicate(t *testing.T) {
	repo, fs := newMemRepo(t)
	commitID, _ := stageAndCommit(t, repo, fs, "a.txt", "one\n", "initial\n", 0)
	tagger := testSignature(0)

	_, err := repo.CreateTag("v1", commitID, tagger, "one\n", false)
	require.NoError(t, err)

	_, err = repo.CreateTag("v1", commitID, tagger, "two\n", false)
	require.ErrorIs(t, err, ErrExists)

	_, err = repo.CreateTag("v1", commitID, tagger, "two\n", true)
	require.NoError(t, err)
}
