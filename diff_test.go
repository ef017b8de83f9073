package gitnative

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffTreeToTree(t *testing.T) {
	repo, fs := newMemRepo(t)
	_, firstTree := stageAndCommit(t, repo, fs, "a.txt", "one\n", "first\n", 0)
	_, secondTree := stageAndCommit(t, repo, fs, "a.txt", "changed\n", "second\n", time.Hour)

	oldTree, err := repo.FindTree(firstTree)
	require.NoError(t, err)
	defer func() { _ = oldTree.Close() }()
	newTree, err := repo.FindTree(secondTree)
	require.NoError(t, err)
	defer func() { _ = newTree.Close() }()

	diff, err := repo.DiffTreeToTree(oldTree, newTree)
	require.NoError(t, err)
	defer func() { _ = diff.Close() }()

	n, err := diff.NumDeltas()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	delta, err := diff.Delta(0)
	require.NoError(t, err)
	assert.Equal(t, DeltaModified, delta.Status)
	assert.Equal(t, "a.txt", delta.OldFile.Path)
	assert.Equal(t, "a.txt", delta.NewFile.Path)
	assert.NotEqual(t, delta.OldFile.ID, delta.NewFile.ID)

	_, err = diff.Delta(1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDiffAgainstEmptyTree(t *testing.T) {
	repo, fs := newMemRepo(t)
	_, treeID := stageAndCommit(t, repo, fs, "a.txt", "one\n", "initial\n", 0)

	tree, err := repo.FindTree(treeID)
	require.NoError(t, err)
	defer func() { _ = tree.Close() }()

	diff, err := repo.DiffTreeToTree(nil, tree)
	require.NoError(t, err)
	defer func() { _ = diff.Close() }()

	n, err := diff.NumDeltas()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	delta, err := diff.Delta(0)
	require.NoError(t, err)
	assert.Equal(t, DeltaAdded, delta.Status)
	assert.Equal(t, "a.txt", delta.NewFile.Path)

	// Reverse direction: everything deleted.
	reverse, err := repo.DiffTreeToTree(tree, nil)
	require.NoError(t, err)
	defer func() { _ = reverse.Close() }()
	delta, err = reverse.Delta(0)
	require.NoError(t, err)
	assert.Equal(t, DeltaDeleted, delta.Status)
	assert.Equal(t, "a.txt", delta.OldFile.Path)
}

func TestDeltaIterator(t *testing.T) {
	repo, fs := newMemRepo(t)
	_, treeID := stageAndCommit(t, repo, fs, "a.txt", "one\n", "initial\n", 0)

	tree, err := repo.FindTree(treeID)
	require.NoError(t, err)
	defer func() { _ = tree.Close() }()
	diff, err := repo.DiffTreeToTree(nil, tree)
	require.NoError(t, err)
	defer func() { _ = diff.Close() }()

	it := diff.Deltas()
	seen := 0
	for {
		_, err := it.Next()
		if err != nil {
			require.ErrorIs(t, err, ErrIterOver)
			break
		}
		seen++
	}
	assert.Equal(t, 1, seen)
}

func TestDiffIteratorInvalidAfterClose(t *testing.T) {
	repo, fs := newMemRepo(t)
	_, treeID := stageAndCommit(t, repo, fs, "a.txt", "one\n", "initial\n", 0)

	tree, err := repo.FindTree(treeID)
	require.NoError(t, err)
	defer func() { _ = tree.Close() }()
	diff, err := repo.DiffTreeToTree(nil, tree)
	require.NoError(t, err)

	it := diff.Deltas()
	require.NoError(t, diff.Close())

	_, err = it.Next()
	require.ErrorIs(t, err, ErrHandleReleased)
	_, err = diff.NumDeltas()
	require.ErrorIs(t, err, ErrHandleReleased)
}
