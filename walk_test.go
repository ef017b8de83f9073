package gitnative

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkLinearHistory(t *testing.T) {
	repo, fs := newMemRepo(t)
	first, _ := stageAndCommit(t, repo, fs, "a.txt", "one\n", "first\n", 0)
	second, _ := stageAndCommit(t, repo, fs, "a.txt", "two\n", "second\n", time.Hour)
	third, _ := stageAndCommit(t, repo, fs, "a.txt", "three\n", "third\n", 2*time.Hour)

	walk, err := repo.Walk()
	require.NoError(t, err)
	defer func() { _ = walk.Close() }()
	require.NoError(t, walk.Push(third))

	var order []Oid
	for {
		id, err := walk.Next()
		if err != nil {
			require.ErrorIs(t, err, ErrIterOver)
			break
		}
		order = append(order, id)
	}
	assert.Equal(t, []Oid{third, second, first}, order, "newest first")
}

func TestWalkPushHead(t *testing.T) {
	repo, fs := newMemRepo(t)
	commitID, _ := stageAndCommit(t, repo, fs, "a.txt", "one\n", "only\n", 0)

	walk, err := repo.Walk()
	require.NoError(t, err)
	defer func() { _ = walk.Close() }()
	require.NoError(t, walk.PushHead())

	id, err := walk.Next()
	require.NoError(t, err)
	assert.Equal(t, commitID, id)
	_, err = walk.Next()
	require.ErrorIs(t, err, ErrIterOver)
}

func TestWalkHide(t *testing.T) {
	repo, fs := newMemRepo(t)
	first, _ := stageAndCommit(t, repo, fs, "a.txt", "one\n", "first\n", 0)
	second, _ := stageAndCommit(t, repo, fs, "a.txt", "two\n", "second\n", time.Hour)
	third, _ := stageAndCommit(t, repo, fs, "a.txt", "three\n", "third\n", 2*time.Hour)

	walk, err := repo.Walk()
	require.NoError(t, err)
	defer func() { _ = walk.Close() }()
	require.NoError(t, walk.Push(third))
	require.NoError(t, walk.Hide(second))

	id, err := walk.Next()
	require.NoError(t, err)
	assert.Equal(t, third, id)
	_, err = walk.Next()
	require.ErrorIs(t, err, ErrIterOver, "hidden ancestry %s and %s excluded", second, first)
}

func TestWalkReset(t *testing.T) {
	repo, fs := newMemRepo(t)
	first, _ := stageAndCommit(t, repo, fs, "a.txt", "one\n", "first\n", 0)
	second, _ := stageAndCommit(t, repo, fs, "a.txt", "two\n", "second\n", time.Hour)

	walk, err := repo.Walk()
	require.NoError(t, err)
	defer func() { _ = walk.Close() }()
	require.NoError(t, walk.Push(second))
	_, err = walk.Next()
	require.NoError(t, err)

	require.NoError(t, walk.Reset())
	require.NoError(t, walk.Push(first))
	id, err := walk.Next()
	require.NoError(t, err)
	assert.Equal(t, first, id)
	_, err = walk.Next()
	require.ErrorIs(t, err, ErrIterOver)
}

func TestWalkPushNonCommit(t *testing.T) {
	repo, fs := newMemRepo(t)
	_, treeID := stageAndCommit(t, repo, fs, "a.txt", "one\n", "initial\n", 0)

	walk, err := repo.Walk()
	require.NoError(t, err)
	defer func() { _ = walk.Close() }()

	err = walk.Push(treeID)
	require.Error(t, err)
}

func TestWalkInvalidAfterRepositoryClose(t *testing.T) {
	repo, fs := newMemRepo(t)
	commitID, _ := stageAndCommit(t, repo, fs, "a.txt", "one\n", "initial\n", 0)

	walk, err := repo.Walk()
	require.NoError(t, err)
	require.NoError(t, walk.Push(commitID))
	require.NoError(t, repo.Close())

	_, err = walk.Next()
	require.ErrorIs(t, err, ErrHandleReleased)
}
