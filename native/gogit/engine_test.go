package gogit

import (
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want native.Status
	}{
		{"object not found", plumbing.ErrObjectNotFound, native.ErrNotFound},
		{"reference not found", plumbing.ErrReferenceNotFound, native.ErrNotFound},
		{"repository missing", git.ErrRepositoryNotExists, native.ErrNotFound},
		{"remote missing", git.ErrRemoteNotFound, native.ErrNotFound},
		{"repository exists", git.ErrRepositoryAlreadyExists, native.ErrExists},
		{"remote exists", git.ErrRemoteExists, native.ErrExists},
		{"auth required", transport.ErrAuthenticationRequired, native.ErrAuth},
		{"auth rejected", transport.ErrAuthorizationFailed, native.ErrAuth},
		{"anything else", errors.New("disk on fire"), native.ErrGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromError(tt.err))
		})
	}
}

func TestSplitConfigName(t *testing.T) {
	tests := []struct {
		name                     string
		in                       string
		section, subsection, key string
		ok                       bool
	}{
		{"two parts", "user.name", "user", "", "name", true},
		{"three parts", "branch.main.remote", "branch", "main", "remote", true},
		{"dotted subsection", "url.https://example.com.insteadOf", "url", "https://example.com", "insteadOf", true},
		{"no dot", "username", "", "", "", false},
		{"trailing dot", "user.", "", "", "", false},
		{"leading dot", ".name", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			section, subsection, key, ok := splitConfigName(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.section, section)
				assert.Equal(t, tt.subsection, subsection)
				assert.Equal(t, tt.key, key)
			}
		})
	}
}

func TestValidRefName(t *testing.T) {
	valid := []string{"HEAD", "refs/heads/main", "refs/tags/v1.0.0", "refs/remotes/origin/main"}
	for _, name := range valid {
		assert.True(t, validRefName(name), name)
	}
	invalid := []string{"", "refs/heads/", "refs/../escape", "refs/heads/a b", "refs/heads/a^b", "refs/heads/a:b"}
	for _, name := range invalid {
		assert.False(t, validRefName(name), name)
	}
}

func TestErrorSlotLifecycle(t *testing.T) {
	e := NewWithFilesystem(memfs.New())
	require.Equal(t, native.OK, e.InitLibrary())

	_, _, _, ok := e.LastError()
	assert.False(t, ok, "fresh engine has an empty slot")

	_, st := e.RepositoryOpen("missing")
	require.NotEqual(t, native.OK, st)
	class, code, msg, ok := e.LastError()
	require.True(t, ok)
	assert.Equal(t, native.ErrNotFound, code)
	assert.NotEqual(t, native.ClassNone, class)
	assert.NotEmpty(t, msg)

	// The next successful call clears the slot.
	raw, st := e.RepositoryInit("fresh", false)
	require.Equal(t, native.OK, st)
	_, _, _, ok = e.LastError()
	assert.False(t, ok)

	require.Equal(t, native.OK, e.RepositoryFree(raw))
	require.Equal(t, native.OK, e.ShutdownLibrary())
}

func TestFreedHandleRejected(t *testing.T) {
	e := NewWithFilesystem(memfs.New())
	raw, st := e.RepositoryInit("repo", false)
	require.Equal(t, native.OK, st)
	require.Equal(t, native.OK, e.RepositoryFree(raw))

	st = e.RepositoryFree(raw)
	assert.Equal(t, native.ErrInvalidSpec, st)
	_, st = e.RepositoryIsBare(raw)
	assert.Equal(t, native.ErrInvalidSpec, st)
}

func TestRepositoryOpenDetectsBareness(t *testing.T) {
	fs := memfs.New()
	e := NewWithFilesystem(fs)

	nonBare, st := e.RepositoryInit("worktree", false)
	require.Equal(t, native.OK, st)
	bareRaw, st := e.RepositoryInit("bare", true)
	require.Equal(t, native.OK, st)
	require.Equal(t, native.OK, e.RepositoryFree(nonBare))
	require.Equal(t, native.OK, e.RepositoryFree(bareRaw))

	reopened, st := e.RepositoryOpen("worktree")
	require.Equal(t, native.OK, st)
	isBare, st := e.RepositoryIsBare(reopened)
	require.Equal(t, native.OK, st)
	assert.False(t, isBare)
	require.Equal(t, native.OK, e.RepositoryFree(reopened))

	reopened, st = e.RepositoryOpen("bare")
	require.Equal(t, native.OK, st)
	isBare, st = e.RepositoryIsBare(reopened)
	require.Equal(t, native.OK, st)
	assert.True(t, isBare)
	require.Equal(t, native.OK, e.RepositoryFree(reopened))
}
