package gitnative

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native/nativetest"
)

func TestRemoteCreateLookupList(t *testing.T) {
	_, repo := openFakeRepo(t)
	defer func() { _ = repo.Close() }()
	remotes := repo.Remotes()

	origin, err := remotes.Create("origin", "https://example.com/repo.git")
	require.NoError(t, err)
	assert.Equal(t, "origin", origin.Name())
	assert.Equal(t, []string{"https://example.com/repo.git"}, origin.URLs())

	_, err = remotes.Create("origin", "https://example.com/other.git")
	require.ErrorIs(t, err, ErrExists)

	found, err := remotes.Lookup("origin")
	require.NoError(t, err)
	assert.Equal(t, "origin", found.Name())

	_, err = remotes.Lookup("upstream")
	require.ErrorIs(t, err, ErrNotFound)

	names, err := remotes.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"origin"}, names)
}

func TestFetchCancelledContext(t *testing.T) {
	_, repo := openFakeRepo(t)
	defer func() { _ = repo.Close() }()
	remote, err := repo.Remotes().Create("origin", "https://example.com/repo.git")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = remote.Fetch(ctx, nil)
	require.ErrorIs(t, err, ErrCancelled)
}

func TestFetchUnknownRemote(t *testing.T) {
	_, repo := openFakeRepo(t)
	defer func() { _ = repo.Close() }()
	ghost := &Remote{repo: repo, name: "ghost"}
	err := ghost.Fetch(context.Background(), nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCloneCancelled(t *testing.T) {
	f := nativetest.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Clone(ctx, "https://example.com/repo.git", "dst", &CloneOptions{
		Options: Options{Engine: f},
	})
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, f.Acquired, f.Released, "cancelled clone must not leak handles")
	assert.Equal(t, f.InitCalls, f.ShutdownCalls)
}

func TestCloneCredentialsFailure(t *testing.T) {
	f := nativetest.New()
	_, err := Clone(context.Background(), "https://example.com/repo.git", "dst", &CloneOptions{
		Options:     Options{Engine: f},
		Credentials: func(url, usernameFromURL string) (Userpass, error) {
			return Userpass{}, errors.New("vault unreachable")
		},
	})
	require.ErrorIs(t, err, ErrAuthFailed)
}

func TestCloneSuccessWithProgress(t *testing.T) {
	f := nativetest.New()
	var ops []string
	repo, err := Clone(context.Background(), "https://example.com/repo.git", "dst", &CloneOptions{
		Options:  Options{Engine: f},
		Progress: func(op string, current, total int) { ops = append(ops, op) },
	})
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()
	assert.NotEmpty(t, ops)
}

func TestCloneRejectsNegativeDepth(t *testing.T) {
	f := nativetest.New()
	_, err := Clone(context.Background(), "https://example.com/repo.git", "dst", &CloneOptions{
		Options: Options{Engine: f},
		Depth:   -1,
	})
	require.ErrorIs(t, err, ErrInvalidSpec)
	assert.Zero(t, f.InitCalls, "invalid options fail before the engine is touched")
}

func TestFetchScriptedFailureClasses(t *testing.T) {
	tests := []struct {
		name  string
		class native.ErrorClass
		code  native.Status
		want  *Error
	}{
		{"auth", native.ClassNet, native.ErrAuth, ErrAuthFailed},
		{"network", native.ClassNet, native.ErrGeneric, ErrNetwork},
		{"non fast forward", native.ClassReference, native.ErrNonFastForward, ErrNonFastForward},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, repo := openFakeRepo(t)
			defer func() { _ = repo.Close() }()
			remote, err := repo.Remotes().Create("origin", "https://example.com/repo.git")
			require.NoError(t, err)

			f.FailNext("RemoteFetch", tt.class, tt.code, tt.name)
			err = remote.Fetch(context.Background(), nil)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
