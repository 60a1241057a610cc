package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
)

func TestFiles_NotConnected(t *testing.T) {
	newCLIFixture(t)

	for _, args := range [][]string{{"files", "ls"}, {"files", "cat", "a.json"}} {
		_, err := execute(t, "", args...)
		assert.ErrorIs(t, err, domain.ErrNotConnected)
	}

	_, err := execute(t, "data", "files", "put", "a.json")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestFilesPut_FromStdin(t *testing.T) {
	f := newCLIFixture(t)
	f.cacheHandle(t, domain.PermissionGranted)

	out, err := execute(t, `{"title":"Dune"}`, "files", "put", "books/dune.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 16 bytes to books/dune.json.")

	data, err := f.local.ReadFile(context.Background(), "books/dune.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Dune"}`, string(data))
}

func TestFilesPut_FromFile(t *testing.T) {
	f := newCLIFixture(t)
	f.cacheHandle(t, domain.PermissionGranted)

	src := filepath.Join(t.TempDir(), "cover.txt")
	require.NoError(t, os.WriteFile(src, []byte("cover"), 0o600))

	_, err := execute(t, "", "files", "put", "covers/dune.txt", src)
	require.NoError(t, err)

	data, err := f.local.ReadFile(context.Background(), "covers/dune.txt")
	require.NoError(t, err)
	assert.Equal(t, "cover", string(data))
}

func TestFilesPut_MissingSource(t *testing.T) {
	f := newCLIFixture(t)
	f.cacheHandle(t, domain.PermissionGranted)

	_, err := execute(t, "", "files", "put", "a.txt", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open source")
}

func TestFilesPut_PromptsForAccess(t *testing.T) {
	f := newCLIFixture(t)
	h := f.cacheHandle(t, domain.PermissionPrompt)

	_, err := execute(t, "x", "files", "put", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, h.Requests())
}

func TestFilesCat(t *testing.T) {
	f := newCLIFixture(t)
	f.cacheHandle(t, domain.PermissionGranted)
	f.local.Seed("movies/alien.json", []byte(`{"year":1979}`))

	out, err := execute(t, "", "files", "cat", "movies/alien.json")
	require.NoError(t, err)
	assert.Equal(t, `{"year":1979}`, out)

	_, err = execute(t, "", "files", "cat", "movies/missing.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFilesLs(t *testing.T) {
	f := newCLIFixture(t)
	f.cacheHandle(t, domain.PermissionGranted)
	f.local.Seed("books/dune.json", []byte("{}"))
	f.local.Seed("books/emma.json", []byte("{}"))
	f.local.Seed(domain.ConfigFileName, []byte("{}"))

	out, err := execute(t, "", "files", "ls")
	require.NoError(t, err)
	assert.Equal(t, ".mmt.config\nbooks/\n", out)

	out, err = execute(t, "", "files", "ls", "books")
	require.NoError(t, err)
	assert.Equal(t, "dune.json\nemma.json\n", out)
}

func TestFilesLs_ConfirmsAccess(t *testing.T) {
	f := newCLIFixture(t)
	h := f.cacheHandle(t, domain.PermissionPrompt)

	_, err := execute(t, "", "files", "ls")
	require.NoError(t, err)
	assert.Equal(t, 1, h.Requests())
}

func TestFilesLs_AccessDeclined(t *testing.T) {
	f := newCLIFixture(t)
	h := f.cacheHandle(t, domain.PermissionPrompt)
	h.RequestResult = domain.PermissionDenied

	_, err := execute(t, "", "files", "ls")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}
