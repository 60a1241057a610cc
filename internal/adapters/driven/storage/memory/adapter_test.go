package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
)

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(domain.HandleKindLocal)

	assert.False(t, a.IsConnected())
	_, err := a.ReadFile(ctx, "x")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.ErrorIs(t, a.WriteFile(ctx, "x", nil), domain.ErrNotConnected)
	_, err = a.ListFiles(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestAdapter_ReadWriteList(t *testing.T) {
	ctx := context.Background()
	a := NewConnectedAdapter(domain.HandleKindLocal)

	data, err := a.ReadFile(ctx, "missing.json")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, a.WriteFile(ctx, "books/dune.json", []byte("v1")))
	require.NoError(t, a.WriteFile(ctx, "/books/dune.json", []byte("v2")))
	require.NoError(t, a.WriteFile(ctx, "top.txt", []byte("t")))

	data, err = a.ReadFile(ctx, "books/dune.json")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	root, err := a.ListFiles(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"books/", "top.txt"}, root)

	books, err := a.ListFiles(ctx, "books")
	require.NoError(t, err)
	assert.Equal(t, []string{"dune.json"}, books)
}

func TestAdapter_SelectAndDisconnect(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(domain.HandleKindRemote)

	h, err := a.SelectStorage(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.HandleKindRemote, h.Kind())
	assert.True(t, a.IsConnected())
	assert.Same(t, h, a.Handle())

	require.NoError(t, a.Disconnect(ctx))
	assert.False(t, a.IsConnected())
	assert.Nil(t, a.Handle())
}

func TestHandleStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewHandleStore()
	h := NewHandle(domain.HandleKindLocal, "Media", "/media")

	got, err := store.GetDirectoryHandle(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.StoreDirectoryHandle(ctx, h))
	got, err = store.GetDirectoryHandle(ctx)
	require.NoError(t, err)
	assert.Same(t, h, got)

	require.NoError(t, store.ClearDirectoryHandle(ctx))
	got, err = store.GetDirectoryHandle(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
