package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubHandle struct {
	kind    HandleKind
	name    string
	locator string
}

func (h stubHandle) Kind() HandleKind { return h.kind }
func (h stubHandle) Name() string     { return h.name }
func (h stubHandle) Locator() string  { return h.locator }

func (h stubHandle) QueryPermission(context.Context) (PermissionState, error) {
	return PermissionGranted, nil
}

func (h stubHandle) RequestPermission(context.Context) (PermissionState, error) {
	return PermissionGranted, nil
}

func TestHandleKind_IsValid(t *testing.T) {
	assert.True(t, HandleKindLocal.IsValid())
	assert.True(t, HandleKindRemote.IsValid())
	assert.False(t, HandleKind("").IsValid())
	assert.False(t, HandleKind("dropbox").IsValid())
}

func TestHandleKind_Description(t *testing.T) {
	assert.Equal(t, "Local folder", HandleKindLocal.Description())
	assert.Equal(t, "Google Drive", HandleKindRemote.Description())
	assert.Equal(t, "Unknown", HandleKind("other").Description())
}

func TestDescribeHandle(t *testing.T) {
	h := stubHandle{kind: HandleKindLocal, name: "Media", locator: "/home/me/Media"}

	desc := DescribeHandle(h)

	assert.Equal(t, HandleDescriptor{
		Kind:    HandleKindLocal,
		Locator: "/home/me/Media",
		Name:    "Media",
	}, desc)
}

func TestCachedHandleRecord_StoredAt(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	rec := CachedHandleRecord{ID: CurrentHandleID, Timestamp: now.UnixMilli()}

	assert.True(t, now.Equal(rec.StoredAt()))
}
