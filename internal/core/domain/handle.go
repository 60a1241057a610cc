package domain

import (
	"context"
	"time"
)

// HandleKind identifies the backend a storage handle belongs to.
type HandleKind string

// Available handle kinds.
const (
	// HandleKindLocal is a directory on the local filesystem.
	HandleKindLocal HandleKind = "local"

	// HandleKindRemote is a folder on a remote cloud drive.
	HandleKindRemote HandleKind = "remote"
)

// IsValid returns true if the handle kind is recognised.
func (k HandleKind) IsValid() bool {
	switch k {
	case HandleKindLocal, HandleKindRemote:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k HandleKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the kind.
func (k HandleKind) Description() string {
	switch k {
	case HandleKindLocal:
		return "Local folder"
	case HandleKindRemote:
		return "Google Drive"
	default:
		return "Unknown"
	}
}

// PermissionState is the grant state of a handle.
// It is always derived on demand and never cached, because the grant can be
// revoked outside the application between sessions.
type PermissionState string

// Available permission states.
const (
	PermissionGranted PermissionState = "granted"
	PermissionPrompt  PermissionState = "prompt"
	PermissionDenied  PermissionState = "denied"
)

// String returns the string representation.
func (p PermissionState) String() string {
	return string(p)
}

// StorageHandle is an opaque capability identifying a storage root.
//
// Handles are live objects: the grant they carry belongs to the running
// process and is not serialisable. Only the HandleDescriptor is persisted.
type StorageHandle interface {
	// Kind returns the backend this handle belongs to.
	Kind() HandleKind

	// Name returns the display name of the storage root.
	Name() string

	// Locator returns the backend capability token (directory path or folder ID).
	Locator() string

	// QueryPermission reports the current read-write grant without prompting.
	QueryPermission(ctx context.Context) (PermissionState, error)

	// RequestPermission asks for a read-write grant, prompting if necessary.
	RequestPermission(ctx context.Context) (PermissionState, error)
}

// HandleDescriptor is the serialisable part of a StorageHandle.
type HandleDescriptor struct {
	Kind    HandleKind `json:"kind"`
	Locator string     `json:"locator"`
	Name    string     `json:"name"`
}

// DescribeHandle extracts the descriptor of a live handle.
func DescribeHandle(h StorageHandle) HandleDescriptor {
	return HandleDescriptor{
		Kind:    h.Kind(),
		Locator: h.Locator(),
		Name:    h.Name(),
	}
}

// CurrentHandleID is the fixed primary key of the single cached handle record.
const CurrentHandleID = "current"

// CachedHandleRecord is the single durable "current handle" slot.
type CachedHandleRecord struct {
	// ID is always CurrentHandleID.
	ID string
	// Handle is the live handle (rehydrated when read from another session).
	Handle StorageHandle
	// Name is the handle's display name at the time it was stored.
	Name string
	// Timestamp is the store time in epoch milliseconds.
	Timestamp int64
}

// StoredAt returns the record timestamp as a time.Time.
func (r *CachedHandleRecord) StoredAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}
