package driven

import (
	"context"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
)

// StorageAdapter is a storage backend that reads and writes files relative
// to a user-selected storage root.
//
// Every operation except Kind, IsConnected and Handle fails fast with
// domain.ErrNotConnected when no root is attached. Nothing is queued.
type StorageAdapter interface {
	// Kind returns the backend kind this adapter serves.
	Kind() domain.HandleKind

	// Initialize prepares the backend (clients, credentials) without
	// selecting a storage root. Safe to call more than once.
	Initialize(ctx context.Context) error

	// SelectStorage runs the user-driven pick/authorise flow and attaches
	// the chosen root. Returns the new live handle.
	SelectStorage(ctx context.Context) (domain.StorageHandle, error)

	// Restore attaches a previously selected handle (e.g. from the handle
	// cache). The caller is responsible for verifying its permission first.
	Restore(ctx context.Context, handle domain.StorageHandle) error

	// IsConnected reports whether a usable root is attached in this session.
	IsConnected() bool

	// Handle returns the attached handle, or nil.
	Handle() domain.StorageHandle

	// ReadFile returns the content at path, or (nil, nil) if it does not exist.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile replaces the content at path, creating parent folders as needed.
	WriteFile(ctx context.Context, path string, content []byte) error

	// ListFiles returns the entry names directly under dir ("" for the root).
	// Folder names carry a trailing "/".
	ListFiles(ctx context.Context, dir string) ([]string, error)

	// Disconnect detaches the root. It does not touch the handle cache.
	Disconnect(ctx context.Context) error
}

// WatchableAdapter is implemented by adapters that can observe external changes.
type WatchableAdapter interface {
	StorageAdapter

	// Watch calls onChange each time the file at path is changed outside this
	// process, until ctx is cancelled. It blocks.
	Watch(ctx context.Context, path string, onChange func()) error
}
