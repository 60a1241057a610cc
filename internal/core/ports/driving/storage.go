package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
)

// StorageStatus describes the current storage connection.
type StorageStatus struct {
	// Connected is true when an adapter has a usable root attached.
	Connected bool
	// Kind is the attached (or cached) backend kind.
	Kind domain.HandleKind
	// Name is the display name of the storage root.
	Name string
	// Locator is the backend capability token.
	Locator string
	// Permission is the freshly queried grant state of the cached handle.
	Permission domain.PermissionState
	// CachedAt is when the handle was last selected. Zero if nothing is cached.
	CachedAt time.Time
}

// StorageService manages the storage connection lifecycle.
type StorageService interface {
	// Connect runs the selection flow for kind and caches the chosen handle.
	Connect(ctx context.Context, kind domain.HandleKind) (domain.StorageHandle, error)

	// Reconnect restores the cached handle. Returns false when nothing is
	// cached or the handle is not usable. Prompts only if requestIfNeeded.
	Reconnect(ctx context.Context, requestIfNeeded bool) (bool, error)

	// Disconnect detaches the active adapter and clears the cached handle.
	Disconnect(ctx context.Context) error

	// Active returns the connected adapter, or nil.
	Active() driven.StorageAdapter

	// VerifyHandlePermission reports whether handle is usable for read-write access.
	VerifyHandlePermission(ctx context.Context, handle domain.StorageHandle, requestIfNeeded bool) bool

	// Status reports the current connection.
	Status(ctx context.Context) (*StorageStatus, error)
}
