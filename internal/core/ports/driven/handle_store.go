package driven

import (
	"context"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
)

// HandleStore persists the single "current" storage handle across sessions.
//
// Read paths return (nil, nil) when nothing is stored. Transaction failures
// are returned as *domain.StorageError and must not be swallowed.
type HandleStore interface {
	// Init opens the durable store. Idempotent.
	Init(ctx context.Context) error

	// StoreDirectoryHandle replaces the current record with handle.
	StoreDirectoryHandle(ctx context.Context, handle domain.StorageHandle) error

	// GetDirectoryHandle returns the current handle, or nil.
	GetDirectoryHandle(ctx context.Context) (domain.StorageHandle, error)

	// GetRecord returns the full current record, or nil.
	GetRecord(ctx context.Context) (*domain.CachedHandleRecord, error)

	// ClearDirectoryHandle deletes the current record. No-op when absent.
	ClearDirectoryHandle(ctx context.Context) error
}

// HandleResolver rehydrates a live handle from its persisted descriptor.
// One resolver is registered per handle kind.
type HandleResolver interface {
	ResolveHandle(ctx context.Context, desc domain.HandleDescriptor) (domain.StorageHandle, error)
}

// HandleResolverFunc adapts a function to HandleResolver.
type HandleResolverFunc func(ctx context.Context, desc domain.HandleDescriptor) (domain.StorageHandle, error)

// ResolveHandle calls f.
func (f HandleResolverFunc) ResolveHandle(
	ctx context.Context, desc domain.HandleDescriptor,
) (domain.StorageHandle, error) {
	return f(ctx, desc)
}
