package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driving"
	"github.com/custodia-labs/mediatracker/internal/logger"
)

// Ensure StorageService implements the interface.
var _ driving.StorageService = (*StorageService)(nil)

// StorageService owns the storage connection lifecycle: selecting a root,
// caching its handle, re-validating it on reconnect and tearing it down.
type StorageService struct {
	handles  driven.HandleStore
	gate     driven.PermissionVerifier
	adapters map[domain.HandleKind]driven.StorageAdapter
	log      logger.Component

	mu     sync.Mutex
	active driven.StorageAdapter
}

// NewStorageService creates a storage service over the given backends.
// At most one adapter per kind is kept; later ones replace earlier ones.
func NewStorageService(
	handles driven.HandleStore,
	gate driven.PermissionVerifier,
	adapters ...driven.StorageAdapter,
) *StorageService {
	byKind := make(map[domain.HandleKind]driven.StorageAdapter, len(adapters))
	for _, a := range adapters {
		if a != nil {
			byKind[a.Kind()] = a
		}
	}
	return &StorageService{
		handles:  handles,
		gate:     gate,
		adapters: byKind,
		log:      logger.For("storage"),
	}
}

// Adapter returns the backend registered for kind, or nil.
func (s *StorageService) Adapter(kind domain.HandleKind) driven.StorageAdapter {
	return s.adapters[kind]
}

// Connect runs the selection flow for kind and caches the chosen handle.
// Any adapter of another kind that was active is disconnected first.
func (s *StorageService) Connect(ctx context.Context, kind domain.HandleKind) (domain.StorageHandle, error) {
	adapter := s.adapters[kind]
	if adapter == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, kind)
	}

	if err := adapter.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize %s storage: %w", kind, err)
	}

	handle, err := adapter.SelectStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("select %s storage: %w", kind, err)
	}

	if err := s.handles.StoreDirectoryHandle(ctx, handle); err != nil {
		return nil, fmt.Errorf("cache storage handle: %w", err)
	}

	s.setActive(ctx, adapter)
	s.log.Info("connected to %s %q", kind, handle.Name())
	return handle, nil
}

// Reconnect restores the cached handle.
//
// It returns (false, nil) when nothing is cached, the kind has no backend, or
// the handle's permission is not usable. Durable-store faults are returned.
// The user is only prompted when requestIfNeeded is true.
func (s *StorageService) Reconnect(ctx context.Context, requestIfNeeded bool) (bool, error) {
	handle, err := s.handles.GetDirectoryHandle(ctx)
	if err != nil {
		return false, err
	}
	if handle == nil {
		s.log.Debug("no cached storage handle")
		return false, nil
	}

	adapter := s.adapters[handle.Kind()]
	if adapter == nil {
		s.log.Warn("cached handle has unsupported kind %q", handle.Kind())
		return false, nil
	}

	if !s.gate.Verify(ctx, handle, requestIfNeeded) {
		s.log.Info("cached handle %q is not usable without permission", handle.Name())
		return false, nil
	}

	if err := adapter.Initialize(ctx); err != nil {
		return false, fmt.Errorf("initialize %s storage: %w", handle.Kind(), err)
	}
	if err := adapter.Restore(ctx, handle); err != nil {
		return false, fmt.Errorf("restore %s storage: %w", handle.Kind(), err)
	}

	s.setActive(ctx, adapter)
	s.log.Info("reconnected to %s %q", handle.Kind(), handle.Name())
	return true, nil
}

// Disconnect detaches the active adapter and clears the cached handle.
func (s *StorageService) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	active := s.active
	s.active = nil
	s.mu.Unlock()

	if active != nil {
		if err := active.Disconnect(ctx); err != nil {
			return fmt.Errorf("disconnect %s storage: %w", active.Kind(), err)
		}
	}

	return s.handles.ClearDirectoryHandle(ctx)
}

// Active returns the connected adapter, or nil.
func (s *StorageService) Active() driven.StorageAdapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || !s.active.IsConnected() {
		return nil
	}
	return s.active
}

// VerifyHandlePermission reports whether handle is usable for read-write access.
func (s *StorageService) VerifyHandlePermission(
	ctx context.Context, handle domain.StorageHandle, requestIfNeeded bool,
) bool {
	return s.gate.Verify(ctx, handle, requestIfNeeded)
}

// Status reports the current connection. Permission is queried fresh and
// never prompts.
func (s *StorageService) Status(ctx context.Context) (*driving.StorageStatus, error) {
	status := &driving.StorageStatus{}

	rec, err := s.handles.GetRecord(ctx)
	if err != nil {
		return nil, err
	}

	var handle domain.StorageHandle
	if active := s.Active(); active != nil {
		status.Connected = true
		handle = active.Handle()
	}
	if rec != nil {
		status.CachedAt = rec.StoredAt()
		if handle == nil {
			handle = rec.Handle
		}
	}

	if handle == nil {
		return status, nil
	}

	status.Kind = handle.Kind()
	status.Name = handle.Name()
	status.Locator = handle.Locator()
	if state, err := handle.QueryPermission(ctx); err == nil {
		status.Permission = state
	} else {
		s.log.Debug("query permission for status: %v", err)
		status.Permission = domain.PermissionDenied
	}
	return status, nil
}

func (s *StorageService) setActive(ctx context.Context, adapter driven.StorageAdapter) {
	s.mu.Lock()
	prev := s.active
	s.active = adapter
	s.mu.Unlock()

	if prev != nil && prev != adapter {
		if err := prev.Disconnect(ctx); err != nil {
			s.log.Warn("disconnect previous %s storage: %v", prev.Kind(), err)
		}
	}
}
