package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
)

// Ensure HandleStore implements the interface.
var _ driven.HandleStore = (*HandleStore)(nil)

// HandleStore is an in-memory driven.HandleStore holding the live handle.
type HandleStore struct {
	mu     sync.RWMutex
	record *domain.CachedHandleRecord
	inits  int

	// Err, when non-nil, fails every transaction with a StorageError.
	Err error
}

// NewHandleStore creates an empty in-memory handle store.
func NewHandleStore() *HandleStore {
	return &HandleStore{}
}

// Init counts calls; there is nothing to open.
func (s *HandleStore) Init(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inits++
	return nil
}

// StoreDirectoryHandle replaces the current record.
func (s *HandleStore) StoreDirectoryHandle(_ context.Context, handle domain.StorageHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return domain.NewStorageError("put", s.Err)
	}
	if handle == nil {
		return domain.ErrInvalidInput
	}
	s.record = &domain.CachedHandleRecord{
		ID:        domain.CurrentHandleID,
		Handle:    handle,
		Name:      handle.Name(),
		Timestamp: time.Now().UnixMilli(),
	}
	return nil
}

// GetDirectoryHandle returns the current handle, or nil.
func (s *HandleStore) GetDirectoryHandle(ctx context.Context) (domain.StorageHandle, error) {
	rec, err := s.GetRecord(ctx)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Handle, nil
}

// GetRecord returns a copy of the current record, or nil.
func (s *HandleStore) GetRecord(context.Context) (*domain.CachedHandleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, domain.NewStorageError("get", s.Err)
	}
	if s.record == nil {
		return nil, nil
	}
	rec := *s.record
	return &rec, nil
}

// ClearDirectoryHandle deletes the current record.
func (s *HandleStore) ClearDirectoryHandle(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return domain.NewStorageError("delete", s.Err)
	}
	s.record = nil
	return nil
}
