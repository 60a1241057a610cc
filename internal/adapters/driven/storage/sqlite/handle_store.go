package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
)

// handleStore implements driven.HandleStore.
type handleStore struct {
	store *Store
}

var _ driven.HandleStore = (*handleStore)(nil)

// Init opens the durable store.
func (s *handleStore) Init(ctx context.Context) error {
	return s.store.Init(ctx)
}

// StoreDirectoryHandle replaces the current record with handle.
func (s *handleStore) StoreDirectoryHandle(ctx context.Context, handle domain.StorageHandle) error {
	if handle == nil {
		return domain.ErrInvalidInput
	}

	db, err := s.store.conn(ctx)
	if err != nil {
		return domain.NewStorageError("open", err)
	}

	desc := domain.DescribeHandle(handle)
	now := time.Now().UnixMilli()

	_, err = db.ExecContext(ctx, `
		INSERT INTO handles (id, kind, locator, name, timestamp)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			locator = excluded.locator,
			name = excluded.name,
			timestamp = excluded.timestamp
	`, domain.CurrentHandleID, string(desc.Kind), desc.Locator, desc.Name, now)
	if err != nil {
		return domain.NewStorageError("put", err)
	}

	s.store.liveMu.Lock()
	s.store.live = &liveHandle{desc: desc, timestamp: now, handle: handle}
	s.store.liveMu.Unlock()
	return nil
}

// GetDirectoryHandle returns the current handle, or nil.
func (s *handleStore) GetDirectoryHandle(ctx context.Context) (domain.StorageHandle, error) {
	rec, err := s.GetRecord(ctx)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Handle, nil
}

// GetRecord returns the current record with a live handle, or nil.
func (s *handleStore) GetRecord(ctx context.Context) (*domain.CachedHandleRecord, error) {
	db, err := s.store.conn(ctx)
	if err != nil {
		return nil, domain.NewStorageError("open", err)
	}

	var (
		desc      domain.HandleDescriptor
		kind      string
		timestamp int64
	)
	row := db.QueryRowContext(ctx, `
		SELECT kind, locator, name, timestamp FROM handles WHERE id = ?
	`, domain.CurrentHandleID)
	if err := row.Scan(&kind, &desc.Locator, &desc.Name, &timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.NewStorageError("get", err)
	}
	desc.Kind = domain.HandleKind(kind)

	handle, err := s.liveHandle(ctx, desc, timestamp)
	if err != nil {
		return nil, err
	}

	return &domain.CachedHandleRecord{
		ID:        domain.CurrentHandleID,
		Handle:    handle,
		Name:      desc.Name,
		Timestamp: timestamp,
	}, nil
}

// ClearDirectoryHandle deletes the current record.
func (s *handleStore) ClearDirectoryHandle(ctx context.Context) error {
	db, err := s.store.conn(ctx)
	if err != nil {
		return domain.NewStorageError("open", err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM handles WHERE id = ?", domain.CurrentHandleID); err != nil {
		return domain.NewStorageError("delete", err)
	}

	s.store.liveMu.Lock()
	s.store.live = nil
	s.store.liveMu.Unlock()
	return nil
}

// liveHandle returns the in-process handle for the stored record, rehydrating
// it when the record was written by another process or session.
func (s *handleStore) liveHandle(
	ctx context.Context, desc domain.HandleDescriptor, timestamp int64,
) (domain.StorageHandle, error) {
	s.store.liveMu.Lock()
	defer s.store.liveMu.Unlock()

	if live := s.store.live; live != nil && live.desc == desc && live.timestamp == timestamp {
		return live.handle, nil
	}

	resolver := s.store.resolver(desc.Kind)
	if resolver == nil {
		return nil, fmt.Errorf("%w: no handle resolver for %q", domain.ErrUnsupportedType, desc.Kind)
	}

	handle, err := resolver.ResolveHandle(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("rehydrating %s handle %q: %w", desc.Kind, desc.Name, err)
	}

	s.store.live = &liveHandle{desc: desc, timestamp: timestamp, handle: handle}
	return handle, nil
}
