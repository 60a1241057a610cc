package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/mediatracker/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
)

// StoreName is the logical name of the durable store.
const StoreName = "MediaTrackerFileSystem"

// SchemaVersion is the schema version the embedded migrations produce.
const SchemaVersion = 1

// errStoreClosed is returned by Init after Close.
var errStoreClosed = errors.New("store closed")

// Store is a SQLite-backed durable store that provides access to the
// handle cache and token store through wrapper types.
//
// The database is opened lazily by Init (or the first operation) and the
// same connection is reused for the lifetime of the Store.
type Store struct {
	path string

	mu     sync.Mutex
	db     *sql.DB
	closed bool

	resolversMu sync.RWMutex
	resolvers   map[domain.HandleKind]driven.HandleResolver

	liveMu sync.Mutex
	live   *liveHandle
}

// liveHandle is the process-local handle matching the stored record.
type liveHandle struct {
	desc      domain.HandleDescriptor
	timestamp int64
	handle    domain.StorageHandle
}

// NewStore creates a store in the specified data directory without opening it.
// If dataDir is empty, defaults to ~/.mmt/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".mmt", "data")
	}

	return &Store{
		path:      filepath.Join(dataDir, StoreName+".db"),
		resolvers: make(map[domain.HandleKind]driven.HandleResolver),
	}, nil
}

// Init opens the database and runs pending migrations.
// Repeated calls return immediately once the connection exists.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.conn(ctx)
	return err
}

// conn returns the open connection, opening it on first use.
func (s *Store) conn(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errStoreClosed
	}
	if s.db != nil {
		return s.db, nil
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", s.path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := migrate(ctx, db, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	s.db = db
	return db, nil
}

// Close closes the database connection. The store cannot be reopened.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	var version int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("getting schema version: %w", err)
	}
	return version, nil
}

// RegisterResolver sets the resolver used to rehydrate handles of kind.
func (s *Store) RegisterResolver(kind domain.HandleKind, r driven.HandleResolver) {
	s.resolversMu.Lock()
	defer s.resolversMu.Unlock()
	s.resolvers[kind] = r
}

func (s *Store) resolver(kind domain.HandleKind) driven.HandleResolver {
	s.resolversMu.RLock()
	defer s.resolversMu.RUnlock()
	return s.resolvers[kind]
}

// HandleStore returns a HandleStore interface backed by this store.
func (s *Store) HandleStore() driven.HandleStore {
	return &handleStore{store: s}
}

// TokenStore returns a TokenStore interface backed by this store.
func (s *Store) TokenStore() driven.TokenStore {
	return &tokenStore{store: s}
}

// migrate runs all pending migrations.
func migrate(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_handle_cache.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("starting migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}
