// Package sqlite provides the durable store behind the handle cache.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - HandleStore: The single "current" storage handle record
//   - TokenStore: The remote drive OAuth credentials
//
// # Schema
//
// The logical store is named MediaTrackerFileSystem and is at schema version 1.
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.mmt/data/MediaTrackerFileSystem.db
//
// # Live Handles
//
// Handles carry a process-local permission grant that cannot be persisted.
// The store writes the handle's descriptor and keeps the live object in
// memory; reads in the same process return that exact object, while reads in
// a new process rehydrate it through the HandleResolver registered for its kind.
//
// # Thread Safety
//
// All operations are thread-safe. The connection is opened lazily on first use
// and reused; SQLite in WAL mode provides database-level locking between processes.
package sqlite
