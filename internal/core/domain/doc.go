// Package domain defines the core entities of the media tracker storage layer.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - StorageHandle: A live capability for a storage root (local or remote)
//   - CachedHandleRecord: The single persisted "current" handle slot
//   - PermissionState: The derived grant state of a handle
//   - ConfigDocument: The flat JSON settings document
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
