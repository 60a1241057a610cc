// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - StorageAdapter: A storage backend (local directory or remote drive)
//   - HandleStore: Durable single-slot persistence of the current handle
//   - ConfigStore: Local fast-access key/value configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - PermissionPrompter: Without it, handles in the prompt state stay unusable.
//   - WatchableAdapter: Without it, external config changes are not observed.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
