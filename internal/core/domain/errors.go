package domain

import "errors"

// Domain errors represent expected failure conditions.
// These are distinct from infrastructure errors, which are wrapped in StorageError.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown storage backend kind.
	ErrUnsupportedType = errors.New("unsupported type")

	// Storage Errors.

	// ErrNotConnected indicates a storage operation was attempted without a connected backend.
	ErrNotConnected = errors.New("storage not connected")

	// ErrNoHandle indicates no storage handle has been selected or cached.
	ErrNoHandle = errors.New("no storage handle")

	// ErrPermissionDenied indicates the handle is not usable for the requested access.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrPathEscapesRoot indicates a relative path resolved outside the storage root.
	ErrPathEscapesRoot = errors.New("path escapes storage root")

	// ErrSelectionCancelled indicates the user abandoned storage selection.
	ErrSelectionCancelled = errors.New("storage selection cancelled")

	// Authentication Errors.

	// ErrAuthRequired indicates the remote backend has no usable credentials.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthExpired indicates the remote token expired and cannot be refreshed.
	ErrAuthExpired = errors.New("authentication expired")
)

// StorageError reports a durable-store transaction failure.
// Unlike the sentinel errors above it signals an infrastructure fault
// and is always propagated to the caller.
type StorageError struct {
	// Op is the store operation that failed (e.g. "put", "get", "delete").
	Op string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Err == nil {
		return "storage " + e.Op + " failed"
	}
	return "storage " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a StorageError for op.
// Returns nil if err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is, or wraps, a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
