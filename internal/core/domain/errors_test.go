package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrNotConnected", ErrNotConnected},
		{"ErrNoHandle", ErrNoHandle},
		{"ErrPermissionDenied", ErrPermissionDenied},
		{"ErrPathEscapesRoot", ErrPathEscapesRoot},
		{"ErrSelectionCancelled", ErrSelectionCancelled},
		{"ErrAuthRequired", ErrAuthRequired},
		{"ErrAuthExpired", ErrAuthExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := NewStorageError("put", cause)

	assert.Equal(t, "storage put: disk I/O error", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsStorageError(err))
	assert.True(t, IsStorageError(fmt.Errorf("wrapped: %w", err)))
}

func TestStorageError_NilCause(t *testing.T) {
	assert.NoError(t, NewStorageError("get", nil))

	err := &StorageError{Op: "delete"}
	assert.Equal(t, "storage delete failed", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestIsStorageError_Sentinels(t *testing.T) {
	assert.False(t, IsStorageError(ErrNotConnected))
	assert.False(t, IsStorageError(nil))
}
