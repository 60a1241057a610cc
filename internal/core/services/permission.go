package services

import (
	"context"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
	"github.com/custodia-labs/mediatracker/internal/logger"
)

// Ensure PermissionGate implements the interface.
var _ driven.PermissionVerifier = (*PermissionGate)(nil)

// PermissionGate decides whether a handle may be used for read-write access.
//
// It holds no state. Grants can be revoked outside the application at any
// time, so every sensitive operation asks the handle again.
type PermissionGate struct {
	log logger.Component
}

// NewPermissionGate creates a permission gate.
func NewPermissionGate() *PermissionGate {
	return &PermissionGate{log: logger.For("permission")}
}

// Verify returns true if handle is usable for read-write access.
//
// A handle in the prompt state is only upgraded when requestIfNeeded is set,
// which callers must restrict to direct user actions. Query and request
// failures are logged and reported as not usable.
func (g *PermissionGate) Verify(ctx context.Context, handle domain.StorageHandle, requestIfNeeded bool) bool {
	if handle == nil {
		return false
	}

	state, err := handle.QueryPermission(ctx)
	if err != nil {
		g.log.Warn("query permission for %q: %v", handle.Name(), err)
		return false
	}

	switch state {
	case domain.PermissionGranted:
		return true
	case domain.PermissionPrompt:
		if !requestIfNeeded {
			g.log.Debug("permission for %q needs a prompt; not requesting", handle.Name())
			return false
		}
		state, err = handle.RequestPermission(ctx)
		if err != nil {
			g.log.Warn("request permission for %q: %v", handle.Name(), err)
			return false
		}
		return state == domain.PermissionGranted
	default:
		return false
	}
}
