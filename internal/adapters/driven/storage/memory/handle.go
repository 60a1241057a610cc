package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
)

// Ensure Handle implements the interface.
var _ domain.StorageHandle = (*Handle)(nil)

// Handle is a scriptable domain.StorageHandle.
//
// QueryPermission returns State (or QueryErr). RequestPermission returns
// RequestResult (or RequestErr) and, on success, moves State to it.
type Handle struct {
	HandleKind    domain.HandleKind
	HandleName    string
	HandleLocator string

	mu            sync.Mutex
	State         domain.PermissionState
	QueryErr      error
	RequestResult domain.PermissionState
	RequestErr    error
	requests      int
}

// NewHandle creates a granted handle of the given kind.
func NewHandle(kind domain.HandleKind, name, locator string) *Handle {
	return &Handle{
		HandleKind:    kind,
		HandleName:    name,
		HandleLocator: locator,
		State:         domain.PermissionGranted,
		RequestResult: domain.PermissionGranted,
	}
}

// Kind returns the handle kind.
func (h *Handle) Kind() domain.HandleKind { return h.HandleKind }

// Name returns the display name.
func (h *Handle) Name() string { return h.HandleName }

// Locator returns the capability token.
func (h *Handle) Locator() string { return h.HandleLocator }

// QueryPermission returns the scripted state.
func (h *Handle) QueryPermission(context.Context) (domain.PermissionState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.QueryErr != nil {
		return "", h.QueryErr
	}
	return h.State, nil
}

// RequestPermission returns the scripted request outcome.
func (h *Handle) RequestPermission(context.Context) (domain.PermissionState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests++
	if h.RequestErr != nil {
		return "", h.RequestErr
	}
	h.State = h.RequestResult
	return h.RequestResult, nil
}

// SetState changes the grant state, e.g. to simulate an out-of-band revoke.
func (h *Handle) SetState(state domain.PermissionState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.State = state
}

// Requests returns how many times RequestPermission was called.
func (h *Handle) Requests() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requests
}
