package memory

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.StorageAdapter = (*Adapter)(nil)

// Adapter is an in-memory driven.StorageAdapter. Files live in a map keyed by
// cleaned relative path; folders are implied by file paths.
type Adapter struct {
	kind domain.HandleKind

	mu        sync.RWMutex
	files     map[string][]byte
	handle    domain.StorageHandle
	connected bool

	// WriteErr, when non-nil, fails every write.
	WriteErr error
	// ReadErr, when non-nil, fails every read.
	ReadErr error
	// Next is the handle returned by SelectStorage. A granted handle is
	// created when nil.
	Next domain.StorageHandle
}

// NewAdapter creates a disconnected in-memory adapter of the given kind.
func NewAdapter(kind domain.HandleKind) *Adapter {
	return &Adapter{
		kind:  kind,
		files: make(map[string][]byte),
	}
}

// NewConnectedAdapter creates an in-memory adapter with a granted root attached.
func NewConnectedAdapter(kind domain.HandleKind) *Adapter {
	a := NewAdapter(kind)
	a.handle = NewHandle(kind, "memory", ":memory:")
	a.connected = true
	return a
}

// Kind returns the adapter kind.
func (a *Adapter) Kind() domain.HandleKind { return a.kind }

// Initialize is a no-op.
func (a *Adapter) Initialize(context.Context) error { return nil }

// SelectStorage attaches Next (or a fresh granted handle).
func (a *Adapter) SelectStorage(context.Context) (domain.StorageHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h := a.Next
	if h == nil {
		h = NewHandle(a.kind, "memory", ":memory:")
	}
	a.handle = h
	a.connected = true
	return h, nil
}

// Restore attaches handle.
func (a *Adapter) Restore(_ context.Context, handle domain.StorageHandle) error {
	if handle == nil {
		return domain.ErrNoHandle
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handle = handle
	a.connected = true
	return nil
}

// IsConnected reports whether a root is attached.
func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connected
}

// Handle returns the attached handle.
func (a *Adapter) Handle() domain.StorageHandle {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.handle
}

// ReadFile returns a copy of the stored content, or nil if absent.
func (a *Adapter) ReadFile(_ context.Context, p string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.connected {
		return nil, domain.ErrNotConnected
	}
	if a.ReadErr != nil {
		return nil, a.ReadErr
	}
	data, ok := a.files[clean(p)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// WriteFile replaces the stored content.
func (a *Adapter) WriteFile(_ context.Context, p string, content []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return domain.ErrNotConnected
	}
	if a.WriteErr != nil {
		return a.WriteErr
	}
	a.files[clean(p)] = append([]byte(nil), content...)
	return nil
}

// Seed stores content at p whether or not a root is attached.
func (a *Adapter) Seed(p string, content []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files[clean(p)] = append([]byte(nil), content...)
}

// ListFiles returns the entries directly under dir.
func (a *Adapter) ListFiles(_ context.Context, dir string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.connected {
		return nil, domain.ErrNotConnected
	}

	prefix := clean(dir)
	if prefix != "" {
		prefix += "/"
	}

	seen := make(map[string]struct{})
	for name := range a.files {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[:i+1]
		}
		seen[rest] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Disconnect detaches the root. Stored files are kept.
func (a *Adapter) Disconnect(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = false
	a.handle = nil
	return nil
}

func clean(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
