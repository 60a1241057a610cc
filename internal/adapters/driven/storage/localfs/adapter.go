package localfs

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
	"github.com/custodia-labs/mediatracker/internal/logger"
)

const (
	// LockFileName is the write lock kept at the storage root.
	LockFileName = ".mmt.lock"

	tempMarker     = ".tmp-"
	lockRetryDelay = 25 * time.Millisecond
)

// Ensure Adapter implements the interfaces.
var (
	_ driven.WatchableAdapter = (*Adapter)(nil)
	_ driven.HandleResolver   = (*Adapter)(nil)
)

// Adapter stores files in a user-picked local directory.
type Adapter struct {
	picker   driven.DirectoryPicker
	prompter driven.PermissionPrompter
	verifier driven.PermissionVerifier
	log      logger.Component

	mu   sync.RWMutex
	root *DirectoryHandle

	// digests of the last content this process wrote, keyed by absolute path
	writesMu sync.Mutex
	writes   map[string][sha256.Size]byte
}

// New creates a local adapter. The verifier decides whether the attached
// handle may be used before every read and write.
func New(
	picker driven.DirectoryPicker,
	prompter driven.PermissionPrompter,
	verifier driven.PermissionVerifier,
) *Adapter {
	return &Adapter{
		picker:   picker,
		prompter: prompter,
		verifier: verifier,
		log:      logger.For("localfs"),
		writes:   make(map[string][sha256.Size]byte),
	}
}

// Kind returns domain.HandleKindLocal.
func (a *Adapter) Kind() domain.HandleKind {
	return domain.HandleKindLocal
}

// Initialize has nothing to prepare for local storage.
func (a *Adapter) Initialize(context.Context) error {
	return nil
}

// SelectStorage asks the picker for a directory and attaches it with a
// granted session permission.
func (a *Adapter) SelectStorage(ctx context.Context) (domain.StorageHandle, error) {
	if a.picker == nil {
		return nil, fmt.Errorf("%w: no directory picker configured", domain.ErrInvalidInput)
	}

	dir, err := a.picker.PickDirectory(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dir) == "" {
		return nil, domain.ErrSelectionCancelled
	}

	handle, err := NewDirectoryHandle(dir, "", domain.PermissionGranted, a.prompter)
	if err != nil {
		return nil, err
	}

	state, err := handle.QueryPermission(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if state == domain.PermissionDenied {
		return nil, fmt.Errorf("%w: %s", domain.ErrPermissionDenied, handle.Locator())
	}

	a.attach(handle)
	a.log.Info("selected %s", handle.Locator())
	return handle, nil
}

// Restore attaches a handle previously returned by SelectStorage or ResolveHandle.
func (a *Adapter) Restore(_ context.Context, handle domain.StorageHandle) error {
	dh, ok := handle.(*DirectoryHandle)
	if !ok {
		return fmt.Errorf("%w: %T", domain.ErrUnsupportedType, handle)
	}
	a.attach(dh)
	a.log.Debug("restored %s", dh.Locator())
	return nil
}

// ResolveHandle rebuilds a live handle from a cached descriptor. The
// session grant starts at prompt.
func (a *Adapter) ResolveHandle(_ context.Context, desc domain.HandleDescriptor) (domain.StorageHandle, error) {
	if desc.Kind != domain.HandleKindLocal {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, desc.Kind)
	}
	if desc.Locator == "" {
		return nil, fmt.Errorf("%w: empty directory path", domain.ErrInvalidInput)
	}
	return NewDirectoryHandle(desc.Locator, desc.Name, domain.PermissionPrompt, a.prompter)
}

// IsConnected reports whether a directory is attached.
func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.root != nil
}

// Handle returns the attached handle, or nil.
func (a *Adapter) Handle() domain.StorageHandle {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.root == nil {
		return nil
	}
	return a.root
}

// ReadFile returns the content at p, or nil when no file exists there.
// A directory at p counts as no file.
func (a *Adapter) ReadFile(ctx context.Context, p string) ([]byte, error) {
	root, full, err := a.prepare(ctx, p, false)
	if err != nil {
		return nil, err
	}
	if full == root.path {
		return nil, fmt.Errorf("%w: cannot read the storage root", domain.ErrInvalidInput)
	}

	info, err := os.Stat(full)
	if isAbsent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	if info.IsDir() {
		return nil, nil
	}

	data, err := os.ReadFile(full)
	if isAbsent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

// WriteFile atomically replaces the content at p. Parent directories are
// created as needed.
func (a *Adapter) WriteFile(ctx context.Context, p string, content []byte) error {
	root, full, err := a.prepare(ctx, p, true)
	if err != nil {
		return err
	}
	if full == root.path {
		return fmt.Errorf("%w: cannot write the storage root", domain.ErrInvalidInput)
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent directories: %w", err)
	}

	lock := flock.New(filepath.Join(root.path, LockFileName))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire write lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("acquire write lock: %w", ctx.Err())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			a.log.Warn("release write lock: %v", err)
		}
	}()

	tmp := filepath.Join(dir, "."+filepath.Base(full)+tempMarker+uuid.NewString())
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", p, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", p, err)
	}

	a.writesMu.Lock()
	a.writes[full] = sha256.Sum256(content)
	a.writesMu.Unlock()

	a.log.Debug("wrote %s (%d bytes)", p, len(content))
	return nil
}

// ListFiles returns the entries directly under dir, sorted. Directories carry
// a trailing "/". A missing directory lists as empty.
func (a *Adapter) ListFiles(ctx context.Context, dir string) ([]string, error) {
	_, full, err := a.prepare(ctx, dir, false)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(full)
	if isAbsent(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name == LockFileName || strings.Contains(name, tempMarker) {
			continue
		}
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Disconnect detaches the directory.
func (a *Adapter) Disconnect(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.root != nil {
		a.log.Debug("disconnected %s", a.root.Locator())
	}
	a.root = nil
	return nil
}

// Watch calls onChange whenever the file at p changes on disk to content
// other than what this adapter last wrote. It blocks until ctx is done.
func (a *Adapter) Watch(ctx context.Context, p string, onChange func()) error {
	_, full, err := a.prepare(ctx, p, false)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Atomic replacement swaps the inode, so watch the parent directory.
	if err := watcher.Add(filepath.Dir(full)); err != nil {
		return fmt.Errorf("watch %s: %w", p, err)
	}
	a.log.Debug("watching %s", full)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != full || event.Op == fsnotify.Chmod {
				continue
			}
			if a.isOwnWrite(full) {
				continue
			}
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.Warn("watch %s: %v", p, err)
		}
	}
}

func (a *Adapter) attach(handle *DirectoryHandle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.root = handle
}

// prepare resolves p under the attached root and checks permission.
func (a *Adapter) prepare(ctx context.Context, p string, write bool) (*DirectoryHandle, string, error) {
	a.mu.RLock()
	root := a.root
	a.mu.RUnlock()
	if root == nil {
		return nil, "", domain.ErrNotConnected
	}

	full, err := root.resolve(p)
	if err != nil {
		return nil, "", err
	}

	if a.verifier != nil && !a.verifier.Verify(ctx, root, write) {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrPermissionDenied, root.Locator())
	}
	return root, full, nil
}

// isOwnWrite reports whether the file at full still holds what this
// adapter last wrote there.
func (a *Adapter) isOwnWrite(full string) bool {
	a.writesMu.Lock()
	digest, ok := a.writes[full]
	a.writesMu.Unlock()
	if !ok {
		return false
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return false
	}
	return sha256.Sum256(data) == digest
}
