package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
)

// Ensure DirectoryHandle implements the interface.
var _ domain.StorageHandle = (*DirectoryHandle)(nil)

// DirectoryHandle is a live capability for a local directory.
type DirectoryHandle struct {
	path     string
	name     string
	prompter driven.PermissionPrompter

	mu    sync.Mutex
	grant domain.PermissionState
}

// NewDirectoryHandle creates a handle for dir with the given session grant.
// If name is empty the directory's base name is used.
func NewDirectoryHandle(
	dir, name string, grant domain.PermissionState, prompter driven.PermissionPrompter,
) (*DirectoryHandle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve directory: %w", err)
	}
	if name == "" {
		name = filepath.Base(abs)
	}
	return &DirectoryHandle{
		path:     abs,
		name:     name,
		prompter: prompter,
		grant:    grant,
	}, nil
}

// Kind returns domain.HandleKindLocal.
func (h *DirectoryHandle) Kind() domain.HandleKind {
	return domain.HandleKindLocal
}

// Name returns the display name.
func (h *DirectoryHandle) Name() string {
	return h.name
}

// Locator returns the absolute directory path.
func (h *DirectoryHandle) Locator() string {
	return h.path
}

// QueryPermission reports the current grant without prompting.
// The operating system's verdict takes precedence over the session grant.
func (h *DirectoryHandle) QueryPermission(_ context.Context) (domain.PermissionState, error) {
	info, err := os.Stat(h.path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", h.path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", h.path)
	}
	if err := checkAccess(h.path); err != nil {
		return domain.PermissionDenied, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grant, nil
}

// RequestPermission asks the user to approve read-write access when the
// handle is in the prompt state. Without a prompter the state is unchanged.
func (h *DirectoryHandle) RequestPermission(ctx context.Context) (domain.PermissionState, error) {
	state, err := h.QueryPermission(ctx)
	if err != nil || state != domain.PermissionPrompt {
		return state, err
	}
	if h.prompter == nil {
		return domain.PermissionPrompt, nil
	}

	ok, err := h.prompter.ConfirmAccess(ctx, h.name, h.path)
	if err != nil {
		return "", fmt.Errorf("confirm access: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if ok {
		h.grant = domain.PermissionGranted
	} else {
		h.grant = domain.PermissionDenied
	}
	return h.grant, nil
}

// resolve maps a slash-separated path relative to the root onto the
// filesystem, rejecting results outside the root.
func (h *DirectoryHandle) resolve(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimLeft(rel, "/")))
	if cleaned == "." {
		return h.path, nil
	}
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: %s", domain.ErrPathEscapesRoot, rel)
	}

	joined := filepath.Join(h.path, cleaned)
	if !within(h.path, joined) {
		return "", fmt.Errorf("%w: %s", domain.ErrPathEscapesRoot, rel)
	}
	inside, err := h.confined(joined)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rel, err)
	}
	if !inside {
		return "", fmt.Errorf("%w: %s", domain.ErrPathEscapesRoot, rel)
	}
	return joined, nil
}

// confined reports whether the deepest existing part of full still lies
// inside the root once symlinks are followed.
func (h *DirectoryHandle) confined(full string) (bool, error) {
	root, err := filepath.EvalSymlinks(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	for p := full; ; p = filepath.Dir(p) {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return within(root, resolved), nil
		}
		if !isAbsent(err) {
			return false, err
		}
		if p == h.path || filepath.Dir(p) == p {
			return true, nil
		}
	}
}

func within(root, p string) bool {
	return p == root || strings.HasPrefix(p, strings.TrimSuffix(root, string(os.PathSeparator))+string(os.PathSeparator))
}

// isAbsent reports whether err means nothing exists at a path, including
// when a parent segment is a regular file.
func isAbsent(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
