package gdrive

import (
	"context"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
)

// Ensure FolderHandle implements the interface.
var _ domain.StorageHandle = (*FolderHandle)(nil)

// FolderHandle is the capability for a Drive folder. Its permission is the
// validity of the stored OAuth credentials.
type FolderHandle struct {
	id      string
	name    string
	adapter *Adapter
}

// Kind returns domain.HandleKindRemote.
func (h *FolderHandle) Kind() domain.HandleKind {
	return domain.HandleKindRemote
}

// Name returns the folder name.
func (h *FolderHandle) Name() string {
	return h.name
}

// Locator returns the Drive folder ID.
func (h *FolderHandle) Locator() string {
	return h.id
}

// QueryPermission is granted while the stored credentials hold a live or
// refreshable token, prompt otherwise.
func (h *FolderHandle) QueryPermission(ctx context.Context) (domain.PermissionState, error) {
	creds, err := h.adapter.tokens.GetCredentials(ctx)
	if err != nil {
		return "", err
	}
	if creds.IsUsable() {
		return domain.PermissionGranted, nil
	}
	return domain.PermissionPrompt, nil
}

// RequestPermission runs the OAuth consent flow when no usable token exists.
func (h *FolderHandle) RequestPermission(ctx context.Context) (domain.PermissionState, error) {
	state, err := h.QueryPermission(ctx)
	if err != nil || state != domain.PermissionPrompt {
		return state, err
	}
	if h.adapter.authorizer == nil {
		return domain.PermissionPrompt, nil
	}
	if err := h.adapter.authorize(ctx); err != nil {
		return "", err
	}
	return domain.PermissionGranted, nil
}
