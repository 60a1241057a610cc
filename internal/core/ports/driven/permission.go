package driven

import (
	"context"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
)

// PermissionVerifier decides whether a handle is usable for read-write access.
// It never returns an error: any failure means "not usable".
type PermissionVerifier interface {
	Verify(ctx context.Context, handle domain.StorageHandle, requestIfNeeded bool) bool
}

// PermissionPrompter asks the user to grant read-write access to a storage root.
// It must only be invoked in direct response to a user action.
type PermissionPrompter interface {
	ConfirmAccess(ctx context.Context, name, locator string) (bool, error)
}

// DirectoryPicker lets the user choose a local directory.
type DirectoryPicker interface {
	// PickDirectory returns the chosen path or domain.ErrSelectionCancelled.
	PickDirectory(ctx context.Context) (string, error)
}

// Authorizer obtains an OAuth authorisation code from the user.
//
// buildURL returns the provider's consent URL for the given redirect URI and
// CSRF state. Implementations send the user there and wait for the redirect.
type Authorizer interface {
	Authorize(ctx context.Context, buildURL func(redirectURI, state string) string) (code, redirectURI string, err error)
}
