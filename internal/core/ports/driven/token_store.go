package driven

import (
	"context"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
)

// TokenStore persists the remote drive credentials (single slot).
type TokenStore interface {
	// SaveCredentials replaces the stored credentials.
	SaveCredentials(ctx context.Context, creds domain.RemoteCredentials) error

	// GetCredentials returns the stored credentials, or nil.
	GetCredentials(ctx context.Context) (*domain.RemoteCredentials, error)

	// DeleteCredentials removes the stored credentials. No-op when absent.
	DeleteCredentials(ctx context.Context) error
}
