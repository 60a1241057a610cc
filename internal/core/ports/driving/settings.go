package driving

import (
	"context"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
)

// SettingsService resolves and persists the effective media settings.
type SettingsService interface {
	// LoadAllSettings returns defaults ⊕ local cache ⊕ config file.
	LoadAllSettings(ctx context.Context) (domain.ConfigDocument, error)

	// SaveAllSettings writes doc to the local cache and, if connected, the
	// config file. Reports whether the file was written.
	SaveAllSettings(ctx context.Context, doc domain.ConfigDocument) (bool, error)

	// SetValue validates and writes a single key through to both stores.
	SetValue(ctx context.Context, key string, value any) error

	// UpdateAPIKey stores the OMDb API key.
	UpdateAPIKey(ctx context.Context, key string) error

	// GetValue returns the effective value of key, or def if absent.
	GetValue(ctx context.Context, key string, def any) (any, error)

	// ResetToDefaults replaces stored settings with the built-in defaults.
	ResetToDefaults(ctx context.Context) error

	// WatchConfig calls fn with freshly resolved settings whenever the
	// config file changes outside this process. Blocks until ctx is done.
	WatchConfig(ctx context.Context, fn func(domain.ConfigDocument)) error

	// GetDefaults returns the built-in defaults.
	GetDefaults() domain.ConfigDocument
}
