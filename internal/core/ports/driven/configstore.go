package driven

// ConfigStore provides fast local key/value configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
//
// Two stores are used: the application config (OAuth client, data dir) and
// the settings cache that mirrors the media settings document so they are
// available before any storage backend is connected.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns empty string if key doesn't exist or isn't a string.
	GetString(key string) string

	// GetBool retrieves a boolean configuration value.
	// Returns false if key doesn't exist or isn't a boolean.
	GetBool(key string) bool

	// All returns a copy of every stored key/value pair.
	All() map[string]any

	// Set stores a configuration value.
	// The value is persisted immediately.
	Set(key string, value any) error

	// SetAll merges values into the store and persists once.
	SetAll(values map[string]any) error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
