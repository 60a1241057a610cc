package domain

import "maps"

// ConfigFileName is the settings document path relative to the storage root.
const ConfigFileName = ".mmt.config"

// Well-known configuration keys. Documents may carry any other key.
const (
	ConfigKeyThemePrimary     = "themePrimary"
	ConfigKeyThemeHighlight   = "themeHighlight"
	ConfigKeyCardSize         = "cardSize"
	ConfigKeyHalfStarsEnabled = "halfStarsEnabled"
	ConfigKeyOMDbAPIKey       = "omdbApiKey" //nolint:gosec // G101: key name, not a credential.
)

// Card sizes accepted for ConfigKeyCardSize.
const (
	CardSizeSmall  = "small"
	CardSizeMedium = "medium"
	CardSizeLarge  = "large"
)

// ConfigDocument is a flat mapping of setting keys to scalar values.
// Unknown keys pass through unchanged.
type ConfigDocument map[string]any

// Clone returns a shallow copy of the document. A nil document clones to an empty one.
func (d ConfigDocument) Clone() ConfigDocument {
	out := make(ConfigDocument, len(d))
	maps.Copy(out, d)
	return out
}

// Has returns true if key is present, regardless of its value.
func (d ConfigDocument) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// String returns the string value of key, or "" if absent or not a string.
func (d ConfigDocument) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Bool returns the boolean value of key, or false if absent or not a bool.
func (d ConfigDocument) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// DefaultConfig returns the built-in baseline document.
// This is the lowest-precedence configuration layer.
func DefaultConfig() ConfigDocument {
	return ConfigDocument{
		ConfigKeyThemePrimary:     "#6366f1",
		ConfigKeyThemeHighlight:   "#f59e0b",
		ConfigKeyCardSize:         CardSizeMedium,
		ConfigKeyHalfStarsEnabled: true,
		ConfigKeyOMDbAPIKey:       "",
	}
}

// AllCardSizes returns the accepted card sizes.
func AllCardSizes() []string {
	return []string{CardSizeSmall, CardSizeMedium, CardSizeLarge}
}
