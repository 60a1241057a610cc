// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based key/value storage, used for both the
//     application config (config.toml) and the media settings cache
//     (settings.toml)
//   - LoadAppSettings: resolves domain.AppSettings from a ConfigStore and
//     the environment
package file
