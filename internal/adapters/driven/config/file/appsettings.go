package file

import (
	"os"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
)

// Application config keys.
const (
	KeyDataDir           = "data_dir"
	KeyDriveClientID     = "drive.client_id"
	KeyDriveClientSecret = "drive.client_secret"
	KeyDriveFolderName   = "drive.folder_name"
)

// Environment overrides, typically supplied through a .env file.
const (
	EnvDataDir           = "MMT_DATA_DIR"
	EnvDriveClientID     = "MMT_DRIVE_CLIENT_ID"
	EnvDriveClientSecret = "MMT_DRIVE_CLIENT_SECRET"
)

// LoadAppSettings resolves application settings: defaults, then the config
// store, then environment variables.
func LoadAppSettings(store driven.ConfigStore) domain.AppSettings {
	settings := domain.DefaultAppSettings()

	if store != nil {
		override(&settings.DataDir, store.GetString(KeyDataDir))
		override(&settings.Drive.ClientID, store.GetString(KeyDriveClientID))
		override(&settings.Drive.ClientSecret, store.GetString(KeyDriveClientSecret))
		override(&settings.Drive.FolderName, store.GetString(KeyDriveFolderName))
	}

	override(&settings.DataDir, os.Getenv(EnvDataDir))
	override(&settings.Drive.ClientID, os.Getenv(EnvDriveClientID))
	override(&settings.Drive.ClientSecret, os.Getenv(EnvDriveClientSecret))

	return settings
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
