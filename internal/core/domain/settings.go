package domain

// DefaultDriveFolderName is the Drive folder created under "My Drive" when none is configured.
const DefaultDriveFolderName = "MediaTracker"

// DriveSettings holds the OAuth client and folder settings of the remote backend.
type DriveSettings struct {
	// ClientID is the Google OAuth client ID.
	ClientID string

	// ClientSecret is the Google OAuth client secret.
	ClientSecret string

	// FolderName is the storage root folder name in "My Drive".
	FolderName string
}

// IsConfigured returns true if the OAuth client is set up.
func (d DriveSettings) IsConfigured() bool {
	return d.ClientID != "" && d.ClientSecret != ""
}

// AppSettings holds the application (not media) settings.
type AppSettings struct {
	// DataDir is where the durable handle store lives.
	DataDir string

	// Drive holds remote backend settings.
	Drive DriveSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The Drive client is left unconfigured; users must supply their own.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Drive: DriveSettings{
			FolderName: DefaultDriveFolderName,
		},
	}
}
