// Command mmt manages the storage root and settings of the media tracker.
package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/custodia-labs/mediatracker/internal/adapters/driven/config/file"
	"github.com/custodia-labs/mediatracker/internal/adapters/driven/storage/gdrive"
	"github.com/custodia-labs/mediatracker/internal/adapters/driven/storage/localfs"
	"github.com/custodia-labs/mediatracker/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/mediatracker/internal/adapters/driving/cli"
	"github.com/custodia-labs/mediatracker/internal/adapters/driving/oauth"
	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/services"
)

// Set by the linker: -ldflags "-X main.version=v1.2.3".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}

func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	configDir, err := file.DefaultConfigDir()
	if err != nil {
		return nil, fmt.Errorf("locating config directory: %w", err)
	}

	appConfig, err := file.NewConfigStore(configDir, file.AppConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", file.AppConfigFile, err)
	}
	settingsCache, err := file.NewConfigStore(configDir, file.SettingsCacheFile)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", file.SettingsCacheFile, err)
	}

	app := file.LoadAppSettings(appConfig)
	if opts.DataDir != "" {
		app.DataDir = opts.DataDir
	}

	store, err := sqlite.NewStore(app.DataDir)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("opening handle cache: %w", err)
	}

	gate := services.NewPermissionGate()
	local := localfs.New(opts.Prompter, opts.Prompter, gate)
	remote := gdrive.New(app.Drive, store.TokenStore(), oauth.NewLoopbackAuthorizer(os.Stderr))

	store.RegisterResolver(domain.HandleKindLocal, local)
	store.RegisterResolver(domain.HandleKindRemote, remote)

	storage := services.NewStorageService(store.HandleStore(), gate, local, remote)
	settings := services.NewSettingsService(settingsCache, storage, services.NewConfigFileService())

	return &cli.Services{
		Storage:  storage,
		Settings: settings,
		Close:    store.Close,
	}, nil
}
