// Package cli implements the mmt command-line interface.
//
// Commands talk to the core through the driving ports only. Services are
// built lazily by a Bootstrap function supplied from main, so global flags
// such as --data-dir are parsed before any store is opened.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mediatracker/internal/core/ports/driving"
	"github.com/custodia-labs/mediatracker/internal/logger"
)

var version = "dev"

// annotationNoServices marks commands that run without building services.
const annotationNoServices = "mmt/no-services"

var (
	storageService  driving.StorageService
	settingsService driving.SettingsService
	closeServices   func() error

	bootstrap Bootstrap
	prompter  = NewTerminalPrompter(nil, nil)

	verboseFlag bool
	dataDirFlag string
)

// Options carries global flag values into the bootstrap.
type Options struct {
	// DataDir overrides the configured data directory when non-empty.
	DataDir string

	// Prompter answers permission and directory questions on the terminal.
	Prompter *TerminalPrompter
}

// Services are the core services the commands drive.
type Services struct {
	Storage  driving.StorageService
	Settings driving.SettingsService

	// Close releases resources held by the services. May be nil.
	Close func() error
}

// Bootstrap builds the services once global flags are known.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var rootCmd = &cobra.Command{
	Use:   "mmt",
	Short: "Media tracker storage and settings",
	Long: `mmt keeps your media tracker settings and records in a folder you choose,
either on this machine or in Google Drive.

Connect a storage root once; later sessions reconnect to it automatically.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "directory of the handle cache (default ~/.mmt/data)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices injects ready-made services, bypassing the bootstrap.
func SetServices(storage driving.StorageService, settings driving.SettingsService) {
	storageService = storage
	settingsService = settings
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)
	prompter.SetOutput(cmd.ErrOrStderr())

	if bootstrap == nil || storageService != nil || cmd.Annotations[annotationNoServices] != "" {
		return nil
	}
	svc, err := bootstrap(cmd.Context(), Options{DataDir: dataDirFlag, Prompter: prompter})
	if err != nil {
		return err
	}
	storageService = svc.Storage
	settingsService = svc.Settings
	closeServices = svc.Close
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

func requireStorage() error {
	if storageService == nil {
		return errors.New("storage service not configured")
	}
	return nil
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

// reconnect attaches the cached storage root if there is one. Commands that
// touch the root pass prompt so the user can confirm access; status and
// disconnect never ask.
func reconnect(cmd *cobra.Command, prompt bool) bool {
	if storageService == nil {
		return false
	}
	if storageService.Active() != nil {
		return true
	}
	ok, err := storageService.Reconnect(cmd.Context(), prompt)
	if err != nil {
		logger.Warn("reconnect: %v", err)
		return false
	}
	return ok
}
