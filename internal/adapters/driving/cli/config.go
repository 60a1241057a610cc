package cli

import (
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage media settings",
	Long: `View and change the media settings stored in the storage root.

Settings resolve as built-in defaults, then the local cache, then the
` + domain.ConfigFileName + ` file in the connected folder. With no subcommand, shows
the effective settings.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting. Values are read as booleans (true/false), then
numbers, then strings; use --string to keep the value as text. Colours,
card size and the API key are always text.

Known keys:
  themePrimary      hex colour, e.g. #6366f1
  themeHighlight    hex colour, e.g. #f59e0b
  cardSize          small, medium or large
  halfStarsEnabled  true or false
  omdbApiKey        OMDb API key (see 'mmt config api-key')`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore default settings",
	RunE:  runConfigReset,
}

var configAPIKeyCmd = &cobra.Command{
	Use:   "api-key [key]",
	Short: "Set the OMDb API key",
	Long:  `Set the OMDb API key. If no key is given it is read from the terminal without echo.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigAPIKey,
}

var configWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print settings whenever the settings file changes",
	Long: `Watch the settings file in the connected folder and print the effective
settings each time another program changes it. Stops on Ctrl-C.`,
	RunE: runConfigWatch,
}

func init() {
	configSetCmd.Flags().Bool("string", false, "store the value as text")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configResetCmd)
	configCmd.AddCommand(configAPIKeyCmd)
	configCmd.AddCommand(configWatchCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	connected := reconnect(cmd, true)

	doc, err := settingsService.LoadAllSettings(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Println(headingStyle.Render("Settings"))
	cmd.Print(renderConfig(doc))
	if !connected {
		cmd.Println()
		cmd.Println(warnStyle.Render("Storage not connected:") + " showing local settings only.")
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	reconnect(cmd, true)

	v, err := settingsService.GetValue(cmd.Context(), args[0], nil)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if v == nil {
		return fmt.Errorf("%w: no setting %q", domain.ErrNotFound, args[0])
	}
	cmd.Println(formatValue(args[0], v, false))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	asString, _ := cmd.Flags().GetBool("string") //nolint:errcheck // flag is registered above

	var value any = args[1]
	if !asString {
		value = parseValue(args[0], args[1])
	}

	connected := reconnect(cmd, true)
	if err := settingsService.SetValue(cmd.Context(), args[0], value); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	cmd.Printf("Set %s to %s.\n", args[0], formatValue(args[0], value, true))
	if !connected {
		cmd.Println("Storage not connected: saved locally only.")
	}
	return nil
}

func runConfigReset(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	reconnect(cmd, true)

	if err := settingsService.ResetToDefaults(cmd.Context()); err != nil {
		return fmt.Errorf("failed to reset settings: %w", err)
	}
	cmd.Println("Settings restored to defaults.")
	return nil
}

func runConfigAPIKey(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		var err error
		key, err = prompter.AskSecret(cmd.Context(), "OMDb API key: ")
		if err != nil {
			return err
		}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key is required")
	}

	reconnect(cmd, true)
	if err := settingsService.UpdateAPIKey(cmd.Context(), key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	cmd.Printf("API key saved (%s).\n", maskAPIKey(key))
	return nil
}

func runConfigWatch(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	if !reconnect(cmd, true) {
		return fmt.Errorf("%w: run 'mmt storage connect' first", domain.ErrNotConnected)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Println("Watching for changes. Press Ctrl-C to stop.")
	err := settingsService.WatchConfig(ctx, func(doc domain.ConfigDocument) {
		cmd.Println(headingStyle.Render("Settings changed"))
		cmd.Print(renderConfig(doc))
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// textKeys are settings whose values are always strings.
var textKeys = map[string]bool{
	domain.ConfigKeyThemePrimary:   true,
	domain.ConfigKeyThemeHighlight: true,
	domain.ConfigKeyCardSize:       true,
	domain.ConfigKeyOMDbAPIKey:     true,
}

// parseValue reads a command-line value for key as a bool, then a number,
// then text. Numbers become float64, matching decoded JSON. Values of text
// keys are kept as given.
func parseValue(key, s string) any {
	if textKeys[key] {
		return s
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}

func renderConfig(doc domain.ConfigDocument) string {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, k, formatValue(k, doc[k], true))
	}
	return b.String()
}

func formatValue(key string, v any, mask bool) string {
	if key == domain.ConfigKeyOMDbAPIKey && mask {
		s, _ := v.(string)
		if s == "" {
			return "(not set)"
		}
		return maskAPIKey(s)
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
