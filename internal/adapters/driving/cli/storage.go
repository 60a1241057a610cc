package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driving"
)

var (
	labelStyle   = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("243"))
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Manage the storage root",
	Long: `Connect, reconnect or disconnect the folder where settings and records are kept.

With no subcommand, shows the current connection.`,
	RunE: runStorageStatus,
}

var storageConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Choose a storage root",
	Long: `Choose a storage root and remember it for later sessions.

Kinds:
  local   - a directory on this machine (--dir, or asked interactively)
  remote  - a folder in Google Drive (opens the browser to sign in)`,
	RunE: runStorageConnect,
}

var storageReconnectCmd = &cobra.Command{
	Use:   "reconnect",
	Short: "Reattach the remembered storage root",
	Long: `Reattach the storage root chosen in an earlier session.

Without --prompt nothing is asked; if access must be confirmed again the
command reports that instead.`,
	RunE: runStorageReconnect,
}

var storageDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Forget the storage root",
	RunE:  runStorageDisconnect,
}

var storageStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the storage connection",
	RunE:  runStorageStatus,
}

func init() {
	storageConnectCmd.Flags().String("kind", string(domain.HandleKindLocal), "storage kind: local or remote")
	storageConnectCmd.Flags().String("dir", "", "local directory to use")
	storageReconnectCmd.Flags().Bool("prompt", false, "ask to confirm access if needed")

	storageCmd.AddCommand(storageConnectCmd)
	storageCmd.AddCommand(storageReconnectCmd)
	storageCmd.AddCommand(storageDisconnectCmd)
	storageCmd.AddCommand(storageStatusCmd)
	rootCmd.AddCommand(storageCmd)
}

func runStorageConnect(cmd *cobra.Command, _ []string) error {
	if err := requireStorage(); err != nil {
		return err
	}

	kindFlag, _ := cmd.Flags().GetString("kind") //nolint:errcheck // flag is registered above
	dir, _ := cmd.Flags().GetString("dir")       //nolint:errcheck // flag is registered above

	kind := domain.HandleKind(kindFlag)
	if !kind.IsValid() {
		return fmt.Errorf("unknown storage kind %q (use local or remote)", kindFlag)
	}
	if dir != "" {
		if kind != domain.HandleKindLocal {
			return errors.New("--dir only applies to local storage")
		}
		prompter.SetDirectory(dir)
	}

	handle, err := storageService.Connect(cmd.Context(), kind)
	if errors.Is(err, domain.ErrSelectionCancelled) {
		cmd.Println("Selection cancelled.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	cmd.Printf("Connected to %s %q.\n", kind.Description(), handle.Name())
	return nil
}

func runStorageReconnect(cmd *cobra.Command, _ []string) error {
	if err := requireStorage(); err != nil {
		return err
	}

	prompt, _ := cmd.Flags().GetBool("prompt") //nolint:errcheck // flag is registered above

	ok, err := storageService.Reconnect(cmd.Context(), prompt)
	if err != nil {
		return fmt.Errorf("failed to reconnect: %w", err)
	}
	if !ok {
		cmd.Println("Not reconnected.")
		if !prompt {
			cmd.Println("Run 'mmt storage reconnect --prompt' to confirm access, or 'mmt storage connect' to choose a folder.")
		}
		return nil
	}

	cmd.Println("Reconnected.")
	return nil
}

func runStorageDisconnect(cmd *cobra.Command, _ []string) error {
	if err := requireStorage(); err != nil {
		return err
	}
	// Reattach quietly so the backend can release what it holds.
	reconnect(cmd, false)

	if err := storageService.Disconnect(cmd.Context()); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}
	cmd.Println("Disconnected.")
	return nil
}

func runStorageStatus(cmd *cobra.Command, _ []string) error {
	if err := requireStorage(); err != nil {
		return err
	}
	reconnect(cmd, false)

	status, err := storageService.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read storage status: %w", err)
	}
	cmd.Print(renderStatus(status))
	return nil
}

func renderStatus(s *driving.StorageStatus) string {
	out := headingStyle.Render("Storage") + "\n"

	if s.Kind == "" {
		out += row("State", warnStyle.Render("not configured"))
		out += "\nRun 'mmt storage connect' to choose a folder.\n"
		return out
	}

	state := warnStyle.Render("not connected")
	if s.Connected {
		state = okStyle.Render("connected")
	}
	out += row("State", state)
	out += row("Kind", s.Kind.Description())
	out += row("Name", s.Name)
	out += row("Location", s.Locator)
	out += row("Access", renderPermission(s.Permission))
	if !s.CachedAt.IsZero() {
		out += row("Chosen", s.CachedAt.Local().Format(time.DateTime))
	}
	return out
}

func renderPermission(p domain.PermissionState) string {
	switch p {
	case domain.PermissionGranted:
		return okStyle.Render(p.String())
	case domain.PermissionPrompt:
		return warnStyle.Render("needs confirmation")
	case domain.PermissionDenied:
		return errStyle.Render(p.String())
	default:
		return p.String()
	}
}

func row(label, value string) string {
	return labelStyle.Render(label) + value + "\n"
}
