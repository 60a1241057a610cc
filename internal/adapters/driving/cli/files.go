package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Read and write files in the storage root",
}

var filesLsCmd = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List a directory",
	Long:  `List a directory of the storage root. Directories end in "/".`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFilesLs,
}

var filesCatCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesCat,
}

var filesPutCmd = &cobra.Command{
	Use:   "put <path> [source]",
	Short: "Write a file",
	Long: `Write a file to the storage root, replacing it if it exists. Content is
read from source, or from stdin when source is omitted or "-". Missing
directories are created.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFilesPut,
}

func init() {
	filesCmd.AddCommand(filesLsCmd)
	filesCmd.AddCommand(filesCatCmd)
	filesCmd.AddCommand(filesPutCmd)
	rootCmd.AddCommand(filesCmd)
}

func runFilesLs(cmd *cobra.Command, args []string) error {
	adapter, err := connectedAdapter(cmd)
	if err != nil {
		return err
	}

	dir := ""
	if len(args) == 1 {
		dir = args[0]
	}
	names, err := adapter.ListFiles(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("failed to list %q: %w", dir, err)
	}
	for _, name := range names {
		cmd.Println(name)
	}
	return nil
}

func runFilesCat(cmd *cobra.Command, args []string) error {
	adapter, err := connectedAdapter(cmd)
	if err != nil {
		return err
	}

	data, err := adapter.ReadFile(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", args[0], err)
	}
	if data == nil {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, args[0])
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runFilesPut(cmd *cobra.Command, args []string) error {
	var src io.Reader = cmd.InOrStdin()
	if len(args) == 2 && args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open source: %w", err)
		}
		defer f.Close()
		src = f
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	adapter, err := connectedAdapter(cmd)
	if err != nil {
		return err
	}
	if err := adapter.WriteFile(cmd.Context(), args[0], data); err != nil {
		return fmt.Errorf("failed to write %q: %w", args[0], err)
	}
	cmd.Printf("Wrote %d bytes to %s.\n", len(data), args[0])
	return nil
}

func connectedAdapter(cmd *cobra.Command) (driven.StorageAdapter, error) {
	if err := requireStorage(); err != nil {
		return nil, err
	}
	reconnect(cmd, true)
	adapter := storageService.Active()
	if adapter == nil {
		return nil, fmt.Errorf("%w: run 'mmt storage connect'", domain.ErrNotConnected)
	}
	return adapter, nil
}
