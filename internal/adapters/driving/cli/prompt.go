package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
)

var (
	_ driven.PermissionPrompter = (*TerminalPrompter)(nil)
	_ driven.DirectoryPicker    = (*TerminalPrompter)(nil)
)

// TerminalPrompter asks storage questions on the terminal.
type TerminalPrompter struct {
	mu     sync.Mutex
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
	preset string
}

// NewTerminalPrompter creates a prompter reading from in and writing to out.
// Nil arguments default to stdin and stderr.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return &TerminalPrompter{in: in, reader: bufio.NewReader(in), out: out}
}

// SetOutput redirects prompts.
func (p *TerminalPrompter) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w != nil {
		p.out = w
	}
}

// SetDirectory makes the next PickDirectory return dir without asking.
func (p *TerminalPrompter) SetDirectory(dir string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.preset = dir
}

// PickDirectory returns the preset directory, or asks for one.
// An empty answer cancels the selection.
func (p *TerminalPrompter) PickDirectory(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	dir := p.preset
	p.preset = ""
	if dir == "" {
		fmt.Fprint(p.out, "Storage directory: ")
		line, err := p.readLine(ctx)
		if err != nil {
			return "", err
		}
		dir = line
	}
	if dir == "" {
		return "", domain.ErrSelectionCancelled
	}
	return expandHome(dir), nil
}

// ConfirmAccess asks a yes/no question. Anything but y or yes declines.
func (p *TerminalPrompter) ConfirmAccess(ctx context.Context, name, locator string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "Allow mmt to read and write %q (%s)? [y/N]: ", name, locator)
	line, err := p.readLine(ctx)
	if err != nil {
		return false, err
	}
	return isYes(line), nil
}

// readLine returns the next trimmed line. EOF reads as an empty answer.
func (p *TerminalPrompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// AskSecret asks question and reads the answer without echo when the
// input is a terminal.
func (p *TerminalPrompter) AskSecret(ctx context.Context, question string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprint(p.out, question)
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return p.readLine(ctx)
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func expandHome(dir string) string {
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~"))
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
