package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var errRequired = errors.New("value is required")

// IsTerminal reports whether f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func Required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errRequired
	}
	return nil
}

// Console asks single-line questions. Without a terminal it falls back to
// huh's accessible mode, which reads plain lines from the input.
type Console struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	accessible := true
	if f, ok := in.(*os.File); ok {
		accessible = !IsTerminal(f)
	}
	return &Console{in: in, out: out, accessible: accessible}
}

// Ask keeps asking until a non-blank answer is given and returns it trimmed.
func (c *Console) Ask(title string) (string, error) {
	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Value(&value).
				Validate(Required),
		),
	).
		WithInput(c.in).
		WithOutput(c.out).
		WithAccessible(c.accessible)

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt %q: %w", title, err)
	}
	return strings.TrimSpace(value), nil
}

// Steps runs long operations behind a spinner and prints a status line when
// each one finishes.
type Steps struct {
	out         io.Writer
	interactive bool
}

func NewSteps(out io.Writer, interactive bool) *Steps {
	return &Steps{out: out, interactive: interactive}
}

func (s *Steps) Run(title string, fn func() error) error {
	var err error
	if s.interactive {
		_ = spinner.New().
			Title(title).
			Action(func() { err = fn() }).
			Run()
	} else {
		err = fn()
	}

	if err != nil {
		_, _ = fmt.Fprintln(s.out, failStyle.Render("✗ "+title))
		return err
	}
	_, _ = fmt.Fprintln(s.out, successStyle.Render("✓ "+title))
	return nil
}
