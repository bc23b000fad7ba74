// Package cliui provides reusable terminal UI helpers (spinners, step indicators,
// markdown rendering) for deepresearch CLI commands.
package cliui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))

	// StageStyle renders stage banners in the plain streaming output.
	StageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	// DimStyle renders secondary detail like activity-log lines.
	DimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	// KeyStyle renders config keys and table headers.
	KeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	// ValueStyle renders config values.
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	// SourceStyle renders discovered source URLs.
	SourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	// ErrorStyle renders backend error content.
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	// WarnStyle renders warnings and retryable-error hints.
	WarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	// NameStyle renders model and provider names.
	NameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	// HeaderStyle renders section headers.
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
)

// spinnerFrames matches bubbletea's spinner.Dot pattern used in the live TUI.
var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Step prints an animated spinner while fn runs, then replaces it with
// a ✓ or ✗ checkmark and elapsed time.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	var mu sync.Mutex

	// Run spinner animation in background
	go func() {
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			mu.Lock()
			fmt.Fprintf(w, "\r  %s %s",
				spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]),
				msg,
			)
			mu.Unlock()

			select {
			case <-done:
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)

	// Clear the spinner line and print final result
	mu.Lock()
	fmt.Fprintf(w, "\r  %s %s %s\n",
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)
	mu.Unlock()

	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

// TerminalWidth returns the stdout width, or fallback when stdout is not a
// terminal (pipes, CI).
func TerminalWidth(fallback int) int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// RenderMarkdown renders markdown content for terminal display using glamour,
// word-wrapped to the current terminal width.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(TerminalWidth(80)),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}
