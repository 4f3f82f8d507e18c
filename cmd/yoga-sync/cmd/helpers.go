package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/bianoble/yoga-sync/internal/ctxlog"
	"github.com/bianoble/yoga-sync/pkg/yogasync"
)

// newLogger builds the stderr logger. Without --log-level, logs are
// limited to warnings unless --verbose is set.
func newLogger() *slog.Logger {
	level := logLevel
	if level == "" {
		level = "warn"
		if verbose {
			level = "info"
		}
	}
	return ctxlog.New(level, logFormat, os.Stderr)
}

// newClient loads the layered config with flag overrides applied.
func newClient() (*yogasync.Client, error) {
	var out io.Writer
	if verbose {
		out = os.Stdout
	}
	client, err := yogasync.New(yogasync.Options{
		ConfigPath:     configPath,
		NoInherit:      noInherit,
		LibraryVersion: libraryVersion,
		BuildDir:       buildDir,
		Concurrency:    concurrency,
		CommandOutput:  out,
		Logger:         newLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", configPath, err)
	}
	return client, nil
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

func humanSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	headStyle = lipgloss.NewStyle().Bold(true)
)

func paint(style lipgloss.Style, s string) string {
	if noColor {
		return s
	}
	return style.Render(s)
}

// stateLabel renders a task state padded to a fixed column.
func stateLabel(s yogasync.State) string {
	label := fmt.Sprintf("%-10s", s)
	switch s {
	case yogasync.StateCompleted:
		return paint(okStyle, label)
	case yogasync.StateUpToDate:
		return paint(skipStyle, label)
	case yogasync.StateFailed:
		return paint(failStyle, label)
	case yogasync.StateAbandoned:
		return paint(warnStyle, label)
	default:
		return label
	}
}

// verdictLabel renders a gate verdict padded to a fixed column.
func verdictLabel(v yogasync.Verdict) string {
	label := fmt.Sprintf("%-8s", v)
	switch v {
	case yogasync.Present:
		return paint(okStyle, label)
	case yogasync.Stale:
		return paint(warnStyle, label)
	default:
		return paint(failStyle, label)
	}
}

func shortDigest(s string) string {
	if len(s) > 16 {
		return s[:16]
	}
	if s == "" {
		return "-"
	}
	return s
}
