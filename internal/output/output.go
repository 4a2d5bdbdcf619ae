// Package output renders lint summaries for people and tools.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dotcommander/sitecms/internal/lint"
)

// Formatter renders a lint summary.
type Formatter interface {
	Format(summary *lint.LintSummary) error
}

// Options are shared by every formatter.
type Options struct {
	Quiet   bool
	Verbose bool
	// Output is a file path; empty means Writer.
	Output string
	// Writer defaults to os.Stdout.
	Writer io.Writer
	// Color enables lipgloss styling in console output.
	Color bool
	// ToolVersion is reported in machine-readable headers.
	ToolVersion string
	// Now stamps reports; defaults to time.Now.
	Now func() time.Time
}

// New returns the formatter for format: console, json or markdown.
func New(format string, opts Options) (Formatter, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	switch format {
	case "console", "":
		return NewConsoleFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	case "markdown":
		return NewMarkdownFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// emit writes data to the output file when one is set, else to w.
func emit(opts Options, data []byte) error {
	if opts.Output == "" {
		_, err := opts.Writer.Write(data)
		return err
	}
	if dir := filepath.Dir(opts.Output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory for %s: %w", opts.Output, err)
		}
	}
	if err := os.WriteFile(opts.Output, data, 0644); err != nil {
		return fmt.Errorf("error writing to file %s: %w", opts.Output, err)
	}
	return nil
}

func displayFile(r lint.LintResult) string {
	if r.File == "" {
		return "(site)"
	}
	return r.File
}
