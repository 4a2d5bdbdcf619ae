package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dotcommander/sitecms/internal/cue"
	"github.com/dotcommander/sitecms/internal/lint"
)

// ConsoleFormatter prints a compact, colored report.
type ConsoleFormatter struct {
	opts Options
}

// NewConsoleFormatter creates a ConsoleFormatter.
func NewConsoleFormatter(opts Options) *ConsoleFormatter {
	return &ConsoleFormatter{opts: opts}
}

func (f *ConsoleFormatter) style(color string) lipgloss.Style {
	if !f.opts.Color {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Format prints files with findings, then totals. Quiet mode prints nothing.
func (f *ConsoleFormatter) Format(summary *lint.LintSummary) error {
	if f.opts.Quiet {
		return nil
	}

	var b strings.Builder
	for _, result := range summary.Results {
		issues := len(result.Errors) + len(result.Warnings) + len(result.Suggestions)
		if issues == 0 && !f.opts.Verbose {
			continue
		}

		status, color := "✓", "10"
		switch {
		case len(result.Errors) > 0:
			status, color = "✗", "9"
		case len(result.Warnings) > 0:
			status, color = "⚠", "3"
		case len(result.Suggestions) > 0:
			status, color = "💡", "7"
		}
		fmt.Fprintf(&b, "%s %s\n", f.style(color).Render(status), displayFile(result))

		for _, e := range result.Errors {
			f.writeIssue(&b, e)
		}
		for _, w := range result.Warnings {
			f.writeIssue(&b, w)
		}
		for _, s := range result.Suggestions {
			f.writeIssue(&b, s)
		}
	}

	if summary.FailedFiles > 0 || summary.TotalWarnings > 0 || summary.TotalSuggestions > 0 {
		fmt.Fprintf(&b, "\n%d/%d passed, %d errors, %d warnings, %d suggestions (%v)\n",
			summary.SuccessfulFiles, summary.TotalFiles,
			summary.TotalErrors, summary.TotalWarnings, summary.TotalSuggestions,
			(time.Duration(summary.Duration) * time.Millisecond).Round(time.Millisecond))
	} else {
		bold := f.style("10").Bold(f.opts.Color)
		fmt.Fprintf(&b, "%s\n", bold.Render(fmt.Sprintf("✓ All %d files passed", summary.TotalFiles)))
	}
	if summary.BaselineIgnored > 0 {
		fmt.Fprintf(&b, "%d known issues ignored (baseline)\n", summary.BaselineIgnored)
	}

	return emit(f.opts, []byte(b.String()))
}

func (f *ConsoleFormatter) writeIssue(b *strings.Builder, e cue.ValidationError) {
	var prefix, color string
	switch e.Severity {
	case cue.SeverityError:
		prefix, color = "    ✘ ", "9"
	case cue.SeverityWarning:
		prefix, color = "    ⚠ ", "3"
	default:
		prefix, color = "    💡 ", "7"
	}

	location := e.File
	if e.Line > 0 {
		location = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	fmt.Fprintf(b, "%s%s: %s", prefix, f.style(color).Render(location), e.Message)
	if f.opts.Verbose && e.Source != "" {
		fmt.Fprintf(b, " [%s]", e.Source)
	}
	b.WriteByte('\n')
}
