package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/dotcommander/sitecms/internal/cue"
	"github.com/dotcommander/sitecms/internal/lint"
)

// MarkdownFormatter writes the summary as a Markdown report, for CI comments.
type MarkdownFormatter struct {
	opts Options
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts Options) *MarkdownFormatter {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &MarkdownFormatter{opts: opts}
}

func (f *MarkdownFormatter) Format(summary *lint.LintSummary) error {
	var b strings.Builder

	b.WriteString("# Content Check Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", f.opts.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Site:** %s\n\n", summary.ProjectRoot)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Count |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Files Scanned | %d |\n", summary.TotalFiles)
	fmt.Fprintf(&b, "| Successful | %d |\n", summary.SuccessfulFiles)
	fmt.Fprintf(&b, "| Failed | %d |\n", summary.FailedFiles)
	fmt.Fprintf(&b, "| Errors | %d |\n", summary.TotalErrors)
	fmt.Fprintf(&b, "| Warnings | %d |\n", summary.TotalWarnings)
	fmt.Fprintf(&b, "| Suggestions | %d |\n", summary.TotalSuggestions)
	if summary.BaselineIgnored > 0 {
		fmt.Fprintf(&b, "| Baseline Ignored | %d |\n", summary.BaselineIgnored)
	}
	b.WriteString("\n")

	b.WriteString("## Results\n\n")
	if summary.TotalFiles == 0 {
		b.WriteString("*No content files found.*\n\n")
	}
	for _, result := range summary.Results {
		issues := len(result.Errors) + len(result.Warnings) + len(result.Suggestions)
		if issues == 0 && !f.opts.Verbose {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", displayFile(result))
		fmt.Fprintf(&b, "Status: %s · Kind: `%s`\n\n", statusEmoji(result.Success), result.Kind)
		writeSection(&b, "Errors", result.Errors)
		writeSection(&b, "Warnings", result.Warnings)
		writeSection(&b, "Suggestions", result.Suggestions)
	}

	b.WriteString("## Conclusion\n\n")
	if summary.FailedFiles == 0 {
		b.WriteString("✓ All files passed validation\n")
	} else {
		fmt.Fprintf(&b, "✗ %d files failed validation\n", summary.FailedFiles)
	}

	return emit(f.opts, []byte(b.String()))
}

func writeSection(b *strings.Builder, title string, issues []cue.ValidationError) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(b, "#### %s\n\n", title)
	for _, e := range issues {
		fmt.Fprintf(b, "- %s", escapeMarkdown(e.Message))
		if e.Line > 0 {
			fmt.Fprintf(b, " (line %d)", e.Line)
		}
		if e.File != "" {
			fmt.Fprintf(b, " `%s`", e.File)
		}
		if e.Source != "" {
			fmt.Fprintf(b, " `[%s]`", e.Source)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func statusEmoji(success bool) string {
	if success {
		return "✅"
	}
	return "❌"
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "'")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
