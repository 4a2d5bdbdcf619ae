package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/sitecms/internal/cue"
	"github.com/dotcommander/sitecms/internal/lint"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

func failingSummary() *lint.LintSummary {
	return &lint.LintSummary{
		ProjectRoot:      "/site",
		TotalFiles:       2,
		SuccessfulFiles:  1,
		FailedFiles:      1,
		TotalErrors:      1,
		TotalWarnings:    1,
		TotalSuggestions: 0,
		Duration:         12,
		Results: []lint.LintResult{
			{File: "content/pages/accueil.md", Kind: "page", Success: true},
			{
				File: "content/valeurs/a.md",
				Kind: "value",
				Errors: []cue.ValidationError{{
					File: "content/valeurs/a.md", Message: `missing required field "titre"`,
					Severity: cue.SeverityError, Source: cue.SourceSchema,
				}},
				Warnings: []cue.ValidationError{{
					File: "content/valeurs/a.md", Message: "line has no \"name: value\" pair and is ignored: \"x\"",
					Severity: cue.SeverityWarning, Source: cue.SourceParser, Line: 3,
				}},
			},
		},
	}
}

func passingSummary() *lint.LintSummary {
	return &lint.LintSummary{
		ProjectRoot: "/site", TotalFiles: 1, SuccessfulFiles: 1,
		Results: []lint.LintResult{{File: "content/pages/accueil.md", Kind: "page", Success: true}},
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"", "console", "json", "markdown"} {
		f, err := New(format, Options{})
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}
	_, err := New("xml", Options{})
	assert.EqualError(t, err, "unsupported format: xml")
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleFormatter(Options{Writer: &buf}).Format(failingSummary()))

	out := buf.String()
	assert.Contains(t, out, "✗ content/valeurs/a.md\n")
	assert.Contains(t, out, `    ✘ content/valeurs/a.md: missing required field "titre"`)
	assert.Contains(t, out, "    ⚠ content/valeurs/a.md:3: line has no")
	assert.NotContains(t, out, "accueil.md", "clean files are hidden unless verbose")
	assert.Contains(t, out, "1/2 passed, 1 errors, 1 warnings, 0 suggestions (12ms)")
	assert.NotContains(t, out, "[schema]")
}

func TestConsoleFormatterVerbose(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleFormatter(Options{Writer: &buf, Verbose: true}).Format(failingSummary()))

	out := buf.String()
	assert.Contains(t, out, "✓ content/pages/accueil.md")
	assert.Contains(t, out, "[schema]")
}

func TestConsoleFormatterPassing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleFormatter(Options{Writer: &buf}).Format(passingSummary()))
	assert.Equal(t, "✓ All 1 files passed\n", buf.String())
}

func TestConsoleFormatterQuiet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleFormatter(Options{Writer: &buf, Quiet: true}).Format(failingSummary()))
	assert.Empty(t, buf.String())
}

func TestConsoleFormatterSiteResult(t *testing.T) {
	summary := passingSummary()
	summary.Results = append(summary.Results, lint.LintResult{
		Kind:    "site",
		Success: true,
		Warnings: []cue.ValidationError{{
			File: "content/pages/profil.md", Message: `page "profil" is missing`, Severity: cue.SeverityWarning,
		}},
	})
	summary.TotalWarnings = 1

	var buf bytes.Buffer
	require.NoError(t, NewConsoleFormatter(Options{Writer: &buf}).Format(summary))
	assert.Contains(t, buf.String(), "⚠ (site)\n")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(Options{Writer: &buf, Quiet: true, ToolVersion: "1.2.3", Now: fixedNow})
	require.NoError(t, f.Format(failingSummary()))

	var report JSONReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "sitecms", report.Header.Tool)
	assert.Equal(t, "1.2.3", report.Header.Version)
	assert.Equal(t, "2024-03-01T10:00:00Z", report.Header.Timestamp)
	assert.Equal(t, "/site", report.Header.Root)
	assert.Equal(t, 1, report.Summary.TotalErrors)
	assert.Equal(t, "12ms", report.Summary.Duration)
	require.Len(t, report.Results, 2)
	require.Len(t, report.Results[1].Errors, 1)
	assert.Equal(t, cue.SourceSchema, report.Results[1].Errors[0].Source)
	assert.Equal(t, 3, report.Results[1].Warnings[0].Line)
}

func TestJSONFormatterEmptyResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(Options{Writer: &buf}).Format(&lint.LintSummary{}))
	assert.Contains(t, buf.String(), `"results": []`)
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewMarkdownFormatter(Options{Writer: &buf, Now: fixedNow})
	require.NoError(t, f.Format(failingSummary()))

	out := buf.String()
	assert.Contains(t, out, "# Content Check Report")
	assert.Contains(t, out, "**Generated:** 2024-03-01 10:00:00")
	assert.Contains(t, out, "| Errors | 1 |")
	assert.Contains(t, out, "### content/valeurs/a.md")
	assert.Contains(t, out, "#### Errors")
	assert.Contains(t, out, "(line 3)")
	assert.Contains(t, out, "✗ 1 files failed validation")
	assert.NotContains(t, out, "### content/pages/accueil.md")
}

func TestMarkdownFormatterNoFiles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(Options{Writer: &buf}).Format(&lint.LintSummary{}))
	assert.Contains(t, buf.String(), "*No content files found.*")
	assert.Contains(t, buf.String(), "✓ All files passed validation")
}

func TestOutputFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "reports", "check.md")
	var buf bytes.Buffer
	f, err := New("markdown", Options{Writer: &buf, Output: dest})
	require.NoError(t, err)
	require.NoError(t, f.Format(passingSummary()))

	assert.Empty(t, buf.String())
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Content Check Report")
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `a\|b \*c\* \_d\_ 'e'`, escapeMarkdown("a|b *c* _d_ `e`"))
}
