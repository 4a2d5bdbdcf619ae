package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dotcommander/sitecms/internal/lint"
)

// JSONFormatter writes the summary as a JSON report.
type JSONFormatter struct {
	opts Options
}

// NewJSONFormatter creates a JSONFormatter.
func NewJSONFormatter(opts Options) *JSONFormatter {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &JSONFormatter{opts: opts}
}

// JSONReport is the complete report.
type JSONReport struct {
	Header  JSONHeader        `json:"header"`
	Summary JSONSummary       `json:"summary"`
	Results []lint.LintResult `json:"results"`
}

// JSONHeader contains report metadata.
type JSONHeader struct {
	Tool      string `json:"tool"`
	Version   string `json:"version,omitempty"`
	Timestamp string `json:"timestamp"`
	Root      string `json:"root"`
}

// JSONSummary contains summary statistics.
type JSONSummary struct {
	TotalFiles       int    `json:"total_files"`
	SuccessfulFiles  int    `json:"successful_files"`
	FailedFiles      int    `json:"failed_files"`
	TotalErrors      int    `json:"total_errors"`
	TotalWarnings    int    `json:"total_warnings"`
	TotalSuggestions int    `json:"total_suggestions"`
	BaselineIgnored  int    `json:"baseline_ignored"`
	Duration         string `json:"duration"`
}

// Format writes the report even in quiet mode, since tools consume it.
func (f *JSONFormatter) Format(summary *lint.LintSummary) error {
	results := summary.Results
	if results == nil {
		results = []lint.LintResult{}
	}
	report := JSONReport{
		Header: JSONHeader{
			Tool:      "sitecms",
			Version:   f.opts.ToolVersion,
			Timestamp: f.opts.Now().UTC().Format(time.RFC3339),
			Root:      summary.ProjectRoot,
		},
		Summary: JSONSummary{
			TotalFiles:       summary.TotalFiles,
			SuccessfulFiles:  summary.SuccessfulFiles,
			FailedFiles:      summary.FailedFiles,
			TotalErrors:      summary.TotalErrors,
			TotalWarnings:    summary.TotalWarnings,
			TotalSuggestions: summary.TotalSuggestions,
			BaselineIgnored:  summary.BaselineIgnored,
			Duration:         (time.Duration(summary.Duration) * time.Millisecond).String(),
		},
		Results: results,
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}
	return emit(f.opts, append(data, '\n'))
}
