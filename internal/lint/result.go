// Package lint checks content files for what the flat reader would drop,
// rewrite or reject.
package lint

import (
	"fmt"
	"time"

	"github.com/dotcommander/sitecms/internal/baseline"
	"github.com/dotcommander/sitecms/internal/cue"
)

// LintResult holds the findings for one file.
type LintResult struct {
	File        string                `json:"file"`
	Kind        string                `json:"kind"`
	Errors      []cue.ValidationError `json:"errors,omitempty"`
	Warnings    []cue.ValidationError `json:"warnings,omitempty"`
	Suggestions []cue.ValidationError `json:"suggestions,omitempty"`
	Success     bool                  `json:"success"`
	Duration    int64                 `json:"duration_ms"`
}

// LintSummary aggregates a run.
type LintSummary struct {
	ProjectRoot      string       `json:"project_root"`
	StartTime        time.Time    `json:"start_time"`
	TotalFiles       int          `json:"total_files"`
	SuccessfulFiles  int          `json:"successful_files"`
	FailedFiles      int          `json:"failed_files"`
	TotalErrors      int          `json:"total_errors"`
	TotalWarnings    int          `json:"total_warnings"`
	TotalSuggestions int          `json:"total_suggestions"`
	BaselineIgnored  int          `json:"baseline_ignored,omitempty"`
	Duration         int64        `json:"duration_ms"`
	Results          []LintResult `json:"results"`
}

// Fail-on levels.
const (
	FailOnError      = "error"
	FailOnWarning    = "warning"
	FailOnSuggestion = "suggestion"
)

// Fails reports whether the summary has findings at or above level.
func (s *LintSummary) Fails(level string) (bool, error) {
	switch level {
	case FailOnError, "":
		return s.TotalErrors > 0, nil
	case FailOnWarning:
		return s.TotalErrors+s.TotalWarnings > 0, nil
	case FailOnSuggestion:
		return s.TotalErrors+s.TotalWarnings+s.TotalSuggestions > 0, nil
	default:
		return false, fmt.Errorf("invalid fail-on level: %s (must be error, warning or suggestion)", level)
	}
}

// Issues returns every finding of the run.
func (s *LintSummary) Issues() []cue.ValidationError {
	var issues []cue.ValidationError
	for _, r := range s.Results {
		issues = append(issues, r.Errors...)
		issues = append(issues, r.Warnings...)
		issues = append(issues, r.Suggestions...)
	}
	return issues
}

// FilterBaseline drops findings b already knows about and returns how many
// were dropped.
func (s *LintSummary) FilterBaseline(b *baseline.Baseline) int {
	if b == nil {
		return 0
	}
	ignored := 0
	for i := range s.Results {
		r := &s.Results[i]
		var n int
		r.Errors, n = filterIssues(r.Errors, b.IsKnown)
		ignored += n
		r.Warnings, n = filterIssues(r.Warnings, b.IsKnown)
		ignored += n
		r.Suggestions, n = filterIssues(r.Suggestions, b.IsKnown)
		ignored += n
		r.Success = len(r.Errors) == 0
	}
	s.BaselineIgnored += ignored
	s.recount()
	return ignored
}

func (s *LintSummary) add(r LintResult) {
	s.Results = append(s.Results, r)
	s.recount()
}

func (s *LintSummary) recount() {
	s.TotalFiles = 0
	s.SuccessfulFiles, s.FailedFiles = 0, 0
	s.TotalErrors, s.TotalWarnings, s.TotalSuggestions = 0, 0, 0
	for _, r := range s.Results {
		if r.Kind != kindSite {
			s.TotalFiles++
			if r.Success {
				s.SuccessfulFiles++
			} else {
				s.FailedFiles++
			}
		}
		s.TotalErrors += len(r.Errors)
		s.TotalWarnings += len(r.Warnings)
		s.TotalSuggestions += len(r.Suggestions)
	}
}

func filterIssues(issues []cue.ValidationError, known func(cue.ValidationError) bool) ([]cue.ValidationError, int) {
	if len(issues) == 0 {
		return issues, 0
	}
	kept := make([]cue.ValidationError, 0, len(issues))
	for _, issue := range issues {
		if !known(issue) {
			kept = append(kept, issue)
		}
	}
	return kept, len(issues) - len(kept)
}

// categorize files each finding under its severity.
func categorize(r *LintResult, issues []cue.ValidationError) {
	for _, issue := range issues {
		switch issue.Severity {
		case cue.SeverityError:
			r.Errors = append(r.Errors, issue)
		case cue.SeverityWarning:
			r.Warnings = append(r.Warnings, issue)
		default:
			r.Suggestions = append(r.Suggestions, issue)
		}
	}
	r.Success = len(r.Errors) == 0
}
