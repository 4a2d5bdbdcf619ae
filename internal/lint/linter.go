package lint

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dotcommander/sitecms/internal/content"
	"github.com/dotcommander/sitecms/internal/cue"
	"github.com/dotcommander/sitecms/internal/discovery"
	"github.com/dotcommander/sitecms/internal/frontmatter"
)

// kindSite marks the result that carries site-wide findings.
const kindSite = "site"

// RequiredPages are the pages the front end always renders.
var RequiredPages = []string{"accueil", "profil"}

// Linter runs every check on content files. It is not safe for concurrent
// use.
type Linter struct {
	validator *cue.Validator
	log       zerolog.Logger
	now       func() time.Time
}

// New compiles the schemas and returns a Linter.
func New(log zerolog.Logger) (*Linter, error) {
	v, err := cue.NewValidator()
	if err != nil {
		return nil, err
	}
	return &Linter{validator: v, log: log, now: time.Now}, nil
}

// LintFile checks one file.
func (l *Linter) LintFile(f discovery.File) LintResult {
	start := l.now()
	result := LintResult{File: f.RelPath, Kind: f.Kind.String()}

	d := newDocument(f)
	issues := checkStructure(d)
	issues = append(issues, checkYAML(d)...)

	schemaIssues, err := checkSchema(l.validator, d)
	if err != nil {
		l.log.Warn().Err(err).Str("path", f.RelPath).Msg("schema check skipped")
	}
	issues = append(issues, schemaIssues...)
	issues = append(issues, checkStyle(d)...)

	sortIssues(issues)
	categorize(&result, issues)
	result.Duration = l.now().Sub(start).Milliseconds()

	l.log.Debug().
		Str("path", f.RelPath).
		Int("errors", len(result.Errors)).
		Int("warnings", len(result.Warnings)).
		Int("suggestions", len(result.Suggestions)).
		Msg("file checked")
	return result
}

// LintFiles checks each file on its own.
func (l *Linter) LintFiles(root string, files []discovery.File) *LintSummary {
	start := l.now()
	summary := &LintSummary{ProjectRoot: root, StartTime: start, Results: []LintResult{}}
	for _, f := range files {
		summary.add(l.LintFile(f))
	}
	summary.Duration = l.now().Sub(start).Milliseconds()
	return summary
}

// LintSite checks every file and then the site as a whole. files must be
// the complete discovery result.
func (l *Linter) LintSite(root string, files []discovery.File) *LintSummary {
	summary := l.LintFiles(root, files)
	if issues := checkSite(files); len(issues) > 0 {
		r := LintResult{File: "", Kind: kindSite}
		categorize(&r, issues)
		summary.add(r)
	}
	summary.Duration = l.now().Sub(summary.StartTime).Milliseconds()
	return summary
}

// checkSite reports problems no single file shows.
func checkSite(files []discovery.File) []cue.ValidationError {
	var issues []cue.ValidationError

	pages := make(map[string]bool)
	orders := make(map[int][]string)
	for _, f := range files {
		switch f.Kind {
		case discovery.KindPage:
			pages[content.Slug(f.RelPath)] = true
		case discovery.KindValue:
			fields := frontmatter.Parse(f.Contents).Fields
			if n, err := strconv.Atoi(fields["ordre"]); err == nil && fields["titre"] != "" {
				orders[n] = append(orders[n], f.RelPath)
			}
		}
	}

	for _, slug := range RequiredPages {
		if !pages[slug] {
			issues = append(issues, cue.ValidationError{
				File:     "content/pages/" + slug + ".md",
				Message:  fmt.Sprintf("page %q is missing; its section will show defaults", slug),
				Severity: cue.SeverityWarning,
				Source:   cue.SourceStyle,
			})
		}
	}

	var dup []int
	for n, paths := range orders {
		if len(paths) > 1 {
			dup = append(dup, n)
		}
	}
	sort.Ints(dup)
	for _, n := range dup {
		paths := orders[n]
		sort.Strings(paths)
		for _, p := range paths[1:] {
			issues = append(issues, cue.ValidationError{
				File:     p,
				Message:  fmt.Sprintf("ordre %d is also used by %s; the two are ordered by path", n, paths[0]),
				Severity: cue.SeveritySuggestion,
				Source:   cue.SourceStyle,
				Field:    "ordre",
			})
		}
	}
	return issues
}

func sortIssues(issues []cue.ValidationError) {
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Line < issues[j].Line
	})
}
