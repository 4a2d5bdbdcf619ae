package lint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/sitecms/internal/cue"
	"github.com/dotcommander/sitecms/internal/discovery"
	"github.com/dotcommander/sitecms/internal/frontmatter"
)

// document is a file prepared for checking. Settings files have no
// delimiters, so they are wrapped and line numbers shifted back by one.
type document struct {
	file       discovery.File
	diag       frontmatter.Diagnostics
	fields     map[string]string
	body       string
	block      string
	lineOffset int
	settings   bool
}

func newDocument(f discovery.File) document {
	d := document{file: f}
	if f.Kind == discovery.KindSettings {
		d.settings = true
		d.lineOffset = -1
		d.diag = frontmatter.Inspect(frontmatter.Delimiter + "\n" + f.Contents + "\n" + frontmatter.Delimiter)
		d.fields = frontmatter.ParseFields(f.Contents)
		d.block = f.Contents
		return d
	}
	d.diag = frontmatter.Inspect(f.Contents)
	doc := frontmatter.Parse(f.Contents)
	d.fields = doc.Fields
	d.body = doc.Body
	d.block, _, _ = frontmatter.Split(f.Contents)
	return d
}

func (d document) issue(severity, source string, line int, format string, args ...any) cue.ValidationError {
	if line > 0 {
		line += d.lineOffset
	}
	return cue.ValidationError{
		File:     d.file.RelPath,
		Message:  fmt.Sprintf(format, args...),
		Severity: severity,
		Source:   source,
		Line:     line,
	}
}

// comment reports whether a settings line is a comment ParseFields skips.
func (d document) comment(ref frontmatter.LineRef) bool {
	return d.settings && strings.HasPrefix(ref.Text, "#")
}

// fieldLine returns the line of the last occurrence of name, the one Parse
// keeps, or 0.
func (d document) fieldLine(name string) int {
	line := 0
	for _, ref := range d.diag.Fields {
		if ref.Name == name && !d.comment(ref) {
			line = ref.Line
		}
	}
	return line
}

// checkStructure reports what the flat reader drops or rewrites.
func checkStructure(d document) []cue.ValidationError {
	var issues []cue.ValidationError
	diag := d.diag

	if diag.HasBlock && !diag.Closed {
		issues = append(issues, d.issue(cue.SeverityError, cue.SourceParser, 1,
			"frontmatter block is never closed; the whole file is read as fields and the body is dropped"))
	}

	first := make(map[string]int)
	for _, ref := range diag.Fields {
		if d.comment(ref) {
			continue
		}
		if _, ok := first[ref.Name]; !ok {
			first[ref.Name] = ref.Line + d.lineOffset
		}
	}
	for _, ref := range diag.Duplicates {
		if d.comment(ref) {
			continue
		}
		issues = append(issues, d.issue(cue.SeverityWarning, cue.SourceParser, ref.Line,
			"field %q repeated (first on line %d); the last value wins", ref.Name, first[ref.Name]))
	}

	listItems := make(map[int]bool)
	for _, ref := range diag.Continuations {
		if isListItem(ref.Text) {
			listItems[ref.Line] = true
			continue
		}
		if name, _, ok := strings.Cut(ref.Text, ":"); ok {
			issues = append(issues, d.issue(cue.SeverityWarning, cue.SourceParser, ref.Line,
				"indented line is read as top-level field %q", strings.TrimSpace(name)))
		}
	}

	for _, ref := range diag.Ignored {
		if listItems[ref.Line] || d.comment(ref) {
			continue
		}
		issues = append(issues, d.issue(cue.SeverityWarning, cue.SourceParser, ref.Line,
			"line has no \"name: value\" pair and is ignored: %q", ref.Text))
	}

	for _, ref := range diag.BlockScalars {
		issues = append(issues, d.issue(cue.SeverityWarning, cue.SourceParser, ref.Line,
			"field %q starts a \"|\" block scalar; only the text on this line is kept", ref.Name))
	}

	return issues
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// checkYAML reports blocks that a YAML reader would reject, since list
// decoding and other tools read them as YAML.
func checkYAML(d document) []cue.ValidationError {
	if !d.settings && !(d.diag.HasBlock && d.diag.Closed) {
		return nil
	}
	if strings.TrimSpace(d.block) == "" {
		return nil
	}

	// Decoding into a node checks syntax only; duplicates are reported above.
	var node yaml.Node
	err := yaml.Unmarshal([]byte(d.block), &node)
	if err == nil {
		return nil
	}

	// The block starts on line 2 of a document, line 1 of a settings file;
	// issue applies the difference.
	line := yamlErrorLine(d.block, err)
	if line > 0 {
		line++
	}
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	return []cue.ValidationError{d.issue(cue.SeverityWarning, cue.SourceYAML, line,
		"block is not valid YAML (%s); list fields are not decoded and YAML tools will read it differently", msg)}
}

// yamlErrorLine returns the 1-based block line of err. Scanner errors carry
// no position, so growing prefixes of the block are decoded until one fails
// the same way.
func yamlErrorLine(block string, err error) int {
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			return n
		}
	}

	lines := strings.Split(block, "\n")
	firstFailure := 0
	for n := 1; n <= len(lines); n++ {
		var node yaml.Node
		prefixErr := yaml.Unmarshal([]byte(strings.Join(lines[:n], "\n")), &node)
		if prefixErr == nil {
			continue
		}
		if prefixErr.Error() == err.Error() {
			return n
		}
		if firstFailure == 0 {
			firstFailure = n
		}
	}
	return firstFailure
}

var schemaDefs = map[discovery.Kind]string{
	discovery.KindSettings: "Settings",
	discovery.KindPage:     "Page",
	discovery.KindValue:    "Value",
	discovery.KindNews:     "News",
}

// checkSchema validates the parsed fields against the kind's CUE definition.
func checkSchema(v *cue.Validator, d document) ([]cue.ValidationError, error) {
	def, ok := schemaDefs[d.file.Kind]
	if !ok {
		return nil, nil
	}
	findings, err := v.Validate(def, d.fields)
	if err != nil {
		return nil, err
	}
	for i := range findings {
		findings[i].File = d.file.RelPath
		if line := d.fieldLine(findings[i].Field); line > 0 {
			findings[i].Line = line + d.lineOffset
		}
	}
	return findings, nil
}

// checkStyle makes editorial suggestions.
func checkStyle(d document) []cue.ValidationError {
	var issues []cue.ValidationError
	switch d.file.Kind {
	case discovery.KindPage:
		if len(d.fields) == 0 && d.body == "" {
			issues = append(issues, d.issue(cue.SeveritySuggestion, cue.SourceStyle, 0,
				"page has no fields and no body"))
		}
	case discovery.KindValue:
		if d.fields["description"] == "" && d.body == "" {
			issues = append(issues, d.issue(cue.SeveritySuggestion, cue.SourceStyle, 0,
				"value card has no description"))
		}
	case discovery.KindNews:
		if _, ok := d.fields["date"]; !ok && d.fields["titre"] != "" {
			issues = append(issues, d.issue(cue.SeveritySuggestion, cue.SourceStyle, 0,
				"news item has no date; it is listed after dated items"))
		}
	}
	return issues
}

func isListItem(text string) bool {
	return text == "-" || strings.HasPrefix(text, "- ")
}
