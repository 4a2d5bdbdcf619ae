// Package format rewrites content files into their canonical form.
package format

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/dotcommander/sitecms/internal/discovery"
	"github.com/dotcommander/sitecms/internal/frontmatter"
)

var (
	// ErrUnclosedBlock means the fields block has no closing delimiter, so
	// the body is already lost to readers and rewriting would make it final.
	ErrUnclosedBlock = errors.New("unclosed frontmatter block")
	// ErrStructuredBlock means the block holds lines the flat reader does not
	// keep, such as list items, nested keys or repeated fields.
	ErrStructuredBlock = errors.New("frontmatter block holds structure that formatting would drop")
)

// Formatter formats content files canonically.
type Formatter interface {
	// Format returns the canonical form of content. On error it returns
	// content unchanged.
	Format(content string) (string, error)
}

// Field order per kind. Remaining fields follow alphabetically.
var (
	pageOrder     = []string{"titre", "sous_titre", "nom", "role", "photo", "bouton_principal", "bouton_secondaire"}
	valueOrder    = []string{"titre", "icone", "description", "ordre"}
	newsOrder     = []string{"titre", "date", "resume"}
	settingsOrder = []string{"site_title", "site_subtitle", "site_description", "contact_email"}
)

// NewFormatter returns the formatter for kind.
func NewFormatter(kind discovery.Kind) Formatter {
	switch kind {
	case discovery.KindPage:
		return &DocumentFormatter{Order: pageOrder}
	case discovery.KindValue:
		return &DocumentFormatter{Order: valueOrder}
	case discovery.KindNews:
		return &DocumentFormatter{Order: newsOrder}
	case discovery.KindSettings:
		return &SettingsFormatter{Order: settingsOrder}
	default:
		return &DocumentFormatter{}
	}
}

// DocumentFormatter formats files made of a fields block and a body.
type DocumentFormatter struct {
	Order []string
}

func (f *DocumentFormatter) Format(content string) (string, error) {
	diag := frontmatter.Inspect(content)
	if diag.HasBlock && !diag.Closed {
		return content, ErrUnclosedBlock
	}
	if err := lossless(diag, false); err != nil {
		return content, err
	}

	doc := frontmatter.Parse(content)
	doc.Body = normalizeBody(doc.Body)
	return frontmatter.Render(doc, f.Order), nil
}

// SettingsFormatter formats the delimiter-less settings files. Files with
// comments only get whitespace normalization, since comments are not fields.
type SettingsFormatter struct {
	Order []string
}

func (f *SettingsFormatter) Format(content string) (string, error) {
	diag := frontmatter.Inspect(frontmatter.Delimiter + "\n" + content + "\n" + frontmatter.Delimiter)
	if err := lossless(diag, true); err != nil {
		return content, err
	}
	if hasComment(content) {
		return normalizeBody(content) + "\n", nil
	}

	fields := frontmatter.ParseFields(content)
	if len(fields) == 0 {
		return "", nil
	}
	// Render always emits delimiters around a non-empty field set.
	rendered := frontmatter.Render(frontmatter.Document{Fields: fields}, f.Order)
	rendered = strings.TrimPrefix(rendered, frontmatter.Delimiter+"\n")
	return strings.TrimSuffix(rendered, frontmatter.Delimiter+"\n"), nil
}

// lossless returns an error when re-rendering would drop block lines.
// Settings files are inspected wrapped in delimiters, so their line numbers
// are shifted back by one.
func lossless(diag frontmatter.Diagnostics, settings bool) error {
	offset := 0
	if settings {
		offset = -1
	}
	if len(diag.Continuations) > 0 {
		ref := diag.Continuations[0]
		return fmt.Errorf("%w: indented line %d %q", ErrStructuredBlock, ref.Line+offset, ref.Text)
	}
	for _, ref := range diag.Ignored {
		if settings && strings.HasPrefix(ref.Text, "#") {
			continue
		}
		return fmt.Errorf("%w: line %d %q has no name", ErrStructuredBlock, ref.Line+offset, ref.Text)
	}
	for _, ref := range diag.Duplicates {
		if settings && strings.HasPrefix(ref.Name, "#") {
			continue
		}
		return fmt.Errorf("%w: field %q repeated on line %d", ErrStructuredBlock, ref.Name, ref.Line+offset)
	}
	return nil
}

func hasComment(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			return true
		}
	}
	return false
}

// normalizeBody trims trailing whitespace from every line and surrounding
// blank lines from the whole.
func normalizeBody(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// Diff computes a simple line diff between original and formatted content.
// Returns empty string if contents are identical.
func Diff(original, formatted, filename string) string {
	if original == formatted {
		return ""
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s\n", filename)
	fmt.Fprintf(&buf, "+++ %s (formatted)\n", filename)

	origLines := strings.Split(original, "\n")
	fmtLines := strings.Split(formatted, "\n")
	n := max(len(origLines), len(fmtLines))

	for i := 0; i < n; i++ {
		var origLine, fmtLine string
		if i < len(origLines) {
			origLine = origLines[i]
		}
		if i < len(fmtLines) {
			fmtLine = fmtLines[i]
		}
		if origLine == fmtLine {
			continue
		}
		if i < len(origLines) {
			fmt.Fprintf(&buf, "-%d %s\n", i+1, origLine)
		}
		if i < len(fmtLines) {
			fmt.Fprintf(&buf, "+%d %s\n", i+1, fmtLine)
		}
	}

	return buf.String()
}
