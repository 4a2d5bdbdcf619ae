// Package frontmatter parses content files made of an optional
// `---`-delimited fields block followed by a Markdown body.
//
// The fields block is read line by line as flat `name: value` pairs. It is not
// YAML: nested structures, lists and block scalars are not interpreted. Parsing
// never fails; malformed input degrades to an empty field set.
package frontmatter

import (
	"strings"
)

// Delimiter opens and closes the fields block.
const Delimiter = "---"

// Document is the result of parsing a content file.
type Document struct {
	Fields map[string]string `json:"fields" yaml:"fields"`
	Body   string            `json:"body" yaml:"body"`
}

// Field returns the named field and whether it was set.
func (d Document) Field(name string) (string, bool) {
	v, ok := d.Fields[name]
	return v, ok
}

// scan locates the fields block in raw. The block is open when the first line
// is a delimiter; closeLine is the index of the closing delimiter, or -1.
type scan struct {
	lines     []string
	open      bool
	closeLine int
}

func scanLines(raw string) scan {
	s := scan{lines: strings.Split(raw, "\n"), closeLine: -1}
	if len(s.lines) == 0 || strings.TrimSpace(s.lines[0]) != Delimiter {
		return s
	}
	s.open = true
	for i := 1; i < len(s.lines); i++ {
		if strings.TrimSpace(s.lines[i]) == Delimiter {
			s.closeLine = i
			break
		}
	}
	return s
}

// block returns the lines between the delimiters. An unclosed block runs to
// the end of the input.
func (s scan) block() []string {
	if !s.open {
		return nil
	}
	if s.closeLine < 0 {
		return s.lines[1:]
	}
	return s.lines[1:s.closeLine]
}

func (s scan) body() string {
	if s.closeLine < 0 {
		return ""
	}
	return strings.TrimSpace(strings.Join(s.lines[s.closeLine+1:], "\n"))
}

// Parse splits raw into fields and body.
//
// Without an opening delimiter on the first line, the whole trimmed input is
// the body. With an opening delimiter but no closing one, the fields read so
// far are kept and the body is empty. When a name repeats, the last value wins.
func Parse(raw string) Document {
	s := scanLines(raw)
	if !s.open {
		return Document{Fields: map[string]string{}, Body: strings.TrimSpace(raw)}
	}

	fields := make(map[string]string)
	for _, line := range s.block() {
		name, value, ok := splitField(line)
		if !ok {
			continue
		}
		fields[name] = value
	}
	return Document{Fields: fields, Body: s.body()}
}

// Split returns the raw text of the fields block and the trimmed body. found
// reports whether both delimiters are present. Otherwise block is empty and
// body is the trimmed input.
func Split(raw string) (block, body string, found bool) {
	s := scanLines(raw)
	if !s.open || s.closeLine < 0 {
		return "", strings.TrimSpace(raw), false
	}
	return strings.Join(s.block(), "\n"), s.body(), true
}

// ParseFields reads flat `name: value` lines, as found in simple settings
// files. Blank lines, lines without a colon and lines starting with `#` are
// skipped.
func ParseFields(text string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		name, value, ok := splitField(line)
		if !ok {
			continue
		}
		fields[name] = value
	}
	return fields
}

// splitField splits one block line on its first colon.
func splitField(line string) (name, value string, ok bool) {
	name, rest, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(name), cleanValue(rest), true
}

// cleanValue trims the raw value and removes one pair of matching quotes. An
// unquoted value starting with `|` is reduced to the text after the marker.
func cleanValue(raw string) string {
	v := strings.TrimSpace(raw)
	if unquoted, ok := unquote(v); ok {
		return unquoted
	}
	if strings.HasPrefix(v, "|") {
		return strings.TrimSpace(v[1:])
	}
	return v
}

func unquote(v string) (string, bool) {
	if len(v) < 2 {
		return v, false
	}
	first, last := v[0], v[len(v)-1]
	if first != last || (first != '"' && first != '\'') {
		return v, false
	}
	return v[1 : len(v)-1], true
}
