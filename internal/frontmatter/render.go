package frontmatter

import (
	"sort"
	"strings"
)

// Render writes doc back to text that Parse reads as the same fields and body.
//
// Names listed in order come first, remaining names follow alphabetically.
// Values are quoted only when Parse would otherwise alter them. Newlines inside
// values are flattened to spaces since a field occupies a single line.
func Render(doc Document, order []string) string {
	body := strings.TrimSpace(doc.Body)

	if len(doc.Fields) == 0 && !startsWithDelimiter(body) {
		if body == "" {
			return ""
		}
		return body + "\n"
	}

	var b strings.Builder
	b.WriteString(Delimiter)
	b.WriteByte('\n')
	for _, name := range orderedNames(doc.Fields, order) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(quoteValue(doc.Fields[name]))
		b.WriteByte('\n')
	}
	b.WriteString(Delimiter)
	b.WriteByte('\n')
	if body != "" {
		b.WriteByte('\n')
		b.WriteString(body)
		b.WriteByte('\n')
	}
	return b.String()
}

func startsWithDelimiter(body string) bool {
	first, _, _ := strings.Cut(body, "\n")
	return strings.TrimSpace(first) == Delimiter
}

func orderedNames(fields map[string]string, order []string) []string {
	names := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, name := range order {
		if _, ok := fields[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}

	rest := make([]string, 0, len(fields)-len(names))
	for name := range fields {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func quoteValue(v string) string {
	v = newlines.Replace(v)
	if v == "" || v != strings.TrimSpace(v) {
		return `"` + v + `"`
	}
	switch v[0] {
	case '"':
		return "'" + v + "'"
	case '\'', '|':
		return `"` + v + `"`
	}
	return v
}
