package frontmatter

import "strings"

// LineRef points at a block line. Line is 1-based within the whole input.
type LineRef struct {
	Name string
	Line int
	Text string
}

// Diagnostics describes what Parse silently tolerated in a document.
type Diagnostics struct {
	HasBlock bool
	Closed   bool
	// BlockEnd is the line of the closing delimiter, or 0.
	BlockEnd int
	// Fields lists every name: value line in order, duplicates included.
	Fields []LineRef
	// Duplicates lists every occurrence after the first of a repeated name.
	Duplicates []LineRef
	// Ignored lists non-blank block lines without a colon.
	Ignored []LineRef
	// BlockScalars lists fields whose unquoted value started with `|`.
	BlockScalars []LineRef
	// Continuations lists indented lines, typically YAML list items or
	// nested keys that the flat reader cannot represent.
	Continuations []LineRef
}

// Clean reports whether Parse read the document without dropping anything.
func (d Diagnostics) Clean() bool {
	if d.HasBlock && !d.Closed {
		return false
	}
	return len(d.Duplicates) == 0 && len(d.Ignored) == 0 &&
		len(d.BlockScalars) == 0 && len(d.Continuations) == 0
}

// Inspect scans raw the same way Parse does and records each tolerated
// irregularity.
func Inspect(raw string) Diagnostics {
	s := scanLines(raw)
	d := Diagnostics{HasBlock: s.open, Closed: s.open && s.closeLine > 0}
	if !s.open {
		return d
	}
	if d.Closed {
		d.BlockEnd = s.closeLine + 1
	}

	seen := make(map[string]bool)
	for i, line := range s.block() {
		lineNo := i + 2
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			d.Continuations = append(d.Continuations, LineRef{Line: lineNo, Text: trimmed})
		}

		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			d.Ignored = append(d.Ignored, LineRef{Line: lineNo, Text: trimmed})
			continue
		}
		name = strings.TrimSpace(name)
		ref := LineRef{Name: name, Line: lineNo, Text: trimmed}
		d.Fields = append(d.Fields, ref)
		if seen[name] {
			d.Duplicates = append(d.Duplicates, ref)
		}
		seen[name] = true

		v := strings.TrimSpace(rest)
		if _, quoted := unquote(v); !quoted && strings.HasPrefix(v, "|") {
			d.BlockScalars = append(d.BlockScalars, ref)
		}
	}
	return d
}
