// Package cue checks document fields against the embedded CUE schemas.
package cue

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schemas/*.cue
var schemaFS embed.FS

// Rule sources.
const (
	SourceSchema = "schema" // embedded CUE schemas
	SourceParser = "parser" // what the flat reader drops or rewrites
	SourceYAML   = "yaml"   // disagreement with a YAML reader
	SourceStyle  = "style"  // editorial observations
)

// Severity levels.
const (
	SeverityError      = "error"
	SeverityWarning    = "warning"
	SeveritySuggestion = "suggestion"
)

// ValidationError is one finding about a file.
type ValidationError struct {
	File     string `json:"file"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Source   string `json:"source"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	// Field is the field the finding is about, when there is one.
	Field string `json:"field,omitempty"`
}

// Validator holds the compiled schemas. It is not safe for concurrent use.
type Validator struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
}

// NewValidator compiles every embedded schema file.
func NewValidator() (*Validator, error) {
	v := &Validator{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}

	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read embedded schemas: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".cue" {
			continue
		}
		src, err := schemaFS.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", entry.Name(), err)
		}
		inst := v.ctx.CompileBytes(src, cue.Filename(entry.Name()))
		if err := inst.Err(); err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", entry.Name(), err)
		}
		v.schemas[strings.TrimSuffix(entry.Name(), ".cue")] = inst
	}
	if len(v.schemas) == 0 {
		return nil, fmt.Errorf("no CUE schemas embedded")
	}
	return v, nil
}

// Definitions lists the schema definitions available, without the leading #.
func (v *Validator) Definitions() []string {
	var names []string
	for _, schema := range v.schemas {
		iter, err := schema.Fields(cue.Definitions(true))
		if err != nil {
			continue
		}
		for iter.Next() {
			if sel := iter.Selector(); sel.IsDefinition() {
				names = append(names, strings.TrimPrefix(sel.String(), "#"))
			}
		}
	}
	sort.Strings(names)
	return names
}

// Validate checks fields against the definition #def. An unknown definition
// is an error; a field set that does not conform yields findings.
func (v *Validator) Validate(def string, fields map[string]string) ([]ValidationError, error) {
	schema, ok := v.lookup(def)
	if !ok {
		return nil, fmt.Errorf("unknown schema definition #%s", def)
	}

	data := make(map[string]any, len(fields))
	for k, val := range fields {
		data[k] = val
	}
	value := v.ctx.Encode(data)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}

	var out []ValidationError
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		out = findings(err, fields)
	}

	// A conflict on one field hides incomplete required fields elsewhere.
	reported := make(map[string]bool, len(out))
	for _, f := range out {
		reported[f.Message] = true
	}
	for _, name := range requiredFields(schema) {
		if _, present := fields[name]; present {
			continue
		}
		msg := fmt.Sprintf("missing required field %q", name)
		if reported[msg] {
			continue
		}
		reported[msg] = true
		out = append(out, ValidationError{
			Message:  msg,
			Severity: SeverityError,
			Source:   SourceSchema,
			Field:    name,
		})
	}
	sortFindings(out)
	return out, nil
}

// requiredFields lists the regular fields of a definition.
func requiredFields(schema cue.Value) []string {
	iter, err := schema.Fields(cue.Optional(false))
	if err != nil {
		return nil
	}
	var names []string
	for iter.Next() {
		sel := iter.Selector()
		if iter.IsOptional() || sel.IsDefinition() || !sel.IsString() {
			continue
		}
		names = append(names, sel.Unquoted())
	}
	return names
}

func sortFindings(out []ValidationError) {
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
}

func (v *Validator) lookup(def string) (cue.Value, bool) {
	p := cue.ParsePath("#" + def)
	for _, schema := range v.schemas {
		if d := schema.LookupPath(p); d.Exists() {
			return d, true
		}
	}
	return cue.Value{}, false
}

// findings turns a CUE error into one finding per failing field.
func findings(err error, fields map[string]string) []ValidationError {
	var out []ValidationError
	seen := make(map[string]bool)
	for _, e := range cueerrors.Errors(err) {
		field := fieldName(e.Path())
		format, args := e.Msg()

		var msg string
		if _, present := fields[field]; field != "" && !present {
			msg = fmt.Sprintf("missing required field %q", field)
		} else if field != "" {
			msg = fmt.Sprintf("field %q: %s", field, fmt.Sprintf(format, args...))
		} else {
			msg = fmt.Sprintf(format, args...)
		}
		if seen[msg] {
			continue
		}
		seen[msg] = true

		out = append(out, ValidationError{
			Message:  msg,
			Severity: SeverityError,
			Source:   SourceSchema,
			Field:    field,
		})
	}
	sortFindings(out)
	return out
}

// fieldName returns the last non-definition path element, unquoted.
func fieldName(p []string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if strings.HasPrefix(p[i], "#") {
			continue
		}
		return strings.Trim(p[i], `"`)
	}
	return ""
}
