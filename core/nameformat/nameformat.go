// Package nameformat implements the work/virtual display-name evaluator:
// a restricted, positional %-style formatter over a fixed field set.
// Templates are parsed once into an AST of (format-string, field-list)
// and then evaluated per binding — there is no dynamic expression
// evaluation, which is the point.
package nameformat

import (
	"fmt"
	"strings"

	"github.com/sonospy/movetags/log"
)

// allowedFields is the fixed set of field names a template may
// reference. Anything else resolves to the literal "notfound" and is
// warned about.
var allowedFields = map[string]bool{
	"work": true, "virtual": true, "id": true,
	"artist": true, "album": true, "genre": true,
	"tracknumber": true, "year": true,
	"albumartist": true, "composer": true,
	"created": true, "lastmodified": true, "inserted": true,
}

// Template is a parsed work/virtual name-format entry.
type Template struct {
	Name   string
	Format string   // a fmt.Sprintf-compatible format string using %s
	Fields []string // validated field names, in template order
}

// Binding supplies one value per field for a single evaluation. Missing
// keys are treated as empty strings.
type Binding map[string]string

const maxPlaceholderDepth = 8

// Parse compiles a single `NAME = "fmt" % (field, field, ...)` entry.
// lookupDict resolves underscore-prefixed placeholders, recursively, up
// to maxPlaceholderDepth (cycle/runaway guard).
func Parse(name, structure string, lookupDict map[string]string) (Template, error) {
	sepPos := strings.LastIndex(structure, "(")
	if sepPos < 0 {
		return Template{}, fmt.Errorf("name format %q: missing field list", name)
	}
	formatPart := strings.TrimSpace(structure[:sepPos])
	formatPart = strings.TrimSuffix(formatPart, "%")
	formatPart = strings.TrimSpace(formatPart)
	formatStr, err := unquote(formatPart)
	if err != nil {
		return Template{}, fmt.Errorf("name format %q: %w", name, err)
	}

	fieldsPart := structure[sepPos+1:]
	closeParen := strings.LastIndex(fieldsPart, ")")
	if closeParen < 0 {
		return Template{}, fmt.Errorf("name format %q: unterminated field list", name)
	}
	fieldsPart = fieldsPart[:closeParen]

	var fields []string
	for _, raw := range strings.Split(fieldsPart, ",") {
		field := strings.TrimSpace(raw)
		if field == "" {
			continue
		}
		field = resolvePlaceholder(field, lookupDict, 0)
		fields = append(fields, validateField(field))
	}

	return Template{Name: name, Format: formatStr, Fields: fields}, nil
}

func resolvePlaceholder(field string, lookupDict map[string]string, depth int) string {
	if !strings.HasPrefix(field, "_") || depth >= maxPlaceholderDepth {
		return field
	}
	resolved, ok := lookupDict[field]
	if !ok {
		return field
	}
	return resolvePlaceholder(strings.TrimSpace(resolved), lookupDict, depth+1)
}

// validateField keeps only the part before a '.' for validation (dotted
// subfields are not otherwise interpreted) and falls back to the
// "notfound" literal for anything outside allowedFields.
func validateField(field string) string {
	firstField := field
	if i := strings.IndexByte(field, '.'); i >= 0 {
		firstField = field[:i]
	}
	if allowedFields[firstField] {
		return field
	}
	log.Warn(fmt.Sprintf("name format references unknown field %q", field))
	return "notfound"
}

func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("format string must be double-quoted, got %q", s)
	}
	return s[1 : len(s)-1], nil
}

// Eval renders t against binding, substituting "notfound" (a field the
// template referenced but couldn't be resolved) literally.
func (t Template) Eval(binding Binding) string {
	args := make([]interface{}, len(t.Fields))
	for i, f := range t.Fields {
		if f == "notfound" {
			args[i] = "notfound"
			continue
		}
		args[i] = binding[f]
	}
	return fmt.Sprintf(t.Format, args...)
}
