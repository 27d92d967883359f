// Package frontmatter implements cortex's deliberately minimal ad-hoc
// frontmatter grammar: a line-oriented "key: value" block delimited by
// "---" fences, with just enough value-type sniffing (quoted strings,
// JSON arrays, null, true/false, ints, floats) to round-trip the fields
// chunks, memories, and index metadata actually use. This is NOT a YAML
// parser and must not become one: the grammar is fixed by the values
// this package's own writers produce, not by what YAML allows.
package frontmatter

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Parse extracts the frontmatter block from content into a field map.
// Recognized value forms: "quoted string", [JSON, array], null, true,
// false, and bare integers/floats (including negatives). Anything else
// is kept as the trimmed raw string. Returns an empty map if content has
// no frontmatter fence.
func Parse(content string) map[string]any {
	result := map[string]any{}

	if !strings.HasPrefix(content, "---") {
		return result
	}

	endIdx := strings.Index(content[3:], "---")
	if endIdx == -1 {
		return result
	}
	endIdx += 3

	block := strings.TrimSpace(content[3:endIdx])
	for _, line := range strings.Split(block, "\n") {
		idx := strings.Index(line, ":")
		if idx == -1 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		result[key] = parseValue(value)
	}

	return result
}

func parseValue(value string) any {
	switch {
	case strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) && len(value) >= 2:
		return value[1 : len(value)-1]
	case strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]"):
		var arr []any
		if err := json.Unmarshal([]byte(value), &arr); err == nil {
			return arr
		}
		return value
	case value == "null":
		return nil
	case value == "true":
		return true
	case value == "false":
		return false
	default:
		if looksNumeric(value) {
			if strings.Contains(value, ".") {
				if f, err := strconv.ParseFloat(value, 64); err == nil {
					return f
				}
			} else if n, err := strconv.Atoi(value); err == nil {
				return n
			}
		}
		return value
	}
}

// looksNumeric mirrors the original's permissive
// value.replace('.','').replace('-','').isdigit() check: strip dots and
// dashes, then require what's left to be all digits and non-empty.
func looksNumeric(value string) bool {
	stripped := strings.NewReplacer(".", "", "-", "").Replace(value)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Body returns the markdown content following the frontmatter block's
// closing fence, trimmed of surrounding whitespace. If content has no
// frontmatter, the whole content is returned trimmed.
func Body(content string) string {
	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(parts[2])
}

// Builder writes frontmatter fields in insertion order, the way the
// original's save_chunk/save_memory functions emit a fixed field
// sequence rather than an alphabetized or arbitrary one.
type Builder struct {
	lines []string
}

// NewBuilder returns an empty frontmatter Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Str appends a quoted-string field.
func (b *Builder) Str(key, value string) *Builder {
	b.lines = append(b.lines, key+`: "`+value+`"`)
	return b
}

// StrPtrOrNull appends a quoted-string field, or the literal null if
// value is nil.
func (b *Builder) StrPtrOrNull(key string, value *string) *Builder {
	if value == nil {
		b.lines = append(b.lines, key+": null")
		return b
	}
	return b.Str(key, *value)
}

// Raw appends a field whose value is written verbatim (unquoted),
// e.g. an already-formatted bracketed line range or a number.
func (b *Builder) Raw(key, value string) *Builder {
	b.lines = append(b.lines, key+": "+value)
	return b
}

// Int appends a bare integer field.
func (b *Builder) Int(key string, value int) *Builder {
	return b.Raw(key, strconv.Itoa(value))
}

// Bool appends a lowercase true/false field.
func (b *Builder) Bool(key string, value bool) *Builder {
	return b.Raw(key, strconv.FormatBool(value))
}

// Null appends a literal null field.
func (b *Builder) Null(key string) *Builder {
	return b.Raw(key, "null")
}

// StrArray appends a JSON-array-of-strings field, e.g. keywords: ["a","b"].
func (b *Builder) StrArray(key string, values []string) *Builder {
	if values == nil {
		values = []string{}
	}
	encoded, _ := json.Marshal(values)
	return b.Raw(key, string(encoded))
}

// Build renders the accumulated fields as a frontmatter-fenced document
// with body appended after a blank line.
func (b *Builder) Build(body string) string {
	var sb strings.Builder
	sb.WriteString("---\n")
	for _, line := range b.lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("---\n\n")
	sb.WriteString(body)
	return sb.String()
}
