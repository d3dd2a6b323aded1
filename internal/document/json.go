package document

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/pretty"
)

// FormatJSON re-indents a JSON document with the given style. Invalid input
// yields a *PositionError.
func FormatJSON(input string, indent IndentStyle) (string, error) {
	if err := checkJSON(input); err != nil {
		return "", err
	}
	opts := &pretty.Options{Indent: indent.Unit(), Width: 1}
	out := pretty.PrettyOptions([]byte(input), opts)
	return strings.TrimRight(string(out), "\n"), nil
}

// MinifyJSON removes all insignificant whitespace from a JSON document.
func MinifyJSON(input string) (string, error) {
	if err := checkJSON(input); err != nil {
		return "", err
	}
	return string(pretty.Ugly([]byte(input))), nil
}

// ValidateJSON reports whether input parses, and if so, statistics about its
// structure. Parse failures carry a line/column position; they are part of
// the result, not an error.
func ValidateJSON(input string) Validation {
	var value any
	dec := json.NewDecoder(strings.NewReader(input))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return Validation{Valid: false, Error: jsonPositionError(input, err)}
	}
	// Trailing garbage after the first value is invalid too.
	if dec.More() {
		off := int(dec.InputOffset())
		line, col := lineColumn(input, off)
		return Validation{Valid: false, Error: &PositionError{
			Message: "unexpected content after top-level value",
			Line:    line,
			Column:  col,
		}}
	}

	var stats Stats
	collectStats(value, 0, &stats)
	return Validation{Valid: true, Stats: stats}
}

// collectStats walks the decoded value tree accumulating structure counts.
func collectStats(value any, depth int, stats *Stats) {
	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	switch v := value.(type) {
	case map[string]any:
		stats.ObjectCount++
		stats.TotalKeys += len(v)
		for _, child := range v {
			collectStats(child, depth+1, stats)
		}
	case []any:
		stats.ArrayCount++
		for _, child := range v {
			collectStats(child, depth+1, stats)
		}
	case string:
		stats.StringCount++
	case json.Number:
		stats.NumberCount++
	case bool:
		stats.BooleanCount++
	case nil:
		stats.NullCount++
	}
}

func checkJSON(input string) error {
	v := ValidateJSON(input)
	if !v.Valid {
		return v.Error
	}
	return nil
}

// jsonPositionError converts an encoding/json error into a PositionError.
func jsonPositionError(input string, err error) *PositionError {
	var offset int
	var synErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &synErr):
		offset = int(synErr.Offset)
	case errors.As(err, &typeErr):
		offset = int(typeErr.Offset)
	}
	line, col := lineColumn(input, offset)
	return &PositionError{Message: err.Error(), Line: line, Column: col}
}

// lineColumn maps a byte offset to a 1-based line and column.
func lineColumn(input string, offset int) (int, int) {
	if offset > len(input) {
		offset = len(input)
	}
	if offset < 1 {
		offset = 1
	}
	line := 1
	col := 1
	for _, b := range []byte(input[:offset-1]) {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

// DetectSyntax sniffs the document flavour from its leading content.
func DetectSyntax(input string) Syntax {
	trimmed := strings.TrimLeft(input, " \t\r\n")
	switch {
	case strings.HasPrefix(trimmed, "{"), strings.HasPrefix(trimmed, "["):
		return SyntaxJSON
	case strings.HasPrefix(trimmed, "<"):
		return SyntaxXML
	default:
		return SyntaxMarkdown
	}
}
