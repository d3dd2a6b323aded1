package document

import "fmt"

// Syntax identifies a supported document flavour.
type Syntax string

const (
	SyntaxJSON     Syntax = "json"
	SyntaxXML      Syntax = "xml"
	SyntaxMarkdown Syntax = "markdown"
)

// IndentStyle selects the indentation used when formatting.
type IndentStyle string

const (
	IndentTwoSpaces  IndentStyle = "2spaces"
	IndentFourSpaces IndentStyle = "4spaces"
	IndentTabs       IndentStyle = "tabs"
)

// ParseIndentStyle maps a user-facing style name to an IndentStyle.
// Unknown names fall back to four spaces, the viewer default.
func ParseIndentStyle(s string) IndentStyle {
	switch s {
	case string(IndentTwoSpaces), "2":
		return IndentTwoSpaces
	case string(IndentTabs), "tab":
		return IndentTabs
	default:
		return IndentFourSpaces
	}
}

// Unit returns the string for one level of indentation.
func (s IndentStyle) Unit() string {
	switch s {
	case IndentTwoSpaces:
		return "  "
	case IndentTabs:
		return "\t"
	default:
		return "    "
	}
}

// PositionError is a parse error with a 1-based line/column position.
type PositionError struct {
	Message string `json:"message"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// Stats describes the structure of a JSON document.
type Stats struct {
	ObjectCount  int `json:"object_count"`
	ArrayCount   int `json:"array_count"`
	StringCount  int `json:"string_count"`
	NumberCount  int `json:"number_count"`
	BooleanCount int `json:"boolean_count"`
	NullCount    int `json:"null_count"`
	MaxDepth     int `json:"max_depth"`
	TotalKeys    int `json:"total_keys"`
}

// Validation is the result of validating a document.
type Validation struct {
	Valid bool           `json:"valid"`
	Error *PositionError `json:"error,omitempty"`
	Stats Stats          `json:"stats"`
}
