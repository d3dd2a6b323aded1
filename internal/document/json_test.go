package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatJSONSimpleObject(t *testing.T) {
	out, err := FormatJSON(`{"name":"test","value":42}`, IndentTwoSpaces)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "test"`)
	assert.Contains(t, out, `"value": 42`)
}

func TestFormatJSONEmptyContainers(t *testing.T) {
	out, err := FormatJSON(`{}`, IndentTwoSpaces)
	require.NoError(t, err)
	assert.Equal(t, "{}", out)

	out, err = FormatJSON(`[]`, IndentTwoSpaces)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestFormatJSONNested(t *testing.T) {
	out, err := FormatJSON(`{"outer":{"inner":"value"}}`, IndentTwoSpaces)
	require.NoError(t, err)
	assert.Contains(t, out, "{\n")
	assert.Contains(t, out, `  "outer"`)
}

func TestFormatJSONWithTabs(t *testing.T) {
	out, err := FormatJSON(`{"key":"value"}`, IndentTabs)
	require.NoError(t, err)
	assert.Contains(t, out, "\t\"key\"")
}

func TestFormatJSONInvalid(t *testing.T) {
	_, err := FormatJSON("{invalid}", IndentTwoSpaces)
	require.Error(t, err)

	var posErr *PositionError
	require.ErrorAs(t, err, &posErr)
	assert.Greater(t, posErr.Line, 0)
	assert.Greater(t, posErr.Column, 0)
}

func TestMinifyJSON(t *testing.T) {
	input := "{\n    \"name\": \"test\",\n    \"value\": 42\n}"
	out, err := MinifyJSON(input)
	require.NoError(t, err)
	assert.NotContains(t, out, "\n")
	assert.NotContains(t, out, "  ")
}

func TestMinifyJSONInvalid(t *testing.T) {
	_, err := MinifyJSON("{invalid}")
	assert.Error(t, err)
}

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple object", `{"name": "test"}`, true},
		{"scalar", `42`, true},
		{"invalid", `{invalid}`, false},
		{"trailing garbage", `{} {}`, false},
		{"unterminated", `{"a": `, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateJSON(tt.input)
			assert.Equal(t, tt.valid, result.Valid)
			if tt.valid {
				assert.Nil(t, result.Error)
			} else {
				assert.NotNil(t, result.Error)
			}
		})
	}
}

func TestValidateJSONStats(t *testing.T) {
	input := `{
		"str": "text",
		"num": 42,
		"bool": true,
		"null": null,
		"arr": [1, 2],
		"obj": {}
	}`
	result := ValidateJSON(input)
	require.True(t, result.Valid)
	assert.Equal(t, 2, result.Stats.ObjectCount)
	assert.Equal(t, 1, result.Stats.ArrayCount)
	assert.Equal(t, 1, result.Stats.StringCount)
	assert.Equal(t, 3, result.Stats.NumberCount) // 42, 1, 2
	assert.Equal(t, 1, result.Stats.BooleanCount)
	assert.Equal(t, 1, result.Stats.NullCount)
}

func TestValidateJSONMaxDepth(t *testing.T) {
	result := ValidateJSON(`{"a": {"b": {"c": "deep"}}}`)
	require.True(t, result.Valid)
	assert.Equal(t, 3, result.Stats.MaxDepth)
}

func TestValidateJSONTotalKeys(t *testing.T) {
	result := ValidateJSON(`{"a": 1, "b": 2, "c": {"d": 3}}`)
	require.True(t, result.Valid)
	assert.Equal(t, 4, result.Stats.TotalKeys)
}

func TestValidateJSONErrorPosition(t *testing.T) {
	result := ValidateJSON("{\n  \"a\": 1,\n  bad\n}")
	require.False(t, result.Valid)
	require.NotNil(t, result.Error)
	assert.Equal(t, 3, result.Error.Line)
}

func TestLineColumn(t *testing.T) {
	input := "ab\ncd\nef"
	line, col := lineColumn(input, 1)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	// Offset of 'd' (byte 5, 1-based)
	line, col = lineColumn(input, strings.Index(input, "d")+1)
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, col)
}

func TestDetectSyntax(t *testing.T) {
	assert.Equal(t, SyntaxJSON, DetectSyntax(`  {"a": 1}`))
	assert.Equal(t, SyntaxJSON, DetectSyntax("[1, 2]"))
	assert.Equal(t, SyntaxXML, DetectSyntax("\n<root/>"))
	assert.Equal(t, SyntaxMarkdown, DetectSyntax("# Heading"))
}
