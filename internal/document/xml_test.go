package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatXML(t *testing.T) {
	out, err := FormatXML(`<root><child attr="v">text</child></root>`, IndentTwoSpaces)
	require.NoError(t, err)
	assert.Contains(t, out, "<root>")
	assert.Contains(t, out, "  <child attr=\"v\">text</child>")
}

func TestFormatXMLWithTabs(t *testing.T) {
	out, err := FormatXML(`<root><child/></root>`, IndentTabs)
	require.NoError(t, err)
	assert.Contains(t, out, "\t<child/>")
}

func TestFormatXMLInvalid(t *testing.T) {
	_, err := FormatXML("<root><unclosed></root>", IndentTwoSpaces)
	require.Error(t, err)

	var posErr *PositionError
	assert.ErrorAs(t, err, &posErr)
}

func TestMinifyXML(t *testing.T) {
	input := "<root>\n    <child>text</child>\n</root>"
	out, err := MinifyXML(input)
	require.NoError(t, err)
	assert.NotContains(t, out, "\n    ")
	assert.Contains(t, out, "<child>text</child>")
}

func TestValidateXML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"well-formed", `<root><a/><b>x</b></root>`, true},
		{"with declaration", `<?xml version="1.0"?><root/>`, true},
		{"mismatched tags", `<root><a></b></root>`, false},
		{"no root element", `just text`, false},
		{"empty", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateXML(tt.input)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				require.NotNil(t, result.Error)
				assert.Greater(t, result.Error.Line, 0)
			}
		})
	}
}
