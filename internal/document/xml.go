package document

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// FormatXML re-indents an XML document with the given style.
func FormatXML(input string, indent IndentStyle) (string, error) {
	doc, err := parseXML(input)
	if err != nil {
		return "", err
	}
	settings := etree.NewIndentSettings()
	switch indent {
	case IndentTabs:
		settings.UseTabs = true
	case IndentTwoSpaces:
		settings.Spaces = 2
	default:
		settings.Spaces = 4
	}
	doc.IndentWithSettings(settings)
	out, err := doc.WriteToString()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// MinifyXML strips inter-element whitespace from an XML document.
func MinifyXML(input string) (string, error) {
	doc, err := parseXML(input)
	if err != nil {
		return "", err
	}
	doc.Unindent()
	return doc.WriteToString()
}

// ValidateXML reports whether input is well-formed XML. Parse failures carry
// the line the decoder stopped on.
func ValidateXML(input string) Validation {
	dec := xml.NewDecoder(strings.NewReader(input))
	sawElement := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 1
			var synErr *xml.SyntaxError
			if errors.As(err, &synErr) {
				line = synErr.Line
			}
			return Validation{Valid: false, Error: &PositionError{
				Message: err.Error(),
				Line:    line,
				Column:  1,
			}}
		}
		if _, ok := tok.(xml.StartElement); ok {
			sawElement = true
		}
	}
	if !sawElement {
		return Validation{Valid: false, Error: &PositionError{
			Message: "no root element",
			Line:    1,
			Column:  1,
		}}
	}
	return Validation{Valid: true}
}

func parseXML(input string) (*etree.Document, error) {
	if v := ValidateXML(input); !v.Valid {
		return nil, v.Error
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(input); err != nil {
		return nil, err
	}
	return doc, nil
}
