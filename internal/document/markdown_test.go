package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdownHeading(t *testing.T) {
	out, err := RenderMarkdown("# Title\n\nsome *emphasis*")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<em>emphasis</em>")
}

func TestRenderMarkdownGFMTable(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n"
	out, err := RenderMarkdown(src)
	require.NoError(t, err)
	assert.Contains(t, out, "<table>")
}

func TestRenderMarkdownPlainText(t *testing.T) {
	out, err := RenderMarkdown("hello world")
	require.NoError(t, err)
	assert.Contains(t, out, "<p>hello world</p>")
}
