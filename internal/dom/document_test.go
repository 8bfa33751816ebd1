package dom

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playerPage = `<!DOCTYPE html>
<html>
<head><title>Player</title></head>
<body>
  <div class="player">
    <div class="caption-window"><span class="ytp-caption-segment">Hello there</span></div>
  </div>
</body>
</html>`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestParseAndSelect(t *testing.T) {
	doc := mustParse(t, playerPage)

	require.NotNil(t, doc.Body())
	assert.Equal(t, "body", doc.Body().Data)
	require.NotNil(t, doc.Head())

	nodes := doc.Select(".ytp-caption-segment")
	require.Len(t, nodes, 1)
	assert.Equal(t, "Hello there", doc.TextContent(nodes[0]))
	assert.True(t, doc.IsConnected(nodes[0]))

	assert.Empty(t, doc.Select(".does-not-exist"))
}

func TestSetTextAndConnectivity(t *testing.T) {
	doc := mustParse(t, playerPage)
	window := doc.Select(".caption-window")[0]
	seg := doc.Select(".ytp-caption-segment")[0]

	doc.SetText(seg, "Changed")
	assert.Equal(t, "Changed", doc.TextContent(seg))

	require.NoError(t, doc.RemoveChild(window, seg))
	assert.False(t, doc.IsConnected(seg))
	assert.ErrorIs(t, doc.RemoveChild(window, seg), ErrNotChild)

	fresh := CreateElement("span", "class", "ytp-caption-segment")
	doc.AppendChild(window, fresh)
	doc.SetText(fresh, "New cue")
	assert.True(t, doc.IsConnected(fresh))
	assert.Equal(t, "New cue", doc.TextContent(window))
}

func TestAttributesAndClasses(t *testing.T) {
	doc := mustParse(t, playerPage)
	seg := doc.Select(".ytp-caption-segment")[0]

	doc.SetAttr(seg, "data-x", "1")
	v, ok := doc.Attr(seg, "data-x")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	doc.AddClass(seg, "extra")
	doc.AddClass(seg, "extra")
	assert.True(t, doc.HasClass(seg, "extra"))
	assert.True(t, doc.HasClass(seg, "ytp-caption-segment"))
	class, _ := doc.Attr(seg, "class")
	assert.Equal(t, "ytp-caption-segment extra", class)

	doc.RemoveClass(seg, "extra")
	assert.False(t, doc.HasClass(seg, "extra"))

	doc.RemoveAttr(seg, "data-x")
	assert.False(t, doc.HasAttr(seg, "data-x"))
}

func TestAncestorWithAttr(t *testing.T) {
	doc := mustParse(t, playerPage)
	window := doc.Select(".caption-window")[0]
	seg := doc.Select(".ytp-caption-segment")[0]

	assert.Nil(t, doc.AncestorWithAttr(seg, "data-mark"))
	doc.SetAttr(window, "data-mark", "1")
	assert.Equal(t, window, doc.AncestorWithAttr(seg, "data-mark"))
	assert.Nil(t, doc.AncestorWithAttr(window, "data-mark"))
}

func TestReplaceChildrenAndRender(t *testing.T) {
	doc := mustParse(t, playerPage)
	window := doc.Select(".caption-window")[0]

	a := CreateElement("span", "class", "ytp-caption-segment")
	a.AppendChild(CreateText("line one"))
	b := CreateElement("span", "class", "ytp-caption-segment")
	b.AppendChild(CreateText("line two"))
	doc.ReplaceChildren(window, a, b)

	assert.Len(t, doc.Select(".ytp-caption-segment"), 2)

	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf))
	assert.Contains(t, buf.String(), "line one")
	assert.Contains(t, buf.String(), "line two")
	assert.NotContains(t, buf.String(), "Hello there")
}
