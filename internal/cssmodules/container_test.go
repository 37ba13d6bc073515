package icm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument(t *testing.T) {
	doc := NewDocument()
	var seen []string
	doc.OnReplace(func(markup string) { seen = append(seen, markup) })

	require.NoError(t, doc.ReplaceContents("<style>a</style>"))
	require.NoError(t, doc.ReplaceContents(""))

	assert.Equal(t, []string{"<style>a</style>", ""}, seen)
	assert.Equal(t, 2, doc.Replacements())
	assert.Equal(t, `<css-modules id="__css-modules"></css-modules>`, string(doc.HeadHTML()))
}

func TestRenderMarkup(t *testing.T) {
	entries := []renderEntry{
		{rec: &StyleRecord{Name: `a"b.css`, InjectableSource: ".a{}"}, handle: "/res/1.css"},
		{rec: &StyleRecord{Name: "c.css", InjectableSource: "</STYLE><script>"}, handle: "/res/2.css"},
	}

	inline, err := renderMarkup(entries, StrategyInline)
	require.NoError(t, err)
	assert.Equal(t, `<style id="a&#34;b.css">.a{}</style><style id="c.css"><\/STYLE><script></style>`, inline)

	external, err := renderMarkup(entries, StrategyExternal)
	require.NoError(t, err)
	assert.Equal(t, `<link rel="stylesheet" id="a&#34;b.css" href="/res/1.css"/><link rel="stylesheet" id="c.css" href="/res/2.css"/>`, external)

	entries[1].handle = ""
	_, err = renderMarkup(entries, StrategyExternal)
	var matErr *ResourceMaterializationError
	require.ErrorAs(t, err, &matErr)
	assert.Equal(t, "c.css", matErr.Name)

	empty, err := renderMarkup(nil, StrategyInline)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
