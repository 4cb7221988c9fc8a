package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseShapes(t *testing.T) {
	t.Run("Array", func(t *testing.T) {
		file, err := Parse("a.json", []byte(`[{"title": "One"}, {"title": "Two"}]`))
		require.NoError(t, err)
		require.Len(t, file.Prompts, 2)
		require.Nil(t, file.RootProperty)
	})

	t.Run("SinglePrompt", func(t *testing.T) {
		file, err := Parse("a.json", []byte(`{"title": "Solo", "content": "x"}`))
		require.NoError(t, err)
		require.Len(t, file.Prompts, 1)
		require.Equal(t, "Solo", file.Prompts[0]["title"])
	})

	t.Run("RootPropertyWithPrompts", func(t *testing.T) {
		file, err := Parse("a.json", []byte(`{"rootProperty": {"lang": "en"}, "prompts": [{"title": "A"}]}`))
		require.NoError(t, err)
		require.Equal(t, map[string]any{"lang": "en"}, file.RootProperty)
		require.Len(t, file.Prompts, 1)
	})

	t.Run("RootPropertyWithInlinePrompt", func(t *testing.T) {
		file, err := Parse("a.json", []byte(`{"rootProperty": {"lang": "en"}, "title": "Inline"}`))
		require.NoError(t, err)
		require.Len(t, file.Prompts, 1)
		require.Equal(t, "Inline", file.Prompts[0]["title"])
		require.NotContains(t, file.Prompts[0], "rootProperty")
	})

	t.Run("RootPropertyOnly", func(t *testing.T) {
		file, err := Parse("a.json", []byte(`{"rootProperty": {"lang": "en"}}`))
		require.NoError(t, err)
		require.Empty(t, file.Prompts)
		require.Equal(t, "en", file.RootProperty["lang"])
	})

	t.Run("Empty", func(t *testing.T) {
		file, err := Parse("a.json", []byte("  \n"))
		require.NoError(t, err)
		require.Empty(t, file.Prompts)
	})

	t.Run("NoPrompts", func(t *testing.T) {
		_, err := Parse("a.json", []byte(`{"name": "x"}`))
		require.ErrorIs(t, err, ErrNoPrompts)

		_, err = Parse("a.json", []byte(`42`))
		require.ErrorIs(t, err, ErrNoPrompts)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := Parse("a.json", []byte(`[{"title": "x"`))
		require.Error(t, err)
	})

	t.Run("YAML", func(t *testing.T) {
		src := "- title: Explain\n  content: |-\n    Line one\n    {{selection}}\n  actions: copy, paste\n"
		file, err := Parse("a.yaml", []byte(src))
		require.NoError(t, err)
		require.Len(t, file.Prompts, 1)
		require.Equal(t, "Line one\n{{selection}}", file.Prompts[0]["content"])
	})

	t.Run("RootActionsNormalized", func(t *testing.T) {
		file, err := Parse("a.json", []byte(`{"rootProperty": {"actions": "copy, paste"}, "prompts": []}`))
		require.NoError(t, err)
		require.Equal(t, []string{"copy", "paste"}, file.RootProperty["actions"])
	})
}

func TestParseRelaxedJSON(t *testing.T) {
	src := `
// leading comment
{
  /* block
     comment */
  title: 'single quoted',
  content: "keep // this and /* this */ too",
  url: "http://example.com/a:b",
  icon:"🔧",
  tags: [
    "a",
    "b", // trailing
  ],
	nested: {count: 3, ok: true,},
}
`
	file, err := Parse("relaxed.json5", []byte(src))
	require.NoError(t, err)
	require.Len(t, file.Prompts, 1)

	p := file.Prompts[0]
	require.Equal(t, "single quoted", p["title"])
	require.Equal(t, "keep // this and /* this */ too", p["content"])
	require.Equal(t, "http://example.com/a:b", p["url"])
	require.Equal(t, "🔧", p["icon"])
	require.Equal(t, []any{"a", "b"}, p["tags"])
	require.Equal(t, map[string]any{"count": 3, "ok": true}, p["nested"])
}

func TestParseJSONEscapes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		key  string
		want string
	}{
		{"EscapedSlash", `[{"title": "a\/b"}]`, "title", "a/b"},
		{"SurrogatePair", `[{"title": "Smile \ud83d\ude00"}]`, "title", "Smile 😀"},
		{"DuplicateKeyLastWins", `{"title": "a", "content": "x", "content": "y"}`, "content", "y"},
		{"UnicodeEscape", `[{"title": "caf\u00e9"}]`, "title", "café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Parse("escapes.json", []byte(tt.src))
			require.NoError(t, err)
			require.Len(t, file.Prompts, 1)
			require.Equal(t, tt.want, file.Prompts[0][tt.key])
		})
	}
}

func TestParseNumbers(t *testing.T) {
	for _, name := range []string{"n.json", "n.json5", "n.hjson", "n.yaml"} {
		t.Run(name, func(t *testing.T) {
			file, err := Parse(name, []byte(`{"title": "N", "maxTokens": 1000000, "temperature": 0.5}`))
			require.NoError(t, err)
			require.Len(t, file.Prompts, 1)
			require.Equal(t, 1000000, file.Prompts[0]["maxTokens"])
			require.Equal(t, 0.5, file.Prompts[0]["temperature"])
		})
	}
}

func TestParseHjson(t *testing.T) {
	src := `{
  # hash comment
  rootProperty: {
    lang: Answer in English.
  }
  prompts: [
    {
      title: Hjson prompt
      content: "Say {{input}}"
      actions: "copy, paste"
    }
  ]
}`
	file, err := Parse("prompts.hjson", []byte(src))
	require.NoError(t, err)
	require.Equal(t, "Answer in English.", file.RootProperty["lang"])
	require.Len(t, file.Prompts, 1)
	require.Equal(t, "Hjson prompt", file.Prompts[0]["title"])
	require.Equal(t, "Say {{input}}", file.Prompts[0]["content"])
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse("bad.json", []byte(`[{"title": "x"`))
	require.Error(t, err)
}

func TestIsDefinitionFile(t *testing.T) {
	for _, name := range []string{"a.json", "a.JSON5", "a.hjson", "a.yaml", "a.yml"} {
		require.True(t, IsDefinitionFile(name), name)
	}
	for _, name := range []string{"a.md", "a.txt", "json"} {
		require.False(t, IsDefinitionFile(name), name)
	}
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"lang", "tone"}, SplitList(" lang, tone ,lang,, "))
	require.Nil(t, SplitList("  "))
}
