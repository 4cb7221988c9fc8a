package prompt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/promptlens/promptlens/internal/kv"
	"github.com/promptlens/promptlens/internal/placeholder"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

type fakeTemps []TempSource

func (f fakeTemps) Active(_ context.Context, _ time.Time) ([]TempSource, error) {
	return f, nil
}

func loadDir(t *testing.T, opts Options) *Loader {
	t.Helper()
	l := NewLoader(opts)
	_, err := l.Load(context.Background())
	require.NoError(t, err)
	return l
}

func TestLoaderInheritance(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tree.json")
	writeFile(t, file, `[{
		"title": "Parent",
		"actions": ["x"],
		"suffix": "lang",
		"options": {"tone": ["a"]},
		"identifier": "parent",
		"subprompts": [
			{"title": "Child", "content": "Body"},
			{"title": "Override", "actions": "y, z"}
		]
	}]`)

	l := loadDir(t, Options{Directories: []string{dir}})
	parent, ok := l.FindByIdentifier("parent")
	require.True(t, ok)
	require.Len(t, parent.Subprompts, 2)

	child := parent.Subprompts[0]
	require.Equal(t, []string{"x"}, child.Actions())
	require.Equal(t, "lang", child.Suffix())
	require.Equal(t, "Parent / Child", child.Path)
	require.Equal(t, file, child.FilePath)
	require.Nil(t, child.Options, "options are not inherited")
	require.NotEqual(t, "parent", child.Identifier)

	override := parent.Subprompts[1]
	require.Equal(t, []string{"y", "z"}, override.Actions())
	require.Equal(t, "Override", override.Content())

	require.Equal(t, []string{"x"}, parent.Actions(), "parent is not modified by its children")
}

func TestLoaderFilePathProvenance(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "nested", "b.yaml")
	writeFile(t, first, `{"title": "First", "subprompts": [{"title": "First child"}]}`)
	writeFile(t, second, "- title: Second\n")

	l := loadDir(t, Options{Directories: []string{dir}})
	for _, node := range l.FilteredPrompts(nil) {
		switch node.Title() {
		case "First", "First child":
			require.Equal(t, first, node.FilePath, node.Title())
		case "Second":
			require.Equal(t, second, node.FilePath)
		default:
			t.Fatalf("unexpected prompt %q", node.Title())
		}
	}
}

func TestLoaderMergesPromptsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.yaml")
	base := filepath.Join(t.TempDir(), "base.json")
	writeFile(t, first, `[{"title": "Writing", "identifier": "writing", "tone": "calm", "subprompts": [
		{"title": "Fix", "identifier": "fix", "subprompts": [{"title": "Spelling", "identifier": "spelling"}]}
	]}]`)
	writeFile(t, second, `- title: Writing again
  identifier: writing
  tone: loud
  audience: team
  subprompts:
    - title: Shorten
      identifier: shorten
    - title: Fix
      identifier: fix
      subprompts:
        - title: Grammar
          identifier: grammar
`)
	writeFile(t, base, `[{"title": "Writing", "identifier": "writing", "subprompts": [{"title": "Base child", "identifier": "base-child"}]}]`)

	l := loadDir(t, Options{Directories: []string{dir}, BaseSource: base})
	require.Len(t, l.Prompts(), 1)

	writing := l.Prompts()[0]
	require.Equal(t, "Writing", writing.Title())
	require.Equal(t, first, writing.FilePath)
	value, _ := writing.Property("tone")
	require.Equal(t, "calm", value, "the first definition keeps its properties")
	value, _ = writing.Property("audience")
	require.Equal(t, "team", value)

	var ids []string
	for _, child := range writing.Subprompts {
		ids = append(ids, child.Identifier)
	}
	require.Equal(t, []string{"fix", "shorten", "base-child"}, ids)

	shorten, ok := l.FindByIdentifier("shorten")
	require.True(t, ok)
	require.Equal(t, second, shorten.FilePath, "a child keeps the file it was loaded from")
	require.Equal(t, "Writing / Shorten", shorten.Path)
	value, _ = shorten.Property("tone")
	require.Equal(t, "calm", value)

	baseChild, ok := l.FindByIdentifier("base-child")
	require.True(t, ok)
	require.Equal(t, base, baseChild.FilePath)

	fix, ok := l.FindByIdentifier("fix")
	require.True(t, ok)
	require.Equal(t, first, fix.FilePath)
	require.Len(t, fix.Subprompts, 2)
	grammar := fix.Subprompts[1]
	require.Equal(t, "Writing / Fix / Grammar", grammar.Path)
	require.Equal(t, second, grammar.FilePath)
}

func TestLoaderKeepsPromptsWithoutIdentifierSeparate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[{"title": "Same"}]`)
	writeFile(t, filepath.Join(dir, "b.json"), `[{"title": "Same"}]`)

	l := loadDir(t, Options{Directories: []string{dir}})
	require.Len(t, l.Prompts(), 2)
}

func TestLoaderRootPropertyOverlay(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(t.TempDir(), "base.json")
	writeFile(t, filepath.Join(dir, "a.json"), `[
		{"title": "Uses overlay", "identifier": "a"},
		{"title": "Overrides", "identifier": "b", "lang": "Deutsch"}
	]`)
	writeFile(t, base, `{"rootProperty": {"lang": "English", "subprompts": "ignored"}, "prompts": []}`)

	l := loadDir(t, Options{Directories: []string{dir}, BaseSource: base})

	a, ok := l.FindByIdentifier("a")
	require.True(t, ok)
	value, ok := a.Property("lang")
	require.True(t, ok)
	require.Equal(t, "English", value)
	require.Empty(t, a.Subprompts)

	b, ok := l.FindByIdentifier("b")
	require.True(t, ok)
	value, _ = b.Property("lang")
	require.Equal(t, "Deutsch", value)
}

func TestLoaderIdentifiers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[
		{"title": "🔧 Fix", "content": "{{selection}}"},
		{"title": "Named", "identifier": "my-id"}
	]`)

	l := loadDir(t, Options{Directories: []string{dir}})
	before := l.Prompts()
	require.Len(t, before, 2)
	require.Equal(t, GenerateIdentifier("🔧 Fix", "{{selection}}"), before[0].Identifier)
	require.Equal(t, "my-id", before[1].Identifier)

	require.NoError(t, l.Reload(context.Background()))
	after := l.Prompts()
	require.Equal(t, before[0].Identifier, after[0].Identifier)
	require.Equal(t, before[1].Identifier, after[1].Identifier)
	require.NotSame(t, before[0], after[0])
}

func TestLoaderOrigins(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.json")
	writeFile(t, file, `[{"title": "Cached", "identifier": "cached"}]`)

	store := kv.NewMemory()
	opts := Options{Directories: []string{dir}, Cache: NewKVTreeCache(store)}
	ctx := context.Background()

	first := NewLoader(opts)
	origin, err := first.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, OriginFresh, origin)

	origin, err = first.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, OriginMemory, origin)

	t.Run("RestoredFromCache", func(t *testing.T) {
		second := NewLoader(opts)
		origin, err := second.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, OriginCache, origin)
		node, ok := second.FindByIdentifier("cached")
		require.True(t, ok)
		require.Equal(t, file, node.FilePath)
	})

	t.Run("UnrelatedFileKeepsTree", func(t *testing.T) {
		writeFile(t, filepath.Join(t.TempDir(), "other.json"), `[{"title": "Other"}]`)
		origin, err := first.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, OriginMemory, origin)
	})

	t.Run("TouchInvalidates", func(t *testing.T) {
		later := time.Now().Add(time.Hour)
		require.NoError(t, os.Chtimes(file, later, later))
		origin, err := first.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, OriginFresh, origin)
	})

	t.Run("NewFileInvalidates", func(t *testing.T) {
		writeFile(t, filepath.Join(dir, "b.json"), `[{"title": "Added", "identifier": "added"}]`)
		origin, err := first.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, OriginFresh, origin)
		_, ok := first.FindByIdentifier("added")
		require.True(t, ok)
	})

	t.Run("ReloadBypassesCache", func(t *testing.T) {
		third := NewLoader(opts)
		require.NoError(t, third.Reload(ctx))
		require.Len(t, third.Prompts(), 2)
	})
}

func TestCachedTreeRendersLikeFresh(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json5"), `[{
		title: "Numbers",
		identifier: "numbers",
		content: "n={{maxTokens}} t={{temperature}} a={{actions}} {{limits.max}}",
		maxTokens: 1000000,
		temperature: 0.7,
		actions: "copy, paste",
		limits: {max: 2000000},
	}]`)

	store := kv.NewMemory()
	opts := Options{Directories: []string{dir}, Cache: NewKVTreeCache(store)}
	ctx := context.Background()

	render := func(l *Loader) string {
		node, ok := l.FindByIdentifier("numbers")
		require.True(t, ok)
		return NewBuilder(l, placeholder.New()).BuildFormattedPromptContent(node, placeholder.Replacements{}, "")
	}

	fresh := NewLoader(opts)
	origin, err := fresh.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, OriginFresh, origin)

	restored := NewLoader(opts)
	origin, err = restored.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, OriginCache, origin)

	want := "n=1000000 t=0.7 a=copy,paste 2000000"
	require.Equal(t, want, render(fresh))
	require.Equal(t, want, render(restored))

	node, _ := restored.FindByIdentifier("numbers")
	require.Equal(t, 1000000, node.Props["maxTokens"])
	require.Equal(t, []string{"copy", "paste"}, node.Actions())
}

func TestLoaderRootPrompts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[
		{"title": "Group", "identifier": "group", "subprompts": [
			{"title": "Shared", "identifier": "shared"}
		]},
		{"title": "Shared", "identifier": "shared"},
		{"title": "Alone", "identifier": "alone"}
	]`)

	l := loadDir(t, Options{Directories: []string{dir}})
	require.Len(t, l.Prompts(), 3)

	var ids []string
	for _, node := range l.RootPrompts() {
		ids = append(ids, node.Identifier)
	}
	require.Equal(t, []string{"group", "alone"}, ids)
}

func TestLoaderQueries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[
		{"title": "Group", "identifier": "group", "subprompts": [
			{"title": "One", "identifier": "one", "icon": "1"},
			{"title": "Two", "identifier": "two"}
		]}
	]`)
	l := loadDir(t, Options{Directories: []string{dir}})

	all := l.FilteredPrompts(nil)
	require.Len(t, all, 3)
	require.Equal(t, "group", all[0].Identifier)

	withIcon := l.FilteredPrompts(func(n *Node) bool { return n.Icon() != "" })
	require.Len(t, withIcon, 1)
	require.Equal(t, "one", withIcon[0].Identifier)

	found, ok := l.FindPrompt(func(n *Node) bool { return n.Title() == "Two" })
	require.True(t, ok)
	require.Equal(t, "Group / Two", found.Path)

	_, ok = l.FindByIdentifier("missing")
	require.False(t, ok)

	annotated := Annotate(all, func(id string) bool { return id == "two" })
	require.True(t, annotated[2].Pinned)
	require.False(t, annotated[0].Pinned)
	require.False(t, all[2].Pinned)
}

func TestLoaderSkipsBadEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.json"), `[{"title": "Good"}]`)
	writeFile(t, filepath.Join(dir, "bad.json"), `[{"title": `)
	writeFile(t, filepath.Join(dir, "untitled.json"), `[{"content": "no title"}]`)
	writeFile(t, filepath.Join(dir, "#draft.json"), `[{"title": "Draft"}]`)
	writeFile(t, filepath.Join(dir, ".hidden", "x.json"), `[{"title": "Hidden"}]`)
	writeFile(t, filepath.Join(dir, "notes.md"), `# not a prompt`)

	l := loadDir(t, Options{Directories: []string{dir}})
	prompts := l.Prompts()
	require.Len(t, prompts, 1)
	require.Equal(t, "Good", prompts[0].Title())
}

func TestLoaderTemporarySources(t *testing.T) {
	dir := t.TempDir()
	temp := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[{"title": "Regular", "identifier": "regular"}]`)
	writeFile(t, filepath.Join(temp, "t.json"), `[{"title": "Temp", "identifier": "temp", "subprompts": [{"title": "Inner", "identifier": "inner"}]}]`)

	l := loadDir(t, Options{
		Directories: []string{dir},
		Temp:        fakeTemps{{Path: temp, AddedAt: time.Now(), TTL: time.Hour}},
	})

	regular, ok := l.FindByIdentifier("regular")
	require.True(t, ok)
	require.False(t, regular.IsTemporary)

	for _, id := range []string{"temp", "inner"} {
		node, ok := l.FindByIdentifier(id)
		require.True(t, ok)
		require.True(t, node.IsTemporary, id)
		require.Equal(t, filepath.Clean(temp), node.TemporaryDirSource, id)
	}

	kinds := make([]SourceKind, 0)
	for _, src := range l.Sources() {
		kinds = append(kinds, src.Kind)
	}
	require.Equal(t, []SourceKind{KindDirectory, KindTemporary}, kinds)
}

func TestResolveSources(t *testing.T) {
	temps := []TempSource{{Path: "/tmp/t"}, {Path: "/p/a/"}}

	t.Run("ConfiguredDirectories", func(t *testing.T) {
		sources := ResolveSources([]string{"/p/a", " ", "/p/b"}, temps, "/defaults", "/base.json")
		require.Equal(t, []Source{
			{Path: "/p/a", Kind: KindDirectory},
			{Path: "/p/b", Kind: KindDirectory},
			{Path: "/tmp/t", Kind: KindTemporary},
			{Path: "/base.json", Kind: KindBase},
		}, sources)
	})

	t.Run("DefaultsWithoutDirectories", func(t *testing.T) {
		sources := ResolveSources(nil, nil, "/defaults", "/base.json")
		require.Equal(t, []Source{
			{Path: "/defaults", Kind: KindDefaults},
			{Path: "/base.json", Kind: KindBase},
		}, sources)
	})
}

func TestTemporaryRoot(t *testing.T) {
	sources := []Source{
		{Path: "/t", Kind: KindTemporary},
		{Path: "/t/inner", Kind: KindTemporary},
		{Path: "/t/inner/deeper", Kind: KindDirectory},
	}
	require.Equal(t, "/t/inner", temporaryRoot("/t/inner/deeper/x.json", sources))
	require.Equal(t, "/t", temporaryRoot("/t/x.json", sources))
	require.Equal(t, "", temporaryRoot("/tx/x.json", sources))
}

func TestTempSourceExpiry(t *testing.T) {
	added := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	src := TempSource{AddedAt: added, TTL: time.Hour}
	require.False(t, src.Expired(added.Add(59*time.Minute)))
	require.True(t, src.Expired(added.Add(time.Hour)))

	forever := TempSource{AddedAt: added}
	require.True(t, forever.ExpiresAt().IsZero())
	require.False(t, forever.Expired(added.Add(1000*time.Hour)))
}

func TestSignature(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[]`)
	sources := []Source{{Path: dir, Kind: KindDirectory}, {Path: filepath.Join(dir, "missing"), Kind: KindBase}}

	first, err := Signature(sources)
	require.NoError(t, err)
	again, err := Signature(sources)
	require.NoError(t, err)
	require.Equal(t, first, again)

	writeFile(t, filepath.Join(dir, ".git", "HEAD"), "ref")
	hidden, err := Signature(sources)
	require.NoError(t, err)
	require.NotEqual(t, first, hidden, "directory listing changed")

	later := time.Now().Add(2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, ".git", "HEAD"), later, later))
	touched, err := Signature(sources)
	require.NoError(t, err)
	require.Equal(t, hidden, touched, "ignored entries are not traversed")
}

func TestNodeMatches(t *testing.T) {
	node := &Node{Identifier: "ab12cd34", Path: "Writing / Fix grammar", Props: map[string]any{PropTitle: "Fix grammar"}}
	require.True(t, node.Matches(""))
	require.True(t, node.Matches("GRAMMAR"))
	require.True(t, node.Matches("writing"))
	require.True(t, node.Matches("ab12"))
	require.False(t, node.Matches("tone"))

	var missing *Node
	require.False(t, missing.Matches("x"))
}
