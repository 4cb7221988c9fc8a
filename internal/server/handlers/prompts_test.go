package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/promptlens/promptlens/internal/errors"
	"github.com/promptlens/promptlens/internal/kv"
	"github.com/promptlens/promptlens/internal/observability"
	"github.com/promptlens/promptlens/internal/output"
	"github.com/promptlens/promptlens/internal/placeholder"
	"github.com/promptlens/promptlens/internal/prompt"
	servermw "github.com/promptlens/promptlens/internal/server/middleware"
	"github.com/promptlens/promptlens/internal/state"
)

type promptFixture struct {
	router  http.Handler
	handler *PromptHandler
	dir     string
	root    string
}

func newPromptFixture(t *testing.T) *promptFixture {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompts.json"), []byte(`[
		{"title": "Greet", "identifier": "greet", "content": "Hello {{selection}} {{missing}}", "subprompts": [
			{"title": "Child", "identifier": "child", "content": "c"}
		]},
		{"title": "Read", "identifier": "read", "content": "{{file:notes.txt}}"}
	]`), 0o644))

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("remember"), 0o644))

	loader := prompt.NewLoader(prompt.Options{Directories: []string{dir}})
	_, err := loader.Load(context.Background())
	require.NoError(t, err)

	store := kv.NewMemory()
	h := &PromptHandler{
		Loader:  loader,
		Builder: prompt.NewBuilder(loader, placeholder.New()),
		Pins:    state.NewPins(store),
		History: state.NewHistory(store, 10),
		RootDir: root,
	}

	r := chi.NewRouter()
	h.Mount(r)
	return &promptFixture{router: r, handler: h, dir: dir, root: root}
}

func (f *promptFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestListPrompts(t *testing.T) {
	f := newPromptFixture(t)

	t.Run("All", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/prompts", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		summaries := decode[[]output.PromptSummary](t, rec)
		require.Len(t, summaries, 3)
		assert.Equal(t, "greet", summaries[0].Identifier)
		assert.Equal(t, 1, summaries[0].Subprompts)
	})

	t.Run("Filter", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/prompts?q=child", nil)
		summaries := decode[[]output.PromptSummary](t, rec)
		require.Len(t, summaries, 1)
		assert.Equal(t, "Greet / Child", summaries[0].Path)
	})

	t.Run("Roots", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/prompts?roots=true", nil)
		summaries := decode[[]output.PromptSummary](t, rec)
		require.Len(t, summaries, 2)
	})

	t.Run("NoMatchIsEmptyArray", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/prompts?q=nothing", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestGetPrompt(t *testing.T) {
	f := newPromptFixture(t)

	rec := f.do(t, http.MethodGet, "/prompts/greet", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[PromptDetail](t, rec)
	assert.Equal(t, "greet", detail.Identifier)
	assert.Equal(t, "Hello {{selection}} {{missing}}", detail.Template)
	assert.Equal(t, []string{"selection", "missing"}, detail.Placeholders)
	assert.Equal(t, []string{"child"}, detail.SubpromptIDs)
	assert.Equal(t, "Greet", detail.Properties[prompt.PropTitle])

	rec = f.do(t, http.MethodGet, "/prompts/unknown", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode[apperrors.HTTPErrorResponse](t, rec)
	assert.Equal(t, apperrors.CodeNotFound, resp.Error.Code)
}

func TestRenderPrompt(t *testing.T) {
	f := newPromptFixture(t)

	t.Run("Replacements", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/prompts/greet/render", RenderRequest{
			Replacements: placeholder.Replacements{Selection: "World"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[RenderResponse](t, rec)
		assert.Equal(t, "Hello World {{missing}}", resp.Content)
		assert.Equal(t, []string{"selection"}, resp.Used)
		assert.Equal(t, []string{"missing"}, resp.Unresolved)
	})

	t.Run("EmptyBody", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/prompts/greet/render", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[RenderResponse](t, rec)
		assert.Equal(t, "Hello {{selection}} {{missing}}", resp.Content)
	})

	t.Run("FileInclusion", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/prompts/read/render", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[RenderResponse](t, rec)
		assert.Equal(t, "File: notes.txt\nremember", resp.Content)
	})

	t.Run("RecordsHistory", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/prompts/child/render", RenderRequest{Record: true})
		require.Equal(t, http.StatusOK, rec.Code)

		entries, err := f.handler.History.List(context.Background())
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, "child", entries[0].Identifier)
	})

	t.Run("UnknownField", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/prompts/greet/render", bytes.NewBufferString(`{"bogus": 1}`))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownPrompt", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/prompts/nope/render", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestFormatTemplate(t *testing.T) {
	f := newPromptFixture(t)

	rec := f.do(t, http.MethodPost, "/format", FormatRequest{
		Template:     "{{input|selection}}!",
		Replacements: placeholder.Replacements{Selection: "s"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[FormatResponse](t, rec)
	assert.Equal(t, "s!", resp.Content)
	assert.Empty(t, resp.Unresolved)

	rec = f.do(t, http.MethodPost, "/format", FormatRequest{Template: "{{file:notes.txt}}"})
	resp = decode[FormatResponse](t, rec)
	assert.Equal(t, "{{file:notes.txt}}", resp.Content, "files are only read when requested")

	rec = f.do(t, http.MethodPost, "/format", FormatRequest{Template: "x", RecursionLevel: -1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decode[apperrors.HTTPErrorResponse](t, rec)
	assert.Equal(t, apperrors.CodeValidationFailed, errResp.Error.Code)
}

func TestPins(t *testing.T) {
	f := newPromptFixture(t)

	rec := f.do(t, http.MethodPut, "/pins/greet", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[PinResponse](t, rec).Pinned)

	rec = f.do(t, http.MethodGet, "/pins", nil)
	assert.Equal(t, []string{"greet"}, decode[[]string](t, rec))

	rec = f.do(t, http.MethodGet, "/pins/greet", nil)
	assert.True(t, decode[PinResponse](t, rec).Pinned)

	rec = f.do(t, http.MethodGet, "/prompts?pinned=true", nil)
	summaries := decode[[]output.PromptSummary](t, rec)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Pinned)

	rec = f.do(t, http.MethodPut, "/pins/unknown", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/pins/greet", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/pins/greet", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/pins", nil)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestPinsWithoutStorage(t *testing.T) {
	f := newPromptFixture(t)
	f.handler.Pins = nil

	rec := f.do(t, http.MethodGet, "/pins", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = f.do(t, http.MethodGet, "/prompts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReload(t *testing.T) {
	f := newPromptFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "more.yaml"), []byte("- title: More\n  identifier: more\n"), 0o644))

	rec := f.do(t, http.MethodPost, "/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ReloadResponse](t, rec)
	assert.Equal(t, 4, resp.Prompts)
	assert.NotEmpty(t, resp.Signature)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, prompt.KindDirectory, resp.Sources[0].Kind)

	rec = f.do(t, http.MethodGet, "/prompts/more", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRenderAndFormatLogRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	original := observability.ServerLogger
	observability.ServerLogger = zap.New(core)
	t.Cleanup(func() { observability.ServerLogger = original })

	f := newPromptFixture(t)
	r := chi.NewRouter()
	r.Use(servermw.RequestID)
	f.handler.Mount(r)

	send := func(path string, body any, id string) {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
		req.Header.Set(servermw.RequestIDHeader, id)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	send("/prompts/greet/render", RenderRequest{Replacements: placeholder.Replacements{Selection: "there"}}, "render-1")
	send("/format", FormatRequest{Template: "{{selection}} {{b}}", Replacements: placeholder.Replacements{Selection: "x"}}, "format-1")

	rendered := logs.FilterMessage("Prompt rendered").All()
	require.Len(t, rendered, 1)
	assert.Equal(t, "render-1", rendered[0].ContextMap()["request_id"])
	assert.Equal(t, "greet", rendered[0].ContextMap()["identifier"])
	assert.EqualValues(t, 1, rendered[0].ContextMap()["unresolved"])

	formatted := logs.FilterMessage("Template formatted").All()
	require.Len(t, formatted, 1)
	assert.Equal(t, "format-1", formatted[0].ContextMap()["request_id"])
	assert.EqualValues(t, 1, formatted[0].ContextMap()["unresolved"])
}
