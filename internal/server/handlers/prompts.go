package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/promptlens/promptlens/internal/errors"
	"github.com/promptlens/promptlens/internal/metrics"
	"github.com/promptlens/promptlens/internal/observability"
	"github.com/promptlens/promptlens/internal/output"
	"github.com/promptlens/promptlens/internal/placeholder"
	"github.com/promptlens/promptlens/internal/prompt"
	"github.com/promptlens/promptlens/internal/state"
)

// PromptHandler serves the prompt library over HTTP.
type PromptHandler struct {
	Loader    *prompt.Loader
	Builder   *prompt.Builder
	Formatter *placeholder.Formatter
	Pins      *state.Pins
	History   *state.History
	// RootDir is the default root for {{file:...}} inclusion when a request
	// does not name one.
	RootDir string
}

// PromptDetail is a single prompt with its effective properties.
type PromptDetail struct {
	output.PromptSummary
	Template     string         `json:"template"`
	Properties   map[string]any `json:"properties"`
	SubpromptIDs []string       `json:"subprompt_ids,omitempty"`
	Placeholders []string       `json:"placeholders,omitempty"`
}

// RenderRequest is the body of a render call. All fields are optional.
type RenderRequest struct {
	Replacements placeholder.Replacements `json:"replacements"`
	RootDir      string                   `json:"root_dir,omitempty"`
	Record       bool                     `json:"record,omitempty"`
}

// RenderResponse carries the rendered prompt text.
type RenderResponse struct {
	Identifier string   `json:"identifier"`
	Path       string   `json:"path"`
	Content    string   `json:"content"`
	Used       []string `json:"used,omitempty"`
	Unresolved []string `json:"unresolved,omitempty"`
}

// FormatRequest formats a free-standing template.
type FormatRequest struct {
	Template       string                   `json:"template"`
	Replacements   placeholder.Replacements `json:"replacements"`
	RootDir        string                   `json:"root_dir,omitempty"`
	ResolveFile    bool                     `json:"resolve_file,omitempty"`
	RecursionLevel int                      `json:"recursion_level,omitempty"`
}

// FormatResponse carries the formatted text.
type FormatResponse struct {
	Content    string   `json:"content"`
	Unresolved []string `json:"unresolved,omitempty"`
}

// ReloadResponse describes the tree after a forced reload.
type ReloadResponse struct {
	Prompts   int             `json:"prompts"`
	Signature string          `json:"signature"`
	Sources   []prompt.Source `json:"sources"`
}

// PinResponse reports the pin state of one identifier.
type PinResponse struct {
	Identifier string `json:"identifier"`
	Pinned     bool   `json:"pinned"`
}

// Mount registers the prompt routes on r.
func (h *PromptHandler) Mount(r chi.Router) {
	r.Get("/prompts", h.ListPrompts)
	r.Get("/prompts/{id}", h.GetPrompt)
	r.Post("/prompts/{id}/render", h.RenderPrompt)
	r.Post("/format", h.FormatTemplate)
	r.Post("/reload", h.Reload)
	r.Get("/pins", h.ListPins)
	r.Get("/pins/{id}", h.GetPin)
	r.Put("/pins/{id}", h.PutPin)
	r.Delete("/pins/{id}", h.DeletePin)
}

// ListPrompts handles GET /prompts. Query parameters: q filters by title,
// path or identifier; roots=true limits to top-level prompts; pinned=true
// limits to pinned prompts.
func (h *PromptHandler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := query.Get("q")
	onlyPinned, _ := strconv.ParseBool(query.Get("pinned"))
	rootsOnly, _ := strconv.ParseBool(query.Get("roots"))

	pins, err := h.pinSet(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	var nodes []*prompt.Node
	if rootsOnly {
		for _, node := range h.Loader.RootPrompts() {
			if node.Matches(filter) {
				nodes = append(nodes, node)
			}
		}
	} else {
		nodes = h.Loader.FilteredPrompts(func(n *prompt.Node) bool { return n.Matches(filter) })
	}

	nodes = prompt.Annotate(nodes, func(id string) bool { return pins[id] })
	if onlyPinned {
		kept := nodes[:0]
		for _, node := range nodes {
			if node.Pinned {
				kept = append(kept, node)
			}
		}
		nodes = kept
	}

	summaries := output.Summarize(nodes)
	if summaries == nil {
		summaries = []output.PromptSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GetPrompt handles GET /prompts/{id}.
func (h *PromptHandler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	node, ok := h.lookup(w, r)
	if !ok {
		return
	}

	pins, err := h.pinSet(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	annotated := prompt.Annotate([]*prompt.Node{node}, func(id string) bool { return pins[id] })[0]

	template := prompt.Template(node)
	detail := PromptDetail{
		PromptSummary: output.Summarize([]*prompt.Node{annotated})[0],
		Template:      template,
		Properties:    node.Properties(),
		Placeholders:  placeholder.Names(template),
	}
	for _, child := range node.Subprompts {
		detail.SubpromptIDs = append(detail.SubpromptIDs, child.Identifier)
	}
	writeJSON(w, http.StatusOK, detail)
}

// RenderPrompt handles POST /prompts/{id}/render.
func (h *PromptHandler) RenderPrompt(w http.ResponseWriter, r *http.Request) {
	node, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req RenderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	rootDir := req.RootDir
	if rootDir == "" {
		rootDir = h.RootDir
	}

	content, err := h.Builder.BuildFormattedPromptContentContext(r.Context(), node, req.Replacements, rootDir)
	if err != nil {
		metrics.RecordRender("prompt", false, 0)
		respondWithError(w, r, err)
		return
	}

	unresolved := placeholder.Names(content)
	metrics.RecordRender("prompt", true, len(unresolved))
	observability.LoggerFrom(r.Context()).Debug("Prompt rendered",
		zap.String("identifier", node.Identifier),
		zap.Int("unresolved", len(unresolved)))

	if req.Record && h.History != nil {
		if err := h.History.Record(r.Context(), node.Identifier); err != nil {
			observability.LoggerFrom(r.Context()).Warn("Failed to record prompt usage",
				zap.String("identifier", node.Identifier),
				zap.Error(err))
		}
	}

	used := placeholder.ResolvePlaceholders(prompt.Template(node), h.Builder.Replacements(node, req.Replacements))
	writeJSON(w, http.StatusOK, RenderResponse{
		Identifier: node.Identifier,
		Path:       node.Path,
		Content:    content,
		Used:       sortedKeys(used),
		Unresolved: unresolved,
	})
}

// FormatTemplate handles POST /format.
func (h *PromptHandler) FormatTemplate(w http.ResponseWriter, r *http.Request) {
	var req FormatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if req.RecursionLevel < 0 {
		respondWithError(w, r, apperrors.NewValidationError("recursion_level must not be negative"))
		return
	}
	rootDir := req.RootDir
	if rootDir == "" {
		rootDir = h.RootDir
	}

	content, err := h.formatter().FormatContext(r.Context(), req.Template, req.Replacements, rootDir, placeholder.FormatOptions{
		ResolveFile:    req.ResolveFile,
		RecursionLevel: req.RecursionLevel,
	})
	if err != nil {
		metrics.RecordRender("template", false, 0)
		respondWithError(w, r, err)
		return
	}

	unresolved := placeholder.Names(content)
	metrics.RecordRender("template", true, len(unresolved))
	observability.LoggerFrom(r.Context()).Debug("Template formatted",
		zap.Bool("resolve_file", req.ResolveFile),
		zap.Int("unresolved", len(unresolved)))
	writeJSON(w, http.StatusOK, FormatResponse{Content: content, Unresolved: unresolved})
}

// Reload handles POST /reload.
func (h *PromptHandler) Reload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.Loader.Reload(r.Context()); err != nil {
		metrics.RecordPromptLoadError("http")
		respondWithError(w, r, apperrors.WrapPromptLoad(r.Context(), err, "failed to reload prompts"))
		return
	}

	count := len(h.Loader.FilteredPrompts(nil))
	metrics.RecordPromptLoad(string(prompt.OriginFresh), count, time.Since(start))
	observability.LoggerFrom(r.Context()).Info("Prompts reloaded",
		zap.Int("prompts", count),
		zap.Duration("duration", time.Since(start)))

	sources := h.Loader.Sources()
	if sources == nil {
		sources = []prompt.Source{}
	}
	writeJSON(w, http.StatusOK, ReloadResponse{
		Prompts:   count,
		Signature: h.Loader.Signature(),
		Sources:   sources,
	})
}

// ListPins handles GET /pins.
func (h *PromptHandler) ListPins(w http.ResponseWriter, r *http.Request) {
	if !h.pinsAvailable(w, r) {
		return
	}
	ids, err := h.Pins.List(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapStorage(r.Context(), err, "failed to list pins"))
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// GetPin handles GET /pins/{id}.
func (h *PromptHandler) GetPin(w http.ResponseWriter, r *http.Request) {
	if !h.pinsAvailable(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	pinned, err := h.Pins.IsPinned(r.Context(), id)
	if err != nil {
		respondWithError(w, r, apperrors.WrapStorage(r.Context(), err, "failed to read pin"))
		return
	}
	writeJSON(w, http.StatusOK, PinResponse{Identifier: id, Pinned: pinned})
}

// PutPin handles PUT /pins/{id}. Only loaded prompts can be pinned.
func (h *PromptHandler) PutPin(w http.ResponseWriter, r *http.Request) {
	if !h.pinsAvailable(w, r) {
		return
	}
	node, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.Pins.Pin(r.Context(), node.Identifier); err != nil {
		respondWithError(w, r, apperrors.WrapStorage(r.Context(), err, "failed to pin prompt"))
		return
	}
	writeJSON(w, http.StatusOK, PinResponse{Identifier: node.Identifier, Pinned: true})
}

// DeletePin handles DELETE /pins/{id}.
func (h *PromptHandler) DeletePin(w http.ResponseWriter, r *http.Request) {
	if !h.pinsAvailable(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	removed, err := h.Pins.Unpin(r.Context(), id)
	if err != nil {
		respondWithError(w, r, apperrors.WrapStorage(r.Context(), err, "failed to unpin prompt"))
		return
	}
	if !removed {
		respondWithError(w, r, apperrors.NewNotFoundError("prompt is not pinned: "+id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PromptHandler) lookup(w http.ResponseWriter, r *http.Request) (*prompt.Node, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("prompt identifier is required"))
		return nil, false
	}
	node, ok := h.Loader.FindByIdentifier(id)
	if !ok {
		respondWithError(w, r, apperrors.NewPromptNotFoundError(id))
		return nil, false
	}
	return node, true
}

func (h *PromptHandler) pinSet(r *http.Request) (map[string]bool, error) {
	if h.Pins == nil {
		return nil, nil
	}
	pins, err := h.Pins.Set(r.Context())
	if err != nil {
		return nil, apperrors.WrapStorage(r.Context(), err, "failed to read pins")
	}
	return pins, nil
}

func (h *PromptHandler) pinsAvailable(w http.ResponseWriter, r *http.Request) bool {
	if h.Pins == nil {
		respondWithError(w, r, apperrors.NewServiceUnavailableError("pin storage is not configured"))
		return false
	}
	return true
}

func (h *PromptHandler) formatter() *placeholder.Formatter {
	if h.Formatter != nil {
		return h.Formatter
	}
	if h.Builder != nil && h.Builder.Formatter != nil {
		return h.Builder.Formatter
	}
	return placeholder.New()
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
