package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/promptlens/promptlens/internal/config"
	apperrors "github.com/promptlens/promptlens/internal/errors"
	"github.com/promptlens/promptlens/internal/metrics"
	"github.com/promptlens/promptlens/internal/observability"
	"github.com/promptlens/promptlens/internal/placeholder"
	"github.com/promptlens/promptlens/internal/prompt"
	"github.com/promptlens/promptlens/internal/state"
	"github.com/promptlens/promptlens/internal/store"
)

// app wires the store, state and prompt components for one command run.
type app struct {
	cfg       *config.Config
	logger    observability.Logger
	backend   *store.Backend
	loader    *prompt.Loader
	builder   *prompt.Builder
	formatter *placeholder.Formatter
	pins      *state.Pins
	history   *state.History
	prefs     *state.Preferences
	temps     *state.TempDirs
}

// openApp builds the app from the loaded configuration. The built-in prompt
// sources are installed into the data directory when the configuration does
// not point elsewhere.
func openApp(ctx context.Context, logger observability.Logger) (*app, error) {
	cfg, err := currentConfig()
	if err != nil {
		return nil, apperrors.NewConfigInvalidError(err.Error())
	}
	return newApp(ctx, cfg, config.DefaultBuiltinDir(), logger)
}

func newApp(ctx context.Context, cfg *config.Config, builtinDir string, logger observability.Logger) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	backend, err := store.OpenBackend(ctx, cfg.Store)
	if err != nil {
		return nil, apperrors.WrapStorage(ctx, err, "failed to open store")
	}

	defaultsDir := cfg.Prompts.DefaultsDir
	baseSource := cfg.Prompts.BaseSource
	if strings.TrimSpace(defaultsDir) == "" || strings.TrimSpace(baseSource) == "" {
		installed, err := prompt.InstallBuiltins(builtinDir)
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("install built-in prompts: %w", err)
		}
		if strings.TrimSpace(defaultsDir) == "" {
			defaultsDir = installed.DefaultsDir
		}
		if strings.TrimSpace(baseSource) == "" {
			baseSource = installed.BaseDir
		}
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		pins:    state.NewPins(backend),
		history: state.NewHistory(backend, cfg.State.HistoryLimit),
		prefs:   state.NewPreferences(backend),
		temps:   state.NewTempDirs(backend),
	}

	opts := prompt.Options{
		Directories: cfg.Prompts.Directories,
		DefaultsDir: defaultsDir,
		BaseSource:  baseSource,
		Temp:        a.temps,
		Logger:      observability.With(logger, zap.String("component", "prompts")),
	}
	if cfg.Prompts.Cache {
		opts.Cache = prompt.NewKVTreeCache(backend)
	}
	a.loader = prompt.NewLoader(opts)

	a.formatter = placeholder.New(
		placeholder.WithMaxDepth(cfg.Prompts.RecursionDepth),
		placeholder.WithLogger(observability.With(logger, zap.String("component", "format"))),
	)
	a.builder = prompt.NewBuilder(a.loader, a.formatter)
	return a, nil
}

// Close releases the store.
func (a *app) Close() error {
	if a == nil || a.backend == nil {
		return nil
	}
	return a.backend.Close()
}

// load makes the prompt tree current and records the load metrics.
func (a *app) load(ctx context.Context) error {
	start := time.Now()
	origin, err := a.loader.Load(ctx)
	if err != nil {
		metrics.RecordPromptLoadError("load")
		return apperrors.WrapPromptLoad(ctx, err, "failed to load prompts")
	}
	count := len(a.loader.FilteredPrompts(nil))
	metrics.RecordPromptLoad(string(origin), count, time.Since(start))
	a.logger.Debug("Prompts ready",
		zap.String("origin", string(origin)),
		zap.Int("prompts", count),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// reload reparses every source.
func (a *app) reload(ctx context.Context) error {
	start := time.Now()
	if err := a.loader.Reload(ctx); err != nil {
		metrics.RecordPromptLoadError("reload")
		return apperrors.WrapPromptLoad(ctx, err, "failed to reload prompts")
	}
	metrics.RecordPromptLoad(string(prompt.OriginFresh), len(a.loader.FilteredPrompts(nil)), time.Since(start))
	return nil
}

// find returns the loaded prompt with the given identifier.
func (a *app) find(id string) (*prompt.Node, error) {
	node, ok := a.loader.FindByIdentifier(strings.TrimSpace(id))
	if !ok {
		return nil, apperrors.NewPromptNotFoundError(id)
	}
	return node, nil
}

// rootDir returns the base for relative file placeholders.
func (a *app) rootDir(override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return a.cfg.Prompts.RootDir
}
