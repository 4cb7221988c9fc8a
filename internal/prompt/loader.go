package prompt

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/promptlens/promptlens/internal/observability"
)

// Origin tells where a loaded tree came from.
type Origin string

// Load origins.
const (
	OriginMemory Origin = "memory"
	OriginCache  Origin = "cache"
	OriginFresh  Origin = "fresh"
)

// Options configures a Loader.
type Options struct {
	// Directories are the configured prompt sources, in slot order.
	Directories []string
	// DefaultsDir is loaded only when Directories is empty.
	DefaultsDir string
	// BaseSource is always loaded last.
	BaseSource string

	Temp   TempSourceProvider
	Cache  TreeCache
	Logger observability.Logger
	Clock  func() time.Time
}

// Loader reads prompt sources and holds the resolved tree. Queries are safe
// for concurrent use; Load and Reload serialize on the same lock.
type Loader struct {
	opts   Options
	logger observability.Logger

	mu        sync.RWMutex
	prompts   []*Node
	sources   []Source
	signature string
	loaded    bool
}

// NewLoader returns a Loader; nothing is read until Load.
func NewLoader(opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Loader{opts: opts, logger: logger}
}

// Load makes the tree current. An unchanged signature keeps the in-memory
// tree; otherwise a cached tree with a matching signature is restored, and
// only then are the sources parsed.
func (l *Loader) Load(ctx context.Context) (Origin, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx, false)
}

// Reload discards the signature and parses every source again.
func (l *Loader) Reload(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.signature = ""
	l.loaded = false
	_, err := l.load(ctx, true)
	return err
}

func (l *Loader) load(ctx context.Context, force bool) (Origin, error) {
	var temps []TempSource
	if l.opts.Temp != nil {
		active, err := l.opts.Temp.Active(ctx, l.opts.Clock())
		if err != nil {
			l.logger.Warn("temporary sources unavailable", zap.Error(err))
		} else {
			temps = active
		}
	}

	sources := ResolveSources(l.opts.Directories, temps, l.opts.DefaultsDir, l.opts.BaseSource)
	signature, err := Signature(sources)
	if err != nil {
		return "", err
	}

	if !force && l.loaded && signature == l.signature {
		return OriginMemory, nil
	}

	if !force && l.opts.Cache != nil {
		cached, ok, err := l.opts.Cache.LoadTree(ctx, signature)
		if err != nil {
			l.logger.Warn("prompt tree cache unreadable", zap.Error(err))
		}
		if ok {
			l.set(cached, sources, signature)
			l.logger.Debug("prompt tree restored from cache", zap.Int("prompts", len(cached)))
			return OriginCache, nil
		}
	}

	nodes, err := l.parseSources(ctx, sources)
	if err != nil {
		return "", err
	}
	l.set(nodes, sources, signature)

	if l.opts.Cache != nil {
		if err := l.opts.Cache.SaveTree(ctx, signature, nodes); err != nil {
			l.logger.Warn("prompt tree cache not saved", zap.Error(err))
		}
	}
	l.logger.Debug("prompt tree loaded",
		zap.Int("sources", len(sources)),
		zap.Int("prompts", len(nodes)))
	return OriginFresh, nil
}

func (l *Loader) set(nodes []*Node, sources []Source, signature string) {
	l.prompts = nodes
	l.sources = sources
	l.signature = signature
	l.loaded = true
}

// parseSources reads every source in order. Unreadable or malformed files are
// logged and skipped.
func (l *Loader) parseSources(ctx context.Context, sources []Source) ([]*Node, error) {
	overlay := make(map[string]any)
	var raws []*rawPrompt

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, path := range l.collectFiles(src.Path) {
			file, err := ParseFile(path)
			if err != nil {
				l.logger.Warn("skipping prompt file", zap.String("file", path), zap.Error(err))
				continue
			}
			for k, v := range file.RootProperty {
				overlay[k] = v
			}
			tempRoot := temporaryRoot(path, sources)
			for _, obj := range file.Prompts {
				raw := newRawPrompt(obj, path)
				if raw == nil {
					l.logger.Warn("skipping prompt without title", zap.String("file", path))
					continue
				}
				raw.tag(tempRoot)
				raws = append(raws, raw)
			}
		}
	}
	return resolveTree(raws, overlay), nil
}

// collectFiles lists definition files below root in sorted order. A source
// naming a single file is returned as is.
func (l *Loader) collectFiles(root string) []string {
	info, err := os.Stat(root)
	if err != nil {
		l.logger.Debug("prompt source unavailable", zap.String("source", root), zap.Error(err))
		return nil
	}
	if !info.IsDir() {
		return []string{root}
	}

	var files []string
	var walk func(dir string)
	walk = func(dir string) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			l.logger.Warn("skipping prompt directory", zap.String("dir", dir), zap.Error(err))
			return
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, entry := range entries {
			if skipEntry(entry.Name()) {
				continue
			}
			full := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				walk(full)
				continue
			}
			if IsDefinitionFile(full) {
				files = append(files, full)
			}
		}
	}
	walk(root)
	return files
}

// Prompts returns the loaded top-level prompts.
func (l *Loader) Prompts() []*Node {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*Node(nil), l.prompts...)
}

// RootPrompts returns top-level prompts that do not also appear as a
// descendant of another prompt.
func (l *Loader) RootPrompts() []*Node {
	l.mu.RLock()
	defer l.mu.RUnlock()

	nested := make(map[string]bool)
	for _, node := range l.prompts {
		for _, child := range node.Subprompts {
			child.Walk(func(n *Node, _ int) bool {
				nested[n.Identifier] = true
				return true
			})
		}
	}

	roots := make([]*Node, 0, len(l.prompts))
	for _, node := range l.prompts {
		if !nested[node.Identifier] {
			roots = append(roots, node)
		}
	}
	return roots
}

// FilteredPrompts flattens the tree depth-first and keeps the nodes matching
// pred. A nil pred keeps every node.
func (l *Loader) FilteredPrompts(pred func(*Node) bool) []*Node {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*Node
	for _, root := range l.prompts {
		root.Walk(func(n *Node, _ int) bool {
			if pred == nil || pred(n) {
				out = append(out, n)
			}
			return true
		})
	}
	return out
}

// FindPrompt returns the first node, depth-first, matching pred.
func (l *Loader) FindPrompt(pred func(*Node) bool) (*Node, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var found *Node
	for _, root := range l.prompts {
		root.Walk(func(n *Node, _ int) bool {
			if pred(n) {
				found = n
				return false
			}
			return true
		})
		if found != nil {
			return found, true
		}
	}
	return nil, false
}

// FindByIdentifier returns the first node with the identifier.
func (l *Loader) FindByIdentifier(id string) (*Node, bool) {
	return l.FindPrompt(func(n *Node) bool { return n.Identifier == id })
}

// Sources returns the sources used by the last load.
func (l *Loader) Sources() []Source {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Source(nil), l.sources...)
}

// Loaded reports whether a tree has been loaded or restored.
func (l *Loader) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Signature returns the signature of the last load.
func (l *Loader) Signature() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.signature
}

// Annotate returns shallow copies of nodes with Pinned set from isPinned.
// The loaded tree is not modified.
func Annotate(nodes []*Node, isPinned func(id string) bool) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, node := range nodes {
		copied := *node
		copied.Pinned = isPinned != nil && isPinned(node.Identifier)
		out = append(out, &copied)
	}
	return out
}
