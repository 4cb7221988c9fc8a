// Package placeholder implements the {{...}} templating used by prompt content:
// standard keys, fallback chains, property paths, file and directory
// inclusion, and option directives deferred to the caller.
package placeholder

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/promptlens/promptlens/internal/lookup"
	"github.com/promptlens/promptlens/internal/observability"
)

const (
	// DefaultMaxDepth bounds how many times substituted output is re-scanned.
	DefaultMaxDepth = 3

	// NowLayout formats the auto-populated now value.
	NowLayout = "2006-01-02 15:04:05"
)

// FormatOptions controls a single Format call.
type FormatOptions struct {
	// ResolveFile enables file: directives. When false they pass through.
	ResolveFile bool
	// RecursionLevel is the starting depth; passes stop at the formatter's
	// maximum depth.
	RecursionLevel int
}

// Formatter resolves placeholders in template text.
type Formatter struct {
	clock    func() time.Time
	maxDepth int
	logger   observability.Logger
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithClock overrides the clock used for the now value.
func WithClock(clock func() time.Time) Option {
	return func(f *Formatter) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// WithMaxDepth overrides the recursion budget.
func WithMaxDepth(depth int) Option {
	return func(f *Formatter) {
		if depth >= 0 {
			f.maxDepth = depth
		}
	}
}

// WithLogger attaches a logger for file inclusion diagnostics.
func WithLogger(logger observability.Logger) Option {
	return func(f *Formatter) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New returns a Formatter with the default recursion budget.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		clock:    time.Now,
		maxDepth: DefaultMaxDepth,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format resolves every placeholder in text. Unresolvable placeholders are
// kept verbatim; filesystem problems become inline markers.
func (f *Formatter) Format(text string, r Replacements, root string, opts FormatOptions) string {
	out, _ := f.FormatContext(context.Background(), text, r, root, opts)
	return out
}

// FormatContext is Format with a context checked before each file: directive
// is read. It only fails when ctx is done.
func (f *Formatter) FormatContext(ctx context.Context, text string, r Replacements, root string, opts FormatOptions) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(r.Now) == "" {
		r.Now = f.clock().Format(NowLayout)
	}

	p := &pass{
		ctx:         ctx,
		formatter:   f,
		values:      r.Values(),
		standard:    r.Standard(),
		root:        root,
		resolveFile: opts.ResolveFile,
	}

	level := opts.RecursionLevel
	for {
		out, err := p.run(text)
		if err != nil {
			return "", err
		}
		if p.fileResolved || level >= f.maxDepth || out == text || !HasPlaceholder(out) {
			return out, nil
		}
		text = out
		level++
	}
}

type pass struct {
	ctx          context.Context
	formatter    *Formatter
	values       map[string]any
	standard     map[string]string
	root         string
	resolveFile  bool
	fileResolved bool
}

func (p *pass) run(text string) (string, error) {
	p.fileResolved = false

	var b strings.Builder
	b.Grow(len(text))
	for _, tok := range Scan(text) {
		if !tok.Placeholder {
			b.WriteString(tok.Literal)
			continue
		}
		value, err := p.resolve(tok)
		if err != nil {
			return "", err
		}
		b.WriteString(value)
	}
	return b.String(), nil
}

func (p *pass) resolve(tok Token) (string, error) {
	switch tok.Directive {
	case DirectiveOption:
		return tok.Raw, nil
	case DirectiveFile:
		if !p.resolveFile {
			return tok.Raw, nil
		}
		if err := p.ctx.Err(); err != nil {
			return "", err
		}
		p.fileResolved = true
		return p.formatter.include(p.ctx, tok.Body, p.root)
	}

	if value, ok := p.find(tok.Body); ok {
		return value, nil
	}
	if strings.Contains(tok.Body, "|") {
		for _, candidate := range strings.Split(tok.Body, "|") {
			if value, ok := p.find(strings.TrimSpace(candidate)); ok {
				return value, nil
			}
		}
	}
	return tok.Raw, nil
}

// find resolves one key. A materialized standard value wins over a property
// of the same name; blank values count as absent.
func (p *pass) find(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if value, ok := p.standard[key]; ok {
		return value, true
	}
	value, found := lookup.Property(p.values, key)
	if !found {
		return "", false
	}
	return Stringify(value)
}

// ResolvePlaceholders returns the standard keys a render of text would read:
// for every placeholder, the standard candidates up to and including the
// first one that resolves.
func ResolvePlaceholders(text string, r Replacements) map[string]struct{} {
	used := make(map[string]struct{})
	p := &pass{values: r.Values(), standard: r.Standard()}
	for _, tok := range Scan(text) {
		if !tok.Placeholder || tok.Directive != "" {
			continue
		}
		for _, candidate := range strings.Split(tok.Body, "|") {
			candidate = strings.TrimSpace(candidate)
			if IsStandardKey(candidate) {
				used[candidate] = struct{}{}
			}
			if _, ok := p.find(candidate); ok {
				break
			}
		}
	}
	return used
}
