package prompt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SourceKind classifies a prompt source.
type SourceKind string

// Source kinds in precedence order.
const (
	KindDirectory SourceKind = "directory"
	KindTemporary SourceKind = "temporary"
	KindDefaults  SourceKind = "defaults"
	KindBase      SourceKind = "base"
)

// Source is one file or directory the loader reads.
type Source struct {
	Path string     `json:"path"`
	Kind SourceKind `json:"kind"`
}

// TempSource is a user-added prompt directory that expires after TTL.
// A zero TTL never expires.
type TempSource struct {
	Path    string        `json:"path"`
	AddedAt time.Time     `json:"addedAt"`
	TTL     time.Duration `json:"ttl"`
}

// ExpiresAt returns the expiry time, or the zero time when TTL is zero.
func (t TempSource) ExpiresAt() time.Time {
	if t.TTL <= 0 {
		return time.Time{}
	}
	return t.AddedAt.Add(t.TTL)
}

// Expired reports whether the source has expired at now.
func (t TempSource) Expired(now time.Time) bool {
	if t.TTL <= 0 {
		return false
	}
	return !now.Before(t.ExpiresAt())
}

// TempSourceProvider returns the temporary sources active at now.
type TempSourceProvider interface {
	Active(ctx context.Context, now time.Time) ([]TempSource, error)
}

// ResolveSources orders sources: configured directories, then temporary
// directories, then defaults when no directory is configured, then the base
// source. Duplicate paths keep their first position.
func ResolveSources(directories []string, temps []TempSource, defaultsDir, baseSource string) []Source {
	var sources []Source
	seen := make(map[string]bool)
	add := func(path string, kind SourceKind) {
		path = strings.TrimSpace(path)
		if path == "" {
			return
		}
		key := filepath.Clean(path)
		if seen[key] {
			return
		}
		seen[key] = true
		sources = append(sources, Source{Path: key, Kind: kind})
	}

	configured := 0
	for _, dir := range directories {
		if strings.TrimSpace(dir) != "" {
			configured++
		}
		add(dir, KindDirectory)
	}
	for _, temp := range temps {
		add(temp.Path, KindTemporary)
	}
	if configured == 0 {
		add(defaultsDir, KindDefaults)
	}
	add(baseSource, KindBase)
	return sources
}

// Signature hashes the ordered source paths together with the path and
// modification time of every entry reachable from them. Directories also
// contribute their listing, so adding, removing or touching any file changes
// the result.
func Signature(sources []Source) (string, error) {
	h := sha256.New()
	for _, src := range sources {
		fmt.Fprintf(h, "source\x00%s\x00%s\n", src.Kind, src.Path)
	}
	for _, src := range sources {
		if err := hashEntry(h, src.Path); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashEntry(h io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(h, "missing\x00%s\n", path)
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	fmt.Fprintf(h, "entry\x00%s\x00%d\n", path, info.ModTime().UnixNano())
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		fmt.Fprintf(h, "unreadable\x00%s\n", path)
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	fmt.Fprintf(h, "listing\x00%s\x00%s\n", path, strings.Join(names, "\x00"))

	for _, name := range names {
		if skipEntry(name) {
			continue
		}
		if err := hashEntry(h, filepath.Join(path, name)); err != nil {
			return err
		}
	}
	return nil
}

// skipEntry reports whether traversal ignores a directory entry.
func skipEntry(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "#")
}

// temporaryRoot returns the longest temporary source containing path.
func temporaryRoot(path string, temps []Source) string {
	best := ""
	for _, src := range temps {
		if src.Kind != KindTemporary {
			continue
		}
		root := filepath.Clean(src.Path)
		if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
			continue
		}
		if len(root) > len(best) {
			best = root
		}
	}
	return best
}
