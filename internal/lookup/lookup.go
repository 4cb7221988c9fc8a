// Package lookup resolves dotted property paths on loosely typed values and
// confines relative filesystem paths to a root directory.
package lookup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
)

// ErrRootRequired is returned when a relative path is resolved without a root.
var ErrRootRequired = errors.New("root directory is required for relative paths")

// TraversalError reports a relative path that resolved outside its root.
type TraversalError struct {
	Path     string
	Root     string
	Resolved string
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("path %q resolves outside root %q", e.Path, e.Root)
}

// Property walks obj following the dot-separated segments of path. Numeric
// segments index into slices. It reports false when any segment is missing,
// nil, out of range or not a container; it never panics.
func Property(obj any, path string) (any, bool) {
	if obj == nil {
		return nil, false
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}

	current := obj
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			return nil, false
		}
		next, ok := step(current, segment)
		if !ok || next == nil {
			return nil, false
		}
		current = next
	}
	return current, true
}

func step(current any, segment string) (any, bool) {
	switch v := current.(type) {
	case map[string]any:
		value, ok := v[segment]
		return value, ok
	case map[string]string:
		value, ok := v[segment]
		return value, ok
	case []any:
		return index(len(v), segment, func(i int) any { return v[i] })
	case []string:
		return index(len(v), segment, func(i int) any { return v[i] })
	}

	// Less common shapes (typed maps, typed slices, pointers) go through reflect.
	rv := reflect.ValueOf(current)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		value := rv.MapIndex(reflect.ValueOf(segment).Convert(rv.Type().Key()))
		if !value.IsValid() {
			return nil, false
		}
		return value.Interface(), true
	case reflect.Slice, reflect.Array:
		return index(rv.Len(), segment, func(i int) any { return rv.Index(i).Interface() })
	default:
		return nil, false
	}
}

func index(length int, segment string, at func(int) any) (any, bool) {
	i, err := strconv.Atoi(segment)
	if err != nil || i < 0 || i >= length {
		return nil, false
	}
	return at(i), true
}

// SafeResolveAbsolute returns given unchanged when it is absolute. A relative
// path is joined to root and must stay inside it; the check is a prefix check
// on the cleaned absolute result.
func SafeResolveAbsolute(given, root string) (string, error) {
	if filepath.IsAbs(given) {
		return given, nil
	}
	if strings.TrimSpace(root) == "" {
		return "", ErrRootRequired
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root %q: %w", root, err)
	}
	resolved := filepath.Clean(filepath.Join(absRoot, given))

	if resolved != absRoot && !strings.HasPrefix(resolved, absRoot+string(filepath.Separator)) {
		return "", &TraversalError{Path: given, Root: root, Resolved: resolved}
	}
	return resolved, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return filepath.Join(home, path[2:])
	}
	return path
}
