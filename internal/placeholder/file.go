package placeholder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/promptlens/promptlens/internal/lookup"
)

// binaryExtensions are skipped in directory dumps.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true, ".tiff": true, ".heic": true, ".psd": true,
	".mp3": true, ".wav": true, ".flac": true, ".aac": true, ".ogg": true, ".m4a": true,
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
	".zip": true, ".tar": true, ".gz": true, ".tgz": true, ".bz2": true, ".xz": true, ".7z": true, ".rar": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true, ".o": true, ".a": true, ".class": true, ".jar": true,
	".ttf": true, ".otf": true, ".woff": true, ".woff2": true,
	".sqlite": true, ".db": true, ".pyc": true, ".wasm": true,
}

// IsBinaryPath reports whether the file extension marks binary or media
// content.
func IsBinaryPath(path string) bool {
	return binaryExtensions[strings.ToLower(filepath.Ext(path))]
}

// include renders a file: directive. The header echoes the path as written.
func (f *Formatter) include(ctx context.Context, given, root string) (string, error) {
	resolved, err := lookup.SafeResolveAbsolute(given, root)
	if err != nil {
		f.logger.Warn("file placeholder rejected", zap.String("path", given), zap.Error(err))
		return fmt.Sprintf("[Error: %s]", err), nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return accessMarker(given, err), nil
	}

	if info.IsDir() {
		dump, err := f.dumpDir(ctx, resolved, "")
		if err != nil {
			return "", err
		}
		header := "Directory: " + strings.TrimRight(given, `/\`) + "/"
		if dump == "" {
			return header, nil
		}
		return header + "\n" + dump, nil
	}

	data, err := os.ReadFile(resolved) // #nosec G304 -- path confined by SafeResolveAbsolute
	if err != nil {
		return accessMarker(given, err), nil
	}
	return "File: " + given + "\n" + string(data), nil
}

// dumpDir renders every entry below dir, sorted by name. A failure on one
// entry produces a marker and the dump continues.
func (f *Formatter) dumpDir(ctx context.Context, dir, rel string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		f.logger.Debug("directory read failed", zap.String("dir", dir), zap.Error(err))
		return fmt.Sprintf("[Read failed: %s: %v]", displayRel(rel), err), nil
	}

	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		entryRel := filepath.ToSlash(filepath.Join(rel, name))

		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "#") {
			parts = append(parts, fmt.Sprintf("[Ignored: %s]", entryRel))
			continue
		}

		full := filepath.Join(dir, name)
		if entry.IsDir() {
			sub, err := f.dumpDir(ctx, full, entryRel)
			if err != nil {
				return "", err
			}
			block := "Directory: " + entryRel + "/"
			if sub != "" {
				block += "\n" + sub
			}
			parts = append(parts, block)
			continue
		}

		if IsBinaryPath(name) {
			parts = append(parts, fmt.Sprintf("[Binary file: %s]", entryRel))
			continue
		}

		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, err := os.ReadFile(full) // #nosec G304 -- below a confined directory
		if err != nil {
			f.logger.Debug("file read failed", zap.String("file", full), zap.Error(err))
			parts = append(parts, fmt.Sprintf("[Read failed: %s: %v]", entryRel, err))
			continue
		}
		parts = append(parts, "File: "+entryRel+"\n"+string(data))
	}
	return strings.Join(parts, "\n\n"), nil
}

func accessMarker(path string, err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Sprintf("[Path not found: %s]", path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Sprintf("[Permission denied: %s]", path)
	default:
		return fmt.Sprintf("[Error accessing path: %s]", path)
	}
}

func displayRel(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}
