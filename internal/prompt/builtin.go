package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

//go:embed builtin
var builtinFS embed.FS

// Builtins are the installed locations of the embedded prompt sources.
type Builtins struct {
	DefaultsDir string
	BaseDir     string
}

// InstallBuiltins writes the embedded defaults and base prompts below dir.
// Files whose content is unchanged are left alone so their modification
// times, and with them the source signature, stay stable.
func InstallBuiltins(dir string) (Builtins, error) {
	err := fs.WalkDir(builtinFS, "builtin", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := filepath.FromSlash(path.Clean(name[len("builtin"):]))
		target := filepath.Join(dir, rel)
		if d.IsDir() {
			// #nosec G301 -- data directories use 0755 for multi-user access compatibility
			return os.MkdirAll(target, 0755)
		}

		data, err := builtinFS.ReadFile(name)
		if err != nil {
			return err
		}
		existing, err := os.ReadFile(target) // #nosec G304 -- target is below the data directory
		if err == nil && bytes.Equal(existing, data) {
			return nil
		}
		return os.WriteFile(target, data, 0o644) // #nosec G306 -- prompt files are not secret
	})
	if err != nil {
		return Builtins{}, fmt.Errorf("install builtin prompts: %w", err)
	}
	return Builtins{
		DefaultsDir: filepath.Join(dir, "defaults"),
		BaseDir:     filepath.Join(dir, "base"),
	}, nil
}
