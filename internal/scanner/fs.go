package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/devassist/companion/internal/checksum"
	"github.com/devassist/companion/internal/models"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root    string // absolute path to the workspace directory
	ignore  map[string]struct{}
	maxSize int64 // files larger than this are skipped; 0 disables the limit
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist. Entries in ignore are matched against
// bare file and directory names; matching directories are pruned from the
// walk entirely.
func NewFS(root string, ignore []string, maxSize int64) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("scanner: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("scanner: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scanner: root is not a directory: %s", abs)
	}
	ig := make(map[string]struct{}, len(ignore))
	for _, name := range ignore {
		ig[name] = struct{}{}
	}
	return &FS{root: abs, ignore: ig, maxSize: maxSize}, nil
}

// Root returns the absolute workspace root.
func (f *FS) Root() string {
	return f.root
}

func (f *FS) ignored(name string) bool {
	_, ok := f.ignore[name]
	return ok
}

// safePath resolves a relative path against the workspace root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("scanner: empty path")
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("scanner: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("scanner: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("scanner: path escapes workspace root: %s", rel)
	}
	return abs, nil
}

// List walks the workspace and returns metadata for every eligible file.
// Paths are relative to the root with forward slashes.
func (f *FS) List() ([]models.FileMetadata, error) {
	var out []models.FileMetadata
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != f.root && f.ignored(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if f.ignored(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if f.maxSize > 0 && info.Size() > f.maxSize {
			slog.Debug("scanner: skipping oversized file",
				slog.String("path", p), slog.Int64("size", info.Size()))
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.root, p)
		out = append(out, models.FileMetadata{
			Path:      filepath.ToSlash(rel),
			Checksum:  checksum.Sum(data),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanner: list: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of a workspace file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("scanner: read %s: %w", path, err)
	}
	return data, nil
}
