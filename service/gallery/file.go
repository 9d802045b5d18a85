package gallery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileAdapter stores the collection as a JSON file on local disk.
type FileAdapter struct {
	path string
}

func NewFileAdapter(path string) *FileAdapter {
	return &FileAdapter{path: path}
}

func (f *FileAdapter) Path() string {
	return f.path
}

func (f *FileAdapter) Load(ctx context.Context) (Collection, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Collection{}, nil
		}
		return nil, fmt.Errorf("reading gallery file %s: %w", f.path, err)
	}

	return decodeOrEmpty(ctx, f.path, data), nil
}

// Store writes to a temporary file next to the target and renames it into place, so readers see
// either the old document or the new one.
func (f *FileAdapter) Store(ctx context.Context, items Collection) error {
	data, err := Encode(items)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating gallery directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".gallery-*.json")
	if err != nil {
		return fmt.Errorf("creating temp gallery file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing gallery file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing gallery file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("writing gallery file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replacing gallery file %s: %w", f.path, err)
	}

	return nil
}
