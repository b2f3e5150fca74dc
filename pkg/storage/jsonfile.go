package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONFile persists a single JSON document on disk. Writes go through a
// temp file and rename so readers never observe a partial document.
type JSONFile struct {
	path string
}

// NewJSONFile ensures the parent directory exists and returns a handle.
func NewJSONFile(path string) (*JSONFile, error) {
	if path == "" {
		return nil, fmt.Errorf("json file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &JSONFile{path: path}, nil
}

// Load reads the document into dest. A missing file reports os.ErrNotExist.
func (f *JSONFile) Load(dest interface{}) error {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", f.path, err)
	}
	return nil
}

// Save writes the document atomically.
func (f *JSONFile) Save(value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

// Path returns the backing file path.
func (f *JSONFile) Path() string {
	return f.path
}
