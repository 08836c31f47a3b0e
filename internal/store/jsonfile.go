package store

import (
	"encoding/json"
	"fmt"
	"os"
)

// readArray loads a JSON array file into out. A missing file is treated as
// an empty collection and created on the spot so later writes never race
// against first use.
func readArray(path string, out any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := writeFileAtomic(path, []byte("[]")); err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		data = []byte("[]")
	} else if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}

// writeArray marshals v and replaces the file contents atomically.
func writeArray(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes via a temporary file, syncs it and renames it over
// the target, so readers never observe a half-written collection.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	f, err := os.OpenFile(tmp, os.O_RDWR, 0644)
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to open temp file for sync: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	f.Close()

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
