package jsonio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile encodes v as indented JSON and saves it as a file at name.
// The content is written to a temp file in the same directory first and then renamed over name, so
// readers observe either the previous or the new content, never a partial write.
func WriteFile(name string, v interface{}, perm os.FileMode) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(append(b, '\n')); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	// Explicit close to ensure that all bytes have been flushed.
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file stream when serializing '%v': %v", name, err)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		return err
	}

	return os.Rename(tmp, name)
}

// ReadFile decodes the JSON file at name into v.
func ReadFile(name string, v interface{}) error {
	b, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
