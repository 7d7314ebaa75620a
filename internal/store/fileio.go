package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// fileMode is used for every file the client writes.
const fileMode fs.FileMode = 0o600

// loadFile returns the contents of path, or nil when it does not exist.
func loadFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return b, err
}

// loadJSON decodes path into out. out is left untouched when path does not
// exist.
func loadJSON(path string, out any) error {
	b, err := loadFile(path)
	if err != nil || b == nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func storeJSON(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return storeFile(path, b)
}

// storeFile replaces path with b. The data is synced to a sibling temp file
// first, so readers see either the old or the new contents.
func storeFile(path string, b []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = f.Chmod(fileMode); err != nil {
		return err
	}
	if _, err = f.Write(b); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
