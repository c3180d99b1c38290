package filebackend

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/ankitmishra23v/micro-fit/credentials"
)

var _ credentials.Backend = (*FileBackend)(nil)

// FileBackend persists each storage key as its own file under a data
// folder. Writes go through a temp file and rename so a reader never
// observes a torn value for a slot.
type FileBackend struct {
	folder string
}

// New creates the data folder if needed and returns a backend rooted there
func New(folder string) (*FileBackend, error) {
	if folder == "" {
		return nil, errors.New("[filebackend.New] folder is required")
	}
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, errors.Wrap(err, "[filebackend.New] create data folder")
	}
	return &FileBackend{folder: folder}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.folder, key)
}

func (b *FileBackend) GetItem(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(b.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "[FileBackend.GetItem] read")
	}
	return string(data), true, nil
}

func (b *FileBackend) SetItem(_ context.Context, key, value string) error {
	tmp := b.path(key) + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o600); err != nil {
		return errors.Wrap(err, "[FileBackend.SetItem] write")
	}
	if err := os.Rename(tmp, b.path(key)); err != nil {
		return errors.Wrap(err, "[FileBackend.SetItem] rename")
	}
	return nil
}

func (b *FileBackend) RemoveItems(_ context.Context, keys ...string) error {
	for _, key := range keys {
		if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "[FileBackend.RemoveItems] remove")
		}
	}
	return nil
}
