package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tatianab/survival-run/internal/models"
)

// FileStore keeps each slot as a JSON file in a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = ".saves"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(slot Slot) (string, error) {
	key, err := slot.Key()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileStore) Save(ctx context.Context, slot Slot, snap *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(slot)
	if err != nil {
		return err
	}
	data, err := models.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	// Written through a temp file and renamed into place.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write save: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, slot Slot) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(slot)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read save: %w", err)
	}
	return models.DecodeSnapshot(data)
}

func (s *FileStore) Delete(ctx context.Context, slot Slot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(slot)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete save: %w", err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]SlotInfo, error) {
	return listSlots(ctx, s.Load)
}

func (s *FileStore) Close() error { return nil }
