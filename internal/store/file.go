package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const fileSuffix = ".json.zst"

// File keeps one zstd-compressed JSON file per user under dir.
type File struct {
	dir string
	mu  sync.Mutex
}

func OpenFile(dir string) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty store dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &File{dir: dir}, nil
}

// fileName maps a key to a single path segment; separators and dot segments in
// user ids never leave dir.
func fileName(key string) string {
	return url.PathEscape(key)
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, fileName(key)+fileSuffix)
}

func (f *File) LoadAll(_ context.Context, userID string) ([]SavedBoard, error) {
	key, err := Key(userID)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	fh, err := os.Open(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return []SavedBoard{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	dec, err := zstd.NewReader(fh)
	if err != nil {
		return nil, &ValidationError{Key: key, Err: err}
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, &ValidationError{Key: key, Err: err}
	}
	return unmarshal(key, raw)
}

func (f *File) SaveAll(_ context.Context, userID string, boards []SavedBoard) error {
	key, err := Key(userID)
	if err != nil {
		return err
	}
	raw, err := marshal(boards)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	final := f.path(key)
	tmp, err := os.CreateTemp(f.dir, fileName(key)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := enc.Write(raw); err != nil {
		_ = enc.Close()
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := enc.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, final)
}

func (f *File) Close() error { return nil }
