package store

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Open picks a backend by name: sqlite (default), file, or memory.
func Open(backend, dataDir string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "sqlite":
		return OpenSQLite(filepath.Join(dataDir, "boards.sqlite"))
	case "file":
		return OpenFile(filepath.Join(dataDir, "boards"))
	case "memory", "none":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", backend)
	}
}
