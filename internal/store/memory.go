package store

import (
	"context"
	"sync"
)

// Memory keeps serialized collections in a map. Values go through the same
// JSON encoding as the durable backends so behavior matches.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

func (m *Memory) LoadAll(_ context.Context, userID string) ([]SavedBoard, error) {
	key, err := Key(userID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return []SavedBoard{}, nil
	}
	return unmarshal(key, raw)
}

func (m *Memory) SaveAll(_ context.Context, userID string, boards []SavedBoard) error {
	key, err := Key(userID)
	if err != nil {
		return err
	}
	raw, err := marshal(boards)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

// PutRaw stores a raw value under key, bypassing validation.
func (m *Memory) PutRaw(key string, raw []byte) {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), raw...)
	m.mu.Unlock()
}

func (m *Memory) Close() error { return nil }
