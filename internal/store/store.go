// Package store persists each user's saved-board collection as one JSON
// value under the key catan_maps_<userID>. Collections are read and written
// whole; concurrent writers follow last-write-wins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hexboard.app/internal/board"
	"hexboard.app/internal/schemas"
)

const keyPrefix = "catan_maps_"

var ErrEmptyUserID = errors.New("empty user id")

// SavedBoard is a named, timestamped board owned by one user.
type SavedBoard struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Board     board.Board `json:"tiles"`
	CreatedAt time.Time   `json:"createdAt"`
}

type Store interface {
	LoadAll(ctx context.Context, userID string) ([]SavedBoard, error)
	SaveAll(ctx context.Context, userID string, boards []SavedBoard) error
	Close() error
}

// ValidationError means a stored collection exists but cannot be parsed.
// Callers treat it as an empty collection.
type ValidationError struct {
	Key string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("stored collection %s is malformed: %v", e.Key, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Key derives the storage key for a user.
func Key(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrEmptyUserID
	}
	return keyPrefix + userID, nil
}

func marshal(boards []SavedBoard) ([]byte, error) {
	if boards == nil {
		boards = []SavedBoard{}
	}
	for i, sb := range boards {
		if strings.TrimSpace(sb.ID) == "" {
			return nil, fmt.Errorf("saved board %d: empty id", i)
		}
		if err := sb.Board.Validate(); err != nil {
			return nil, fmt.Errorf("saved board %s: %w", sb.ID, err)
		}
	}
	return json.Marshal(boards)
}

func unmarshal(key string, raw []byte) ([]SavedBoard, error) {
	s, err := schemas.SavedBoards()
	if err != nil {
		return nil, err
	}
	if err := schemas.ValidateJSON(s, raw); err != nil {
		return nil, &ValidationError{Key: key, Err: err}
	}
	var out []SavedBoard
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ValidationError{Key: key, Err: err}
	}
	for _, sb := range out {
		if err := sb.Board.Validate(); err != nil {
			return nil, &ValidationError{Key: key, Err: fmt.Errorf("saved board %s: %w", sb.ID, err)}
		}
	}
	return out, nil
}
