// Package library implements the saved-board flows: generate, save under a
// name, list, load, delete and share.
package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hexboard.app/internal/board"
	"hexboard.app/internal/notify"
	"hexboard.app/internal/share"
	"hexboard.app/internal/store"
)

var ErrNotFound = errors.New("saved board not found")

// ValidationError is returned for bad caller input (blank name, invalid
// board).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

type Codec interface {
	Encode(b board.Board) (string, error)
	Decode(token string) (board.Board, error)
}

type Config struct {
	Store    store.Store
	Codec    Codec
	Notifier notify.Notifier
	Logger   *zap.Logger

	// Seed, when set, returns a fixed generator seed instead of crypto/rand.
	Seed func() (uint64, error)
	Now  func() time.Time
}

type Service struct {
	store    store.Store
	codec    Codec
	notifier notify.Notifier
	log      *zap.Logger
	seed     func() (uint64, error)
	now      func() time.Time
}

func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("library: store is required")
	}
	if cfg.Codec == nil {
		return nil, fmt.Errorf("library: codec is required")
	}
	s := &Service{
		store:    cfg.Store,
		codec:    cfg.Codec,
		notifier: cfg.Notifier,
		log:      cfg.Logger,
		seed:     cfg.Seed,
		now:      cfg.Now,
	}
	if s.notifier == nil {
		s.notifier = notify.Discard{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.seed == nil {
		s.seed = board.NewSeed
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Generated is a fresh board with the seed that reproduces it.
type Generated struct {
	Seed  uint64
	Board board.Board
}

func (s *Service) Generate(ctx context.Context) (Generated, error) {
	seed, err := s.seed()
	if err != nil {
		return Generated{}, err
	}
	return s.GenerateSeeded(ctx, seed), nil
}

func (s *Service) GenerateSeeded(_ context.Context, seed uint64) Generated {
	return Generated{Seed: seed, Board: board.NewGenerator(seed).Generate()}
}

// List returns the user's saved boards. A malformed stored collection is
// reported as empty.
func (s *Service) List(ctx context.Context, userID string) ([]store.SavedBoard, error) {
	boards, err := s.store.LoadAll(ctx, userID)
	var ve *store.ValidationError
	if errors.As(err, &ve) {
		s.log.Warn("discarding malformed saved boards", zap.String("user_id", userID), zap.Error(err))
		return []store.SavedBoard{}, nil
	}
	if err != nil {
		return nil, err
	}
	return boards, nil
}

func (s *Service) Save(ctx context.Context, userID, name string, b board.Board) (store.SavedBoard, error) {
	if strings.TrimSpace(name) == "" {
		s.notify(ctx, userID, notify.LevelError, "Please enter a map name")
		return store.SavedBoard{}, &ValidationError{Msg: "please enter a map name"}
	}
	if err := b.Validate(); err != nil {
		return store.SavedBoard{}, &ValidationError{Msg: err.Error()}
	}
	existing, err := s.List(ctx, userID)
	if err != nil {
		return store.SavedBoard{}, err
	}
	sb := store.SavedBoard{
		ID:        "map_" + uuid.NewString(),
		Name:      name,
		Board:     b.Clone(),
		CreatedAt: s.now().UTC(),
	}
	updated := append(existing, sb)
	if err := s.store.SaveAll(ctx, userID, updated); err != nil {
		return store.SavedBoard{}, fmt.Errorf("save boards: %w", err)
	}
	s.log.Info("board saved", zap.String("user_id", userID), zap.String("id", sb.ID), zap.Int("total", len(updated)))
	s.notify(ctx, userID, notify.LevelSuccess, "Map saved successfully!")
	return sb, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (store.SavedBoard, error) {
	boards, err := s.List(ctx, userID)
	if err != nil {
		return store.SavedBoard{}, err
	}
	for _, sb := range boards {
		if sb.ID == id {
			return sb, nil
		}
	}
	return store.SavedBoard{}, ErrNotFound
}

// Load returns a saved board and tells the user it was loaded.
func (s *Service) Load(ctx context.Context, userID, id string) (store.SavedBoard, error) {
	sb, err := s.Get(ctx, userID, id)
	if err != nil {
		return sb, err
	}
	s.notify(ctx, userID, notify.LevelSuccess, "Loaded map: "+sb.Name)
	return sb, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	boards, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	kept := make([]store.SavedBoard, 0, len(boards))
	for _, sb := range boards {
		if sb.ID != id {
			kept = append(kept, sb)
		}
	}
	if len(kept) == len(boards) {
		return ErrNotFound
	}
	if err := s.store.SaveAll(ctx, userID, kept); err != nil {
		return fmt.Errorf("save boards: %w", err)
	}
	s.notify(ctx, userID, notify.LevelSuccess, "Map deleted")
	return nil
}

// Share returns the share URL of a saved board.
func (s *Service) Share(ctx context.Context, userID, id, origin string) (string, error) {
	sb, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	link, err := s.ShareBoard(sb.Board, origin)
	if err != nil {
		return "", err
	}
	s.notify(ctx, userID, notify.LevelSuccess, "Map link copied!")
	return link, nil
}

func (s *Service) ShareBoard(b board.Board, origin string) (string, error) {
	tok, err := s.ShareToken(b)
	if err != nil {
		return "", err
	}
	return share.URL(origin, tok), nil
}

func (s *Service) ShareToken(b board.Board) (string, error) {
	tok, err := s.codec.Encode(b)
	if err != nil {
		return "", &ValidationError{Msg: err.Error()}
	}
	return tok, nil
}

// OpenShared decodes a share token. Errors are *share.DecodeError.
func (s *Service) OpenShared(token string) (board.Board, error) {
	b, err := s.codec.Decode(token)
	if err != nil {
		s.log.Debug("invalid share token", zap.Int("len", len(token)), zap.Error(err))
		return nil, err
	}
	return b, nil
}

func (s *Service) notify(ctx context.Context, userID string, level notify.Level, msg string) {
	s.notifier.Notify(ctx, notify.Notification{UserID: userID, Level: level, Message: msg, At: s.now().UTC()})
}
