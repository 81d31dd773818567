package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hexboard.app/internal/board"
)

func sampleBoards(n int) []SavedBoard {
	out := make([]SavedBoard, 0, n)
	base := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		out = append(out, SavedBoard{
			ID:        fmt.Sprintf("map_%d", i),
			Name:      fmt.Sprintf("board %d", i),
			Board:     board.NewGenerator(uint64(i)).Generate(),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func assertSameBoards(t *testing.T, got, want []SavedBoard) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len mismatch: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Name != want[i].Name {
			t.Fatalf("board %d: got %s/%q want %s/%q", i, got[i].ID, got[i].Name, want[i].ID, want[i].Name)
		}
		if !got[i].CreatedAt.Equal(want[i].CreatedAt) {
			t.Fatalf("board %d: createdAt got %v want %v", i, got[i].CreatedAt, want[i].CreatedAt)
		}
		if !got[i].Board.Equal(want[i].Board) {
			t.Fatalf("board %d: tiles mismatch", i)
		}
	}
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	sq, err := OpenSQLite(filepath.Join(dir, "boards.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })
	fs, err := OpenFile(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	return map[string]Store{"memory": NewMemory(), "sqlite": sq, "file": fs}
}

func TestStore_SaveReloadThree(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		want := sampleBoards(3)
		if err := s.SaveAll(ctx, "u1", want); err != nil {
			t.Fatalf("%s SaveAll: %v", name, err)
		}
		got, err := s.LoadAll(ctx, "u1")
		if err != nil {
			t.Fatalf("%s LoadAll: %v", name, err)
		}
		assertSameBoards(t, got, want)
	}
}

func TestStore_MissingUserIsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		got, err := s.LoadAll(ctx, "nobody")
		if err != nil {
			t.Fatalf("%s LoadAll: %v", name, err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("%s: expected empty non-nil collection, got %v", name, got)
		}
	}
}

func TestStore_UsersAreIsolatedAndLastWriteWins(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		all := sampleBoards(3)
		if err := s.SaveAll(ctx, "a", all[:1]); err != nil {
			t.Fatalf("%s SaveAll a: %v", name, err)
		}
		if err := s.SaveAll(ctx, "b", all); err != nil {
			t.Fatalf("%s SaveAll b: %v", name, err)
		}
		if err := s.SaveAll(ctx, "a", all[1:2]); err != nil {
			t.Fatalf("%s SaveAll a again: %v", name, err)
		}
		a, _ := s.LoadAll(ctx, "a")
		b, _ := s.LoadAll(ctx, "b")
		assertSameBoards(t, a, all[1:2])
		assertSameBoards(t, b, all)

		if err := s.SaveAll(ctx, "a", nil); err != nil {
			t.Fatalf("%s SaveAll empty: %v", name, err)
		}
		a, err := s.LoadAll(ctx, "a")
		if err != nil || len(a) != 0 {
			t.Fatalf("%s: expected empty after clearing, got %v %v", name, a, err)
		}
	}
}

func TestStore_UserIDsWithPathCharacters(t *testing.T) {
	ctx := context.Background()
	ids := []string{"alice/bob", "../escape", "..", `a\b`, "x/../../outside"}
	for name, s := range backends(t) {
		all := sampleBoards(len(ids))
		for i, id := range ids {
			if err := s.SaveAll(ctx, id, all[i:i+1]); err != nil {
				t.Fatalf("%s SaveAll(%q): %v", name, id, err)
			}
		}
		for i, id := range ids {
			got, err := s.LoadAll(ctx, id)
			if err != nil {
				t.Fatalf("%s LoadAll(%q): %v", name, id, err)
			}
			assertSameBoards(t, got, all[i:i+1])
		}
		for _, other := range []string{"alice", "bob", "escape", "outside"} {
			got, err := s.LoadAll(ctx, other)
			if err != nil || len(got) != 0 {
				t.Fatalf("%s: %q leaked into %q: %v %v", name, ids, other, got, err)
			}
		}
	}
}

func TestFile_StaysInsideDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "store")
	f, err := OpenFile(dir)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	outside := filepath.Join(root, "outside.json.zst")
	if err := os.WriteFile(outside, []byte("not zstd"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := f.LoadAll(context.Background(), "x/../../outside")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty collection, got %v %v", got, err)
	}
	if err := f.SaveAll(context.Background(), "x/../../outside", sampleBoards(1)); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if raw, _ := os.ReadFile(outside); string(raw) != "not zstd" {
		t.Fatalf("file outside store dir was overwritten")
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(ents) != 1 || ents[0].IsDir() {
		t.Fatalf("expected one file in store dir, got %d entries", len(ents))
	}
}

func TestStore_EmptyUserID(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		if _, err := s.LoadAll(ctx, "  "); !errors.Is(err, ErrEmptyUserID) {
			t.Fatalf("%s LoadAll: expected ErrEmptyUserID, got %v", name, err)
		}
		if err := s.SaveAll(ctx, "", nil); !errors.Is(err, ErrEmptyUserID) {
			t.Fatalf("%s SaveAll: expected ErrEmptyUserID, got %v", name, err)
		}
	}
}

func TestStore_SaveRejectsInvalidBoard(t *testing.T) {
	bad := sampleBoards(1)
	bad[0].Board = bad[0].Board[:3]
	if err := NewMemory().SaveAll(context.Background(), "u", bad); err == nil {
		t.Fatalf("expected invalid board rejected")
	}
}

func TestMemory_MalformedValue(t *testing.T) {
	m := NewMemory()
	m.PutRaw("catan_maps_u1", []byte(`{not json`))
	_, err := m.LoadAll(context.Background(), "u1")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Key != "catan_maps_u1" {
		t.Fatalf("key: %s", ve.Key)
	}
}

func TestSQLite_MalformedValue(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "b.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	ctx := context.Background()
	if err := s.PutRaw(ctx, "catan_maps_u1", `[{"id":"x"}]`); err != nil {
		t.Fatalf("PutRaw: %v", err)
	}
	_, err = s.LoadAll(ctx, "u1")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestFile_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	f, err := OpenFile(dir)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "catan_maps_u1.json.zst"), []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err = f.LoadAll(context.Background(), "u1")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestOpen_Backends(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"", "sqlite", "file", "memory"} {
		s, err := Open(name, dir)
		if err != nil {
			t.Fatalf("Open(%q): %v", name, err)
		}
		_ = s.Close()
	}
	if _, err := Open("redis", dir); err == nil {
		t.Fatalf("expected unknown backend rejected")
	}
}
