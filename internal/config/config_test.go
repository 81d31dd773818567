package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_RepoConfig(t *testing.T) {
	cfg, err := Load("../../configs/hexboard.yaml")
	if err != nil {
		t.Fatalf("load hexboard.yaml: %v", err)
	}
	if cfg.Store.Backend != "sqlite" || !cfg.Share.Compress || cfg.Addr != ":8080" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoad_EmptyPathIsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Defaults() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(p, []byte("store:\n  backend: FILE\norigin: https://boards.example.com/\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != "file" {
		t.Fatalf("backend not normalized: %q", cfg.Store.Backend)
	}
	if cfg.Origin != "https://boards.example.com" {
		t.Fatalf("origin not normalized: %q", cfg.Origin)
	}
	if cfg.Addr != ":8080" || !cfg.Share.Compress {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":    "addr: [",
		"bad backend": "store:\n  backend: redis\n",
		"bad origin":  "origin: not a url\n",
		"bad level":   "log:\n  level: loud\n",
	}
	for name, body := range cases {
		p := filepath.Join(t.TempDir(), "c.yaml")
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(p); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Fatalf("missing file: expected not-exist, got %v", err)
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("HEXBOARD_ADDR", ":9999")
	t.Setenv("HEXBOARD_STORE_BACKEND", "memory")
	t.Setenv("HEXBOARD_SHARE_COMPRESS", "false")
	t.Setenv("HEXBOARD_LOG_LEVEL", "DEBUG")

	cfg := Defaults()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.Store.Backend != "memory" || cfg.Share.Compress || cfg.Log.Level != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Origin != "http://localhost:8080" {
		t.Fatalf("unset var changed origin: %q", cfg.Origin)
	}
}

func TestApplyEnv_BadValue(t *testing.T) {
	t.Setenv("HEXBOARD_SHARE_COMPRESS", "sometimes")
	cfg := Defaults()
	err := cfg.ApplyEnv()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
