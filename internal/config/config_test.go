package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultInstance = "work"
	cfg.UI.TypingIdle = Duration{time.Second}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultInstance != "work" {
		t.Errorf("DefaultInstance = %q, want %q", loaded.DefaultInstance, "work")
	}
	if loaded.UI.TypingIdle.Duration != time.Second {
		t.Errorf("TypingIdle = %v, want 1s", loaded.UI.TypingIdle)
	}
	if loaded.Storage.Provider != "local" {
		t.Errorf("Provider = %q, want local", loaded.Storage.Provider)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.UI.TypingIdle.Duration != 300*time.Millisecond {
		t.Errorf("TypingIdle = %v, want 300ms", cfg.UI.TypingIdle)
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	raw := "default_instance = \"dev\"\n\n[backend]\nrecent_login = \"1m\"\n\n[metrics]\naddr = \"127.0.0.1:9090\"\n"
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.DefaultInstance != "dev" || cfg.Metrics.Addr != "127.0.0.1:9090" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Backend.RecentLogin.Duration != time.Minute {
		t.Errorf("RecentLogin = %v, want 1m", cfg.Backend.RecentLogin)
	}
	if cfg.Backend.TokenTTL.Duration != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want default 24h", cfg.Backend.TokenTTL)
	}
}

func TestLoadOrDefaultRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[ui]\ntyping_idle = \"soon\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Error("LoadOrDefault() expected error for invalid duration")
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, &Config{DefaultInstance: "main"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}

func TestSigningKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "jwt.key")

	cfg := Default()
	first, err := SigningKey(cfg, keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 64 {
		t.Errorf("generated key length = %d, want 64", len(first))
	}
	second, err := SigningKey(cfg, keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("SigningKey() should reuse the stored key")
	}

	cfg.Backend.JWTSecret = "configured"
	got, err := SigningKey(cfg, keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if got != "configured" {
		t.Errorf("SigningKey() = %q, want configured secret", got)
	}
}
