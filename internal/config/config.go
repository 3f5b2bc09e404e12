package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.parley/config.toml.
type Config struct {
	DefaultInstance string        `toml:"default_instance"`
	Backend         BackendConfig `toml:"backend"`
	Storage         StorageConfig `toml:"storage"`
	Metrics         MetricsConfig `toml:"metrics"`
	UI              UIConfig      `toml:"ui"`
}

// BackendConfig tunes authentication on the daemon.
type BackendConfig struct {
	JWTSecret       string   `toml:"jwt_secret"`
	TokenTTL        Duration `toml:"token_ttl"`
	RecentLogin     Duration `toml:"recent_login"`
	SignInPerMinute int      `toml:"signin_per_minute"`
	SignInBurst     int      `toml:"signin_burst"`
}

// StorageConfig selects where profile photos go.
type StorageConfig struct {
	Provider      string `toml:"provider"` // "local" or "cloudinary"
	MaxPhotoBytes int64  `toml:"max_photo_bytes"`
	CloudName     string `toml:"cloudinary_cloud_name"`
	APIKey        string `toml:"cloudinary_api_key"`
	APISecret     string `toml:"cloudinary_api_secret"`
	Folder        string `toml:"cloudinary_folder"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// UIConfig tunes the terminal client.
type UIConfig struct {
	TypingIdle Duration `toml:"typing_idle"`
}

// Duration is a time.Duration written as a string such as "300ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			TokenTTL:        Duration{24 * time.Hour},
			RecentLogin:     Duration{5 * time.Minute},
			SignInPerMinute: 10,
			SignInBurst:     5,
		},
		Storage: StorageConfig{
			Provider:      "local",
			MaxPhotoBytes: 5 << 20,
			Folder:        "parley",
		},
		UI: UIConfig{
			TypingIdle: Duration{300 * time.Millisecond},
		},
	}
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault reads path on top of Default. A missing file is not an error.
func LoadOrDefault(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// SigningKey returns the configured token secret, or the one stored at keyPath,
// generating and saving a new random key on first use.
func SigningKey(cfg *Config, keyPath string) (string, error) {
	if cfg.Backend.JWTSecret != "" {
		return cfg.Backend.JWTSecret, nil
	}
	raw, err := os.ReadFile(keyPath)
	if err == nil {
		if key := strings.TrimSpace(string(raw)); key != "" {
			return key, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	key := hex.EncodeToString(buf)
	if err := os.MkdirAll(filepath.Dir(keyPath), 0700); err != nil {
		return "", err
	}
	if err := os.WriteFile(keyPath, []byte(key+"\n"), 0600); err != nil {
		return "", err
	}
	return key, nil
}
