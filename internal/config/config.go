// Package config layers the acadeval client settings: defaults, the config
// file, a .env file, ACADEVAL_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/me/acadeval/internal/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ACADEVAL"

// Session backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// ClientConfig holds configuration for the acadeval CLI.
type ClientConfig struct {
	Server         string `mapstructure:"server"`          // API base URL including /api/v1
	LogLevel       string `mapstructure:"log_level"`       // debug, info, warn, error
	LogFormat      string `mapstructure:"log_format"`      // text, json
	SessionBackend string `mapstructure:"session_backend"` // file, sqlite, memory
	SessionPath    string `mapstructure:"session_path"`    // empty: derived from the backend
	Profile        string `mapstructure:"profile"`         // sqlite slot name
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Server:         "http://localhost:8000/api/v1",
		LogLevel:       "warn",
		LogFormat:      "text",
		SessionBackend: BackendFile,
		Profile:        "default",
	}
}

// Dir returns ~/.acadeval.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".acadeval"), nil
}

// Options controls Load.
type Options struct {
	// ConfigFile is an explicit config path; it must exist. When empty,
	// ~/.acadeval/config.yaml is read if present.
	ConfigFile string
	// DotEnv is the .env file to load; missing files are ignored. Defaults to ".env".
	DotEnv string
	// Flags are bound by name: server, log-level, log-format,
	// session-backend, session-path, profile.
	Flags *pflag.FlagSet
}

var flagKeys = map[string]string{
	"server":          "server",
	"log-level":       "log_level",
	"log-format":      "log_format",
	"session-backend": "session_backend",
	"session-path":    "session_path",
	"profile":         "profile",
}

// Load resolves the configuration.
func Load(opts Options) (ClientConfig, error) {
	dotEnv := opts.DotEnv
	if dotEnv == "" {
		dotEnv = ".env"
	}
	if err := godotenv.Load(dotEnv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return ClientConfig{}, fmt.Errorf("load %s: %w", dotEnv, err)
	}

	v := viper.New()
	def := DefaultClientConfig()
	v.SetDefault("server", def.Server)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("session_backend", def.SessionBackend)
	v.SetDefault("session_path", def.SessionPath)
	v.SetDefault("profile", def.Profile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return ClientConfig{}, err
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return ClientConfig{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Server = strings.TrimRight(cfg.Server, "/")
	if err := cfg.Validate(); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		dir, err := Dir()
		if err != nil {
			return nil
		}
		path = filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Validate checks the resolved values.
func (c ClientConfig) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL %q", c.Server)
	}
	switch c.SessionBackend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown session backend %q (want file, sqlite or memory)", c.SessionBackend)
	}
	return logging.CheckFormat(c.LogFormat)
}

// ResolvedSessionPath returns SessionPath, or the backend's default location
// under ~/.acadeval. The memory backend has no path.
func (c ClientConfig) ResolvedSessionPath() (string, error) {
	if c.SessionPath != "" || c.SessionBackend == BackendMemory {
		return c.SessionPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if c.SessionBackend == BackendSQLite {
		return filepath.Join(dir, "sessions.db"), nil
	}
	return filepath.Join(dir, "session.json"), nil
}
