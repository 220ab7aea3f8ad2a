// Package config holds the presenter's application configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/presenter/internal/engine"
)

// Config is the application configuration. Zero fields in a file keep
// their defaults.
type Config struct {
	API           API           `yaml:"api" toml:"api"`
	Database      string        `yaml:"database" toml:"database"`
	LogLevel      string        `yaml:"log_level" toml:"log_level"`
	Routes        Routes        `yaml:"routes" toml:"routes"`
	Notifications Notifications `yaml:"notifications" toml:"notifications"`
}

// API locates the backend.
type API struct {
	BaseURL string        `yaml:"base_url" toml:"base_url"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// Routes are the fixed navigation targets.
type Routes struct {
	Login string `yaml:"login" toml:"login"`
	Home  string `yaml:"home" toml:"home"`
}

// Notifications are the durations and message keys of engine notifications.
type Notifications struct {
	Duration        time.Duration `yaml:"duration" toml:"duration"`
	ErrorDuration   time.Duration `yaml:"error_duration" toml:"error_duration"`
	ConnectionError string        `yaml:"connection_error" toml:"connection_error"`
	LoginFailed     string        `yaml:"login_failed" toml:"login_failed"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	s := engine.DefaultSettings()
	return Config{
		API: API{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		Database: "presenter.db",
		LogLevel: "info",
		Routes: Routes{
			Login: s.LoginRoute,
			Home:  s.HomeRoute,
		},
		Notifications: Notifications{
			Duration:        s.NotificationDuration,
			ErrorDuration:   s.ErrorDuration,
			ConnectionError: s.ConnectionErrorMessage,
			LoginFailed:     s.LoginFailedMessage,
		},
	}
}

// Load reads a YAML or TOML file (by extension) over the defaults. An
// empty path returns the defaults. Unknown fields are rejected.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = decodeTOML(data, &cfg)
	} else {
		err = decodeYAML(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown fields: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks field values.
func (c Config) Validate() error {
	var errs []error
	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL))
		}
	}
	if c.API.Timeout < 0 {
		errs = append(errs, fmt.Errorf("api.timeout must not be negative"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	for name, route := range map[string]string{"routes.login": c.Routes.Login, "routes.home": c.Routes.Home} {
		if route != "" && !strings.HasPrefix(route, "/") {
			errs = append(errs, fmt.Errorf("%s %q must start with /", name, route))
		}
	}
	return errors.Join(errs...)
}

// EngineSettings maps the configuration onto engine settings.
func (c Config) EngineSettings() engine.Settings {
	return engine.Settings{
		LoginRoute:             c.Routes.Login,
		HomeRoute:              c.Routes.Home,
		NotificationDuration:   c.Notifications.Duration,
		ErrorDuration:          c.Notifications.ErrorDuration,
		ConnectionErrorMessage: c.Notifications.ConnectionError,
		LoginFailedMessage:     c.Notifications.LoginFailed,
	}
}

// Level returns the slog level named by LogLevel, Info when unset.
func (c Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", s, err)
	}
	return level, nil
}
