package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultTermStart is the Monday of week 1 used when no term start is set.
const DefaultTermStart = "2024-09-09"

// BasicAuthConfig holds HTTP Basic Auth credentials for serve mode.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// TermStart is the Monday of term week 1, formatted YYYY-MM-DD.
	TermStart string `yaml:"term_start" json:"term_start"`

	// Tutors is the path to the tutor directory JSON ({"zid": "Name"}).
	Tutors string `yaml:"tutors" json:"tutors"`

	// Allocations is a path or http(s) URL of the allocations JSON.
	Allocations string `yaml:"allocations" json:"allocations"`

	// CacheDir stores the last fetched copy of remote allocations.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// Output is where the generated .ics file is written.
	Output string `yaml:"output" json:"output"`

	// ZID, if set, skips the interactive prompt (still validated).
	ZID string `yaml:"zid,omitempty" json:"zid,omitempty"`

	// Listen is the HTTP listen address used by serve mode.
	Listen string `yaml:"listen" json:"listen"`

	// RefreshCron is a cron-style schedule (e.g. "0 * * * *") used by
	// watch mode to regenerate the calendar.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, protects every serve mode endpoint except
	// /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		TermStart:   DefaultTermStart,
		Tutors:      "data/tutors.json",
		Allocations: "data/allocations.json",
		CacheDir:    defaultCacheDir(),
		Output:      defaultOutput(),
		Listen:      "127.0.0.1:8080",
		RefreshCron: "0 * * * *",
		LogLevel:    "info",
	}
}

// Normalize fills in missing values with defaults.
func (c *Config) Normalize() {
	if c.TermStart == "" {
		c.TermStart = DefaultTermStart
	}
	if c.Tutors == "" {
		c.Tutors = "data/tutors.json"
	}
	if c.Allocations == "" {
		c.Allocations = "data/allocations.json"
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir()
	}
	if c.Output == "" {
		c.Output = defaultOutput()
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "0 * * * *"
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = "info"
	}
}

// Validate checks values that Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := time.Parse(time.DateOnly, c.TermStart); err != nil {
		return errors.New("term_start must be formatted YYYY-MM-DD")
	}
	return nil
}

// envOverrides maps environment variables to config fields.
var envOverrides = map[string]func(*Config, string){
	"HELPCAL_TERM_START":  func(c *Config, v string) { c.TermStart = v },
	"HELPCAL_TUTORS":      func(c *Config, v string) { c.Tutors = v },
	"HELPCAL_ALLOCATIONS": func(c *Config, v string) { c.Allocations = v },
	"HELPCAL_CACHE_DIR":   func(c *Config, v string) { c.CacheDir = v },
	"HELPCAL_OUTPUT":      func(c *Config, v string) { c.Output = v },
	"HELPCAL_ZID":         func(c *Config, v string) { c.ZID = v },
	"HELPCAL_LISTEN":      func(c *Config, v string) { c.Listen = v },
	"HELPCAL_REFRESH":     func(c *Config, v string) { c.RefreshCron = v },
	"HELPCAL_LOG_LEVEL":   func(c *Config, v string) { c.LogLevel = v },
}

// ApplyEnv overlays HELPCAL_* environment variables onto c. A .env file in
// the working directory is loaded first if present; existing environment
// variables take precedence over it.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()
	for key, set := range envOverrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			set(c, v)
		}
	}
	c.Normalize()
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise YAML is unmarshalled into Config and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".helpcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}

// defaultOutput is ~/Downloads/my_allocations.ics, or the working
// directory when no home directory is available.
func defaultOutput() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "my_allocations.ics"
	}
	return filepath.Join(home, "Downloads", "my_allocations.ics")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "./var/allocations-cache"
	}
	return filepath.Join(dir, "helpcal")
}
