// Package config loads csmark settings from .csmark.yaml files.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileNames are the config file names searched for, in order of preference.
var FileNames = []string{".csmark.yaml", ".csmark.yml"}

var vcsRootMarkers = []string{".git", ".hg", ".svn"}

type Config struct {
	// Include and Exclude are doublestar globs relative to the project root.
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
	// Defines are preprocessor symbols applied to every file.
	Defines   []string      `yaml:"defines,omitempty"`
	Jobs      int           `yaml:"jobs,omitempty"`
	CacheSize int           `yaml:"cache_size,omitempty"`
	LogLevel  string        `yaml:"log_level,omitempty"`
	Debounce  time.Duration `yaml:"debounce,omitempty"`
	Format    string        `yaml:"format,omitempty"`
	Color     string        `yaml:"color,omitempty"`

	// Root is the directory holding the loaded file. It is not read from
	// the file.
	Root string `yaml:"-"`
}

func Default() *Config {
	return &Config{
		Exclude:   []string{"**/bin/**", "**/obj/**"},
		Jobs:      4,
		CacheSize: 256,
		LogLevel:  "warning",
		Debounce:  500 * time.Millisecond,
		Format:    "tree",
		Color:     "auto",
	}
}

var (
	validLogLevels = []string{"critical", "error", "warning", "notice", "info", "debug"}
	validFormats   = []string{"json", "line", "tree"}
	validColors    = []string{"auto", "always", "never"}
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %s", c.Debounce)
	}
	if err := oneOf("log_level", c.LogLevel, validLogLevels); err != nil {
		return err
	}
	if err := oneOf("format", c.Format, validFormats); err != nil {
		return err
	}
	return oneOf("color", c.Color, validColors)
}

func oneOf(field, value string, valid []string) error {
	if value == "" {
		return nil
	}
	for _, v := range valid {
		if strings.EqualFold(v, value) {
			return nil
		}
	}
	return fmt.Errorf("%s: unknown value %q (want one of %s)", field, value, strings.Join(valid, ", "))
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the config file at path.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Root = filepath.Dir(path)
	return cfg, nil
}

// Find searches upward from startDir for a config file. It stops at a VCS
// root or the file system root and returns "" when nothing is found.
func Find(ctx context.Context, startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", startDir, err)
	}
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
		for _, marker := range vcsRootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return "", nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Discover loads the nearest config file above startDir, or the defaults
// rooted at startDir when there is none. The second result is the loaded
// path.
func Discover(ctx context.Context, startDir string) (*Config, string, error) {
	path, err := Find(ctx, startDir)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		cfg := Default()
		cfg.Root = startDir
		cfg.ApplyEnv()
		return cfg, "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	cfg.ApplyEnv()
	return cfg, path, nil
}

// ApplyEnv overrides settings from CSMARK_LOG_LEVEL and CSMARK_DEFINES
// (comma separated).
func (c *Config) ApplyEnv() {
	if level := os.Getenv("CSMARK_LOG_LEVEL"); level != "" && oneOf("", level, validLogLevels) == nil {
		c.LogLevel = level
	}
	if defines := os.Getenv("CSMARK_DEFINES"); defines != "" {
		for _, sym := range strings.Split(defines, ",") {
			if sym = strings.TrimSpace(sym); sym != "" {
				c.Defines = append(c.Defines, sym)
			}
		}
	}
}

// Verbosity maps the log level to a commonlog verbosity, where 0 is notice.
func (c *Config) Verbosity() int {
	switch strings.ToLower(c.LogLevel) {
	case "critical":
		return -3
	case "error":
		return -2
	case "warning", "":
		return -1
	case "notice":
		return 0
	case "info":
		return 1
	}
	return 2
}
