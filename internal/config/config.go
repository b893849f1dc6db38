package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (TEXTPANEL_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// TEXTPANEL_DISABLE_SANITIZE_HTML -> disable_sanitize_html, etc.
	if err := k.Load(env.Provider("TEXTPANEL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "TEXTPANEL_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// DatabasePath returns the SQLite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "textpanel.db")
}

var variableName = regexp.MustCompile(`^\w+$`)

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 0 and 65535", c.Port)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.DefaultMode != "" && !c.DefaultMode.Valid() {
		return fmt.Errorf("invalid default_mode %q: must be one of text, html, markdown", c.DefaultMode)
	}

	if c.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms must be non-negative")
	}

	if c.Markdown.Highlight && c.Markdown.HighlightStyle == "" {
		return fmt.Errorf("markdown.highlight_style is required when highlighting is enabled")
	}

	for name := range c.Variables {
		if !variableName.MatchString(name) {
			return fmt.Errorf("invalid variable name %q", name)
		}
	}

	return nil
}
