package config

import (
	"time"

	"github.com/ziadkadry99/textpanel/internal/content"
)

// Config is the top-level textpanel configuration, corresponding to .textpanel.yml.
type Config struct {
	Port                int               `yaml:"port" koanf:"port"`
	DataDir             string            `yaml:"data_dir" koanf:"data_dir"`
	DefaultMode         content.Mode      `yaml:"default_mode" koanf:"default_mode"`
	DisableSanitizeHTML bool              `yaml:"disable_sanitize_html" koanf:"disable_sanitize_html"`
	DebounceMS          int               `yaml:"debounce_ms" koanf:"debounce_ms"`
	AllowAllOrigins     bool              `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	Markdown            MarkdownConfig    `yaml:"markdown" koanf:"markdown"`
	Variables           map[string]string `yaml:"variables,omitempty" koanf:"variables"`
}

// MarkdownConfig holds Markdown rendering settings.
type MarkdownConfig struct {
	Highlight      bool   `yaml:"highlight" koanf:"highlight"`
	HighlightStyle string `yaml:"highlight_style" koanf:"highlight_style"`
}

// Debounce returns the re-render quiescence window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}
