package config

import "github.com/ziadkadry99/textpanel/internal/content"

// DefaultPath is where init writes the configuration.
const DefaultPath = ".textpanel.yml"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:                8080,
		DataDir:             ".textpanel",
		DefaultMode:         content.ModeMarkdown,
		DisableSanitizeHTML: false,
		DebounceMS:          150,
		AllowAllOrigins:     false,
		Markdown: MarkdownConfig{
			Highlight:      true,
			HighlightStyle: "github",
		},
	}
}
