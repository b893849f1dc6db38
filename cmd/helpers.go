package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ziadkadry99/textpanel/internal/config"
	"github.com/ziadkadry99/textpanel/internal/content"
	"github.com/ziadkadry99/textpanel/internal/markdown"
	"github.com/ziadkadry99/textpanel/internal/sanitize"
	"github.com/ziadkadry99/textpanel/internal/variables"
)

// loadConfig loads and validates the config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newProcessor builds the content processor shared by every command.
func newProcessor(cfg *config.Config, vars *variables.Service) *content.Processor {
	md := markdown.New(markdown.Options{
		Highlight:      cfg.Markdown.Highlight,
		HighlightStyle: cfg.Markdown.HighlightStyle,
	})
	if cfg.DisableSanitizeHTML && verbose {
		fmt.Fprintln(os.Stderr, "Warning: HTML sanitizing is disabled")
	}
	return content.NewProcessor(vars.Replace, md, sanitize.New(), content.Settings{
		DisableSanitizeHTML: cfg.DisableSanitizeHTML,
	})
}

// seedVariables stores config-provided variables that are not already set.
func seedVariables(ctx context.Context, svc *variables.Service, seed map[string]string) error {
	for name, value := range seed {
		if _, ok := svc.Get(name); ok {
			continue
		}
		if _, err := svc.Set(ctx, name, []string{value}); err != nil {
			return fmt.Errorf("seeding variable %s: %w", name, err)
		}
	}
	return nil
}
