package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/ziadkadry99/textpanel/internal/content"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to textpanel! Let's configure your panel server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Port.
	portPrompt := promptui.Prompt{
		Label:    "HTTP port",
		Default:  strconv.Itoa(cfg.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 2. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: cfg.DataDir,
	}
	cfg.DataDir, err = dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 3. Default mode for new panels.
	modes := []content.Mode{content.ModeMarkdown, content.ModeHTML, content.ModeText}
	modePrompt := promptui.Select{
		Label: "Default content mode for new panels",
		Items: []string{"markdown", "html", "text"},
	}
	modeIdx, _, err := modePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("mode selection: %w", err)
	}
	cfg.DefaultMode = modes[modeIdx]

	// 4. Sanitizing.
	sanitizePrompt := promptui.Select{
		Label: "HTML sanitizing",
		Items: []string{
			"enabled  - strip scripts and unsafe markup (recommended)",
			"disabled - render panel HTML exactly as written",
		},
	}
	sanitizeIdx, _, err := sanitizePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("sanitize selection: %w", err)
	}
	cfg.DisableSanitizeHTML = sanitizeIdx == 1

	// 5. Seed variables.
	varsPrompt := promptui.Prompt{
		Label:   "Dashboard variables (comma-separated name=value, leave blank for none)",
		Default: "",
	}
	varsStr, err := varsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("variables: %w", err)
	}
	vars, err := ParseAssignments(splitAndTrim(varsStr))
	if err != nil {
		return nil, err
	}
	if len(vars) > 0 {
		cfg.Variables = vars
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("port must be a number between 0 and 65535")
	}
	return nil
}

// ParseAssignments parses name=value pairs. Values may contain '='.
func ParseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || !variableName.MatchString(name) {
			return nil, fmt.Errorf("invalid variable assignment %q: want name=value", pair)
		}
		out[name] = value
	}
	return out, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
