package config

import (
	"fmt"
	"strings"
)

// Validate checks a loaded configuration for invalid values
func Validate(cfg *Config) error {
	var errors []string

	if cfg.Memory.Root == "" {
		errors = append(errors, "memory.root is required")
	}
	if strings.HasPrefix(cfg.Memory.Root, "/") {
		// Keep trees relative to the project so they travel with the repo.
		errors = append(errors, "memory.root must be a relative path")
	}
	if cfg.Memory.RebalanceThreshold < 2 {
		errors = append(errors, fmt.Sprintf("memory.rebalance_threshold must be at least 2, got %d", cfg.Memory.RebalanceThreshold))
	}
	if cfg.Memory.MatchThreshold <= 0 || cfg.Memory.MatchThreshold > 1 {
		errors = append(errors, fmt.Sprintf("memory.match_threshold must be in (0, 1], got %g", cfg.Memory.MatchThreshold))
	}
	if cfg.Memory.MaxResults < 1 {
		errors = append(errors, fmt.Sprintf("memory.max_results must be at least 1, got %d", cfg.Memory.MaxResults))
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"":      true,
	}
	if !validLevels[cfg.Logging.Level] {
		errors = append(errors, fmt.Sprintf("invalid logging.level: %s", cfg.Logging.Level))
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"":     true,
	}
	if !validFormats[cfg.Logging.Format] {
		errors = append(errors, fmt.Sprintf("invalid logging.format: %s (must be text or json)", cfg.Logging.Format))
	}

	validDrivers := map[string]bool{
		"sqlite": true,
		"memory": true,
		"":       true,
	}
	if !validDrivers[cfg.State.Driver] {
		errors = append(errors, fmt.Sprintf("invalid state.driver: %s (must be sqlite or memory)", cfg.State.Driver))
	}
	if cfg.State.Driver == "sqlite" && cfg.State.Path == "" {
		errors = append(errors, "state.driver sqlite requires state.path")
	}

	if cfg.Hooks.Enabled {
		if err := validateHooks(&cfg.Hooks); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errors, "; "))
	}
	return nil
}

// validateHooks validates the hook definitions
func validateHooks(cfg *HooksConfig) error {
	var errors []string

	validTypes := map[string]bool{
		"shell":   true,
		"webhook": true,
		"log":     true,
		"pause":   true,
	}

	names := make(map[string]bool)
	for _, hook := range cfg.Hooks {
		if hook.Name == "" {
			errors = append(errors, "hook name is required")
			continue
		}
		if names[hook.Name] {
			errors = append(errors, fmt.Sprintf("duplicate hook name: %s", hook.Name))
		}
		names[hook.Name] = true

		if !validTypes[hook.Type] {
			errors = append(errors, fmt.Sprintf("hook %s has invalid type: %s", hook.Name, hook.Type))
		}
		if len(hook.Events) == 0 {
			errors = append(errors, fmt.Sprintf("hook %s must match at least one event", hook.Name))
		}
		if hook.Type == "shell" && hook.Command == "" {
			errors = append(errors, fmt.Sprintf("shell hook %s requires a command", hook.Name))
		}
		if hook.Type == "webhook" && hook.URL == "" {
			errors = append(errors, fmt.Sprintf("webhook hook %s requires a url", hook.Name))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("hook validation failed: %s", strings.Join(errors, "; "))
	}
	return nil
}
