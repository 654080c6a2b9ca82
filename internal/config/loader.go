package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the project configuration filename.
const ConfigFile = "lore.yaml"

// Load loads the main project configuration
func Load(dir string) (*Config, error) {
	configFile := filepath.Join(dir, ConfigFile)

	content, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if no file exists
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Interpolate environment variables
	content = []byte(interpolateEnv(string(content)))

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply defaults
	applyDefaults(&cfg)

	return &cfg, nil
}

// LoadFile loads configuration from an explicit file path
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	content = []byte(interpolateEnv(string(content)))

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes the configuration to dir/lore.yaml
func Save(cfg *Config, dir string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ConfigFile), data, 0644)
}

// interpolateEnv replaces ${env.VAR} and ${VAR} with environment values
func interpolateEnv(content string) string {
	// Match ${env.VAR} pattern
	envPattern := regexp.MustCompile(`\$\{env\.([^}]+)\}`)
	content = envPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // keep original if not found
	})

	// Match ${VAR} pattern
	varPattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	content = varPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := varPattern.FindStringSubmatch(match)[1]
		// Skip template placeholders
		if strings.Contains(varName, ".") {
			return match
		}
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return content
}

// Default returns the built-in configuration defaults
func Default() *Config {
	return &Config{
		Name:    "lore-project",
		Version: "1.0",
		Memory: MemoryConfig{
			Root:               "memory",
			RebalanceThreshold: 8,
			MatchThreshold:     0.5,
			MaxResults:         10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		State: StateConfig{
			Driver: "sqlite",
			Path:   ".lore/state.db",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    ".lore/metrics.jsonl",
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Memory.Root == "" {
		cfg.Memory.Root = "memory"
	}
	if cfg.Memory.RebalanceThreshold == 0 {
		cfg.Memory.RebalanceThreshold = 8
	}
	if cfg.Memory.MatchThreshold == 0 {
		cfg.Memory.MatchThreshold = 0.5
	}
	if cfg.Memory.MaxResults == 0 {
		cfg.Memory.MaxResults = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.State.Driver == "" {
		cfg.State.Driver = "sqlite"
	}
	if cfg.State.Path == "" {
		cfg.State.Path = ".lore/state.db"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = ".lore/metrics.jsonl"
	}
}
