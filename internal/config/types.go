package config

// Config represents the main project configuration (lore.yaml)
type Config struct {
	Name    string        `yaml:"name" json:"name"`
	Version string        `yaml:"version" json:"version"`
	Memory  MemoryConfig  `yaml:"memory" json:"memory"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	State   StateConfig   `yaml:"state" json:"state"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Hooks   HooksConfig   `yaml:"hooks" json:"hooks"`
}

// MemoryConfig configures the memory tree
type MemoryConfig struct {
	Root               string   `yaml:"root" json:"root"`                               // memory tree root directory
	RebalanceThreshold int      `yaml:"rebalance_threshold" json:"rebalance_threshold"` // files per directory before split
	MatchThreshold     float64  `yaml:"match_threshold" json:"match_threshold"`         // dedup similarity cutoff
	MaxResults         int      `yaml:"max_results" json:"max_results"`                 // search result cap
	ExcludePatterns    []string `yaml:"exclude_patterns" json:"exclude_patterns"`       // extra reconcile excludes
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text, json
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// StateConfig configures session state storage
type StateConfig struct {
	Driver string `yaml:"driver" json:"driver"` // sqlite, memory
	Path   string `yaml:"path" json:"path"`     // file path for sqlite
}

// MetricsConfig configures the metrics exporter
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"` // JSONL output file
}

// HooksConfig configures lifecycle event hooks.
type HooksConfig struct {
	Enabled bool         `yaml:"enabled" json:"enabled"`
	Hooks   []HookConfig `yaml:"hooks" json:"hooks"`
}

// HookConfig defines a single hook.
type HookConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`     // shell, webhook, log, pause
	Events   []string `yaml:"events" json:"events"` // event types to match
	Blocking bool     `yaml:"blocking" json:"blocking"`
	Command  string   `yaml:"command,omitempty" json:"command,omitempty"` // for shell hooks
	URL      string   `yaml:"url,omitempty" json:"url,omitempty"`         // for webhook hooks
	Message  string   `yaml:"message,omitempty" json:"message,omitempty"` // for pause hooks
	Level    string   `yaml:"level,omitempty" json:"level,omitempty"`     // for log hooks (debug, info, warn)
}
