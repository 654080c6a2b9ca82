package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/lorekeep/lore/internal/config"
	"github.com/lorekeep/lore/internal/event"
	"github.com/lorekeep/lore/internal/telemetry"
	"github.com/lorekeep/lore/internal/tree"
)

// project bundles the wired-up pieces every command works against.
type project struct {
	cfg     *config.Config
	logger  *telemetry.Logger
	bus     *event.Bus
	tree    *tree.Tree
	metrics *telemetry.Metrics

	exporter *telemetry.JSONFileExporter
}

// loadProject loads lore.yaml, builds the logger, event bus (with any
// configured hooks), metrics, and the memory tree.
func loadProject() (*project, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger := telemetry.NewLoggerWithFormat(verbose || cfg.Logging.Level == "debug", cfg.Logging.Format)
	if cfg.Logging.File != "" {
		if err := logger.WithFile(cfg.Logging.File); err != nil {
			logger.Warn("log file unavailable", "path", cfg.Logging.File, "error", err)
		}
	}

	bus := event.NewBus(logger)
	if cfg.Hooks.Enabled {
		for _, h := range hooksFromConfig(cfg.Hooks, logger) {
			bus.Register(h)
		}
	}

	t := tree.New(cfg.Memory.Root)
	t.Threshold = cfg.Memory.RebalanceThreshold
	t.MatchThreshold = cfg.Memory.MatchThreshold
	t.MaxResults = cfg.Memory.MaxResults
	t.Bus = bus
	t.Logger = logger

	p := &project{cfg: cfg, logger: logger, bus: bus, tree: t}

	if cfg.Metrics.Enabled {
		p.metrics = telemetry.NewMetrics()
		exporter, err := telemetry.NewJSONFileExporter(cfg.Metrics.Path)
		if err != nil {
			logger.Warn("metrics exporter unavailable", "path", cfg.Metrics.Path, "error", err)
		} else {
			p.metrics.SetExporter(exporter)
			p.exporter = exporter
		}
	}

	return p, nil
}

// close flushes and releases project resources.
func (p *project) close() {
	if p.exporter != nil {
		_ = p.exporter.Close()
	}
	_ = p.logger.Close()
}

// flushMetrics exports a snapshot under the given event label, if enabled.
func (p *project) flushMetrics(eventName string, labels map[string]string) {
	if p.metrics == nil {
		return
	}
	p.metrics.Flush(eventName, labels)
}

// hooksFromConfig builds event hooks from lore.yaml hook definitions.
// Definitions that fail validation are skipped with a warning; config
// validation normally catches them first.
func hooksFromConfig(cfg config.HooksConfig, logger *telemetry.Logger) []event.Hook {
	var hooks []event.Hook
	for _, hc := range cfg.Hooks {
		events := eventTypes(hc.Events)
		switch hc.Type {
		case "shell":
			hooks = append(hooks, event.NewShellHook(hc.Name, hc.Command, events, hc.Blocking))
		case "webhook":
			hooks = append(hooks, event.NewWebhookHook(hc.Name, hc.URL, events, hc.Blocking))
		case "log":
			hooks = append(hooks, event.NewLogHook(hc.Name, events, logger, hc.Level))
		case "pause":
			hooks = append(hooks, event.NewPauseHook(hc.Name, events, hc.Message))
		default:
			logger.Warn("unknown hook type, skipping", "hook", hc.Name, "type", hc.Type)
		}
	}
	return hooks
}

// eventTypes converts config event strings to event types. A "*" entry
// matches everything, which the bus expresses as an empty filter.
func eventTypes(names []string) []event.EventType {
	var types []event.EventType
	for _, n := range names {
		if n == "*" {
			return nil
		}
		types = append(types, event.EventType(n))
	}
	return types
}

// treeMustExist returns a friendly error when the memory tree is missing.
func treeMustExist(p *project) error {
	if !p.tree.Exists() {
		return fmt.Errorf("memory tree not found at %s — run 'lore init' first", p.cfg.Memory.Root)
	}
	return nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// loreDir returns a path under the .lore working directory.
func loreDir(parts ...string) string {
	return filepath.Join(append([]string{".lore"}, parts...)...)
}
