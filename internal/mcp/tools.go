package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lorekeep/lore/internal/state"
	"github.com/lorekeep/lore/internal/tree"
)

// ToolDef describes an MCP tool for tools/list.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// AllTools returns the full set of memory tool definitions.
func AllTools() []ToolDef {
	return []ToolDef{
		{
			Name:        "memory_write",
			Description: "Record one or more insights in the project memory tree. Near-duplicate titles update the existing entry instead of creating a new one.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"items": map[string]any{
						"type":        "array",
						"description": "Insights to record",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"domain":     map[string]any{"type": "string", "description": "Target domain: decisions, patterns, bugs, preferences, context, sessions, research, plans"},
								"title":      map[string]any{"type": "string", "description": "Short descriptive title"},
								"summary":    map[string]any{"type": "string", "description": "One-line summary for the index"},
								"content":    map[string]any{"type": "string", "description": "Full entry details"},
								"tags":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
								"confidence": map[string]any{"type": "string", "description": "low, medium, or high", "default": "medium"},
							},
							"required": []string{"domain", "title", "content"},
						},
					},
				},
				"required": []string{"items"},
			},
		},
		{
			Name:        "memory_search",
			Description: "Search the memory tree before starting work. Returns ranked matches with paths, or an explicit no-match flag.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "Search terms"},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "memory_reconcile",
			Description: "Regenerate the project file index from the current directory layout, preserving hand-written file descriptions.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "memory_status",
			Description: "Report per-domain entry counts and last-updated dates for the memory tree.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "memory_archive",
			Description: "Mark a memory entry as superseded. Entries are never deleted, only archived.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"domain": map[string]any{"type": "string", "description": "Domain holding the entry"},
					"title":  map[string]any{"type": "string", "description": "Title of the entry to archive"},
				},
				"required": []string{"domain", "title"},
			},
		},
	}
}

// ToolHandler dispatches tool calls to the memory tree.
type ToolHandler struct {
	tree        *tree.Tree
	mgr         *state.Manager
	projectRoot string
	excludes    []string
}

// NewToolHandler creates a handler bound to a tree. The state manager may be
// nil when no session journaling is wanted.
func NewToolHandler(t *tree.Tree, mgr *state.Manager, projectRoot string, excludes []string) *ToolHandler {
	return &ToolHandler{tree: t, mgr: mgr, projectRoot: projectRoot, excludes: excludes}
}

// Call dispatches a tool call by name with the given arguments.
func (h *ToolHandler) Call(name string, args json.RawMessage) (any, error) {
	switch name {
	case "memory_write":
		return h.write(args)
	case "memory_search":
		return h.search(args)
	case "memory_reconcile":
		return h.reconcile()
	case "memory_status":
		return h.status()
	case "memory_archive":
		return h.archive(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func (h *ToolHandler) write(args json.RawMessage) (any, error) {
	var params struct {
		Items []tree.Item `json:"items"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}
	if len(params.Items) == 0 {
		return nil, fmt.Errorf("items are required")
	}

	report, err := h.tree.WriteEntries(params.Items)
	if err != nil {
		return nil, err
	}

	for _, res := range report.Results {
		h.record("write", res.Domain, res.Path)
	}

	return map[string]any{
		"created":    report.Created(),
		"updated":    report.Updated(),
		"rebalanced": report.Rebalanced,
		"results":    report.Results,
	}, nil
}

func (h *ToolHandler) search(args json.RawMessage) (any, error) {
	var params struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}
	if strings.TrimSpace(params.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	result, err := h.tree.Search(params.Query)
	if err != nil {
		return nil, err
	}

	h.record("search", "", params.Query)

	return map[string]any{
		"query":      result.Query,
		"matches":    result.Matches,
		"count":      len(result.Matches),
		"no_matches": result.NoMatches,
	}, nil
}

func (h *ToolHandler) reconcile() (any, error) {
	outcome, err := h.tree.Reconcile(h.projectRoot, h.excludes)
	if err != nil {
		return nil, err
	}

	h.record("reconcile", tree.FilesDomain, string(outcome))

	return map[string]any{"outcome": string(outcome)}, nil
}

func (h *ToolHandler) status() (any, error) {
	stats, err := h.tree.Stats()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"root":    h.tree.Root,
		"domains": stats,
	}, nil
}

func (h *ToolHandler) archive(args json.RawMessage) (any, error) {
	var params struct {
		Domain string `json:"domain"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}
	if params.Domain == "" || params.Title == "" {
		return nil, fmt.Errorf("domain and title are required")
	}

	path, err := h.tree.Archive(params.Domain, params.Title)
	if err != nil {
		return nil, err
	}

	h.record("archive", params.Domain, path)

	return map[string]string{"status": "archived", "path": path}, nil
}

// record journals a tool call to the active session, best effort.
func (h *ToolHandler) record(kind, domain, detail string) {
	if h.mgr == nil {
		return
	}
	_ = h.mgr.RecordOp(state.OpRecord{Kind: kind, Domain: domain, Detail: detail})
}
