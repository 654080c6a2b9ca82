package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lorekeep/lore/internal/event"
	"github.com/lorekeep/lore/internal/state"
	"github.com/lorekeep/lore/internal/telemetry"
	"github.com/lorekeep/lore/internal/tree"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	writeDomain     string
	writeTitle      string
	writeSummary    string
	writeContent    string
	writeTags       []string
	writeConfidence string
	writeFile       string
	writeStdin      bool
	writeNoJournal  bool
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Record insights in the memory tree",
	Long: `Record one or more insights in the memory tree.

A single insight is given with flags; a batch is given as a YAML file of
items. Near-duplicate titles update the existing entry instead of creating
a new one, and every item's outcome is reported explicitly.

Examples:
  lore write -d decisions -t "Use PostgreSQL" -c "Chosen for jsonb support" --tag database
  lore write -d bugs -t "Login timeout" --stdin < notes.md
  lore write --file insights.yaml`,
	RunE: runWrite,
}

func init() {
	writeCmd.Flags().StringVarP(&writeDomain, "domain", "d", "", "target domain")
	writeCmd.Flags().StringVarP(&writeTitle, "title", "t", "", "entry title")
	writeCmd.Flags().StringVarP(&writeSummary, "summary", "s", "", "one-line summary for the index")
	writeCmd.Flags().StringVarP(&writeContent, "content", "c", "", "entry details")
	writeCmd.Flags().StringArrayVar(&writeTags, "tag", nil, "tag (repeatable)")
	writeCmd.Flags().StringVar(&writeConfidence, "confidence", "medium", "confidence: low, medium, high")
	writeCmd.Flags().StringVarP(&writeFile, "file", "f", "", "YAML file with a batch of items")
	writeCmd.Flags().BoolVar(&writeStdin, "stdin", false, "read entry details from stdin")
	writeCmd.Flags().BoolVar(&writeNoJournal, "no-journal", false, "skip the session journal")
}

func runWrite(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	if err := treeMustExist(p); err != nil {
		return err
	}

	items, err := collectItems()
	if err != nil {
		return err
	}

	var mgr *state.Manager
	if !writeNoJournal {
		mgr = openJournal(p, "write")
	}
	defer closeJournal(p, mgr)

	trace := telemetry.NewTraceContext(activeSessionID(mgr)).WithOperation("write")
	ctx := telemetry.ContextWithTrace(context.Background(), trace)

	start := time.Now()
	report, err := p.tree.WriteEntries(items)
	if err != nil {
		failJournal(p, mgr, err)
		return err
	}

	if p.metrics != nil {
		for _, res := range report.Results {
			if res.Action == tree.ActionCreate {
				p.metrics.IncEntriesCreated()
			} else {
				p.metrics.IncEntriesUpdated()
			}
		}
		for range report.Rebalanced {
			p.metrics.IncRebalances()
		}
		for range report.Repaired {
			p.metrics.IncVerifyRepairs()
		}
		p.metrics.RecordWriteDuration(time.Since(start))
		p.flushMetrics("entry.written", map[string]string{"items": fmt.Sprintf("%d", len(items))})
	}

	for _, res := range report.Results {
		fmt.Printf("%s  %s/%s\n", res.Action, res.Domain, res.Title)
		span := trace.ChildSpan().WithDomain(res.Domain).WithOperation(strings.ToLower(res.Action))
		p.logger.WithFields(span.Fields()).Debug("entry written", "title", res.Title, "path", res.Path)
		if mgr != nil {
			_ = mgr.RecordOp(state.OpRecord{Kind: "write", Domain: res.Domain, Detail: res.Path})
		}
	}
	for _, rb := range report.Rebalanced {
		fmt.Printf("REBALANCE  %s split into %d topics\n", rb.Dir, len(rb.Groups))
	}
	for _, repaired := range report.Repaired {
		fmt.Printf("REPAIRED  %s\n", repaired)
	}
	fmt.Printf("\n%d created, %d updated\n", report.Created(), report.Updated())

	if mgr != nil {
		if _, err := mgr.IncrementCounter("entries_written", int64(len(report.Results))); err != nil {
			p.logger.Warn("failed to bump write counter", "error", err)
		}
	}
	p.logger.WithTrace(ctx).Info("write session finished",
		"created", report.Created(), "updated", report.Updated())

	// The file index drifts as code changes; refresh it opportunistically
	// after writes. Bounded wait so a huge project tree can't stall the
	// command indefinitely.
	done := p.tree.ReconcileAsync(ctx, ".", p.cfg.Memory.ExcludePatterns)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		p.logger.Warn("file index reconcile still running at exit")
	}

	return nil
}

// collectItems assembles the item batch from flags, a batch file, or stdin.
func collectItems() ([]tree.Item, error) {
	if writeFile != "" {
		content, err := os.ReadFile(writeFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read batch file: %w", err)
		}
		var batch struct {
			Items []tree.Item `yaml:"items"`
		}
		if err := yaml.Unmarshal(content, &batch); err != nil {
			return nil, fmt.Errorf("failed to parse batch file: %w", err)
		}
		if len(batch.Items) == 0 {
			return nil, fmt.Errorf("batch file has no items")
		}
		return batch.Items, nil
	}

	if writeDomain == "" || writeTitle == "" {
		return nil, fmt.Errorf("--domain and --title are required (or use --file)")
	}

	content := writeContent
	if writeStdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		content = string(data)
	}
	if content == "" {
		return nil, fmt.Errorf("--content is required (or use --stdin)")
	}

	return []tree.Item{{
		Domain:     writeDomain,
		Title:      writeTitle,
		Summary:    writeSummary,
		Content:    content,
		Tags:       writeTags,
		Confidence: writeConfidence,
	}}, nil
}

// openJournal starts a session in the state journal, best effort. A nil
// return means journaling is unavailable.
func openJournal(p *project, toolName string) *state.Manager {
	mgr, err := state.NewManager(p.cfg.State.Driver, p.cfg.State.Path)
	if err != nil {
		p.logger.Warn("session journal unavailable", "error", err)
		return nil
	}
	sess, err := mgr.StartSession(toolName, nil)
	if err != nil {
		p.logger.Warn("failed to start session", "error", err)
		_ = mgr.Close()
		return nil
	}
	if p.metrics != nil {
		p.metrics.SessionStarted()
	}
	_ = p.bus.Emit(event.NewEvent(event.SessionStarted,
		map[string]interface{}{"tool": toolName, "session_id": sess.ID}))
	return mgr
}

func closeJournal(p *project, mgr *state.Manager) {
	if mgr == nil {
		return
	}
	if sess, _ := mgr.GetActiveSession(); sess != nil && sess.IsActive() {
		_ = mgr.CompleteSession()
		_ = p.bus.Emit(event.NewEvent(event.SessionCompleted,
			map[string]interface{}{"session_id": sess.ID}))
	}
	if p.metrics != nil {
		p.metrics.SessionEnded()
	}
	_ = mgr.Close()
}

// activeSessionID returns the journal's active session ID, or "" when
// journaling is off.
func activeSessionID(mgr *state.Manager) string {
	if mgr == nil {
		return ""
	}
	sess, err := mgr.GetActiveSession()
	if err != nil || sess == nil {
		return ""
	}
	return sess.ID
}

// failJournal marks the active session failed and emits the matching event.
func failJournal(p *project, mgr *state.Manager, cause error) {
	if mgr == nil {
		return
	}
	sess, _ := mgr.GetActiveSession()
	_ = mgr.FailSession(cause)
	data := map[string]interface{}{"error": cause.Error()}
	if sess != nil {
		data["session_id"] = sess.ID
	}
	_ = p.bus.Emit(event.NewEvent(event.SessionFailed, data))
}
