package cli

import (
	"fmt"
	"time"

	"github.com/lorekeep/lore/internal/state"
	"github.com/lorekeep/lore/internal/tree"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Regenerate the project file index",
	Long: `Walk the project and regenerate the files domain index from the
current directory layout. Hand-written descriptions next to surviving
files are preserved; rows for deleted files are dropped; new files get
empty descriptions. The index is only rewritten when something actually
changed.`,
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	if err := treeMustExist(p); err != nil {
		return err
	}

	outcome, err := p.tree.Reconcile(".", p.cfg.Memory.ExcludePatterns)
	if err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.IncReconciles()
		p.flushMetrics("reconcile.completed", map[string]string{"outcome": string(outcome)})
	}

	if mgr := openJournal(p, "reconcile"); mgr != nil {
		_ = mgr.RecordOp(state.OpRecord{Kind: "reconcile", Domain: tree.FilesDomain, Detail: string(outcome)})
		if err := mgr.SetMarker("last_reconcile", time.Now().UTC().Format(time.RFC3339)); err != nil {
			p.logger.Warn("failed to record reconcile marker", "error", err)
		}
		closeJournal(p, mgr)
	}

	switch outcome {
	case tree.OutcomeUpdated:
		fmt.Println("File index updated.")
	default:
		fmt.Println("File index unchanged.")
	}

	return nil
}
