package cli

import (
	"fmt"
	"strings"

	"github.com/lorekeep/lore/internal/state"
	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <domain> <title>",
	Short: "Mark an entry as superseded",
	Long: `Mark a memory entry as archived. Entries are never deleted; archiving
sets the entry's status and annotates its index row so readers know the
insight has been superseded.

Examples:
  lore archive decisions "Use Redis for cache"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runArchive,
}

func runArchive(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	if err := treeMustExist(p); err != nil {
		return err
	}

	domain := args[0]
	title := strings.Join(args[1:], " ")

	path, err := p.tree.Archive(domain, title)
	if err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.IncEntriesArchived()
		p.flushMetrics("entry.archived", map[string]string{"domain": domain})
	}

	if mgr := openJournal(p, "archive"); mgr != nil {
		_ = mgr.RecordOp(state.OpRecord{Kind: "archive", Domain: domain, Detail: path})
		closeJournal(p, mgr)
	}

	fmt.Printf("Archived %s\n", path)
	return nil
}
