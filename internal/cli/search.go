package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/lorekeep/lore/internal/state"
	"github.com/spf13/cobra"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the memory tree",
	Long: `Search the memory tree in prioritized passes: index summaries first,
then filenames, tag lines, and finally full text. Results are ranked by
recency, confidence, and domain affinity, capped at the configured limit.

Examples:
  lore search postgres
  lore search "login timeout"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "machine-readable output")
}

func runSearch(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	if err := treeMustExist(p); err != nil {
		return err
	}

	query := strings.Join(args, " ")

	start := time.Now()
	result, err := p.tree.Search(query)
	if err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.IncSearches()
		p.metrics.RecordSearchLatency(time.Since(start))
		p.flushMetrics("search.completed", map[string]string{"query": query})
	}

	if mgr := openJournal(p, "search"); mgr != nil {
		_ = mgr.RecordOp(state.OpRecord{Kind: "search", Detail: query})
		closeJournal(p, mgr)
	}

	if searchJSON {
		return printJSON(result)
	}

	if result.NoMatches {
		fmt.Printf("No matches for %q.\n", query)
		return nil
	}

	fmt.Printf("%d match(es) for %q:\n\n", len(result.Matches), query)
	for _, m := range result.Matches {
		fmt.Printf("  %-11s %s\n", "["+m.Domain+"]", m.Title)
		fmt.Printf("              %s", m.Path)
		if m.Updated != "" {
			fmt.Printf("  (updated %s)", m.Updated)
		}
		fmt.Println()
		if m.Summary != "" {
			fmt.Printf("              %s\n", m.Summary)
		}
	}

	return nil
}
