package cli

import (
	"fmt"
	"time"

	"github.com/lorekeep/lore/internal/state"
	"github.com/spf13/cobra"
)

var (
	statusWatch bool
	statusJSON  bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show memory tree status",
	Long: `Display per-domain entry counts and recent write sessions.

Examples:
  lore status          # Show current status
  lore status --watch  # Live view, refreshed every 2s
  lore status --json   # Machine-readable output`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "watch mode with live updates")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "machine-readable output")
}

func runStatus(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	if err := treeMustExist(p); err != nil {
		return err
	}

	if statusWatch {
		return watchStatus(p)
	}

	return showStatus(p)
}

func showStatus(p *project) error {
	stats, err := p.tree.Stats()
	if err != nil {
		return fmt.Errorf("failed to collect tree stats: %w", err)
	}

	if statusJSON {
		return printJSON(map[string]interface{}{
			"root":    p.tree.Root,
			"domains": stats,
		})
	}

	fmt.Printf("Memory tree: %s\n", p.tree.Root)
	fmt.Println("--------------------")

	total := 0
	for _, st := range stats {
		updated := st.Updated
		if updated == "" {
			updated = "-"
		}
		fmt.Printf("  %-13s %4d   last touched %s\n", st.Domain, st.Entries, updated)
		total += st.Entries
	}
	fmt.Printf("\n%d entries across %d domains\n", total, len(stats))

	showRecentSessions(p)
	return nil
}

// showRecentSessions prints the tail of the session journal. Best effort:
// a missing or unreadable journal never fails the status command.
func showRecentSessions(p *project) {
	mgr, err := state.NewManager(p.cfg.State.Driver, p.cfg.State.Path)
	if err != nil {
		return
	}
	defer mgr.Close()

	sessions, err := mgr.ListSessions(5)
	if err != nil || len(sessions) == 0 {
		return
	}

	fmt.Println("\nRecent sessions:")
	fmt.Println("----------------")

	for _, sess := range sessions {
		icon := getStatusIcon(sess.Status)
		fmt.Printf("%s %s  %s  %d op(s)  (%s)\n",
			icon,
			sess.ID[:8],
			sess.Tool,
			len(sess.Ops),
			sess.Status,
		)
		fmt.Printf("   Started: %s\n", sess.StartedAt.Format(time.RFC3339))
		if !sess.CompletedAt.IsZero() {
			fmt.Printf("   Completed: %s (duration: %s)\n",
				sess.CompletedAt.Format(time.RFC3339),
				sess.CompletedAt.Sub(sess.StartedAt).Round(time.Second),
			)
		}
		if sess.Error != "" {
			fmt.Printf("   Error: %s\n", sess.Error)
		}
		fmt.Println()
	}
}

func watchStatus(p *project) error {
	fmt.Println("Watching for updates... (Ctrl+C to stop)")

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		// Clear screen (simple approach)
		fmt.Print("\033[H\033[2J")

		if err := showStatus(p); err != nil {
			fmt.Printf("Error: %v\n", err)
		}

		fmt.Printf("\nLast updated: %s\n", time.Now().Format(time.RFC3339))

		<-ticker.C
	}
}

func getStatusIcon(status string) string {
	switch status {
	case "active":
		return "◐"
	case "completed":
		return "●"
	case "failed":
		return "✗"
	default:
		return "?"
	}
}
