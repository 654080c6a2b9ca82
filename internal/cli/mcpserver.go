package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lorekeep/lore/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpServerCmd = &cobra.Command{
	Use:   "mcp-server",
	Short: "Run the MCP stdio server",
	Long: `Stdio MCP server exposing the memory tree as tools
(memory_write, memory_search, memory_reconcile, memory_status,
memory_archive). Intended to be launched by an agent host over stdio.`,
	RunE: runMCPServer,
}

func runMCPServer(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	if err := treeMustExist(p); err != nil {
		return err
	}

	// Journal every tool call when the state store is reachable.
	mgr := openJournal(p, "mcp")
	defer closeJournal(p, mgr)

	server := mcp.NewServer(p.tree, mgr, ".", p.cfg.Memory.ExcludePatterns)
	return server.Run(ctx)
}
