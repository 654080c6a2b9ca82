package cli

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/lorekeep/lore/internal/config"
	"github.com/lorekeep/lore/internal/state"
	"github.com/lorekeep/lore/internal/tree"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment and memory tree health",
	Long:  "Validate configuration, the memory tree and its indexes, and the state database.",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("lore doctor — checking your environment")
	fmt.Println()
	allOK := true

	// 1. Go version
	fmt.Printf("  Go version: %s", runtime.Version())
	fmt.Println(" ✓")

	// 2. OS/Arch
	fmt.Printf("  Platform:   %s/%s", runtime.GOOS, runtime.GOARCH)
	fmt.Println(" ✓")

	// 3. Configuration
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Println("  Config:     NOT FOUND ✗")
		fmt.Printf("    → Run 'lore init' to create a project\n")
		allOK = false
	} else if verr := config.Validate(cfg); verr != nil {
		fmt.Printf("  Config:     INVALID (%s) ✗\n", verr)
		allOK = false
	} else {
		fmt.Printf("  Config:     %s v%s", cfg.Name, cfg.Version)
		fmt.Println(" ✓")
	}

	// 4. Memory tree
	if cfg != nil {
		t := tree.New(cfg.Memory.Root)
		if !t.Exists() {
			fmt.Printf("  Memory:     NOT INITIALIZED ✗\n")
			fmt.Printf("    → Run 'lore init' to create the tree at %s\n", cfg.Memory.Root)
			allOK = false
		} else {
			fmt.Printf("  Memory:     %s", cfg.Memory.Root)
			fmt.Println(" ✓")

			// 5. Index audit
			problems, err := t.Audit()
			switch {
			case err != nil:
				fmt.Printf("  Indexes:    AUDIT FAILED (%s) ✗\n", err)
				allOK = false
			case len(problems) > 0:
				fmt.Printf("  Indexes:    %d problem(s) ✗\n", len(problems))
				for _, p := range problems {
					fmt.Printf("    → %s\n", p)
				}
				fmt.Printf("    → Run 'lore write' or re-run 'lore init' to repair\n")
				allOK = false
			default:
				fmt.Println("  Indexes:    consistent ✓")
			}
		}
	}

	// 6. State database
	if cfg != nil {
		mgr, err := state.NewManager(cfg.State.Driver, cfg.State.Path)
		if err != nil {
			fmt.Printf("  State DB:   FAILED (%s) ✗\n", err)
			allOK = false
		} else {
			mgr.Close()
			fmt.Printf("  State DB:   %s (%s)", cfg.State.Driver, cfg.State.Path)
			fmt.Println(" ✓")
		}
	}

	// 7. Git
	if _, err := exec.LookPath("git"); err == nil {
		fmt.Println("  Git:        available ✓")
	} else {
		fmt.Println("  Git:        NOT FOUND ✗")
		allOK = false
	}

	fmt.Println()
	if allOK {
		fmt.Println("All checks passed!")
	} else {
		fmt.Println("Some checks failed. See above for details.")
	}

	return nil
}
