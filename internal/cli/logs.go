package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	logsFollow    bool
	logsLines     int
	logsSessionID string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View operation logs",
	Long: `View logs from memory operations.

Examples:
  lore logs                   # View recent logs
  lore logs --follow          # Follow log output
  lore logs --session abc123  # Lines for a specific session`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "number of lines to show")
	logsCmd.Flags().StringVar(&logsSessionID, "session", "", "filter lines by session ID")
}

func runLogs(cmd *cobra.Command, args []string) error {
	logsDir := loreDir("logs")

	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		fmt.Println("No logs found.")
		return nil
	}

	if logsFollow {
		return followLogs(logsDir)
	}

	return showLogs(logsDir)
}

func showLogs(logsDir string) error {
	// Find log files
	var logFiles []string

	err := filepath.Walk(logsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".log") {
			logFiles = append(logFiles, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan logs: %w", err)
	}

	if len(logFiles) == 0 {
		fmt.Println("No matching logs found.")
		return nil
	}

	// Read and display logs
	for _, logFile := range logFiles {
		content, err := readLastLines(logFile, logsLines)
		if err != nil {
			fmt.Printf("Error reading %s: %v\n", logFile, err)
			continue
		}

		fmt.Printf("=== %s ===\n", filepath.Base(logFile))
		fmt.Println(content)
		fmt.Println()
	}

	return nil
}

func followLogs(logsDir string) error {
	fmt.Println("Following logs... (Ctrl+C to stop)")

	// Simple tail -f implementation
	mainLog := filepath.Join(logsDir, "lore.log")

	file, err := os.Open(mainLog)
	if err != nil {
		// If main log doesn't exist, wait for it to appear
		if os.IsNotExist(err) {
			fmt.Println("Waiting for logs...")
			for {
				time.Sleep(time.Second)
				if _, err := os.Stat(mainLog); err == nil {
					file, _ = os.Open(mainLog)
					break
				}
			}
		} else {
			return fmt.Errorf("failed to open log file: %w", err)
		}
	}
	defer file.Close()

	// Seek to end
	file.Seek(0, 2)

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		if logsSessionID != "" && !strings.Contains(line, logsSessionID) {
			continue
		}

		fmt.Print(line)
	}
}

func readLastLines(path string, n int) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if logsSessionID != "" && !strings.Contains(line, logsSessionID) {
			continue
		}
		lines = append(lines, line)
		if len(lines) > n {
			lines = lines[1:]
		}
	}

	return strings.Join(lines, "\n"), scanner.Err()
}
