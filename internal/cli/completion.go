package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for lore.

To load completions:

Bash:
  $ source <(lore completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ lore completion bash > /etc/bash_completion.d/lore
  # macOS:
  $ lore completion bash > $(brew --prefix)/etc/bash_completion.d/lore

Zsh:
  $ source <(lore completion zsh)
  # To load completions for each session, execute once:
  $ lore completion zsh > "${fpath[1]}/_lore"

Fish:
  $ lore completion fish | source
  # To load completions for each session, execute once:
  $ lore completion fish > ~/.config/fish/completions/lore.fish

PowerShell:
  PS> lore completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}
