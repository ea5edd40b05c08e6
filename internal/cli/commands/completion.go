package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/dictgen/internal/cli/config"
)

// NewCompletionCommand creates the completion command for shell completions
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for dictgen.

Owner flags complete from the connections in dictgen.yml.

Bash:

  $ source <(dictgen completion bash)

Zsh:

  $ dictgen completion zsh > "${fpath[1]}/_dictgen"

Fish:

  $ dictgen completion fish | source

PowerShell:

  PS> dictgen completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			out := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeOwners suggests configured owner names. It reads the config
// file only, without connecting.
func completeOwners(g *GlobalOptions) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := config.Load(g.ConfigPath)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		var owners []string
		for _, name := range cfg.Owners() {
			owner := strings.ToUpper(name)
			if strings.HasPrefix(owner, strings.ToUpper(toComplete)) {
				owners = append(owners, owner)
			}
		}
		return owners, cobra.ShellCompDirectiveNoFileComp
	}
}
