package cli

import (
	"github.com/spf13/cobra"

	"github.com/NullVoxPopuli/dep-hellp/pkg/workspace"
)

// completionShells maps each supported shell to its script generator.
var completionShells = map[string]func(root *cobra.Command, cmd *cobra.Command) error{
	"bash": func(root, cmd *cobra.Command) error { return root.GenBashCompletionV2(cmd.OutOrStdout(), true) },
	"zsh":  func(root, cmd *cobra.Command) error { return root.GenZshCompletion(cmd.OutOrStdout()) },
	"fish": func(root, cmd *cobra.Command) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) },
	"powershell": func(root, cmd *cobra.Command) error {
		return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	},
}

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for dephellp.

Besides subcommands and flags, the scripts complete directories for --dir,
TOML files for --config, graph formats for --format and the workspace
package names of the audited repository for graph --package.

  bash  source <(dephellp completion bash)
  zsh   dephellp completion zsh > "${fpath[1]}/_dephellp"
  fish  dephellp completion fish > ~/.config/fish/completions/dephellp.fish
  pwsh  dephellp completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionShells[args[0]](cmd.Root(), cmd)
		},
	}
}

// completeAuditFlags registers value completions for the flags shared by
// check and graph.
func completeAuditFlags(cmd *cobra.Command) {
	_ = cmd.MarkFlagDirname("dir")
	_ = cmd.MarkFlagFilename("config", "toml")
}

// completeGraphFlags registers value completions for the graph command.
func completeGraphFlags(cmd *cobra.Command) {
	completeAuditFlags(cmd)
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(graphFormats, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("package", completePackageNames)
}

// completePackageNames offers the names of the packages that would be
// audited from --dir.
func completePackageNames(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	dir, _ := cmd.Flags().GetString("dir")
	start, err := resolveDir(dir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	ws, err := workspace.Find(start)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, p := range ws.Targets() {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
