package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nbake/nbake/internal/config"
	"github.com/nbake/nbake/internal/ui"
	"github.com/nbake/nbake/internal/vcs"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "inspect",
	Short:   "Show every target's resolved settings",
	Long: `Load the configuration document and print the settings each target will
run with, after falling back from target to global settings to defaults.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := loadOptions()

		doc, err := config.Load(opts.ConfigPath)
		if err != nil {
			return err
		}
		resolver := config.NewResolver(doc.Settings)

		fmt.Printf("\n%s %s\n\n", ui.RenderAccent("⚙"), ui.RenderHeader(opts.ConfigPath))
		fmt.Printf("  git:             %s (timeout %s)\n", resolver.GitPath(), resolver.CommandTimeout())
		fmt.Printf("  targets:         %d\n", len(doc.Targets))

		for i := range doc.Targets {
			t := &doc.Targets[i]
			tc := resolver.TargetConfig(t)

			repo := ui.RenderWarn("will be initialized")
			if vcs.IsUnderVersionControl(tc.Path) {
				repo = ui.RenderPass("git repository")
			}

			fmt.Printf("\n%s\n", ui.RenderHeader(tc.Path))
			fmt.Printf("  repository:      %s\n", repo)
			fmt.Printf("  check interval:  %s\n", tc.CheckInterval)
			fmt.Printf("  quiet period:    %s\n", tc.QuietPeriod)
			fmt.Printf("  commit message:  %q\n", tc.CommitMessage)
			fmt.Printf("  identity:        %s\n", identity(tc))
			fmt.Printf("  ignore list:     %s\n", orNone(strings.Join(tc.IgnorePatterns, ", ")))

			for _, name := range t.RemoteNames() {
				r := tc.Remotes[name]
				push := ""
				if r.AutoPush {
					push = ui.RenderMuted(" (autoPush)")
				}
				fmt.Printf("  remote %-10s %s%s\n", name+":", r.URI, push)
			}
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func identity(tc config.TargetConfig) string {
	switch {
	case tc.UserName == "" && tc.UserEmail == "":
		return ui.RenderMuted("(git default)")
	case tc.UserEmail == "":
		return tc.UserName
	default:
		return fmt.Sprintf("%s <%s>", tc.UserName, tc.UserEmail)
	}
}

func orNone(s string) string {
	if s == "" {
		return ui.RenderMuted("(none)")
	}
	return s
}
