package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nbake/nbake/internal/ui"
)

// options are the process-level settings shared by every command.
// Each can come from a flag or from an NBAKE_* environment variable.
type options struct {
	ConfigPath    string
	LogFile       string
	Verbose       bool
	JournalPath   string
	DashboardPort int
	ServiceName   string
}

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "nbake",
	Short: "Auto-commit watched directories after a quiet period",
	Long: `nbake watches one or more directory trees and commits accumulated
changes into each directory's git repository once no change has been seen
for a configurable quiet period.

Targets and their settings are read from a YAML or TOML document:

  settings:
    commitCheckTimerPeriodMs: 10000
  targets:
    - path: ~/notes
      settings: {quietPeriodMs: 30000, ignoreList: "*.tmp,*.swp"}

Every flag can also be set through the environment, e.g. NBAKE_CONFIG or
NBAKE_DASHBOARD_PORT.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if v.GetBool("no-color") {
			ui.DisableColor()
		} else {
			ui.SetOutput(os.Stdout)
		}
		return nil
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "run", Title: "Running:"},
		&cobra.Group{ID: "inspect", Title: "Inspecting:"},
	)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", filepath.Join(dataDir(), "nbake.yaml"), "Configuration document (.yaml, .yml or .toml)")
	flags.String("log-file", "", "Also write logs to this file, rotated by size")
	flags.BoolP("verbose", "v", false, "Log every change notification")
	flags.String("journal", filepath.Join(dataDir(), "journal.db"), "Commit journal database (empty disables)")
	flags.Int("dashboard-port", 0, "Serve the live dashboard on this port (0 disables)")
	flags.String("service-name", "nbake", "Name of the installed system service")
	flags.Bool("no-color", false, "Disable colored output")

	v.SetEnvPrefix("NBAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// loadOptions reads the bound flags and environment.
func loadOptions() options {
	return options{
		ConfigPath:    expandHome(v.GetString("config")),
		LogFile:       expandHome(v.GetString("log-file")),
		Verbose:       v.GetBool("verbose"),
		JournalPath:   expandHome(v.GetString("journal")),
		DashboardPort: v.GetInt("dashboard-port"),
		ServiceName:   v.GetString("service-name"),
	}
}

// dataDir is where nbake keeps its configuration and journal by default.
func dataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".nbake"
	}
	return filepath.Join(dir, "nbake")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
