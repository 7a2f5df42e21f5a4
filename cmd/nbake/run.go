package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nbake/nbake/internal/service"
	"github.com/nbake/nbake/internal/ui"
)

var runCmd = &cobra.Command{
	Use:     "run",
	GroupID: "run",
	Short:   "Watch the configured targets until interrupted",
	Long: `Start watching every target in the configuration document.

Each target is initialized as a git repository if needed, then committed
whenever it has been quiet for its quiet period. On Ctrl+C (or when the
service manager stops nbake) every target with pending changes gets one
final commit before exit.

Examples:
  nbake run
  nbake run --config ~/notes/nbake.toml --dashboard-port 8321`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := loadOptions()

		a, err := newApp(opts)
		if err != nil {
			return err
		}
		defer a.Close()

		svcCfg := serviceConfig(opts, a.out)
		svc, _, err := service.New(a, svcCfg)
		if err != nil {
			return err
		}

		if service.Interactive() {
			fmt.Printf("%s Watching %d target(s) from %s\n", ui.RenderAccent("▶"), len(a.doc.Targets), opts.ConfigPath)
			if opts.DashboardPort > 0 {
				fmt.Printf("  Dashboard: http://127.0.0.1:%d\n", opts.DashboardPort)
			}
			fmt.Println("Press Ctrl+C to stop...")
		}

		// Run blocks until the service manager or an interrupt stops us.
		if err := svc.Run(); err != nil {
			return err
		}

		if service.Interactive() {
			fmt.Printf("%s Stopped\n", ui.RenderPass("✓"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
