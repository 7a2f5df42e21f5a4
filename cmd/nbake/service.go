package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nbake/nbake/internal/logging"
	"github.com/nbake/nbake/internal/service"
	"github.com/nbake/nbake/internal/ui"
)

var serviceCmd = &cobra.Command{
	Use:     "service",
	GroupID: "run",
	Short:   "Manage nbake as a system service",
	Long: `Install, uninstall, start, stop, restart, or check the status of nbake as a
system service.

On Linux this manages a systemd (or SysV) unit, on macOS a launchd agent and
on Windows a Windows Service. The installed service runs "nbake run" with the
options given here, so pass --config and friends to install.

Examples:
  nbake service install --config ~/.config/nbake/nbake.yaml
  nbake service start
  nbake service status`,
}

func init() {
	for _, action := range service.Actions {
		serviceCmd.AddCommand(serviceActionCmd(action))
	}
	serviceCmd.AddCommand(serviceStatusCmd)
	rootCmd.AddCommand(serviceCmd)
}

func serviceActionCmd(action string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: fmt.Sprintf("%s the nbake service", capitalize(action)),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := loadOptions()
			if action == "install" {
				abs, err := filepath.Abs(opts.ConfigPath)
				if err != nil {
					return err
				}
				opts.ConfigPath = abs
			}

			svc, _, err := service.New(nil, serviceConfig(opts, nil))
			if err != nil {
				return err
			}
			if err := service.Control(svc, action); err != nil {
				return err
			}

			fmt.Printf("%s Service %s: %s\n", ui.RenderPass("✓"), opts.ServiceName, action)
			if action == "install" {
				fmt.Printf("  Config: %s\n", opts.ConfigPath)
				fmt.Println("\nTo start the service, run:")
				fmt.Println("  nbake service start")
			}
			return nil
		},
	}
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the nbake service is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := loadOptions()

		svc, _, err := service.New(nil, serviceConfig(opts, nil))
		if err != nil {
			return err
		}
		status, err := service.Status(svc)
		if err != nil {
			fmt.Printf("%s Service %s: not installed\n", ui.RenderWarn("⚠"), opts.ServiceName)
			return err
		}

		switch status {
		case "running":
			fmt.Printf("%s Service %s: %s\n", ui.RenderPass("✓"), opts.ServiceName, status)
		default:
			fmt.Printf("%s Service %s: %s\n", ui.RenderWarn("⚠"), opts.ServiceName, status)
		}
		return nil
	},
}

// serviceConfig describes the service so that the manager re-runs nbake with
// the same options.
func serviceConfig(opts options, out *logging.Output) *service.Config {
	cfg := service.DefaultConfig()
	cfg.Name = opts.ServiceName
	cfg.Arguments = serviceArguments(opts)
	if out != nil {
		cfg.Logger = out.Logger("service")
	}
	return cfg
}

func serviceArguments(opts options) []string {
	args := []string{"run", "--config", opts.ConfigPath, "--journal", opts.JournalPath}
	if opts.LogFile != "" {
		args = append(args, "--log-file", opts.LogFile)
	}
	if opts.DashboardPort > 0 {
		args = append(args, "--dashboard-port", strconv.Itoa(opts.DashboardPort))
	}
	if opts.Verbose {
		args = append(args, "--verbose")
	}
	if opts.ServiceName != "" {
		args = append(args, "--service-name", opts.ServiceName)
	}
	return args
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
