package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nbake/nbake/internal/dashboard"
	"github.com/nbake/nbake/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "inspect",
	Short:   "Show every tracker of a running nbake",
	Long: `Ask a running nbake for the state of its trackers through the dashboard
endpoint. The running process must have been started with --dashboard-port,
and the same port must be given here.

Examples:
  nbake status --dashboard-port 8321
  NBAKE_DASHBOARD_PORT=8321 nbake status`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := loadOptions()
		if opts.DashboardPort <= 0 {
			return errors.New("dashboard is disabled; pass --dashboard-port")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(opts.DashboardPort))
		data, err := fetchStatus(ctx, addr)
		if err != nil {
			fmt.Printf("%s nbake is not reachable on %s\n", ui.RenderWarn("⚠"), addr)
			return err
		}
		printStatus(os.Stdout, data)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// fetchStatus reads the status message served at addr.
func fetchStatus(ctx context.Context, addr string) (dashboard.StatusData, error) {
	var data dashboard.StatusData

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/status", nil)
	if err != nil {
		return data, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return data, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return data, fmt.Errorf("status request failed: %s", resp.Status)
	}

	var msg dashboard.Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return data, fmt.Errorf("failed to decode status: %w", err)
	}
	if msg.Type != dashboard.MessageTypeStatus {
		return data, fmt.Errorf("unexpected message type %q", msg.Type)
	}
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return data, fmt.Errorf("failed to decode status: %w", err)
	}
	return data, nil
}

func printStatus(w io.Writer, data dashboard.StatusData) {
	fmt.Fprintf(w, "\n%s %d tracker(s)\n\n", ui.RenderAccent("📊"), len(data.Trackers))
	for _, tr := range data.Trackers {
		last := ui.RenderMuted("-")
		if !tr.LastEvent.IsZero() {
			last = tr.LastEvent.Local().Format("15:04:05")
		}
		quiet := time.Duration(tr.QuietPeriodMs) * time.Millisecond
		fmt.Fprintf(w, "  %-5s  last change %-8s  quiet %-6s  %s\n",
			ui.RenderState(tr.State), last, quiet, tr.Path)
	}
	fmt.Fprintln(w)
}
