package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nbake/nbake/internal/journal"
	"github.com/nbake/nbake/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:     "history [path]",
	GroupID: "inspect",
	Short:   "Show recent commit attempts from the journal",
	Long: `List the most recent commit attempts recorded by a running nbake, newest
first. Pass a target path to show only that target.

Examples:
  nbake history
  nbake history ~/notes --limit 50`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := loadOptions()
		limit, _ := cmd.Flags().GetInt("limit")

		if opts.JournalPath == "" {
			return errors.New("journal is disabled")
		}
		if _, err := os.Stat(opts.JournalPath); err != nil {
			fmt.Printf("%s No journal at %s yet\n", ui.RenderWarn("⚠"), opts.JournalPath)
			return nil
		}

		path := ""
		if len(args) == 1 {
			abs, err := filepath.Abs(expandHome(args[0]))
			if err != nil {
				return err
			}
			path = abs
		}

		j, err := journal.Open(opts.JournalPath)
		if err != nil {
			return err
		}
		defer j.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		entries, err := j.Recent(ctx, path, limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No commits recorded")
			return nil
		}

		for _, e := range entries {
			detail := shortHead(e.Head)
			if e.Error != "" {
				detail = e.Error
			}
			fmt.Printf("%s  %-9s  %6s  %s  %s\n",
				e.StartedAt.Local().Format("2006-01-02 15:04:05"),
				ui.RenderOutcome(e.Outcome),
				e.Duration.Round(time.Millisecond),
				e.Path,
				ui.RenderMuted(detail),
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", journal.DefaultLimit, "Maximum number of entries")
	rootCmd.AddCommand(historyCmd)
}

func shortHead(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
