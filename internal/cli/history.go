package cli

import (
	"fmt"
	"path/filepath"

	"github.com/lucasnoah/dockhand/internal/config"
	"github.com/lucasnoah/dockhand/internal/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [path]",
	Short: "Show recorded build events for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := config.LoadDefault()
		if err != nil {
			return err
		}
		dsn := cfg.HistoryDSN()
		if dsn == "" {
			return fmt.Errorf("no history database configured (set history.dsn or DOCKHAND_DB_URL)")
		}

		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		journal, err := history.Open(cmd.Context(), dsn)
		if err != nil {
			return err
		}
		defer journal.Close()

		events, err := journal.Recent(cmd.Context(), root, limit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no recorded events")
			return nil
		}

		for _, e := range events {
			line := fmt.Sprintf("%s  %-20s", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Event)
			if e.Attempt > 0 {
				line += fmt.Sprintf("  attempt=%d", e.Attempt)
			}
			if e.Detail != "" {
				detail := e.Detail
				if len(detail) > 80 {
					detail = detail[:80] + "…"
				}
				line += "  " + detail
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 50, "Maximum events to show")
}
