package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-haptics/internal/history"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent actuations, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.Flags().Int("limit", history.DefaultLimit, fmt.Sprintf("Number of events (max %d)", history.MaxLimit))
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 1 {
		return errors.New("--limit must be at least 1")
	}

	db, repo, err := openHistory(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	events, err := repo.Recent(cmd.Context(), history.ClampLimit(limit))
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	out := newOutputFormatter(cmd)
	if out.jsonMode {
		if events == nil {
			events = []history.Event{}
		}
		return out.printJSON(events)
	}
	if len(events) == 0 {
		out.printf("No actuations recorded\n")
		return nil
	}

	w := tabwriter.NewWriter(out.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSOURCE\tPATTERN\tDEVICE\tATTEMPTS\tRESULT")
	for _, e := range events {
		result := "ok"
		if !e.Success {
			result = e.Error
		}
		device := e.DeviceID
		if device == "" {
			device = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n",
			e.OccurredAt.Local().Format(time.DateTime), e.Source, e.Pattern, device, e.Attempts, result)
	}
	return w.Flush()
}
