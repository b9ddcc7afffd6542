package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"facestage/internal/session"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recent visitor sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := session.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No sessions recorded")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, s := range items {
				rows = append(rows, []string{
					s.ID,
					string(s.Outcome),
					s.StartedAt.Local().Format("2006-01-02 15:04:05"),
					formatSessionDuration(s),
					dashIfEmpty(s.ShareKey),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Session", "Outcome", "Started", "Duration", "Share key"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			fmt.Fprintln(out)

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Totals: %s\n", formatStats(stats))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to show")
	return cmd
}

func formatSessionDuration(s *session.Session) string {
	d := s.Duration()
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func formatStats(stats map[session.Outcome]int) string {
	keys := make([]string, 0, len(stats))
	for outcome := range stats {
		keys = append(keys, string(outcome))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, stats[session.Outcome(k)]))
	}
	return strings.Join(parts, " ")
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
