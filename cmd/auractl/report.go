package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"aura/internal/core"
	"aura/internal/ledger"
)

func overviewCommand() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Print the team overview for a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, svc *ledger.Service) error {
				var startAt, endAt *time.Time
				if start != "" {
					t, err := core.ParseDay(start, svc.Location())
					if err != nil {
						return err
					}
					startAt = &t
				}
				if end != "" {
					t, err := core.ParseDay(end, svc.Location())
					if err != nil {
						return err
					}
					endAt = &t
				}
				ov, err := svc.GetOverview(ctx, startAt, endAt)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), ov)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "range start (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&end, "end", "", "range end (YYYY-MM-DD or RFC 3339)")
	return cmd
}

func timelineCommand() *cobra.Command {
	var start, end string
	var days int
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Print daily balances for every member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, svc *ledger.Service) error {
				endAt := svc.Now()
				if end != "" {
					t, err := core.ParseDay(end, svc.Location())
					if err != nil {
						return err
					}
					endAt = t
				}
				if !cmd.Flags().Changed("days") {
					days = svc.OverviewDays()
				}
				startAt := endAt.AddDate(0, 0, -days)
				if start != "" {
					t, err := core.ParseDay(start, svc.Location())
					if err != nil {
						return err
					}
					startAt = t
				}
				tl, err := svc.GetTimeline(ctx, startAt, endAt)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tl)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&end, "end", "", "last day (YYYY-MM-DD or RFC 3339, default today)")
	cmd.Flags().IntVar(&days, "days", ledger.DefaultOverviewDays, "days before end when --start is not given (default from config)")
	return cmd
}
