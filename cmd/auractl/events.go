package main

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"aura/internal/core"
	"aura/internal/ledger"
)

func eventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Record aura events",
	}
	cmd.AddCommand(eventsRecordCommand())
	return cmd
}

func eventsRecordCommand() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "record MEMBER_ID DELTA REASON...",
		Short: "Record a point change for a member",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return core.Invalid("Delta must be an integer.")
			}
			in := core.RecordEventInput{
				MemberID: args[0],
				Delta:    delta,
				Reason:   strings.Join(args[2:], " "),
			}
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return core.Invalid("Invalid occurredAt date.")
				}
				in.OccurredAt = &t
			}
			return withLedger(cmd, func(ctx context.Context, svc *ledger.Service) error {
				item, err := svc.RecordEvent(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), item)
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "when the event happened (RFC 3339, default now)")
	return cmd
}
