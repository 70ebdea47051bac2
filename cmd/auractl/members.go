package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"aura/internal/core"
	"aura/internal/ledger"
)

func membersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Manage team members",
	}
	cmd.AddCommand(membersListCommand())
	cmd.AddCommand(membersAddCommand())
	cmd.AddCommand(membersUpdateCommand())
	cmd.AddCommand(membersRemoveCommand())
	return cmd
}

func membersListCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List members with their current aura",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, svc *ledger.Service) error {
				members, err := svc.ListMembersWithStats(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), members)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tAURA\tTODAY")
				for _, m := range members {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%+d\n", m.ID, m.Name, m.CurrentAura, m.DeltaToday)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func membersAddCommand() *cobra.Command {
	var startingAura int64
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := core.CreateMemberInput{Name: args[0]}
			if cmd.Flags().Changed("aura") {
				in.StartingAura = &startingAura
			}
			return withLedger(cmd, func(ctx context.Context, svc *ledger.Service) error {
				m, err := svc.CreateMember(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), m)
			})
		},
	}
	cmd.Flags().Int64Var(&startingAura, "aura", core.DefaultStartingAura, "starting aura")
	return cmd
}

func membersUpdateCommand() *cobra.Command {
	var (
		name         string
		startingAura int64
	)
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Rename a member or change its starting aura",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMemberID(args[0])
			if err != nil {
				return err
			}
			var in core.UpdateMemberInput
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			if cmd.Flags().Changed("aura") {
				in.StartingAura = &startingAura
			}
			return withLedger(cmd, func(ctx context.Context, svc *ledger.Service) error {
				m, err := svc.UpdateMember(ctx, id, in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), m)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().Int64Var(&startingAura, "aura", 0, "new starting aura")
	return cmd
}

func membersRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a member; its events are kept",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMemberID(args[0])
			if err != nil {
				return err
			}
			return withLedger(cmd, func(ctx context.Context, svc *ledger.Service) error {
				if err := svc.DeleteMember(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", id)
				return nil
			})
		},
	}
}

func parseMemberID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, core.Invalid("Invalid member identifier.")
	}
	return id, nil
}
