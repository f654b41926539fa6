package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func claimsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Manage overdose reports",
	}
	cmd.AddCommand(claimsOpenCmd())
	cmd.AddCommand(claimsFinalizeCmd())
	cmd.AddCommand(claimsListCmd())
	cmd.AddCommand(claimsDeleteCmd())
	return cmd
}

func claimsOpenCmd() *cobra.Command {
	var memberID int64
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Report an overdose against a member's active coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			c, err := a.engine.OpenClaim(memberID)
			if err != nil {
				return err
			}
			fmt.Printf("opened report %s for %s, payout %s\n", c.ReportID, c.Member.Username, c.PayoutDetails)
			return nil
		},
	}
	cmd.Flags().Int64Var(&memberID, "member", 0, "Member ID")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func claimsFinalizeCmd() *cobra.Command {
	var (
		memberID int64
		by       string
	)
	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Approve a member's pending overdose report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			c, err := a.engine.FinalizeClaim(memberID, by)
			if err != nil {
				return err
			}
			fmt.Printf("finalized report %s for %s, payout %s\n", c.ReportID, c.Member.Username, c.PayoutDetails)
			return nil
		},
	}
	cmd.Flags().Int64Var(&memberID, "member", 0, "Member ID")
	cmd.Flags().StringVar(&by, "by", "operator", "Who approved the report")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func claimsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List overdose reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			for _, c := range a.engine.Store().Claims() {
				fmt.Printf("  %s  %s [%d]  %s  %s  reported %s\n",
					c.ReportID, c.Member.Username, c.Member.ID, c.Status, c.PayoutDetails,
					c.ReportedAt.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func claimsDeleteCmd() *cobra.Command {
	var memberID int64
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a member's overdose reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.engine.DeleteClaims(memberID)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d report(s) for member %d\n", n, memberID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&memberID, "member", 0, "Member ID")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}
