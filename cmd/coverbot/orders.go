package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"coverbot/insure"
)

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect and manage coverage orders",
	}
	cmd.AddCommand(ordersListCmd())
	cmd.AddCommand(ordersActivateCmd())
	cmd.AddCommand(ordersDeleteCmd())
	cmd.AddCommand(ordersGiveCmd())
	return cmd
}

func ordersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending, active, and expired orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			now := time.Now()
			store := a.engine.Store()

			fmt.Println("Pending:")
			for _, o := range store.PendingOrders() {
				printOrder(o)
			}
			fmt.Println("Active:")
			for _, o := range store.ActiveOrders(now) {
				printOrder(o)
			}
			fmt.Println("Expired:")
			for _, o := range store.ExpiredOrders() {
				printOrder(o)
			}
			return nil
		},
	}
}

func printOrder(o insure.Order) {
	extra := ""
	if o.AutoDetected {
		extra = " (auto)"
	}
	fmt.Printf("  %s  %s [%d]  %s  paid=%d  reward=%s%s\n",
		o.OrderID, o.Member.Username, o.Member.ID, o.CoverageLabel(), o.Payment, o.PayoutDetails(), extra)
}

func ordersActivateCmd() *cobra.Command {
	var memberID int64
	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Manually activate a member's pending order",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			o, err := a.engine.ActivateOrder(memberID)
			if err != nil {
				return err
			}
			fmt.Printf("activated %s for %s, expires %s\n",
				o.OrderID, o.Member.Username, o.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().Int64Var(&memberID, "member", 0, "Member ID")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func ordersDeleteCmd() *cobra.Command {
	var memberID int64
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a member's pending orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.engine.DeletePendingOrders(memberID)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d pending order(s) for member %d\n", n, memberID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&memberID, "member", 0, "Member ID")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func ordersGiveCmd() *cobra.Command {
	var (
		memberID int64
		kindStr  string
		param    int
		reward   int
	)
	cmd := &cobra.Command{
		Use:   "give",
		Short: "Grant a member active coverage without payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			member, err := a.member(memberID)
			if err != nil {
				return err
			}
			kind := insure.CoverageKind(strings.ToUpper(kindStr))
			o, err := a.engine.GiveCoverage(member, kind, param, reward)
			if err != nil {
				return err
			}
			fmt.Printf("granted %s to %s, expires %s\n",
				o.CoverageLabel(), o.Member.Username, o.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().Int64Var(&memberID, "member", 0, "Member ID")
	cmd.Flags().StringVar(&kindStr, "kind", "XAN", "Coverage kind (XAN or EXTC)")
	cmd.Flags().IntVar(&param, "param", 12, "Hours for XAN, jumps for EXTC")
	cmd.Flags().IntVar(&reward, "reward", 0, "Xanax payout on overdose")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}
