package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show ledger statistics and cost analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if a.ledger == nil {
				fmt.Println("No ledger configured (set db: in config)")
				return nil
			}

			stats, err := a.ledger.Stats()
			if err != nil {
				return err
			}
			fmt.Println("Coverage history:")
			fmt.Printf("  total=%d pending=%d active=%d xan=%d extc=%d\n",
				stats.TotalOrders, stats.PendingOrders, stats.ActiveOrders, stats.XANOrders, stats.EXTCOrders)

			analysis, err := a.ledger.Analyze()
			if err != nil {
				return err
			}
			fmt.Println("Cost analysis:")
			fmt.Printf("  received %d xanax over %d payment(s)\n", analysis.ReceivedAmount, analysis.ReceivedTransactions)
			fmt.Printf("  paid out %d xanax over %d payout(s)\n", analysis.PaidAmount, analysis.PaidTransactions)
			fmt.Printf("  net %d xanax\n", analysis.Profit)
			if len(analysis.TopPayers) > 0 {
				fmt.Println("  top payers:")
				for _, p := range analysis.TopPayers {
					fmt.Printf("    %s: %d\n", p.Username, p.TotalAmount)
				}
			}
			if len(analysis.TopReceivers) > 0 {
				fmt.Println("  top receivers:")
				for _, p := range analysis.TopReceivers {
					fmt.Printf("    %s: %d\n", p.Username, p.TotalAmount)
				}
			}
			return nil
		},
	}
}
