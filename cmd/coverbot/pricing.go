package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"coverbot/insure"
)

func pricingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricing",
		Short: "Inspect and adjust pricing tiers",
	}
	cmd.AddCommand(pricingListCmd())
	cmd.AddCommand(pricingSetXANCmd())
	cmd.AddCommand(pricingSetEXTCCmd())
	return cmd
}

func pricingListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show configured pricing tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			printPricing(a.engine.Pricing())
			return nil
		},
	}
}

func printPricing(t *insure.PricingTable) {
	fmt.Println("Xanax coverage:")
	xan := t.XANTiers()
	for _, hours := range sortedTiers(xan) {
		p := xan[hours]
		fmt.Printf("  %dH: cost %d xanax, overdose payout %d xanax\n", hours, p.Cost, p.Reward)
	}
	fmt.Println("Ecstasy coverage:")
	extc := t.EXTCTiers()
	for _, jumps := range sortedTiers(extc) {
		p := extc[jumps]
		fmt.Printf("  %d jump(s): cost %d xanax, payout %d xanax + %d eDVDs + %d ecstasy\n",
			jumps, p.Cost, p.Xanax, p.EDVDs, p.Ecstasy)
	}
}

func sortedTiers[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func pricingSetXANCmd() *cobra.Command {
	var (
		hours  int
		cost   int
		reward int
	)
	cmd := &cobra.Command{
		Use:   "set-xan",
		Short: "Set or replace a Xanax coverage tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			a.engine.Pricing().SetXAN(hours, insure.XANPrice{Cost: cost, Reward: reward})
			printPricing(a.engine.Pricing())
			return nil
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 12, "Coverage duration in hours")
	cmd.Flags().IntVar(&cost, "cost", 1, "Cost in xanax")
	cmd.Flags().IntVar(&reward, "reward", 0, "Overdose payout in xanax")
	return cmd
}

func pricingSetEXTCCmd() *cobra.Command {
	var (
		jumps   int
		cost    int
		edvds   int
		xanax   int
		ecstasy int
	)
	cmd := &cobra.Command{
		Use:   "set-extc",
		Short: "Set or replace an Ecstasy coverage tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			a.engine.Pricing().SetEXTC(jumps, insure.EXTCPrice{
				Cost:    cost,
				EDVDs:   edvds,
				Xanax:   xanax,
				Ecstasy: ecstasy,
			})
			printPricing(a.engine.Pricing())
			return nil
		},
	}
	cmd.Flags().IntVar(&jumps, "jumps", 1, "Covered jumps")
	cmd.Flags().IntVar(&cost, "cost", 1, "Cost in xanax")
	cmd.Flags().IntVar(&edvds, "edvds", 0, "eDVD payout")
	cmd.Flags().IntVar(&xanax, "xanax", 0, "Xanax payout")
	cmd.Flags().IntVar(&ecstasy, "ecstasy", 0, "Ecstasy payout")
	return cmd
}
