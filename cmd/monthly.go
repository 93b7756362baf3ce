package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/bizdash/internal/cli"
)

var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Revenue by calendar month",
	RunE:  runMonthly,
}

func init() {
	rootCmd.AddCommand(monthlyCmd)
}

func runMonthly(cmd *cobra.Command, _ []string) error {
	res := loadSnapshot(cmd.Context())
	m, _ := metricsFor(res.Snapshot)

	fmt.Println()
	fmt.Println(cli.RenderTitle("MONTHLY REVENUE"))
	fmt.Println()

	top := 0.0
	for _, d := range m.RevenueData {
		top = max(top, d.Revenue)
	}

	rows := make([][]string, 0, len(m.RevenueData))
	for _, d := range m.RevenueData {
		rows = append(rows, []string{d.Month, money(d.Revenue)})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "Revenue"},
		Rows:    rows,
	}))
	fmt.Println()

	for _, d := range m.RevenueData {
		fmt.Println(cli.RenderHorizontalBar(d.Month, d.Revenue, top, 30, cli.FormatMoneyCompact(d.Revenue, cfg.Display.Currency)))
	}
	fmt.Printf("\n  Trend %s\n", revenueSparkline(m.RevenueData))

	printFallbackNotice(res.Snapshot, res.Err)
	return nil
}
