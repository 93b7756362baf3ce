package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/bizdash/internal/cli"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Revenue by client, highest first",
	RunE:  runClients,
}

func init() {
	rootCmd.AddCommand(clientsCmd)
}

func runClients(cmd *cobra.Command, _ []string) error {
	res := loadSnapshot(cmd.Context())
	m, _ := metricsFor(res.Snapshot)

	fmt.Println()
	fmt.Println(cli.RenderTitle("REVENUE BY CLIENT"))
	fmt.Println()

	top := 0.0
	if len(m.ClientRevenue) > 0 {
		top = m.ClientRevenue[0].Revenue
	}

	rows := make([][]string, 0, len(m.ClientRevenue))
	for _, c := range m.ClientRevenue {
		share := ""
		if m.TotalRevenue > 0 {
			share = cli.FormatRate(c.Revenue / m.TotalRevenue * 100)
		}
		rows = append(rows, []string{cli.Truncate(c.Name, 24), money(c.Revenue), share})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Client", "Revenue", "Share"},
		Rows:    rows,
	}))
	fmt.Println()

	for _, c := range m.ClientRevenue {
		fmt.Println(cli.RenderHorizontalBar(c.Name, c.Revenue, top, 30, cli.FormatMoneyCompact(c.Revenue, cfg.Display.Currency)))
	}

	printFallbackNotice(res.Snapshot, res.Err)
	return nil
}
