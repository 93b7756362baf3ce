package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/bizdash/internal/cli"
	"github.com/theirongolddev/bizdash/internal/model"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Headline business metrics",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	res := loadSnapshot(cmd.Context())
	m, records := metricsFor(res.Snapshot)

	if len(records) == 0 {
		fmt.Println("\n  No projects match the selected filters.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("BUSINESS SUMMARY"))
	fmt.Println()

	fmt.Println(cli.RenderStat("Total revenue", cli.RenderMoney(money(m.TotalRevenue)), m.Changes.Revenue))
	fmt.Println(cli.RenderStat("Active clients", cli.RenderCount(cli.FormatNumber(int64(m.ActiveClients))), m.Changes.Clients))
	fmt.Println(cli.RenderStat("Total headshots", cli.RenderCount(cli.FormatNumber(int64(m.TotalHeadshots))), m.Changes.Headshots))
	fmt.Println(cli.RenderStat("Delivered projects", cli.RenderCount(cli.FormatNumber(int64(m.DeliveredProjects))), m.Changes.Completion))
	fmt.Println(cli.RenderStat("Avg revenue / client", cli.RenderMoney(money(m.AvgRevenuePerClient)), ""))
	fmt.Println(cli.RenderStat("Completion rate", cli.FormatRate(m.CompletionRate),
		cli.RenderProgressBar(m.DeliveredProjects, len(records), 20)))
	fmt.Println(cli.RenderStat("Status", fmt.Sprintf("%d delivered, %d in progress",
		m.ProjectStatus.Delivered, m.ProjectStatus.InProgress), ""))
	fmt.Println(cli.RenderStat("Monthly revenue", revenueSparkline(m.RevenueData), monthSpan(m.RevenueData)))
	fmt.Println()

	rows := make([][]string, 0, len(m.RecentProjects))
	for _, p := range m.RecentProjects {
		rows = append(rows, []string{
			cli.Truncate(p.Name, 20),
			cli.FormatNumber(int64(p.Shots)),
			p.Status,
			money(p.Revenue),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Recent projects",
		Headers: []string{"Client", "Shots", "Status", "Revenue"},
		Rows:    rows,
	}))

	printFallbackNotice(res.Snapshot, res.Err)
	return nil
}

func revenueSparkline(data []model.MonthRevenue) string {
	values := make([]float64, len(data))
	for i, d := range data {
		values[i] = d.Revenue
	}
	return cli.RenderSparkline(values)
}

func monthSpan(data []model.MonthRevenue) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) == 1 {
		return data[0].Month
	}
	return data[0].Month + "-" + data[len(data)-1].Month
}

func printFallbackNotice(snap model.Snapshot, err error) {
	if !snap.Fallback {
		return
	}
	fmt.Println()
	fmt.Println("  " + cli.RenderWarning("Showing sample data; the live sheet could not be read."))
	if err != nil {
		fmt.Println("  " + cli.RenderError(err.Error()))
	}
}
