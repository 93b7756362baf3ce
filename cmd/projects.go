package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/bizdash/internal/cli"
)

var flagProjectsLimit int

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Project records from the sheet",
	RunE:  runProjects,
}

func init() {
	projectsCmd.Flags().IntVarP(&flagProjectsLimit, "limit", "l", 0, "Show at most this many rows (0 = all)")
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, _ []string) error {
	res := loadSnapshot(cmd.Context())
	records := applyFilters(res.Snapshot.Records)

	if len(records) == 0 {
		fmt.Println("\n  No projects match the selected filters.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PROJECTS  %d", len(records))))
	fmt.Println()

	if flagProjectsLimit > 0 && len(records) > flagProjectsLimit {
		records = records[:flagProjectsLimit]
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			cli.Truncate(r.Client, 18),
			cli.FormatNumber(int64(r.Headshots)),
			money(r.PriceFloat()),
			cli.Truncate(r.Status, 12),
			cli.Truncate(r.PaymentStatus, 10),
			cli.Truncate(r.AssignedPhotographer, 14),
			cli.FormatRating(r.Rating),
			r.Date,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Client", "Shots", "Price", "Status", "Payment", "Photographer", "Rating", "Date"},
		Rows:    rows,
	}))

	printFallbackNotice(res.Snapshot, res.Err)
	return nil
}
