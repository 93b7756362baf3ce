package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/bizdash/internal/cli"
	"github.com/theirongolddev/bizdash/internal/config"
	"github.com/theirongolddev/bizdash/internal/model"
	"github.com/theirongolddev/bizdash/internal/pipeline"
	"github.com/theirongolddev/bizdash/internal/sheets"
)

var (
	flagConfig   string
	flagSource   string
	flagQuiet    bool
	flagLogLevel string
	flagClient   string
	flagStatus   string
	flagPayment  string
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:               "bizdash",
	Short:             "Business dashboard metrics from a project spreadsheet",
	Long:              "Fetch the project sheet export, derive revenue, client and delivery metrics, and serve them to dashboards and assistants.",
	PersistentPreRunE: initRuntime,
	RunE:              runSummary,
	SilenceUsage:      true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVarP(&flagSource, "source", "s", "", "Export URL or local CSV path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&flagClient, "client", "c", "", "Filter to client (substring match)")
	rootCmd.PersistentFlags().StringVar(&flagStatus, "status", "", "Filter to project status (substring match)")
	rootCmd.PersistentFlags().StringVar(&flagPayment, "payment", "", "Filter to payment status (substring match)")
}

// initRuntime loads config and builds the logger before any command runs.
func initRuntime(_ *cobra.Command, _ []string) error {
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if flagSource != "" {
		cfg.Source.URL = flagSource
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}

	level, err := config.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cli.SetTheme(cfg.Display.Theme)
	return nil
}

// newSource builds the configured export source.
func newSource() sheets.Source {
	timeout, _ := cfg.SourceTimeout()
	return sheets.NewSource(cfg.Source.URL, sheets.WithTimeout(timeout))
}

// loadSnapshot is the shared one-shot pipeline run used by the data commands.
func loadSnapshot(ctx context.Context) pipeline.Result {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Fetching %s...\n", describeSource(cfg.Source.URL))
	}

	res := pipeline.Run(ctx, newSource())

	if !flagQuiet {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "  %s\n", cli.RenderWarning("Using fallback data: "+res.Err.Error()))
		} else {
			fmt.Fprintf(os.Stderr, "  Loaded %s projects in %s", cli.FormatNumber(int64(len(res.Snapshot.Records))),
				res.Duration.Round(time.Millisecond))
			if res.DroppedLines > 0 {
				fmt.Fprintf(os.Stderr, " (%d short lines skipped)", res.DroppedLines)
			}
			fmt.Fprintln(os.Stderr)
		}
	}
	return res
}

// applyFilters narrows records by the --client/--status/--payment flags.
func applyFilters(records []model.ProjectRecord) []model.ProjectRecord {
	filtered := pipeline.FilterByClient(records, flagClient)
	filtered = pipeline.FilterByStatus(filtered, flagStatus)
	return pipeline.FilterByPaymentStatus(filtered, flagPayment)
}

func filtersActive() bool {
	return flagClient != "" || flagStatus != "" || flagPayment != ""
}

// metricsFor recomputes metrics when filters narrow the record set.
func metricsFor(snap model.Snapshot) (model.BusinessMetrics, []model.ProjectRecord) {
	if !filtersActive() {
		return snap.Metrics, snap.Records
	}
	records := applyFilters(snap.Records)
	return pipeline.Aggregate(records), records
}

func describeSource(loc string) string {
	return cli.Truncate(loc, 60)
}

func money(amount float64) string {
	return cli.FormatMoney(amount, cfg.Display.Currency)
}
