package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/bizdash/internal/assistant"
	"github.com/theirongolddev/bizdash/internal/cli"
	"github.com/theirongolddev/bizdash/internal/daemon"
	"github.com/theirongolddev/bizdash/internal/sheets"
	"github.com/theirongolddev/bizdash/internal/snapshot"
	"github.com/theirongolddev/bizdash/internal/watch"
)

var (
	flagServeAddr         string
	flagServeInterval     time.Duration
	flagServeEventsBuffer int
	flagServeWatch        bool
	flagServeNoMCP        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the refresh loop and serve metrics over HTTP/SSE (and MCP)",
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running server's status",
	RunE:  runServeStatus,
}

func init() {
	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().DurationVar(&flagServeInterval, "interval", 0, "Refresh interval (default from config)")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")
	serveCmd.Flags().BoolVar(&flagServeWatch, "watch", false, "Refresh when a local export file changes")
	serveCmd.Flags().BoolVar(&flagServeNoMCP, "no-mcp", false, "Do not mount the MCP endpoint at /mcp")

	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
}

func serveAddr() string {
	if flagServeAddr != "" {
		return flagServeAddr
	}
	return cfg.Server.Addr
}

func runServe(cmd *cobra.Command, _ []string) error {
	interval, _ := cfg.RefreshInterval()
	if flagServeInterval > 0 {
		if flagServeInterval < snapshot.MinInterval {
			return fmt.Errorf("--interval must be at least %s", snapshot.MinInterval)
		}
		interval = flagServeInterval
	}
	buffer := cfg.Server.EventsBuffer
	if flagServeEventsBuffer > 0 {
		buffer = flagServeEventsBuffer
	}

	src := newSource()
	dcfg := daemon.Config{
		Source:        cfg.Source.URL,
		Interval:      interval,
		Addr:          serveAddr(),
		EventsBuffer:  buffer,
		WatchDebounce: watch.DefaultDebounce,
	}

	if flagServeWatch {
		path, ok := sheets.LocalPath(src)
		if !ok {
			return errors.New("--watch needs a local file source, got " + cfg.Source.URL)
		}
		dcfg.WatchPath = path
	}

	svc := daemon.New(dcfg, src, logger)
	mcpEnabled := cfg.Server.MCP && !flagServeNoMCP
	if mcpEnabled {
		svc.SetMCPHandler(assistant.NewHTTPHandler(assistant.NewServer(svc.Store(), logger)))
	}

	fmt.Printf("  bizdash listening on http://%s\n", dcfg.Addr)
	fmt.Printf("  Refreshing every %s from %s\n", svc.Store().Interval(), describeSource(cfg.Source.URL))
	if mcpEnabled {
		fmt.Printf("  MCP endpoint: http://%s/mcp\n", dcfg.Addr)
	}
	if dcfg.WatchPath != "" {
		fmt.Printf("  Watching %s\n", dcfg.WatchPath)
	}

	return svc.Run(cmd.Context())
}

func runServeStatus(cmd *cobra.Command, _ []string) error {
	addr := serveAddr()
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  API status: malformed response (%v)\n", err)
		return nil
	}

	fmt.Printf("  State: %s\n", st.State)
	if st.LastRefreshAt.IsZero() {
		fmt.Printf("  Last refresh: pending\n")
	} else {
		fmt.Printf("  Last refresh: %s (%s)\n", st.LastRefreshAt.Local().Format(time.RFC3339),
			cli.FormatAge(st.LastRefreshAt, time.Now()))
	}
	fmt.Printf("  Runs: %d started, %d committed, %d discarded, %d in flight\n",
		st.Runs.Started, st.Runs.Committed, st.Runs.Discarded, st.Runs.InFlight)
	fmt.Printf("  Projects: %d\n", st.Summary.Records)
	fmt.Printf("  Revenue: %s\n", money(st.Summary.TotalRevenue))
	if st.LastDelta != nil {
		fmt.Printf("  Last change: %s revenue, %+d clients, %+d delivered\n",
			cli.FormatMoneyDelta(st.LastDelta.TotalRevenue, cfg.Display.Currency),
			st.LastDelta.ActiveClients, st.LastDelta.DeliveredProjects)
	}
	fmt.Printf("  Clients: %d\n", st.Summary.ActiveClients)
	fmt.Printf("  Subscribers: %d\n", st.SubscriberCount)
	if st.Summary.Fallback {
		fmt.Println("  " + cli.RenderWarning("Serving fallback data"))
	}
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}
