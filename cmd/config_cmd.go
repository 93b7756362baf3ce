// Package cmd implements the bizdash CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/bizdash/internal/config"
	"github.com/theirongolddev/bizdash/internal/sheets"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	path := config.ConfigPath()
	if flagConfig != "" {
		path = flagConfig
	}
	fmt.Printf("  Config file: %s\n", path)
	if flagConfig != "" || config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Source]")
	fmt.Printf("    URL:     %s\n", cfg.Source.URL)
	if _, local := sheets.LocalPath(newSource()); local {
		fmt.Println("    Kind:    local file")
	} else {
		fmt.Println("    Kind:    HTTP export")
	}
	fmt.Printf("    Timeout: %s\n", cfg.Source.Timeout)
	fmt.Println()

	fmt.Println("  [Refresh]")
	fmt.Printf("    Interval: %s\n", cfg.Refresh.Interval)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	fmt.Printf("    MCP endpoint:  %v\n", cfg.Server.MCP)
	fmt.Println()

	fmt.Println("  [Display]")
	fmt.Printf("    Currency: %s\n", cfg.Display.Currency)
	fmt.Printf("    Theme:    %s\n", cfg.Display.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	fmt.Println()

	fmt.Printf("  Environment overrides: %s, %s, %s, %s\n",
		config.EnvSourceURL, config.EnvRefreshInterval, config.EnvAddr, config.EnvLogLevel)
	fmt.Println("  Run `bizdash setup` to reconfigure.")
	return nil
}
