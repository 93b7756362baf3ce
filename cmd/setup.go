package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/bizdash/internal/cli"
	"github.com/theirongolddev/bizdash/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	next := cfg
	path := config.ConfigPath()
	if flagConfig != "" {
		path = flagConfig
	}

	fmt.Println()
	fmt.Println("  Welcome to bizdash!")
	fmt.Println()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Sheet export").
				Description("Published CSV export URL, or a local CSV file path").
				Value(&next.Source.URL).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Refresh interval").
				Options(
					huh.NewOption("15 seconds", "15s"),
					huh.NewOption("30 seconds", "30s"),
					huh.NewOption("1 minute", "1m"),
					huh.NewOption("5 minutes", "5m"),
				).
				Value(&next.Refresh.Interval),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Currency").
				Description("ISO 4217 code used for display, e.g. INR or USD").
				Value(&next.Display.Currency).
				Validate(func(s string) error {
					c := next
					c.Display.Currency = s
					return c.Validate()
				}),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(
					huh.NewOption("Flexoki Dark", cli.ThemeFlexokiDark),
					huh.NewOption("Plain (no color)", cli.ThemePlain),
				).
				Value(&next.Display.Theme),
			huh.NewConfirm().
				Title("Serve MCP tools from `bizdash serve`?").
				Value(&next.Server.MCP),
		),
	)
	if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice == 0 {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	next.Display.Currency = strings.ToUpper(strings.TrimSpace(next.Display.Currency))

	if err := next.Validate(); err != nil {
		return err
	}
	if err := config.SaveFile(path, next); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	interval, _ := next.RefreshInterval()
	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Printf("  Refreshing every %s\n", interval.Round(time.Second))
	fmt.Println("  Run `bizdash setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
