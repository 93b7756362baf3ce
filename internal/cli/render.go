package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
)

// Styles
var (
	titleStyle  lipgloss.Style
	headerStyle lipgloss.Style
	valueStyle  lipgloss.Style
	mutedStyle  lipgloss.Style
	moneyStyle  lipgloss.Style
	countStyle  lipgloss.Style
	warnStyle   lipgloss.Style
	errorStyle  lipgloss.Style
	dimStyle    lipgloss.Style
)

func init() { SetTheme(ThemeFlexokiDark) }

// Theme names accepted by SetTheme.
const (
	ThemeFlexokiDark = "flexoki-dark"
	ThemePlain       = "plain"
)

// SetTheme switches the package styles. Unknown names select flexoki-dark.
func SetTheme(name string) {
	if name == ThemePlain {
		plain := lipgloss.NewStyle()
		titleStyle = plain.Bold(true)
		headerStyle = plain.Bold(true)
		valueStyle, mutedStyle, moneyStyle, countStyle = plain, plain, plain, plain
		warnStyle, errorStyle, dimStyle = plain, plain, plain
		return
	}

	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorText).
		Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
		Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	moneyStyle = lipgloss.NewStyle().
		Foreground(ColorGreen)

	countStyle = lipgloss.NewStyle().
		Foreground(ColorBlue)

	warnStyle = lipgloss.NewStyle().
		Foreground(ColorOrange)

	errorStyle = lipgloss.NewStyle().
		Foreground(ColorRed)

	dimStyle = lipgloss.NewStyle().
		Foreground(ColorTextDim)
}

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	// Calculate column widths
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	var b strings.Builder

	// Title above table if present
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	// Top border
	b.WriteString(dimStyle.Render("╭"))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < numCols-1 {
			b.WriteString(dimStyle.Render("┬"))
		}
	}
	b.WriteString(dimStyle.Render("╮"))
	b.WriteString("\n")

	// Header row
	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(" " + padRight(h, widths[i]) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")

		// Header separator
		b.WriteString(dimStyle.Render("├"))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("┼"))
			}
		}
		b.WriteString(dimStyle.Render("┤"))
		b.WriteString("\n")
	}

	// Data rows
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			// Separator row
			b.WriteString(dimStyle.Render("├"))
			for i, w := range widths {
				b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
				if i < numCols-1 {
					b.WriteString(dimStyle.Render("┼"))
				}
			}
			b.WriteString(dimStyle.Render("┤"))
			b.WriteString("\n")
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			w := widths[i]
			cell := ""
			if i < len(row) {
				cell = row[i]
			}

			// Right-align value columns (all except first)
			var padded string
			if i == 0 {
				padded = " " + padRight(cell, w) + " "
			} else {
				padded = " " + padLeft(cell, w) + " "
			}
			b.WriteString(valueStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	// Bottom border
	b.WriteString(dimStyle.Render("╰"))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < numCols-1 {
			b.WriteString(dimStyle.Render("┴"))
		}
	}
	b.WriteString(dimStyle.Render("╯"))
	b.WriteString("\n")

	return b.String()
}

func padRight(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func padLeft(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}

// RenderStat renders one "label  value  note" line of the summary card.
func RenderStat(label, value, note string) string {
	line := fmt.Sprintf("  %s %s", mutedStyle.Render(padRight(label, 22)), valueStyle.Render(value))
	if note != "" {
		line += "  " + dimStyle.Render(note)
	}
	return line
}

// RenderMoney styles a formatted money string.
func RenderMoney(s string) string { return moneyStyle.Render(s) }

// RenderCount styles a formatted count.
func RenderCount(s string) string { return countStyle.Render(s) }

// RenderWarning styles a warning line, e.g. the fallback notice.
func RenderWarning(s string) string { return warnStyle.Render(s) }

// RenderError styles an error line.
func RenderError(s string) string { return errorStyle.Render(s) }

// RenderMuted styles secondary text.
func RenderMuted(s string) string { return mutedStyle.Render(s) }

// RenderProgressBar renders a simple text progress bar.
func RenderProgressBar(current, total int, width int) string {
	if total <= 0 {
		return ""
	}

	pct := float64(current) / float64(total)
	if pct > 1 {
		pct = 1
	}

	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s/%s",
		mutedStyle.Render(bar),
		FormatNumber(int64(current)),
		FormatNumber(int64(total)),
	)
}

// RenderSparkline generates a unicode block sparkline from a series of values.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	top := values[0]
	for _, v := range values[1:] {
		if v > top {
			top = v
		}
	}
	if top == 0 {
		top = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / top * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(blocks[idx])
	}

	return b.String()
}

// RenderHorizontalBar renders a labeled bar scaled against maxValue.
func RenderHorizontalBar(label string, value, maxValue float64, maxWidth int, valueText string) string {
	barLen := 0
	if maxValue > 0 {
		barLen = int(value / maxValue * float64(maxWidth))
	}
	barLen = max(0, min(barLen, maxWidth))
	bar := strings.Repeat("█", barLen) + strings.Repeat(" ", maxWidth-barLen)
	return fmt.Sprintf("  %s %s %s",
		valueStyle.Render(padRight(Truncate(label, 16), 16)),
		moneyStyle.Render(bar),
		mutedStyle.Render(valueText),
	)
}
