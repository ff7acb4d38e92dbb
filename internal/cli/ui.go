package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/stackadvisor/pkg/resolver"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleTableHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleTableBorder = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// File Output
// =============================================================================

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Key-Value Output
// =============================================================================

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Report Display
// =============================================================================

// printRunStats prints resolver statistics on a single line.
func printRunStats(stats resolver.Stats) {
	parts := []string{
		fmt.Sprintf("%d iterations", stats.Iterations),
		fmt.Sprintf("%d accepted", stats.Accepted),
		fmt.Sprintf("%d discarded", stats.Discarded),
		stats.Duration.Round(time.Millisecond).String(),
		stats.Termination,
	}
	fmt.Println("  " + StyleDim.Render(strings.Join(parts, " · ")))
}

// printReport prints the stack info, every product and the run statistics.
func printReport(report *resolver.Report) {
	printStackInfo(report)
	for i := range report.Products {
		printNewline()
		printProduct(i+1, &report.Products[i])
	}
	printNewline()
	printRunStats(report.Stats)
}

// printStackInfo prints run-wide justifications.
func printStackInfo(report *resolver.Report) {
	for _, j := range report.StackInfo {
		printJustification(j)
	}
}

func printJustification(j state.Justification) {
	msg := j.Message
	if j.Package != "" {
		msg = fmt.Sprintf("%s: %s", packageLabel(j.Package, j.Version), msg)
	}
	switch j.Type {
	case state.TypeWarning, state.TypeError:
		printWarning("%s", msg)
	default:
		printInfo("%s", msg)
	}
	if j.Link != "" {
		fmt.Println("  " + StyleLink.Render(j.Link))
	}
}

// printProduct prints one product as a package table followed by its
// justifications.
func printProduct(rank int, p *resolver.Product) {
	fmt.Println(StyleTitle.Render(fmt.Sprintf("Stack #%d", rank)) + "  " +
		StyleDim.Render("score ") + StyleNumber.Render(fmt.Sprintf("%.4f", p.Score)))
	fmt.Println(productTable(p).Render())
	for _, j := range p.Justification {
		printJustification(j)
	}
}

// productTable renders the pinned packages with their direct requirements.
func productTable(p *resolver.Product) *table.Table {
	rows := make([][]string, 0, len(p.Packages))
	for _, t := range p.Packages {
		deps := append([]string(nil), p.Dependencies[t.Name]...)
		sort.Strings(deps)
		rows = append(rows, []string{t.Name, t.Version, t.Index, strings.Join(deps, ", ")})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("Package", "Version", "Index", "Requires").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleTableHeader
			case col == 1:
				return StyleHighlight
			case col >= 2:
				return StyleDim
			default:
				return StyleValue
			}
		})
}

func packageLabel(name, version string) string {
	if version == "" {
		return name
	}
	return name + " " + version
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}
