package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/stackadvisor/pkg/resolver"
	"github.com/matzehuels/stackadvisor/pkg/state"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listWarnStyle     = lipgloss.NewStyle().Foreground(colorRed)
	paneStyle         = lipgloss.NewStyle().PaddingRight(3)
)

// productBrowser is the bubbletea model listing a report's products with
// the selected product's packages and justifications.
type productBrowser struct {
	report  *resolver.Report
	cursor  int
	reasons bool // show justifications instead of packages
	height  int
	offset  int // first visible detail line
}

func newProductBrowser(report *resolver.Report) productBrowser {
	return productBrowser{report: report, height: 20}
}

func (m productBrowser) Init() tea.Cmd {
	return nil
}

func (m productBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.offset = 0
			}
		case "down", "j":
			if m.cursor < len(m.report.Products)-1 {
				m.cursor++
				m.offset = 0
			}
		case "tab":
			m.reasons = !m.reasons
			m.offset = 0
		case "pgdown", "ctrl+d":
			m.offset += m.height / 2
		case "pgup", "ctrl+u":
			m.offset = max(0, m.offset-m.height/2)
		}
	case tea.WindowSizeMsg:
		m.height = max(5, msg.Height-6)
	}
	return m, nil
}

func (m productBrowser) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("%d stacks", len(m.report.Products))))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render("↑/↓ select  tab packages/justification  pgup/pgdn scroll  q quit"))
	b.WriteString("\n\n")

	if len(m.report.Products) == 0 {
		b.WriteString(listDimStyle.Render("no stacks found"))
		return b.String()
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Render(m.listView()),
		m.detailView()))
	return b.String()
}

func (m productBrowser) listView() string {
	var b strings.Builder
	for i, p := range m.report.Products {
		cursor := "  "
		style := listNormalStyle
		if i == m.cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		line := fmt.Sprintf("%s#%-3d %8.4f", cursor, i+1, p.Score)
		b.WriteString(style.Render(line))
		if n := warnings(p.Justification); n > 0 {
			b.WriteString(listWarnStyle.Render(fmt.Sprintf(" !%d", n)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m productBrowser) detailView() string {
	p := &m.report.Products[m.cursor]

	var lines []string
	if m.reasons {
		for _, j := range p.Justification {
			style := listNormalStyle
			if j.Type != state.TypeInfo {
				style = listWarnStyle
			}
			text := j.Message
			if j.Package != "" {
				text = packageLabel(j.Package, j.Version) + ": " + text
			}
			lines = append(lines, style.Render(fmt.Sprintf("%-7s ", j.Type))+text)
		}
		if len(lines) == 0 {
			lines = append(lines, listDimStyle.Render("no justification"))
		}
	} else {
		lines = strings.Split(productTable(p).Render(), "\n")
	}

	start := min(m.offset, max(0, len(lines)-1))
	end := min(len(lines), start+m.height)
	return strings.Join(lines[start:end], "\n")
}

func warnings(js []state.Justification) int {
	n := 0
	for _, j := range js {
		if j.Type == state.TypeWarning || j.Type == state.TypeError {
			n++
		}
	}
	return n
}
