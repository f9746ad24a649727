package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/zinefold/pkg/impose"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorMuted)
	sideStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorOK)
)

// =============================================================================
// SheetBrowserModel - Interactive plan browser
// =============================================================================

// SheetBrowserModel is the bubbletea model for paging through sheet sides.
type SheetBrowserModel struct {
	Plan   impose.Plan
	Sides  []impose.SheetSide
	Cursor int
}

// NewSheetBrowserModel creates a browser positioned on the first front.
func NewSheetBrowserModel(plan impose.Plan) SheetBrowserModel {
	return SheetBrowserModel{Plan: plan, Sides: plan.Sides()}
}

func (m SheetBrowserModel) Init() tea.Cmd {
	return nil
}

func (m SheetBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "right", "l", "n", " ":
		if m.Cursor < len(m.Sides)-1 {
			m.Cursor++
		}
	case "left", "h", "p":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "f":
		// Flip to the other face of the same sheet.
		m.Cursor ^= 1
		if m.Cursor >= len(m.Sides) {
			m.Cursor = len(m.Sides) - 1
		}
	case "home", "g":
		m.Cursor = 0
	case "end", "G":
		m.Cursor = max(0, len(m.Sides)-1)
	}
	return m, nil
}

func (m SheetBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Imposition Plan"))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%s · %d sheets", m.Plan.Layout, len(m.Plan.Sheets))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ side  f flip  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Sides) == 0 {
		b.WriteString(listDimStyle.Render("  nothing to place"))
		b.WriteString("\n")
		return b.String()
	}

	side := m.Sides[m.Cursor]
	b.WriteString(sideStyle.Render(fmt.Sprintf("Sheet %d %s", side.Sheet+1, side.Side)))
	b.WriteString("\n")
	b.WriteString(sideTable(side).Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Sides))))
	if n := len(m.Plan.Unplaced); n > 0 {
		b.WriteString("  ")
		b.WriteString(StyleWarning.Render(fmt.Sprintf("%d page(s) not placed", n)))
	}
	b.WriteString("\n")

	return b.String()
}
