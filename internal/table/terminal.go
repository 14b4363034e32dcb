package table

import (
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"fde-dashboard/internal/theme"
	"fde-dashboard/internal/views"
)

// Terminal renders the tables for a terminal using lipgloss.
type Terminal struct {
	palette theme.Page
}

// NewTerminal creates a terminal renderer for the given theme.
func NewTerminal(sig theme.Signal) *Terminal {
	return &Terminal{palette: theme.PagePalette(sig)}
}

// Performance renders the performance table.
func (t *Terminal) Performance(rows []views.PerformanceRow) string {
	cells := make([][]string, len(rows))
	styles := make([]views.RowStyle, len(rows))
	for i, r := range rows {
		cells[i] = []string{r.Name, r.Params, r.FLOPs, r.Precision, r.Recall, r.MAP50, r.MAP50_95}
		styles[i] = r.Style
	}
	return t.render(PerformanceHeaders, cells, styles)
}

// Loss renders the loss table.
func (t *Terminal) Loss(rows []views.LossRow) string {
	cells := make([][]string, len(rows))
	styles := make([]views.RowStyle, len(rows))
	for i, r := range rows {
		cells[i] = []string{r.Name, r.BoxLoss, r.ClsLoss, r.DFLLoss}
		styles[i] = r.Style
	}
	return t.render(LossHeaders, cells, styles)
}

func (t *Terminal) render(headers []string, cells [][]string, styles []views.RowStyle) string {
	tbl := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(t.palette.Border))).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow || row < 0 || row >= len(styles) {
				return t.headerStyle(col)
			}
			return t.cellStyle(styles[row], col)
		})
	return tbl.String()
}

func (t *Terminal) headerStyle(col int) lipgloss.Style {
	s := lipgloss.NewStyle().
		Padding(0, 1).
		Bold(true).
		Foreground(lipgloss.Color(t.palette.Muted))
	if col > 0 {
		s = s.Align(lipgloss.Right)
	}
	return s
}

// cellStyle composes the zebra background with the proposed-row emphasis.
// Emphasis only touches weight and foreground, so the background survives.
func (t *Terminal) cellStyle(rs views.RowStyle, col int) lipgloss.Style {
	bg := t.palette.RowEven
	if rs.Odd() {
		bg = t.palette.RowOdd
	}
	s := lipgloss.NewStyle().
		Padding(0, 1).
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.Color(t.palette.Text))
	if rs.Proposed {
		s = s.Bold(true).Foreground(lipgloss.Color(t.palette.Emphasis))
	}
	if col > 0 {
		s = s.Align(lipgloss.Right)
	}
	return s
}
