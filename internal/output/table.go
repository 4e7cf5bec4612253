package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// maxTableCell caps the rune width of a cell; longer text is cut with an ellipsis.
const maxTableCell = 80

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorBlue)
	tableBorderStyle = lipgloss.NewStyle().Foreground(ColorDimGray)
)

// Table collects rows for a bordered lipgloss table.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// Row adds a row. Multi-line and overlong cells are flattened and cut.
func (t *Table) Row(cells ...string) *Table {
	row := make([]string, len(cells))
	for i, c := range cells {
		row[i] = fitCell(c)
	}
	t.rows = append(t.rows, row)
	return t
}

// String renders the table.
func (t *Table) String() string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		Headers(t.headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, row := range t.rows {
		tbl.Row(row...)
	}
	return tbl.String()
}

func fitCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if lipgloss.Width(s) <= maxTableCell {
		return s
	}
	r := []rune(s)
	if len(r) > maxTableCell-1 {
		r = r[:maxTableCell-1]
	}
	return string(r) + "…"
}

// CaseRow is one line of the sweep result table.
type CaseRow struct {
	Case    string
	Status  string
	Stage   string
	Answers string
	Error   string
}

// RenderCaseTable renders sweep results with styled status cells.
func RenderCaseTable(rows []CaseRow) string {
	t := NewTable("CASE", "STATUS", "STAGE", "ANSWERS", "ERROR")
	for _, r := range rows {
		t.rows = append(t.rows, []string{
			r.Case, FormatStatus(r.Status), r.Stage, fitCell(r.Answers), fitCell(r.Error),
		})
	}
	return t.String()
}
