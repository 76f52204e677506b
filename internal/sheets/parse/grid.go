package parse

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"budgethub/internal/core"
	"budgethub/internal/layout"
)

// CellKind tags the content of a Cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
)

// Cell is one spreadsheet cell as read back from the API.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
}

// Number returns a numeric cell; NaN and infinities read as empty.
func Number(f float64) Cell {
	if !core.IsFinite(f) {
		return Cell{}
	}
	return Cell{Kind: CellNumber, Number: f}
}

// Text returns a text cell; blank text is an empty cell.
func Text(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// String renders the cell as trimmed text.
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		return core.FormatAmount(c.Number)
	case CellText:
		return strings.TrimSpace(c.Text)
	}
	return ""
}

// Float returns the numeric content of the cell, parsing text when needed.
// Anything non-numeric reads as zero.
func (c Cell) Float() float64 {
	switch c.Kind {
	case CellNumber:
		return c.Number
	case CellText:
		if f, ok := core.ParseAmount(c.Text); ok {
			return f
		}
	}
	return 0
}

func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// Grid holds sheet rows; index 0 is spreadsheet row 1.
type Grid [][]Cell

// GridFromValues converts a Sheets API value matrix into a Grid.
func GridFromValues(values [][]any) Grid {
	g := make(Grid, len(values))
	for r, row := range values {
		g[r] = make([]Cell, len(row))
		for c, v := range row {
			g[r][c] = cellFrom(v)
		}
	}
	return g
}

func cellFrom(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Cell{}
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Number(f)
		}
		return Text(x.String())
	case bool:
		return Text(strconv.FormatBool(x))
	case string:
		return Text(x)
	default:
		return Text(fmt.Sprint(x))
	}
}

// Rows returns the number of rows in the grid.
func (g Grid) Rows() int { return len(g) }

// Cell returns the cell at a 1-based row and 0-based column. Out of range
// positions read as empty.
func (g Grid) Cell(row, col int) Cell {
	if row < 1 || row > len(g) || col < 0 {
		return Cell{}
	}
	r := g[row-1]
	if col >= len(r) {
		return Cell{}
	}
	return r[col]
}

func (g Grid) Label(row int) string {
	return g.Cell(row, layout.ColLabel).String()
}

func (g Grid) Meta(row int) string {
	return g.Cell(row, layout.ColMeta).String()
}

func (g Grid) Note(row int) string {
	return g.Cell(row, layout.ColNotes).String()
}

// Month returns month m (0-based) of a row as a number.
func (g Grid) Month(row, m int) float64 {
	return g.Cell(row, layout.ColJan+m).Float()
}
