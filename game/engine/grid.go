package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Grid is a fixed-size rectangular array of cells. Its dimensions are set once
// at construction. Cells are read through Get; only the push committer writes.
type Grid struct {
	cells [][]CellKind
	rows  int
	cols  int
}

// NewGrid validates cells and wraps them in a Grid. The grid must be
// rectangular, hold exactly one actor, and every pair half must sit next to
// its partner. The slice is copied.
func NewGrid(cells [][]CellKind) (*Grid, error) {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return nil, ErrEmptyLayout
	}
	cols := len(cells[0])
	g := &Grid{
		cells: make([][]CellKind, len(cells)),
		rows:  len(cells),
		cols:  cols,
	}
	for r, row := range cells {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrNonRectangular, r+1, len(row), cols)
		}
		g.cells[r] = append([]CellKind(nil), row...)
	}
	if _, err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// validate checks the pair and actor invariants and returns the actor position.
func (g *Grid) validate() (Position, error) {
	var actor Position
	actors := 0
	for r, row := range g.cells {
		for c, kind := range row {
			switch kind {
			case Actor:
				actors++
				actor = Position{Row: r, Col: c}
			case PairLeft:
				if c+1 >= g.cols || row[c+1] != PairRight {
					return Position{}, fmt.Errorf("%w: '[' at row %d, col %d", ErrBrokenPair, r+1, c+1)
				}
			case PairRight:
				if c == 0 || row[c-1] != PairLeft {
					return Position{}, fmt.Errorf("%w: ']' at row %d, col %d", ErrBrokenPair, r+1, c+1)
				}
			}
		}
	}
	switch {
	case actors == 0:
		return Position{}, ErrNoActor
	case actors > 1:
		return Position{}, fmt.Errorf("%w: found %d", ErrMultipleActors, actors)
	}
	return actor, nil
}

// Rows returns the grid height.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the grid width.
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether p lies inside the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

// Get returns the cell at p. The boolean is false when p is out of bounds.
func (g *Grid) Get(p Position) (CellKind, bool) {
	if !g.InBounds(p) {
		return Empty, false
	}
	return g.cells[p.Row][p.Col], true
}

// set writes a cell. Writing outside the grid is a programming error.
func (g *Grid) set(p Position, kind CellKind) {
	if !g.InBounds(p) {
		panic(fmt.Sprintf("engine: write outside grid at (%d,%d) in %dx%d grid", p.Row, p.Col, g.rows, g.cols))
	}
	g.cells[p.Row][p.Col] = kind
}

// Find returns every position holding kind, in row-major order.
func (g *Grid) Find(kind CellKind) []Position {
	var out []Position
	for r, row := range g.cells {
		for c, k := range row {
			if k == kind {
				out = append(out, Position{Row: r, Col: c})
			}
		}
	}
	return out
}

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	cp := &Grid{
		cells: make([][]CellKind, g.rows),
		rows:  g.rows,
		cols:  g.cols,
	}
	for r, row := range g.cells {
		cp.cells[r] = append([]CellKind(nil), row...)
	}
	return cp
}

// Equal reports whether both grids have the same shape and cells.
func (g *Grid) Equal(other *Grid) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.rows != other.rows || g.cols != other.cols {
		return false
	}
	for r := range g.cells {
		for c := range g.cells[r] {
			if g.cells[r][c] != other.cells[r][c] {
				return false
			}
		}
	}
	return true
}

// Lines renders each row with the . # O [ ] @ alphabet.
func (g *Grid) Lines() []string {
	lines := make([]string, g.rows)
	for r, row := range g.cells {
		var b strings.Builder
		b.Grow(len(row))
		for _, k := range row {
			b.WriteRune(k.Rune())
		}
		lines[r] = b.String()
	}
	return lines
}

// String renders the grid with a newline after every row.
func (g *Grid) String() string {
	var b strings.Builder
	for _, line := range g.Lines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// MarshalJSON encodes the grid as its rendered rows.
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Lines())
}

// UnmarshalJSON decodes rendered rows and re-validates every invariant.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	parsed, err := parseRendered(lines)
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}

// parseRendered reads a grid in its rendered form, including pair halves.
func parseRendered(lines []string) (*Grid, error) {
	cells := make([][]CellKind, 0, len(lines))
	for r, line := range lines {
		row := make([]CellKind, 0, len(line))
		for c, ch := range line {
			kind, ok := kindFromRune(ch)
			if !ok {
				return nil, fmt.Errorf("%w '%c' at row %d, col %d", ErrInvalidCell, ch, r+1, c+1)
			}
			row = append(row, kind)
		}
		cells = append(cells, row)
	}
	return NewGrid(cells)
}
