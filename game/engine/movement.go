package engine

import (
	"fmt"
	"strings"
	"time"
)

// Delta is a unit step along one axis.
type Delta struct {
	DRow int `json:"drow"`
	DCol int `json:"dcol"`
}

var (
	Up    = Delta{DRow: -1}
	Right = Delta{DCol: 1}
	Down  = Delta{DRow: 1}
	Left  = Delta{DCol: -1}
)

// Directions lists the four push directions in instruction-symbol order.
var Directions = []Delta{Up, Right, Down, Left}

// IsVertical reports whether d moves between rows.
func (d Delta) IsVertical() bool { return d.DRow != 0 }

// Opposite returns -d.
func (d Delta) Opposite() Delta { return Delta{DRow: -d.DRow, DCol: -d.DCol} }

// Name returns up, right, down or left.
func (d Delta) Name() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return fmt.Sprintf("(%d,%d)", d.DRow, d.DCol)
}

// Symbol returns the instruction character for d.
func (d Delta) Symbol() string {
	switch d {
	case Up:
		return "^"
	case Right:
		return ">"
	case Down:
		return "v"
	case Left:
		return "<"
	}
	return "?"
}

func deltaFromSymbol(ch rune) (Delta, bool) {
	switch ch {
	case '^':
		return Up, true
	case '>':
		return Right, true
	case 'v':
		return Down, true
	case '<':
		return Left, true
	}
	return Delta{}, false
}

// ParseDirection accepts a direction name (up/down/left/right, any case) or a
// single instruction symbol.
func ParseDirection(s string) (Delta, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "up":
		return Up, nil
	case "right":
		return Right, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	}
	if len(s) == 1 {
		if d, ok := deltaFromSymbol(rune(s[0])); ok {
			return d, nil
		}
	}
	return Delta{}, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// GenerateLocalView lists the 8 cells around the actor. Cells past the edge
// are reported as walls, since the boundary blocks pushes the same way.
func (gs *GameState) GenerateLocalView() []SurroundingCell {
	offsets := []Delta{
		{DRow: -1, DCol: 0},  // North
		{DRow: -1, DCol: 1},  // North-East
		{DRow: 0, DCol: 1},   // East
		{DRow: 1, DCol: 1},   // South-East
		{DRow: 1, DCol: 0},   // South
		{DRow: 1, DCol: -1},  // South-West
		{DRow: 0, DCol: -1},  // West
		{DRow: -1, DCol: -1}, // North-West
	}

	view := make([]SurroundingCell, len(offsets))
	for i, off := range offsets {
		p := gs.ActorPos.Add(off)
		kind, ok := gs.Grid.Get(p)
		if !ok {
			kind = Wall
		}
		view[i] = SurroundingCell{Row: p.Row, Col: p.Col, Kind: kind.String()}
	}
	return view
}

// BuildLocal3x3 renders the 3x3 window centred on the actor.
func (gs *GameState) BuildLocal3x3() []string {
	lines := make([]string, 0, 3)
	for dr := -1; dr <= 1; dr++ {
		var row strings.Builder
		for dc := -1; dc <= 1; dc++ {
			kind, ok := gs.Grid.Get(Position{Row: gs.ActorPos.Row + dr, Col: gs.ActorPos.Col + dc})
			if !ok {
				kind = Wall
			}
			row.WriteRune(kind.Rune())
		}
		lines = append(lines, row.String())
	}
	return lines
}

// AddMoveToHistory appends a push attempt to both the cumulative history and
// the current segment.
func (gs *GameState) AddMoveToHistory(d Delta, from, to Position, outcome Outcome, cellsMoved int) {
	entry := MoveHistoryEntry{
		Action:       d.Name(),
		Symbol:       d.Symbol(),
		FromPosition: from,
		ToPosition:   to,
		Outcome:      outcome,
		CellsMoved:   cellsMoved,
		Timestamp:    time.Now().Unix(),
		Success:      outcome == Committed,
		MoveNumber:   gs.TotalMoves + 1,
	}
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++

	gs.CurrentMoves = append(gs.CurrentMoves, entry)
	gs.CurrentMovesCount++
}
