package engine

import (
	"fmt"
	"strings"
)

// ParseLayout builds a grid from layout rows using the . # O @ alphabet.
// With doubled set, every character expands into two cells:
// '.' -> "..", '#' -> "##", 'O' -> "[]", '@' -> "@.". Blank rows before the
// first and after the last row are dropped; a blank row in between makes the
// layout non-rectangular.
func ParseLayout(lines []string, doubled bool) (*Grid, Position, error) {
	first, last := 0, len(lines)
	for first < last && strings.TrimRight(lines[first], "\r") == "" {
		first++
	}
	for last > first && strings.TrimRight(lines[last-1], "\r") == "" {
		last--
	}

	cells := make([][]CellKind, 0, last-first)
	for r := first; r < last; r++ {
		line := strings.TrimRight(lines[r], "\r")
		if line == "" {
			return nil, Position{}, fmt.Errorf("%w: row %d is blank", ErrNonRectangular, r+1)
		}
		row := make([]CellKind, 0, len(line)*2)
		col := 0
		for _, ch := range line {
			col++
			var kind CellKind
			switch ch {
			case '.':
				kind = Empty
			case '#':
				kind = Wall
			case 'O':
				kind = Movable
			case '@':
				kind = Actor
			default:
				return nil, Position{}, fmt.Errorf("%w '%c' at row %d, col %d", ErrInvalidCell, ch, r+1, col)
			}
			row = append(row, expand(kind, doubled)...)
		}
		cells = append(cells, row)
	}

	grid, err := NewGrid(cells)
	if err != nil {
		return nil, Position{}, err
	}
	return grid, grid.Find(Actor)[0], nil
}

func expand(kind CellKind, doubled bool) []CellKind {
	if !doubled {
		return []CellKind{kind}
	}
	switch kind {
	case Movable:
		return []CellKind{PairLeft, PairRight}
	case Actor:
		return []CellKind{Actor, Empty}
	}
	return []CellKind{kind, kind}
}

// ParseLayoutText is ParseLayout over a newline separated block.
func ParseLayoutText(text string, doubled bool) (*Grid, Position, error) {
	return ParseLayout(strings.Split(text, "\n"), doubled)
}

// ParseInstructions maps a stream of ^ > v < characters to deltas.
// Line breaks are ignored; any other character fails the whole stream.
func ParseInstructions(stream string) ([]Delta, error) {
	deltas := make([]Delta, 0, len(stream))
	line, col := 1, 0
	for _, ch := range stream {
		col++
		switch ch {
		case '\n':
			line++
			col = 0
			continue
		case '\r':
			continue
		}
		d, ok := deltaFromSymbol(ch)
		if !ok {
			return nil, fmt.Errorf("%w '%c' at line %d, col %d", ErrInvalidInstruction, ch, line, col)
		}
		deltas = append(deltas, d)
	}
	return deltas, nil
}

// ParsePuzzle splits puzzle text into its layout rows and instruction stream.
// The two sections are separated by the first blank line.
func ParsePuzzle(input string) ([]string, string, error) {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	layout, instructions, found := strings.Cut(strings.TrimLeft(input, "\n"), "\n\n")
	if !found {
		return nil, "", ErrMissingInstructions
	}

	var rows []string
	for _, line := range strings.Split(layout, "\n") {
		if line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		return nil, "", ErrEmptyLayout
	}
	return rows, strings.TrimSpace(instructions), nil
}
