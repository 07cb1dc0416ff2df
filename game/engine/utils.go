package engine

// GPSSum is the sum of 100*row + col over every Movable cell and the left
// half of every pair. The right half of a pair never contributes.
func GPSSum(g *Grid) int {
	sum := 0
	for r, row := range g.cells {
		for c, kind := range row {
			if kind == Movable || kind == PairLeft {
				sum += 100*r + c
			}
		}
	}
	return sum
}

// CountCellKind counts the cells holding kind.
func CountCellKind(g *Grid, kind CellKind) int {
	count := 0
	for _, row := range g.cells {
		for _, k := range row {
			if k == kind {
				count++
			}
		}
	}
	return count
}

// CountBoxes counts pushable objects, a pair counting once.
func CountBoxes(g *Grid) int {
	return CountCellKind(g, Movable) + CountCellKind(g, PairLeft)
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dr := from.Row - to.Row
	if dr < 0 {
		dr = -dr
	}
	dc := from.Col - to.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// FindNearestObject finds the closest pushable object to the actor. A pair
// is reported by its left half.
func FindNearestObject(state *GameState) (Position, int, bool) {
	minDistance := -1
	var nearest Position
	found := false

	for r, row := range state.Grid.cells {
		for c, kind := range row {
			if kind != Movable && kind != PairLeft {
				continue
			}
			pos := Position{Row: r, Col: c}
			distance := ManhattanDistance(state.ActorPos, pos)
			if minDistance == -1 || distance < minDistance {
				minDistance = distance
				nearest = pos
				found = true
			}
		}
	}

	return nearest, minDistance, found
}
