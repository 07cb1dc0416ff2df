package engine

import (
	"fmt"
	"sort"
)

// LaneStatus is the resolution state of one scan lane.
type LaneStatus int

const (
	LaneUnresolved LaneStatus = iota
	LaneClear
	LaneBlocked
)

func (s LaneStatus) String() string {
	switch s {
	case LaneClear:
		return "clear"
	case LaneBlocked:
		return "blocked"
	}
	return "unresolved"
}

// MarshalText encodes the status by name.
func (s LaneStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name produced by MarshalText.
func (s *LaneStatus) UnmarshalText(text []byte) error {
	for _, status := range []LaneStatus{LaneUnresolved, LaneClear, LaneBlocked} {
		if status.String() == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidLaneStatus, text)
}

// Lane follows one column (vertical pushes) or the actor's row (horizontal
// pushes) forward until it reaches an empty cell or an obstacle.
type Lane struct {
	Origin Position   `json:"origin"`
	Head   Position   `json:"head"`
	Status LaneStatus `json:"status"`
}

// ScanResult is the outcome of a feasibility scan. When Feasible, Moves lists
// every cell that must shift by Delta, farthest from the actor first. The
// actor itself is not included.
type ScanResult struct {
	Feasible  bool       `json:"feasible"`
	Actor     Position   `json:"actor"`
	Delta     Delta      `json:"delta"`
	Moves     []Position `json:"moves,omitempty"`
	Lanes     []Lane     `json:"lanes"`
	BlockedAt *Position  `json:"blocked_at,omitempty"`
	Blocker   CellKind   `json:"blocker,omitempty"`
}

// Scan decides whether pushing from actor by d is possible without touching
// the grid. Lanes advance in rounds; within a round each unresolved lane
// steps once, so a pair half discovered by one lane starts its own lane in
// the next round, level with its partner.
func Scan(g *Grid, actor Position, d Delta) ScanResult {
	res := ScanResult{Actor: actor, Delta: d}

	seen := make(map[Position]struct{})
	var moves []Position
	add := func(p Position) bool {
		if _, ok := seen[p]; ok {
			return false
		}
		seen[p] = struct{}{}
		moves = append(moves, p)
		return true
	}

	res.Lanes = []Lane{{Origin: actor, Head: actor}}
	frontier := []int{0}
	for len(frontier) > 0 {
		var next []int
		for _, i := range frontier {
			target := res.Lanes[i].Head.Add(d)
			kind, ok := g.Get(target)
			if !ok {
				kind = Wall
			}

			switch kind {
			case Empty:
				res.Lanes[i].Status = LaneClear
				continue
			case Wall, Actor:
				res.Lanes[i].Status = LaneBlocked
				res.Lanes[i].Head = target
				res.BlockedAt = &target
				res.Blocker = kind
				return res
			case Movable:
				add(target)
			case PairLeft, PairRight:
				add(target)
				if d.IsVertical() {
					partner := pairPartner(target, kind)
					if add(partner) {
						res.Lanes = append(res.Lanes, Lane{Origin: partner, Head: partner})
						next = append(next, len(res.Lanes)-1)
					}
				}
			}
			res.Lanes[i].Head = target
			next = append(next, i)
		}
		frontier = next
	}

	// Project onto d: larger means farther ahead of the actor.
	ahead := func(p Position) int {
		return (p.Row-actor.Row)*d.DRow + (p.Col-actor.Col)*d.DCol
	}
	sort.SliceStable(moves, func(a, b int) bool {
		return ahead(moves[a]) > ahead(moves[b])
	})

	res.Feasible = true
	res.Moves = moves
	return res
}

// pairPartner returns the other half of the pair whose half kind sits at p.
func pairPartner(p Position, kind CellKind) Position {
	if kind == PairLeft {
		return Position{Row: p.Row, Col: p.Col + 1}
	}
	return Position{Row: p.Row, Col: p.Col - 1}
}
