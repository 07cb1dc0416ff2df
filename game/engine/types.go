package engine

import "fmt"

// CellKind identifies what occupies a single grid cell.
type CellKind uint8

const (
	Empty CellKind = iota
	Wall
	Movable
	PairLeft
	PairRight
	Actor
)

const (
	// Validation constants
	MinGridSize   = 1
	MaxGridSize   = 256
	MaxBulkPushes = 25000
	MaxStepTrace  = 200
)

// Rune returns the character used to render the cell.
func (k CellKind) Rune() rune {
	switch k {
	case Empty:
		return '.'
	case Wall:
		return '#'
	case Movable:
		return 'O'
	case PairLeft:
		return '['
	case PairRight:
		return ']'
	case Actor:
		return '@'
	}
	return '?'
}

func (k CellKind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Wall:
		return "wall"
	case Movable:
		return "movable"
	case PairLeft:
		return "pair_left"
	case PairRight:
		return "pair_right"
	case Actor:
		return "actor"
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k CellKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *CellKind) UnmarshalText(text []byte) error {
	for _, kind := range []CellKind{Empty, Wall, Movable, PairLeft, PairRight, Actor} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidCell, text)
}

// IsObject reports whether the cell holds something the actor can push.
func (k CellKind) IsObject() bool {
	return k == Movable || k == PairLeft || k == PairRight
}

// kindFromRune maps a rendered character back to its kind.
func kindFromRune(r rune) (CellKind, bool) {
	switch r {
	case '.':
		return Empty, true
	case '#':
		return Wall, true
	case 'O':
		return Movable, true
	case '[':
		return PairLeft, true
	case ']':
		return PairRight, true
	case '@':
		return Actor, true
	}
	return Empty, false
}

// Position is a (row, column) coordinate. Row 0 is the top of the grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Add returns p moved by d.
func (p Position) Add(d Delta) Position {
	return Position{Row: p.Row + d.DRow, Col: p.Col + d.DCol}
}

// Sub returns p moved by -d.
func (p Position) Sub(d Delta) Position {
	return Position{Row: p.Row - d.DRow, Col: p.Col - d.DCol}
}

// SurroundingCell represents a cell with its absolute position
type SurroundingCell struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Kind string `json:"kind"`
}

// GameState is the complete state of one warehouse simulation.
type GameState struct {
	Grid       *Grid    `json:"grid"`
	ActorPos   Position `json:"actor_pos"`
	Doubled    bool     `json:"doubled"`
	GPSSum     int      `json:"gps_sum"`
	Committed  int      `json:"committed"`
	Rejected   int      `json:"rejected"`
	Message    string   `json:"message"`
	ConfigName string   `json:"config_name"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves mirrors MoveHistory since the last reset; MoveHistory stays cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	LocalView3x3 []string `json:"local_view_3x3,omitempty"`
}

// MoveHistoryEntry records a single push attempt.
type MoveHistoryEntry struct {
	Action       string   `json:"action"`
	Symbol       string   `json:"symbol"`
	FromPosition Position `json:"from_position"`
	ToPosition   Position `json:"to_position"`
	Outcome      Outcome  `json:"outcome"`
	CellsMoved   int      `json:"cells_moved"`
	Timestamp    int64    `json:"timestamp"`
	Success      bool     `json:"success"`
	MoveNumber   int      `json:"move_number"`
}

// GameConfig describes a warehouse scenario.
type GameConfig struct {
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description" yaml:"description"`
	Layout         []string `json:"layout" yaml:"layout"`
	Doubled        bool     `json:"doubled" yaml:"doubled"`
	Instructions   string   `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	ExpectedGPSSum int      `json:"expected_gps_sum,omitempty" yaml:"expected_gps_sum,omitempty"`
	Messages       Messages `json:"messages" yaml:"messages"`
}

// Messages are the status lines shown after each push.
type Messages struct {
	Welcome string `json:"welcome,omitempty" yaml:"welcome,omitempty"`
	Moved   string `json:"moved,omitempty" yaml:"moved,omitempty"`
	Pushed  string `json:"pushed,omitempty" yaml:"pushed,omitempty"`
	Blocked string `json:"blocked,omitempty" yaml:"blocked,omitempty"`
}
