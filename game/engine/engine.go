package engine

import (
	"fmt"
	"slices"
)

// Outcome is the terminal state of a single push.
type Outcome string

const (
	Committed Outcome = "committed"
	Rejected  Outcome = "rejected"
)

// PushReport describes what a single push did.
type PushReport struct {
	Outcome    Outcome    `json:"outcome"`
	Direction  string     `json:"direction"`
	From       Position   `json:"from"`
	To         Position   `json:"to"`
	CellsMoved int        `json:"cells_moved"`
	Scan       ScanResult `json:"scan"`
}

// RunSummary aggregates a sequence of pushes.
type RunSummary struct {
	Requested int      `json:"requested"`
	Committed int      `json:"committed"`
	Rejected  int      `json:"rejected"`
	StartPos  Position `json:"start_pos"`
	EndPos    Position `json:"end_pos"`
	GPSSum    int      `json:"gps_sum"`
}

// Engine provides the main interface for warehouse operations
type Engine interface {
	// State management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	GetActorPosition() Position

	// Pushing
	Push(d Delta) bool
	PushWithReport(d Delta) PushReport
	Move(direction string) (bool, error)
	CanPush(d Delta) bool
	GetPossibleMoves() []string
	Run(deltas []Delta) RunSummary
	PlayScript() (RunSummary, error)

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Views and metrics
	GetLocalView() []SurroundingCell
	GetGPSSum() int
	GetBoxCount() int
}

// GameEngine implements Engine over a single warehouse grid.
type GameEngine struct {
	state  *GameState
	config *GameConfig
}

// NewEngine creates a new engine for the provided scenario
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	state, err := InitGameStateFromConfig(config)
	if err != nil {
		return nil, err
	}
	return &GameEngine{config: config, state: state}, nil
}

// NewEngineWithDefaults creates an engine running DefaultConfig.
func NewEngineWithDefaults() *GameEngine {
	config := DefaultConfig()
	state, err := InitGameStateFromConfig(config)
	if err != nil {
		panic(fmt.Sprintf("engine: default config is invalid: %v", err))
	}
	return &GameEngine{config: config, state: state}
}

// GetState returns the current state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// Snapshot returns a deep copy of gs that shares no grid or slice memory
// with it.
func (gs *GameState) Snapshot() *GameState {
	if gs == nil {
		return nil
	}
	snap := *gs
	if gs.Grid != nil {
		snap.Grid = gs.Grid.Clone()
	}
	snap.MoveHistory = slices.Clone(gs.MoveHistory)
	snap.CurrentMoves = slices.Clone(gs.CurrentMoves)
	snap.LocalView3x3 = slices.Clone(gs.LocalView3x3)
	return &snap
}

// SetState replaces the state (used when restoring a persisted session).
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Grid == nil {
		return fmt.Errorf("state has no grid")
	}
	actor, err := state.Grid.validate()
	if err != nil {
		return fmt.Errorf("invalid grid: %w", err)
	}
	if actor != state.ActorPos {
		return fmt.Errorf("actor recorded at (%d,%d) but grid has it at (%d,%d)",
			state.ActorPos.Row, state.ActorPos.Col, actor.Row, actor.Col)
	}
	state.GPSSum = GPSSum(state.Grid)
	e.state = state
	return nil
}

// Reset restores the initial layout. Cumulative history survives; the
// current segment is cleared.
func (e *GameEngine) Reset() *GameState {
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	state, err := InitGameStateFromConfig(e.config)
	if err != nil {
		// config was validated when it was installed
		panic(fmt.Sprintf("engine: reset with invalid config: %v", err))
	}
	e.state = state

	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.state.CurrentMoves = []MoveHistoryEntry{}
	e.state.CurrentMovesCount = 0

	return e.state
}

// GetActorPosition returns the actor's current position
func (e *GameEngine) GetActorPosition() Position {
	return e.state.ActorPos
}

// Push attempts one push and reports whether it was committed.
func (e *GameEngine) Push(d Delta) bool {
	return e.PushWithReport(d).Outcome == Committed
}

// PushWithReport scans the push, commits it when every lane is clear, and
// records the attempt. A rejected push leaves the grid untouched.
func (e *GameEngine) PushWithReport(d Delta) PushReport {
	from := e.state.ActorPos
	plan := Scan(e.state.Grid, from, d)

	report := PushReport{
		Outcome:   Rejected,
		Direction: d.Name(),
		From:      from,
		To:        from,
		Scan:      plan,
	}
	if plan.Feasible {
		e.state.ActorPos = commit(e.state.Grid, plan)
		report.Outcome = Committed
		report.To = e.state.ActorPos
		report.CellsMoved = len(plan.Moves)
		e.state.Committed++
		e.state.GPSSum = GPSSum(e.state.Grid)
	} else {
		e.state.Rejected++
	}

	e.state.Message = e.describe(report)
	e.state.AddMoveToHistory(d, report.From, report.To, report.Outcome, report.CellsMoved)
	return report
}

// Move pushes in a named direction (up/down/left/right or ^ v < >).
func (e *GameEngine) Move(direction string) (bool, error) {
	d, err := ParseDirection(direction)
	if err != nil {
		return false, err
	}
	return e.Push(d), nil
}

// CanPush scans without committing.
func (e *GameEngine) CanPush(d Delta) bool {
	return Scan(e.state.Grid, e.state.ActorPos, d).Feasible
}

// GetPossibleMoves returns the direction names that would currently commit.
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, d := range Directions {
		if e.CanPush(d) {
			possible = append(possible, d.Name())
		}
	}
	return possible
}

// Run applies deltas in order, one push at a time.
func (e *GameEngine) Run(deltas []Delta) RunSummary {
	summary := RunSummary{Requested: len(deltas), StartPos: e.state.ActorPos}
	for _, d := range deltas {
		if e.Push(d) {
			summary.Committed++
		} else {
			summary.Rejected++
		}
	}
	summary.EndPos = e.state.ActorPos
	summary.GPSSum = e.state.GPSSum
	return summary
}

// PlayScript runs the scenario's own instruction stream from the current state.
func (e *GameEngine) PlayScript() (RunSummary, error) {
	deltas, err := ParseInstructions(e.config.Instructions)
	if err != nil {
		return RunSummary{}, err
	}
	return e.Run(deltas), nil
}

// GetConfig returns the current scenario
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig installs a new scenario and resets the state
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}
	state, err := InitGameStateFromConfig(config)
	if err != nil {
		return err
	}

	e.config = config
	e.state = state
	return nil
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last push attempt, or nil if none
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// GetLocalView returns the cells around the actor
func (e *GameEngine) GetLocalView() []SurroundingCell {
	return e.state.GenerateLocalView()
}

// GetGPSSum returns the current GPS metric
func (e *GameEngine) GetGPSSum() int {
	return e.state.GPSSum
}

// GetBoxCount returns the number of objects on the grid, counting a pair once
func (e *GameEngine) GetBoxCount() int {
	return CountBoxes(e.state.Grid)
}

// BulkMove pushes each named direction in sequence and returns per-push results.
// A malformed direction aborts before anything is pushed.
func (e *GameEngine) BulkMove(moves []string) ([]bool, error) {
	deltas := make([]Delta, 0, len(moves))
	for i, m := range moves {
		d, err := ParseDirection(m)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		deltas = append(deltas, d)
	}

	results := make([]bool, 0, len(deltas))
	for _, d := range deltas {
		results = append(results, e.Push(d))
	}
	return results, nil
}

func (e *GameEngine) describe(r PushReport) string {
	msgs := e.config.Messages
	switch {
	case r.Outcome == Rejected:
		blocker := "wall"
		at := r.From
		if r.Scan.BlockedAt != nil {
			at = *r.Scan.BlockedAt
			blocker = r.Scan.Blocker.String()
			if !e.state.Grid.InBounds(at) {
				blocker = "boundary"
			}
		}
		prefix := msgs.Blocked
		if prefix == "" {
			prefix = fmt.Sprintf("Can't push %s", r.Direction)
		}
		return fmt.Sprintf("%s [blocked by %s at (%d,%d)]", prefix, blocker, at.Row, at.Col)
	case r.CellsMoved > 0:
		if msgs.Pushed != "" {
			return fmt.Sprintf("%s [%s, %d cells]", msgs.Pushed, r.Direction, r.CellsMoved)
		}
		return fmt.Sprintf("Pushed %d cells %s, GPS sum %d", r.CellsMoved, r.Direction, e.state.GPSSum)
	default:
		if msgs.Moved != "" {
			return fmt.Sprintf("%s [%s]", msgs.Moved, r.Direction)
		}
		return fmt.Sprintf("Moved %s to (%d,%d)", r.Direction, r.To.Row, r.To.Col)
	}
}
