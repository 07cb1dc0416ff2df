package service

import (
	"errors"
	"time"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// ErrInvalidMoves marks a push request whose directions or instruction
// stream could not be parsed. Nothing is applied when it is returned.
var (
	ErrInvalidMoves    = errors.New("invalid moves")
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
)

// SessionInfo provides information about a warehouse session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// PushResult contains the result of a single push
type PushResult struct {
	Success   bool              `json:"success"`
	Outcome   engine.Outcome    `json:"outcome"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
	Step      *StepInfo         `json:"step,omitempty"`
	BlockedBy *BlockInfo        `json:"blocked_by,omitempty"`
}

// BulkPushResult contains the result of a push sequence. Rejected pushes do
// not stop the sequence.
type BulkPushResult struct {
	// Summary
	RequestedPushes int               `json:"requested_pushes"`
	Committed       int               `json:"committed"`
	Rejected        int               `json:"rejected"`
	Success         bool              `json:"success"` // true when no push was rejected
	GameState       *engine.GameState `json:"game_state"`
	Events          []GameEvent       `json:"events"`
	Truncated       bool              `json:"truncated,omitempty"`
	Limit           int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos engine.Position `json:"start_pos"`
	EndPos   engine.Position `json:"end_pos"`
	StartGPS int             `json:"start_gps"`
	EndGPS   int             `json:"end_gps"`
	GPSDelta int             `json:"gps_delta"`

	// Per-step compact trace, capped at engine.MaxStepTrace entries
	Steps          []StepInfo `json:"steps,omitempty"`
	StepsTruncated bool       `json:"steps_truncated,omitempty"`

	// First rejection diagnostics
	FirstRejectedOn int        `json:"first_rejected_on,omitempty"` // 1-based
	BlockedBy       *BlockInfo `json:"blocked_by,omitempty"`

	// Final status aids
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	LocalView3x3  []string `json:"local_view_3x3,omitempty"`
}

// StepInfo is a compact record for one push in a bulk call
type StepInfo struct {
	Idx        int             `json:"idx"`
	Dir        string          `json:"dir"`
	From       engine.Position `json:"from"`
	To         engine.Position `json:"to"`
	Outcome    engine.Outcome  `json:"outcome"`
	CellsMoved int             `json:"cells_moved"`
	GPSAfter   int             `json:"gps_after"`
}

// BlockInfo details the cell that rejected a push
type BlockInfo struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Kind     string `json:"kind"`
	Char     string `json:"char"`
	Boundary bool   `json:"boundary,omitempty"`
}

// GameEvent represents something that happened during a call
type GameEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"` // "push", "move", "blocked", "reset", "script"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a scenario
type ConfigInfo struct {
	Filename        string `json:"filename"`
	ConfigID        string `json:"config_id"` // The identifier to use for session creation
	Name            string `json:"name"`      // Display name
	Description     string `json:"description"`
	Rows            int    `json:"rows"`
	Cols            int    `json:"cols"`
	Doubled         bool   `json:"doubled"`
	Boxes           int    `json:"boxes"`
	HasInstructions bool   `json:"has_instructions"`
	ExpectedGPSSum  int    `json:"expected_gps_sum,omitempty"`
}
