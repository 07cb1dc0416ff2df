package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

var tracer = otel.Tracer("github.com/wricardo/mcp-training/warehouse/game/service")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

func startSpan(ctx context.Context, op, sessionID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if sessionID != "" {
		attrs = append(attrs, attribute.String("session.id", sessionID))
	}
	return tracer.Start(ctx, "GameService."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// newEventID returns a time-ordered event identifier.
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func newEvent(typ, message string, pos engine.Position) GameEvent {
	return GameEvent{
		ID:        newEventID(),
		Type:      typ,
		Message:   message,
		Timestamp: time.Now(),
		Position:  pos,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState().Snapshot(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new warehouse session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (info *SessionInfo, err error) {
	_, span := startSpan(ctx, "CreateSession", "", attribute.String("config.name", configName))
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use list_configs or /api/configs to see available scenarios", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	span.SetAttributes(attribute.String("session.id", sess.ID))
	log.Printf("[SESSION] created id=%s config=%s", sess.ID, config.Name)

	return s.sessionInfo(sess, configID(configName)), nil
}

// configID strips a file extension so "reference.json" reports as "reference".
func configID(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (info *SessionInfo, err error) {
	_, span := startSpan(ctx, "GetSession", sessionID)
	defer func() { endSpan(span, err) }()

	// Write lock: LastAccessedAt is updated before it is read back.
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(sess, ""), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	_, span := startSpan(ctx, "ListSessions", "")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, ""))
	}
	span.SetAttributes(attribute.Int("sessions.count", len(result)))
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) (err error) {
	_, span := startSpan(ctx, "DeleteSession", sessionID)
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Push executes a single push for a session
func (s *gameServiceImpl) Push(ctx context.Context, sessionID, direction string, reset bool) (result *PushResult, err error) {
	_, span := startSpan(ctx, "Push", sessionID, attribute.String("push.direction", direction))
	defer func() { endSpan(span, err) }()

	d, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMoves, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, newEvent("reset", "Warehouse reset to initial layout", sess.Engine.GetActorPosition()))
	}

	report := sess.Engine.PushWithReport(d)
	live := sess.Engine.GetState()
	live.LocalView3x3 = live.BuildLocal3x3()
	state := live.Snapshot()

	result = &PushResult{
		Success:   report.Outcome == engine.Committed,
		Outcome:   report.Outcome,
		GameState: state,
		Message:   state.Message,
		Events:    append(events, pushEvent(report, state)),
		Step: &StepInfo{
			Idx:        1,
			Dir:        d.Name(),
			From:       report.From,
			To:         report.To,
			Outcome:    report.Outcome,
			CellsMoved: report.CellsMoved,
			GPSAfter:   state.GPSSum,
		},
		BlockedBy: blockInfo(state.Grid, report.Scan),
	}
	span.SetAttributes(
		attribute.String("push.outcome", string(report.Outcome)),
		attribute.Int("push.cells_moved", report.CellsMoved),
	)
	log.Printf("[PUSH] session=%s dir=%s outcome=%s cells=%d gps=%d", sessionID, d.Name(), report.Outcome, report.CellsMoved, state.GPSSum)

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after push: %v", sessionID, err)
	}

	return result, nil
}

// BulkPush executes named directions in sequence. Every direction is parsed
// before any push runs.
func (s *gameServiceImpl) BulkPush(ctx context.Context, sessionID string, moves []string, reset bool) (result *BulkPushResult, err error) {
	ctx, span := startSpan(ctx, "BulkPush", sessionID, attribute.Int("push.requested", len(moves)))
	defer func() { endSpan(span, err) }()

	deltas := make([]engine.Delta, 0, len(moves))
	for i, m := range moves {
		d, err := engine.ParseDirection(m)
		if err != nil {
			return nil, fmt.Errorf("%w: move %d: %v", ErrInvalidMoves, i+1, err)
		}
		deltas = append(deltas, d)
	}

	return s.runDeltas(ctx, sessionID, deltas, reset, "bulk push")
}

// RunInstructions parses a ^ > v < stream and applies it.
func (s *gameServiceImpl) RunInstructions(ctx context.Context, sessionID, stream string, reset bool) (result *BulkPushResult, err error) {
	ctx, span := startSpan(ctx, "RunInstructions", sessionID, attribute.Int("instructions.length", len(stream)))
	defer func() { endSpan(span, err) }()

	deltas, err := engine.ParseInstructions(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMoves, err)
	}
	return s.runDeltas(ctx, sessionID, deltas, reset, "instructions")
}

// PlayScript applies the session scenario's own instruction stream.
func (s *gameServiceImpl) PlayScript(ctx context.Context, sessionID string, reset bool) (result *BulkPushResult, err error) {
	ctx, span := startSpan(ctx, "PlayScript", sessionID)
	defer func() { endSpan(span, err) }()

	s.mu.RLock()
	sess, err := s.sessions.Get(sessionID)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if sess.Config.Instructions == "" {
		return nil, fmt.Errorf("%w: scenario %q has no instructions", ErrInvalidMoves, sess.Config.Name)
	}

	deltas, err := engine.ParseInstructions(sess.Config.Instructions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMoves, err)
	}
	return s.runDeltas(ctx, sessionID, deltas, reset, "script")
}

func (s *gameServiceImpl) runDeltas(ctx context.Context, sessionID string, deltas []engine.Delta, reset bool, label string) (*BulkPushResult, error) {
	span := trace.SpanFromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkPushResult{
		RequestedPushes: len(deltas),
		Events:          make([]GameEvent, 0),
		Success:         true,
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, newEvent("reset", "Warehouse reset to initial layout", sess.Engine.GetActorPosition()))
	}

	// Limit pushes to prevent abuse
	if len(deltas) > engine.MaxBulkPushes {
		result.Truncated = true
		result.Limit = engine.MaxBulkPushes
		deltas = deltas[:engine.MaxBulkPushes]
	}

	state := sess.Engine.GetState()
	result.StartPos = state.ActorPos
	result.StartGPS = state.GPSSum

	for i, d := range deltas {
		report := sess.Engine.PushWithReport(d)
		if report.Outcome == engine.Committed {
			result.Committed++
		} else {
			result.Rejected++
			if result.BlockedBy == nil {
				result.Success = false
				result.FirstRejectedOn = i + 1
				result.BlockedBy = blockInfo(sess.Engine.GetState().Grid, report.Scan)
				result.Events = append(result.Events, pushEvent(report, sess.Engine.GetState()))
			}
		}

		if len(result.Steps) < engine.MaxStepTrace {
			result.Steps = append(result.Steps, StepInfo{
				Idx:        i + 1,
				Dir:        d.Name(),
				From:       report.From,
				To:         report.To,
				Outcome:    report.Outcome,
				CellsMoved: report.CellsMoved,
				GPSAfter:   sess.Engine.GetGPSSum(),
			})
		} else {
			result.StepsTruncated = true
		}
	}

	endState := sess.Engine.GetState()
	endState.LocalView3x3 = endState.BuildLocal3x3()
	result.GameState = endState.Snapshot()
	result.EndPos = endState.ActorPos
	result.EndGPS = endState.GPSSum
	result.GPSDelta = result.EndGPS - result.StartGPS
	result.Message = fmt.Sprintf("%s: %d committed, %d rejected, GPS sum %d", label, result.Committed, result.Rejected, endState.GPSSum)
	result.Events = append(result.Events, newEvent("script", result.Message, endState.ActorPos))

	result.PossibleMoves = sess.Engine.GetPossibleMoves()
	result.LocalView3x3 = result.GameState.LocalView3x3

	span.SetAttributes(
		attribute.Int("push.committed", result.Committed),
		attribute.Int("push.rejected", result.Rejected),
		attribute.Int("warehouse.gps_sum", result.EndGPS),
	)
	log.Printf("[BULK] session=%s %s", sessionID, result.Message)

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after %s: %v", sessionID, label, err)
	}

	return result, nil
}

// Reset resets a session to its initial layout
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (state *engine.GameState, err error) {
	_, span := startSpan(ctx, "Reset", sessionID)
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	live := sess.Engine.Reset()
	live.LocalView3x3 = live.BuildLocal3x3()
	state = live.Snapshot()

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after reset: %v", sessionID, err)
	}

	return state, nil
}

// GetGameState retrieves the current state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (state *engine.GameState, err error) {
	_, span := startSpan(ctx, "GetGameState", sessionID)
	defer func() { endSpan(span, err) }()

	// Write lock: the local view is refreshed on the engine's state.
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	live := sess.Engine.GetState()
	live.LocalView3x3 = live.BuildLocal3x3()
	return live.Snapshot(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (resp *HistoryResponse, err error) {
	_, span := startSpan(ctx, "GetMoveHistory", sessionID)
	defer func() { endSpan(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	return paginate(sess.Engine.GetMoveHistory(), opts), nil
}

// paginate slices history according to opts, newest first by default.
func paginate(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append([]engine.MoveHistoryEntry(nil), history[start:end]...)
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// ListConfigs returns available scenarios
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	_, span := startSpan(ctx, "ListConfigs", "")
	defer span.End()
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific scenario
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (config *engine.GameConfig, err error) {
	_, span := startSpan(ctx, "LoadConfig", "", attribute.String("config.name", configName))
	defer func() { endSpan(span, err) }()
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a scenario to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) (err error) {
	_, span := startSpan(ctx, "SaveConfig", "", attribute.String("config.name", configName))
	defer func() { endSpan(span, err) }()
	return s.configs.SaveConfig(configName, config)
}

// pushEvent describes a single push outcome.
func pushEvent(report engine.PushReport, state *engine.GameState) GameEvent {
	switch {
	case report.Outcome == engine.Rejected:
		return newEvent("blocked", state.Message, report.From)
	case report.CellsMoved > 0:
		return newEvent("push", fmt.Sprintf("Pushed %d cells %s to (%d,%d)", report.CellsMoved, report.Direction, report.To.Row, report.To.Col), report.To)
	default:
		return newEvent("move", fmt.Sprintf("Moved %s to (%d,%d)", report.Direction, report.To.Row, report.To.Col), report.To)
	}
}

// blockInfo reports the cell that blocked a scan, or nil for a feasible one.
func blockInfo(grid *engine.Grid, scan engine.ScanResult) *BlockInfo {
	if scan.Feasible || scan.BlockedAt == nil {
		return nil
	}
	at := *scan.BlockedAt
	info := &BlockInfo{
		Row:  at.Row,
		Col:  at.Col,
		Kind: scan.Blocker.String(),
		Char: string(scan.Blocker.Rune()),
	}
	if !grid.InBounds(at) {
		info.Boundary = true
		info.Kind = "boundary"
	}
	return info
}

// IsInvalidMoves reports whether err came from unparseable push input.
func IsInvalidMoves(err error) bool {
	return errors.Is(err, ErrInvalidMoves)
}
