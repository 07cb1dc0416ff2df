package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	saves    int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, config)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

func (m *MockSessionManager) Save(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	m.saves++
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
}

func testConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:        "test",
		Description: "Test warehouse",
		Layout: []string{
			"#######",
			"#.....#",
			"#.O@..#",
			"#..O..#",
			"#######",
		},
		Instructions: "<<>>v",
	}
}

func NewMockConfigManager() *MockConfigManager {
	noScript := testConfig()
	noScript.Name = "noscript"
	noScript.Instructions = ""

	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"default":  engine.DefaultConfig(),
			"test":     testConfig(),
			"noscript": noScript,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, service.ErrConfigNotFound
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["default"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return err
	}
	m.configs[name] = config
	return nil
}

func newTestService(t *testing.T) (service.GameService, *MockSessionManager, string) {
	t.Helper()
	sessions := NewMockSessionManager()
	svc := service.NewGameService(sessions, NewMockConfigManager())

	info, err := svc.CreateSession(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return svc, sessions, info.ID
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	tests := []struct {
		name       string
		configName string
		wantConfig string
		wantErr    bool
	}{
		{"create with default config", "", "default", false},
		{"create with specific config", "test", "test", false},
		{"create with invalid config", "nonexistent", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.CreateSession(ctx, tt.configName)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if session == nil || session.GameState == nil {
				t.Fatal("CreateSession() returned nil session")
			}
			if session.ConfigName != tt.wantConfig {
				t.Errorf("Expected config %q, got %q", tt.wantConfig, session.ConfigName)
			}
		})
	}

	_, err := svc.CreateSession(ctx, "nonexistent")
	if err == nil || !strings.Contains(err.Error(), "Available configs") {
		t.Errorf("Expected error listing available configs, got %v", err)
	}
}

func TestGameService_Push(t *testing.T) {
	ctx := context.Background()
	svc, sessions, id := newTestService(t)

	res, err := svc.Push(ctx, id, "left", false)
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if !res.Success || res.Outcome != engine.Committed {
		t.Errorf("Expected committed push, got %+v", res)
	}
	if res.Step == nil || res.Step.CellsMoved != 1 || res.Step.Dir != "left" {
		t.Errorf("Unexpected step %+v", res.Step)
	}
	if res.BlockedBy != nil {
		t.Errorf("Expected no block info, got %+v", res.BlockedBy)
	}
	if len(res.GameState.LocalView3x3) != 3 {
		t.Errorf("Expected 3x3 local view, got %v", res.GameState.LocalView3x3)
	}

	res, err = svc.Push(ctx, id, "<", false)
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if res.Success || res.Outcome != engine.Rejected {
		t.Errorf("Expected rejected push, got %+v", res)
	}
	if res.BlockedBy == nil || res.BlockedBy.Row != 2 || res.BlockedBy.Col != 0 || res.BlockedBy.Kind != "wall" {
		t.Errorf("Expected wall at (2,0), got %+v", res.BlockedBy)
	}
	if len(res.Events) != 1 || res.Events[0].Type != "blocked" {
		t.Errorf("Expected one blocked event, got %+v", res.Events)
	}

	if sessions.saves != 2 {
		t.Errorf("Expected 2 saves, got %d", sessions.saves)
	}

	_, err = svc.Push(ctx, id, "diagonal", false)
	if !service.IsInvalidMoves(err) {
		t.Errorf("Expected ErrInvalidMoves, got %v", err)
	}

	if _, err := svc.Push(ctx, "nonexistent", "up", false); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestGameService_PushWithReset(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	svc.Push(ctx, id, "left", false)
	res, err := svc.Push(ctx, id, "left", true)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Error("Expected push after reset to commit")
	}
	if len(res.Events) != 2 || res.Events[0].Type != "reset" || res.Events[1].Type != "push" {
		t.Errorf("Unexpected events %+v", res.Events)
	}
}

func TestGameService_BulkPush(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	res, err := svc.BulkPush(ctx, id, []string{"left", "left", "right", "down"}, false)
	if err != nil {
		t.Fatalf("BulkPush failed: %v", err)
	}
	if res.RequestedPushes != 4 || res.Committed != 2 || res.Rejected != 2 {
		t.Errorf("Unexpected counts %+v", res)
	}
	if res.Success || res.FirstRejectedOn != 2 {
		t.Errorf("Expected first rejection on push 2, got success=%v on=%d", res.Success, res.FirstRejectedOn)
	}
	if res.StartGPS != 505 || res.EndGPS != 504 || res.GPSDelta != -1 {
		t.Errorf("Unexpected GPS %d -> %d (%d)", res.StartGPS, res.EndGPS, res.GPSDelta)
	}
	if len(res.Steps) != 4 || res.Steps[3].Outcome != engine.Rejected {
		t.Errorf("Unexpected steps %+v", res.Steps)
	}
	if res.EndPos != (engine.Position{Row: 2, Col: 3}) {
		t.Errorf("Unexpected end position %+v", res.EndPos)
	}
}

func TestGameService_BulkPushRejectsMalformedInput(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	_, err := svc.BulkPush(ctx, id, []string{"left", "sideways"}, false)
	if !errors.Is(err, service.ErrInvalidMoves) {
		t.Fatalf("Expected ErrInvalidMoves, got %v", err)
	}

	state, err := svc.GetGameState(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if state.TotalMoves != 0 {
		t.Errorf("Expected nothing applied, got %d moves", state.TotalMoves)
	}
}

func TestGameService_BulkPushTruncates(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	moves := make([]string, engine.MaxBulkPushes+5)
	for i := range moves {
		moves[i] = "up"
	}

	res, err := svc.BulkPush(ctx, id, moves, false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Truncated || res.Limit != engine.MaxBulkPushes {
		t.Errorf("Expected truncation at %d, got %+v", engine.MaxBulkPushes, res.Limit)
	}
	if res.Committed+res.Rejected != engine.MaxBulkPushes {
		t.Errorf("Expected %d pushes, got %d", engine.MaxBulkPushes, res.Committed+res.Rejected)
	}
	if len(res.Steps) != engine.MaxStepTrace || !res.StepsTruncated {
		t.Errorf("Expected %d trace steps, got %d", engine.MaxStepTrace, len(res.Steps))
	}
}

func TestGameService_RunInstructions(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	res, err := svc.RunInstructions(ctx, id, "<<\n>>v", false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Committed != 4 || res.Rejected != 1 {
		t.Errorf("Unexpected counts %d/%d", res.Committed, res.Rejected)
	}

	if _, err := svc.RunInstructions(ctx, id, "<x", false); !errors.Is(err, service.ErrInvalidMoves) {
		t.Errorf("Expected ErrInvalidMoves, got %v", err)
	}
}

func TestGameService_PlayScript(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	svc.Push(ctx, id, "down", false)
	res, err := svc.PlayScript(ctx, id, true)
	if err != nil {
		t.Fatalf("PlayScript failed: %v", err)
	}
	if res.Committed != 4 || res.Rejected != 1 {
		t.Errorf("Unexpected counts %d/%d", res.Committed, res.Rejected)
	}
	if res.Events[0].Type != "reset" || res.Events[len(res.Events)-1].Type != "script" {
		t.Errorf("Unexpected events %+v", res.Events)
	}

	info, err := svc.CreateSession(ctx, "noscript")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.PlayScript(ctx, info.ID, false); !errors.Is(err, service.ErrInvalidMoves) {
		t.Errorf("Expected ErrInvalidMoves for scenario without instructions, got %v", err)
	}
}

func TestGameService_EventIDsAreTimeOrdered(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	res, err := svc.BulkPush(ctx, id, []string{"left", "left"}, true)
	if err != nil {
		t.Fatal(err)
	}
	for _, ev := range res.Events {
		parsed, err := uuid.Parse(ev.ID)
		if err != nil {
			t.Fatalf("event %q has invalid id %q: %v", ev.Type, ev.ID, err)
		}
		if parsed.Version() != 7 {
			t.Errorf("Expected version 7 uuid, got %d", parsed.Version())
		}
	}
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	svc.RunInstructions(ctx, id, "<<>>v", false)

	tests := []struct {
		name      string
		opts      service.HistoryOptions
		wantLen   int
		wantFirst int
		wantNext  bool
	}{
		{"default desc", service.HistoryOptions{}, 5, 5, false},
		{"asc page 1", service.HistoryOptions{Page: 1, Limit: 2, Order: "asc"}, 2, 1, true},
		{"asc page 3", service.HistoryOptions{Page: 3, Limit: 2, Order: "asc"}, 1, 5, false},
		{"desc page 2", service.HistoryOptions{Page: 2, Limit: 2}, 2, 3, true},
		{"past the end", service.HistoryOptions{Page: 9, Limit: 2, Order: "asc"}, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetMoveHistory(ctx, id, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(resp.Moves) != tt.wantLen {
				t.Fatalf("Expected %d moves, got %d", tt.wantLen, len(resp.Moves))
			}
			if tt.wantLen > 0 && resp.Moves[0].MoveNumber != tt.wantFirst {
				t.Errorf("Expected first move %d, got %d", tt.wantFirst, resp.Moves[0].MoveNumber)
			}
			if resp.HasNext != tt.wantNext {
				t.Errorf("Expected HasNext %v, got %v", tt.wantNext, resp.HasNext)
			}
			if resp.TotalMoves != 5 {
				t.Errorf("Expected 5 total moves, got %d", resp.TotalMoves)
			}
		})
	}
}

func TestGameService_ListAndDeleteSessions(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	if _, err := svc.CreateSession(ctx, ""); err != nil {
		t.Fatal(err)
	}

	sessions, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(sessions))
	}

	if err := svc.DeleteSession(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetSession(ctx, id); err == nil {
		t.Error("Expected error for deleted session")
	}
}

func TestGameService_Reset(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	initial, err := svc.GetGameState(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	initialGrid := initial.Grid.String()

	svc.Push(ctx, id, "left", false)
	state, err := svc.Reset(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if state.Grid.String() != initialGrid {
		t.Errorf("Reset did not restore grid:\n%s", state.Grid.String())
	}
	if state.TotalMoves != 1 || state.CurrentMovesCount != 0 {
		t.Errorf("Unexpected history counters %d/%d", state.TotalMoves, state.CurrentMovesCount)
	}
}

func TestGameService_Configs(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	configs, err := svc.ListConfigs(ctx)
	if err != nil || len(configs) != 3 {
		t.Fatalf("Expected 3 configs, got %d (%v)", len(configs), err)
	}

	custom := testConfig()
	custom.Name = "custom"
	if err := svc.SaveConfig(ctx, "custom", custom); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := svc.LoadConfig(ctx, "custom")
	if err != nil || loaded.Name != "custom" {
		t.Errorf("Expected saved config, got %+v (%v)", loaded, err)
	}

	if err := svc.SaveConfig(ctx, "broken", &engine.GameConfig{Name: "broken"}); err == nil {
		t.Error("Expected validation error")
	}
}

func TestGameService_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx := context.Background()
	svc, _, id := newTestService(t)
	svc.Push(ctx, id, "left", false)
	svc.Push(ctx, "missing", "left", false)

	var names []string
	var failed int
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
		if span.Status().Code.String() == "Error" {
			failed++
		}
	}

	joined := strings.Join(names, ",")
	if !strings.Contains(joined, "GameService.CreateSession") || strings.Count(joined, "GameService.Push") != 2 {
		t.Errorf("Unexpected spans %v", names)
	}
	if failed != 1 {
		t.Errorf("Expected 1 failed span, got %d", failed)
	}
}

func TestGameService_ReturnedStateIsDetached(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	before, err := svc.GetGameState(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	grid := before.Grid.String()
	info, err := svc.GetSession(ctx, id)
	if err != nil {
		t.Fatal(err)
	}

	pushed, err := svc.Push(ctx, id, "left", false)
	if err != nil {
		t.Fatal(err)
	}
	if before.Grid.String() != grid || before.TotalMoves != 0 {
		t.Errorf("Earlier state changed after push:\n%s", before.Grid.String())
	}
	if info.GameState.ActorPos != before.ActorPos || len(info.GameState.MoveHistory) != 0 {
		t.Errorf("Session info followed the engine: %+v", info.GameState.ActorPos)
	}

	// Scribbling on a result must not reach the session.
	pushed.GameState.MoveHistory[0].Action = "tampered"
	pushed.GameState.LocalView3x3[0] = "xxx"
	after, err := svc.GetGameState(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if after.MoveHistory[0].Action == "tampered" || after.LocalView3x3[0] == "xxx" {
		t.Errorf("Mutating a push result leaked into the session: %+v", after.MoveHistory[0])
	}
}

func TestGameService_ConcurrentPushAndRead(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	const rounds = 50
	var wg sync.WaitGroup
	errs := make(chan error, 4*rounds)

	wg.Add(4)
	go func() {
		defer wg.Done()
		dirs := []string{"<", ">", "^", "v"}
		for i := 0; i < rounds; i++ {
			res, err := svc.Push(ctx, id, dirs[i%len(dirs)], false)
			if err != nil {
				errs <- err
				continue
			}
			if _, err := json.Marshal(res); err != nil {
				errs <- err
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			res, err := svc.BulkPush(ctx, id, []string{"left", "right"}, false)
			if err != nil {
				errs <- err
				continue
			}
			if _, err := json.Marshal(res); err != nil {
				errs <- err
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			info, err := svc.GetSession(ctx, id)
			if err != nil {
				errs <- err
				continue
			}
			if _, err := json.Marshal(info); err != nil {
				errs <- err
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			state, err := svc.GetGameState(ctx, id)
			if err != nil {
				errs <- err
				continue
			}
			if _, err := json.Marshal(state); err != nil {
				errs <- err
			}
			history, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Order: "asc", Limit: 100})
			if err != nil {
				errs <- err
				continue
			}
			if _, err := json.Marshal(history); err != nil {
				errs <- err
			}
		}
	}()

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	state, err := svc.GetGameState(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if state.TotalMoves != 3*rounds {
		t.Errorf("Expected %d moves, got %d", 3*rounds, state.TotalMoves)
	}
}
