package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

func createTestConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:        "Test Config",
		Description: "Test configuration",
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

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" {
			t.Errorf("Expected session ID 'test-session', got '%s'", session.ID)
		}
		if session.Engine == nil {
			t.Error("Expected engine to be initialized")
		}
		if session.Engine.GetGPSSum() != 505 {
			t.Errorf("Expected GPS sum 505, got %d", session.Engine.GetGPSSum())
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character session ID, got %q", session.ID)
		}
	})

	t.Run("duplicate session ID", func(t *testing.T) {
		_, err := manager.Create("test-session", config)
		if !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("case-insensitive duplicate check", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", config)
		if !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists for case variant, got %v", err)
		}
	})

	t.Run("invalid ID", func(t *testing.T) {
		_, err := manager.Create("../escape", config)
		if !errors.Is(err, ErrInvalidSessionID) {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		invalidConfig := createTestConfig()
		invalidConfig.Layout = []string{"###", "#.#", "###"}
		_, err := manager.Create("invalid-test", invalidConfig)
		if err == nil {
			t.Error("Expected error for layout without an actor")
		}
		if manager.sessionExists("invalid-test") {
			t.Error("Failed creation should not register a session")
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, _ := manager.Create("get-test", createTestConfig())

	t.Run("get existing session", func(t *testing.T) {
		session, err := manager.Get("get-test")
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}
		if session != created {
			t.Error("Expected the same session instance")
		}
	})

	t.Run("case-insensitive get", func(t *testing.T) {
		session, err := manager.Get("GET-TEST")
		if err != nil {
			t.Fatalf("Failed to get session with different case: %v", err)
		}
		if session != created {
			t.Error("Expected the same session instance")
		}
	})

	t.Run("get non-existent session", func(t *testing.T) {
		if _, err := manager.Get("non-existent"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestManager_GetOrCreate(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	first, err := manager.GetOrCreate("goc", config)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	second, err := manager.GetOrCreate("goc", config)
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if first != second {
		t.Error("Expected GetOrCreate to return the existing session")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", manager.Count())
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()
	manager.Create("delete-me", config)
	manager.Create("Mixed-Case", config)

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"delete existing session", "delete-me", nil},
		{"delete twice", "delete-me", ErrSessionNotFound},
		{"case-insensitive delete", "mixed-case", nil},
		{"delete non-existent session", "ghost", ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := manager.Delete(tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if manager.Count() != 0 {
		t.Errorf("Expected no sessions left, got %d", manager.Count())
	}
}

func TestManager_DeleteFromMemory(t *testing.T) {
	manager := NewManager()
	manager.Create("mem", createTestConfig())

	if err := manager.DeleteFromMemory("MEM"); err != nil {
		t.Fatalf("DeleteFromMemory failed: %v", err)
	}
	if err := manager.DeleteFromMemory("mem"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	if len(manager.List()) != 0 {
		t.Error("Expected empty list for a new manager")
	}

	ids := map[string]bool{"list-1": true, "list-2": true, "list-3": true}
	for id := range ids {
		if _, err := manager.Create(id, config); err != nil {
			t.Fatal(err)
		}
	}

	sessions := manager.List()
	if len(sessions) != len(ids) {
		t.Fatalf("Expected %d sessions, got %d", len(ids), len(sessions))
	}
	for _, s := range sessions {
		if !ids[s.ID] {
			t.Errorf("Unexpected session %s", s.ID)
		}
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	old, _ := manager.Create("old", config)
	manager.Create("fresh", config)
	old.LastAccessedAt = time.Now().Add(-2 * time.Hour)

	removed := manager.CleanupExpiredSessions(time.Hour)
	if removed != 1 {
		t.Errorf("Expected 1 expired session, got %d", removed)
	}
	if _, err := manager.Get("old"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("Expected expired session to be gone")
	}
	if _, err := manager.Get("fresh"); err != nil {
		t.Errorf("Expected fresh session to survive: %v", err)
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	session, _ := manager.Create("touch", createTestConfig())
	before := time.Now().Add(-time.Minute)
	session.LastAccessedAt = before

	if err := manager.UpdateLastAccessed("TOUCH"); err != nil {
		t.Fatalf("UpdateLastAccessed failed: %v", err)
	}
	if !session.LastAccessedAt.After(before) {
		t.Error("Expected LastAccessedAt to move forward")
	}
	if err := manager.UpdateLastAccessed("ghost"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_SaveWithoutPersistence(t *testing.T) {
	manager := NewManager()
	if err := manager.Save("anything"); err != nil {
		t.Errorf("Save without persistence should be a no-op, got %v", err)
	}
	if err := manager.SaveAllSessions(); err != nil {
		t.Errorf("SaveAllSessions without persistence should be a no-op, got %v", err)
	}
	if err := manager.LoadPersistedSessions(); err != nil {
		t.Errorf("LoadPersistedSessions without persistence should be a no-op, got %v", err)
	}
	if manager.SyncFromPersistence() != 0 {
		t.Error("SyncFromPersistence without persistence should drop nothing")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("conc-%d", i%20)
			session, err := manager.GetOrCreate(id, config)
			if err != nil && !errors.Is(err, ErrSessionAlreadyExists) {
				errs <- err
				return
			}
			if session != nil {
				manager.UpdateLastAccessed(id)
			}
			manager.List()
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
	if manager.Count() != 20 {
		t.Errorf("Expected 20 sessions, got %d", manager.Count())
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	session1, _ := manager.Create("iso-1", config)
	session2, _ := manager.Create("iso-2", config)

	if !session1.Engine.Push(engine.Left) {
		t.Fatal("Expected push left to commit")
	}

	if got := session2.Engine.GetActorPosition(); got != (engine.Position{Row: 2, Col: 3}) {
		t.Errorf("Session 2 should not be affected by session 1 pushes, actor at %+v", got)
	}
	if session1.Engine.GetGPSSum() != 504 || session2.Engine.GetGPSSum() != 505 {
		t.Errorf("Expected GPS sums 504 and 505, got %d and %d",
			session1.Engine.GetGPSSum(), session2.Engine.GetGPSSum())
	}
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	generatedIDs := make(map[string]bool)

	for i := 0; i < 50; i++ {
		session, err := manager.Create("", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}

		if generatedIDs[session.ID] {
			t.Errorf("Duplicate session ID generated: %s", session.ID)
		}
		generatedIDs[session.ID] = true

		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character ID, got %d", len(session.ID))
		}
	}
}
