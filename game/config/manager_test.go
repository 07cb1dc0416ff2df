package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

func createValidConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:        "Test Config",
		Description: "Test configuration",
		Layout: []string{
			"######",
			"#.O..#",
			"#.@O.#",
			"######",
		},
		Instructions: "^>",
	}
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.GameConfig) {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func writeRaw(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", filename, err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "reference", createValidConfig())

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Test Config" {
			t.Errorf("Expected reference to be the default, got %q", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		if _, err := NewManager("/non/existent/path"); err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory falls back to built-in default", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager should succeed without config files, got error: %v", err)
		}
		if manager.GetDefault().Name != "default" {
			t.Errorf("Expected built-in default, got %q", manager.GetDefault().Name)
		}
	})

	t.Run("first listed config when reference is missing", func(t *testing.T) {
		dir := t.TempDir()
		b := createValidConfig()
		b.Name = "Bravo"
		writeConfigFile(t, dir, "bravo", b)
		a := createValidConfig()
		a.Name = "Alpha"
		writeConfigFile(t, dir, "alpha", a)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatal(err)
		}
		if manager.GetDefault().Name != "Alpha" {
			t.Errorf("Expected Alpha, got %q", manager.GetDefault().Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "json_cfg", createValidConfig())
	writeRaw(t, dir, "yaml_cfg.yaml", "name: From YAML\nlayout:\n  - \"#####\"\n  - \"#@O.#\"\n  - \"#####\"\ndoubled: true\n")
	writeRaw(t, dir, "puzzle.txt", "#####\n#@O.#\n#####\n\n>>\n")
	writeRaw(t, dir, "broken.json", `{"name": "broken", "layout": [`)
	writeRaw(t, dir, "noactor.json", `{"name": "noactor", "layout": ["###", "#O#", "###"]}`)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		load     string
		wantName string
		wantErr  error
	}{
		{"json without extension", "json_cfg", "Test Config", nil},
		{"json with extension", "json_cfg.json", "Test Config", nil},
		{"yaml", "yaml_cfg", "From YAML", nil},
		{"puzzle text", "puzzle", "puzzle", nil},
		{"missing", "nope", "", ErrConfigNotFound},
		{"missing with extension", "nope.yaml", "", ErrConfigNotFound},
		{"path traversal", "../secret", "", ErrConfigNotFound},
		{"malformed json", "broken", "", ErrInvalidConfig},
		{"invalid layout", "noactor", "", ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := manager.LoadConfig(tt.load)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if config.Name != tt.wantName {
				t.Errorf("Expected name %q, got %q", tt.wantName, config.Name)
			}
		})
	}

	yamlCfg, _ := manager.LoadConfig("yaml_cfg")
	if !yamlCfg.Doubled {
		t.Error("Expected YAML doubled flag to be decoded")
	}
}

func TestManager_CachingBehavior(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "cached", createValidConfig())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	first, err := manager.LoadConfig("cached")
	if err != nil {
		t.Fatal(err)
	}

	changed := createValidConfig()
	changed.Name = "Changed"
	writeConfigFile(t, dir, "cached", changed)

	second, _ := manager.LoadConfig("cached.json")
	if first != second {
		t.Error("Expected cached pointer for the same config ID")
	}

	manager.RefreshCache()
	third, _ := manager.LoadConfig("cached")
	if third.Name != "Changed" {
		t.Errorf("Expected refreshed config, got %q", third.Name)
	}
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()
	doubled := createValidConfig()
	doubled.Name = "Wide"
	doubled.Doubled = true
	doubled.ExpectedGPSSum = 42
	writeConfigFile(t, dir, "wide", doubled)
	writeConfigFile(t, dir, "narrow", createValidConfig())
	writeRaw(t, dir, "puzzle.txt", "#####\n#@O.#\n#####\n\n>>\n")
	writeRaw(t, dir, "notes.md", "# not a scenario")
	writeRaw(t, dir, "bad.json", "{")
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	configs, err := manager.ListConfigs()
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, c := range configs {
		ids = append(ids, c.ConfigID)
	}
	if strings.Join(ids, ",") != "narrow,puzzle,wide" {
		t.Fatalf("Unexpected config IDs %v", ids)
	}

	wide := configs[2]
	if wide.Rows != 4 || wide.Cols != 12 || !wide.Doubled || wide.Boxes != 2 {
		t.Errorf("Unexpected info %+v", wide)
	}
	if !wide.HasInstructions || wide.ExpectedGPSSum != 42 || wide.Filename != "wide.json" {
		t.Errorf("Unexpected info %+v", wide)
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("json by default", func(t *testing.T) {
		if err := manager.SaveConfig("saved", createValidConfig()); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
			t.Errorf("Expected saved.json: %v", err)
		}
	})

	t.Run("yaml by extension", func(t *testing.T) {
		cfg := createValidConfig()
		cfg.Name = "Yaml Saved"
		if err := manager.SaveConfig("saved_yaml.yaml", cfg); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "saved_yaml.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "name: Yaml Saved") {
			t.Errorf("Expected YAML output, got:\n%s", data)
		}

		manager.RefreshCache()
		loaded, err := manager.LoadConfig("saved_yaml")
		if err != nil || loaded.Name != "Yaml Saved" {
			t.Errorf("Expected round trip through YAML, got %+v (%v)", loaded, err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		err := manager.SaveConfig("bad", &engine.GameConfig{Name: "bad"})
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("puzzle text is read-only", func(t *testing.T) {
		if err := manager.SaveConfig("p.txt", createValidConfig()); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("bad name", func(t *testing.T) {
		if err := manager.SaveConfig("../escape", createValidConfig()); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	other := createValidConfig()
	other.Name = "Other"
	writeConfigFile(t, dir, "other", other)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := manager.SetDefault("other"); err != nil {
		t.Fatal(err)
	}
	if manager.GetDefault().Name != "Other" {
		t.Errorf("Expected Other, got %q", manager.GetDefault().Name)
	}
	if err := manager.SetDefault("missing"); err == nil {
		t.Error("Expected error for missing config")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		writeConfigFile(t, dir, name, createValidConfig())
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := []string{"a", "b", "c"}[i%3]
			if _, err := manager.LoadConfig(name); err != nil {
				errs <- err
			}
			if _, err := manager.ListConfigs(); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent access error: %v", err)
	}
}
