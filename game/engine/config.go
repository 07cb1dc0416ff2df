package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidateGameConfig checks that a scenario describes a loadable warehouse.
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if len(config.Layout) == 0 {
		return fmt.Errorf("config validation: %w", ErrEmptyLayout)
	}

	grid, _, err := ParseLayout(config.Layout, config.Doubled)
	if err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if grid.Rows() < MinGridSize || grid.Rows() > MaxGridSize {
		return fmt.Errorf("config validation: layout must have between %d and %d rows, got %d",
			MinGridSize, MaxGridSize, grid.Rows())
	}
	if grid.Cols() < MinGridSize || grid.Cols() > MaxGridSize {
		return fmt.Errorf("config validation: grid width must be between %d and %d, got %d",
			MinGridSize, MaxGridSize, grid.Cols())
	}

	if config.Instructions != "" {
		if _, err := ParseInstructions(config.Instructions); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
	}
	if config.ExpectedGPSSum < 0 {
		return fmt.Errorf("config validation: expected_gps_sum cannot be negative")
	}

	return nil
}

// DecodeGameConfig decodes a scenario from raw file contents. The format is
// chosen by extension: .json, .yaml/.yml, or .txt for plain puzzle text
// (layout, blank line, instructions). A .txt scenario takes its name from the
// file name.
func DecodeGameConfig(filename string, data []byte) (*GameConfig, error) {
	var config GameConfig

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	case ".txt":
		base := filepath.Base(filename)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		return PuzzleConfig(name, string(data), false)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return &config, nil
}

// PuzzleConfig builds a scenario from puzzle text.
func PuzzleConfig(name, text string, doubled bool) (*GameConfig, error) {
	layout, instructions, err := ParsePuzzle(text)
	if err != nil {
		return nil, err
	}
	return &GameConfig{
		Name:         name,
		Description:  fmt.Sprintf("Puzzle %s", name),
		Layout:       layout,
		Doubled:      doubled,
		Instructions: instructions,
	}, nil
}

// LoadGameConfig loads and validates a scenario file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	config, err := DecodeGameConfig(configPath, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// InitGameStateFromConfig creates a fresh state for the scenario. A nil
// config selects DefaultConfig.
func InitGameStateFromConfig(config *GameConfig) (*GameState, error) {
	if config == nil {
		config = DefaultConfig()
	}

	grid, actor, err := ParseLayout(config.Layout, config.Doubled)
	if err != nil {
		return nil, err
	}

	message := config.Messages.Welcome
	if message == "" {
		message = fmt.Sprintf("Warehouse %s loaded: %dx%d, %d objects", config.Name, grid.Rows(), grid.Cols(), CountBoxes(grid))
	}

	return &GameState{
		Grid:              grid,
		ActorPos:          actor,
		Doubled:           config.Doubled,
		GPSSum:            GPSSum(grid),
		Message:           message,
		ConfigName:        config.Name,
		MoveHistory:       []MoveHistoryEntry{},
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}, nil
}

// DefaultConfig returns the built-in 8x8 scenario used when no config is named.
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:        "default",
		Description: "Small warehouse with a column of movables",
		Layout: []string{
			"########",
			"#..O.O.#",
			"##@.O..#",
			"#...O..#",
			"#.#.O..#",
			"#...O..#",
			"#......#",
			"########",
		},
		Instructions:   "<^^>>>vv<v>>v<<",
		ExpectedGPSSum: 2028,
		Messages: Messages{
			Welcome: "Welcome to the warehouse. Push with ^ > v <.",
		},
	}
}
