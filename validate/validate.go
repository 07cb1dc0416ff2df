// Command validate checks the warehouse scenarios in the ../configs directory.
// Every .json, .yaml/.yml and .txt file is decoded and checked for:
//   - a rectangular layout using only . # O [ ] @ (after doubling)
//   - exactly one actor and well-formed [ ] pairs
//   - a fully walled border
//   - a parseable instruction stream
//   - a matching GPS sum when expected_gps_sum and instructions are both set
//
// Cornered boxes and cells the actor can never reach are reported as
// information, not errors.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single scenario file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := engine.DecodeGameConfig(filePath, data)
	if err != nil {
		result.fail("Failed to decode: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		result.fail("%v", err)
		return result
	}

	grid, actor, err := engine.ParseLayout(config.Layout, config.Doubled)
	if err != nil {
		result.fail("Invalid layout: %v", err)
		return result
	}

	for _, p := range openBorder(grid) {
		result.fail("Border cell at [%d,%d] is not a wall", p.Row, p.Col)
	}

	if config.ExpectedGPSSum > 0 && config.Instructions != "" {
		got, err := scriptGPS(config)
		if err != nil {
			result.fail("Script failed: %v", err)
		} else if got != config.ExpectedGPSSum {
			result.fail("Script GPS sum %d does not match expected_gps_sum %d", got, config.ExpectedGPSSum)
		}
	}

	if !result.Valid {
		return result
	}

	mode := "single"
	if config.Doubled {
		mode = "doubled"
	}
	result.info("Name: %s", config.Name)
	result.info("Grid: %dx%d (%s)", grid.Rows(), grid.Cols(), mode)
	result.info("Actor: [%d,%d]", actor.Row, actor.Col)
	result.info("Boxes: %d", engine.CountBoxes(grid))
	result.info("Initial GPS: %d", engine.GPSSum(grid))
	if config.Instructions != "" {
		deltas, _ := engine.ParseInstructions(config.Instructions)
		result.info("Instructions: %d pushes", len(deltas))
	}
	if config.ExpectedGPSSum > 0 && config.Instructions != "" {
		result.info("Script GPS: %d", config.ExpectedGPSSum)
	}
	if n := len(corneredBoxes(grid)); n > 0 {
		result.info("Cornered boxes: %d (can never move)", n)
	}
	if n := unreachableCells(grid, actor); n > 0 {
		result.info("Unreachable open cells: %d", n)
	}

	return result
}

// scriptGPS runs the scenario's instruction stream and returns the final GPS sum.
func scriptGPS(config *engine.GameConfig) (int, error) {
	eng, err := engine.NewEngine(config)
	if err != nil {
		return 0, err
	}
	summary, err := eng.PlayScript()
	if err != nil {
		return 0, err
	}
	return summary.GPSSum, nil
}

// openBorder lists the edge cells that are not walls.
func openBorder(grid *engine.Grid) []engine.Position {
	var open []engine.Position
	check := func(p engine.Position) {
		if kind, _ := grid.Get(p); kind != engine.Wall {
			open = append(open, p)
		}
	}
	for c := 0; c < grid.Cols(); c++ {
		check(engine.Position{Row: 0, Col: c})
		check(engine.Position{Row: grid.Rows() - 1, Col: c})
	}
	for r := 1; r < grid.Rows()-1; r++ {
		check(engine.Position{Row: r, Col: 0})
		check(engine.Position{Row: r, Col: grid.Cols() - 1})
	}
	return open
}

func isWall(grid *engine.Grid, p engine.Position) bool {
	kind, ok := grid.Get(p)
	return !ok || kind == engine.Wall
}

// corneredBoxes returns single boxes with a wall on one vertical and one
// horizontal side. No push can ever move them.
func corneredBoxes(grid *engine.Grid) []engine.Position {
	var cornered []engine.Position
	for _, p := range grid.Find(engine.Movable) {
		vertical := isWall(grid, p.Add(engine.Up)) || isWall(grid, p.Add(engine.Down))
		horizontal := isWall(grid, p.Add(engine.Left)) || isWall(grid, p.Add(engine.Right))
		if vertical && horizontal {
			cornered = append(cornered, p)
		}
	}
	return cornered
}

// unreachableCells counts non-wall cells not connected to the actor through
// other non-wall cells.
func unreachableCells(grid *engine.Grid, actor engine.Position) int {
	seen := map[engine.Position]bool{actor: true}
	queue := []engine.Position{actor}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range []engine.Delta{engine.Up, engine.Down, engine.Left, engine.Right} {
			next := p.Add(d)
			if seen[next] || isWall(grid, next) {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}

	open := 0
	for r := 0; r < grid.Rows(); r++ {
		for c := 0; c < grid.Cols(); c++ {
			if !isWall(grid, engine.Position{Row: r, Col: c}) {
				open++
			}
		}
	}
	return open - len(seen)
}

// scenarioFiles lists every scenario file in dir, sorted by name.
func scenarioFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml", "*.txt"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates every scenario in ../configs, printing a concise report and
// exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := scenarioFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All scenarios are valid!")
	} else {
		fmt.Println("❌ Some scenarios have errors")
		os.Exit(1)
	}
}
