// Command analyze replays the instruction script of every scenario in a
// configs directory and prints how the pushes went: commits and rejections
// per direction, the longest chain of boxes moved by one push, and the final
// GPS sum against the expected one.
//
//	go run ./cmd/analyze [configs-dir]
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// DirectionStats counts push outcomes for one direction.
type DirectionStats struct {
	Committed int
	Rejected  int
}

// Analysis summarizes one scenario script run.
type Analysis struct {
	Name        string
	Rows, Cols  int
	Doubled     bool
	Boxes       int
	Actor       engine.Position
	InitialGPS  int
	Pushes      int
	Committed   int
	Rejected    int
	LongestPush int
	FinalGPS    int
	ExpectedGPS int
	ByDirection map[string]*DirectionStats
}

// analyzeConfig loads a scenario file and replays its script.
func analyzeConfig(path string) (*Analysis, error) {
	config, err := engine.LoadGameConfig(path)
	if err != nil {
		return nil, err
	}
	return analyze(config)
}

func analyze(config *engine.GameConfig) (*Analysis, error) {
	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, err
	}
	deltas, err := engine.ParseInstructions(config.Instructions)
	if err != nil {
		return nil, err
	}

	state := eng.GetState()
	a := &Analysis{
		Name:        config.Name,
		Rows:        state.Grid.Rows(),
		Cols:        state.Grid.Cols(),
		Doubled:     config.Doubled,
		Boxes:       eng.GetBoxCount(),
		Actor:       state.ActorPos,
		InitialGPS:  eng.GetGPSSum(),
		Pushes:      len(deltas),
		ExpectedGPS: config.ExpectedGPSSum,
		ByDirection: make(map[string]*DirectionStats),
	}

	for _, d := range deltas {
		report := eng.PushWithReport(d)
		stats, ok := a.ByDirection[d.Symbol()]
		if !ok {
			stats = &DirectionStats{}
			a.ByDirection[d.Symbol()] = stats
		}
		if report.Outcome == engine.Committed {
			a.Committed++
			stats.Committed++
		} else {
			a.Rejected++
			stats.Rejected++
		}
		a.LongestPush = max(a.LongestPush, report.CellsMoved)
	}
	a.FinalGPS = eng.GetGPSSum()
	return a, nil
}

func printAnalysis(w io.Writer, a *Analysis) {
	mode := "single"
	if a.Doubled {
		mode = "doubled"
	}
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid: %d x %d (%s)\n", a.Rows, a.Cols, mode)
	fmt.Fprintf(w, "Boxes: %d\n", a.Boxes)
	fmt.Fprintf(w, "Actor: (%d, %d)\n", a.Actor.Row, a.Actor.Col)
	fmt.Fprintf(w, "Initial GPS: %d\n", a.InitialGPS)

	if a.Pushes == 0 {
		fmt.Fprintf(w, "No instruction script\n")
		return
	}

	fmt.Fprintf(w, "Pushes: %d (%d committed, %d rejected)\n", a.Pushes, a.Committed, a.Rejected)

	symbols := make([]string, 0, len(a.ByDirection))
	for symbol := range a.ByDirection {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		s := a.ByDirection[symbol]
		fmt.Fprintf(w, "  %s %d committed, %d rejected\n", symbol, s.Committed, s.Rejected)
	}

	fmt.Fprintf(w, "Longest push: %d cells\n", a.LongestPush)
	fmt.Fprintf(w, "Final GPS: %d\n", a.FinalGPS)

	switch {
	case a.ExpectedGPS == 0:
	case a.ExpectedGPS == a.FinalGPS:
		fmt.Fprintf(w, "✅ Matches expected GPS sum\n")
	default:
		fmt.Fprintf(w, "⚠️  Expected GPS %d, got %d\n", a.ExpectedGPS, a.FinalGPS)
	}
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", dir, err)
		os.Exit(1)
	}

	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".json" && ext != ".yaml" && ext != ".yml" && ext != ".txt") {
			continue
		}

		fmt.Printf("\n=== Analyzing %s ===\n", entry.Name())
		a, err := analyzeConfig(filepath.Join(dir, entry.Name()))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, a)
	}
}
