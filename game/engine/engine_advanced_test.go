package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadPuzzle(t *testing.T, name string, doubled bool) (*GameEngine, []Delta) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name+".txt"))
	require.NoError(t, err)

	config, err := PuzzleConfig(name, string(data), doubled)
	require.NoError(t, err)
	eng, err := NewEngine(config)
	require.NoError(t, err)

	deltas, err := ParseInstructions(config.Instructions)
	require.NoError(t, err)
	return eng, deltas
}

func TestReferenceScenarios(t *testing.T) {
	tests := []struct {
		puzzle  string
		doubled bool
		want    int
	}{
		{"reference", false, 10092},
		{"reference", true, 9021},
		{"small", false, 2028},
		{"small", true, 1751},
		{"small2", false, 908},
		{"small2", true, 618},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range tests {
		width := "single"
		if tt.doubled {
			width = "doubled"
		}
		name := tt.puzzle + "_" + width

		t.Run(name, func(t *testing.T) {
			eng, deltas := loadPuzzle(t, tt.puzzle, tt.doubled)
			boxes := eng.GetBoxCount()

			summary := eng.Run(deltas)

			assert.Equal(t, tt.want, summary.GPSSum)
			assert.Equal(t, tt.want, GPSSum(eng.GetState().Grid))
			assert.Equal(t, len(deltas), summary.Committed+summary.Rejected)
			assert.Equal(t, boxes, eng.GetBoxCount(), "objects are never created or destroyed")
			g.Assert(t, name, []byte(eng.GetState().Grid.String()))
		})
	}
}

func TestReferenceScenario_InvariantsHoldAfterEveryPush(t *testing.T) {
	eng, deltas := loadPuzzle(t, "reference", true)
	grid := eng.GetState().Grid
	rows, cols := grid.Rows(), grid.Cols()
	walls := CountCellKind(grid, Wall)

	for i, d := range deltas {
		before := grid.Clone()
		report := eng.PushWithReport(d)
		grid = eng.GetState().Grid

		actor, err := grid.validate()
		require.NoError(t, err, "push %d (%s)", i, d.Symbol())
		require.Equal(t, eng.GetActorPosition(), actor)
		require.Equal(t, rows, grid.Rows())
		require.Equal(t, cols, grid.Cols())
		require.Equal(t, walls, CountCellKind(grid, Wall))

		if report.Outcome == Rejected {
			require.True(t, before.Equal(grid), "rejected push %d changed the grid", i)
			continue
		}
		require.Equal(t, report.From.Add(d), report.To)
	}
}

func TestPlayScript_MatchesExpectedGPS(t *testing.T) {
	config, err := LoadGameConfig(filepath.Join("testdata", "reference.txt"))
	require.NoError(t, err)
	config.ExpectedGPSSum = 10092

	eng, err := NewEngine(config)
	require.NoError(t, err)

	summary, err := eng.PlayScript()
	require.NoError(t, err)
	assert.Equal(t, config.ExpectedGPSSum, summary.GPSSum)
	assert.Equal(t, summary.Committed, eng.GetState().Committed)
	assert.Equal(t, summary.Rejected, eng.GetState().Rejected)
	assert.Len(t, eng.GetMoveHistory(), summary.Requested)
}
