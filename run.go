package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Apply a puzzle's instruction stream offline and print the final GPS sum",
		ArgsUsage: "<puzzle-file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "doubled", Usage: "Only solve the doubled-width warehouse"},
			&cli.BoolFlag{Name: "print", Usage: "Render the final grid"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("run expects exactly one puzzle file, got %d args", cmd.NArg())
			}
			modes := []bool{false, true}
			if cmd.Bool("doubled") {
				modes = []bool{true}
			}
			return solvePuzzle(cmd.Root().Writer, cmd.Args().First(), modes, cmd.Bool("print"))
		},
	}
}

// loadPuzzle reads a scenario in any supported format; raw .txt puzzles
// take their name from the file.
func loadPuzzle(path string) (*engine.GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return engine.DecodeGameConfig(path, data)
}

// solvePuzzle runs the puzzle once per width mode and writes one line per
// run, optionally followed by the final grid.
func solvePuzzle(w io.Writer, path string, modes []bool, render bool) error {
	config, err := loadPuzzle(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s\n", config.Name)
	for _, doubled := range modes {
		variant := *config
		variant.Doubled = doubled

		eng, err := engine.NewEngine(&variant)
		if err != nil {
			return err
		}
		summary, err := eng.PlayScript()
		if err != nil {
			return err
		}

		label := "single"
		if doubled {
			label = "doubled"
		}
		fmt.Fprintf(w, "%s: %d (%d committed, %d rejected)\n", label, summary.GPSSum, summary.Committed, summary.Rejected)
		if render {
			fmt.Fprint(w, eng.GetState().Grid.String())
		}
	}
	return nil
}
