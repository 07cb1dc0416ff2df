// Command replay plays a scenario's instruction script against a running
// warehouse server and checks every push against a local engine fed the
// same scenario. Any difference in outcome, actor position or GPS sum is
// reported as a divergence.
//
//	go run ./cmd/replay --url http://localhost:8080 --config reference --chunk 100
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// Report summarizes one replay.
type Report struct {
	Session     string
	Config      string
	Pushes      int
	Committed   int
	Rejected    int
	FinalGPS    int
	ExpectedGPS int
	Divergences []string
}

func (r *Report) diverge(format string, args ...any) {
	r.Divergences = append(r.Divergences, fmt.Sprintf(format, args...))
}

// replay creates a fresh session for configName and pushes the scenario's
// script one move at a time, or in bulk batches of chunk moves when chunk > 0.
func replay(ctx context.Context, client *Client, configName string, chunk int) (*Report, error) {
	config, err := client.LoadConfig(ctx, configName)
	if err != nil {
		return nil, err
	}
	local, err := engine.NewEngine(config)
	if err != nil {
		return nil, err
	}
	deltas, err := engine.ParseInstructions(config.Instructions)
	if err != nil {
		return nil, err
	}

	session, err := client.CreateSession(ctx, configName)
	if err != nil {
		return nil, err
	}
	log.Printf("[REPLAY] session=%s config=%s pushes=%d", session.ID, configName, len(deltas))

	report := &Report{
		Session:     session.ID,
		Config:      config.Name,
		Pushes:      len(deltas),
		ExpectedGPS: config.ExpectedGPSSum,
	}

	if chunk > 0 {
		err = replayBulk(ctx, client, local, deltas, chunk, report)
	} else {
		err = replaySingle(ctx, client, local, deltas, report)
	}
	if err != nil {
		return report, err
	}

	state, err := client.GetState(ctx)
	if err != nil {
		return report, err
	}
	report.FinalGPS = state.GPSSum
	if !state.Grid.Equal(local.GetState().Grid) {
		report.diverge("final grid differs:\nremote:\n%slocal:\n%s", state.Grid, local.GetState().Grid)
	}
	return report, nil
}

func replaySingle(ctx context.Context, client *Client, local *engine.GameEngine, deltas []engine.Delta, report *Report) error {
	for i, d := range deltas {
		result, err := client.Push(ctx, d.Symbol())
		if err != nil {
			return fmt.Errorf("push %d: %w", i+1, err)
		}
		want := local.PushWithReport(d)

		if result.Outcome == engine.Committed {
			report.Committed++
		} else {
			report.Rejected++
		}
		if result.Outcome != want.Outcome {
			report.diverge("push %d %s: remote %s, local %s", i+1, d.Symbol(), result.Outcome, want.Outcome)
		}
		if got := result.GameState.ActorPos; got != want.To {
			report.diverge("push %d %s: remote actor %v, local %v", i+1, d.Symbol(), got, want.To)
		}
		if got, wantGPS := result.GameState.GPSSum, local.GetGPSSum(); got != wantGPS {
			report.diverge("push %d %s: remote GPS %d, local %d", i+1, d.Symbol(), got, wantGPS)
		}
	}
	return nil
}

func replayBulk(ctx context.Context, client *Client, local *engine.GameEngine, deltas []engine.Delta, chunk int, report *Report) error {
	for start := 0; start < len(deltas); start += chunk {
		batch := deltas[start:min(start+chunk, len(deltas))]
		moves := make([]string, len(batch))
		for i, d := range batch {
			moves[i] = d.Symbol()
		}

		result, err := client.BulkPush(ctx, moves)
		if err != nil {
			return fmt.Errorf("bulk push at %d: %w", start+1, err)
		}
		report.Committed += result.Committed
		report.Rejected += result.Rejected

		want := local.Run(batch)
		if result.Committed != want.Committed || result.Rejected != want.Rejected {
			report.diverge("batch at %d: remote %d/%d, local %d/%d committed/rejected",
				start+1, result.Committed, result.Rejected, want.Committed, want.Rejected)
		}
		if result.EndPos != want.EndPos {
			report.diverge("batch at %d: remote actor %v, local %v", start+1, result.EndPos, want.EndPos)
		}
		if result.EndGPS != want.GPSSum {
			report.diverge("batch at %d: remote GPS %d, local %d", start+1, result.EndGPS, want.GPSSum)
		}
	}
	return nil
}

func printReport(w io.Writer, r *Report) {
	fmt.Fprintf(w, "Session: %s (%s)\n", r.Session, r.Config)
	fmt.Fprintf(w, "Pushes: %d (%d committed, %d rejected)\n", r.Pushes, r.Committed, r.Rejected)
	fmt.Fprintf(w, "Final GPS: %d\n", r.FinalGPS)
	if r.ExpectedGPS > 0 && r.ExpectedGPS != r.FinalGPS {
		fmt.Fprintf(w, "⚠️  Expected GPS %d\n", r.ExpectedGPS)
	}
	if len(r.Divergences) == 0 {
		fmt.Fprintln(w, "✅ Server matches local engine")
		return
	}
	fmt.Fprintf(w, "❌ %d divergences\n", len(r.Divergences))
	for _, d := range r.Divergences {
		fmt.Fprintf(w, "  %s\n", d)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:   "replay",
		Usage:  "Replay a scenario script against a warehouse server",
		Writer: os.Stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Warehouse server URL"},
			&cli.StringFlag{Name: "config", Value: "reference", Usage: "Scenario to replay"},
			&cli.IntFlag{Name: "chunk", Usage: "Pushes per bulk request (0 = one request per push)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client := NewClient(cmd.String("url"))
			report, err := replay(ctx, client, cmd.String("config"), cmd.Int("chunk"))
			if err != nil {
				return err
			}
			printReport(cmd.Root().Writer, report)
			if len(report.Divergences) > 0 {
				return fmt.Errorf("%d divergences", len(report.Divergences))
			}
			return nil
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
