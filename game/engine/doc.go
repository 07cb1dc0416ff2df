// Package engine implements the warehouse push simulation.
//
// A warehouse is a rectangular Grid of cells: walls, empty floor, single-cell
// movables, two-cell pairs ('[' and ']') and exactly one actor. Each
// instruction pushes the actor one step. Before anything moves, Scan walks
// every lane the push would disturb; if any lane meets a wall, the boundary
// or a second actor the push is rejected and the grid is left untouched.
// Otherwise every collected cell shifts by the delta, farthest first, and
// the actor follows.
//
// Horizontal pushes treat a pair like two ordinary movables in the same row.
// Vertical pushes open a lane for the partner half, so a pair drags whatever
// sits above or below both of its halves.
//
// Core Types:
//
// The Engine interface defines the main contract for warehouse operations,
// implemented by GameEngine. GameState carries the grid plus counters and
// history, while GameConfig describes a scenario loaded from JSON, YAML or
// plain puzzle text.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/reference.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	summary, err := eng.PlayScript()
//	fmt.Println(summary.GPSSum)
//
// The GPS metric is the sum of 100*row + col over every movable and every
// pair's left half.
package engine
