package engine

// commit applies a feasible scan: every planned cell shifts by the scan delta,
// farthest first so no destination is written before it has been read, then
// the actor follows. It returns the actor's new position. Feasibility is not
// re-checked here.
func commit(g *Grid, plan ScanResult) Position {
	for _, p := range plan.Moves {
		kind, _ := g.Get(p)
		g.set(p.Add(plan.Delta), kind)
		g.set(p, Empty)
	}

	next := plan.Actor.Add(plan.Delta)
	g.set(next, Actor)
	g.set(plan.Actor, Empty)
	return next
}
