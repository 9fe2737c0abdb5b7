/*
Package depot is an archetype based Entity-Component-System store and query
engine for games and simulations.

Entities sharing the exact same set of component types live together in one
archetype, whose rows are packed column by column into fixed capacity chunks.
Adding or removing a component moves an entity along a cached archetype edge.
Every component slot carries added and changed ticks, so queries can ask what
happened since the previous step.

Core Concepts:

  - Entity: a generational id for one simulated object.
  - Component: any Go value type stored on an entity.
  - Archetype: the entities sharing one component layout.
  - Query: a typed view over every archetype matching its targets and filters.
  - Schedule: systems run in phase order, one step at a time.

Basic Usage:

	w := depot.Factory.NewWorld()

	e, _ := w.Spawn(depot.Value(Position{}), depot.Value(Velocity{X: 1}))

	movers := depot.NewQuery2[depot.Ref[Position], Velocity](w)
	for pos, vel := range movers.All() {
		p := pos.Mut()
		p.X += vel.X
		p.Y += vel.Y
	}

	moved := depot.NewQuery1[depot.Entity](w, depot.Where(depot.Changed[Position]()))
	for e := range moved.All() {
		fmt.Println(e)
	}

Query targets are Entity, a plain component type read by value, Ref[T] for
tracked writes and Opt[W] for components that may be absent. Filters (With,
Without, And, Or, Not, Added, Changed) narrow the rows a query visits.

A world is not safe for concurrent structural mutation. ParallelQueryResult
locks the world while its batches run; structural changes made meanwhile go
through Commands and are applied by the next Flush.

Component Limit:

A world registers at most MaxComponents component types. The limit is the
width of the layout bit mask, 64 by default. Build with one of the m256, m512
or m1024 tags to raise it:

	go build -tags m256 ./...

Registering a type past the limit makes Spawn and Insert return a
ComponentLimitError. ComponentIDOf and query construction panic with it.
*/
package depot
