package depot

// QueryState caches which archetypes satisfy a query and the ticks the query
// compares change stamps against. It is bound to the world it was compiled
// for and must be refreshed with UpdateArchetypes once per step.
type QueryState struct {
	world     *World
	predicate func(l *ComponentLayout) bool
	matched   []ArchetypeID
	evaluated int
	ticks     ChangeDetectionTick
}

// UpdateArchetypes evaluates archetypes created since the previous call and
// snapshots the world's ticks. Archetypes are never removed and their
// layouts never change, so earlier results stay valid.
func (s *QueryState) UpdateArchetypes(w *World) {
	if s.world != w {
		panic("depot: query state used with a foreign world")
	}
	for n := w.archetypes.Len(); s.evaluated < n; s.evaluated++ {
		arch := w.archetypes.asSlice[s.evaluated]
		if s.predicate(&arch.layout) {
			s.matched = append(s.matched, arch.id)
		}
	}
	s.ticks = w.ticks()
}

// Archetypes returns the ids of the matching archetypes.
func (s *QueryState) Archetypes() []ArchetypeID {
	return s.matched
}

// Ticks returns the ticks snapshotted by the last UpdateArchetypes.
func (s *QueryState) Ticks() ChangeDetectionTick {
	return s.ticks
}

func (s *QueryState) World() *World {
	return s.world
}
