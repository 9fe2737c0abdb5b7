package depot

import (
	"context"
)

// Component identifies a component type independently of any World.
// AccessibleComponent and ComponentValue both satisfy it.
type Component interface {
	key() componentKey
}

// Filter narrows a query beyond the components it fetches. Archetype level
// filters prune whole archetypes, row level filters (Changed, Added) are
// checked per row before fetching.
type Filter interface {
	compileFilter(w *World) filterState
}

// SystemParameter is anything a system reads from the world once per step.
// Constructors bind a parameter to a world; Update refreshes it before the
// system body runs.
type SystemParameter interface {
	Update(w *World)
}

// System is one unit of per-step logic driven by a Schedule.
type System interface {
	Run(ctx context.Context, w *World) error
}

// DespawnCallback runs just before an entity is detached from storage.
type DespawnCallback func(w *World, e Entity)

type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(string, T) (int, error)
	Len() int
	Clear()
}

// AccessibleComponent is a typed, world independent handle for a component
// type. It can build values, act as a With filter and read from entities.
type AccessibleComponent[T any] struct {
	componentKey
}

type SimpleCache[T any] struct {
	items       []T
	itemIndices map[string]int
	maxCapacity int
}
