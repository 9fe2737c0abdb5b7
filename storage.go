package depot

import (
	"fmt"

	"go.uber.org/zap"
)

// Archetypes is the world's archetype arena. Archetypes are addressed by id,
// id 0 is always the empty layout.
type Archetypes struct {
	asSlice          []*Archetype
	idsGroupedByMask map[BitSet]ArchetypeID
	components       *componentRegistry
	chunkCapacity    int
	log              *zap.Logger
}

func newArchetypes(components *componentRegistry, chunkCapacity int, log *zap.Logger) *Archetypes {
	as := &Archetypes{
		idsGroupedByMask: make(map[BitSet]ArchetypeID),
		components:       components,
		chunkCapacity:    chunkCapacity,
		log:              log,
	}
	as.getOrCreate(ComponentLayout{})
	return as
}

func (as *Archetypes) Len() int {
	return len(as.asSlice)
}

// Get returns the archetype with id. An unknown id is a programmer error.
func (as *Archetypes) Get(id ArchetypeID) *Archetype {
	if int(id) >= len(as.asSlice) {
		panic(fmt.Sprintf("depot: archetype %d out of range [0:%d)", id, len(as.asSlice)))
	}
	return as.asSlice[id]
}

func (as *Archetypes) lookup(layout ComponentLayout) (*Archetype, bool) {
	id, ok := as.idsGroupedByMask[layout.bits]
	if !ok {
		return nil, false
	}
	return as.asSlice[id], true
}

// getOrCreate returns the archetype for layout, creating it on first use.
// Equal layouts map to the same archetype regardless of id order.
func (as *Archetypes) getOrCreate(layout ComponentLayout) *Archetype {
	if arch, ok := as.lookup(layout); ok {
		return arch
	}
	infos := make([]*ComponentInfo, len(layout.ids))
	for i, id := range layout.ids {
		infos[i] = as.components.info(id)
	}
	id := ArchetypeID(len(as.asSlice))
	arch := newArchetype(id, layout.Union(), infos, as.chunkCapacity)
	as.asSlice = append(as.asSlice, arch)
	as.idsGroupedByMask[layout.bits] = id

	as.log.Debug("archetype created",
		zap.Uint32("archetype", uint32(id)),
		zap.Int("components", len(infos)),
	)
	return arch
}

// transition follows, or creates, the edge from `from` that adds or removes
// delta.
func (as *Archetypes) transition(from *Archetype, delta ComponentLayout, add bool) *Archetype {
	cache := from.edges.remove
	if add {
		cache = from.edges.add
	}
	if id, ok := cache[delta.bits]; ok {
		return as.asSlice[id]
	}
	var layout ComponentLayout
	if add {
		layout = from.layout.Union(delta.ids...)
	} else {
		layout = from.layout.Difference(delta.ids...)
	}
	to := as.getOrCreate(layout)
	cache[delta.bits] = to.id
	return to
}

func (as *Archetypes) clear() {
	for _, arch := range as.asSlice {
		arch.clear()
	}
}
