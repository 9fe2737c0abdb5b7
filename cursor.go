package depot

// QueryIterator walks the rows of a query archetype by archetype, chunk by
// chunk. It sees the archetype set as of the last UpdateArchetypes, and live
// chunk contents. Fetches are rebound only when crossing a chunk boundary.
type QueryIterator[E any] struct {
	world        *World
	archetypes   []ArchetypeID
	fetch        fetch[E]
	filter       filterState
	entityFilter QueryFilter
	ticks        ChangeDetectionTick

	archIndex       int
	chunkIndex      int
	row             int
	chunk           *Chunk
	rows            rowFilter
	needsUpdateData bool

	current E
	entity  Entity
}

func newQueryIterator[E any](core *queryCore[E]) *QueryIterator[E] {
	return &QueryIterator[E]{
		world:           core.state.world,
		archetypes:      core.state.matched[:len(core.state.matched):len(core.state.matched)],
		fetch:           core.target.newFetch(core.state.ticks),
		filter:          core.filter,
		entityFilter:    core.entityFilter,
		ticks:           core.state.ticks,
		needsUpdateData: true,
	}
}

// Next advances to the next qualifying row. It returns false once every
// archetype, chunk and row is exhausted.
func (it *QueryIterator[E]) Next() bool {
	for it.archIndex < len(it.archetypes) {
		if it.needsUpdateData && !it.bindChunk() {
			continue
		}
		for it.row < it.chunk.high {
			row := it.row
			it.row++
			e := it.chunk.entities[row]
			if e.IsNull() || !it.accepts(row, e) {
				continue
			}
			v, ok := it.fetch.get(row)
			if !ok {
				continue
			}
			it.current, it.entity = v, e
			return true
		}
		it.chunkIndex++
		it.row = 0
		it.needsUpdateData = true
	}
	var zero E
	it.current, it.entity = zero, NullEntity
	return false
}

// bindChunk binds the chunk under the cursor, or moves the cursor past empty
// chunks and archetypes and reports false.
func (it *QueryIterator[E]) bindChunk() bool {
	arch := it.world.archetypes.asSlice[it.archetypes[it.archIndex]]
	if arch.count == 0 || it.chunkIndex >= len(arch.chunks) {
		it.archIndex++
		it.chunkIndex = 0
		return false
	}
	c := arch.chunks[it.chunkIndex]
	if c.count == 0 {
		it.chunkIndex++
		return false
	}
	it.chunk = c
	it.row = 0
	it.fetch.bind(arch, c)
	it.rows = nil
	if it.filter != nil {
		it.rows = it.filter.bind(arch, c, it.ticks)
	}
	it.needsUpdateData = false
	return true
}

func (it *QueryIterator[E]) accepts(row int, e Entity) bool {
	if it.rows != nil && !it.rows(row) {
		return false
	}
	return it.entityFilter.accepts(it.world, e)
}

// Get returns the current row.
func (it *QueryIterator[E]) Get() E {
	return it.current
}

// Entity returns the entity of the current row.
func (it *QueryIterator[E]) Entity() Entity {
	return it.entity
}

// Reset rewinds the iterator to the first row.
func (it *QueryIterator[E]) Reset() {
	it.archIndex = 0
	it.chunkIndex = 0
	it.row = 0
	it.chunk = nil
	it.rows = nil
	it.needsUpdateData = true
}
