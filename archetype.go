package depot

import (
	"fmt"
)

// ArchetypeID is an archetype's stable index in the world. Ids are never
// reused.
type ArchetypeID uint32

// edges memoizes archetype transitions keyed by the added or removed set.
type edges struct {
	add    map[BitSet]ArchetypeID
	remove map[BitSet]ArchetypeID
}

func newEdges() edges {
	return edges{
		add:    make(map[BitSet]ArchetypeID),
		remove: make(map[BitSet]ArchetypeID),
	}
}

// Archetype stores every entity that has exactly its layout. Row r lives in
// chunk r / capacity at chunk row r % capacity. Rows are never compacted:
// removal frees the row and later appends reuse it.
type Archetype struct {
	id            ArchetypeID
	layout        ComponentLayout
	infos         []*ComponentInfo
	columnIndex   map[ComponentID]int
	chunkCapacity int
	chunks        []*Chunk
	rows          int
	freeRows      []int
	count         int
	edges         edges
}

func newArchetype(id ArchetypeID, layout ComponentLayout, infos []*ComponentInfo, chunkCapacity int) *Archetype {
	index := make(map[ComponentID]int, len(infos))
	for i, info := range infos {
		index[info.ID] = i
	}
	return &Archetype{
		id:            id,
		layout:        layout,
		infos:         infos,
		columnIndex:   index,
		chunkCapacity: chunkCapacity,
		edges:         newEdges(),
	}
}

func (a *Archetype) ID() ArchetypeID {
	return a.id
}

func (a *Archetype) Layout() ComponentLayout {
	return a.layout
}

// Len returns the number of live entities.
func (a *Archetype) Len() int {
	return a.count
}

func (a *Archetype) Chunks() []*Chunk {
	return a.chunks
}

func (a *Archetype) locate(row int) EntityLocation {
	return EntityLocation{
		Archetype:    a.id,
		ArchetypeRow: row,
		ChunkIndex:   row / a.chunkCapacity,
		ChunkRow:     row % a.chunkCapacity,
	}
}

func (a *Archetype) chunkAt(row int) (*Chunk, int) {
	ci := row / a.chunkCapacity
	if row < 0 || ci >= len(a.chunks) {
		panic(fmt.Sprintf("depot: archetype %d row %d out of range", a.id, row))
	}
	return a.chunks[ci], row % a.chunkCapacity
}

// column returns the chunk column holding id, or nil when the layout lacks id.
func (a *Archetype) column(c *Chunk, id ComponentID) *chunkColumn {
	i, ok := a.columnIndex[id]
	if !ok {
		return nil
	}
	return &c.columns[i]
}

// EntityAt returns the entity at archetype row, or NullEntity for a free row.
func (a *Archetype) EntityAt(row int) Entity {
	c, r := a.chunkAt(row)
	return c.entities[r]
}

// append places e in a free row, or a new one, and returns the row.
func (a *Archetype) append(e Entity) int {
	var row int
	if n := len(a.freeRows); n > 0 {
		row = a.freeRows[n-1]
		a.freeRows = a.freeRows[:n-1]
	} else {
		row = a.rows
		a.rows++
		if row/a.chunkCapacity == len(a.chunks) {
			a.chunks = append(a.chunks, newChunk(a.infos, a.chunkCapacity))
		}
	}
	c, r := a.chunkAt(row)
	c.occupy(r, e)
	a.count++
	return row
}

// remove frees row. An archetype that becomes empty is cleared.
func (a *Archetype) remove(row int) {
	c, r := a.chunkAt(row)
	c.vacate(r)
	a.count--
	if a.count == 0 {
		a.clear()
		return
	}
	a.freeRows = append(a.freeRows, row)
}

// clear drops every chunk, the free list and the edge cache. The archetype
// itself stays registered under its id.
func (a *Archetype) clear() {
	a.chunks = nil
	a.rows = 0
	a.freeRows = nil
	a.count = 0
	a.edges = newEdges()
}

// moveRow copies every component a shares with dst, ticks included, from row
// into dstRow.
func (a *Archetype) moveRow(row int, dst *Archetype, dstRow int) {
	src, sr := a.chunkAt(row)
	dc, dr := dst.chunkAt(dstRow)
	for i := range src.columns {
		col := &src.columns[i]
		to := dst.column(dc, col.id)
		if to == nil {
			continue
		}
		col.data.copyElement(&to.data, sr, dr)
		to.added[dr] = col.added[sr]
		to.changed[dr] = col.changed[sr]
	}
}
