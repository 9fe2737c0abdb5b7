package depot

import "fmt"

type chunkColumn struct {
	id      ComponentID
	data    BlobArray
	added   []Tick
	changed []Tick
}

// Chunk is a fixed-capacity columnar slab for one archetype. Column order
// follows the archetype layout and never changes for the chunk's lifetime.
// Freed rows keep NullEntity in the entity column until they are reused.
type Chunk struct {
	capacity int
	count    int
	high     int
	entities []Entity
	columns  []chunkColumn
}

func newChunk(infos []*ComponentInfo, capacity int) *Chunk {
	c := &Chunk{
		capacity: capacity,
		entities: make([]Entity, capacity),
		columns:  make([]chunkColumn, len(infos)),
	}
	for i, info := range infos {
		c.columns[i] = chunkColumn{
			id:      info.ID,
			data:    newBlobArray(info.Type, capacity),
			added:   make([]Tick, capacity),
			changed: make([]Tick, capacity),
		}
	}
	return c
}

func (c *Chunk) Capacity() int {
	return c.capacity
}

// Count returns the number of occupied rows.
func (c *Chunk) Count() int {
	return c.count
}

// Len returns one past the highest row ever occupied.
func (c *Chunk) Len() int {
	return c.high
}

// Entity returns the entity stored at row, or NullEntity for a free row.
func (c *Chunk) Entity(row int) Entity {
	c.checkRow(row)
	return c.entities[row]
}

func (c *Chunk) checkRow(row int) {
	if uint(row) >= uint(c.capacity) {
		panic(fmt.Sprintf("depot: chunk row %d out of range [0:%d)", row, c.capacity))
	}
}

func (c *Chunk) occupy(row int, e Entity) {
	c.checkRow(row)
	if debugChecks && !c.entities[row].IsNull() {
		panic(fmt.Sprintf("depot: chunk row %d already holds %v", row, c.entities[row]))
	}
	c.entities[row] = e
	c.count++
	if row >= c.high {
		c.high = row + 1
	}
}

// vacate frees row and zeroes its data and ticks.
func (c *Chunk) vacate(row int) {
	c.checkRow(row)
	if c.entities[row].IsNull() {
		panic(fmt.Sprintf("depot: chunk row %d is already free", row))
	}
	for i := range c.columns {
		col := &c.columns[i]
		col.data.remove(row)
		col.added[row] = 0
		col.changed[row] = 0
	}
	c.entities[row] = NullEntity
	c.count--
}

func (c *Chunk) stamp(col, row int, tick Tick) {
	c.columns[col].added[row] = tick
	c.columns[col].changed[row] = tick
}

// clampTicks pulls every stored tick forward to within MaxChangeAge.
func (c *Chunk) clampTicks(current Tick) int {
	clamped := 0
	for i := range c.columns {
		col := &c.columns[i]
		for row := 0; row < c.high; row++ {
			if col.added[row].clamp(current) {
				clamped++
			}
			if col.changed[row].clamp(current) {
				clamped++
			}
		}
	}
	return clamped
}
