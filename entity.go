package depot

import (
	"fmt"
	"iter"
	"sync"
)

// Entity is a generational entity id: the low 32 bits index the entity
// record, the high 32 bits hold the record's generation. A despawned id is
// never handed out again because its record's generation moves on.
type Entity uint64

// NullEntity never refers to a live entity.
const NullEntity Entity = 0

func newEntity(index, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

func (e Entity) Index() uint32 {
	return uint32(e)
}

func (e Entity) Generation() uint32 {
	return uint32(e >> 32)
}

func (e Entity) IsNull() bool {
	return e == NullEntity
}

func (e Entity) String() string {
	if e.IsNull() {
		return "Entity(null)"
	}
	return fmt.Sprintf("Entity(%d:%d)", e.Index(), e.Generation())
}

// EntityLocation is where a live entity's row is stored.
type EntityLocation struct {
	Archetype    ArchetypeID
	ArchetypeRow int
	ChunkIndex   int
	ChunkRow     int
}

type entityRecord struct {
	generation uint32
	placed     bool
	location   EntityLocation
}

// Entities allocates entity ids and maps live ids to their storage location.
// Id allocation is safe for concurrent use so command buffers can reserve ids
// from parallel query tasks.
type Entities struct {
	mu      sync.Mutex
	records []entityRecord
	free    []uint32
	placed  int
}

func newEntities() *Entities {
	return &Entities{}
}

// reserve allocates a new id that has no location yet.
func (es *Entities) reserve() Entity {
	es.mu.Lock()
	defer es.mu.Unlock()
	if n := len(es.free); n > 0 {
		idx := es.free[n-1]
		es.free = es.free[:n-1]
		return newEntity(idx, es.records[idx].generation)
	}
	idx := uint32(len(es.records))
	es.records = append(es.records, entityRecord{generation: 1})
	return newEntity(idx, 1)
}

func (es *Entities) record(e Entity) (*entityRecord, bool) {
	idx := e.Index()
	if e.IsNull() || int(idx) >= len(es.records) {
		return nil, false
	}
	rec := &es.records[idx]
	if rec.generation != e.Generation() {
		return nil, false
	}
	return rec, true
}

// place records the location of a reserved or live entity.
func (es *Entities) place(e Entity, loc EntityLocation) {
	es.mu.Lock()
	defer es.mu.Unlock()
	rec, ok := es.record(e)
	if !ok {
		panic(fmt.Sprintf("depot: place stale entity %v", e))
	}
	if !rec.placed {
		es.placed++
	}
	rec.placed = true
	rec.location = loc
}

func (es *Entities) location(e Entity) (EntityLocation, bool) {
	es.mu.Lock()
	defer es.mu.Unlock()
	rec, ok := es.record(e)
	if !ok || !rec.placed {
		return EntityLocation{}, false
	}
	return rec.location, true
}

// release retires e and recycles its index under the next generation.
func (es *Entities) release(e Entity) bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	rec, ok := es.record(e)
	if !ok {
		return false
	}
	if rec.placed {
		es.placed--
	}
	rec.placed = false
	rec.location = EntityLocation{}
	rec.generation++
	if rec.generation == 0 {
		rec.generation = 1
	}
	es.free = append(es.free, e.Index())
	return true
}

// Alive reports whether e is stored in the world.
func (es *Entities) Alive(e Entity) bool {
	_, ok := es.location(e)
	return ok
}

// Reserved reports whether e has been allocated, placed or not.
func (es *Entities) Reserved(e Entity) bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	_, ok := es.record(e)
	return ok
}

// Len returns the number of placed entities.
func (es *Entities) Len() int {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.placed
}

// All yields every placed entity in index order.
func (es *Entities) All() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		es.mu.Lock()
		live := make([]Entity, 0, es.placed)
		for idx, rec := range es.records {
			if rec.placed {
				live = append(live, newEntity(uint32(idx), rec.generation))
			}
		}
		es.mu.Unlock()
		for _, e := range live {
			if !yield(e) {
				return
			}
		}
	}
}
