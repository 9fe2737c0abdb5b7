package depot

import (
	"reflect"
)

type requiredComponent struct {
	id   ComponentID
	make func() ComponentValue
}

// boundValue is a ComponentValue resolved against one world.
type boundValue struct {
	id    ComponentID
	write func(col *BlobArray, row int)
}

// RegisterRequired declares that every entity given T also gets R, built by
// ctor, unless R is already present. Requirements apply transitively on both
// Spawn and Insert.
func RegisterRequired[T, R any](w *World, ctor func() R) {
	tid := ComponentIDOf[T](w)
	rid := ComponentIDOf[R](w)
	req := requiredComponent{
		id:   rid,
		make: func() ComponentValue { return Value(ctor()) },
	}
	for i, existing := range w.required[tid] {
		if existing.id == rid {
			w.required[tid][i] = req
			return
		}
	}
	w.required[tid] = append(w.required[tid], req)
}

// bind resolves values against w, later values replacing earlier ones of the
// same type, then appends the required components missing from both the
// values and present. It fails once a new type would exceed MaxComponents.
func (w *World) bind(values []ComponentValue, present ComponentLayout) ([]boundValue, error) {
	bound := make([]boundValue, 0, len(values))
	var seen BitSet
	for _, v := range values {
		id, err := w.components.tryRegister(v.componentKey)
		if err != nil {
			return nil, err
		}
		if seen.Contains(id) {
			for i := range bound {
				if bound[i].id == id {
					bound[i].write = v.write
				}
			}
			continue
		}
		seen.Insert(id)
		bound = append(bound, boundValue{id: id, write: v.write})
	}

	for i := 0; i < len(bound); i++ {
		for _, req := range w.required[bound[i].id] {
			if seen.Contains(req.id) || present.Contains(req.id) {
				continue
			}
			seen.Insert(req.id)
			bound = append(bound, boundValue{id: req.id, write: req.make().write})
		}
	}
	return bound, nil
}

// Spawn creates an entity holding values plus their required components.
func (w *World) Spawn(values ...ComponentValue) (Entity, error) {
	if w.Locked() {
		return NullEntity, LockedWorldError{}
	}
	bound, err := w.bind(values, ComponentLayout{})
	if err != nil {
		return NullEntity, err
	}
	e := w.entities.reserve()
	w.spawnBound(e, bound)
	return e, nil
}

// SpawnBatch spawns n entities sharing the same component values.
func (w *World) SpawnBatch(n int, values ...ComponentValue) ([]Entity, error) {
	if w.Locked() {
		return nil, LockedWorldError{}
	}
	bound, err := w.bind(values, ComponentLayout{})
	if err != nil {
		return nil, err
	}
	entities := make([]Entity, n)
	for i := range entities {
		entities[i] = w.entities.reserve()
		w.spawnBound(entities[i], bound)
	}
	return entities, nil
}

// spawnReserved places an entity reserved by Commands. When values cannot be
// bound the reservation is released.
func (w *World) spawnReserved(e Entity, values []ComponentValue) error {
	bound, err := w.bind(values, ComponentLayout{})
	if err != nil {
		w.entities.release(e)
		return err
	}
	w.spawnBound(e, bound)
	return nil
}

func (w *World) spawnBound(e Entity, bound []boundValue) {
	var layout ComponentLayout
	for _, v := range bound {
		layout.Insert(v.id)
	}
	arch := w.archetypes.getOrCreate(layout)
	row := arch.append(e)
	c, r := arch.chunkAt(row)
	tick := w.ChangeTick()
	for _, v := range bound {
		i := arch.columnIndex[v.id]
		v.write(&c.columns[i].data, r)
		c.stamp(i, r, tick)
	}
	w.entities.place(e, arch.locate(row))
	w.addedEntities[e] = struct{}{}
}

// Insert sets e's T component, migrating e to a new archetype when it does
// not have one yet.
func Insert[T any](w *World, e Entity, v T) error {
	return w.InsertValues(e, Value(v))
}

// Set overwrites e's existing T component and stamps it changed. Unlike
// Insert it never migrates e.
func Set[T any](w *World, e Entity, v T) error {
	if !w.Alive(e) {
		return EntityNotFoundError{Entity: e}
	}
	ref, ok := GetRef[T](w, e)
	if !ok {
		return ComponentNotFoundError{Entity: e, Type: reflect.TypeFor[T]()}
	}
	ref.Set(v)
	return nil
}

// InsertValues sets each value on e. Components e already has are overwritten
// in place and stamped changed. The rest, plus their required components, move
// e along the add edge in a single migration.
func (w *World) InsertValues(e Entity, values ...ComponentValue) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	loc, ok := w.entities.location(e)
	if !ok {
		return EntityNotFoundError{Entity: e}
	}
	src := w.archetypes.Get(loc.Archetype)
	bound, err := w.bind(values, src.layout)
	if err != nil {
		return err
	}
	tick := w.ChangeTick()

	c, r := src.chunkAt(loc.ArchetypeRow)
	var added ComponentLayout
	for _, v := range bound {
		if i, ok := src.columnIndex[v.id]; ok {
			v.write(&c.columns[i].data, r)
			c.columns[i].changed[r] = tick
			continue
		}
		added.Insert(v.id)
	}
	if added.Len() == 0 {
		return nil
	}

	dst := w.archetypes.transition(src, added, true)
	w.migrate(e, src, loc.ArchetypeRow, dst, func(dc *Chunk, dr int) {
		for _, v := range bound {
			if !added.Contains(v.id) {
				continue
			}
			i := dst.columnIndex[v.id]
			v.write(&dc.columns[i].data, dr)
			dc.stamp(i, dr, tick)
		}
	})
	return nil
}

// migrate moves e from src row to a new row in dst, keeping shared
// components and their ticks.
func (w *World) migrate(e Entity, src *Archetype, row int, dst *Archetype, fill func(*Chunk, int)) {
	dstRow := dst.append(e)
	src.moveRow(row, dst, dstRow)
	if fill != nil {
		dc, dr := dst.chunkAt(dstRow)
		fill(dc, dr)
	}
	src.remove(row)
	w.entities.place(e, dst.locate(dstRow))
}

// Remove drops e's T component. Removing a component e does not have is a
// no-op.
func Remove[T any](w *World, e Entity) error {
	return w.RemoveComponents(e, AccessibleComponent[T]{componentKey: keyOf[T]()})
}

// RemoveComponents drops every listed component e has.
func (w *World) RemoveComponents(e Entity, comps ...Component) error {
	ids := make([]ComponentID, 0, len(comps))
	for _, c := range comps {
		if id, ok := w.components.lookup(c.key().typ); ok {
			ids = append(ids, id)
		}
	}
	return w.RemoveComponent(e, ids...)
}

// RemoveComponent drops the listed component ids from e in one migration.
// The removed values are discarded and e is recorded in the removed
// component lists for this step.
func (w *World) RemoveComponent(e Entity, ids ...ComponentID) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	loc, ok := w.entities.location(e)
	if !ok {
		return EntityNotFoundError{Entity: e}
	}
	src := w.archetypes.Get(loc.Archetype)
	var removed ComponentLayout
	for _, id := range ids {
		if src.layout.Contains(id) {
			removed.Insert(id)
		}
	}
	if removed.Len() == 0 {
		return nil
	}
	dst := w.archetypes.transition(src, removed, false)
	w.migrate(e, src, loc.ArchetypeRow, dst, nil)
	for _, id := range removed.ids {
		w.removedComponents[id] = append(w.removedComponents[id], e)
	}
	return nil
}

// RemovedComponents returns the entities that lost T during this step,
// by removal or despawn.
func RemovedComponents[T any](w *World) []Entity {
	id, ok := w.components.lookup(reflect.TypeFor[T]())
	if !ok {
		return nil
	}
	return append([]Entity(nil), w.removedComponents[id]...)
}

// slot finds e's column for typ.
func (w *World) slot(e Entity, typ reflect.Type) (*chunkColumn, int, bool) {
	id, ok := w.components.lookup(typ)
	if !ok {
		return nil, 0, false
	}
	loc, ok := w.entities.location(e)
	if !ok {
		return nil, 0, false
	}
	arch := w.archetypes.Get(loc.Archetype)
	c, r := arch.chunkAt(loc.ArchetypeRow)
	col := arch.column(c, id)
	if col == nil {
		return nil, 0, false
	}
	return col, r, true
}

// Get returns a copy of e's T component.
func Get[T any](w *World, e Entity) (T, bool) {
	col, r, ok := w.slot(e, reflect.TypeFor[T]())
	if !ok {
		var zero T
		return zero, false
	}
	return blobSlice[T](&col.data)[r], true
}

// GetRef returns a change-tracking handle to e's T component.
func GetRef[T any](w *World, e Entity) (Ref[T], bool) {
	col, r, ok := w.slot(e, reflect.TypeFor[T]())
	if !ok {
		return Ref[T]{}, false
	}
	return Ref[T]{
		value:   &blobSlice[T](&col.data)[r],
		added:   &col.added[r],
		changed: &col.changed[r],
		ticks:   w.ticks(),
	}, true
}

func Has[T any](w *World, e Entity) bool {
	_, _, ok := w.slot(e, reflect.TypeFor[T]())
	return ok
}

func (w *World) HasComponent(e Entity, id ComponentID) bool {
	loc, ok := w.entities.location(e)
	if !ok {
		return false
	}
	return w.archetypes.Get(loc.Archetype).layout.Contains(id)
}

// Components lists the components e currently has, in column order.
func (w *World) Components(e Entity) []ComponentInfo {
	loc, ok := w.entities.location(e)
	if !ok {
		return nil
	}
	arch := w.archetypes.Get(loc.Archetype)
	infos := make([]ComponentInfo, len(arch.infos))
	for i, info := range arch.infos {
		infos[i] = *info
	}
	return infos
}

// Location returns where e is stored.
func (w *World) Location(e Entity) (EntityLocation, bool) {
	return w.entities.location(e)
}

// Despawn removes e immediately, leaving its children in place.
func (w *World) Despawn(e Entity) error {
	return w.RemoveEntity(e, false)
}

// RemoveEntity detaches e from storage immediately. With recursive set, e's
// descendants are removed first.
func (w *World) RemoveEntity(e Entity, recursive bool) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	if !w.entities.Alive(e) {
		return EntityNotFoundError{Entity: e}
	}
	if recursive {
		for _, child := range w.Children(e) {
			if err := w.RemoveEntity(child, true); err != nil {
				return err
			}
		}
	}
	w.despawn(e)
	return nil
}

func (w *World) despawn(e Entity) {
	w.runDespawnCallbacks(e)
	loc, ok := w.entities.location(e)
	if !ok {
		return
	}
	w.relations.detach(e)
	arch := w.archetypes.Get(loc.Archetype)
	for _, id := range arch.layout.ids {
		w.removedComponents[id] = append(w.removedComponents[id], e)
	}
	arch.remove(loc.ArchetypeRow)
	w.entities.release(e)
	delete(w.addedEntities, e)
	delete(w.removedEntities, e)
}

// DespawnOnNextTick schedules e for removal by the next Flush. Until then
// queries see it through the QueryFilterRemoved option.
func (w *World) DespawnOnNextTick(e Entity, recursive bool) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	if !w.entities.Alive(e) {
		return EntityNotFoundError{Entity: e}
	}
	w.removedEntities[e] = w.removedEntities[e] || recursive
	return nil
}
