package depot

// Value wraps v for Spawn, InsertValues and Commands.
func (c AccessibleComponent[T]) Value(v T) ComponentValue {
	return Value(v)
}

// ID returns the component's id in w, registering it on first use.
func (c AccessibleComponent[T]) ID(w *World) ComponentID {
	return w.components.register(c.componentKey)
}

// GetFromEntity returns a pointer to e's component, or nil when e lacks it.
// Writes through the pointer are not change tracked; use GetRef for that.
func (c AccessibleComponent[T]) GetFromEntity(w *World, e Entity) *T {
	col, r, ok := w.slot(e, c.typ)
	if !ok {
		return nil
	}
	return &blobSlice[T](&col.data)[r]
}

// GetFromEntitySafe is GetFromEntity with an explicit presence flag.
func (c AccessibleComponent[T]) GetFromEntitySafe(w *World, e Entity) (bool, *T) {
	p := c.GetFromEntity(w, e)
	return p != nil, p
}

// CheckEntity reports whether e has the component.
func (c AccessibleComponent[T]) CheckEntity(w *World, e Entity) bool {
	_, _, ok := w.slot(e, c.typ)
	return ok
}

// GetFromCursor returns a pointer to the component of the iterator's current
// row. The iterator's query must guarantee the component is present.
func GetFromCursor[T, E any](c AccessibleComponent[T], it *QueryIterator[E]) *T {
	return c.GetFromEntity(it.world, it.entity)
}

// compileFilter lets a component handle act as a With filter.
func (c AccessibleComponent[T]) compileFilter(w *World) filterState {
	return componentFilter{op: OpAnd, keys: []componentKey{c.componentKey}}.compileFilter(w)
}
