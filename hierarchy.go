package depot

import "slices"

type relations struct {
	parents   map[Entity]Entity
	children  map[Entity][]Entity
	callbacks map[Entity][]DespawnCallback
}

func newRelations() relations {
	return relations{
		parents:   make(map[Entity]Entity),
		children:  make(map[Entity][]Entity),
		callbacks: make(map[Entity][]DespawnCallback),
	}
}

// detach forgets every relation of e. Its children become roots.
func (r *relations) detach(e Entity) {
	if parent, ok := r.parents[e]; ok {
		r.children[parent] = slices.DeleteFunc(r.children[parent], func(c Entity) bool { return c == e })
		if len(r.children[parent]) == 0 {
			delete(r.children, parent)
		}
		delete(r.parents, e)
	}
	for _, child := range r.children[e] {
		delete(r.parents, child)
	}
	delete(r.children, e)
	delete(r.callbacks, e)
}

// SetParent makes child a child of parent. A child has at most one parent and
// the hierarchy stays acyclic.
func (w *World) SetParent(child, parent Entity) error {
	if !w.Alive(child) {
		return EntityNotFoundError{Entity: child}
	}
	if !w.Alive(parent) {
		return EntityNotFoundError{Entity: parent}
	}
	if existing, ok := w.relations.parents[child]; ok {
		return EntityRelationError{Child: child, Parent: existing}
	}
	for ancestor := parent; ; {
		if ancestor == child {
			return EntityRelationError{Child: child, Parent: parent}
		}
		next, ok := w.relations.parents[ancestor]
		if !ok {
			break
		}
		ancestor = next
	}
	w.relations.parents[child] = parent
	w.relations.children[parent] = append(w.relations.children[parent], child)
	return nil
}

// RemoveParent turns child back into a root.
func (w *World) RemoveParent(child Entity) {
	parent, ok := w.relations.parents[child]
	if !ok {
		return
	}
	w.relations.children[parent] = slices.DeleteFunc(w.relations.children[parent], func(c Entity) bool { return c == child })
	if len(w.relations.children[parent]) == 0 {
		delete(w.relations.children, parent)
	}
	delete(w.relations.parents, child)
}

func (w *World) Parent(e Entity) (Entity, bool) {
	p, ok := w.relations.parents[e]
	return p, ok
}

// Children returns a copy of e's children in the order they were attached.
func (w *World) Children(e Entity) []Entity {
	return slices.Clone(w.relations.children[e])
}

// OnDespawn registers cb to run when e is removed from the world.
func (w *World) OnDespawn(e Entity, cb DespawnCallback) error {
	if !w.Alive(e) {
		return EntityNotFoundError{Entity: e}
	}
	w.relations.callbacks[e] = append(w.relations.callbacks[e], cb)
	return nil
}

func (w *World) runDespawnCallbacks(e Entity) {
	callbacks := w.relations.callbacks[e]
	delete(w.relations.callbacks, e)
	for _, cb := range callbacks {
		cb(w, e)
	}
}
