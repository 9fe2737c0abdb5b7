package depot

import (
	"reflect"
)

type resourceData struct {
	value   any
	added   Tick
	changed Tick
}

// resources is the archetype-free store for singleton values, keyed by type.
type resources struct {
	byType map[reflect.Type]*resourceData
}

func newResources() *resources {
	return &resources{byType: make(map[reflect.Type]*resourceData)}
}

func (r *resources) insertPtr(typ reflect.Type, ptr any, tick Tick) *resourceData {
	d := &resourceData{value: ptr, added: tick, changed: tick}
	r.byType[typ] = d
	return d
}

func (r *resources) clampTicks(current Tick) int {
	clamped := 0
	for _, d := range r.byType {
		if d.added.clamp(current) {
			clamped++
		}
		if d.changed.clamp(current) {
			clamped++
		}
	}
	return clamped
}

func (r *resources) clear() {
	clear(r.byType)
}

// InsertResource stores v as the world's T resource. Replacing an existing
// resource keeps its address and stamps it changed.
func InsertResource[T any](w *World, v T) {
	typ := reflect.TypeFor[T]()
	tick := w.ChangeTick()
	if d, ok := w.resources.byType[typ]; ok {
		*d.value.(*T) = v
		d.changed = tick
		return
	}
	p := new(T)
	*p = v
	w.resources.insertPtr(typ, p, tick)
}

// GetResource returns the T resource, or nil when it was never inserted.
func GetResource[T any](w *World) *T {
	d, ok := w.resources.byType[reflect.TypeFor[T]()]
	if !ok {
		return nil
	}
	return d.value.(*T)
}

// MustResource returns the T resource and panics when it is missing.
func MustResource[T any](w *World) *T {
	r := GetResource[T](w)
	if r == nil {
		panic(ResourceNotFoundError{Type: reflect.TypeFor[T]()})
	}
	return r
}

func HasResource[T any](w *World) bool {
	_, ok := w.resources.byType[reflect.TypeFor[T]()]
	return ok
}

// RemoveResource deletes the T resource and returns its last value.
func RemoveResource[T any](w *World) (T, bool) {
	typ := reflect.TypeFor[T]()
	d, ok := w.resources.byType[typ]
	if !ok {
		var zero T
		return zero, false
	}
	delete(w.resources.byType, typ)
	return *d.value.(*T), true
}

// ResourceTicks returns the added and changed ticks of the T resource.
func ResourceTicks[T any](w *World) (added, changed Tick, ok bool) {
	d, ok := w.resources.byType[reflect.TypeFor[T]()]
	if !ok {
		return 0, 0, false
	}
	return d.added, d.changed, true
}

func markResourceChanged(w *World, typ reflect.Type) {
	if d, ok := w.resources.byType[typ]; ok {
		d.changed = w.ChangeTick()
	}
}
