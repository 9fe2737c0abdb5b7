package depot

import (
	"fmt"
)

// targetState is the compiled, shared half of a query target: it knows which
// archetypes qualify and builds fetches.
type targetState[V any] interface {
	matches(l *ComponentLayout) bool
	newFetch(ticks ChangeDetectionTick) fetch[V]
}

// fetch is the per-iteration half of a query target. It is bound once per
// chunk and then materializes rows. A fetch is never shared between
// goroutines.
type fetch[V any] interface {
	bind(a *Archetype, c *Chunk)
	get(row int) (V, bool)
}

// targetBuilder is implemented by the wrapper targets (Ref, Opt) to compile
// themselves.
type targetBuilder[V any] interface {
	compileTarget(w *World) targetState[V]
}

// compileTarget builds the state for target type V: Entity, Ref[T], Opt[W],
// or any other type, which is read as a plain component.
func compileTarget[V any](w *World) targetState[V] {
	var zero V
	if _, ok := any(zero).(Entity); ok {
		return any(entityState{}).(targetState[V])
	}
	if b, ok := any(zero).(targetBuilder[V]); ok {
		return b.compileTarget(w)
	}
	return componentState[V]{id: ComponentIDOf[V](w)}
}

func missingColumn(a *Archetype, id ComponentID) string {
	return fmt.Sprintf("depot: archetype %d matched a query but has no column for component %d", a.id, id)
}

type entityState struct{}

func (entityState) matches(*ComponentLayout) bool {
	return true
}

func (entityState) newFetch(ChangeDetectionTick) fetch[Entity] {
	return &entityFetch{}
}

type entityFetch struct {
	entities []Entity
}

func (f *entityFetch) bind(_ *Archetype, c *Chunk) {
	f.entities = c.entities
}

func (f *entityFetch) get(row int) (Entity, bool) {
	return f.entities[row], true
}

type componentState[T any] struct {
	id ComponentID
}

func (s componentState[T]) matches(l *ComponentLayout) bool {
	return l.Contains(s.id)
}

func (s componentState[T]) newFetch(ChangeDetectionTick) fetch[T] {
	return &componentFetch[T]{id: s.id}
}

// componentFetch reads plain components by value.
type componentFetch[T any] struct {
	id     ComponentID
	values []T
}

func (f *componentFetch[T]) bind(a *Archetype, c *Chunk) {
	col := a.column(c, f.id)
	if col == nil {
		panic(missingColumn(a, f.id))
	}
	f.values = blobSlice[T](&col.data)
}

func (f *componentFetch[T]) get(row int) (T, bool) {
	return f.values[row], true
}

// Ref is a mutable, change-tracking handle to one component slot. Reading
// does not stamp anything; Mut and Set stamp the slot changed.
type Ref[T any] struct {
	value   *T
	added   *Tick
	changed *Tick
	ticks   ChangeDetectionTick
}

func (Ref[T]) compileTarget(w *World) targetState[Ref[T]] {
	return refState[T]{id: ComponentIDOf[T](w)}
}

// Get returns a copy of the component.
func (r Ref[T]) Get() T {
	return *r.value
}

// Read returns a pointer for reading. Writes through it are not tracked.
func (r Ref[T]) Read() *T {
	return r.value
}

// Mut stamps the slot changed and returns a pointer for writing.
func (r Ref[T]) Mut() *T {
	*r.changed = r.ticks.Current
	return r.value
}

func (r Ref[T]) Set(v T) {
	*r.value = v
	*r.changed = r.ticks.Current
}

// IsAdded reports whether the component was added after the query's last tick.
func (r Ref[T]) IsAdded() bool {
	return r.added.IsNewerThan(r.ticks.Last, r.ticks.Current)
}

// IsChanged reports whether the component was added or written after the
// query's last tick.
func (r Ref[T]) IsChanged() bool {
	return r.changed.IsNewerThan(r.ticks.Last, r.ticks.Current)
}

func (r Ref[T]) AddedTick() Tick {
	return *r.added
}

func (r Ref[T]) ChangedTick() Tick {
	return *r.changed
}

type refState[T any] struct {
	id ComponentID
}

func (s refState[T]) matches(l *ComponentLayout) bool {
	return l.Contains(s.id)
}

func (s refState[T]) newFetch(ticks ChangeDetectionTick) fetch[Ref[T]] {
	return &refFetch[T]{id: s.id, ticks: ticks}
}

type refFetch[T any] struct {
	id      ComponentID
	ticks   ChangeDetectionTick
	values  []T
	added   []Tick
	changed []Tick
}

func (f *refFetch[T]) bind(a *Archetype, c *Chunk) {
	col := a.column(c, f.id)
	if col == nil {
		panic(missingColumn(a, f.id))
	}
	f.values = blobSlice[T](&col.data)
	f.added = col.added
	f.changed = col.changed
}

func (f *refFetch[T]) get(row int) (Ref[T], bool) {
	return Ref[T]{
		value:   &f.values[row],
		added:   &f.added[row],
		changed: &f.changed[row],
		ticks:   f.ticks,
	}, true
}

// Opt wraps a target that may be absent. Absence yields an empty Opt rather
// than skipping the row.
type Opt[W any] struct {
	value W
	ok    bool
}

func Some[W any](v W) Opt[W] {
	return Opt[W]{value: v, ok: true}
}

func (Opt[W]) compileTarget(w *World) targetState[Opt[W]] {
	return optState[W]{inner: compileTarget[W](w)}
}

func (o Opt[W]) Get() (W, bool) {
	return o.value, o.ok
}

func (o Opt[W]) IsSome() bool {
	return o.ok
}

// OrElse returns the wrapped value, or fallback when absent.
func (o Opt[W]) OrElse(fallback W) W {
	if o.ok {
		return o.value
	}
	return fallback
}

type optState[W any] struct {
	inner targetState[W]
}

func (s optState[W]) matches(*ComponentLayout) bool {
	return true
}

func (s optState[W]) newFetch(ticks ChangeDetectionTick) fetch[Opt[W]] {
	return &optFetch[W]{state: s.inner, inner: s.inner.newFetch(ticks)}
}

type optFetch[W any] struct {
	state   targetState[W]
	inner   fetch[W]
	present bool
}

func (f *optFetch[W]) bind(a *Archetype, c *Chunk) {
	f.present = f.state.matches(&a.layout)
	if f.present {
		f.inner.bind(a, c)
	}
}

func (f *optFetch[W]) get(row int) (Opt[W], bool) {
	if !f.present {
		return Opt[W]{}, true
	}
	v, ok := f.inner.get(row)
	return Opt[W]{value: v, ok: ok}, true
}
