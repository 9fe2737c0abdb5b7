package depot

import (
	"iter"

	iter_util "github.com/TheBitDrifter/util/iter"
)

// QueryOption configures a query at construction.
type QueryOption func(*queryOptions)

type queryOptions struct {
	filters      []Filter
	entityFilter QueryFilter
}

// Where adds filters to a query. Several filters are combined with And.
func Where(filters ...Filter) QueryOption {
	return func(o *queryOptions) {
		o.filters = append(o.filters, filters...)
	}
}

// Matching restricts a query to entities in the given lifecycle states.
func Matching(f QueryFilter) QueryOption {
	return func(o *queryOptions) {
		o.entityFilter = f
	}
}

// queryCore is the shape independent part of every QueryN.
type queryCore[E any] struct {
	target       targetState[E]
	filter       filterState
	entityFilter QueryFilter
	state        QueryState
}

func newQueryCore[E any](w *World, target targetState[E], opts []QueryOption) *queryCore[E] {
	o := queryOptions{entityFilter: QueryFilterAll}
	for _, opt := range opts {
		opt(&o)
	}
	q := &queryCore[E]{
		target:       target,
		entityFilter: o.entityFilter,
	}
	if len(o.filters) > 0 {
		q.filter = And(o.filters...).compileFilter(w)
	}
	q.state = QueryState{
		world: w,
		predicate: func(l *ComponentLayout) bool {
			return target.matches(l) && (q.filter == nil || q.filter.matchesArchetype(l))
		},
	}
	q.state.UpdateArchetypes(w)
	return q
}

// Update refreshes the matched archetypes and ticks. It makes every query a
// SystemParameter.
func (q *queryCore[E]) Update(w *World) {
	q.state.UpdateArchetypes(w)
}

func (q *queryCore[E]) State() *QueryState {
	return &q.state
}

// Iter returns a fresh cursor over the query's rows.
func (q *queryCore[E]) Iter() *QueryIterator[E] {
	return newQueryIterator(q)
}

// Rows yields every qualifying entity with its row.
func (q *queryCore[E]) Rows() iter.Seq2[Entity, E] {
	return func(yield func(Entity, E) bool) {
		it := q.Iter()
		for it.Next() {
			if !yield(it.Entity(), it.Get()) {
				return
			}
		}
	}
}

// Values yields every qualifying row.
func (q *queryCore[E]) Values() iter.Seq[E] {
	return func(yield func(E) bool) {
		it := q.Iter()
		for it.Next() {
			if !yield(it.Get()) {
				return
			}
		}
	}
}

// Entities yields the entity of every qualifying row.
func (q *queryCore[E]) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		it := q.Iter()
		for it.Next() {
			if !yield(it.Entity()) {
				return
			}
		}
	}
}

// Collect returns every qualifying row in iteration order.
func (q *queryCore[E]) Collect() []E {
	return iter_util.Collect(q.Values())
}

// Count returns the number of qualifying rows.
func (q *queryCore[E]) Count() int {
	if q.filter == nil && q.entityFilter == QueryFilterAll {
		n := 0
		for _, id := range q.state.matched {
			n += q.state.world.archetypes.asSlice[id].count
		}
		return n
	}
	n := 0
	it := q.Iter()
	for it.Next() {
		n++
	}
	return n
}

func (q *queryCore[E]) IsEmpty() bool {
	return !q.Iter().Next()
}

// Get returns e's row when e currently qualifies.
func (q *queryCore[E]) Get(e Entity) (E, bool) {
	var zero E
	w := q.state.world
	loc, ok := w.entities.location(e)
	if !ok || !q.matchesArchetype(loc.Archetype) {
		return zero, false
	}
	arch := w.archetypes.asSlice[loc.Archetype]
	c, r := arch.chunkAt(loc.ArchetypeRow)
	if q.filter != nil {
		if rows := q.filter.bind(arch, c, q.state.ticks); rows != nil && !rows(r) {
			return zero, false
		}
	}
	if !q.entityFilter.accepts(w, e) {
		return zero, false
	}
	f := q.target.newFetch(q.state.ticks)
	f.bind(arch, c)
	return f.get(r)
}

func (q *queryCore[E]) matchesArchetype(id ArchetypeID) bool {
	for _, m := range q.state.matched {
		if m == id {
			return true
		}
	}
	return false
}

// Parallel returns a batched concurrent view of the query. A batchSize of
// zero or less uses the world's configured batch size.
func (q *queryCore[E]) Parallel(batchSize int) *ParallelQueryResult[E] {
	if batchSize <= 0 {
		batchSize = q.state.world.config.ParallelBatchSize
	}
	return &ParallelQueryResult[E]{core: q, batchSize: batchSize}
}

// Query1 fetches one target per row. A target is Entity, Ref[T], Opt[W] or a
// plain component type read by value.
type Query1[A any] struct {
	*queryCore[A]
}

func NewQuery1[A any](w *World, opts ...QueryOption) *Query1[A] {
	return &Query1[A]{newQueryCore(w, compileTarget[A](w), opts)}
}

func (q *Query1[A]) Each(fn func(A)) {
	it := q.Iter()
	for it.Next() {
		fn(it.Get())
	}
}

// All yields every qualifying row.
func (q *Query1[A]) All() iter.Seq[A] {
	return q.Values()
}

// Query2 fetches two targets per row.
type Query2[A, B any] struct {
	*queryCore[Row2[A, B]]
}

func NewQuery2[A, B any](w *World, opts ...QueryOption) *Query2[A, B] {
	target := state2[A, B]{a: compileTarget[A](w), b: compileTarget[B](w)}
	return &Query2[A, B]{newQueryCore[Row2[A, B]](w, target, opts)}
}

func (q *Query2[A, B]) Each(fn func(A, B)) {
	it := q.Iter()
	for it.Next() {
		r := it.Get()
		fn(r.V1, r.V2)
	}
}

func (q *Query2[A, B]) All() iter.Seq2[A, B] {
	return func(yield func(A, B) bool) {
		it := q.Iter()
		for it.Next() {
			r := it.Get()
			if !yield(r.V1, r.V2) {
				return
			}
		}
	}
}

// Query3 fetches three targets per row.
type Query3[A, B, C any] struct {
	*queryCore[Row3[A, B, C]]
}

func NewQuery3[A, B, C any](w *World, opts ...QueryOption) *Query3[A, B, C] {
	target := state3[A, B, C]{a: compileTarget[A](w), b: compileTarget[B](w), c: compileTarget[C](w)}
	return &Query3[A, B, C]{newQueryCore[Row3[A, B, C]](w, target, opts)}
}

func (q *Query3[A, B, C]) Each(fn func(A, B, C)) {
	it := q.Iter()
	for it.Next() {
		r := it.Get()
		fn(r.V1, r.V2, r.V3)
	}
}

func (q *Query3[A, B, C]) All() iter.Seq[Row3[A, B, C]] {
	return q.Values()
}

// Query4 fetches four targets per row.
type Query4[A, B, C, D any] struct {
	*queryCore[Row4[A, B, C, D]]
}

func NewQuery4[A, B, C, D any](w *World, opts ...QueryOption) *Query4[A, B, C, D] {
	target := state4[A, B, C, D]{
		a: compileTarget[A](w),
		b: compileTarget[B](w),
		c: compileTarget[C](w),
		d: compileTarget[D](w),
	}
	return &Query4[A, B, C, D]{newQueryCore[Row4[A, B, C, D]](w, target, opts)}
}

func (q *Query4[A, B, C, D]) Each(fn func(A, B, C, D)) {
	it := q.Iter()
	for it.Next() {
		r := it.Get()
		fn(r.V1, r.V2, r.V3, r.V4)
	}
}

func (q *Query4[A, B, C, D]) All() iter.Seq[Row4[A, B, C, D]] {
	return q.Values()
}

// PerformQuery refreshes q against w and returns it, for one-off queries
// outside a Schedule.
func PerformQuery[Q SystemParameter](w *World, q Q) Q {
	q.Update(w)
	return q
}
