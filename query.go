package depot

type Operation int

const (
	OpAnd Operation = iota
	OpOr
	OpNot
)

// filterState is a filter compiled against one world.
type filterState interface {
	matchesArchetype(l *ComponentLayout) bool
	// rowLevel reports whether bind may return a per-row predicate.
	rowLevel() bool
	// bind returns nil when every row of the chunk passes.
	bind(a *Archetype, c *Chunk, ticks ChangeDetectionTick) rowFilter
}

type rowFilter func(row int) bool

func rejectAll(int) bool { return false }

// maskNode is an archetype level test against one component mask.
type maskNode struct {
	op   Operation
	bits BitSet
}

func (n maskNode) matchesArchetype(l *ComponentLayout) bool {
	switch n.op {
	case OpAnd:
		return l.bits.ContainsAll(n.bits)
	case OpOr:
		return l.bits.ContainsAny(n.bits)
	case OpNot:
		return l.bits.ContainsNone(n.bits)
	}
	return false
}

func (maskNode) rowLevel() bool { return false }

func (maskNode) bind(*Archetype, *Chunk, ChangeDetectionTick) rowFilter { return nil }

type componentFilter struct {
	op   Operation
	keys []componentKey
}

func (f componentFilter) compileFilter(w *World) filterState {
	n := maskNode{op: f.op}
	for _, k := range f.keys {
		n.bits.Insert(w.components.register(k))
	}
	return n
}

// With keeps archetypes that have T.
func With[T any]() Filter {
	return componentFilter{op: OpAnd, keys: []componentKey{keyOf[T]()}}
}

// Without keeps archetypes that lack T.
func Without[T any]() Filter {
	return componentFilter{op: OpNot, keys: []componentKey{keyOf[T]()}}
}

// WithAll keeps archetypes that have every listed component.
func WithAll(comps ...Component) Filter {
	return componentFilter{op: OpAnd, keys: keysOf(comps)}
}

// WithAny keeps archetypes that have at least one listed component.
func WithAny(comps ...Component) Filter {
	return componentFilter{op: OpOr, keys: keysOf(comps)}
}

// WithNone keeps archetypes that have none of the listed components.
func WithNone(comps ...Component) Filter {
	return componentFilter{op: OpNot, keys: keysOf(comps)}
}

func keysOf(comps []Component) []componentKey {
	keys := make([]componentKey, len(comps))
	for i, c := range comps {
		keys[i] = c.key()
	}
	return keys
}

type compositeFilter struct {
	op       Operation
	children []Filter
}

// And keeps what every child keeps.
func And(filters ...Filter) Filter {
	return compositeFilter{op: OpAnd, children: filters}
}

// Or keeps what at least one child keeps.
func Or(filters ...Filter) Filter {
	return compositeFilter{op: OpOr, children: filters}
}

// Not keeps what none of the children keep.
func Not(filters ...Filter) Filter {
	return compositeFilter{op: OpNot, children: filters}
}

func (f compositeFilter) compileFilter(w *World) filterState {
	n := &compositeNode{op: f.op, children: make([]filterState, len(f.children))}
	for i, child := range f.children {
		n.children[i] = child.compileFilter(w)
		n.row = n.row || n.children[i].rowLevel()
	}
	return n
}

type compositeNode struct {
	op       Operation
	children []filterState
	row      bool
}

func (n *compositeNode) rowLevel() bool {
	return n.row
}

func (n *compositeNode) matchesArchetype(l *ComponentLayout) bool {
	switch n.op {
	case OpAnd:
		for _, child := range n.children {
			if !child.matchesArchetype(l) {
				return false
			}
		}
		return true

	case OpOr:
		for _, child := range n.children {
			if child.matchesArchetype(l) {
				return true
			}
		}
		return false

	case OpNot:
		// A row level child can reject only some rows, so only archetype
		// level children prune here.
		for _, child := range n.children {
			if !child.rowLevel() && child.matchesArchetype(l) {
				return false
			}
		}
		return true
	}
	return false
}

func (n *compositeNode) bind(a *Archetype, c *Chunk, ticks ChangeDetectionTick) rowFilter {
	if !n.row {
		return nil
	}
	switch n.op {
	case OpAnd:
		var rows []rowFilter
		for _, child := range n.children {
			if rf := child.bind(a, c, ticks); rf != nil {
				rows = append(rows, rf)
			}
		}
		return allOf(rows)

	case OpOr:
		var rows []rowFilter
		for _, child := range n.children {
			if !child.matchesArchetype(&a.layout) {
				continue
			}
			rf := child.bind(a, c, ticks)
			if rf == nil {
				return nil
			}
			rows = append(rows, rf)
		}
		if len(rows) == 0 {
			return rejectAll
		}
		return func(row int) bool {
			for _, rf := range rows {
				if rf(row) {
					return true
				}
			}
			return false
		}

	case OpNot:
		var rows []rowFilter
		for _, child := range n.children {
			if !child.rowLevel() || !child.matchesArchetype(&a.layout) {
				continue
			}
			rf := child.bind(a, c, ticks)
			if rf == nil {
				return rejectAll
			}
			rows = append(rows, rf)
		}
		if len(rows) == 0 {
			return nil
		}
		return func(row int) bool {
			for _, rf := range rows {
				if rf(row) {
					return false
				}
			}
			return true
		}
	}
	return nil
}

func allOf(rows []rowFilter) rowFilter {
	switch len(rows) {
	case 0:
		return nil
	case 1:
		return rows[0]
	}
	return func(row int) bool {
		for _, rf := range rows {
			if !rf(row) {
				return false
			}
		}
		return true
	}
}

type tickKind int

const (
	tickAdded tickKind = iota
	tickChanged
)

type tickFilter struct {
	kind tickKind
	key  componentKey
}

// Changed keeps rows whose T was added or written after the query's last tick.
// Archetypes without T are skipped.
func Changed[T any]() Filter {
	return tickFilter{kind: tickChanged, key: keyOf[T]()}
}

// Added keeps rows whose T was added after the query's last tick.
func Added[T any]() Filter {
	return tickFilter{kind: tickAdded, key: keyOf[T]()}
}

func (f tickFilter) compileFilter(w *World) filterState {
	return tickNode{kind: f.kind, id: w.components.register(f.key)}
}

type tickNode struct {
	kind tickKind
	id   ComponentID
}

func (n tickNode) matchesArchetype(l *ComponentLayout) bool {
	return l.Contains(n.id)
}

func (tickNode) rowLevel() bool { return true }

func (n tickNode) bind(a *Archetype, c *Chunk, ticks ChangeDetectionTick) rowFilter {
	col := a.column(c, n.id)
	if col == nil {
		return rejectAll
	}
	stamps := col.changed
	if n.kind == tickAdded {
		stamps = col.added
	}
	return func(row int) bool {
		return stamps[row].IsNewerThan(ticks.Last, ticks.Current)
	}
}

// QueryFilter selects entities by their lifecycle within the current step.
type QueryFilter uint8

const (
	// QueryFilterAdded matches entities spawned since the last ClearTrackers.
	QueryFilterAdded QueryFilter = 1 << iota
	// QueryFilterStored matches entities that are neither newly added nor
	// scheduled for despawn.
	QueryFilterStored
	// QueryFilterRemoved matches entities scheduled by DespawnOnNextTick.
	QueryFilterRemoved

	QueryFilterAll = QueryFilterAdded | QueryFilterStored | QueryFilterRemoved
)

func (f QueryFilter) accepts(w *World, e Entity) bool {
	if f == QueryFilterAll {
		return true
	}
	if _, removed := w.removedEntities[e]; removed {
		return f&QueryFilterRemoved != 0
	}
	if _, added := w.addedEntities[e]; added {
		return f&QueryFilterAdded != 0
	}
	return f&QueryFilterStored != 0
}
