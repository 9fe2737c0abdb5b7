package depot

// Row2 is one row of a two-target query.
type Row2[T1, T2 any] struct {
	V1 T1
	V2 T2
}

// Row3 is one row of a three-target query.
type Row3[T1, T2, T3 any] struct {
	V1 T1
	V2 T2
	V3 T3
}

// Row4 is one row of a four-target query.
type Row4[T1, T2, T3, T4 any] struct {
	V1 T1
	V2 T2
	V3 T3
	V4 T4
}

type state2[A, B any] struct {
	a targetState[A]
	b targetState[B]
}

func (s state2[A, B]) matches(l *ComponentLayout) bool {
	return s.a.matches(l) && s.b.matches(l)
}

func (s state2[A, B]) newFetch(t ChangeDetectionTick) fetch[Row2[A, B]] {
	return &fetch2[A, B]{a: s.a.newFetch(t), b: s.b.newFetch(t)}
}

type fetch2[A, B any] struct {
	a fetch[A]
	b fetch[B]
}

func (f *fetch2[A, B]) bind(arch *Archetype, c *Chunk) {
	f.a.bind(arch, c)
	f.b.bind(arch, c)
}

func (f *fetch2[A, B]) get(row int) (r Row2[A, B], ok bool) {
	if r.V1, ok = f.a.get(row); !ok {
		return r, false
	}
	if r.V2, ok = f.b.get(row); !ok {
		return r, false
	}
	return r, true
}

type state3[A, B, C any] struct {
	a targetState[A]
	b targetState[B]
	c targetState[C]
}

func (s state3[A, B, C]) matches(l *ComponentLayout) bool {
	return s.a.matches(l) && s.b.matches(l) && s.c.matches(l)
}

func (s state3[A, B, C]) newFetch(t ChangeDetectionTick) fetch[Row3[A, B, C]] {
	return &fetch3[A, B, C]{a: s.a.newFetch(t), b: s.b.newFetch(t), c: s.c.newFetch(t)}
}

type fetch3[A, B, C any] struct {
	a fetch[A]
	b fetch[B]
	c fetch[C]
}

func (f *fetch3[A, B, C]) bind(arch *Archetype, c *Chunk) {
	f.a.bind(arch, c)
	f.b.bind(arch, c)
	f.c.bind(arch, c)
}

func (f *fetch3[A, B, C]) get(row int) (r Row3[A, B, C], ok bool) {
	if r.V1, ok = f.a.get(row); !ok {
		return r, false
	}
	if r.V2, ok = f.b.get(row); !ok {
		return r, false
	}
	if r.V3, ok = f.c.get(row); !ok {
		return r, false
	}
	return r, true
}

type state4[A, B, C, D any] struct {
	a targetState[A]
	b targetState[B]
	c targetState[C]
	d targetState[D]
}

func (s state4[A, B, C, D]) matches(l *ComponentLayout) bool {
	return s.a.matches(l) && s.b.matches(l) && s.c.matches(l) && s.d.matches(l)
}

func (s state4[A, B, C, D]) newFetch(t ChangeDetectionTick) fetch[Row4[A, B, C, D]] {
	return &fetch4[A, B, C, D]{
		a: s.a.newFetch(t),
		b: s.b.newFetch(t),
		c: s.c.newFetch(t),
		d: s.d.newFetch(t),
	}
}

type fetch4[A, B, C, D any] struct {
	a fetch[A]
	b fetch[B]
	c fetch[C]
	d fetch[D]
}

func (f *fetch4[A, B, C, D]) bind(arch *Archetype, c *Chunk) {
	f.a.bind(arch, c)
	f.b.bind(arch, c)
	f.c.bind(arch, c)
	f.d.bind(arch, c)
}

func (f *fetch4[A, B, C, D]) get(row int) (r Row4[A, B, C, D], ok bool) {
	if r.V1, ok = f.a.get(row); !ok {
		return r, false
	}
	if r.V2, ok = f.b.get(row); !ok {
		return r, false
	}
	if r.V3, ok = f.c.get(row); !ok {
		return r, false
	}
	if r.V4, ok = f.d.get(row); !ok {
		return r, false
	}
	return r, true
}
