package depot

import (
	"reflect"
	"testing"
)

func TestArchetypeCreation(t *testing.T) {
	tests := []struct {
		name                string
		first               []ComponentValue
		second              []ComponentValue
		expectSameArchetype bool
	}{
		{
			name:                "Identical components",
			first:               []ComponentValue{Value(Position{}), Value(Velocity{})},
			second:              []ComponentValue{Value(Position{}), Value(Velocity{})},
			expectSameArchetype: true,
		},
		{
			name:                "Different order",
			first:               []ComponentValue{Value(Position{}), Value(Velocity{})},
			second:              []ComponentValue{Value(Velocity{}), Value(Position{})},
			expectSameArchetype: true,
		},
		{
			name:                "Different components",
			first:               []ComponentValue{Value(Position{})},
			second:              []ComponentValue{Value(Velocity{})},
			expectSameArchetype: false,
		},
		{
			name:                "Subset components",
			first:               []ComponentValue{Value(Position{}), Value(Velocity{})},
			second:              []ComponentValue{Value(Position{})},
			expectSameArchetype: false,
		},
		{
			name:                "Superset components",
			first:               []ComponentValue{Value(Position{})},
			second:              []ComponentValue{Value(Position{}), Value(Velocity{}), Value(Health{})},
			expectSameArchetype: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Factory.NewWorld()

			a, _ := w.Spawn(tt.first...)
			b, _ := w.Spawn(tt.second...)
			locA, _ := w.Location(a)
			locB, _ := w.Location(b)

			if same := locA.Archetype == locB.Archetype; same != tt.expectSameArchetype {
				t.Errorf("same archetype = %v, want %v", same, tt.expectSameArchetype)
			}
			wantLen := 3
			if tt.expectSameArchetype {
				wantLen = 2
			}
			if w.Archetypes().Len() != wantLen {
				t.Errorf("Archetypes().Len() = %d, want %d", w.Archetypes().Len(), wantLen)
			}
		})
	}
}

func TestEmptyArchetypeIsZero(t *testing.T) {
	w := Factory.NewWorld()
	e, _ := w.Spawn()
	loc, ok := w.Location(e)
	if !ok || loc.Archetype != 0 {
		t.Errorf("empty entity in archetype %d, want 0", loc.Archetype)
	}
	if w.Archetypes().Get(0).Layout().Len() != 0 {
		t.Errorf("archetype 0 is not empty")
	}
}

func TestArchetypeEdges(t *testing.T) {
	w := Factory.NewWorld()
	keep, _ := w.Spawn(Value(Position{}))
	e, _ := w.Spawn(Value(Position{}))
	src, _ := w.Location(e)

	if err := Insert(w, e, Velocity{}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	dst, _ := w.Location(e)

	arch := w.Archetypes().Get(src.Archetype)
	delta := NewComponentLayout(ComponentIDOf[Velocity](w))
	cached, ok := arch.edges.add[delta.Bits()]
	if !ok || cached != dst.Archetype {
		t.Errorf("add edge = %d, %v, want %d", cached, ok, dst.Archetype)
	}

	count := w.Archetypes().Len()
	if err := Insert(w, keep, Velocity{}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if w.Archetypes().Len() != count {
		t.Errorf("following a cached edge created an archetype")
	}
	moved, _ := w.Location(keep)
	if moved.Archetype != dst.Archetype {
		t.Errorf("cached edge led to %d, want %d", moved.Archetype, dst.Archetype)
	}
}

func TestComponentLayout(t *testing.T) {
	a := NewComponentLayout(3, 1, 2)
	b := NewComponentLayout(1, 2, 3, 3)

	if !a.Equal(b) {
		t.Errorf("layouts with the same ids are not equal")
	}
	if got := a.IDs(); !reflect.DeepEqual(got, []ComponentID{3, 1, 2}) {
		t.Errorf("IDs() = %v, want insertion order", got)
	}
	if b.Len() != 3 {
		t.Errorf("duplicate id counted: Len() = %d", b.Len())
	}

	u := a.Union(7)
	if !u.Contains(7) || a.Contains(7) {
		t.Errorf("Union mutated the receiver or dropped the id")
	}
	d := u.Difference(1, 40)
	if d.Contains(1) || !u.Contains(1) || d.Len() != 3 {
		t.Errorf("Difference = %v", d.IDs())
	}

	outOfRange := ComponentID(MaxComponents)
	if d.Contains(outOfRange) || d.Bits().Contains(outOfRange) {
		t.Errorf("Contains(%d) = true beyond MaxComponents", outOfRange)
	}
	if got := d.Difference(outOfRange); !got.Equal(d) {
		t.Errorf("Difference(%d) changed the layout to %v", outOfRange, got.IDs())
	}
	top := NewComponentLayout(ComponentID(MaxComponents - 1))
	if !top.Contains(ComponentID(MaxComponents-1)) || !top.Bits().Contains(ComponentID(MaxComponents-1)) {
		t.Errorf("highest id %d not stored", MaxComponents-1)
	}

	bits := d.Bits()
	tests := []struct {
		name  string
		other BitSet
		all   bool
		any   bool
		none  bool
	}{
		{"subset", bitSetOf(2, 3), true, true, false},
		{"overlap", bitSetOf(3, 4), false, true, false},
		{"disjoint", bitSetOf(4, 5), false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if bits.ContainsAll(tt.other) != tt.all {
				t.Errorf("ContainsAll = %v", !tt.all)
			}
			if bits.ContainsAny(tt.other) != tt.any {
				t.Errorf("ContainsAny = %v", !tt.any)
			}
			if bits.ContainsNone(tt.other) != tt.none {
				t.Errorf("ContainsNone = %v", !tt.none)
			}
		})
	}
}

func TestBlobArray(t *testing.T) {
	type tagged struct {
		Label *string
		N     int
	}
	label := "x"
	b := newBlobArray(reflect.TypeFor[tagged](), 4)
	dst := newBlobArray(reflect.TypeFor[tagged](), 4)

	b.insert(1, reflect.ValueOf(tagged{Label: &label, N: 7}))
	if got := blobSlice[tagged](&b)[1]; got.N != 7 || got.Label != &label {
		t.Errorf("typed view = %+v", got)
	}

	b.swap(1, 2)
	if blobSlice[tagged](&b)[2].N != 7 || blobSlice[tagged](&b)[1].N != 0 {
		t.Errorf("swap did not exchange elements")
	}

	b.copyElement(&dst, 2, 0)
	if blobSlice[tagged](&dst)[0].N != 7 {
		t.Errorf("copyElement did not copy")
	}

	b.remove(2)
	if got := blobSlice[tagged](&b)[2]; got.Label != nil || got.N != 0 {
		t.Errorf("remove left %+v", got)
	}

	dst.clear()
	if blobSlice[tagged](&dst)[0].N != 0 {
		t.Errorf("clear left data behind")
	}

	t.Run("type mismatch panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Errorf("mismatched typed view did not panic")
			}
		}()
		_ = blobSlice[int](&b)
	})

	t.Run("out of range panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Errorf("out of range access did not panic")
			}
		}()
		_ = b.value(4)
	})
}

func TestChunkRows(t *testing.T) {
	w := Factory.NewWorld()
	id := ComponentIDOf[Position](w)
	c := newChunk([]*ComponentInfo{w.components.info(id)}, 3)

	a, b := newEntity(0, 1), newEntity(1, 1)
	c.occupy(0, a)
	c.occupy(2, b)
	if c.Count() != 2 || c.Len() != 3 {
		t.Errorf("Count/Len = %d/%d, want 2/3", c.Count(), c.Len())
	}
	c.stamp(0, 2, 5)
	blobSlice[Position](&c.columns[0].data)[2] = Position{X: 1}

	c.vacate(2)
	if !c.Entity(2).IsNull() {
		t.Errorf("vacated row still holds an entity")
	}
	if c.columns[0].added[2] != 0 || c.columns[0].changed[2] != 0 {
		t.Errorf("vacated row kept its ticks")
	}
	if blobSlice[Position](&c.columns[0].data)[2] != (Position{}) {
		t.Errorf("vacated row kept its data")
	}
	if c.Len() != 3 {
		t.Errorf("vacate compacted the chunk: Len() = %d", c.Len())
	}

	defer func() {
		if recover() == nil {
			t.Errorf("double vacate did not panic")
		}
	}()
	c.vacate(2)
}

func TestWorldClear(t *testing.T) {
	w := Factory.NewWorld()
	entities := spawnMix(t, w)
	InsertResource(w, Name{Value: "res"})
	archetypes := w.Archetypes().Len()

	if err := w.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if w.Len() != 0 {
		t.Errorf("Len() after Clear = %d", w.Len())
	}
	for _, e := range entities {
		if w.Alive(e) {
			t.Errorf("%v alive after Clear", e)
		}
	}
	if HasResource[Name](w) {
		t.Errorf("resource survived Clear")
	}
	if w.Archetypes().Len() != archetypes {
		t.Errorf("Clear dropped archetype ids")
	}

	e, _ := w.Spawn(Value(Position{X: 1}))
	if got := NewQuery1[Entity](w).Collect(); len(got) != 1 || got[0] != e {
		t.Errorf("query after Clear = %v, want [%v]", got, e)
	}
}
