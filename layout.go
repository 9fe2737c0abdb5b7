package depot

import (
	"slices"

	"github.com/TheBitDrifter/mask"
)

// ComponentID identifies a registered component type within one World.
type ComponentID uint32

// BitSet is a fixed-width set of component ids below MaxComponents. BitSets
// are comparable and can be used as map keys.
type BitSet struct {
	bits mask.Mask
}

func bitSetOf(ids ...ComponentID) BitSet {
	var b BitSet
	for _, id := range ids {
		b.Insert(id)
	}
	return b
}

func (b *BitSet) Insert(id ComponentID) {
	b.bits.Mark(uint32(id))
}

func (b *BitSet) Remove(id ComponentID) {
	b.bits.Unmark(uint32(id))
}

// Contains reports false for ids at or beyond MaxComponents.
func (b BitSet) Contains(id ComponentID) bool {
	if int(id) >= MaxComponents {
		return false
	}
	return b.bits.Contains(uint32(id))
}

// ContainsAll reports whether every id in other is also in b.
func (b BitSet) ContainsAll(other BitSet) bool {
	return b.bits.ContainsAll(other.bits)
}

func (b BitSet) ContainsAny(other BitSet) bool {
	return b.bits.ContainsAny(other.bits)
}

func (b BitSet) ContainsNone(other BitSet) bool {
	return b.bits.ContainsNone(other.bits)
}

func (b BitSet) IsEmpty() bool {
	return b == BitSet{}
}

// ComponentLayout is the exact set of component types stored by an archetype.
// The id list keeps insertion order for deterministic column layout, while the
// bitset gives order independent equality.
type ComponentLayout struct {
	ids  []ComponentID
	bits BitSet
}

func NewComponentLayout(ids ...ComponentID) ComponentLayout {
	var l ComponentLayout
	for _, id := range ids {
		l.Insert(id)
	}
	return l
}

// Insert adds id to the layout. Inserting an id twice is a no-op.
func (l *ComponentLayout) Insert(id ComponentID) {
	if l.bits.Contains(id) {
		return
	}
	l.ids = append(l.ids, id)
	l.bits.Insert(id)
}

func (l *ComponentLayout) Remove(id ComponentID) {
	if !l.bits.Contains(id) {
		return
	}
	l.ids = slices.DeleteFunc(l.ids, func(other ComponentID) bool { return other == id })
	l.bits.Remove(id)
}

func (l ComponentLayout) Contains(id ComponentID) bool {
	return l.bits.Contains(id)
}

func (l ComponentLayout) Equal(other ComponentLayout) bool {
	return l.bits == other.bits
}

func (l ComponentLayout) Bits() BitSet {
	return l.bits
}

// IDs returns a copy of the layout's ids in column order.
func (l ComponentLayout) IDs() []ComponentID {
	return slices.Clone(l.ids)
}

func (l ComponentLayout) Len() int {
	return len(l.ids)
}

// Union returns a new layout holding l's ids followed by any new ids.
func (l ComponentLayout) Union(ids ...ComponentID) ComponentLayout {
	out := ComponentLayout{ids: slices.Clone(l.ids), bits: l.bits}
	for _, id := range ids {
		out.Insert(id)
	}
	return out
}

// Difference returns a new layout holding l's ids minus ids.
func (l ComponentLayout) Difference(ids ...ComponentID) ComponentLayout {
	out := ComponentLayout{ids: slices.Clone(l.ids), bits: l.bits}
	for _, id := range ids {
		out.Remove(id)
	}
	return out
}
