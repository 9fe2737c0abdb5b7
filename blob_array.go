package depot

import (
	"fmt"
	"reflect"
	"unsafe"
)

// BlobArray is a fixed-capacity, type-erased column of one component type.
//
// The backing array is allocated as a real []T so the garbage collector keeps
// seeing pointers held inside components. Type-erased operations go through
// reflect, typed access goes through blobSlice. This is the only file that
// performs pointer arithmetic on component storage.
type BlobArray struct {
	typ      reflect.Type
	slice    reflect.Value
	base     unsafe.Pointer
	size     uintptr
	capacity int
}

func newBlobArray(typ reflect.Type, capacity int) BlobArray {
	slice := reflect.MakeSlice(reflect.SliceOf(typ), capacity, capacity)
	return BlobArray{
		typ:      typ,
		slice:    slice,
		base:     slice.UnsafePointer(),
		size:     typ.Size(),
		capacity: capacity,
	}
}

func (b *BlobArray) Type() reflect.Type {
	return b.typ
}

func (b *BlobArray) Cap() int {
	return b.capacity
}

func (b *BlobArray) checkIndex(i int) {
	if uint(i) >= uint(b.capacity) {
		panic(fmt.Sprintf("depot: blob array index %d out of range [0:%d)", i, b.capacity))
	}
}

// get returns the address of element i.
func (b *BlobArray) get(i int) unsafe.Pointer {
	b.checkIndex(i)
	return unsafe.Add(b.base, uintptr(i)*b.size)
}

// value returns element i as an addressable reflect.Value.
func (b *BlobArray) value(i int) reflect.Value {
	b.checkIndex(i)
	return b.slice.Index(i)
}

func (b *BlobArray) insert(i int, v reflect.Value) {
	b.value(i).Set(v)
}

// remove zeroes element i so the column stops retaining anything it pointed to.
func (b *BlobArray) remove(i int) {
	b.value(i).SetZero()
}

func (b *BlobArray) swap(i, j int) {
	if i == j {
		return
	}
	vi, vj := b.value(i), b.value(j)
	tmp := reflect.New(b.typ).Elem()
	tmp.Set(vi)
	vi.Set(vj)
	vj.Set(tmp)
}

// copyElement copies element from of b into element to of dst. Both columns
// must hold the same type.
func (b *BlobArray) copyElement(dst *BlobArray, from, to int) {
	if dst.typ != b.typ {
		panic(fmt.Sprintf("depot: copy between mismatched columns %v and %v", b.typ, dst.typ))
	}
	b.checkIndex(from)
	dst.checkIndex(to)
	reflect.Copy(dst.slice.Slice(to, to+1), b.slice.Slice(from, from+1))
}

// clear zeroes every element.
func (b *BlobArray) clear() {
	b.slice.Clear()
}

// blobSlice returns a typed view over the whole column.
func blobSlice[T any](b *BlobArray) []T {
	if b.typ != reflect.TypeFor[T]() {
		panic(fmt.Sprintf("depot: column holds %v, accessed as %v", b.typ, reflect.TypeFor[T]()))
	}
	return unsafe.Slice((*T)(b.base), b.capacity)
}
