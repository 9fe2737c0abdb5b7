package depot

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// MaxComponents bounds how many component types a single World registers. It
// follows the mask width selected by the m256, m512 or m1024 build tags and is
// 64 without one.
const MaxComponents = int(mask.MaxBits)

// componentKey names a Go type together with the table element type that
// stands for it in a schema.
type componentKey struct {
	typ     reflect.Type
	element table.ElementType
}

func (k componentKey) key() componentKey {
	return k
}

// Type returns the Go type of the component.
func (k componentKey) Type() reflect.Type {
	return k.typ
}

// elementTypes memoizes one table.ElementType per Go type for the process.
var elementTypes sync.Map

func keyOf[T any]() componentKey {
	typ := reflect.TypeFor[T]()
	if et, ok := elementTypes.Load(typ); ok {
		return componentKey{typ: typ, element: et.(table.ElementType)}
	}
	var fresh table.ElementType = table.FactoryNewElementType[T]()
	et, _ := elementTypes.LoadOrStore(typ, fresh)
	return componentKey{typ: typ, element: et.(table.ElementType)}
}

// ComponentInfo describes a component type registered with a World.
type ComponentInfo struct {
	ID   ComponentID
	Name string
	Type reflect.Type
}

// ComponentValue carries one component value of a statically known type to
// Spawn, InsertValues or Commands.
type ComponentValue struct {
	componentKey
	write func(col *BlobArray, row int)
}

// Value wraps v so it can be passed to Spawn and friends.
func Value[T any](v T) ComponentValue {
	return ComponentValue{
		componentKey: keyOf[T](),
		write: func(col *BlobArray, row int) {
			blobSlice[T](col)[row] = v
		},
	}
}

// componentRegistry assigns ComponentIDs through the world's schema.
type componentRegistry struct {
	schema table.Schema
	byType map[reflect.Type]ComponentID
	infos  []*ComponentInfo
	names  Cache[ComponentID]
}

func newComponentRegistry(schema table.Schema) *componentRegistry {
	return &componentRegistry{
		schema: schema,
		byType: make(map[reflect.Type]ComponentID),
		names:  FactoryNewCache[ComponentID](MaxComponents),
	}
}

func (r *componentRegistry) lookup(typ reflect.Type) (ComponentID, bool) {
	id, ok := r.byType[typ]
	return id, ok
}

// register returns k's id, registering it on first use. Exceeding
// MaxComponents panics with a ComponentLimitError.
func (r *componentRegistry) register(k componentKey) ComponentID {
	id, err := r.tryRegister(k)
	if err != nil {
		panic(err)
	}
	return id
}

func (r *componentRegistry) tryRegister(k componentKey) (ComponentID, error) {
	if id, ok := r.byType[k.typ]; ok {
		return id, nil
	}
	if len(r.byType) >= MaxComponents {
		return 0, ComponentLimitError{Type: k.typ, Limit: MaxComponents}
	}
	r.schema.Register(k.element)
	id := ComponentID(r.schema.RowIndexFor(k.element))
	if int(id) >= MaxComponents {
		return 0, ComponentLimitError{Type: k.typ, Limit: MaxComponents}
	}

	name := k.typ.String()
	if _, taken := r.names.GetIndex(name); taken {
		name = k.typ.PkgPath() + "." + k.typ.Name()
	}
	if _, err := r.names.Register(name, id); err != nil {
		panic(fmt.Errorf("depot: register component %s: %w", name, err))
	}

	if int(id) >= len(r.infos) {
		r.infos = append(r.infos, make([]*ComponentInfo, int(id)+1-len(r.infos))...)
	}
	r.infos[id] = &ComponentInfo{ID: id, Name: name, Type: k.typ}
	r.byType[k.typ] = id
	return id, nil
}

func (r *componentRegistry) info(id ComponentID) *ComponentInfo {
	if int(id) >= len(r.infos) || r.infos[id] == nil {
		panic(fmt.Sprintf("depot: component id %d is not registered", id))
	}
	return r.infos[id]
}

func (r *componentRegistry) byName(name string) (ComponentID, bool) {
	idx, ok := r.names.GetIndex(name)
	if !ok {
		return 0, false
	}
	return *r.names.GetItem(idx), true
}

func (r *componentRegistry) len() int {
	return len(r.byType)
}
