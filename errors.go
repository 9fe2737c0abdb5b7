package depot

import (
	"fmt"
	"reflect"
)

type LockedWorldError struct{}

func (e LockedWorldError) Error() string {
	return "world is currently locked"
}

type EntityNotFoundError struct {
	Entity Entity
}

func (e EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity %v is not alive", e.Entity)
}

type EntityRelationError struct {
	Child, Parent Entity
}

func (e EntityRelationError) Error() string {
	return fmt.Sprintf("child (%v) cannot take parent %v", e.Child, e.Parent)
}

type ComponentNotFoundError struct {
	Entity Entity
	Type   reflect.Type
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity %v: %v", e.Entity, e.Type)
}

type ResourceNotFoundError struct {
	Type reflect.Type
}

func (e ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource not inserted: %v", e.Type)
}

type CacheCapacityError struct {
	Capacity int
}

func (e CacheCapacityError) Error() string {
	return fmt.Sprintf("cache at maximum capacity (%d)", e.Capacity)
}

type ComponentLimitError struct {
	Type  reflect.Type
	Limit int
}

func (e ComponentLimitError) Error() string {
	return fmt.Sprintf("cannot register %v: world already holds %d component types", e.Type, e.Limit)
}
