package ecs

import (
	"iter"
	"reflect"
)

// iComponentStorage is an interface for a type-erased component storage
// keyed by entity handle.
type iComponentStorage interface {
	Type() reflect.Type
	Set(entity Entity, item any) bool
	Delete(entity Entity) bool
	Get(entity Entity) any
	Has(entity Entity) bool
	Len() int
	Compact()
	Iter() iter.Seq[Entity]
}
