package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// eface mirrors the runtime layout of an interface value so a component
// pointer stored in an `any` can be written into a view field directly.
type eface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

var entityType = reflect.TypeFor[Entity]()

// View represents a query for entities with a specific combination of components.
// The type T should be a struct with embedded pointer fields for each component type.
// Named fields can be marked as optional using the `ecs:"optional"` struct tag,
// and a field of type Entity receives the handle of the matched entity.
type View[T any] struct {
	storage     *Storage
	types       []reflect.Type
	optional    []bool
	fieldOffset []uintptr

	hasEntity    bool
	entityOffset uintptr
}

// NewView creates a new view for the given struct type.
// Embedded fields are always required.
func NewView[T any](storage *Storage) *View[T] {
	structType := reflect.TypeFor[T]()

	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	v := &View[T]{
		storage:     storage,
		types:       make([]reflect.Type, 0, structType.NumField()),
		optional:    make([]bool, 0, structType.NumField()),
		fieldOffset: make([]uintptr, 0, structType.NumField()),
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldType := field.Type

		if fieldType == entityType {
			if v.hasEntity {
				panic("View struct may only have one Entity field")
			}
			v.hasEntity = true
			v.entityOffset = field.Offset
			continue
		}

		if fieldType.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types or Entity")
		}

		isOptional := false
		if !field.Anonymous {
			tag := field.Tag.Get("ecs")
			if tag != "" {
				if tag == "optional" {
					isOptional = true
				} else {
					panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
				}
			}
		}

		v.types = append(v.types, fieldType.Elem())
		v.optional = append(v.optional, isOptional)
		v.fieldOffset = append(v.fieldOffset, field.Offset)
	}

	return v
}

// Fill populates the provided struct pointer with component data for the given entity.
// Returns false if the entity is not alive or is missing any required components.
// Optional components are set to nil if not present.
func (v *View[T]) Fill(entity Entity, ptr *T) bool {
	if !v.storage.IsAlive(entity) {
		return false
	}

	structPtr := unsafe.Pointer(ptr)

	for i, componentType := range v.types {
		var component any
		if store, ok := v.storage.store(componentType); ok {
			component = store.Get(entity)
		}

		fieldPtr := unsafe.Add(structPtr, v.fieldOffset[i])

		if component == nil {
			if !v.optional[i] {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}

		*(*unsafe.Pointer)(fieldPtr) = (*eface)(unsafe.Pointer(&component)).data
	}

	if v.hasEntity {
		*(*Entity)(unsafe.Add(structPtr, v.entityOffset)) = entity
	}
	return true
}

// Get returns a populated view struct for the given entity, or nil if the entity
// is not alive or doesn't have all the required components.
func (v *View[T]) Get(entity Entity) *T {
	var result T
	if !v.Fill(entity, &result) {
		return nil
	}
	return &result
}

// candidates returns the entities worth checking: the owners of the
// smallest required store, or every live entity when nothing is required.
func (v *View[T]) candidates() iter.Seq[Entity] {
	var smallest iComponentStorage
	required := false
	for i, componentType := range v.types {
		if v.optional[i] {
			continue
		}
		required = true
		store, ok := v.storage.store(componentType)
		if !ok {
			return func(func(Entity) bool) {}
		}
		if smallest == nil || store.Len() < smallest.Len() {
			smallest = store
		}
	}

	if !required {
		return v.storage.Entities()
	}
	return smallest.Iter()
}

// Iter returns an iterator over all live entities that have all the required
// components for this view. Liveness is checked for every entity as it is
// visited.
func (v *View[T]) Iter() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		var result T
		for entity := range v.candidates() {
			if !v.Fill(entity, &result) {
				continue
			}
			if !yield(entity, result) {
				return
			}
		}
	}
}

// Values returns an iterator over just the view structs.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Count returns the number of entities the view currently matches.
func (v *View[T]) Count() int {
	n := 0
	for range v.Iter() {
		n++
	}
	return n
}

// Spawn creates a new entity with components copied out of the view struct.
// Nil optional fields are skipped; a nil required field panics.
func (v *View[T]) Spawn(data T) Entity {
	structPtr := unsafe.Pointer(&data)

	components := make([]any, 0, len(v.types))
	for i, componentType := range v.types {
		componentPtr := *(*unsafe.Pointer)(unsafe.Add(structPtr, v.fieldOffset[i]))
		if componentPtr == nil {
			if !v.optional[i] {
				panic("required component is nil in View.Spawn")
			}
			continue
		}
		components = append(components, reflect.NewAt(componentType, componentPtr).Elem().Interface())
	}

	return v.storage.Spawn(components...)
}
