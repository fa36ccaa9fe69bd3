package ecs

import (
	"iter"
	"reflect"

	"github.com/kamstrup/intmap"
)

// ComponentRegistry manages component type registration for an ECS instance.
// Each Storage instance has its own set of stores built from the registry,
// so multiple independent worlds can share one registry.
type ComponentRegistry struct {
	factories map[reflect.Type]func() iComponentStorage
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		factories: make(map[reflect.Type]func() iComponentStorage),
	}
}

// RegisterComponent registers a new component type with the given registry.
// This must be called for each component type before it can be used.
func RegisterComponent[T any](r *ComponentRegistry) {
	t := reflect.TypeFor[T]()
	checkComponentKind(t)
	r.factories[t] = func() iComponentStorage {
		return newGenericComponentStorage[T]()
	}
}

// getFactory returns the factory function for a given component type.
// Returns nil if the type is not registered.
func (r *ComponentRegistry) getFactory(t reflect.Type) func() iComponentStorage {
	return r.factories[t]
}

// Types returns the registered component types.
func (r *ComponentRegistry) Types() []reflect.Type {
	types := make([]reflect.Type, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	return types
}

const (
	genericBlockSize = 64
)

// genericComponentStorage stores components of type T in fixed-size blocks.
// Each occupied position remembers the handle that owns it, and a sparse
// map from entity index to position gives O(1) lookup. A handle whose
// generation differs from the owner's misses.
type genericComponentStorage[T any] struct {
	blocks    [][genericBlockSize]T
	owners    [][genericBlockSize]Entity
	filled    [][genericBlockSize]bool
	freeSlots []int
	nextIndex int
	count     int
	positions *intmap.Map[uint32, int]
}

func newGenericComponentStorage[T any]() *genericComponentStorage[T] {
	return &genericComponentStorage[T]{
		positions: intmap.New[uint32, int](256),
	}
}

func (cs *genericComponentStorage[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

// lookup returns the position held by entity, or -1.
func (cs *genericComponentStorage[T]) lookup(entity Entity) int {
	pos, ok := cs.positions.Get(entity.index)
	if !ok {
		return -1
	}
	blockIdx := pos / genericBlockSize
	slotIdx := pos % genericBlockSize
	if !cs.filled[blockIdx][slotIdx] || cs.owners[blockIdx][slotIdx] != entity {
		return -1
	}
	return pos
}

// Set stores item for entity, replacing any existing value. It reports
// false if item is not a T or *T.
func (cs *genericComponentStorage[T]) Set(entity Entity, item any) bool {
	var concreteItem T
	if ptr, ok := item.(*T); ok {
		concreteItem = *ptr
	} else if val, ok := item.(T); ok {
		concreteItem = val
	} else {
		return false
	}

	if pos, ok := cs.positions.Get(entity.index); ok {
		// A previous owner of this index may have left its value behind;
		// either way the position is taken over by the new handle.
		blockIdx := pos / genericBlockSize
		slotIdx := pos % genericBlockSize
		cs.blocks[blockIdx][slotIdx] = concreteItem
		cs.owners[blockIdx][slotIdx] = entity
		return true
	}

	var index int
	if n := len(cs.freeSlots); n > 0 {
		index = cs.freeSlots[n-1]
		cs.freeSlots = cs.freeSlots[:n-1]
	} else {
		index = cs.nextIndex
		cs.nextIndex++
	}

	blockIdx := index / genericBlockSize
	slotIdx := index % genericBlockSize

	if blockIdx >= len(cs.blocks) {
		cs.blocks = append(cs.blocks, [genericBlockSize]T{})
		cs.owners = append(cs.owners, [genericBlockSize]Entity{})
		cs.filled = append(cs.filled, [genericBlockSize]bool{})
	}

	cs.blocks[blockIdx][slotIdx] = concreteItem
	cs.owners[blockIdx][slotIdx] = entity
	cs.filled[blockIdx][slotIdx] = true
	cs.positions.Put(entity.index, index)
	cs.count++
	return true
}

// Get returns a pointer to the component owned by entity, or nil.
func (cs *genericComponentStorage[T]) Get(entity Entity) any {
	pos := cs.lookup(entity)
	if pos < 0 {
		return nil
	}
	return &cs.blocks[pos/genericBlockSize][pos%genericBlockSize]
}

// Delete removes the component owned by entity.
func (cs *genericComponentStorage[T]) Delete(entity Entity) bool {
	pos := cs.lookup(entity)
	if pos < 0 {
		return false
	}

	blockIdx := pos / genericBlockSize
	slotIdx := pos % genericBlockSize

	var zero T
	cs.blocks[blockIdx][slotIdx] = zero
	cs.owners[blockIdx][slotIdx] = Entity{}
	cs.filled[blockIdx][slotIdx] = false
	cs.freeSlots = append(cs.freeSlots, pos)
	cs.positions.Del(entity.index)
	cs.count--
	return true
}

// Has checks if entity owns a component in this store.
func (cs *genericComponentStorage[T]) Has(entity Entity) bool {
	return cs.lookup(entity) >= 0
}

func (cs *genericComponentStorage[T]) Len() int {
	return cs.count
}

// Compact moves every component to the front of the store, drops empty
// blocks and rebuilds the position map.
func (cs *genericComponentStorage[T]) Compact() {
	if cs.count == 0 {
		cs.blocks = nil
		cs.owners = nil
		cs.filled = nil
		cs.freeSlots = nil
		cs.nextIndex = 0
		cs.positions.Clear()
		return
	}

	numNewBlocks := (cs.count + genericBlockSize - 1) / genericBlockSize
	newBlocks := make([][genericBlockSize]T, numNewBlocks)
	newOwners := make([][genericBlockSize]Entity, numNewBlocks)
	newFilled := make([][genericBlockSize]bool, numNewBlocks)
	cs.positions.Clear()

	writePos := 0
	for readIdx := 0; readIdx < cs.nextIndex; readIdx++ {
		readBlockIdx := readIdx / genericBlockSize
		readSlotIdx := readIdx % genericBlockSize
		if !cs.filled[readBlockIdx][readSlotIdx] {
			continue
		}

		writeBlockIdx := writePos / genericBlockSize
		writeSlotIdx := writePos % genericBlockSize

		owner := cs.owners[readBlockIdx][readSlotIdx]
		newBlocks[writeBlockIdx][writeSlotIdx] = cs.blocks[readBlockIdx][readSlotIdx]
		newOwners[writeBlockIdx][writeSlotIdx] = owner
		newFilled[writeBlockIdx][writeSlotIdx] = true
		cs.positions.Put(owner.index, writePos)
		writePos++
	}

	cs.blocks = newBlocks
	cs.owners = newOwners
	cs.filled = newFilled
	cs.freeSlots = nil
	cs.nextIndex = writePos
}

// Iter yields the owners of occupied positions in position order.
func (cs *genericComponentStorage[T]) Iter() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for i := 0; i < cs.nextIndex; i++ {
			blockIdx := i / genericBlockSize
			slotIdx := i % genericBlockSize

			if cs.filled[blockIdx][slotIdx] {
				if !yield(cs.owners[blockIdx][slotIdx]) {
					return
				}
			}
		}
	}
}
