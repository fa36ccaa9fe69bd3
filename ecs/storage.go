package ecs

import (
	"iter"
	"reflect"
	"sort"

	"go.uber.org/zap"
)

// Storage is the main ECS storage. It owns an EntityGenerator that decides
// which handles are alive, and one component store per registered type.
type Storage struct {
	entities *EntityGenerator
	registry *ComponentRegistry
	stores   map[reflect.Type]iComponentStorage
	// order keeps store iteration deterministic.
	order  []iComponentStorage
	logger *zap.Logger
}

// NewStorage creates a new ECS storage system with the given component
// registry. Options are passed to the underlying EntityGenerator.
func NewStorage(registry *ComponentRegistry, opts ...Option) *Storage {
	entities := NewEntityGenerator(opts...)
	return &Storage{
		entities: entities,
		registry: registry,
		stores:   make(map[reflect.Type]iComponentStorage),
		logger:   entities.logger,
	}
}

// Generator returns the generator that issues this storage's entities.
func (s *Storage) Generator() *EntityGenerator {
	return s.entities
}

// Spawn creates a new entity with the provided components. Calling it with
// no components creates a bare entity.
//
// Stores are resolved before the handle is issued, so an unregistered type
// panics without leaving a bare entity behind.
func (s *Storage) Spawn(components ...any) Entity {
	stores := make([]iComponentStorage, len(components))
	for i, comp := range components {
		stores[i] = s.storeFor(componentType(comp))
	}
	entity := s.entities.Spawn()
	for i, comp := range components {
		stores[i].Set(entity, comp)
	}
	return entity
}

// Despawn removes all data related to the entity and retires its handle.
// It reports false if the entity was not alive.
func (s *Storage) Despawn(entity Entity) bool {
	if !s.entities.IsAlive(entity) {
		return false
	}
	for _, store := range s.order {
		store.Delete(entity)
	}
	return s.entities.Despawn(entity)
}

// IsAlive reports whether entity is currently alive in this storage.
func (s *Storage) IsAlive(entity Entity) bool {
	return s.entities.IsAlive(entity)
}

// AddComponent attaches component to a live entity, replacing any existing
// component of the same type.
func (s *Storage) AddComponent(entity Entity, component any) bool {
	store := s.storeFor(componentType(component))
	if !s.entities.IsAlive(entity) {
		return false
	}
	return store.Set(entity, component)
}

// RemoveComponent detaches the component of type compType from entity.
func (s *Storage) RemoveComponent(entity Entity, compType reflect.Type) bool {
	if !s.entities.IsAlive(entity) {
		return false
	}
	store, ok := s.stores[compType]
	if !ok {
		return false
	}
	return store.Delete(entity)
}

// GetComponent returns a pointer to the component of type compType owned
// by entity, or nil if the entity is not alive or lacks the component.
func (s *Storage) GetComponent(entity Entity, compType reflect.Type) any {
	if !s.entities.IsAlive(entity) {
		return nil
	}
	store, ok := s.stores[compType]
	if !ok {
		return nil
	}
	return store.Get(entity)
}

// HasComponent checks if a live entity has a specific component type.
func (s *Storage) HasComponent(entity Entity, compType reflect.Type) bool {
	if !s.entities.IsAlive(entity) {
		return false
	}
	store, ok := s.stores[compType]
	return ok && store.Has(entity)
}

// Components returns pointers to every component owned by entity.
func (s *Storage) Components(entity Entity) []any {
	if !s.entities.IsAlive(entity) {
		return nil
	}
	var components []any
	for _, store := range s.order {
		if comp := store.Get(entity); comp != nil {
			components = append(components, comp)
		}
	}
	return components
}

// ComponentTypes returns the types that have a store in this storage,
// sorted by name.
func (s *Storage) ComponentTypes() []reflect.Type {
	types := make([]reflect.Type, len(s.order))
	for i, store := range s.order {
		types[i] = store.Type()
	}
	return types
}

// Entities iterates live entities in index order.
func (s *Storage) Entities() iter.Seq[Entity] {
	return s.entities.Entities()
}

// Compact squeezes empty positions out of every component store.
func (s *Storage) Compact() {
	for _, store := range s.order {
		store.Compact()
	}
	s.logger.Debug("compacted component stores", zap.Int("stores", len(s.order)))
}

// store returns the store for compType if one has been created.
func (s *Storage) store(compType reflect.Type) (iComponentStorage, bool) {
	store, ok := s.stores[compType]
	return store, ok
}

// storeFor returns the store for compType, creating it on first use.
func (s *Storage) storeFor(compType reflect.Type) iComponentStorage {
	if store, ok := s.stores[compType]; ok {
		return store
	}
	factory := s.registry.getFactory(compType)
	if factory == nil {
		panic("component type " + compType.String() + " not registered")
	}
	store := factory()
	s.stores[compType] = store
	s.order = append(s.order, store)
	sort.Sort(byTypeName(s.order))
	return store
}

type byTypeName []iComponentStorage

func (a byTypeName) Len() int           { return len(a) }
func (a byTypeName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byTypeName) Less(i, j int) bool { return a[i].Type().String() < a[j].Type().String() }

// componentType returns the component type of comp, unwrapping one pointer.
func componentType(comp any) reflect.Type {
	compType := reflect.TypeOf(comp)
	if compType == nil {
		panic("cannot use nil as a component")
	}
	if compType.Kind() == reflect.Ptr {
		compType = compType.Elem()
	}
	checkComponentKind(compType)
	return compType
}

// checkComponentKind panics for types that cannot be value components.
// Components can be structs or primitives (int, string, etc.) but not
// pointers, maps, channels, or functions.
func checkComponentKind(compType reflect.Type) {
	switch compType.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
		panic("components cannot be pointers, maps, channels, or functions")
	}
}

// StorageStats is a snapshot of a Storage.
type StorageStats struct {
	Generator          GeneratorStats
	ComponentTypeCount int
	ComponentBreakdown []ComponentStats
}

// ComponentStats counts the components of one type.
type ComponentStats struct {
	Type  string
	Count int
}

// CollectStats gathers allocator and per-type component counts.
func (s *Storage) CollectStats() StorageStats {
	stats := StorageStats{
		Generator:          s.entities.Stats(),
		ComponentTypeCount: len(s.order),
		ComponentBreakdown: make([]ComponentStats, 0, len(s.order)),
	}
	for _, store := range s.order {
		stats.ComponentBreakdown = append(stats.ComponentBreakdown, ComponentStats{
			Type:  store.Type().String(),
			Count: store.Len(),
		})
	}
	return stats
}

type ComponentReader interface {
	GetComponent(Entity, reflect.Type) any
}

// ReadComponent returns the T owned by entity, or nil.
func ReadComponent[T any](reader ComponentReader, entity Entity) *T {
	comp, _ := reader.GetComponent(entity, reflect.TypeFor[T]()).(*T)
	return comp
}
