package ecs

import "iter"

// Query wraps a View and caches its matches for one frame.
// The Scheduler calls Execute before the owning system runs; systems then
// iterate the cache with Iter or Values.
type Query[T any] struct {
	view    *View[T]
	storage *Storage

	cachedEntities   []Entity
	cachedComponents []T
	cacheValid       bool
}

// NewQuery creates a new Query over storage.
func NewQuery[T any](storage *Storage) *Query[T] {
	q := &Query[T]{}
	q.Init(storage)
	return q
}

// Init initializes or re-initializes the Query with a storage.
// Called by the Scheduler during system registration.
func (q *Query[T]) Init(storage *Storage) {
	q.view = NewView[T](storage)
	q.storage = storage
	q.cachedEntities = q.cachedEntities[:0]
	q.cachedComponents = q.cachedComponents[:0]
	q.cacheValid = false
}

// Execute rebuilds the entity and component caches for this frame.
func (q *Query[T]) Execute() {
	q.cachedEntities = q.cachedEntities[:0]
	q.cachedComponents = q.cachedComponents[:0]

	for entity, item := range q.view.Iter() {
		q.cachedEntities = append(q.cachedEntities, entity)
		q.cachedComponents = append(q.cachedComponents, item)
	}

	q.cacheValid = true
}

// Iter returns an iterator over the view structs cached by the last Execute.
// Panics if Execute() has not been called since Init.
func (q *Query[T]) Iter() iter.Seq[T] {
	if !q.cacheValid {
		panic("Query.Iter() called before Query.Execute()")
	}

	return func(yield func(T) bool) {
		for i := range q.cachedComponents {
			if !yield(q.cachedComponents[i]) {
				return
			}
		}
	}
}

// Entries returns an iterator over the cached entities and their view structs.
// Panics if Execute() has not been called since Init.
func (q *Query[T]) Entries() iter.Seq2[Entity, T] {
	if !q.cacheValid {
		panic("Query.Entries() called before Query.Execute()")
	}

	return func(yield func(Entity, T) bool) {
		for i := range q.cachedEntities {
			if !yield(q.cachedEntities[i], q.cachedComponents[i]) {
				return
			}
		}
	}
}

// Len returns the number of matches cached by the last Execute.
func (q *Query[T]) Len() int {
	return len(q.cachedEntities)
}

// View returns the underlying view for direct, uncached access.
func (q *Query[T]) View() *View[T] {
	return q.view
}
