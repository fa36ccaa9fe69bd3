package ecs

import "reflect"

// Commands provides a buffer for deferred ECS operations that are executed at the end of a frame.
// This prevents structural changes to the ECS storage during system execution.
type Commands struct {
	spawns   []spawnCommand
	despawns []Entity
	adds     []addComponentCommand
	removes  []removeComponentCommand
	defers   []deferCommand
}

func newCommands() *Commands {
	return &Commands{}
}

// NewCommands creates an empty command buffer.
func NewCommands() *Commands {
	return newCommands()
}

type deferCommand struct {
	fn func()
}

type spawnCommand struct {
	components []any
	spawned    func(Entity)
}

type addComponentCommand struct {
	entity    Entity
	component any
}

type removeComponentCommand struct {
	entity   Entity
	compType reflect.Type
}

// FlushResult counts what a Flush applied. Skipped counts every despawn,
// add or remove the storage rejected. That covers targets no longer alive
// at flush time, and also removes of a component the entity never had.
type FlushResult struct {
	Spawned   int
	Despawned int
	Added     int
	Removed   int
	Deferred  int
	Skipped   int
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, deferCommand{fn: fn})
}

// Spawn queues an entity spawn operation with the given components.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components})
}

// SpawnThen queues a spawn and calls fn with the new handle once it exists.
func (c *Commands) SpawnThen(fn func(Entity), components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components, spawned: fn})
}

// Despawn queues an entity despawn operation.
func (c *Commands) Despawn(entity Entity) {
	c.despawns = append(c.despawns, entity)
}

// AddComponent queues a component addition operation.
func (c *Commands) AddComponent(entity Entity, component any) {
	c.adds = append(c.adds, addComponentCommand{
		entity:    entity,
		component: component,
	})
}

// RemoveComponent queues a component removal operation.
func (c *Commands) RemoveComponent(entity Entity, compType reflect.Type) {
	c.removes = append(c.removes, removeComponentCommand{
		entity:   entity,
		compType: compType,
	})
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.despawns) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush flushes all commands to the provided storage, resetting the buffer state.
// Despawns run first, so adds and removes aimed at an entity despawned in the
// same frame are skipped.
func (c *Commands) Flush(storage *Storage) FlushResult {
	var result FlushResult

	for _, entity := range c.despawns {
		if storage.Despawn(entity) {
			result.Despawned++
		} else {
			result.Skipped++
		}
	}

	for _, cmd := range c.removes {
		if storage.RemoveComponent(cmd.entity, cmd.compType) {
			result.Removed++
		} else {
			result.Skipped++
		}
	}

	for _, cmd := range c.adds {
		if storage.AddComponent(cmd.entity, cmd.component) {
			result.Added++
		} else {
			result.Skipped++
		}
	}

	for _, cmd := range c.spawns {
		entity := storage.Spawn(cmd.components...)
		if cmd.spawned != nil {
			cmd.spawned(entity)
		}
		result.Spawned++
	}

	for _, df := range c.defers {
		df.fn()
		result.Deferred++
	}

	c.spawns = c.spawns[:0]
	c.despawns = c.despawns[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
	return result
}
