package ecs_test

import (
	"reflect"
	"testing"

	"github.com/plus3/entalloc/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnEntity(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(&Position{X: 1.0, Y: 2.0}, &Velocity{DX: 0.5, DY: 0.5}, Score(32))
	assert.True(t, storage.IsAlive(id))
	assert.True(t, storage.HasComponent(id, reflect.TypeOf(Position{})))
	assert.True(t, storage.HasComponent(id, reflect.TypeOf(Velocity{})))
	assert.True(t, storage.HasComponent(id, reflect.TypeOf(Score(0))))
}

func TestSpawnBareEntity(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn()
	assert.True(t, storage.IsAlive(id))
	assert.Empty(t, storage.Components(id))
	assert.True(t, storage.Despawn(id))
}

func TestGetComponent(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(&Position{X: 3.0, Y: 4.0}, Name{Value: "Test Entity"})

	posComp := storage.GetComponent(id, reflect.TypeOf(Position{}))
	require.NotNil(t, posComp)
	pos := posComp.(*Position)
	assert.Equal(t, float32(3.0), pos.X)
	assert.Equal(t, float32(4.0), pos.Y)

	name := ecs.ReadComponent[Name](storage, id)
	require.NotNil(t, name)
	assert.Equal(t, "Test Entity", name.Value)

	assert.Nil(t, storage.GetComponent(id, reflect.TypeOf(Velocity{})))
	assert.Nil(t, ecs.ReadComponent[Velocity](storage, id))
}

func TestComponentPointerIsStable(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{X: 1, Y: 1})
	pos := ecs.ReadComponent[Position](storage, id)
	pos.X = 42

	assert.Equal(t, float32(42), ecs.ReadComponent[Position](storage, id).X)
}

func TestDespawnEntity(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(&Position{X: 1.0, Y: 1.0}, &Health{Current: 100, Max: 100})
	assert.NotNil(t, storage.GetComponent(id, reflect.TypeOf(Position{})))

	assert.True(t, storage.Despawn(id))

	assert.False(t, storage.IsAlive(id))
	assert.Nil(t, storage.GetComponent(id, reflect.TypeOf(Position{})))
	assert.False(t, storage.HasComponent(id, reflect.TypeOf(Health{})))

	stats := storage.CollectStats()
	for _, comp := range stats.ComponentBreakdown {
		assert.Equal(t, 0, comp.Count, comp.Type)
	}

	assert.False(t, storage.Despawn(id), "double despawn is a no-op")
}

func TestStaleHandleAfterReuse(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	old := storage.Spawn(Name{Value: "old"})
	require.True(t, storage.Despawn(old))

	fresh := storage.Spawn(Name{Value: "fresh"})
	require.Equal(t, old.Index(), fresh.Index())

	assert.False(t, storage.IsAlive(old))
	assert.Nil(t, ecs.ReadComponent[Name](storage, old))
	assert.False(t, storage.AddComponent(old, Health{Current: 1}))
	assert.False(t, storage.RemoveComponent(old, reflect.TypeOf(Name{})))
	assert.False(t, storage.Despawn(old))

	assert.Equal(t, "fresh", ecs.ReadComponent[Name](storage, fresh).Value)
	assert.False(t, storage.HasComponent(fresh, reflect.TypeOf(Health{})))
}

func TestForeignHandle(t *testing.T) {
	registry := newTestRegistry()
	a := ecs.NewStorage(registry)
	b := ecs.NewStorage(registry)

	foreign := a.Spawn(Position{X: 1})

	assert.False(t, b.IsAlive(foreign))
	assert.False(t, b.Despawn(foreign))
	assert.Nil(t, b.GetComponent(foreign, reflect.TypeOf(Position{})))

	local := b.Spawn(Position{X: 2})
	assert.Equal(t, foreign, local, "handles from different storages are structurally equal")
	assert.Equal(t, float32(1), ecs.ReadComponent[Position](a, foreign).X)
	assert.Equal(t, float32(2), ecs.ReadComponent[Position](b, local).X)
}

func TestAddRemoveComponent(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{X: 0, Y: 0})

	assert.True(t, storage.AddComponent(id, Velocity{DX: 5, DY: 3}))
	vel := ecs.ReadComponent[Velocity](storage, id)
	require.NotNil(t, vel)
	assert.Equal(t, float32(5), vel.DX)

	assert.True(t, storage.AddComponent(id, &Velocity{DX: 7}))
	assert.Equal(t, float32(7), ecs.ReadComponent[Velocity](storage, id).DX)

	assert.True(t, storage.RemoveComponent(id, reflect.TypeOf(Velocity{})))
	assert.False(t, storage.HasComponent(id, reflect.TypeOf(Velocity{})))
	assert.False(t, storage.RemoveComponent(id, reflect.TypeOf(Velocity{})))

	assert.True(t, storage.IsAlive(id), "removing the last component keeps the entity alive")
	assert.True(t, storage.RemoveComponent(id, reflect.TypeOf(Position{})))
	assert.True(t, storage.IsAlive(id))
}

func TestPrimitiveComponents(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Score(10), Tag("boss"), Temperature(36.6), int32(7), "label", 2.5)

	assert.Equal(t, Score(10), *ecs.ReadComponent[Score](storage, id))
	assert.Equal(t, Tag("boss"), *ecs.ReadComponent[Tag](storage, id))
	assert.Equal(t, Temperature(36.6), *ecs.ReadComponent[Temperature](storage, id))
	assert.Equal(t, int32(7), *ecs.ReadComponent[int32](storage, id))
	assert.Equal(t, "label", *ecs.ReadComponent[string](storage, id))
	assert.Equal(t, 2.5, *ecs.ReadComponent[float64](storage, id))
	assert.Len(t, storage.Components(id), 6)
}

func TestUnregisteredComponentPanics(t *testing.T) {
	storage := ecs.NewStorage(ecs.NewComponentRegistry())

	assert.PanicsWithValue(t, "component type ecs_test.Position not registered", func() {
		storage.Spawn(Position{})
	})
}

func TestSpawnWithUnregisteredComponentLeavesNoEntity(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	storage := ecs.NewStorage(registry)

	assert.Panics(t, func() {
		storage.Spawn(Position{X: 1}, Velocity{DX: 1})
	})

	assert.Equal(t, 0, storage.Generator().Alive())
	assert.Equal(t, 0, storage.Generator().Len())
	assert.Equal(t, 0, ecs.NewView[struct{ *Position }](storage).Count())

	id := storage.Spawn(Position{X: 2})
	assert.Equal(t, uint32(0), id.Index())
}

func TestInvalidComponentKinds(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	tests := []struct {
		name      string
		component any
	}{
		{"map", map[string]int{}},
		{"chan", make(chan int)},
		{"func", func() {}},
		{"pointer to pointer", new(*Position)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { storage.Spawn(tt.component) })
		})
	}

	assert.Panics(t, func() { storage.Spawn(nil) })
	assert.Panics(t, func() { ecs.RegisterComponent[map[int]int](ecs.NewComponentRegistry()) })
}

func TestManyEntitiesAcrossBlocks(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	ids := make([]ecs.Entity, 500)
	for i := range ids {
		ids[i] = storage.Spawn(Health{Current: i, Max: 500})
	}

	for i := 0; i < len(ids); i += 3 {
		require.True(t, storage.Despawn(ids[i]))
	}

	for i, id := range ids {
		h := ecs.ReadComponent[Health](storage, id)
		if i%3 == 0 {
			assert.Nil(t, h)
			continue
		}
		require.NotNil(t, h)
		assert.Equal(t, i, h.Current)
	}
}

func TestCompactKeepsComponents(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	ids := make([]ecs.Entity, 200)
	for i := range ids {
		ids[i] = storage.Spawn(Health{Current: i}, Name{Value: "n"})
	}
	for i := 0; i < len(ids); i += 2 {
		storage.Despawn(ids[i])
	}

	storage.Compact()

	for i := 1; i < len(ids); i += 2 {
		h := ecs.ReadComponent[Health](storage, ids[i])
		require.NotNil(t, h)
		assert.Equal(t, i, h.Current)
	}

	id := storage.Spawn(Health{Current: 999})
	assert.Equal(t, 999, ecs.ReadComponent[Health](storage, id).Current)
	assert.Equal(t, 101, storage.CollectStats().Generator.Alive)

	for i := 0; i < len(ids); i += 2 {
		storage.Despawn(ids[i])
	}
	for i := 1; i < len(ids); i += 2 {
		storage.Despawn(ids[i])
	}
	storage.Despawn(id)
	storage.Compact()
	assert.Equal(t, 0, storage.CollectStats().Generator.Alive)
}

func TestEntitiesIterator(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	a := storage.Spawn(Position{})
	b := storage.Spawn()
	c := storage.Spawn(Velocity{})
	storage.Despawn(b)

	var got []ecs.Entity
	for e := range storage.Entities() {
		got = append(got, e)
	}
	assert.Equal(t, []ecs.Entity{a, c}, got)
}

func TestHandlesAcrossDespawnInComponents(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	target := storage.Spawn(Name{Value: "target"})
	follower := storage.Spawn(Follow{Target: target})

	storage.Despawn(target)
	storage.Spawn(Name{Value: "impostor"})

	follow := ecs.ReadComponent[Follow](storage, follower)
	require.NotNil(t, follow)
	assert.False(t, storage.IsAlive(follow.Target))
	assert.Nil(t, ecs.ReadComponent[Name](storage, follow.Target))
}
