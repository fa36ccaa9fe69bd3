package main

import (
	"math/rand"

	"github.com/plus3/entalloc/ecs"
	"go.uber.org/zap"
)

type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

// Age counts the frames an entity has been alive.
type Age int

// staleTracker holds handles whose entities were despawned. Handles queued
// for despawn in frame N sit in pending until the flush at the end of that
// frame, and are checked from frame N+1 on.
type staleTracker struct {
	pending  []ecs.Entity
	retained []ecs.Entity
	next     int
	capacity int

	checks     int64
	violations int64
}

func newStaleTracker(capacity int) *staleTracker {
	return &staleTracker{
		retained: make([]ecs.Entity, 0, capacity),
		capacity: capacity,
	}
}

func (t *staleTracker) despawned(e ecs.Entity) {
	if t.capacity == 0 {
		return
	}
	t.pending = append(t.pending, e)
}

// promote moves pending handles into the retained ring, overwriting the
// oldest once it is full.
func (t *staleTracker) promote() {
	for _, e := range t.pending {
		if len(t.retained) < t.capacity {
			t.retained = append(t.retained, e)
			continue
		}
		t.retained[t.next] = e
		t.next = (t.next + 1) % t.capacity
	}
	t.pending = t.pending[:0]
}

type movementSystem struct {
	Entities ecs.Query[struct {
		*Position
		*Velocity
	}]
}

func (s *movementSystem) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Entities.Iter() {
		item.Position.X += item.Velocity.DX * float32(frame.DeltaTime)
		item.Position.Y += item.Velocity.DY * float32(frame.DeltaTime)
	}
}

// churnSystem despawns a random fraction of aged entities every frame and
// queues one replacement for each, so slots are recycled constantly.
type churnSystem struct {
	Entities ecs.Query[struct {
		Self ecs.Entity
		*Age
	}]

	churn   float64
	rng     *rand.Rand
	tracker *staleTracker
}

func (s *churnSystem) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Entities.Iter() {
		*item.Age++
		if s.rng.Float64() >= s.churn {
			continue
		}
		frame.Commands.Despawn(item.Self)
		s.tracker.despawned(item.Self)
		frame.Commands.Spawn(randomComponents(s.rng)...)
	}
}

// staleCheckSystem verifies that no retained stale handle resolves to a
// live entity. It runs before churnSystem so pending handles have been
// flushed by the time they are promoted.
type staleCheckSystem struct {
	tracker *staleTracker
	logger  *zap.Logger
}

func (s *staleCheckSystem) Execute(frame *ecs.UpdateFrame) {
	s.tracker.promote()

	for _, e := range s.tracker.retained {
		s.tracker.checks++
		switch {
		case frame.Storage.IsAlive(e):
			s.violation(e, "stale handle reported alive")
		case ecs.ReadComponent[Age](frame.Storage, e) != nil:
			s.violation(e, "stale handle resolved a component")
		case frame.Storage.Despawn(e):
			s.violation(e, "stale handle despawned an entity")
		}
	}
}

func (s *staleCheckSystem) violation(e ecs.Entity, msg string) {
	s.tracker.violations++
	s.logger.Error(msg, zap.Stringer("entity", e))
}

// randomComponents returns the components of a new entity; half of them move.
func randomComponents(rng *rand.Rand) []any {
	components := []any{Age(0), Position{X: rng.Float32() * 100, Y: rng.Float32() * 100}}
	if rng.Intn(2) == 0 {
		components = append(components, Velocity{DX: rng.Float32() - 0.5, DY: rng.Float32() - 0.5})
	}
	return components
}

type simulation struct {
	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	tracker   *staleTracker
	flushed   ecs.FlushResult
}

func newSimulation(cfg RunConfig, logger *zap.Logger) *simulation {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Age](registry)

	storage := ecs.NewStorage(registry, ecs.WithCapacity(cfg.Entities), ecs.WithLogger(logger))
	rng := rand.New(rand.NewSource(cfg.Seed))
	tracker := newStaleTracker(cfg.StaleSample)

	for i := 0; i < cfg.Entities; i++ {
		storage.Spawn(randomComponents(rng)...)
	}

	scheduler := ecs.NewScheduler(storage)
	scheduler.Register(&staleCheckSystem{tracker: tracker, logger: logger})
	scheduler.Register(&movementSystem{})
	scheduler.Register(&churnSystem{churn: cfg.Churn, rng: rng, tracker: tracker})

	return &simulation{
		storage:   storage,
		scheduler: scheduler,
		tracker:   tracker,
	}
}

// step runs one frame and accumulates its flush counts.
func (s *simulation) step(dt float64) {
	s.scheduler.Once(dt)
	last := s.scheduler.GetStats().LastFlush
	s.flushed.Spawned += last.Spawned
	s.flushed.Despawned += last.Despawned
	s.flushed.Added += last.Added
	s.flushed.Removed += last.Removed
	s.flushed.Deferred += last.Deferred
	s.flushed.Skipped += last.Skipped
}
