package ecs

import (
	"errors"
	"iter"
	"math"
	"strconv"

	"go.uber.org/zap"
)

//go:generate go tool stringer -type=SlotStatus -trimprefix=Slot

// ErrIndexSpaceExhausted is the panic value raised by Spawn once every
// 32-bit slot index has been handed out. The generator has no valid state
// to fall back to, so callers are not expected to recover and retry.
var ErrIndexSpaceExhausted = errors.New("ecs: entity index space exhausted")

// Entity is an opaque handle made of a slot index and the generation of
// that slot when the handle was issued. Handles are plain values: they can
// be copied, compared with == and used as map keys. A handle only means
// something to the generator that issued it.
type Entity struct {
	index      uint32
	generation uint32
}

// Index returns the slot index of the handle.
func (e Entity) Index() uint32 { return e.index }

// Generation returns the slot generation the handle was issued with.
func (e Entity) Generation() uint32 { return e.generation }

func (e Entity) String() string {
	return "Entity(" + strconv.FormatUint(uint64(e.index), 10) + ":" + strconv.FormatUint(uint64(e.generation), 10) + ")"
}

// SlotStatus is the lifecycle state of a slot in the generator's table.
type SlotStatus uint8

const (
	SlotAlive SlotStatus = iota
	SlotDead
	// SlotTombstone marks a slot whose generation reached math.MaxUint32.
	// It is never reused.
	SlotTombstone
)

type slot struct {
	generation uint32
	status     SlotStatus
}

// GeneratorStats is a snapshot of the slot table.
type GeneratorStats struct {
	Slots      int
	Alive      int
	Dead       int
	Tombstones int
}

// EntityGenerator issues, validates and recycles Entity handles. It owns a
// slot table indexed by Entity.Index and a stack of free indices.
//
// The generator does no locking. Spawn and Despawn must not run
// concurrently with each other or with IsAlive.
type EntityGenerator struct {
	slots      []slot
	free       []uint32
	alive      int
	tombstones int

	// maxSlots is math.MaxUint32 outside of tests.
	maxSlots uint64
	logger   *zap.Logger
}

// Option configures an EntityGenerator.
type Option func(*EntityGenerator)

// WithCapacity preallocates room for n slots.
func WithCapacity(n int) Option {
	return func(g *EntityGenerator) {
		if n > 0 {
			g.slots = make([]slot, 0, n)
		}
	}
}

// WithLogger sets the logger used for slot retirement and exhaustion.
func WithLogger(l *zap.Logger) Option {
	return func(g *EntityGenerator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewEntityGenerator creates an empty generator.
func NewEntityGenerator(opts ...Option) *EntityGenerator {
	g := &EntityGenerator{
		maxSlots: math.MaxUint32,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Spawn returns a live handle, reusing the most recently freed index when
// one is available. Spawn panics with ErrIndexSpaceExhausted when the table
// already holds math.MaxUint32 slots.
func (g *EntityGenerator) Spawn() Entity {
	if n := len(g.free); n > 0 {
		index := g.free[n-1]
		g.free = g.free[:n-1]

		s := &g.slots[index]
		if s.status != SlotDead || s.generation == math.MaxUint32 {
			panic("ecs: free list holds slot " + strconv.FormatUint(uint64(index), 10) + " in state " + s.status.String())
		}

		// Slots at the max generation are tombstoned, never freed, so this
		// cannot overflow.
		s.generation++
		s.status = SlotAlive
		g.alive++
		return Entity{index: index, generation: s.generation}
	}

	if uint64(len(g.slots)) >= g.maxSlots {
		g.logger.Error("entity index space exhausted",
			zap.Int("slots", len(g.slots)),
			zap.Int("tombstones", g.tombstones),
		)
		panic(ErrIndexSpaceExhausted)
	}

	g.slots = append(g.slots, slot{generation: 0, status: SlotAlive})
	g.alive++
	return Entity{index: uint32(len(g.slots) - 1), generation: 0}
}

// Despawn marks the entity as no longer alive. It reports false, and does
// nothing, when the handle is foreign, stale or already despawned.
//
// A handle whose generation differs from the slot's current generation is
// rejected even if the slot is alive. Checking only the slot status would
// let a handle kept from before a reuse despawn the slot's new occupant.
func (g *EntityGenerator) Despawn(e Entity) bool {
	if uint64(e.index) >= uint64(len(g.slots)) {
		return false
	}

	s := &g.slots[e.index]
	if s.status != SlotAlive || s.generation != e.generation {
		return false
	}

	g.alive--
	if s.generation == math.MaxUint32 {
		s.status = SlotTombstone
		g.tombstones++
		g.logger.Warn("entity slot retired", zap.Stringer("entity", e))
		return true
	}

	s.status = SlotDead
	g.free = append(g.free, e.index)
	return true
}

// IsAlive reports whether e was issued by this generator and has not been
// despawned since.
func (g *EntityGenerator) IsAlive(e Entity) bool {
	if uint64(e.index) >= uint64(len(g.slots)) {
		return false
	}
	s := g.slots[e.index]
	return s.generation == e.generation && s.status == SlotAlive
}

// Len returns the number of slots ever allocated.
func (g *EntityGenerator) Len() int {
	return len(g.slots)
}

// Alive returns the number of live entities.
func (g *EntityGenerator) Alive() int {
	return g.alive
}

func (g *EntityGenerator) Stats() GeneratorStats {
	return GeneratorStats{
		Slots:      len(g.slots),
		Alive:      g.alive,
		Dead:       len(g.free),
		Tombstones: g.tombstones,
	}
}

// Entities iterates live handles in index order.
func (g *EntityGenerator) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for i, s := range g.slots {
			if s.status != SlotAlive {
				continue
			}
			if !yield(Entity{index: uint32(i), generation: s.generation}) {
				return
			}
		}
	}
}

// Slots iterates every slot with the handle for its current generation.
func (g *EntityGenerator) Slots() iter.Seq2[Entity, SlotStatus] {
	return func(yield func(Entity, SlotStatus) bool) {
		for i, s := range g.slots {
			if !yield(Entity{index: uint32(i), generation: s.generation}, s.status) {
				return
			}
		}
	}
}
