package depot

import (
	"maps"
	"reflect"
	"slices"
	"sync/atomic"

	"github.com/TheBitDrifter/table"
	iter_util "github.com/TheBitDrifter/util/iter"
	"go.uber.org/zap"
)

// World owns every archetype, entity, resource and the change tick of one
// simulation.
//
// Structural mutation (Spawn, Insert, Remove, Despawn, Flush) is not safe for
// concurrent use, nor concurrently with query iteration. A locked world
// rejects structural mutation with LockedWorldError. Deferred work goes
// through Commands.
type World struct {
	log        *zap.Logger
	config     WorldConfig
	components *componentRegistry
	archetypes *Archetypes
	entities   *Entities
	resources  *resources
	required   map[ComponentID][]requiredComponent
	relations  relations
	commands   *Commands

	changeTick     atomic.Uint32
	lastChangeTick Tick
	lastCheckTick  Tick

	addedEntities     map[Entity]struct{}
	removedEntities   map[Entity]bool
	removedComponents map[ComponentID][]Entity
	eventUpdaters     map[reflect.Type]func()

	locks atomic.Int32
}

func newWorld(cfg WorldConfig) *World {
	cfg.normalize()
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	components := newComponentRegistry(table.Factory.NewSchema())
	w := &World{
		log:               log,
		config:            cfg,
		components:        components,
		archetypes:        newArchetypes(components, cfg.ChunkCapacity, log),
		entities:          newEntities(),
		resources:         newResources(),
		required:          make(map[ComponentID][]requiredComponent),
		relations:         newRelations(),
		addedEntities:     make(map[Entity]struct{}),
		removedEntities:   make(map[Entity]bool),
		removedComponents: make(map[ComponentID][]Entity),
		eventUpdaters:     make(map[reflect.Type]func()),
	}
	w.commands = newCommands(w)
	w.changeTick.Store(1)
	return w
}

func (w *World) Logger() *zap.Logger {
	return w.log
}

func (w *World) Config() WorldConfig {
	return w.config
}

func (w *World) Archetypes() *Archetypes {
	return w.archetypes
}

func (w *World) Entities() *Entities {
	return w.entities
}

// Commands returns the world's deferred command buffer, applied by Flush.
func (w *World) Commands() *Commands {
	return w.commands
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.entities.Len()
}

func (w *World) Alive(e Entity) bool {
	return w.entities.Alive(e)
}

// EntityList returns every live entity in index order.
func (w *World) EntityList() []Entity {
	return iter_util.Collect(w.entities.All())
}

// ComponentIDOf returns T's id in w, registering T on first use.
func ComponentIDOf[T any](w *World) ComponentID {
	return w.components.register(keyOf[T]())
}

// ComponentID returns c's id in w, registering it on first use.
func (w *World) ComponentID(c Component) ComponentID {
	return w.components.register(c.key())
}

func (w *World) ComponentInfo(id ComponentID) ComponentInfo {
	return *w.components.info(id)
}

// ComponentByName finds a registered component by its reflect type name,
// for example "game.Position".
func (w *World) ComponentByName(name string) (ComponentInfo, bool) {
	id, ok := w.components.byName(name)
	if !ok {
		return ComponentInfo{}, false
	}
	return *w.components.info(id), true
}

// ChangeTick returns the tick of the current step.
func (w *World) ChangeTick() Tick {
	return Tick(w.changeTick.Load())
}

// LastChangeTick returns the tick queries compare against: changes stamped
// after it are reported as added or changed.
func (w *World) LastChangeTick() Tick {
	return w.lastChangeTick
}

// IncrementChangeTick advances the change tick and returns its previous value.
func (w *World) IncrementChangeTick() Tick {
	return Tick(w.changeTick.Add(1) - 1)
}

func (w *World) ticks() ChangeDetectionTick {
	return ChangeDetectionTick{Last: w.lastChangeTick, Current: w.ChangeTick()}
}

func (w *World) Lock() {
	w.locks.Add(1)
}

func (w *World) Unlock() {
	if w.locks.Add(-1) < 0 {
		panic("depot: unlock of unlocked world")
	}
}

func (w *World) Locked() bool {
	return w.locks.Load() > 0
}

// Flush applies queued commands, then detaches entities scheduled with
// DespawnOnNextTick. It runs at the start of a step.
func (w *World) Flush() error {
	if w.Locked() {
		return LockedWorldError{}
	}
	applied, dropped := w.commands.apply()

	pending := slices.Sorted(maps.Keys(w.removedEntities))
	despawned := 0
	for _, e := range pending {
		recursive, ok := w.removedEntities[e]
		if !ok {
			continue
		}
		if err := w.RemoveEntity(e, recursive); err == nil {
			despawned++
		}
	}
	clear(w.removedEntities)

	if applied+dropped+despawned > 0 {
		w.log.Debug("world flushed",
			zap.Int("commands", applied),
			zap.Int("dropped", dropped),
			zap.Int("despawned", despawned),
			zap.Uint32("tick", uint32(w.ChangeTick())),
		)
	}
	return nil
}

// ClearTrackers ends a step: it drops the added entity set and the removed
// component lists, swaps event buffers and advances the change tick.
// Entities scheduled for despawn stay pending until the next Flush.
func (w *World) ClearTrackers() {
	clear(w.addedEntities)
	clear(w.removedComponents)
	for _, update := range w.eventUpdaters {
		update()
	}
	w.lastChangeTick = w.ChangeTick() - 1
	w.IncrementChangeTick()
	w.checkChangeTicks()
}

// checkChangeTicks clamps stored ticks once every CheckTickThreshold ticks.
func (w *World) checkChangeTicks() {
	current := w.ChangeTick()
	if current-w.lastCheckTick < CheckTickThreshold {
		return
	}
	clamped := 0
	for _, arch := range w.archetypes.asSlice {
		for _, c := range arch.chunks {
			clamped += c.clampTicks(current)
		}
	}
	clamped += w.resources.clampTicks(current)
	w.lastCheckTick = current
	w.log.Debug("change ticks clamped",
		zap.Uint32("tick", uint32(current)),
		zap.Int("clamped", clamped),
	)
}

// Clear despawns every entity and drops all resources, relations, queued
// commands and trackers. Archetypes stay registered so their ids remain valid.
func (w *World) Clear() error {
	if w.Locked() {
		return LockedWorldError{}
	}
	w.commands.reset()
	for e := range w.entities.All() {
		w.entities.release(e)
	}
	w.archetypes.clear()
	w.resources.clear()
	w.relations = newRelations()
	clear(w.addedEntities)
	clear(w.removedEntities)
	clear(w.removedComponents)
	clear(w.eventUpdaters)
	return nil
}
