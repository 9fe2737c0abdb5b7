package depot

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Res is a system parameter holding the world's T resource. Binding it to a
// world without a T resource panics.
type Res[T any] struct {
	value *T
	ticks ChangeDetectionTick
	world *World
}

func NewRes[T any](w *World) *Res[T] {
	r := &Res[T]{}
	r.Update(w)
	return r
}

func (r *Res[T]) Update(w *World) {
	r.value = MustResource[T](w)
	r.ticks = w.ticks()
	r.world = w
}

// Get returns the resource for reading.
func (r *Res[T]) Get() *T {
	return r.value
}

// Mut stamps the resource changed and returns it for writing.
func (r *Res[T]) Mut() *T {
	markResourceChanged(r.world, reflect.TypeFor[T]())
	return r.value
}

func (r *Res[T]) IsChanged() bool {
	_, changed, ok := ResourceTicks[T](r.world)
	return ok && changed.IsNewerThan(r.ticks.Last, r.ticks.Current)
}

func (r *Res[T]) IsAdded() bool {
	added, _, ok := ResourceTicks[T](r.world)
	return ok && added.IsNewerThan(r.ticks.Last, r.ticks.Current)
}

// SystemFunc adapts a function to System.
type SystemFunc func(ctx context.Context, w *World) error

func (f SystemFunc) Run(ctx context.Context, w *World) error {
	return f(ctx, w)
}

// Phase orders systems within one step.
type Phase int

const (
	PhaseFirst Phase = iota
	PhasePreUpdate
	PhaseUpdate
	PhasePostUpdate
	PhaseLast
)

type scheduledSystem struct {
	phase  Phase
	name   string
	system System
	params []SystemParameter
}

// Schedule runs systems in phase order. Within a phase a system runs after
// the systems named in its After constraints, otherwise in registration order.
type Schedule struct {
	systems []scheduledSystem
	after   map[string][]string
	order   []int
	sorted  bool
	log     *zap.Logger
}

func newSchedule(log *zap.Logger) *Schedule {
	if log == nil {
		log = zap.NewNop()
	}
	return &Schedule{after: make(map[string][]string), log: log}
}

// Add registers sys under name. params are updated from the world before
// every run of sys.
func (s *Schedule) Add(phase Phase, name string, sys System, params ...SystemParameter) {
	s.systems = append(s.systems, scheduledSystem{
		phase:  phase,
		name:   name,
		system: sys,
		params: params,
	})
	s.sorted = false
}

// After makes the system called name run after each of deps. A dependency
// in an earlier phase is already satisfied. Unknown names, dependencies in a
// later phase and cycles are reported by the next Run.
func (s *Schedule) After(name string, deps ...string) {
	s.after[name] = append(s.after[name], deps...)
	s.sorted = false
}

func (s *Schedule) Len() int {
	return len(s.systems)
}

func (s *Schedule) ensureSorted() error {
	if s.sorted {
		return nil
	}
	order, err := s.resolveOrder()
	if err != nil {
		return err
	}
	s.order = order
	s.sorted = true
	return nil
}

// resolveOrder returns system indices grouped by phase, each phase ordered
// topologically with ties broken by registration order.
func (s *Schedule) resolveOrder() ([]int, error) {
	byName := make(map[string]int, len(s.systems))
	for i, sys := range s.systems {
		if _, dup := byName[sys.name]; dup {
			if _, constrained := s.after[sys.name]; constrained {
				return nil, fmt.Errorf("schedule: system name %q is ambiguous", sys.name)
			}
			continue
		}
		byName[sys.name] = i
	}

	pending := make([]int, len(s.systems))
	dependents := make([][]int, len(s.systems))
	for name, deps := range s.after {
		i, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("schedule: unknown system %q", name)
		}
		for _, dep := range deps {
			j, ok := byName[dep]
			if !ok {
				return nil, fmt.Errorf("schedule: %q runs after unknown system %q", name, dep)
			}
			switch {
			case i == j:
				return nil, fmt.Errorf("schedule: %q runs after itself", name)
			case s.systems[j].phase > s.systems[i].phase:
				return nil, fmt.Errorf("schedule: %q runs after %q from a later phase", name, dep)
			case s.systems[j].phase == s.systems[i].phase:
				pending[i]++
				dependents[j] = append(dependents[j], i)
			}
		}
	}

	phases := make([]int, len(s.systems))
	for i := range phases {
		phases[i] = i
	}
	sort.SliceStable(phases, func(a, b int) bool {
		return s.systems[phases[a]].phase < s.systems[phases[b]].phase
	})

	order := make([]int, 0, len(s.systems))
	for lo := 0; lo < len(phases); {
		hi := lo
		for hi < len(phases) && s.systems[phases[hi]].phase == s.systems[phases[lo]].phase {
			hi++
		}
		group := phases[lo:hi]
		done := make(map[int]bool, len(group))
		for range group {
			next := -1
			for _, i := range group {
				if !done[i] && pending[i] == 0 {
					next = i
					break
				}
			}
			if next < 0 {
				var stuck []string
				for _, i := range group {
					if !done[i] {
						stuck = append(stuck, s.systems[i].name)
					}
				}
				return nil, fmt.Errorf("schedule: dependency cycle among %v", stuck)
			}
			done[next] = true
			order = append(order, next)
			for _, d := range dependents[next] {
				pending[d]--
			}
		}
		lo = hi
	}
	return order, nil
}

// Run executes one step: Flush, every system with refreshed parameters, then
// ClearTrackers. Cancellation is checked between systems.
func (s *Schedule) Run(ctx context.Context, w *World) error {
	if err := s.ensureSorted(); err != nil {
		return err
	}
	start := time.Now()
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	for _, i := range s.order {
		entry := s.systems[i]
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, p := range entry.params {
			p.Update(w)
		}
		if err := entry.system.Run(ctx, w); err != nil {
			return fmt.Errorf("system %s: %w", entry.name, err)
		}
	}
	tick := w.ChangeTick()
	w.ClearTrackers()
	s.log.Debug("step complete",
		zap.Uint32("tick", uint32(tick)),
		zap.Int("entities", w.Len()),
		zap.Int("archetypes", w.archetypes.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
