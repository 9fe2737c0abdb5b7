// Command depotsim runs a small particle simulation on a depot world and
// optionally writes a YAML snapshot of the final state.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TheBitDrifter/depot"
	"go.uber.org/zap"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

// Lifetime counts down the steps a particle has left.
type Lifetime struct {
	Steps int
}

type Stats struct {
	Spawned int
	Expired int
}

type expired struct {
	Entity depot.Entity
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to a .toml or .yaml world config")
	steps := flag.Int("steps", 100, "number of steps to run")
	particles := flag.Int("particles", 1000, "particles alive at any time")
	snapshotPath := flag.String("snapshot", "", "write a YAML snapshot of the final world to this file")
	flag.Parse()

	cfg := depot.DefaultWorldConfig()
	if *cfgPath != "" {
		var err error
		if cfg, err = depot.LoadConfig(*cfgPath); err != nil {
			return err
		}
	}

	log, err := depot.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	cfg.Logger = log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := depot.Factory.NewWorldWithConfig(cfg)
	depot.InsertResource(w, Stats{})
	depot.RegisterRequired[Velocity](w, func() Lifetime { return Lifetime{Steps: 30} })

	schedule := newSimulation(w, *particles, log)
	for i := 0; i < *steps; i++ {
		if err := schedule.Run(ctx, w); err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("interrupted", zap.Int("step", i))
				break
			}
			return err
		}
	}

	stats := depot.MustResource[Stats](w)
	log.Info("simulation finished",
		zap.Int("entities", w.Len()),
		zap.Int("archetypes", w.Archetypes().Len()),
		zap.Int("spawned", stats.Spawned),
		zap.Int("expired", stats.Expired),
	)

	if *snapshotPath != "" {
		return writeSnapshot(*snapshotPath, w)
	}
	return nil
}

func newSimulation(w *depot.World, particles int, log *zap.Logger) *depot.Schedule {
	cmd := w.Commands()
	stats := depot.NewRes[Stats](w)
	movers := depot.NewQuery2[depot.Ref[Position], Velocity](w)
	lifetimes := depot.NewQuery2[depot.Entity, depot.Ref[Lifetime]](w)
	live := depot.NewQuery1[depot.Entity](w, depot.Where(depot.With[Lifetime]()))
	expiredWriter := depot.NewEventWriter[expired](w)
	expiredReader := depot.NewEventReader[expired](w)

	s := depot.Factory.NewSchedule(log)

	s.Add(depot.PhaseFirst, "spawn", depot.SystemFunc(func(ctx context.Context, w *depot.World) error {
		missing := particles - live.Count()
		for i := 0; i < missing; i++ {
			n := stats.Get().Spawned + i
			cmd.Spawn(
				depot.Value(Position{}),
				depot.Value(Velocity{X: float64(n%7) - 3, Y: float64(n%5) - 2}),
			)
		}
		if missing > 0 {
			stats.Mut().Spawned += missing
		}
		return nil
	}), stats, live, cmd)

	s.Add(depot.PhaseUpdate, "move", depot.SystemFunc(func(ctx context.Context, w *depot.World) error {
		return movers.Parallel(0).ForEach(ctx, func(_ depot.Entity, row depot.Row2[depot.Ref[Position], Velocity]) error {
			p := row.V1.Mut()
			p.X += row.V2.X
			p.Y += row.V2.Y
			return nil
		})
	}), movers)

	s.Add(depot.PhaseUpdate, "age", depot.SystemFunc(func(ctx context.Context, w *depot.World) error {
		for e, life := range lifetimes.All() {
			life.Mut().Steps--
			if life.Get().Steps <= 0 {
				expiredWriter.Send(expired{Entity: e})
				cmd.Despawn(e)
			}
		}
		return nil
	}), lifetimes, expiredWriter, cmd)

	s.Add(depot.PhaseLast, "tally", depot.SystemFunc(func(ctx context.Context, w *depot.World) error {
		if n := len(expiredReader.Read()); n > 0 {
			stats.Mut().Expired += n
		}
		return nil
	}), expiredReader, stats)

	return s
}

func writeSnapshot(path string, w *depot.World) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := depot.WriteSnapshot(f, w.Snapshot()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
