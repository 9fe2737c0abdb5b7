// Profiling:
// go build ./cmd/depotprofile
// ./depotprofile -mode mem
// go tool pprof -http=":8000" -nodefraction=0.001 ./depotprofile mem.pprof

package main

import (
	"flag"

	"github.com/TheBitDrifter/depot"
	"github.com/pkg/profile"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	mode := flag.String("mode", "cpu", "profile mode: cpu or mem")
	rounds := flag.Int("rounds", 50, "worlds to build")
	iters := flag.Int("iters", 1000, "spawn, query and despawn cycles per world")
	entities := flag.Int("entities", 1000, "entities per cycle")
	flag.Parse()

	kind := profile.CPUProfile
	if *mode == "mem" {
		kind = profile.MemProfileAllocs
	}
	p := profile.Start(kind, profile.ProfilePath("."), profile.NoShutdownHook)
	run(*rounds, *iters, *entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for range rounds {
		w := depot.Factory.NewWorld()
		query := depot.NewQuery3[depot.Entity, depot.Ref[comp1], comp2](w)

		for range iters {
			_, _ = w.SpawnBatch(numEntities, depot.Value(comp1{}), depot.Value(comp2{V: 1, W: 1}))
			query.Update(w)

			entities := make([]depot.Entity, 0, numEntities)
			for row := range query.All() {
				entities = append(entities, row.V1)
				c1 := row.V2.Mut()
				c1.V += row.V3.V
				c1.W += row.V3.W
			}
			for _, e := range entities {
				_ = w.Despawn(e)
			}
			w.ClearTrackers()
		}
	}
}
