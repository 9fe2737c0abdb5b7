package depot

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

type chunkRef struct {
	archetype ArchetypeID
	chunk     int
}

// ParallelQueryResult runs a query's rows across goroutines, batchSize chunks
// per task. Every task builds its own fetch, so no fetch state is shared. The
// world is locked while tasks run; record structural changes through
// Commands.
type ParallelQueryResult[E any] struct {
	core      *queryCore[E]
	batchSize int
}

func (p *ParallelQueryResult[E]) BatchSize() int {
	return p.batchSize
}

// batches flattens the matched chunks and cuts them into batches.
func (p *ParallelQueryResult[E]) batches() [][]chunkRef {
	w := p.core.state.world
	var refs []chunkRef
	for _, id := range p.core.state.matched {
		arch := w.archetypes.asSlice[id]
		if arch.count == 0 {
			continue
		}
		for i, c := range arch.chunks {
			if c.count > 0 {
				refs = append(refs, chunkRef{archetype: id, chunk: i})
			}
		}
	}
	var out [][]chunkRef
	for start := 0; start < len(refs); start += p.batchSize {
		out = append(out, refs[start:min(start+p.batchSize, len(refs))])
	}
	return out
}

// runBatch visits every qualifying row of batch in chunk row order.
func (p *ParallelQueryResult[E]) runBatch(ctx context.Context, batch []chunkRef, fn func(Entity, E) error) error {
	w := p.core.state.world
	ticks := p.core.state.ticks
	f := p.core.target.newFetch(ticks)
	for _, ref := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		arch := w.archetypes.asSlice[ref.archetype]
		c := arch.chunks[ref.chunk]
		f.bind(arch, c)
		var rows rowFilter
		if p.core.filter != nil {
			rows = p.core.filter.bind(arch, c, ticks)
		}
		for row := 0; row < c.high; row++ {
			e := c.entities[row]
			if e.IsNull() || (rows != nil && !rows(row)) || !p.core.entityFilter.accepts(w, e) {
				continue
			}
			v, ok := f.get(row)
			if !ok {
				continue
			}
			if err := fn(e, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// ForEach calls fn for every qualifying row. Rows within a batch arrive in
// chunk order; batches run in no particular order. The first error cancels
// the remaining batches and is returned.
func (p *ParallelQueryResult[E]) ForEach(ctx context.Context, fn func(Entity, E) error) error {
	batches := p.batches()
	w := p.core.state.world
	w.Lock()
	defer w.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, batch := range batches {
		g.Go(func() error {
			return p.runBatch(gctx, batch, fn)
		})
	}
	return g.Wait()
}

// ParallelMap transforms every qualifying row concurrently. Each batch writes
// into its own slot and slots are joined in chunk order, so the result equals
// the sequential iteration order.
func ParallelMap[E, R any](ctx context.Context, p *ParallelQueryResult[E], fn func(Entity, E) (R, error)) ([]R, error) {
	batches := p.batches()
	w := p.core.state.world
	w.Lock()
	defer w.Unlock()

	results := make([][]R, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, batch := range batches {
		g.Go(func() error {
			return p.runBatch(gctx, batch, func(e Entity, v E) error {
				r, err := fn(e, v)
				if err != nil {
					return err
				}
				results[i] = append(results[i], r)
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := 0
	for _, part := range results {
		n += len(part)
	}
	out := make([]R, 0, n)
	for _, part := range results {
		out = append(out, part...)
	}
	return out, nil
}
