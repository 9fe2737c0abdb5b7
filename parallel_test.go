package depot

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
)

func parallelWorld(t *testing.T, n int) *World {
	t.Helper()
	cfg := DefaultWorldConfig()
	cfg.ChunkCapacity = 8
	w := Factory.NewWorldWithConfig(cfg)
	for i := 0; i < n; i++ {
		values := []ComponentValue{Value(Position{X: float64(i)})}
		if i%3 == 0 {
			values = append(values, Value(Velocity{X: 1}))
		}
		if _, err := w.Spawn(values...); err != nil {
			t.Fatalf("Spawn() error = %v", err)
		}
	}
	return w
}

func TestParallelMapMatchesSequential(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
	}{
		{"default batch", 0},
		{"single chunk batches", 1},
		{"oversized batch", 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := parallelWorld(t, 200)
			q := NewQuery2[Entity, Position](w)

			var want []float64
			for _, pos := range q.All() {
				want = append(want, pos.X*2)
			}

			got, err := ParallelMap(context.Background(), q.Parallel(tt.batchSize), func(_ Entity, row Row2[Entity, Position]) (float64, error) {
				return row.V2.X * 2, nil
			})
			if err != nil {
				t.Fatalf("ParallelMap() error = %v", err)
			}
			if !slices.Equal(got, want) {
				t.Errorf("parallel result differs from sequential")
			}
		})
	}
}

func TestParallelBatchSize(t *testing.T) {
	w := parallelWorld(t, 1)
	q := NewQuery1[Position](w)
	if got := q.Parallel(0).BatchSize(); got != DefaultParallelBatchSize {
		t.Errorf("BatchSize() = %d, want %d", got, DefaultParallelBatchSize)
	}
	if got := q.Parallel(7).BatchSize(); got != 7 {
		t.Errorf("BatchSize() = %d, want 7", got)
	}
}

func TestParallelForEach(t *testing.T) {
	w := parallelWorld(t, 300)
	w.ClearTrackers()
	q := NewQuery1[Ref[Position]](w, Where(With[Velocity]()))

	var visited atomic.Int64
	err := q.Parallel(2).ForEach(context.Background(), func(e Entity, pos Ref[Position]) error {
		visited.Add(1)
		pos.Mut().X = -1
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach() error = %v", err)
	}
	if int(visited.Load()) != q.Count() {
		t.Errorf("visited %d rows, want %d", visited.Load(), q.Count())
	}
	if w.Locked() {
		t.Errorf("world still locked after ForEach")
	}

	w.ClearTrackers()
	changed := NewQuery1[Position](w, Where(Changed[Position]()))
	for pos := range changed.All() {
		if pos.X != -1 {
			t.Errorf("changed row not written by ForEach: %v", pos)
		}
	}
	if changed.Count() != q.Count() {
		t.Errorf("changed rows = %d, want %d", changed.Count(), q.Count())
	}
}

func TestParallelForEachLocksWorld(t *testing.T) {
	w := parallelWorld(t, 20)
	q := NewQuery1[Entity](w)

	err := q.Parallel(1).ForEach(context.Background(), func(e Entity, _ Entity) error {
		if err := w.Despawn(e); !errors.As(err, &LockedWorldError{}) {
			t.Errorf("Despawn() inside ForEach error = %v", err)
		}
		w.Commands().Despawn(e)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d after flushing queued despawns", w.Len())
	}
}

func TestParallelForEachError(t *testing.T) {
	w := parallelWorld(t, 100)
	q := NewQuery1[Position](w)
	boom := errors.New("boom")

	err := q.Parallel(1).ForEach(context.Background(), func(Entity, Position) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("ForEach() error = %v, want boom", err)
	}

	_, err = ParallelMap(context.Background(), q.Parallel(1), func(Entity, Position) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("ParallelMap() error = %v, want boom", err)
	}
	if w.Locked() {
		t.Errorf("world left locked after a failed run")
	}
}
