package depot

import (
	"errors"
	"testing"
)

// wide gives each array length its own component type.
type wide[T any] struct{ V T }

func spawnWide[T any](w *World) error {
	_, err := w.Spawn(Value(wide[T]{}))
	return err
}

var wideSpawners = []func(*World) error{
	spawnWide[[0]byte],
	spawnWide[[1]byte],
	spawnWide[[2]byte],
	spawnWide[[3]byte],
	spawnWide[[4]byte],
	spawnWide[[5]byte],
	spawnWide[[6]byte],
	spawnWide[[7]byte],
	spawnWide[[8]byte],
	spawnWide[[9]byte],
	spawnWide[[10]byte],
	spawnWide[[11]byte],
	spawnWide[[12]byte],
	spawnWide[[13]byte],
	spawnWide[[14]byte],
	spawnWide[[15]byte],
	spawnWide[[16]byte],
	spawnWide[[17]byte],
	spawnWide[[18]byte],
	spawnWide[[19]byte],
	spawnWide[[20]byte],
	spawnWide[[21]byte],
	spawnWide[[22]byte],
	spawnWide[[23]byte],
	spawnWide[[24]byte],
	spawnWide[[25]byte],
	spawnWide[[26]byte],
	spawnWide[[27]byte],
	spawnWide[[28]byte],
	spawnWide[[29]byte],
	spawnWide[[30]byte],
	spawnWide[[31]byte],
	spawnWide[[32]byte],
	spawnWide[[33]byte],
	spawnWide[[34]byte],
	spawnWide[[35]byte],
	spawnWide[[36]byte],
	spawnWide[[37]byte],
	spawnWide[[38]byte],
	spawnWide[[39]byte],
	spawnWide[[40]byte],
	spawnWide[[41]byte],
	spawnWide[[42]byte],
	spawnWide[[43]byte],
	spawnWide[[44]byte],
	spawnWide[[45]byte],
	spawnWide[[46]byte],
	spawnWide[[47]byte],
	spawnWide[[48]byte],
	spawnWide[[49]byte],
	spawnWide[[50]byte],
	spawnWide[[51]byte],
	spawnWide[[52]byte],
	spawnWide[[53]byte],
	spawnWide[[54]byte],
	spawnWide[[55]byte],
	spawnWide[[56]byte],
	spawnWide[[57]byte],
	spawnWide[[58]byte],
	spawnWide[[59]byte],
	spawnWide[[60]byte],
	spawnWide[[61]byte],
	spawnWide[[62]byte],
	spawnWide[[63]byte],
	spawnWide[[64]byte],
}

func TestComponentLimit(t *testing.T) {
	if MaxComponents+1 > len(wideSpawners) {
		t.Skipf("need %d distinct types for MaxComponents=%d", MaxComponents+1, MaxComponents)
	}
	w := Factory.NewWorld()
	for i := 0; i < MaxComponents; i++ {
		if err := wideSpawners[i](w); err != nil {
			t.Fatalf("type %d: unexpected error %v", i, err)
		}
	}
	if w.components.len() != MaxComponents {
		t.Fatalf("registered %d types, want %d", w.components.len(), MaxComponents)
	}

	before := w.Entities().Len()
	err := wideSpawners[MaxComponents](w)
	var limitErr ComponentLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("Spawn past the limit returned %v, want ComponentLimitError", err)
	}
	if limitErr.Limit != MaxComponents {
		t.Errorf("Limit = %d, want %d", limitErr.Limit, MaxComponents)
	}
	if w.Entities().Len() != before {
		t.Errorf("failed Spawn placed an entity: %d, want %d", w.Entities().Len(), before)
	}

	t.Run("insert", func(t *testing.T) {
		e, err := w.Spawn()
		if err != nil {
			t.Fatal(err)
		}
		if err := Insert(w, e, wide[[MaxComponents]byte]{}); !errors.As(err, &limitErr) {
			t.Errorf("Insert past the limit returned %v", err)
		}
		if loc, _ := w.Location(e); loc.Archetype != 0 {
			t.Errorf("entity migrated to archetype %d", loc.Archetype)
		}
	})

	t.Run("queued spawn", func(t *testing.T) {
		cmd := w.Commands()
		e := cmd.Spawn(Value(wide[[MaxComponents]byte]{}))
		if err := w.Flush(); err != nil {
			t.Fatal(err)
		}
		if w.Alive(e) || w.Entities().Reserved(e) {
			t.Errorf("queued spawn past the limit left %v allocated", e)
		}
	})

	t.Run("ComponentIDOf panics", func(t *testing.T) {
		defer func() {
			r := recover()
			if err, ok := r.(error); !ok || !errors.As(err, &limitErr) {
				t.Errorf("recovered %v, want ComponentLimitError", r)
			}
		}()
		ComponentIDOf[wide[[MaxComponents]byte]](w)
	})
}
