package depot

import (
	"fmt"
	"io"
	"reflect"

	"gopkg.in/yaml.v3"
)

// Snapshot is a best-effort, one-way dump of a world for debugging. Its shape
// carries no stability guarantee.
type Snapshot struct {
	Tick      Tick             `yaml:"tick"`
	Entities  []EntitySnapshot `yaml:"entities"`
	Resources map[string]any   `yaml:"resources,omitempty"`
}

type EntitySnapshot struct {
	ID         Entity         `yaml:"id"`
	Parent     Entity         `yaml:"parent,omitempty"`
	Components map[string]any `yaml:"components"`
}

// Snapshot copies every live entity, in archetype then row order, and every
// resource.
func (w *World) Snapshot() Snapshot {
	snap := Snapshot{Tick: w.ChangeTick()}
	for _, arch := range w.archetypes.asSlice {
		for _, c := range arch.chunks {
			for row := 0; row < c.high; row++ {
				e := c.entities[row]
				if e.IsNull() {
					continue
				}
				es := EntitySnapshot{ID: e, Components: make(map[string]any, len(c.columns))}
				if p, ok := w.relations.parents[e]; ok {
					es.Parent = p
				}
				for i := range c.columns {
					info := arch.infos[i]
					es.Components[info.Name] = c.columns[i].data.value(row).Interface()
				}
				snap.Entities = append(snap.Entities, es)
			}
		}
	}
	if len(w.resources.byType) > 0 {
		snap.Resources = make(map[string]any, len(w.resources.byType))
		for typ, d := range w.resources.byType {
			snap.Resources[typ.String()] = reflect.ValueOf(d.value).Elem().Interface()
		}
	}
	return snap
}

// WriteSnapshot renders snap as YAML.
func WriteSnapshot(out io.Writer, snap Snapshot) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}
