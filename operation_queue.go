package depot

import (
	"go.uber.org/zap"
)

type operation struct {
	typ       operationType
	entity    Entity
	values    []ComponentValue
	comps     []Component
	recursive bool
}

type operationType int

const (
	opSpawn operationType = iota
	opDespawn
	opInsert
	opRemove
	opNoop
)

func (t operationType) String() string {
	switch t {
	case opSpawn:
		return "spawn"
	case opDespawn:
		return "despawn"
	case opInsert:
		return "insert"
	case opRemove:
		return "remove"
	}
	return "noop"
}

// opQueue orders deferred work as creates, then component operations, then
// despawns. Component operations on an entity already queued for despawn
// are dropped.
type opQueue struct {
	createOps      []operation
	componentOps   []operation
	destroyOps     []operation
	pendingDestroy map[Entity]struct{}
	pendingMods    map[Entity][]int
}

func newOpQueue() opQueue {
	return opQueue{
		pendingDestroy: make(map[Entity]struct{}),
		pendingMods:    make(map[Entity][]int),
	}
}

func (q *opQueue) enqueueOp(op operation) {
	switch op.typ {
	case opSpawn:
		q.createOps = append(q.createOps, op)
	case opInsert, opRemove:
		if _, destroyed := q.pendingDestroy[op.entity]; destroyed {
			return
		}
		q.pendingMods[op.entity] = append(q.pendingMods[op.entity], len(q.componentOps))
		q.componentOps = append(q.componentOps, op)
	case opDespawn:
		q.enqueueDestroy(op)
	}
}

func (q *opQueue) enqueueDestroy(op operation) {
	if _, exists := q.pendingDestroy[op.entity]; exists {
		if op.recursive {
			for i := range q.destroyOps {
				if q.destroyOps[i].entity == op.entity {
					q.destroyOps[i].recursive = true
				}
			}
		}
		return
	}
	q.pendingDestroy[op.entity] = struct{}{}
	for _, idx := range q.pendingMods[op.entity] {
		q.componentOps[idx].typ = opNoop
	}
	delete(q.pendingMods, op.entity)
	q.destroyOps = append(q.destroyOps, op)
}

func (q *opQueue) len() int {
	return len(q.createOps) + len(q.componentOps) + len(q.destroyOps)
}

// processOperationQueue applies q to the world. Operations whose target is
// gone by now are dropped and counted.
func (w *World) processOperationQueue(q *opQueue) (applied, dropped int) {
	for _, op := range q.createOps {
		if !w.entities.Reserved(op.entity) {
			dropped++
			continue
		}
		if err := w.spawnReserved(op.entity, op.values); err != nil {
			w.log.Debug("queued command dropped",
				zap.String("op", "spawn"),
				zap.Stringer("entity", op.entity),
				zap.Error(err),
			)
			dropped++
			continue
		}
		applied++
	}

	for _, op := range q.componentOps {
		var err error
		switch op.typ {
		case opNoop:
			continue
		case opInsert:
			err = w.InsertValues(op.entity, op.values...)
		case opRemove:
			err = w.RemoveComponents(op.entity, op.comps...)
		}
		if err != nil {
			w.log.Debug("queued command dropped",
				zap.String("op", op.typ.String()),
				zap.Stringer("entity", op.entity),
				zap.Error(err),
			)
			dropped++
			continue
		}
		applied++
	}

	for _, op := range q.destroyOps {
		if err := w.RemoveEntity(op.entity, op.recursive); err != nil {
			w.log.Debug("queued command dropped",
				zap.String("op", op.typ.String()),
				zap.Stringer("entity", op.entity),
				zap.Error(err),
			)
			dropped++
			continue
		}
		applied++
	}
	return applied, dropped
}
