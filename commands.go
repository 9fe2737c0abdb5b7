package depot

import (
	"sync"
)

// Commands buffers structural changes until the next World.Flush. It is safe
// for concurrent use, so parallel query tasks can record work through it.
// Commands satisfies SystemParameter.
type Commands struct {
	mu    sync.Mutex
	world *World
	queue opQueue
}

func newCommands(w *World) *Commands {
	return &Commands{world: w, queue: newOpQueue()}
}

// Update checks that c belongs to w.
func (c *Commands) Update(w *World) {
	if c.world != w {
		panic("depot: commands used with a foreign world")
	}
}

func (c *Commands) enqueue(op operation) {
	c.mu.Lock()
	c.queue.enqueueOp(op)
	c.mu.Unlock()
}

// Spawn reserves an entity id now and stores values at the next flush.
func (c *Commands) Spawn(values ...ComponentValue) Entity {
	e := c.world.entities.reserve()
	c.enqueue(operation{typ: opSpawn, entity: e, values: values})
	return e
}

func (c *Commands) Insert(e Entity, values ...ComponentValue) {
	c.enqueue(operation{typ: opInsert, entity: e, values: values})
}

func (c *Commands) Remove(e Entity, comps ...Component) {
	c.enqueue(operation{typ: opRemove, entity: e, comps: comps})
}

func (c *Commands) Despawn(e Entity) {
	c.enqueue(operation{typ: opDespawn, entity: e})
}

// DespawnRecursive despawns e together with its descendants.
func (c *Commands) DespawnRecursive(e Entity) {
	c.enqueue(operation{typ: opDespawn, entity: e, recursive: true})
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.len()
}

// apply swaps the queue out and runs it, so commands recorded while applying
// wait for the next flush.
func (c *Commands) apply() (applied, dropped int) {
	c.mu.Lock()
	q := c.queue
	c.queue = newOpQueue()
	c.mu.Unlock()
	if q.len() == 0 {
		return 0, 0
	}
	return c.world.processOperationQueue(&q)
}

// reset drops every queued operation and releases reserved spawn ids.
func (c *Commands) reset() {
	c.mu.Lock()
	q := c.queue
	c.queue = newOpQueue()
	c.mu.Unlock()
	for _, op := range q.createOps {
		c.world.entities.release(op.entity)
	}
}
