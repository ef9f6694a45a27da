package cache

import "github.com/fastygo/tasks/domain"

type cacheState int

const (
	// cacheUninitialized: no full load has completed yet. Entries may still
	// hold tasks learned one at a time, but they never answer a full listing.
	cacheUninitialized cacheState = iota
	// cachePopulated: a full load completed; entries are authoritative unless dirty.
	cachePopulated
)

// taskCache keeps tasks keyed by id in first-insertion order.
type taskCache struct {
	state cacheState
	dirty bool
	// gen counts mutations so a lookup can tell whether it raced a write.
	gen uint64
	ids   []string
	tasks map[string]domain.Task
}

func newTaskCache() taskCache {
	return taskCache{tasks: make(map[string]domain.Task)}
}

// authoritative reports whether a full listing may be served from the cache.
func (c *taskCache) authoritative() bool {
	return c.state == cachePopulated && !c.dirty
}

func (c *taskCache) get(id string) (domain.Task, bool) {
	t, ok := c.tasks[id]
	return t, ok
}

func (c *taskCache) put(task domain.Task) {
	c.gen++
	if _, ok := c.tasks[task.ID()]; !ok {
		c.ids = append(c.ids, task.ID())
	}
	c.tasks[task.ID()] = task
}

func (c *taskCache) remove(id string) bool {
	if _, ok := c.tasks[id]; !ok {
		return false
	}
	c.gen++
	delete(c.tasks, id)
	for i, existing := range c.ids {
		if existing == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			break
		}
	}
	return true
}

func (c *taskCache) retain(keep func(domain.Task) bool) {
	c.gen++
	ids := c.ids[:0]
	for _, id := range c.ids {
		if keep(c.tasks[id]) {
			ids = append(ids, id)
			continue
		}
		delete(c.tasks, id)
	}
	c.ids = ids
}

func (c *taskCache) clear() {
	c.gen++
	c.ids = nil
	c.tasks = make(map[string]domain.Task)
}

// replace swaps in a complete snapshot and marks the cache clean.
func (c *taskCache) replace(tasks []domain.Task) {
	c.clear()
	for _, t := range tasks {
		c.put(t)
	}
	c.state = cachePopulated
	c.dirty = false
}

// snapshot returns a copy callers may keep and modify.
func (c *taskCache) snapshot() []domain.Task {
	out := make([]domain.Task, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.tasks[id])
	}
	return out
}
