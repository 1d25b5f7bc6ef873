// Package cache indexes the tasks of one fetched window by date key.
//
// A Cache is a value: every operation that changes it returns a new Cache and
// leaves the receiver untouched. Only the buckets an operation touches are
// copied, so snapshots handed to readers stay valid after later changes.
package cache

import (
	"slices"
	"sort"

	"famcal/internal/service"
)

// Cache maps date keys to the tasks on that day.
type Cache struct {
	buckets map[string][]service.Task
}

// Rebuild groups a fetch result by date, keeping the server's order within
// each day.
func Rebuild(tasks []service.Task) Cache {
	buckets := make(map[string][]service.Task)
	for _, t := range tasks {
		buckets[t.Date] = append(buckets[t.Date], t)
	}
	return Cache{buckets: buckets}
}

// Get returns a copy of the bucket for key, or nil for an unknown key.
func (c Cache) Get(key string) []service.Task {
	return slices.Clone(c.buckets[key])
}

// Len returns the number of cached tasks.
func (c Cache) Len() int {
	n := 0
	for _, b := range c.buckets {
		n += len(b)
	}
	return n
}

// Keys returns the non-empty bucket keys in ascending order.
func (c Cache) Keys() []string {
	keys := make([]string, 0, len(c.buckets))
	for k, b := range c.buckets {
		if len(b) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// All returns every cached task, ordered by date key then bucket order.
func (c Cache) All() []service.Task {
	var all []service.Task
	for _, k := range c.Keys() {
		all = append(all, c.buckets[k]...)
	}
	return all
}

// Find returns the key of the bucket holding task id.
func (c Cache) Find(id int64) (string, bool) {
	for k, b := range c.buckets {
		if indexOf(b, id) >= 0 {
			return k, true
		}
	}
	return "", false
}

// Lookup returns the cached task with the given id.
func (c Cache) Lookup(id int64) (service.Task, bool) {
	key, ok := c.Find(id)
	if !ok {
		return service.Task{}, false
	}
	b := c.buckets[key]
	return b[indexOf(b, id)], true
}

// Index returns the position of task id in the bucket for key, or -1.
func (c Cache) Index(key string, id int64) int {
	return indexOf(c.buckets[key], id)
}

// MoveTask takes task id out of from, sets its date to to and inserts it
// before the first task of to that sorts after it. The other tasks of both
// buckets keep their order. It returns c unchanged when from equals to or the
// task is not in from.
func (c Cache) MoveTask(id int64, from, to string) Cache {
	return c.move(id, from, to, func(dst []service.Task, t service.Task) []service.Task {
		i := slices.IndexFunc(dst, func(o service.Task) bool { return Less(t, o) })
		if i < 0 {
			i = len(dst)
		}
		return slices.Insert(dst, i, t)
	})
}

// MoveTaskAt is MoveTask with an explicit position: the task lands at index
// in to, clamped to the bucket length.
func (c Cache) MoveTaskAt(id int64, from, to string, index int) Cache {
	return c.move(id, from, to, func(dst []service.Task, t service.Task) []service.Task {
		index = max(0, min(index, len(dst)))
		return slices.Insert(dst, index, t)
	})
}

func (c Cache) move(id int64, from, to string, place func([]service.Task, service.Task) []service.Task) Cache {
	if from == to {
		return c
	}
	src := c.buckets[from]
	i := indexOf(src, id)
	if i < 0 {
		return c
	}

	task := src[i]
	task.Date = to

	next := make(map[string][]service.Task, len(c.buckets)+1)
	for k, b := range c.buckets {
		next[k] = b
	}

	remaining := make([]service.Task, 0, len(src)-1)
	remaining = append(remaining, src[:i]...)
	remaining = append(remaining, src[i+1:]...)
	if len(remaining) == 0 {
		delete(next, from)
	} else {
		next[from] = remaining
	}

	dst := make([]service.Task, 0, len(c.buckets[to])+1)
	dst = append(dst, c.buckets[to]...)
	next[to] = place(dst, task)

	return Cache{buckets: next}
}

func indexOf(b []service.Task, id int64) int {
	for i, t := range b {
		if t.ID == id {
			return i
		}
	}
	return -1
}
