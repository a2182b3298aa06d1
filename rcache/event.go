// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcache

import (
	"sync"
	"sync/atomic"
)

// pendingEvents is the deferred half of the invalidation protocol: an
// EventSource callback may fire from a context that cannot safely block
// for the page-table write lock (it may be holding OS locks incompatible
// with it), so it only records the event here; the next Get (or Destroy)
// drains it under the write lock before doing anything else. See
// DESIGN.md for why deferred draining was chosen over invalidating inline
// from the callback.
//
// count mirrors len(events) outside of mu so Get's hot path can check
// "anything pending?" without taking a lock on every call.
type pendingEvents struct {
	mu     sync.Mutex
	events []Event
	count  int32
}

func (p *pendingEvents) push(ev Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	atomic.AddInt32(&p.count, 1)
}

func (p *pendingEvents) any() bool {
	return atomic.LoadInt32(&p.count) != 0
}

// drain returns and clears the queued events. Called by the Cache with
// its page-table write lock held.
func (p *pendingEvents) drain() []Event {
	if atomic.LoadInt32(&p.count) == 0 {
		return nil
	}
	p.mu.Lock()
	out := p.events
	p.events = nil
	p.mu.Unlock()
	atomic.StoreInt32(&p.count, 0)
	return out
}

// onEvent is the handler registered with the EventSource. It never touches
// the page table directly; it only queues the event for the next safe
// point, since the handler itself performs no deregistration.
func (c *Cache) onEvent(ev Event) {
	switch ev.Kind {
	case EventKindUnmap:
		c.statsInc(&c.stats.unmapEvents)
	case EventKindMemFree:
		c.statsInc(&c.stats.unmapEvents)
	}
	c.pending.push(ev)
}

// applyPendingLocked drains queued events and invalidates every region
// they cover. Must be called with the page-table write lock held.
func (c *Cache) applyPendingLocked() {
	for _, ev := range c.pending.drain() {
		c.invalidateLocked(ev.Start, ev.End)
	}
}

// invalidateLocked marks every region overlapping [start, end) invalid,
// removes it from the page table, and pushes it onto the invalidation
// queue. Must be called with the write lock held.
func (c *Cache) invalidateLocked(start, end uintptr) {
	var victims []*Region
	c.table.rangeIter(start, end, func(r *Region) bool {
		victims = append(victims, r)
		return true
	})
	for _, r := range victims {
		c.table.remove(r)
		r.setFlag(flagInvalid)
		c.queue.push(r)
		c.statsInc(&c.stats.invalidations)
	}
}
