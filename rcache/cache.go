// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcache

import (
	"log"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Cache is a registration cache: it memoizes the expensive act of
// registering a virtual-memory range with an external resource so that
// successive operations on overlapping ranges reuse a single registration.
//
// A Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	params Params

	mu    sync.RWMutex // page-table lock
	table *pageTable
	queue invalidationQueue

	pending pendingEvents
	token   Token

	sem *semaphore.Weighted // bounds concurrent slow-path registrations

	stats stats

	regionCount int64 // atomic: regions inserted and not yet deregistered or rolled back (resident plus queued)
	warnedAtCap int32 // atomic bool: have we already logged the soft-cap warning
	name        string
}

// Create validates params, subscribes to the event source for the
// requested event mask, and returns an empty cache.
func Create(name string, params Params) (*Cache, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	c := &Cache{
		params: params,
		table:  newPageTable(),
		name:   name,
	}
	if params.MaxConcurrentRegisters > 0 {
		c.sem = semaphore.NewWeighted(params.MaxConcurrentRegisters)
	}

	token, err := params.EventSource.Subscribe(params.EventMask, c.onEvent)
	if err != nil {
		return nil, ErrNoResource
	}
	c.token = token
	return c, nil
}

// Name returns the cache's diagnostic name, as given to Create.
func (c *Cache) Name() string { return c.name }

// Context returns the opaque value given as Params.Context at Create. Ops
// callbacks, which are handed the owning *Cache, use this to reach it
// instead of a value threaded through their own argument list.
func (c *Cache) Context() any { return c.params.Context }

// Stats returns a snapshot of the cache's counters.
func (c *Cache) Stats() Stats { return c.stats.snapshot() }

func (c *Cache) statsInc(counter *uint64) { atomic.AddUint64(counter, 1) }

// align rounds start down and end up to params.Alignment.
func (c *Cache) align(start, end uintptr) (uintptr, uintptr) {
	a := c.params.Alignment
	return start &^ (a - 1), (end + a - 1) &^ (a - 1)
}

// checkSoftCap implements the edge-triggered max_regions warning: log once
// when the region count crosses the soft cap, and don't log again until it
// has dropped back under the cap and re-crossed it.
func (c *Cache) checkSoftCap() {
	if c.params.MaxRegions == 0 {
		return
	}
	n := atomic.LoadInt64(&c.regionCount)
	if uint64(n) > c.params.MaxRegions {
		if atomic.CompareAndSwapInt32(&c.warnedAtCap, 0, 1) {
			log.Printf("rcache: cache %q exceeded soft cap of %d regions (have %d)", c.name, c.params.MaxRegions, n)
		}
	} else {
		atomic.StoreInt32(&c.warnedAtCap, 0)
	}
}

// InvalidateRange is the programmatic equivalent of an external unmap
// event: every region overlapping [addr, addr+length) becomes INVALID
// immediately, without waiting for the next Get to drain the
// pending-events list, since this call is not made from inside an
// event-delivery context.
func (c *Cache) InvalidateRange(addr uintptr, length uintptr) {
	start, end := c.align(addr, addr+length)

	c.mu.Lock()
	c.applyPendingLocked()
	c.invalidateLocked(start, end)
	c.mu.Unlock()

	c.drainQueueOpportunistic()
}

// drainQueueOpportunistic deregisters every queued region whose refcount
// has reached zero. It takes the write lock only long enough to snapshot
// and clear the drainable entries; the (possibly blocking) Deregister
// calls happen outside the lock.
func (c *Cache) drainQueueOpportunistic() {
	c.mu.Lock()
	var drained []*Region
	c.queue.drain(func(r *Region) {
		drained = append(drained, r)
	})
	c.mu.Unlock()

	for _, r := range drained {
		c.params.Ops.Deregister(c, r)
		atomic.AddInt64(&c.regionCount, -1)
		c.statsInc(&c.stats.deregisters)
	}
}

// Destroy unsubscribes from the event source, invalidates and deregisters
// every region still resident, and frees the cache. It is a contract
// violation for any region to have a nonzero refcount at this point;
// Destroy asserts this with a panic rather than silently leaking or
// double-freeing.
func (c *Cache) Destroy() {
	c.params.EventSource.Unsubscribe(c.token)

	c.mu.Lock()
	c.applyPendingLocked()
	var live []*Region
	c.table.rangeIter(0, ^uintptr(0), func(r *Region) bool {
		live = append(live, r)
		return true
	})
	for _, r := range live {
		c.table.remove(r)
		r.setFlag(flagInvalid)
		c.queue.push(r)
	}
	c.mu.Unlock()

	c.mu.Lock()
	var toFree []*Region
	c.queue.drainAll(func(r *Region) {
		if r.Refcount() != 0 {
			panic("rcache: Destroy called with a live reference outstanding")
		}
		toFree = append(toFree, r)
	})
	c.mu.Unlock()

	var g errgroup.Group
	for _, r := range toFree {
		r := r
		g.Go(func() error {
			c.params.Ops.Deregister(c, r)
			c.statsInc(&c.stats.deregisters)
			return nil
		})
	}
	_ = g.Wait()
}

// Dump renders every resident region's diagnostic string using the
// optional Ops.DumpRegion callback, for debugging.
func (c *Cache) Dump() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.params.Ops.DumpRegion == nil {
		return ""
	}
	var buf [256]byte
	var out []byte
	c.table.rangeIter(0, ^uintptr(0), func(r *Region) bool {
		n := c.params.Ops.DumpRegion(c, r, buf[:])
		out = append(out, buf[:n]...)
		out = append(out, '\n')
		return true
	})
	return string(out)
}
