// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcache

import (
	"context"
	"runtime"
	"sync/atomic"
)

// Get resolves (addr, length, prot) to a Region, registering a fresh one
// (possibly absorbing overlapping resident regions via merge) if no
// existing region already satisfies the request.
//
// The returned Region's reference count has been incremented on behalf of
// the caller; callers must call Put exactly once when done with it.
func (c *Cache) Get(ctx context.Context, addr uintptr, length uintptr, prot Prot, arg any) (*Region, error) {
	c.statsInc(&c.stats.gets)

	if length == 0 {
		return nil, ErrInvalidArgument
	}
	start, end := c.align(addr, addr+length)

	kind, err := c.params.Classifier.Classify(ctx, start, end)
	if err != nil {
		return nil, err
	}

	for {
		if c.pending.any() {
			// A pending unmap/free must become visible before we even
			// attempt the fast path, or a read-locked hit could return a
			// region an already-queued invalidation already covers.
			c.mu.Lock()
			c.applyPendingLocked()
			c.mu.Unlock()
		}

		if r, ok := c.fastPath(start, end, prot, kind); ok {
			c.statsInc(&c.stats.fastHits)
			return r, nil
		}

		r, retry, err := c.slowPath(ctx, start, end, prot, kind, arg)
		if retry {
			// A concurrent Get's register callback for an overlapping
			// region is still in flight. Restart rather than merge
			// with or absorb a not-yet-registered region; the next
			// pass either fast-hits its result once it lands, or
			// enters the slow path itself if it failed.
			runtime.Gosched()
			continue
		}
		if err != nil {
			return nil, err
		}

		c.drainQueueOpportunistic()
		return r, nil
	}
}

// fastPath is the read-locked check: a single resident region that already
// covers the request at a sufficient prot and the right memory kind is an
// immediate hit.
func (c *Cache) fastPath(start, end uintptr, prot Prot, kind Kind) (*Region, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r := c.table.lookupContaining(start)
	if r == nil {
		return nil, false
	}
	if r.hasFlag(flagInvalid) || r.hasFlag(flagRegistering) {
		return nil, false
	}
	if !r.covers(start, end) || !r.Prot.Contains(prot) || !r.Kind.Equal(kind) {
		return nil, false
	}
	r.addRef()
	return r, true
}

// slowPath performs the write-locked lookup, merge, register sequence. It
// always drains any pending VM events first, so a Get can never return a
// region that a not-yet-applied invalidation already covers.
func (c *Cache) slowPath(ctx context.Context, start, end uintptr, prot Prot, kind Kind, arg any) (region *Region, retry bool, err error) {
	c.mu.Lock()

	c.applyPendingLocked()

	var overlapping []*Region
	c.table.rangeIter(start, end, func(r *Region) bool {
		overlapping = append(overlapping, r)
		return true
	})

	for _, r := range overlapping {
		if r.hasFlag(flagRegistering) {
			c.mu.Unlock()
			return nil, true, nil
		}
	}

	if len(overlapping) == 1 {
		r := overlapping[0]
		if r.covers(start, end) && r.Prot.Contains(prot) && r.Kind.Equal(kind) {
			r.addRef()
			c.mu.Unlock()
			c.statsInc(&c.stats.slowHits)
			return r, false, nil
		}
	}

	newStart, newEnd, newProt, absorbed, staleKind, mergeErr := c.planMerge(start, end, prot, kind, overlapping)
	if mergeErr != nil {
		c.mu.Unlock()
		return nil, false, mergeErr
	}
	if len(absorbed) > 0 || len(staleKind) > 0 {
		c.statsInc(&c.stats.merges)
	}

	for _, r := range absorbed {
		c.table.remove(r)
		r.setFlag(flagInvalid)
		c.queue.push(r)
		c.statsInc(&c.stats.invalidations)
	}
	for _, r := range staleKind {
		c.table.remove(r)
		r.setFlag(flagInvalid)
		c.queue.push(r)
		c.statsInc(&c.stats.invalidations)
	}

	region = &Region{
		Start: newStart,
		End:   newEnd,
		Prot:  newProt,
		Kind:  kind,
	}
	if c.params.PayloadSize > 0 {
		region.Payload = make([]byte, c.params.PayloadSize)
	}
	region.setFlag(flagRegistering)
	c.table.insert(region)
	atomic.AddInt64(&c.regionCount, 1)
	c.checkSoftCap()
	c.statsInc(&c.stats.misses)

	c.mu.Unlock()

	if c.sem != nil {
		if semErr := c.sem.Acquire(ctx, 1); semErr != nil {
			c.rollback(region)
			return nil, false, ErrIOError
		}
		defer c.sem.Release(1)
	}

	if regErr := c.params.Ops.Register(c, arg, region); regErr != nil {
		c.rollback(region)
		return nil, false, ErrIOError
	}
	c.statsInc(&c.stats.registers)

	c.mu.Lock()
	region.clearFlag(flagRegistering)
	atomic.StoreInt64(&region.refcount, 1)
	c.mu.Unlock()
	return region, false, nil
}

// rollback undoes the speculative insertion of region after its Register
// callback failed: re-acquire the write lock, remove the region from the
// page table, and let it be garbage collected. The regions absorbed into
// region were already committed to the invalidation queue before Register
// was ever called and are not restored — the failed attempt never becomes
// visible, and a later Get over their ranges registers them afresh.
func (c *Cache) rollback(region *Region) {
	c.mu.Lock()
	c.table.remove(region)
	atomic.AddInt64(&c.regionCount, -1)
	c.mu.Unlock()
}

// planMerge decides which overlapping regions are absorbed into the new
// region, which are invalidated purely because they belong to a stale
// memory kind, and what the resulting interval and prot are. Must be
// called with the write lock held.
func (c *Cache) planMerge(start, end uintptr, prot Prot, kind Kind, overlapping []*Region) (newStart, newEnd uintptr, newProt Prot, absorbed, staleKind []*Region, err error) {
	var sameKind []*Region
	for _, r := range overlapping {
		if r.Kind.Equal(kind) {
			sameKind = append(sameKind, r)
		} else {
			staleKind = append(staleKind, r)
		}
	}

	if len(sameKind) == 0 {
		return start, end, prot, nil, staleKind, nil
	}

	candProt := prot
	candStart, candEnd := start, end
	for _, r := range sameKind {
		candProt |= r.Prot
		if r.Start < candStart {
			candStart = r.Start
		}
		if r.End > candEnd {
			candEnd = r.End
		}
	}

	dominates, derr := c.params.ProtChecker.Dominates(candStart, candEnd, candProt)
	if derr != nil {
		return 0, 0, 0, nil, nil, ErrIOError
	}
	if dominates {
		return candStart, candEnd, candProt, sameKind, staleKind, nil
	}

	if c.params.Flags&FlagAllowProtWidening != 0 {
		// Permissive variant: accept the widened candidate even though
		// the OS didn't confirm it dominates every page. Opt-in only.
		return candStart, candEnd, candProt, sameKind, staleKind, nil
	}

	// Strict path: the merged prot isn't supported everywhere. Check
	// whether the request's own prot, over the request's own interval,
	// is at least supported.
	reqDominates, derr := c.params.ProtChecker.Dominates(start, end, prot)
	if derr != nil {
		return 0, 0, 0, nil, nil, ErrIOError
	}
	if !reqDominates {
		return 0, 0, 0, nil, nil, ErrIOError
	}

	// Shrink back to the request's own prot. Every same-kind region
	// overlapping the request still has to leave the page table — it
	// overlaps the new region's final interval by construction (it was
	// in `overlapping`, which only ever intersects [start, end)), and
	// two resident regions may never claim the same page. What differs
	// is whether its own interval is folded into the new region's
	// bounds: only a region the OS still backs at the request's prot
	// across its own full interval is absorbed that way. A region that
	// fails this check (e.g. one spanning a since-mprotect'd page) is
	// still invalidated, but the new region's interval is never widened
	// to cover it — whatever part of its range falls outside the
	// request's own interval is simply left unclaimed by any region
	// until a later get re-resolves it.
	newStart, newEnd = start, end
	for _, r := range sameKind {
		absorbed = append(absorbed, r)
		ok, derr := c.params.ProtChecker.Dominates(r.Start, r.End, prot)
		if derr != nil {
			return 0, 0, 0, nil, nil, ErrIOError
		}
		if !ok {
			continue
		}
		if r.Start < newStart {
			newStart = r.Start
		}
		if r.End > newEnd {
			newEnd = r.End
		}
	}
	return newStart, newEnd, prot, absorbed, staleKind, nil
}

// Put releases the caller's reference to region. If region has already
// been invalidated and this was the last reference, Put drains the
// invalidation queue before returning, deregistering it.
func (c *Cache) Put(region *Region) {
	n := region.dropRef()
	if n < 0 {
		panic("rcache: Put called more times than Get for this region")
	}
	c.statsInc(&c.stats.puts)
	if n == 0 {
		c.drainQueueOpportunistic()
	}
}
