// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcache

import "sync/atomic"

// Stats is a point-in-time snapshot of a Cache's counters. It is a plain
// value; taking one never blocks on the page-table lock.
type Stats struct {
	Gets          uint64
	FastHits      uint64
	SlowHits      uint64
	Misses        uint64
	Merges        uint64
	UnmapEvents   uint64
	Invalidations uint64
	Puts          uint64
	Registers     uint64
	Deregisters   uint64
}

// stats holds the live counters backing Stats; every field is only ever
// touched through sync/atomic, so it can be read concurrently with Get/Put
// without taking any lock, matching the refcount's own lock-free discipline.
type stats struct {
	gets          uint64
	fastHits      uint64
	slowHits      uint64
	misses        uint64
	merges        uint64
	unmapEvents   uint64
	invalidations uint64
	puts          uint64
	registers     uint64
	deregisters   uint64
}

func (s *stats) snapshot() Stats {
	return Stats{
		Gets:          atomic.LoadUint64(&s.gets),
		FastHits:      atomic.LoadUint64(&s.fastHits),
		SlowHits:      atomic.LoadUint64(&s.slowHits),
		Misses:        atomic.LoadUint64(&s.misses),
		Merges:        atomic.LoadUint64(&s.merges),
		UnmapEvents:   atomic.LoadUint64(&s.unmapEvents),
		Invalidations: atomic.LoadUint64(&s.invalidations),
		Puts:          atomic.LoadUint64(&s.puts),
		Registers:     atomic.LoadUint64(&s.registers),
		Deregisters:   atomic.LoadUint64(&s.deregisters),
	}
}
