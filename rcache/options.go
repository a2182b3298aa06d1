// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcache

import "os"

// Ops bundles the three user-supplied callbacks the registrar invokes.
// Register and Deregister are mandatory; DumpRegion is optional and used
// only for diagnostics (Cache.Dump).
type Ops struct {
	// Register performs the external-resource side effect for a newly
	// merged region. It is called without the page-table lock held and
	// may block. A non-nil error is reported to the caller of Get as
	// ErrIOError and rolls back the would-be region.
	Register func(cache *Cache, arg any, region *Region) error

	// Deregister undoes Register for a region that has left the page
	// table and reached refcount zero. It is called without the
	// page-table lock held.
	Deregister func(cache *Cache, region *Region)

	// DumpRegion renders diagnostic information about region into buf,
	// returning the number of bytes written. Optional.
	DumpRegion func(cache *Cache, region *Region, buf []byte) int
}

// Flags are cache-wide policy bits.
type Flags uint32

const (
	// FlagAllowProtWidening relaxes the merge's OS-protection dominance
	// check to permit a merged region's prot to widen past what every
	// page currently supports, rather than refusing and shrinking the
	// merge. The strict behavior (this flag unset) is the default; treat
	// the permissive behavior as opt-in only.
	FlagAllowProtWidening Flags = 1 << iota
)

// Params bundles the arguments to Create.
type Params struct {
	// PayloadSize is the number of bytes of user payload carved out per
	// Region, allocated as a separate small slice rather than embedded
	// in the bookkeeping struct — see Region.Payload.
	PayloadSize uint64

	// Alignment is the outward alignment applied to every query
	// interval; must be a power of two and at least the platform page
	// size.
	Alignment uintptr

	// MaxAlignment upper-bounds Alignment: a nonzero value smaller than
	// Alignment makes Create fail with ErrInvalidArgument; zero means
	// "same as Alignment". There is no per-query alignment override;
	// every query is aligned to Alignment.
	MaxAlignment uintptr

	// EventMask selects which VM events the cache subscribes to.
	// Unknown bits make Create fail with ErrInvalidArgument.
	EventMask EventMask

	// MaxRegions is an optional soft cap: crossing it never evicts, it
	// only logs a one-time warning until the count drops back under the
	// cap. Zero disables the check.
	MaxRegions uint64

	// MaxConcurrentRegisters bounds how many slow-path Register
	// callbacks may be in flight at once for this cache; zero means
	// unbounded. Backed by golang.org/x/sync/semaphore.
	MaxConcurrentRegisters int64

	Ops Ops

	// Context is an opaque value carried alongside Params; every Ops
	// callback receives the owning *Cache, so Cache.Context returns this
	// value back to the callback without it having to be threaded
	// through each callback's own argument list.
	Context any

	Flags Flags

	Classifier  Classifier
	ProtChecker ProtChecker
	EventSource EventSource
}

func (p *Params) validate() error {
	minAlignment := uintptr(os.Getpagesize())
	if p.Alignment == 0 || p.Alignment&(p.Alignment-1) != 0 || p.Alignment < minAlignment {
		return ErrInvalidArgument
	}
	if p.MaxAlignment != 0 && p.MaxAlignment < p.Alignment {
		return ErrInvalidArgument
	}
	if p.EventMask&^eventMaskAll != 0 {
		return ErrInvalidArgument
	}
	if p.Ops.Register == nil || p.Ops.Deregister == nil {
		return ErrInvalidArgument
	}
	if p.Classifier == nil || p.ProtChecker == nil || p.EventSource == nil {
		return ErrInvalidArgument
	}
	return nil
}
