// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcache

import "sync/atomic"

// Prot is a bitset of access modes a registration supports.
type Prot uint32

const (
	ProtRead Prot = 1 << iota
	ProtWrite
	ProtExec
)

// Contains reports whether p grants every mode set in want.
func (p Prot) Contains(want Prot) bool {
	return p&want == want
}

// String renders the usual rwx triple, '-' standing in for an absent bit.
func (p Prot) String() string {
	buf := [3]byte{'-', '-', '-'}
	if p&ProtRead != 0 {
		buf[0] = 'r'
	}
	if p&ProtWrite != 0 {
		buf[1] = 'w'
	}
	if p&ProtExec != 0 {
		buf[2] = 'x'
	}
	return string(buf[:])
}

// Kind identifies the memory classification of a range (host vs. a
// particular device allocation). The core never constructs a Kind itself;
// it only compares values handed back by a Classifier. See package memkind
// for the concrete host/device implementations.
type Kind interface {
	// Equal reports whether two Kind values name the same underlying
	// allocation. Two device allocations at the same virtual address
	// must never compare equal.
	Equal(Kind) bool
	String() string
}

// regionFlags tracks a region's lifecycle bits. It is manipulated only
// while the owning Cache's page-table lock is held, except for the atomic
// refcount which lives in its own field.
type regionFlags uint32

const (
	flagInPageTable regionFlags = 1 << iota
	flagInvalid
	flagRegistering
)

// Region is one cached registration: a contiguous, page-aligned virtual
// address range together with the protection bits and memory kind it was
// registered under, a reference count, and a user payload carved out at
// creation time.
//
// A Region is heap-allocated once per registration and referenced by
// pointer from the page table, the invalidation queue, and any user
// holder; there is no separate handle type.
type Region struct {
	Start, End uintptr
	Prot       Prot
	Kind       Kind

	// Payload is a byte span sized by Params.PayloadSize at cache
	// creation, populated by the register callback and owned by the
	// caller thereafter. Unlike the C source, which carves the payload
	// out of the same allocation as the bookkeeping struct to get one
	// malloc per registration, Go's allocator makes a second small
	// allocation cheap and a fixed-size embedded array impossible for a
	// runtime-chosen size without unsafe.
	Payload []byte

	refcount int64 // atomic; see Get/Put

	// mu-guarded state below. mu is the owning Cache's page-table lock;
	// a Region never carries its own lock, matching nodefs.Inode, whose
	// mutable fields are protected by the bridge-wide (or, there,
	// per-inode) lock rather than per-object state being independently
	// synchronized.
	flags regionFlags

	// queueNext links this region into the Cache's invalidation queue
	// once it has been marked invalid. It is nil both for the last queued
	// region and for a region not on the queue, so it does not by itself
	// tell whether the region is queued.
	queueNext *Region

	// idxNode is this region's position in the address index, opaque outside
	// addrindex; it is nil when the region is not IN_PGTABLE.
	idxNode any
}

func (r *Region) hasFlag(f regionFlags) bool { return r.flags&f != 0 }

func (r *Region) setFlag(f regionFlags)   { r.flags |= f }
func (r *Region) clearFlag(f regionFlags) { r.flags &^= f }

// Refcount returns the current reference count. Safe to call without
// holding the page-table lock.
func (r *Region) Refcount() int64 {
	return atomic.LoadInt64(&r.refcount)
}

// addRef increments the reference count on behalf of a Get caller.
func (r *Region) addRef() int64 {
	return atomic.AddInt64(&r.refcount, 1)
}

func (r *Region) dropRef() int64 {
	return atomic.AddInt64(&r.refcount, -1)
}

// covers reports whether r fully covers [start, end).
func (r *Region) covers(start, end uintptr) bool {
	return r.Start <= start && end <= r.End
}

// overlaps reports whether r's interval intersects [start, end).
func (r *Region) overlaps(start, end uintptr) bool {
	return r.Start < end && start < r.End
}
