// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rcache implements a registration cache: an in-process data
// structure that memoizes the cost of registering a virtual-memory range
// with an external resource (a network adapter, a device driver) so that
// successive operations on overlapping ranges reuse a single registration.
//
// A Cache is built from three collaborators the core never implements
// itself:
//
//   - a Classifier, answering "what kind of memory is this range" (see
//     package memkind for a usable implementation distinguishing host
//     memory from per-allocation device memory);
//   - an EventSource, delivering unmap and memory-kind-free notifications
//     (see package vmevent);
//   - a ProtChecker, answering whether the OS currently grants a
//     requested protection over a range (see package osprot).
//
// Get/Put are the hot path: Get resolves an address range to a Region,
// creating and registering one if no existing Region already covers the
// request at a sufficient protection and the right memory kind; Put
// releases the caller's reference. Concurrent, asynchronous invalidation
// (an unmap arriving while other goroutines hold references) is handled
// by marking affected regions invalid under the page-table lock and
// deferring the actual deregistration until the last reference is
// released — see Cache.Destroy and the invalidationQueue type for the
// two-state lifecycle this requires.
package rcache
