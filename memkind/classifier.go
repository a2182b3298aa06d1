// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memkind

import (
	"context"
	"sync"

	"github.com/SeyedMir/ucx/rcache"
)

type deviceRange struct {
	start, end uintptr
	kind       rcache.Kind
}

// Classifier implements rcache.Classifier. It tracks the device-memory
// ranges currently allocated (announced via AddDeviceRange) and classifies
// any address range not covered by one of them as Host.
//
// Classifier is safe for concurrent use; Classify is invoked once per Get
// without any cache lock held, so it must not call back into the cache but
// may take its own lock freely.
type Classifier struct {
	mu     sync.Mutex
	device []deviceRange
}

// New returns a Classifier that initially knows of no device allocations;
// every range classifies as Host until AddDeviceRange is called.
func New() *Classifier {
	return &Classifier{}
}

// AddDeviceRange announces a new device allocation covering [start, end)
// and returns the fresh Kind minted for it. The caller (the device
// allocator, or a test standing in for one) is responsible for calling
// RemoveDeviceRange when the allocation is freed.
func (c *Classifier) AddDeviceRange(start, end uintptr, family string) rcache.Kind {
	kind := NewDeviceKind(family)
	c.mu.Lock()
	c.device = append(c.device, deviceRange{start, end, kind})
	c.mu.Unlock()
	return kind
}

// RemoveDeviceRange retracts a previously announced device allocation.
// After this call the same address range classifies as Host again (until
// a new device allocation claims it, which will mint a distinct Kind).
func (c *Classifier) RemoveDeviceRange(start, end uintptr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.device[:0]
	for _, r := range c.device {
		if r.start != start || r.end != end {
			out = append(out, r)
		}
	}
	c.device = out
}

// Classify implements rcache.Classifier. A range not covered by any
// announced device allocation classifies as Host — an address not
// recognized as belonging to any device range is converted to the host
// kind right here and never surfaces as a distinct error to the core or
// its caller.
func (c *Classifier) Classify(ctx context.Context, start, end uintptr) (rcache.Kind, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.device {
		if r.start <= start && end <= r.end {
			return r.kind, nil
		}
	}
	return Host, nil
}
