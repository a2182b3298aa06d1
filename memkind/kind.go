// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memkind implements the memory-kind classification collaborator:
// given an address range, it returns a Kind descriptor (host, or a
// specific device allocation). The core depends on it only through
// rcache.Classifier.
package memkind

import (
	"github.com/google/uuid"

	"github.com/SeyedMir/ucx/rcache"
)

type hostKind struct{}

func (hostKind) Equal(k rcache.Kind) bool {
	_, ok := k.(hostKind)
	return ok
}

func (hostKind) String() string { return "host" }

// Host is the singleton Kind for ordinary host memory. Every host address
// range classifies to the same value, so host registrations can be
// cached and reused across unrelated addresses.
var Host rcache.Kind = hostKind{}

// deviceKind identifies one specific device-memory allocation. Two
// deviceKind values never compare equal even if they name the same
// device family, because each carries a fresh uuid.UUID minted at
// allocation time — a new device allocation must always miss even at the
// same virtual address a prior, now-freed allocation occupied, which a
// value built only from (family, address) could not guarantee.
type deviceKind struct {
	family string
	id     uuid.UUID
}

func (d deviceKind) Equal(k rcache.Kind) bool {
	o, ok := k.(deviceKind)
	return ok && o.family == d.family && o.id == d.id
}

func (d deviceKind) String() string {
	return d.family + ":" + d.id.String()
}

// NewDeviceKind mints a Kind for a freshly allocated device range of the
// given family (e.g. "gpu0", "nic1-rdma"). Call this once per allocation,
// not once per Get.
func NewDeviceKind(family string) rcache.Kind {
	return deviceKind{family: family, id: uuid.New()}
}
