//go:build !linux

// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osprot

import "github.com/SeyedMir/ucx/rcache"

// NewDefault returns the production OS-protection checker for this
// platform. Non-Linux platforms have no /proc/self/maps-style interface
// in the retrieved corpus to ground a real probe on, so they fall back to
// an explicitly maintained Table seeded permissive (RWX), which callers
// can still narrow with SetProt where they have better information.
func NewDefault() rcache.ProtChecker {
	return NewTable(4096, rcache.ProtRead|rcache.ProtWrite|rcache.ProtExec)
}
