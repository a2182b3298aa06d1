// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package osprot implements the "OS-reported protection" collaborator the
// merge's dominance check relies on.
package osprot

import (
	"sync"

	"github.com/SeyedMir/ucx/rcache"
)

// Table is an explicit, in-memory stand-in for the OS-reported protection
// of a range of pages. Tests (and deployments registering ranges that
// aren't ordinary OS mappings, such as device-shadowed host memory)
// populate it directly with SetProt; LinuxChecker (osprot_linux.go) is the
// production implementation that derives the same answer from
// /proc/self/maps.
type Table struct {
	mu       sync.RWMutex
	pageSize uintptr
	pages    map[uintptr]rcache.Prot
	def      rcache.Prot
}

// NewTable returns a Table where every page not explicitly set via
// SetProt reports defaultProt.
func NewTable(pageSize uintptr, defaultProt rcache.Prot) *Table {
	return &Table{
		pageSize: pageSize,
		pages:    make(map[uintptr]rcache.Prot),
		def:      defaultProt,
	}
}

func (t *Table) page(addr uintptr) uintptr {
	return addr &^ (t.pageSize - 1)
}

// SetProt declares the OS-reported protection for every page in
// [start, end), e.g. to simulate an mprotect(2) call in a test.
func (t *Table) SetProt(start, end uintptr, prot rcache.Prot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for p := t.page(start); p < end; p += t.pageSize {
		t.pages[p] = prot
	}
}

// Dominates implements rcache.ProtChecker.
func (t *Table) Dominates(start, end uintptr, want rcache.Prot) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for p := t.page(start); p < end; p += t.pageSize {
		prot, ok := t.pages[p]
		if !ok {
			prot = t.def
		}
		if !prot.Contains(want) {
			return false, nil
		}
	}
	return true, nil
}
