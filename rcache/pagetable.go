// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcache

import "github.com/SeyedMir/ucx/rcache/internal/addrindex"

// pageTable is the cache's address-indexed region index. It is not safe
// for concurrent use; callers serialize access through the owning Cache's
// page-table lock.
type pageTable struct {
	idx *addrindex.Tree[*Region]
}

func newPageTable() *pageTable {
	return &pageTable{idx: addrindex.New[*Region]()}
}

func (pt *pageTable) lookupContaining(addr uintptr) *Region {
	n, ok := pt.idx.LookupContaining(addr)
	if !ok {
		return nil
	}
	return n.Value
}

// rangeIter calls yield for every region intersecting [lo, hi) in address
// order, stopping early if yield returns false.
func (pt *pageTable) rangeIter(lo, hi uintptr, yield func(*Region) bool) {
	pt.idx.RangeIter(lo, hi, func(n *addrindex.Node[*Region]) bool {
		return yield(n.Value)
	})
}

// insert adds r to the index. The caller must have established that r's
// interval is disjoint from every region currently indexed — the page
// table never holds two overlapping regions.
func (pt *pageTable) insert(r *Region) {
	node := pt.idx.Insert(r.Start, r.End, r)
	r.idxNode = node
	r.setFlag(flagInPageTable)
}

func (pt *pageTable) remove(r *Region) {
	node, ok := r.idxNode.(*addrindex.Node[*Region])
	if !ok || node == nil {
		return
	}
	pt.idx.Remove(node)
	r.idxNode = nil
	r.clearFlag(flagInPageTable)
}

func (pt *pageTable) len() int { return pt.idx.Len() }
