// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcache

// invalidationQueue is a FIFO of regions that are INVALID and no longer
// IN_PGTABLE, awaiting the moment their refcount drops to zero so they can
// be deregistered and freed. Ordering among queued regions is immaterial,
// so a singly linked list suffices.
//
// Access is always under the owning Cache's page-table lock; there is no
// separate queue lock.
type invalidationQueue struct {
	head, tail *Region
	n          int
}

func (q *invalidationQueue) push(r *Region) {
	r.queueNext = nil
	if q.tail != nil {
		q.tail.queueNext = r
	} else {
		q.head = r
	}
	q.tail = r
	q.n++
}

// drain walks the queue once, calling deregister on every region whose
// refcount has reached zero and removing it from the queue; regions still
// referenced are kept, preserving relative order.
func (q *invalidationQueue) drain(deregister func(*Region)) {
	var newHead, newTail *Region
	newN := 0
	for r := q.head; r != nil; {
		next := r.queueNext
		if r.Refcount() == 0 {
			deregister(r)
			r.queueNext = nil
		} else {
			r.queueNext = nil
			if newTail != nil {
				newTail.queueNext = r
			} else {
				newHead = r
			}
			newTail = r
			newN++
		}
		r = next
	}
	q.head, q.tail, q.n = newHead, newTail, newN
}

// drainAll forcibly deregisters every queued region regardless of
// refcount; used only by Destroy, whose callback panics on any region that
// still has a live reference.
func (q *invalidationQueue) drainAll(deregister func(*Region)) {
	for r := q.head; r != nil; {
		next := r.queueNext
		r.queueNext = nil
		deregister(r)
		r = next
	}
	q.head, q.tail, q.n = nil, nil, 0
}

func (q *invalidationQueue) len() int { return q.n }
