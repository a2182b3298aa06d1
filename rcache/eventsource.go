// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcache

// EventMask names the VM events a Cache subscribes to.
type EventMask uint32

const (
	// EventUnmap covers host address-space unmap notifications.
	EventUnmap EventMask = 1 << iota
	// EventMemKindFree covers device/memory-kind free notifications.
	EventMemKindFree

	eventMaskAll = EventUnmap | EventMemKindFree
)

// EventKind distinguishes the two event shapes a handler can receive.
type EventKind int

const (
	EventKindUnmap EventKind = iota
	EventKindMemFree
)

// Event describes one VM/memory-kind notification delivered by an
// EventSource.
type Event struct {
	Kind       EventKind
	Start, End uintptr
}

// Token identifies an active subscription, returned by Subscribe and
// consumed by Unsubscribe.
type Token interface{}

// EventSource is the external collaborator that notifies the cache when a
// range is unmapped or a device allocation is freed. The core never
// discovers events on its own; it is handed a Source at creation time and
// releases its subscription in Destroy.
//
// Handler may be invoked from any goroutine, including one that holds
// locks the source itself needs for unrelated work, which is why the
// handler only records the event for the cache to apply later and never
// takes the page-table lock or deregisters inline.
type EventSource interface {
	Subscribe(mask EventMask, handler func(Event)) (Token, error)
	Unsubscribe(Token)
}
