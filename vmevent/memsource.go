// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vmevent implements the external VM-event source collaborator:
// it notifies subscribers when a range is unmapped or a device allocation
// is freed. The core depends on it only through rcache.EventSource.
package vmevent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/SeyedMir/ucx/rcache"
)

type subscription struct {
	mask    rcache.EventMask
	handler func(rcache.Event)
}

// MemSource is an in-process event bus standing in for the real,
// process-wide VM-event source, passed to a Cache as an explicit
// collaborator rather than discovered globally. Something else — a
// loopback wrapper around real mmap/munmap syscalls, or a test — calls
// Unmap/FreeDevice to fan a notification out to every matching
// subscriber.
type MemSource struct {
	mu   sync.Mutex
	subs map[uint64]*subscription
	next uint64

	ready bool
}

// NewMemSource returns a MemSource that is already ready, so Subscribe
// succeeds on its first attempt. A source that is not yet ready (see
// newUnreadyMemSource) makes Subscribe see a transient failure and retry,
// the way a real event subsystem's registration table might not be
// initialized yet; that variant exists to exercise the retry path
// deliberately in tests.
func NewMemSource() *MemSource {
	s := &MemSource{subs: make(map[uint64]*subscription)}
	s.ready = true
	return s
}

// newUnreadyMemSource is used by tests that exercise Subscribe's retry
// path; SetReady must be called (concurrently or otherwise) before the
// retries run out.
func newUnreadyMemSource() *MemSource {
	return &MemSource{subs: make(map[uint64]*subscription)}
}

// SetReady flips the source's readiness; see newUnreadyMemSource.
func (s *MemSource) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// Subscribe registers handler for the event kinds named by mask, retrying
// a few times with backoff if the source reports itself not yet ready.
// Exhausting the retries surfaces as an error, which Cache.Create
// propagates to its caller as ErrNoResource.
func (s *MemSource) Subscribe(mask rcache.EventMask, handler func(rcache.Event)) (rcache.Token, error) {
	backoff := retry.WithMaxRetries(3, retry.NewConstant(5*time.Millisecond))

	var tok uint64
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.ready {
			return retry.RetryableError(errors.New("vmevent: source not ready"))
		}
		s.next++
		tok = s.next
		s.subs[tok] = &subscription{mask: mask, handler: handler}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// Unsubscribe releases a subscription obtained from Subscribe. An unknown
// or already-released token is a silent no-op, matching Destroy's
// best-effort unsubscribe.
func (s *MemSource) Unsubscribe(token rcache.Token) {
	tok, ok := token.(uint64)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.subs, tok)
	s.mu.Unlock()
}

func (s *MemSource) publish(ev rcache.Event) {
	s.mu.Lock()
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if matches(sub.mask, ev.Kind) {
			sub.handler(ev)
		}
	}
}

func matches(mask rcache.EventMask, kind rcache.EventKind) bool {
	switch kind {
	case rcache.EventKindUnmap:
		return mask&rcache.EventUnmap != 0
	case rcache.EventKindMemFree:
		return mask&rcache.EventMemKindFree != 0
	default:
		return false
	}
}

// Unmap notifies subscribers that [start, end) has been unmapped.
func (s *MemSource) Unmap(start, end uintptr) {
	s.publish(rcache.Event{Kind: rcache.EventKindUnmap, Start: start, End: end})
}

// FreeDevice notifies subscribers that a device allocation covering
// [start, end) has been freed.
func (s *MemSource) FreeDevice(start, end uintptr) {
	s.publish(rcache.Event{Kind: rcache.EventKindMemFree, Start: start, End: end})
}
