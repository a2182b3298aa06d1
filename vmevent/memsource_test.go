// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vmevent

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeyedMir/ucx/rcache"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	s := NewMemSource()

	var got []rcache.Event
	var mu sync.Mutex
	tok, err := s.Subscribe(rcache.EventUnmap, func(ev rcache.Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})
	require.NoError(t, err)

	s.Unmap(0x1000, 0x2000)

	mu.Lock()
	require.Len(t, got, 1)
	assert.Equal(t, rcache.EventKindUnmap, got[0].Kind)
	mu.Unlock()

	s.Unsubscribe(tok)
	s.Unmap(0x2000, 0x3000)

	mu.Lock()
	assert.Len(t, got, 1, "no event should arrive after unsubscribe")
	mu.Unlock()
}

func TestEventMaskFiltersNotifications(t *testing.T) {
	s := NewMemSource()

	var unmaps, frees int
	var mu sync.Mutex
	_, err := s.Subscribe(rcache.EventMemKindFree, func(ev rcache.Event) {
		mu.Lock()
		defer mu.Unlock()
		switch ev.Kind {
		case rcache.EventKindUnmap:
			unmaps++
		case rcache.EventKindMemFree:
			frees++
		}
	})
	require.NoError(t, err)

	s.Unmap(0, 0x1000)
	s.FreeDevice(0, 0x1000)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, unmaps)
	assert.Equal(t, 1, frees)
}

func TestUnsubscribeUnknownTokenIsNoop(t *testing.T) {
	s := NewMemSource()
	assert.NotPanics(t, func() { s.Unsubscribe(uint64(99999)) })
	assert.NotPanics(t, func() { s.Unsubscribe("not-even-a-token") })
}

// TestSubscribeRetriesUntilReady exercises the go-retry backoff path: the
// source starts not-ready, so the first Subscribe attempts fail with a
// retryable error until SetReady flips it, all before the 3-retry budget
// runs out.
func TestSubscribeRetriesUntilReady(t *testing.T) {
	s := newUnreadyMemSource()

	go func() {
		time.Sleep(8 * time.Millisecond)
		s.SetReady(true)
	}()

	tok, err := s.Subscribe(rcache.EventUnmap, func(rcache.Event) {})
	require.NoError(t, err)
	assert.NotNil(t, tok)
}

func TestSubscribeFailsWhenNeverReady(t *testing.T) {
	s := newUnreadyMemSource()

	_, err := s.Subscribe(rcache.EventUnmap, func(rcache.Event) {})
	assert.Error(t, err)
}
