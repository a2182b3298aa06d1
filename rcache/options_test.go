// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type noopClassifier struct{}

func (noopClassifier) Classify(context.Context, uintptr, uintptr) (Kind, error) { return nil, nil }

type noopProtChecker struct{}

func (noopProtChecker) Dominates(uintptr, uintptr, Prot) (bool, error) { return true, nil }

type noopEventSource struct{}

func (noopEventSource) Subscribe(EventMask, func(Event)) (Token, error) { return nil, nil }
func (noopEventSource) Unsubscribe(Token)                               {}

func validParams() Params {
	return Params{
		Alignment:   4096,
		Ops:         Ops{Register: func(*Cache, any, *Region) error { return nil }, Deregister: func(*Cache, *Region) {}},
		Classifier:  noopClassifier{},
		ProtChecker: noopProtChecker{},
		EventSource: noopEventSource{},
	}
}

func TestParamsValidate(t *testing.T) {
	p := validParams()
	assert.NoError(t, p.validate())

	bad := p
	bad.Alignment = 0
	assert.Error(t, bad.validate())

	bad = p
	bad.Alignment = 3 // not a power of two
	assert.Error(t, bad.validate())

	bad = p
	bad.Alignment = 1 // a power of two, but below the page-size floor
	assert.Error(t, bad.validate())

	bad = p
	bad.MaxAlignment = 1 // smaller than Alignment
	assert.Error(t, bad.validate())

	bad = p
	bad.EventMask = EventMask(1 << 31)
	assert.Error(t, bad.validate())

	bad = p
	bad.Ops.Register = nil
	assert.Error(t, bad.validate())

	bad = p
	bad.Ops.Deregister = nil
	assert.Error(t, bad.validate())

	bad = p
	bad.Classifier = nil
	assert.Error(t, bad.validate())

	bad = p
	bad.ProtChecker = nil
	assert.Error(t, bad.validate())

	bad = p
	bad.EventSource = nil
	assert.Error(t, bad.validate())
}
