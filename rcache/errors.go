// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcache

import "fmt"

// Status is an errno-flavored error kind returned by Get and Create. It
// follows the same small-integer-with-String()/Error() shape as
// hanwen-go-fuse's fuse.Status: a handful of named constants, cheap to
// compare and to log.
type Status int32

const (
	// StatusOK indicates success. The zero value of Status is always OK,
	// so a freshly zeroed Status never reads as an error.
	StatusOK Status = iota

	// ErrNoResource covers event-source subscription failure and
	// allocation failure.
	ErrNoResource

	// ErrIOError covers a failing user register callback, and a merge
	// that failed its OS-protection dominance check — permission mismatch
	// folds into ErrIOError at the Get boundary rather than getting its
	// own status.
	ErrIOError

	// ErrInvalidArgument covers malformed requests and parameters:
	// zero-length ranges, an alignment that is not a power of two of at
	// least the page size, unknown event-mask bits, missing callbacks or
	// collaborators.
	ErrInvalidArgument
)

var statusNames = [...]string{
	StatusOK:           "ok",
	ErrNoResource:      "no-resource",
	ErrIOError:         "io-error",
	ErrInvalidArgument: "invalid-argument",
}

func (s Status) String() string {
	if int(s) >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("rcache.Status(%d)", int32(s))
}

// Error implements the error interface so a Status can be returned
// directly wherever Go code expects an error; StatusOK.Error() is never
// called in practice since Get/Create return a nil error on success.
func (s Status) Error() string {
	return s.String()
}

// Ok reports whether s is StatusOK.
func (s Status) Ok() bool {
	return s == StatusOK
}
