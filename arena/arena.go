// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package arena implements a bump allocator for short-lived byte buffers.
//
// Decoders that must materialize values (for example, prefix-compressed
// strings, which are not contiguous in the source block) copy them into an
// Arena supplied by the caller. Allocations are never freed individually:
// Reset releases everything at once and invalidates every slice previously
// returned by the arena. The caller is responsible for resetting only between
// independent decode batches, once no previously returned value is referenced.
//
// An Arena is not safe for concurrent use.
package arena

import (
	"github.com/cockroachdb/errors"
)

// ErrArenaFull is returned by Alloc when the arena cannot satisfy an
// allocation.
var ErrArenaFull = errors.New("allocation failed because arena is full")

// Arena is a bump allocator. The zero value is an arena with no capacity.
type Arena struct {
	// buf is the chunk allocations are currently carved from; n bytes of it
	// are in use.
	buf []byte
	n   int
	// retired holds full chunks that were replaced by a larger one. They are
	// kept reachable until Reset so previously returned slices stay valid.
	retired [][]byte
	// retiredUsed is the number of allocated bytes in retired chunks.
	retiredUsed int
	// maxChunk is the largest chunk the arena will allocate when growing.
	maxChunk int
	growable bool
}

// New returns a fixed-size arena that holds at most capacity bytes.
func New(capacity int) *Arena {
	return &Arena{
		buf:      make([]byte, capacity),
		maxChunk: capacity,
	}
}

// NewGrowable returns an arena whose first chunk holds initial bytes. When a
// chunk fills up the arena allocates a new one, doubling the chunk size up to
// maxChunk. A single allocation larger than maxChunk fails with ErrArenaFull.
func NewGrowable(initial, maxChunk int) *Arena {
	if maxChunk < initial {
		maxChunk = initial
	}
	return &Arena{
		buf:      make([]byte, initial),
		maxChunk: maxChunk,
		growable: true,
	}
}

// Size returns the number of bytes allocated since the last Reset.
func (a *Arena) Size() int {
	return a.retiredUsed + a.n
}

// Capacity returns the number of bytes held by the arena's chunks.
func (a *Arena) Capacity() int {
	c := len(a.buf)
	for _, r := range a.retired {
		c += len(r)
	}
	return c
}

// Alloc returns a slice of n bytes carved from the arena. The returned slice
// has a capacity of exactly n so that appending to it never clobbers a
// neighboring allocation. The contents are not zeroed after a Reset.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.AssertionFailedf("negative allocation size %d", n)
	}
	if a.n+n > len(a.buf) {
		if err := a.grow(n); err != nil {
			return nil, err
		}
	}
	b := a.buf[a.n : a.n+n : a.n+n]
	a.n += n
	return b, nil
}

// Copy allocates len(b) bytes and copies b into them.
func (a *Arena) Copy(b []byte) ([]byte, error) {
	buf, err := a.Alloc(len(b))
	if err != nil {
		return nil, err
	}
	copy(buf, b)
	return buf, nil
}

// Reset releases all allocations. Slices previously returned by Alloc or Copy
// must no longer be used. The largest chunk is kept for reuse.
func (a *Arena) Reset() {
	for i := range a.retired {
		a.retired[i] = nil
	}
	a.retired = a.retired[:0]
	a.retiredUsed = 0
	a.n = 0
}

func (a *Arena) grow(n int) error {
	if !a.growable || n > a.maxChunk {
		return ErrArenaFull
	}
	size := min(max(2*len(a.buf), n, 1), a.maxChunk)
	if a.n > 0 {
		a.retired = append(a.retired, a.buf)
		a.retiredUsed += a.n
	}
	a.buf = make([]byte, size)
	a.n = 0
	return nil
}
