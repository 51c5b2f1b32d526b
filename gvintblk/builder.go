// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package gvintblk

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/cfile/internal/invariants"
	"github.com/cockroachdb/errors"
)

// Builder builds group-varint blocks of uint32 values.
//
// Values are buffered until Finish, since the frame of reference is the
// minimum of the whole block.
type Builder struct {
	blockSize int
	values    []uint32
	min       uint32
	// rawBytes is the sum of the widths of the values themselves. Since a
	// delta from the minimum is never wider than its value, it bounds the
	// encoded size of the deltas from above.
	rawBytes int
	buf      []byte
	finished bool
}

var _ block.Builder[uint32] = (*Builder)(nil)

// NewBuilder returns a builder configured with opts.
func NewBuilder(opts block.WriterOptions) *Builder {
	b := &Builder{}
	b.Init(opts)
	return b
}

// Init initializes the builder with opts, discarding any buffered values.
func (b *Builder) Init(opts block.WriterOptions) {
	opts = opts.EnsureDefaults()
	b.blockSize = opts.BlockSize
	b.Reset()
}

// Reset implements block.Builder.
func (b *Builder) Reset() {
	*b = Builder{
		blockSize: b.blockSize,
		values:    b.values[:0],
		min:       math.MaxUint32,
		buf:       b.buf[:0],
	}
}

// Count implements block.Builder.
func (b *Builder) Count() int {
	return len(b.values)
}

// EstimatedSize implements block.Builder. The estimate is an upper bound on
// the size of the finished block.
func (b *Builder) EstimatedSize() int {
	return estimatedSize(len(b.values), b.rawBytes)
}

func estimatedSize(n, rawBytes int) int {
	if n == 0 {
		return block.HeaderLen
	}
	groups := (n + groupSize - 1) / groupSize
	padding := groups*groupSize - n
	return block.HeaderLen + forLen + groups + rawBytes + padding
}

// Add implements block.Builder.
func (b *Builder) Add(values []uint32) int {
	if b.finished {
		panic(errors.AssertionFailedf("gvintblk: Add called on a finished builder"))
	}
	added := 0
	for _, v := range values {
		w := int(deltaWidth(v))
		if len(b.values) > 0 && estimatedSize(len(b.values)+1, b.rawBytes+w) > b.blockSize {
			break
		}
		if len(b.values) == block.MaxEntries {
			break
		}
		b.values = append(b.values, v)
		b.rawBytes += w
		b.min = min(b.min, v)
		added++
	}
	return added
}

// Finish implements block.Builder.
func (b *Builder) Finish(ordinalBase base.OrdinalPos) block.Block {
	if b.finished {
		panic(errors.AssertionFailedf("gvintblk: Finish called twice without Reset"))
	}
	b.finished = true

	n := len(b.values)
	b.buf = block.AppendHeader(b.buf[:0], block.EncodingGroupVarint, n)
	if n > 0 {
		b.buf = binary.LittleEndian.AppendUint32(b.buf, b.min)
		var deltas [groupSize]uint32
		for i := 0; i < n; i += groupSize {
			clear(deltas[:])
			for j := 0; j < groupSize && i+j < n; j++ {
				deltas[j] = b.values[i+j] - b.min
			}
			b.buf = slices.Grow(b.buf, maxGroupLen)
			g := encodeGroup(b.buf[len(b.buf):len(b.buf)+maxGroupLen], &deltas)
			b.buf = b.buf[:len(b.buf)+len(g)]
		}
	}
	if invariants.Enabled && len(b.buf) > b.EstimatedSize() {
		panic(errors.AssertionFailedf("gvintblk: block of %d bytes exceeds estimate %d",
			len(b.buf), b.EstimatedSize()))
	}
	return block.Block{Data: b.buf, OrdinalBase: ordinalBase}
}
