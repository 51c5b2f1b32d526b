// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import "github.com/cockroachdb/cfile/internal/base"

// Builder accumulates values into a single block.
//
// A Builder is used by a single goroutine. Its lifecycle is: zero or more
// calls to Add, then exactly one call to Finish. Reset returns the builder to
// its initial state, retaining its buffers. Calling Add or Finish on a
// finished builder that has not been Reset is a programming error and panics.
type Builder[T any] interface {
	// Add appends values to the block and returns the number accepted. Fewer
	// than len(values) are accepted once the block would exceed its size
	// budget; the caller finishes this block and adds the remainder to a new
	// one. An empty builder always accepts at least one value.
	Add(values []T) int
	// Count returns the number of values added since the last Reset.
	Count() int
	// EstimatedSize returns the size the block would have if it were finished
	// now.
	EstimatedSize() int
	// Finish serializes the block. The returned block's data remains valid
	// until the builder is Reset.
	Finish(ordinalBase base.OrdinalPos) Block
	// Reset clears the builder for a new block.
	Reset()
}

// Decoder reads values from a single block.
//
// A Decoder holds private cursor state and must not be used by more than one
// goroutine at a time. Distinct decoders may share the same Block.
type Decoder[T any] interface {
	// Init points the decoder at a block. ParseHeader must be called before
	// any other method.
	Init(b Block)
	// ParseHeader validates the block and positions the cursor at the first
	// value. An error is always a corruption error; after it the decoder is
	// unusable until Init is called again.
	ParseHeader() error
	// Count returns the number of values in the block.
	Count() int
	// HasNext returns true if the cursor is positioned before a value.
	HasNext() bool
	// OrdinalPos returns the ordinal position of the cursor: the block's
	// ordinal base plus the cursor's in-block offset.
	OrdinalPos() base.OrdinalPos
	// CopyNextValues decodes up to *n values into sink and advances the
	// cursor past them. On return *n holds the number of values copied, which
	// is bounded by the remaining values and by sink.Remaining().
	CopyNextValues(n *int, sink Sink[T]) error
	// SeekToPositionInBlock positions the cursor at the given in-block
	// offset. Seeking to Count() positions the cursor past the last value.
	SeekToPositionInBlock(pos int)
	// SeekAtOrAfterValue positions the cursor at the first value >= target,
	// reporting whether that value equals target. It returns base.ErrNotFound
	// if every value is < target, in which case the cursor position is
	// unspecified.
	SeekAtOrAfterValue(target T) (exact bool, err error)
}
