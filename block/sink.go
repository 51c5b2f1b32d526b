// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import "github.com/cockroachdb/cfile/arena"

// Sink is a bounded destination that decoders write values into. A decoder
// never calls Put more than Remaining times.
type Sink[T any] interface {
	// Remaining returns the number of values the sink can still accept.
	Remaining() int
	// Put appends a value to the sink.
	Put(v T)
}

// ArenaSink is implemented by sinks that provide scratch memory for values a
// decoder must materialize because they are not contiguous in the block.
// Values copied into the arena remain valid until the arena is reset.
type ArenaSink interface {
	Arena() *arena.Arena
}

// ColumnBlock is a Sink backed by a fixed number of cells and an optional
// arena.
type ColumnBlock[T any] struct {
	cells []T
	n     int
	arena *arena.Arena
}

var _ Sink[uint32] = (*ColumnBlock[uint32])(nil)
var _ ArenaSink = (*ColumnBlock[[]byte])(nil)

// NewColumnBlock returns a sink with room for capacity values. The arena may
// be nil.
func NewColumnBlock[T any](capacity int, a *arena.Arena) *ColumnBlock[T] {
	return &ColumnBlock[T]{cells: make([]T, capacity), arena: a}
}

// Remaining implements Sink.
func (c *ColumnBlock[T]) Remaining() int {
	return len(c.cells) - c.n
}

// Put implements Sink.
func (c *ColumnBlock[T]) Put(v T) {
	c.cells[c.n] = v
	c.n++
}

// Arena implements ArenaSink.
func (c *ColumnBlock[T]) Arena() *arena.Arena {
	return c.arena
}

// Len returns the number of values written since the last Reset.
func (c *ColumnBlock[T]) Len() int {
	return c.n
}

// Values returns the values written since the last Reset.
func (c *ColumnBlock[T]) Values() []T {
	return c.cells[:c.n]
}

// Reset empties the sink. It does not reset the arena: values previously
// materialized into it stay valid until the arena's owner resets it.
func (c *ColumnBlock[T]) Reset() {
	clear(c.cells[:c.n])
	c.n = 0
}
