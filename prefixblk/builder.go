// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package prefixblk implements a block encoding for sorted byte strings that
// stores each string as the length of the prefix it shares with its
// predecessor followed by the remaining suffix.
//
// # Layout
//
//	+--------+-----------+----------------------+
//	| tag u8 | count u32 | restart interval u32 |
//	+--------+-----------+----------------------+
//	| entry 0 | entry 1 | ... | entry count-1   |
//	+-----------------------------------------------+
//	| restart offsets: nRestarts × u32 | nRestarts u32 |
//	+-----------------------------------------------+
//
// Each entry is
//
//	+----------------+------------------+---------------+
//	| shared uvarint | unshared uvarint | suffix bytes  |
//	+----------------+------------------+---------------+
//
// Every restart interval'th entry is a restart point: it shares nothing with
// its predecessor and so can be decoded on its own. The restart offsets are
// relative to the first entry. Decoding an arbitrary entry means decoding
// forward from the restart point that precedes it.
package prefixblk

import (
	"encoding/binary"

	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/cfile/internal/invariants"
	"github.com/cockroachdb/crlib/crencoding"
	"github.com/cockroachdb/errors"
)

// prefixLen is the length of the fixed portion of a block that precedes the
// entries.
const prefixLen = block.HeaderLen + 4

// Builder builds prefix-compressed blocks of byte strings. Values should be
// added in sorted order; unsorted values round trip, but seeks over them are
// meaningless.
type Builder struct {
	blockSize       int
	restartInterval int
	count           int
	prev            []byte
	entries         []byte
	restarts        []uint32
	buf             []byte
	finished        bool
}

var _ block.Builder[[]byte] = (*Builder)(nil)

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
	b.restartInterval = opts.RestartInterval
	b.Reset()
}

// Reset implements block.Builder.
func (b *Builder) Reset() {
	*b = Builder{
		blockSize:       b.blockSize,
		restartInterval: b.restartInterval,
		prev:            b.prev[:0],
		entries:         b.entries[:0],
		restarts:        b.restarts[:0],
		buf:             b.buf[:0],
	}
}

// Count implements block.Builder.
func (b *Builder) Count() int {
	return b.count
}

// EstimatedSize implements block.Builder. The estimate is exact.
func (b *Builder) EstimatedSize() int {
	return prefixLen + len(b.entries) + 4*len(b.restarts) + 4
}

// Add implements block.Builder. The values are copied.
func (b *Builder) Add(values [][]byte) int {
	if b.finished {
		panic(errors.AssertionFailedf("prefixblk: Add called on a finished builder"))
	}
	added := 0
	for _, v := range values {
		restart := b.count%b.restartInterval == 0
		shared := 0
		if !restart {
			shared = base.SharedPrefixLen(b.prev, v)
		}
		unshared := len(v) - shared
		if !block.FitsUint32(unshared, 0) {
			break
		}
		entryLen := crencoding.UvarintLen32(uint32(shared)) +
			crencoding.UvarintLen32(uint32(unshared)) + unshared
		extra := entryLen
		if restart {
			extra += 4
		}
		if b.count > 0 && b.EstimatedSize()+extra > b.blockSize {
			break
		}
		if b.count == block.MaxEntries || !block.FitsUint32(len(b.entries), entryLen) {
			break
		}
		if restart {
			b.restarts = append(b.restarts, uint32(len(b.entries)))
		}
		b.entries = binary.AppendUvarint(b.entries, uint64(shared))
		b.entries = binary.AppendUvarint(b.entries, uint64(unshared))
		b.entries = append(b.entries, v[shared:]...)
		b.prev = append(b.prev[:0], v...)
		b.count++
		added++
	}
	return added
}

// Finish implements block.Builder.
func (b *Builder) Finish(ordinalBase base.OrdinalPos) block.Block {
	if b.finished {
		panic(errors.AssertionFailedf("prefixblk: Finish called twice without Reset"))
	}
	b.finished = true
	b.buf = block.AppendHeader(b.buf[:0], block.EncodingPrefix, b.count)
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(b.restartInterval))
	b.buf = append(b.buf, b.entries...)
	for _, off := range b.restarts {
		b.buf = binary.LittleEndian.AppendUint32(b.buf, off)
	}
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(len(b.restarts)))
	if invariants.Enabled && len(b.buf) != b.EstimatedSize() {
		panic(errors.AssertionFailedf("prefixblk: block is %d bytes, estimated %d",
			errors.Safe(len(b.buf)), errors.Safe(b.EstimatedSize())))
	}
	return block.Block{Data: b.buf, OrdinalBase: ordinalBase}
}
