// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package plainblk implements a block encoding for byte strings that stores
// the strings uncompressed behind a table of offsets.
//
// # Layout
//
//	+--------+-----------+----------------------+----------------------+
//	| tag u8 | count u32 | offsets: count × u32 | concatenated values  |
//	+--------+-----------+----------------------+----------------------+
//
// Offsets are relative to the start of the concatenated values. The i-th
// value spans [offset(i), offset(i+1)), and the last value extends to the end
// of the block.
//
// Decoded values alias the block's bytes, so decoding never copies and
// seeking to a position is a table lookup.
package plainblk

import (
	"encoding/binary"
	"sort"

	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/cfile/internal/binfmt"
	"github.com/cockroachdb/cfile/internal/invariants"
	"github.com/cockroachdb/errors"
)

// Builder builds plain blocks of byte strings.
type Builder struct {
	blockSize int
	offsets   []uint32
	values    []byte
	buf       []byte
	finished  bool
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
	b.Reset()
}

// Reset implements block.Builder.
func (b *Builder) Reset() {
	*b = Builder{
		blockSize: b.blockSize,
		offsets:   b.offsets[:0],
		values:    b.values[:0],
		buf:       b.buf[:0],
	}
}

// Count implements block.Builder.
func (b *Builder) Count() int {
	return len(b.offsets)
}

// EstimatedSize implements block.Builder. The estimate is exact.
func (b *Builder) EstimatedSize() int {
	return block.HeaderLen + 4*len(b.offsets) + len(b.values)
}

// Add implements block.Builder. The values are copied.
func (b *Builder) Add(values [][]byte) int {
	if b.finished {
		panic(errors.AssertionFailedf("plainblk: Add called on a finished builder"))
	}
	added := 0
	for _, v := range values {
		if len(b.offsets) > 0 && b.EstimatedSize()+4+len(v) > b.blockSize {
			break
		}
		if len(b.offsets) == block.MaxEntries || !block.FitsUint32(len(b.values), len(v)) {
			break
		}
		b.offsets = append(b.offsets, uint32(len(b.values)))
		b.values = append(b.values, v...)
		added++
	}
	return added
}

// Finish implements block.Builder.
func (b *Builder) Finish(ordinalBase base.OrdinalPos) block.Block {
	if b.finished {
		panic(errors.AssertionFailedf("plainblk: Finish called twice without Reset"))
	}
	b.finished = true
	b.buf = block.AppendHeader(b.buf[:0], block.EncodingPlain, len(b.offsets))
	for _, off := range b.offsets {
		b.buf = binary.LittleEndian.AppendUint32(b.buf, off)
	}
	b.buf = append(b.buf, b.values...)
	return block.Block{Data: b.buf, OrdinalBase: ordinalBase}
}

// Decoder decodes a plain block. Values it produces alias the block.
type Decoder struct {
	ordinalBase base.OrdinalPos
	data        []byte
	count       int
	// offsets is the encoded offsets table and values the concatenated
	// values that follow it.
	offsets []byte
	values  []byte
	cur     int
	parsed  bool
}

var _ block.Decoder[[]byte] = (*Decoder)(nil)

// NewDecoder returns a decoder over b. ParseHeader must be called before the
// decoder is used.
func NewDecoder(b block.Block) *Decoder {
	d := &Decoder{}
	d.Init(b)
	return d
}

// Init implements block.Decoder.
func (d *Decoder) Init(b block.Block) {
	*d = Decoder{data: b.Data, ordinalBase: b.OrdinalBase}
}

// ParseHeader implements block.Decoder.
func (d *Decoder) ParseHeader() error {
	count, err := block.ReadHeader(d.data, block.EncodingPlain)
	if err != nil {
		return err
	}
	if count > (len(d.data)-block.HeaderLen)/4 {
		return base.CorruptionErrorf("plainblk: offsets for %d entries do not fit in a block of %d bytes",
			errors.Safe(count), errors.Safe(len(d.data)))
	}
	valuesOff := block.HeaderLen + 4*count
	d.offsets = d.data[block.HeaderLen:valuesOff]
	d.values = d.data[valuesOff:]
	if count == 0 && len(d.values) > 0 {
		return base.CorruptionErrorf("plainblk: empty block has %d trailing bytes",
			errors.Safe(len(d.values)))
	}
	var prev uint32
	for i := 0; i < count; i++ {
		off := binary.LittleEndian.Uint32(d.offsets[4*i:])
		if (i == 0 && off != 0) || off < prev || int(off) > len(d.values) {
			return base.CorruptionErrorf("plainblk: offset %d of entry %d is out of order or out of bounds",
				errors.Safe(off), errors.Safe(i))
		}
		prev = off
	}
	d.count = count
	d.parsed = true
	return nil
}

func (d *Decoder) assertParsed() {
	if invariants.Enabled && !d.parsed {
		panic(errors.AssertionFailedf("plainblk: decoder used before ParseHeader"))
	}
}

// Count implements block.Decoder.
func (d *Decoder) Count() int {
	return d.count
}

// HasNext implements block.Decoder.
func (d *Decoder) HasNext() bool {
	return d.cur < d.count
}

// OrdinalPos implements block.Decoder.
func (d *Decoder) OrdinalPos() base.OrdinalPos {
	return d.ordinalBase.Add(d.cur)
}

// At returns the i-th value of the block. The returned slice aliases the
// block and has no spare capacity.
func (d *Decoder) At(i int) []byte {
	invariants.CheckBounds(i, d.count)
	start := binary.LittleEndian.Uint32(d.offsets[4*i:])
	end := uint32(len(d.values))
	if i+1 < d.count {
		end = binary.LittleEndian.Uint32(d.offsets[4*(i+1):])
	}
	return d.values[start:end:end]
}

// CopyNextValues implements block.Decoder. The values written to the sink
// alias the block.
func (d *Decoder) CopyNextValues(n *int, sink block.Sink[[]byte]) error {
	d.assertParsed()
	if *n <= 0 {
		*n = 0
		return nil
	}
	if sink.Remaining() <= 0 {
		return base.InvalidArgumentf("plainblk: sink has no remaining capacity")
	}
	want := min(*n, invariants.SafeSub(d.count, d.cur), sink.Remaining())
	for i := 0; i < want; i++ {
		sink.Put(d.At(d.cur))
		d.cur++
	}
	*n = want
	return nil
}

// SeekToPositionInBlock implements block.Decoder.
func (d *Decoder) SeekToPositionInBlock(pos int) {
	d.assertParsed()
	if pos < 0 || pos > d.count {
		panic(errors.AssertionFailedf("plainblk: seek to position %d in a block of %d entries",
			errors.Safe(pos), errors.Safe(d.count)))
	}
	d.cur = pos
}

// SeekAtOrAfterValue implements block.Decoder. The values of the block must
// be sorted.
func (d *Decoder) SeekAtOrAfterValue(target []byte) (exact bool, err error) {
	d.assertParsed()
	i := sort.Search(d.count, func(i int) bool {
		return base.Compare(d.At(i), target) >= 0
	})
	if i == d.count {
		return false, base.ErrNotFound
	}
	d.cur = i
	return base.Equal(d.At(i), target), nil
}

// Describe returns an annotated hex rendering of the block's layout. The block
// is validated first; a malformed block is reported as an error.
func Describe(b block.Block) (string, error) {
	d := NewDecoder(b)
	if err := d.ParseHeader(); err != nil {
		return "", err
	}
	f := binfmt.New(b.Data)
	f.HexBytesln(1, "encoding: %s", block.EncodingPlain)
	f.Uint32("entry count")
	for i := 0; i < d.count; i++ {
		f.Uint32("offset of row %d", i)
	}
	for i := 0; i < d.count; i++ {
		v := d.At(i)
		if len(v) == 0 {
			f.Comment("row %d: empty", i)
			continue
		}
		f.HexBytesln(len(v), "row %d: %s", i, base.FormatBytes(v))
	}
	return f.String(), nil
}
