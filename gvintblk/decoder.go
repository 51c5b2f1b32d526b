// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package gvintblk

import (
	"encoding/binary"
	"sort"

	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/cfile/internal/invariants"
	"github.com/cockroachdb/errors"
)

// Decoder decodes a group-varint block.
type Decoder struct {
	data        []byte
	ordinalBase base.OrdinalPos
	count       int
	frameOfRef  uint32
	// groupOffsets holds the offset of each group's selector byte within
	// data.
	groupOffsets []uint32
	// cur is the in-block offset of the cursor.
	cur int
	// group caches the decoded values of the group at index groupIdx.
	group    [groupSize]uint32
	groupIdx int
	parsed   bool
}

var _ block.Decoder[uint32] = (*Decoder)(nil)

// NewDecoder returns a decoder over b. ParseHeader must be called before the
// decoder is used.
func NewDecoder(b block.Block) *Decoder {
	d := &Decoder{}
	d.Init(b)
	return d
}

// Init implements block.Decoder.
func (d *Decoder) Init(b block.Block) {
	*d = Decoder{
		data:         b.Data,
		ordinalBase:  b.OrdinalBase,
		groupOffsets: d.groupOffsets[:0],
		groupIdx:     -1,
	}
}

// ParseHeader implements block.Decoder.
func (d *Decoder) ParseHeader() error {
	count, err := block.ReadHeader(d.data, block.EncodingGroupVarint)
	if err != nil {
		return err
	}
	if count == 0 {
		if len(d.data) != block.HeaderLen {
			return base.CorruptionErrorf("gvintblk: empty block has %d trailing bytes",
				errors.Safe(len(d.data)-block.HeaderLen))
		}
		d.count = 0
		d.parsed = true
		return nil
	}
	off := block.HeaderLen + forLen
	if len(d.data) < off {
		return base.CorruptionErrorf("gvintblk: block of %d bytes is missing its frame of reference",
			errors.Safe(len(d.data)))
	}
	d.frameOfRef = binary.LittleEndian.Uint32(d.data[block.HeaderLen:])

	groups := (count + groupSize - 1) / groupSize
	// Every group takes at least 5 bytes, which bounds the group count before
	// the offsets table is allocated.
	if groups > (len(d.data)-off)/(1+groupSize) {
		return base.CorruptionErrorf("gvintblk: %d entries do not fit in a block of %d bytes",
			errors.Safe(count), errors.Safe(len(d.data)))
	}
	d.groupOffsets = d.groupOffsets[:0]
	for g := 0; g < groups; g++ {
		if off >= len(d.data) {
			return base.CorruptionErrorf("gvintblk: group %d starts past the end of the block", errors.Safe(g))
		}
		next := off + int(groupLen[d.data[off]])
		if next > len(d.data) {
			return base.CorruptionErrorf("gvintblk: group %d at offset %d is truncated",
				errors.Safe(g), errors.Safe(off))
		}
		d.groupOffsets = append(d.groupOffsets, uint32(off))
		off = next
	}
	if off != len(d.data) {
		return base.CorruptionErrorf("gvintblk: %d entries end at offset %d of a %d byte block",
			errors.Safe(count), errors.Safe(off), errors.Safe(len(d.data)))
	}
	d.count = count
	d.parsed = true
	return nil
}

func (d *Decoder) assertParsed() {
	if invariants.Enabled && !d.parsed {
		panic(errors.AssertionFailedf("gvintblk: decoder used before ParseHeader"))
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

// MinValue returns the block's frame of reference.
func (d *Decoder) MinValue() uint32 {
	return d.frameOfRef
}

// loadGroup decodes group g into the group cache.
func (d *Decoder) loadGroup(g int) {
	if d.groupIdx == g && !invariants.Sometimes(10) {
		return
	}
	invariants.CheckBounds(g, len(d.groupOffsets))
	decodeGroup(&d.group, d.data[d.groupOffsets[g]:], d.frameOfRef)
	d.groupIdx = g
}

// valueAt returns the i-th value of the block.
func (d *Decoder) valueAt(i int) uint32 {
	d.loadGroup(i / groupSize)
	return d.group[i%groupSize]
}

// CopyNextValues implements block.Decoder.
func (d *Decoder) CopyNextValues(n *int, sink block.Sink[uint32]) error {
	d.assertParsed()
	if *n <= 0 {
		*n = 0
		return nil
	}
	if sink.Remaining() <= 0 {
		return base.InvalidArgumentf("gvintblk: sink has no remaining capacity")
	}
	want := min(*n, invariants.SafeSub(d.count, d.cur), sink.Remaining())
	for i := 0; i < want; i++ {
		sink.Put(d.valueAt(d.cur))
		d.cur++
	}
	*n = want
	return nil
}

// SeekToPositionInBlock implements block.Decoder.
func (d *Decoder) SeekToPositionInBlock(pos int) {
	d.assertParsed()
	if pos < 0 || pos > d.count {
		panic(errors.AssertionFailedf("gvintblk: seek to position %d in a block of %d entries",
			errors.Safe(pos), errors.Safe(d.count)))
	}
	d.cur = pos
}

// SeekAtOrAfterValue implements block.Decoder. The values of the block must
// be sorted in non-decreasing order.
func (d *Decoder) SeekAtOrAfterValue(target uint32) (exact bool, err error) {
	d.assertParsed()
	groups := len(d.groupOffsets)
	// Find the first group whose first value is >= target. The first value
	// >= target is either in the preceding group or is that group's first
	// value.
	g := sort.Search(groups, func(i int) bool {
		return firstValue(d.data[d.groupOffsets[i]:], d.frameOfRef) >= target
	})
	if g > 0 {
		d.loadGroup(g - 1)
		start := (g - 1) * groupSize
		for i := start; i < min(start+groupSize, d.count); i++ {
			if v := d.group[i-start]; v >= target {
				d.cur = i
				return v == target, nil
			}
		}
	}
	if g == groups {
		return false, base.ErrNotFound
	}
	d.cur = g * groupSize
	return d.valueAt(d.cur) == target, nil
}
