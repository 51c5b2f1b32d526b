// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package prefixblk

import (
	"encoding/binary"
	"slices"
	"sort"

	"github.com/cockroachdb/cfile/arena"
	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/cfile/internal/invariants"
	"github.com/cockroachdb/errors"
)

// Decoder decodes a prefix-compressed block.
//
// ParseHeader validates every entry of the block, so a decoder whose header
// parsed successfully never fails while moving its cursor.
type Decoder struct {
	ordinalBase     base.OrdinalPos
	data            []byte
	count           int
	restartInterval int
	// entries holds the encoded entries and restarts the encoded restart
	// offsets, excluding the trailing restart count.
	entries     []byte
	restarts    []byte
	numRestarts int

	// cur is the index of the entry under the cursor. When cur < count, key
	// holds its value and nextOff is the offset of the entry that follows it.
	cur     int
	key     []byte
	nextOff int
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
	*d = Decoder{data: b.Data, ordinalBase: b.OrdinalBase, key: d.key[:0]}
}

// ParseHeader implements block.Decoder.
func (d *Decoder) ParseHeader() error {
	count, err := block.ReadHeader(d.data, block.EncodingPrefix)
	if err != nil {
		return err
	}
	if len(d.data) < prefixLen+4 {
		return base.CorruptionErrorf("prefixblk: block of %d bytes is missing its restart table",
			errors.Safe(len(d.data)))
	}
	interval := binary.LittleEndian.Uint32(d.data[block.HeaderLen:prefixLen])
	if interval == 0 || interval > block.MaxEntries {
		return base.CorruptionErrorf("prefixblk: invalid restart interval %d", errors.Safe(interval))
	}
	numRestarts := uint64(binary.LittleEndian.Uint32(d.data[len(d.data)-4:]))
	if want := (uint64(count) + uint64(interval) - 1) / uint64(interval); numRestarts != want {
		return base.CorruptionErrorf("prefixblk: %d restarts for %d entries with restart interval %d",
			errors.Safe(numRestarts), errors.Safe(count), errors.Safe(interval))
	}
	if numRestarts > uint64(len(d.data)-prefixLen-4)/4 {
		return base.CorruptionErrorf("prefixblk: %d restarts do not fit in a block of %d bytes",
			errors.Safe(numRestarts), errors.Safe(len(d.data)))
	}
	restartsOff := len(d.data) - 4 - 4*int(numRestarts)
	d.entries = d.data[prefixLen:restartsOff]
	d.restarts = d.data[restartsOff : len(d.data)-4]
	d.numRestarts = int(numRestarts)
	d.restartInterval = int(interval)
	d.count = count
	if err := d.validateEntries(); err != nil {
		return err
	}
	d.parsed = true
	d.SeekToPositionInBlock(0)
	return nil
}

// validateEntries walks every entry, checking that it lies within the block,
// that it shares no more than the length of its predecessor, and that the
// restart table points at exactly the entries that share nothing.
func (d *Decoder) validateEntries() error {
	off, prevLen := 0, uint64(0)
	for i := 0; i < d.count; i++ {
		restart := i%d.restartInterval == 0
		if restart {
			if r := d.restartOffset(i / d.restartInterval); r != off {
				return base.CorruptionErrorf("prefixblk: restart %d at offset %d, expected %d",
					errors.Safe(i/d.restartInterval), errors.Safe(r), errors.Safe(off))
			}
		}
		shared, n := binary.Uvarint(d.entries[off:])
		if n <= 0 {
			return base.CorruptionErrorf("prefixblk: entry %d has a malformed shared length", errors.Safe(i))
		}
		off += n
		unshared, n := binary.Uvarint(d.entries[off:])
		if n <= 0 {
			return base.CorruptionErrorf("prefixblk: entry %d has a malformed unshared length", errors.Safe(i))
		}
		off += n
		if shared > prevLen || (restart && shared != 0) {
			return base.CorruptionErrorf("prefixblk: entry %d shares %d bytes with a %d byte predecessor",
				errors.Safe(i), errors.Safe(shared), errors.Safe(prevLen))
		}
		if unshared > uint64(len(d.entries)-off) {
			return base.CorruptionErrorf("prefixblk: entry %d at offset %d is truncated",
				errors.Safe(i), errors.Safe(off))
		}
		off += int(unshared)
		prevLen = shared + unshared
	}
	if off != len(d.entries) {
		return base.CorruptionErrorf("prefixblk: %d entries end at offset %d of a %d byte entry region",
			errors.Safe(d.count), errors.Safe(off), errors.Safe(len(d.entries)))
	}
	return nil
}

func (d *Decoder) assertParsed() {
	if invariants.Enabled && !d.parsed {
		panic(errors.AssertionFailedf("prefixblk: decoder used before ParseHeader"))
	}
}

func (d *Decoder) restartOffset(r int) int {
	return int(binary.LittleEndian.Uint32(d.restarts[4*r:]))
}

// decodeEntry decodes the entry at off, which must have been validated, and
// returns its shared length, its suffix, and the offset of the next entry.
func (d *Decoder) decodeEntry(off int) (shared int, suffix []byte, next int) {
	s, n := binary.Uvarint(d.entries[off:])
	off += n
	u, n := binary.Uvarint(d.entries[off:])
	off += n
	end := off + int(u)
	return int(s), d.entries[off:end:end], end
}

// restartKey returns the value of the restart point r. It aliases the block.
func (d *Decoder) restartKey(r int) []byte {
	_, suffix, _ := d.decodeEntry(d.restartOffset(r))
	return suffix
}

// loadEntry decodes the entry at off into key, which must hold the value of
// the preceding entry.
func (d *Decoder) loadEntry(off int) {
	shared, suffix, next := d.decodeEntry(off)
	d.key = append(d.key[:shared], suffix...)
	d.nextOff = next
}

func (d *Decoder) seekToRestart(r int) {
	d.cur = r * d.restartInterval
	d.loadEntry(d.restartOffset(r))
}

// next advances the cursor by one entry.
func (d *Decoder) next() {
	d.cur++
	if d.cur < d.count {
		d.loadEntry(d.nextOff)
	} else {
		d.key = d.key[:0]
	}
}

// Count implements block.Decoder.
func (d *Decoder) Count() int {
	return d.count
}

// RestartInterval returns the restart interval recorded in the block.
func (d *Decoder) RestartInterval() int {
	return d.restartInterval
}

// HasNext implements block.Decoder.
func (d *Decoder) HasNext() bool {
	return d.cur < d.count
}

// OrdinalPos implements block.Decoder.
func (d *Decoder) OrdinalPos() base.OrdinalPos {
	return d.ordinalBase.Add(d.cur)
}

// Value returns the value under the cursor. The returned slice is owned by
// the decoder and is invalidated by the next cursor movement.
func (d *Decoder) Value() []byte {
	if invariants.Enabled && d.cur >= d.count {
		panic(errors.AssertionFailedf("prefixblk: Value called at the end of the block"))
	}
	return d.key
}

// CopyNextValues implements block.Decoder. Values are copied into the sink's
// arena when it has one, and onto the heap otherwise. If the arena fills up,
// the values copied so far are reported through n along with the error.
func (d *Decoder) CopyNextValues(n *int, sink block.Sink[[]byte]) error {
	d.assertParsed()
	if *n <= 0 {
		*n = 0
		return nil
	}
	if sink.Remaining() <= 0 {
		return base.InvalidArgumentf("prefixblk: sink has no remaining capacity")
	}
	var a *arena.Arena
	if as, ok := sink.(block.ArenaSink); ok && as.Arena() != nil {
		a = as.Arena()
	}
	want := min(*n, invariants.SafeSub(d.count, d.cur), sink.Remaining())
	for i := 0; i < want; i++ {
		var v []byte
		if a != nil {
			var err error
			if v, err = a.Copy(d.key); err != nil {
				*n = i
				return err
			}
		} else {
			v = slices.Clone(d.key)
		}
		sink.Put(v)
		d.next()
	}
	*n = want
	return nil
}

// SeekToPositionInBlock implements block.Decoder. It decodes forward from the
// restart point preceding pos.
func (d *Decoder) SeekToPositionInBlock(pos int) {
	d.assertParsed()
	if pos < 0 || pos > d.count {
		panic(errors.AssertionFailedf("prefixblk: seek to position %d in a block of %d entries",
			errors.Safe(pos), errors.Safe(d.count)))
	}
	if pos == d.count {
		d.cur = pos
		d.key = d.key[:0]
		return
	}
	d.seekToRestart(pos / d.restartInterval)
	for d.cur < pos {
		d.next()
	}
}

// SeekAtOrAfterValue implements block.Decoder. It binary searches the restart
// points for the one preceding the first restart at or after target, then
// scans forward. The scan stops at the last entry, so a target past the end
// of the block returns base.ErrNotFound.
func (d *Decoder) SeekAtOrAfterValue(target []byte) (exact bool, err error) {
	d.assertParsed()
	r := sort.Search(d.numRestarts, func(r int) bool {
		return base.Compare(d.restartKey(r), target) >= 0
	})
	if r == 0 {
		if d.count == 0 {
			return false, base.ErrNotFound
		}
		d.seekToRestart(0)
	} else {
		d.seekToRestart(r - 1)
	}
	for d.cur < d.count {
		if c := base.Compare(d.key, target); c >= 0 {
			return c == 0, nil
		}
		d.next()
	}
	return false, base.ErrNotFound
}
