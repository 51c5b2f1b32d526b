// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package block defines what the column block codecs have in common: the
// Block type and its header, the Builder and Decoder contracts, the Sink that
// decoders write into, writer options, and the physical envelope (compression
// and checksum) applied at the storage boundary.
package block

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/errors"
)

// HeaderLen is the length of the header shared by every block encoding:
//
//	+------------------+--------------------------+
//	| encoding tag: u8 | entry count: u32 (LE)    |
//	+------------------+--------------------------+
//
// Encoding-specific metadata and the body follow the header.
const HeaderLen = 5

// MaxEntries is the maximum number of entries a single block may hold.
const MaxEntries = 1<<31 - 1

// FitsUint32 reports whether a region of n bytes grown by extra bytes can
// still be addressed with u32 offsets.
func FitsUint32(n, extra int) bool {
	return uint64(n)+uint64(extra) <= math.MaxUint32
}

// Block is an immutable encoded block together with the ordinal position of
// its first row. The ordinal base is not part of the encoded bytes; it is
// supplied to Finish and carried alongside the bytes by the caller.
//
// A Block is never mutated after it is produced, so any number of decoders
// may read the same Block concurrently.
type Block struct {
	Data        []byte
	OrdinalBase base.OrdinalPos
}

// Encoding returns the encoding tag recorded in the block's header.
func (b Block) Encoding() (EncodingType, error) {
	return PeekEncoding(b.Data)
}

// AppendHeader appends the common block header to dst.
func AppendHeader(dst []byte, enc EncodingType, count int) []byte {
	if count < 0 || count > MaxEntries {
		panic(errors.AssertionFailedf("invalid block entry count %d", count))
	}
	dst = append(dst, byte(enc))
	return binary.LittleEndian.AppendUint32(dst, uint32(count))
}

// PeekEncoding returns the encoding tag of the encoded block data.
func PeekEncoding(data []byte) (EncodingType, error) {
	if len(data) < HeaderLen {
		return 0, base.CorruptionErrorf("cfile: block of %d bytes is shorter than its header",
			errors.Safe(len(data)))
	}
	enc := EncodingType(data[0])
	if !enc.Valid() {
		return 0, base.CorruptionErrorf("cfile: unknown block encoding %d", errors.Safe(data[0]))
	}
	return enc, nil
}

// ReadHeader validates the common header of data, which must carry the given
// encoding, and returns the entry count.
func ReadHeader(data []byte, want EncodingType) (count int, err error) {
	enc, err := PeekEncoding(data)
	if err != nil {
		return 0, err
	}
	if enc != want {
		return 0, base.CorruptionErrorf("cfile: block encoding %s, expected %s", enc, want)
	}
	n := binary.LittleEndian.Uint32(data[1:HeaderLen])
	if n > MaxEntries {
		return 0, base.CorruptionErrorf("cfile: block entry count %d out of range", errors.Safe(n))
	}
	return int(n), nil
}
