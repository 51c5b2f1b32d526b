// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package gvintblk implements a block encoding for uint32 values using
// group-varint compression relative to a per-block frame of reference.
//
// # Layout
//
//	+--------+-----------+---------------------+-------------------------------+
//	| tag u8 | count u32 | frame-of-ref min u32| groups ...                    |
//	+--------+-----------+---------------------+-------------------------------+
//
// The frame of reference and the groups are present only when count > 0, so
// an empty block is exactly block.HeaderLen bytes.
//
// Values are stored in groups of four as deltas from the block minimum. Each
// group starts with a selector byte; bits 2i and 2i+1 hold the byte width of
// the i-th delta minus one. The deltas follow, little-endian, each in its
// indicated width. The final group is padded with zero deltas, which take one
// byte each.
//
// Every group decodes independently. The decoder indexes the byte offset of
// each group when parsing the header, so seeking to a position costs a
// division and a group decode.
package gvintblk

import (
	"encoding/binary"
	"math/bits"
)

const (
	// groupSize is the number of values in a group.
	groupSize = 4
	// maxGroupLen is the largest encoded group: a selector followed by four
	// 4-byte deltas.
	maxGroupLen = 1 + 4*groupSize
	// forLen is the length of the frame of reference.
	forLen = 4
)

// width is the closed set of byte widths a delta may be stored in.
type width uint8

// deltaWidth returns the number of bytes needed to store v.
func deltaWidth(v uint32) width {
	return width(4 - bits.LeadingZeros32(v|1)/8)
}

// groupLen maps a selector byte to the encoded length of its group, including
// the selector itself.
var groupLen [256]uint8

func init() {
	for sel := 0; sel < 256; sel++ {
		n := 1
		for i := 0; i < groupSize; i++ {
			n += int((sel>>(2*i))&3) + 1
		}
		groupLen[sel] = uint8(n)
	}
}

// encodeGroup encodes four deltas into dst, which must have room for
// maxGroupLen bytes, and returns the encoded prefix of dst.
func encodeGroup(dst []byte, deltas *[groupSize]uint32) []byte {
	var sel byte
	off := 1
	for i, d := range deltas {
		// Writing a full word and then advancing by the delta's width leaves
		// the bytes beyond the width to be overwritten by the next delta.
		binary.LittleEndian.PutUint32(dst[off:], d)
		w := deltaWidth(d)
		sel |= byte(w-1) << (2 * i)
		off += int(w)
	}
	dst[0] = sel
	return dst[:off]
}

var mask = [4]uint32{0xff, 0xffff, 0xffffff, 0xffffffff}

// decodeGroup decodes the group at the start of src into dst, adding the
// frame of reference to each delta. The caller guarantees src holds the
// complete group.
func decodeGroup(dst *[groupSize]uint32, src []byte, frameOfRef uint32) {
	sel := src[0]
	src = src[1:]
	for i := range dst {
		b := sel & 3
		dst[i] = frameOfRef + loadDelta(src, mask[b])
		src = src[1+b:]
		sel >>= 2
	}
}

// firstValue decodes only the first value of the group at the start of src.
func firstValue(src []byte, frameOfRef uint32) uint32 {
	return frameOfRef + loadDelta(src[1:], mask[src[0]&3])
}

func loadDelta(src []byte, mask uint32) uint32 {
	if len(src) >= 4 {
		return binary.LittleEndian.Uint32(src) & mask
	}
	switch mask {
	case 0xff:
		return uint32(src[0])
	case 0xffff:
		return uint32(binary.LittleEndian.Uint16(src))
	case 0xffffff:
		return uint32(binary.LittleEndian.Uint16(src)) | uint32(src[2])<<16
	case 0xffffffff:
		return binary.LittleEndian.Uint32(src)
	}
	return 0
}
