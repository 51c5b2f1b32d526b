// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package cfile provides columnar block encodings for a single column of
// uint32 or byte string values, and a stream format that stores a column as
// a sequence of checksummed, optionally compressed blocks.
//
// A column is encoded into blocks by a block.Builder and decoded by a
// block.Decoder. Three encodings are available:
//
//   - gvintblk: uint32 values, frame-of-reference group varint.
//   - plainblk: byte strings, stored verbatim behind an offsets table.
//   - prefixblk: sorted byte strings, prefix-compressed with restart points.
//
// Every value in a column is identified by its ordinal position. A block
// carries the ordinal of its first value, and the values of consecutive
// blocks have consecutive ordinals.
package cfile

import (
	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/gvintblk"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/cfile/plainblk"
	"github.com/cockroachdb/cfile/prefixblk"
	"github.com/cockroachdb/errors"
)

// Exported errors.
var (
	// ErrNotFound is returned by seeks that find no value at or after their
	// target.
	ErrNotFound = base.ErrNotFound
	// ErrCorruption marks errors caused by malformed blocks or streams.
	ErrCorruption = base.ErrCorruption
	// ErrInvalidArgument marks errors caused by calls that violate a
	// precondition, such as decoding into a full sink.
	ErrInvalidArgument = base.ErrInvalidArgument
)

// OrdinalPos is the position of a value within its column.
type OrdinalPos = base.OrdinalPos

// Logger defines an interface for writing log messages.
type Logger = base.Logger

// IsCorruptionError returns true if the given error indicates corruption.
func IsCorruptionError(err error) bool {
	return base.IsCorruptionError(err)
}

func checkValueType(enc block.EncodingType, want block.ValueType) error {
	if !enc.Valid() {
		return base.InvalidArgumentf("cfile: unknown encoding %d", errors.Safe(uint8(enc)))
	}
	if vt := enc.ValueType(); vt != want {
		return base.InvalidArgumentf("cfile: %s blocks hold %s values, not %s", enc, vt, want)
	}
	return nil
}

// NewUint32Builder returns a builder for uint32 values in the given encoding.
func NewUint32Builder(enc block.EncodingType, opts block.WriterOptions) (block.Builder[uint32], error) {
	if err := checkValueType(enc, block.ValueTypeUint32); err != nil {
		return nil, err
	}
	return gvintblk.NewBuilder(opts), nil
}

// NewBytesBuilder returns a builder for byte string values in the given
// encoding.
func NewBytesBuilder(enc block.EncodingType, opts block.WriterOptions) (block.Builder[[]byte], error) {
	if err := checkValueType(enc, block.ValueTypeBytes); err != nil {
		return nil, err
	}
	switch enc {
	case block.EncodingPlain:
		return plainblk.NewBuilder(opts), nil
	default:
		return prefixblk.NewBuilder(opts), nil
	}
}

// NewUint32Decoder returns a decoder for a block of uint32 values, choosing
// the decoder from the encoding recorded in the block. The block's header has
// been parsed when NewUint32Decoder returns.
func NewUint32Decoder(b block.Block) (block.Decoder[uint32], error) {
	enc, err := b.Encoding()
	if err != nil {
		return nil, err
	}
	if err := checkValueType(enc, block.ValueTypeUint32); err != nil {
		return nil, err
	}
	d := gvintblk.NewDecoder(b)
	if err := d.ParseHeader(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewBytesDecoder returns a decoder for a block of byte strings, choosing the
// decoder from the encoding recorded in the block. The block's header has been
// parsed when NewBytesDecoder returns.
func NewBytesDecoder(b block.Block) (block.Decoder[[]byte], error) {
	enc, err := b.Encoding()
	if err != nil {
		return nil, err
	}
	if err := checkValueType(enc, block.ValueTypeBytes); err != nil {
		return nil, err
	}
	var d block.Decoder[[]byte]
	switch enc {
	case block.EncodingPlain:
		d = plainblk.NewDecoder(b)
	default:
		d = prefixblk.NewDecoder(b)
	}
	if err := d.ParseHeader(); err != nil {
		return nil, err
	}
	return d, nil
}

// Describe returns an annotated hex rendering of the layout of a block in
// any encoding.
func Describe(b block.Block) (string, error) {
	enc, err := b.Encoding()
	if err != nil {
		return "", err
	}
	switch enc {
	case block.EncodingGroupVarint:
		return gvintblk.Describe(b)
	case block.EncodingPlain:
		return plainblk.Describe(b)
	case block.EncodingPrefix:
		return prefixblk.Describe(b)
	default:
		return "", errors.AssertionFailedf("cfile: unhandled encoding %s", enc)
	}
}
