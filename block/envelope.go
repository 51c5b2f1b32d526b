// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"encoding/binary"
	"hash/crc32"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/cfile/internal/bitflip"
	"github.com/cockroachdb/cfile/internal/compression"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// TrailerLen is the length of the trailer appended to a sealed block:
//
//	+--------------------+-------------------+
//	| compression: u8    | checksum: u64 LE  |
//	+--------------------+-------------------+
//
// The checksum covers the (possibly compressed) payload and the compression
// byte.
const TrailerLen = 9

// ChecksumType specifies the checksum used for sealed blocks.
type ChecksumType byte

// The available checksum types. These values are part of the durable format
// and should not be changed.
const (
	ChecksumTypeNone     ChecksumType = 0
	ChecksumTypeCRC32c   ChecksumType = 1
	ChecksumTypeXXHash64 ChecksumType = 3
)

// String implements fmt.Stringer.
func (t ChecksumType) String() string {
	switch t {
	case ChecksumTypeCRC32c:
		return "crc32c"
	case ChecksumTypeNone:
		return "none"
	case ChecksumTypeXXHash64:
		return "xxhash64"
	default:
		return "unknown"
	}
}

// SafeFormat implements redact.SafeFormatter.
func (t ChecksumType) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(t.String()))
}

// Valid returns true if t is a checksum that blocks can be sealed with.
func (t ChecksumType) Valid() bool {
	return t == ChecksumTypeCRC32c || t == ChecksumTypeXXHash64
}

// ParseChecksumType parses the name produced by ChecksumType.String.
func ParseChecksumType(s string) (ChecksumType, error) {
	switch s {
	case "crc32c":
		return ChecksumTypeCRC32c, nil
	case "xxhash64":
		return ChecksumTypeXXHash64, nil
	default:
		return 0, errors.Newf("unknown checksum type %q", s)
	}
}

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// checksumFunc returns the function computing checksums of type t.
func checksumFunc(t ChecksumType) (func([]byte) uint64, error) {
	switch t {
	case ChecksumTypeCRC32c:
		return func(b []byte) uint64 { return uint64(crc32.Checksum(b, crc32cTable)) }, nil
	case ChecksumTypeXXHash64:
		return xxhash.Sum64, nil
	default:
		return nil, errors.Newf("unsupported checksum type: %d", errors.Safe(t))
	}
}

// minCompressionSavings is the fraction (1/8) of a block's size compression
// must save for the compressed form to be kept.
const minCompressionSavings = 8

// Seal compresses data with the given algorithm, falling back to no
// compression when it does not save enough space, and appends the trailer.
// The result is appended to dst[:0]; data is not modified.
func Seal(dst, data []byte, algo compression.Algorithm, ck ChecksumType) []byte {
	sum, err := checksumFunc(ck)
	if err != nil {
		panic(errors.WithAssertionFailure(err))
	}
	c := compression.GetCompressor(algo)
	dst = c.Compress(dst[:0], data)
	c.Close()
	if algo != compression.NoCompression && len(dst) >= len(data)-len(data)/minCompressionSavings {
		algo = compression.NoCompression
		dst = append(dst[:0], data...)
	}
	dst = append(dst, byte(algo))
	return binary.LittleEndian.AppendUint64(dst, sum(dst))
}

// Open verifies the checksum of a sealed block and returns the decompressed
// block data. A checksum mismatch, an unknown compression algorithm or a
// payload that does not decompress is reported as a corruption error. When
// the block was stored uncompressed the returned slice aliases sealed.
func Open(sealed []byte, ck ChecksumType) ([]byte, error) {
	if len(sealed) < TrailerLen {
		return nil, base.CorruptionErrorf("cfile: sealed block of %d bytes is shorter than its trailer",
			errors.Safe(len(sealed)))
	}
	sum, err := checksumFunc(ck)
	if err != nil {
		return nil, err
	}
	n := len(sealed) - TrailerLen
	expected := binary.LittleEndian.Uint64(sealed[n+1:])
	if computed := sum(sealed[:n+1]); computed != expected {
		// Check whether the mismatch is due to a single bit flip and report it.
		data := slices.Clone(sealed[:n+1])
		if found, idx, bit := bitflip.CheckSliceForBitFlip(data, sum, expected); found {
			return nil, base.CorruptionErrorf(
				"cfile: %s checksum mismatch %x != %x; bit flip found: byte index %d. got: %x. want: %x",
				ck, errors.Safe(expected), errors.Safe(computed),
				errors.Safe(idx), errors.Safe(data[idx]), errors.Safe(data[idx]^(1<<bit)))
		}
		return nil, base.CorruptionErrorf("cfile: %s checksum mismatch %x != %x",
			ck, errors.Safe(expected), errors.Safe(computed))
	}
	algo := compression.Algorithm(sealed[n])
	if algo == compression.NoCompression {
		return sealed[:n:n], nil
	}
	if algo >= compression.NumAlgorithms {
		return nil, base.CorruptionErrorf("cfile: unknown compression algorithm %d", errors.Safe(sealed[n]))
	}
	data, err := compression.Decompress(algo, sealed[:n])
	if err != nil {
		return nil, base.MarkCorruptionError(err)
	}
	return data, nil
}
