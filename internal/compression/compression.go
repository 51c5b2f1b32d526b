// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package compression wraps the general-purpose compressors that may be
// applied to an encoded block before it is handed to storage.
package compression

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// Algorithm identifies a compression algorithm. The numeric value is
// persisted in the block envelope and must not change.
type Algorithm uint8

const (
	NoCompression Algorithm = iota
	Snappy
	Zstd
	MinLZ

	NumAlgorithms
)

var algorithmNames = [NumAlgorithms]string{
	NoCompression: "none",
	Snappy:        "snappy",
	Zstd:          "zstd",
	MinLZ:         "minlz",
}

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	if a < NumAlgorithms {
		return algorithmNames[a]
	}
	return "unknown"
}

// SafeFormat implements redact.SafeFormatter.
func (a Algorithm) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(a.String()))
}

// ParseAlgorithm returns the algorithm with the given name.
func ParseAlgorithm(s string) (Algorithm, error) {
	for a := Algorithm(0); a < NumAlgorithms; a++ {
		if algorithmNames[a] == s {
			return a, nil
		}
	}
	return 0, errors.Newf("unknown compression algorithm %q", s)
}

// Compressor compresses blocks.
type Compressor interface {
	Algorithm() Algorithm
	// Compress a block, appending the compressed data to dst[:0].
	Compress(dst, src []byte) []byte
	// Close must be called when the Compressor is no longer needed.
	// After Close is called, the Compressor must not be used again.
	Close()
}

// Decompressor decompresses blocks.
type Decompressor interface {
	// DecompressInto decompresses compressed into buf. The buf slice must have the
	// exact size as the decompressed value. Callers may use DecompressedLen to
	// determine the correct size.
	DecompressInto(buf, compressed []byte) error

	// DecompressedLen returns the length of the provided block once
	// decompressed, allowing the caller to allocate a buffer exactly sized to
	// the decompressed payload.
	DecompressedLen(b []byte) (decompressedLen int, err error)

	// Close must be called when the Decompressor is no longer needed.
	// After Close is called, the Decompressor must not be used again.
	Close()
}

// zstdLevel is the zstd compression level used for blocks.
const zstdLevel = 3

// GetCompressor returns a Compressor for the given algorithm.
func GetCompressor(a Algorithm) Compressor {
	switch a {
	case NoCompression:
		return noopCompressor{}
	case Snappy:
		return snappyCompressor{}
	case Zstd:
		return getZstdCompressor(zstdLevel)
	case MinLZ:
		return minlzCompressorBalanced
	default:
		panic(errors.AssertionFailedf("invalid compression algorithm %d", errors.Safe(a)))
	}
}

// GetDecompressor returns a Decompressor for the given algorithm. An unknown
// algorithm is reported as an error since the value was read from storage.
func GetDecompressor(a Algorithm) (Decompressor, error) {
	switch a {
	case NoCompression:
		return noopDecompressor{}, nil
	case Snappy:
		return snappyDecompressor{}, nil
	case Zstd:
		return getZstdDecompressor(), nil
	case MinLZ:
		return minlzDecompressor{}, nil
	default:
		return nil, errors.Newf("unknown compression algorithm %d", errors.Safe(a))
	}
}

// Decompress decompresses src, which was compressed with the given
// algorithm, into a newly allocated buffer.
func Decompress(a Algorithm, src []byte) ([]byte, error) {
	d, err := GetDecompressor(a)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	n, err := d.DecompressedLen(src)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := d.DecompressInto(buf, src); err != nil {
		return nil, err
	}
	return buf, nil
}
