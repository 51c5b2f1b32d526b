// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build !cgo

package compression

import (
	"encoding/binary"

	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
)

// UseStandardZstdLib indicates whether the zstd implementation is a port of
// the official one in the facebook/zstd repository.
const UseStandardZstdLib = false

type zstdCompressor struct {
	enc *zstd.Encoder
}

var _ Compressor = (*zstdCompressor)(nil)

func getZstdCompressor(level int) *zstdCompressor {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		panic(errors.Wrap(err, "zstd encoder"))
	}
	return &zstdCompressor{enc: enc}
}

func (z *zstdCompressor) Algorithm() Algorithm { return Zstd }

// Compress compresses b, prefixing the output with a uvarint holding the
// decompressed length.
func (z *zstdCompressor) Compress(compressedBuf, b []byte) []byte {
	if cap(compressedBuf) < binary.MaxVarintLen64 {
		compressedBuf = make([]byte, binary.MaxVarintLen64)
	}
	compressedBuf = compressedBuf[:binary.MaxVarintLen64]
	varIntLen := binary.PutUvarint(compressedBuf, uint64(len(b)))
	return z.enc.EncodeAll(b, compressedBuf[:varIntLen])
}

func (z *zstdCompressor) Close() {
	if err := z.enc.Close(); err != nil {
		panic(err)
	}
}

type zstdDecompressor struct{}

var _ Decompressor = zstdDecompressor{}

func (zstdDecompressor) DecompressInto(dst, src []byte) error {
	// The payload is prefixed with a varint encoding the length of
	// the decompressed block.
	_, prefixLen := binary.Uvarint(src)
	if prefixLen <= 0 {
		return base.CorruptionErrorf("cfile: compression block has invalid length")
	}
	src = src[prefixLen:]
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return err
	}
	defer decoder.Close()
	result, err := decoder.DecodeAll(src, dst[:0])
	if err != nil {
		return base.MarkCorruptionError(err)
	}
	if len(result) != len(dst) || (len(result) > 0 && &result[0] != &dst[0]) {
		return base.CorruptionErrorf("cfile: decompressed into unexpected buffer: %p != %p",
			errors.Safe(result), errors.Safe(dst))
	}
	return nil
}

func (zstdDecompressor) DecompressedLen(b []byte) (decompressedLen int, err error) {
	decodedLenU64, varIntLen := binary.Uvarint(b)
	if varIntLen <= 0 {
		return 0, base.CorruptionErrorf("cfile: compression block has invalid length")
	}
	return int(decodedLenU64), nil
}

func (zstdDecompressor) Close() {}

func getZstdDecompressor() zstdDecompressor {
	return zstdDecompressor{}
}
