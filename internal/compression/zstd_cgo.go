// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build cgo

package compression

import (
	"encoding/binary"
	"sync"

	"github.com/DataDog/zstd"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/errors"
)

// UseStandardZstdLib indicates whether the zstd implementation is a port of
// the official one in the facebook/zstd repository.
const UseStandardZstdLib = true

type zstdCompressor struct {
	level int
	ctx   zstd.Ctx
}

var _ Compressor = (*zstdCompressor)(nil)

var zstdCompressorPool = sync.Pool{
	New: func() any {
		return &zstdCompressor{ctx: zstd.NewCtx()}
	},
}

func getZstdCompressor(level int) *zstdCompressor {
	z := zstdCompressorPool.Get().(*zstdCompressor)
	z.level = level
	return z
}

func (z *zstdCompressor) Algorithm() Algorithm { return Zstd }

// Compress compresses b, prefixing the output with a uvarint holding the
// decompressed length.
func (z *zstdCompressor) Compress(compressedBuf []byte, b []byte) []byte {
	// Size the buffer from CompressBound so that the compressed output lands
	// directly after the length prefix.
	bound := zstd.CompressBound(len(b))
	if cap(compressedBuf) < binary.MaxVarintLen64+bound {
		compressedBuf = make([]byte, binary.MaxVarintLen64, binary.MaxVarintLen64+bound)
	}
	compressedBuf = compressedBuf[:binary.MaxVarintLen64]

	varIntLen := binary.PutUvarint(compressedBuf, uint64(len(b)))
	result, err := z.ctx.CompressLevel(compressedBuf[varIntLen:varIntLen+bound], b, z.level)
	if err != nil {
		panic(errors.Wrap(err, "zstd compression"))
	}
	if len(result) > 0 && &result[0] != &compressedBuf[varIntLen:varIntLen+1][0] {
		panic(errors.AssertionFailedf("zstd allocated a new buffer despite CompressBound"))
	}
	return compressedBuf[:varIntLen+len(result)]
}

func (z *zstdCompressor) Close() {
	zstdCompressorPool.Put(z)
}

type zstdDecompressor struct {
	ctx zstd.Ctx
}

var _ Decompressor = (*zstdDecompressor)(nil)

func (z *zstdDecompressor) DecompressInto(dst, src []byte) error {
	// The payload is prefixed with a varint encoding the length of
	// the decompressed block.
	_, prefixLen := binary.Uvarint(src)
	if prefixLen <= 0 {
		return base.CorruptionErrorf("cfile: compression block has invalid length")
	}
	src = src[prefixLen:]
	if len(src) == 0 {
		return base.CorruptionErrorf("decodeZstd: empty src buffer")
	}
	if len(dst) == 0 {
		return nil
	}
	n, err := z.ctx.DecompressInto(dst, src)
	if err != nil {
		return base.MarkCorruptionError(err)
	}
	if n != len(dst) {
		return base.CorruptionErrorf("cfile: decompressed %d bytes, expected %d",
			errors.Safe(n), errors.Safe(len(dst)))
	}
	return nil
}

func (*zstdDecompressor) DecompressedLen(b []byte) (decompressedLen int, err error) {
	decodedLenU64, varIntLen := binary.Uvarint(b)
	if varIntLen <= 0 {
		return 0, base.CorruptionErrorf("cfile: compression block has invalid length")
	}
	return int(decodedLenU64), nil
}

func (z *zstdDecompressor) Close() {
	zstdDecompressorPool.Put(z)
}

var zstdDecompressorPool = sync.Pool{
	New: func() any {
		return &zstdDecompressor{ctx: zstd.NewCtx()}
	},
}

func getZstdDecompressor() *zstdDecompressor {
	return zstdDecompressorPool.Get().(*zstdDecompressor)
}
