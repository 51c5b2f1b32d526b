// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cfile

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/cfile/internal/compression"
	"github.com/cockroachdb/errors"
)

// The stream format is a fixed header followed by one record per block:
//
//	+-------------+------------+------------------+
//	| magic (4B)  | version u8 | checksum type u8 |
//	+-------------+------------+------------------+
//	| ordinal base uvarint | sealed length uvarint | sealed block |
//	| ...                                                         |
//
// Each sealed block is a block.Seal envelope around one encoded block.
const (
	streamMagic   = "cfil"
	streamVersion = 1
	streamHdrLen  = len(streamMagic) + 2

	// maxSealedLen bounds the length of a single sealed block, so that a
	// corrupt length prefix cannot trigger a huge allocation.
	maxSealedLen = 1 << 30
)

var errClosed = errors.New("cfile: writer is closed")

// Writer encodes a column of values into a stream of sealed blocks. Values
// are buffered in a block builder; whenever the builder declines a value the
// block is finished, sealed and written, and the next block starts at the
// following ordinal.
//
// A Writer is not safe for concurrent use.
type Writer[T any] struct {
	w       *bufio.Writer
	opts    block.WriterOptions
	builder block.Builder[T]
	ordinal base.OrdinalPos
	stats   block.BlockStats
	sealBuf []byte
	hdrBuf  []byte
	err     error
	closed  bool
}

// NewUint32Writer returns a writer of uint32 values in the given encoding.
func NewUint32Writer(
	w io.Writer, enc block.EncodingType, opts block.WriterOptions,
) (*Writer[uint32], error) {
	opts = opts.EnsureDefaults()
	b, err := NewUint32Builder(enc, opts)
	if err != nil {
		return nil, err
	}
	return newWriter(w, b, opts)
}

// NewBytesWriter returns a writer of byte string values in the given
// encoding.
func NewBytesWriter(
	w io.Writer, enc block.EncodingType, opts block.WriterOptions,
) (*Writer[[]byte], error) {
	opts = opts.EnsureDefaults()
	b, err := NewBytesBuilder(enc, opts)
	if err != nil {
		return nil, err
	}
	return newWriter(w, b, opts)
}

func newWriter[T any](w io.Writer, b block.Builder[T], opts block.WriterOptions) (*Writer[T], error) {
	if opts.Compression >= compression.NumAlgorithms {
		return nil, base.InvalidArgumentf("cfile: invalid compression %d", errors.Safe(uint8(opts.Compression)))
	}
	if !opts.Checksum.Valid() {
		return nil, base.InvalidArgumentf("cfile: unsupported checksum %s", opts.Checksum)
	}
	cw := &Writer[T]{
		w:       bufio.NewWriter(w),
		opts:    opts,
		builder: b,
	}
	var hdr [streamHdrLen]byte
	copy(hdr[:], streamMagic)
	hdr[len(streamMagic)] = streamVersion
	hdr[len(streamMagic)+1] = byte(opts.Checksum)
	if _, err := cw.w.Write(hdr[:]); err != nil {
		return nil, err
	}
	return cw, nil
}

// Add appends values to the column. Values that do not fit in the current
// block start new blocks.
func (w *Writer[T]) Add(values []T) error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return errClosed
	}
	for len(values) > 0 {
		n := w.builder.Add(values)
		values = values[n:]
		if len(values) == 0 {
			break
		}
		if w.builder.Count() == 0 {
			w.err = base.InvalidArgumentf("cfile: value does not fit in an empty block")
			return w.err
		}
		if err := w.finishBlock(); err != nil {
			return err
		}
	}
	return nil
}

// Flush finishes the current block, if it holds any values, and flushes the
// underlying writer. Values added afterwards start a new block.
func (w *Writer[T]) Flush() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return errClosed
	}
	if w.builder.Count() > 0 {
		if err := w.finishBlock(); err != nil {
			return err
		}
	}
	if err := w.w.Flush(); err != nil {
		w.err = err
	}
	return w.err
}

// Close finishes the final block and flushes the underlying writer. It does
// not close the underlying writer.
func (w *Writer[T]) Close() error {
	if w.closed {
		return errClosed
	}
	err := w.Flush()
	w.closed = true
	return err
}

// Stats returns the statistics of the blocks written so far.
func (w *Writer[T]) Stats() block.BlockStats {
	return w.stats
}

// NextOrdinal returns the ordinal the next added value will receive.
func (w *Writer[T]) NextOrdinal() base.OrdinalPos {
	return w.ordinal.Add(w.builder.Count())
}

func (w *Writer[T]) finishBlock() error {
	count := w.builder.Count()
	b := w.builder.Finish(w.ordinal)
	w.sealBuf = block.Seal(w.sealBuf, b.Data, w.opts.Compression, w.opts.Checksum)
	w.hdrBuf = binary.AppendUvarint(w.hdrBuf[:0], uint64(b.OrdinalBase))
	w.hdrBuf = binary.AppendUvarint(w.hdrBuf, uint64(len(w.sealBuf)))
	if _, err := w.w.Write(w.hdrBuf); err != nil {
		w.err = errors.Wrap(err, "cfile: writing block")
		return w.err
	}
	if _, err := w.w.Write(w.sealBuf); err != nil {
		w.err = errors.Wrap(err, "cfile: writing block")
		return w.err
	}
	stats := block.BlockStats{
		Blocks:      1,
		Count:       count,
		RawBytes:    len(b.Data),
		SealedBytes: len(w.sealBuf),
	}
	w.opts.Logger.Infof("cfile: block %d at ordinal %d: %s", w.stats.Blocks, b.OrdinalBase, stats)
	w.opts.Metrics.RecordBlock(stats)
	w.stats.Add(stats)
	w.ordinal = w.ordinal.Add(count)
	w.builder.Reset()
	return nil
}
