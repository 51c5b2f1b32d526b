// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cfile

import (
	"bufio"
	"encoding/binary"
	"io"
	"slices"

	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/errors"
)

// ReaderOptions configure a Reader.
type ReaderOptions struct {
	// Logger receives an error for every block that fails verification.
	Logger base.Logger
}

// EnsureDefaults returns a copy of the options with zero fields set to their
// defaults.
func (o ReaderOptions) EnsureDefaults() ReaderOptions {
	if o.Logger == nil {
		o.Logger = base.DefaultLogger{}
	}
	return o
}

// StreamBlock is a block read from a stream.
type StreamBlock struct {
	block.Block
	// Index is the position of the block within the stream.
	Index int
	// Stats describes the block alone.
	Stats block.BlockStats
}

// Reader reads the blocks of a stream written by a Writer. Every block is
// verified against its checksum and decompressed. The ordinal bases recorded
// in the stream must be consecutive.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	r           *bufio.Reader
	opts        ReaderOptions
	checksum    block.ChecksumType
	index       int
	nextOrdinal base.OrdinalPos
	buf         []byte
	err         error
}

// NewReader reads the stream header from r and returns a reader positioned
// before the first block.
func NewReader(r io.Reader, opts ReaderOptions) (*Reader, error) {
	cr := &Reader{
		r:    bufio.NewReader(r),
		opts: opts.EnsureDefaults(),
	}
	var hdr [streamHdrLen]byte
	if _, err := io.ReadFull(cr.r, hdr[:]); err != nil {
		return nil, base.MarkCorruptionError(errors.Wrap(err, "cfile: reading stream header"))
	}
	if string(hdr[:len(streamMagic)]) != streamMagic {
		return nil, base.CorruptionErrorf("cfile: bad stream magic %x", errors.Safe(hdr[:len(streamMagic)]))
	}
	if v := hdr[len(streamMagic)]; v != streamVersion {
		return nil, base.CorruptionErrorf("cfile: unsupported stream version %d", errors.Safe(v))
	}
	cr.checksum = block.ChecksumType(hdr[len(streamMagic)+1])
	if !cr.checksum.Valid() {
		return nil, base.CorruptionErrorf("cfile: unsupported checksum type %d", errors.Safe(uint8(cr.checksum)))
	}
	return cr, nil
}

// Checksum returns the checksum type recorded in the stream header.
func (r *Reader) Checksum() block.ChecksumType {
	return r.checksum
}

// Next returns the next block of the stream, or io.EOF after the last block.
// The block's data is only valid until the next call to Next.
func (r *Reader) Next() (StreamBlock, error) {
	if r.err != nil {
		return StreamBlock{}, r.err
	}
	sb, err := r.next()
	if err != nil {
		if err != io.EOF {
			r.opts.Logger.Errorf("cfile: block %d at ordinal %d: %v", r.index, r.nextOrdinal, err)
		}
		r.err = err
		return StreamBlock{}, err
	}
	r.index++
	r.nextOrdinal = r.nextOrdinal.Add(sb.Stats.Count)
	return sb, nil
}

func (r *Reader) next() (StreamBlock, error) {
	ordinalBase, err := binary.ReadUvarint(r.r)
	if err == io.EOF {
		return StreamBlock{}, io.EOF
	} else if err != nil {
		return StreamBlock{}, truncated(err)
	}
	if ordinalBase != uint64(r.nextOrdinal) {
		return StreamBlock{}, base.CorruptionErrorf("cfile: block starts at ordinal %d, expected %d",
			errors.Safe(ordinalBase), errors.Safe(r.nextOrdinal))
	}
	sealedLen, err := binary.ReadUvarint(r.r)
	if err != nil {
		return StreamBlock{}, truncated(err)
	}
	if sealedLen > maxSealedLen {
		return StreamBlock{}, base.CorruptionErrorf("cfile: sealed block length %d out of range",
			errors.Safe(sealedLen))
	}
	r.buf = slices.Grow(r.buf[:0], int(sealedLen))[:sealedLen]
	if _, err := io.ReadFull(r.r, r.buf); err != nil {
		return StreamBlock{}, truncated(err)
	}
	data, err := block.Open(r.buf, r.checksum)
	if err != nil {
		return StreamBlock{}, err
	}
	enc, err := block.PeekEncoding(data)
	if err != nil {
		return StreamBlock{}, err
	}
	count, err := block.ReadHeader(data, enc)
	if err != nil {
		return StreamBlock{}, err
	}
	return StreamBlock{
		Block: block.Block{Data: data, OrdinalBase: r.nextOrdinal},
		Index: r.index,
		Stats: block.BlockStats{
			Blocks:      1,
			Count:       count,
			RawBytes:    len(data),
			SealedBytes: int(sealedLen),
		},
	}, nil
}

func truncated(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return base.MarkCorruptionError(errors.Wrap(err, "cfile: truncated block"))
}

// ReadAll reads every block of the stream. The returned blocks own their
// data.
func ReadAll(r io.Reader, opts ReaderOptions) ([]StreamBlock, error) {
	cr, err := NewReader(r, opts)
	if err != nil {
		return nil, err
	}
	var blocks []StreamBlock
	for {
		sb, err := cr.Next()
		if err == io.EOF {
			return blocks, nil
		} else if err != nil {
			return nil, err
		}
		sb.Data = slices.Clone(sb.Data)
		blocks = append(blocks, sb)
	}
}

// Blocks returns the blocks of a stream read by ReadAll.
func Blocks(sbs []StreamBlock) []block.Block {
	blocks := make([]block.Block, len(sbs))
	for i := range sbs {
		blocks[i] = sbs[i].Block
	}
	return blocks
}

// TotalStats sums the statistics of a stream's blocks.
func TotalStats(sbs []StreamBlock) block.BlockStats {
	var s block.BlockStats
	for i := range sbs {
		s.Add(sbs[i].Stats)
	}
	return s
}
