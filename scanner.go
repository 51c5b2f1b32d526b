// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cfile

import (
	"io"
	"sort"

	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/errors"
)

// Scanner iterates over the values of a column stored in a sequence of
// blocks with consecutive ordinals, such as the blocks of a stream returned
// by ReadAll.
//
// A Scanner is not safe for concurrent use, but any number of scanners may
// share the same blocks.
type Scanner[T any] struct {
	blocks     []block.Block
	newDecoder func(block.Block) (block.Decoder[T], error)
	// idx is the index of the block dec decodes. When idx == len(blocks) the
	// scanner is exhausted and dec is nil.
	idx int
	dec block.Decoder[T]
	// end is the ordinal one past the last value of the column.
	end base.OrdinalPos
}

// NewUint32Scanner returns a scanner over blocks of uint32 values.
func NewUint32Scanner(blocks []block.Block) (*Scanner[uint32], error) {
	return newScanner(blocks, NewUint32Decoder)
}

// NewBytesScanner returns a scanner over blocks of byte strings.
func NewBytesScanner(blocks []block.Block) (*Scanner[[]byte], error) {
	return newScanner(blocks, NewBytesDecoder)
}

func newScanner[T any](
	blocks []block.Block, newDecoder func(block.Block) (block.Decoder[T], error),
) (*Scanner[T], error) {
	s := &Scanner[T]{blocks: blocks, newDecoder: newDecoder}
	// Every header is checked up front so that a scanner never reports
	// positions derived from a malformed block it has not loaded yet.
	for i, b := range blocks {
		count, err := blockCount(b)
		if err != nil {
			return nil, errors.Wrapf(err, "cfile: block %d", errors.Safe(i))
		}
		s.end = b.OrdinalBase.Add(count)
	}
	if err := s.loadBlock(0); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scanner[T]) loadBlock(idx int) error {
	s.idx = idx
	s.dec = nil
	if idx == len(s.blocks) {
		return nil
	}
	d, err := s.newDecoder(s.blocks[idx])
	if err != nil {
		return errors.Wrapf(err, "cfile: block %d", errors.Safe(idx))
	}
	s.dec = d
	return nil
}

// skipExhausted moves past blocks with no remaining values.
func (s *Scanner[T]) skipExhausted() error {
	for s.dec != nil && !s.dec.HasNext() {
		if err := s.loadBlock(s.idx + 1); err != nil {
			return err
		}
	}
	return nil
}

// Valid returns true if the scanner is positioned at a value.
func (s *Scanner[T]) Valid() bool {
	return s.dec != nil && s.dec.HasNext()
}

// OrdinalPos returns the ordinal of the value at the scanner's position. When
// the scanner is exhausted it is the ordinal one past the last value.
func (s *Scanner[T]) OrdinalPos() base.OrdinalPos {
	if s.dec != nil {
		return s.dec.OrdinalPos()
	}
	return s.end
}

func blockCount(b block.Block) (int, error) {
	enc, err := b.Encoding()
	if err != nil {
		return 0, err
	}
	return block.ReadHeader(b.Data, enc)
}

// Read copies values into the sink, crossing block boundaries as needed,
// until the sink is full or the column is exhausted. It returns the number of
// values copied, and io.EOF if none remained.
func (s *Scanner[T]) Read(sink block.Sink[T]) (int, error) {
	total := 0
	for sink.Remaining() > 0 {
		if err := s.skipExhausted(); err != nil {
			return total, err
		}
		if s.dec == nil {
			break
		}
		n := sink.Remaining()
		err := s.dec.CopyNextValues(&n, sink)
		total += n
		if err != nil {
			return total, err
		}
	}
	if total == 0 && s.dec == nil {
		return 0, io.EOF
	}
	return total, nil
}

// SeekToOrdinal positions the scanner at the value with the given ordinal. It
// returns ErrNotFound if the ordinal is past the last value.
func (s *Scanner[T]) SeekToOrdinal(ord base.OrdinalPos) error {
	// Find the last block starting at or before ord.
	i := sort.Search(len(s.blocks), func(i int) bool {
		return s.blocks[i].OrdinalBase > ord
	}) - 1
	if i < 0 {
		return base.ErrNotFound
	}
	if err := s.loadBlock(i); err != nil {
		return err
	}
	pos := int(ord - s.blocks[i].OrdinalBase)
	if pos >= s.dec.Count() {
		if err := s.loadBlock(len(s.blocks)); err != nil {
			return err
		}
		return base.ErrNotFound
	}
	s.dec.SeekToPositionInBlock(pos)
	return nil
}

// SeekAtOrAfter positions the scanner at the first value at or after target.
// The values of the column must be sorted. It returns whether the value found
// equals target, or ErrNotFound if every value is smaller than target.
func (s *Scanner[T]) SeekAtOrAfter(target T) (exact bool, err error) {
	for i := range s.blocks {
		if err := s.loadBlock(i); err != nil {
			return false, err
		}
		exact, err := s.dec.SeekAtOrAfterValue(target)
		if errors.Is(err, base.ErrNotFound) {
			continue
		}
		return exact, err
	}
	if err := s.loadBlock(len(s.blocks)); err != nil {
		return false, err
	}
	return false, base.ErrNotFound
}
