// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cfile

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/cfile/arena"
	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/cfile/internal/compression"
	"github.com/cockroachdb/crlib/testutils/leaktest"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func helloValues(n int) [][]byte {
	values := make([][]byte, n)
	for i := range values {
		values[i] = []byte(fmt.Sprintf("hello %03d", i))
	}
	return values
}

func writeBytes(
	t *testing.T, enc block.EncodingType, opts block.WriterOptions, values [][]byte,
) []byte {
	var buf bytes.Buffer
	w, err := NewBytesWriter(&buf, enc, opts)
	require.NoError(t, err)
	require.NoError(t, w.Add(values))
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeUint32s(t *testing.T, opts block.WriterOptions, values []uint32) []byte {
	var buf bytes.Buffer
	w, err := NewUint32Writer(&buf, block.EncodingGroupVarint, opts)
	require.NoError(t, err)
	require.NoError(t, w.Add(values))
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestRegistry(t *testing.T) {
	_, err := NewUint32Builder(block.EncodingPlain, block.WriterOptions{})
	require.True(t, errors.Is(err, ErrInvalidArgument))
	require.Contains(t, err.Error(), "plain blocks hold string values, not uint32")

	_, err = NewBytesBuilder(block.EncodingGroupVarint, block.WriterOptions{})
	require.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = NewBytesBuilder(block.EncodingType(9), block.WriterOptions{})
	require.True(t, errors.Is(err, ErrInvalidArgument))

	b, err := NewUint32Builder(block.EncodingGroupVarint, block.WriterOptions{})
	require.NoError(t, err)
	b.Add([]uint32{1, 2, 3})
	blk := b.Finish(10)

	d, err := NewUint32Decoder(blk)
	require.NoError(t, err)
	require.Equal(t, 3, d.Count())
	require.Equal(t, OrdinalPos(10), d.OrdinalPos())

	_, err = NewBytesDecoder(blk)
	require.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = NewUint32Decoder(block.Block{Data: []byte{1, 2}})
	require.True(t, IsCorruptionError(err))

	for _, enc := range []block.EncodingType{block.EncodingPlain, block.EncodingPrefix} {
		bb, err := NewBytesBuilder(enc, block.WriterOptions{})
		require.NoError(t, err)
		bb.Add(helloValues(3))
		blk := bb.Finish(0)
		bd, err := NewBytesDecoder(blk)
		require.NoError(t, err)
		require.Equal(t, 3, bd.Count())

		s, err := Describe(blk)
		require.NoError(t, err)
		require.Contains(t, s, "encoding: "+enc.String())
		require.Contains(t, s, `row 2: "hello 002"`)
	}
	_, err = Describe(block.Block{Data: []byte{7, 0, 0, 0, 0}})
	require.True(t, IsCorruptionError(err))
}

func TestStreamRoundTrip(t *testing.T) {
	defer leaktest.AfterTest(t)()
	values := helloValues(1000)
	for _, enc := range []block.EncodingType{block.EncodingPlain, block.EncodingPrefix} {
		for algo := compression.NoCompression; algo < compression.NumAlgorithms; algo++ {
			for _, ck := range []block.ChecksumType{block.ChecksumTypeCRC32c, block.ChecksumTypeXXHash64} {
				t.Run(fmt.Sprintf("%s/%s/%s", enc, algo, ck), func(t *testing.T) {
					opts := block.WriterOptions{
						BlockSize:   512,
						Compression: algo,
						Checksum:    ck,
						Logger:      base.NoopLogger{},
					}
					data := writeBytes(t, enc, opts, values)
					sbs, err := ReadAll(bytes.NewReader(data), ReaderOptions{Logger: base.NoopLogger{}})
					require.NoError(t, err)
					require.Greater(t, len(sbs), 1)

					var ordinal OrdinalPos
					for i, sb := range sbs {
						require.Equal(t, i, sb.Index)
						require.Equal(t, ordinal, sb.OrdinalBase)
						ordinal = ordinal.Add(sb.Stats.Count)
					}
					require.Equal(t, OrdinalPos(len(values)), ordinal)
					require.Equal(t, len(values), TotalStats(sbs).Count)

					s, err := NewBytesScanner(Blocks(sbs))
					require.NoError(t, err)
					var decoded [][]byte
					sink := block.NewColumnBlock[[]byte](37, arena.NewGrowable(256, 4096))
					for {
						sink.Reset()
						n, err := s.Read(sink)
						if err == io.EOF {
							break
						}
						require.NoError(t, err)
						require.Equal(t, sink.Len(), n)
						for _, v := range sink.Values() {
							decoded = append(decoded, bytes.Clone(v))
						}
					}
					require.Equal(t, values, decoded)
					require.False(t, s.Valid())
					require.Equal(t, OrdinalPos(len(values)), s.OrdinalPos())
				})
			}
		}
	}
}

func TestScannerSeek(t *testing.T) {
	ints := make([]uint32, 30)
	for i := range ints {
		ints[i] = 6 + 2*uint32(i)
	}
	data := writeUint32s(t, block.WriterOptions{BlockSize: 24, Logger: base.NoopLogger{}}, ints)
	sbs, err := ReadAll(bytes.NewReader(data), ReaderOptions{})
	require.NoError(t, err)
	require.Greater(t, len(sbs), 2)

	s, err := NewUint32Scanner(Blocks(sbs))
	require.NoError(t, err)
	read1 := func() uint32 {
		sink := block.NewColumnBlock[uint32](1, nil)
		n, err := s.Read(sink)
		require.NoError(t, err)
		require.Equal(t, 1, n)
		return sink.Values()[0]
	}

	exact, err := s.SeekAtOrAfter(7)
	require.NoError(t, err)
	require.False(t, exact)
	require.Equal(t, OrdinalPos(1), s.OrdinalPos())
	require.Equal(t, uint32(8), read1())

	exact, err = s.SeekAtOrAfter(5)
	require.NoError(t, err)
	require.False(t, exact)
	require.Equal(t, uint32(6), read1())

	for i, v := range ints {
		exact, err := s.SeekAtOrAfter(v)
		require.NoError(t, err)
		require.True(t, exact)
		require.Equal(t, OrdinalPos(i), s.OrdinalPos())

		require.NoError(t, s.SeekToOrdinal(OrdinalPos(i)))
		require.Equal(t, v, read1())
	}

	_, err = s.SeekAtOrAfter(200)
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, s.Valid())
	require.ErrorIs(t, s.SeekToOrdinal(OrdinalPos(len(ints))), ErrNotFound)
	require.False(t, s.Valid())
	require.Equal(t, OrdinalPos(len(ints)), s.OrdinalPos())
}

func TestScannerMalformedBlock(t *testing.T) {
	ints := make([]uint32, 30)
	for i := range ints {
		ints[i] = uint32(i)
	}
	data := writeUint32s(t, block.WriterOptions{BlockSize: 24, Logger: base.NoopLogger{}}, ints)
	sbs, err := ReadAll(bytes.NewReader(data), ReaderOptions{})
	require.NoError(t, err)
	blocks := Blocks(sbs)
	require.Greater(t, len(blocks), 2)

	// Corrupt the header of the last block, which a seek to the end of the
	// first block would never load.
	last := blocks[len(blocks)-1]
	bad := slices.Clone(last.Data)
	bad[0] = 0xff
	blocks[len(blocks)-1] = block.Block{Data: bad, OrdinalBase: last.OrdinalBase}
	_, err = NewUint32Scanner(blocks)
	require.Error(t, err)
	require.True(t, IsCorruptionError(err))
	require.Contains(t, err.Error(), fmt.Sprintf("block %d", len(blocks)-1))

	blocks[len(blocks)-1] = block.Block{Data: last.Data[:2], OrdinalBase: last.OrdinalBase}
	_, err = NewUint32Scanner(blocks)
	require.True(t, IsCorruptionError(err))
}

// TestConcurrentDecoders decodes one shared block from many goroutines, each
// with its own decoder, and checks every value.
func TestConcurrentDecoders(t *testing.T) {
	const goroutines = 8
	ints := make([]uint32, 1000)
	for i := range ints {
		ints[i] = 3*uint32(i) + 1000
	}
	strs := helloValues(1000)

	intBuilder, err := NewUint32Builder(block.EncodingGroupVarint, block.WriterOptions{BlockSize: 1 << 20})
	require.NoError(t, err)
	require.Equal(t, len(ints), intBuilder.Add(ints))
	intBlock := intBuilder.Finish(100)

	type bytesCase struct {
		enc block.EncodingType
		b   block.Block
	}
	var bytesCases []bytesCase
	for _, enc := range []block.EncodingType{block.EncodingPlain, block.EncodingPrefix} {
		b, err := NewBytesBuilder(enc, block.WriterOptions{BlockSize: 1 << 20, RestartInterval: 8})
		require.NoError(t, err)
		require.Equal(t, len(strs), b.Add(strs))
		bytesCases = append(bytesCases, bytesCase{enc: enc, b: b.Finish(100)})
	}

	var g errgroup.Group
	for w := 0; w < goroutines; w++ {
		rng := rand.New(rand.NewSource(int64(w)))
		g.Go(func() error {
			d, err := NewUint32Decoder(intBlock)
			if err != nil {
				return err
			}
			for i := 0; i < 200; i++ {
				j := rng.Intn(len(ints))
				exact, err := d.SeekAtOrAfterValue(ints[j])
				if err != nil {
					return err
				}
				sink := block.NewColumnBlock[uint32](16, nil)
				n := 16
				if err := d.CopyNextValues(&n, sink); err != nil {
					return err
				}
				if !exact || !slices.Equal(ints[j:j+n], sink.Values()) {
					return errors.Newf("gvint: seek to %d read %v", ints[j], sink.Values())
				}
			}
			return nil
		})
		for _, bc := range bytesCases {
			rng := rand.New(rand.NewSource(int64(w)))
			g.Go(func() error {
				d, err := NewBytesDecoder(bc.b)
				if err != nil {
					return err
				}
				a := arena.NewGrowable(1<<10, 1<<16)
				for i := 0; i < 200; i++ {
					j := rng.Intn(len(strs))
					d.SeekToPositionInBlock(j)
					if d.OrdinalPos() != OrdinalPos(100+j) {
						return errors.Newf("%s: position %d at ordinal %d", bc.enc, j, d.OrdinalPos())
					}
					a.Reset()
					sink := block.NewColumnBlock[[]byte](16, a)
					n := 16
					if err := d.CopyNextValues(&n, sink); err != nil {
						return err
					}
					for k, v := range sink.Values() {
						if !bytes.Equal(strs[j+k], v) {
							return errors.Newf("%s: value %d is %q, expected %q", bc.enc, j+k, v, strs[j+k])
						}
					}
				}
				return nil
			})
		}
	}
	require.NoError(t, g.Wait())
}

func TestScannerSeekStrings(t *testing.T) {
	values := helloValues(1000)
	for _, enc := range []block.EncodingType{block.EncodingPlain, block.EncodingPrefix} {
		t.Run(enc.String(), func(t *testing.T) {
			data := writeBytes(t, enc, block.WriterOptions{BlockSize: 300, Logger: base.NoopLogger{}}, values)
			sbs, err := ReadAll(bytes.NewReader(data), ReaderOptions{})
			require.NoError(t, err)
			s, err := NewBytesScanner(Blocks(sbs))
			require.NoError(t, err)

			exact, err := s.SeekAtOrAfter([]byte("hello 444x"))
			require.NoError(t, err)
			require.False(t, exact)
			require.Equal(t, OrdinalPos(445), s.OrdinalPos())

			exact, err = s.SeekAtOrAfter([]byte("hello 004"))
			require.NoError(t, err)
			require.True(t, exact)
			require.Equal(t, OrdinalPos(4), s.OrdinalPos())

			// Every block boundary is crossed by a seek that lands just past
			// the last value of a block.
			for _, sb := range sbs[:len(sbs)-1] {
				last := int(sb.OrdinalBase) + sb.Stats.Count - 1
				exact, err := s.SeekAtOrAfter([]byte(fmt.Sprintf("hello %03d.before", last)))
				require.NoError(t, err)
				require.False(t, exact)
				require.Equal(t, OrdinalPos(last+1), s.OrdinalPos())
			}

			_, err = s.SeekAtOrAfter([]byte("zzzz"))
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestWriterLoggingAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	logger := &base.InMemLogger{}
	opts := block.WriterOptions{
		BlockSize: 64,
		Logger:    logger,
		Metrics:   block.NewMetrics(reg),
	}
	ints := make([]uint32, 100)
	for i := range ints {
		ints[i] = uint32(i)
	}
	var buf bytes.Buffer
	w, err := NewUint32Writer(&buf, block.EncodingGroupVarint, opts)
	require.NoError(t, err)
	require.NoError(t, w.Add(ints[:50]))
	require.NoError(t, w.Flush())
	flushed := w.Stats().Blocks
	require.Equal(t, OrdinalPos(50), w.NextOrdinal())
	require.NoError(t, w.Add(ints[50:]))
	require.NoError(t, w.Close())
	require.ErrorIs(t, w.Close(), errClosed)
	require.ErrorIs(t, w.Add(ints), errClosed)

	stats := w.Stats()
	require.Greater(t, stats.Blocks, flushed)
	require.Equal(t, 100, stats.Count)
	require.Len(t, logger.Lines, stats.Blocks)
	require.True(t, strings.HasPrefix(logger.Lines[0], "cfile: block 0 at ordinal 0: 1 blocks"), logger.Lines[0])

	metric := &dto.Metric{}
	require.NoError(t, opts.Metrics.BlocksFinished.Write(metric))
	require.Equal(t, float64(stats.Blocks), metric.GetCounter().GetValue())
	metric = &dto.Metric{}
	require.NoError(t, opts.Metrics.ValuesPerBlock.Write(metric))
	require.Equal(t, uint64(stats.Blocks), metric.GetHistogram().GetSampleCount())
	require.Equal(t, float64(100), metric.GetHistogram().GetSampleSum())

	sbs, err := ReadAll(bytes.NewReader(buf.Bytes()), ReaderOptions{})
	require.NoError(t, err)
	require.Equal(t, stats, TotalStats(sbs))
}

func TestReaderCorruption(t *testing.T) {
	data := writeBytes(t, block.EncodingPrefix,
		block.WriterOptions{BlockSize: 256, Logger: base.NoopLogger{}}, helloValues(200))

	t.Run("bit-flip", func(t *testing.T) {
		logger := &base.InMemLogger{}
		corrupt := bytes.Clone(data)
		corrupt[len(corrupt)-20] ^= 0x10
		_, err := ReadAll(bytes.NewReader(corrupt), ReaderOptions{Logger: logger})
		require.True(t, IsCorruptionError(err), "%v", err)
		require.Contains(t, err.Error(), "bit flip found")
		require.Len(t, logger.Lines, 1)
		require.True(t, strings.HasPrefix(logger.Lines[0], "error: cfile: block "), logger.Lines[0])
	})

	t.Run("truncated", func(t *testing.T) {
		// Each cut lands inside a record: the first block is larger than 127
		// bytes, so its length takes two bytes.
		for _, n := range []int{0, 3, streamHdrLen + 1, streamHdrLen + 2, streamHdrLen + 10, len(data) - 1} {
			_, err := ReadAll(bytes.NewReader(data[:n]), ReaderOptions{Logger: base.NoopLogger{}})
			require.True(t, IsCorruptionError(err), "length %d: %v", n, err)
		}
	})

	t.Run("header", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] = 'x'
		_, err := NewReader(bytes.NewReader(bad), ReaderOptions{})
		require.True(t, IsCorruptionError(err))

		bad = bytes.Clone(data)
		bad[len(streamMagic)] = 9
		_, err = NewReader(bytes.NewReader(bad), ReaderOptions{})
		require.True(t, IsCorruptionError(err))

		bad = bytes.Clone(data)
		bad[len(streamMagic)+1] = 0
		_, err = NewReader(bytes.NewReader(bad), ReaderOptions{})
		require.True(t, IsCorruptionError(err))
	})

	t.Run("ordinal-gap", func(t *testing.T) {
		// The first block's ordinal base directly follows the stream header.
		bad := bytes.Clone(data)
		bad[streamHdrLen] = 5
		_, err := ReadAll(bytes.NewReader(bad), ReaderOptions{Logger: base.NoopLogger{}})
		require.True(t, IsCorruptionError(err))
		require.Contains(t, err.Error(), "block starts at ordinal 5, expected 0")
	})
}

func TestWriterInvalidOptions(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewUint32Writer(&buf, block.EncodingGroupVarint,
		block.WriterOptions{Compression: compression.NumAlgorithms})
	require.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = NewUint32Writer(&buf, block.EncodingGroupVarint,
		block.WriterOptions{Checksum: block.ChecksumType(2)})
	require.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = NewBytesWriter(&buf, block.EncodingGroupVarint, block.WriterOptions{})
	require.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestRandomStream(t *testing.T) {
	seed := time.Now().UnixNano()
	t.Logf("seed %d", seed)
	rng := rand.New(rand.NewSource(seed))

	values := make([]uint32, 5000)
	for i := range values {
		values[i] = rng.Uint32() >> (8 * rng.Intn(4))
	}
	opts := block.WriterOptions{
		BlockSize:   16 + rng.Intn(2048),
		Compression: compression.Algorithm(rng.Intn(int(compression.NumAlgorithms))),
		Logger:      base.NoopLogger{},
	}
	t.Logf("options:\n%s", opts.String())
	var buf bytes.Buffer
	w, err := NewUint32Writer(&buf, block.EncodingGroupVarint, opts)
	require.NoError(t, err)
	for added := 0; added < len(values); {
		chunk := min(1+rng.Intn(100), len(values)-added)
		require.NoError(t, w.Add(values[added:added+chunk]))
		added += chunk
		if rng.Intn(10) == 0 {
			require.NoError(t, w.Flush())
		}
	}
	require.NoError(t, w.Close())

	sbs, err := ReadAll(&buf, ReaderOptions{})
	require.NoError(t, err)
	s, err := NewUint32Scanner(Blocks(sbs))
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		ord := rng.Intn(len(values))
		require.NoError(t, s.SeekToOrdinal(OrdinalPos(ord)))
		sink := block.NewColumnBlock[uint32](1+rng.Intn(50), nil)
		n, err := s.Read(sink)
		require.NoError(t, err)
		require.Equal(t, values[ord:ord+n], sink.Values())
	}
}
