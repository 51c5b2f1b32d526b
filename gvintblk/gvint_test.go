// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package gvintblk

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/metamorphic"
	"github.com/stretchr/testify/require"
)

func TestGroupVarintDataDriven(t *testing.T) {
	var b Builder
	var d Decoder
	datadriven.RunTest(t, "testdata/gvint", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "build":
			opts := block.WriterOptions{}
			td.MaybeScanArgs(t, "block-size", &opts.BlockSize)
			var ordinalBase int
			td.MaybeScanArgs(t, "base", &ordinalBase)
			var values []uint32
			for _, f := range strings.Fields(td.Input) {
				v, err := strconv.ParseUint(f, 10, 32)
				require.NoError(t, err)
				values = append(values, uint32(v))
			}
			b.Init(opts)
			added := b.Add(values)
			estimated := b.EstimatedSize()
			blk := b.Finish(base.OrdinalPos(ordinalBase))
			d.Init(blk)
			require.NoError(t, d.ParseHeader())
			return fmt.Sprintf("added %d of %d\nsize %d (estimated %d)\n",
				added, len(values), len(blk.Data), estimated)

		case "describe":
			s, err := Describe(block.Block{Data: d.data})
			if err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			return s

		case "seek":
			var buf strings.Builder
			for _, line := range strings.Fields(td.Input) {
				target, err := strconv.ParseUint(line, 10, 32)
				require.NoError(t, err)
				exact, err := d.SeekAtOrAfterValue(uint32(target))
				if errors.Is(err, base.ErrNotFound) {
					fmt.Fprintf(&buf, "%d: not found\n", target)
					continue
				}
				require.NoError(t, err)
				ord := d.OrdinalPos()
				fmt.Fprintf(&buf, "%d: ordinal %d value %d exact=%t\n", target, ord, copyOne(t, &d), exact)
			}
			return buf.String()

		case "seek-pos":
			var pos int
			td.ScanArgs(t, "pos", &pos)
			d.SeekToPositionInBlock(pos)
			return fmt.Sprintf("ordinal %d\n", d.OrdinalPos())

		case "copy":
			var n, capacity int
			td.ScanArgs(t, "n", &n)
			td.ScanArgs(t, "cap", &capacity)
			sink := block.NewColumnBlock[uint32](capacity, nil)
			if err := d.CopyNextValues(&n, sink); err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			var buf strings.Builder
			fmt.Fprintf(&buf, "copied %d:", n)
			for _, v := range sink.Values() {
				fmt.Fprintf(&buf, " %d", v)
			}
			fmt.Fprintf(&buf, "\nordinal %d\n", d.OrdinalPos())
			if !d.HasNext() {
				buf.WriteString("has-next false\n")
			}
			return buf.String()

		case "parse":
			data, err := hex.DecodeString(strings.Join(strings.Fields(td.Input), ""))
			require.NoError(t, err)
			var pd Decoder
			pd.Init(block.Block{Data: data})
			if err := pd.ParseHeader(); err != nil {
				require.True(t, base.IsCorruptionError(err))
				return fmt.Sprintf("error: %v", err)
			}
			return fmt.Sprintf("ok count=%d", pd.Count())

		default:
			return fmt.Sprintf("unknown command: %s", td.Cmd)
		}
	})
}

// copyOne decodes the value at the cursor and steps the cursor back onto it.
func copyOne(t *testing.T, d *Decoder) uint32 {
	sink := block.NewColumnBlock[uint32](1, nil)
	n := 1
	require.NoError(t, d.CopyNextValues(&n, sink))
	require.Equal(t, 1, n)
	d.SeekToPositionInBlock(d.cur - 1)
	return sink.Values()[0]
}

func buildBlock(t *testing.T, values []uint32, ordinalBase base.OrdinalPos) (block.Block, *Decoder) {
	b := NewBuilder(block.WriterOptions{})
	require.Equal(t, len(values), b.Add(values))
	blk := b.Finish(ordinalBase)
	d := NewDecoder(blk)
	require.NoError(t, d.ParseHeader())
	return blk, d
}

func TestEmptyBlock(t *testing.T) {
	b := NewBuilder(block.WriterOptions{})
	b.Add([]uint32{1, 2, 3})
	b.Reset()
	blk := b.Finish(0)
	require.Equal(t, []byte{byte(block.EncodingGroupVarint), 0, 0, 0, 0}, blk.Data)
	require.Len(t, blk.Data, 5)

	d := NewDecoder(blk)
	require.NoError(t, d.ParseHeader())
	require.Equal(t, 0, d.Count())
	require.False(t, d.HasNext())
	_, err := d.SeekAtOrAfterValue(0)
	require.ErrorIs(t, err, base.ErrNotFound)
}

func TestBlockLayout(t *testing.T) {
	blk, d := buildBlock(t, []uint32{6, 8, 300, 70000, 10}, 0)
	expected := []byte{
		0x01, 0x05, 0x00, 0x00, 0x00, // header
		0x06, 0x00, 0x00, 0x00, // frame of reference
		0x90, 0x00, 0x02, 0x26, 0x01, 0x6a, 0x11, 0x01, // group 0
		0x00, 0x04, 0x00, 0x00, 0x00, // group 1
	}
	if !slices.Equal(expected, blk.Data) {
		t.Fatalf("expected\n%x\nfound\n%x", expected, blk.Data)
	}
	require.Equal(t, uint32(6), d.MinValue())
	sink := block.NewColumnBlock[uint32](10, nil)
	n := 10
	require.NoError(t, d.CopyNextValues(&n, sink))
	require.Equal(t, []uint32{6, 8, 300, 70000, 10}, sink.Values())
}

func TestSeekScenario(t *testing.T) {
	values := make([]uint32, 64)
	for i := range values {
		values[i] = 6 + 2*uint32(i)
	}
	_, d := buildBlock(t, values, 0)

	exact, err := d.SeekAtOrAfterValue(7)
	require.NoError(t, err)
	require.False(t, exact)
	require.Equal(t, uint32(8), copyOne(t, d))
	require.Equal(t, base.OrdinalPos(1), d.OrdinalPos())

	exact, err = d.SeekAtOrAfterValue(5)
	require.NoError(t, err)
	require.False(t, exact)
	require.Equal(t, uint32(6), copyOne(t, d))

	_, err = d.SeekAtOrAfterValue(200)
	require.ErrorIs(t, err, base.ErrNotFound)
}

// TestSeek checks every target around a strided sequence of each size,
// including the tiny blocks whose only group is padded.
func TestSeek(t *testing.T) {
	const first, stride = 6, 2
	for _, n := range []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 64} {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			values := make([]uint32, n)
			for i := range values {
				values[i] = first + stride*uint32(i)
			}
			const ordinalBase = 1000
			_, d := buildBlock(t, values, ordinalBase)
			last := values[n-1]
			for target := uint32(0); target <= last+2; target++ {
				exact, err := d.SeekAtOrAfterValue(target)
				if target > last {
					require.ErrorIs(t, err, base.ErrNotFound, "target %d", target)
					continue
				}
				require.NoError(t, err)
				var want uint32
				switch {
				case target < first:
					want = first
				case target%2 == 0:
					want = target
				default:
					want = target + 1
				}
				require.Equal(t, want == target, exact, "target %d", target)
				require.Equal(t, base.OrdinalPos(ordinalBase+int(want-first)/stride), d.OrdinalPos())
				require.Equal(t, want, copyOne(t, d))
			}
		})
	}
}

func TestSeekDuplicates(t *testing.T) {
	values := []uint32{1, 2, 5, 5, 5, 5, 6, 7, 7}
	_, d := buildBlock(t, values, 0)
	exact, err := d.SeekAtOrAfterValue(5)
	require.NoError(t, err)
	require.True(t, exact)
	require.Equal(t, base.OrdinalPos(2), d.OrdinalPos())

	exact, err = d.SeekAtOrAfterValue(7)
	require.NoError(t, err)
	require.True(t, exact)
	require.Equal(t, base.OrdinalPos(7), d.OrdinalPos())
}

func TestRoundTrip(t *testing.T) {
	seed := time.Now().UnixNano()
	t.Logf("seed %d", seed)
	rng := rand.New(rand.NewSource(seed))

	values := make([]uint32, 10003)
	for i := range values {
		// Mix widths so that every selector width occurs.
		values[i] = rng.Uint32() >> (8 * rng.Intn(4))
	}
	const ordinalBase = 12345
	b := NewBuilder(block.WriterOptions{BlockSize: 1 << 20})
	for added := 0; added < len(values); {
		chunk := min(1+rng.Intn(30), len(values)-added)
		require.Equal(t, chunk, b.Add(values[added:added+chunk]))
		added += chunk
	}
	require.Equal(t, len(values), b.Count())
	blk := b.Finish(ordinalBase)
	require.LessOrEqual(t, len(blk.Data), b.EstimatedSize())

	d := NewDecoder(blk)
	require.NoError(t, d.ParseHeader())
	require.Equal(t, len(values), d.Count())
	require.Equal(t, base.OrdinalPos(ordinalBase), d.OrdinalPos())

	var decoded []uint32
	for d.HasNext() {
		sink := block.NewColumnBlock[uint32](1+rng.Intn(30), nil)
		n := 1 + rng.Intn(40)
		require.NoError(t, d.CopyNextValues(&n, sink))
		require.Equal(t, sink.Len(), n)
		decoded = append(decoded, sink.Values()...)
		require.Equal(t, base.OrdinalPos(ordinalBase+len(decoded)), d.OrdinalPos())
	}
	require.Equal(t, values, decoded)

	// Requesting more than remains copies what remains.
	d.SeekToPositionInBlock(0)
	n := len(values) + 10
	sink := block.NewColumnBlock[uint32](n, nil)
	require.NoError(t, d.CopyNextValues(&n, sink))
	require.Equal(t, len(values), n)

	for i := 0; i < 100; i++ {
		pos := rng.Intn(len(values))
		d.SeekToPositionInBlock(pos)
		require.Equal(t, base.OrdinalPos(ordinalBase+pos), d.OrdinalPos())
		require.Equal(t, values[pos], copyOne(t, d))
	}
}

func TestBlockSizeLimit(t *testing.T) {
	const blockSize = 64
	b := NewBuilder(block.WriterOptions{BlockSize: blockSize})
	values := make([]uint32, 1000)
	for i := range values {
		values[i] = uint32(i) * 1000
	}
	var blocks []block.Block
	var ordinal base.OrdinalPos
	for rem := values; len(rem) > 0; {
		n := b.Add(rem)
		require.Greater(t, n, 0)
		blk := b.Finish(ordinal)
		require.LessOrEqual(t, len(blk.Data), blockSize)
		blocks = append(blocks, block.Block{Data: slices.Clone(blk.Data), OrdinalBase: ordinal})
		ordinal = ordinal.Add(n)
		rem = rem[n:]
		b.Reset()
	}
	require.Greater(t, len(blocks), 1)

	var decoded []uint32
	for _, blk := range blocks {
		d := NewDecoder(blk)
		require.NoError(t, d.ParseHeader())
		require.Equal(t, base.OrdinalPos(len(decoded)), d.OrdinalPos())
		n := d.Count()
		sink := block.NewColumnBlock[uint32](n, nil)
		require.NoError(t, d.CopyNextValues(&n, sink))
		decoded = append(decoded, sink.Values()...)
	}
	require.Equal(t, values, decoded)

	// An empty builder accepts a value even if it alone exceeds the block
	// size.
	b = NewBuilder(block.WriterOptions{BlockSize: 1})
	require.Equal(t, 1, b.Add([]uint32{1 << 31, 7}))
}

func TestIdempotentReset(t *testing.T) {
	values := []uint32{3, 9, 27, 81, 243, 729}
	_, d := buildBlock(t, values, 7)
	first := copyOne(t, d)
	d.SeekToPositionInBlock(4)
	_, err := d.SeekAtOrAfterValue(28)
	require.NoError(t, err)
	_, err = d.SeekAtOrAfterValue(1000)
	require.ErrorIs(t, err, base.ErrNotFound)
	d.SeekToPositionInBlock(0)
	require.Equal(t, base.OrdinalPos(7), d.OrdinalPos())
	require.Equal(t, first, copyOne(t, d))
}

func TestBuilderMisuse(t *testing.T) {
	b := NewBuilder(block.WriterOptions{})
	b.Add([]uint32{1})
	b.Finish(0)
	require.Panics(t, func() { b.Finish(0) })
	require.Panics(t, func() { b.Add([]uint32{2}) })
	b.Reset()
	require.Equal(t, 1, b.Add([]uint32{2}))

	_, d := buildBlock(t, []uint32{1, 2}, 0)
	require.Panics(t, func() { d.SeekToPositionInBlock(3) })
	require.Panics(t, func() { d.SeekToPositionInBlock(-1) })
	d.SeekToPositionInBlock(2)
	require.False(t, d.HasNext())
}

func TestCorruptionFailsCleanly(t *testing.T) {
	seed := time.Now().UnixNano()
	t.Logf("seed %d", seed)
	rng := rand.New(rand.NewSource(seed))

	values := make([]uint32, 200)
	for i := range values {
		values[i] = uint32(i * i)
	}
	blk, _ := buildBlock(t, values, 0)
	for i := 0; i < 500; i++ {
		data := slices.Clone(blk.Data)
		switch rng.Intn(3) {
		case 0:
			data = data[:rng.Intn(len(data))]
		case 1:
			data[rng.Intn(len(data))] ^= byte(1 + rng.Intn(255))
		case 2:
			data = append(data, byte(rng.Intn(256)))
		}
		d := NewDecoder(block.Block{Data: data})
		if err := d.ParseHeader(); err != nil {
			require.True(t, base.IsCorruptionError(err), "%v", err)
			continue
		}
		// A mutation that still parses must decode without panicking.
		n := d.Count()
		sink := block.NewColumnBlock[uint32](n+1, nil)
		require.NoError(t, d.CopyNextValues(&n, sink))
		_, _ = d.SeekAtOrAfterValue(rng.Uint32())
	}
}

// TestRandomOps interleaves random decoder operations and compares each
// against a reference slice.
func TestRandomOps(t *testing.T) {
	seed := time.Now().UnixNano()
	t.Logf("seed %d", seed)
	rng := rand.New(rand.NewSource(seed))

	values := make([]uint32, 1+rng.Intn(500))
	v := rng.Uint32() >> 8
	for i := range values {
		values[i] = v
		v += uint32(rng.Intn(1000))
	}
	const ordinalBase = 500
	_, d := buildBlock(t, values, ordinalBase)
	pos := 0

	nextOp := metamorphic.Weighted[func()]{
		{Weight: 3, Item: func() {
			n := rng.Intn(10)
			sink := block.NewColumnBlock[uint32](1+rng.Intn(10), nil)
			require.NoError(t, d.CopyNextValues(&n, sink))
			require.Equal(t, values[pos:pos+n], sink.Values())
			pos += n
		}},
		{Weight: 2, Item: func() {
			pos = rng.Intn(len(values) + 1)
			d.SeekToPositionInBlock(pos)
		}},
		{Weight: 2, Item: func() {
			target := values[rng.Intn(len(values))] + uint32(rng.Intn(3)) - 1
			exact, err := d.SeekAtOrAfterValue(target)
			i, found := slices.BinarySearch(values, target)
			if i == len(values) {
				require.ErrorIs(t, err, base.ErrNotFound)
				pos = 0
				d.SeekToPositionInBlock(0)
				return
			}
			require.NoError(t, err)
			require.Equal(t, found, exact)
			pos = i
		}},
	}.RandomDeck(rng)

	for i := 0; i < 1000; i++ {
		nextOp()()
		require.Equal(t, base.OrdinalPos(ordinalBase+pos), d.OrdinalPos())
		require.Equal(t, pos < len(values), d.HasNext())
	}
}
