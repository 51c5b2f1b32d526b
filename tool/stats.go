// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"cmp"
	"fmt"
	"strconv"

	"github.com/cockroachdb/cfile"
	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/swiss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// cardinality counts the occurrences of distinct values.
type cardinality[K cmp.Ordered] struct {
	swiss.Map[K, int]
}

func newCardinality[K cmp.Ordered]() *cardinality[K] {
	c := &cardinality[K]{}
	c.Init(64)
	return c
}

func (c *cardinality[K]) add(k K) {
	n, _ := c.Get(k)
	c.Put(k, n+1)
}

// mostFrequent returns the value that occurs most often, and its count. Ties
// go to the smallest value.
func (c *cardinality[K]) mostFrequent() (k K, count int) {
	c.All(func(key K, n int) bool {
		if n > count || (n == count && key < k) {
			k, count = key, n
		}
		return true
	})
	return k, count
}

type blockCardinality struct {
	distinct int
	top      string
	topCount int
}

// columnCardinality decodes every block of the column and counts its
// distinct values, per block and over the whole column.
func columnCardinality[T any, K cmp.Ordered](
	blocks []cfile.StreamBlock,
	newDecoder func(block.Block) (block.Decoder[T], error),
	key func(T) K,
	format func(K) string,
) (perBlock []blockCardinality, total blockCardinality, _ error) {
	all := newCardinality[K]()
	for _, sb := range blocks {
		d, err := newDecoder(sb.Block)
		if err != nil {
			return nil, total, err
		}
		n := d.Count()
		sink := block.NewColumnBlock[T](n, nil)
		if err := d.CopyNextValues(&n, sink); err != nil {
			return nil, total, err
		}
		bc := newCardinality[K]()
		for _, v := range sink.Values() {
			bc.add(key(v))
			all.add(key(v))
		}
		top, topCount := bc.mostFrequent()
		perBlock = append(perBlock, blockCardinality{distinct: bc.Len(), top: format(top), topCount: topCount})
	}
	top, topCount := all.mostFrequent()
	total = blockCardinality{distinct: all.Len(), topCount: topCount}
	if topCount > 0 {
		total.top = format(top)
	}
	return perBlock, total, nil
}

func (t *T) runStats(cmd *cobra.Command, args []string) {
	c := t.mustReadColumn(args[0])
	if c == nil {
		return
	}
	var perBlock []blockCardinality
	var total blockCardinality
	var err error
	switch c.valueType {
	case block.ValueTypeUint32:
		perBlock, total, err = columnCardinality(c.blocks, cfile.NewUint32Decoder,
			func(v uint32) uint32 { return v }, formatUint32)
	default:
		perBlock, total, err = columnCardinality(c.blocks, cfile.NewBytesDecoder,
			func(v []byte) string { return string(v) },
			func(s string) string { return formatBytes([]byte(s)) })
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
		return
	}

	tw := tablewriter.NewWriter(stdout)
	tw.SetHeader([]string{"block", "count", "distinct", "most frequent", "bytes/value"})
	tw.SetAutoFormatHeaders(false)
	for i, sb := range c.blocks {
		tw.Append([]string{
			strconv.Itoa(sb.Index),
			strconv.Itoa(sb.Stats.Count),
			strconv.Itoa(perBlock[i].distinct),
			fmt.Sprintf("%s ×%d", perBlock[i].top, perBlock[i].topCount),
			strconv.FormatFloat(sb.Stats.BytesPerValue(), 'f', 2, 64),
		})
	}
	tw.Render()

	stats := cfile.TotalStats(c.blocks)
	fmt.Fprintf(stdout, "values:   %s (%s distinct)\n",
		crhumanize.Count(uint64(stats.Count), crhumanize.Compact),
		crhumanize.Count(uint64(total.distinct), crhumanize.Compact))
	if total.topCount > 0 {
		fmt.Fprintf(stdout, "most frequent: %s (%s)\n", total.top,
			crhumanize.Percent(total.topCount, stats.Count))
	}
	fmt.Fprintf(stdout, "raw:      %s\n", crhumanize.Bytes(uint64(stats.RawBytes), crhumanize.Compact, crhumanize.OmitI))
	fmt.Fprintf(stdout, "sealed:   %s (%.2f bytes/value)\n",
		crhumanize.Bytes(uint64(stats.SealedBytes), crhumanize.Compact, crhumanize.OmitI), stats.BytesPerValue())
}
