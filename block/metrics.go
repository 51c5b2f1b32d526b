// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/redact"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the instruments a writer records finished blocks into. Any
// field may be nil.
type Metrics struct {
	// BlocksFinished counts finished blocks.
	BlocksFinished prometheus.Counter
	// BlockBytes observes the size of each encoded block before sealing.
	BlockBytes prometheus.Histogram
	// SealedBytes observes the size of each sealed block.
	SealedBytes prometheus.Histogram
	// ValuesPerBlock observes the number of values in each finished block.
	ValuesPerBlock prometheus.Histogram
}

// NewMetrics creates block metrics and registers them with reg, which may be
// nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BlocksFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cfile",
			Name:      "blocks_finished_total",
			Help:      "Number of column blocks finished.",
		}),
		BlockBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cfile",
			Name:      "block_bytes",
			Help:      "Encoded size of finished column blocks.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}),
		SealedBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cfile",
			Name:      "sealed_block_bytes",
			Help:      "Size of column blocks after compression and checksumming.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}),
		ValuesPerBlock: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cfile",
			Name:      "values_per_block",
			Help:      "Number of values in finished column blocks.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.BlocksFinished, m.BlockBytes, m.SealedBytes, m.ValuesPerBlock)
	}
	return m
}

// RecordBlock records a finished block. It is a no-op on a nil receiver.
func (m *Metrics) RecordBlock(stats BlockStats) {
	if m == nil {
		return
	}
	if m.BlocksFinished != nil {
		m.BlocksFinished.Inc()
	}
	if m.BlockBytes != nil {
		m.BlockBytes.Observe(float64(stats.RawBytes))
	}
	if m.SealedBytes != nil {
		m.SealedBytes.Observe(float64(stats.SealedBytes))
	}
	if m.ValuesPerBlock != nil {
		m.ValuesPerBlock.Observe(float64(stats.Count))
	}
}

// BlockStats summarizes one block or, when accumulated with Add, a sequence
// of blocks.
type BlockStats struct {
	Blocks      int
	Count       int
	RawBytes    int
	SealedBytes int
}

// Add accumulates other into s.
func (s *BlockStats) Add(other BlockStats) {
	s.Blocks += other.Blocks
	s.Count += other.Count
	s.RawBytes += other.RawBytes
	s.SealedBytes += other.SealedBytes
}

// BytesPerValue returns the average sealed size of a value.
func (s BlockStats) BytesPerValue() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.SealedBytes) / float64(s.Count)
}

// String implements fmt.Stringer.
func (s BlockStats) String() string {
	return redact.StringWithoutMarkers(s)
}

// SafeFormat implements redact.SafeFormatter.
func (s BlockStats) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%s blocks, %s values, %s raw, %s sealed",
		crhumanize.Count(uint64(s.Blocks), crhumanize.Compact),
		crhumanize.Count(uint64(s.Count), crhumanize.Compact),
		crhumanize.Bytes(uint64(s.RawBytes), crhumanize.Compact, crhumanize.OmitI),
		crhumanize.Bytes(uint64(s.SealedBytes), crhumanize.Compact, crhumanize.OmitI))
}
