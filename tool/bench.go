// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cockroachdb/cfile"
	"github.com/cockroachdb/cfile/arena"
	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/crlib/crtime"
	"github.com/cockroachdb/crlib/fifo"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/tokenbucket"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	minLatency = 10 * time.Nanosecond
	maxLatency = 10 * time.Second
	// benchReadLen is the number of values read after each seek.
	benchReadLen = 32
)

// benchT implements the bench command, which measures the latency of
// concurrent seeks over the blocks of a column stream.
type benchT struct {
	Cmd *cobra.Command
	t   *T

	// Flags.
	concurrency int
	inflight    int
	ops         int
	rate        float64
	interval    time.Duration
	seed        uint64
}

func newBench(t *T) *benchT {
	b := &benchT{t: t}
	b.Cmd = &cobra.Command{
		Use:   "bench <file>",
		Short: "benchmark concurrent seeks over a column stream",
		Long: `
Run random seeks from concurrent workers, each with its own decoders over the
shared blocks of the stream. Half of the operations seek to a random ordinal
and half seek to a value drawn from the column; both then read a batch of
values. Latency percentiles and the throughput over time are printed when the
run completes.
`,
		Args: cobra.ExactArgs(1),
		Run:  b.run,
	}
	f := b.Cmd.Flags()
	f.IntVarP(&b.concurrency, "concurrency", "c", 4, "number of concurrent workers")
	f.IntVar(&b.inflight, "inflight", 0, "maximum number of in-flight operations (0 means concurrency)")
	f.IntVarP(&b.ops, "ops", "n", 10000, "total number of operations")
	f.Float64Var(&b.rate, "rate", 0, "maximum operations per second (0 means unlimited)")
	f.DurationVar(&b.interval, "interval", 100*time.Millisecond, "throughput sampling interval")
	f.Uint64Var(&b.seed, "seed", 1, "random seed")
	return b
}

// limiter is a token bucket shared by the workers.
type limiter struct {
	mu sync.Mutex
	tb tokenbucket.TokenBucket
}

func newLimiter(rate float64) *limiter {
	if rate <= 0 {
		return nil
	}
	l := &limiter{}
	l.tb.Init(tokenbucket.TokensPerSecond(rate), tokenbucket.Tokens(max(rate/10, 1)))
	return l
}

func (l *limiter) wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	for {
		l.mu.Lock()
		ok, tryAgainAfter := l.tb.TryToFulfill(1)
		l.mu.Unlock()
		if ok {
			return nil
		}
		select {
		case <-time.After(tryAgainAfter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// benchOp is a single benchmark operation against a worker's scanner.
type benchOp func(rng *rand.Rand) error

// benchWorkload creates the per-worker operations for a column.
func benchWorkload(c *column) (newOp func() (benchOp, error), err error) {
	blocks := cfile.Blocks(c.blocks)
	count := cfile.TotalStats(c.blocks).Count
	if count == 0 {
		return nil, errors.Newf("%s: empty column", c.path)
	}
	switch c.valueType {
	case block.ValueTypeUint32:
		values, err := decodeAll(blocks, cfile.NewUint32Scanner, nil)
		if err != nil {
			return nil, err
		}
		return func() (benchOp, error) {
			s, err := cfile.NewUint32Scanner(blocks)
			if err != nil {
				return nil, err
			}
			sink := block.NewColumnBlock[uint32](benchReadLen, nil)
			return newBenchOp(s, sink, values), nil
		}, nil
	default:
		values, err := decodeAll(blocks, cfile.NewBytesScanner, arena.NewGrowable(64<<10, 1<<20))
		if err != nil {
			return nil, err
		}
		return func() (benchOp, error) {
			s, err := cfile.NewBytesScanner(blocks)
			if err != nil {
				return nil, err
			}
			sink := block.NewColumnBlock[[]byte](benchReadLen, arena.NewGrowable(4<<10, 1<<20))
			return newBenchOp(s, sink, values), nil
		}, nil
	}
}

// decodeAll decodes every value of the column. Values materialized into a
// are retained.
func decodeAll[T any](
	blocks []block.Block, newScanner func([]block.Block) (*cfile.Scanner[T], error), a *arena.Arena,
) ([]T, error) {
	s, err := newScanner(blocks)
	if err != nil {
		return nil, err
	}
	var values []T
	sink := block.NewColumnBlock[T](1024, a)
	for {
		sink.Reset()
		n, err := s.Read(sink)
		values = append(values, sink.Values()[:n]...)
		if err != nil {
			if err == io.EOF {
				return values, nil
			}
			return nil, err
		}
	}
}

func newBenchOp[T any](s *cfile.Scanner[T], sink *block.ColumnBlock[T], values []T) benchOp {
	return func(rng *rand.Rand) error {
		if a := sink.Arena(); a != nil {
			a.Reset()
		}
		sink.Reset()
		if rng.IntN(2) == 0 {
			ord := cfile.OrdinalPos(rng.IntN(len(values)))
			if err := s.SeekToOrdinal(ord); err != nil {
				return err
			}
		} else {
			if _, err := s.SeekAtOrAfter(values[rng.IntN(len(values))]); err != nil &&
				!errors.Is(err, cfile.ErrNotFound) {
				return err
			}
		}
		if _, err := s.Read(sink); err != nil && err != io.EOF {
			return err
		}
		return nil
	}
}

func (b *benchT) run(cmd *cobra.Command, args []string) {
	c := b.t.mustReadColumn(args[0])
	if c == nil {
		return
	}
	if err := b.bench(cmd.Context(), c); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
	}
}

func (b *benchT) bench(ctx context.Context, c *column) error {
	if ctx == nil {
		ctx = context.Background()
	}
	newOp, err := benchWorkload(c)
	if err != nil {
		return err
	}
	concurrency := max(b.concurrency, 1)
	inflight := b.inflight
	if inflight <= 0 {
		inflight = concurrency
	}
	interval := b.interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	sema := fifo.NewSemaphore(int64(inflight))
	lim := newLimiter(b.rate)

	var remaining, completed atomic.Int64
	remaining.Store(int64(b.ops))
	hists := make([]*hdrhistogram.Histogram, concurrency)

	g, ctx := errgroup.WithContext(ctx)
	start := crtime.NowMono()
	for w := 0; w < concurrency; w++ {
		op, err := newOp()
		if err != nil {
			return err
		}
		hist := hdrhistogram.New(minLatency.Nanoseconds(), maxLatency.Nanoseconds(), 2)
		hists[w] = hist
		rng := rand.New(rand.NewPCG(b.seed, uint64(w)))
		g.Go(func() error {
			for remaining.Add(-1) >= 0 {
				if err := lim.wait(ctx); err != nil {
					return err
				}
				if err := sema.Acquire(ctx, 1); err != nil {
					return err
				}
				opStart := crtime.NowMono()
				err := op(rng)
				_ = hist.RecordValue(opStart.Elapsed().Nanoseconds())
				sema.Release(1)
				if err != nil {
					return err
				}
				completed.Add(1)
			}
			return nil
		})
	}

	// Sample the throughput until the workers finish.
	done := make(chan struct{})
	sampled := make(chan []float64)
	go func() {
		var samples []float64
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var last int64
		for {
			select {
			case <-ticker.C:
				n := completed.Load()
				samples = append(samples, float64(n-last)/interval.Seconds())
				last = n
			case <-done:
				sampled <- samples
				return
			}
		}
	}()
	err = g.Wait()
	close(done)
	samples := <-sampled
	if err != nil {
		return err
	}
	elapsed := start.Elapsed()

	hist := hdrhistogram.New(minLatency.Nanoseconds(), maxLatency.Nanoseconds(), 2)
	for _, h := range hists {
		hist.Merge(h)
	}
	n := completed.Load()
	fmt.Fprintf(stdout, "%d ops in %s (%.0f ops/sec), %d workers\n",
		n, elapsed.Round(time.Millisecond), float64(n)/elapsed.Seconds(), concurrency)
	fmt.Fprintf(stdout, "latency: mean %s p50 %s p95 %s p99 %s max %s\n",
		time.Duration(hist.Mean()).Round(time.Nanosecond),
		time.Duration(hist.ValueAtQuantile(50)),
		time.Duration(hist.ValueAtQuantile(95)),
		time.Duration(hist.ValueAtQuantile(99)),
		time.Duration(hist.Max()))
	if len(samples) > 1 {
		fmt.Fprintf(stdout, "throughput (ops/sec per %s):\n%s\n", interval,
			asciigraph.Plot(samples, asciigraph.Height(8)))
	}
	return nil
}
