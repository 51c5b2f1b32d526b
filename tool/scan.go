// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"io"

	"github.com/cockroachdb/cfile"
	"github.com/cockroachdb/cfile/arena"
	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// scanBatch is the number of values decoded at a time.
const scanBatch = 128

// printValues prints the values of s from its current position, stopping
// after limit values if limit is positive.
func printValues[T any](
	s *cfile.Scanner[T], sink *block.ColumnBlock[T], limit int, format func(T) string,
) error {
	printed := 0
	for limit <= 0 || printed < limit {
		if a := sink.Arena(); a != nil {
			a.Reset()
		}
		sink.Reset()
		ord := s.OrdinalPos()
		n, err := s.Read(sink)
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		for i, v := range sink.Values()[:n] {
			if limit > 0 && printed == limit {
				break
			}
			fmt.Fprintf(stdout, "%d: %s\n", ord.Add(i), format(v))
			printed++
		}
	}
	return nil
}

func (t *T) runScan(cmd *cobra.Command, args []string) {
	c := t.mustReadColumn(args[0])
	if c == nil {
		return
	}
	if err := t.scan(c); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
	}
}

func (t *T) scan(c *column) error {
	start := base.OrdinalPos(t.scanStart)
	switch c.valueType {
	case block.ValueTypeUint32:
		s, err := cfile.NewUint32Scanner(cfile.Blocks(c.blocks))
		if err != nil {
			return err
		}
		if err := seekStart(s, start); err != nil {
			return err
		}
		return printValues(s, block.NewColumnBlock[uint32](scanBatch, nil), t.scanLimit, formatUint32)
	default:
		s, err := cfile.NewBytesScanner(cfile.Blocks(c.blocks))
		if err != nil {
			return err
		}
		if err := seekStart(s, start); err != nil {
			return err
		}
		sink := block.NewColumnBlock[[]byte](scanBatch, arena.NewGrowable(4<<10, 1<<20))
		return printValues(s, sink, t.scanLimit, formatBytes)
	}
}

func seekStart[T any](s *cfile.Scanner[T], start base.OrdinalPos) error {
	if start == 0 {
		return nil
	}
	if err := s.SeekToOrdinal(start); err != nil && !errors.Is(err, cfile.ErrNotFound) {
		return err
	}
	return nil
}

func (t *T) runSeek(cmd *cobra.Command, args []string) {
	c := t.mustReadColumn(args[0])
	if c == nil {
		return
	}
	if err := t.seek(c, args[1:]); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
	}
}

func (t *T) seek(c *column, targets []string) error {
	switch c.valueType {
	case block.ValueTypeUint32:
		s, err := cfile.NewUint32Scanner(cfile.Blocks(c.blocks))
		if err != nil {
			return err
		}
		for _, arg := range targets {
			target, err := parseUint32(arg)
			if err != nil {
				return err
			}
			if err := seekOne(s, target, arg, formatUint32); err != nil {
				return err
			}
		}
	default:
		s, err := cfile.NewBytesScanner(cfile.Blocks(c.blocks))
		if err != nil {
			return err
		}
		for _, arg := range targets {
			if err := seekOne(s, []byte(arg), formatBytes([]byte(arg)), formatBytes); err != nil {
				return err
			}
		}
	}
	return nil
}

func seekOne[T any](s *cfile.Scanner[T], target T, name string, format func(T) string) error {
	exact, err := s.SeekAtOrAfter(target)
	if errors.Is(err, cfile.ErrNotFound) {
		fmt.Fprintf(stdout, "%s: not found\n", name)
		return nil
	} else if err != nil {
		return err
	}
	ord := s.OrdinalPos()
	sink := block.NewColumnBlock[T](1, nil)
	if _, err := s.Read(sink); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: ordinal %d value %s exact=%t\n", name, ord, format(sink.Values()[0]), exact)
	return nil
}
