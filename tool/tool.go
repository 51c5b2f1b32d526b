// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package tool implements the cfile command line tools: building column
// streams from text, and inspecting, scanning, seeking and benchmarking them.
package tool

import (
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/spf13/cobra"
)

// T is the container for all of the introspection tools.
type T struct {
	Commands []*cobra.Command
	// logger, if set, overrides the logger chosen by --verbose.
	logger  base.Logger
	verbose bool

	build *buildT
	bench *benchT

	dumpHex   bool
	scanStart uint32
	scanLimit int
}

// New creates a new introspection tool.
func New() *T {
	t := &T{}
	t.build = newBuild(t)
	t.bench = newBench(t)

	dump := &cobra.Command{
		Use:   "dump <file>",
		Short: "print the blocks of a column stream",
		Long: `
Print a table with one row per block of the stream. The --hex flag adds an
annotated hex rendering of the layout of each block.
`,
		Args: cobra.ExactArgs(1),
		Run:  t.runDump,
	}
	dump.Flags().BoolVar(&t.dumpHex, "hex", false, "print the layout of every block")

	scan := &cobra.Command{
		Use:   "scan <file>",
		Short: "print the values of a column stream",
		Args:  cobra.ExactArgs(1),
		Run:   t.runScan,
	}
	scan.Flags().Uint32Var(&t.scanStart, "start", 0, "ordinal of the first value to print")
	scan.Flags().IntVar(&t.scanLimit, "limit", 0, "maximum number of values to print (0 means unlimited)")

	seek := &cobra.Command{
		Use:   "seek <file> <values>",
		Short: "find the first value at or after each target",
		Long: `
Seek to the first value at or after each of the given targets, printing its
ordinal and whether it equals the target. The values of the column must be
sorted.
`,
		Args: cobra.MinimumNArgs(2),
		Run:  t.runSeek,
	}

	stats := &cobra.Command{
		Use:   "stats <file>",
		Short: "print size and cardinality statistics of a column stream",
		Args:  cobra.ExactArgs(1),
		Run:   t.runStats,
	}

	t.Commands = []*cobra.Command{t.build.Cmd, dump, scan, seek, t.bench.Cmd, stats}
	for _, cmd := range t.Commands {
		cmd.Flags().BoolVarP(&t.verbose, "verbose", "v", false, "log every block written or rejected")
	}
	return t
}

func (t *T) loggerOrNoop() base.Logger {
	if t.logger != nil {
		return t.logger
	}
	if t.verbose {
		return base.DefaultLogger{}
	}
	return base.NoopLogger{}
}
