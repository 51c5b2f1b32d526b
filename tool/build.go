// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/cfile"
	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/internal/compression"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// buildT implements the build command, which encodes a text file holding one
// value per line into a column stream.
type buildT struct {
	Cmd *cobra.Command
	t   *T

	// Flags.
	valueType       string
	encoding        string
	options         string
	blockSize       int
	restartInterval int
	compression     string
	checksum        string
}

func newBuild(t *T) *buildT {
	b := &buildT{t: t}
	b.Cmd = &cobra.Command{
		Use:   "build <input> <output>",
		Short: "encode a text file of values into a column stream",
		Long: `
Encode the values in the input file, one per line, into a column stream. The
encoding defaults to gvint for uint32 values and prefix for strings. Writer
options may be given in an options file (see --options); flags override it.
`,
		Args: cobra.ExactArgs(2),
		Run:  b.run,
	}
	f := b.Cmd.Flags()
	f.StringVar(&b.valueType, "type", "string", "value type: uint32 or string")
	f.StringVar(&b.encoding, "encoding", "", "block encoding: gvint, plain or prefix")
	f.StringVar(&b.options, "options", "", "path to a writer options file")
	f.IntVar(&b.blockSize, "block-size", 0, "target block size in bytes")
	f.IntVar(&b.restartInterval, "restart-interval", 0, "entries between restart points of prefix blocks")
	f.StringVar(&b.compression, "compression", "", "compression: none, snappy, zstd or minlz")
	f.StringVar(&b.checksum, "checksum", "", "checksum: crc32c or xxhash64")
	return b
}

func (b *buildT) writerOptions() (block.WriterOptions, error) {
	var opts block.WriterOptions
	if b.options != "" {
		data, err := os.ReadFile(b.options)
		if err != nil {
			return opts, err
		}
		if err := opts.Parse(string(data)); err != nil {
			return opts, err
		}
	}
	if b.blockSize != 0 {
		opts.BlockSize = b.blockSize
	}
	if b.restartInterval != 0 {
		opts.RestartInterval = b.restartInterval
	}
	if b.compression != "" {
		algo, err := compression.ParseAlgorithm(b.compression)
		if err != nil {
			return opts, err
		}
		opts.Compression = algo
	}
	if b.checksum != "" {
		ck, err := block.ParseChecksumType(b.checksum)
		if err != nil {
			return opts, err
		}
		opts.Checksum = ck
	}
	opts.Logger = b.t.loggerOrNoop()
	return opts.EnsureDefaults(), nil
}

func (b *buildT) run(cmd *cobra.Command, args []string) {
	if err := b.build(args[0], args[1]); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
	}
}

func (b *buildT) build(inputPath, outputPath string) (err error) {
	vt, err := block.ParseValueType(b.valueType)
	if err != nil {
		return err
	}
	enc := block.EncodingPrefix
	if vt == block.ValueTypeUint32 {
		enc = block.EncodingGroupVarint
	}
	if b.encoding != "" {
		if enc, err = block.ParseEncodingType(b.encoding); err != nil {
			return err
		}
	}
	opts, err := b.writerOptions()
	if err != nil {
		return err
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.CombineErrors(err, out.Close())
	}()

	var stats block.BlockStats
	if vt == block.ValueTypeUint32 {
		stats, err = buildUint32s(in, out, enc, opts)
	} else {
		stats, err = buildBytes(in, out, enc, opts)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %s %s column, %s\n", outputPath, enc, vt, stats)
	return nil
}

func buildUint32s(
	in io.Reader, out io.Writer, enc block.EncodingType, opts block.WriterOptions,
) (block.BlockStats, error) {
	w, err := cfile.NewUint32Writer(out, enc, opts)
	if err != nil {
		return block.BlockStats{}, err
	}
	s := bufio.NewScanner(in)
	for line := 1; s.Scan(); line++ {
		v, err := parseUint32(s.Text())
		if err != nil {
			return block.BlockStats{}, errors.Wrapf(err, "line %d", line)
		}
		if err := w.Add([]uint32{v}); err != nil {
			return block.BlockStats{}, err
		}
	}
	if err := s.Err(); err != nil {
		return block.BlockStats{}, err
	}
	if err := w.Close(); err != nil {
		return block.BlockStats{}, err
	}
	return w.Stats(), nil
}

func buildBytes(
	in io.Reader, out io.Writer, enc block.EncodingType, opts block.WriterOptions,
) (block.BlockStats, error) {
	w, err := cfile.NewBytesWriter(out, enc, opts)
	if err != nil {
		return block.BlockStats{}, err
	}
	s := bufio.NewScanner(in)
	s.Buffer(nil, 1<<20)
	for s.Scan() {
		// The builder copies the value, so the scanner's buffer may be reused.
		if err := w.Add([][]byte{s.Bytes()}); err != nil {
			return block.BlockStats{}, err
		}
	}
	if err := s.Err(); err != nil {
		return block.BlockStats{}, err
	}
	if err := w.Close(); err != nil {
		return block.BlockStats{}, err
	}
	return w.Stats(), nil
}
