// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/cfile/internal/compression"
	"github.com/cockroachdb/errors"
)

const (
	// DefaultBlockSize is the default target size of an encoded block.
	DefaultBlockSize = 256 << 10
	// DefaultRestartInterval is the default number of entries between restart
	// points in prefix-compressed blocks.
	DefaultRestartInterval = 16
)

// WriterOptions configure block builders and the writers that seal blocks
// for storage.
type WriterOptions struct {
	// BlockSize is the target size of an encoded block. Builders stop
	// accepting values once the estimated block size would exceed it. The
	// first value of a block is always accepted.
	BlockSize int

	// RestartInterval is the number of entries between restart points in
	// prefix-compressed blocks. A value of 1 disables prefix compression.
	RestartInterval int

	// Compression is the algorithm applied to encoded blocks when they are
	// sealed.
	Compression compression.Algorithm

	// Checksum is the checksum recorded in the envelope of sealed blocks.
	Checksum ChecksumType

	// Logger is used by writers to report finished blocks.
	Logger base.Logger

	// Metrics, if set, receives a sample for each finished block.
	Metrics *Metrics
}

// EnsureDefaults returns a copy of the options with zero fields set to their
// defaults.
func (o WriterOptions) EnsureDefaults() WriterOptions {
	if o.BlockSize <= 0 {
		o.BlockSize = DefaultBlockSize
	}
	if o.RestartInterval <= 0 {
		o.RestartInterval = DefaultRestartInterval
	}
	if o.Checksum == ChecksumTypeNone {
		o.Checksum = ChecksumTypeXXHash64
	}
	if o.Logger == nil {
		o.Logger = base.DefaultLogger{}
	}
	return o
}

// String returns the options in an INI-like format that Parse accepts.
func (o *WriterOptions) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "[Writer]\n")
	fmt.Fprintf(&buf, "  block_size=%d\n", o.BlockSize)
	fmt.Fprintf(&buf, "  restart_interval=%d\n", o.RestartInterval)
	fmt.Fprintf(&buf, "  compression=%s\n", o.Compression)
	fmt.Fprintf(&buf, "  checksum=%s\n", o.Checksum)
	return buf.String()
}

// Parse parses options in the format produced by String, overwriting the
// fields it names. Blank lines and lines starting with ';' or '#' are
// ignored. Unknown sections and keys are errors.
func (o *WriterOptions) Parse(s string) error {
	var section string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 || line[0] == ';' || line[0] == '#' {
			continue
		}
		n := len(line)
		if line[0] == '[' && line[n-1] == ']' {
			section = line[1 : n-1]
			if section != "Writer" {
				return errors.Newf("cfile: unknown options section %q", section)
			}
			continue
		}
		pos := strings.Index(line, "=")
		if pos < 0 {
			const maxLen = 50
			if len(line) > maxLen {
				line = line[:maxLen-3] + "..."
			}
			return errors.Newf("cfile: invalid key=value syntax: %q", line)
		}
		if section == "" {
			return errors.Newf("cfile: option %q outside of a section", line)
		}
		key := strings.TrimSpace(line[:pos])
		value := strings.TrimSpace(line[pos+1:])

		var err error
		switch key {
		case "block_size":
			o.BlockSize, err = strconv.Atoi(value)
		case "restart_interval":
			o.RestartInterval, err = strconv.Atoi(value)
		case "compression":
			o.Compression, err = compression.ParseAlgorithm(value)
		case "checksum":
			o.Checksum, err = ParseChecksumType(value)
		default:
			return errors.Newf("cfile: unknown option %s.%s", section, key)
		}
		if err != nil {
			return errors.Wrapf(err, "cfile: parsing %s.%s", section, key)
		}
	}
	return nil
}
