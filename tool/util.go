// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/cfile"
	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/errors"
)

var stdout = io.Writer(os.Stdout)
var stderr = io.Writer(os.Stderr)
var osExit = os.Exit

// column is a stream read into memory.
type column struct {
	path      string
	blocks    []cfile.StreamBlock
	valueType block.ValueType
}

func (t *T) readColumn(path string) (*column, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	blocks, err := cfile.ReadAll(f, cfile.ReaderOptions{Logger: t.loggerOrNoop()})
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	c := &column{path: path, blocks: blocks}
	if len(blocks) > 0 {
		enc, err := blocks[0].Encoding()
		if err != nil {
			return nil, err
		}
		c.valueType = enc.ValueType()
	}
	return c, nil
}

// mustReadColumn reads the column at path, printing the error and exiting on
// failure.
func (t *T) mustReadColumn(path string) *column {
	c, err := t.readColumn(path)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
		return nil
	}
	return c
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid uint32 value %q", s)
	}
	return uint32(v), nil
}

func formatUint32(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}

// formatBytes renders a value through base.FormattedBytes, which redacts it
// in safe-formatted output.
func formatBytes(v []byte) string {
	return base.FormattedBytes(v).String()
}
