// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package prefixblk

import (
	"github.com/cockroachdb/cfile/block"
	"github.com/cockroachdb/cfile/internal/base"
	"github.com/cockroachdb/cfile/internal/binfmt"
)

// Describe returns an annotated hex rendering of the block's layout. The block
// is validated first; a malformed block is reported as an error.
func Describe(b block.Block) (string, error) {
	d := NewDecoder(b)
	if err := d.ParseHeader(); err != nil {
		return "", err
	}
	f := binfmt.New(b.Data)
	f.HexBytesln(1, "encoding: %s", block.EncodingPrefix)
	f.Uint32("entry count")
	f.Uint32("restart interval")
	for i := 0; i < d.count; i++ {
		if i%d.restartInterval == 0 {
			f.Comment("restart %d", i/d.restartInterval)
		}
		f.Uvarint("shared")
		unshared := f.Uvarint("unshared")
		if unshared == 0 {
			f.Comment("row %d: %s", i, base.FormatBytes(d.key))
		} else {
			f.HexBytesln(int(unshared), "row %d: %s", i, base.FormatBytes(d.key))
		}
		d.next()
	}
	for r := 0; r < d.numRestarts; r++ {
		f.Uint32("offset of restart %d", r)
	}
	f.Uint32("restart count")
	return f.String(), nil
}
