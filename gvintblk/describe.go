// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package gvintblk

import (
	"github.com/cockroachdb/cfile/block"
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
	f.HexBytesln(1, "encoding: %s", block.EncodingGroupVarint)
	f.Uint32("entry count")
	if d.count == 0 {
		return f.String(), nil
	}
	f.Uint32("frame of reference")
	for g := range d.groupOffsets {
		sel := f.PeekUint(1)
		f.Byte("group %d selector", g)
		d.loadGroup(g)
		for i := 0; i < groupSize; i++ {
			w := int((sel>>(2*i))&3) + 1
			row := g*groupSize + i
			if row < d.count {
				f.HexBytesln(w, "row %d: %d", row, d.group[i])
			} else {
				f.HexBytesln(w, "padding")
			}
		}
	}
	return f.String(), nil
}
