// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binfmt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatter(t *testing.T) {
	data := []byte{0x01, 0x02, 0x00, 0x00, 0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}
	f := New(data)
	f.HexBytesln(1, "tag")
	require.Equal(t, uint32(2), f.Uint32("count"))
	require.Equal(t, uint64(5), f.Uvarint("len"))
	f.HexTextln(f.Remaining())
	require.False(t, f.More())
	f.Comment("done")
	require.Equal(t, ""+
		"00-01: x 01         # tag\n"+
		"01-05: x 02000000   # u32(2): count\n"+
		"05-06: x 05         # uvarint(5): len\n"+
		"06-11: x 68656c6c6f # hello\n"+
		"# done\n", f.String())
}
