// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

// OrdinalPos is the 0-based logical row number of a value within its column.
// Ordinals are contiguous across the blocks of a column: a block tagged with
// base B holding N values covers [B, B+N).
type OrdinalPos uint32

// Add returns the ordinal n rows after o.
func (o OrdinalPos) Add(n int) OrdinalPos {
	return o + OrdinalPos(n)
}
