// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package invariants exposes assertions that are only compiled in when the
// "invariants" or "race" build tags are set.
package invariants

import (
	"math/rand/v2"

	"golang.org/x/exp/constraints"
)

// Sometimes returns true percent% of the time if we were built with the
// "invariants" of "race" build tags
func Sometimes(percent int) bool {
	return Enabled && rand.Uint32N(100) < uint32(percent)
}

// SafeSub returns a - b. If a < b, it panics in invariant builds and returns
// 0 in non-invariant builds.
func SafeSub[T constraints.Integer](a, b T) T {
	if a < b {
		if Enabled {
			panicf("underflow: %d - %d", a, b)
		}
		return 0
	}
	return a - b
}

// CheckBounds panics if the index is not in the range [0, n). No-op in
// non-invariant builds.
func CheckBounds[T constraints.Integer](i T, n T) {
	if Enabled && (i < 0 || i >= n) {
		panicf("index %d out of bounds [0, %d)", i, n)
	}
}
