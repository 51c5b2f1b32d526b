// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package bitflip detects single-bit corruptions behind checksum mismatches.
package bitflip

// iterationLimit bounds the number of bytes inspected.
const iterationLimit = 40 << 10

// CheckSliceForBitFlip flips each bit of data in turn, looking for a single
// flip that makes the checksum match. It returns the byte index and bit of
// the first such flip. The data is restored before returning.
func CheckSliceForBitFlip(
	data []byte, computeChecksum func([]byte) uint64, expectedChecksum uint64,
) (found bool, indexFound int, bitFound int) {
	for i := 0; i < min(len(data), iterationLimit); i++ {
		for bit := 0; bit < 8; bit++ {
			data[i] ^= 1 << bit
			match := computeChecksum(data) == expectedChecksum
			data[i] ^= 1 << bit
			if match {
				return true, i, bit
			}
		}
	}
	return false, 0, 0
}
