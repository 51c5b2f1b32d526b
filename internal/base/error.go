// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "github.com/cockroachdb/errors"

// ErrNotFound means that a seek did not find a value at or after the target.
// It is an expected outcome of a seek past the last value of a block, not a
// sign of a malformed block.
var ErrNotFound = errors.New("cfile: not found")

// ErrCorruption is a marker to indicate that data in a block is corrupted.
var ErrCorruption = errors.New("cfile: corruption")

// ErrInvalidArgument is a marker to indicate that a caller violated a
// precondition of a decoding call.
var ErrInvalidArgument = errors.New("cfile: invalid argument")

// MarkCorruptionError marks given error as a corruption error.
func MarkCorruptionError(err error) error {
	if errors.Is(err, ErrCorruption) {
		return err
	}
	return errors.Mark(err, ErrCorruption)
}

// IsCorruptionError returns true if the given error indicates corruption.
func IsCorruptionError(err error) bool {
	return errors.Is(err, ErrCorruption)
}

// CorruptionErrorf formats according to a format specifier and returns
// the string as an error value that is marked as a corruption error.
func CorruptionErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrCorruption)
}

// InvalidArgumentf formats according to a format specifier and returns the
// string as an error value that is marked as an invalid argument error.
func InvalidArgumentf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidArgument)
}
