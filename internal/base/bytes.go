// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"bytes"
	"strconv"

	"github.com/cockroachdb/crlib/crbytes"
	"github.com/cockroachdb/redact"
)

// Values produced by the string decoders and targets handed to seeks are plain
// []byte views. A view never owns its bytes: it points either into an
// immutable block or into a scratch arena supplied by the caller.

// Compare returns -1, 0 or +1 depending on whether a is lexicographically
// less than, equal to or greater than b.
func Compare(a, b []byte) int {
	return bytes.Compare(a, b)
}

// Equal reports whether a and b hold the same bytes.
func Equal(a, b []byte) bool {
	return bytes.Equal(a, b)
}

// SharedPrefixLen returns the length of the longest common prefix of a and b.
func SharedPrefixLen(a, b []byte) int {
	return crbytes.CommonPrefix(a, b)
}

// maxFormattedLen bounds the number of bytes FormatBytes renders before
// eliding the remainder.
const maxFormattedLen = 64

// FormatBytes renders b as a quoted string suitable for logs and CLI output.
// Long values are truncated.
func FormatBytes(b []byte) string {
	if len(b) <= maxFormattedLen {
		return strconv.Quote(string(b))
	}
	return strconv.Quote(string(b[:maxFormattedLen])) + "..."
}

// FormattedBytes wraps a value so that it is redacted in safe-formatted
// output, while still printing its quoted form otherwise.
type FormattedBytes []byte

// SafeFormat implements redact.SafeFormatter.
func (b FormattedBytes) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(FormatBytes(b))
}

// String implements fmt.Stringer.
func (b FormattedBytes) String() string {
	return redact.StringWithoutMarkers(b)
}
