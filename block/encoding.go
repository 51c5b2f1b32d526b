// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// EncodingType identifies the layout of a block. The value is the first byte
// of every block and must not change.
type EncodingType uint8

const (
	// EncodingGroupVarint is the frame-of-reference group-varint encoding of
	// uint32 values.
	EncodingGroupVarint EncodingType = 1
	// EncodingPlain stores byte strings uncompressed behind an offset table.
	EncodingPlain EncodingType = 2
	// EncodingPrefix stores byte strings with shared-prefix compression and
	// periodic restart points.
	EncodingPrefix EncodingType = 3

	maxEncodingType = EncodingPrefix
)

// ValueType is the type of value stored in a block.
type ValueType uint8

const (
	// ValueTypeUint32 is an unsigned 32-bit integer.
	ValueTypeUint32 ValueType = iota
	// ValueTypeBytes is a variable-length byte string.
	ValueTypeBytes
)

// String implements fmt.Stringer.
func (t ValueType) String() string {
	switch t {
	case ValueTypeUint32:
		return "uint32"
	case ValueTypeBytes:
		return "string"
	default:
		return "unknown"
	}
}

// SafeFormat implements redact.SafeFormatter.
func (t ValueType) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(t.String()))
}

// ParseValueType parses the name produced by ValueType.String.
func ParseValueType(s string) (ValueType, error) {
	switch s {
	case "uint32":
		return ValueTypeUint32, nil
	case "string", "bytes":
		return ValueTypeBytes, nil
	default:
		return 0, errors.Newf("unknown value type %q", s)
	}
}

// Valid returns true if e is a known encoding.
func (e EncodingType) Valid() bool {
	return e >= EncodingGroupVarint && e <= maxEncodingType
}

// ValueType returns the type of the values the encoding stores.
func (e EncodingType) ValueType() ValueType {
	if e == EncodingGroupVarint {
		return ValueTypeUint32
	}
	return ValueTypeBytes
}

// String implements fmt.Stringer.
func (e EncodingType) String() string {
	switch e {
	case EncodingGroupVarint:
		return "gvint"
	case EncodingPlain:
		return "plain"
	case EncodingPrefix:
		return "prefix"
	default:
		return "unknown"
	}
}

// SafeFormat implements redact.SafeFormatter.
func (e EncodingType) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(e.String()))
}

// ParseEncodingType parses the name produced by EncodingType.String.
func ParseEncodingType(s string) (EncodingType, error) {
	for e := EncodingGroupVarint; e <= maxEncodingType; e++ {
		if e.String() == s {
			return e, nil
		}
	}
	return 0, errors.Newf("unknown block encoding %q", s)
}
