// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package binfmt exposes utilities for formatting binary data with descriptive
// comments.
package binfmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// New constructs a new binary formatter.
func New(data []byte) *Formatter {
	offsetWidth := strconv.Itoa(len(strconv.Itoa(max(len(data)-1, 0))))
	return &Formatter{
		data:            data,
		lineWidth:       40,
		offsetFormatStr: "%0" + offsetWidth + "d-%0" + offsetWidth + "d: ",
	}
}

// Formatter is a utility for formatting binary data with descriptive comments.
// Each formatting call consumes bytes from the current offset and produces one
// or more lines of the form:
//
//	<start>-<end>: x <hex>   # <comment>
type Formatter struct {
	buf   bytes.Buffer
	lines [][2]string // (binary data, comment) tuples
	data  []byte
	off   int

	lineWidth       int
	linePrefix      string
	offsetFormatStr string
}

// SetLinePrefix sets a prefix for each line of formatted output.
func (f *Formatter) SetLinePrefix(prefix string) {
	f.linePrefix = prefix
}

// LineWidth sets the Formatter's maximum line width for binary data.
func (f *Formatter) LineWidth(width int) *Formatter {
	f.lineWidth = width
	return f
}

// More returns true if there is more data in the byte slice that can be formatted.
func (f *Formatter) More() bool {
	return f.off < len(f.data)
}

// Remaining returns the number of unformatted bytes remaining in the byte slice.
func (f *Formatter) Remaining() int {
	return len(f.data) - f.off
}

// Offset returns the current offset within the original data slice.
func (f *Formatter) Offset() int {
	return f.off
}

// PeekUint reads a little-endian unsigned integer of the specified width at the
// current offset.
func (f *Formatter) PeekUint(w int) uint64 {
	switch w {
	case 1:
		return uint64(f.data[f.off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(f.data[f.off:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(f.data[f.off:]))
	case 8:
		return binary.LittleEndian.Uint64(f.data[f.off:])
	default:
		panic("unsupported width")
	}
}

// Byte formats a single byte in binary format, displaying each bit as a zero or
// one.
func (f *Formatter) Byte(format string, args ...interface{}) int {
	f.printOffsets(1)
	f.printf("b %08b", f.data[f.off])
	f.off++
	f.newline(fmt.Sprintf(format, args...))
	return 1
}

// Uint32 formats the next four bytes as a little-endian uint32, prefixing the
// comment with the decoded value.
func (f *Formatter) Uint32(format string, args ...interface{}) uint32 {
	v := uint32(f.PeekUint(4))
	f.HexBytesln(4, "u32(%d): %s", v, fmt.Sprintf(format, args...))
	return v
}

// HexBytesln formats the next n bytes in hexadecimal format, appending the
// formatted comment string to each line and ending on a newline.
func (f *Formatter) HexBytesln(n int, format string, args ...interface{}) int {
	comment := strings.TrimSpace(fmt.Sprintf(format, args...))
	consumed := n
	for first := true; first || n > 0; first = false {
		k := f.hexLine(n)
		f.newline(comment)
		comment = "(continued...)"
		n -= k
	}
	return consumed
}

// HexTextln formats the next n bytes in hexadecimal format, appending a comment
// to each line showing the ASCII equivalent characters for each byte for bytes
// that are human-readable.
func (f *Formatter) HexTextln(n int) int {
	consumed := n
	for first := true; first || n > 0; first = false {
		start := f.off
		k := f.hexLine(n)
		f.newline(asciiChars(f.data[start : start+k]))
		n -= k
	}
	return consumed
}

// Uvarint decodes the bytes at the current offset as a uvarint, formatting them
// in hexadecimal and prefixing the comment with the encoded decimal value.
func (f *Formatter) Uvarint(format string, args ...interface{}) uint64 {
	comment := fmt.Sprintf(format, args...)
	v, n := binary.Uvarint(f.data[f.off:])
	if n <= 0 {
		f.HexBytesln(f.Remaining(), "invalid uvarint: %s", comment)
		return 0
	}
	f.HexBytesln(n, "uvarint(%d): %s", v, comment)
	return v
}

// Comment appends a line holding only a comment.
func (f *Formatter) Comment(format string, args ...interface{}) {
	f.newline(fmt.Sprintf(format, args...))
}

// String returns the current formatted output.
func (f *Formatter) String() string {
	var out strings.Builder
	// Align comments to the right of the widest binary data.
	width := 0
	for _, l := range f.lines {
		width = max(width, len(l[0]))
	}
	for _, l := range f.lines {
		out.WriteString(f.linePrefix)
		out.WriteString(l[0])
		switch {
		case len(l[1]) == 0:
		case len(l[0]) == 0:
			out.WriteString("# ")
			out.WriteString(l[1])
		default:
			out.WriteString(strings.Repeat(" ", width-len(l[0])))
			out.WriteString(" # ")
			out.WriteString(l[1])
		}
		out.WriteByte('\n')
	}
	return out.String()
}

// hexLine prints the offsets and the hex rendering of at most one line's
// worth of the next n bytes, returning the number of bytes consumed.
func (f *Formatter) hexLine(n int) int {
	k := min(f.lineWidth/2, n)
	f.printOffsets(k)
	f.printf("x %0"+strconv.Itoa(k*2)+"x", f.data[f.off:f.off+k])
	f.off += k
	return k
}

func (f *Formatter) newline(comment string) {
	f.lines = append(f.lines, [2]string{f.buf.String(), comment})
	f.buf.Reset()
}

func (f *Formatter) printOffsets(n int) {
	f.printf(f.offsetFormatStr, f.off, f.off+n)
}

func (f *Formatter) printf(format string, args ...interface{}) {
	fmt.Fprintf(&f.buf, format, args...)
}

func asciiChars(b []byte) string {
	s := make([]byte, len(b))
	for i := range b {
		if b[i] >= 32 && b[i] <= 126 {
			s[i] = b[i]
		} else {
			s[i] = '.'
		}
	}
	return string(s)
}
