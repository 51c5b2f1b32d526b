// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/redact"
	"github.com/stretchr/testify/require"
)

func TestSharedPrefixLen(t *testing.T) {
	testCases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"a", "", 0},
		{"hello 000", "hello 001", 8},
		{"hello", "hello world", 5},
		{"abc", "xbc", 0},
		{strings.Repeat("x", 40) + "a", strings.Repeat("x", 40) + "b", 40},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s/%s", tc.a, tc.b), func(t *testing.T) {
			require.Equal(t, tc.want, SharedPrefixLen([]byte(tc.a), []byte(tc.b)))
			require.Equal(t, tc.want, SharedPrefixLen([]byte(tc.b), []byte(tc.a)))
		})
	}
}

func TestCompare(t *testing.T) {
	require.Equal(t, -1, Compare([]byte("hello 4"), []byte("hello 4x")))
	require.Equal(t, 1, Compare([]byte("hello 5"), []byte("hello 4x")))
	require.Equal(t, 0, Compare(nil, []byte{}))
	require.True(t, Equal(nil, []byte{}))
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, `"hello"`, FormatBytes([]byte("hello")))
	long := FormatBytes([]byte(strings.Repeat("a", 100)))
	require.True(t, strings.HasSuffix(long, `"...`))
	require.Equal(t, `"hi"`, FormattedBytes("hi").String())
	require.Equal(t, `‹×›`, string(redact.Sprint(FormattedBytes("hi")).Redact()))
}

func TestOrdinalPos(t *testing.T) {
	require.Equal(t, OrdinalPos(12345+445), OrdinalPos(12345).Add(445))
}
