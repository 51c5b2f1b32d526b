// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/cfile"
	"github.com/cockroachdb/crlib/crstrings"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (t *T) runDump(cmd *cobra.Command, args []string) {
	c := t.mustReadColumn(args[0])
	if c == nil {
		return
	}
	fmt.Fprintf(stdout, "%s: %d blocks of %s values\n", c.path, len(c.blocks), c.valueType)

	tw := tablewriter.NewWriter(stdout)
	tw.SetHeader([]string{"block", "ordinal", "count", "encoding", "raw", "sealed"})
	tw.SetAutoFormatHeaders(false)
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, sb := range c.blocks {
		enc, _ := sb.Encoding()
		tw.Append([]string{
			strconv.Itoa(sb.Index),
			strconv.FormatUint(uint64(sb.OrdinalBase), 10),
			strconv.Itoa(sb.Stats.Count),
			enc.String(),
			strconv.Itoa(sb.Stats.RawBytes),
			strconv.Itoa(sb.Stats.SealedBytes),
		})
	}
	total := cfile.TotalStats(c.blocks)
	tw.SetFooter([]string{"", "", strconv.Itoa(total.Count), "",
		strconv.Itoa(total.RawBytes), strconv.Itoa(total.SealedBytes)})
	tw.Render()

	if !t.dumpHex {
		return
	}
	for _, sb := range c.blocks {
		s, err := cfile.Describe(sb.Block)
		if err != nil {
			fmt.Fprintf(stderr, "block %d: %s\n", sb.Index, err)
			continue
		}
		fmt.Fprintf(stdout, "block %d:\n%s", sb.Index, crstrings.Indent("  ", s))
	}
}
