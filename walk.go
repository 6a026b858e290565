// Copyright 2024 The TypMark Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package typmark

// runInlinePass walks the block tree produced by parseBlocks, filling
// in inlineChildren, boxTitle, and table cell content from each
// block's accumulated raw line spans, per spec.md §4.2.
func runInlinePass(root *Block, source []byte, refs *referenceMap, diags *diagSink, phase2 bool) {
	var walk func(b *Block)
	walk = func(b *Block) {
		switch b.kind {
		case ParagraphKind, HeadingKind:
			b.inlineChildren = parseInlineSpan(source, b.rawLines, refs, diags, phase2)
			applyLinkDestinations(b.inlineChildren, refs, diags)
			b.rawLines = nil
		case BoxKind:
			if len(b.rawLines) == 1 && b.rawLines[0].Len() > 0 {
				b.boxTitle = parseInlineSpan(source, b.rawLines, refs, diags, phase2)
				applyLinkDestinations(b.boxTitle, refs, diags)
			}
			b.rawLines = nil
		case TableKind:
			parseTableCells(b, source, refs, diags, phase2)
			b.rawLines = nil
		}
		for _, c := range b.blockChildren {
			walk(c)
		}
	}
	walk(root)
}

// parseTableCells splits a TableKind block's accumulated raw row
// spans into cells and inline-parses each one, per spec.md §4.1's
// GFM table extension (phase 2).
func parseTableCells(b *Block, source []byte, refs *referenceMap, diags *diagSink, phase2 bool) {
	if len(b.rawLines) == 0 {
		return
	}
	width := len(b.table.Align)
	parseRow := func(row Span) [][]*Inline {
		cells := splitTableRow(source, row.Start, row.End)
		out := make([][]*Inline, 0, width)
		for i, c := range cells {
			if i >= width {
				break
			}
			inl := parseInlineSpan(source, []Span{c}, refs, diags, phase2)
			applyLinkDestinations(inl, refs, diags)
			out = append(out, inl)
		}
		for len(out) < width {
			out = append(out, nil)
		}
		return out
	}
	b.table.Header = parseRow(b.rawLines[0])
	for _, row := range b.rawLines[1:] {
		b.table.Rows = append(b.table.Rows, parseRow(row))
	}
}
