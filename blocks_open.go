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

import (
	"bytes"
	"fmt"
)

// mergeAttrLists combines a container's pending target-line attrs with
// a block's own same-line attrs (e.g. a fence info-line's `{...}`).
// Local items are consulted first by AttrList.Label/Get, so a same-line
// label takes precedence over a preceding target line's.
func mergeAttrLists(pending, local *AttrList) *AttrList {
	switch {
	case pending == nil:
		return local
	case local == nil:
		return pending
	default:
		merged := &AttrList{Span: local.Span}
		merged.Items = append(merged.Items, local.Items...)
		merged.Items = append(merged.Items, pending.Items...)
		return merged
	}
}

// absorbPending consumes container's pending target-line attrs (if
// any), merges them with localAttrs, and clears the pending slot.
func absorbPending(container *Block, localAttrs *AttrList) *AttrList {
	merged := mergeAttrLists(container.pendingAttr, localAttrs)
	container.pendingAttr = nil
	return merged
}

// addLeafBlock finishes a single-line leaf (ThematicBreak, ATX heading) immediately:
// it absorbs the tip's pending attrs and appends itself as a child of
// the tip container without ever being assigned to bp.leaf.
func (bp *blockParser) addLeafBlock(b *Block) {
	tip := bp.tip()
	b.attr = absorbPending(tip, b.attr)
	tip.blockChildren = append(tip.blockChildren, b)
}

// openLeaf begins a leaf block that accumulates lines across multiple
// processLine calls (Paragraph, code blocks, HTML block, math block,
// table).
func (bp *blockParser) openLeaf(b *Block) {
	tip := bp.tip()
	b.attr = absorbPending(tip, b.attr)
	bp.leaf = b
}

// pushContainer opens a new container frame (BlockQuote, List,
// ListItem, Box) on the container stack.
func (bp *blockParser) pushContainer(b *Block) {
	tip := bp.tip()
	b.attr = absorbPending(tip, b.attr)
	bp.containers = append(bp.containers, b)
}

// joinLines renders rawLines as their source text joined with "\n",
// preserving the block's original line breaks.
func joinLines(source []byte, lines []Span) string {
	if len(lines) == 0 {
		return ""
	}
	var buf bytes.Buffer
	for i, s := range lines {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(spanSlice(source, s))
	}
	return buf.String()
}

// finishLeaf closes the currently open leaf block at byte offset end,
// converts its accumulated rawLines into the block's final textual
// fields (where the kind has one), and appends it to the tip
// container's children.
func (bp *blockParser) finishLeaf(end int) {
	b := bp.leaf
	bp.leaf = nil
	b.span.End = end

	switch b.kind {
	case IndentedCodeBlockKind:
		for len(b.rawLines) > 0 && b.rawLines[len(b.rawLines)-1].Len() == 0 {
			b.rawLines = b.rawLines[:len(b.rawLines)-1]
		}
		if len(b.rawLines) > 0 {
			b.span.End = b.rawLines[len(b.rawLines)-1].End
		}
		b.codeText = joinLines(bp.source, b.rawLines)
		b.codeMeta = newCodeMeta()
	case FencedCodeBlockKind:
		b.codeText = joinLines(bp.source, b.rawLines)
		b.codeMeta = parseCodeMeta(b.attr, len(b.rawLines), bp.diags)
	case HTMLBlockKind:
		b.rawHTML = joinLines(bp.source, b.rawLines)
	case MathBlockKind:
		b.mathSrc = joinLines(bp.source, b.rawLines)
	case ParagraphKind, HeadingKind, TableKind:
		// left as rawLines (and, for Table, table.Align) for the inline
		// parsing pass to fill in inlineChildren / table.Header / table.Rows.
	}

	tip := bp.tip()
	tip.blockChildren = append(tip.blockChildren, b)
}

// parseCodeMeta extracts hl/diff_add/diff_del line metadata from a
// fenced code block's attribute list, per spec.md §3-4.5. lineCount is
// the block's physical line count, used to drop out-of-range entries
// (W_CODE_RANGE_OOB); pass 0 to skip the range check entirely.
func parseCodeMeta(attr *AttrList, lineCount int, diags *diagSink) CodeMeta {
	meta := newCodeMeta()
	if attr == nil {
		return meta
	}
	var hlLines []int
	var hlLabels map[int]string
	if v, ok := attr.Get("hl"); ok {
		hlLines, hlLabels = parseHLItems(v)
	}
	var addLines, delLines []int
	if v, ok := attr.Get("diff_add"); ok {
		addLines = parseIntRanges(v)
	}
	if v, ok := attr.Get("diff_del"); ok {
		delLines = parseIntRanges(v)
	}

	delSet := intSet(delLines)
	addSetM := intSet(addLines)
	conflict := false
	for _, n := range hlLines {
		if addSetM[n] || delSet[n] {
			conflict = true
		}
	}
	for _, n := range addLines {
		if delSet[n] {
			conflict = true
		}
	}
	if conflict {
		diags.errorf(passBlock, ErrCodeConflict, attr.Span,
			"hl, diff_add, and diff_del line sets must not overlap")
	}

	inRange := func(kind string, n int) bool {
		if lineCount > 0 && (n < 1 || n > lineCount) {
			diags.warnf(passBlock, WarnCodeRangeOOB, attr.Span,
				fmt.Sprintf("%s line %d is out of range for a %d-line code block", kind, n, lineCount))
			return false
		}
		return true
	}
	for _, n := range hlLines {
		if inRange("hl", n) {
			meta.Highlighted[n] = hlLabels[n]
		}
	}
	for _, n := range addLines {
		if inRange("diff_add", n) {
			meta.DiffAdd[n] = true
		}
	}
	for _, n := range delLines {
		if inRange("diff_del", n) {
			meta.DiffDel[n] = true
		}
	}
	return meta
}

func intSet(ns []int) map[int]bool {
	s := make(map[int]bool, len(ns))
	for _, n := range ns {
		s[n] = true
	}
	return s
}

// parseHLItems parses the hl attribute's comma-separated items, each
// "N", "N-M", or "N:Label" (a label attaches only to a single line,
// not a range).
func parseHLItems(s string) (lines []int, labels map[int]string) {
	labels = map[int]string{}
	for _, part := range splitComma(s) {
		numPart, label := part, ""
		if i := bytes.IndexByte([]byte(part), ':'); i >= 0 {
			numPart, label = part[:i], part[i+1:]
		}
		if i := bytes.IndexByte([]byte(numPart), '-'); i > 0 {
			lo := atoiSafe(numPart[:i])
			hi := atoiSafe(numPart[i+1:])
			for n := lo; n <= hi; n++ {
				lines = append(lines, n)
			}
			continue
		}
		if n, ok := atoiOK(numPart); ok {
			lines = append(lines, n)
			if label != "" {
				labels[n] = label
			}
		}
	}
	return lines, labels
}

// parseIntRanges parses a comma-separated list of integers and
// integer ranges, e.g. "1,3-5,9".
func parseIntRanges(s string) []int {
	var out []int
	for _, part := range splitComma(s) {
		if i := bytes.IndexByte([]byte(part), '-'); i > 0 {
			lo := atoiSafe(part[:i])
			hi := atoiSafe(part[i+1:])
			for n := lo; n <= hi; n++ {
				out = append(out, n)
			}
		} else if n, ok := atoiOK(part); ok {
			out = append(out, n)
		}
	}
	return out
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func atoiSafe(s string) int {
	n, _ := atoiOK(s)
	return n
}

func atoiOK(s string) (int, bool) {
	n := 0
	any := false
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
		any = true
	}
	return n, any
}

// canInterruptParagraph reports whether the line at [pos,end) is a
// block-starting construct allowed to interrupt an open paragraph,
// per the subset of CommonMark's interruption rules spec.md §4.1
// calls out: thematic breaks, ATX headings, fenced code and box
// fences, math fences, HTML block starts, blockquote markers, and list markers (an
// ordered marker may interrupt only when its start number is 1).
func canInterruptParagraph(source []byte, pos, end int) bool {
	if isThematicBreak(source[pos:end]) {
		return true
	}
	if _, _, ok := parseATXHeading(source, pos, end); ok {
		return true
	}
	if _, _, ok := parseFencedCodeOpen(source, pos, end); ok {
		return true
	}
	if _, _, _, ok := parseBoxOpen(source, pos, end); ok {
		return true
	}
	if isMathBlockFence(source, pos, end) {
		return true
	}
	if isHTMLBlockStart(source, pos, end) {
		return true
	}
	indentCols, p := measureIndent(source, pos, end)
	if indentCols <= 3 && p < end && source[p] == '>' {
		return true
	}
	if m, ok := parseListMarker(source, pos, end); ok {
		if !m.ordered || m.start == 1 {
			return true
		}
	}
	return false
}

// openNewBlocks recognizes and opens the next block at [pos,end),
// following spec.md §4.1's leaf-recognition priority order. It may
// push zero or more container frames (for nested blockquote/list/box
// opens on the same line) before opening a leaf or immediate block.
func (bp *blockParser) openNewBlocks(pos, end int, content Span) {
	first := !bp.sawAnyBlock
	bp.sawAnyBlock = true
	for {
		if pos >= end {
			return
		}

		if attrs, ok := isTargetLine(bp.source[pos:end]); ok {
			if first && len(bp.containers) == 1 && isDocSettingsLine(attrs) {
				bp.docSettingsAttr = attrs
				return
			}
			c := bp.tip()
			if c.pendingAttr != nil {
				bp.diags.errorf(passBlock, ErrTargetOrphan, c.pendingSpan,
					"target line overwritten before attaching to a block")
			}
			c.pendingAttr = attrs
			c.pendingSpan = Span{pos, end}
			return
		}

		if looksLikeTargetLine(bp.source[pos:end]) {
			bp.diags.errorf(passBlock, ErrAttrSyntax, Span{pos, end},
				"malformed attribute list is rendered as literal text")
		}

		if isThematicBreak(bp.source[pos:end]) {
			bp.addLeafBlock(&Block{kind: ThematicBreakKind, span: Span{pos, end}})
			return
		}

		if level, title, ok := parseATXHeading(bp.source, pos, end); ok {
			h := &Block{kind: HeadingKind, span: Span{pos, end}, level: level, rawLines: []Span{title}}
			bp.addLeafBlock(h)
			return
		}

		if fi, info, ok := parseFencedCodeOpen(bp.source, pos, end); ok {
			lang, attrs := parseCodeInfo(bp.source, info.Start, info.End)
			b := &Block{
				kind:      FencedCodeBlockKind,
				span:      Span{content.Start, -1},
				fenceChar: fi.char,
				fenceLen:  fi.length,
				indent:    fi.indent,
				lang:      lang,
				attr:      attrs,
			}
			bp.openLeaf(b)
			return
		}

		if title, attrs, fenceLen, ok := parseBoxOpen(bp.source, pos, end); ok {
			box := &Block{kind: BoxKind, span: Span{content.Start, -1}, fenceLen: fenceLen, attr: attrs}
			if title.Len() > 0 {
				box.rawLines = []Span{title}
			}
			bp.pushContainer(box)
			return
		}

		if isMathBlockFence(bp.source, pos, end) {
			b := &Block{kind: MathBlockKind, span: Span{content.Start, -1}}
			bp.openLeaf(b)
			return
		}

		if isHTMLBlockStart(bp.source, pos, end) && bp.leaf == nil {
			b := &Block{kind: HTMLBlockKind, span: Span{content.Start, -1}}
			bp.openLeaf(b)
			b.rawLines = append(b.rawLines, Span{pos, end})
			return
		}

		if bp.phase2 {
			if aligns, ok := parseTableDelimRow(bp.source, pos, end); ok && len(bp.tip().blockChildren) > 0 {
				if prev := bp.tip().blockChildren[len(bp.tip().blockChildren)-1]; prev.kind == ParagraphKind && len(prev.rawLines) == 1 {
					bp.convertParagraphToTable(prev, aligns)
					return
				}
			}
		}

		if indentCols, contentStart := measureIndent(bp.source, pos, end); indentCols >= 4 && bp.leaf == nil {
			b := &Block{kind: IndentedCodeBlockKind, span: Span{content.Start, -1}}
			stripped := advanceColumns(bp.source, pos, end, 4)
			_ = contentStart
			b.rawLines = []Span{{stripped, end}}
			bp.openLeaf(b)
			return
		}

		if label, dest, title, titleSet, ok := parseLinkRefDefLine(bp.source, pos, end); ok {
			def := &Block{
				kind: linkReferenceDefinitionKind, span: Span{pos, end},
				linkLabel: label, linkDest: dest, linkTitle: title, linkTitleSet: titleSet,
			}
			bp.linkDefs = append(bp.linkDefs, def)
			return
		}

		if indentCols, p := measureIndent(bp.source, pos, end); indentCols <= 3 && p < end && bp.source[p] == '>' {
			q := p + 1
			if q < end && isSpaceOrTab(bp.source[q]) {
				q++
			}
			bq := &Block{kind: BlockQuoteKind, span: Span{content.Start, -1}}
			bp.pushContainer(bq)
			pos = q
			continue
		}

		if m, ok := parseListMarker(bp.source, pos, end); ok {
			indentCols, _ := measureIndent(bp.source, pos, end)
			markerWidth := m.markerEnd - pos
			itemIndent := indentCols + markerWidth
			itemContentStart := m.markerEnd

			taskState := NoTask
			if bp.phase2 {
				if st, after, tok := parseTaskMarker(bp.source, m.markerEnd, end); tok {
					taskState = st
					itemContentStart = after
				}
			}

			tip := bp.tip()
			var list *Block
			if tip.kind == ListKind && tip.ordered == m.ordered && tip.markerChar == m.char {
				list = tip
			} else {
				list = &Block{kind: ListKind, span: Span{content.Start, -1}, ordered: m.ordered, start: m.start, markerChar: m.char, tight: true}
				bp.pushContainer(list)
			}
			item := &Block{kind: ListItemKind, span: Span{content.Start, -1}, ordered: m.ordered, indent: itemIndent, markerChar: m.char, taskState: taskState, tight: true}
			bp.pushContainer(item)
			pos = itemContentStart
			if pos < end && isSpaceOrTab(bp.source[pos]) {
				pos++
			}
			continue
		}

		p := &Block{kind: ParagraphKind, span: Span{content.Start, -1}, rawLines: []Span{{pos, end}}}
		bp.openLeaf(p)
		return
	}
}

// convertParagraphToTable reassigns a single-line paragraph (the table
// header row) and the just-recognized delimiter row into a TableKind
// leaf, opened to accumulate body rows (GFM tables, phase 2).
func (bp *blockParser) convertParagraphToTable(prev *Block, aligns []TableAlign) {
	tip := bp.tip()
	for i, c := range tip.blockChildren {
		if c == prev {
			tip.blockChildren = append(tip.blockChildren[:i], tip.blockChildren[i+1:]...)
			break
		}
	}
	t := &Block{
		kind:     TableKind,
		span:     Span{prev.span.Start, -1},
		rawLines: []Span{prev.rawLines[0]},
		table:    &TableData{Align: aligns},
		attr:     prev.attr,
	}
	bp.leaf = t
}

// continueLeaf reports whether the line at [pos,end) continues the
// currently open leaf block. A return of false means the leaf no
// longer continues: the caller closes it and retries the same line
// against openNewBlocks.
func (bp *blockParser) continueLeaf(pos, end int, content Span, blank bool) bool {
	b := bp.leaf
	switch b.kind {
	case ParagraphKind:
		if blank {
			return false
		}
		if canInterruptParagraph(bp.source, pos, end) {
			return false
		}
		if bp.phase2 && len(b.rawLines) == 1 && bytes.IndexByte(bp.source[pos:end], '|') >= 0 {
			if aligns, ok := parseTableDelimRow(bp.source, pos, end); ok {
				bp.convertParagraphToTable(b, aligns)
				return true
			}
		}
		if level, ok := parseSetextUnderline(bp.source, pos, end); ok && len(b.rawLines) > 0 {
			b.kind = HeadingKind
			b.level = level
			bp.finishLeaf(content.End)
			return true
		}
		b.rawLines = append(b.rawLines, Span{pos, end})
		return true

	case FencedCodeBlockKind:
		if isClosingFence(bp.source, pos, end, b.fenceChar, b.fenceLen) {
			bp.finishLeaf(content.End)
			return true
		}
		strip := advanceColumns(bp.source, pos, end, b.indent)
		b.rawLines = append(b.rawLines, Span{strip, end})
		return true

	case IndentedCodeBlockKind:
		if blank {
			b.rawLines = append(b.rawLines, Span{pos, pos})
			return true
		}
		cols, _ := measureIndent(bp.source, pos, end)
		if cols < 4 {
			return false
		}
		strip := advanceColumns(bp.source, pos, end, 4)
		b.rawLines = append(b.rawLines, Span{strip, end})
		return true

	case HTMLBlockKind:
		if blank {
			return false
		}
		b.rawLines = append(b.rawLines, Span{pos, end})
		return true

	case MathBlockKind:
		if isMathBlockFence(bp.source, pos, end) {
			bp.finishLeaf(content.End)
			return true
		}
		b.rawLines = append(b.rawLines, Span{pos, end})
		return true

	case TableKind:
		if blank {
			return false
		}
		cells := splitTableRow(bp.source, pos, end)
		if len(cells) == 0 {
			return false
		}
		b.rawLines = append(b.rawLines, Span{pos, end})
		return true
	}
	return false
}

// isHTMLBlockStart reports whether [pos,end) opens a CommonMark HTML
// block. Only the common case (a line beginning with '<' followed by
// a tag name, comment, or processing instruction) is recognized; the
// full seven-condition CommonMark table is not implemented, a
// documented simplification (see DESIGN.md).
func isHTMLBlockStart(source []byte, pos, end int) bool {
	indentCols, p := measureIndent(source, pos, end)
	if indentCols > 3 || p+1 >= end || source[p] != '<' {
		return false
	}
	c := source[p+1]
	return isASCIILetter(c) || c == '/' || c == '!' || c == '?'
}
