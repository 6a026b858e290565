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

import "bytes"

func isBlankRange(source []byte, start, end int) bool {
	for i := start; i < end; i++ {
		if !isSpaceOrTab(source[i]) {
			return false
		}
	}
	return true
}

// measureIndent returns the column width (tab stop 4) of whitespace
// starting at start, and the byte offset where non-whitespace begins.
func measureIndent(source []byte, start, end int) (cols int, bytePos int) {
	p := start
	for p < end {
		switch source[p] {
		case ' ':
			cols++
			p++
		case '\t':
			cols += tabStopSize - cols%tabStopSize
			p++
		default:
			return cols, p
		}
	}
	return cols, p
}

// advanceColumns returns the byte offset after skipping n columns of
// leading whitespace (tab stop 4) from start. If skipping would land
// inside a tab, the whole tab is consumed (a documented simplification
// of CommonMark's partial-tab consumption; see DESIGN.md).
func advanceColumns(source []byte, start, end, n int) int {
	cols, p := 0, start
	for p < end && cols < n {
		switch source[p] {
		case ' ':
			cols++
			p++
		case '\t':
			cols += tabStopSize - cols%tabStopSize
			p++
		default:
			return p
		}
	}
	return p
}

func bytesEqualFold(a []byte, s string) bool {
	if len(a) != len(s) {
		return false
	}
	for i := 0; i < len(a); i++ {
		c := a[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		d := s[i]
		if 'A' <= d && d <= 'Z' {
			d += 'a' - 'A'
		}
		if c != d {
			return false
		}
	}
	return true
}

func hasPrefixFold(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && bytesEqualFold(b[:len(prefix)], prefix)
}

// isThematicBreak reports whether content is a line of 3+ matching
// `*`, `-`, or `_` characters, optionally interspersed with spaces/tabs.
func isThematicBreak(content []byte) bool {
	content = trimTrailingSpace(content)
	i := 0
	for i < len(content) && isSpaceOrTab(content[i]) {
		i++
	}
	if i >= len(content) {
		return false
	}
	marker := content[i]
	if marker != '*' && marker != '-' && marker != '_' {
		return false
	}
	count := 0
	for ; i < len(content); i++ {
		c := content[i]
		switch {
		case c == marker:
			count++
		case isSpaceOrTab(c):
		default:
			return false
		}
	}
	return count >= 3
}

// parseATXHeading recognizes `#`..`######` headings, returning the
// heading level and the span of the title text (hashes, leading and
// trailing whitespace, and an optional closing hash run all stripped).
func parseATXHeading(source []byte, start, end int) (level int, title Span, ok bool) {
	p := start
	for p < end && source[p] == '#' {
		p++
	}
	level = p - start
	if level == 0 || level > 6 {
		return 0, Span{}, false
	}
	if p < end && !isSpaceOrTab(source[p]) {
		return 0, Span{}, false
	}
	for p < end && isSpaceOrTab(source[p]) {
		p++
	}
	titleEnd := end
	for titleEnd > p && isSpaceOrTab(source[titleEnd-1]) {
		titleEnd--
	}
	// strip an optional closing sequence of hashes.
	closing := titleEnd
	for closing > p && source[closing-1] == '#' {
		closing--
	}
	if closing < titleEnd && (closing == p || isSpaceOrTab(source[closing-1])) {
		titleEnd = closing
		for titleEnd > p && isSpaceOrTab(source[titleEnd-1]) {
			titleEnd--
		}
	}
	return level, Span{p, titleEnd}, true
}

// parseSetextUnderline recognizes a line of `=`s or `-`s (up to 3
// leading spaces) that converts a preceding paragraph into a heading.
func parseSetextUnderline(source []byte, start, end int) (level int, ok bool) {
	p := start
	spaces := 0
	for p < end && source[p] == ' ' && spaces < 3 {
		p++
		spaces++
	}
	if p >= end {
		return 0, false
	}
	marker := source[p]
	if marker != '=' && marker != '-' {
		return 0, false
	}
	for p < end && source[p] == marker {
		p++
	}
	for p < end && isSpaceOrTab(source[p]) {
		p++
	}
	if p != end {
		return 0, false
	}
	if marker == '=' {
		return 1, true
	}
	return 2, true
}

type fenceInfo struct {
	char   byte
	length int
	indent int
}

// parseFencedCodeOpen recognizes an opening ``` or ~~~ fence (indented
// up to 3 spaces) and returns the fence metadata plus the span of the
// info-string text following it.
func parseFencedCodeOpen(source []byte, start, end int) (fi fenceInfo, info Span, ok bool) {
	p := start
	indentCols, afterIndent := measureIndent(source, start, end)
	if indentCols > 3 {
		return fenceInfo{}, Span{}, false
	}
	p = afterIndent
	if p >= end || (source[p] != '`' && source[p] != '~') {
		return fenceInfo{}, Span{}, false
	}
	ch := source[p]
	fenceStart := p
	for p < end && source[p] == ch {
		p++
	}
	length := p - fenceStart
	if length < 3 {
		return fenceInfo{}, Span{}, false
	}
	if ch == '`' && bytes.IndexByte(source[p:end], '`') >= 0 {
		return fenceInfo{}, Span{}, false
	}
	infoEnd := end
	for infoEnd > p && isSpaceOrTab(source[infoEnd-1]) {
		infoEnd--
	}
	infoStart := p
	for infoStart < infoEnd && isSpaceOrTab(source[infoStart]) {
		infoStart++
	}
	return fenceInfo{char: ch, length: length, indent: indentCols}, Span{infoStart, infoEnd}, true
}

// parseCodeInfo splits a fenced code block's info string into its
// language word and trailing `{...}` attribute list, per spec.md §4.1.
func parseCodeInfo(source []byte, start, end int) (lang string, attrs *AttrList) {
	for end > start && isSpaceOrTab(source[end-1]) {
		end--
	}
	p := start
	langStart := p
	for p < end && !isSpaceOrTab(source[p]) {
		p++
	}
	lang = string(source[langStart:p])
	for p < end && isSpaceOrTab(source[p]) {
		p++
	}
	if p < end && source[p] == '{' {
		if a, e, ok := parseAttrList(source[:end], p, 0); ok && e == end {
			attrs = a
		}
	}
	return lang, attrs
}

// isClosingFence reports whether content is a valid closing fence for
// an opening fence of the given character and length: up to 3 leading
// spaces, a run of at least length matching characters, then only
// whitespace.
func isClosingFence(source []byte, start, end int, ch byte, length int) bool {
	indentCols, p := measureIndent(source, start, end)
	if indentCols > 3 {
		return false
	}
	runStart := p
	for p < end && source[p] == ch {
		p++
	}
	if p-runStart < length {
		return false
	}
	return isBlankRange(source, p, end)
}

// parseBoxOpen recognizes `:::{3,} box [title] [{attrs}]` (spec.md §4.1).
func parseBoxOpen(source []byte, start, end int) (titleSpan Span, attrs *AttrList, fenceLen int, ok bool) {
	indentCols, p := measureIndent(source, start, end)
	if indentCols > 3 {
		return Span{}, nil, 0, false
	}
	colonStart := p
	for p < end && source[p] == ':' {
		p++
	}
	n := p - colonStart
	if n < 3 {
		return Span{}, nil, 0, false
	}
	for p < end && isSpaceOrTab(source[p]) {
		p++
	}
	if end-p < 3 || !bytesEqualFold(source[p:p+3], "box") {
		return Span{}, nil, 0, false
	}
	p += 3
	if p < end && !isSpaceOrTab(source[p]) {
		return Span{}, nil, 0, false
	}
	restStart := p
	restEnd := end
	for restEnd > restStart && isSpaceOrTab(source[restEnd-1]) {
		restEnd--
	}
	titleEnd := restEnd
	if idx := bytes.LastIndexByte(source[restStart:restEnd], '{'); idx >= 0 {
		braceStart := restStart + idx
		if a, e, aok := parseAttrList(source[:restEnd], braceStart, 0); aok && e == restEnd {
			attrs = a
			titleEnd = braceStart
		}
	}
	ts := restStart
	for ts < titleEnd && isSpaceOrTab(source[ts]) {
		ts++
	}
	te := titleEnd
	for te > ts && isSpaceOrTab(source[te-1]) {
		te--
	}
	return Span{ts, te}, attrs, n, true
}

// isBoxCloseFence reports whether content is a line of only `:`
// characters at least fenceLen long.
func isBoxCloseFence(source []byte, start, end, fenceLen int) bool {
	indentCols, p := measureIndent(source, start, end)
	if indentCols > 3 {
		return false
	}
	runStart := p
	for p < end && source[p] == ':' {
		p++
	}
	if p-runStart < fenceLen {
		return false
	}
	return isBlankRange(source, p, end)
}

// isMathBlockFence reports whether trimmed content is exactly `$$`.
func isMathBlockFence(source []byte, start, end int) bool {
	indentCols, p := measureIndent(source, start, end)
	if indentCols > 3 {
		return false
	}
	trimmedEnd := end
	for trimmedEnd > p && isSpaceOrTab(source[trimmedEnd-1]) {
		trimmedEnd--
	}
	return trimmedEnd-p == 2 && source[p] == '$' && source[p+1] == '$'
}

type listMarkerInfo struct {
	ordered  bool
	char     byte
	start    int // ordered start number
	markerEnd int
}

// parseListMarker recognizes a bullet (`-`, `+`, `*`) or ordered
// (1-9 digits followed by `.` or `)`) marker at start, requiring at
// least one following space/tab or end-of-line.
func parseListMarker(source []byte, start, end int) (m listMarkerInfo, ok bool) {
	p := start
	if p < end && (source[p] == '-' || source[p] == '+' || source[p] == '*') {
		c := source[p]
		p++
		if p < end && !isSpaceOrTab(source[p]) {
			return listMarkerInfo{}, false
		}
		return listMarkerInfo{char: c, markerEnd: p}, true
	}
	digitStart := p
	for p < end && isASCIIDigit(source[p]) && p-digitStart < 9 {
		p++
	}
	if p == digitStart || p >= end {
		return listMarkerInfo{}, false
	}
	if source[p] != '.' && source[p] != ')' {
		return listMarkerInfo{}, false
	}
	delim := source[p]
	p++
	if p < end && !isSpaceOrTab(source[p]) {
		return listMarkerInfo{}, false
	}
	n := 0
	for _, d := range source[digitStart : p-1] {
		n = n*10 + int(d-'0')
	}
	return listMarkerInfo{ordered: true, char: delim, start: n, markerEnd: p}, true
}

// parseTaskMarker recognizes a leading `[ ]`, `[x]`, or `[X]` in a
// list item's first line (GFM task lists, phase 2).
func parseTaskMarker(source []byte, start, end int) (state TaskState, after int, ok bool) {
	p := start
	for p < end && isSpaceOrTab(source[p]) {
		p++
	}
	if end-p < 3 || source[p] != '[' || source[p+2] != ']' {
		return NoTask, start, false
	}
	switch source[p+1] {
	case ' ':
		state = TaskUnchecked
	case 'x', 'X':
		state = TaskChecked
	default:
		return NoTask, start, false
	}
	after = p + 3
	if after < end && isSpaceOrTab(source[after]) {
		after++
	} else if after != end {
		return NoTask, start, false
	}
	return state, after, true
}

// parseLinkRefDefLine recognizes a single-line link reference
// definition `[label]: dest "title"`. Multi-line definitions (label,
// destination, and title on separate physical lines) are a documented
// scope simplification; see DESIGN.md.
func parseLinkRefDefLine(source []byte, start, end int) (label, dest, title string, titleSet bool, ok bool) {
	p := start
	if p >= end || source[p] != '[' {
		return "", "", "", false, false
	}
	p++
	labelStart := p
	for p < end && source[p] != ']' {
		if source[p] == '\\' && p+1 < end {
			p++
		}
		p++
	}
	if p >= end {
		return "", "", "", false, false
	}
	label = string(source[labelStart:p])
	p++
	if p >= end || source[p] != ':' {
		return "", "", "", false, false
	}
	p++
	for p < end && isSpaceOrTab(source[p]) {
		p++
	}
	if p >= end {
		return "", "", "", false, false
	}
	destStart := p
	if source[p] == '<' {
		p++
		for p < end && source[p] != '>' {
			p++
		}
		if p >= end {
			return "", "", "", false, false
		}
		dest = string(source[destStart+1 : p])
		p++
	} else {
		for p < end && !isSpaceOrTab(source[p]) {
			p++
		}
		dest = string(source[destStart:p])
	}
	for p < end && isSpaceOrTab(source[p]) {
		p++
	}
	if p < end {
		open := source[p]
		var close byte
		switch open {
		case '"':
			close = '"'
		case '\'':
			close = '\''
		case '(':
			close = ')'
		default:
			return "", "", "", false, false
		}
		p++
		titleStart := p
		for p < end && source[p] != close {
			if source[p] == '\\' && p+1 < end {
				p++
			}
			p++
		}
		if p >= end {
			return "", "", "", false, false
		}
		title = string(source[titleStart:p])
		titleSet = true
		p++
		for p < end && isSpaceOrTab(source[p]) {
			p++
		}
	}
	if p != end {
		return "", "", "", false, false
	}
	return label, dest, title, titleSet, true
}

// parseTableDelimRow recognizes a GFM table delimiter row like
// `---|:--:|--:`, returning one TableAlign per column.
func parseTableDelimRow(source []byte, start, end int) ([]TableAlign, bool) {
	cells := splitTableRow(source, start, end)
	if len(cells) == 0 {
		return nil, false
	}
	aligns := make([]TableAlign, 0, len(cells))
	for _, c := range cells {
		cs, ce := c.Start, c.End
		for cs < ce && isSpaceOrTab(source[cs]) {
			cs++
		}
		for ce > cs && isSpaceOrTab(source[ce-1]) {
			ce--
		}
		if cs >= ce {
			return nil, false
		}
		left := source[cs] == ':'
		if left {
			cs++
		}
		right := ce > cs && source[ce-1] == ':'
		if right {
			ce--
		}
		if ce <= cs {
			return nil, false
		}
		for i := cs; i < ce; i++ {
			if source[i] != '-' {
				return nil, false
			}
		}
		switch {
		case left && right:
			aligns = append(aligns, AlignCenter)
		case left:
			aligns = append(aligns, AlignLeft)
		case right:
			aligns = append(aligns, AlignRight)
		default:
			aligns = append(aligns, AlignNone)
		}
	}
	return aligns, true
}

// splitTableRow splits a table row on unescaped `|` characters not
// inside a code span, trimming one leading/trailing `|` if present.
func splitTableRow(source []byte, start, end int) []Span {
	s, e := start, end
	for s < e && isSpaceOrTab(source[s]) {
		s++
	}
	for e > s && isSpaceOrTab(source[e-1]) {
		e--
	}
	if s < e && source[s] == '|' {
		s++
	}
	if e > s && source[e-1] == '|' && (e-1 == s || source[e-2] != '\\') {
		e--
	}
	var cells []Span
	cellStart := s
	inCode := false
	var codeTicks int
	for i := s; i < e; i++ {
		switch {
		case source[i] == '\\' && i+1 < e:
			i++
		case source[i] == '`':
			run := 0
			for i+run < e && source[i+run] == '`' {
				run++
			}
			if !inCode {
				inCode = true
				codeTicks = run
			} else if run == codeTicks {
				inCode = false
			}
			i += run - 1
		case source[i] == '|' && !inCode:
			cells = append(cells, Span{cellStart, i})
			cellStart = i + 1
		}
	}
	cells = append(cells, Span{cellStart, e})
	return cells
}
