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

// Grammar (spec.md §3): `{ item (WS item)* }` where item is `#Name` or
// `key=value`; values are bare (no whitespace) or double-quoted.
//
// A hand-written parser is used rather than a regexp (as
// WaylonWalker-markata-go's container.go does for its `{...}` block)
// because every AttrItem needs a byte-precise Span for diagnostics, and
// Go's regexp package does not report submatch byte offsets relative to
// an arbitrary starting offset without re-deriving them from indices,
// which ends up being the same bookkeeping as a hand parser.

// parseAttrList parses `{ ... }` starting at offset start in line
// (where line[start] == '{'). It returns the parsed list and the
// offset just past the closing '}', or ok=false if the line does not
// hold a well-formed attribute list (in which case the caller treats
// the line as something else, per spec.md's leaf-recognition priority).
func parseAttrList(line []byte, start int, base int) (attrs *AttrList, end int, ok bool) {
	if start >= len(line) || line[start] != '{' {
		return nil, start, false
	}
	i := start + 1
	list := &AttrList{}
	for {
		for i < len(line) && isSpaceOrTab(line[i]) {
			i++
		}
		if i >= len(line) {
			return nil, start, false
		}
		if line[i] == '}' {
			i++
			list.Span = Span{Start: base + start, End: base + i}
			return list, i, true
		}
		item, next, itemOK := parseAttrItem(line, i, base)
		if !itemOK {
			return nil, start, false
		}
		list.Items = append(list.Items, item)
		i = next
		if i < len(line) && line[i] == '}' {
			i++
			list.Span = Span{Start: base + start, End: base + i}
			return list, i, true
		}
		if i >= len(line) || !isSpaceOrTab(line[i]) {
			return nil, start, false
		}
	}
}

func parseAttrItem(line []byte, i int, base int) (item AttrItem, end int, ok bool) {
	itemStart := i
	if i < len(line) && line[i] == '#' {
		i++
		nameStart := i
		for i < len(line) && isAttrNameByte(line[i]) {
			i++
		}
		if i == nameStart {
			return AttrItem{}, itemStart, false
		}
		return AttrItem{
			IsLabel: true,
			Value:   string(line[nameStart:i]),
			Span:    Span{Start: base + itemStart, End: base + i},
		}, i, true
	}

	keyStart := i
	for i < len(line) && isAttrNameByte(line[i]) {
		i++
	}
	if i == keyStart || i >= len(line) || line[i] != '=' {
		return AttrItem{}, itemStart, false
	}
	key := string(line[keyStart:i])
	i++ // consume '='

	var value string
	if i < len(line) && line[i] == '"' {
		i++
		valStart := i
		for i < len(line) && line[i] != '"' {
			i++
		}
		if i >= len(line) {
			return AttrItem{}, itemStart, false
		}
		value = string(line[valStart:i])
		i++ // consume closing quote
	} else {
		valStart := i
		for i < len(line) && !isSpaceOrTab(line[i]) && line[i] != '}' {
			i++
		}
		if i == valStart {
			return AttrItem{}, itemStart, false
		}
		value = string(line[valStart:i])
	}

	return AttrItem{
		Key:   key,
		Value: value,
		Span:  Span{Start: base + itemStart, End: base + i},
	}, i, true
}

func isAttrNameByte(c byte) bool {
	return isASCIILetter(c) || isASCIIDigit(c) || c == '_' || c == '-'
}

func isSpaceOrTab(c byte) bool {
	return c == ' ' || c == '\t'
}

func isASCIILetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isASCIIDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// isLabelByte reports whether c can appear in a Label: [A-Za-z0-9_-]+.
func isLabelByte(c byte) bool {
	return isASCIILetter(c) || isASCIIDigit(c) || c == '_' || c == '-'
}

// isValidLabel reports whether s matches the Label grammar in spec.md §3.
func isValidLabel(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isLabelByte(s[i]) {
			return false
		}
	}
	return true
}

// isTargetLine reports whether the trimmed line content (after
// container-prefix stripping) is entirely a single AttrList, i.e. a
// target line per spec.md §4.1. trailing whitespace is tolerated.
func isTargetLine(content []byte) (*AttrList, bool) {
	trimmed := trimTrailingSpace(content)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	attrs, end, ok := parseAttrList(trimmed, 0, 0)
	if !ok || end != len(trimmed) {
		return nil, false
	}
	return attrs, true
}

// looksLikeTargetLine reports whether content begins with '{' but was
// rejected by isTargetLine, i.e. a line that read as an attempted
// target line with malformed attribute syntax (spec.md §7).
func looksLikeTargetLine(content []byte) bool {
	trimmed := trimTrailingSpace(content)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func trimTrailingSpace(b []byte) []byte {
	i := len(b)
	for i > 0 && isSpaceOrTab(b[i-1]) {
		i--
	}
	return b[:i]
}

// isDocSettingsLine reports whether attrs qualifies as the document
// settings line (spec.md §6): every item must be key=value, no #label.
func isDocSettingsLine(attrs *AttrList) bool {
	if attrs == nil || len(attrs.Items) == 0 {
		return false
	}
	for _, it := range attrs.Items {
		if it.IsLabel {
			return false
		}
	}
	return true
}
