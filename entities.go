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

import "strconv"

// namedEntities is a subset of the HTML5 named character reference
// table (https://html.spec.whatwg.org/multipage/named-characters.html)
// covering the entities that appear in prose and technical writing.
// Unrecognized names fall back to literal text, per spec.md §4.2.
var namedEntities = map[string]string{
	"amp":     "&",
	"lt":      "<",
	"gt":      ">",
	"quot":    "\"",
	"apos":    "'",
	"nbsp":    " ",
	"copy":    "©",
	"reg":     "®",
	"trade":   "™",
	"mdash":   "—",
	"ndash":   "–",
	"hellip":  "…",
	"lsquo":   "‘",
	"rsquo":   "’",
	"ldquo":   "“",
	"rdquo":   "”",
	"larr":    "←",
	"rarr":    "→",
	"uarr":    "↑",
	"darr":    "↓",
	"bull":    "•",
	"dagger":  "†",
	"Dagger":  "‡",
	"sect":    "§",
	"para":    "¶",
	"middot":  "·",
	"times":   "×",
	"divide":  "÷",
	"plusmn":  "±",
	"deg":     "°",
	"micro":   "µ",
	"alpha":   "α",
	"beta":    "β",
	"gamma":   "γ",
	"delta":   "δ",
	"pi":      "π",
	"sigma":   "σ",
	"omega":   "ω",
	"infin":   "∞",
	"ne":      "≠",
	"le":      "≤",
	"ge":      "≥",
}

// maxValidCodePoint matches Unicode's upper bound.
const maxValidCodePoint = 0x10FFFF

// decodeEntity attempts to decode the HTML entity body (the text
// between '&' and ';', exclusive) named or numeric in name. It
// returns the decoded text and true on success; a caller for whom
// decoding fails should emit the original literal source text,
// per spec.md §4.2's fallback rule.
func decodeEntity(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if name[0] == '#' {
		return decodeNumericEntity(name[1:])
	}
	if v, ok := namedEntities[name]; ok {
		return v, true
	}
	return "", false
}

func decodeNumericEntity(body string) (string, bool) {
	var n int64
	var err error
	if len(body) > 0 && (body[0] == 'x' || body[0] == 'X') {
		n, err = strconv.ParseInt(body[1:], 16, 64)
	} else {
		n, err = strconv.ParseInt(body, 10, 64)
	}
	if err != nil {
		return "", false
	}
	if n == 0 || n > maxValidCodePoint {
		return "", false
	}
	if n >= 0xD800 && n <= 0xDFFF {
		return "", false // lone surrogate
	}
	return string(rune(n)), true
}
