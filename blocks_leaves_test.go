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

import "testing"

func TestIsThematicBreak(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"", false},
		{"---", true},
		{"***", true},
		{"___", true},
		{"+++", false},
		{"===", false},
		{"--", false},
		{"**", false},
		{"__", false},
		{"- - -", true},
		{"**  * ** * ** *", true},
		{"_ _ _ _ a", false},
		{"a------", false},
		{"*-*", false},
	}
	for _, test := range tests {
		if got := isThematicBreak([]byte(test.line)); got != test.want {
			t.Errorf("isThematicBreak(%q) = %v; want %v", test.line, got, test.want)
		}
	}
}

func TestParseATXHeading(t *testing.T) {
	tests := []struct {
		line      string
		wantLevel int
		wantTitle string
		wantOK    bool
	}{
		{"# foo", 1, "foo", true},
		{"## foo", 2, "foo", true},
		{"###### foo", 6, "foo", true},
		{"####### foo", 0, "", false},
		{"#hashtag", 0, "", false},
		{"## foo ##", 2, "foo", true},
		{"### foo ###     ", 3, "foo", true},
		{"### foo ### b", 3, "foo ### b", true},
		{"#", 1, "", true},
	}
	for _, test := range tests {
		src := []byte(test.line)
		level, title, ok := parseATXHeading(src, 0, len(src))
		if ok != test.wantOK || level != test.wantLevel {
			t.Errorf("parseATXHeading(%q) = (%d, _, %v); want (%d, _, %v)", test.line, level, ok, test.wantLevel, test.wantOK)
			continue
		}
		if ok && string(src[title.Start:title.End]) != test.wantTitle {
			t.Errorf("parseATXHeading(%q) title = %q; want %q", test.line, src[title.Start:title.End], test.wantTitle)
		}
	}
}

func TestParseListMarker(t *testing.T) {
	tests := []struct {
		line      string
		wantOK    bool
		ordered   bool
		start     int
		markerLen int
	}{
		{"- foo", true, false, 0, 1},
		{"* foo", true, false, 0, 1},
		{"+ foo", true, false, 0, 1},
		{"1. foo", true, true, 1, 2},
		{"99) foo", true, true, 99, 3},
		{"a. foo", false, false, 0, 0},
		{"- ", true, false, 0, 1},
	}
	for _, test := range tests {
		src := []byte(test.line)
		m, ok := parseListMarker(src, 0, len(src))
		if ok != test.wantOK {
			t.Errorf("parseListMarker(%q) ok = %v; want %v", test.line, ok, test.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if m.ordered != test.ordered || (test.ordered && m.start != test.start) {
			t.Errorf("parseListMarker(%q) = %+v; want ordered=%v start=%d", test.line, m, test.ordered, test.start)
		}
	}
}
