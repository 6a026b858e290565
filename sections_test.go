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

func TestSectionAutoIDDedup(t *testing.T) {
	source := []byte("Foo\nFoo\nFoo\n")
	sb := &sectionBuilder{source: source, diags: &diagSink{}, autoIDs: map[string]int{}, explicit: map[string]bool{}}

	mk := func(span Span) string {
		sec := &Block{kind: SectionKind, inlineChildren: []*Inline{{kind: TextKind, span: span}}}
		return sb.makeID(sec)
	}

	id1 := mk(Span{0, 3})
	id2 := mk(Span{4, 7})
	id3 := mk(Span{8, 11})

	if id1 != "foo" {
		t.Errorf("first id = %q; want %q", id1, "foo")
	}
	if id2 != "foo-1" {
		t.Errorf("second id = %q; want %q", id2, "foo-1")
	}
	if id3 != "foo-2" {
		t.Errorf("third id = %q; want %q", id3, "foo-2")
	}
}

func TestSectionAutoIDAvoidsExplicitLabel(t *testing.T) {
	source := []byte("Foo\n")
	sb := &sectionBuilder{source: source, diags: &diagSink{}, autoIDs: map[string]int{}, explicit: map[string]bool{"foo": true}}

	sec := &Block{kind: SectionKind, inlineChildren: []*Inline{{kind: TextKind, span: Span{0, 3}}}}
	id := sb.makeID(sec)
	if id != "foo-1" {
		t.Errorf("id = %q; want %q (explicit \"foo\" already taken)", id, "foo-1")
	}
}
