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

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Foo", "foo"},
		{"  Foo   Bar  ", "foo bar"},
		{"FOO", "foo"},
		{"foo\tbar", "foo bar"},
	}
	for _, test := range tests {
		if got := normalizeLabel(test.in); got != test.want {
			t.Errorf("normalizeLabel(%q) = %q; want %q", test.in, got, test.want)
		}
	}
}

func TestBuildReferenceMapDuplicate(t *testing.T) {
	defs := []*Block{
		{linkLabel: "a", linkDest: "/first", span: Span{0, 10}},
		{linkLabel: "A", linkDest: "/second", span: Span{10, 20}},
	}
	diags := &diagSink{}
	m := buildReferenceMap(defs, diags)

	d, ok := m.lookup("a")
	if !ok || d.dest != "/first" {
		t.Fatalf("lookup(a) = %+v, %v; want first definition to win", d, ok)
	}
	sorted := diags.sorted()
	if len(sorted) != 1 || sorted[0].Code != WarnLinkDefDup {
		t.Errorf("diags = %v; want one %s", sorted, WarnLinkDefDup)
	}
}

func TestReportUnusedDefinitions(t *testing.T) {
	defs := []*Block{
		{linkLabel: "used", linkDest: "/u", span: Span{0, 5}},
		{linkLabel: "unused", linkDest: "/v", span: Span{5, 10}},
	}
	diags := &diagSink{}
	m := buildReferenceMap(defs, diags)
	m.lookup("used")
	reportUnusedDefinitions(m, diags)

	sorted := diags.sorted()
	if len(sorted) != 1 || sorted[0].Code != WarnLinkDefUnused {
		t.Errorf("diags = %v; want one %s", sorted, WarnLinkDefUnused)
	}
}
