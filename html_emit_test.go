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
	"testing"

	"github.com/google/go-cmp/cmp"
	"typmark.dev/typmark/internal/normhtml"
)

func TestEmitParagraph(t *testing.T) {
	result := Parse("Hello *world*.\n", ParseOptions{})
	if len(result.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", result.Diagnostics)
	}
	got := string(normhtml.NormalizeHTML([]byte(result.HTML)))
	want := string(normhtml.NormalizeHTML([]byte("<p>Hello <em>world</em>.</p>")))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HTML (-want +got):\n%s", diff)
	}
}

func TestEmitWrapSections(t *testing.T) {
	result := Parse("Intro text.\n\n# Heading\n\nBody.\n", ParseOptions{WrapSections: true})
	got := string(normhtml.NormalizeHTML([]byte(result.HTML)))
	want := string(normhtml.NormalizeHTML([]byte(
		"<section><p>Intro text.</p></section>"+
			"<section id=\"heading\"><h1>Heading</h1><p>Body.</p></section>")))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HTML (-want +got):\n%s", diff)
	}
}

func TestEmitWithoutWrapSections(t *testing.T) {
	result := Parse("Intro text.\n\n# Heading\n\nBody.\n", ParseOptions{})
	got := string(normhtml.NormalizeHTML([]byte(result.HTML)))
	want := string(normhtml.NormalizeHTML([]byte(
		"<p>Intro text.</p>"+
			"<section id=\"heading\"><h1>Heading</h1><p>Body.</p></section>")))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HTML (-want +got):\n%s", diff)
	}
}
