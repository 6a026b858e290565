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
	"fmt"

	"github.com/shurcooL/sanitized_anchor_name"
)

// sectionBuilder groups a flat sequence of headings and their
// following content into a nested Section tree, per spec.md §4.3.
// It recurses into every container (BlockQuote, ListItem, Box) so
// that headings anywhere in the document form sections, not just at
// the top level.
type sectionBuilder struct {
	source   []byte
	diags    *diagSink
	autoIDs  map[string]int
	explicit map[string]bool
}

func buildSections(root *Block, source []byte, diags *diagSink, wrapSections bool) {
	sb := &sectionBuilder{source: source, diags: diags, autoIDs: map[string]int{}, explicit: map[string]bool{}}
	sb.collectExplicitLabels(root)
	root.blockChildren = sb.sectionize(root.blockChildren)
	if wrapSections {
		root.blockChildren = wrapLeadingContent(root.blockChildren)
	}
}

// wrapLeadingContent wraps any top-level content preceding the
// document's first Section in a synthetic, heading-less Section, per
// ParseOptions.WrapSections.
func wrapLeadingContent(children []*Block) []*Block {
	i := 0
	for i < len(children) && children[i].kind != SectionKind {
		i++
	}
	if i == 0 {
		return children
	}
	wrapper := &Block{kind: SectionKind, synthetic: true, blockChildren: children[:i:i]}
	out := make([]*Block, 0, len(children)-i+1)
	out = append(out, wrapper)
	out = append(out, children[i:]...)
	return out
}

// collectExplicitLabels pre-scans every block's #Label so auto
// section ids can avoid colliding with them.
func (sb *sectionBuilder) collectExplicitLabels(b *Block) {
	if l := b.Label(); l != "" {
		sb.explicit[l] = true
	}
	for _, c := range b.blockChildren {
		sb.collectExplicitLabels(c)
	}
}

func (sb *sectionBuilder) sectionize(children []*Block) []*Block {
	var top []*Block
	var stack []*Block // open sections, outermost first

	attach := func(b *Block) {
		if len(stack) == 0 {
			top = append(top, b)
			return
		}
		parent := stack[len(stack)-1]
		parent.blockChildren = append(parent.blockChildren, b)
	}

	for _, c := range children {
		if len(c.blockChildren) > 0 {
			c.blockChildren = sb.sectionize(c.blockChildren)
		}
		if c.kind != HeadingKind {
			attach(c)
			continue
		}
		sec := &Block{
			kind:           SectionKind,
			span:           c.span,
			level:          c.level,
			inlineChildren: c.inlineChildren,
			attr:           c.attr,
		}
		sec.sectionID = sb.makeID(sec)
		for len(stack) > 0 && stack[len(stack)-1].level >= sec.level {
			stack = stack[:len(stack)-1]
		}
		attach(sec)
		stack = append(stack, sec)
	}
	return top
}

func (sb *sectionBuilder) makeID(sec *Block) string {
	if l := sec.Label(); l != "" {
		return l
	}
	base := sanitized_anchor_name.Create(plainText(sb.source, sec.inlineChildren))
	if base == "" {
		base = "section"
	}
	id := base
	for sb.explicit[id] {
		sb.autoIDs[base]++
		id = fmt.Sprintf("%s-%d", base, sb.autoIDs[base])
	}
	sb.explicit[id] = true
	return id
}

// plainText renders a run of inline nodes as their literal text
// content, descending into emphasis/strong/etc. for slug generation.
func plainText(source []byte, nodes []*Inline) string {
	var out []byte
	for _, n := range nodes {
		switch n.Kind() {
		case TextKind, CodeSpanKind, EntityKind:
			out = append(out, []byte(n.Text(source))...)
		case SoftBreakKind:
			out = append(out, ' ')
		default:
			out = append(out, []byte(plainText(source, n.Children()))...)
		}
	}
	return string(out)
}
