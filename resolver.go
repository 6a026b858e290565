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

// maxRefDepth bounds @Label display-text recursion, per spec.md §4.4.
const maxRefDepth = 100

// resolver validates @Label cross-references against the document's
// label table and fills in display text for bracket-less references,
// per spec.md §4.4.
type resolver struct {
	source []byte
	diags  *diagSink
	labels map[string]*Block
}

func resolveReferences(root *Block, source []byte, diags *diagSink) {
	rs := &resolver{source: source, diags: diags, labels: map[string]*Block{}}
	rs.collectLabels(root)
	rs.walkInlines(root)
}

// collectLabels walks the tree registering every Section's stable id
// and every other block's explicit #Label, reporting E_LABEL_DUP on
// collision.
func (rs *resolver) collectLabels(b *Block) {
	var id string
	switch {
	case b.kind == SectionKind:
		id = b.sectionID
	default:
		id = b.Label()
	}
	if id != "" {
		if existing, ok := rs.labels[id]; ok {
			rs.diags.errorf(passResolve, ErrLabelDup, rs.spanOf(b), "label \""+id+"\" is already defined",
				RelatedInfo{Range: rs.spanOf(existing)})
		} else {
			rs.labels[id] = b
		}
	}
	for _, c := range b.blockChildren {
		rs.collectLabels(c)
	}
}

func (rs *resolver) spanOf(b *Block) Span {
	if b.attr != nil {
		return b.attr.Span
	}
	return b.span
}

// idOf returns the stable target identifier used in ResolvedTarget
// and in the emitter's id="..." attribute.
func (rs *resolver) idOf(b *Block) string {
	if b.kind == SectionKind {
		return b.sectionID
	}
	return b.Label()
}

// walkInlines visits every inline-bearing slot in the tree (section
// titles, box titles, paragraph content, table cells) and resolves
// the RefKind nodes found there.
func (rs *resolver) walkInlines(b *Block) {
	switch {
	case b.kind == SectionKind:
		rs.resolveRefsIn(b.inlineChildren, rs.idOf(b))
	case b.kind == BoxKind && len(b.boxTitle) > 0:
		rs.resolveRefsIn(b.inlineChildren, "")
		rs.resolveRefsIn(b.boxTitle, rs.idOf(b))
	default:
		rs.resolveRefsIn(b.inlineChildren, "")
		rs.resolveRefsIn(b.boxTitle, "")
	}
	if b.table != nil {
		for _, row := range b.table.Header {
			rs.resolveRefsIn(row, "")
		}
		for _, row := range b.table.Rows {
			for _, cell := range row {
				rs.resolveRefsIn(cell, "")
			}
		}
	}
	for _, c := range b.blockChildren {
		rs.walkInlines(c)
	}
}

// resolveRefsIn resolves every RefKind node in nodes. ownerID is the
// label of the title-bearing block whose own title sequence nodes
// belongs to, or "" when nodes isn't a title (spec.md §4.4 step 4).
func (rs *resolver) resolveRefsIn(nodes []*Inline, ownerID string) {
	for _, n := range nodes {
		if n.kind == RefKind {
			rs.resolveRef(n, ownerID)
		}
		rs.resolveRefsIn(n.children, ownerID)
	}
}

func (rs *resolver) resolveRef(n *Inline, ownerID string) {
	target, ok := rs.labels[n.label]
	if !ok {
		rs.diags.warnf(passResolve, WarnRefMissing, n.span, "unresolved reference to @"+n.label)
		return
	}
	n.resolved = true
	n.resolvedTarget = rs.idOf(target)
	if ownerID != "" && n.label == ownerID {
		rs.diags.errorf(passResolve, ErrRefSelfTitle, n.span,
			"reference target's title refers back to the original reference")
	}
	if n.hasBracket {
		return
	}
	if !target.IsTitleBearing() {
		rs.diags.errorf(passResolve, ErrRefOmit, n.span, "@"+n.label+" has no display text and its target has no title")
		return
	}
	visited := map[string]bool{n.label: true}
	if children, ok := rs.expandTitle(target, n.span, visited, 1); ok {
		n.children = children
	}
}

// expandTitle copies target's title inline tree, recursively
// expanding any bracket-less nested @Label reference so the final
// display text never itself contains an unresolved reference token.
func (rs *resolver) expandTitle(target *Block, originSpan Span, visited map[string]bool, depth int) ([]*Inline, bool) {
	if depth > maxRefDepth {
		rs.diags.errorf(passResolve, ErrRefDepth, originSpan, "reference display text recursion exceeded the depth limit")
		return nil, false
	}
	title := target.Title()
	out := make([]*Inline, len(title))
	for i, n := range title {
		out[i] = rs.expandNode(n, originSpan, visited, depth)
	}
	return out, true
}

func (rs *resolver) expandNode(n *Inline, originSpan Span, visited map[string]bool, depth int) *Inline {
	cp := *n
	if n.kind == RefKind && !n.hasBracket {
		t, ok := rs.labels[n.label]
		if !ok {
			return &cp
		}
		if visited[n.label] {
			rs.diags.errorf(passResolve, ErrRefSelfTitle, originSpan,
				"reference target's title refers back to the original reference")
			return &cp
		}
		visited2 := cloneVisited(visited)
		visited2[n.label] = true
		if children, ok := rs.expandTitle(t, originSpan, visited2, depth+1); ok {
			cp.children = children
		}
		return &cp
	}
	if len(n.children) > 0 {
		cp.children = make([]*Inline, len(n.children))
		for i, c := range n.children {
			cp.children[i] = rs.expandNode(c, originSpan, visited, depth)
		}
	}
	return &cp
}

func cloneVisited(v map[string]bool) map[string]bool {
	out := make(map[string]bool, len(v)+1)
	for k := range v {
		out[k] = true
	}
	return out
}
