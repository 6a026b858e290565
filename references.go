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
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// caseFolder implements CommonMark §4.7's Unicode case-fold comparison
// for link reference labels. golang.org/x/text/cases is promoted here
// from an indirect dependency of the teacher's go.mod to a direct one:
// the standard library's strings.ToLower is locale-naive and does not
// perform full Unicode case folding.
var caseFolder = cases.Fold()

// normalizeLabel case-folds and collapses internal whitespace runs in
// a reference label, per CommonMark §4.7.
func normalizeLabel(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return caseFolder.String(s)
}

// linkDef is one resolved link reference definition.
type linkDef struct {
	dest      string
	title     string
	titleSet  bool
	span      Span
	firstSpan Span
	used      bool
}

// referenceMap is the label → definition table built from a
// document's link reference definitions (spec.md §4.2's reference
// link forms), first-definition-wins per CommonMark §4.7.
type referenceMap struct {
	defs map[string]*linkDef
}

func (m *referenceMap) lookup(label string) (*linkDef, bool) {
	if m == nil {
		return nil, false
	}
	d, ok := m.defs[normalizeLabel(label)]
	if ok {
		d.used = true
	}
	return d, ok
}

// buildReferenceMap consumes the transient linkReferenceDefinitionKind
// blocks gathered by the block parser, reporting W_LINK_DEF_DUP for
// any label seen more than once.
func buildReferenceMap(defs []*Block, diags *diagSink) *referenceMap {
	m := &referenceMap{defs: make(map[string]*linkDef, len(defs))}
	for _, b := range defs {
		key := normalizeLabel(b.linkLabel)
		if key == "" {
			continue
		}
		if existing, ok := m.defs[key]; ok {
			diags.warnf(passBlock, WarnLinkDefDup, b.span,
				"duplicate link reference definition for label "+b.linkLabel,
				RelatedInfo{Range: existing.firstSpan})
			continue
		}
		m.defs[key] = &linkDef{
			dest: b.linkDest, title: b.linkTitle, titleSet: b.linkTitleSet,
			span: b.span, firstSpan: b.span,
		}
	}
	return m
}

// reportUnusedDefinitions emits W_LINK_DEF_UNUSED for every definition
// never consulted by a reference-form link or image during inline
// parsing.
func reportUnusedDefinitions(m *referenceMap, diags *diagSink) {
	for label, d := range m.defs {
		if !d.used {
			diags.warnf(passInline, WarnLinkDefUnused, d.span,
				"link reference definition \""+label+"\" is never used")
		}
	}
}

// applyLinkDestinations fills in dest/title on reference-form
// Link/Image nodes now that the full referenceMap is known, walking
// the already-built inline tree. Unresolved reference links (whose
// label was not in the map at scan time) were left as tryCloseBracket
// fallback text and never reach this pass; a label that still fails
// to resolve here reports W_LINK_REF_MISSING (spec.md §4.2).
func applyLinkDestinations(nodes []*Inline, refs *referenceMap, diags *diagSink) {
	for _, n := range nodes {
		if (n.kind == LinkKind || n.kind == ImageKind) && n.refLabel != "" {
			if d, ok := refs.lookup(n.refLabel); ok {
				n.dest = d.dest
				n.title = d.title
				n.titlePresent = d.titleSet
			} else {
				diags.warnf(passInline, WarnLinkRefMissing, n.span,
					"reference link label \""+n.refLabel+"\" has no matching definition")
			}
		}
		applyLinkDestinations(n.children, refs, diags)
	}
}
