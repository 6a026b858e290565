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

import "sort"

// Severity is the severity level of a Diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic codes, per spec.md §6.
const (
	ErrAttrSyntax    = "E_ATTR_SYNTAX"
	ErrTargetOrphan  = "E_TARGET_ORPHAN"
	ErrLabelDup      = "E_LABEL_DUP"
	ErrRefOmit       = "E_REF_OMIT"
	ErrRefBracketNL  = "E_REF_BRACKET_NL"
	ErrRefSelfTitle  = "E_REF_SELF_TITLE"
	ErrRefDepth      = "E_REF_DEPTH"
	ErrMathInlineNL  = "E_MATH_INLINE_NL"
	ErrCodeConflict  = "E_CODE_CONFLICT"

	WarnRefMissing     = "W_REF_MISSING"
	WarnCodeRangeOOB   = "W_CODE_RANGE_OOB"
	WarnBoxStyleInvalid = "W_BOX_STYLE_INVALID"
	WarnLinkRefMissing = "W_LINK_REF_MISSING"
	WarnLinkDefDup     = "W_LINK_DEF_DUP"
	WarnLinkDefUnused  = "W_LINK_DEF_UNUSED"
)

// Pass identifiers, used only to break diagnostic-ordering ties when
// two diagnostics share a primary span start (spec.md §5).
const (
	passBlock = 1 + iota
	passInline
	passSection
	passResolve
	passEmit
)

// RelatedInfo is a secondary span attached to a Diagnostic,
// such as the location of a conflicting prior label definition.
type RelatedInfo struct {
	Range Span
}

// Diagnostic is a single error or warning produced during parsing,
// resolution, or emission. Ranges are byte Spans into the original
// source; callers needing (line, character) pairs should convert with
// a SourceMap.
type Diagnostic struct {
	Code     string
	Severity Severity
	Range    Span
	Message  string
	Related  []RelatedInfo

	// passID orders diagnostics from the same span deterministically;
	// lower-numbered passes (structural) sort before later ones
	// (resolution, emission), matching spec.md §5's ordering rule.
	passID int
}

// diagSink accumulates diagnostics during a single Parse call.
// It is never shared across calls, preserving the pipeline's
// single-threaded pure-function contract (spec.md §5).
type diagSink struct {
	diags []Diagnostic
}

func (s *diagSink) add(passID int, code string, sev Severity, rng Span, message string, related ...RelatedInfo) {
	s.diags = append(s.diags, Diagnostic{
		Code:     code,
		Severity: sev,
		Range:    rng,
		Message:  message,
		Related:  related,
		passID:   passID,
	})
}

func (s *diagSink) errorf(passID int, code string, rng Span, message string, related ...RelatedInfo) {
	s.add(passID, code, SeverityError, rng, message, related...)
}

func (s *diagSink) warnf(passID int, code string, rng Span, message string, related ...RelatedInfo) {
	s.add(passID, code, SeverityWarning, rng, message, related...)
}

// sorted returns the accumulated diagnostics stably sorted by
// (primary span start, pass id), per spec.md §5.
func (s *diagSink) sorted() []Diagnostic {
	out := make([]Diagnostic, len(s.diags))
	copy(out, s.diags)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Range.Start != out[j].Range.Start {
			return out[i].Range.Start < out[j].Range.Start
		}
		return out[i].passID < out[j].passID
	})
	return out
}

// HasErrors reports whether any diagnostic in diags is error severity.
// This is the rule a CLI host would use to decide its exit status
// (spec.md §7): the core itself never exits or panics on bad input.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
