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

// Package typmark implements a CommonMark/GFM-based document format
// with target-line attributes, strict @Label cross-references, inline
// and block math, and fenced box blocks. Parse is the sole public
// entry point: it is a pure function from (source, options) to
// (html, diagnostics) with no hidden state and no I/O of its own
// (spec.md §5).
package typmark

import "context"

// ParseOptions configures a single Parse call. It is a closed set,
// per spec.md §6: callers needing a different pipeline shape (a
// different math renderer, instrumentation) configure it here rather
// than through side-channel globals.
type ParseOptions struct {
	// Sanitize, if non-nil, post-processes the complete emitted HTML
	// string once, after emission.
	Sanitize Sanitizer

	// SimpleCodeBlocks disables the per-line <span> wrapper schema,
	// emitting a single escaped text node inside <pre><code> instead.
	SimpleCodeBlocks bool

	// WrapSections controls whether top-level content is wrapped in a
	// synthetic level-0 Section even when the document has no leading
	// heading; when false, content before the first heading is emitted
	// directly without a wrapper.
	WrapSections bool

	// SourceMap, if true, causes Parse to also return a *SourceMap for
	// translating returned Diagnostic byte Spans into line/character
	// positions.
	SourceMap bool

	// Theme is written as data-theme on each math block's wrapper <div>;
	// when empty, the document settings line's theme value is used. It
	// does not affect parsing or box styling.
	Theme string

	// Phase2 enables the GFM extensions tables, task lists, and
	// strikethrough. GFM autolink literals are not recognized, with or
	// without Phase2; only <...> autolinks are.
	Phase2 bool

	// MathRenderer renders Typst math source to SVG. A nil value
	// degrades math nodes to their escaped source inside
	// <span class="TypMark-math-error">.
	MathRenderer MathRenderer

	// Tracer and Metrics are optional observability hooks
	// (SPEC_FULL.md §9.3). Both default to no-op.
	Tracer  Tracer
	Metrics *Metrics
}

// Result is everything Parse produces for one document.
type Result struct {
	HTML        string
	Diagnostics []Diagnostic
	SourceMap   *SourceMap // non-nil iff ParseOptions.SourceMap was set
}

// Parse runs the full TypMark pipeline over source: block parsing,
// inline parsing, section building, reference resolution, and HTML
// emission, per spec.md §2's pipeline table. It never panics on
// malformed input; structural problems are reported as Diagnostics.
func Parse(source string, opts ParseOptions) Result {
	return ParseContext(context.Background(), source, opts)
}

// ParseContext is Parse with an explicit context, used to propagate
// trace context into the optional Tracer spans (SPEC_FULL.md §9.3).
// The context carries no deadline semantics of its own: Parse always
// runs to completion or panics only on an internal invariant
// violation, never on ctx cancellation.
func ParseContext(ctx context.Context, source string, opts ParseOptions) Result {
	tel := newPipelineTelemetry(opts.Tracer, opts.Metrics)
	src := []byte(source)
	diags := &diagSink{}

	var sm *SourceMap
	tel.stage(ctx, "sourcemap", func(context.Context) {
		if opts.SourceMap {
			sm = NewSourceMap(src)
		}
	})

	var root *Block
	var linkDefs []*Block
	var docSettingsAttr *AttrList
	tel.stage(ctx, "blocks", func(context.Context) {
		root, linkDefs, docSettingsAttr = parseBlocks(src, diags, opts.Phase2)
	})

	ds := validateDocSettings(docSettingsAttr, diags)
	emitOpts := opts
	if emitOpts.Theme == "" {
		emitOpts.Theme = ds.Theme
	}
	codeLineStart := 1
	if n, ok := atoiOK(ds.CodeLineStart); ok && n > 0 {
		codeLineStart = n
	}

	refs := buildReferenceMap(linkDefs, diags)
	tel.stage(ctx, "inlines", func(context.Context) {
		runInlinePass(root, src, refs, diags, opts.Phase2)
		reportUnusedDefinitions(refs, diags)
	})

	tel.stage(ctx, "sections", func(context.Context) {
		buildSections(root, src, diags, opts.WrapSections)
	})

	tel.stage(ctx, "resolve", func(context.Context) {
		resolveReferences(root, src, diags)
	})

	var out string
	tel.stage(ctx, "emit", func(context.Context) {
		renderer := emitOpts.MathRenderer
		out = emitHTML(root, src, emitOpts, renderer, diags, codeLineStart, sm)
		if emitOpts.Sanitize != nil {
			out = emitOpts.Sanitize(out)
		}
	})

	sorted := diags.sorted()
	tel.recordDiagnostics(sorted)

	return Result{HTML: out, Diagnostics: sorted, SourceMap: sm}
}
