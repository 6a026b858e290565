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
	gohtml "html"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/atom"
)

// inlineContext selects how RefKind display text is rendered, per
// spec.md §4.6: Normal context renders a resolved reference as a
// hyperlink, while Title and ReferenceText contexts (used while
// building a heading's own text or another reference's expanded
// display text) render the resolved target's text without nesting an
// anchor inside an anchor.
type inlineContext int

const (
	contextNormal inlineContext = iota
	contextTitle
	contextReferenceText
)

// htmlEmitter renders a fully resolved block tree to HTML, per
// spec.md §4.5-4.6. It never reorders content: every byte of output
// follows directly from an in-order AST traversal, so two calls with
// the same tree always produce byte-identical output (spec.md §9).
type htmlEmitter struct {
	source        []byte
	opts          ParseOptions
	renderer      MathRenderer
	diags         *diagSink
	buf           strings.Builder
	codeLineStart int
	sourceMap     *SourceMap
}

func emitHTML(root *Block, source []byte, opts ParseOptions, renderer MathRenderer, diags *diagSink, codeLineStart int, sourceMap *SourceMap) string {
	if renderer == nil {
		renderer = noopMathRenderer{}
	}
	if codeLineStart < 1 {
		codeLineStart = 1
	}
	e := &htmlEmitter{source: source, opts: opts, renderer: renderer, diags: diags, codeLineStart: codeLineStart, sourceMap: sourceMap}
	for _, b := range root.blockChildren {
		e.block(b)
	}
	return e.buf.String()
}

func (e *htmlEmitter) raw(s string) { e.buf.WriteString(s) }

func (e *htmlEmitter) openTag(name atom.Atom, attrs map[string]string, id string) {
	e.buf.WriteByte('<')
	e.buf.WriteString(name.String())
	if id != "" {
		e.buf.WriteString(` id="`)
		e.buf.WriteString(gohtml.EscapeString(id))
		e.buf.WriteByte('"')
	}
	for _, k := range sortedKeys(attrs) {
		e.buf.WriteByte(' ')
		e.buf.WriteString(k)
		e.buf.WriteString(`="`)
		e.buf.WriteString(gohtml.EscapeString(attrs[k]))
		e.buf.WriteByte('"')
	}
	e.buf.WriteByte('>')
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func (e *htmlEmitter) closeTag(name atom.Atom) {
	e.buf.WriteString("</")
	e.buf.WriteString(name.String())
	e.buf.WriteByte('>')
}

// dataAttrs builds the data-KEY map for a labeled block's own AttrList
// items. openTag writes them sorted by attribute name via sortedKeys
// above: deterministic, but not the AttrList's source order.
func dataAttrs(attr *AttrList) map[string]string {
	if attr == nil {
		return nil
	}
	out := map[string]string{}
	for _, it := range attr.Items {
		if !it.IsLabel {
			out["data-"+it.Key] = it.Value
		}
	}
	return out
}

// blockAttrs is dataAttrs plus, when ParseOptions.SourceMap requested a
// map, a data-tm-range="sl:sc-el:ec" attribute translating b's byte
// span into line/character positions (spec.md §6).
func (e *htmlEmitter) blockAttrs(b *Block) map[string]string {
	attrs := dataAttrs(b.attr)
	if e.sourceMap == nil || !b.span.IsValid() {
		return attrs
	}
	if attrs == nil {
		attrs = map[string]string{}
	}
	start, end := e.sourceMap.Range(b.span)
	attrs["data-tm-range"] = fmt.Sprintf("%d:%d-%d:%d", start.Line, start.Character, end.Line, end.Character)
	return attrs
}

func (e *htmlEmitter) block(b *Block) {
	switch b.kind {
	case SectionKind:
		e.openTag(atom.Section, e.blockAttrs(b), b.sectionID)
		if !b.synthetic {
			level := b.level
			if level < 1 {
				level = 1
			}
			if level > 6 {
				level = 6
			}
			hTag := headingAtom(level)
			e.openTag(hTag, nil, "")
			e.inlines(b.inlineChildren, contextTitle)
			e.closeTag(hTag)
		}
		for _, c := range b.blockChildren {
			e.block(c)
		}
		e.closeTag(atom.Section)

	case ParagraphKind:
		e.openTag(atom.P, e.blockAttrs(b), b.Label())
		e.inlines(b.inlineChildren, contextNormal)
		e.closeTag(atom.P)

	case ThematicBreakKind:
		e.raw("<hr>")

	case HeadingKind:
		// only reachable if a heading appears where buildSections chose
		// not to wrap it (never, in the current pipeline); kept for
		// defense in depth rather than a panic on a malformed tree.
		hTag := headingAtom(b.level)
		e.openTag(hTag, e.blockAttrs(b), b.Label())
		e.inlines(b.inlineChildren, contextNormal)
		e.closeTag(hTag)

	case IndentedCodeBlockKind, FencedCodeBlockKind:
		e.codeBlock(b)

	case HTMLBlockKind:
		if b.Label() == "" && dataAttrs(b.attr) == nil && e.sourceMap == nil {
			e.raw(b.rawHTML)
			break
		}
		attrs := e.blockAttrs(b)
		if attrs == nil {
			attrs = map[string]string{}
		}
		attrs["class"] = "TypMark-html"
		attrs["data-typmark"] = "html"
		e.openTag(atom.Div, attrs, b.Label())
		e.raw(b.rawHTML)
		e.closeTag(atom.Div)

	case BlockQuoteKind:
		e.openTag(atom.Blockquote, e.blockAttrs(b), b.Label())
		for _, c := range b.blockChildren {
			e.block(c)
		}
		e.closeTag(atom.Blockquote)

	case ListKind:
		tag := atom.Ul
		attrs := e.blockAttrs(b)
		if b.ordered {
			tag = atom.Ol
			if b.start != 1 {
				if attrs == nil {
					attrs = map[string]string{}
				}
				attrs["start"] = strconv.Itoa(b.start)
			}
		}
		e.openTag(tag, attrs, b.Label())
		for _, c := range b.blockChildren {
			e.block(c)
		}
		e.closeTag(tag)

	case ListItemKind:
		e.openTag(atom.Li, e.blockAttrs(b), b.Label())
		if b.taskState != NoTask {
			checked := ""
			if b.taskState == TaskChecked {
				checked = " checked"
			}
			e.raw(fmt.Sprintf(`<input type="checkbox" disabled%s> `, checked))
		}
		for _, c := range b.blockChildren {
			if c.kind == ParagraphKind && b.tight {
				e.inlines(c.inlineChildren, contextNormal)
				continue
			}
			e.block(c)
		}
		e.closeTag(atom.Li)

	case BoxKind:
		e.box(b)

	case MathBlockKind:
		e.mathBlock(b)

	case TableKind:
		e.table(b)
	}
}

func headingAtom(level int) atom.Atom {
	switch level {
	case 1:
		return atom.H1
	case 2:
		return atom.H2
	case 3:
		return atom.H3
	case 4:
		return atom.H4
	case 5:
		return atom.H5
	default:
		return atom.H6
	}
}

// codeBlock renders a code block's line-wrapper schema (spec.md §3):
// each physical line becomes its own <span> carrying highlight/diff
// classes, with a visible 1-based counter that skips lines marked as
// deleted (per the design decision recorded in DESIGN.md).
func (e *htmlEmitter) codeBlock(b *Block) {
	attrs := e.blockAttrs(b)
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrs["class"] = "TypMark-codeblock"
	attrs["data-typmark"] = "codeblock"
	if b.lang != "" {
		attrs["data-lang"] = b.lang
	}
	e.openTag(atom.Figure, attrs, b.Label())
	e.openTag(atom.Pre, map[string]string{"class": "TypMark-pre"}, "")
	codeClass := "language-plaintext"
	if b.lang != "" {
		codeClass = "language-" + b.lang
	}
	e.openTag(atom.Code, map[string]string{"class": codeClass}, "")
	if e.opts.SimpleCodeBlocks {
		e.raw(gohtml.EscapeString(b.codeText))
		e.closeTag(atom.Code)
		e.closeTag(atom.Pre)
		e.closeTag(atom.Figure)
		return
	}
	lines := strings.Split(b.codeText, "\n")
	if b.codeText == "" {
		lines = nil
	}
	visible := e.codeLineStart
	for i, line := range lines {
		n := i + 1
		e.raw(e.codeLineOpenTag(b.codeMeta, n, &visible))
		e.raw(gohtml.EscapeString(line))
		e.raw("</span>\n")
	}
	e.closeTag(atom.Code)
	e.closeTag(atom.Pre)
	e.closeTag(atom.Figure)
}

// codeLineOpenTag builds the opening <span> for one code-block line,
// per the line-wrapper schema's per-line attributes (spec.md §4.5).
// Lines marked diff-deleted omit data-line and don't advance *visible.
func (e *htmlEmitter) codeLineOpenTag(meta CodeMeta, n int, visible *int) string {
	_, highlighted := meta.Highlighted[n]
	var tag strings.Builder
	class := "line"
	switch {
	case meta.DiffDel[n]:
		class = "line diff del"
	case meta.DiffAdd[n]:
		class = "line diff add"
	case highlighted:
		class = "line highlighted"
	}
	fmt.Fprintf(&tag, `<span class="%s"`, class)
	if !meta.DiffDel[n] {
		fmt.Fprintf(&tag, ` data-line="%d"`, *visible)
		*visible++
	}
	if label, hl := meta.Highlighted[n]; hl {
		if label != "" {
			fmt.Fprintf(&tag, ` id="%s" data-line-label="%s"`, gohtml.EscapeString(label), gohtml.EscapeString(label))
		}
		tag.WriteString(" data-highlighted-line")
	}
	if meta.DiffAdd[n] {
		tag.WriteString(` data-diff="add"`)
	} else if meta.DiffDel[n] {
		tag.WriteString(` data-diff="del"`)
	}
	tag.WriteByte('>')
	return tag.String()
}

// box renders a BoxKind fenced block as a styled wrapper div, with an
// optional title bar, per spec.md §4.5.
func (e *htmlEmitter) box(b *Block) {
	style := validateBoxStyle(b.attr, e.diags)
	attrs := e.blockAttrs(b)
	if attrs == nil {
		attrs = map[string]string{}
	}
	if css := style.inlineCSS(); css != "" {
		attrs["style"] = css
	}
	attrs["class"] = "TypMark-box"
	attrs["data-typmark"] = "box"
	e.openTag(atom.Div, attrs, b.Label())
	if len(b.boxTitle) > 0 {
		titleAttrs := map[string]string{"class": "TypMark-box-title"}
		if style.TitleBg != "" {
			titleAttrs["style"] = "background:" + style.TitleBg
		}
		e.openTag(atom.Div, titleAttrs, "")
		e.inlines(b.boxTitle, contextTitle)
		e.closeTag(atom.Div)
	}
	e.openTag(atom.Div, map[string]string{"class": "TypMark-box-body"}, "")
	for _, c := range b.blockChildren {
		e.block(c)
	}
	e.closeTag(atom.Div)
	e.closeTag(atom.Div)
}

func (s boxStyle) inlineCSS() string {
	var parts []string
	if s.Background != "" {
		parts = append(parts, "background:"+s.Background)
	}
	if s.BorderColor != "" {
		parts = append(parts, "border-color:"+s.BorderColor)
	}
	if s.BorderWidth != "" {
		parts = append(parts, "border-width:"+s.BorderWidth)
	}
	if s.BorderStyle != "" {
		parts = append(parts, "border-style:"+s.BorderStyle)
	}
	return strings.Join(parts, ";")
}

// mathBlock delegates to the configured MathRenderer, falling back to
// the escaped raw source inside <span class="TypMark-math-error"> on
// render error (spec.md §4.5).
func (e *htmlEmitter) mathBlock(b *Block) {
	svg, err := e.renderer.RenderMath(b.mathSrc, true)
	attrs := e.blockAttrs(b)
	wrapperAttrs := map[string]string{"class": "math-block"}
	if e.opts.Theme != "" {
		wrapperAttrs["data-theme"] = e.opts.Theme
	}
	e.openTag(atom.Div, mergeMap(attrs, wrapperAttrs), b.Label())
	if err != nil {
		e.openTag(atom.Span, map[string]string{"class": "TypMark-math-error"}, "")
		e.raw(gohtml.EscapeString(b.mathSrc))
		e.closeTag(atom.Span)
	} else {
		e.raw(svg)
	}
	e.closeTag(atom.Div)
}

func mergeMap(a, b map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func (e *htmlEmitter) table(b *Block) {
	e.openTag(atom.Table, e.blockAttrs(b), b.Label())
	if len(b.table.Header) > 0 {
		e.openTag(atom.Thead, nil, "")
		e.openTag(atom.Tr, nil, "")
		for i, cell := range b.table.Header {
			attrs := alignAttrs(b.table, i)
			e.openTag(atom.Th, attrs, "")
			e.inlines(cell, contextNormal)
			e.closeTag(atom.Th)
		}
		e.closeTag(atom.Tr)
		e.closeTag(atom.Thead)
	}
	e.openTag(atom.Tbody, nil, "")
	for _, row := range b.table.Rows {
		e.openTag(atom.Tr, nil, "")
		for i, cell := range row {
			attrs := alignAttrs(b.table, i)
			e.openTag(atom.Td, attrs, "")
			e.inlines(cell, contextNormal)
			e.closeTag(atom.Td)
		}
		e.closeTag(atom.Tr)
	}
	e.closeTag(atom.Tbody)
	e.closeTag(atom.Table)
}

func alignAttrs(t *TableData, col int) map[string]string {
	if col >= len(t.Align) {
		return nil
	}
	switch t.Align[col] {
	case AlignLeft:
		return map[string]string{"style": "text-align:left"}
	case AlignCenter:
		return map[string]string{"style": "text-align:center"}
	case AlignRight:
		return map[string]string{"style": "text-align:right"}
	default:
		return nil
	}
}

func (e *htmlEmitter) inlines(nodes []*Inline, ctx inlineContext) {
	for _, n := range nodes {
		e.inline(n, ctx)
	}
}

func (e *htmlEmitter) inline(n *Inline, ctx inlineContext) {
	switch n.kind {
	case TextKind:
		e.raw(gohtml.EscapeString(n.Text(e.source)))
	case EntityKind:
		e.raw(gohtml.EscapeString(n.entityText))
	case SoftBreakKind:
		e.raw("\n")
	case HardBreakKind:
		e.raw("<br>\n")
	case EmphKind:
		e.openTag(atom.Em, nil, "")
		e.inlines(n.children, ctx)
		e.closeTag(atom.Em)
	case StrongKind:
		e.openTag(atom.Strong, nil, "")
		e.inlines(n.children, ctx)
		e.closeTag(atom.Strong)
	case StrikethroughKind:
		e.openTag(atom.Del, nil, "")
		e.inlines(n.children, ctx)
		e.closeTag(atom.Del)
	case CodeSpanKind:
		e.openTag(atom.Code, nil, "")
		e.raw(gohtml.EscapeString(n.Text(e.source)))
		e.closeTag(atom.Code)
	case LinkKind:
		if ctx == contextReferenceText {
			e.openTag(atom.Span, map[string]string{"class": "TypMark-delink"}, "")
			e.inlines(n.children, ctx)
			e.closeTag(atom.Span)
			return
		}
		attrs := map[string]string{"href": NormalizeURI(n.dest)}
		if n.titlePresent {
			attrs["title"] = n.title
		}
		e.openTag(atom.A, attrs, "")
		e.inlines(n.children, ctx)
		e.closeTag(atom.A)
	case ImageKind:
		alt := plainText(e.source, n.children)
		if ctx == contextReferenceText {
			e.raw(gohtml.EscapeString(alt))
			return
		}
		attrs := map[string]string{"src": NormalizeURI(n.dest), "alt": alt}
		if n.titlePresent {
			attrs["title"] = n.title
		}
		e.openTag(atom.Img, attrs, "")
	case AutolinkKind:
		e.openTag(atom.A, map[string]string{"href": NormalizeURI(n.dest)}, "")
		e.raw(gohtml.EscapeString(strings.TrimPrefix(n.dest, "mailto:")))
		e.closeTag(atom.A)
	case HTMLSpanKind:
		e.raw(string(spanSlice(e.source, n.span)))
	case MathInlineKind:
		svg, err := e.renderer.RenderMath(n.mathSrc, false)
		if err != nil {
			e.openTag(atom.Span, map[string]string{"class": "TypMark-math-error"}, "")
			e.raw(gohtml.EscapeString(n.mathSrc))
			e.closeTag(atom.Span)
		} else {
			e.raw(svg)
		}
	case RefKind:
		e.ref(n, ctx)
	}
}

// ref renders a resolved reference as a hyperlink in Normal context,
// or as bare text when already inside a Title/ReferenceText context
// (spec.md §4.6), preventing an anchor from ever nesting inside
// another anchor-producing context.
func (e *htmlEmitter) ref(n *Inline, ctx inlineContext) {
	if !n.resolved {
		attrs := map[string]string{"class": "TypMark-ref ref-unresolved", "data-ref-label": n.label}
		e.openTag(atom.Span, attrs, "")
		e.raw("@" + gohtml.EscapeString(n.label))
		e.closeTag(atom.Span)
		return
	}
	if ctx == contextNormal {
		attrs := map[string]string{"class": "TypMark-ref", "href": "#" + NormalizeURI(n.resolvedTarget)}
		e.openTag(atom.A, attrs, "")
		e.inlines(n.children, contextReferenceText)
		e.closeTag(atom.A)
		return
	}
	e.inlines(n.children, contextReferenceText)
}

// NormalizeURI percent-encodes any characters in a string that are
// not reserved or unreserved URI characters, matching the teacher
// library's html_renderer.go helper of the same name.
func NormalizeURI(s string) string {
	const safeSet = `;/?:@&=+$,-_.!~*'()#`
	var sb strings.Builder
	sb.Grow(len(s))
	skip := 0
	var buf [utf8.UTFMax]byte
	for i, c := range s {
		if skip > 0 {
			skip--
			sb.WriteRune(c)
			continue
		}
		switch {
		case c == '%':
			if i+2 < len(s) && isHexByte(s[i+1]) && isHexByte(s[i+2]) {
				skip = 2
				sb.WriteByte('%')
			} else {
				sb.WriteString("%25")
			}
		case (c < 0x80 && (isASCIILetter(byte(c)) || isASCIIDigit(byte(c)))) || strings.ContainsRune(safeSet, c):
			sb.WriteRune(c)
		default:
			n := utf8.EncodeRune(buf[:], c)
			for _, b := range buf[:n] {
				sb.WriteByte('%')
				sb.WriteByte(urlHexDigit(b >> 4))
				sb.WriteByte(urlHexDigit(b & 0x0f))
			}
		}
	}
	return sb.String()
}

func isHexByte(c byte) bool {
	return 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F' || isASCIIDigit(c)
}

func urlHexDigit(x byte) byte {
	if x < 0xa {
		return '0' + x
	}
	return 'A' + x - 0xa
}
