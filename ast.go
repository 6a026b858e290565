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

// Node is implemented by *Block and *Inline. Unlike the teacher
// library's unsafe.Pointer-tagged union, this is a plain interface;
// see DESIGN.md for the reasoning. Sections are Blocks of SectionKind,
// not a separate type.
type Node interface {
	Span() Span
	ChildCount() int
	Child(i int) Node
}

// AttrItem is one entry of an AttrList: either a #Label or a key=value pair.
type AttrItem struct {
	IsLabel bool
	Key     string // empty when IsLabel
	Value   string // empty when IsLabel
	Span    Span
}

// AttrList is an ordered `{ item (WS item)* }` attribute list attached
// to a target line, a code fence info line, or the document settings
// line (spec.md §3, §6).
type AttrList struct {
	Items []AttrItem
	Span  Span
}

// Label returns the #Label item's value, or "" if none is present.
func (a *AttrList) Label() string {
	if a == nil {
		return ""
	}
	for _, it := range a.Items {
		if it.IsLabel {
			return it.Value
		}
	}
	return ""
}

// Get returns the value for key and whether it was present.
// Get is for semantic lookups where order does not matter. The emitter
// writes data-* attributes sorted by attribute name, not in
// AttrList.Items' source order.
func (a *AttrList) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	for _, it := range a.Items {
		if !it.IsLabel && it.Key == key {
			return it.Value, true
		}
	}
	return "", false
}

// CodeMeta holds line-level metadata for a code block, parsed from its
// attribute list's hl/diff_add/diff_del keys (spec.md §3).
type CodeMeta struct {
	// Highlighted maps a 1-based line number to an optional per-line label.
	Highlighted map[int]string
	DiffAdd     map[int]bool
	DiffDel     map[int]bool
}

func newCodeMeta() CodeMeta {
	return CodeMeta{
		Highlighted: make(map[int]string),
		DiffAdd:     make(map[int]bool),
		DiffDel:     make(map[int]bool),
	}
}

// TaskState is the checkbox state of a GFM task-list item.
type TaskState int

const (
	NoTask TaskState = iota
	TaskUnchecked
	TaskChecked
)

// BlockKind is an enumeration of values returned by (*Block).Kind.
type BlockKind uint16

const (
	ParagraphKind BlockKind = 1 + iota
	ThematicBreakKind
	HeadingKind
	IndentedCodeBlockKind
	FencedCodeBlockKind
	HTMLBlockKind
	BlockQuoteKind
	ListKind
	ListItemKind
	BoxKind
	MathBlockKind
	TableKind
	SectionKind

	// linkReferenceDefinitionKind is a transient block kind produced by
	// the block parser; such blocks are collected in a separate list
	// consumed by buildReferenceMap and are never added to the tree. It
	// is not a member of spec.md §3's Block variant list.
	linkReferenceDefinitionKind
)

// Block is a structural element of a TypMark document.
type Block struct {
	kind BlockKind
	span Span
	attr *AttrList // non-nil iff a target line attached to this block

	blockChildren  []*Block
	inlineChildren []*Inline

	// Heading / Section
	level int

	// Section
	sectionID string
	// synthetic marks a WrapSections wrapper section that has no
	// heading of its own (spec.md content preceding the first heading).
	synthetic bool

	// List / ListItem
	ordered   bool
	start     int
	tight     bool
	taskState TaskState
	// indent is the column width required to continue a ListItemKind,
	// or the number of columns stripped from each line of a code block.
	indent int
	markerChar byte // bullet char, or ordered delimiter char ('.' or ')')

	// CodeBlock / IndentedCodeBlock
	lang     string
	codeText string
	codeMeta CodeMeta
	fenceChar byte
	fenceLen  int // shared by FencedCodeBlockKind and BoxKind

	// Box
	boxTitle []*Inline

	// MathBlock
	mathSrc string

	// HTMLBlock
	rawHTML string

	// Table
	table *TableData

	// link reference definition (transient)
	linkLabel string
	linkDest  string
	linkTitle string
	linkTitleSet bool

	// block-parser bookkeeping, consumed before the tree is handed to
	// later stages; not part of the public data model.
	rawLines    []Span
	pendingAttr *AttrList
	pendingSpan Span
}

// TableAlign is a column alignment for a TableKind block.
type TableAlign int

const (
	AlignNone TableAlign = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// TableData holds the cells of a TableKind block.
type TableData struct {
	Align  []TableAlign
	Header [][]*Inline
	Rows   [][][]*Inline
}

func (b *Block) Kind() BlockKind {
	if b == nil {
		return 0
	}
	return b.kind
}

func (b *Block) Span() Span {
	if b == nil {
		return NullSpan()
	}
	return b.span
}

func (b *Block) AttrList() *AttrList {
	if b == nil {
		return nil
	}
	return b.attr
}

// Label returns the block's attached label, or "" if none.
func (b *Block) Label() string {
	return b.AttrList().Label()
}

func (b *Block) ChildCount() int {
	if b == nil {
		return 0
	}
	if len(b.blockChildren) > 0 {
		return len(b.blockChildren)
	}
	return len(b.inlineChildren)
}

func (b *Block) Child(i int) Node {
	if len(b.blockChildren) > 0 {
		return b.blockChildren[i]
	}
	return b.inlineChildren[i]
}

// Blocks returns the block's block-kind children, or nil.
func (b *Block) Blocks() []*Block {
	if b == nil {
		return nil
	}
	return b.blockChildren
}

// Inlines returns the block's inline-kind children, or nil.
func (b *Block) Inlines() []*Inline {
	if b == nil {
		return nil
	}
	return b.inlineChildren
}

// HeadingLevel returns the 1-based heading level for a HeadingKind or
// SectionKind block, or 0 otherwise.
func (b *Block) HeadingLevel() int {
	if b == nil {
		return 0
	}
	switch b.kind {
	case HeadingKind, SectionKind:
		return b.level
	default:
		return 0
	}
}

// IsOrderedList reports whether the block is an ordered list or list item.
func (b *Block) IsOrderedList() bool {
	return b != nil && b.ordered
}

// IsTightList reports whether the block is a tight list or list item.
func (b *Block) IsTightList() bool {
	return b != nil && (b.kind == ListKind || b.kind == ListItemKind) && b.tight
}

// TaskListState returns the task-list checkbox state of a ListItemKind block.
func (b *Block) TaskListState() TaskState {
	if b == nil || b.kind != ListItemKind {
		return NoTask
	}
	return b.taskState
}

// Lang returns the fenced code block's info-string language, or "".
func (b *Block) Lang() string {
	if b == nil {
		return ""
	}
	return b.lang
}

// CodeText returns the raw text of a code block.
func (b *Block) CodeText() string {
	if b == nil {
		return ""
	}
	return b.codeText
}

// Meta returns the line-level metadata of a fenced code block.
func (b *Block) Meta() CodeMeta {
	if b == nil {
		return CodeMeta{}
	}
	return b.codeMeta
}

// MathSource returns the raw Typst source of a MathBlockKind block.
func (b *Block) MathSource() string {
	if b == nil {
		return ""
	}
	return b.mathSrc
}

// RawHTML returns the raw source text of an HTMLBlockKind block.
func (b *Block) RawHTML() string {
	if b == nil {
		return ""
	}
	return b.rawHTML
}

// Table returns the table data of a TableKind block, or nil.
func (b *Block) Table() *TableData {
	if b == nil {
		return nil
	}
	return b.table
}

// SectionID returns the stable identifier of a SectionKind block.
func (b *Block) SectionID() string {
	if b == nil {
		return ""
	}
	return b.sectionID
}

// Title returns the inline title sequence of a SectionKind block, or
// the non-empty title of a titled BoxKind block. Other kinds return nil.
func (b *Block) Title() []*Inline {
	if b == nil {
		return nil
	}
	switch b.kind {
	case SectionKind:
		return b.inlineChildren
	case BoxKind:
		return b.boxTitle
	default:
		return nil
	}
}

// IsTitleBearing reports whether b is a resolver target with a display
// title: a Section, or a Box with a non-empty title (spec.md §4.4 step 2).
func (b *Block) IsTitleBearing() bool {
	if b == nil {
		return false
	}
	switch b.kind {
	case SectionKind:
		return true
	case BoxKind:
		return len(b.boxTitle) > 0
	default:
		return false
	}
}

// FenceLen returns the fence length (number of colons) of a BoxKind block.
func (b *Block) FenceLen() int {
	if b == nil {
		return 0
	}
	return b.fenceLen
}

// Inline represents Markdown/TypMark content elements: text, links,
// emphasis, math, and the TypMark reference token.
type Inline struct {
	kind     InlineKind
	span     Span
	children []*Inline

	// Link / Image
	dest         string
	title        string
	titlePresent bool
	refLabel     string // non-empty for reference-form links/images

	// Autolink
	autolinkIsEmail bool

	// Ref
	label          string
	hasBracket     bool
	resolved       bool
	resolvedTarget string
	displayText    string // computed in ReferenceText context by the resolver

	// Entity
	entityText string // decoded UTF-8 text

	// MathInline
	mathSrc string

	// scratch is non-nil only on provisional nodes produced mid-parse by
	// the inline scanner (delimiter runs, bracket markers); it is always
	// nil on nodes reachable from a finished tree.
	scratch *delimScratch
}

// delimScratch tracks delimiter-run and bracket-marker bookkeeping
// during CommonMark §6.2 emphasis/strikethrough resolution and link
// bracket matching. It never survives into the finished inline tree.
type delimScratch struct {
	isBracket bool
	isImage   bool
	active    bool

	delimChar byte
	count     int
	canOpen   bool
	canClose  bool
}

// InlineKind is an enumeration of values returned by (*Inline).Kind.
type InlineKind uint16

const (
	TextKind InlineKind = 1 + iota
	SoftBreakKind
	HardBreakKind
	EmphKind
	StrongKind
	StrikethroughKind
	CodeSpanKind
	LinkKind
	ImageKind
	AutolinkKind
	HTMLSpanKind
	RefKind
	MathInlineKind
	EntityKind
)

func (in *Inline) Kind() InlineKind {
	if in == nil {
		return 0
	}
	return in.kind
}

func (in *Inline) Span() Span {
	if in == nil {
		return NullSpan()
	}
	return in.span
}

func (in *Inline) ChildCount() int {
	if in == nil {
		return 0
	}
	return len(in.children)
}

func (in *Inline) Child(i int) Node {
	return in.children[i]
}

func (in *Inline) Children() []*Inline {
	if in == nil {
		return nil
	}
	return in.children
}

// Text returns the literal source text of a TextKind/CodeSpanKind leaf,
// or the decoded text of an EntityKind node.
func (in *Inline) Text(source []byte) string {
	if in == nil {
		return ""
	}
	if in.kind == EntityKind {
		return in.entityText
	}
	return string(spanSlice(source, in.span))
}

// Destination returns the URL of a Link/Image/Autolink inline.
func (in *Inline) Destination() string {
	if in == nil {
		return ""
	}
	return in.dest
}

// LinkTitle returns the title of a Link/Image inline, and whether one was present.
func (in *Inline) LinkTitle() (string, bool) {
	if in == nil {
		return "", false
	}
	return in.title, in.titlePresent
}

// ReferenceLabel returns the normalized label of a reference-form
// Link/Image inline, or "" for an inline-form link/image.
func (in *Inline) ReferenceLabel() string {
	if in == nil {
		return ""
	}
	return in.refLabel
}

// IsEmailAutolink reports whether an AutolinkKind node is a bare email
// address (rendered with a mailto: prefix).
func (in *Inline) IsEmailAutolink() bool {
	return in != nil && in.kind == AutolinkKind && in.autolinkIsEmail
}

// RefLabel returns a RefKind node's raw label text.
func (in *Inline) RefLabel() string {
	if in == nil {
		return ""
	}
	return in.label
}

// HasBracket reports whether a RefKind node had an explicit [display] bracket.
func (in *Inline) HasBracket() bool {
	return in != nil && in.hasBracket
}

// Resolved reports whether a RefKind node's label was found in the label table.
func (in *Inline) Resolved() bool {
	return in != nil && in.resolved
}

// ResolvedTarget returns the stable target id a resolved RefKind node
// points to, or "" if unresolved.
func (in *Inline) ResolvedTarget() string {
	if in == nil {
		return ""
	}
	return in.resolvedTarget
}

// MathSource returns the raw Typst source of a MathInlineKind node.
func (in *Inline) MathSource() string {
	if in == nil {
		return ""
	}
	return in.mathSrc
}
