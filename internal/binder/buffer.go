/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package binder

import (
	"strings"
	"sync"

	"goscreenwriter/internal/format"
)

// CharStyle is the formatting carried by one character of a view block.
type CharStyle struct {
	Format format.CharFormat
	// FontFamily overrides Format.Font.Family for script-specific fonts.
	FontFamily  string
	Background  format.Color
	Misspelled  bool
	Suggestions []string
}

// Family is the font family the character renders in.
func (c CharStyle) Family() string {
	if c.FontFamily != "" {
		return c.FontFamily
	}
	return c.Format.Font.Family
}

// ChangeFunc receives edit notifications: at position from, removed
// characters were replaced by added characters.
type ChangeFunc func(from, removed, added int)

// TextBuffer is the editable view the binder keeps in sync with a scene. It
// holds an ordered list of blocks separated by a newline; positions count
// runes across the whole buffer, so block i starts one position after the end
// of block i-1.
//
// Every text mutation is reported to subscribers, synchronously, after it has
// been applied. Format changes are not reported.
type TextBuffer interface {
	BlockCount() int
	BlockText(i int) string
	BlockLength(i int) int
	BlockPosition(i int) int
	// BlockAt returns the block containing pos, or -1 when pos is outside the buffer.
	BlockAt(pos int) int
	Length() int

	// Clear leaves a single empty block.
	Clear()
	// Insert adds text at pos; each newline in text starts a new block.
	Insert(pos int, text string)
	// Delete removes n characters at pos, merging blocks when a separator goes.
	Delete(pos, n int)
	// Replace swaps n characters at pos for text as one edit.
	Replace(pos, n int, text string)

	Annotation(i int) *BlockAnnotation
	SetAnnotation(i int, a *BlockAnnotation)

	BlockFormat(i int) format.BlockFormat
	SetBlockFormat(i int, f format.BlockFormat)
	// SetCharFormat replaces the whole style of the range with f.
	SetCharFormat(i, start, length int, f format.CharFormat)
	SetFontFamily(i, start, length int, family string)
	SetMisspelled(i, start, length int, misspelled bool, suggestions []string, background format.Color)
	CharStyleAt(i, offset int) CharStyle

	Subscribe(fn ChangeFunc) (cancel func())
}

type memBlock struct {
	text   []rune
	styles []CharStyle
	fmt    format.BlockFormat
	// base is the style of the block's character format, used for text typed
	// into an empty block.
	base CharStyle
	ann  *BlockAnnotation
}

// MemoryBuffer is an in-memory TextBuffer. It is not safe for concurrent use.
type MemoryBuffer struct {
	blocks []*memBlock

	subMu  sync.Mutex
	nextID int
	subs   map[int]ChangeFunc
}

func NewMemoryBuffer() *MemoryBuffer {
	return &MemoryBuffer{blocks: []*memBlock{{}}, subs: make(map[int]ChangeFunc)}
}

// Text returns the buffer content with blocks joined by newlines.
func (m *MemoryBuffer) Text() string {
	parts := make([]string, len(m.blocks))
	for i, b := range m.blocks {
		parts[i] = string(b.text)
	}
	return strings.Join(parts, "\n")
}

func (m *MemoryBuffer) BlockCount() int { return len(m.blocks) }

func (m *MemoryBuffer) block(i int) *memBlock {
	if i < 0 || i >= len(m.blocks) {
		return nil
	}
	return m.blocks[i]
}

func (m *MemoryBuffer) BlockText(i int) string {
	if b := m.block(i); b != nil {
		return string(b.text)
	}
	return ""
}

func (m *MemoryBuffer) BlockLength(i int) int {
	if b := m.block(i); b != nil {
		return len(b.text)
	}
	return 0
}

func (m *MemoryBuffer) BlockPosition(i int) int {
	if i < 0 || i >= len(m.blocks) {
		return -1
	}
	pos := 0
	for j := 0; j < i; j++ {
		pos += len(m.blocks[j].text) + 1
	}
	return pos
}

func (m *MemoryBuffer) BlockAt(pos int) int {
	if pos < 0 {
		return -1
	}
	start := 0
	for i, b := range m.blocks {
		end := start + len(b.text)
		if pos <= end {
			return i
		}
		start = end + 1
	}
	return -1
}

func (m *MemoryBuffer) Length() int {
	n := len(m.blocks) - 1
	for _, b := range m.blocks {
		n += len(b.text)
	}
	return n
}

// locate converts an absolute position into a block index and offset, clamping
// to the end of the buffer.
func (m *MemoryBuffer) locate(pos int) (int, int) {
	if pos < 0 {
		pos = 0
	}
	start := 0
	for i, b := range m.blocks {
		if pos <= start+len(b.text) {
			return i, pos - start
		}
		start += len(b.text) + 1
	}
	last := len(m.blocks) - 1
	return last, len(m.blocks[last].text)
}

func (m *MemoryBuffer) Clear() {
	removed := m.Length()
	m.blocks = []*memBlock{{}}
	if removed > 0 {
		m.notify(0, removed, 0)
	}
}

func (m *MemoryBuffer) Insert(pos int, text string) { m.Replace(pos, 0, text) }

func (m *MemoryBuffer) Delete(pos, n int) { m.Replace(pos, n, "") }

func (m *MemoryBuffer) Replace(pos, n int, text string) {
	bi, off := m.locate(pos)
	from := m.BlockPosition(bi) + off
	removed := m.remove(bi, off, n)
	added := m.insert(bi, off, []rune(text))
	if removed == 0 && added == 0 {
		return
	}
	m.notify(from, removed, added)
}

// remove deletes up to n characters starting at (bi, off) and returns how many went.
func (m *MemoryBuffer) remove(bi, off, n int) int {
	removed := 0
	for n > 0 {
		b := m.blocks[bi]
		if off < len(b.text) {
			k := min(n, len(b.text)-off)
			b.text = append(b.text[:off], b.text[off+k:]...)
			b.styles = append(b.styles[:off], b.styles[off+k:]...)
			n -= k
			removed += k
			continue
		}
		if bi+1 >= len(m.blocks) {
			break
		}
		next := m.blocks[bi+1]
		b.text = append(b.text, next.text...)
		b.styles = append(b.styles, next.styles...)
		m.blocks = append(m.blocks[:bi+1], m.blocks[bi+2:]...)
		n--
		removed++
	}
	return removed
}

func (m *MemoryBuffer) insert(bi, off int, text []rune) int {
	b := m.blocks[bi]
	style := b.base
	if off > 0 {
		style = b.styles[off-1]
	} else if len(b.styles) > 0 {
		style = b.styles[0]
	}
	style.Misspelled, style.Suggestions, style.Background = false, nil, b.base.Background
	for _, r := range text {
		if r == '\n' {
			nb := &memBlock{fmt: b.fmt, base: b.base}
			nb.text = append(nb.text, b.text[off:]...)
			nb.styles = append(nb.styles, b.styles[off:]...)
			b.text, b.styles = b.text[:off], b.styles[:off]
			m.blocks = append(m.blocks, nil)
			copy(m.blocks[bi+2:], m.blocks[bi+1:])
			m.blocks[bi+1] = nb
			bi, off, b = bi+1, 0, nb
			continue
		}
		b.text = append(b.text, 0)
		copy(b.text[off+1:], b.text[off:])
		b.text[off] = r
		b.styles = append(b.styles, CharStyle{})
		copy(b.styles[off+1:], b.styles[off:])
		b.styles[off] = style
		off++
	}
	return len(text)
}

func (m *MemoryBuffer) Annotation(i int) *BlockAnnotation {
	if b := m.block(i); b != nil {
		return b.ann
	}
	return nil
}

func (m *MemoryBuffer) SetAnnotation(i int, a *BlockAnnotation) {
	if b := m.block(i); b != nil {
		b.ann = a
	}
}

func (m *MemoryBuffer) BlockFormat(i int) format.BlockFormat {
	if b := m.block(i); b != nil {
		return b.fmt
	}
	return format.BlockFormat{}
}

func (m *MemoryBuffer) SetBlockFormat(i int, f format.BlockFormat) {
	if b := m.block(i); b != nil {
		b.fmt = f
		b.base.Background = f.Background
	}
}

// span clamps [start, start+length) to the block.
func (b *memBlock) span(start, length int) (int, int) {
	start = max(0, min(start, len(b.text)))
	end := max(start, min(start+length, len(b.text)))
	return start, end
}

func (m *MemoryBuffer) SetCharFormat(i, start, length int, f format.CharFormat) {
	b := m.block(i)
	if b == nil {
		return
	}
	s, e := b.span(start, length)
	style := CharStyle{Format: f, Background: b.fmt.Background}
	for k := s; k < e; k++ {
		b.styles[k] = style
	}
	if s == 0 && e == len(b.text) {
		b.base = style
	}
}

func (m *MemoryBuffer) SetFontFamily(i, start, length int, family string) {
	b := m.block(i)
	if b == nil {
		return
	}
	s, e := b.span(start, length)
	for k := s; k < e; k++ {
		b.styles[k].FontFamily = family
	}
}

func (m *MemoryBuffer) SetMisspelled(i, start, length int, misspelled bool, suggestions []string, background format.Color) {
	b := m.block(i)
	if b == nil {
		return
	}
	s, e := b.span(start, length)
	for k := s; k < e; k++ {
		st := &b.styles[k]
		st.Misspelled = misspelled
		st.Background = background
		if misspelled {
			st.Suggestions = suggestions
		} else {
			st.Suggestions = nil
		}
	}
}

func (m *MemoryBuffer) CharStyleAt(i, offset int) CharStyle {
	b := m.block(i)
	if b == nil {
		return CharStyle{}
	}
	if offset < 0 || offset >= len(b.styles) {
		return b.base
	}
	return b.styles[offset]
}

func (m *MemoryBuffer) Subscribe(fn ChangeFunc) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *MemoryBuffer) notify(from, removed, added int) {
	m.subMu.Lock()
	fns := make([]ChangeFunc, 0, len(m.subs))
	for i := 0; i < m.nextID; i++ {
		if fn, ok := m.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		fn(from, removed, added)
	}
}
