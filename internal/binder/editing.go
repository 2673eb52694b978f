/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package binder

import (
	"context"
	"strings"

	"goscreenwriter/internal/clipboard"
	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/format"
	"goscreenwriter/internal/spell"
	"goscreenwriter/internal/translit"
)

var (
	transitionHints = domain.Transitions()
	shotHints       = domain.Shots()
)

func (b *Binder) CursorPosition() int { return b.cursor }

// CurrentElementCursorPosition is the cursor offset inside the current block, or -1.
func (b *Binder) CurrentElementCursorPosition() int { return b.elementCursor }

func (b *Binder) CurrentElement() *domain.Paragraph { return b.current }

func (b *Binder) WordUnderCursorIsMisspelled() bool { return b.wordMisspelled }

func (b *Binder) SpellingSuggestions() []string { return b.suggestions }

func (b *Binder) AutoCompleteHints() []string { return b.hints }

func (b *Binder) CompletionPrefix() string { return b.prefix }

func (b *Binder) resetTextFormat() {
	b.wordMisspelled = false
	b.suggestions = nil
}

// SetCursorPosition moves the tracked cursor and updates the current
// element, the spelling state of the word under the cursor and the
// completion prefix. Positions outside the document reset that state.
func (b *Binder) SetCursorPosition(pos int) {
	if b.initializing || b.cursor == pos {
		return
	}
	b.cursor = pos
	b.elementCursor = -1
	if pos < 0 || b.buf.Length() == 0 || pos > b.buf.Length() {
		b.resetTextFormat()
		return
	}
	i := b.buf.BlockAt(pos)
	if i < 0 {
		b.resetTextFormat()
		return
	}
	a := b.buf.Annotation(i)
	if a == nil {
		b.SyncFromDocument()
		a = b.buf.Annotation(i)
	}
	bpos := b.buf.BlockPosition(i)
	if a == nil {
		b.setCurrentElement(nil)
		b.resetTextFormat()
	} else {
		b.setCurrentElement(a.paragraph)
		if len(b.hints) > 0 {
			b.prefix = b.buf.BlockText(i)
		}
		style := b.buf.CharStyleAt(i, max(pos-bpos-1, 0))
		b.wordMisspelled = style.Misspelled
		b.suggestions = style.Suggestions
	}
	b.elementCursor = pos - bpos
}

func (b *Binder) setCurrentElement(p *domain.Paragraph) {
	if b.current == p {
		return
	}
	b.current = p
	if p != nil {
		b.activateDefaultLanguage(p.Type())
	}
	b.tabHistory = nil
	b.evaluateAutoCompleteHints()
	if b.cfg.Hooks.CurrentElementChanged != nil {
		b.cfg.Hooks.CurrentElementChanged(p)
	}
}

func (b *Binder) activateDefaultLanguage(t domain.ElementType) {
	name := b.rules.Element(t).DefaultLanguage
	if name == "" {
		return
	}
	if l, err := translit.ParseLanguage(name); err == nil {
		b.fonts.SetActiveLanguage(l)
	}
}

// SetCharacterNames sets the names offered for character cues and exempted
// from spell checking.
func (b *Binder) SetCharacterNames(names []string) {
	b.characterNames = append([]string(nil), names...)
	b.evaluateAutoCompleteHints()
}

func (b *Binder) evaluateAutoCompleteHints() {
	var hints []string
	if b.current != nil {
		switch b.current.Type() {
		case domain.Character:
			hints = b.characterNames
		case domain.Transition:
			hints = transitionHints
		case domain.Shot:
			hints = shotHints
		}
	}
	b.hints = hints
}

// NextTabFormat returns the type Tab would switch the current element to.
// ok is false when there is no current element.
func (b *Binder) NextTabFormat() (next domain.ElementType, ok bool) {
	if b.cursor < 0 || b.current == nil || b.scene == nil || b.scene.IndexOf(b.current) < 0 {
		return 0, false
	}
	switch b.current.Type() {
	case domain.Action:
		return domain.Character, true
	case domain.Character:
		if len(b.tabHistory) == 0 {
			return domain.Action, true
		}
		return domain.Transition, true
	case domain.Dialogue:
		return domain.Parenthetical, true
	case domain.Parenthetical:
		return domain.Dialogue, true
	case domain.Shot:
		return domain.Transition, true
	case domain.Transition:
		return domain.Action, true
	}
	return b.current.Type(), true
}

// NextTabFormatString describes the Tab transition, e.g. "Action -> Character".
func (b *Binder) NextTabFormatString() string {
	next, ok := b.NextTabFormat()
	if !ok {
		return "Change Format"
	}
	return b.current.Type().String() + " -> " + next.String()
}

// Tab switches the current element to NextTabFormat.
func (b *Binder) Tab() {
	next, ok := b.NextTabFormat()
	if !ok {
		return
	}
	b.tabHistory = append(b.tabHistory, b.current.Type())
	b.SetParagraphType(b.current, next)
}

// SetParagraphType changes the type of p and reformats its block.
func (b *Binder) SetParagraphType(p *domain.Paragraph, t domain.ElementType) {
	if b.scene == nil || p == nil {
		return
	}
	if b.scene.SetType(b.scene.IndexOf(p), t) {
		b.OnParagraphTypeChanged(p)
	}
}

// OnParagraphTypeChanged reformats the block of p right away.
func (b *Binder) OnParagraphTypeChanged(p *domain.Paragraph) {
	if b.initializing || b.scene == nil || p == nil || p.Scene() != b.scene {
		return
	}
	if p == b.current {
		b.activateDefaultLanguage(p.Type())
	}
	b.evaluateAutoCompleteHints()

	i := b.scene.IndexOf(p)
	if a := b.buf.Annotation(i); a == nil || a.paragraph != p {
		i = b.blockOf(p)
	}
	if a := b.buf.Annotation(i); a != nil {
		a.ResetFormat()
		b.highlightBlock(i)
	}
}

// SetSpellCheckEnabled turns spell checking on or off and refreshes.
func (b *Binder) SetSpellCheckEnabled(on bool) {
	on = on && b.cfg.Spell != nil
	if b.spellEnabled == on {
		return
	}
	b.spellEnabled = on
	b.Refresh()
}

func (b *Binder) SpellCheckEnabled() bool { return b.spellEnabled }

// SetLiveSpellCheckEnabled controls whether edits trigger spell checks.
func (b *Binder) SetLiveSpellCheckEnabled(on bool) { b.liveSpell = on }

// Refresh drops every cached format, re-attaches spell checking and
// schedules a rehighlight.
func (b *Binder) Refresh() {
	for i := 0; i < b.buf.BlockCount(); i++ {
		if a := b.buf.Annotation(i); a != nil {
			a.ResetFormat()
			b.attachSpellCheck(a)
			if !b.spellEnabled {
				a.setFragments(nil)
			}
		}
	}
	b.RehighlightLater()
}

// OnSceneAboutToReset suspends edit intake until OnSceneReset.
func (b *Binder) OnSceneAboutToReset() { b.resetting = true }

// OnSceneReset rebuilds the document after the scene was replaced wholesale
// and asks the view to put the cursor at pos, clamped to the document.
func (b *Binder) OnSceneReset(pos int) {
	b.resetting = false
	b.InitializeDocument()
	if pos >= 0 {
		pos = max(0, min(pos, b.buf.Length()))
		if b.cfg.Hooks.CursorRequested != nil {
			b.cfg.Hooks.CursorRequested(pos)
		}
	}
}

// LastCursorPosition is the end of the document, or 0 without a cursor.
func (b *Binder) LastCursorPosition() int {
	if b.cursor < 0 {
		return 0
	}
	return b.buf.Length()
}

// CursorPositionAtBlock returns the cursor when it is inside block n and the
// end of block n otherwise.
func (b *Binder) CursorPositionAtBlock(n int) int {
	bpos := b.buf.BlockPosition(n)
	if bpos < 0 {
		return -1
	}
	end := bpos + b.buf.BlockLength(n)
	if b.cursor >= bpos && b.cursor <= end {
		return b.cursor
	}
	return end
}

// CurrentFont is the font of the character before the cursor.
func (b *Binder) CurrentFont() format.Font {
	pos := max(b.cursor, 0)
	i := b.buf.BlockAt(pos)
	if i < 0 {
		return b.rules.CharFormat(domain.Action).Font
	}
	style := b.buf.CharStyleAt(i, max(pos-b.buf.BlockPosition(i)-1, 0))
	f := style.Format.Font
	f.Family = style.Family()
	return f
}

// misspelledWordAt finds the word at pos when it carries a misspelling marker.
func (b *Binder) misspelledWordAt(pos int) (block int, w spell.Word, style CharStyle, ok bool) {
	if b.initializing || pos < 0 {
		return -1, spell.Word{}, CharStyle{}, false
	}
	block = b.buf.BlockAt(pos)
	if block < 0 {
		return -1, spell.Word{}, CharStyle{}, false
	}
	w, found := spell.WordAt(b.buf.BlockText(block), pos-b.buf.BlockPosition(block))
	if !found {
		return -1, spell.Word{}, CharStyle{}, false
	}
	style = b.buf.CharStyleAt(block, w.Start)
	return block, w, style, style.Misspelled
}

func (b *Binder) clearWordMarker(block int, w spell.Word) {
	bg := format.Transparent
	if a := b.buf.Annotation(block); a != nil {
		bg = a.blockFormat.Background
		a.dropFragmentsIn(w.Start, w.End())
	}
	b.buf.SetMisspelled(block, w.Start, w.Length, false, nil, bg)
	b.resetTextFormat()
}

// SpellingSuggestionsAt returns the suggestions for a misspelled word at pos.
func (b *Binder) SpellingSuggestionsAt(pos int) []string {
	_, _, style, ok := b.misspelledWordAt(pos)
	if !ok {
		return nil
	}
	return style.Suggestions
}

// ReplaceWordAt replaces the misspelled word at pos.
func (b *Binder) ReplaceWordAt(pos int, with string) {
	block, w, _, ok := b.misspelledWordAt(pos)
	if !ok {
		return
	}
	b.clearWordMarker(block, w)
	b.buf.Replace(b.buf.BlockPosition(block)+w.Start, w.Length, with)
}

// AddWordAtPositionToDictionary adds the misspelled word at pos to the
// personal dictionary. It blocks until the spell-check worker is done.
func (b *Binder) AddWordAtPositionToDictionary(ctx context.Context, pos int) error {
	block, w, _, ok := b.misspelledWordAt(pos)
	if !ok || b.cfg.Spell == nil {
		return nil
	}
	if err := b.cfg.Spell.AddToDictionary(ctx, w.Text); err != nil {
		return err
	}
	b.clearWordMarker(block, w)
	b.recheck(block)
	return nil
}

// AddWordAtPositionToIgnoreList stops the misspelled word at pos from being reported.
func (b *Binder) AddWordAtPositionToIgnoreList(ctx context.Context, pos int) error {
	block, w, _, ok := b.misspelledWordAt(pos)
	if !ok || b.cfg.Spell == nil {
		return nil
	}
	if err := b.cfg.Spell.Ignore(ctx, w.Text); err != nil {
		return err
	}
	b.clearWordMarker(block, w)
	b.recheck(block)
	return nil
}

func (b *Binder) recheck(block int) {
	if a := b.buf.Annotation(block); a != nil && b.spellEnabled {
		b.scheduleSpellCheck(a)
	}
}

// Copy puts the paragraphs between from and to on the clipboard, both typed
// and as plain text.
func (b *Binder) Copy(from, to int) error {
	n := b.buf.Length()
	from = max(0, min(from, n))
	to = max(0, min(to, n))
	if from >= to {
		return nil
	}
	var items []clipboard.Item
	for i := max(b.buf.BlockAt(from), 0); i < b.buf.BlockCount(); i++ {
		bpos := b.buf.BlockPosition(i)
		if to <= bpos {
			break
		}
		a := b.buf.Annotation(i)
		if a == nil {
			continue
		}
		text := []rune(b.buf.BlockText(i))
		s := max(from, bpos) - bpos
		e := min(to, bpos+len(text)) - bpos
		if e < s {
			e = s
		}
		items = append(items, clipboard.Item{Type: int(a.paragraph.Type()), Text: string(text[s:e])})
	}
	return b.cfg.Clipboard.Write(clipboard.Content{Items: items, Plain: clipboard.PlainText(items)})
}

// Paste inserts typed clipboard content at pos (or the cursor when pos is
// negative). Heading and unknown types are skipped. Each pasted item after
// the first starts a new block, and when more than one item is pasted the items' types
// are applied to the receiving paragraphs. It reports whether typed content
// was available.
func (b *Binder) Paste(pos int) bool {
	c, err := b.cfg.Clipboard.Read()
	if err != nil || len(c.Items) == 0 {
		return false
	}
	if pos < 0 {
		pos = b.cursor
	}
	pos = max(0, min(pos, b.buf.Length()))
	withTypes := len(c.Items) > 1

	n := 0
	for _, it := range c.Items {
		t := domain.ElementType(it.Type)
		if !t.Valid() || t == domain.Heading {
			continue
		}
		if n > 0 {
			b.buf.Insert(pos, "\n")
			pos++
		}
		n++
		text := strings.ReplaceAll(it.Text, "\n", " ")
		b.buf.Insert(pos, text)
		pos += len([]rune(text))
		if withTypes {
			if a := b.buf.Annotation(b.buf.BlockAt(pos)); a != nil {
				b.SetParagraphType(a.paragraph, t)
			}
		}
	}
	return true
}

// OnTransliteration records that [start, end) was just transliterated into
// language l and reformats that block. The positions are document positions.
func (b *Binder) OnTransliteration(start, end int, l translit.Language) {
	i := b.buf.BlockAt(start)
	if i < 0 {
		return
	}
	a := b.buf.Annotation(i)
	if a == nil {
		return
	}
	bpos := b.buf.BlockPosition(i)
	end = min(end, bpos+b.buf.BlockLength(i))
	a.pending = &TransliterationSegment{Start: start - bpos, End: end - bpos, Language: l}
	b.highlightBlock(i)
}
