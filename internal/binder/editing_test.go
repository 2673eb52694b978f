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
	"reflect"
	"slices"
	"testing"

	"goscreenwriter/internal/clipboard"
	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/format"
	"goscreenwriter/internal/spell"
	"goscreenwriter/internal/translit"
)

func TestTabCycle(t *testing.T) {
	p := domain.NewParagraph(domain.Action, "x")
	f := newFixture(t, Config{}, p)

	if _, ok := f.b.NextTabFormat(); ok {
		t.Fatalf("no cursor yet, tab should be undefined")
	}
	if got := f.b.NextTabFormatString(); got != "Change Format" {
		t.Fatalf("string = %q", got)
	}

	f.b.SetCursorPosition(0)
	if got := f.b.NextTabFormatString(); got != "Action -> Character" {
		t.Fatalf("string = %q", got)
	}
	steps := []domain.ElementType{domain.Character, domain.Transition, domain.Action, domain.Character}
	for i, want := range steps {
		f.b.Tab()
		if p.Type() != want {
			t.Fatalf("tab %d: type = %v, want %v", i, p.Type(), want)
		}
	}

	// Any edit clears the tab history.
	f.buf.Insert(1, "y")
	if next, _ := f.b.NextTabFormat(); next != domain.Action {
		t.Fatalf("after edit next = %v, want Action", next)
	}
}

func TestTabTable(t *testing.T) {
	cases := map[domain.ElementType]domain.ElementType{
		domain.Dialogue:      domain.Parenthetical,
		domain.Parenthetical: domain.Dialogue,
		domain.Shot:          domain.Transition,
		domain.Transition:    domain.Action,
		domain.Heading:       domain.Heading,
	}
	for from, want := range cases {
		f := newFixture(t, Config{}, domain.NewParagraph(from, "x"))
		f.b.SetCursorPosition(1)
		if got, ok := f.b.NextTabFormat(); !ok || got != want {
			t.Errorf("%v: next = %v (%v), want %v", from, got, ok, want)
		}
	}
}

func TestCursorTracking(t *testing.T) {
	var changed []*domain.Paragraph
	a := domain.NewParagraph(domain.Action, "Door.")
	c := domain.NewParagraph(domain.Character, "JO")
	f := newFixture(t, Config{Hooks: Hooks{CurrentElementChanged: func(p *domain.Paragraph) { changed = append(changed, p) }}}, a, c)
	f.b.SetCharacterNames([]string{"JOHN", "JOANNA"})

	f.b.SetCursorPosition(2)
	if f.b.CurrentElement() != a || f.b.CurrentElementCursorPosition() != 2 {
		t.Fatalf("current = %v at %d", f.b.CurrentElement(), f.b.CurrentElementCursorPosition())
	}
	if len(f.b.AutoCompleteHints()) != 0 {
		t.Fatalf("action has no hints")
	}

	f.b.SetCursorPosition(8)
	if f.b.CurrentElement() != c || f.b.CurrentElementCursorPosition() != 2 {
		t.Fatalf("current = %v at %d", f.b.CurrentElement(), f.b.CurrentElementCursorPosition())
	}
	if got := f.b.AutoCompleteHints(); !reflect.DeepEqual(got, []string{"JOHN", "JOANNA"}) {
		t.Fatalf("hints = %q", got)
	}
	if f.b.CompletionPrefix() != "JO" {
		t.Fatalf("prefix = %q", f.b.CompletionPrefix())
	}
	if len(changed) != 2 || changed[1] != c {
		t.Fatalf("hook calls = %d", len(changed))
	}

	f.b.SetCursorPosition(99)
	if f.b.CurrentElementCursorPosition() != -1 || f.b.WordUnderCursorIsMisspelled() {
		t.Fatalf("past-end position should reset state")
	}
	if f.b.CurrentElement() != c {
		t.Fatalf("invalid position should keep the current element")
	}
}

func TestHintsByType(t *testing.T) {
	p := domain.NewParagraph(domain.Transition, "")
	f := newFixture(t, Config{}, p)
	if !slices.Contains(f.b.AutoCompleteHints(), "SMASH CUT TO") {
		t.Fatalf("transition hints = %q", f.b.AutoCompleteHints())
	}
	f.b.SetParagraphType(p, domain.Shot)
	if !slices.Contains(f.b.AutoCompleteHints(), "CLOSE ON") {
		t.Fatalf("shot hints = %q", f.b.AutoCompleteHints())
	}
	f.b.SetParagraphType(p, domain.Dialogue)
	if f.b.AutoCompleteHints() != nil {
		t.Fatalf("dialogue hints = %q", f.b.AutoCompleteHints())
	}
}

func TestDefaultLanguageActivated(t *testing.T) {
	rules := format.NewRules()
	rules.Update(domain.Dialogue, func(e *format.ElementFormat) { e.DefaultLanguage = "Hindi" })
	fonts := translit.NewEngine()
	f := newFixture(t, Config{Rules: rules, Fonts: fonts},
		domain.NewParagraph(domain.Action, "a"),
		domain.NewParagraph(domain.Dialogue, "b"),
	)
	f.b.SetCursorPosition(3)
	if fonts.ActiveLanguage() != translit.Hindi {
		t.Fatalf("active language = %v", fonts.ActiveLanguage())
	}
}

// misspell marks "teh" in "I am teh one" the way a spell-check round trip does.
func misspell(t *testing.T, f *fixture) {
	t.Helper()
	f.spell.reply(len(f.spell.reqs)-1, spell.Fragment{Start: 5, Length: 3, Suggestions: []string{"the", "they"}})
	f.loop.settle()
	if !f.buf.CharStyleAt(0, 5).Misspelled {
		t.Fatalf("word not marked")
	}
}

func newSpellFixture(t *testing.T) *fixture {
	f := newFixture(t, Config{Spell: &fakeSpell{}, SpellCheck: true}, domain.NewParagraph(domain.Action, "I am teh one"))
	misspell(t, f)
	return f
}

func TestCursorOnMisspelledWord(t *testing.T) {
	f := newSpellFixture(t)
	f.b.SetCursorPosition(7)
	if !f.b.WordUnderCursorIsMisspelled() {
		t.Fatalf("cursor inside teh should report a misspelling")
	}
	if got := f.b.SpellingSuggestions(); !reflect.DeepEqual(got, []string{"the", "they"}) {
		t.Fatalf("suggestions = %q", got)
	}
	f.b.SetCursorPosition(2)
	if f.b.WordUnderCursorIsMisspelled() || f.b.SpellingSuggestions() != nil {
		t.Fatalf("state not reset")
	}
}

func TestSpellingSuggestionsAt(t *testing.T) {
	f := newSpellFixture(t)
	if got := f.b.SpellingSuggestionsAt(6); !reflect.DeepEqual(got, []string{"the", "they"}) {
		t.Fatalf("suggestions = %q", got)
	}
	if got := f.b.SpellingSuggestionsAt(1); got != nil {
		t.Fatalf("correct word has suggestions %q", got)
	}
	if got := f.b.SpellingSuggestionsAt(-1); got != nil {
		t.Fatalf("negative position: %q", got)
	}
}

func TestReplaceWordAt(t *testing.T) {
	f := newSpellFixture(t)
	f.b.ReplaceWordAt(1, "You")
	if f.scene.At(0).Text() != "I am teh one" {
		t.Fatalf("replaced a correct word")
	}
	f.b.ReplaceWordAt(6, "the")
	if got := f.scene.At(0).Text(); got != "I am the one" {
		t.Fatalf("text = %q", got)
	}
	for i := 0; i < f.buf.BlockLength(0); i++ {
		if f.buf.CharStyleAt(0, i).Misspelled {
			t.Fatalf("offset %d still marked", i)
		}
	}
	if len(f.b.AnnotationAt(0).MisspelledFragments()) != 0 {
		t.Fatalf("fragment kept")
	}
}

func TestAddWordToDictionaryAndIgnoreList(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		add  func(b *Binder, pos int) error
		got  func(s *fakeSpell) []string
	}{
		{"dictionary", func(b *Binder, pos int) error { return b.AddWordAtPositionToDictionary(ctx, pos) }, func(s *fakeSpell) []string { return s.dictionary }},
		{"ignore", func(b *Binder, pos int) error { return b.AddWordAtPositionToIgnoreList(ctx, pos) }, func(s *fakeSpell) []string { return s.ignored }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newSpellFixture(t)
			if err := tc.add(f.b, 2); err != nil {
				t.Fatalf("add: %v", err)
			}
			if len(tc.got(f.spell)) != 0 {
				t.Fatalf("correct word was added")
			}
			reqs := len(f.spell.reqs)
			if err := tc.add(f.b, 6); err != nil {
				t.Fatalf("add: %v", err)
			}
			if got := tc.got(f.spell); !reflect.DeepEqual(got, []string{"teh"}) {
				t.Fatalf("words = %q", got)
			}
			if f.buf.CharStyleAt(0, 5).Misspelled {
				t.Fatalf("marker not cleared")
			}
			if len(f.spell.reqs) != reqs+1 {
				t.Fatalf("paragraph not rechecked")
			}
		})
	}
}

func TestCopyPaste(t *testing.T) {
	cb := clipboard.NewMemory()
	src := newFixture(t, Config{Clipboard: cb},
		domain.NewParagraph(domain.Character, "JOHN"),
		domain.NewParagraph(domain.Dialogue, "Hello there."),
	)
	if err := src.b.Copy(0, src.buf.Length()); err != nil {
		t.Fatalf("copy: %v", err)
	}
	c, err := cb.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []clipboard.Item{{Type: int(domain.Character), Text: "JOHN"}, {Type: int(domain.Dialogue), Text: "Hello there."}}
	if !reflect.DeepEqual(c.Items, want) || c.Plain != "JOHN\nHello there." {
		t.Fatalf("clipboard = %+v", c)
	}

	dst := newFixture(t, Config{Clipboard: cb}, domain.NewParagraph(domain.Action, ""))
	if !dst.b.Paste(0) {
		t.Fatalf("paste reported no typed content")
	}
	if got := dst.texts(); !reflect.DeepEqual(got, []string{"JOHN", "Hello there."}) {
		t.Fatalf("texts = %q", got)
	}
	if got := dst.types(); !reflect.DeepEqual(got, []domain.ElementType{domain.Character, domain.Dialogue}) {
		t.Fatalf("types = %v", got)
	}
}

func TestCopyPartialRange(t *testing.T) {
	cb := clipboard.NewMemory()
	f := newFixture(t, Config{Clipboard: cb},
		domain.NewParagraph(domain.Character, "JOHN"),
		domain.NewParagraph(domain.Dialogue, "Hello there."),
	)
	if err := f.b.Copy(2, 8); err != nil {
		t.Fatalf("copy: %v", err)
	}
	c, _ := cb.Read()
	if c.Plain != "HN\nHel" {
		t.Fatalf("plain = %q", c.Plain)
	}
}

func TestCopyOutOfRange(t *testing.T) {
	cb := clipboard.NewMemory()
	_ = cb.Write(clipboard.Content{Plain: "keep"})
	f := newFixture(t, Config{Clipboard: cb}, domain.NewParagraph(domain.Action, "short"))
	for _, r := range [][2]int{{100, 200}, {-5, -1}, {3, 1}, {5, 5}} {
		if err := f.b.Copy(r[0], r[1]); err != nil {
			t.Fatalf("Copy(%d, %d): %v", r[0], r[1], err)
		}
	}
	if c, _ := cb.Read(); c.Plain != "keep" {
		t.Fatalf("empty range overwrote the clipboard: %+v", c)
	}
	if err := f.b.Copy(-10, 1000); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if c, _ := cb.Read(); c.Plain != "short" {
		t.Fatalf("clamped copy = %q", c.Plain)
	}
}

func TestPositionOperationsClamp(t *testing.T) {
	positions := []int{-1, -100, 1000}
	ops := []struct {
		name string
		call func(b *Binder, pos int)
	}{
		{"Copy", func(b *Binder, pos int) { _ = b.Copy(pos, pos+10) }},
		{"Paste", func(b *Binder, pos int) { b.Paste(pos) }},
		{"ReplaceWordAt", func(b *Binder, pos int) { b.ReplaceWordAt(pos, "x") }},
		{"SpellingSuggestionsAt", func(b *Binder, pos int) { _ = b.SpellingSuggestionsAt(pos) }},
		{"AddWordAtPositionToDictionary", func(b *Binder, pos int) { _ = b.AddWordAtPositionToDictionary(context.Background(), pos) }},
		{"AddWordAtPositionToIgnoreList", func(b *Binder, pos int) { _ = b.AddWordAtPositionToIgnoreList(context.Background(), pos) }},
		{"OnTransliteration", func(b *Binder, pos int) { b.OnTransliteration(pos, pos+50, translit.Hindi) }},
		{"CursorPositionAtBlock", func(b *Binder, pos int) { _ = b.CursorPositionAtBlock(pos) }},
		{"SetCursorPosition", func(b *Binder, pos int) { b.SetCursorPosition(pos) }},
		{"OnSceneReset", func(b *Binder, pos int) { b.OnSceneAboutToReset(); b.OnSceneReset(pos) }},
	}
	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			f := newFixture(t, Config{Spell: &fakeSpell{}, SpellCheck: true},
				domain.NewParagraph(domain.Character, "JOHN"),
				domain.NewParagraph(domain.Dialogue, "Hello."),
			)
			for _, pos := range positions {
				op.call(f.b, pos)
			}
			if got := f.texts(); !reflect.DeepEqual(got, []string{"JOHN", "Hello."}) {
				t.Fatalf("texts = %q", got)
			}
			if got := f.types(); !reflect.DeepEqual(got, []domain.ElementType{domain.Character, domain.Dialogue}) {
				t.Fatalf("types = %v", got)
			}
		})
	}
}

func TestTransliterationEndClampedToBlock(t *testing.T) {
	f := newFixture(t, Config{}, domain.NewParagraph(domain.Action, "abc"))
	f.b.OnTransliteration(1, 99, translit.Hindi)
	fams := familiesOf(f.buf, 0)
	want := translit.NewEngine().FontForLanguage(translit.Hindi)
	if fams[1] != want || fams[2] != want {
		t.Fatalf("families = %q", fams)
	}
}

func TestPasteSingleItemKeepsType(t *testing.T) {
	cb := clipboard.NewMemory()
	_ = cb.Write(clipboard.Content{Items: []clipboard.Item{{Type: int(domain.Character), Text: "hi"}}, Plain: "hi"})
	f := newFixture(t, Config{Clipboard: cb}, domain.NewParagraph(domain.Action, "Say "))
	if !f.b.Paste(4) {
		t.Fatalf("paste failed")
	}
	if got := f.scene.At(0); got.Text() != "Say hi" || got.Type() != domain.Action {
		t.Fatalf("paragraph = %q %v", got.Text(), got.Type())
	}
}

func TestPasteSkipsHeadingAndUnknown(t *testing.T) {
	cb := clipboard.NewMemory()
	_ = cb.Write(clipboard.Content{Items: []clipboard.Item{
		{Type: int(domain.Heading), Text: "INT. ROOM"},
		{Type: 42, Text: "bogus"},
		{Type: int(domain.Action), Text: "Run."},
		{Type: int(domain.Shot), Text: "CLOSE ON"},
	}})
	f := newFixture(t, Config{Clipboard: cb}, domain.NewParagraph(domain.Action, ""))
	f.b.Paste(0)
	if got := f.texts(); !reflect.DeepEqual(got, []string{"Run.", "CLOSE ON"}) {
		t.Fatalf("texts = %q", got)
	}
	if got := f.types(); !reflect.DeepEqual(got, []domain.ElementType{domain.Action, domain.Shot}) {
		t.Fatalf("types = %v", got)
	}
}

func TestPasteEmptyClipboard(t *testing.T) {
	f := newFixture(t, Config{}, domain.NewParagraph(domain.Action, ""))
	if f.b.Paste(0) {
		t.Fatalf("empty clipboard pasted")
	}
}

func TestSceneReset(t *testing.T) {
	requested := -1
	f := newFixture(t, Config{Hooks: Hooks{CursorRequested: func(pos int) { requested = pos }}},
		domain.NewParagraph(domain.Action, "One."))

	f.b.OnSceneAboutToReset()
	f.scene.InsertAt(1, domain.NewParagraph(domain.Action, "Two."))
	f.b.OnSceneReset(1000)

	if f.buf.Text() != "One.\nTwo." {
		t.Fatalf("buffer = %q", f.buf.Text())
	}
	if requested != f.buf.Length() {
		t.Fatalf("requested cursor %d, want %d", requested, f.buf.Length())
	}
	if f.b.DocumentLoadCount() != 2 {
		t.Fatalf("load count = %d", f.b.DocumentLoadCount())
	}
}

func TestRefreshTogglesSpellCheck(t *testing.T) {
	f := newSpellFixture(t)
	f.b.SetSpellCheckEnabled(false)
	a := f.b.AnnotationAt(0)
	if a.SpellCheckAttached() || len(a.MisspelledFragments()) != 0 {
		t.Fatalf("spell check still attached")
	}
	if !f.b.RehighlightPending() {
		t.Fatalf("refresh should schedule a rehighlight")
	}
	f.loop.settle()
	if f.buf.CharStyleAt(0, 5).Misspelled {
		t.Fatalf("marker survived disabling spell check")
	}

	reqs := len(f.spell.reqs)
	f.b.SetSpellCheckEnabled(true)
	if !a.SpellCheckAttached() || len(f.spell.reqs) != reqs+1 {
		t.Fatalf("spell check not re-attached")
	}
}

func TestOnTransliteration(t *testing.T) {
	f := newFixture(t, Config{}, domain.NewParagraph(domain.Action, "namaste ji"))
	f.b.OnTransliteration(0, 7, translit.Hindi)
	got := familiesOf(f.buf, 0)
	for i, fam := range got {
		want := "Courier Prime"
		if i < 7 {
			want = "Mukta"
		}
		if fam != want {
			t.Fatalf("offset %d family %q, want %q", i, fam, want)
		}
	}
	if _, pending := f.b.AnnotationAt(0).PendingTransliteration(); pending {
		t.Fatalf("segment not consumed")
	}
}

func TestPositionQueries(t *testing.T) {
	f := newFixture(t, Config{},
		domain.NewParagraph(domain.Action, "ab"),
		domain.NewParagraph(domain.Action, "Hi नमस्ते"),
	)
	if f.b.LastCursorPosition() != 0 {
		t.Fatalf("no cursor yet")
	}
	f.b.SetCursorPosition(1)
	if got := f.b.CursorPositionAtBlock(0); got != 1 {
		t.Fatalf("at block 0 = %d", got)
	}
	if got := f.b.CursorPositionAtBlock(1); got != f.buf.Length() {
		t.Fatalf("at block 1 = %d", got)
	}
	if f.b.CursorPositionAtBlock(5) != -1 {
		t.Fatalf("missing block should be -1")
	}
	if f.b.LastCursorPosition() != f.buf.Length() {
		t.Fatalf("last = %d", f.b.LastCursorPosition())
	}

	f.b.SetCursorPosition(8)
	font := f.b.CurrentFont()
	if font.Family != "Mukta" || font.PointSize != 12 {
		t.Fatalf("font = %+v", font)
	}
}
