/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package binder keeps a scene's typed paragraphs and an editable text buffer
// in step. Edits to the buffer flow into the paragraphs; every block is
// highlighted with its element format, its spell-check markers and a font per
// writing script.
//
// A Binder is driven from a single goroutine (the one running its
// Dispatcher). Spell-check results computed elsewhere are posted back to it.
package binder

import (
	"context"
	"log/slog"
	"time"

	"goscreenwriter/internal/clipboard"
	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/eventloop"
	"goscreenwriter/internal/format"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/spell"
	"goscreenwriter/internal/translit"
)

// FormatRules supplies element formats and their modification counters.
type FormatRules interface {
	Version(t domain.ElementType) int
	BlockFormat(t domain.ElementType) format.BlockFormat
	CharFormat(t domain.ElementType) format.CharFormat
	Element(t domain.ElementType) format.ElementFormat
}

// Fonts resolves languages to font families.
type Fonts interface {
	FontForLanguage(l translit.Language) string
	SetActiveLanguage(l translit.Language)
}

// SpellChecker checks paragraphs asynchronously.
type SpellChecker interface {
	Schedule(req spell.Request, cb func(spell.Result)) error
	AddToDictionary(ctx context.Context, word string) error
	Ignore(ctx context.Context, word string) error
}

// Dispatcher runs callbacks on the binder's goroutine.
type Dispatcher interface {
	Post(fn func()) bool
	AfterFunc(d time.Duration, fn func()) eventloop.Timer
}

// UndoRecorder captures a scene before the binder restructures it.
type UndoRecorder interface {
	Capture(scene *domain.Scene)
}

// Hooks are optional notifications.
type Hooks struct {
	// CursorRequested asks the view to move its cursor.
	CursorRequested       func(pos int)
	DocumentInitialized   func()
	CurrentElementChanged func(p *domain.Paragraph)
}

type Config struct {
	Buffer    TextBuffer
	Rules     FormatRules
	Fonts     Fonts
	Spell     SpellChecker
	Loop      Dispatcher
	Clipboard clipboard.Clipboard
	Undo      UndoRecorder
	Hooks     Hooks

	SpellCheck       bool
	LiveSpellCheck   bool
	RehighlightDelay time.Duration
	SpellCheckDelay  time.Duration
}

const DefaultRehighlightDelay = 100 * time.Millisecond

type Binder struct {
	cfg   Config
	buf   TextBuffer
	rules FormatRules
	fonts Fonts
	loop  Dispatcher
	log   *slog.Logger

	scene *domain.Scene

	spellEnabled bool
	liveSpell    bool

	cursor         int
	elementCursor  int
	current        *domain.Paragraph
	tabHistory     []domain.ElementType
	characterNames []string
	hints          []string
	prefix         string
	wordMisspelled bool
	suggestions    []string

	initializing bool
	resetting    bool
	loadCount    int
	closed       bool

	rehighlightQueue   []*BlockAnnotation
	rehighlightTimer   eventloop.Timer
	rehighlightPending bool

	unsubscribe func()
}

// New creates a binder over cfg.Buffer. Call SetScene to load a scene.
func New(cfg Config) *Binder {
	if cfg.Buffer == nil {
		cfg.Buffer = NewMemoryBuffer()
	}
	if cfg.Rules == nil {
		cfg.Rules = format.NewRules()
	}
	if cfg.Fonts == nil {
		cfg.Fonts = translit.NewEngine()
	}
	if cfg.Loop == nil {
		cfg.Loop = eventloop.New()
	}
	if cfg.Clipboard == nil {
		cfg.Clipboard = clipboard.NewMemory()
	}
	if cfg.RehighlightDelay <= 0 {
		cfg.RehighlightDelay = DefaultRehighlightDelay
	}
	b := &Binder{
		cfg:           cfg,
		buf:           cfg.Buffer,
		rules:         cfg.Rules,
		fonts:         cfg.Fonts,
		loop:          cfg.Loop,
		log:           applog.WithComponent("binder"),
		spellEnabled:  cfg.SpellCheck && cfg.Spell != nil,
		liveSpell:     cfg.LiveSpellCheck,
		cursor:        -1,
		elementCursor: -1,
	}
	b.unsubscribe = b.buf.Subscribe(b.OnContentsChange)
	return b
}

// Close detaches the binder from its buffer and stops pending timers.
func (b *Binder) Close() {
	if b.closed {
		return
	}
	b.closed = true
	b.unsubscribe()
	if b.rehighlightTimer != nil {
		b.rehighlightTimer.Stop()
	}
	for i := 0; i < b.buf.BlockCount(); i++ {
		if a := b.buf.Annotation(i); a != nil {
			a.detach()
		}
	}
}

func (b *Binder) Scene() *domain.Scene { return b.scene }
func (b *Binder) Buffer() TextBuffer   { return b.buf }

// AnnotationAt returns the annotation of block i, or nil.
func (b *Binder) AnnotationAt(i int) *BlockAnnotation { return b.buf.Annotation(i) }

func (b *Binder) DocumentLoadCount() int { return b.loadCount }

// SetScene binds scene and rebuilds the buffer from it.
func (b *Binder) SetScene(scene *domain.Scene) {
	b.scene = scene
	b.setCurrentElement(nil)
	b.InitializeDocument()
}

// InitializeDocument rebuilds the buffer from the scene: one block per
// paragraph, each with a fresh annotation. Edit notifications raised while
// rebuilding are ignored.
func (b *Binder) InitializeDocument() {
	if b.scene == nil || b.closed {
		return
	}
	b.initializing = true
	b.tabHistory = nil

	for i := 0; i < b.buf.BlockCount(); i++ {
		if a := b.buf.Annotation(i); a != nil {
			a.detach()
		}
	}
	b.rehighlightQueue = nil
	b.buf.Clear()

	paras := b.scene.Paragraphs()
	anns := make([]*BlockAnnotation, len(paras))
	for i, p := range paras {
		if i > 0 {
			b.buf.Insert(b.buf.Length(), "\n")
		}
		anns[i] = newAnnotation(p)
		b.buf.SetAnnotation(i, anns[i])
		b.buf.Insert(b.buf.Length(), p.Text())
	}

	if b.cursor <= 0 && b.current == nil && len(paras) == 1 {
		b.setCurrentElement(paras[0])
	}
	b.loadCount++
	b.initializing = false

	for _, a := range anns {
		b.attachSpellCheck(a)
	}
	b.Rehighlight()

	if b.cfg.Hooks.DocumentInitialized != nil {
		b.cfg.Hooks.DocumentInitialized()
	}
}

// OnContentsChange takes in an edit reported by the buffer. The text of the
// block at from is copied into its paragraph. A block without an annotation,
// or a block count that no longer matches the paragraph count, means blocks
// were split or merged and triggers a full resynchronization.
func (b *Binder) OnContentsChange(from, removed, added int) {
	if b.initializing || b.resetting || b.scene == nil || b.closed {
		return
	}
	first := b.buf.BlockAt(from)
	if first < 0 {
		return
	}
	a := b.buf.Annotation(first)
	if a == nil {
		b.SyncFromDocument()
	} else {
		b.scene.SetText(b.scene.IndexOf(a.paragraph), b.buf.BlockText(first))
		if b.spellEnabled && b.liveSpell {
			b.scheduleSpellCheck(a)
		}
		b.tabHistory = nil
		if b.buf.BlockCount() != b.scene.Count() {
			b.SyncFromDocument()
		}
	}

	last := b.buf.BlockAt(from + added)
	if last < first {
		last = first
	}
	if last == first {
		if a := b.buf.Annotation(first); a != nil {
			a.editFrom = from - b.buf.BlockPosition(first)
		}
	} else {
		for i := first; i <= last; i++ {
			if a := b.buf.Annotation(i); a != nil {
				a.editFrom = 0
			}
		}
	}
	for i := first; i <= last; i++ {
		b.highlightBlock(i)
	}
}

// InferType returns the type given to a paragraph created right after a
// paragraph of type prev.
func InferType(prev domain.ElementType) domain.ElementType {
	switch prev {
	case domain.Character, domain.Parenthetical:
		return domain.Dialogue
	case domain.Dialogue:
		return domain.Character
	default:
		return domain.Action
	}
}

// SyncFromDocument walks every block, creates paragraphs for blocks that have
// none, copies all block texts into their paragraphs and makes the scene's
// paragraph list match the block order. Paragraphs whose blocks are gone are
// dropped.
//
// New paragraphs are inserted relative to their predecessor, which makes the
// walk quadratic in the block count; a scene holds around a hundred
// paragraphs at most.
func (b *Binder) SyncFromDocument() {
	if b.initializing || b.resetting || b.scene == nil {
		return
	}
	if b.cfg.Undo != nil {
		b.cfg.Undo.Capture(b.scene)
	}

	n := b.buf.BlockCount()
	list := make([]*domain.Paragraph, 0, n)
	var fresh []*BlockAnnotation
	var prev *domain.Paragraph
	for i := 0; i < n; i++ {
		a := b.buf.Annotation(i)
		if a == nil {
			var p *domain.Paragraph
			if prev != nil {
				p = domain.NewParagraph(InferType(prev.Type()), "")
				b.scene.InsertAfter(p, prev)
			} else {
				p = domain.NewParagraph(domain.Action, "")
				b.scene.InsertAt(0, p)
			}
			a = newAnnotation(p)
			a.editFrom = 0
			b.buf.SetAnnotation(i, a)
			fresh = append(fresh, a)
		}
		list = append(list, a.paragraph)
		a.paragraph.SetText(b.buf.BlockText(i))
		prev = a.paragraph
	}
	b.scene.ReplaceAll(list)

	for _, a := range fresh {
		b.attachSpellCheck(a)
	}
	if b.current != nil && b.current.Scene() != b.scene {
		b.setCurrentElement(nil)
	}
	b.log.Debug("document resynchronized", "scene", b.scene.ID(), "blocks", n, "created", len(fresh))
}

// Rehighlight runs the highlight pass over every block.
func (b *Binder) Rehighlight() {
	for i := 0; i < b.buf.BlockCount(); i++ {
		b.highlightBlock(i)
	}
}

// HighlightBlock runs the highlight pass over block i.
func (b *Binder) HighlightBlock(i int) { b.highlightBlock(i) }

func (b *Binder) highlightBlock(i int) {
	if b.initializing || b.scene == nil || i < 0 || i >= b.buf.BlockCount() {
		return
	}
	a := b.buf.Annotation(i)
	if a == nil {
		b.SyncFromDocument()
		a = b.buf.Annotation(i)
		if a == nil {
			return
		}
	}
	p := a.paragraph
	text := []rune(b.buf.BlockText(i))
	n := len(text)

	t := p.Type()
	updated := a.ShouldUpdateFromFormat(t, b.rules.Version(t))
	if updated {
		a.cacheFormat(t, b.rules.Version(t), b.rules.BlockFormat(t), b.rules.CharFormat(t))
		b.buf.SetCharFormat(i, 0, n, a.charFormat)
		b.buf.SetBlockFormat(i, a.blockFormat)
	}

	if len(a.fragments) > 0 || a.hadMisspelled {
		a.hadMisspelled = len(a.fragments) > 0
		b.buf.SetMisspelled(i, 0, n, false, nil, a.blockFormat.Background)
		for _, f := range a.fragments {
			if f.Length <= 0 || f.Start >= n {
				continue
			}
			b.buf.SetMisspelled(i, f.Start, f.Length, true, f.Suggestions, format.MisspelledBackground)
		}
	}
	a.appliedSpellVer = a.spellVersion

	if a.pending != nil && !updated {
		seg, _ := a.takeTransliteration()
		if seg.valid() {
			b.buf.SetFontFamily(i, seg.Start, seg.End-seg.Start, b.fonts.FontForLanguage(seg.Language))
		}
		a.editFrom = -1
		return
	}

	from := 0
	switch {
	case updated:
	case a.editFrom >= 0:
		from = a.editFrom
	default:
		from = b.deltaStart(i, a, n)
	}
	a.editFrom = -1
	from = max(0, min(from, n))

	seed, started := translit.SeedAt(text, from)
	if !started {
		from = 0
	}
	seg := translit.ResumeSegmenter(from, seed, started)
	for _, r := range text[from:] {
		seg.Feed(r)
	}
	for _, run := range seg.Runs() {
		b.buf.SetFontFamily(i, run.Start, run.Len(), b.fonts.FontForLanguage(run.Language))
	}
	a.previousText = string(text)
}

// deltaStart infers where the block was edited from the cursor and the change
// in length since the previous pass.
func (b *Binder) deltaStart(i int, a *BlockAnnotation, n int) int {
	if b.cursor < 0 {
		return 0
	}
	prev := len([]rune(a.previousText))
	charsAdded := max(n-prev, 0)
	charsRemoved := max(prev-n, 0)
	cursorInBlock := max(b.cursor-b.buf.BlockPosition(i), 0)
	switch {
	case charsAdded > 0:
		return max(cursorInBlock-1, 0)
	case charsRemoved > 0:
		return cursorInBlock
	default:
		return 0
	}
}

func (b *Binder) attachSpellCheck(a *BlockAnnotation) {
	if !b.spellEnabled {
		a.detach()
		return
	}
	a.spellAttached = true
	b.scheduleSpellCheck(a)
}

// scheduleSpellCheck debounces a check of a's paragraph by SpellCheckDelay.
func (b *Binder) scheduleSpellCheck(a *BlockAnnotation) {
	if !a.spellAttached || b.cfg.Spell == nil {
		return
	}
	if a.spellTimer != nil {
		a.spellTimer.Stop()
		a.spellTimer = nil
	}
	if b.cfg.SpellCheckDelay <= 0 {
		b.dispatchSpellCheck(a)
		return
	}
	var timer eventloop.Timer
	timer = b.loop.AfterFunc(b.cfg.SpellCheckDelay, func() {
		// A stopped timer may still have posted; only the latest one dispatches.
		if a.spellTimer != timer {
			return
		}
		a.spellTimer = nil
		b.dispatchSpellCheck(a)
	})
	a.spellTimer = timer
}

func (b *Binder) dispatchSpellCheck(a *BlockAnnotation) {
	p := a.paragraph
	if b.closed || !a.spellAttached || b.scene == nil || p.Scene() != b.scene {
		return
	}
	req := spell.Request{
		ParagraphID:    p.ID(),
		Text:           p.Text(),
		Timestamp:      p.MarkModified(),
		CharacterNames: append([]string(nil), b.characterNames...),
	}
	err := b.cfg.Spell.Schedule(req, func(res spell.Result) {
		b.loop.Post(func() { b.OnSpellCheckUpdated(res) })
	})
	if err != nil {
		b.log.Debug("spell check not scheduled", "err", err)
	}
}

// OnSpellCheckUpdated applies a spell-check result. Results computed before
// the paragraph last changed are dropped.
func (b *Binder) OnSpellCheckUpdated(res spell.Result) {
	if b.scene == nil || b.initializing || b.closed {
		return
	}
	idx := -1
	for i, p := range b.scene.Paragraphs() {
		if p.ID() == res.ParagraphID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	p := b.scene.At(idx)
	if res.Timestamp < p.ModificationTime() {
		return
	}
	a := b.annotationOf(p, idx)
	if a == nil {
		return
	}
	a.setFragments(res.Fragments)
	b.rehighlightBlockLater(a)
}

// annotationOf finds p's annotation, looking at block hint first.
func (b *Binder) annotationOf(p *domain.Paragraph, hint int) *BlockAnnotation {
	if a := b.buf.Annotation(hint); a != nil && a.paragraph == p {
		return a
	}
	if i := b.blockOf(p); i >= 0 {
		return b.buf.Annotation(i)
	}
	return nil
}

// blockOf returns the block whose annotation refers to p, or -1.
func (b *Binder) blockOf(p *domain.Paragraph) int {
	for i := 0; i < b.buf.BlockCount(); i++ {
		if a := b.buf.Annotation(i); a != nil && a.paragraph == p {
			return i
		}
	}
	return -1
}

// RehighlightLater schedules a full rehighlight after RehighlightDelay.
// Requests arriving before it fires are merged into one pass.
func (b *Binder) RehighlightLater() {
	if b.closed {
		return
	}
	if b.rehighlightTimer != nil {
		b.rehighlightTimer.Stop()
	}
	b.rehighlightPending = true
	b.rehighlightTimer = b.loop.AfterFunc(b.cfg.RehighlightDelay, b.FlushRehighlight)
}

func (b *Binder) rehighlightBlockLater(a *BlockAnnotation) {
	queued := false
	for _, q := range b.rehighlightQueue {
		if q == a {
			queued = true
			break
		}
	}
	if !queued {
		b.rehighlightQueue = append(b.rehighlightQueue, a)
	}
	b.RehighlightLater()
}

// FlushRehighlight performs a scheduled rehighlight now. When more than half
// of the blocks are queued, or none are, the whole document is rehighlighted.
func (b *Binder) FlushRehighlight() {
	if !b.rehighlightPending || b.closed {
		return
	}
	b.rehighlightPending = false
	if b.rehighlightTimer != nil {
		b.rehighlightTimer.Stop()
		b.rehighlightTimer = nil
	}
	queue := b.rehighlightQueue
	b.rehighlightQueue = nil

	if len(queue) > b.buf.BlockCount()>>1 || len(queue) == 0 {
		b.Rehighlight()
		return
	}
	for _, a := range queue {
		if i := b.blockOf(a.paragraph); i >= 0 && b.buf.Annotation(i) == a {
			b.highlightBlock(i)
		}
	}
}

// RehighlightPending reports whether a scheduled rehighlight has yet to run.
func (b *Binder) RehighlightPending() bool { return b.rehighlightPending }

// QueuedBlocks reports how many blocks wait for a targeted rehighlight.
func (b *Binder) QueuedBlocks() int { return len(b.rehighlightQueue) }
