/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package binder

import (
	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/eventloop"
	"goscreenwriter/internal/format"
	"goscreenwriter/internal/spell"
	"goscreenwriter/internal/translit"
)

// TransliterationSegment is a block range, in runes, just substituted by
// transliteration into the given language.
type TransliterationSegment struct {
	Start    int
	End      int
	Language translit.Language
}

func (s TransliterationSegment) valid() bool { return s.Start >= 0 && s.End > s.Start }

// BlockAnnotation is the binder's per-block state. It refers to its paragraph
// without owning it and lives exactly as long as its block.
type BlockAnnotation struct {
	paragraph *domain.Paragraph

	blockFormat  format.BlockFormat
	charFormat   format.CharFormat
	formatType   domain.ElementType
	formatVer    int
	formatCached bool

	spellAttached   bool
	spellTimer      eventloop.Timer
	fragments       []spell.Fragment
	hadMisspelled   bool
	spellVersion    int
	appliedSpellVer int

	previousText string
	pending      *TransliterationSegment

	// editFrom is the block offset of the last edit reported by the buffer,
	// or -1 when the next pass has to infer it from the cursor.
	editFrom int
}

func newAnnotation(p *domain.Paragraph) *BlockAnnotation {
	return &BlockAnnotation{paragraph: p, editFrom: -1}
}

func (a *BlockAnnotation) Paragraph() *domain.Paragraph { return a.paragraph }

func (a *BlockAnnotation) CachedBlockFormat() format.BlockFormat { return a.blockFormat }
func (a *BlockAnnotation) CachedCharFormat() format.CharFormat   { return a.charFormat }

// ShouldUpdateFromFormat reports whether the cached formats are out of date
// for a paragraph of type t at rules version v. A block that has never
// highlighted any text is always refreshed.
func (a *BlockAnnotation) ShouldUpdateFromFormat(t domain.ElementType, v int) bool {
	return !a.formatCached || a.formatType != t || a.formatVer != v || a.previousText == ""
}

func (a *BlockAnnotation) cacheFormat(t domain.ElementType, v int, bf format.BlockFormat, cf format.CharFormat) {
	a.formatType, a.formatVer, a.formatCached = t, v, true
	a.blockFormat, a.charFormat = bf, cf
}

// ResetFormat forces the next highlight pass to recompute the formats.
func (a *BlockAnnotation) ResetFormat() { a.formatCached = false }

func (a *BlockAnnotation) SpellCheckAttached() bool { return a.spellAttached }

func (a *BlockAnnotation) MisspelledFragments() []spell.Fragment {
	return append([]spell.Fragment(nil), a.fragments...)
}

func (a *BlockAnnotation) HadMisspelledFragments() bool { return a.hadMisspelled }

// ShouldUpdateFromSpellCheck reports whether a spell-check result arrived
// since the last highlight pass consumed one.
func (a *BlockAnnotation) ShouldUpdateFromSpellCheck() bool {
	return a.spellVersion != a.appliedSpellVer
}

func (a *BlockAnnotation) setFragments(f []spell.Fragment) {
	a.fragments = f
	a.spellVersion++
}

// dropFragmentsIn removes fragments overlapping [start, end).
func (a *BlockAnnotation) dropFragmentsIn(start, end int) {
	var kept []spell.Fragment
	for _, f := range a.fragments {
		if f.End() <= start || f.Start >= end {
			kept = append(kept, f)
		}
	}
	a.fragments = kept
}

func (a *BlockAnnotation) PreviousHighlightedText() string { return a.previousText }

func (a *BlockAnnotation) PendingTransliteration() (TransliterationSegment, bool) {
	if a.pending == nil {
		return TransliterationSegment{}, false
	}
	return *a.pending, true
}

func (a *BlockAnnotation) takeTransliteration() (TransliterationSegment, bool) {
	seg, ok := a.PendingTransliteration()
	a.pending = nil
	return seg, ok
}

func (a *BlockAnnotation) detach() {
	if a.spellTimer != nil {
		a.spellTimer.Stop()
		a.spellTimer = nil
	}
	a.spellAttached = false
}
