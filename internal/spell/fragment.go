/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package spell checks paragraph text for misspelled words on a single
// background worker and reports the spans with suggestions.
package spell

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Fragment is a misspelled span. Start and Length count runes.
type Fragment struct {
	Start       int      `json:"start"`
	Length      int      `json:"length"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (f Fragment) End() int { return f.Start + f.Length }

// Contains reports whether rune offset pos falls inside the fragment.
func (f Fragment) Contains(pos int) bool { return pos >= f.Start && pos < f.End() }

// Word is one word of a text, positioned in runes.
type Word struct {
	Text   string
	Start  int
	Length int
}

func (w Word) End() int { return w.Start + w.Length }

// Words splits text at Unicode word boundaries and keeps the segments that
// contain at least one letter.
func Words(text string) []Word {
	var out []Word
	state := -1
	pos := 0
	rest := text
	for len(rest) > 0 {
		var seg string
		seg, rest, state = uniseg.FirstWordInString(rest, state)
		n := utf8.RuneCountInString(seg)
		if strings.IndexFunc(seg, unicode.IsLetter) >= 0 {
			out = append(out, Word{Text: seg, Start: pos, Length: n})
		}
		pos += n
	}
	return out
}

// WordAt returns the word covering rune offset pos. A position just past the
// end of a word also selects it, so a cursor sitting after a word finds it.
func WordAt(text string, pos int) (Word, bool) {
	for _, w := range Words(text) {
		if pos >= w.Start && pos <= w.End() {
			return w, true
		}
	}
	return Word{}, false
}

// stripPossessive removes a trailing 's (straight or curly apostrophe).
func stripPossessive(word string) (string, bool) {
	for _, suffix := range []string{"'s", "’s", "'S", "’S"} {
		if strings.HasSuffix(word, suffix) && len(word) > len(suffix) {
			return strings.TrimSuffix(word, suffix), true
		}
	}
	return word, false
}
