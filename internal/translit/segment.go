/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package translit

// Run is a maximal stretch of text in one script. Start and End are rune
// offsets, End exclusive.
type Run struct {
	Start    int
	End      int
	Text     string
	Script   Script
	Language Language
}

func (r Run) Len() int { return r.End - r.Start }

// Segmenter splits text into runs one character at a time. Neutral characters
// join the run they follow; neutral characters before the first letter join
// the first letter's run. A change of script ends the current run.
//
// Feeding a text rune by rune yields the same runs as Segment on the whole text.
type Segmenter struct {
	started bool
	script  Script
	start   int
	pos     int
	buf     []rune
	runs    []Run
}

// NewSegmenter returns a segmenter whose first rune sits at offset.
func NewSegmenter(offset int) *Segmenter { return &Segmenter{start: offset, pos: offset} }

// ResumeSegmenter returns a segmenter positioned at offset inside a run of
// script seed, as if the preceding text had already been fed. A seed of
// ScriptUnknown with started false behaves like NewSegmenter.
func ResumeSegmenter(offset int, seed Script, started bool) *Segmenter {
	return &Segmenter{started: started, script: seed, start: offset, pos: offset}
}

func (s *Segmenter) Feed(r rune) {
	if !s.started {
		if !IsNeutral(r) {
			s.started = true
			s.script = ScriptOf(r)
		}
	} else if !IsNeutral(r) {
		if sc := ScriptOf(r); sc != s.script {
			s.flush()
			s.script = sc
		}
	}
	s.buf = append(s.buf, r)
	s.pos++
}

func (s *Segmenter) flush() {
	if len(s.buf) == 0 {
		s.start = s.pos
		return
	}
	sc := s.script
	if !s.started {
		sc = ScriptLatin
	}
	s.runs = append(s.runs, Run{
		Start:    s.start,
		End:      s.pos,
		Text:     string(s.buf),
		Script:   sc,
		Language: LanguageForScript(sc),
	})
	s.buf = s.buf[:0]
	s.start = s.pos
}

// Runs flushes the pending run and returns every run produced so far.
func (s *Segmenter) Runs() []Run {
	s.flush()
	return s.runs
}

// Segment splits text into script runs in one pass.
func Segment(text string) []Run {
	s := NewSegmenter(0)
	for _, r := range text {
		s.Feed(r)
	}
	return s.Runs()
}

// SeedAt scans text backwards from rune offset at and reports the script of
// the nearest preceding non-neutral character. started is false when only
// neutral characters precede at.
func SeedAt(text []rune, at int) (seed Script, started bool) {
	if at > len(text) {
		at = len(text)
	}
	for i := at - 1; i >= 0; i-- {
		if !IsNeutral(text[i]) {
			return ScriptOf(text[i]), true
		}
	}
	return ScriptUnknown, false
}
