/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the screenplay data model: a Screenplay is an ordered list of
// Scenes, and a Scene is an ordered list of typed Paragraphs.

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// ElementType is the screenplay role of a paragraph.
type ElementType int

const (
	Action ElementType = iota
	Character
	Dialogue
	Parenthetical
	Shot
	Transition
	Heading
)

const (
	MinElementType = Action
	MaxElementType = Heading
)

var elementTypeNames = [...]string{
	Action:        "Action",
	Character:     "Character",
	Dialogue:      "Dialogue",
	Parenthetical: "Parenthetical",
	Shot:          "Shot",
	Transition:    "Transition",
	Heading:       "Scene Heading",
}

// ElementTypes lists every element type in declaration order.
func ElementTypes() []ElementType {
	out := make([]ElementType, 0, int(MaxElementType)+1)
	for t := MinElementType; t <= MaxElementType; t++ {
		out = append(out, t)
	}
	return out
}

func (t ElementType) Valid() bool { return t >= MinElementType && t <= MaxElementType }

func (t ElementType) String() string {
	if !t.Valid() {
		return "Unknown"
	}
	return elementTypeNames[t]
}

// ParseElementType accepts the display name ("Scene Heading") or a short
// form ("heading"), case-insensitively.
func ParseElementType(s string) (ElementType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "heading" {
		return Heading, nil
	}
	for t := MinElementType; t <= MaxElementType; t++ {
		if strings.ToLower(elementTypeNames[t]) == s {
			return t, nil
		}
	}
	return Action, fmt.Errorf("unknown element type %q", s)
}

func (t ElementType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid element type %d", int(t))
	}
	return []byte(strings.ToLower(strings.ReplaceAll(t.String(), "Scene ", ""))), nil
}

func (t *ElementType) UnmarshalText(b []byte) error {
	v, err := ParseElementType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// clock hands out logical modification timestamps. It only moves forward.
var clock atomic.Int64

func nextStamp() int64 { return clock.Add(1) }

// Paragraph is one typed unit of screenplay text.
type Paragraph struct {
	id      string
	text    string
	typ     ElementType
	scene   *Scene
	modTime int64
}

// NewParagraph creates a detached paragraph.
func NewParagraph(typ ElementType, text string) *Paragraph {
	return &Paragraph{id: uuid.NewString(), typ: typ, text: text, modTime: nextStamp()}
}

func (p *Paragraph) ID() string              { return p.id }
func (p *Paragraph) Text() string            { return p.text }
func (p *Paragraph) Type() ElementType       { return p.typ }
func (p *Paragraph) Scene() *Scene           { return p.scene }
func (p *Paragraph) ModificationTime() int64 { return p.modTime }

// SetText replaces the text and advances the modification time when it differs.
func (p *Paragraph) SetText(text string) {
	if p.text == text {
		return
	}
	p.text = text
	p.modTime = nextStamp()
}

// SetType changes the element type. It reports whether anything changed.
func (p *Paragraph) SetType(t ElementType) bool {
	if p.typ == t || !t.Valid() {
		return false
	}
	p.typ = t
	return true
}

// MarkModified advances the modification time without touching the text, which
// invalidates any asynchronous result computed against the previous stamp.
func (p *Paragraph) MarkModified() int64 {
	p.modTime = nextStamp()
	return p.modTime
}

// ParagraphData is the serializable form of a Paragraph.
type ParagraphData struct {
	ID   string      `json:"id"`
	Type ElementType `json:"type"`
	Text string      `json:"text"`
}

func (p *Paragraph) Data() ParagraphData { return ParagraphData{ID: p.id, Type: p.typ, Text: p.text} }

// Scene owns an ordered list of paragraphs.
type Scene struct {
	id         string
	paragraphs []*Paragraph
	version    int64
}

// NewScene creates a scene holding the given paragraphs.
func NewScene(paras ...*Paragraph) *Scene {
	s := &Scene{id: uuid.NewString()}
	s.ReplaceAll(paras)
	return s
}

func (s *Scene) ID() string { return s.id }

// Version changes whenever the paragraph list is restructured.
func (s *Scene) Version() int64 { return s.version }

func (s *Scene) Count() int { return len(s.paragraphs) }

// At returns the paragraph at index, or nil when out of range.
func (s *Scene) At(index int) *Paragraph {
	if index < 0 || index >= len(s.paragraphs) {
		return nil
	}
	return s.paragraphs[index]
}

func (s *Scene) IndexOf(p *Paragraph) int {
	for i, q := range s.paragraphs {
		if q == p {
			return i
		}
	}
	return -1
}

// Paragraphs returns a copy of the paragraph list.
func (s *Scene) Paragraphs() []*Paragraph { return append([]*Paragraph(nil), s.paragraphs...) }

// Title is the text of the first heading paragraph.
func (s *Scene) Title() string {
	for _, p := range s.paragraphs {
		if p.typ == Heading {
			return p.text
		}
	}
	return ""
}

// InsertAt inserts p at index; the index is clamped into [0, Count()].
func (s *Scene) InsertAt(index int, p *Paragraph) {
	if p == nil {
		return
	}
	index = clamp(index, 0, len(s.paragraphs))
	s.paragraphs = append(s.paragraphs, nil)
	copy(s.paragraphs[index+1:], s.paragraphs[index:])
	s.paragraphs[index] = p
	p.scene = s
	s.version++
}

// InsertAfter inserts p right after ref, or at the front when ref is not in the scene.
func (s *Scene) InsertAfter(p, ref *Paragraph) {
	s.InsertAt(s.IndexOf(ref)+1, p)
}

// RemoveAt removes and returns the paragraph at index, or nil when out of range.
func (s *Scene) RemoveAt(index int) *Paragraph {
	p := s.At(index)
	if p == nil {
		return nil
	}
	s.paragraphs = append(s.paragraphs[:index], s.paragraphs[index+1:]...)
	p.scene = nil
	s.version++
	return p
}

func (s *Scene) SetText(index int, text string) {
	if p := s.At(index); p != nil {
		p.SetText(text)
	}
}

func (s *Scene) SetType(index int, t ElementType) bool {
	if p := s.At(index); p != nil {
		return p.SetType(t)
	}
	return false
}

// ReplaceAll swaps in a new paragraph list wholesale. Paragraphs not present
// in the new list are detached from the scene.
func (s *Scene) ReplaceAll(list []*Paragraph) {
	keep := make(map[*Paragraph]bool, len(list))
	for _, p := range list {
		keep[p] = true
	}
	for _, p := range s.paragraphs {
		if !keep[p] {
			p.scene = nil
		}
	}
	s.paragraphs = make([]*Paragraph, 0, len(list))
	for _, p := range list {
		if p == nil {
			continue
		}
		p.scene = s
		s.paragraphs = append(s.paragraphs, p)
	}
	s.version++
}

// Snapshot captures the serializable state of every paragraph.
func (s *Scene) Snapshot() []ParagraphData {
	out := make([]ParagraphData, len(s.paragraphs))
	for i, p := range s.paragraphs {
		out[i] = p.Data()
	}
	return out
}

// Restore rebuilds the paragraph list from a snapshot, reusing paragraphs whose ids match.
func (s *Scene) Restore(data []ParagraphData) {
	byID := make(map[string]*Paragraph, len(s.paragraphs))
	for _, p := range s.paragraphs {
		byID[p.id] = p
	}
	list := make([]*Paragraph, 0, len(data))
	for _, d := range data {
		p, ok := byID[d.ID]
		if !ok {
			p = NewParagraph(d.Type, d.Text)
			if d.ID != "" {
				p.id = d.ID
			}
		}
		p.SetType(d.Type)
		p.SetText(d.Text)
		list = append(list, p)
	}
	s.ReplaceAll(list)
}

type sceneJSON struct {
	ID         string          `json:"id"`
	Paragraphs []ParagraphData `json:"paragraphs"`
}

func (s *Scene) MarshalJSON() ([]byte, error) {
	return json.Marshal(sceneJSON{ID: s.id, Paragraphs: s.Snapshot()})
}

func (s *Scene) UnmarshalJSON(b []byte) error {
	var sj sceneJSON
	if err := json.Unmarshal(b, &sj); err != nil {
		return err
	}
	s.id = sj.ID
	if s.id == "" {
		s.id = uuid.NewString()
	}
	s.paragraphs = nil
	s.Restore(sj.Paragraphs)
	return nil
}

// Screenplay is the top-level document persisted as the project manifest.
type Screenplay struct {
	Title    string   `json:"title"`
	Author   string   `json:"author,omitempty"`
	Language string   `json:"language,omitempty"` // default paragraph language
	Scenes   []*Scene `json:"scenes"`
}

// CharacterNames returns the distinct character cue names, in first-seen order.
func (sp *Screenplay) CharacterNames() []string {
	seen := map[string]bool{}
	var out []string
	for _, sc := range sp.Scenes {
		for _, p := range sc.paragraphs {
			if p.typ != Character {
				continue
			}
			name := strings.ToUpper(strings.TrimSpace(p.text))
			if i := strings.Index(name, "("); i >= 0 {
				name = strings.TrimSpace(name[:i])
			}
			if name != "" && !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
