/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"

	"goscreenwriter/internal/domain"
)

// Script is a parsed plain-text screenplay.
// The markup follows common plain-text screenplay conventions (Fountain-like):
// headings start with INT./EXT., cues are upper-case lines above dialogue.

type Script struct {
	Scenes []Scene
}

type Scene struct {
	Title      string
	Paragraphs []Paragraph
}

// Paragraph is one typed paragraph. Lines that belong together (wrapped
// action or dialogue) are joined with single spaces, since a paragraph never
// spans more than one block.
type Paragraph struct {
	Type   domain.ElementType
	Text   string
	LineNo int // 1-based starting line number in the source
}

// Error represents a parse error with position context.

type Error struct {
	Line    int
	Column  int
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message) }

// Screenplay converts the parsed script into domain scenes.
func (s Script) Screenplay(title string) *domain.Screenplay {
	sp := &domain.Screenplay{Title: title}
	for _, sc := range s.Scenes {
		paras := make([]*domain.Paragraph, 0, len(sc.Paragraphs))
		for _, p := range sc.Paragraphs {
			paras = append(paras, domain.NewParagraph(p.Type, p.Text))
		}
		sp.Scenes = append(sp.Scenes, domain.NewScene(paras...))
	}
	return sp
}
