/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"regexp"
	"strings"
	"unicode"

	"goscreenwriter/internal/domain"
)

const maxLineLength = 1 << 20

var (
	reHeading    = regexp.MustCompile(`^(?i)(INT|EXT|EST|INT\.?/EXT|I/E)[.\s]`)
	reMarkHeader = regexp.MustCompile(`^(#+)\s*(.*)$`)
	reCue        = regexp.MustCompile(`^([^:(]{1,64}?)\s*(\([^)]*\))?\s*:\s*(.+)$`)
	reExtension  = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
)

// Parse parses a plain-text screenplay.
// Supported syntax:
//   - Scene headings: lines starting with INT., EXT., EST., INT./EXT. or I/E,
//     a forced heading ".TITLE", or a markdown header "# Title".
//   - Character cues: an upper-case line directly followed by a non-blank line,
//     or a forced cue "@Name". Lines after a cue are dialogue until a blank line;
//     "(...)" lines inside dialogue are parentheticals.
//   - Inline dialogue: NAME: text (NAME upper-case) yields a cue and its dialogue.
//   - Transitions: upper-case lines ending in "TO:", standard transitions
//     ("FADE OUT."), or a forced transition "> TEXT".
//   - Shots: upper-case lines starting with a standard shot ("CLOSE ON ...").
//   - Notes: lines starting with ';' are skipped.
//
// Everything else is action. Consecutive action lines form one paragraph.
func Parse(input string) (Script, []Error) {
	s := Script{Scenes: []Scene{}}
	var errs []Error

	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r\n"))
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: len(lines) + 1, Column: 1, Message: err.Error()})
	}

	currentScene := Scene{}
	started := false
	var last *Paragraph

	flushScene := func() {
		if started && (strings.TrimSpace(currentScene.Title) != "" || len(currentScene.Paragraphs) > 0) {
			s.Scenes = append(s.Scenes, currentScene)
		}
	}
	add := func(t domain.ElementType, text string, lineNo int) {
		if !started {
			// Text before the first heading goes into an implicit scene.
			currentScene = Scene{Title: "Untitled"}
			started = true
		}
		currentScene.Paragraphs = append(currentScene.Paragraphs, Paragraph{Type: t, Text: text, LineNo: lineNo})
		last = &currentScene.Paragraphs[len(currentScene.Paragraphs)-1]
	}
	nextBlank := func(i int) bool {
		return i+1 >= len(lines) || strings.TrimSpace(lines[i+1]) == ""
	}

	for i, line := range lines {
		lineNo := i + 1
		trim := strings.TrimSpace(line)
		if trim == "" {
			last = nil
			continue
		}
		if strings.HasPrefix(trim, ";") {
			continue
		}

		// Scene heading
		if title, ok := heading(trim); ok {
			flushScene()
			currentScene = Scene{Title: title}
			started = true
			add(domain.Heading, title, lineNo)
			last = nil
			continue
		}

		// Inside a dialogue block
		if last != nil && (last.Type == domain.Character || last.Type == domain.Parenthetical || last.Type == domain.Dialogue) {
			switch {
			case strings.HasPrefix(trim, "(") && strings.HasSuffix(trim, ")"):
				add(domain.Parenthetical, trim, lineNo)
			case last.Type == domain.Dialogue:
				last.Text += " " + trim
			default:
				add(domain.Dialogue, trim, lineNo)
			}
			continue
		}

		// Transition
		if t, ok := transition(trim); ok {
			add(domain.Transition, t, lineNo)
			last = nil
			continue
		}

		// Shot
		if isUpper(trim) && domain.IsShot(trim) {
			add(domain.Shot, trim, lineNo)
			last = nil
			continue
		}

		// NAME: text
		if m := reCue.FindStringSubmatch(trim); m != nil && isUpper(m[1]) {
			cue := strings.TrimSpace(m[1])
			if m[2] != "" {
				cue += " " + m[2]
			}
			add(domain.Character, cue, lineNo)
			add(domain.Dialogue, strings.TrimSpace(m[3]), lineNo)
			continue
		}

		// Character cue
		if strings.HasPrefix(trim, "@") && len(trim) > 1 {
			add(domain.Character, strings.TrimSpace(trim[1:]), lineNo)
			continue
		}
		if isUpper(reExtension.ReplaceAllString(trim, "")) && !nextBlank(i) {
			add(domain.Character, trim, lineNo)
			continue
		}

		// Action, joined with the previous action line
		if last != nil && last.Type == domain.Action {
			last.Text += " " + trim
			continue
		}
		add(domain.Action, trim, lineNo)
	}
	flushScene()

	return s, errs
}

func heading(trim string) (string, bool) {
	if m := reMarkHeader.FindStringSubmatch(trim); m != nil {
		return strings.TrimSpace(m[2]), true
	}
	if strings.HasPrefix(trim, ".") && len(trim) > 1 && trim[1] != '.' {
		return strings.TrimSpace(trim[1:]), true
	}
	if reHeading.MatchString(trim) {
		return strings.ToUpper(trim), true
	}
	return "", false
}

func transition(trim string) (string, bool) {
	if strings.HasPrefix(trim, ">") && !strings.HasSuffix(trim, "<") {
		return strings.ToUpper(strings.TrimSpace(trim[1:])), true
	}
	if isUpper(trim) && (strings.HasSuffix(trim, "TO:") || domain.IsTransition(trim)) {
		return trim, true
	}
	return "", false
}

// isUpper reports whether s has an upper-case letter and no lower-case one.
// Scripts without case never qualify.
func isUpper(s string) bool {
	upper := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			upper = true
		}
	}
	return upper
}
