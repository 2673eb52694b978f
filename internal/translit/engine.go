/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package translit

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Families bundled with the application, one per language.
var defaultFamilies = map[Language]string{
	English:   "Courier Prime",
	Bengali:   "Hind Siliguri",
	Gujarati:  "Hind Vadodara",
	Hindi:     "Mukta",
	Kannada:   "Baloo Tamma 2",
	Malayalam: "Baloo Chettan 2",
	Marathi:   "Shusha",
	Oriya:     "Baloo Bhaina 2",
	Punjabi:   "Baloo Paaji 2",
	Sanskrit:  "Mukta",
	Tamil:     "Hind Madurai",
	Telugu:    "Hind Guntur",
}

// Engine resolves languages to font families. It is safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	families map[Language]string
	files    map[Language][]string
	active   Language
}

func NewEngine() *Engine {
	e := &Engine{
		families: make(map[Language]string, len(defaultFamilies)),
		files:    make(map[Language][]string),
	}
	for l, f := range defaultFamilies {
		e.families[l] = f
	}
	return e
}

func (e *Engine) LanguageForScript(s Script) Language { return LanguageForScript(s) }

// FontForLanguage returns the preferred font family for l.
func (e *Engine) FontForLanguage(l Language) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if f, ok := e.families[l]; ok && f != "" {
		return f
	}
	return defaultFamilies[English]
}

// SetPreferredFont overrides the family used for l; an empty family restores the bundled one.
func (e *Engine) SetPreferredFont(l Language, family string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if family == "" {
		family = defaultFamilies[l]
	}
	e.families[l] = family
}

// LoadFontFile parses an OpenType or TrueType file, adopts its family name as
// the preferred font for l and returns that name.
func (e *Engine) LoadFontFile(l Language, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parse font %s: %w", path, err)
	}
	var buf sfnt.Buffer
	family, err := f.Name(&buf, sfnt.NameIDTypographicFamily)
	if err != nil || family == "" {
		family, err = f.Name(&buf, sfnt.NameIDFamily)
		if err != nil {
			return "", fmt.Errorf("font %s has no family name: %w", path, err)
		}
	}
	e.mu.Lock()
	e.families[l] = family
	e.files[l] = append(e.files[l], path)
	e.mu.Unlock()
	return family, nil
}

// FontFiles lists the files loaded for l.
func (e *Engine) FontFiles(l Language) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.files[l]...)
}

// ActiveLanguage is the language the user is currently typing in.
func (e *Engine) ActiveLanguage() Language {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

func (e *Engine) SetActiveLanguage(l Language) {
	e.mu.Lock()
	e.active = l
	e.mu.Unlock()
}

// FontRun is a script run together with the font family it renders in.
type FontRun struct {
	Run
	Font string
}

// Breakup segments text and resolves each run's font.
func (e *Engine) Breakup(text string) []FontRun {
	runs := Segment(text)
	out := make([]FontRun, len(runs))
	for i, r := range runs {
		out[i] = FontRun{Run: r, Font: e.FontForLanguage(r.Language)}
	}
	return out
}
