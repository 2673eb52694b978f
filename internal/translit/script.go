/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package translit classifies characters by writing script, maps scripts to
// languages and languages to font families, and splits text into runs of a
// single script.
package translit

import (
	"fmt"
	"strings"
	"unicode"
)

type Script int

const (
	ScriptUnknown Script = iota
	ScriptLatin
	ScriptDevanagari
	ScriptBengali
	ScriptGurmukhi
	ScriptGujarati
	ScriptOriya
	ScriptTamil
	ScriptTelugu
	ScriptKannada
	ScriptMalayalam
)

var scriptTables = []struct {
	script Script
	table  *unicode.RangeTable
	name   string
}{
	{ScriptLatin, unicode.Latin, "Latin"},
	{ScriptDevanagari, unicode.Devanagari, "Devanagari"},
	{ScriptBengali, unicode.Bengali, "Bengali"},
	{ScriptGurmukhi, unicode.Gurmukhi, "Gurmukhi"},
	{ScriptGujarati, unicode.Gujarati, "Gujarati"},
	{ScriptOriya, unicode.Oriya, "Oriya"},
	{ScriptTamil, unicode.Tamil, "Tamil"},
	{ScriptTelugu, unicode.Telugu, "Telugu"},
	{ScriptKannada, unicode.Kannada, "Kannada"},
	{ScriptMalayalam, unicode.Malayalam, "Malayalam"},
}

func (s Script) String() string {
	for _, st := range scriptTables {
		if st.script == s {
			return st.name
		}
	}
	return "Unknown"
}

// ScriptOf returns the writing script of r, or ScriptUnknown for scripts
// outside the supported set (including Common and Inherited characters).
func ScriptOf(r rune) Script {
	if r < 0x80 {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			return ScriptLatin
		}
		return ScriptUnknown
	}
	for _, st := range scriptTables {
		if unicode.Is(st.table, r) {
			return st.script
		}
	}
	return ScriptUnknown
}

// IsNeutral reports whether r takes the script of the run it is adjacent to:
// whitespace, digits, punctuation, line separators, and characters of the
// Common and Inherited scripts (symbols, joiners).
func IsNeutral(r rune) bool {
	switch {
	case unicode.IsSpace(r), unicode.IsDigit(r), unicode.IsPunct(r):
		return true
	case unicode.Is(unicode.Zl, r):
		return true
	case unicode.Is(unicode.Common, r), unicode.Is(unicode.Inherited, r):
		return true
	}
	return false
}

// IsLatinLike reports whether r counts as Latin when deciding whether a word
// is English: Latin letters and every neutral character.
func IsLatinLike(r rune) bool { return IsNeutral(r) || ScriptOf(r) == ScriptLatin }

type Language int

const (
	English Language = iota
	Bengali
	Gujarati
	Hindi
	Kannada
	Malayalam
	Marathi
	Oriya
	Punjabi
	Sanskrit
	Tamil
	Telugu
)

var languageNames = [...]string{
	English:   "English",
	Bengali:   "Bengali",
	Gujarati:  "Gujarati",
	Hindi:     "Hindi",
	Kannada:   "Kannada",
	Malayalam: "Malayalam",
	Marathi:   "Marathi",
	Oriya:     "Oriya",
	Punjabi:   "Punjabi",
	Sanskrit:  "Sanskrit",
	Tamil:     "Tamil",
	Telugu:    "Telugu",
}

func Languages() []Language {
	out := make([]Language, len(languageNames))
	for i := range languageNames {
		out[i] = Language(i)
	}
	return out
}

func (l Language) String() string {
	if l < 0 || int(l) >= len(languageNames) {
		return fmt.Sprintf("Language(%d)", int(l))
	}
	return languageNames[l]
}

func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	for i, n := range languageNames {
		if strings.EqualFold(n, s) {
			return Language(i), nil
		}
	}
	return English, fmt.Errorf("unknown language %q", s)
}

// LanguageForScript maps a script to the language whose text it renders.
// Unsupported scripts map to English.
func LanguageForScript(s Script) Language {
	switch s {
	case ScriptDevanagari:
		return Hindi
	case ScriptBengali:
		return Bengali
	case ScriptGurmukhi:
		return Punjabi
	case ScriptGujarati:
		return Gujarati
	case ScriptOriya:
		return Oriya
	case ScriptTamil:
		return Tamil
	case ScriptTelugu:
		return Telugu
	case ScriptKannada:
		return Kannada
	case ScriptMalayalam:
		return Malayalam
	default:
		return English
	}
}

// ScriptForLanguage is the reverse mapping; Marathi and Sanskrit share Devanagari.
func ScriptForLanguage(l Language) Script {
	switch l {
	case Hindi, Marathi, Sanskrit:
		return ScriptDevanagari
	case Bengali:
		return ScriptBengali
	case Punjabi:
		return ScriptGurmukhi
	case Gujarati:
		return ScriptGujarati
	case Oriya:
		return ScriptOriya
	case Tamil:
		return ScriptTamil
	case Telugu:
		return ScriptTelugu
	case Kannada:
		return ScriptKannada
	case Malayalam:
		return ScriptMalayalam
	default:
		return ScriptLatin
	}
}
