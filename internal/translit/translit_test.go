/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package translit

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestSegmentMixedScripts(t *testing.T) {
	runs := Segment("Hello नमस्ते World")
	want := []struct {
		text string
		lang Language
	}{
		{"Hello ", English},
		{"नमस्ते ", Hindi},
		{"World", English},
	}
	if len(runs) != len(want) {
		t.Fatalf("got %d runs: %+v", len(runs), runs)
	}
	for i, w := range want {
		if runs[i].Text != w.text || runs[i].Language != w.lang {
			t.Fatalf("run %d = %q/%v, want %q/%v", i, runs[i].Text, runs[i].Language, w.text, w.lang)
		}
	}
	if runs[1].Start != 6 || runs[1].End != 13 {
		t.Fatalf("devanagari run bounds = [%d,%d)", runs[1].Start, runs[1].End)
	}
}

func TestSegmentLeadingNeutralsJoinFirstLetter(t *testing.T) {
	runs := Segment("  12, தமிழ்")
	if len(runs) != 1 || runs[0].Language != Tamil {
		t.Fatalf("runs = %+v", runs)
	}
	if runs := Segment("... 42"); len(runs) != 1 || runs[0].Script != ScriptLatin {
		t.Fatalf("neutral-only text should be one Latin run, got %+v", runs)
	}
	if runs := Segment(""); len(runs) != 0 {
		t.Fatalf("empty text produced runs: %+v", runs)
	}
}

func perRune(runs []Run, n int) []Language {
	out := make([]Language, n)
	for _, r := range runs {
		for i := r.Start; i < r.End; i++ {
			out[i] = r.Language
		}
	}
	return out
}

var segmentFixtures = []string{
	"Hello नमस्ते World",
	"  नमस्ते, John! ਪੰਜਾਬੀ ও বাংলা 123",
	"JOHN (V.O.) ಕನ್ನಡ-മലയാളം...తెలుగు",
	"ગુજરાતી ଓଡ଼ିଆ end",
	"",
	"     ",
}

func TestIncrementalMatchesOneShot(t *testing.T) {
	for _, text := range segmentFixtures {
		whole := Segment(text)
		s := NewSegmenter(0)
		for _, r := range text {
			s.Feed(r)
		}
		inc := s.Runs()
		if len(inc) != len(whole) {
			t.Fatalf("%q: %d incremental runs vs %d", text, len(inc), len(whole))
		}
		for i := range whole {
			if inc[i] != whole[i] {
				t.Fatalf("%q: run %d differs: %+v vs %+v", text, i, inc[i], whole[i])
			}
		}
	}
}

func TestResumeMatchesOneShot(t *testing.T) {
	for _, text := range segmentFixtures {
		rs := []rune(text)
		want := perRune(Segment(text), len(rs))
		for k := 0; k <= len(rs); k++ {
			from := k
			seed, started := SeedAt(rs, from)
			if !started {
				from = 0
			}
			s := ResumeSegmenter(from, seed, started)
			for _, r := range rs[from:] {
				s.Feed(r)
			}
			got := perRune(s.Runs(), len(rs))
			for i := from; i < len(rs); i++ {
				if got[i] != want[i] {
					t.Fatalf("%q split %d: rune %d got %v want %v", text, k, i, got[i], want[i])
				}
			}
		}
	}
}

func TestScriptLanguageMaps(t *testing.T) {
	for _, l := range Languages() {
		s := ScriptForLanguage(l)
		back := LanguageForScript(s)
		switch l {
		case Marathi, Sanskrit:
			if back != Hindi {
				t.Fatalf("%v -> %v -> %v", l, s, back)
			}
		default:
			if back != l {
				t.Fatalf("%v -> %v -> %v", l, s, back)
			}
		}
	}
	if LanguageForScript(ScriptUnknown) != English {
		t.Fatalf("unknown script should map to English")
	}
	if ScriptOf('क') != ScriptDevanagari || ScriptOf('a') != ScriptLatin || ScriptOf('好') != ScriptUnknown {
		t.Fatalf("ScriptOf misclassifies")
	}
	if !IsLatinLike('7') || !IsLatinLike('é') || IsLatinLike('क') {
		t.Fatalf("IsLatinLike misclassifies")
	}
}

func TestEngineFonts(t *testing.T) {
	e := NewEngine()
	if got := e.FontForLanguage(Hindi); got != "Mukta" {
		t.Fatalf("hindi font = %q", got)
	}
	e.SetPreferredFont(Hindi, "Noto Sans Devanagari")
	if got := e.FontForLanguage(Hindi); got != "Noto Sans Devanagari" {
		t.Fatalf("preferred font not applied: %q", got)
	}
	e.SetPreferredFont(Hindi, "")
	if got := e.FontForLanguage(Hindi); got != "Mukta" {
		t.Fatalf("reset font = %q", got)
	}

	path := filepath.Join(t.TempDir(), "go.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	family, err := e.LoadFontFile(English, path)
	if err != nil {
		t.Fatalf("LoadFontFile: %v", err)
	}
	if family != "Go" || e.FontForLanguage(English) != "Go" {
		t.Fatalf("family = %q", family)
	}
	if files := e.FontFiles(English); len(files) != 1 || files[0] != path {
		t.Fatalf("font files = %v", files)
	}

	bad := filepath.Join(t.TempDir(), "bad.ttf")
	_ = os.WriteFile(bad, []byte("not a font"), 0o644)
	if _, err := e.LoadFontFile(Tamil, bad); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestBreakupResolvesFonts(t *testing.T) {
	e := NewEngine()
	runs := e.Breakup("Hi தமிழ்")
	if len(runs) != 2 || runs[0].Font != "Courier Prime" || runs[1].Font != "Hind Madurai" {
		t.Fatalf("breakup = %+v", runs)
	}
}
