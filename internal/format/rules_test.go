/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package format

import (
	"math"
	"testing"

	"goscreenwriter/internal/domain"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDefaultsFollowIndustryLayout(t *testing.T) {
	r := NewRules()
	ch := r.BlockFormat(domain.Character)
	if !approx(ch.LeftMargin, 2.2) || !approx(ch.RightMargin, 0.69) {
		t.Fatalf("character margins = %v/%v", ch.LeftMargin, ch.RightMargin)
	}
	if tr := r.BlockFormat(domain.Transition); tr.Alignment != AlignRight {
		t.Fatalf("transition should be right aligned, got %v", tr.Alignment)
	}
	if !r.CharFormat(domain.Heading).Font.AllCaps || r.CharFormat(domain.Dialogue).Font.AllCaps {
		t.Fatalf("capitalisation defaults wrong")
	}
	if got := r.BlockFormat(domain.Dialogue).LineSpacingBefore; got != 0 {
		t.Fatalf("dialogue spacing before = %v", got)
	}
}

func TestUpdateBumpsOnlyThatType(t *testing.T) {
	r := NewRules()
	before := map[domain.ElementType]int{}
	for _, et := range domain.ElementTypes() {
		before[et] = r.Version(et)
	}
	r.Update(domain.Dialogue, func(f *ElementFormat) { f.LeftMargin = 1 })
	for _, et := range domain.ElementTypes() {
		changed := r.Version(et) != before[et]
		if changed != (et == domain.Dialogue) {
			t.Fatalf("type %v changed=%v", et, changed)
		}
	}
	if r.BlockFormat(domain.Dialogue).LeftMargin != 1 {
		t.Fatalf("update not applied")
	}
}

func TestPointSizeDeltaBumpsAll(t *testing.T) {
	r := NewRules()
	v := r.Version(domain.Action)
	r.SetFontPointSizeDelta(2)
	if r.Version(domain.Action) == v {
		t.Fatalf("delta change must bump versions")
	}
	if got := r.CharFormat(domain.Action).Font.PointSize; got != 14 {
		t.Fatalf("point size = %d, want 14", got)
	}
	v = r.Version(domain.Action)
	r.SetFontPointSizeDelta(2)
	if r.Version(domain.Action) != v {
		t.Fatalf("no-op delta change must not bump")
	}
}

func TestLoadOverrides(t *testing.T) {
	r := NewRules()
	doc := []byte(`
font_point_size_delta: -1
elements:
  transition:
    alignment: left
  dialogue:
    left_margin: 1.25
    default_language: Hindi
    text_color: {r: 10, g: 20, b: 30, a: 255}
`)
	if err := r.LoadOverrides(doc); err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	if r.BlockFormat(domain.Transition).Alignment != AlignLeft {
		t.Fatalf("transition alignment not overridden")
	}
	d := r.Element(domain.Dialogue)
	if d.LeftMargin != 1.25 || d.DefaultLanguage != "Hindi" || d.TextColor.B != 30 {
		t.Fatalf("dialogue override mismatch: %+v", d)
	}
	if r.CharFormat(domain.Action).Font.PointSize != 11 {
		t.Fatalf("delta not applied")
	}
	if err := r.LoadOverrides([]byte("elements:\n  montage: {}\n")); err == nil {
		t.Fatalf("expected error for unknown element type")
	}
}
