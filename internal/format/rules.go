/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package format holds the per-element-type visual rules of a screenplay page:
// margins, spacing, alignment, font and colour. Every change bumps a version
// counter for the affected element types so that views can cache derived
// formats and recompute them only when the counter moves.
package format

import (
	"fmt"
	"strings"

	"goscreenwriter/internal/domain"

	"gopkg.in/yaml.v3"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
	AlignJustify
)

func (a Alignment) String() string {
	switch a {
	case AlignRight:
		return "right"
	case AlignCenter:
		return "center"
	case AlignJustify:
		return "justify"
	default:
		return "left"
	}
}

func (a Alignment) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Alignment) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "left", "":
		*a = AlignLeft
	case "right":
		*a = AlignRight
	case "center", "centre":
		*a = AlignCenter
	case "justify":
		*a = AlignJustify
	default:
		return fmt.Errorf("unknown alignment %q", string(b))
	}
	return nil
}

type Color struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
	A uint8 `yaml:"a"`
}

var (
	Black       = Color{A: 255}
	Transparent = Color{}
	// MisspelledBackground marks misspelled words. A translucent background is
	// used instead of a wavy underline because rich-text engines commonly fail to
	// render spell-check underlines in editable text areas.
	MisspelledBackground = Color{R: 255, A: 32}
)

// Font describes a font request. Weight follows the CSS scale (400 regular, 700 bold).
type Font struct {
	Family    string `yaml:"family"`
	PointSize int    `yaml:"point_size"`
	Weight    int    `yaml:"weight"`
	Italic    bool   `yaml:"italic"`
	Underline bool   `yaml:"underline"`
	AllCaps   bool   `yaml:"all_caps"`
}

// BlockFormat is the paragraph-level part of an element format. Margins are in
// inches relative to the page content area, spacing is in lines.
type BlockFormat struct {
	LeftMargin        float64
	RightMargin       float64
	LineSpacingBefore float64
	LineHeight        float64
	Alignment         Alignment
	Background        Color
}

// CharFormat is the character-level part of an element format.
type CharFormat struct {
	Font  Font
	Color Color
}

// ElementFormat is the complete rule set for one element type.
type ElementFormat struct {
	Type              domain.ElementType
	Font              Font
	LineHeight        float64
	LineSpacingBefore float64
	LeftMargin        float64
	RightMargin       float64
	TextColor         Color
	BackgroundColor   Color
	Alignment         Alignment
	DefaultLanguage   string
}

func (f ElementFormat) blockFormat() BlockFormat {
	return BlockFormat{
		LeftMargin:        f.LeftMargin,
		RightMargin:       f.RightMargin,
		LineSpacingBefore: f.LineSpacingBefore,
		LineHeight:        f.LineHeight,
		Alignment:         f.Alignment,
		Background:        f.BackgroundColor,
	}
}

// Rules is the screenplay format: one ElementFormat per element type plus
// document-wide font settings. Not safe for concurrent use; it lives on the
// editor goroutine together with the documents it formats.
type Rules struct {
	defaultFont Font
	sizeDelta   int
	elements    map[domain.ElementType]*ElementFormat
	versions    map[domain.ElementType]int
}

// NewRules returns rules initialised with the industry defaults.
func NewRules() *Rules {
	r := &Rules{
		elements: make(map[domain.ElementType]*ElementFormat),
		versions: make(map[domain.ElementType]int),
	}
	r.ResetToDefaults()
	return r
}

// Page geometry of the industry layout, in inches.
const (
	pageContentLeft  = 1.50
	pageContentRight = 8.05
)

type layoutRow struct {
	start, end    float64
	spacingBefore float64
	caps          bool
	align         Alignment
}

// Where each paragraph type starts and ends on a Letter page, after Final Draft.
var industryLayout = map[domain.ElementType]layoutRow{
	domain.Heading:       {start: 1.50, end: 8.05, spacingBefore: 1, caps: true},
	domain.Action:        {start: 1.50, end: 8.05, spacingBefore: 1},
	domain.Character:     {start: 3.70, end: 7.36, spacingBefore: 1, caps: true},
	domain.Parenthetical: {start: 3.10, end: 5.63},
	domain.Dialogue:      {start: 2.50, end: 6.55},
	domain.Transition:    {start: 4.78, end: 8.05, spacingBefore: 1, caps: true, align: AlignRight},
	domain.Shot:          {start: 1.50, end: 7.60, spacingBefore: 1, caps: true},
}

// ResetToDefaults restores the industry layout and bumps every version.
func (r *Rules) ResetToDefaults() {
	r.defaultFont = Font{Family: "Courier Prime", PointSize: 12, Weight: 400}
	r.sizeDelta = 0
	for _, t := range domain.ElementTypes() {
		row := industryLayout[t]
		f := r.defaultFont
		f.AllCaps = row.caps
		r.elements[t] = &ElementFormat{
			Type:              t,
			Font:              f,
			LineHeight:        0.85,
			LineSpacingBefore: row.spacingBefore,
			LeftMargin:        row.start - pageContentLeft,
			RightMargin:       pageContentRight - row.end,
			TextColor:         Black,
			BackgroundColor:   Transparent,
			Alignment:         row.align,
		}
	}
	r.bumpAll()
}

// Version reports the modification counter of the given element type.
func (r *Rules) Version(t domain.ElementType) int { return r.versions[t] }

// Element returns a copy of the format for t.
func (r *Rules) Element(t domain.ElementType) ElementFormat {
	if f, ok := r.elements[t]; ok {
		return *f
	}
	return ElementFormat{Type: t, Font: r.defaultFont, LineHeight: 1, TextColor: Black}
}

// Update edits the format for t in place and bumps its version.
func (r *Rules) Update(t domain.ElementType, fn func(*ElementFormat)) {
	f, ok := r.elements[t]
	if !ok || fn == nil {
		return
	}
	fn(f)
	f.Type = t
	r.versions[t]++
}

func (r *Rules) BlockFormat(t domain.ElementType) BlockFormat { return r.Element(t).blockFormat() }

// CharFormat returns the character format for t with the document point size delta applied.
func (r *Rules) CharFormat(t domain.ElementType) CharFormat {
	f := r.Element(t)
	font := f.Font
	font.PointSize += r.sizeDelta
	if font.PointSize < 1 {
		font.PointSize = 1
	}
	return CharFormat{Font: font, Color: f.TextColor}
}

func (r *Rules) DefaultFont() Font {
	f := r.defaultFont
	f.PointSize += r.sizeDelta
	return f
}

// SetDefaultFont changes the family and size of every element format.
func (r *Rules) SetDefaultFont(f Font) {
	r.defaultFont = f
	for _, ef := range r.elements {
		ef.Font.Family = f.Family
		ef.Font.PointSize = f.PointSize
	}
	r.bumpAll()
}

func (r *Rules) FontPointSizeDelta() int { return r.sizeDelta }

func (r *Rules) SetFontPointSizeDelta(d int) {
	if r.sizeDelta == d {
		return
	}
	r.sizeDelta = d
	r.bumpAll()
}

func (r *Rules) bumpAll() {
	for _, t := range domain.ElementTypes() {
		r.versions[t]++
	}
}

// Override is the YAML shape of a partial element format; nil fields keep their value.
type Override struct {
	FontFamily        *string    `yaml:"font_family"`
	PointSize         *int       `yaml:"point_size"`
	Weight            *int       `yaml:"weight"`
	Italic            *bool      `yaml:"italic"`
	Underline         *bool      `yaml:"underline"`
	AllCaps           *bool      `yaml:"all_caps"`
	LineHeight        *float64   `yaml:"line_height"`
	LineSpacingBefore *float64   `yaml:"line_spacing_before"`
	LeftMargin        *float64   `yaml:"left_margin"`
	RightMargin       *float64   `yaml:"right_margin"`
	TextColor         *Color     `yaml:"text_color"`
	BackgroundColor   *Color     `yaml:"background_color"`
	Alignment         *Alignment `yaml:"alignment"`
	DefaultLanguage   *string    `yaml:"default_language"`
}

// Overrides is the YAML document accepted by LoadOverrides.
type Overrides struct {
	FontPointSizeDelta *int                `yaml:"font_point_size_delta"`
	DefaultFont        *Font               `yaml:"default_font"`
	Elements           map[string]Override `yaml:"elements"`
}

// LoadOverrides applies a YAML overrides document, e.g.
//
//	elements:
//	  transition: {alignment: left}
//	  dialogue: {left_margin: 1.2, default_language: Hindi}
func (r *Rules) LoadOverrides(data []byte) error {
	var ov Overrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("parse format overrides: %w", err)
	}
	types := make(map[domain.ElementType]Override, len(ov.Elements))
	for name, o := range ov.Elements {
		t, err := domain.ParseElementType(name)
		if err != nil {
			return fmt.Errorf("format overrides: %w", err)
		}
		types[t] = o
	}
	if ov.DefaultFont != nil {
		r.SetDefaultFont(*ov.DefaultFont)
	}
	if ov.FontPointSizeDelta != nil {
		r.SetFontPointSizeDelta(*ov.FontPointSizeDelta)
	}
	for t, o := range types {
		r.Update(t, o.apply)
	}
	return nil
}

func (o Override) apply(f *ElementFormat) {
	if o.FontFamily != nil {
		f.Font.Family = *o.FontFamily
	}
	if o.PointSize != nil {
		f.Font.PointSize = *o.PointSize
	}
	if o.Weight != nil {
		f.Font.Weight = *o.Weight
	}
	if o.Italic != nil {
		f.Font.Italic = *o.Italic
	}
	if o.Underline != nil {
		f.Font.Underline = *o.Underline
	}
	if o.AllCaps != nil {
		f.Font.AllCaps = *o.AllCaps
	}
	if o.LineHeight != nil {
		f.LineHeight = *o.LineHeight
	}
	if o.LineSpacingBefore != nil {
		f.LineSpacingBefore = *o.LineSpacingBefore
	}
	if o.LeftMargin != nil {
		f.LeftMargin = *o.LeftMargin
	}
	if o.RightMargin != nil {
		f.RightMargin = *o.RightMargin
	}
	if o.TextColor != nil {
		f.TextColor = *o.TextColor
	}
	if o.BackgroundColor != nil {
		f.BackgroundColor = *o.BackgroundColor
	}
	if o.Alignment != nil {
		f.Alignment = *o.Alignment
	}
	if o.DefaultLanguage != nil {
		f.DefaultLanguage = *o.DefaultLanguage
	}
}
