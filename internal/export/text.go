/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

// Plain-text screenplay layout. Every paragraph is placed on a fixed-pitch
// page using the margins, spacing, capitalization and alignment of its
// element format, so the output reads like a printed draft.

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"

	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/format"
)

const (
	// CharsPerInch is the pitch of 12pt Courier.
	CharsPerInch = 10
	// PageColumns is the width of the content area (1.5in to 8.05in).
	PageColumns = 65
	// DefaultLinesPerPage matches 6 lines per inch on Letter paper with 1in margins.
	DefaultLinesPerPage = 55
)

// Rules is the part of the format rules the layout reads.
type Rules interface {
	Element(t domain.ElementType) format.ElementFormat
}

type TextOptions struct {
	LinesPerPage int
	// PageNumbers puts "N." in the top right corner from page 2 on.
	PageNumbers bool
	// TitlePage adds a page with the centered title and author.
	TitlePage bool
}

// Page is one laid out page; lines carry no trailing whitespace.
type Page []string

// Layout places the screenplay on pages.
func Layout(sp *domain.Screenplay, rules Rules, opt TextOptions) []Page {
	lp := opt.LinesPerPage
	if lp <= 0 {
		lp = DefaultLinesPerPage
	}
	pl := &pager{linesPerPage: lp, numbers: opt.PageNumbers}
	if opt.TitlePage && sp.Title != "" {
		pl.pages = append(pl.pages, titlePage(sp, lp))
	}
	pl.newPage()
	for _, sc := range sp.Scenes {
		for _, p := range sc.Paragraphs() {
			ef := rules.Element(p.Type())
			lines := layoutParagraph(p.Text(), ef)
			if len(lines) == 0 {
				continue
			}
			pl.place(lines, int(math.Round(ef.LineSpacingBefore)))
		}
	}
	return pl.finish()
}

// WriteText writes the laid out pages to w, separated by form feeds.
func WriteText(w io.Writer, sp *domain.Screenplay, rules Rules, opt TextOptions) error {
	bw := bufio.NewWriter(w)
	for i, pg := range Layout(sp, rules, opt) {
		if i > 0 {
			_, _ = bw.WriteString("\f")
		}
		for _, line := range pg {
			_, _ = bw.WriteString(line)
			_, _ = bw.WriteString("\n")
		}
	}
	return bw.Flush()
}

func titlePage(sp *domain.Screenplay, lines int) Page {
	pg := make(Page, lines/3, lines)
	pg = append(pg, center(strings.ToUpper(sp.Title), PageColumns))
	if sp.Author != "" {
		pg = append(pg, "", center("by", PageColumns), "", center(sp.Author, PageColumns))
	}
	return pg
}

func center(s string, width int) string {
	pad := (width - uniseg.StringWidth(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}

// layoutParagraph wraps text into the columns between the element's margins
// and applies indentation and alignment. Empty paragraphs produce no lines.
func layoutParagraph(text string, ef format.ElementFormat) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if ef.Font.AllCaps {
		text = strings.ToUpper(text)
	}
	left := columns(ef.LeftMargin)
	width := PageColumns - left - columns(ef.RightMargin)
	if width < 1 {
		width = 1
	}
	indent := strings.Repeat(" ", left)
	wrapped := wrap(text, width)
	for i, line := range wrapped {
		pad := 0
		switch ef.Alignment {
		case format.AlignRight:
			pad = width - uniseg.StringWidth(line)
		case format.AlignCenter:
			pad = (width - uniseg.StringWidth(line)) / 2
		}
		if pad < 0 {
			pad = 0
		}
		wrapped[i] = indent + strings.Repeat(" ", pad) + line
	}
	return wrapped
}

func columns(inches float64) int {
	if inches <= 0 {
		return 0
	}
	return int(math.Round(inches * CharsPerInch))
}

// wrap breaks text at Unicode line break opportunities so that no line is
// wider than width cells. A single unbreakable segment wider than width is
// kept whole on its own line.
func wrap(text string, width int) []string {
	var (
		lines []string
		cur   strings.Builder
		curW  int
		state = -1
		seg   string
		must  bool
	)
	flush := func() {
		lines = append(lines, strings.TrimRight(cur.String(), " "))
		cur.Reset()
		curW = 0
	}
	rest := text
	for len(rest) > 0 {
		seg, rest, must, state = uniseg.FirstLineSegmentInString(rest, state)
		segW := uniseg.StringWidth(strings.TrimRight(seg, " "))
		if curW > 0 && curW+segW > width {
			flush()
		}
		cur.WriteString(seg)
		curW += uniseg.StringWidth(seg)
		if must && len(rest) > 0 {
			flush()
		}
	}
	if cur.Len() > 0 {
		flush()
	}
	return lines
}

type pager struct {
	linesPerPage int
	numbers      bool
	pages        []Page
	cur          Page
	bodyStart    int
	numbered     int
}

func (p *pager) newPage() {
	if p.cur != nil {
		p.pages = append(p.pages, p.cur)
	}
	p.numbered++
	p.cur = Page{}
	if p.numbers && p.numbered > 1 {
		num := strconv.Itoa(p.numbered) + "."
		p.cur = append(p.cur, strings.Repeat(" ", PageColumns-len(num))+num, "")
	}
	p.bodyStart = len(p.cur)
}

// place adds a paragraph with its leading blank lines. Blank lines at the
// top of a page are dropped, and a paragraph that does not fit moves to the
// next page unless it is longer than a whole page.
func (p *pager) place(lines []string, before int) {
	atTop := len(p.cur) == p.bodyStart
	if atTop {
		before = 0
	}
	if !atTop && len(p.cur)+before+len(lines) > p.linesPerPage && len(lines) <= p.linesPerPage-p.bodyStart {
		p.newPage()
		before = 0
	}
	for i := 0; i < before; i++ {
		p.cur = append(p.cur, "")
	}
	for _, l := range lines {
		if len(p.cur) >= p.linesPerPage {
			p.newPage()
		}
		p.cur = append(p.cur, l)
	}
}

func (p *pager) finish() []Page {
	if len(p.cur) > p.bodyStart || len(p.pages) == 0 {
		p.pages = append(p.pages, p.cur)
	}
	out := p.pages
	p.pages, p.cur = nil, nil
	return out
}
