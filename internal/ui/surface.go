package ui

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"karolbroda.com/duet/internal/layout"
	"karolbroda.com/duet/internal/session"
	"karolbroda.com/duet/internal/terminal"
)

// textRow is one terminal row of a wrapped lyric row.
type textRow struct {
	text string
	role session.Role
}

// surface is the lyrics area as the layout engine sees it. Geometry is in
// pixels, terminal.CellHeight per row, relative to the middle of the area.
// Lines are pinned inside the area, so a short terminal makes neighbours
// collide with the active line.
type surface struct {
	rows   func(index int) []session.Row
	width  int
	height int

	placed  map[int]layout.Slot
	wrapped map[int][]textRow
}

func newSurface(rows func(index int) []session.Row) *surface {
	return &surface{
		rows:    rows,
		placed:  map[int]layout.Slot{},
		wrapped: map[int][]textRow{},
	}
}

// SetSize reports whether the area changed.
func (s *surface) SetSize(width, height int) bool {
	if width == s.width && height == s.height {
		return false
	}
	s.width, s.height = width, height
	return true
}

func (s *surface) Flush(slots []layout.Slot) {
	s.placed = make(map[int]layout.Slot, len(slots))
	s.wrapped = make(map[int][]textRow, len(slots))
	for _, slot := range slots {
		s.placed[slot.Index] = slot
		s.wrapped[slot.Index] = s.wrap(slot.Index)
	}
}

func (s *surface) Measure(index int) (layout.Extent, bool) {
	slot, ok := s.placed[index]
	if !ok || s.height <= 0 {
		return layout.Extent{}, false
	}
	n := len(s.wrapped[index])
	if n == 0 {
		return layout.Extent{}, false
	}

	h := float64(n * terminal.CellHeight)
	top := s.pin(slot.Offset-h/2, h)
	return layout.Extent{Height: h, Scale: 1, Top: top, Bottom: top + h}, true
}

func (s *surface) limit() float64 {
	return float64(s.height*terminal.CellHeight) / 2
}

// pin keeps a box of height h inside the area, favouring its top edge when it
// cannot fit.
func (s *surface) pin(top, h float64) float64 {
	lim := s.limit()
	if top+h > lim {
		top = lim - h
	}
	if top < -lim {
		top = -lim
	}
	return top
}

// TopRow is the terminal row a line starts on when drawn at offset.
func (s *surface) TopRow(index int, offset float64) int {
	h := float64(len(s.wrapped[index]) * terminal.CellHeight)
	top := s.pin(offset-h/2, h)
	return int(math.Round((top + s.limit()) / terminal.CellHeight))
}

func (s *surface) Rows(index int) []textRow {
	return s.wrapped[index]
}

func (s *surface) wrap(index int) []textRow {
	if s.rows == nil {
		return nil
	}
	width := s.width - 4
	if width < 10 {
		width = 10
	}

	var out []textRow
	for _, r := range s.rows(index) {
		for _, text := range wrapText(r.Text, width) {
			out = append(out, textRow{text: text, role: r.Role})
		}
	}
	return out
}

// wrapText breaks text at spaces to fit width columns. Words wider than a row,
// typical for CJK lines without spaces, break between runes. Always returns at
// least one row.
func wrapText(text string, width int) []string {
	if width < 1 {
		width = 1
	}

	var out []string
	var cur strings.Builder
	curW := 0
	flush := func() {
		out = append(out, cur.String())
		cur.Reset()
		curW = 0
	}

	for _, word := range strings.Fields(text) {
		ww := runewidth.StringWidth(word)

		if ww > width {
			if curW > 0 {
				flush()
			}
			for _, r := range word {
				rw := runewidth.RuneWidth(r)
				if curW+rw > width && curW > 0 {
					flush()
				}
				cur.WriteRune(r)
				curW += rw
			}
			continue
		}

		if curW > 0 && curW+1+ww > width {
			flush()
		}
		if curW > 0 {
			cur.WriteByte(' ')
			curW++
		}
		cur.WriteString(word)
		curW += ww
	}

	if curW > 0 || len(out) == 0 {
		flush()
	}
	return out
}
