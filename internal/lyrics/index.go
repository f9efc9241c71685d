package lyrics

import "sort"

// Locate returns the index of the line active at positionSeconds: the line
// right before the first one that starts strictly later. Past the last
// timestamp it stays on the last line, before the first it clamps to 0. An
// empty sequence yields -1. lines must be in non-decreasing time order.
func Locate(lines []Line, positionSeconds float64) int {
	if len(lines) == 0 {
		return -1
	}

	next := sort.Search(len(lines), func(i int) bool {
		return lines[i].Time > positionSeconds
	})
	if next == 0 {
		return 0
	}
	return next - 1
}

// Tracker maps playback positions to the active index and reports whether
// downstream work is needed.
type Tracker struct {
	lines   []Line
	current int
	force   bool
}

func NewTracker(lines []Line) *Tracker {
	return &Tracker{
		lines:   lines,
		current: -1,
		force:   true,
	}
}

// Update locates positionSeconds. changed is false when the index is the same
// as the previous call and no recomputation was requested.
func (t *Tracker) Update(positionSeconds float64) (index int, changed bool) {
	if len(t.lines) == 0 {
		t.current = -1
		t.force = false
		return -1, false
	}

	idx := Locate(t.lines, positionSeconds)
	if idx == t.current && !t.force {
		return idx, false
	}

	t.current = idx
	t.force = false
	return idx, true
}

// Invalidate resets the active index so the next Update always reports a
// change. Mode switches, track loads and seeks call this.
func (t *Tracker) Invalidate() {
	t.current = -1
	t.force = true
}

func (t *Tracker) Current() int {
	return t.current
}

func (t *Tracker) Lines() []Line {
	return t.lines
}
