package layout

import (
	"math"
	"testing"
	"time"
)

// surface stacks lines around the active one using the offsets it was
// flushed with. limit, when set, keeps every box inside [-limit, limit] the
// way a short terminal pins lines to its edges.
type surface struct {
	heights map[int]float64
	scales  map[int]float64
	limit   float64

	flushes  int
	placed   map[int]Slot
	measured []int
}

func newSurface(heights map[int]float64) *surface {
	return &surface{heights: heights, scales: map[int]float64{}}
}

func (s *surface) Flush(slots []Slot) {
	s.flushes++
	s.placed = make(map[int]Slot, len(slots))
	for _, slot := range slots {
		s.placed[slot.Index] = slot
	}
}

func (s *surface) Measure(index int) (Extent, bool) {
	s.measured = append(s.measured, index)

	slot, ok := s.placed[index]
	if !ok {
		return Extent{}, false
	}
	h, ok := s.heights[index]
	if !ok {
		return Extent{}, false
	}
	scale := s.scales[index]
	if scale == 0 {
		scale = 1
	}

	half := h * scale / 2
	center := slot.Offset
	if s.limit > 0 {
		if center-half < -s.limit {
			center = -s.limit + half
		}
		if center+half > s.limit {
			center = s.limit - half
		}
	}
	return Extent{Height: h, Scale: scale, Top: center - half, Bottom: center + half}, true
}

func uniform(n int, h float64) map[int]float64 {
	m := make(map[int]float64, n)
	for i := 0; i < n; i++ {
		m[i] = h
	}
	return m
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func offsets(p Plan) map[int]float64 {
	m := make(map[int]float64, len(p.Slots))
	for _, s := range p.Slots {
		m[s.Rel] = s.Offset
	}
	return m
}

func TestCascadeOffsets(t *testing.T) {
	heights := uniform(10, 20)
	heights[5] = 40
	s := newSurface(heights)
	s.scales[5] = 1.2

	e := NewEngine(DefaultConfig(), nil)
	plan := e.Layout(5, 10, true, s)

	if plan.Noop || len(plan.Slots) != 5 {
		t.Fatalf("Layout() = %+v, want five slots", plan)
	}

	// active to neighbor: 40/2*1.2 + 20/2 + 20 + 0.15*60 = 63
	// neighbor to next:   10 + 10 + 20 + 0.15*40 = 46
	want := map[int]float64{-2: -109, -1: -63, 0: 0, 1: 63, 2: 109}
	got := offsets(plan)
	for rel, w := range want {
		if !approx(got[rel], w) {
			t.Errorf("offset[%d] = %v, want %v", rel, got[rel], w)
		}
	}

	for i := 1; i < len(plan.Slots); i++ {
		if plan.Slots[i].Rel <= plan.Slots[i-1].Rel {
			t.Errorf("slots not ordered by rel: %+v", plan.Slots)
		}
	}
}

func TestCascadeWiderAroundWrappedLines(t *testing.T) {
	short := NewEngine(DefaultConfig(), nil).Layout(2, 5, true, newSurface(uniform(5, 20)))

	tall := uniform(5, 20)
	tall[3] = 60
	wide := NewEngine(DefaultConfig(), nil).Layout(2, 5, true, newSurface(tall))

	if offsets(wide)[1] <= offsets(short)[1] {
		t.Errorf("a wrapped neighbor should sit further away: %v vs %v", offsets(wide)[1], offsets(short)[1])
	}
	if offsets(wide)[-1] != offsets(short)[-1] {
		t.Errorf("the other side should be unaffected: %v vs %v", offsets(wide)[-1], offsets(short)[-1])
	}
}

func TestCascadeNeverOverlaps(t *testing.T) {
	heights := map[int]float64{0: 20, 1: 60, 2: 40, 3: 20, 4: 80}
	s := newSurface(heights)
	plan := NewEngine(DefaultConfig(), nil).Layout(2, 5, true, s)

	var prevBottom float64
	for i, slot := range plan.Slots {
		h := heights[slot.Index]
		top := slot.Offset - h/2
		if i > 0 && top < prevBottom {
			t.Errorf("slot rel %d top %v overlaps previous bottom %v", slot.Rel, top, prevBottom)
		}
		prevBottom = slot.Offset + h/2
	}
}

func TestEdgesOmitSlots(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)

	first := e.Layout(0, 4, true, newSurface(uniform(4, 20)))
	if len(first.Slots) != 3 || first.Slots[0].Rel != 0 {
		t.Errorf("first line: slots = %+v, want rel 0..2", first.Slots)
	}

	last := e.Layout(3, 4, true, newSurface(uniform(4, 20)))
	if len(last.Slots) != 3 || last.Slots[2].Rel != 0 {
		t.Errorf("last line: slots = %+v, want rel -2..0", last.Slots)
	}

	single := e.Layout(0, 1, true, newSurface(uniform(1, 20)))
	if len(single.Slots) != 1 || single.Slots[0].Offset != 0 {
		t.Errorf("single line: slots = %+v", single.Slots)
	}
}

func TestNoopWithoutActiveGeometry(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)

	plan := e.Layout(3, 5, true, newSurface(map[int]float64{2: 20, 4: 20}))
	if !plan.Noop || len(plan.Slots) != 0 {
		t.Errorf("Layout() = %+v, want no-op", plan)
	}

	for _, active := range []int{-1, 5} {
		s := newSurface(uniform(5, 20))
		if plan := e.Layout(active, 5, true, s); !plan.Noop {
			t.Errorf("Layout(%d) = %+v, want no-op", active, plan)
		}
		if s.flushes != 0 {
			t.Errorf("Layout(%d) flushed an invalid window", active)
		}
	}

	if plan := e.Layout(0, 0, true, newSurface(nil)); !plan.Noop {
		t.Errorf("empty sequence: %+v, want no-op", plan)
	}
}

func TestLyricsOffClearsEverything(t *testing.T) {
	s := newSurface(uniform(5, 20))
	e := NewEngine(DefaultConfig(), nil)
	e.skip[3] = SkipState{Suppressed: true}

	plan := e.Layout(2, 5, false, s)
	if plan.Noop || len(plan.Slots) != 0 {
		t.Errorf("Layout() = %+v, want empty plan", plan)
	}
	if _, ok := e.Skip(3); ok {
		t.Error("suppression survived lyrics off")
	}
	if s.flushes != 1 || len(s.placed) != 0 {
		t.Errorf("surface not cleared: flushes=%d placed=%v", s.flushes, s.placed)
	}
}

func TestFlushPrecedesMeasure(t *testing.T) {
	s := newSurface(uniform(5, 20))
	e := NewEngine(DefaultConfig(), nil)

	e.Layout(2, 5, true, s)
	if s.flushes != 1 {
		t.Errorf("flushes = %d, want 1", s.flushes)
	}
	if len(s.measured) == 0 || s.measured[0] != 2 {
		t.Errorf("measured = %v, want the active line first", s.measured)
	}
}

func collisionEngine(clock func() time.Time) *Engine {
	cfg := DefaultConfig()
	cfg.Strategy = Collision
	return NewEngine(cfg, nil).WithClock(clock)
}

func TestCollisionWindow(t *testing.T) {
	e := collisionEngine(time.Now)
	plan := e.Layout(2, 5, true, newSurface(uniform(5, 20)))

	if len(plan.Slots) != 3 {
		t.Fatalf("slots = %+v, want rel -1..1", plan.Slots)
	}
	// 10 + 10 + 20 + 0.15*40 = 46
	got := offsets(plan)
	if !approx(got[-1], -46) || !approx(got[1], 46) {
		t.Errorf("offsets = %v, want ±46", got)
	}
	for _, slot := range plan.Slots {
		if slot.Suppressed {
			t.Errorf("slot %d suppressed with room to spare", slot.Rel)
		}
	}
}

func TestCollisionSuppressesOverlap(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	e := collisionEngine(func() time.Time { return now })

	heights := uniform(6, 20)
	heights[2] = 100
	s := newSurface(heights)
	s.limit = 55

	plan := e.Layout(2, 6, true, s)

	for _, rel := range []int{-1, 1} {
		slot, ok := plan.Slot(2 + rel)
		if !ok {
			t.Fatalf("missing slot rel %d", rel)
		}
		if !slot.Suppressed {
			t.Errorf("rel %d not suppressed", rel)
		}
		if !slot.FadeUntil.Equal(now.Add(DefaultFade)) {
			t.Errorf("rel %d fade deadline = %v", rel, slot.FadeUntil)
		}
	}
	if slot, _ := plan.Slot(1); slot.Fade != FadeUp {
		t.Errorf("line above fades %s, want up", slot.Fade)
	}
	if slot, _ := plan.Slot(3); slot.Fade != FadeDown {
		t.Errorf("line below fades %s, want down", slot.Fade)
	}
	if s.flushes != 2 {
		t.Errorf("flushes = %d, want 2 (window, then offsets)", s.flushes)
	}
}

func TestCollisionWithinTolerance(t *testing.T) {
	e := collisionEngine(time.Now)

	heights := uniform(5, 20)
	heights[2] = 100
	s := newSurface(heights)
	// neighbors pinned to overlap by exactly the tolerance
	s.limit = 60

	plan := e.Layout(2, 5, true, s)
	for _, slot := range plan.Slots {
		if slot.Suppressed {
			t.Errorf("rel %d suppressed at the tolerance boundary", slot.Rel)
		}
	}
}

func TestSuppressionIsSticky(t *testing.T) {
	e := collisionEngine(time.Now)

	heights := uniform(6, 20)
	heights[2] = 100
	s := newSurface(heights)
	s.limit = 55

	e.Layout(2, 6, true, s)
	if st, ok := e.Skip(3); !ok || !st.Suppressed {
		t.Fatal("line 3 should be suppressed")
	}

	// even with room to spare the line stays out while it is a neighbor
	s.limit = 0
	plan := e.Layout(2, 6, true, s)
	if slot, _ := plan.Slot(3); !slot.Suppressed {
		t.Error("suppression dropped while still a neighbor")
	}

	// becoming active clears it
	heights[3] = 20
	plan = e.Layout(3, 6, true, s)
	if slot, _ := plan.Slot(3); slot.Suppressed {
		t.Error("active line is suppressed")
	}
	if _, ok := e.Skip(3); ok {
		t.Error("skip state kept for the active line")
	}
}

func TestSuppressionClearedBeyondRadius(t *testing.T) {
	e := collisionEngine(time.Now)
	e.skip[1] = SkipState{Suppressed: true, Direction: FadeUp}
	e.skip[5] = SkipState{Suppressed: true, Direction: FadeDown}

	e.Layout(3, 8, true, newSurface(uniform(8, 20)))

	if _, ok := e.Skip(1); ok {
		t.Error("line two positions above kept its suppression")
	}
	if _, ok := e.Skip(5); ok {
		t.Error("line two positions below kept its suppression")
	}
}

func TestParseStrategy(t *testing.T) {
	tests := map[string]Strategy{
		"collision":  Collision,
		" Collision": Collision,
		"cascade":    Cascade,
		"":           Cascade,
		"zigzag":     Cascade,
	}
	for in, want := range tests {
		if got := ParseStrategy(in); got != want {
			t.Errorf("ParseStrategy(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestConfigNormalized(t *testing.T) {
	e := NewEngine(Config{Strategy: Strategy(9), BaseGap: -1, Growth: -1, Tolerance: -3}, nil)
	cfg := e.Config()
	if cfg.Strategy != Cascade || cfg.BaseGap != DefaultBaseGap || cfg.Tolerance != DefaultTolerance || cfg.Fade != DefaultFade {
		t.Errorf("Config() = %+v", cfg)
	}
}
