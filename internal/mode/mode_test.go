package mode

import (
	"testing"
	"time"
)

func TestNextWithTranslation(t *testing.T) {
	m := Off
	want := []Mode{Bilingual, BilingualReversed, OriginalOnly, TranslationOnly, Off}

	for i, w := range want {
		m = m.Next(true)
		if m != w {
			t.Fatalf("step %d: got %s, want %s", i+1, m, w)
		}
	}
}

func TestFullCycleVisitsEveryMode(t *testing.T) {
	seen := map[Mode]int{}
	m := Off
	for i := 0; i < len(All); i++ {
		m = m.Next(true)
		seen[m]++
	}
	for _, mode := range All {
		if seen[mode] != 1 {
			t.Errorf("mode %s visited %d times in one cycle, want 1", mode, seen[mode])
		}
	}
}

func TestNextWithoutTranslation(t *testing.T) {
	for _, start := range All {
		m := start
		for i := 0; i < 6; i++ {
			m = m.Next(false)
			if m != Off && m != OriginalOnly {
				t.Fatalf("from %s reached %s without translations", start, m)
			}
		}
	}

	if got := Off.Next(false); got != OriginalOnly {
		t.Errorf("Off.Next(false) = %s, want original", got)
	}
	if got := OriginalOnly.Next(false); got != Off {
		t.Errorf("OriginalOnly.Next(false) = %s, want off", got)
	}
	if got := Bilingual.Next(false); got != Off {
		t.Errorf("Bilingual.Next(false) = %s, want off", got)
	}
}

func TestInvalidModesNormalize(t *testing.T) {
	for _, m := range []Mode{-1, 5, 42} {
		if m.Valid() {
			t.Errorf("Mode(%d).Valid() = true", int(m))
		}
		if m.Normalize() != Off {
			t.Errorf("Mode(%d).Normalize() = %s", int(m), m.Normalize())
		}
		if m.Next(true) != Bilingual {
			t.Errorf("Mode(%d).Next(true) = %s, want the step after off", int(m), m.Next(true))
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"off", Off},
		{"Bilingual", Bilingual},
		{" reversed ", BilingualReversed},
		{"original", OriginalOnly},
		{"translation", TranslationOnly},
		{"3", BilingualReversed},
		{"9", Off},
		{"-1", Off},
		{"karaoke", Off},
		{"", Off},
	}
	for _, tt := range tests {
		if got := Parse(tt.in); got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	for _, m := range All {
		if Parse(m.String()) != m {
			t.Errorf("Parse(%q) does not round trip", m.String())
		}
	}
}

func TestIcons(t *testing.T) {
	if icon := Bilingual.Icon(); len(icon) != 2 || icon[0] != "Aあ" || icon[1] != "译" {
		t.Errorf("Bilingual.Icon() = %v", icon)
	}
	if icon := BilingualReversed.Icon(); len(icon) != 2 || icon[0] != "译" {
		t.Errorf("BilingualReversed.Icon() = %v", icon)
	}
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func TestCoordinatorCycle(t *testing.T) {
	c := NewCoordinator(Off, 0, newClock().now)
	c.SetTranslationAvailable(true)

	for _, want := range []Mode{Bilingual, BilingualReversed, OriginalOnly, TranslationOnly} {
		tr := c.Cycle()
		if tr.To != want || c.Mode() != want {
			t.Fatalf("Cycle() = %s, want %s", tr.To, want)
		}
		if !tr.ModeChanged() || tr.Indicator == nil || tr.Indicator.Mode != want {
			t.Errorf("transition to %s missing indicator: %+v", want, tr)
		}
		if !c.LyricsActive() {
			t.Errorf("LyricsActive() false in %s", want)
		}
	}

	c.Cycle()
	if c.LyricsActive() {
		t.Error("LyricsActive() true after cycling back to off")
	}
}

func TestCoordinatorWithoutTranslation(t *testing.T) {
	c := NewCoordinator(Off, 0, newClock().now)

	for i, want := range []Mode{OriginalOnly, Off, OriginalOnly, Off} {
		if got := c.Cycle().To; got != want {
			t.Fatalf("cycle %d = %s, want %s", i+1, got, want)
		}
	}
}

func TestFocusForcesLyricsOff(t *testing.T) {
	c := NewCoordinator(BilingualReversed, 0, newClock().now)
	c.SetTranslationAvailable(true)

	tr := c.ToggleFocus()
	if !tr.FocusEntered || !c.Focus() {
		t.Fatal("focus mode not entered")
	}
	if c.Mode() != Off || tr.To != Off || tr.Indicator == nil {
		t.Errorf("entering focus left mode %s, transition %+v", c.Mode(), tr)
	}

	// lyrics resume from off, and leave focus mode on the way
	tr = c.Cycle()
	if !tr.FocusExited || c.Focus() {
		t.Error("cycle did not exit focus mode")
	}
	if tr.To != Bilingual {
		t.Errorf("cycle after focus = %s, want bilingual", tr.To)
	}
}

func TestFocusToggleWhileOff(t *testing.T) {
	c := NewCoordinator(Off, 0, newClock().now)

	tr := c.ToggleFocus()
	if tr.Indicator != nil || tr.ModeChanged() {
		t.Errorf("entering focus with lyrics off should not announce a mode: %+v", tr)
	}

	tr = c.ToggleFocus()
	if !tr.FocusExited || c.Focus() {
		t.Error("second toggle did not leave focus mode")
	}
	if c.Mode() != Off {
		t.Errorf("leaving focus changed mode to %s", c.Mode())
	}
}

func TestSetRestoresMode(t *testing.T) {
	c := NewCoordinator(Mode(77), 0, newClock().now)
	if c.Mode() != Off {
		t.Fatalf("invalid initial mode kept: %s", c.Mode())
	}

	tr := c.Set(TranslationOnly)
	if c.Mode() != TranslationOnly || tr.Indicator == nil {
		t.Fatalf("Set() = %+v", tr)
	}
	if !tr.Indicator.NoTranslation || !c.MissingTranslation() {
		t.Error("translation-only without translations should flag the indicator")
	}
	if tr.Indicator.Label() != "No translation available" {
		t.Errorf("Label() = %q", tr.Indicator.Label())
	}

	if tr := c.Set(TranslationOnly); tr.Indicator != nil {
		t.Error("setting the same mode should be silent")
	}
}

func TestIndicatorSupersede(t *testing.T) {
	clock := newClock()
	c := NewCoordinator(Off, 0, clock.now)
	c.SetTranslationAvailable(true)
	ind := c.Indicators()

	first := c.Cycle().Indicator
	if first.Deadline != clock.t.Add(DefaultIndicatorTTL) {
		t.Errorf("deadline = %v, want now+1.5s", first.Deadline)
	}

	clock.advance(time.Second)
	second := c.Cycle().Indicator
	if second.Seq == first.Seq {
		t.Fatal("new transition did not get a new sequence number")
	}

	// the first timer fires after 1.5s but must not hide the second
	clock.advance(500 * time.Millisecond)
	if ind.Dismiss(first.Seq) {
		t.Error("stale dismissal hid the newer indicator")
	}
	cur, ok := ind.Current()
	if !ok || cur.Seq != second.Seq {
		t.Fatalf("Current() = %+v, %v; want second indicator", cur, ok)
	}

	clock.advance(time.Second)
	if !ind.Dismiss(second.Seq) {
		t.Error("dismissing the live indicator failed")
	}
	if _, ok := ind.Current(); ok {
		t.Error("indicator still visible after dismissal")
	}
}

func TestIndicatorExpires(t *testing.T) {
	clock := newClock()
	ind := NewIndicators(time.Second, clock.now)

	ind.Show(Bilingual, false)
	clock.advance(999 * time.Millisecond)
	if _, ok := ind.Current(); !ok {
		t.Fatal("indicator hidden before deadline")
	}
	clock.advance(time.Millisecond)
	if _, ok := ind.Current(); ok {
		t.Error("indicator visible at deadline")
	}
}

func TestIndicatorPeekLeavesState(t *testing.T) {
	clock := newClock()
	ind := NewIndicators(time.Second, clock.now)

	shown := ind.Show(OriginalOnly, false)
	if cur, ok := ind.Peek(); !ok || cur.Seq != shown.Seq {
		t.Fatalf("Peek() = %+v, %v; want the shown indicator", cur, ok)
	}

	clock.advance(time.Second)
	if _, ok := ind.Peek(); ok {
		t.Error("Peek() returned an expired indicator")
	}
	if !ind.Dismiss(shown.Seq) {
		t.Error("Peek() dropped the expired indicator")
	}
}

func TestShowsTranslation(t *testing.T) {
	want := map[Mode]bool{
		Off:               false,
		TranslationOnly:   true,
		Bilingual:         true,
		BilingualReversed: true,
		OriginalOnly:      false,
	}
	for _, m := range All {
		if got := m.ShowsTranslation(); got != want[m] {
			t.Errorf("%s.ShowsTranslation() = %v, want %v", m, got, want[m])
		}
	}
}
