package ui

import (
	"reflect"
	"testing"
	"time"

	"karolbroda.com/duet/internal/layout"
	"karolbroda.com/duet/internal/session"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"fits", "hello world", 20, []string{"hello world"}},
		{"words", "hello world foo", 11, []string{"hello world", "foo"}},
		{"cjk", "你好世界你好世界", 6, []string{"你好世", "界你好", "世界"}},
		{"mixed", "ok 你好世界", 6, []string{"ok", "你好世", "界"}},
		{"empty", "", 10, []string{""}},
		{"spaces", "   ", 10, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapText(tt.text, tt.width); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func oneRow(index int) []session.Row {
	return []session.Row{{Text: "hello", Role: session.Original}}
}

func TestSurfaceMeasurePinsToArea(t *testing.T) {
	s := newSurface(oneRow)
	if !s.SetSize(40, 5) {
		t.Fatal("first size should count as a change")
	}
	if s.SetSize(40, 5) {
		t.Error("same size reported as a change")
	}

	tests := []struct {
		offset float64
		top    float64
		row    int
	}{
		{0, -10, 2},
		{60, 30, 4},
		{-100, -50, 0},
	}

	for _, tt := range tests {
		s.Flush([]layout.Slot{{Index: 0, Offset: tt.offset, Visible: true}})

		ext, ok := s.Measure(0)
		if !ok {
			t.Fatalf("offset %v: not measurable", tt.offset)
		}
		if ext.Top != tt.top || ext.Height != 20 || ext.Bottom != tt.top+20 {
			t.Errorf("offset %v: extent = %+v, want top %v", tt.offset, ext, tt.top)
		}
		if got := s.TopRow(0, tt.offset); got != tt.row {
			t.Errorf("offset %v: top row = %d, want %d", tt.offset, got, tt.row)
		}
	}

	if _, ok := s.Measure(7); ok {
		t.Error("a line that was never placed has no extent")
	}
}

func TestSurfaceWrapsToWidth(t *testing.T) {
	s := newSurface(func(int) []session.Row {
		return []session.Row{
			{Text: "one two three four", Role: session.Original},
			{Text: "译文", Role: session.Translation},
		}
	})
	s.SetSize(14, 10)
	s.Flush([]layout.Slot{{Index: 3}})

	rows := s.Rows(3)
	want := []textRow{
		{"one two", session.Original},
		{"three four", session.Original},
		{"译文", session.Translation},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}

	ext, _ := s.Measure(3)
	if ext.Height != 60 {
		t.Errorf("height = %v, want 60", ext.Height)
	}
}

func TestAnimatorRetargetAndSettle(t *testing.T) {
	a := newAnimator()

	first := layout.Plan{Active: 0, Slots: []layout.Slot{
		{Index: 0, Rel: 0, Offset: 0},
		{Index: 1, Rel: 1, Offset: 60},
	}}
	a.Retarget(first, -1)
	if a.Glow() != 0 {
		t.Error("the first plan should not glow")
	}
	if !a.Step(first) {
		t.Fatal("lines placed at their targets are already settled")
	}

	second := layout.Plan{Active: 1, Slots: []layout.Slot{
		{Index: 0, Rel: -1, Offset: -60},
		{Index: 1, Rel: 0, Offset: 0},
		{Index: 2, Rel: 1, Offset: 60},
	}}
	a.Retarget(second, 0)

	if got := a.Offset(1, 0); got != 60 {
		t.Errorf("active line starts at %v, want 60", got)
	}
	if got := a.Offset(2, 60); got != 120 {
		t.Errorf("entering line starts at %v, want 120", got)
	}
	if a.Glow() != 1 {
		t.Errorf("glow = %v, want 1", a.Glow())
	}

	settled := false
	for i := 0; i < 10*frameRate && !settled; i++ {
		settled = a.Step(second)
	}
	if !settled {
		t.Fatal("animation never settled")
	}
	for _, slot := range second.Slots {
		if got := a.Offset(slot.Index, slot.Offset); got != slot.Offset {
			t.Errorf("line %d at %v, want %v", slot.Index, got, slot.Offset)
		}
	}

	a.Reset()
	if got := a.Offset(1, 42); got != 42 {
		t.Errorf("after reset offset = %v, want target", got)
	}
}

func TestFadeAlpha(t *testing.T) {
	now := time.Unix(100, 0)
	fade := 300 * time.Millisecond

	if got := fadeAlpha(layout.Slot{}, fade, now); got != 1 {
		t.Errorf("unsuppressed alpha = %v", got)
	}

	slot := layout.Slot{Suppressed: true, FadeUntil: now.Add(150 * time.Millisecond)}
	if got := fadeAlpha(slot, fade, now); got != 0.5 {
		t.Errorf("halfway alpha = %v, want 0.5", got)
	}
	if got := fadeAlpha(slot, fade, now.Add(time.Second)); got != 0 {
		t.Errorf("finished alpha = %v", got)
	}

	plan := layout.Plan{Slots: []layout.Slot{slot}}
	if !fading(plan, now) || fading(plan, now.Add(time.Second)) {
		t.Error("fading should follow the deadline")
	}
}
