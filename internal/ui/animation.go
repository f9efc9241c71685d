package ui

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"

	"karolbroda.com/duet/internal/layout"
)

const (
	frameRate = 30
	// close enough to snap, in pixels and pixels per frame
	settleDistance = 0.5
)

type motion struct {
	pos float64
	vel float64
}

// animator eases every placed line toward its planned offset with a spring,
// so a line change scrolls instead of jumping.
type animator struct {
	spring harmonica.Spring
	lines  map[int]*motion
	glow   float64
}

func newAnimator() *animator {
	return &animator{
		spring: harmonica.NewSpring(harmonica.FPS(frameRate), 7.0, 0.85),
		lines:  map[int]*motion{},
	}
}

func (a *animator) Reset() {
	a.lines = map[int]*motion{}
	a.glow = 0
}

// Retarget follows a new plan. Lines entering the window start displaced by
// as much as the previous active line still has to travel.
func (a *animator) Retarget(plan layout.Plan, prevActive int) {
	shift := 0.0
	if plan.Active != prevActive {
		if m, ok := a.lines[prevActive]; ok {
			if slot, ok := plan.Slot(prevActive); ok {
				shift = m.pos - slot.Offset
			}
		}
		if len(a.lines) > 0 {
			a.glow = 1
		}
	}

	next := make(map[int]*motion, len(plan.Slots))
	for _, slot := range plan.Slots {
		if m, ok := a.lines[slot.Index]; ok {
			next[slot.Index] = m
			continue
		}
		next[slot.Index] = &motion{pos: slot.Offset + shift}
	}
	a.lines = next
}

// Step advances one frame and reports whether everything has settled.
func (a *animator) Step(plan layout.Plan) bool {
	settled := true
	for _, slot := range plan.Slots {
		m, ok := a.lines[slot.Index]
		if !ok {
			continue
		}
		m.pos, m.vel = a.spring.Update(m.pos, m.vel, slot.Offset)
		if math.Abs(m.pos-slot.Offset) < settleDistance && math.Abs(m.vel) < settleDistance {
			m.pos, m.vel = slot.Offset, 0
			continue
		}
		settled = false
	}

	if a.glow > 0 {
		a.glow *= 0.85
		if a.glow < 0.01 {
			a.glow = 0
		} else {
			settled = false
		}
	}
	return settled
}

func (a *animator) Offset(index int, target float64) float64 {
	if m, ok := a.lines[index]; ok {
		return m.pos
	}
	return target
}

func (a *animator) Glow() float64 {
	return a.glow
}

// fading reports whether a suppressed line in the plan is still fading out.
func fading(plan layout.Plan, now time.Time) bool {
	for _, s := range plan.Slots {
		if s.Suppressed && now.Before(s.FadeUntil) {
			return true
		}
	}
	return false
}

// fadeAlpha is how opaque a suppressed line is at now, 1 at the start of its
// fade and 0 once FadeUntil has passed.
func fadeAlpha(slot layout.Slot, fade time.Duration, now time.Time) float64 {
	if !slot.Suppressed {
		return 1
	}
	if fade <= 0 {
		return 0
	}
	left := slot.FadeUntil.Sub(now)
	if left <= 0 {
		return 0
	}
	return math.Min(1, float64(left)/float64(fade))
}
