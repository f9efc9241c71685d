package layout

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// Strategy picks how neighbors of the active line are spaced.
type Strategy int

const (
	// Cascade offsets up to two lines each side, spacing grows with line height.
	Cascade Strategy = iota
	// Collision offsets only the direct neighbors and hides any that would
	// still overlap the active line.
	Collision
)

func (s Strategy) String() string {
	if s == Collision {
		return "collision"
	}
	return "cascade"
}

// ParseStrategy defaults to Cascade for anything it does not know.
func ParseStrategy(s string) Strategy {
	if strings.EqualFold(strings.TrimSpace(s), "collision") {
		return Collision
	}
	return Cascade
}

const (
	DefaultBaseGap   = 20.0
	DefaultGrowth    = 0.15
	DefaultTolerance = 10.0
	DefaultFade      = 300 * time.Millisecond

	cascadeRadius   = 2
	collisionRadius = 1
)

type Config struct {
	Strategy Strategy
	// BaseGap is the fixed part of the gap between two lines, in layout units.
	BaseGap float64
	// Growth is the share of both line heights added to the gap.
	Growth float64
	// Tolerance is how far two boxes may overlap before a neighbor is hidden.
	Tolerance float64
	Fade      time.Duration
}

func DefaultConfig() Config {
	return Config{
		Strategy:  Cascade,
		BaseGap:   DefaultBaseGap,
		Growth:    DefaultGrowth,
		Tolerance: DefaultTolerance,
		Fade:      DefaultFade,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Strategy != Collision {
		c.Strategy = Cascade
	}
	if c.BaseGap < 0 {
		c.BaseGap = def.BaseGap
	}
	if c.Growth < 0 {
		c.Growth = def.Growth
	}
	if c.Tolerance < 0 {
		c.Tolerance = def.Tolerance
	}
	if c.Fade <= 0 {
		c.Fade = def.Fade
	}
	return c
}

// Radius is how many lines each side of the active one get a slot.
func (c Config) Radius() int {
	if c.Strategy == Collision {
		return collisionRadius
	}
	return cascadeRadius
}

// Fade is the direction a suppressed line slides while it fades out.
type Fade int

const (
	FadeNone Fade = iota
	FadeUp
	FadeDown
)

func (f Fade) String() string {
	switch f {
	case FadeUp:
		return "up"
	case FadeDown:
		return "down"
	default:
		return "none"
	}
}

func fadeFor(rel int) Fade {
	if rel < 0 {
		return FadeUp
	}
	return FadeDown
}

// Extent is a line's geometry as the surface laid it out at the last flush.
// Top and Bottom are in the same units as Height, measured on the surface.
type Extent struct {
	Height float64
	Scale  float64
	Top    float64
	Bottom float64
}

func (e Extent) scaledHalf() float64 {
	scale := e.Scale
	if scale <= 0 {
		scale = 1
	}
	return e.Height / 2 * scale
}

// Slot is the placement of one line for the current pass.
type Slot struct {
	Index   int
	Rel     int
	Visible bool
	// Offset is the vertical distance from the active line's center, negative
	// above it.
	Offset     float64
	Suppressed bool
	Fade       Fade
	// FadeUntil is when a suppression fade should have finished.
	FadeUntil time.Time
}

// Measurer is the rendering surface. Flush applies slots and relayouts so
// that Measure returns geometry consistent with them.
//
//go:generate mockgen -destination=mocks/measurer_mock.go -package=mocks karolbroda.com/duet/internal/layout Measurer
type Measurer interface {
	Flush(slots []Slot)
	Measure(index int) (Extent, bool)
}

// Plan is the result of a layout pass, slots ordered top to bottom.
type Plan struct {
	Active int
	Slots  []Slot
	// Noop is set when nothing could be placed, the surface should keep what it
	// shows.
	Noop bool
}

func (p Plan) Slot(index int) (Slot, bool) {
	for _, s := range p.Slots {
		if s.Index == index {
			return s, true
		}
	}
	return Slot{}, false
}

// SkipState tracks a suppressed line between passes.
type SkipState struct {
	Suppressed bool
	Direction  Fade
	Deadline   time.Time
	Offset     float64
}

// Engine computes line placement. It keeps suppression state between passes
// and is not safe for concurrent use.
type Engine struct {
	cfg  Config
	log  *zap.Logger
	now  func() time.Time
	skip map[int]SkipState
}

func NewEngine(cfg Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:  cfg.normalized(),
		log:  log,
		now:  time.Now,
		skip: make(map[int]SkipState),
	}
}

// WithClock replaces the clock used for fade deadlines.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Reset drops all suppression state, for a new track.
func (e *Engine) Reset() {
	e.skip = make(map[int]SkipState)
}

func (e *Engine) Skip(index int) (SkipState, bool) {
	s, ok := e.skip[index]
	return s, ok
}

// Layout places the lines around active. count is the length of the lyric
// sequence. With lyrics off every suppression is cleared and the plan is empty.
func (e *Engine) Layout(active int, count int, lyricsActive bool, m Measurer) Plan {
	if !lyricsActive {
		e.Reset()
		m.Flush(nil)
		return Plan{Active: active}
	}
	if active < 0 || active >= count {
		return Plan{Active: active, Noop: true}
	}

	slots := e.window(active, count)

	// geometry is only valid once the surface has seen the new window
	m.Flush(slots)

	activeExt, ok := m.Measure(active)
	if !ok {
		e.log.Debug("active line not measurable", zap.Int("index", active))
		return Plan{Active: active, Noop: true}
	}

	switch e.cfg.Strategy {
	case Collision:
		e.collide(slots, activeExt, m)
	default:
		e.cascade(slots, activeExt, m)
	}

	return Plan{Active: active, Slots: slots}
}

// window builds the slots around active and forgets suppressions that no
// longer apply.
func (e *Engine) window(active int, count int) []Slot {
	radius := e.cfg.Radius()

	for idx := range e.skip {
		rel := idx - active
		if rel == 0 || rel < -collisionRadius || rel > collisionRadius {
			delete(e.skip, idx)
		}
	}

	slots := make([]Slot, 0, 2*radius+1)
	for rel := -radius; rel <= radius; rel++ {
		idx := active + rel
		if idx < 0 || idx >= count {
			continue
		}

		slot := Slot{Index: idx, Rel: rel, Visible: true}
		if st, ok := e.skip[idx]; ok && st.Suppressed {
			slot.Suppressed = true
			slot.Fade = st.Direction
			slot.FadeUntil = st.Deadline
			slot.Offset = st.Offset
		}
		slots = append(slots, slot)
	}
	return slots
}

func (e *Engine) step(prev, next Extent) float64 {
	gap := e.cfg.BaseGap + e.cfg.Growth*(prev.Height+next.Height)
	return prev.scaledHalf() + next.scaledHalf() + gap
}

func (e *Engine) cascade(slots []Slot, activeExt Extent, m Measurer) {
	pos := make(map[int]int, len(slots))
	for i, s := range slots {
		pos[s.Rel] = i
	}

	for _, dir := range []int{-1, 1} {
		prev := activeExt
		offset := 0.0
		for k := 1; k <= cascadeRadius; k++ {
			i, ok := pos[dir*k]
			if !ok {
				break
			}
			ext, ok := m.Measure(slots[i].Index)
			if !ok {
				break
			}
			offset += e.step(prev, ext)
			slots[i].Offset = float64(dir) * offset
			prev = ext
		}
	}
}

func (e *Engine) collide(slots []Slot, activeExt Extent, m Measurer) {
	placed := false
	for i := range slots {
		s := &slots[i]
		if s.Rel == 0 || s.Suppressed {
			continue
		}
		ext, ok := m.Measure(s.Index)
		if !ok {
			continue
		}
		s.Offset = float64(s.Rel) * e.step(activeExt, ext)
		placed = true
	}
	if !placed {
		return
	}

	// boxes are read back after the surface applied the new offsets
	m.Flush(slots)

	activeBox, ok := m.Measure(slots[e.activeSlot(slots)].Index)
	if !ok {
		return
	}

	deadline := e.now().Add(e.cfg.Fade)
	for i := range slots {
		s := &slots[i]
		if s.Rel == 0 || s.Suppressed {
			continue
		}
		box, ok := m.Measure(s.Index)
		if !ok || !e.overlaps(s.Rel, box, activeBox) {
			continue
		}

		s.Suppressed = true
		s.Fade = fadeFor(s.Rel)
		s.FadeUntil = deadline
		e.skip[s.Index] = SkipState{
			Suppressed: true,
			Direction:  s.Fade,
			Deadline:   deadline,
			Offset:     s.Offset,
		}
		e.log.Debug("neighbor suppressed",
			zap.Int("index", s.Index),
			zap.Int("rel", s.Rel),
			zap.Float64("overlap_top", box.Top),
			zap.Float64("overlap_bottom", box.Bottom),
		)
	}
}

func (e *Engine) activeSlot(slots []Slot) int {
	for i, s := range slots {
		if s.Rel == 0 {
			return i
		}
	}
	return 0
}

// overlaps compares a neighbor box with the active box, allowing Tolerance
// units of overlap.
func (e *Engine) overlaps(rel int, neighbor, active Extent) bool {
	if rel < 0 {
		return neighbor.Bottom-active.Top > e.cfg.Tolerance
	}
	return active.Bottom-neighbor.Top > e.cfg.Tolerance
}
