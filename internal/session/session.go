package session

import (
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"karolbroda.com/duet/internal/layout"
	"karolbroda.com/duet/internal/lyrics"
	"karolbroda.com/duet/internal/mode"
	"karolbroda.com/duet/internal/settings"
)

type Config struct {
	Layout       layout.Config
	IndicatorTTL time.Duration
}

// Session is the lyric state of one player: the loaded lines, the active
// index, the display mode and the last layout. It is driven from a single
// goroutine.
type Session struct {
	log    *zap.Logger
	store  Store
	now    func() time.Time
	engine *layout.Engine
	coord  *mode.Coordinator

	surface layout.Measurer

	lines    []lyrics.Line
	tracker  *lyrics.Tracker
	offset   float64
	position float64
	plan     layout.Plan
	loaded   bool
}

// New restores the saved mode from store, if any. store may be nil.
func New(cfg Config, store Store, log *zap.Logger, now func() time.Time) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}

	s := &Session{
		log:     log,
		store:   store,
		now:     now,
		engine:  layout.NewEngine(cfg.Layout, log.Named("layout")).WithClock(now),
		tracker: lyrics.NewTracker(nil),
		plan:    layout.Plan{Active: -1, Noop: true},
	}
	s.coord = mode.NewCoordinator(s.restoreMode(), cfg.IndicatorTTL, now)
	return s
}

func (s *Session) restoreMode() mode.Mode {
	if s.store == nil {
		return mode.Off
	}
	raw, err := s.store.Get(KeyMode)
	if err != nil {
		if !errors.Is(err, settings.ErrNotFound) {
			s.log.Warn("failed to read saved lyrics mode", zap.Error(err))
		}
		return mode.Off
	}
	return mode.Parse(raw)
}

// Attach sets the surface layout passes measure against.
func (s *Session) Attach(surface layout.Measurer) {
	s.surface = surface
	s.tracker.Invalidate()
}

// Load replaces the lyric lines, as for a new track. offset is the per-song
// sync offset in seconds, added to every position.
func (s *Session) Load(lines []lyrics.Line, offset float64) {
	s.lines = lines
	s.tracker = lyrics.NewTracker(lines)
	s.offset = offset
	s.loaded = true
	s.engine.Reset()
	s.coord.SetTranslationAvailable(lyrics.HasTranslation(lines))
	s.plan = layout.Plan{Active: -1, Noop: true}

	s.log.Debug("lyrics loaded",
		zap.Int("lines", len(lines)),
		zap.Bool("translation", s.coord.HasTranslation()),
		zap.Float64("offset", offset),
	)
}

// Unload drops the current lines, when the player stops or the track has none
// yet.
func (s *Session) Unload() {
	s.Load(nil, 0)
	s.loaded = false
}

func (s *Session) Loaded() bool {
	return s.loaded
}

// Tick feeds a playback position in seconds. It returns true when a new
// layout was computed.
func (s *Session) Tick(position float64) bool {
	s.position = position

	idx, changed := s.tracker.Update(position + s.offset)
	if !changed {
		return false
	}

	s.relayout(idx)
	return true
}

// Seek forces a full recomputation at position.
func (s *Session) Seek(position float64) bool {
	s.tracker.Invalidate()
	return s.Tick(position)
}

// Invalidate makes the next Tick recompute the layout, for surface changes
// such as a resize.
func (s *Session) Invalidate() {
	s.tracker.Invalidate()
}

// Refresh recomputes the layout at the last known position.
func (s *Session) Refresh() bool {
	return s.Seek(s.position)
}

func (s *Session) relayout(active int) {
	if s.surface == nil {
		s.plan = layout.Plan{Active: active, Noop: true}
		return
	}
	s.plan = s.engine.Layout(active, len(s.lines), s.coord.LyricsActive(), s.surface)
}

// Cycle advances the lyrics mode once and recomputes the layout.
func (s *Session) Cycle() mode.Transition {
	return s.apply(s.coord.Cycle())
}

// ToggleFocus flips focus mode, turning lyrics off when entering it.
func (s *Session) ToggleFocus() mode.Transition {
	return s.apply(s.coord.ToggleFocus())
}

// SetMode jumps to m directly.
func (s *Session) SetMode(m mode.Mode) mode.Transition {
	return s.apply(s.coord.Set(m))
}

func (s *Session) apply(t mode.Transition) mode.Transition {
	if !t.ModeChanged() {
		return t
	}

	s.log.Debug("lyrics mode changed",
		zap.String("from", t.From.String()),
		zap.String("to", t.To.String()),
	)
	s.persistMode(t.To)
	s.Refresh()
	return t
}

func (s *Session) persistMode(m mode.Mode) {
	if s.store == nil {
		return
	}
	if err := s.store.Set(KeyMode, m.String()); err != nil {
		s.log.Warn("failed to save lyrics mode", zap.Error(err))
	}
}

// AdjustOffset shifts the sync offset by delta seconds and returns the new
// value.
func (s *Session) AdjustOffset(delta float64) float64 {
	return s.SetOffset(s.offset + delta)
}

// SetOffset changes the sync offset. Any change acts as a seek.
func (s *Session) SetOffset(offset float64) float64 {
	// repeated 0.1 nudges must not drift
	offset = math.Round(offset*1000) / 1000
	if offset == s.offset {
		return offset
	}
	s.offset = offset
	s.Refresh()
	return offset
}

func (s *Session) Offset() float64 {
	return s.offset
}

func (s *Session) Position() float64 {
	return s.position
}

func (s *Session) Mode() mode.Mode {
	return s.coord.Mode()
}

func (s *Session) Focus() bool {
	return s.coord.Focus()
}

func (s *Session) Lines() []lyrics.Line {
	return s.lines
}

func (s *Session) Active() int {
	return s.tracker.Current()
}

func (s *Session) Plan() layout.Plan {
	return s.plan
}

func (s *Session) Indicators() *mode.Indicators {
	return s.coord.Indicators()
}

// Rows projects line index under the current mode. Out of range indexes have
// no rows.
func (s *Session) Rows(index int) []Row {
	if index < 0 || index >= len(s.lines) {
		return nil
	}
	return Project(s.lines[index], s.coord.Mode())
}
