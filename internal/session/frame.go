package session

import (
	"karolbroda.com/duet/internal/layout"
	"karolbroda.com/duet/internal/mode"
)

// FrameLine is a placed line with its text.
type FrameLine struct {
	layout.Slot
	Rows []Row
}

// Frame is everything the view needs to paint the lyrics area.
type Frame struct {
	Mode   mode.Mode
	Focus  bool
	Active int
	Lines  []FrameLine
	// Noop means the last pass could not place anything.
	Noop bool

	Indicator *mode.Indicator

	// NoLyrics is set when a track is loaded but has no lines.
	NoLyrics bool
	// NoTranslation is set when the mode asks for translations the track
	// does not have.
	NoTranslation bool
}

func (s *Session) Frame() Frame {
	f := Frame{
		Mode:          s.coord.Mode(),
		Focus:         s.coord.Focus(),
		Active:        s.tracker.Current(),
		Noop:          s.plan.Noop,
		NoLyrics:      s.loaded && len(s.lines) == 0,
		NoTranslation: s.coord.MissingTranslation() && len(s.lines) > 0,
	}

	if ind, ok := s.coord.Indicators().Peek(); ok {
		f.Indicator = &ind
	}

	if !f.Mode.Active() {
		return f
	}

	f.Lines = make([]FrameLine, 0, len(s.plan.Slots))
	for _, slot := range s.plan.Slots {
		f.Lines = append(f.Lines, FrameLine{Slot: slot, Rows: s.Rows(slot.Index)})
	}
	return f
}
