package mode

import "time"

// DefaultIndicatorTTL is how long a mode indicator stays up.
const DefaultIndicatorTTL = 1500 * time.Millisecond

// Transition describes what one command did.
type Transition struct {
	From Mode
	To   Mode

	// FocusEntered/FocusExited report focus mode flips caused by the command.
	FocusEntered bool
	FocusExited  bool

	// Indicator is set when the command changed the lyrics mode.
	Indicator *Indicator
}

// ModeChanged reports whether layout must be recomputed for the new mode.
func (t Transition) ModeChanged() bool {
	return t.From != t.To
}

// Coordinator owns the lyrics mode and focus mode, which are never on at the
// same time.
type Coordinator struct {
	mode           Mode
	focus          bool
	hasTranslation bool

	indicators *Indicators
}

func NewCoordinator(initial Mode, indicatorTTL time.Duration, now func() time.Time) *Coordinator {
	return &Coordinator{
		mode:       initial.Normalize(),
		indicators: NewIndicators(indicatorTTL, now),
	}
}

func (c *Coordinator) Mode() Mode {
	return c.mode
}

func (c *Coordinator) Focus() bool {
	return c.focus
}

func (c *Coordinator) LyricsActive() bool {
	return c.mode.Active()
}

func (c *Coordinator) HasTranslation() bool {
	return c.hasTranslation
}

func (c *Coordinator) Indicators() *Indicators {
	return c.indicators
}

// SetTranslationAvailable switches between the full and the two-state cycle.
// It is called once per loaded track and does not change the current mode.
func (c *Coordinator) SetTranslationAvailable(ok bool) {
	c.hasTranslation = ok
}

// MissingTranslation is true when the current mode wants translation text the
// loaded track does not have.
func (c *Coordinator) MissingTranslation() bool {
	return c.mode == TranslationOnly && !c.hasTranslation
}

// Cycle advances the lyrics mode exactly once, leaving focus mode first.
func (c *Coordinator) Cycle() Transition {
	t := Transition{From: c.mode}

	if c.focus {
		c.focus = false
		t.FocusExited = true
	}

	c.mode = c.mode.Next(c.hasTranslation)
	t.To = c.mode
	t.Indicator = c.announce()
	return t
}

// ToggleFocus enters or leaves focus mode. Entering turns lyrics fully off so
// the next Cycle starts again from Off.
func (c *Coordinator) ToggleFocus() Transition {
	t := Transition{From: c.mode, To: c.mode}

	if c.focus {
		c.focus = false
		t.FocusExited = true
		return t
	}

	if c.mode != Off {
		c.mode = Off
		t.To = Off
		t.Indicator = c.announce()
	}
	c.focus = true
	t.FocusEntered = true
	return t
}

// Set jumps straight to m, as when restoring a saved preference. Invalid values
// become Off.
func (c *Coordinator) Set(m Mode) Transition {
	t := Transition{From: c.mode, To: m.Normalize()}
	if t.To == t.From {
		return t
	}
	if t.To.Active() && c.focus {
		c.focus = false
		t.FocusExited = true
	}
	c.mode = t.To
	t.Indicator = c.announce()
	return t
}

func (c *Coordinator) announce() *Indicator {
	ind := c.indicators.Show(c.mode, c.MissingTranslation())
	return &ind
}
