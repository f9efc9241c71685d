package mode

import "time"

// Indicator is a short-lived notice of the mode just selected.
type Indicator struct {
	Seq           uint64
	Mode          Mode
	NoTranslation bool
	Deadline      time.Time
}

func (i Indicator) Label() string {
	if i.NoTranslation {
		return "No translation available"
	}
	return i.Mode.Label()
}

// Indicators keeps at most one indicator. A newer one replaces the current one
// and restarts the deadline; dismissals for older ones are ignored.
type Indicators struct {
	ttl time.Duration
	now func() time.Time

	seq     uint64
	current *Indicator
}

func NewIndicators(ttl time.Duration, now func() time.Time) *Indicators {
	if ttl <= 0 {
		ttl = DefaultIndicatorTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Indicators{ttl: ttl, now: now}
}

func (s *Indicators) TTL() time.Duration {
	return s.ttl
}

func (s *Indicators) Show(m Mode, noTranslation bool) Indicator {
	s.seq++
	ind := Indicator{
		Seq:           s.seq,
		Mode:          m,
		NoTranslation: noTranslation,
		Deadline:      s.now().Add(s.ttl),
	}
	s.current = &ind
	return ind
}

// Dismiss hides the indicator with the given sequence number. It returns false
// when that indicator was already superseded.
func (s *Indicators) Dismiss(seq uint64) bool {
	if s.current == nil || s.current.Seq != seq {
		return false
	}
	s.current = nil
	return true
}

// Current returns the live indicator, dropping it once its deadline passed.
func (s *Indicators) Current() (Indicator, bool) {
	if s.current == nil {
		return Indicator{}, false
	}
	if !s.now().Before(s.current.Deadline) {
		s.current = nil
		return Indicator{}, false
	}
	return *s.current, true
}

// Peek returns the live indicator without dropping an expired one.
func (s *Indicators) Peek() (Indicator, bool) {
	if s.current == nil || !s.now().Before(s.current.Deadline) {
		return Indicator{}, false
	}
	return *s.current, true
}
