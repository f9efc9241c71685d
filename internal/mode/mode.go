package mode

import (
	"strconv"
	"strings"
)

// Mode selects which text of a lyric line is shown and in what order.
type Mode int

const (
	Off Mode = iota
	TranslationOnly
	Bilingual
	BilingualReversed
	OriginalOnly
)

var All = []Mode{Off, TranslationOnly, Bilingual, BilingualReversed, OriginalOnly}

func (m Mode) Valid() bool {
	return m >= Off && m <= OriginalOnly
}

// Normalize maps anything outside the enumeration to Off.
func (m Mode) Normalize() Mode {
	if !m.Valid() {
		return Off
	}
	return m
}

func (m Mode) Active() bool {
	return m.Normalize() != Off
}

// Next is the mode one cycle command moves to. Without translations only Off
// and OriginalOnly are reachable.
func (m Mode) Next(hasTranslation bool) Mode {
	m = m.Normalize()

	if !hasTranslation {
		if m == Off {
			return OriginalOnly
		}
		return Off
	}

	switch m {
	case Off:
		return Bilingual
	case Bilingual:
		return BilingualReversed
	case BilingualReversed:
		return OriginalOnly
	case OriginalOnly:
		return TranslationOnly
	default:
		return Off
	}
}

// ShowsTranslation reports whether the mode puts translation text on screen.
func (m Mode) ShowsTranslation() bool {
	switch m {
	case TranslationOnly, Bilingual, BilingualReversed:
		return true
	default:
		return false
	}
}

// String is the stable name used in settings and on the command line.
func (m Mode) String() string {
	switch m {
	case TranslationOnly:
		return "translation"
	case Bilingual:
		return "bilingual"
	case BilingualReversed:
		return "reversed"
	case OriginalOnly:
		return "original"
	default:
		return "off"
	}
}

// Label is the human readable name shown in the indicator.
func (m Mode) Label() string {
	switch m {
	case TranslationOnly:
		return "Translation"
	case Bilingual:
		return "Bilingual"
	case BilingualReversed:
		return "Bilingual (reversed)"
	case OriginalOnly:
		return "Original"
	default:
		return "Lyrics off"
	}
}

// Icon returns the indicator glyph rows, top to bottom.
func (m Mode) Icon() []string {
	switch m {
	case TranslationOnly:
		return []string{"译"}
	case Bilingual:
		return []string{"Aあ", "译"}
	case BilingualReversed:
		return []string{"译", "Aあ"}
	case OriginalOnly:
		return []string{"Aあ"}
	default:
		return []string{"○"}
	}
}

// Parse accepts a mode name or its number. Anything else is Off.
func Parse(s string) Mode {
	s = strings.ToLower(strings.TrimSpace(s))

	if n, err := strconv.Atoi(s); err == nil {
		return Mode(n).Normalize()
	}

	switch s {
	case "translation", "translation-only":
		return TranslationOnly
	case "bilingual", "dual":
		return Bilingual
	case "reversed", "bilingual-reversed":
		return BilingualReversed
	case "original", "original-only":
		return OriginalOnly
	default:
		return Off
	}
}
