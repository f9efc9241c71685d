package session

import (
	"karolbroda.com/duet/internal/lyrics"
	"karolbroda.com/duet/internal/mode"
)

type Role int

const (
	Original Role = iota
	Translation
)

// Row is one piece of text a line puts on screen.
type Row struct {
	Text string
	Role Role
}

// Project returns the rows a line shows in mode m, top to bottom. A line with
// no translation shows its original wherever a translation would go alone, so
// a visible line is never blank.
func Project(line lyrics.Line, m mode.Mode) []Row {
	original := Row{Text: line.Text, Role: Original}
	translation := Row{Text: line.Translation, Role: Translation}

	switch m.Normalize() {
	case mode.OriginalOnly:
		return []Row{original}
	case mode.Bilingual:
		if !line.HasTranslation() {
			return []Row{original}
		}
		return []Row{original, translation}
	case mode.BilingualReversed:
		if !line.HasTranslation() {
			return []Row{original}
		}
		return []Row{translation, original}
	case mode.TranslationOnly:
		if !line.HasTranslation() {
			return []Row{original}
		}
		return []Row{translation}
	default:
		return nil
	}
}
