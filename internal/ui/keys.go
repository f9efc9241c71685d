package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit        key.Binding
	CycleMode   key.Binding
	Focus       key.Binding
	Header      key.Binding
	NudgeLater  key.Binding
	NudgeEarly  key.Binding
	ShiftLater  key.Binding
	ShiftEarly  key.Binding
	ResetOffset key.Binding
	CopyLine    key.Binding

	BoldOriginal      key.Binding
	BoldTranslation   key.Binding
	ItalicOriginal    key.Binding
	ItalicTranslation key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit:        key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	CycleMode:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lyrics mode")),
	Focus:       key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "focus")),
	Header:      key.NewBinding(key.WithKeys("tab", "i"), key.WithHelp("tab", "header")),
	NudgeLater:  key.NewBinding(key.WithKeys("+", "=", "up", "k"), key.WithHelp("+/-", "offset 0.1s")),
	NudgeEarly:  key.NewBinding(key.WithKeys("-", "down", "j")),
	ShiftLater:  key.NewBinding(key.WithKeys("]", "right"), key.WithHelp("[/]", "offset 0.5s")),
	ShiftEarly:  key.NewBinding(key.WithKeys("[", "left", "h")),
	ResetOffset: key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset offset")),
	CopyLine:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy line")),

	BoldOriginal:      key.NewBinding(key.WithKeys("b"), key.WithHelp("b/B", "bold")),
	BoldTranslation:   key.NewBinding(key.WithKeys("B")),
	ItalicOriginal:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t/T", "italic")),
	ItalicTranslation: key.NewBinding(key.WithKeys("T")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	var out []key.Binding
	for _, b := range []key.Binding{
		k.CycleMode, k.Focus, k.Header, k.NudgeLater, k.ShiftLater,
		k.ResetOffset, k.CopyLine, k.BoldOriginal, k.ItalicOriginal, k.Quit,
	} {
		if b.Help().Key != "" {
			out = append(out, b)
		}
	}
	return out
}

func helpText(k KeyMap) string {
	s := ""
	for i, b := range k.ShortHelp() {
		if i > 0 {
			s += "  "
		}
		s += b.Help().Key + " " + b.Help().Desc
	}
	return s
}
