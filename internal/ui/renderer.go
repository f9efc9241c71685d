package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"karolbroda.com/duet/internal/colors"
	"karolbroda.com/duet/internal/layout"
	"karolbroda.com/duet/internal/mode"
	"karolbroda.com/duet/internal/session"
	"karolbroda.com/duet/internal/terminal"
)

const (
	background = "#000000"
	errorColor = "#FF6B6B"
)

// renderLyrics paints the lyrics area, height rows of width columns.
func (m Model) renderLyrics(height, width int) []string {
	grid := make([]string, height)
	frame := m.session.Frame()
	p := m.palette
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Dim))
	mid := height / 2

	notice := func(s string) {
		if mid < len(grid) {
			grid[mid] = lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
		}
	}

	switch {
	case m.err != nil:
		notice(lipgloss.NewStyle().Foreground(lipgloss.Color(errorColor)).Render(m.err.Error()))
	case m.loadingState.IsLoadingLyrics():
		notice(m.spinner.View() + dim.Render(" loading lyrics"))
	case frame.NoLyrics:
		notice(dim.Render("♪  no lyrics"))
	case !m.session.Loaded():
		notice(dim.Render("♪"))
	case !frame.Mode.Active():
		notice(dim.Faint(true).Render("lyrics off · press l"))
	default:
		m.paintLines(grid, frame, width)
	}

	m.overlayNotices(grid, frame, width)
	return grid
}

// paintLines draws neighbours first so the active line wins any shared row.
func (m Model) paintLines(grid []string, frame session.Frame, width int) {
	now := m.now()

	for _, activePass := range []bool{false, true} {
		for _, fl := range frame.Lines {
			if !fl.Visible || len(fl.Rows) == 0 || (fl.Rel == 0) != activePass {
				continue
			}

			alpha := fadeAlpha(fl.Slot, m.fade, now)
			if alpha <= 0 {
				continue
			}

			offset := m.anim.Offset(fl.Index, fl.Offset)
			if fl.Suppressed {
				drift := (1 - alpha) * terminal.CellHeight
				if fl.Fade == layout.FadeUp {
					offset -= drift
				} else {
					offset += drift
				}
			}

			top := m.surface.TopRow(fl.Index, offset)
			for k, row := range m.surface.Rows(fl.Index) {
				y := top + k
				if y < 0 || y >= len(grid) {
					continue
				}
				grid[y] = lipgloss.PlaceHorizontal(width, lipgloss.Center, m.styleRow(row, fl.Rel, alpha))
			}
		}
	}
}

func (m Model) styleRow(row textRow, rel int, alpha float64) string {
	p := m.palette

	text := row.text
	if strings.TrimSpace(text) == "" {
		text = "···"
	}

	bold, italic := m.prefs.boldOriginal, m.prefs.italicOriginal
	if row.role == session.Translation {
		bold, italic = m.prefs.boldTranslation, m.prefs.italicTranslation
	}
	style := lipgloss.NewStyle().Bold(bold).Italic(italic)

	if rel == 0 {
		if row.role == session.Translation {
			return style.Foreground(lipgloss.Color(p.Accent)).Render(text)
		}
		grad := p.Gradient
		if g := m.anim.Glow(); g > 0.05 {
			grad = make([]string, len(p.Gradient))
			for i, c := range p.Gradient {
				grad[i] = colors.Glow(c, g*0.5)
			}
		}
		return colors.GradientText(text, grad, style)
	}

	brightness := 0.55
	if rel < -1 || rel > 1 {
		brightness = 0.35
	}
	base := p.Secondary
	if row.role == session.Translation {
		base = colors.Desaturate(p.Accent, 0.4)
	}
	return style.Foreground(lipgloss.Color(colors.Fade(base, background, brightness*alpha))).Render(text)
}

// overlayNotices puts the mode indicator, or the missing translation hint, at
// the bottom of the area.
func (m Model) overlayNotices(grid []string, frame session.Frame, width int) {
	var box string
	switch {
	case frame.Indicator != nil:
		box = m.renderIndicator(frame.Indicator)
	case frame.NoTranslation:
		box = lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim)).Italic(true).
			Render("no translation available")
	default:
		return
	}

	rows := strings.Split(box, "\n")
	start := len(grid) - len(rows) - 1
	if start < 0 {
		start = 0
	}
	for i, r := range rows {
		if start+i < len(grid) {
			grid[start+i] = lipgloss.PlaceHorizontal(width, lipgloss.Center, r)
		}
	}
}

func (m Model) renderIndicator(ind *mode.Indicator) string {
	p := m.palette

	icon := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Primary)).Bold(true).
		Render(strings.Join(ind.Mode.Icon(), "\n"))
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Secondary)).Render(ind.Label())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(p.Dim)).
		Padding(0, 1).
		Render(lipgloss.JoinHorizontal(lipgloss.Center, icon, "  ", label))
}
