package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
	"github.com/mattn/go-runewidth"

	"karolbroda.com/duet/internal/artwork"
	"karolbroda.com/duet/internal/colors"
)

var banner = figure.NewFigure("duet", "standard", true).Slicify()

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	if m.track == nil {
		return m.renderWaitingScreen(width, height)
	}
	if m.session.Focus() {
		return m.renderFocus(width, height)
	}

	var lines []string
	if m.showHeader() {
		lines = append(lines, m.renderHeader(width)...)
	}
	lines = append(lines, m.renderLyrics(max(height-len(lines), 1), width)...)

	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines[:height], "\n")
}

func (m Model) renderWaitingScreen(width, height int) string {
	p := m.palette
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Dim))

	parts := make([]string, 0, len(banner)+4)
	for _, row := range banner {
		parts = append(parts, colors.GradientText(row, p.Gradient, lipgloss.NewStyle()))
	}
	parts = append(parts,
		"",
		m.spinner.View()+dim.Italic(true).Render(" awaiting music"),
		"",
		dim.Faint(true).Render(helpText(m.keys)),
	)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, parts...))
}

// renderFocus is the minimal view: artwork, title and progress, no lyrics.
func (m Model) renderFocus(width, height int) string {
	p := m.palette
	var parts []string

	if size := min(24, width-4); m.image != nil && height >= size/2+8 && size >= 8 {
		parts = append(parts, artwork.RenderHalfBlock(m.image, size, size/2)...)
		parts = append(parts, "")
	}

	maxW := max(width-8, 10)
	parts = append(parts,
		colors.GradientText(truncate(m.track.Title, maxW), p.Gradient, lipgloss.NewStyle().Bold(true)),
		lipgloss.NewStyle().Foreground(lipgloss.Color(p.Secondary)).Render(truncate(m.track.Artist, maxW)),
		"",
		m.renderProgress(),
	)

	if ind, ok := m.session.Indicators().Peek(); ok {
		parts = append(parts, "", m.renderIndicator(&ind))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, parts...))
}

func (m Model) renderHeader(width int) []string {
	info := m.renderTrackInfo(width)
	lines := []string{""}

	artW, artH := m.artSize()
	switch {
	case m.kittyArt != "":
		lines = append(lines, "  "+m.kittyArt)
		for i := 1; i < artH; i++ {
			lines = append(lines, "")
		}
		for _, l := range info {
			lines = append(lines, "  "+l)
		}

	default:
		rows := max(len(info), len(m.artLines))
		for i := 0; i < rows; i++ {
			var b strings.Builder
			b.WriteString("  ")
			if len(m.artLines) > 0 {
				if i < len(m.artLines) {
					b.WriteString(m.artLines[i])
				} else {
					b.WriteString(strings.Repeat(" ", artW))
				}
				b.WriteString("  ")
			}
			if i < len(info) {
				b.WriteString(info[i])
			}
			lines = append(lines, b.String())
		}
	}

	return append(lines, "", m.renderProgress(), "")
}

func (m Model) renderTrackInfo(width int) []string {
	p := m.palette
	maxW := max(width-20, 20)

	title := colors.GradientText(truncate(m.track.Title, maxW), p.Gradient, lipgloss.NewStyle().Bold(true))
	artist := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Secondary)).Render(truncate(m.track.Artist, maxW))
	album := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Dim)).Render(truncate(m.track.Album, maxW))

	return []string{title, artist, album, m.renderStatus()}
}

// renderStatus shows the mode icon, the sync offset and where the lyrics came
// from.
func (m Model) renderStatus() string {
	p := m.palette
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Dim))
	icon := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Accent))

	md := m.session.Mode()
	parts := []string{icon.Render(strings.Join(md.Icon(), "")) + dim.Render(" "+md.Label())}
	if off := m.session.Offset(); off != 0 {
		parts = append(parts, dim.Render(fmt.Sprintf("offset %+.1fs", off)))
	}
	if m.source != "" {
		parts = append(parts, dim.Render(string(m.source)))
	}
	return strings.Join(parts, dim.Render(" · "))
}

func (m Model) renderProgress() string {
	if m.track == nil || m.track.DurationSecs <= 0 {
		return ""
	}

	pct := m.position / m.track.DurationSecs
	pct = min(max(pct, 0), 1)

	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))
	return fmt.Sprintf("  %s  %s  %s",
		timeStyle.Render(colors.FormatTime(m.position)),
		m.progress.ViewAs(pct),
		timeStyle.Render(colors.FormatTime(m.track.DurationSecs)),
	)
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
