package ui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"karolbroda.com/duet/internal/cache"
	"karolbroda.com/duet/internal/lyrics"
	"karolbroda.com/duet/internal/mode"
	"karolbroda.com/duet/internal/player"
	"karolbroda.com/duet/internal/session"
	"karolbroda.com/duet/internal/track"
)

// sync offset steps in seconds
const (
	nudgeStep = 0.1
	shiftStep = 0.5
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderArt()
		return m, m.resize()

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case playerEventMsg:
		return m.handlePlayerEvent(msg.event)

	case artworkLoadedMsg:
		return m.handleArtworkLoaded(msg)

	case lyricsLoadedMsg:
		return m.handleLyricsLoaded(msg)

	case indicatorExpiredMsg:
		m.session.Indicators().Dismiss(msg.seq)
		return m, nil

	case offsetSavedMsg:
		if msg.err != nil && !errors.Is(msg.err, cache.ErrCacheMiss) && !errors.Is(msg.err, cache.ErrCacheExpired) {
			m.log.Warn("failed to save sync offset", zap.Error(msg.err))
		}
		return m, nil

	case lineCopiedMsg:
		if msg.err != nil {
			m.log.Warn("failed to copy lyric line", zap.Error(msg.err))
		}
		return m, nil

	case tickMsg:
		return m.handleTick()

	case frameMsg:
		return m.handleFrame()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.CycleMode):
		return m.applyTransition(m.session.Cycle())

	case key.Matches(msg, m.keys.Focus):
		return m.applyTransition(m.session.ToggleFocus())

	case key.Matches(msg, m.keys.Header):
		m.hideHeader = !m.hideHeader
		return m, m.resize()

	case key.Matches(msg, m.keys.NudgeLater):
		return m.adjustOffset(nudgeStep)
	case key.Matches(msg, m.keys.NudgeEarly):
		return m.adjustOffset(-nudgeStep)
	case key.Matches(msg, m.keys.ShiftLater):
		return m.adjustOffset(shiftStep)
	case key.Matches(msg, m.keys.ShiftEarly):
		return m.adjustOffset(-shiftStep)
	case key.Matches(msg, m.keys.ResetOffset):
		return m.setOffset(0)
	case key.Matches(msg, m.keys.CopyLine):
		return m, m.copyLineCmd()

	case key.Matches(msg, m.keys.BoldOriginal):
		m.prefs.boldOriginal = m.togglePref(session.KeyBoldOriginal, m.prefs.boldOriginal)
	case key.Matches(msg, m.keys.BoldTranslation):
		m.prefs.boldTranslation = m.togglePref(session.KeyBoldTranslation, m.prefs.boldTranslation)
	case key.Matches(msg, m.keys.ItalicOriginal):
		m.prefs.italicOriginal = m.togglePref(session.KeyItalicOriginal, m.prefs.italicOriginal)
	case key.Matches(msg, m.keys.ItalicTranslation):
		m.prefs.italicTranslation = m.togglePref(session.KeyItalicTranslation, m.prefs.italicTranslation)
	}

	return m, nil
}

func (m *Model) togglePref(name string, current bool) bool {
	next := !current
	if m.settings != nil {
		if err := m.settings.SetBool(name, next); err != nil {
			m.log.Warn("failed to save preference", zap.String("key", name), zap.Error(err))
		}
	}
	return next
}

// applyTransition follows a mode or focus change: the header may appear or go
// away, and a new indicator needs its dismissal scheduled.
func (m Model) applyTransition(t mode.Transition) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if t.Indicator != nil {
		cmds = append(cmds, indicatorCmd(t.Indicator.Seq, m.session.Indicators().TTL()))
	}
	if !t.To.Active() {
		m.anim.Reset()
	}
	if t.ModeChanged() {
		cmds = append(cmds, m.afterLayout())
	}
	if t.FocusEntered || t.FocusExited {
		cmds = append(cmds, m.resize())
	}

	return m, tea.Batch(cmds...)
}

func (m Model) adjustOffset(delta float64) (tea.Model, tea.Cmd) {
	return m.setOffset(m.session.Offset() + delta)
}

func (m Model) setOffset(offset float64) (tea.Model, tea.Cmd) {
	before := m.session.Offset()
	after := m.session.SetOffset(offset)
	if after == before {
		return m, nil
	}
	m.log.Debug("sync offset changed", zap.Float64("offset", after))
	return m, tea.Batch(m.afterLayout(), m.saveOffsetCmd(after))
}

func (m Model) handlePlayerEvent(event player.EventData) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.listenForPlayerEvents()}

	switch event.Type {
	case player.EventTrackChanged:
		return m.handleTrackChange(event.Track, event.Position, cmds)

	case player.EventSeeked:
		m.position = event.Position
		m.anim.Reset()
		if m.session.Seek(event.Position) {
			cmds = append(cmds, m.afterLayout())
		}

	case player.EventPlaybackStateChanged:
		m.playing = event.Playing
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleTrackChange(next *track.Info, position float64, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	if next.IsSameTrack(m.track) && m.track != nil {
		return m, tea.Batch(cmds...)
	}

	m = m.resetForNewTrack()
	m.track = next
	m.position = position

	if next == nil || !next.IsValid() {
		m.err = errors.New("no track playing")
		m.loadingState = LoadingNone
		return m, tea.Batch(cmds...)
	}

	m.log.Info("track changed", zap.String("track", next.String()))

	fetchArt := next.ArtworkURL != ""
	if fetchArt {
		cmds = append(cmds, m.fetchArtworkCmd(next))
	}
	m.loadingState = m.loadingState.with(true, fetchArt)
	cmds = append(cmds, m.fetchLyricsCmd(next), m.resize())

	return m, tea.Batch(cmds...)
}

func (m Model) handleArtworkLoaded(msg artworkLoadedMsg) (tea.Model, tea.Cmd) {
	if !msg.track.IsSameTrack(m.track) {
		return m, nil
	}
	m.loadingState = m.loadingState.with(m.loadingState.IsLoadingLyrics(), false)

	if msg.err != nil {
		m.log.Debug("artwork unavailable", zap.Error(msg.err))
		return m, nil
	}

	m.image = msg.image
	m.setPalette(msg.palette)
	m.renderArt()
	return m, m.resize()
}

func (m Model) handleLyricsLoaded(msg lyricsLoadedMsg) (tea.Model, tea.Cmd) {
	if !msg.track.IsSameTrack(m.track) {
		return m, nil
	}
	m.loadingState = m.loadingState.with(false, m.loadingState.IsLoadingArtwork())

	if msg.err != nil {
		if errors.Is(msg.err, lyrics.ErrNoLyrics) {
			// a loaded but empty sequence shows the no lyrics notice
			m.session.Load(nil, 0)
			m.err = nil
		} else {
			m.session.Unload()
			m.err = msg.err
		}
		m.log.Info("no lyrics for track", zap.String("track", m.track.String()), zap.Error(msg.err))
		return m, nil
	}

	offset := msg.offset
	if offset == 0 {
		offset = m.syncOffset
	}

	m.err = nil
	m.source = msg.source
	m.session.Load(msg.lines, offset)
	m.anim.Reset()
	m.lastActive = -1
	m.log.Info("lyrics loaded",
		zap.String("source", string(msg.source)),
		zap.Int("lines", len(msg.lines)),
	)

	m.session.Seek(m.position)
	return m, m.afterLayout()
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd()}

	if m.player == nil {
		return m, tea.Batch(cmds...)
	}

	if err := m.player.Poll(); err != nil {
		return m, tea.Batch(cmds...)
	}

	state := m.player.GetState()
	m.position = state.Position
	m.playing = state.Playing

	if m.session.Tick(state.Position) {
		cmds = append(cmds, m.afterLayout())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleFrame() (tea.Model, tea.Cmd) {
	m.framePending = false
	plan := m.session.Plan()

	settled := m.anim.Step(plan)
	if settled && !fading(plan, m.now()) {
		return m, nil
	}
	return m, m.startFrames()
}
