package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"karolbroda.com/duet/internal/artwork"
	"karolbroda.com/duet/internal/config"
	"karolbroda.com/duet/internal/layout"
	"karolbroda.com/duet/internal/lyrics"
	"karolbroda.com/duet/internal/player"
	"karolbroda.com/duet/internal/session"
	"karolbroda.com/duet/internal/terminal"
	"karolbroda.com/duet/internal/track"
)

// Player is what the viewer needs from the mpris service.
type Player interface {
	Poll() error
	GetState() player.State
	Events() <-chan player.EventData
	Stop()
}

type LyricsSource interface {
	Fetch(ctx context.Context, t *lyrics.TrackParams) (*lyrics.LrclibResponse, error)
	Cached(artist, title string) *lyrics.LrclibResponse
}

// OffsetStore keeps the per-song sync offset, *cache.DiskCache in practice.
type OffsetStore interface {
	SetOffset(artist, title string, offset float64) error
}

// Settings is the preference store, *settings.File in practice.
type Settings interface {
	session.Store
	Bool(key string, def bool) bool
	SetBool(key string, v bool) error
}

type LoadingState int

const (
	LoadingNone LoadingState = iota
	LoadingLyrics
	LoadingArtwork
	LoadingBoth
)

func (l LoadingState) IsLoadingLyrics() bool {
	return l == LoadingLyrics || l == LoadingBoth
}

func (l LoadingState) IsLoadingArtwork() bool {
	return l == LoadingArtwork || l == LoadingBoth
}

func (l LoadingState) with(lyrics, art bool) LoadingState {
	switch {
	case lyrics && art:
		return LoadingBoth
	case lyrics:
		return LoadingLyrics
	case art:
		return LoadingArtwork
	default:
		return LoadingNone
	}
}

type tickMsg time.Time

type frameMsg time.Time

type playerEventMsg struct {
	event player.EventData
}

type lyricsLoadedMsg struct {
	track  *track.Info
	lines  []lyrics.Line
	offset float64
	source lyrics.Source
	err    error
}

type artworkLoadedMsg struct {
	track   *track.Info
	image   image.Image
	palette *artwork.Palette
	err     error
}

type indicatorExpiredMsg struct {
	seq uint64
}

type offsetSavedMsg struct {
	err error
}

type lineCopiedMsg struct {
	err error
}

type prefs struct {
	boldOriginal      bool
	boldTranslation   bool
	italicOriginal    bool
	italicTranslation bool
}

type ModelConfig struct {
	Player   Player
	Lyrics   LyricsSource
	Offsets  OffsetStore
	Settings Settings
	Artwork  *artwork.Loader
	Session  session.Config
	// SyncOffset applies to songs without a saved offset.
	SyncOffset float64
	HideHeader bool
	TermCaps   *terminal.Capabilities
	Keys       *KeyMap
	// Clipboard receives copied lyric lines, the system clipboard by default.
	Clipboard func(string) error
	Logger    *zap.Logger
	Now       func() time.Time
}

type Model struct {
	player   Player
	lyrics   LyricsSource
	offsets  OffsetStore
	settings Settings
	art      *artwork.Loader
	log      *zap.Logger
	now      func() time.Time
	keys     KeyMap
	caps     *terminal.Capabilities
	copyText func(string) error

	session *session.Session
	surface *surface
	anim    *animator
	fade    time.Duration

	syncOffset float64
	hideHeader bool
	prefs      prefs

	track        *track.Info
	image        image.Image
	palette      *artwork.Palette
	artLines     []string
	kittyArt     string
	source       lyrics.Source
	position     float64
	playing      bool
	lastActive   int
	framePending bool

	spinner      spinner.Model
	progress     progress.Model
	loadingState LoadingState
	err          error
	quitting     bool
	width        int
	height       int
}

func NewModel(cfg ModelConfig) Model {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	keys := DefaultKeyMap
	if cfg.Keys != nil {
		keys = *cfg.Keys
	}
	copyText := cfg.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}
	caps := cfg.TermCaps
	if caps == nil {
		caps = &terminal.Capabilities{}
	}
	fade := cfg.Session.Layout.Fade
	if fade <= 0 {
		fade = layout.DefaultFade
	}

	var store session.Store
	if cfg.Settings != nil {
		store = cfg.Settings
	}
	sess := session.New(cfg.Session, store, log.Named("session"), now)
	surf := newSurface(sess.Rows)
	sess.Attach(surf)

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		player:     cfg.Player,
		lyrics:     cfg.Lyrics,
		offsets:    cfg.Offsets,
		settings:   cfg.Settings,
		art:        cfg.Artwork,
		log:        log,
		now:        now,
		keys:       keys,
		caps:       caps,
		copyText:   copyText,
		session:    sess,
		surface:    surf,
		anim:       newAnimator(),
		fade:       fade,
		syncOffset: cfg.SyncOffset,
		hideHeader: cfg.HideHeader,
		lastActive: -1,
		spinner:    s,
	}
	if m.art == nil {
		m.art = artwork.NewLoader(nil, log.Named("artwork"))
	}
	m.loadPrefs()
	m.setPalette(artwork.DefaultPalette())
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.spinner.Tick,
		m.listenForPlayerEvents(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(config.PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func frameCmd() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func indicatorCmd(seq uint64, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return indicatorExpiredMsg{seq: seq}
	})
}

func (m Model) listenForPlayerEvents() tea.Cmd {
	if m.player == nil {
		return nil
	}
	events := m.player.Events()
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return playerEventMsg{event: event}
	}
}

func (m *Model) loadPrefs() {
	if m.settings == nil {
		m.prefs = prefs{boldOriginal: true}
		return
	}
	m.prefs = prefs{
		boldOriginal:      m.settings.Bool(session.KeyBoldOriginal, true),
		boldTranslation:   m.settings.Bool(session.KeyBoldTranslation, false),
		italicOriginal:    m.settings.Bool(session.KeyItalicOriginal, false),
		italicTranslation: m.settings.Bool(session.KeyItalicTranslation, true),
	}
}

func (m *Model) setPalette(p *artwork.Palette) {
	if p == nil {
		p = artwork.DefaultPalette()
	}
	m.palette = p
	width := m.progress.Width
	m.progress = progress.New(
		progress.WithScaledGradient(p.Primary, p.Secondary),
		progress.WithoutPercentage(),
	)
	m.progress.EmptyColor = p.Dim
	if width > 0 {
		m.progress.Width = width
	}
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(p.Secondary))
}

// artSize is the header artwork box in cells, zero when the terminal is too
// small for one.
func (m Model) artSize() (int, int) {
	switch {
	case m.width < 50 || m.height < 25:
		return 0, 0
	case m.width < 80:
		return 8, 4
	default:
		return 12, 6
	}
}

func (m *Model) renderArt() {
	m.artLines, m.kittyArt = nil, ""
	w, h := m.artSize()
	if m.image == nil || w == 0 {
		return
	}
	if m.caps.KittyGraphics {
		m.kittyArt = terminal.EncodeKitty(m.image, w, h)
		if m.kittyArt != "" {
			return
		}
	}
	m.artLines = artwork.RenderHalfBlock(m.image, w, h)
}

func (m Model) showHeader() bool {
	return !m.hideHeader && !m.session.Focus()
}

// resize fits the lyrics area to whatever the header leaves and relayouts when
// it changed.
func (m *Model) resize() tea.Cmd {
	headerRows := 0
	if m.showHeader() && m.track != nil {
		headerRows = len(m.renderHeader(m.width))
	}
	height := m.height - headerRows
	if height < 1 {
		height = 1
	}

	m.progress.Width = max(m.width-20, 20)

	if !m.surface.SetSize(m.width, height) {
		return nil
	}
	m.session.Refresh()
	return m.afterLayout()
}

// afterLayout hands a new plan to the animator and keeps frames coming while
// anything moves or fades.
func (m *Model) afterLayout() tea.Cmd {
	plan := m.session.Plan()
	m.anim.Retarget(plan, m.lastActive)
	m.lastActive = plan.Active
	return m.startFrames()
}

func (m *Model) startFrames() tea.Cmd {
	if m.framePending {
		return nil
	}
	m.framePending = true
	return frameCmd()
}

func (m Model) resetForNewTrack() Model {
	m.session.Unload()
	m.anim.Reset()
	m.lastActive = -1
	m.image = nil
	m.artLines, m.kittyArt = nil, ""
	m.source = ""
	m.err = nil
	m.setPalette(artwork.DefaultPalette())
	return m
}

func (m Model) fetchLyricsCmd(trk *track.Info) tea.Cmd {
	src := m.lyrics
	log := m.log
	return func() tea.Msg {
		return loadLyrics(context.Background(), src, trk, log)
	}
}

// loadLyrics prefers lyrics stored with a local file, then the cache, then
// lrclib.
func loadLyrics(ctx context.Context, src LyricsSource, trk *track.Info, log *zap.Logger) lyricsLoadedMsg {
	msg := lyricsLoadedMsg{track: trk}
	if trk == nil {
		msg.err = errors.New("nil track")
		return msg
	}

	var cached *lyrics.LrclibResponse
	if src != nil {
		cached = src.Cached(trk.Artist, trk.Title)
	}

	if path := trk.LocalPath(); path != "" {
		raw, source, err := lyrics.ReadLocal(path)
		switch {
		case err == nil:
			if lines := lyrics.Parse(raw); len(lines) > 0 {
				msg.lines, msg.source = lines, source
				if cached != nil {
					msg.offset = cached.SyncOffset
				}
				return msg
			}
		case !errors.Is(err, lyrics.ErrNoLyrics):
			log.Debug("local lyrics unreadable", zap.String("path", path), zap.Error(err))
		}
	}

	if src == nil {
		msg.err = lyrics.ErrNoLyrics
		return msg
	}

	resp, source := cached, lyrics.SourceCache
	if resp == nil {
		var err error
		resp, err = src.Fetch(ctx, &lyrics.TrackParams{
			Title:        trk.Title,
			Artist:       trk.Artist,
			Album:        trk.Album,
			DurationSecs: int64(trk.DurationSecs),
		})
		if err != nil {
			msg.err = err
			return msg
		}
		source = lyrics.SourceLrclib
	}

	lines := lyrics.Parse(resp.SyncedLyrics)
	if len(lines) == 0 {
		if resp.PlainLyrics != "" {
			msg.err = fmt.Errorf("only unsynced lyrics available: %w", lyrics.ErrNoLyrics)
		} else {
			msg.err = lyrics.ErrNoLyrics
		}
		return msg
	}

	msg.lines, msg.offset, msg.source = lines, resp.SyncOffset, source
	return msg
}

func (m Model) fetchArtworkCmd(trk *track.Info) tea.Cmd {
	loader := m.art
	return func() tea.Msg {
		img, err := loader.Fetch(context.Background(), trk.ArtworkURL)
		if err != nil {
			return artworkLoadedMsg{track: trk, err: err}
		}
		return artworkLoadedMsg{track: trk, image: img, palette: artwork.ExtractPalette(img)}
	}
}

func (m Model) saveOffsetCmd(offset float64) tea.Cmd {
	store, trk := m.offsets, m.track
	if store == nil || trk == nil {
		return nil
	}
	return func() tea.Msg {
		return offsetSavedMsg{err: store.SetOffset(trk.Artist, trk.Title, offset)}
	}
}

// copyLineCmd copies the active line as shown in the current mode.
func (m Model) copyLineCmd() tea.Cmd {
	active := m.session.Active()
	rows := m.session.Rows(active)
	if len(rows) == 0 {
		return nil
	}
	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = r.Text
	}
	text, write := strings.Join(texts, "\n"), m.copyText
	return func() tea.Msg {
		return lineCopiedMsg{err: write(text)}
	}
}

func (m Model) Width() int                { return m.width }
func (m Model) Height() int               { return m.height }
func (m Model) Track() *track.Info        { return m.track }
func (m Model) Position() float64         { return m.position }
func (m Model) Palette() *artwork.Palette { return m.palette }
func (m Model) Session() *session.Session { return m.session }
func (m Model) Source() lyrics.Source     { return m.source }
func (m Model) HideHeader() bool          { return m.hideHeader }
func (m Model) Err() error                { return m.err }
func (m Model) IsQuitting() bool          { return m.quitting }
func (m Model) IsLoadingLyrics() bool     { return m.loadingState.IsLoadingLyrics() }
func (m Model) IsLoadingArtwork() bool    { return m.loadingState.IsLoadingArtwork() }

func (m *Model) Stop() {
	if m.player != nil {
		m.player.Stop()
	}
}
