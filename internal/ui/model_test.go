package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/duet/internal/lyrics"
	"karolbroda.com/duet/internal/mode"
	"karolbroda.com/duet/internal/player"
	"karolbroda.com/duet/internal/session"
	"karolbroda.com/duet/internal/settings"
	"karolbroda.com/duet/internal/track"
)

const bilingualLRC = `[00:01.00]first line
[00:01.00]第一行
[00:05.00]second line
[00:05.00]第二行
[00:09.00]third line
[00:09.00]第三行
`

type memSettings map[string]string

func (s memSettings) Get(key string) (string, error) {
	v, ok := s[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, settings.ErrNotFound)
	}
	return v, nil
}

func (s memSettings) Set(key, value string) error {
	s[key] = value
	return nil
}

func (s memSettings) Bool(key string, def bool) bool {
	v, ok := s[key]
	if !ok {
		return def
	}
	return v == "true"
}

func (s memSettings) SetBool(key string, v bool) error {
	s[key] = fmt.Sprint(v)
	return nil
}

type offsetCall struct {
	artist, title string
	offset        float64
}

type recordingOffsets struct {
	calls []offsetCall
}

func (r *recordingOffsets) SetOffset(artist, title string, offset float64) error {
	r.calls = append(r.calls, offsetCall{artist, title, offset})
	return nil
}

type stubLyrics struct {
	cached  *lyrics.LrclibResponse
	fetched *lyrics.LrclibResponse
	err     error
	fetches int
}

func (s *stubLyrics) Fetch(ctx context.Context, t *lyrics.TrackParams) (*lyrics.LrclibResponse, error) {
	s.fetches++
	return s.fetched, s.err
}

func (s *stubLyrics) Cached(artist, title string) *lyrics.LrclibResponse {
	return s.cached
}

type stubPlayer struct {
	state  player.State
	events chan player.EventData
}

func (p *stubPlayer) Poll() error                     { return nil }
func (p *stubPlayer) GetState() player.State          { return p.state }
func (p *stubPlayer) Events() <-chan player.EventData { return p.events }
func (p *stubPlayer) Stop()                           {}

var song = &track.Info{Title: "Song", Artist: "Artist", Album: "Album", DurationSecs: 200, TrackID: "/t/1"}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// loaded returns a sized model playing song with the bilingual lyrics at pos.
func loaded(t *testing.T, store memSettings, pos float64) Model {
	t.Helper()
	m := NewModel(ModelConfig{Settings: store})
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m.track = song
	m.position = pos
	m.resize()
	return update(t, m, lyricsLoadedMsg{track: song, lines: lyrics.Parse(bilingualLRC), source: lyrics.SourceLrclib})
}

func TestCycleModePersistsAndAnnounces(t *testing.T) {
	store := memSettings{}
	m := loaded(t, store, 2)

	next, cmd := m.Update(runes("l"))
	m = next.(Model)

	if m.Session().Mode() != mode.Bilingual {
		t.Fatalf("mode = %v, want bilingual", m.Session().Mode())
	}
	if store[session.KeyMode] != "bilingual" {
		t.Errorf("saved mode = %q", store[session.KeyMode])
	}
	if cmd == nil {
		t.Error("expected indicator and layout commands")
	}
	if _, ok := m.Session().Indicators().Current(); !ok {
		t.Error("expected an indicator after cycling")
	}
}

func TestStaleIndicatorDismissalIgnored(t *testing.T) {
	m := loaded(t, memSettings{}, 2)

	m = update(t, m, runes("l"))
	first, _ := m.Session().Indicators().Current()
	m = update(t, m, runes("l"))
	second, _ := m.Session().Indicators().Current()

	m = update(t, m, indicatorExpiredMsg{seq: first.Seq})
	if cur, ok := m.Session().Indicators().Current(); !ok || cur.Seq != second.Seq {
		t.Fatal("an old dismissal removed the newer indicator")
	}

	m = update(t, m, indicatorExpiredMsg{seq: second.Seq})
	if _, ok := m.Session().Indicators().Current(); ok {
		t.Error("indicator still shown after its own dismissal")
	}
}

func TestRestoredModeShowsActiveLine(t *testing.T) {
	m := loaded(t, memSettings{session.KeyMode: "bilingual"}, 5.5)

	if got := m.Session().Active(); got != 1 {
		t.Fatalf("active = %d, want 1", got)
	}

	view := m.View()
	for _, want := range []string{"second line", "第二行", "first line", "Song"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q", want)
		}
	}
}

func TestOffsetKeys(t *testing.T) {
	m := loaded(t, memSettings{}, 2)

	m = update(t, m, runes("+"))
	m = update(t, m, runes("+"))
	m = update(t, m, runes("]"))
	if got := m.Session().Offset(); got != 0.7 {
		t.Errorf("offset = %v, want 0.7", got)
	}

	m = update(t, m, runes("["))
	m = update(t, m, runes("-"))
	if got := m.Session().Offset(); got != 0.1 {
		t.Errorf("offset = %v, want 0.1", got)
	}

	m = update(t, m, runes("0"))
	if got := m.Session().Offset(); got != 0 {
		t.Errorf("offset after reset = %v", got)
	}
}

func TestSaveOffset(t *testing.T) {
	offsets := &recordingOffsets{}
	m := NewModel(ModelConfig{Offsets: offsets})

	if m.saveOffsetCmd(0.3) != nil {
		t.Fatal("nothing to save without a track")
	}

	m.track = song
	msg := m.saveOffsetCmd(0.3)()
	if saved, ok := msg.(offsetSavedMsg); !ok || saved.err != nil {
		t.Fatalf("msg = %#v", msg)
	}
	want := offsetCall{"Artist", "Song", 0.3}
	if len(offsets.calls) != 1 || offsets.calls[0] != want {
		t.Errorf("calls = %+v, want %+v", offsets.calls, want)
	}
}

func TestFocusHidesLyrics(t *testing.T) {
	m := loaded(t, memSettings{session.KeyMode: "original"}, 5.5)

	m = update(t, m, runes("v"))
	if !m.Session().Focus() || m.Session().Mode() != mode.Off {
		t.Fatalf("focus = %v mode = %v", m.Session().Focus(), m.Session().Mode())
	}
	if view := m.View(); strings.Contains(view, "second line") {
		t.Error("focus view still shows lyrics")
	}

	m = update(t, m, runes("l"))
	if m.Session().Focus() {
		t.Error("cycling should leave focus mode")
	}
}

func TestCopyLine(t *testing.T) {
	var copied string
	m := NewModel(ModelConfig{
		Settings:  memSettings{session.KeyMode: "bilingual"},
		Clipboard: func(s string) error { copied = s; return nil },
	})

	if _, cmd := m.Update(runes("y")); cmd != nil {
		t.Error("nothing to copy without lyrics")
	}

	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m.track = song
	m.position = 2
	m.resize()
	m = update(t, m, lyricsLoadedMsg{track: song, lines: lyrics.Parse(bilingualLRC)})

	_, cmd := m.Update(runes("y"))
	if cmd == nil {
		t.Fatal("expected a copy command")
	}
	if msg, ok := cmd().(lineCopiedMsg); !ok || msg.err != nil {
		t.Fatalf("msg = %#v", msg)
	}
	if copied != "first line\n第一行" {
		t.Errorf("copied %q", copied)
	}
}

func TestStaleLyricsIgnored(t *testing.T) {
	m := NewModel(ModelConfig{})
	m.track = song

	other := &track.Info{Title: "Other", Artist: "Artist", TrackID: "/t/2"}
	m = update(t, m, lyricsLoadedMsg{track: other, lines: lyrics.Parse(bilingualLRC)})

	if m.Session().Loaded() {
		t.Error("lyrics for another track were loaded")
	}
}

func TestNoLyricsNotice(t *testing.T) {
	m := NewModel(ModelConfig{})
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m.track = song
	m.loadingState = LoadingLyrics

	m = update(t, m, lyricsLoadedMsg{track: song, err: fmt.Errorf("lookup: %w", lyrics.ErrNoLyrics)})

	if !m.Session().Frame().NoLyrics {
		t.Error("frame should report no lyrics")
	}
	if m.Err() != nil {
		t.Errorf("no lyrics is not an error, got %v", m.Err())
	}
	if !strings.Contains(m.View(), "no lyrics") {
		t.Error("view is missing the no lyrics notice")
	}
}

func TestTickFollowsPlayer(t *testing.T) {
	p := &stubPlayer{events: make(chan player.EventData)}
	m := NewModel(ModelConfig{Player: p, Settings: memSettings{session.KeyMode: "original"}})
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m.track = song
	m = update(t, m, lyricsLoadedMsg{track: song, lines: lyrics.Parse(bilingualLRC)})

	p.state = player.State{Position: 9.5, Playing: true}
	m = update(t, m, tickMsg(time.Now()))

	if m.Position() != 9.5 || m.Session().Active() != 2 {
		t.Errorf("position = %v active = %d", m.Position(), m.Session().Active())
	}
}

func TestStylePrefsToggle(t *testing.T) {
	store := memSettings{}
	m := NewModel(ModelConfig{Settings: store})

	m = update(t, m, runes("b"))
	m = update(t, m, runes("T"))

	if m.prefs.boldOriginal || store[session.KeyBoldOriginal] != "false" {
		t.Error("bold original should be off and saved")
	}
	if m.prefs.italicTranslation || store[session.KeyItalicTranslation] != "false" {
		t.Error("italic translation should be off and saved")
	}
}

func TestLoadLyrics(t *testing.T) {
	synced := &lyrics.LrclibResponse{SyncedLyrics: bilingualLRC, SyncOffset: 0.4}

	t.Run("cache", func(t *testing.T) {
		src := &stubLyrics{cached: synced}
		msg := loadLyrics(context.Background(), src, song, nil)
		if msg.err != nil || msg.source != lyrics.SourceCache || msg.offset != 0.4 || len(msg.lines) != 3 {
			t.Errorf("msg = %+v", msg)
		}
		if src.fetches != 0 {
			t.Error("cached lyrics should not be fetched")
		}
	})

	t.Run("lrclib", func(t *testing.T) {
		msg := loadLyrics(context.Background(), &stubLyrics{fetched: synced}, song, nil)
		if msg.err != nil || msg.source != lyrics.SourceLrclib {
			t.Errorf("msg = %+v", msg)
		}
	})

	t.Run("fetch error", func(t *testing.T) {
		msg := loadLyrics(context.Background(), &stubLyrics{err: lyrics.ErrServerSlow}, song, nil)
		if !errors.Is(msg.err, lyrics.ErrServerSlow) {
			t.Errorf("err = %v", msg.err)
		}
	})

	t.Run("plain only", func(t *testing.T) {
		src := &stubLyrics{fetched: &lyrics.LrclibResponse{PlainLyrics: "just words"}}
		msg := loadLyrics(context.Background(), src, song, nil)
		if !errors.Is(msg.err, lyrics.ErrNoLyrics) {
			t.Errorf("err = %v", msg.err)
		}
	})

	t.Run("sidecar", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "song.lrc"), []byte(bilingualLRC), 0o644); err != nil {
			t.Fatal(err)
		}
		local := &track.Info{Title: "Song", Artist: "Artist", URL: "file://" + filepath.Join(dir, "song.mp3")}

		src := &stubLyrics{cached: &lyrics.LrclibResponse{SyncOffset: -0.2}}
		msg := loadLyrics(context.Background(), src, local, nil)
		if msg.err != nil || msg.source != lyrics.SourceSidecar || msg.offset != -0.2 {
			t.Errorf("msg = %+v", msg)
		}
	})

	t.Run("no source", func(t *testing.T) {
		msg := loadLyrics(context.Background(), nil, song, nil)
		if !errors.Is(msg.err, lyrics.ErrNoLyrics) {
			t.Errorf("err = %v", msg.err)
		}
	})
}
