package main

import (
	"bytes"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/fx"

	"karolbroda.com/duet/internal/cache"
	"karolbroda.com/duet/internal/config"
	"karolbroda.com/duet/internal/lyrics"
	"karolbroda.com/duet/internal/mode"
)

// TestViewerGraph checks that every constructor the viewer needs is provided.
func TestViewerGraph(t *testing.T) {
	cfg := &config.Config{MprisService: config.DefaultMprisService, LrclibURL: config.DefaultLrclibGetURL}

	err := fx.ValidateApp(
		viewerOptions(cfg),
		fx.Invoke(func(*tea.Program) {}),
	)
	if err != nil {
		t.Errorf("viewer graph is not valid: %v", err)
	}
}

func TestRenderPreview(t *testing.T) {
	lines := lyrics.Parse("[00:01.00]first line\n[00:01.00]第一行\n[00:05.00]no translation\n")

	tests := []struct {
		mode mode.Mode
		want string
	}{
		{mode.OriginalOnly, "[00:01.000] first line\n[00:05.000] no translation\n"},
		{mode.Bilingual, "[00:01.000] first line\n            第一行\n[00:05.000] no translation\n"},
		{mode.BilingualReversed, "[00:01.000] 第一行\n            first line\n[00:05.000] no translation\n"},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			var buf bytes.Buffer
			renderPreview(&buf, lines, tt.mode)
			if got := buf.String(); got != tt.want {
				t.Errorf("preview =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestModeNames(t *testing.T) {
	if got, want := modeNames(), "translation, bilingual, reversed, original"; got != want {
		t.Errorf("modeNames() = %q, want %q", got, want)
	}
}

func TestSimilarEntries(t *testing.T) {
	entries := []*cache.LyricEntry{
		{ArtistName: "Aimer", TrackName: "Kataomoi"},
		{ArtistName: "Aimer", TrackName: "Brave Shine"},
		{ArtistName: "Aimer feat. Someone", TrackName: "Kataomoi (live)"},
		{ArtistName: "Other", TrackName: "Kataomoi"},
	}

	got := similarEntries(entries, "aimer", "kataomoi", 5)
	if len(got) != 1 || got[0] != entries[0] {
		t.Errorf("exact artist match = %+v", got)
	}

	got = similarEntries(entries, "aim", "kataomoi", 5)
	if len(got) != 2 || got[0] != entries[0] || got[1] != entries[2] {
		t.Errorf("fuzzy match = %+v", got)
	}

	if got := similarEntries(entries, "aim", "kataomoi", 1); len(got) != 1 {
		t.Errorf("limit ignored: %d results", len(got))
	}
	if got := similarEntries(entries, "nobody", "nothing", 5); got != nil {
		t.Errorf("no match = %+v", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
