package terminal

import (
	"bytes"
	"image"
	"strings"
	"testing"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDetectCapabilities(t *testing.T) {
	tests := []struct {
		name      string
		vars      map[string]string
		wantKitty bool
		wantTerm  string
	}{
		{"nothing set", nil, false, ""},
		{"opt in", map[string]string{"DUET_KITTY_GRAPHICS": "yes"}, true, "kitty"},
		{"opt in keeps program", map[string]string{"DUET_KITTY_GRAPHICS": "ON", "TERM_PROGRAM": "WezTerm"}, true, "WezTerm"},
		{"opt out", map[string]string{"DUET_KITTY_GRAPHICS": "0", "TERM_PROGRAM": "kitty"}, false, "kitty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := DetectCapabilities(env(tt.vars))
			if caps.KittyGraphics != tt.wantKitty || caps.TermProgram != tt.wantTerm {
				t.Errorf("got %+v", caps)
			}
		})
	}
}

func TestReset(t *testing.T) {
	var buf bytes.Buffer
	Reset(&buf)
	if !strings.Contains(buf.String(), "\033[?25h") || !strings.Contains(buf.String(), "\033[?1049l") {
		t.Errorf("Reset wrote %q", buf.String())
	}
}

func TestEncodeKitty(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 300, 300))

	out := EncodeKitty(img, 12, 6)
	if !strings.HasPrefix(out, "\x1b_Ga=T,f=100,c=12,r=6,") {
		t.Errorf("unexpected header %q", out[:min(len(out), 40)])
	}
	if !strings.HasSuffix(out, "\x1b\\") {
		t.Error("escape not terminated")
	}

	if EncodeKitty(nil, 12, 6) != "" || EncodeKitty(img, 0, 6) != "" {
		t.Error("expected nothing for a nil image or empty box")
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, bw, bh int
		wantW, wantH int
	}{
		{300, 300, 120, 120, 120, 120},
		{600, 300, 120, 120, 120, 60},
		{300, 600, 120, 120, 60, 120},
		{1000, 10, 120, 120, 120, 10},
	}
	for _, tt := range tests {
		gw, gh := fit(tt.w, tt.h, tt.bw, tt.bh)
		if gw != tt.wantW || gh != tt.wantH {
			t.Errorf("fit(%d,%d,%d,%d) = %d,%d want %d,%d", tt.w, tt.h, tt.bw, tt.bh, gw, gh, tt.wantW, tt.wantH)
		}
	}
}
