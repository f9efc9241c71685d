package terminal

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/nfnt/resize"
)

// Cell size in pixels assumed for layout and kitty images.
const (
	CellWidth  = 10
	CellHeight = 20
)

const kittyChunk = 4096

type Capabilities struct {
	KittyGraphics bool
	TermProgram   string
}

// DetectCapabilities reads the environment through getenv, os.Getenv when nil.
// Kitty graphics are opt-in with DUET_KITTY_GRAPHICS.
func DetectCapabilities(getenv func(string) string) *Capabilities {
	if getenv == nil {
		getenv = os.Getenv
	}

	caps := &Capabilities{TermProgram: getenv("TERM_PROGRAM")}

	switch strings.ToLower(getenv("DUET_KITTY_GRAPHICS")) {
	case "1", "true", "yes", "on":
		caps.KittyGraphics = true
		if caps.TermProgram == "" {
			caps.TermProgram = "kitty"
		}
	}
	return caps
}

// Reset restores cursor, colors, screen and mouse modes after the tui exits.
func Reset(w io.Writer) {
	for _, seq := range []string{
		"\033[?25h",
		"\033[0m",
		"\033[?1049l",
		"\033[?1000l",
		"\033[?1002l",
		"\033[?1003l",
		"\033[?1006l",
	} {
		_, _ = io.WriteString(w, seq)
	}
	if f, ok := w.(*os.File); ok {
		_ = f.Sync()
	}
}

func DeleteKittyImages() string {
	return "\x1b_Ga=d\x1b\\"
}

// EncodeKitty renders img as a kitty graphics escape sized to cols x rows
// cells, keeping the aspect ratio.
func EncodeKitty(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return ""
	}

	w, h := fit(b.Dx(), b.Dy(), cols*CellWidth, rows*CellHeight)
	resized := resize.Resize(uint(w), uint(h), img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return ""
	}
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	var out strings.Builder
	for i := 0; i < len(encoded); i += kittyChunk {
		end := min(i+kittyChunk, len(encoded))
		more := 1
		if end == len(encoded) {
			more = 0
		}
		if i == 0 {
			fmt.Fprintf(&out, "\x1b_Ga=T,f=100,c=%d,r=%d,m=%d;%s\x1b\\", cols, rows, more, encoded[i:end])
		} else {
			fmt.Fprintf(&out, "\x1b_Gm=%d;%s\x1b\\", more, encoded[i:end])
		}
	}
	return out.String()
}

// fit scales w x h into the box, never below 10 px on a side.
func fit(w, h, boxW, boxH int) (int, int) {
	aspect := float64(w) / float64(h)
	if aspect > float64(boxW)/float64(boxH) {
		boxH = int(float64(boxW) / aspect)
	} else {
		boxW = int(float64(boxH) * aspect)
	}
	return max(boxW, 10), max(boxH, 10)
}
