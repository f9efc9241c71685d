package lyrics

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
)

type Source string

const (
	SourceLrclib   Source = "lrclib"
	SourceCache    Source = "cache"
	SourceSidecar  Source = "sidecar"
	SourceEmbedded Source = "embedded"
)

// PathFromURL turns a file:// track url into a local path. Other schemes yield
// an empty string.
func PathFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return u.Path
}

// SidecarPath is the .lrc file next to an audio file.
func SidecarPath(audioPath string) string {
	return strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".lrc"
}

// ReadLocal returns lyrics stored alongside a local audio file: a sidecar .lrc
// wins over the embedded lyrics tag. ErrNoLyrics when neither has text.
func ReadLocal(audioPath string) (string, Source, error) {
	if audioPath == "" {
		return "", "", ErrNoLyrics
	}

	if raw, err := os.ReadFile(SidecarPath(audioPath)); err == nil {
		if text := strings.TrimSpace(string(raw)); text != "" {
			return string(raw), SourceSidecar, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", "", fmt.Errorf("failed to read sidecar lyrics: %w", err)
	}

	text, err := ReadEmbedded(audioPath)
	if err != nil {
		return "", "", err
	}
	return text, SourceEmbedded, nil
}

// ReadEmbedded reads the lyrics tag of an audio file. Any file that opens but
// yields no readable lyrics tag is ErrNoLyrics.
func ReadEmbedded(audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", audioPath, err)
	}
	defer f.Close()

	// an untagged or truncated file has no lyrics to offer, the cause stays wrapped
	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", fmt.Errorf("%w: tags of %s: %w", ErrNoLyrics, audioPath, err)
	}

	text := m.Lyrics()
	if strings.TrimSpace(text) == "" {
		return "", ErrNoLyrics
	}
	return text, nil
}

// Embed writes lines into the USLT frame of an mp3, replacing any existing
// lyrics frames.
func Embed(mp3Path string, lines []Line, language string) error {
	if len(lines) == 0 {
		return ErrNoLyrics
	}
	if len(language) != 3 {
		language = "eng"
	}

	t, err := id3v2.Open(mp3Path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open id3 tag of %s: %w", mp3Path, err)
	}
	defer t.Close()

	t.SetDefaultEncoding(id3v2.EncodingUTF8)
	t.DeleteFrames(t.CommonID("Unsynchronised lyrics/text transcription"))
	t.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
		Encoding:          id3v2.EncodingUTF8,
		Language:          language,
		ContentDescriptor: "",
		Lyrics:            Format(lines),
	})

	if err := t.Save(); err != nil {
		return fmt.Errorf("failed to save id3 tag of %s: %w", mp3Path, err)
	}
	return nil
}
