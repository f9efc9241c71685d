package lyrics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Line is one synchronized unit of a transcript. Translation is empty when the
// source had no second entry at the same timestamp.
type Line struct {
	Time        float64
	Text        string
	Translation string
}

func (l Line) HasTranslation() bool {
	return l.Translation != ""
}

var (
	lineBreaks = regexp.MustCompile(`\r\n|\n|\r`)

	// [mm:ss.ff] or [mm:ss:fff], fraction right-padded to milliseconds
	timestampPattern = regexp.MustCompile(`\[(\d{2}):(\d{2})[.:](\d{2,3})\]`)

	// credit lines and lrc id tags, in chinese and english
	metadataPattern = regexp.MustCompile(`(?i)(作[词詞]|作曲|[编編]曲|翻[译譯]|[译譯]者?\s*[:：]|[词詞曲]\s*[:：]|\b(arranger|composer|lyricist|lyrics|translator)\b|\b(written|produced|composed|arranged|translated)\s+by\b|\bby\s*[:：]|^\s*(ti|ar|al|by|offset|length|re|ve)\s*[:：])`)
)

type stampedText struct {
	millis int64
	text   string
}

// Parse converts raw lrc text into lines. Lines without a timestamp or with no
// text are dropped; a line sharing its timestamp with the line right before it
// becomes that line's translation.
func Parse(raw string) []Line {
	if raw == "" {
		return nil
	}

	var pairs []stampedText
	for _, physical := range lineBreaks.Split(raw, -1) {
		loc := timestampPattern.FindStringSubmatchIndex(physical)
		if loc == nil {
			continue
		}

		millis, ok := stampMillis(physical, loc)
		if !ok {
			continue
		}

		text := strings.TrimSpace(physical[:loc[0]] + physical[loc[1]:])
		if text == "" {
			continue
		}

		pairs = append(pairs, stampedText{millis: millis, text: text})
	}

	if len(pairs) == 0 {
		return nil
	}

	result := make([]Line, 0, len(pairs))
	for i := 0; i < len(pairs); i++ {
		current := pairs[i]
		line := Line{
			Time: float64(current.millis) / 1000,
			Text: current.text,
		}

		if i+1 < len(pairs) && pairs[i+1].millis == current.millis {
			line.Translation = pairs[i+1].text
			i++
		}

		result = append(result, line)
	}

	return result
}

func stampMillis(line string, loc []int) (int64, bool) {
	minutes, err := strconv.ParseInt(line[loc[2]:loc[3]], 10, 64)
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseInt(line[loc[4]:loc[5]], 10, 64)
	if err != nil {
		return 0, false
	}

	fraction := line[loc[6]:loc[7]]
	for len(fraction) < 3 {
		fraction += "0"
	}
	millis, err := strconv.ParseInt(fraction, 10, 64)
	if err != nil {
		return 0, false
	}

	return minutes*60_000 + seconds*1000 + millis, true
}

// IsMetadata reports whether text looks like a credit or tag line rather than a
// sung line.
func IsMetadata(text string) bool {
	return metadataPattern.MatchString(text)
}

// HasTranslation reports whether at least one non-metadata line carries a
// translation.
func HasTranslation(lines []Line) bool {
	for _, line := range lines {
		if line.HasTranslation() && !IsMetadata(line.Text) {
			return true
		}
	}
	return false
}

// Format renders lines back to lrc text. A translation is written on its own
// line under the same timestamp so Parse folds it back.
func Format(lines []Line) string {
	var b strings.Builder
	for _, line := range lines {
		stamp := FormatTimestamp(line.Time)
		fmt.Fprintf(&b, "[%s]%s\n", stamp, line.Text)
		if line.HasTranslation() {
			fmt.Fprintf(&b, "[%s]%s\n", stamp, line.Translation)
		}
	}
	return b.String()
}

// FormatTimestamp returns seconds as mm:ss.fff.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int64(seconds*1000 + 0.5)
	return fmt.Sprintf("%02d:%02d.%03d", millis/60_000, (millis/1000)%60, millis%1000)
}
