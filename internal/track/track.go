package track

import (
	"fmt"
	"net/url"
)

// Info is what the player reports about the playing track.
type Info struct {
	Title        string
	Artist       string
	Album        string
	DurationSecs float64
	ArtworkURL   string
	TrackID      string
	// URL is xesam:url, a file:// url for local files.
	URL string
}

func (t *Info) IsValid() bool {
	if t == nil {
		return false
	}
	return t.Title != "" && t.Artist != ""
}

func (t *Info) IsSameTrack(other *Info) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.TrackID != "" && other.TrackID != "" {
		return t.TrackID == other.TrackID
	}
	return t.Title == other.Title && t.Artist == other.Artist
}

// LocalPath is the file behind a file:// track url, or "".
func (t *Info) LocalPath() string {
	if t == nil || t.URL == "" {
		return ""
	}
	u, err := url.Parse(t.URL)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return u.Path
}

func (t *Info) String() string {
	if t == nil {
		return "<no track>"
	}
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}
