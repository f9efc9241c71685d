package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"karolbroda.com/duet/internal/cache"
)

var (
	ErrNoLyrics   = errors.New("no lyrics found")
	ErrServerSlow = errors.New("lyrics server took too long to respond")
)

type LrclibResponse struct {
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
	SyncOffset   float64 `json:"-"`
}

func (r *LrclibResponse) empty() bool {
	return r.PlainLyrics == "" && r.SyncedLyrics == "" && !r.Instrumental
}

type TrackParams struct {
	Title        string
	Artist       string
	Album        string
	DurationSecs int64
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Cache   *cache.DiskCache
	NoCache bool
	Logger  *zap.Logger
}

// Client looks lyrics up on lrclib, trying several spellings of the track, and
// keeps hits in the disk cache.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	cache   *cache.DiskCache
	noCache bool
	log     *zap.Logger

	strategyDelay time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     60 * time.Second,
		TLSHandshakeTimeout: 2 * time.Second,
	}

	return &Client{
		baseURL:       cfg.BaseURL,
		http:          &http.Client{Transport: transport, Timeout: timeout},
		timeout:       timeout,
		cache:         cfg.Cache,
		noCache:       cfg.NoCache,
		log:           log,
		strategyDelay: 100 * time.Millisecond,
	}
}

type searchStrategy struct {
	artist   string
	title    string
	album    string
	duration int64
}

func (s searchStrategy) key() string {
	return fmt.Sprintf("%s|%s|%s|%d", s.artist, s.title, s.album, s.duration)
}

// normalizeString collapses runs of whitespace
func normalizeString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripVersionInfo removes parenthesised and bracketed parts (remix, live, ...)
func stripVersionInfo(s string) string {
	s = stripEnclosed(s, "(", ")")
	s = stripEnclosed(s, "[", "]")
	return normalizeString(s)
}

func stripEnclosed(s string, open string, close string) string {
	for {
		start := strings.Index(s, open)
		end := strings.Index(s, close)
		if start < 0 || end <= start {
			return s
		}
		s = s[:start] + " " + s[end+1:]
	}
}

func toTitleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		words[i] = strings.ToUpper(string(runes[0])) + strings.ToLower(string(runes[1:]))
	}
	return strings.Join(words, " ")
}

func buildStrategies(track *TrackParams) []searchStrategy {
	artist := normalizeString(track.Artist)
	title := normalizeString(track.Title)

	candidates := []searchStrategy{
		{artist, title, track.Album, track.DurationSecs},
		{artist, title, "", track.DurationSecs},
		{artist, title, "", 0},
		{stripVersionInfo(track.Artist), stripVersionInfo(track.Title), "", 0},
		{strings.ToUpper(artist), strings.ToUpper(title), "", 0},
		{strings.ToLower(artist), strings.ToLower(title), "", 0},
		{toTitleCase(artist), toTitleCase(title), "", 0},
		{track.Artist, track.Title, "", 0},
	}

	seen := make(map[string]bool, len(candidates))
	strategies := make([]searchStrategy, 0, len(candidates))
	for _, s := range candidates {
		if s.artist == "" || s.title == "" || seen[s.key()] {
			continue
		}
		seen[s.key()] = true
		strategies = append(strategies, s)
	}
	return strategies
}

// Fetch returns lyrics for track, from the cache when possible.
func (c *Client) Fetch(ctx context.Context, track *TrackParams) (*LrclibResponse, error) {
	if track == nil {
		return nil, errors.New("nil track info")
	}
	if normalizeString(track.Title) == "" || normalizeString(track.Artist) == "" {
		return nil, errors.New("track title or artist is empty")
	}
	if c.baseURL == "" {
		return nil, errors.New("lrclib base url is empty")
	}

	if cached := c.Cached(track.Artist, track.Title); cached != nil {
		c.log.Debug("lyrics cache hit", zap.String("artist", track.Artist), zap.String("title", track.Title))
		return cached, nil
	}

	parsedURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid lrclib url %q: %w", c.baseURL, err)
	}

	var lastErr error
	for i, strategy := range buildStrategies(track) {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.strategyDelay):
			}
		}

		query := url.Values{}
		query.Set("artist_name", strategy.artist)
		query.Set("track_name", strategy.title)
		if strategy.album != "" {
			query.Set("album_name", strategy.album)
		}
		if strategy.duration > 0 {
			query.Set("duration", strconv.FormatInt(strategy.duration, 10))
		}
		parsedURL.RawQuery = query.Encode()

		payload, err := c.get(ctx, parsedURL.String())
		if err != nil {
			lastErr = err
			c.log.Debug("lrclib lookup failed", zap.Int("strategy", i), zap.Error(err))
			if isTimeoutError(err) {
				return nil, ErrServerSlow
			}
			continue
		}
		if payload.empty() {
			lastErr = ErrNoLyrics
			continue
		}

		c.store(track, payload)
		return payload, nil
	}

	if lastErr == nil {
		lastErr = ErrNoLyrics
	}
	return nil, fmt.Errorf("no lyrics found for %s - %s: %w", track.Artist, track.Title, lastErr)
}

// Cached returns the cache entry for artist/title or nil.
func (c *Client) Cached(artist string, title string) *LrclibResponse {
	if c.cache == nil || c.noCache {
		return nil
	}
	entry, err := c.cache.Get(artist, title)
	if err != nil {
		return nil
	}
	return &LrclibResponse{
		TrackName:    entry.TrackName,
		ArtistName:   entry.ArtistName,
		AlbumName:    entry.AlbumName,
		Duration:     entry.Duration,
		Instrumental: entry.Instrumental,
		PlainLyrics:  entry.PlainLyrics,
		SyncedLyrics: entry.SyncedLyrics,
		SyncOffset:   entry.SyncOffset,
	}
}

// store persists a hit under the caller's original artist/title
func (c *Client) store(track *TrackParams, payload *LrclibResponse) {
	if c.cache == nil {
		return
	}
	err := c.cache.Set(track.Artist, track.Title, &cache.LyricEntry{
		TrackName:    payload.TrackName,
		ArtistName:   payload.ArtistName,
		AlbumName:    payload.AlbumName,
		Duration:     payload.Duration,
		Instrumental: payload.Instrumental,
		PlainLyrics:  payload.PlainLyrics,
		SyncedLyrics: payload.SyncedLyrics,
		SyncOffset:   payload.SyncOffset,
	})
	if err != nil {
		c.log.Warn("failed to cache lyrics", zap.Error(err))
	}
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "deadline exceeded")
}

func (c *Client) get(parentCtx context.Context, requestURL string) (*LrclibResponse, error) {
	ctx, cancel := context.WithTimeout(parentCtx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build http request: %w", err)
	}
	req.Header.Set("User-Agent", "duet/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("status 404: %w", ErrNoLyrics)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("lrclib returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload LrclibResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode lrclib json: %w", err)
	}

	return &payload, nil
}
