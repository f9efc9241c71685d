package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	entryVersion = 2
	DefaultTTL   = 30 * 24 * time.Hour
	appDirName   = "duet"
	lyricsDir    = "lyrics"
	entrySuffix  = ".bin"
)

var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrCacheExpired = errors.New("cache expired")
	ErrCacheCorrupt = errors.New("cache corrupt")
	ErrInvalidKey   = errors.New("artist and title are required")
)

// LyricEntry is one cached lookup. Artist and Title are the lookup key as the
// player reported it, which can differ from the names lrclib answered with.
type LyricEntry struct {
	Version      uint8
	Artist       string
	Title        string
	TrackName    string
	ArtistName   string
	AlbumName    string
	Duration     float64
	Instrumental bool
	PlainLyrics  string
	SyncedLyrics string
	SyncOffset   float64
	CreatedAt    int64
	ExpiresAt    int64
}

func (e *LyricEntry) Expired(now time.Time) bool {
	return e.ExpiresAt <= now.Unix()
}

type Stats struct {
	Entries   int
	SizeBytes int64
	Expired   int
}

// DiskCache keeps lyric lookups as gob files, one per track, with an in-memory
// front. An empty dir gives a memory-only cache.
type DiskCache struct {
	dir string
	ttl time.Duration
	log *zap.Logger
	now func() time.Time

	mu  sync.RWMutex
	mem map[string]*LyricEntry
}

func New(dir string, ttl time.Duration, log *zap.Logger) (*DiskCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
		}
	}

	return &DiskCache{
		dir: dir,
		ttl: ttl,
		log: log,
		now: time.Now,
		mem: make(map[string]*LyricEntry),
	}, nil
}

func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName, lyricsDir), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appDirName, lyricsDir), nil
}

func (c *DiskCache) Dir() string {
	return c.dir
}

func key(artist, title string) string {
	normalized := strings.ToLower(strings.TrimSpace(artist)) + "|" + strings.ToLower(strings.TrimSpace(title))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:12])
}

func (c *DiskCache) path(k string) string {
	return filepath.Join(c.dir, k+entrySuffix)
}

func (c *DiskCache) Get(artist, title string) (*LyricEntry, error) {
	if artist == "" || title == "" {
		return nil, ErrCacheMiss
	}

	k := key(artist, title)
	now := c.now()

	c.mu.RLock()
	entry, ok := c.mem[k]
	c.mu.RUnlock()

	if ok {
		if !entry.Expired(now) {
			return entry, nil
		}
		c.mu.Lock()
		delete(c.mem, k)
		c.mu.Unlock()
	}

	if c.dir == "" {
		return nil, ErrCacheMiss
	}

	entry, err := c.read(c.path(k))
	if err != nil {
		return nil, err
	}
	if entry.Expired(now) {
		_ = os.Remove(c.path(k))
		return nil, ErrCacheExpired
	}

	c.mu.Lock()
	c.mem[k] = entry
	c.mu.Unlock()

	return entry, nil
}

func (c *DiskCache) Set(artist, title string, entry *LyricEntry) error {
	if artist == "" || title == "" || entry == nil {
		return ErrInvalidKey
	}

	now := c.now()
	entry.Version = entryVersion
	entry.Artist = artist
	entry.Title = title
	entry.CreatedAt = now.Unix()
	entry.ExpiresAt = now.Add(c.ttl).Unix()

	return c.put(key(artist, title), entry)
}

// SetOffset updates the sync offset of an existing entry without touching its
// expiry.
func (c *DiskCache) SetOffset(artist, title string, offset float64) error {
	entry, err := c.Get(artist, title)
	if err != nil {
		return err
	}

	updated := *entry
	updated.SyncOffset = offset
	return c.put(key(artist, title), &updated)
}

func (c *DiskCache) put(k string, entry *LyricEntry) error {
	c.mu.Lock()
	c.mem[k] = entry
	c.mu.Unlock()

	if c.dir == "" {
		return nil
	}
	if err := c.write(c.path(k), entry); err != nil {
		c.log.Warn("cache write failed", zap.String("key", k), zap.Error(err))
		return err
	}
	return nil
}

func (c *DiskCache) read(path string) (*LyricEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	defer file.Close()

	var entry LyricEntry
	if err := gob.NewDecoder(file).Decode(&entry); err != nil {
		return nil, ErrCacheCorrupt
	}
	if entry.Version != entryVersion {
		_ = os.Remove(path)
		return nil, ErrCacheCorrupt
	}

	return &entry, nil
}

// write goes through a temp file and rename so readers never see half an entry
func (c *DiskCache) write(path string, entry *LyricEntry) error {
	tmp := path + ".tmp"

	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(file).Encode(entry); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}

func (c *DiskCache) files() ([]string, error) {
	if c.dir == "" {
		return nil, nil
	}

	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, d := range dirEntries {
		if d.IsDir() || !strings.HasSuffix(d.Name(), entrySuffix) {
			continue
		}
		paths = append(paths, filepath.Join(c.dir, d.Name()))
	}
	return paths, nil
}

func (c *DiskCache) Clear() error {
	c.mu.Lock()
	c.mem = make(map[string]*LyricEntry)
	c.mu.Unlock()

	paths, err := c.files()
	if err != nil {
		return err
	}
	for _, p := range paths {
		_ = os.Remove(p)
	}
	return nil
}

func (c *DiskCache) Prune() (int, error) {
	paths, err := c.files()
	if err != nil {
		return 0, err
	}

	now := c.now()
	pruned := 0
	for _, p := range paths {
		entry, err := c.read(p)
		if err == nil && !entry.Expired(now) {
			continue
		}
		_ = os.Remove(p)
		pruned++
	}

	c.mu.Lock()
	for k, entry := range c.mem {
		if entry.Expired(now) {
			delete(c.mem, k)
		}
	}
	c.mu.Unlock()

	c.log.Debug("cache pruned", zap.Int("removed", pruned))
	return pruned, nil
}

func (c *DiskCache) Stats() (Stats, error) {
	paths, err := c.files()
	if err != nil {
		return Stats{}, err
	}

	now := c.now()
	var stats Stats
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		stats.Entries++
		stats.SizeBytes += info.Size()

		if entry, err := c.read(p); err != nil || entry.Expired(now) {
			stats.Expired++
		}
	}
	return stats, nil
}

func (c *DiskCache) ListAll() ([]*LyricEntry, error) {
	paths, err := c.files()
	if err != nil {
		return nil, err
	}

	var result []*LyricEntry
	for _, p := range paths {
		entry, err := c.read(p)
		if err != nil {
			continue
		}
		result = append(result, entry)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt > result[j].CreatedAt
	})
	return result, nil
}

func (c *DiskCache) Delete(artist, title string) error {
	if artist == "" || title == "" {
		return ErrInvalidKey
	}

	k := key(artist, title)
	c.mu.Lock()
	delete(c.mem, k)
	c.mu.Unlock()

	if c.dir == "" {
		return nil
	}
	if err := os.Remove(c.path(k)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
