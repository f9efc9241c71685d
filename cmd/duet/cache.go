package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"karolbroda.com/duet/internal/cache"
	"karolbroda.com/duet/internal/lyrics"
)

var (
	// flags for cache list and clear
	cacheSortBy  string
	cacheConfirm bool
)

var errReported = errors.New("see above")

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "manage the lyrics cache",
	Long:  `manage cached lyrics and sync offsets: statistics, listing, pruning and clearing.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "show cache statistics",
	Long:  `display the number of entries, how many expired, total size and cache location.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newCLIEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		stats, err := env.cache.Stats()
		if err != nil {
			return fmt.Errorf("failed to get cache stats: %w", err)
		}

		location := env.cache.Dir()
		if location == "" {
			location = "(memory only)"
		}

		fmt.Println("cache statistics:")
		fmt.Printf("  location: %s\n", location)
		fmt.Printf("  entries:  %d\n", stats.Entries)
		fmt.Printf("  expired:  %d\n", stats.Expired)
		fmt.Printf("  size:     %s\n", formatBytes(stats.SizeBytes))
		return nil
	},
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "list all cached songs",
	Long:  `list all songs in the cache with their sync offsets and cache date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newCLIEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		entries, err := env.cache.ListAll()
		if err != nil {
			return fmt.Errorf("failed to list cache: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("cache is empty")
			return nil
		}

		sortCacheEntries(entries, cacheSortBy)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ARTIST\tTITLE\tSYNC OFFSET\tTRANSLATION\tCACHED")
		for _, entry := range entries {
			offset := "-"
			if entry.SyncOffset != 0 {
				offset = fmt.Sprintf("%+.1fs", entry.SyncOffset)
			}
			translated := "-"
			if lyrics.HasTranslation(lyrics.Parse(entry.SyncedLyrics)) {
				translated = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				entry.ArtistName, entry.TrackName, offset, translated,
				time.Unix(entry.CreatedAt, 0).Format("2006-01-02"))
		}
		w.Flush()

		fmt.Printf("\ntotal: %d songs\n", len(entries))
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <artist> <title>",
	Short: "show cached entry for specific song",
	Long:  `display detailed information about a cached song including its sync offset.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist, title := args[0], args[1]

		env, err := newCLIEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		entry, err := env.cache.Get(artist, title)
		if err != nil {
			if suggestions := findSimilarCachedSongs(env.cache, artist, title); len(suggestions) > 0 {
				printSuggestions("song not found in cache", suggestions)
				return errReported
			}
			return fmt.Errorf("song not found in cache: %w", err)
		}

		fmt.Printf("artist:       %s\n", entry.ArtistName)
		fmt.Printf("title:        %s\n", entry.TrackName)
		fmt.Printf("album:        %s\n", entry.AlbumName)
		fmt.Printf("duration:     %.1fs\n", entry.Duration)
		fmt.Printf("sync offset:  %+.2fs\n", entry.SyncOffset)
		fmt.Printf("instrumental: %v\n", entry.Instrumental)
		fmt.Printf("cached:       %s\n", time.Unix(entry.CreatedAt, 0).Format("2006-01-02 15:04:05"))
		fmt.Printf("expires:      %s\n", time.Unix(entry.ExpiresAt, 0).Format("2006-01-02 15:04:05"))

		lines := lyrics.Parse(entry.SyncedLyrics)
		switch {
		case len(lines) > 0:
			fmt.Printf("\nsynced lyrics: %d lines, translation: %v\n", len(lines), lyrics.HasTranslation(lines))
		case entry.PlainLyrics != "":
			fmt.Printf("\nplain lyrics: %d lines (no sync data)\n", len(strings.Split(entry.PlainLyrics, "\n")))
		default:
			fmt.Println("\nno lyrics available")
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "clear all cached entries",
	Long:  `remove all cached lyrics and sync offsets. use --confirm to skip the prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newCLIEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		if !cacheConfirm {
			fmt.Print("are you sure you want to clear all cache? (y/n): ")
			var response string
			fmt.Scanln(&response)
			if r := strings.ToLower(response); r != "y" && r != "yes" {
				fmt.Println("cancelled")
				return nil
			}
		}

		if err := env.cache.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Println("cache cleared successfully")
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "remove expired cache entries",
	Long:  `remove all expired cache entries to free up disk space.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newCLIEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		pruned, err := env.cache.Prune()
		if err != nil {
			return fmt.Errorf("failed to prune cache: %w", err)
		}
		fmt.Printf("removed %d expired entries\n", pruned)
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <artist> <title>",
	Short: "remove specific song from cache",
	Long:  `remove a specific song, and its sync offset, from the cache.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist, title := args[0], args[1]

		env, err := newCLIEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		if _, err := env.cache.Get(artist, title); err != nil {
			if suggestions := findSimilarCachedSongs(env.cache, artist, title); len(suggestions) > 0 {
				printSuggestions("song not found in cache", suggestions)
				return errReported
			}
			return fmt.Errorf("song not found in cache: %w", err)
		}

		if err := env.cache.Delete(artist, title); err != nil {
			return fmt.Errorf("failed to delete from cache: %w", err)
		}
		fmt.Printf("deleted '%s - %s' from cache\n", artist, title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)

	cacheListCmd.Flags().StringVar(&cacheSortBy, "sort", "date", "sort by: date, artist, title")
	cacheClearCmd.Flags().BoolVar(&cacheConfirm, "confirm", false, "skip confirmation prompt")
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func sortCacheEntries(entries []*cache.LyricEntry, sortBy string) {
	switch sortBy {
	case "artist":
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].ArtistName) < strings.ToLower(entries[j].ArtistName)
		})
	case "title":
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].TrackName) < strings.ToLower(entries[j].TrackName)
		})
	default:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].CreatedAt > entries[j].CreatedAt
		})
	}
}

func printSuggestions(headline string, entries []*cache.LyricEntry) {
	fmt.Fprintf(os.Stderr, "%s\n\ndid you mean one of these?\n", headline)
	for _, s := range entries {
		fmt.Fprintf(os.Stderr, "  %s - %s\n", s.ArtistName, s.TrackName)
	}
	fmt.Fprintln(os.Stderr)
}

// findSimilarCachedSongs returns up to five entries whose names contain, or are
// contained in, artist and title. An exact artist match narrows the search.
func findSimilarCachedSongs(c *cache.DiskCache, artist, title string) []*cache.LyricEntry {
	entries, err := c.ListAll()
	if err != nil || len(entries) == 0 {
		return nil
	}
	return similarEntries(entries, artist, title, 5)
}

func similarEntries(entries []*cache.LyricEntry, artist, title string, limit int) []*cache.LyricEntry {
	artist, title = strings.ToLower(artist), strings.ToLower(title)
	overlaps := func(a, b string) bool {
		return strings.Contains(a, b) || strings.Contains(b, a)
	}

	var exact, fuzzy []*cache.LyricEntry
	for _, e := range entries {
		entryArtist, entryTitle := strings.ToLower(e.ArtistName), strings.ToLower(e.TrackName)
		if !overlaps(entryTitle, title) {
			continue
		}
		switch {
		case entryArtist == artist:
			exact = append(exact, e)
		case overlaps(entryArtist, artist):
			fuzzy = append(fuzzy, e)
		}
	}

	matches := exact
	if len(matches) == 0 {
		matches = fuzzy
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
