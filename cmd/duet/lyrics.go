package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"karolbroda.com/duet/internal/cache"
	"karolbroda.com/duet/internal/config"
	"karolbroda.com/duet/internal/logging"
	"karolbroda.com/duet/internal/lyrics"
	"karolbroda.com/duet/internal/mode"
	"karolbroda.com/duet/internal/session"
)

var (
	// flags for lyrics preview and embed
	previewFile string
	previewMode string
	embedLRC    string
	embedLang   string
	embedDryRun bool
)

var lyricsCmd = &cobra.Command{
	Use:   "lyrics",
	Short: "lyrics search and management",
	Long:  `search for lyrics, pre-fetch to cache, preview them in the terminal or embed them into mp3 files.`,
}

var lyricsSearchCmd = &cobra.Command{
	Use:   "search <artist> <title>",
	Short: "search for lyrics on lrclib",
	Long:  `search for lyrics on lrclib.net and display availability information.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist, title := args[0], args[1]

		env, err := newCLIEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		fmt.Printf("searching for: %s - %s\n\n", artist, title)

		resp, err := env.client(false).Fetch(context.Background(), &lyrics.TrackParams{Title: title, Artist: artist})
		if err != nil {
			return fmt.Errorf("lyrics not found: %w", err)
		}

		printSummary(os.Stdout, resp)
		fmt.Println("\nuse 'duet lyrics fetch' to save to cache")
		return nil
	},
}

var lyricsFetchCmd = &cobra.Command{
	Use:   "fetch <artist> <title>",
	Short: "pre-fetch and cache lyrics",
	Long:  `fetch lyrics from lrclib.net and save them to the local cache for instant loading.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist, title := args[0], args[1]

		env, err := newCLIEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		if cached, err := env.cache.Get(artist, title); err == nil {
			fmt.Printf("'%s - %s' is already cached\n", artist, title)
			if cached.SyncOffset != 0 {
				fmt.Printf("sync offset: %.2fs\n", cached.SyncOffset)
			}
			return nil
		}

		fmt.Printf("fetching: %s - %s\n", artist, title)

		resp, err := env.client(true).Fetch(context.Background(), &lyrics.TrackParams{Title: title, Artist: artist})
		if err != nil {
			return fmt.Errorf("failed to fetch lyrics: %w", err)
		}

		fmt.Printf("cached successfully: %s - %s\n", resp.ArtistName, resp.TrackName)
		lines := lyrics.Parse(resp.SyncedLyrics)
		switch {
		case len(lines) == 0:
			fmt.Println("only plain lyrics available (no timing)")
		case lyrics.HasTranslation(lines):
			fmt.Printf("synced lyrics available, %d lines with translation\n", len(lines))
		default:
			fmt.Printf("synced lyrics available, %d lines\n", len(lines))
		}
		return nil
	},
}

var lyricsPreviewCmd = &cobra.Command{
	Use:   "preview [<artist> <title>]",
	Short: "preview lyrics in terminal",
	Long: `display parsed lyrics with timestamps in the chosen display mode.

lyrics come from --file (an .lrc file, or an audio file with a sidecar .lrc or
an embedded lyrics tag) or from the cache and lrclib for artist and title.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if previewFile == "" && len(args) != 2 {
			return errors.New("need <artist> <title> or --file")
		}

		env, err := newCLIEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		var (
			raw    string
			source lyrics.Source
			header string
		)
		if previewFile != "" {
			raw, source, err = readLyricsFile(previewFile)
			if err != nil {
				return err
			}
			header = filepath.Base(previewFile)
		} else {
			resp, src, err := env.lookup(args[0], args[1])
			if err != nil {
				if suggestions := findSimilarCachedSongs(env.cache, args[0], args[1]); len(suggestions) > 0 {
					printSuggestions("lyrics not found", suggestions)
				}
				return fmt.Errorf("lyrics not found: %w", err)
			}
			if resp.Instrumental {
				fmt.Println("[instrumental]")
				return nil
			}
			raw, source = resp.SyncedLyrics, src
			header = fmt.Sprintf("%s - %s", resp.ArtistName, resp.TrackName)
			if resp.SyncedLyrics == "" && resp.PlainLyrics != "" {
				fmt.Printf("%s\n\nplain lyrics (no timestamps):\n\n%s\n", header, resp.PlainLyrics)
				return nil
			}
		}

		lines := lyrics.Parse(raw)
		if len(lines) == 0 {
			return errors.New("no valid synced lyrics found")
		}

		m := mode.Parse(previewMode)
		if !m.Active() {
			return fmt.Errorf("unknown mode %q, want one of: %s", previewMode, modeNames())
		}

		fmt.Printf("%s (%s)\n", header, source)
		if m.ShowsTranslation() && !lyrics.HasTranslation(lines) {
			fmt.Println("no translation available, showing the original text")
		}
		fmt.Println(strings.Repeat("─", 60))
		renderPreview(os.Stdout, lines, m)
		return nil
	},
}

var lyricsEmbedCmd = &cobra.Command{
	Use:   "embed <file.mp3> [<artist> <title>]",
	Short: "write synced lyrics into an mp3 tag",
	Long: `store lyrics in the USLT frame of an mp3 so the viewer finds them offline.

lyrics come from --lrc, from the sidecar .lrc next to the mp3, or from the cache
and lrclib for artist and title.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			return errors.New("give both <artist> and <title>, or neither")
		}
		target := args[0]

		env, err := newCLIEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		var raw string
		switch {
		case embedLRC != "":
			data, err := os.ReadFile(embedLRC)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", embedLRC, err)
			}
			raw = string(data)
		case len(args) == 3:
			resp, _, err := env.lookup(args[1], args[2])
			if err != nil {
				return fmt.Errorf("lyrics not found: %w", err)
			}
			raw = resp.SyncedLyrics
		default:
			data, err := os.ReadFile(lyrics.SidecarPath(target))
			if err != nil {
				return fmt.Errorf("no --lrc, no artist and title, and no sidecar: %w", err)
			}
			raw = string(data)
		}

		lines := lyrics.Parse(raw)
		if len(lines) == 0 {
			return errors.New("no synced lyrics to embed")
		}

		if embedDryRun {
			fmt.Print(lyrics.Format(lines))
			return nil
		}
		if err := lyrics.Embed(target, lines, embedLang); err != nil {
			return err
		}
		fmt.Printf("embedded %d lines into %s\n", len(lines), target)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lyricsCmd)

	lyricsCmd.AddCommand(lyricsSearchCmd)
	lyricsCmd.AddCommand(lyricsFetchCmd)
	lyricsCmd.AddCommand(lyricsPreviewCmd)
	lyricsCmd.AddCommand(lyricsEmbedCmd)

	lyricsPreviewCmd.Flags().StringVarP(&previewFile, "file", "f", "", "read lyrics from an .lrc or audio file")
	lyricsPreviewCmd.Flags().StringVar(&previewMode, "mode", "bilingual", "display mode: "+modeNames())

	lyricsEmbedCmd.Flags().StringVar(&embedLRC, "lrc", "", "read lyrics from this .lrc file")
	lyricsEmbedCmd.Flags().StringVar(&embedLang, "lang", "eng", "three letter language code of the lyrics")
	lyricsEmbedCmd.Flags().BoolVar(&embedDryRun, "dry-run", false, "print the lyrics instead of writing the tag")
}

// cliEnv holds what the one-shot commands share: config, a logger and the
// disk cache.
type cliEnv struct {
	cfg   *config.Config
	log   *zap.Logger
	cache *cache.DiskCache
}

func newCLIEnv(cmd *cobra.Command) (*cliEnv, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	c, err := newCache(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return &cliEnv{cfg: cfg, log: log, cache: c}, nil
}

func (e *cliEnv) close() {
	_ = e.log.Sync()
}

// client returns an lrclib client. Hits are written to the cache only when
// store is set.
func (e *cliEnv) client(store bool) *lyrics.Client {
	c := e.cache
	if !store {
		c = nil
	}
	return lyrics.NewClient(lyrics.ClientConfig{
		BaseURL: e.cfg.LrclibURL,
		Cache:   c,
		NoCache: noCache,
		Logger:  e.log.Named("lyrics"),
	})
}

// lookup prefers the cache, then lrclib.
func (e *cliEnv) lookup(artist, title string) (*lyrics.LrclibResponse, lyrics.Source, error) {
	client := e.client(true)
	if resp := client.Cached(artist, title); resp != nil {
		return resp, lyrics.SourceCache, nil
	}
	resp, err := client.Fetch(context.Background(), &lyrics.TrackParams{Title: title, Artist: artist})
	if err != nil {
		return nil, "", err
	}
	return resp, lyrics.SourceLrclib, nil
}

// readLyricsFile reads an .lrc directly, anything else as an audio file.
func readLyricsFile(path string) (string, lyrics.Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".lrc") {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), lyrics.SourceSidecar, nil
	}
	return lyrics.ReadLocal(path)
}

func printSummary(w io.Writer, resp *lyrics.LrclibResponse) {
	fmt.Fprintln(w, "found lyrics:")
	fmt.Fprintf(w, "  track:        %s\n", resp.TrackName)
	fmt.Fprintf(w, "  artist:       %s\n", resp.ArtistName)
	if resp.AlbumName != "" {
		fmt.Fprintf(w, "  album:        %s\n", resp.AlbumName)
	}
	if resp.Duration > 0 {
		fmt.Fprintf(w, "  duration:     %.0fs\n", resp.Duration)
	}
	fmt.Fprintf(w, "  instrumental: %v\n", resp.Instrumental)

	if lines := lyrics.Parse(resp.SyncedLyrics); len(lines) > 0 {
		fmt.Fprintf(w, "  synced lines: %d\n", len(lines))
		fmt.Fprintf(w, "  translation:  %v\n", lyrics.HasTranslation(lines))
	} else {
		fmt.Fprintln(w, "  synced lines: none")
	}
	if resp.PlainLyrics != "" {
		fmt.Fprintf(w, "  plain lines:  %d\n", len(strings.Split(resp.PlainLyrics, "\n")))
	} else {
		fmt.Fprintln(w, "  plain lines:  none")
	}
}

// modeNames lists the modes that show lyrics.
func modeNames() string {
	var names []string
	for _, m := range mode.All {
		if m.Active() {
			names = append(names, m.String())
		}
	}
	return strings.Join(names, ", ")
}

var translationStyle = lipgloss.NewStyle().Faint(true).Italic(true)

// renderPreview prints every line as the viewer would show it in m, with its
// timestamp on the first row.
func renderPreview(w io.Writer, lines []lyrics.Line, m mode.Mode) {
	pad := strings.Repeat(" ", len("[00:00.000] "))
	for _, line := range lines {
		for i, row := range session.Project(line, m) {
			prefix := pad
			if i == 0 {
				prefix = "[" + lyrics.FormatTimestamp(line.Time) + "] "
			}
			text := row.Text
			if row.Role == session.Translation {
				text = translationStyle.Render(text)
			}
			fmt.Fprintln(w, prefix+text)
		}
	}
}
