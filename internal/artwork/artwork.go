package artwork

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"karolbroda.com/duet/internal/colors"
)

const (
	gradientSteps = 20
	fetchTimeout  = 5 * time.Second
	dimColor      = "#6272A4"
)

type Palette struct {
	Primary   string
	Secondary string
	Accent    string
	Dim       string
	Gradient  []string
	// Pair names the two colors the gradient runs between.
	Pair string
}

func DefaultPalette() *Palette {
	return &Palette{
		Primary:   "#8BA4E8",
		Secondary: "#E8A4C8",
		Accent:    "#B8A8E8",
		Dim:       dimColor,
		Gradient:  colors.Gradient("#8BA4E8", "#E8A4C8", gradientSteps),
		Pair:      "default",
	}
}

type Loader struct {
	client *http.Client
	log    *zap.Logger
}

func NewLoader(client *http.Client, log *zap.Logger) *Loader {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{client: client, log: log}
}

func (l *Loader) Fetch(ctx context.Context, artURL string) (image.Image, error) {
	if artURL == "" {
		return nil, errors.New("empty artwork url")
	}

	u, err := url.Parse(artURL)
	if err != nil {
		return nil, fmt.Errorf("invalid artwork url: %w", err)
	}

	var body io.ReadCloser
	switch u.Scheme {
	case "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open artwork file: %w", err)
		}
		body = f
	case "http", "https":
		body, err = l.get(ctx, artURL)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported artwork scheme %q", u.Scheme)
	}
	defer body.Close()

	img, _, err := image.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}
	l.log.Debug("artwork loaded", zap.String("url", artURL), zap.Int("width", img.Bounds().Dx()))
	return img, nil
}

func (l *Loader) get(ctx context.Context, artURL string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to fetch artwork: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("artwork fetch returned status %d", resp.StatusCode)
	}
	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

type candidate struct {
	color      colorful.Color
	sat        float64
	brightness float64
	score      float64
}

// ExtractPalette picks three vivid colors from the cover and the smoothest
// gradient between two of them.
func ExtractPalette(img image.Image) *Palette {
	if img == nil {
		return DefaultPalette()
	}

	items, err := prominentcolor.KmeansWithAll(5, img, prominentcolor.ArgumentDefault, prominentcolor.DefaultSize, nil)
	if err != nil || len(items) < 3 {
		return DefaultPalette()
	}

	cands := make([]candidate, 0, len(items))
	for _, it := range items {
		c := colorful.Color{
			R: float64(it.Color.R) / 255,
			G: float64(it.Color.G) / 255,
			B: float64(it.Color.B) / 255,
		}
		_, sat, val := c.Hsv()
		cands = append(cands, candidate{
			color:      c,
			sat:        sat,
			brightness: val,
			score:      sat * (1 - abs(val-0.6)),
		})
	}

	primary := pick(cands, nil, func(c candidate) bool { return c.brightness > 0.3 && c.sat > 0.2 }, true)
	secondary := pick(cands, []candidate{primary}, func(c candidate) bool { return c.sat > 0.15 && c.brightness > 0.3 }, false)
	accent := pick(cands, []candidate{primary, secondary}, func(c candidate) bool { return c.sat > 0.1 && c.brightness > 0.25 }, false)

	chosen := []candidate{primary, secondary, accent}
	sort.SliceStable(chosen, func(i, j int) bool { return chosen[i].brightness > chosen[j].brightness })

	p := &Palette{
		Primary:   boost(chosen[0]),
		Accent:    boost(chosen[1]),
		Secondary: boost(chosen[2]),
		Dim:       dimColor,
	}
	start, end, pair := bestPair(p.Primary, p.Secondary, p.Accent)
	p.Gradient = colors.Gradient(start, end, gradientSteps)
	p.Pair = pair
	return p
}

// pick returns the first candidate passing ok that is not in used, or the best
// scoring one when byScore is set. Falls back to the zero candidate.
func pick(cands []candidate, used []candidate, ok func(candidate) bool, byScore bool) candidate {
	var best candidate
	bestScore := -1.0
	for _, c := range cands {
		if taken(c, used) || !ok(c) {
			continue
		}
		if !byScore {
			return c
		}
		if c.score > bestScore {
			best, bestScore = c, c.score
		}
	}
	return best
}

func taken(c candidate, used []candidate) bool {
	for _, u := range used {
		if u.color == c.color {
			return true
		}
	}
	return false
}

// boost lifts dark colors and tames near-white ones so text stays readable on
// a dark terminal.
func boost(c candidate) string {
	col := c.color
	if c.brightness < 0.4 && c.brightness > 0 {
		f := 0.4 / c.brightness
		if f > 2.5 {
			f = 2.5
		}
		col = colorful.Color{R: col.R * f, G: col.G * f, B: col.B * f}
	}
	if c.brightness > 0.85 {
		avg := (col.R + col.G + col.B) / 3
		col = colorful.Color{
			R: avg + (col.R-avg)*0.7,
			G: avg + (col.G-avg)*0.7,
			B: avg + (col.B-avg)*0.7,
		}
	}
	return colors.Hex(col)
}

// bestPair returns the smoothest ordered pair, preferring a brighter start when
// two pairs are about as smooth.
func bestPair(primary, secondary, accent string) (string, string, string) {
	type pair struct {
		start, end, name string
		rough            float64
	}

	pairs := []pair{
		{start: primary, end: secondary, name: "primary/secondary"},
		{start: primary, end: accent, name: "primary/accent"},
		{start: secondary, end: primary, name: "secondary/primary"},
		{start: secondary, end: accent, name: "secondary/accent"},
		{start: accent, end: primary, name: "accent/primary"},
		{start: accent, end: secondary, name: "accent/secondary"},
	}
	for i := range pairs {
		pairs[i].rough = colors.Smoothness(pairs[i].start, pairs[i].end, gradientSteps)
	}

	best := 0
	for i := range pairs {
		if pairs[i].rough < pairs[best].rough {
			best = i
		}
	}
	smoothest := pairs[best].rough
	for i := range pairs {
		if pairs[i].rough-smoothest < 0.05 && colors.Lightness(pairs[i].start) > colors.Lightness(pairs[best].start) {
			best = i
		}
	}
	return pairs[best].start, pairs[best].end, pairs[best].name
}

// RenderHalfBlock draws the image with ▀ cells, two pixels per cell.
func RenderHalfBlock(img image.Image, width, height int) []string {
	if img == nil || width < 4 || height < 2 {
		return nil
	}

	resized := resize.Resize(uint(width), uint(height*2), img, resize.Lanczos3)
	b := resized.Bounds()

	lines := make([]string, height)
	for y := 0; y < height; y++ {
		var line strings.Builder
		for x := 0; x < b.Dx(); x++ {
			top, topOK := colorful.MakeColor(resized.At(b.Min.X+x, b.Min.Y+2*y))
			bottom, bottomOK := top, topOK
			if 2*y+1 < b.Dy() {
				bottom, bottomOK = colorful.MakeColor(resized.At(b.Min.X+x, b.Min.Y+2*y+1))
			}
			if !topOK && !bottomOK {
				line.WriteString(" ")
				continue
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(colors.Hex(top))).
				Background(lipgloss.Color(colors.Hex(bottom)))
			line.WriteString(style.Render("▀"))
		}
		lines[y] = line.String()
	}
	return lines
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
