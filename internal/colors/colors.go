package colors

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// smoothing kicks in when the ends of a gradient are further apart than this
const farApart = 0.35

var white = colorful.Color{R: 1, G: 1, B: 1}

// Parse reads "#rrggbb", "rrggbb" or "#rgb". Anything else is white.
func Parse(hex string) colorful.Color {
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return white
	}
	return c
}

func Hex(c colorful.Color) string {
	return c.Clamped().Hex()
}

// Gradient interpolates in HCL so hue takes the short way round. Distant
// endpoints get an eased curve so the middle does not turn muddy.
func Gradient(startHex, endHex string, steps int) []string {
	if steps < 2 {
		steps = 2
	}

	start, end := Parse(startHex), Parse(endHex)
	ease := start.DistanceCIEDE2000(end) > farApart

	out := make([]string, steps)
	for i := range out {
		t := float64(i) / float64(steps-1)
		if ease {
			t = smoothStep(smoothStep(t))
		}
		out[i] = Hex(start.BlendHcl(end, t))
	}
	return out
}

func MultiGradient(stops []string, steps int) []string {
	if len(stops) == 0 {
		return []string{Hex(white)}
	}
	if len(stops) == 1 || steps < 2 {
		return []string{Hex(Parse(stops[0]))}
	}

	out := make([]string, 0, steps)
	segments := len(stops) - 1
	per := steps / segments

	for i := 0; i < segments; i++ {
		n := per
		if i == segments-1 {
			n = steps - len(out)
		}
		seg := Gradient(stops[i], stops[i+1], n+1)
		if i > 0 {
			seg = seg[1:]
		}
		out = append(out, seg...)
	}
	return out[:steps]
}

// Smoothness is the largest perceptual jump between neighbouring steps of a
// gradient. Lower is smoother.
func Smoothness(startHex, endHex string, steps int) float64 {
	grad := Gradient(startHex, endHex, steps)
	worst := 0.0
	for i := 1; i < len(grad); i++ {
		d := Parse(grad[i-1]).DistanceCIEDE2000(Parse(grad[i]))
		if d > worst {
			worst = d
		}
	}
	return worst
}

func Lightness(hex string) float64 {
	_, _, l := Parse(hex).Hcl()
	return l
}

func Blend(a, b string, t float64) string {
	return Hex(Parse(a).BlendHcl(Parse(b), clamp01(t)))
}

// Glow brightens a color, intensity 0 to 1.
func Glow(hex string, intensity float64) string {
	c := Parse(hex)
	boost := 1 + clamp01(intensity)*0.6
	return Hex(colorful.Color{R: c.R * boost, G: c.G * boost, B: c.B * boost})
}

func Dim(hex string, factor float64) string {
	c := Parse(hex)
	f := clamp01(factor)
	return Hex(colorful.Color{R: c.R * f, G: c.G * f, B: c.B * f})
}

func Desaturate(hex string, amount float64) string {
	h, s, l := Parse(hex).Hsl()
	return Hex(colorful.Hsl(h, s*(1-clamp01(amount)), l))
}

// Fade mixes fg toward bg. alpha 1 is fully fg.
func Fade(fg, bg string, alpha float64) string {
	return Hex(Parse(bg).BlendRgb(Parse(fg), clamp01(alpha)))
}

func GradientText(text string, gradient []string, style lipgloss.Style) string {
	if text == "" || len(gradient) == 0 {
		return style.Render(text)
	}

	runes := []rune(text)
	var b strings.Builder
	for i, r := range runes {
		idx := 0
		if len(runes) > 1 {
			idx = i * (len(gradient) - 1) / (len(runes) - 1)
		}
		b.WriteString(style.Foreground(lipgloss.Color(gradient[idx])).Render(string(r)))
	}
	return b.String()
}

// FormatTime renders seconds as m:ss.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		return "0:00"
	}
	s := int64(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func smoothStep(t float64) float64 {
	t = clamp01(t)
	return t * t * (3 - 2*t)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
