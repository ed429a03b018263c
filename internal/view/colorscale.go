package view

import (
	"fmt"
	"strconv"
)

// Palette holds the color endpoints and marker radius range used to encode
// counts for the map.
type Palette struct {
	LowColor    string
	HighColor   string
	NoDataColor string
	MinRadius   float64
	MaxRadius   float64
}

// DefaultPalette returns the palette used when configuration is absent.
func DefaultPalette() Palette {
	return Palette{
		LowColor:    "#e0f2fe",
		HighColor:   "#0c4a6e",
		NoDataColor: "#d1d5db",
		MinRadius:   4,
		MaxRadius:   18,
	}
}

// Validate checks that the configured colors parse and the radius range is
// sane. Called once at startup so scale construction stays infallible.
func (p Palette) Validate() error {
	for _, c := range []string{p.LowColor, p.HighColor, p.NoDataColor} {
		if _, ok := parseHex(c); !ok {
			return fmt.Errorf("invalid palette color %q", c)
		}
	}
	if p.MinRadius < 0 || p.MaxRadius < p.MinRadius {
		return fmt.Errorf("invalid marker radius range [%v, %v]", p.MinRadius, p.MaxRadius)
	}
	return nil
}

type rgb struct {
	r, g, b uint8
}

// ColorScale maps a count in [0, max] onto a choropleth fill color and a
// marker radius. Rebuilt whenever the underlying ranked set changes, never
// persisted.
type ColorScale struct {
	low    rgb
	high   rgb
	noData rgb
	min    float64
	spread float64
	max    int64
}

// NewColorScale builds a scale over the domain [0, max]. Colors that fail
// to parse fall back to the defaults; use Palette.Validate at startup to
// reject them earlier.
func NewColorScale(p Palette, max int64) *ColorScale {
	def := DefaultPalette()
	return &ColorScale{
		low:    parseHexOr(p.LowColor, def.LowColor),
		high:   parseHexOr(p.HighColor, def.HighColor),
		noData: parseHexOr(p.NoDataColor, def.NoDataColor),
		min:    p.MinRadius,
		spread: p.MaxRadius - p.MinRadius,
		max:    max,
	}
}

// Color returns the interpolated fill color for a count. When the domain is
// empty (max 0) every count maps to the no-data sentinel color.
func (s *ColorScale) Color(count int64) string {
	if s.max <= 0 {
		return formatHex(s.noData)
	}
	t := ratio(count, s.max)
	return formatHex(rgb{
		r: lerp(s.low.r, s.high.r, t),
		g: lerp(s.low.g, s.high.g, t),
		b: lerp(s.low.b, s.high.b, t),
	})
}

// Radius returns the marker radius for a count, linearly scaled into
// [MinRadius, MaxRadius] with the same zero-domain guard as Color.
func (s *ColorScale) Radius(count int64) float64 {
	if s.max <= 0 {
		return s.min
	}
	return s.min + s.spread*ratio(count, s.max)
}

func ratio(count, max int64) float64 {
	if count < 0 {
		return 0
	}
	if count > max {
		return 1
	}
	return float64(count) / float64(max)
}

func lerp(low, high uint8, t float64) uint8 {
	return uint8(float64(low) + (float64(high)-float64(low))*t + 0.5)
}

func parseHex(s string) (rgb, bool) {
	if len(s) != 7 || s[0] != '#' {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{
		r: uint8(v >> 16),
		g: uint8(v >> 8),
		b: uint8(v),
	}, true
}

func parseHexOr(s, fallback string) rgb {
	if c, ok := parseHex(s); ok {
		return c
	}
	c, _ := parseHex(fallback)
	return c
}

func formatHex(c rgb) string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}
