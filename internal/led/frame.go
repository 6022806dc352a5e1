package led

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 24-bit 0xRRGGBB value.
type Color uint32

// Named colors.
const (
	Black Color = 0x000000
	White Color = 0xFFFFFF
	Red   Color = 0xFF0000
	Green Color = 0x00FF00
	Blue  Color = 0x0000FF
)

// RGB splits the color into its channels.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

func (c Color) String() string {
	return fmt.Sprintf("#%06X", uint32(c)&0xFFFFFF)
}

// ParseColor parses "#RRGGBB" or "RRGGBB".
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Black, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Black, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(v), nil
}

// Frame holds one color per pixel, index = physical position on the strip.
type Frame []Color

// NewFrame returns an n-pixel frame filled with c.
func NewFrame(n int, c Color) Frame {
	f := make(Frame, n)
	for i := range f {
		f[i] = c
	}
	return f
}

// Uniform reports whether every pixel equals c.
func (f Frame) Uniform(c Color) bool {
	for _, px := range f {
		if px != c {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of f.
func (f Frame) Clone() Frame {
	return append(Frame(nil), f...)
}

// RGBBytes encodes the frame as packed R,G,B bytes scaled by brightness/255.
func (f Frame) RGBBytes(brightness uint8) []byte {
	out := make([]byte, 0, len(f)*3)
	for _, px := range f {
		r, g, b := px.RGB()
		out = append(out, scale(r, brightness), scale(g, brightness), scale(b, brightness))
	}
	return out
}

func scale(v, brightness uint8) uint8 {
	return uint8(uint16(v) * uint16(brightness) / 255)
}
