package layer

import (
	"fmt"
	"strings"
	"sync/atomic"

	"gopkg.in/go-playground/colors.v1"
)

// Color is an 8-bit RGB color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex formats the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string { return c.Hex() }

// ParseColor parses a CSS color string (#rgb, #rrggbb, rgb(...), rgba(...)).
// Alpha is dropped.
func ParseColor(s string) (Color, error) {
	parsed, err := colors.Parse(strings.TrimSpace(s))
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	rgb := parsed.ToRGB()
	return Color{R: rgb.R, G: rgb.G, B: rgb.B}, nil
}

// Palette is the Category10 scheme used for newly ingested layers.
var Palette = [10]Color{
	{0x1f, 0x77, 0xb4},
	{0xff, 0x7f, 0x0e},
	{0x2c, 0xa0, 0x2c},
	{0xd6, 0x27, 0x28},
	{0x94, 0x67, 0xbd},
	{0x8c, 0x56, 0x4b},
	{0xe3, 0x77, 0xc2},
	{0x7f, 0x7f, 0x7f},
	{0xbc, 0xbd, 0x22},
	{0x17, 0xbe, 0xcf},
}

// ColorAllocator hands out palette colors in a repeating cycle. It is safe
// for concurrent use.
type ColorAllocator struct {
	next atomic.Uint64
}

// NewColorAllocator returns an allocator starting at the first palette entry.
func NewColorAllocator() *ColorAllocator {
	return &ColorAllocator{}
}

// Next returns the next palette color.
func (a *ColorAllocator) Next() Color {
	n := a.next.Add(1) - 1
	return Palette[n%uint64(len(Palette))]
}
