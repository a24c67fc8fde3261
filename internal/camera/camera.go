// Package camera tracks the 2-D view onto projected layer coordinates.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// ZoomStep is the factor applied by a single zoom in; its inverse zooms out.
const ZoomStep = 1.15

// ErrInvalidZoom is returned for non-positive or non-finite zoom factors.
var ErrInvalidZoom = errors.New("invalid zoom amount")

// Size is a viewport size in screen units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Camera maps projected coordinates to the screen. Scale is screen units per
// projected unit; Center is the projected point at the middle of the viewport.
type Camera struct {
	Center   orb.Point `json:"center"`
	Scale    float64   `json:"scale"`
	Viewport Size      `json:"viewport"`
}

// New returns a camera at the origin with unit scale.
func New(viewport Size) Camera {
	return Camera{Scale: 1, Viewport: viewport}
}

// Pan moves the view by x, y screen units. Positive x is right, positive y
// is up.
func (c *Camera) Pan(x, y float64) bool {
	if x == 0 && y == 0 {
		return false
	}
	c.Center[0] += x / c.Scale
	c.Center[1] += y / c.Scale
	return true
}

// Zoom multiplies the scale by amount: above 1 zooms in, below 1 zooms out
// and exactly 1 is a no-op. It reports whether the camera changed.
func (c *Camera) Zoom(amount float64) (bool, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return false, fmt.Errorf("%w: %g", ErrInvalidZoom, amount)
	}
	if amount == 1 {
		return false, nil
	}
	c.Scale *= amount
	return true, nil
}

// CenterOn moves the camera to the center of b and fits b into the viewport.
// A bound with zero width and height keeps the current scale.
func (c *Camera) CenterOn(b orb.Bound) {
	c.Center = b.Center()

	w, h := b.Right()-b.Left(), b.Top()-b.Bottom()
	var fit []float64
	if w > 0 && c.Viewport.Width > 0 {
		fit = append(fit, c.Viewport.Width/w)
	}
	if h > 0 && c.Viewport.Height > 0 {
		fit = append(fit, c.Viewport.Height/h)
	}
	if len(fit) > 0 {
		c.Scale = fit[0]
		for _, s := range fit[1:] {
			c.Scale = math.Min(c.Scale, s)
		}
	}
}

// ScreenToWorld converts a screen position (origin top-left, y down) to a
// projected coordinate.
func (c Camera) ScreenToWorld(x, y float64) orb.Point {
	return orb.Point{
		c.Center[0] + (x-c.Viewport.Width/2)/c.Scale,
		c.Center[1] - (y-c.Viewport.Height/2)/c.Scale,
	}
}

// WorldToScreen is the inverse of ScreenToWorld.
func (c Camera) WorldToScreen(p orb.Point) (x, y float64) {
	return (p[0]-c.Center[0])*c.Scale + c.Viewport.Width/2,
		c.Viewport.Height/2 - (p[1]-c.Center[1])*c.Scale
}
