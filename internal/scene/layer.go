// Package scene holds the authoritative overlay composition state and
// enforces its invariants on every mutation.
package scene

import (
	"math"

	"overlay-studio/pkg/geometry"
)

// Layer is the mutable unit of composition: one template image placed on
// the base image with its own geometry, rotation, opacity and stacking.
type Layer struct {
	ID         string `json:"id"`
	TemplateID string `json:"template_id"`
	Name       string `json:"name"`

	// Source is the template's source reference (path, URI or buffer key),
	// kept on the layer so the composition can be re-rendered later.
	Source string `json:"source"`

	// Geometry in base-image pixel space.
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Rotation in degrees, normalized to [0, 360).
	Rotation float64 `json:"rotation"`

	// Opacity in [0, 1].
	Opacity float64 `json:"opacity"`

	Visible bool `json:"visible"`

	// ZOrder need not be unique; ties break by insertion order.
	ZOrder int `json:"z_order"`
}

// Rect returns the layer's bounding box.
func (l *Layer) Rect() geometry.Rect {
	return geometry.Rect{X: l.X, Y: l.Y, Width: l.Width, Height: l.Height}
}

// SetRect sets the layer's bounding box.
func (l *Layer) SetRect(r geometry.Rect) {
	l.X, l.Y, l.Width, l.Height = r.X, r.Y, r.Width, r.Height
}

// Clone returns a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	c := *l
	return &c
}

// NormalizeRotation maps any degree value into [0, 360).
func NormalizeRotation(degrees float64) float64 {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// Patch carries a partial layer update; nil fields are left unchanged.
type Patch struct {
	Name     *string
	X        *float64
	Y        *float64
	Width    *float64
	Height   *float64
	Rotation *float64
	Opacity  *float64
	Visible  *bool
	ZOrder   *int
}
