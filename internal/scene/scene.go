package scene

import (
	"sort"

	"github.com/oklog/ulid/v2"

	"overlay-studio/pkg/geometry"
)

const (
	// MinSizeInteractive is the smallest layer side reachable by dragging
	// a resize handle.
	MinSizeInteractive = 20.0

	// MinSizeDirect is the smallest layer side accepted from direct
	// numeric entry.
	MinSizeDirect = 10.0

	// addFraction sizes a new layer's longer side relative to the smaller
	// canvas dimension.
	addFraction = 0.40

	// addFloorLong is the minimum longer side of a freshly added layer.
	addFloorLong = 150.0

	// fallbackFraction sizes layers whose template dimensions are unknown.
	fallbackFraction = 0.30

	duplicateOffset = 20.0
)

// TemplateInfo describes the template a layer is instantiated from. The
// template library owns the full record; the scene only needs this much.
type TemplateInfo struct {
	ID     string
	Name   string
	Source string

	// Native pixel dimensions, zero when the template failed to load.
	NativeWidth  int
	NativeHeight int
}

// Scene is the ordered collection of overlay layers on one base image.
// The base image's pixel dimensions define the canvas size.
type Scene struct {
	BaseName string `json:"base_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`

	Layers []*Layer `json:"layers"`

	selectedID string
}

// New creates a scene for a base image with the given pixel dimensions.
func New(baseName string, width, height int) *Scene {
	return &Scene{
		BaseName: baseName,
		Width:    width,
		Height:   height,
	}
}

// newID returns a fresh layer identifier.
func newID() string {
	return ulid.Make().String()
}

// Find returns the layer with the given id, or nil.
func (s *Scene) Find(id string) *Layer {
	for _, l := range s.Layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Select marks the layer with the given id as selected. Selecting an
// unknown id clears the selection.
func (s *Scene) Select(id string) {
	if s.Find(id) == nil {
		s.selectedID = ""
		return
	}
	s.selectedID = id
}

// Deselect clears the selection.
func (s *Scene) Deselect() {
	s.selectedID = ""
}

// SelectedID returns the id of the selected layer, or "".
func (s *Scene) SelectedID() string {
	return s.selectedID
}

// Selected returns the selected layer, or nil.
func (s *Scene) Selected() *Layer {
	if s.selectedID == "" {
		return nil
	}
	return s.Find(s.selectedID)
}

// Ordered returns the layers sorted ascending by z-order. The sort is
// stable so equal z-orders keep insertion order.
func (s *Scene) Ordered() []*Layer {
	out := make([]*Layer, len(s.Layers))
	copy(out, s.Layers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZOrder < out[j].ZOrder
	})
	return out
}

// TopmostAt returns the topmost visible layer whose bounding box contains
// the point, or nil.
func (s *Scene) TopmostAt(p geometry.Point2D) *Layer {
	ordered := s.Ordered()
	for i := len(ordered) - 1; i >= 0; i-- {
		l := ordered[i]
		if l.Visible && l.Rect().Contains(p) {
			return l
		}
	}
	return nil
}

// AddLayer instantiates a template as a new layer, sized to roughly 40%
// of the smaller canvas dimension (longer side floored at 150px),
// preserving the template's aspect ratio, centered, stacked on top and
// selected. Templates with unknown dimensions fall back to a 30%x30% box
// near the top-left.
func (s *Scene) AddLayer(t TemplateInfo) *Layer {
	cw, ch := float64(s.Width), float64(s.Height)

	var r geometry.Rect
	if t.NativeWidth > 0 && t.NativeHeight > 0 {
		long := addFraction * minf(cw, ch)
		if long < addFloorLong {
			long = addFloorLong
		}
		aspect := float64(t.NativeWidth) / float64(t.NativeHeight)
		if aspect >= 1 {
			r.Width = long
			r.Height = long / aspect
		} else {
			r.Height = long
			r.Width = long * aspect
		}
		r.X = (cw - r.Width) / 2
		r.Y = (ch - r.Height) / 2
	} else {
		r = geometry.Rect{
			X:      0.1 * cw,
			Y:      0.1 * ch,
			Width:  fallbackFraction * cw,
			Height: fallbackFraction * ch,
		}
	}

	return s.insert(t, s.clampRect(r, MinSizeDirect))
}

// AddLayerOriginalSize instantiates a template at its native pixel
// dimensions, centered.
func (s *Scene) AddLayerOriginalSize(t TemplateInfo) *Layer {
	if t.NativeWidth <= 0 || t.NativeHeight <= 0 {
		return s.AddLayer(t)
	}
	cw, ch := float64(s.Width), float64(s.Height)
	w := float64(t.NativeWidth)
	h := float64(t.NativeHeight)
	r := geometry.Rect{X: (cw - w) / 2, Y: (ch - h) / 2, Width: w, Height: h}
	return s.insert(t, s.clampRect(r, MinSizeDirect))
}

func (s *Scene) insert(t TemplateInfo, r geometry.Rect) *Layer {
	l := &Layer{
		ID:         newID(),
		TemplateID: t.ID,
		Name:       t.Name,
		Source:     t.Source,
		Rotation:   0,
		Opacity:    1.0,
		Visible:    true,
		ZOrder:     len(s.Layers),
	}
	l.SetRect(r)
	s.Layers = append(s.Layers, l)
	s.selectedID = l.ID
	return l
}

// UpdateLayer merges the patch into the layer and re-clamps its geometry.
// Unknown ids are silent no-ops.
func (s *Scene) UpdateLayer(id string, p Patch) {
	l := s.Find(id)
	if l == nil {
		return
	}
	if p.Name != nil {
		l.Name = *p.Name
	}
	r := l.Rect()
	if p.X != nil {
		r.X = *p.X
	}
	if p.Y != nil {
		r.Y = *p.Y
	}
	if p.Width != nil {
		r.Width = *p.Width
	}
	if p.Height != nil {
		r.Height = *p.Height
	}
	l.SetRect(s.clampRect(r, MinSizeDirect))
	if p.Rotation != nil {
		l.Rotation = NormalizeRotation(*p.Rotation)
	}
	if p.Opacity != nil {
		l.Opacity = clampf(*p.Opacity, 0, 1)
	}
	if p.Visible != nil {
		l.Visible = *p.Visible
	}
	if p.ZOrder != nil {
		z := *p.ZOrder
		if z < 0 {
			z = 0
		}
		l.ZOrder = z
	}
}

// MoveLayer repositions a layer, clamped to the canvas preserving size.
func (s *Scene) MoveLayer(id string, x, y float64) {
	l := s.Find(id)
	if l == nil {
		return
	}
	r := l.Rect()
	r.X, r.Y = x, y
	l.SetRect(s.clampRect(r, MinSizeInteractive))
}

// SetLayerRect applies interactively resized geometry, clamped to the
// canvas with the interactive minimum side.
func (s *Scene) SetLayerRect(id string, r geometry.Rect) {
	l := s.Find(id)
	if l == nil {
		return
	}
	l.SetRect(s.clampRect(r, MinSizeInteractive))
}

// DeleteLayer removes the layer, clearing the selection if it was selected.
func (s *Scene) DeleteLayer(id string) {
	for i, l := range s.Layers {
		if l.ID == id {
			s.Layers = append(s.Layers[:i], s.Layers[i+1:]...)
			if s.selectedID == id {
				s.selectedID = ""
			}
			return
		}
	}
}

// DuplicateLayer clones a layer offset by (20,20), renamed with a "Copy"
// suffix, stacked above the current maximum z-order and selected.
func (s *Scene) DuplicateLayer(id string) *Layer {
	src := s.Find(id)
	if src == nil {
		return nil
	}
	dup := src.Clone()
	dup.ID = newID()
	dup.Name = src.Name + " Copy"
	dup.ZOrder = s.maxZOrder() + 1

	r := dup.Rect()
	r.X += duplicateOffset
	r.Y += duplicateOffset
	dup.SetRect(s.clampRect(r, MinSizeInteractive))

	s.Layers = append(s.Layers, dup)
	s.selectedID = dup.ID
	return dup
}

// ReorderDirection selects which way Reorder moves a layer.
type ReorderDirection int

const (
	ReorderUp ReorderDirection = iota
	ReorderDown
)

// Reorder moves a layer one z-order step up or down (floored at 0).
func (s *Scene) Reorder(id string, dir ReorderDirection) {
	l := s.Find(id)
	if l == nil {
		return
	}
	switch dir {
	case ReorderUp:
		l.ZOrder++
	case ReorderDown:
		if l.ZOrder > 0 {
			l.ZOrder--
		}
	}
}

// SetVisible sets a layer's visibility.
func (s *Scene) SetVisible(id string, visible bool) {
	if l := s.Find(id); l != nil {
		l.Visible = visible
	}
}

// SetOpacity sets a layer's opacity, clamped to [0, 1].
func (s *Scene) SetOpacity(id string, opacity float64) {
	if l := s.Find(id); l != nil {
		l.Opacity = clampf(opacity, 0, 1)
	}
}

// SetRotation sets a layer's rotation, normalized to [0, 360).
func (s *Scene) SetRotation(id string, degrees float64) {
	if l := s.Find(id); l != nil {
		l.Rotation = NormalizeRotation(degrees)
	}
}

// ResetLayer restores a layer to the default geometry used by the
// double-click shortcut: 10%,10% origin, 30%x30% size, no rotation.
func (s *Scene) ResetLayer(id string) {
	l := s.Find(id)
	if l == nil {
		return
	}
	cw, ch := float64(s.Width), float64(s.Height)
	l.SetRect(s.clampRect(geometry.Rect{
		X:      0.1 * cw,
		Y:      0.1 * ch,
		Width:  fallbackFraction * cw,
		Height: fallbackFraction * ch,
	}, MinSizeDirect))
	l.Rotation = 0
}

// NudgeSelected moves the selected layer by (dx,dy), clamped.
func (s *Scene) NudgeSelected(dx, dy float64) {
	l := s.Selected()
	if l == nil {
		return
	}
	s.MoveLayer(l.ID, l.X+dx, l.Y+dy)
}

// GrowSelected grows (or shrinks) the selected layer by delta pixels in
// both dimensions, clamped to [MinSizeDirect, canvas dimension].
func (s *Scene) GrowSelected(delta float64) {
	l := s.Selected()
	if l == nil {
		return
	}
	r := l.Rect()
	r.Width += delta
	r.Height += delta
	l.SetRect(s.clampRect(r, MinSizeDirect))
}

func (s *Scene) maxZOrder() int {
	max := -1
	for _, l := range s.Layers {
		if l.ZOrder > max {
			max = l.ZOrder
		}
	}
	return max
}

// clampRect keeps a layer's bounding box inside the canvas with sides no
// smaller than floor. The in-bounds guarantee wins if the canvas itself
// is smaller than the floor.
func (s *Scene) clampRect(r geometry.Rect, floor float64) geometry.Rect {
	cw, ch := float64(s.Width), float64(s.Height)
	if r.Width < floor {
		r.Width = floor
	}
	if r.Height < floor {
		r.Height = floor
	}
	if r.Width > cw {
		r.Width = cw
	}
	if r.Height > ch {
		r.Height = ch
	}
	if r.X < 0 {
		r.X = 0
	}
	if r.Y < 0 {
		r.Y = 0
	}
	if r.X+r.Width > cw {
		r.X = cw - r.Width
	}
	if r.Y+r.Height > ch {
		r.Y = ch - r.Height
	}
	return r
}

// Snapshot returns a deep copy of the layer list.
func (s *Scene) Snapshot() []*Layer {
	out := make([]*Layer, len(s.Layers))
	for i, l := range s.Layers {
		out[i] = l.Clone()
	}
	return out
}

// Restore replaces the layer list with a deep copy of the snapshot. A
// selection pointing at a layer absent from the snapshot is cleared.
func (s *Scene) Restore(layers []*Layer) {
	s.Layers = make([]*Layer, len(layers))
	for i, l := range layers {
		s.Layers[i] = l.Clone()
	}
	if s.selectedID != "" && s.Find(s.selectedID) == nil {
		s.selectedID = ""
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clampf(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
