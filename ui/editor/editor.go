// Package editor provides the interactive composition canvas: the base
// photo with overlay layers, selection chrome and resize handles.
package editor

import (
	"image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"overlay-studio/internal/interact"
	"overlay-studio/internal/session"
	"overlay-studio/pkg/geometry"
)

// Canvas displays an editing session and routes pointer input to its
// interaction controller.
type Canvas struct {
	widget.BaseWidget

	editor *session.Editor
	raster *fynecanvas.Raster
}

var _ desktop.Mouseable = (*Canvas)(nil)
var _ desktop.Hoverable = (*Canvas)(nil)
var _ desktop.Cursorable = (*Canvas)(nil)
var _ fyne.DoubleTappable = (*Canvas)(nil)

// NewCanvas creates a canvas bound to the given session.
func NewCanvas(editor *session.Editor) *Canvas {
	c := &Canvas{editor: editor}

	c.raster = fynecanvas.NewRaster(c.draw)
	c.raster.ScaleMode = fynecanvas.ImageScaleSmooth
	c.raster.SetMinSize(fyne.NewSize(
		float32(editor.Scene.Width), float32(editor.Scene.Height)))

	editor.On(session.EventSceneChanged, func(interface{}) {
		c.Refresh()
	})

	c.ExtendBaseWidget(c)
	return c
}

// CreateRenderer implements fyne.Widget.
func (c *Canvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.raster)
}

// MinSize implements fyne.Widget.
func (c *Canvas) MinSize() fyne.Size {
	return c.raster.MinSize()
}

// draw repaints the session's live frame. The raster scales the result
// to the widget size.
func (c *Canvas) draw(w, h int) image.Image {
	frame, _ := c.editor.Frame()
	return frame
}

// toCanvas maps a widget position to scene pixel coordinates, absorbing
// any difference between display size and canvas size.
func (c *Canvas) toCanvas(pos fyne.Position) geometry.Point2D {
	size := c.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return geometry.Point2D{}
	}
	return geometry.Point2D{
		X: float64(pos.X) * float64(c.editor.Scene.Width) / float64(size.Width),
		Y: float64(pos.Y) * float64(c.editor.Scene.Height) / float64(size.Height),
	}
}

// MouseDown implements desktop.Mouseable.
func (c *Canvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	c.editor.Pointer.PointerDown(c.toCanvas(ev.Position))
}

// MouseUp implements desktop.Mouseable.
func (c *Canvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	c.editor.Pointer.PointerUp(c.toCanvas(ev.Position))
}

// MouseIn implements desktop.Hoverable.
func (c *Canvas) MouseIn(ev *desktop.MouseEvent) {
	c.editor.Pointer.PointerMove(c.toCanvas(ev.Position))
}

// MouseMoved implements desktop.Hoverable.
func (c *Canvas) MouseMoved(ev *desktop.MouseEvent) {
	c.editor.Pointer.PointerMove(c.toCanvas(ev.Position))
}

// MouseOut implements desktop.Hoverable. Leaving the canvas ends any
// in-progress gesture so the drag state cannot get stuck.
func (c *Canvas) MouseOut() {
	c.editor.Pointer.PointerLeave()
}

// DoubleTapped resets the selected layer to its default box.
func (c *Canvas) DoubleTapped(ev *fyne.PointEvent) {
	p := c.toCanvas(ev.Position)
	if hit := c.editor.Scene.TopmostAt(p); hit != nil {
		c.editor.SelectLayer(hit.ID)
		c.editor.ResetSelected()
	}
}

// Cursor implements desktop.Cursorable, showing a directional cursor
// over resize handles. Fyne has no diagonal resize cursor, so corner
// handles fall back to the crosshair.
func (c *Canvas) Cursor() desktop.Cursor {
	switch interact.CursorFor(c.editor.Pointer.Hover()) {
	case interact.CursorResizeH:
		return desktop.HResizeCursor
	case interact.CursorResizeV:
		return desktop.VResizeCursor
	case interact.CursorResizeDiag, interact.CursorResizeAnti:
		return desktop.CrosshairCursor
	default:
		return desktop.DefaultCursor
	}
}
