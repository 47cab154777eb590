// Package interact translates pointer input into layer selection, drag
// translation and handle-based resizing against the scene model.
package interact

import (
	"time"

	"overlay-studio/internal/scene"
	"overlay-studio/pkg/geometry"
)

// State is the controller's interaction state.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateResizing
)

// Handle identifies one of the eight resize handles.
type Handle int

const (
	HandleNone Handle = iota
	HandleNW
	HandleN
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
)

func (h Handle) String() string {
	switch h {
	case HandleNW:
		return "nw"
	case HandleN:
		return "n"
	case HandleNE:
		return "ne"
	case HandleE:
		return "e"
	case HandleSE:
		return "se"
	case HandleS:
		return "s"
	case HandleSW:
		return "sw"
	case HandleW:
		return "w"
	default:
		return "none"
	}
}

// IsCorner reports whether the handle is one of the four corners.
func (h Handle) IsCorner() bool {
	switch h {
	case HandleNW, HandleNE, HandleSE, HandleSW:
		return true
	}
	return false
}

const (
	// Hit zone side lengths, deliberately much larger than the drawn
	// glyphs so handles are easy to grab. Corners get the bigger zone.
	cornerHitSide = 48.0
	edgeHitSide   = 32.0

	// frameInterval coalesces pointer-move updates to roughly 60Hz.
	frameInterval = 16 * time.Millisecond
)

// HandlePoint returns the canvas position of a handle on the given rect.
func HandlePoint(r geometry.Rect, h Handle) geometry.Point2D {
	switch h {
	case HandleNW:
		return geometry.Point2D{X: r.X, Y: r.Y}
	case HandleN:
		return geometry.Point2D{X: r.X + r.Width/2, Y: r.Y}
	case HandleNE:
		return geometry.Point2D{X: r.X + r.Width, Y: r.Y}
	case HandleE:
		return geometry.Point2D{X: r.X + r.Width, Y: r.Y + r.Height/2}
	case HandleSE:
		return geometry.Point2D{X: r.X + r.Width, Y: r.Y + r.Height}
	case HandleS:
		return geometry.Point2D{X: r.X + r.Width/2, Y: r.Y + r.Height}
	case HandleSW:
		return geometry.Point2D{X: r.X, Y: r.Y + r.Height}
	case HandleW:
		return geometry.Point2D{X: r.X, Y: r.Y + r.Height/2}
	}
	return geometry.Point2D{}
}

// allHandles lists corners before edges so the larger corner zones win
// when the zones overlap on small layers.
var allHandles = []Handle{
	HandleNW, HandleNE, HandleSE, HandleSW,
	HandleN, HandleE, HandleS, HandleW,
}

// HandleAt returns the handle of r whose hit zone contains p, or HandleNone.
func HandleAt(r geometry.Rect, p geometry.Point2D) Handle {
	for _, h := range allHandles {
		side := edgeHitSide
		if h.IsCorner() {
			side = cornerHitSide
		}
		c := HandlePoint(r, h)
		zone := geometry.Rect{
			X: c.X - side/2, Y: c.Y - side/2,
			Width: side, Height: side,
		}
		if zone.Contains(p) {
			return h
		}
	}
	return HandleNone
}

// Controller drives the Idle/Dragging/Resizing state machine. Only one
// layer can be mid-drag or mid-resize at a time; in-progress updates are
// coalesced to one per frame with a guaranteed flush on release.
type Controller struct {
	scene *scene.Scene

	state    State
	activeID string
	handle   Handle

	grabOffset geometry.Point2D // pointer minus layer origin at drag start
	startRect  geometry.Rect    // geometry at resize start
	startPtr   geometry.Point2D // pointer at resize start

	hover Handle

	now       func() time.Time
	lastApply time.Time
	pending   *geometry.Point2D

	// OnChange fires after every applied in-progress update.
	OnChange func()
	// OnCommit fires once per completed gesture, after the final flush.
	OnCommit func()
}

// New creates a controller for the given scene.
func New(s *scene.Scene) *Controller {
	return &Controller{scene: s, now: time.Now}
}

// SetClock replaces the controller's time source (used by tests to step
// frame boundaries deterministically).
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

// State returns the current interaction state.
func (c *Controller) State() State {
	return c.state
}

// Hover returns the handle currently under the pointer while idle.
func (c *Controller) Hover() Handle {
	return c.hover
}

// PointerDown starts a drag or resize gesture. Handle zones are only
// tested against the already-selected layer; a hit inside an unselected
// layer selects it and starts a drag, never a resize.
func (c *Controller) PointerDown(p geometry.Point2D) {
	if c.state != StateIdle {
		return
	}

	if sel := c.scene.Selected(); sel != nil && sel.Visible {
		if h := HandleAt(sel.Rect(), p); h != HandleNone {
			c.state = StateResizing
			c.activeID = sel.ID
			c.handle = h
			c.startRect = sel.Rect()
			c.startPtr = p
			c.lastApply = c.now()
			c.changed()
			return
		}
	}

	if hit := c.scene.TopmostAt(p); hit != nil {
		c.scene.Select(hit.ID)
		c.state = StateDragging
		c.activeID = hit.ID
		c.grabOffset = p.Sub(hit.Rect().TopLeft())
		c.lastApply = c.now()
		c.changed()
		return
	}

	c.scene.Deselect()
	c.changed()
}

// PointerMove updates an in-progress gesture (coalesced to one applied
// update per frame) or, while idle, recomputes the hover handle.
func (c *Controller) PointerMove(p geometry.Point2D) {
	if c.state == StateIdle {
		c.updateHover(p)
		return
	}

	now := c.now()
	if now.Sub(c.lastApply) < frameInterval {
		c.pending = &p
		return
	}
	c.lastApply = now
	c.pending = nil
	c.apply(p)
}

// PointerUp ends the gesture: the last pending update is flushed so no
// movement is lost, then the result is committed.
func (c *Controller) PointerUp(p geometry.Point2D) {
	c.finish(&p)
}

// PointerLeave ends the gesture exactly like PointerUp, preventing a
// stuck drag state when the pointer exits the canvas.
func (c *Controller) PointerLeave() {
	c.finish(nil)
	c.hover = HandleNone
}

func (c *Controller) finish(p *geometry.Point2D) {
	if c.state == StateIdle {
		return
	}
	if p != nil {
		c.apply(*p)
	} else if c.pending != nil {
		c.apply(*c.pending)
	}
	c.pending = nil
	c.state = StateIdle
	c.activeID = ""
	c.handle = HandleNone
	if c.OnCommit != nil {
		c.OnCommit()
	}
}

func (c *Controller) apply(p geometry.Point2D) {
	switch c.state {
	case StateDragging:
		pos := p.Sub(c.grabOffset)
		c.scene.MoveLayer(c.activeID, pos.X, pos.Y)
	case StateResizing:
		d := p.Sub(c.startPtr)
		c.scene.SetLayerRect(c.activeID, ResizeRect(c.startRect, c.handle, d.X, d.Y))
	}
	c.changed()
}

func (c *Controller) updateHover(p geometry.Point2D) {
	prev := c.hover
	c.hover = HandleNone
	if sel := c.scene.Selected(); sel != nil && sel.Visible {
		c.hover = HandleAt(sel.Rect(), p)
	}
	if c.hover != prev {
		c.changed()
	}
}

func (c *Controller) changed() {
	if c.OnChange != nil {
		c.OnChange()
	}
}

// ResizeRect applies a handle displacement to the starting geometry.
// Corner handles move both axes, edge handles one; the opposite edge
// stays anchored, with sides floored at the interactive minimum so the
// anchor cannot flip.
func ResizeRect(start geometry.Rect, h Handle, dx, dy float64) geometry.Rect {
	r := start

	switch h {
	case HandleNW, HandleW, HandleSW:
		w := start.Width - dx
		if w < scene.MinSizeInteractive {
			w = scene.MinSizeInteractive
		}
		r.X = start.X + start.Width - w
		r.Width = w
	case HandleNE, HandleE, HandleSE:
		w := start.Width + dx
		if w < scene.MinSizeInteractive {
			w = scene.MinSizeInteractive
		}
		r.Width = w
	}

	switch h {
	case HandleNW, HandleN, HandleNE:
		hh := start.Height - dy
		if hh < scene.MinSizeInteractive {
			hh = scene.MinSizeInteractive
		}
		r.Y = start.Y + start.Height - hh
		r.Height = hh
	case HandleSW, HandleS, HandleSE:
		hh := start.Height + dy
		if hh < scene.MinSizeInteractive {
			hh = scene.MinSizeInteractive
		}
		r.Height = hh
	}

	return r
}

// Cursor names the pointer shape to show for a handle.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorResizeH
	CursorResizeV
	CursorResizeDiag // nw-se
	CursorResizeAnti // ne-sw
)

// CursorFor maps each of the eight handles to its directional cursor.
func CursorFor(h Handle) Cursor {
	switch h {
	case HandleE, HandleW:
		return CursorResizeH
	case HandleN, HandleS:
		return CursorResizeV
	case HandleNW, HandleSE:
		return CursorResizeDiag
	case HandleNE, HandleSW:
		return CursorResizeAnti
	default:
		return CursorDefault
	}
}
