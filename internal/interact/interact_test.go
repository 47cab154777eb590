package interact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overlay-studio/internal/scene"
	"overlay-studio/pkg/geometry"
)

// fakeClock lets tests step frame boundaries deterministically.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestScene() (*scene.Scene, *scene.Layer) {
	s := scene.New("car.jpg", 800, 600)
	l := s.AddLayer(scene.TemplateInfo{
		ID: "tpl", Name: "Banner", Source: "banner.png",
		NativeWidth: 400, NativeHeight: 300,
	})
	s.SetLayerRect(l.ID, geometry.Rect{X: 100, Y: 100, Width: 200, Height: 150})
	s.Deselect()
	return s, l
}

func newTestController(s *scene.Scene) (*Controller, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	c := New(s)
	c.SetClock(clk.now)
	return c, clk
}

func pt(x, y float64) geometry.Point2D { return geometry.Point2D{X: x, Y: y} }

func TestDragMovesLayer(t *testing.T) {
	s, l := newTestScene()
	c, clk := newTestController(s)

	commits := 0
	c.OnCommit = func() { commits++ }

	c.PointerDown(pt(150, 150))
	assert.Equal(t, StateDragging, c.State())
	assert.Equal(t, l.ID, s.SelectedID())

	clk.advance(20 * time.Millisecond)
	c.PointerMove(pt(180, 170))
	clk.advance(20 * time.Millisecond)
	c.PointerUp(pt(190, 185))

	assert.Equal(t, StateIdle, c.State())
	assert.InDelta(t, 140, l.X, 1e-9)
	assert.InDelta(t, 135, l.Y, 1e-9)
	assert.InDelta(t, 200, l.Width, 1e-9)
	assert.InDelta(t, 150, l.Height, 1e-9)
	assert.Equal(t, 1, commits)
}

func TestDragClampsToCanvas(t *testing.T) {
	s, l := newTestScene()
	c, clk := newTestController(s)

	c.PointerDown(pt(150, 150))
	clk.advance(20 * time.Millisecond)
	c.PointerUp(pt(-500, -500))

	assert.Equal(t, 0.0, l.X)
	assert.Equal(t, 0.0, l.Y)
}

func TestSEResizeScenario(t *testing.T) {
	s, l := newTestScene()
	c, clk := newTestController(s)
	s.Select(l.ID)

	// se handle sits at (300,250); drag it by (+50,+30).
	c.PointerDown(pt(300, 250))
	require.Equal(t, StateResizing, c.State())

	clk.advance(20 * time.Millisecond)
	c.PointerUp(pt(350, 280))

	assert.InDelta(t, 100, l.X, 1e-9)
	assert.InDelta(t, 100, l.Y, 1e-9)
	assert.InDelta(t, 250, l.Width, 1e-9)
	assert.InDelta(t, 180, l.Height, 1e-9)
}

func TestHandleOnUnselectedLayerStartsDrag(t *testing.T) {
	s, l := newTestScene()
	c, _ := newTestController(s)

	// (300,250) is the se corner, but the layer is not selected yet, so
	// this must select and drag, not resize.
	c.PointerDown(pt(299, 249))
	assert.Equal(t, StateDragging, c.State())
	assert.Equal(t, l.ID, s.SelectedID())
}

func TestDownOutsideDeselects(t *testing.T) {
	s, l := newTestScene()
	c, _ := newTestController(s)
	s.Select(l.ID)

	c.PointerDown(pt(700, 20))
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, s.SelectedID())
}

func TestTopmostLayerWins(t *testing.T) {
	s, bottom := newTestScene()
	top := s.AddLayer(scene.TemplateInfo{
		ID: "tpl2", Name: "Badge", NativeWidth: 100, NativeHeight: 100,
	})
	s.SetLayerRect(top.ID, geometry.Rect{X: 150, Y: 120, Width: 100, Height: 100})
	s.Deselect()

	c, _ := newTestController(s)
	c.PointerDown(pt(170, 140))
	assert.Equal(t, top.ID, s.SelectedID())
	assert.NotEqual(t, bottom.ID, s.SelectedID())
}

func TestMoveCoalescing(t *testing.T) {
	s, l := newTestScene()
	c, clk := newTestController(s)

	applied := 0
	c.OnChange = func() { applied++ }

	c.PointerDown(pt(150, 150))
	applied = 0

	// Three moves inside one frame: nothing applied yet.
	c.PointerMove(pt(151, 150))
	c.PointerMove(pt(152, 150))
	c.PointerMove(pt(153, 150))
	assert.Equal(t, 0, applied)
	assert.InDelta(t, 100, l.X, 1e-9)

	// Next frame: one applied update, latest position wins.
	clk.advance(20 * time.Millisecond)
	c.PointerMove(pt(160, 150))
	assert.Equal(t, 1, applied)
	assert.InDelta(t, 110, l.X, 1e-9)
}

func TestPendingMoveFlushedOnLeave(t *testing.T) {
	s, l := newTestScene()
	c, _ := newTestController(s)

	c.PointerDown(pt(150, 150))
	// Within the same frame, so this stays pending.
	c.PointerMove(pt(175, 150))
	assert.InDelta(t, 100, l.X, 1e-9)

	commits := 0
	c.OnCommit = func() { commits++ }
	c.PointerLeave()

	assert.Equal(t, StateIdle, c.State())
	assert.InDelta(t, 125, l.X, 1e-9, "pending movement must not be lost")
	assert.Equal(t, 1, commits)
}

func TestHoverDoesNotMutate(t *testing.T) {
	s, l := newTestScene()
	c, _ := newTestController(s)
	s.Select(l.ID)
	before := *l

	c.PointerMove(pt(300, 250))
	assert.Equal(t, HandleSE, c.Hover())
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, before, *l)

	c.PointerMove(pt(500, 50))
	assert.Equal(t, HandleNone, c.Hover())
}

func TestHandleAtZoneSizes(t *testing.T) {
	r := geometry.Rect{X: 100, Y: 100, Width: 200, Height: 150}

	tests := []struct {
		name string
		p    geometry.Point2D
		want Handle
	}{
		{"nw corner center", pt(100, 100), HandleNW},
		{"nw corner zone edge", pt(100-23, 100-23), HandleNW},
		{"outside nw corner zone", pt(100-25, 100-25), HandleNone},
		{"n edge center", pt(200, 100), HandleN},
		{"n edge zone edge", pt(200+15, 100-15), HandleN},
		{"e edge", pt(300, 175), HandleE},
		{"se corner", pt(300, 250), HandleSE},
		{"s edge", pt(200, 250), HandleS},
		{"sw corner", pt(100, 250), HandleSW},
		{"w edge", pt(100, 175), HandleW},
		{"ne corner", pt(300, 100), HandleNE},
		{"body center", pt(200, 175), HandleNone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HandleAt(r, tc.p))
		})
	}
}

func TestResizeRectPerHandle(t *testing.T) {
	start := geometry.Rect{X: 100, Y: 100, Width: 200, Height: 150}

	tests := []struct {
		h      Handle
		dx, dy float64
		want   geometry.Rect
	}{
		{HandleSE, 50, 30, geometry.Rect{X: 100, Y: 100, Width: 250, Height: 180}},
		{HandleNW, 20, 10, geometry.Rect{X: 120, Y: 110, Width: 180, Height: 140}},
		{HandleNE, 30, -20, geometry.Rect{X: 100, Y: 80, Width: 230, Height: 170}},
		{HandleSW, -40, 25, geometry.Rect{X: 60, Y: 100, Width: 240, Height: 175}},
		{HandleN, 99, -10, geometry.Rect{X: 100, Y: 90, Width: 200, Height: 160}},
		{HandleS, 99, 20, geometry.Rect{X: 100, Y: 100, Width: 200, Height: 170}},
		{HandleE, 15, 99, geometry.Rect{X: 100, Y: 100, Width: 215, Height: 150}},
		{HandleW, -15, 99, geometry.Rect{X: 85, Y: 100, Width: 215, Height: 150}},
	}
	for _, tc := range tests {
		t.Run(tc.h.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, ResizeRect(start, tc.h, tc.dx, tc.dy))
		})
	}
}

func TestResizeFloorsAtMinimum(t *testing.T) {
	start := geometry.Rect{X: 100, Y: 100, Width: 200, Height: 150}

	// Dragging the se handle far past the nw corner floors both sides at
	// the interactive minimum with the top-left anchored.
	got := ResizeRect(start, HandleSE, -500, -500)
	assert.Equal(t, geometry.Rect{X: 100, Y: 100, Width: 20, Height: 20}, got)

	// The nw handle anchors the bottom-right corner instead.
	got = ResizeRect(start, HandleNW, 500, 500)
	assert.Equal(t, geometry.Rect{X: 280, Y: 230, Width: 20, Height: 20}, got)
}

func TestCursorFor(t *testing.T) {
	assert.Equal(t, CursorResizeH, CursorFor(HandleE))
	assert.Equal(t, CursorResizeH, CursorFor(HandleW))
	assert.Equal(t, CursorResizeV, CursorFor(HandleN))
	assert.Equal(t, CursorResizeV, CursorFor(HandleS))
	assert.Equal(t, CursorResizeDiag, CursorFor(HandleNW))
	assert.Equal(t, CursorResizeDiag, CursorFor(HandleSE))
	assert.Equal(t, CursorResizeAnti, CursorFor(HandleNE))
	assert.Equal(t, CursorResizeAnti, CursorFor(HandleSW))
	assert.Equal(t, CursorDefault, CursorFor(HandleNone))
}
