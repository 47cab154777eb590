package session

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overlay-studio/internal/export"
	"overlay-studio/internal/scene"
	"overlay-studio/internal/template"
	"overlay-studio/pkg/geometry"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// testEditor builds a 400x300 session with one uploaded template.
func testEditor(t *testing.T) (*Editor, template.Template) {
	t.Helper()
	lib := template.NewLibrary()
	tpl, err := lib.AddUpload("banner.png", pngBytes(t, 40, 30))
	require.NoError(t, err)
	return NewEditor(lib, "car.jpg", 400, 300), tpl
}

func TestAddLayerCommitsOnce(t *testing.T) {
	e, tpl := testEditor(t)
	require.Equal(t, 1, e.History.Len(), "empty baseline is pre-seeded")

	l := e.AddLayer(tpl)
	assert.Equal(t, 2, e.History.Len())
	assert.Equal(t, l.ID, e.Scene.SelectedID())
	assert.True(t, e.Modified())
}

func TestUndoRedoRoundTrip(t *testing.T) {
	e, tpl := testEditor(t)
	e.AddLayer(tpl)
	e.AddLayer(tpl)
	require.Len(t, e.Scene.Layers, 2)

	e.Undo()
	assert.Len(t, e.Scene.Layers, 1)
	e.Undo()
	assert.Empty(t, e.Scene.Layers, "first undo chain ends at the blank canvas")
	e.Undo()
	assert.Empty(t, e.Scene.Layers, "undo past the baseline is a no-op")

	e.Redo()
	e.Redo()
	assert.Len(t, e.Scene.Layers, 2)
}

func TestCommitTruncatesRedoBranch(t *testing.T) {
	e, tpl := testEditor(t)
	e.AddLayer(tpl)
	e.AddLayer(tpl)
	e.Undo()

	e.AddLayer(tpl)
	assert.False(t, e.History.CanRedo(), "new commit discards the redo branch")
	assert.Len(t, e.Scene.Layers, 2)
}

func TestGestureCommitsOnce(t *testing.T) {
	e, tpl := testEditor(t)
	l := e.AddLayer(tpl)
	before := e.History.Len()

	clock := time.Now()
	e.Pointer.SetClock(func() time.Time { return clock })

	c := l.Rect().Center()
	e.Pointer.PointerDown(c)
	clock = clock.Add(20 * time.Millisecond)
	e.Pointer.PointerMove(c.Add(geometry.Point2D{X: 5, Y: 5}))
	clock = clock.Add(20 * time.Millisecond)
	e.Pointer.PointerMove(c.Add(geometry.Point2D{X: 12, Y: 9}))
	e.Pointer.PointerUp(c.Add(geometry.Point2D{X: 12, Y: 9}))

	assert.Equal(t, before+1, e.History.Len(), "whole drag is one history entry")
}

func TestKeyboardNudge(t *testing.T) {
	e, tpl := testEditor(t)
	l := e.AddLayer(tpl)
	x, y := l.X, l.Y

	assert.True(t, e.HandleKey(KeyEvent{Name: "Right"}))
	assert.Equal(t, x+1, l.X)

	assert.True(t, e.HandleKey(KeyEvent{Name: "Down", Shift: true}))
	assert.Equal(t, y+10, l.Y)

	e.Deselect()
	assert.False(t, e.HandleKey(KeyEvent{Name: "Right"}), "no selection, not consumed")
}

func TestKeyboardRotateVisibilityGrow(t *testing.T) {
	e, tpl := testEditor(t)
	l := e.AddLayer(tpl)

	assert.True(t, e.HandleKey(KeyEvent{Rune: 'r'}))
	assert.Equal(t, 90.0, l.Rotation)

	assert.True(t, e.HandleKey(KeyEvent{Rune: 'v'}))
	assert.False(t, l.Visible)

	w := l.Width
	assert.True(t, e.HandleKey(KeyEvent{Rune: '+'}))
	assert.Equal(t, w+10, l.Width)
	assert.True(t, e.HandleKey(KeyEvent{Rune: '-'}))
	assert.Equal(t, w, l.Width)
}

func TestKeyboardDeleteAndEscape(t *testing.T) {
	e, tpl := testEditor(t)
	e.AddLayer(tpl)

	assert.True(t, e.HandleKey(KeyEvent{Name: "Escape"}), "escape deselects first")
	assert.Empty(t, e.Scene.SelectedID())
	assert.False(t, e.HandleKey(KeyEvent{Name: "Escape"}),
		"second escape is unconsumed so the caller can close")

	assert.False(t, e.HandleKey(KeyEvent{Name: "Delete"}))
	require.Len(t, e.Scene.Layers, 1)

	e.SelectLayer(e.Scene.Layers[0].ID)
	assert.True(t, e.HandleKey(KeyEvent{Name: "Delete"}))
	assert.Empty(t, e.Scene.Layers)
}

func TestKeyboardShortcuts(t *testing.T) {
	e, tpl := testEditor(t)
	e.AddLayer(tpl)

	saveRequested := false
	e.On(EventSaveRequested, func(interface{}) { saveRequested = true })
	assert.True(t, e.HandleKey(KeyEvent{Rune: 's', Ctrl: true}))
	assert.True(t, saveRequested)

	assert.True(t, e.HandleKey(KeyEvent{Rune: 'z', Ctrl: true}))
	assert.Empty(t, e.Scene.Layers)
	assert.True(t, e.HandleKey(KeyEvent{Rune: 'z', Ctrl: true, Shift: true}))
	assert.Len(t, e.Scene.Layers, 1)
	assert.True(t, e.HandleKey(KeyEvent{Rune: 'z', Ctrl: true}))
	assert.True(t, e.HandleKey(KeyEvent{Rune: 'y', Ctrl: true}))
	assert.Len(t, e.Scene.Layers, 1)

	e.SelectLayer(e.Scene.Layers[0].ID)
	assert.True(t, e.HandleKey(KeyEvent{Rune: 'd', Ctrl: true}))
	assert.Len(t, e.Scene.Layers, 2)
}

func TestDoubleClickReset(t *testing.T) {
	e, tpl := testEditor(t)
	l := e.AddLayer(tpl)
	e.UpdateLayer(l.ID, scene.Patch{
		X: f(200), Y: f(100), Width: f(50), Height: f(50), Rotation: f(45),
	})

	e.ResetSelected()
	assert.Equal(t, 40.0, l.X)
	assert.Equal(t, 30.0, l.Y)
	assert.Equal(t, 120.0, l.Width)
	assert.Equal(t, 90.0, l.Height)
	assert.Zero(t, l.Rotation)
}

func f(v float64) *float64 { return &v }

func TestProjectSaveLoadRoundTrip(t *testing.T) {
	e, tpl := testEditor(t)
	l := e.AddLayer(tpl)
	e.UpdateLayer(l.ID, scene.Patch{Rotation: f(30), Opacity: f(0.5)})

	path := filepath.Join(t.TempDir(), "car.overlay.json")
	require.NoError(t, e.SaveProject(path))
	assert.False(t, e.Modified())

	e2, _ := testEditor(t)
	require.NoError(t, e2.LoadProject(path))

	assert.Equal(t, "car.jpg", e2.Scene.BaseName)
	require.Len(t, e2.Scene.Layers, 1)
	got := e2.Scene.Layers[0]
	assert.Equal(t, 30.0, got.Rotation)
	assert.Equal(t, 0.5, got.Opacity)
	assert.Empty(t, e2.Scene.SelectedID(), "loading starts deselected")
	assert.Equal(t, 1, e2.History.Len(), "loaded state is the new baseline")
	assert.False(t, e2.History.CanUndo())
}

func TestLoadProjectRejectsBadCanvas(t *testing.T) {
	e, _ := testEditor(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"width":0,"height":0}`), 0644))
	assert.Error(t, e.LoadProject(path))
}

func TestExportRequiresBase(t *testing.T) {
	e, tpl := testEditor(t)
	e.AddLayer(tpl)

	_, err := e.Export(export.FormatPNG, 1)
	assert.Error(t, err)

	e.Exporter.SetTempDir(t.TempDir())
	e.SetBase(image.NewRGBA(image.Rect(0, 0, 400, 300)))
	a, err := e.Export(export.FormatPNG, 1)
	require.NoError(t, err)
	defer a.Release()
	assert.False(t, e.Modified(), "export clears the unsaved flag")
	assert.Empty(t, a.Skipped)
}

func TestSceneChangedEventsFire(t *testing.T) {
	e, tpl := testEditor(t)
	var changes int
	e.On(EventSceneChanged, func(interface{}) { changes++ })

	e.AddLayer(tpl)
	assert.Positive(t, changes)
}
