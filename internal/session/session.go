// Package session wires the scene model, history, pointer controller,
// renderer and exporter into one editing session, and exposes the events
// the UI layers subscribe to.
package session

import (
	"fmt"
	"image"
	"sync"

	"github.com/sirupsen/logrus"

	"overlay-studio/internal/export"
	"overlay-studio/internal/history"
	"overlay-studio/internal/interact"
	"overlay-studio/internal/render"
	"overlay-studio/internal/scene"
	"overlay-studio/internal/template"
)

// EventType identifies different editor events.
type EventType int

const (
	EventSceneChanged EventType = iota
	EventSelectionChanged
	EventHistoryChanged
	EventModified
	EventExported
	EventProjectSaved
	EventProjectLoaded
	EventSaveRequested
	EventBaseChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Editor is one open composition: a base photo plus overlay layers being
// edited. All methods are intended for the UI goroutine; only the event
// listener table is guarded.
type Editor struct {
	Scene    *scene.Scene
	History  *history.Stack
	Pointer  *interact.Controller
	Renderer *render.Renderer
	Exporter *export.Exporter
	Library  *template.Library

	base     image.Image
	modified bool

	mu        sync.RWMutex
	listeners map[EventType][]EventListener
}

// NewEditor creates a session for a base photo of the given pixel size.
// The base image itself may arrive later via SetBase; editing works
// without it.
func NewEditor(lib *template.Library, baseName string, width, height int) *Editor {
	s := scene.New(baseName, width, height)
	renderer := render.New(render.NewCache(lib))

	e := &Editor{
		Scene:     s,
		History:   history.New(),
		Pointer:   interact.New(s),
		Renderer:  renderer,
		Exporter:  export.New(renderer),
		Library:   lib,
		listeners: make(map[EventType][]EventListener),
	}

	e.Pointer.OnChange = func() { e.Emit(EventSceneChanged, nil) }
	e.Pointer.OnCommit = func() { e.commit() }

	// Seed history with the empty composition so the first undo returns
	// to a blank canvas instead of doing nothing.
	e.History.Commit(s.Snapshot())
	return e
}

// On registers an event listener for the specified event type.
func (e *Editor) On(event EventType, listener EventListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[event] = append(e.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (e *Editor) Emit(event EventType, data interface{}) {
	e.mu.RLock()
	listeners := e.listeners[event]
	e.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Modified reports whether the composition has unsaved changes.
func (e *Editor) Modified() bool {
	return e.modified
}

func (e *Editor) setModified(m bool) {
	if e.modified == m {
		return
	}
	e.modified = m
	e.Emit(EventModified, m)
}

// SetBase installs (or replaces) the decoded base photo.
func (e *Editor) SetBase(base image.Image) {
	e.base = base
	e.Emit(EventBaseChanged, nil)
	e.Emit(EventSceneChanged, nil)
}

// Base returns the decoded base photo, or nil while it is unavailable.
func (e *Editor) Base() image.Image {
	return e.base
}

// commit records the current layer list as one history entry. Every
// completed mutation funnels through here exactly once.
func (e *Editor) commit() {
	e.History.Commit(e.Scene.Snapshot())
	e.setModified(true)
	e.Emit(EventHistoryChanged, nil)
	e.Emit(EventSceneChanged, nil)
}

// Frame repaints the live canvas, selection chrome included, and returns
// the surface plus the sources of any layers that failed to draw.
func (e *Editor) Frame() (*image.RGBA, []string) {
	return e.Renderer.Render(e.Scene, e.base, render.Options{
		Chrome: true,
		Hover:  e.Pointer.Hover(),
	})
}

// AddLayer instantiates a template as a new layer and selects it.
func (e *Editor) AddLayer(t template.Template) *scene.Layer {
	l := e.Scene.AddLayer(e.Library.Info(t))
	e.commit()
	e.Emit(EventSelectionChanged, l.ID)
	return l
}

// AddLayerOriginalSize instantiates a template at its native pixel size.
func (e *Editor) AddLayerOriginalSize(t template.Template) *scene.Layer {
	l := e.Scene.AddLayerOriginalSize(e.Library.Info(t))
	e.commit()
	e.Emit(EventSelectionChanged, l.ID)
	return l
}

// SelectLayer changes the selection without touching history.
func (e *Editor) SelectLayer(id string) {
	if e.Scene.SelectedID() == id {
		return
	}
	e.Scene.Select(id)
	e.Emit(EventSelectionChanged, e.Scene.SelectedID())
	e.Emit(EventSceneChanged, nil)
}

// Deselect clears the selection. Returns false if nothing was selected.
func (e *Editor) Deselect() bool {
	if e.Scene.SelectedID() == "" {
		return false
	}
	e.Scene.Deselect()
	e.Emit(EventSelectionChanged, "")
	e.Emit(EventSceneChanged, nil)
	return true
}

// UpdateLayer applies a property patch to a layer and commits.
func (e *Editor) UpdateLayer(id string, p scene.Patch) {
	if e.Scene.Find(id) == nil {
		return
	}
	e.Scene.UpdateLayer(id, p)
	e.commit()
}

// DeleteSelected removes the selected layer. No-op without a selection.
func (e *Editor) DeleteSelected() {
	id := e.Scene.SelectedID()
	if id == "" {
		return
	}
	e.Scene.DeleteLayer(id)
	e.commit()
	e.Emit(EventSelectionChanged, "")
}

// DuplicateSelected clones the selected layer. No-op without a selection.
func (e *Editor) DuplicateSelected() {
	id := e.Scene.SelectedID()
	if id == "" {
		return
	}
	dup := e.Scene.DuplicateLayer(id)
	e.commit()
	e.Emit(EventSelectionChanged, dup.ID)
}

// ReorderSelected moves the selected layer one z-order step.
func (e *Editor) ReorderSelected(dir scene.ReorderDirection) {
	id := e.Scene.SelectedID()
	if id == "" {
		return
	}
	e.Scene.Reorder(id, dir)
	e.commit()
}

// NudgeSelected moves the selected layer by whole pixels and commits.
func (e *Editor) NudgeSelected(dx, dy float64) {
	if e.Scene.Selected() == nil {
		return
	}
	e.Scene.NudgeSelected(dx, dy)
	e.commit()
}

// GrowSelected resizes the selected layer by delta in both dimensions.
func (e *Editor) GrowSelected(delta float64) {
	if e.Scene.Selected() == nil {
		return
	}
	e.Scene.GrowSelected(delta)
	e.commit()
}

// RotateSelected adds degrees to the selected layer's rotation.
func (e *Editor) RotateSelected(degrees float64) {
	l := e.Scene.Selected()
	if l == nil {
		return
	}
	e.Scene.SetRotation(l.ID, l.Rotation+degrees)
	e.commit()
}

// ToggleSelectedVisibility flips the selected layer's visibility.
func (e *Editor) ToggleSelectedVisibility() {
	l := e.Scene.Selected()
	if l == nil {
		return
	}
	e.Scene.SetVisible(l.ID, !l.Visible)
	e.commit()
}

// ResetSelected restores the selected layer to the default box, the
// behavior behind the double-click shortcut.
func (e *Editor) ResetSelected() {
	l := e.Scene.Selected()
	if l == nil {
		return
	}
	e.Scene.ResetLayer(l.ID)
	e.commit()
}

// Undo steps back one history entry.
func (e *Editor) Undo() {
	layers := e.History.Undo()
	if layers == nil {
		return
	}
	e.Scene.Restore(layers)
	e.setModified(true)
	e.Emit(EventHistoryChanged, nil)
	e.Emit(EventSelectionChanged, e.Scene.SelectedID())
	e.Emit(EventSceneChanged, nil)
}

// Redo steps forward one history entry.
func (e *Editor) Redo() {
	layers := e.History.Redo()
	if layers == nil {
		return
	}
	e.Scene.Restore(layers)
	e.setModified(true)
	e.Emit(EventHistoryChanged, nil)
	e.Emit(EventSelectionChanged, e.Scene.SelectedID())
	e.Emit(EventSceneChanged, nil)
}

// Export flattens the composition to a raster artifact. The base photo
// must have loaded first.
func (e *Editor) Export(format export.Format, quality float64) (*export.Artifact, error) {
	if e.base == nil {
		return nil, fmt.Errorf("export %q: base photo not loaded", e.Scene.BaseName)
	}
	a, err := e.Exporter.Export(e.Scene, e.base, format, quality)
	if err != nil {
		return nil, err
	}
	e.setModified(false)
	e.Emit(EventExported, a)
	return a, nil
}

// RequestSave asks the UI to run its save flow. Bound to the save
// shortcut so the session stays dialog-free.
func (e *Editor) RequestSave() {
	e.Emit(EventSaveRequested, nil)
}

// Close releases gesture state. Unsaved work checks are the UI's job.
func (e *Editor) Close() {
	e.Pointer.PointerLeave()
	logrus.WithField("base", e.Scene.BaseName).Debug("editor session closed")
}
