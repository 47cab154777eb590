package session

import (
	"encoding/json"
	"fmt"
	"os"

	"overlay-studio/internal/history"
	"overlay-studio/internal/scene"
)

// ProjectFile represents the JSON structure of a saved composition. It
// carries overlay metadata only; the base photo and template artwork are
// referenced, never embedded.
type ProjectFile struct {
	Version  int            `json:"version"`
	BaseName string         `json:"base_name"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Layers   []*scene.Layer `json:"layers"`
}

const projectVersion = 1

// SaveProject writes the composition to the specified path.
func (e *Editor) SaveProject(path string) error {
	proj := ProjectFile{
		Version:  projectVersion,
		BaseName: e.Scene.BaseName,
		Width:    e.Scene.Width,
		Height:   e.Scene.Height,
		Layers:   e.Scene.Snapshot(),
	}

	data, err := json.MarshalIndent(proj, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	e.setModified(false)
	e.Emit(EventProjectSaved, path)
	return nil
}

// LoadProject replaces the composition with one loaded from disk.
// History restarts with the loaded state as its baseline.
func (e *Editor) LoadProject(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var proj ProjectFile
	if err := json.Unmarshal(data, &proj); err != nil {
		return fmt.Errorf("parse project %q: %w", path, err)
	}
	if proj.Width <= 0 || proj.Height <= 0 {
		return fmt.Errorf("project %q: invalid canvas size %dx%d",
			path, proj.Width, proj.Height)
	}

	e.Scene.BaseName = proj.BaseName
	e.Scene.Width = proj.Width
	e.Scene.Height = proj.Height
	e.Scene.Restore(proj.Layers)
	e.Scene.Deselect()

	e.History = history.New()
	e.History.Commit(e.Scene.Snapshot())
	e.setModified(false)
	e.Emit(EventProjectLoaded, path)
	e.Emit(EventSelectionChanged, "")
	e.Emit(EventSceneChanged, nil)
	return nil
}
