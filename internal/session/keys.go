package session

import "overlay-studio/internal/scene"

// KeyEvent is a UI-independent key press. Name carries special keys
// ("Up", "Delete", "Escape", ...); Rune carries printable keys.
type KeyEvent struct {
	Name  string
	Rune  rune
	Ctrl  bool // Cmd on macOS
	Shift bool
}

const (
	nudgeStep      = 1.0
	nudgeStepLarge = 10.0
	growStep       = 10.0
)

// HandleKey runs the editor's keyboard surface and reports whether the
// event was consumed. An unconsumed Escape means nothing was selected,
// letting the caller treat it as a close request.
func (e *Editor) HandleKey(ev KeyEvent) bool {
	if ev.Ctrl {
		return e.handleShortcut(ev)
	}

	switch ev.Name {
	case "Up", "Down", "Left", "Right":
		return e.handleArrow(ev)
	case "Delete", "BackSpace":
		if e.Scene.SelectedID() == "" {
			return false
		}
		e.DeleteSelected()
		return true
	case "Escape":
		return e.Deselect()
	}

	if e.Scene.Selected() == nil {
		return false
	}
	switch ev.Rune {
	case 'r', 'R':
		e.RotateSelected(90)
		return true
	case 'v', 'V':
		e.ToggleSelectedVisibility()
		return true
	case '+', '=':
		e.GrowSelected(growStep)
		return true
	case '-', '_':
		e.GrowSelected(-growStep)
		return true
	}
	return false
}

func (e *Editor) handleShortcut(ev KeyEvent) bool {
	switch ev.Rune {
	case 's', 'S':
		e.RequestSave()
		return true
	case 'z', 'Z':
		if ev.Shift {
			e.Redo()
		} else {
			e.Undo()
		}
		return true
	case 'y', 'Y':
		e.Redo()
		return true
	case 'd', 'D':
		if e.Scene.SelectedID() == "" {
			return false
		}
		e.DuplicateSelected()
		return true
	case '[':
		if e.Scene.SelectedID() == "" {
			return false
		}
		e.ReorderSelected(scene.ReorderDown)
		return true
	case ']':
		if e.Scene.SelectedID() == "" {
			return false
		}
		e.ReorderSelected(scene.ReorderUp)
		return true
	}
	return false
}

func (e *Editor) handleArrow(ev KeyEvent) bool {
	if e.Scene.Selected() == nil {
		return false
	}
	step := nudgeStep
	if ev.Shift {
		step = nudgeStepLarge
	}
	switch ev.Name {
	case "Up":
		e.NudgeSelected(0, -step)
	case "Down":
		e.NudgeSelected(0, step)
	case "Left":
		e.NudgeSelected(-step, 0)
	case "Right":
		e.NudgeSelected(step, 0)
	}
	return true
}
