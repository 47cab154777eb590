// Package history implements a linear undo/redo stack of scene snapshots.
package history

import (
	"overlay-studio/internal/scene"
)

// Entry is a deep snapshot of the full layer list at one committed point.
type Entry struct {
	Layers []*scene.Layer
}

// Stack is a linear history: committing after an undo discards the redo
// tail, so there is no branching.
type Stack struct {
	entries []Entry
	index   int // current entry; -1 until the first commit
}

// New returns an empty history stack.
func New() *Stack {
	return &Stack{index: -1}
}

// Len returns the number of entries.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Index returns the current entry index, -1 when empty.
func (s *Stack) Index() int {
	return s.index
}

// CanUndo reports whether an earlier snapshot exists.
func (s *Stack) CanUndo() bool {
	return s.index > 0
}

// CanRedo reports whether a later snapshot exists.
func (s *Stack) CanRedo() bool {
	return s.index < len(s.entries)-1
}

// Commit truncates any redo tail, pushes a deep copy of the layer list
// and advances the index to the new top.
func (s *Stack) Commit(layers []*scene.Layer) {
	s.entries = s.entries[:s.index+1]
	s.entries = append(s.entries, Entry{Layers: deepCopy(layers)})
	s.index = len(s.entries) - 1
}

// Undo steps back one entry and returns a deep copy of its layer list.
// At the bottom (or empty) it returns nil and does nothing.
func (s *Stack) Undo() []*scene.Layer {
	if !s.CanUndo() {
		return nil
	}
	s.index--
	return deepCopy(s.entries[s.index].Layers)
}

// Redo steps forward one entry and returns a deep copy of its layer list.
// At the top it returns nil and does nothing.
func (s *Stack) Redo() []*scene.Layer {
	if !s.CanRedo() {
		return nil
	}
	s.index++
	return deepCopy(s.entries[s.index].Layers)
}

func deepCopy(layers []*scene.Layer) []*scene.Layer {
	out := make([]*scene.Layer, len(layers))
	for i, l := range layers {
		out[i] = l.Clone()
	}
	return out
}
