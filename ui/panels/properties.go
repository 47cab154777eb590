package panels

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"overlay-studio/internal/scene"
	"overlay-studio/internal/session"
)

// PropertyPanel shows the selected layer's properties and pushes direct
// numeric edits back through the session.
type PropertyPanel struct {
	editor *session.Editor

	nameEntry     *widget.Entry
	xEntry        *widget.Entry
	yEntry        *widget.Entry
	widthEntry    *widget.Entry
	heightEntry   *widget.Entry
	rotationEntry *widget.Entry
	opacitySlider *widget.Slider
	visibleCheck  *widget.Check

	duplicateBtn *widget.Button
	deleteBtn    *widget.Button
	forwardBtn   *widget.Button
	backwardBtn  *widget.Button
	resetBtn     *widget.Button

	// updating suppresses change callbacks while the panel itself is
	// writing widget values.
	updating bool

	box fyne.CanvasObject
}

// NewPropertyPanel creates the layer property panel.
func NewPropertyPanel(editor *session.Editor) *PropertyPanel {
	pp := &PropertyPanel{editor: editor}
	pp.buildUI()

	editor.On(session.EventSelectionChanged, func(interface{}) { pp.Refresh() })
	editor.On(session.EventSceneChanged, func(interface{}) { pp.Refresh() })

	pp.Refresh()
	return pp
}

// Container returns the panel container.
func (pp *PropertyPanel) Container() fyne.CanvasObject {
	return pp.box
}

func (pp *PropertyPanel) buildUI() {
	pp.nameEntry = widget.NewEntry()
	pp.nameEntry.OnSubmitted = func(v string) {
		pp.patch(scene.Patch{Name: &v})
	}

	pp.xEntry = pp.numberEntry(func(v float64) scene.Patch { return scene.Patch{X: &v} })
	pp.yEntry = pp.numberEntry(func(v float64) scene.Patch { return scene.Patch{Y: &v} })
	pp.widthEntry = pp.numberEntry(func(v float64) scene.Patch { return scene.Patch{Width: &v} })
	pp.heightEntry = pp.numberEntry(func(v float64) scene.Patch { return scene.Patch{Height: &v} })
	pp.rotationEntry = pp.numberEntry(func(v float64) scene.Patch { return scene.Patch{Rotation: &v} })

	pp.opacitySlider = widget.NewSlider(0, 1)
	pp.opacitySlider.Step = 0.01
	pp.opacitySlider.OnChangeEnded = func(v float64) {
		if pp.updating {
			return
		}
		pp.patch(scene.Patch{Opacity: &v})
	}

	pp.visibleCheck = widget.NewCheck("Visible", func(v bool) {
		if pp.updating {
			return
		}
		pp.patch(scene.Patch{Visible: &v})
	})

	pp.duplicateBtn = widget.NewButton("Duplicate", pp.editor.DuplicateSelected)
	pp.deleteBtn = widget.NewButton("Delete", pp.editor.DeleteSelected)
	pp.forwardBtn = widget.NewButton("Forward", func() {
		pp.editor.ReorderSelected(scene.ReorderUp)
	})
	pp.backwardBtn = widget.NewButton("Backward", func() {
		pp.editor.ReorderSelected(scene.ReorderDown)
	})
	pp.resetBtn = widget.NewButton("Reset", pp.editor.ResetSelected)

	form := container.NewVBox(
		widget.NewLabel("Layer"),
		pp.nameEntry,
		pp.row("X", pp.xEntry),
		pp.row("Y", pp.yEntry),
		pp.row("W", pp.widthEntry),
		pp.row("H", pp.heightEntry),
		pp.row("Rot", pp.rotationEntry),
		widget.NewLabel("Opacity"),
		pp.opacitySlider,
		pp.visibleCheck,
		container.NewGridWithColumns(2, pp.forwardBtn, pp.backwardBtn),
		container.NewGridWithColumns(2, pp.duplicateBtn, pp.deleteBtn),
		pp.resetBtn,
	)
	pp.box = container.NewVScroll(form)
}

func (pp *PropertyPanel) row(label string, entry *widget.Entry) fyne.CanvasObject {
	return container.NewBorder(nil, nil, widget.NewLabel(label), nil, entry)
}

func (pp *PropertyPanel) numberEntry(patch func(float64) scene.Patch) *widget.Entry {
	e := widget.NewEntry()
	e.OnSubmitted = func(text string) {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			pp.Refresh()
			return
		}
		pp.patch(patch(v))
	}
	return e
}

func (pp *PropertyPanel) patch(p scene.Patch) {
	if id := pp.editor.Scene.SelectedID(); id != "" {
		pp.editor.UpdateLayer(id, p)
	}
}

// Refresh syncs the widgets to the selected layer, disabling the panel
// when nothing is selected.
func (pp *PropertyPanel) Refresh() {
	l := pp.editor.Scene.Selected()
	pp.updating = true
	defer func() { pp.updating = false }()

	if l == nil {
		pp.nameEntry.SetText("")
		for _, e := range []*widget.Entry{
			pp.nameEntry, pp.xEntry, pp.yEntry,
			pp.widthEntry, pp.heightEntry, pp.rotationEntry,
		} {
			e.SetText("")
			e.Disable()
		}
		pp.visibleCheck.Disable()
		for _, b := range pp.buttons() {
			b.Disable()
		}
		return
	}

	pp.nameEntry.Enable()
	pp.nameEntry.SetText(l.Name)
	pp.setNumber(pp.xEntry, l.X)
	pp.setNumber(pp.yEntry, l.Y)
	pp.setNumber(pp.widthEntry, l.Width)
	pp.setNumber(pp.heightEntry, l.Height)
	pp.setNumber(pp.rotationEntry, l.Rotation)
	pp.opacitySlider.SetValue(l.Opacity)
	pp.visibleCheck.Enable()
	pp.visibleCheck.SetChecked(l.Visible)
	for _, b := range pp.buttons() {
		b.Enable()
	}
}

func (pp *PropertyPanel) buttons() []*widget.Button {
	return []*widget.Button{
		pp.duplicateBtn, pp.deleteBtn, pp.forwardBtn, pp.backwardBtn, pp.resetBtn,
	}
}

func (pp *PropertyPanel) setNumber(e *widget.Entry, v float64) {
	e.Enable()
	e.SetText(fmt.Sprintf("%.1f", v))
}
