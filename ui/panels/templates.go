// Package panels provides UI panels for the application.
package panels

import (
	"fmt"
	"image"
	"io"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"overlay-studio/internal/template"
)

// thumbSide is the pixel size of library thumbnails.
const thumbSide = 48

// TemplatePanel lists the overlay template library grouped by category
// and lets the user upload new artwork or instantiate a template as a
// layer on the canvas.
type TemplatePanel struct {
	library *template.Library
	win     fyne.Window

	// onInstantiate is called when the user picks a template to place.
	onInstantiate func(template.Template)

	search  *widget.Entry
	list    *widget.List
	visible []template.Template
	thumbs  map[string]image.Image
	box     fyne.CanvasObject
}

// NewTemplatePanel creates the template library panel.
func NewTemplatePanel(library *template.Library, onInstantiate func(template.Template)) *TemplatePanel {
	tp := &TemplatePanel{
		library:       library,
		onInstantiate: onInstantiate,
		thumbs:        make(map[string]image.Image),
	}
	tp.buildUI()
	tp.Refresh()
	return tp
}

// SetWindow sets the parent window for dialogs.
func (tp *TemplatePanel) SetWindow(w fyne.Window) {
	tp.win = w
}

// Container returns the panel container.
func (tp *TemplatePanel) Container() fyne.CanvasObject {
	return tp.box
}

func (tp *TemplatePanel) buildUI() {
	tp.search = widget.NewEntry()
	tp.search.SetPlaceHolder("Search templates...")
	tp.search.OnChanged = func(string) { tp.Refresh() }

	tp.list = widget.NewList(
		func() int { return len(tp.visible) },
		func() fyne.CanvasObject {
			thumb := fynecanvas.NewImageFromImage(nil)
			thumb.FillMode = fynecanvas.ImageFillContain
			thumb.SetMinSize(fyne.NewSize(thumbSide, thumbSide))
			return container.NewBorder(nil, nil, thumb, nil,
				widget.NewLabel("template name"))
		},
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			t := tp.visible[i]
			row := obj.(*fyne.Container)
			row.Objects[0].(*widget.Label).SetText(
				fmt.Sprintf("[%s] %s", t.Category, t.Name))

			thumb := row.Objects[1].(*fynecanvas.Image)
			thumb.Image = tp.thumbnail(t)
			thumb.Refresh()
		},
	)
	tp.list.OnSelected = func(i widget.ListItemID) {
		if i >= 0 && i < len(tp.visible) && tp.onInstantiate != nil {
			tp.onInstantiate(tp.visible[i])
		}
		tp.list.UnselectAll()
	}

	uploadBtn := widget.NewButton("Upload Artwork...", tp.onUpload)

	tp.box = container.NewBorder(
		container.NewVBox(tp.search, uploadBtn), // top
		nil, nil, nil,
		tp.list, // center
	)
}

// Refresh rebuilds the visible template list from the library, applying
// the search filter against names, categories and tags.
func (tp *TemplatePanel) Refresh() {
	query := strings.ToLower(strings.TrimSpace(tp.search.Text))

	all := tp.library.All()
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Category != all[j].Category {
			return all[i].Category < all[j].Category
		}
		return all[i].Name < all[j].Name
	})

	tp.visible = tp.visible[:0]
	for _, t := range all {
		if query == "" || matches(t, query) {
			tp.visible = append(tp.visible, t)
		}
	}
	tp.list.Refresh()
}

func matches(t template.Template, query string) bool {
	if strings.Contains(strings.ToLower(t.Name), query) ||
		strings.Contains(strings.ToLower(t.Category), query) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(tag, query) {
			return true
		}
	}
	return false
}

// thumbnail returns the template's cached thumbnail, or nil when the
// artwork cannot be decoded. Failures are cached as nil so broken
// sources are not re-decoded on every list refresh.
func (tp *TemplatePanel) thumbnail(t template.Template) image.Image {
	if img, ok := tp.thumbs[t.Source]; ok {
		return img
	}
	img, err := tp.library.Thumbnail(t.Source, thumbSide)
	if err != nil {
		img = nil
	}
	tp.thumbs[t.Source] = img
	return img
}

func (tp *TemplatePanel) onUpload() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()

		data, err := io.ReadAll(io.LimitReader(reader, template.MaxUploadSize+1))
		if err != nil {
			dialog.ShowError(err, tp.win)
			return
		}

		if _, err := tp.library.AddUpload(reader.URI().Name(), data); err != nil {
			dialog.ShowError(err, tp.win)
			return
		}
		tp.Refresh()
	}, tp.win)
	fd.SetFilter(storage.NewExtensionFileFilter(
		[]string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tiff", ".tif"}))
	fd.Show()
}
