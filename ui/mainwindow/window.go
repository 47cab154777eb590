// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/sirupsen/logrus"

	"overlay-studio/internal/export"
	"overlay-studio/internal/scene"
	"overlay-studio/internal/session"
	"overlay-studio/internal/template"
	"overlay-studio/internal/version"
	editorui "overlay-studio/ui/editor"
	"overlay-studio/ui/panels"
	"overlay-studio/ui/prefs"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app     fyne.App
	prefs   *prefs.Prefs
	library *template.Library

	editor        *session.Editor
	canvas        *editorui.Canvas
	templatePanel *panels.TemplatePanel
	propertyPanel *panels.PropertyPanel
	statusBar     *widget.Label

	projectPath string
}

// New creates the main window with an empty composition.
func New(fyneApp fyne.App, p *prefs.Prefs, library *template.Library) *MainWindow {
	win := fyneApp.NewWindow("Overlay Studio")

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		prefs:   p,
		library: library,
	}

	mw.templatePanel = panels.NewTemplatePanel(library, func(t template.Template) {
		mw.editor.AddLayer(t)
	})
	mw.templatePanel.SetWindow(win)
	mw.statusBar = widget.NewLabel("Open a photo to start")

	mw.bindEditor(session.NewEditor(library, "untitled", 800, 600))
	mw.setupMenus()
	mw.setupKeys()

	w := float32(p.Float(prefs.KeyWindowWidth, 1280))
	h := float32(p.Float(prefs.KeyWindowHeight, 860))
	win.Resize(fyne.NewSize(w, h))

	win.SetCloseIntercept(func() {
		mw.confirmDiscard(func() {
			size := win.Canvas().Size()
			p.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
			p.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
			_ = p.Save()
			mw.app.Quit()
		})
	})
	return mw
}

// bindEditor swaps in a session and rebuilds the content around it.
func (mw *MainWindow) bindEditor(e *session.Editor) {
	if mw.editor != nil {
		mw.editor.Close()
	}
	mw.editor = e
	mw.canvas = editorui.NewCanvas(e)
	mw.propertyPanel = panels.NewPropertyPanel(e)
	mw.setupEventHandlers()

	split := container.NewHSplit(
		mw.templatePanel.Container(),
		container.NewBorder(nil, nil, nil, mw.propertyPanel.Container(),
			container.NewScroll(mw.canvas)),
	)
	split.SetOffset(0.2)

	mw.SetContent(container.NewBorder(
		nil,
		container.NewPadded(mw.statusBar),
		nil, nil,
		split,
	))
	mw.SetTitle("Overlay Studio - " + e.Scene.BaseName)
}

// setupEventHandlers registers for session events.
func (mw *MainWindow) setupEventHandlers() {
	e := mw.editor

	e.On(session.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})

	e.On(session.EventExported, func(data interface{}) {
		if a, ok := data.(*export.Artifact); ok {
			if len(a.Skipped) > 0 {
				mw.updateStatus(fmt.Sprintf("Exported with %d layer(s) skipped", len(a.Skipped)))
			} else {
				mw.updateStatus("Exported " + a.OriginalName)
			}
		}
	})

	e.On(session.EventProjectSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("Overlay Studio - " + filepath.Base(path))
			mw.updateStatus("Project saved: " + path)
		}
	})

	e.On(session.EventProjectLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("Overlay Studio - " + filepath.Base(path))
			mw.updateStatus("Project loaded; open the base photo via File > Open Photo")
		}
	})

	e.On(session.EventSaveRequested, func(interface{}) {
		mw.onExportImage()
	})
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Photo...", mw.onOpenPhoto),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Image...", mw.onExportImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.Close() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", func() { mw.editor.Undo() }),
		fyne.NewMenuItem("Redo", func() { mw.editor.Redo() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Duplicate Layer", func() { mw.editor.DuplicateSelected() }),
		fyne.NewMenuItem("Delete Layer", func() { mw.editor.DeleteSelected() }),
	)

	layerMenu := fyne.NewMenu("Layer",
		fyne.NewMenuItem("Bring Forward", func() { mw.editor.ReorderSelected(scene.ReorderUp) }),
		fyne.NewMenuItem("Send Backward", func() { mw.editor.ReorderSelected(scene.ReorderDown) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Rotate 90", func() { mw.editor.RotateSelected(90) }),
		fyne.NewMenuItem("Toggle Visibility", func() { mw.editor.ToggleSelectedVisibility() }),
		fyne.NewMenuItem("Reset Geometry", func() { mw.editor.ResetSelected() }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, layerMenu, helpMenu))
}

// setupKeys wires the editing keyboard surface into the window canvas.
func (mw *MainWindow) setupKeys() {
	c := mw.Canvas()

	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		name := keyName(ev.Name)
		if name == "" {
			return
		}
		mw.editor.HandleKey(session.KeyEvent{Name: name})
	})
	c.SetOnTypedRune(func(r rune) {
		mw.editor.HandleKey(session.KeyEvent{Rune: r})
	})

	ctrl := func(key fyne.KeyName, r rune, shift bool) {
		mod := fyne.KeyModifierControl
		if shift {
			mod |= fyne.KeyModifierShift
		}
		c.AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: mod},
			func(fyne.Shortcut) {
				mw.editor.HandleKey(session.KeyEvent{Rune: r, Ctrl: true, Shift: shift})
			})
	}
	ctrl(fyne.KeyS, 's', false)
	ctrl(fyne.KeyZ, 'z', false)
	ctrl(fyne.KeyZ, 'z', true)
	ctrl(fyne.KeyY, 'y', false)
	ctrl(fyne.KeyD, 'd', false)

	for _, arrow := range []fyne.KeyName{fyne.KeyUp, fyne.KeyDown, fyne.KeyLeft, fyne.KeyRight} {
		arrow := arrow
		c.AddShortcut(&desktop.CustomShortcut{KeyName: arrow, Modifier: fyne.KeyModifierShift},
			func(fyne.Shortcut) {
				mw.editor.HandleKey(session.KeyEvent{Name: keyName(arrow), Shift: true})
			})
	}
}

func keyName(k fyne.KeyName) string {
	switch k {
	case fyne.KeyUp:
		return "Up"
	case fyne.KeyDown:
		return "Down"
	case fyne.KeyLeft:
		return "Left"
	case fyne.KeyRight:
		return "Right"
	case fyne.KeyDelete:
		return "Delete"
	case fyne.KeyBackspace:
		return "BackSpace"
	case fyne.KeyEscape:
		return "Escape"
	}
	return ""
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// confirmDiscard runs proceed immediately when there are no unsaved
// changes, otherwise after the user confirms losing them.
func (mw *MainWindow) confirmDiscard(proceed func()) {
	if !mw.editor.Modified() {
		proceed()
		return
	}
	dialog.ShowConfirm("Unsaved Changes",
		"The composition has unsaved changes. Discard them?",
		func(ok bool) {
			if ok {
				proceed()
			}
		}, mw.Window)
}

func (mw *MainWindow) lastDir(key string) fyne.ListableURI {
	path := mw.prefs.String(key, "")
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) saveLastDir(key, filePath string) {
	mw.prefs.SetString(key, filepath.Dir(filePath))
	_ = mw.prefs.Save()
}

// Menu action handlers

func (mw *MainWindow) onOpenPhoto() {
	mw.confirmDiscard(func() {
		fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil || reader == nil {
				return
			}
			reader.Close()
			path := reader.URI().Path()
			mw.saveLastDir(prefs.KeyLastPhotoDir, path)
			mw.loadPhoto(path)
		}, mw.Window)
		fd.SetFilter(storage.NewExtensionFileFilter(
			[]string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tiff", ".tif"}))
		if loc := mw.lastDir(prefs.KeyLastPhotoDir); loc != nil {
			fd.SetLocation(loc)
		}
		fd.Show()
	})
}

// loadPhoto decodes the base photo and starts a fresh session sized to
// it. A decode failure offers a retry instead of tearing anything down.
func (mw *MainWindow) loadPhoto(path string) {
	img, err := decodePhoto(path)
	if err != nil {
		logrus.WithField("path", path).WithError(err).Error("base photo load failed")
		dialog.ShowConfirm("Photo Load Failed",
			fmt.Sprintf("Could not load %s:\n%v\n\nRetry?", filepath.Base(path), err),
			func(retry bool) {
				if retry {
					mw.loadPhoto(path)
				}
			}, mw.Window)
		return
	}

	b := img.Bounds()
	e := session.NewEditor(mw.library, filepath.Base(path), b.Dx(), b.Dy())
	e.SetBase(img)
	mw.projectPath = ""
	mw.bindEditor(e)
	mw.updateStatus(fmt.Sprintf("Loaded %s (%dx%d)", filepath.Base(path), b.Dx(), b.Dy()))
}

func decodePhoto(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", filepath.Base(path), err)
	}
	return img, nil
}

func (mw *MainWindow) onOpenProject() {
	mw.confirmDiscard(func() {
		fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil || reader == nil {
				return
			}
			reader.Close()
			path := reader.URI().Path()
			mw.saveLastDir(prefs.KeyLastProjectDir, path)
			if err := mw.editor.LoadProject(path); err != nil {
				dialog.ShowError(err, mw.Window)
				return
			}
			mw.projectPath = path
			mw.canvas.Refresh()
		}, mw.Window)
		fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
		if loc := mw.lastDir(prefs.KeyLastProjectDir); loc != nil {
			fd.SetLocation(loc)
		}
		fd.Show()
	})
}

func (mw *MainWindow) onSaveProject() {
	if mw.projectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	if err := mw.editor.SaveProject(mw.projectPath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".json" {
			path += ".json"
		}
		mw.saveLastDir(prefs.KeyLastProjectDir, path)
		if err := mw.editor.SaveProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.projectPath = path
	}, mw.Window)
	fd.SetFileName(projectFileName(mw.editor.Scene.BaseName))
	if loc := mw.lastDir(prefs.KeyLastProjectDir); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func projectFileName(baseName string) string {
	stem := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	if stem == "" {
		stem = "composition"
	}
	return stem + ".overlay.json"
}

func (mw *MainWindow) onExportImage() {
	if mw.editor.Base() == nil {
		mw.updateStatus("Nothing to export; open a photo first")
		return
	}

	format := export.FormatPNG
	if mw.prefs.ExportFormat() == "jpeg" {
		format = export.FormatJPEG
	}

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()

		switch strings.ToLower(filepath.Ext(path)) {
		case ".jpg", ".jpeg":
			format = export.FormatJPEG
		case ".png":
			format = export.FormatPNG
		default:
			path += format.Ext()
		}
		mw.saveLastDir(prefs.KeyLastExportDir, path)

		artifact, err := mw.editor.Export(format, mw.prefs.ExportQuality())
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		defer artifact.Release()

		if err := os.WriteFile(path, artifact.Blob, 0o644); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if len(artifact.Skipped) > 0 {
			dialog.ShowInformation("Export Finished",
				fmt.Sprintf("%d layer(s) could not be drawn and were left out:\n%s",
					len(artifact.Skipped), strings.Join(artifact.Skipped, "\n")),
				mw.Window)
		}
	}, mw.Window)

	stem := strings.TrimSuffix(mw.editor.Scene.BaseName, filepath.Ext(mw.editor.Scene.BaseName))
	fd.SetFileName(stem + "-overlay" + format.Ext())
	if loc := mw.lastDir(prefs.KeyLastExportDir); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Overlay Studio",
		fmt.Sprintf("Overlay Studio %s\n\nCompose promotional overlays on vehicle photos.",
			version.String()), mw.Window)
}
