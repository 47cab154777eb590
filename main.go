// Package main provides the entry point for the Overlay Studio application.
package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"

	"overlay-studio/internal/template"
	"overlay-studio/internal/version"
	"overlay-studio/ui/mainwindow"
	"overlay-studio/ui/prefs"
)

func main() {
	verbose := flag.Bool("verbose", false, "enable debug logging")
	templatesDir := flag.String("templates", defaultTemplatesDir(),
		"directory of template artwork, one subdirectory per category")
	noOCR := flag.Bool("no-ocr", false, "disable OCR auto-tagging of uploaded artwork")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.WithField("version", version.String()).Info("starting overlay studio")

	library := template.NewLibrary()
	if !*noOCR {
		library.SetTagger(template.NewOCRTagger())
	}
	if err := loadTemplates(library, *templatesDir); err != nil {
		logrus.WithField("dir", *templatesDir).WithError(err).
			Warn("template directory unavailable, starting with uploads only")
	}

	appPrefs := prefs.Load()
	fyneApp := fyneapp.NewWithID("io.overlaystudio.app")

	win := mainwindow.New(fyneApp, appPrefs, library)
	win.Show()
	fyneApp.Run()
}

// defaultTemplatesDir is ~/.config/overlay-studio/templates.
func defaultTemplatesDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "overlay-studio", "templates")
}

// loadTemplates registers every image under dir, using the immediate
// subdirectory as the category. Files directly under dir land in the
// "general" category.
func loadTemplates(library *template.Library, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		switch ext {
		case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tiff", ".tif":
		default:
			return nil
		}

		category := filepath.Base(filepath.Dir(path))
		if category == filepath.Base(dir) {
			category = "general"
		}
		name := strings.TrimSuffix(info.Name(), ext)
		library.Add(name, path, category)
		logrus.WithFields(logrus.Fields{
			"template": name,
			"category": category,
		}).Debug("template registered")
		return nil
	})
}
