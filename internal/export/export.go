// Package export flattens a composition onto a clean offscreen surface
// and serializes it to a raster blob for the caller to persist.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"overlay-studio/internal/render"
	"overlay-studio/internal/scene"
)

// Format selects the raster encoding of an export.
type Format int

const (
	FormatPNG Format = iota
	FormatJPEG
)

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	default:
		return "png"
	}
}

// MIME returns the format's mime type.
func (f Format) MIME() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	default:
		return "image/png"
	}
}

// Ext returns the format's file extension including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	default:
		return ".png"
	}
}

// Artifact is the output of one export: the flattened raster plus the
// overlay metadata needed to reconstruct the composition later.
// Ownership passes to the caller, including the temp file behind BlobURI.
type Artifact struct {
	Blob         []byte
	BlobURI      string
	Layers       []*scene.Layer
	OriginalName string
	Format       Format
	Quality      float64

	// Skipped lists the source references of layers left out because
	// their template failed to resolve.
	Skipped []string
}

// Release revokes the artifact's blob URI, deleting the temp file.
func (a *Artifact) Release() error {
	if a.BlobURI == "" {
		return nil
	}
	path := a.BlobURI
	if len(path) > 7 && path[:7] == "file://" {
		path = path[7:]
	}
	a.BlobURI = ""
	return os.Remove(path)
}

// Exporter produces artifacts from scenes. It shares the renderer's
// decoded-image cache so export does not re-decode what editing already
// loaded.
type Exporter struct {
	renderer *render.Renderer
	tempDir  string
}

// New creates an exporter writing blob files under the system temp dir.
func New(renderer *render.Renderer) *Exporter {
	return &Exporter{renderer: renderer, tempDir: os.TempDir()}
}

// SetTempDir overrides where blob files are written.
func (e *Exporter) SetTempDir(dir string) {
	e.tempDir = dir
}

// Export flattens the scene onto a fresh offscreen surface with no
// selection chrome and serializes it. Layer images are prefetched in
// parallel and serialization waits until every load has settled; a layer
// whose template fails to resolve is logged and skipped so the caller
// still receives a usable artifact.
func (e *Exporter) Export(s *scene.Scene, base image.Image, format Format, quality float64) (*Artifact, error) {
	e.prefetch(s)

	img, skipped := e.renderer.RenderClean(s, base)
	for _, src := range skipped {
		logrus.WithField("source", src).Warn("layer skipped during export")
	}

	blob, err := encode(img, format, quality)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", format, err)
	}

	path := filepath.Join(e.tempDir, "overlay-"+ulid.Make().String()+format.Ext())
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return nil, fmt.Errorf("write blob file: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"base":    s.BaseName,
		"format":  format.String(),
		"layers":  len(s.Layers),
		"skipped": len(skipped),
	}).Info("composition exported")

	return &Artifact{
		Blob:         blob,
		BlobURI:      "file://" + path,
		Layers:       s.Snapshot(),
		OriginalName: s.BaseName,
		Format:       format,
		Quality:      quality,
		Skipped:      skipped,
	}, nil
}

// DownloadLocal serializes an already-rendered live frame (selection
// chrome included) straight to a file. It is a quick user-facing
// snapshot, not the authoritative save.
func (e *Exporter) DownloadLocal(frame image.Image, path string, format Format, quality float64) error {
	blob, err := encode(frame, format, quality)
	if err != nil {
		return fmt.Errorf("serialize snapshot: %w", err)
	}
	return os.WriteFile(path, blob, 0o644)
}

// prefetch warms the decode cache for every distinct visible layer
// source in parallel, returning once all loads have settled (success or
// failure). A scene with no layers returns immediately.
func (e *Exporter) prefetch(s *scene.Scene) {
	sources := make(map[string]bool)
	for _, l := range s.Layers {
		if l.Visible && l.Source != "" {
			sources[l.Source] = true
		}
	}
	if len(sources) == 0 {
		return
	}

	var wg sync.WaitGroup
	for src := range sources {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			if _, err := e.renderer.Cache().Get(src); err != nil {
				logrus.WithField("source", src).WithError(err).Warn("template load failed")
			}
		}(src)
	}
	wg.Wait()
}

func encode(img image.Image, format Format, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		q := int(quality * 100)
		if q < 1 {
			q = 1
		}
		if q > 100 {
			q = 100
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, err
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
