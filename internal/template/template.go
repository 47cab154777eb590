// Package template provides the overlay template library: reusable
// graphics the editor instantiates as layers. Records are immutable once
// added; the editor only references them.
package template

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"overlay-studio/internal/scene"
)

// MaxUploadSize is the ceiling for user-supplied template files.
const MaxUploadSize = 5 * 1024 * 1024

// UploadCategory is the synthetic category user uploads land in.
const UploadCategory = "uploads"

// uploadScheme prefixes source references backed by in-memory buffers.
const uploadScheme = "upload:"

// Template is one reusable overlay source.
type Template struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Source   string   `json:"source"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// Tagger derives free-text tags from template pixel data. The OCR-backed
// implementation lives in tagger.go; tests inject fakes.
type Tagger interface {
	Tags(data []byte) ([]string, error)
}

// Library is a flat, thread-safe collection of templates plus the byte
// buffers backing uploaded ones.
type Library struct {
	mu        sync.RWMutex
	templates []Template
	buffers   map[string][]byte
	tagger    Tagger
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{buffers: make(map[string][]byte)}
}

// SetTagger installs an optional auto-tagger applied to uploads.
func (lib *Library) SetTagger(t Tagger) {
	lib.mu.Lock()
	lib.tagger = t
	lib.mu.Unlock()
}

// Add registers a template backed by a file path or URI.
func (lib *Library) Add(name, source, category string, tags ...string) Template {
	t := Template{
		ID:       ulid.Make().String(),
		Name:     name,
		Source:   source,
		Category: category,
		Tags:     tags,
	}
	lib.mu.Lock()
	lib.templates = append(lib.templates, t)
	lib.mu.Unlock()
	return t
}

// AddUpload validates and registers a user-supplied template file. The
// data must decode as an image and stay under MaxUploadSize.
func (lib *Library) AddUpload(name string, data []byte) (Template, error) {
	if len(data) > MaxUploadSize {
		return Template{}, fmt.Errorf("upload %q: %d bytes exceeds the %d byte limit",
			name, len(data), MaxUploadSize)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return Template{}, fmt.Errorf("upload %q: not a supported image: %w", name, err)
	}

	id := ulid.Make().String()
	source := uploadScheme + id
	t := Template{
		ID:       id,
		Name:     strings.TrimSuffix(name, filepath.Ext(name)),
		Source:   source,
		Category: UploadCategory,
	}

	if tagger := lib.currentTagger(); tagger != nil {
		tags, err := tagger.Tags(data)
		if err != nil {
			logrus.WithField("template", name).WithError(err).Warn("auto-tagging failed")
		} else {
			t.Tags = tags
		}
	}

	lib.mu.Lock()
	lib.buffers[source] = data
	lib.templates = append(lib.templates, t)
	lib.mu.Unlock()
	return t, nil
}

// AddUploads registers a batch of files. Each file is validated on its
// own: a rejected file does not stop the rest of the batch.
func (lib *Library) AddUploads(files map[string][]byte) (added []Template, errs []error) {
	for name, data := range files {
		t, err := lib.AddUpload(name, data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		added = append(added, t)
	}
	return added, errs
}

func (lib *Library) currentTagger() Tagger {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	return lib.tagger
}

// All returns a copy of the template list.
func (lib *Library) All() []Template {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	out := make([]Template, len(lib.templates))
	copy(out, lib.templates)
	return out
}

// ByCategory returns the templates in a category.
func (lib *Library) ByCategory(category string) []Template {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	var out []Template
	for _, t := range lib.templates {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Find returns the template with the given id.
func (lib *Library) Find(id string) (Template, bool) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	for _, t := range lib.templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Info converts a template into the shape the scene needs to instantiate
// a layer. Dimensions are zero when the source cannot be decoded, which
// makes the scene fall back to its fixed default box.
func (lib *Library) Info(t Template) scene.TemplateInfo {
	info := scene.TemplateInfo{
		ID:     t.ID,
		Name:   t.Name,
		Source: t.Source,
	}
	if w, h, err := lib.Dimensions(t.Source); err == nil {
		info.NativeWidth = w
		info.NativeHeight = h
	} else {
		logrus.WithField("source", t.Source).WithError(err).
			Warn("template dimensions unavailable, using fallback sizing")
	}
	return info
}

// Dimensions returns the native pixel size of a source reference without
// decoding the full image.
func (lib *Library) Dimensions(source string) (int, int, error) {
	r, err := lib.open(source)
	if err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, fmt.Errorf("decode config %q: %w", source, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Resolve decodes a source reference into pixel data. It satisfies the
// render pipeline's Resolver interface.
func (lib *Library) Resolve(source string) (image.Image, error) {
	r, err := lib.open(source)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", source, err)
	}
	return img, nil
}

// Bytes returns the raw file contents behind a source reference.
func (lib *Library) Bytes(source string) ([]byte, error) {
	if strings.HasPrefix(source, uploadScheme) {
		lib.mu.RLock()
		data, ok := lib.buffers[source]
		lib.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("unknown upload buffer %q", source)
		}
		return data, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read template %q: %w", source, err)
	}
	return data, nil
}

func (lib *Library) open(source string) (*bytes.Reader, error) {
	data, err := lib.Bytes(source)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}
