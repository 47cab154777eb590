package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overlay-studio/internal/render"
	"overlay-studio/internal/scene"
)

func solid(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func testExporter(t *testing.T, resolve render.ResolverFunc) *Exporter {
	t.Helper()
	e := New(render.New(render.NewCache(resolve)))
	e.SetTempDir(t.TempDir())
	return e
}

func decodePNG(t *testing.T, blob []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(blob))
	require.NoError(t, err)
	return img
}

func TestExportNoLayers(t *testing.T) {
	e := testExporter(t, func(string) (image.Image, error) {
		t.Fatal("no source should be resolved")
		return nil, nil
	})

	s := scene.New("car.jpg", 100, 80)
	base := solid(100, 80, color.RGBA{R: 200, A: 255})

	a, err := e.Export(s, base, FormatPNG, 1)
	require.NoError(t, err)
	assert.Empty(t, a.Skipped)
	assert.Empty(t, a.Layers)
	assert.Equal(t, "car.jpg", a.OriginalName)

	img := decodePNG(t, a.Blob)
	assert.Equal(t, 100, img.Bounds().Dx())
	r, _, _, _ := img.At(50, 40).RGBA()
	assert.Equal(t, uint32(200), r>>8)
}

func TestExportOmitsSelectionChrome(t *testing.T) {
	white := solid(10, 10, color.RGBA{255, 255, 255, 255})
	e := testExporter(t, func(string) (image.Image, error) { return white, nil })

	s := scene.New("car.jpg", 200, 200)
	l := s.AddLayer(scene.TemplateInfo{ID: "t1", Name: "Banner", Source: "banner.png"})
	s.Select(l.ID)

	a, err := e.Export(s, solid(200, 200, color.RGBA{A: 255}), FormatPNG, 1)
	require.NoError(t, err)

	img := decodePNG(t, a.Blob)
	box := l.Rect()
	// A selected layer's corner handle would recolor this pixel if
	// chrome leaked into the export.
	r, g, b, _ := img.At(int(box.X), int(box.Y)).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
}

func TestExportPartialResilience(t *testing.T) {
	white := solid(10, 10, color.RGBA{255, 255, 255, 255})
	e := testExporter(t, func(src string) (image.Image, error) {
		if strings.Contains(src, "missing") {
			return nil, fmt.Errorf("gone")
		}
		return white, nil
	})

	s := scene.New("car.jpg", 200, 200)
	good := s.AddLayer(scene.TemplateInfo{ID: "t1", Name: "Good", Source: "good.png"})
	s.AddLayer(scene.TemplateInfo{ID: "t2", Name: "Bad", Source: "missing.png"})

	a, err := e.Export(s, solid(200, 200, color.RGBA{A: 255}), FormatPNG, 1)
	require.NoError(t, err, "one bad layer must not fail the export")
	assert.Equal(t, []string{"missing.png"}, a.Skipped)
	assert.Len(t, a.Layers, 2, "metadata keeps every layer, skipped or not")

	img := decodePNG(t, a.Blob)
	c := good.Rect().Center()
	r, _, _, _ := img.At(int(c.X), int(c.Y)).RGBA()
	assert.Equal(t, uint32(0xffff), r, "surviving layer still composited")
}

func TestExportJPEG(t *testing.T) {
	e := testExporter(t, func(string) (image.Image, error) { return nil, fmt.Errorf("unused") })

	s := scene.New("car.jpg", 64, 64)
	a, err := e.Export(s, solid(64, 64, color.RGBA{R: 10, G: 20, B: 30, A: 255}), FormatJPEG, 0.85)
	require.NoError(t, err)

	assert.Equal(t, FormatJPEG, a.Format)
	assert.InDelta(t, 0.85, a.Quality, 1e-9)
	assert.True(t, strings.HasSuffix(a.BlobURI, ".jpg"))
	cfg, kind, err := image.DecodeConfig(bytes.NewReader(a.Blob))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", kind)
	assert.Equal(t, 64, cfg.Width)
}

func TestArtifactRelease(t *testing.T) {
	e := testExporter(t, func(string) (image.Image, error) { return nil, fmt.Errorf("unused") })

	s := scene.New("car.jpg", 16, 16)
	a, err := e.Export(s, solid(16, 16, color.RGBA{A: 255}), FormatPNG, 1)
	require.NoError(t, err)

	path := strings.TrimPrefix(a.BlobURI, "file://")
	_, err = os.Stat(path)
	require.NoError(t, err, "blob file exists until released")

	require.NoError(t, a.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, a.Release(), "double release is a no-op")
}

func TestArtifactLayersAreSnapshots(t *testing.T) {
	white := solid(10, 10, color.RGBA{255, 255, 255, 255})
	e := testExporter(t, func(string) (image.Image, error) { return white, nil })

	s := scene.New("car.jpg", 200, 200)
	l := s.AddLayer(scene.TemplateInfo{ID: "t1", Name: "Banner", Source: "banner.png"})

	a, err := e.Export(s, solid(200, 200, color.RGBA{A: 255}), FormatPNG, 1)
	require.NoError(t, err)

	l.Name = "mutated after export"
	assert.Equal(t, "Banner", a.Layers[0].Name)
}

func TestDownloadLocal(t *testing.T) {
	e := testExporter(t, func(string) (image.Image, error) { return nil, fmt.Errorf("unused") })

	path := t.TempDir() + "/snap.png"
	require.NoError(t, e.DownloadLocal(solid(8, 8, color.RGBA{B: 255, A: 255}), path, FormatPNG, 1))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img := decodePNG(t, data)
	_, _, b, _ := img.At(4, 4).RGBA()
	assert.Equal(t, uint32(0xffff), b)
}
