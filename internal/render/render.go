package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"overlay-studio/internal/interact"
	"overlay-studio/internal/scene"
	"overlay-studio/pkg/geometry"
)

// Options controls a single repaint.
type Options struct {
	// Chrome draws the dashed selection border and resize handles for
	// the selected layer. Export renders always leave it off.
	Chrome bool

	// Hover is the handle under the pointer, drawn emphasized.
	Hover interact.Handle
}

// Renderer composites a scene onto an RGBA surface. The backing buffer
// is reallocated only when the canvas size changes.
type Renderer struct {
	cache *Cache
	buf   *image.RGBA

	// base scaled to canvas size, rebuilt when the base or size changes
	scaledBase *image.RGBA
	baseSrc    image.Image
}

// New creates a renderer drawing template images through the given cache.
func New(cache *Cache) *Renderer {
	return &Renderer{cache: cache}
}

// Cache returns the renderer's decoded-image cache.
func (r *Renderer) Cache() *Cache {
	return r.cache
}

// Render repaints the scene and returns the surface along with the
// source references of any layers skipped because their template failed
// to resolve. The returned image is reused across calls.
func (r *Renderer) Render(s *scene.Scene, base image.Image, opts Options) (*image.RGBA, []string) {
	w, h := s.Width, s.Height
	if r.buf == nil || r.buf.Bounds().Dx() != w || r.buf.Bounds().Dy() != h {
		r.buf = image.NewRGBA(image.Rect(0, 0, w, h))
		r.scaledBase = nil
	}
	return r.renderInto(r.buf, s, base, opts)
}

// RenderClean composites the scene onto a fresh offscreen surface with no
// selection chrome, for export.
func (r *Renderer) RenderClean(s *scene.Scene, base image.Image) (*image.RGBA, []string) {
	dst := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	return r.renderInto(dst, s, base, Options{})
}

func (r *Renderer) renderInto(dst *image.RGBA, s *scene.Scene, base image.Image, opts Options) (*image.RGBA, []string) {
	// Clear to opaque black so undrawn regions are well defined.
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.RGBA{A: 255}), image.Point{}, draw.Src)

	if base != nil {
		r.drawBase(dst, base)
	}

	var skipped []string
	for _, l := range s.Ordered() {
		if !l.Visible {
			continue
		}
		if err := r.drawLayer(dst, l); err != nil {
			skipped = append(skipped, l.Source)
		}
	}

	if opts.Chrome {
		if sel := s.Selected(); sel != nil && sel.Visible {
			drawChrome(dst, sel.Rect(), opts.Hover)
		}
	}
	return dst, skipped
}

// drawBase stretches the base image to the canvas size. The scaled copy
// is cached because the base never changes within a session.
func (r *Renderer) drawBase(dst *image.RGBA, base image.Image) {
	if r.scaledBase == nil || r.baseSrc != base ||
		r.scaledBase.Bounds() != dst.Bounds() {
		scaled := image.NewRGBA(dst.Bounds())
		if base.Bounds().Dx() == dst.Bounds().Dx() && base.Bounds().Dy() == dst.Bounds().Dy() {
			draw.Draw(scaled, scaled.Bounds(), base, base.Bounds().Min, draw.Src)
		} else {
			xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), base, base.Bounds(), xdraw.Src, nil)
		}
		r.scaledBase = scaled
		r.baseSrc = base
	}
	draw.Draw(dst, dst.Bounds(), r.scaledBase, image.Point{}, draw.Src)
}

// drawLayer composites one layer: the template image scaled to the
// layer's box, rotated around its center, blended at the layer opacity.
// Destination pixels are mapped back through the inverse transform so
// rotation leaves no holes.
func (r *Renderer) drawLayer(dst *image.RGBA, l *scene.Layer) error {
	src, err := r.cache.Get(l.Source)
	if err != nil {
		return err
	}
	if l.Opacity <= 0.001 || l.Width <= 0 || l.Height <= 0 {
		return nil
	}

	rect := l.Rect()
	inv, ok := geometry.RectTransform(rect, l.Rotation).Inverse()
	if !ok {
		return nil
	}

	srcB := src.Bounds()
	sx := float64(srcB.Dx()) / rect.Width
	sy := float64(srcB.Dy()) / rect.Height

	aabb := geometry.RotatedBounds(rect, l.Rotation)
	x0 := clampi(int(math.Floor(aabb.X)), 0, dst.Bounds().Dx())
	y0 := clampi(int(math.Floor(aabb.Y)), 0, dst.Bounds().Dy())
	x1 := clampi(int(math.Ceil(aabb.X+aabb.Width))+1, 0, dst.Bounds().Dx())
	y1 := clampi(int(math.Ceil(aabb.Y+aabb.Height))+1, 0, dst.Bounds().Dy())

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			// Sample at the pixel center.
			local := inv.Apply(geometry.Point2D{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			if local.X < 0 || local.Y < 0 || local.X >= rect.Width || local.Y >= rect.Height {
				continue
			}
			srcX := clampi(int(local.X*sx), 0, srcB.Dx()-1)
			srcY := clampi(int(local.Y*sy), 0, srcB.Dy()-1)

			c := src.RGBAAt(srcX, srcY)
			alpha := float64(c.A) / 255.0 * l.Opacity
			if alpha <= 0.001 {
				continue
			}
			if alpha >= 0.999 {
				dst.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
				continue
			}

			d := dst.RGBAAt(x, y)
			ia := 1 - alpha
			dst.SetRGBA(x, y, color.RGBA{
				R: uint8(float64(c.R)*alpha + float64(d.R)*ia),
				G: uint8(float64(c.G)*alpha + float64(d.G)*ia),
				B: uint8(float64(c.B)*alpha + float64(d.B)*ia),
				A: 255,
			})
		}
	}
	return nil
}

func clampi(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
