package render

import (
	"image"
	"image/color"

	"overlay-studio/internal/interact"
	"overlay-studio/pkg/colorutil"
	"overlay-studio/pkg/geometry"
)

const (
	cornerGlyphSide = 14
	edgeGlyphSide   = 10
	hoverGrow       = 4
)

// drawChrome draws the dashed selection rectangle and the eight resize
// handles around the selected layer's bounds. The hovered handle is
// drawn larger and recolored.
func drawChrome(dst *image.RGBA, r geometry.Rect, hover interact.Handle) {
	drawDashedRect(dst, r)

	for _, h := range []interact.Handle{
		interact.HandleNW, interact.HandleN, interact.HandleNE, interact.HandleE,
		interact.HandleSE, interact.HandleS, interact.HandleSW, interact.HandleW,
	} {
		side := edgeGlyphSide
		fill := colorutil.White
		if h.IsCorner() {
			side = cornerGlyphSide
			fill = colorutil.Cyan
		}
		if h == hover {
			side += hoverGrow
			fill = colorutil.Yellow
		}
		c := interact.HandlePoint(r, h)
		drawHandleGlyph(dst, int(c.X), int(c.Y), side, fill)
	}
}

// drawDashedRect draws the selection border with alternating pixels, the
// same dash pattern the live canvas has always used.
func drawDashedRect(dst *image.RGBA, r geometry.Rect) {
	col := colorutil.Yellow
	x1, y1 := int(r.X), int(r.Y)
	x2, y2 := int(r.X+r.Width), int(r.Y+r.Height)
	bounds := dst.Bounds()

	for x := x1; x <= x2; x++ {
		if (x+y1)%4 < 2 && inBounds(bounds, x, y1) {
			dst.Set(x, y1, col)
		}
		if (x+y2)%4 < 2 && inBounds(bounds, x, y2) {
			dst.Set(x, y2, col)
		}
	}
	for y := y1; y <= y2; y++ {
		if (x1+y)%4 < 2 && inBounds(bounds, x1, y) {
			dst.Set(x1, y, col)
		}
		if (x2+y)%4 < 2 && inBounds(bounds, x2, y) {
			dst.Set(x2, y, col)
		}
	}
}

// drawHandleGlyph draws a filled square with a black outline centered at
// (cx, cy).
func drawHandleGlyph(dst *image.RGBA, cx, cy, side int, fill color.Color) {
	bounds := dst.Bounds()
	half := side / 2
	for y := cy - half; y <= cy+half; y++ {
		for x := cx - half; x <= cx+half; x++ {
			if !inBounds(bounds, x, y) {
				continue
			}
			onEdge := x == cx-half || x == cx+half || y == cy-half || y == cy+half
			if onEdge {
				dst.Set(x, y, colorutil.Black)
			} else {
				dst.Set(x, y, fill)
			}
		}
	}
}

func inBounds(b image.Rectangle, x, y int) bool {
	return x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y
}
