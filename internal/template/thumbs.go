package template

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Thumbnail decodes a template and downscales it so its longer side is
// at most maxSide, using area interpolation for clean downsampling of
// busy artwork. Sources already within bounds come back at native size.
func (lib *Library) Thumbnail(source string, maxSide int) (image.Image, error) {
	data, err := lib.Bytes(source)
	if err != nil {
		return nil, err
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadUnchanged)
	if err != nil {
		return nil, fmt.Errorf("thumbnail decode %q: %w", source, err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("thumbnail decode %q: empty image", source)
	}

	w, h := mat.Cols(), mat.Rows()
	long := w
	if h > long {
		long = h
	}
	if long > maxSide {
		scale := float64(maxSide) / float64(long)
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(mat, &resized,
			image.Pt(int(float64(w)*scale), int(float64(h)*scale)),
			0, 0, gocv.InterpolationArea)
		return resized.ToImage()
	}
	return mat.ToImage()
}
