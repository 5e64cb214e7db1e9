package imageproc

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"resize4me/internal/models"
)

const jpegQuality = 90

var kernels = map[models.Filter]imaging.ResampleFilter{
	models.FilterNearest:  imaging.NearestNeighbor,
	models.FilterLanczos:  imaging.Lanczos,
	models.FilterBilinear: imaging.Linear,
	models.FilterBicubic:  imaging.CatmullRom,
	models.FilterBox:      imaging.Box,
	models.FilterHamming:  imaging.Hamming,
}

// TargetSize returns the proportional dimensions for an image of w0 x h0
// scaled to width. The height is truncated, never below one pixel.
func TargetSize(w0, h0, width int) (int, int) {
	scale := float64(width) / float64(w0)
	h := int(float64(h0) * scale)
	if h < 1 {
		h = 1
	}
	return width, h
}

// Resize decodes body, scales it proportionally to width with the given
// filter and re-encodes it in the format matching ext.
func Resize(body []byte, ext string, width int, filter models.Filter) ([]byte, error) {
	const op = "imageproc.Resize"

	if width <= 0 {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidWidth)
	}
	kernel, ok := kernels[filter]
	if !ok {
		return nil, fmt.Errorf("%s: unknown filter %s", op, filter)
	}
	format, err := imaging.FormatFromExtension(ext)
	if err != nil || (format != imaging.JPEG && format != imaging.PNG) {
		return nil, &models.UnsupportedFormatError{Key: ext}
	}

	src, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, &models.DecodeError{Cause: err}
	}

	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, &models.DecodeError{Cause: fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())}
	}
	w, h := TargetSize(b.Dx(), b.Dy(), width)
	dst := imaging.Resize(src, w, h, kernel)

	return encode(dst, format)
}

func encode(img image.Image, format imaging.Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, &models.EncodeError{Format: format.String(), Cause: err}
	}
	return buf.Bytes(), nil
}
