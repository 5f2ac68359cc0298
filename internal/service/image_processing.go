package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxImageWidth = 1600
	jpegQuality   = 85

	// Decoding allocates the full canvas, so headers are checked first.
	maxImagePixels = 40_000_000
)

type processedImage struct {
	data     []byte
	mimeType string
	ext      string
	width    int
	height   int
}

// processImage checks that data decodes as an image and scales anything
// wider than maxImageWidth down to a JPEG. Smaller images keep their
// original bytes and format.
func processImage(data []byte, mimeType, ext string) (*processedImage, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, invalid("Invalid image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, invalid("Image dimensions are too large")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, invalid("Invalid image")
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxImageWidth {
		return &processedImage{data: data, mimeType: mimeType, ext: ext, width: w, height: h}, nil
	}

	newH := h * maxImageWidth / w
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return &processedImage{
		data:     buf.Bytes(),
		mimeType: "image/jpeg",
		ext:      "jpg",
		width:    maxImageWidth,
		height:   newH,
	}, nil
}
