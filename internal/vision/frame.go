package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Frame is an image normalized for detection.
type Frame struct {
	JPEG   []byte
	Width  int
	Height int
}

// PrepareFrame decodes a JPEG, PNG, BMP or WebP image and re-encodes it as JPEG,
// downscaling it to fit within maxSize on both sides when maxSize > 0.
func PrepareFrame(data []byte, maxSize int) (*Frame, error) {
	if _, err := CheckImage(data); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	out := img
	if maxSize > 0 && (width > maxSize || height > maxSize) {
		if width > height {
			height = max(1, int(float64(height)*float64(maxSize)/float64(width)))
			width = maxSize
		} else {
			width = max(1, int(float64(width)*float64(maxSize)/float64(height)))
			height = maxSize
		}
		resized := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		out = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	return &Frame{JPEG: buf.Bytes(), Width: width, Height: height}, nil
}
