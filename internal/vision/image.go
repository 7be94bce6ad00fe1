package vision

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedImage is returned for data that is not a JPEG, PNG, BMP or WebP image.
var ErrUnsupportedImage = errors.New("unsupported image type")

// SupportedImageTypes are the image formats PrepareFrame can decode.
var SupportedImageTypes = []string{"image/jpeg", "image/png", "image/bmp", "image/webp"}

// CheckImage sniffs the content of data and returns its MIME type.
func CheckImage(data []byte) (string, error) {
	mtype := mimetype.Detect(data)
	for _, supported := range SupportedImageTypes {
		if mtype.Is(supported) {
			return supported, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mtype.String())
}
