package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

const (
	ProfilePhotoMaxWidth  = 512
	ProfilePhotoMaxHeight = 512
)

// ResizeProfilePhoto decodes an uploaded image, caps it to the profile
// photo bounds preserving aspect ratio, and re-encodes it as JPEG.
func ResizeProfilePhoto(r io.Reader, filename string) ([]byte, error) {
	img, err := decodeImage(r, filename)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width := uint(bounds.Dx())
	height := uint(bounds.Dy())

	if width > ProfilePhotoMaxWidth || height > ProfilePhotoMaxHeight {
		img = resize.Thumbnail(ProfilePhotoMaxWidth, ProfilePhotoMaxHeight, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeImage(r io.Reader, filename string) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Decode(r)
	case ".png":
		return png.Decode(r)
	default:
		img, _, err := image.Decode(r)
		if err != nil {
			return nil, errors.New("unsupported image format")
		}
		return img, nil
	}
}

func IsAllowedImageExt(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
