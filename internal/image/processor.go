package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"strings"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when uploaded bytes cannot be decoded as any
// supported image format.
var ErrDecode = errors.New("image data could not be decoded")

// normalizedContentType is the format both stored artifacts are
// re-encoded to, regardless of the uploaded format.
const normalizedContentType = "image/jpeg"

const (
	originalQuality  = 90
	thumbnailQuality = 85
)

// supportedFormats is the upload allow-list, keyed by declared content type.
var supportedFormats = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/bmp":  ".bmp",
	"image/webp": ".webp",
}

// IsSupportedFormat reports whether the declared content type is on the
// upload allow-list. Case-insensitive.
func IsSupportedFormat(contentType string) bool {
	_, ok := supportedFormats[strings.ToLower(contentType)]
	return ok
}

// CanonicalExtension maps an allow-listed content type to its file
// extension. Unrecognized types fall back to ".jpg" — rejection happens
// earlier via IsSupportedFormat, never here.
func CanonicalExtension(contentType string) string {
	if ext, ok := supportedFormats[strings.ToLower(contentType)]; ok {
		return ext
	}
	return ".jpg"
}

// Normalized holds the two re-encoded artifacts produced from one upload
// plus the dimensions of both.
type Normalized struct {
	OriginalBytes   []byte
	ThumbnailBytes  []byte
	Width           int
	Height          int
	ThumbnailWidth  int
	ThumbnailHeight int
}

// Normalize decodes data in any supported format, re-encodes the
// full-resolution image as JPEG (format uniformity over exact-byte
// fidelity) and derives one aspect-preserving thumbnail whose longer
// edge is at most maxEdge. Images already within maxEdge on both axes
// are never upscaled.
func Normalize(data []byte, maxEdge int) (*Normalized, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var original bytes.Buffer
	if err := jpeg.Encode(&original, src, &jpeg.Options{Quality: originalQuality}); err != nil {
		return nil, fmt.Errorf("encode original: %w", err)
	}

	thumbWidth, thumbHeight := thumbnailSize(width, height, maxEdge)

	var thumb image.Image = src
	if thumbWidth != width || thumbHeight != height {
		dst := image.NewRGBA(image.Rect(0, 0, thumbWidth, thumbHeight))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
		thumb = dst
	}

	var thumbnail bytes.Buffer
	if err := jpeg.Encode(&thumbnail, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return &Normalized{
		OriginalBytes:   original.Bytes(),
		ThumbnailBytes:  thumbnail.Bytes(),
		Width:           width,
		Height:          height,
		ThumbnailWidth:  thumbWidth,
		ThumbnailHeight: thumbHeight,
	}, nil
}

// thumbnailSize scales (width, height) so the longer edge equals maxEdge,
// preserving aspect ratio to within integer rounding. Images that already
// fit keep their size.
func thumbnailSize(width, height, maxEdge int) (int, int) {
	if width <= maxEdge && height <= maxEdge {
		return width, height
	}
	ratio := float64(width) / float64(height)
	if width > height {
		return maxEdge, int(math.Round(float64(maxEdge) / ratio))
	}
	return int(math.Round(float64(maxEdge) * ratio)), maxEdge
}
