package image

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"
)

// encodePNG builds a width x height PNG with a simple gradient so that
// re-encoding has real pixel data to work with.
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func decodeJPEGSize(t *testing.T, data []byte) (int, int) {
	t.Helper()

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode produced jpeg: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestIsSupportedFormat(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"image/gif", true},
		{"image/bmp", true},
		{"image/webp", true},
		{"IMAGE/PNG", true},
		{"Image/Jpeg", true},
		{"image/svg+xml", false},
		{"image/tiff", false},
		{"application/pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSupportedFormat(tt.contentType); got != tt.want {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}

func TestCanonicalExtension(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/jpeg", ".jpg"},
		{"image/png", ".png"},
		{"image/gif", ".gif"},
		{"image/bmp", ".bmp"},
		{"image/webp", ".webp"},
		{"IMAGE/PNG", ".png"},
		{"application/octet-stream", ".jpg"},
		{"", ".jpg"},
	}
	for _, tt := range tests {
		if got := CanonicalExtension(tt.contentType); got != tt.want {
			t.Errorf("CanonicalExtension(%q) = %q, want %q", tt.contentType, got, tt.want)
		}
	}
}

func TestNormalize_SmallImageKeepsSize(t *testing.T) {
	norm, err := Normalize(encodePNG(t, 10, 10), 200)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}

	if norm.Width != 10 || norm.Height != 10 {
		t.Errorf("original dimensions = %dx%d, want 10x10", norm.Width, norm.Height)
	}
	if norm.ThumbnailWidth != 10 || norm.ThumbnailHeight != 10 {
		t.Errorf("thumbnail dimensions = %dx%d, want 10x10 (no upscaling)", norm.ThumbnailWidth, norm.ThumbnailHeight)
	}

	w, h := decodeJPEGSize(t, norm.ThumbnailBytes)
	if w != 10 || h != 10 {
		t.Errorf("encoded thumbnail is %dx%d, want 10x10", w, h)
	}
}

func TestNormalize_LandscapeScaledToMaxEdge(t *testing.T) {
	norm, err := Normalize(encodePNG(t, 400, 300), 200)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}

	if norm.ThumbnailWidth != 200 || norm.ThumbnailHeight != 150 {
		t.Errorf("thumbnail dimensions = %dx%d, want 200x150", norm.ThumbnailWidth, norm.ThumbnailHeight)
	}
	w, h := decodeJPEGSize(t, norm.ThumbnailBytes)
	if w != 200 || h != 150 {
		t.Errorf("encoded thumbnail is %dx%d, want 200x150", w, h)
	}
}

func TestNormalize_PortraitScaledToMaxEdge(t *testing.T) {
	norm, err := Normalize(encodePNG(t, 300, 400), 200)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}

	if norm.ThumbnailWidth != 150 || norm.ThumbnailHeight != 200 {
		t.Errorf("thumbnail dimensions = %dx%d, want 150x200", norm.ThumbnailWidth, norm.ThumbnailHeight)
	}
}

func TestNormalize_AspectRatioWithinRounding(t *testing.T) {
	tests := []struct{ width, height int }{
		{350, 200},
		{1920, 1080},
		{201, 333},
		{500, 500},
	}
	for _, tt := range tests {
		norm, err := Normalize(encodePNG(t, tt.width, tt.height), 200)
		if err != nil {
			t.Fatalf("Normalize(%dx%d) error: %v", tt.width, tt.height, err)
		}

		longer := norm.ThumbnailWidth
		if norm.ThumbnailHeight > longer {
			longer = norm.ThumbnailHeight
		}
		if longer != 200 {
			t.Errorf("%dx%d: longer thumbnail edge = %d, want 200", tt.width, tt.height, longer)
		}

		want := float64(tt.width) / float64(tt.height)
		got := float64(norm.ThumbnailWidth) / float64(norm.ThumbnailHeight)
		bound := 1.0 / float64(min(tt.width, tt.height))
		if math.Abs(got-want) >= bound {
			t.Errorf("%dx%d: aspect ratio %f deviates from %f by more than %f", tt.width, tt.height, got, want, bound)
		}
	}
}

func TestNormalize_OriginalReencodedAsJPEG(t *testing.T) {
	norm, err := Normalize(encodePNG(t, 50, 40), 200)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}

	w, h := decodeJPEGSize(t, norm.OriginalBytes)
	if w != 50 || h != 40 {
		t.Errorf("re-encoded original is %dx%d, want 50x40", w, h)
	}
}

func TestNormalize_CorruptData(t *testing.T) {
	_, err := Normalize([]byte("definitely not an image"), 200)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}
