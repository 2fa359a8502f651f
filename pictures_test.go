package asset_shrinker

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestFlatten(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 12, 11))
	img.SetNRGBA(10, 10, color.NRGBA{R: 255, A: 128})
	img.SetNRGBA(11, 10, color.NRGBA{R: 10, G: 20, B: 30, A: 0})

	flat := Flatten(img)
	if flat.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Fatalf("Expected bounds to start at the origin, got %v", flat.Bounds())
	}

	half := flat.RGBAAt(0, 0)
	if half.R != 255 || half.A != 255 {
		t.Errorf("Expected opaque red channel, got %+v", half)
	}
	if half.G < 126 || half.G > 128 || half.B < 126 || half.B > 128 {
		t.Errorf("Expected half transparent red over white to be pink, got %+v", half)
	}

	transparent := flat.RGBAAt(1, 0)
	if transparent != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("Expected fully transparent pixel to become white, got %+v", transparent)
	}
}

func TestScaledSize(t *testing.T) {
	w, h := scaledSize(image.Rect(0, 0, 512, 256), 0.7)
	if w != 358 || h != 179 {
		t.Errorf("Expected 358x179, got %dx%d", w, h)
	}
	w, h = scaledSize(image.Rect(0, 0, 3, 1), 0.1)
	if w != 1 || h != 1 {
		t.Errorf("Expected sizes to be clamped to 1x1, got %dx%d", w, h)
	}
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "icon.png")
	writePNG(t, path, solidImage(20, 10, color.Black))

	img, mediaType, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if mediaType != PNG {
		t.Errorf("Expected png, got %s", mediaType)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Errorf("Expected 20x10, got %v", img.Bounds())
	}
}

func TestDecodeFile_NotAnImage(t *testing.T) {
	cases := map[string][]byte{
		"text": []byte("definitely not a png\n"),
		"svg":  []byte(`<svg xmlns="http://www.w3.org/2000/svg"><rect width="10" height="10"/></svg>`),
		"bmp":  append([]byte("BM"), make([]byte, 64)...),
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "icon.png")
			if err := os.WriteFile(path, content, 0o644); err != nil {
				t.Fatal(err)
			}
			_, _, err := DecodeFile(path)
			if !errors.Is(err, ErrNotAnImage) {
				t.Errorf("Expected ErrNotAnImage, got %v", err)
			}
		})
	}
}

func TestEncodeLossless(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeLossless(&buf, solidImage(8, 8, color.White)); err != nil {
		t.Fatalf("EncodeLossless failed: %v", err)
	}
	_, format, err := image.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("Output does not decode: %v", err)
	}
	if format != "png" {
		t.Errorf("Expected png, got %s", format)
	}
}
