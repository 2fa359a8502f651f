package asset_shrinker

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/disintegration/imageorient"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var ErrNotAnImage = errors.New("not an image")

func (m MediaType) String() string {
	switch m {
	case UnknownType:
		return "!unknown!"
	case PNG:
		return "png"
	case JPG:
		return "jpg"
	case WebP:
		return "webp"
	case GIF:
		return "gif"
	}
	return "!Unhandled-Case!"
}

func guessMediaType(mime *mimetype.MIME) MediaType {
	switch {
	case mime.Is("image/png"):
		return PNG
	case mime.Is("image/jpeg"):
		return JPG
	case mime.Is("image/webp"):
		return WebP
	case mime.Is("image/gif"):
		return GIF
	default:
		return UnknownType
	}
}

// DecodeFile sniffs the file contents and decodes it with the EXIF
// orientation applied.
func DecodeFile(path string) (image.Image, MediaType, error) {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, UnknownType, fmt.Errorf("Could not read file %s: %w", path, err)
	}
	mediaType := guessMediaType(mime)
	if mediaType == UnknownType {
		return nil, UnknownType, fmt.Errorf("%w: %s has type %s", ErrNotAnImage, path, mime.String())
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, UnknownType, fmt.Errorf("Could not open file %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := imageorient.Decode(file)
	if err != nil {
		return nil, UnknownType, fmt.Errorf("Could not decode file %s: %w", path, err)
	}
	return img, mediaType, nil
}

// Flatten composites img onto an opaque white canvas, using the alpha channel
// as the mask. The result always starts at (0, 0).
func Flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Over)
	return canvas
}

func ScaleImage(img image.Image, width, height int) image.Image {
	return resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
}

// scaledSize truncates like the integer conversion of the original sizes,
// but never goes below one pixel.
func scaledSize(bounds image.Rectangle, factor float64) (int, int) {
	width := max(int(float64(bounds.Dx())*factor), 1)
	height := max(int(float64(bounds.Dy())*factor), 1)
	return width, height
}

type EncoderFn func(out io.Writer, img image.Image) error

// EncodeLossless writes the final PNG output.
func EncodeLossless(out io.Writer, img image.Image) error {
	return imaging.Encode(out, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
}
