package asset_shrinker

import (
	"errors"
	"image"
	"math"

	"golang.org/x/image/draw"
)

var ErrButteraugliUnavailable = errors.New("butteraugli requires a cgo build")

// set by metrics_butteraugli.go
var compareButteraugli func(a, b image.Image) (float64, error)

func ButteraugliAvailable() bool {
	return compareButteraugli != nil
}

// adaptiveSample picks a pixel stride so big images don't take forever.
func adaptiveSample(b image.Rectangle) int {
	pixels := b.Dx() * b.Dy()
	switch {
	case pixels <= 1000000:
		return 1
	case pixels <= 4000000:
		return 2
	case pixels <= 16000000:
		return 4
	default:
		return 8
	}
}

// PSNR compares two images of the same size, in dB. Identical images give 100.
func PSNR(a, b image.Image, sample int) float64 {
	if sample <= 0 {
		sample = adaptiveSample(a.Bounds())
	}
	ab, bb := a.Bounds(), b.Bounds()
	width, height := min(ab.Dx(), bb.Dx()), min(ab.Dy(), bb.Dy())
	var sum, count float64
	for y := 0; y < height; y += sample {
		for x := 0; x < width; x += sample {
			r1, g1, b1, _ := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			r2, g2, b2, _ := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			dr := float64(r1>>8) - float64(r2>>8)
			dg := float64(g1>>8) - float64(g2>>8)
			db := float64(b1>>8) - float64(b2>>8)
			sum += (dr*dr + dg*dg + db*db) / 3.0
			count++
		}
	}
	if count == 0 {
		return 0
	}
	mse := sum / count
	if mse == 0 {
		return 100.0
	}
	return 20*math.Log10(255) - 10*math.Log10(mse)
}

// Butteraugli is extremely slow on large images, so both sides are
// downsampled to at most half a megapixel first.
func Butteraugli(a, b image.Image) (float64, error) {
	if compareButteraugli == nil {
		return -1, ErrButteraugliUnavailable
	}
	const maxPixels = 500000
	bounds := a.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels <= maxPixels {
		return compareButteraugli(a, b)
	}

	scale := math.Sqrt(float64(maxPixels) / float64(pixels))
	width, height := scaledSize(bounds, scale)
	rect := image.Rect(0, 0, width, height)
	small1 := image.NewRGBA(rect)
	small2 := image.NewRGBA(rect)
	draw.BiLinear.Scale(small1, rect, a, bounds, draw.Over, nil)
	draw.BiLinear.Scale(small2, rect, b, b.Bounds(), draw.Over, nil)
	return compareButteraugli(small1, small2)
}
