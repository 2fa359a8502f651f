//go:build cgo

package asset_shrinker

import (
	"image"

	"github.com/jasonmoo/go-butteraugli"
)

func init() {
	compareButteraugli = func(a, b image.Image) (float64, error) {
		return butteraugli.CompareImages(a, b)
	}
}
