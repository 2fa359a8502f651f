//go:build cgo

package asset_shrinker

import (
	"image"
	"io"

	cwebp "go.mau.fi/webp"
)

func init() {
	probeEncoders["webp"] = &ProbeEncoder{
		Name: "webp",
		Encode: func(out io.Writer, img image.Image, quality int) error {
			return cwebp.Encode(out, img, &cwebp.Options{Quality: float32(quality)})
		},
	}
}
