package asset_shrinker

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"maps"
	"slices"

	"github.com/gen2brain/jpegli"
)

var ErrUnknownProbe = errors.New("unknown probe encoder")

// ProbeEncoder is a lossy encoder used only to measure how big an image gets
// at a given quality. Its output must be decodable with image.Decode.
type ProbeEncoder struct {
	Name   string
	Encode func(out io.Writer, img image.Image, quality int) error
}

var probeEncoders = map[string]*ProbeEncoder{
	"jpeg": {
		Name: "jpeg",
		Encode: func(out io.Writer, img image.Image, quality int) error {
			return jpeg.Encode(out, img, &jpeg.Options{Quality: quality})
		},
	},
	"jpegli": {
		Name: "jpegli",
		Encode: func(out io.Writer, img image.Image, quality int) error {
			return jpegli.Encode(out, img, &jpegli.EncodingOptions{
				Quality:              quality,
				ChromaSubsampling:    image.YCbCrSubsampleRatio420,
				OptimizeCoding:       true,
				AdaptiveQuantization: true,
			})
		},
	},
}

func LookupProbe(name string) (*ProbeEncoder, error) {
	enc, ok := probeEncoders[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownProbe, name, ProbeNames())
	}
	return enc, nil
}

func ProbeNames() []string {
	return slices.Sorted(maps.Keys(probeEncoders))
}
