package asset_shrinker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/rs/zerolog"
)

var ErrBudgetUnreachable = errors.New("budget unreachable")

// Searcher trades quality and then resolution for size until the lossless
// output of a probe fits the budget.
type Searcher struct {
	Params   SearchParams
	Probe    *ProbeEncoder
	Lossless EncoderFn
}

type SearchResult struct {
	// Data is the lossless output, never longer than the budget.
	Data []byte

	// Candidate is the normalized image that was probed, Output is the
	// decoded probe that Data encodes. Both have the same size.
	Candidate image.Image
	Output    image.Image

	ProbeSize int
	Quality   int
	Scale     float64

	Width, Height int
	PreShrunk     bool
	Resized       bool
	Attempts      int
}

func NewSearcher(params SearchParams, probe *ProbeEncoder) *Searcher {
	return &Searcher{
		Params:   params,
		Probe:    probe,
		Lossless: EncodeLossless,
	}
}

// FitToBudget searches for an output of img no larger than budget bytes.
// originalSize is the size of the source file and only drives the pre-shrink.
func (s *Searcher) FitToBudget(ctx context.Context, img image.Image, originalSize, budget int) (*SearchResult, error) {
	log := zerolog.Ctx(ctx)
	p := s.Params

	var work image.Image = Flatten(img)
	result := &SearchResult{}

	if p.PreShrinkFactor > 0 && float64(originalSize) > float64(budget)*p.PreShrinkFactor {
		factor := math.Sqrt(float64(budget) / float64(originalSize))
		width, height := scaledSize(work.Bounds(), factor)
		log.Info().Int("width", width).Int("height", height).Msg("Image is far over budget, shrinking it first")
		work = ScaleImage(work, width, height)
		result.PreShrunk = true
	}

	for quality := p.InitialQuality; quality > p.MinQuality; quality -= p.QualityStep {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := s.try(ctx, work, quality, budget, result)
		if err != nil {
			return nil, err
		} else if ok {
			result.Scale = 1
			result.Resized = result.PreShrunk
			return result, nil
		}
	}

	log.Warn().Msg("Lowering the quality was not enough, scaling down")
	for percent := p.ScaleStartPercent; percent >= p.ScaleMinPercent; percent -= p.ScaleStepPercent {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scale := float64(percent) / 100
		width, height := scaledSize(work.Bounds(), scale)
		scaled := ScaleImage(work, width, height)
		ok, err := s.try(ctx, scaled, p.FallbackQuality, budget, result)
		if err != nil {
			return nil, err
		} else if ok {
			result.Scale = scale
			result.Resized = true
			return result, nil
		}
	}

	return nil, fmt.Errorf("could not compress image below %s after %d attempts: %w", BytesSize(budget), result.Attempts, ErrBudgetUnreachable)
}

// try probes img at quality and fills result when the lossless output fits.
func (s *Searcher) try(ctx context.Context, img image.Image, quality, budget int, result *SearchResult) (bool, error) {
	log := zerolog.Ctx(ctx).With().
		Str("probe", s.Probe.Name).
		Int("quality", quality).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Logger()
	result.Attempts++

	var probe bytes.Buffer
	if err := s.Probe.Encode(&probe, img, quality); err != nil {
		return false, fmt.Errorf("%s probe failed at quality %d: %w", s.Probe.Name, quality, err)
	}
	if probe.Len() > budget {
		log.Debug().Int("probe_size", probe.Len()).Msg("Probe over budget")
		return false, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(probe.Bytes()))
	if err != nil {
		return false, fmt.Errorf("could not decode %s probe: %w", s.Probe.Name, err)
	}
	var out bytes.Buffer
	if err = s.Lossless(&out, decoded); err != nil {
		return false, fmt.Errorf("could not encode output: %w", err)
	}
	if out.Len() > budget {
		log.Debug().
			Int("probe_size", probe.Len()).
			Int("output_size", out.Len()).
			Msg("Probe fits but the lossless output does not")
		return false, nil
	}

	bounds := decoded.Bounds()
	result.Data = out.Bytes()
	result.Candidate = img
	result.Output = decoded
	result.ProbeSize = probe.Len()
	result.Quality = quality
	result.Width = bounds.Dx()
	result.Height = bounds.Dy()
	log.Debug().Int("probe_size", probe.Len()).Int("output_size", out.Len()).Msg("Accepted probe")
	return true, nil
}
