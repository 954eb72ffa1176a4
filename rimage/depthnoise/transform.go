// Package depthnoise synthesizes sensor-like noise on clean depth frames. The noise standard
// deviation is a quadratic polynomial in the measured depth, and is applied under one of two
// injection policies:
//
//   - everywhere: every PixelInterval-th pixel is replaced with a noisy reading centered on the
//     middle of the noise band, regardless of its original value. Remaining pixels are only
//     clipped. This models a sensor that reports garbage at fixed intervals, and is intentional.
//   - conditional: pixels inside the noise band whose index is a multiple of PixelInterval are
//     perturbed around their own depth. Everything else inside the clip band passes through.
//
// Pixels outside the clip band are zeroed (invalidated) under both policies, except sampled
// pixels under the everywhere policy.
package depthnoise

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.viam.com/depthnoise/rimage"
)

// Transform returns a noisy copy of input. Draws are taken from rng in row-major pixel order,
// one per pixel whose output is computed from noise. The input is never modified, and no
// output is returned on error.
func Transform(input *rimage.DepthFrame, model *NoiseModel, rng NormalSource) (*rimage.DepthFrame, error) {
	if rng == nil {
		return nil, errors.New("no normal source for depth noise")
	}
	return transform(input, model, func(height int, fn rowFunc) error {
		for y := 0; y < height; y++ {
			fn(y, rng.Draw)
		}
		return nil
	})
}

// TransformParallel is like Transform but processes rows concurrently on up to workers
// goroutines. Each row draws from its own stream, so the output is identical for any worker
// count given the same streams. It differs from the output of Transform.
func TransformParallel(
	ctx context.Context,
	input *rimage.DepthFrame,
	model *NoiseModel,
	streams RowStreams,
	workers int,
) (*rimage.DepthFrame, error) {
	if streams == nil {
		return nil, errors.New("no row streams for depth noise")
	}
	if workers < 1 {
		workers = 1
	}
	return transform(input, model, func(height int, fn rowFunc) error {
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for y := 0; y < height; y++ {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				fn(y, streams(y).Draw)
				return nil
			})
		}
		return g.Wait()
	})
}

type (
	rowFunc   func(y int, draw func() float64)
	rowRunner func(height int, fn rowFunc) error
)

func transform(input *rimage.DepthFrame, model *NoiseModel, rows rowRunner) (*rimage.DepthFrame, error) {
	if !input.HasData() {
		return nil, ErrEmptyInput
	}
	if model == nil {
		return nil, errors.New("no noise model")
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	enc, err := rimage.ParseEncoding(input.Encoding)
	if err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid depth frame")
	}

	switch enc {
	case rimage.UInt16Millimeters:
		out, err := noiseSamples(input, input.Uint16Samples(), model, rows, truncateUint16)
		if err != nil {
			return nil, err
		}
		return input.WithUint16Samples(out), nil
	case rimage.Float32Meters:
		out, err := noiseSamples(input, input.Float32Samples(), model, rows, toFloat32)
		if err != nil {
			return nil, err
		}
		return input.WithFloat32Samples(out), nil
	case rimage.UnknownEncoding:
		fallthrough
	default:
		return nil, rimage.NewUnsupportedEncodingError(input.Encoding)
	}
}

func noiseSamples[T rimage.Sample](
	f *rimage.DepthFrame,
	in []T,
	model *NoiseModel,
	rows rowRunner,
	toSample func(float64) T,
) ([]T, error) {
	// padding past Width in each row is copied through untouched
	out := make([]T, len(in))
	copy(out, in)
	err := rows(f.Height, func(y int, draw func() float64) {
		row := y * f.Stride
		for x := 0; x < f.Width; x++ {
			out[row+x] = noisePixel(model, y*f.Width+x, in[row+x], draw, toSample)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func noisePixel[T rimage.Sample](m *NoiseModel, i int, pixel T, draw func() float64, toSample func(float64) T) T {
	depth := float64(pixel)
	sigma := float64(toSample(m.Sigma(depth)))

	if m.InjectEverywhere {
		switch {
		case m.Sampled(i):
			return toSample(m.MidBand() + draw()*sigma)
		case m.Clipped(depth):
			return 0
		default:
			return pixel
		}
	}

	if !m.InNoiseBand(depth) || !m.Sampled(i) {
		sigma = 0
	}
	if m.Clipped(depth) {
		return 0
	}
	return toSample(depth + draw()*sigma)
}

// truncateUint16 drops the fractional part like an integer cast, saturating at the type bounds.
func truncateUint16(v float64) uint16 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(v)
	}
}

func toFloat32(v float64) float32 {
	return float32(v)
}
