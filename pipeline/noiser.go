package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"go.viam.com/depthnoise/config"
	"go.viam.com/depthnoise/logging"
	"go.viam.com/depthnoise/rimage"
	"go.viam.com/depthnoise/rimage/depthnoise"
)

// NoiserConfig holds everything a Noiser needs besides its source and sink.
type NoiserConfig struct {
	Model *depthnoise.NoiseModel
	Seed  uint64
	// Workers > 1 switches to per-row draw streams processed concurrently.
	Workers int
	// Period is how often Run polls the source. Zero means 60 Hz.
	Period                   time.Duration
	DropUnsupportedEncodings bool
	// Clock drives Run. Nil means the wall clock.
	Clock clock.Clock
}

// NewNoiserConfig builds a NoiserConfig out of a loaded process config.
func NewNoiserConfig(cfg *config.Config) (NoiserConfig, error) {
	model, err := cfg.NoiseModel()
	if err != nil {
		return NoiserConfig{}, err
	}
	return NoiserConfig{
		Model:                    model,
		Seed:                     cfg.Seed,
		Workers:                  cfg.Workers,
		Period:                   cfg.Period(),
		DropUnsupportedEncodings: cfg.DropUnsupportedEncodings,
	}, nil
}

// Noiser reads frames from a source, noises them and writes them to a sink.
type Noiser struct {
	source FrameSource
	sink   FrameSink
	model  *depthnoise.NoiseModel

	rng     depthnoise.NormalSource
	seed    uint64
	workers int
	// frames counts frames handed to the parallel path; each gets its own row streams.
	frames atomic.Uint64

	clk             clock.Clock
	period          time.Duration
	dropUnsupported bool
	logger          logging.Logger

	processed atomic.Uint64
	dropped   atomic.Uint64
}

// NewNoiser returns a Noiser. With a single worker the draw stream is seeded once here and
// consumed by every frame. With more workers each frame draws from row streams derived from the
// seed and the frame's position in the sequence.
func NewNoiser(source FrameSource, sink FrameSink, conf NoiserConfig, logger logging.Logger) (*Noiser, error) {
	if source == nil {
		return nil, errors.New("no frame source")
	}
	if sink == nil {
		return nil, errors.New("no frame sink")
	}
	if conf.Model == nil {
		return nil, errors.New("no noise model")
	}
	n := &Noiser{
		source:          source,
		sink:            sink,
		model:           conf.Model,
		seed:            conf.Seed,
		workers:         conf.Workers,
		clk:             conf.Clock,
		period:          conf.Period,
		dropUnsupported: conf.DropUnsupportedEncodings,
		logger:          logger,
	}
	if n.workers <= 1 {
		n.rng = depthnoise.NewNormalSource(conf.Seed)
	}
	if n.clk == nil {
		n.clk = clock.New()
	}
	if n.period <= 0 {
		n.period = time.Second / config.DefaultRateHz
	}
	return n, nil
}

// Process noises a single frame.
func (n *Noiser) Process(ctx context.Context, frame *rimage.DepthFrame) (*rimage.DepthFrame, error) {
	if n.rng == nil {
		streams := depthnoise.FrameRowStreams(n.seed, n.frames.Inc()-1)
		return depthnoise.TransformParallel(ctx, frame, n.model, streams, n.workers)
	}
	return depthnoise.Transform(frame, n.model, n.rng)
}

// Step moves at most one frame from the source to the sink.
func (n *Noiser) Step(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "pipeline::noiser::Step")
	defer span.End()

	frame, err := n.source.Next(ctx)
	if err != nil {
		return err
	}
	out, err := n.Process(ctx, frame)
	if err != nil {
		return err
	}
	if err := n.sink.Write(ctx, out); err != nil {
		return errors.Wrap(err, "cannot write noisy frame")
	}
	n.processed.Inc()
	return nil
}

// Run polls the source every period until the source is exhausted or ctx is done. Cycles without
// a new frame are skipped. A frame of unsupported encoding stops the loop with an error unless
// the Noiser was configured to drop such frames.
func (n *Noiser) Run(ctx context.Context) error {
	ticker := n.clk.Ticker(n.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		err := n.Step(ctx)
		var unsupported *rimage.UnsupportedEncodingError
		switch {
		case err == nil:
		case errors.Is(err, depthnoise.ErrEmptyInput):
			n.logger.Debug("no depth frame received yet")
		case errors.Is(err, io.EOF):
			n.logger.Infow("frame source exhausted", "processed", n.processed.Load(), "dropped", n.dropped.Load())
			return nil
		case errors.As(err, &unsupported) && n.dropUnsupported:
			n.dropped.Inc()
			n.logger.Warnw("dropping depth frame", "encoding", unsupported.Tag)
		case ctx.Err() != nil:
			return nil
		default:
			return err
		}
	}
}

// Stats returns how many frames were written and how many were dropped.
func (n *Noiser) Stats() (processed, dropped uint64) {
	return n.processed.Load(), n.dropped.Load()
}

// Close closes the source, if it can be closed, and the sink.
func (n *Noiser) Close() error {
	var err error
	if closer, ok := n.source.(io.Closer); ok {
		err = multierr.Combine(err, closer.Close())
	}
	return multierr.Combine(err, n.sink.Close())
}
