// Package main is the depthnoise command line tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/depthnoise/config"
	"go.viam.com/depthnoise/logging"
	"go.viam.com/depthnoise/pipeline"
	"go.viam.com/depthnoise/rimage"
	"go.viam.com/depthnoise/ros"
	"go.viam.com/depthnoise/utils"
)

const (
	// Flags.
	flagConfig   = "config"
	flagDebug    = "debug"
	flagSeed     = "seed"
	flagTopic    = "topic"
	flagOutDir   = "out-dir"
	flagPrefix   = "prefix"
	flagRate     = "rate"
	flagWorkers  = "workers"
	flagRealtime = "realtime"
	flagDrop     = "drop-unsupported"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newApp().RunContext(ctx, os.Args); err != nil {
		logging.Global().Error(err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var logger logging.Logger

	return &cli.App{
		Name:  "depthnoise",
		Usage: "add depth-dependent sensor noise to clean depth images",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("depthnoise")
			} else {
				logger = logging.NewLogger("depthnoise")
			}
			logging.ReplaceGlobal(logger)
			return nil
		},
		After: func(c *cli.Context) error {
			if logger == nil {
				return nil
			}
			goutils.UncheckedError(logger.Sync())
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "image",
				Usage:     "noise a single 16-bit PNG or TIFF depth image",
				ArgsUsage: "<input> <output.png>",
				Flags: []cli.Flag{
					configFlag(),
					&cli.Uint64Flag{
						Name:  flagSeed,
						Usage: "override the seed from the config",
					},
				},
				Action: func(c *cli.Context) error {
					return imageAction(c, logger)
				},
			},
			{
				Name:      "rosbag",
				Usage:     "replay sensor_msgs/Image depth frames from a bag and write noisy PNGs",
				ArgsUsage: "<file.bag>",
				Flags: []cli.Flag{
					configFlag(),
					&cli.Uint64Flag{
						Name:  flagSeed,
						Usage: "override the seed from the config",
					},
					&cli.StringFlag{
						Name:  flagTopic,
						Usage: "image topic to read, overriding the config",
					},
					&cli.StringFlag{
						Name:     flagOutDir,
						Usage:    "directory to write noisy frames into",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagPrefix,
						Usage: "file name prefix of written frames",
						Value: "depth",
					},
					&cli.Float64Flag{
						Name:  flagRate,
						Usage: "polling rate in Hz, overriding the config",
					},
					&cli.IntFlag{
						Name:  flagWorkers,
						Usage: "process rows on this many goroutines, overriding the config",
					},
					&cli.BoolFlag{
						Name:  flagRealtime,
						Usage: "publish frames at their recorded pace; frames arriving faster than the polling rate are dropped",
					},
					&cli.BoolFlag{
						Name:  flagDrop,
						Usage: "skip frames of unsupported encoding instead of stopping",
					},
				},
				Action: func(c *cli.Context) error {
					return rosbagAction(c, logger)
				},
			},
			{
				Name:      "watch",
				Usage:     "noise depth images as they appear in a directory until interrupted",
				ArgsUsage: "<dir>",
				Flags: []cli.Flag{
					configFlag(),
					&cli.Uint64Flag{
						Name:  flagSeed,
						Usage: "override the seed from the config",
					},
					&cli.StringFlag{
						Name:     flagOutDir,
						Usage:    "directory to write noisy frames into",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagPrefix,
						Usage: "file name prefix of written frames",
						Value: "depth",
					},
					&cli.Float64Flag{
						Name:  flagRate,
						Usage: "polling rate in Hz, overriding the config",
					},
					&cli.IntFlag{
						Name:  flagWorkers,
						Usage: "process rows on this many goroutines, overriding the config",
					},
				},
				Action: func(c *cli.Context) error {
					return watchAction(c, logger)
				},
			},
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     flagConfig,
		Aliases:  []string{"c"},
		Usage:    "load configuration from `FILE`",
		Required: true,
	}
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	cfg, err := config.Read(c.String(flagConfig), logger)
	if err != nil {
		return nil, err
	}
	if c.IsSet(flagSeed) {
		cfg.Seed = c.Uint64(flagSeed)
	}
	if c.IsSet(flagTopic) {
		cfg.Topic = c.String(flagTopic)
	}
	if c.IsSet(flagRate) {
		cfg.RateHz = c.Float64(flagRate)
	}
	if c.IsSet(flagWorkers) {
		cfg.Workers = c.Int(flagWorkers)
	}
	if c.IsSet(flagDrop) {
		cfg.DropUnsupportedEncodings = c.Bool(flagDrop)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func imageAction(c *cli.Context, logger logging.Logger) error {
	if c.Args().Len() != 2 {
		return errors.New("need an input and an output file")
	}
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	conf, err := pipeline.NewNoiserConfig(cfg)
	if err != nil {
		return err
	}

	frame, err := rimage.ReadDepthFrameFile(c.Args().Get(0))
	if err != nil {
		return err
	}
	sink := pipeline.NewMemorySink()
	noiser, err := pipeline.NewNoiser(pipeline.NewSliceSource(frame), sink, conf, logger.Sublogger("noiser"))
	if err != nil {
		return err
	}
	if err := noiser.Step(c.Context); err != nil {
		return err
	}
	out := sink.Frames()[0]
	if err := rimage.WriteDepthFrameFile(c.Args().Get(1), out); err != nil {
		return err
	}
	logger.Infow("wrote noisy depth image", "path", c.Args().Get(1), "width", out.Width, "height", out.Height)
	return nil
}

func rosbagAction(c *cli.Context, logger logging.Logger) (err error) {
	if c.Args().Len() != 1 {
		return errors.New("need a bag file")
	}
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	if cfg.Topic == "" {
		return errors.New("no topic given in config or flags")
	}
	conf, err := pipeline.NewNoiserConfig(cfg)
	if err != nil {
		return err
	}

	bagFile := c.Args().Get(0)
	clk := clock.New()
	doneReading := utils.SlowLogger(c.Context, clk, "still reading bag", "file", bagFile, logger)
	frames, err := ros.DepthFramesForTopic(bagFile, cfg.Topic)
	doneReading()
	if err != nil {
		return err
	}
	var frameBytes int
	for _, f := range frames {
		frameBytes += len(f.Data)
	}
	logger.Infow("read depth frames", "file", bagFile, "topic", cfg.Topic, "frames", len(frames),
		"size", units.HumanSize(float64(frameBytes)))

	sink, err := pipeline.NewPNGDirSink(c.String(flagOutDir), c.String(flagPrefix))
	if err != nil {
		return err
	}

	var source pipeline.FrameSource = pipeline.NewSliceSource(frames...)
	var mailbox *pipeline.LatestFrame
	if c.Bool(flagRealtime) {
		mailbox = pipeline.NewLatestFrame()
		source = mailbox
	}

	noiser, err := pipeline.NewNoiser(source, sink, conf, logger.Sublogger("noiser"))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := noiser.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if mailbox != nil {
		replay := utils.NewStoppableWorkers(c.Context, func(ctx context.Context) {
			pipeline.Replay(ctx, clk, frames, mailbox)
		})
		defer replay.Stop()
	}

	start := time.Now()
	if err := noiser.Run(c.Context); err != nil {
		return err
	}
	processed, dropped := noiser.Stats()
	fields := []interface{}{"processed", processed, "unsupported", dropped, "elapsed", time.Since(start)}
	if mailbox != nil {
		_, stale := mailbox.Stats()
		fields = append(fields, "stale", stale)
	}
	logger.Infow("done", fields...)
	return nil
}

func watchAction(c *cli.Context, logger logging.Logger) (err error) {
	if c.Args().Len() != 1 {
		return errors.New("need a directory to watch")
	}
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	conf, err := pipeline.NewNoiserConfig(cfg)
	if err != nil {
		return err
	}
	sink, err := pipeline.NewPNGDirSink(c.String(flagOutDir), c.String(flagPrefix))
	if err != nil {
		return err
	}

	mailbox := pipeline.NewLatestFrame()
	noiser, err := pipeline.NewNoiser(mailbox, sink, conf, logger.Sublogger("noiser"))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := noiser.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	dir := c.Args().Get(0)
	runCtx, cancel := context.WithCancel(c.Context)
	defer cancel()
	var watchErr error
	watcher := utils.NewStoppableWorkers(runCtx, func(ctx context.Context) {
		watchErr = pipeline.WatchDir(ctx, dir, mailbox, logger.Sublogger("watch"))
		cancel()
	})

	logger.Infow("watching for depth images", "dir", dir, "out", c.String(flagOutDir))
	runErr := noiser.Run(runCtx)
	watcher.Stop()
	if watchErr != nil {
		return watchErr
	}
	if runErr != nil {
		return runErr
	}
	processed, dropped := noiser.Stats()
	_, stale := mailbox.Stats()
	logger.Infow("done", "processed", processed, "unsupported", dropped, "stale", stale)
	return nil
}
