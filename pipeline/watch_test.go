package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/depthnoise/logging"
	"go.viam.com/depthnoise/rimage"
	"go.viam.com/depthnoise/utils"
)

func TestWatchDir(t *testing.T) {
	logger := logging.NewTestLogger(t)
	watched := t.TempDir()
	staging := t.TempDir()
	mailbox := NewLatestFrame()

	watchErr := make(chan error, 1)
	workers := utils.NewStoppableWorkers(context.Background(), func(ctx context.Context) {
		watchErr <- WatchDir(ctx, watched, mailbox, logger)
	})

	test.That(t, os.WriteFile(filepath.Join(watched, "notes.txt"), []byte("hi"), 0o600), test.ShouldBeNil)

	frame := rimage.NewUint16DepthFrame(2, 1, 2, []uint16{1200, 3400})
	var got *rimage.DepthFrame
	// files moved in before the watch is registered are missed, so keep delivering
	for i := 0; i < 100 && got == nil; i++ {
		name := fmt.Sprintf("frame_%03d.png", i)
		test.That(t, rimage.WriteDepthFrameFile(filepath.Join(staging, name), frame), test.ShouldBeNil)
		test.That(t, os.Rename(filepath.Join(staging, name), filepath.Join(watched, name)), test.ShouldBeNil)
		for j := 0; j < 10 && got == nil; j++ {
			time.Sleep(5 * time.Millisecond)
			if f, err := mailbox.Next(context.Background()); err == nil {
				got = f
			}
		}
	}
	workers.Stop()
	test.That(t, <-watchErr, test.ShouldBeNil)

	test.That(t, got, test.ShouldNotBeNil)
	test.That(t, got.Uint16Samples(), test.ShouldResemble, []uint16{1200, 3400})
	test.That(t, got.Meta.FrameID, test.ShouldStartWith, "frame_")
	test.That(t, got.Meta.CapturedAt.IsZero(), test.ShouldBeFalse)
}

func TestWatchDirMissing(t *testing.T) {
	err := WatchDir(context.Background(), filepath.Join(t.TempDir(), "nope"), NewLatestFrame(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIsDepthImageFile(t *testing.T) {
	test.That(t, isDepthImageFile("a/b.PNG"), test.ShouldBeTrue)
	test.That(t, isDepthImageFile("b.tiff"), test.ShouldBeTrue)
	test.That(t, isDepthImageFile("b.jpg"), test.ShouldBeFalse)
}
