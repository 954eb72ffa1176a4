package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"go.viam.com/depthnoise/rimage"
	"go.viam.com/depthnoise/utils"
)

func stampedFrames(gaps ...time.Duration) []*rimage.DepthFrame {
	start := time.Unix(1600000000, 0)
	frames := []*rimage.DepthFrame{testFrame(0)}
	frames[0].Meta.CapturedAt = start
	for i, gap := range gaps {
		start = start.Add(gap)
		f := testFrame(uint32(i + 1))
		f.Meta.CapturedAt = start
		frames = append(frames, f)
	}
	return frames
}

func TestReplayBurst(t *testing.T) {
	mailbox := NewLatestFrame()
	Replay(context.Background(), clock.NewMock(), stampedFrames(0, 0), mailbox)

	published, dropped := mailbox.Stats()
	test.That(t, published, test.ShouldEqual, uint64(3))
	test.That(t, dropped, test.ShouldEqual, uint64(2))

	frame, err := mailbox.Next(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Meta.Seq, test.ShouldEqual, uint32(2))
	_, err = mailbox.Next(context.Background())
	test.That(t, errors.Is(err, io.EOF), test.ShouldBeTrue)
}

func TestReplayPaced(t *testing.T) {
	clk := clock.NewMock()
	mailbox := NewLatestFrame()
	workers := utils.NewStoppableWorkers(context.Background(), func(ctx context.Context) {
		Replay(ctx, clk, stampedFrames(time.Second), mailbox)
	})
	defer workers.Stop()

	frame := waitForFrame(t, mailbox)
	test.That(t, frame.Meta.Seq, test.ShouldEqual, uint32(0))

	for published, _ := mailbox.Stats(); published < 2; published, _ = mailbox.Stats() {
		clk.Add(100 * time.Millisecond)
		time.Sleep(time.Millisecond)
	}
	workers.Wait()
	frame = waitForFrame(t, mailbox)
	test.That(t, frame.Meta.Seq, test.ShouldEqual, uint32(1))
	_, dropped := mailbox.Stats()
	test.That(t, dropped, test.ShouldEqual, uint64(0))
}

func TestReplayCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mailbox := NewLatestFrame()
	Replay(ctx, clock.NewMock(), stampedFrames(time.Hour), mailbox)

	published, _ := mailbox.Stats()
	test.That(t, published, test.ShouldEqual, uint64(0))
	_, err := mailbox.Next(context.Background())
	test.That(t, errors.Is(err, io.EOF), test.ShouldBeTrue)
}

func waitForFrame(t *testing.T, mailbox *LatestFrame) *rimage.DepthFrame {
	t.Helper()
	for i := 0; i < 1000; i++ {
		frame, err := mailbox.Next(context.Background())
		if err == nil {
			return frame
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no frame published")
	return nil
}
