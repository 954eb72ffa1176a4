package pipeline

import (
	"context"

	"github.com/benbjohnson/clock"
	goutils "go.viam.com/utils"

	"go.viam.com/depthnoise/rimage"
)

// Replay publishes frames into mailbox spaced by the gaps between their capture times, then
// closes the mailbox. It returns early if ctx is done.
func Replay(ctx context.Context, clk clock.Clock, frames []*rimage.DepthFrame, mailbox *LatestFrame) {
	defer goutils.UncheckedErrorFunc(mailbox.Close)
	for i, frame := range frames {
		if i > 0 {
			if gap := frame.Meta.CapturedAt.Sub(frames[i-1].Meta.CapturedAt); gap > 0 {
				select {
				case <-ctx.Done():
					return
				case <-clk.After(gap):
				}
			}
		}
		if ctx.Err() != nil {
			return
		}
		mailbox.Publish(frame)
	}
}
