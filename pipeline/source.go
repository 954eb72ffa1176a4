// Package pipeline moves depth frames from a source, through the noise transform, to a sink.
package pipeline

import (
	"context"
	"io"
	"sync"

	"go.viam.com/depthnoise/rimage"
	"go.viam.com/depthnoise/rimage/depthnoise"
)

// A FrameSource hands out depth frames. Next returns depthnoise.ErrEmptyInput when no frame
// has arrived since the last call and io.EOF once the source is exhausted.
type FrameSource interface {
	Next(ctx context.Context) (*rimage.DepthFrame, error)
}

// LatestFrame is a single slot mailbox holding the most recently published frame. Publishing
// over a frame nobody consumed replaces it and counts a drop.
type LatestFrame struct {
	mu      sync.Mutex
	frame   *rimage.DepthFrame
	fresh   bool
	closed  bool
	drops   uint64
	publish uint64
}

// NewLatestFrame returns an empty mailbox.
func NewLatestFrame() *LatestFrame {
	return &LatestFrame{}
}

// Publish stores frame as the latest. It never blocks. Frames published after Close are ignored.
func (lf *LatestFrame) Publish(frame *rimage.DepthFrame) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if lf.closed {
		return
	}
	if lf.fresh {
		lf.drops++
	}
	lf.frame = frame
	lf.fresh = true
	lf.publish++
}

// Next returns the latest frame if it has not been returned before.
func (lf *LatestFrame) Next(ctx context.Context) (*rimage.DepthFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if !lf.fresh {
		if lf.closed {
			return nil, io.EOF
		}
		return nil, depthnoise.ErrEmptyInput
	}
	lf.fresh = false
	return lf.frame, nil
}

// Stats returns how many frames were published and how many were replaced before being read.
func (lf *LatestFrame) Stats() (published, dropped uint64) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return lf.publish, lf.drops
}

// Close marks the mailbox as finished. A pending frame can still be read once.
func (lf *LatestFrame) Close() error {
	lf.mu.Lock()
	lf.closed = true
	lf.mu.Unlock()
	return nil
}

// SliceSource returns a fixed list of frames in order, one per call.
type SliceSource struct {
	mu     sync.Mutex
	frames []*rimage.DepthFrame
}

// NewSliceSource returns a source over frames.
func NewSliceSource(frames ...*rimage.DepthFrame) *SliceSource {
	return &SliceSource{frames: frames}
}

// Next returns the next frame, or io.EOF when there are none left.
func (ss *SliceSource) Next(ctx context.Context) (*rimage.DepthFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if len(ss.frames) == 0 {
		return nil, io.EOF
	}
	frame := ss.frames[0]
	ss.frames = ss.frames[1:]
	return frame, nil
}
