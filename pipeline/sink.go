package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/depthnoise/rimage"
)

// A FrameSink receives noisy frames.
type FrameSink interface {
	Write(ctx context.Context, frame *rimage.DepthFrame) error
	Close() error
}

// MemorySink keeps every frame written to it.
type MemorySink struct {
	mu     sync.Mutex
	frames []*rimage.DepthFrame
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write appends frame.
func (ms *MemorySink) Write(ctx context.Context, frame *rimage.DepthFrame) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.frames = append(ms.frames, frame)
	return nil
}

// Frames returns the frames written so far.
func (ms *MemorySink) Frames() []*rimage.DepthFrame {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]*rimage.DepthFrame(nil), ms.frames...)
}

// Close does nothing.
func (ms *MemorySink) Close() error {
	return nil
}

// PNGDirSink writes each frame as a 16-bit millimeter PNG into a directory.
type PNGDirSink struct {
	dir    string
	prefix string

	mu    sync.Mutex
	count int
}

// NewPNGDirSink creates dir if needed and returns a sink writing <prefix>_<n>.png files into it.
func NewPNGDirSink(dir, prefix string) (*PNGDirSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "cannot create output directory %q", dir)
	}
	if prefix == "" {
		prefix = "depth"
	}
	return &PNGDirSink{dir: dir, prefix: prefix}, nil
}

// Write encodes frame to the next file in sequence.
func (ps *PNGDirSink) Write(ctx context.Context, frame *rimage.DepthFrame) error {
	ps.mu.Lock()
	fn := filepath.Join(ps.dir, fmt.Sprintf("%s_%06d.png", ps.prefix, ps.count))
	ps.count++
	ps.mu.Unlock()
	return rimage.WriteDepthFrameFile(fn, frame)
}

// Count is the number of files written.
func (ps *PNGDirSink) Count() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.count
}

// Close does nothing.
func (ps *PNGDirSink) Close() error {
	return nil
}
