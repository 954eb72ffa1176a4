package rimage

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/pkg/errors"
)

// Sample is the set of numeric types a depth frame can hold.
type Sample interface {
	~uint16 | ~float32
}

// FrameMetadata is carried unchanged from an input frame to any frame derived from it.
type FrameMetadata struct {
	CapturedAt time.Time
	FrameID    string
	Seq        uint32
}

// DepthFrame is a 2D grid of depth samples stored as raw bytes. Stride is the number of
// samples per row and may exceed Width when rows are padded.
type DepthFrame struct {
	Width     int
	Height    int
	Stride    int
	Encoding  string
	BigEndian bool
	Data      []byte
	Meta      FrameMetadata
}

// NewUint16DepthFrame returns a 16UC1 frame holding a copy of the given samples.
func NewUint16DepthFrame(width, height, stride int, samples []uint16) *DepthFrame {
	f := &DepthFrame{
		Width:    width,
		Height:   height,
		Stride:   stride,
		Encoding: UInt16Millimeters.Tag(),
	}
	return f.WithUint16Samples(samples)
}

// NewFloat32DepthFrame returns a 32FC1 frame holding a copy of the given samples.
func NewFloat32DepthFrame(width, height, stride int, samples []float32) *DepthFrame {
	f := &DepthFrame{
		Width:    width,
		Height:   height,
		Stride:   stride,
		Encoding: Float32Meters.Tag(),
	}
	return f.WithFloat32Samples(samples)
}

// HasData reports whether the frame holds any bytes at all. Geometry is checked by Validate.
func (f *DepthFrame) HasData() bool {
	return f != nil && len(f.Data) > 0
}

// Validate checks that the frame geometry is consistent with its buffer.
func (f *DepthFrame) Validate() error {
	enc, err := ParseEncoding(f.Encoding)
	if err != nil {
		return err
	}
	if f.Width <= 0 || f.Height <= 0 {
		return errors.Errorf("bad width or height for depth frame %d %d", f.Width, f.Height)
	}
	if f.Stride < f.Width {
		return errors.Errorf("stride %d is smaller than width %d", f.Stride, f.Width)
	}
	need := ((f.Height-1)*f.Stride + f.Width) * enc.BytesPerSample()
	if len(f.Data) < need {
		return errors.Errorf("depth frame needs at least %d bytes of %s data, got %d", need, f.Encoding, len(f.Data))
	}
	return nil
}

func (f *DepthFrame) byteOrder() binary.ByteOrder {
	if f.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Uint16Samples decodes the whole buffer as 16-bit samples.
func (f *DepthFrame) Uint16Samples() []uint16 {
	order := f.byteOrder()
	out := make([]uint16, len(f.Data)/2)
	for i := range out {
		out[i] = order.Uint16(f.Data[2*i:])
	}
	return out
}

// Float32Samples decodes the whole buffer as 32-bit float samples.
func (f *DepthFrame) Float32Samples() []float32 {
	order := f.byteOrder()
	out := make([]float32, len(f.Data)/4)
	for i := range out {
		out[i] = math.Float32frombits(order.Uint32(f.Data[4*i:]))
	}
	return out
}

// WithUint16Samples returns a frame with the same header and metadata as f but with
// its buffer encoded from samples.
func (f *DepthFrame) WithUint16Samples(samples []uint16) *DepthFrame {
	out := f.withHeader(len(samples) * 2)
	order := out.byteOrder()
	for i, s := range samples {
		order.PutUint16(out.Data[2*i:], s)
	}
	return out
}

// WithFloat32Samples returns a frame with the same header and metadata as f but with
// its buffer encoded from samples.
func (f *DepthFrame) WithFloat32Samples(samples []float32) *DepthFrame {
	out := f.withHeader(len(samples) * 4)
	order := out.byteOrder()
	for i, s := range samples {
		order.PutUint32(out.Data[4*i:], math.Float32bits(s))
	}
	return out
}

func (f *DepthFrame) withHeader(size int) *DepthFrame {
	return &DepthFrame{
		Width:     f.Width,
		Height:    f.Height,
		Stride:    f.Stride,
		Encoding:  f.Encoding,
		BigEndian: f.BigEndian,
		Data:      make([]byte, size),
		Meta:      f.Meta,
	}
}
