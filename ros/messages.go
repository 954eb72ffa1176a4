package ros

import (
	"time"

	"github.com/pkg/errors"

	"go.viam.com/depthnoise/rimage"
)

// ImageMessage is a sensor_msgs/Image as emitted by the bag JSON parser.
type ImageMessage struct {
	Meta struct {
		Secs  int64
		Nsecs int64
	}
	Data struct {
		Header struct {
			Seq   uint32
			Stamp struct {
				Secs  int64
				Nsecs int64
			}
			FrameID string `json:"frame_id"`
		}
		Height      int
		Width       int
		Encoding    string
		IsBigEndian uint8 `json:"is_bigendian"`
		Step        int
		Data        []byte
	}
}

// Stamp is the capture time from the message header, falling back to the bag record time.
func (m *ImageMessage) Stamp() time.Time {
	stamp := m.Data.Header.Stamp
	if stamp.Secs == 0 && stamp.Nsecs == 0 {
		return time.Unix(m.Meta.Secs, m.Meta.Nsecs).UTC()
	}
	return time.Unix(stamp.Secs, stamp.Nsecs).UTC()
}

// DepthFrame converts the message into a depth frame sharing its buffer. Frames of unknown
// encoding are still returned so the caller can decide what to do with them.
func (m *ImageMessage) DepthFrame() (*rimage.DepthFrame, error) {
	if m.Data.Step < 0 {
		return nil, errors.Errorf("bad row step %d", m.Data.Step)
	}
	stride := m.Data.Width
	if enc, err := rimage.ParseEncoding(m.Data.Encoding); err == nil && m.Data.Step > 0 {
		bps := enc.BytesPerSample()
		if m.Data.Step%bps != 0 {
			return nil, errors.Errorf("row step %d is not a multiple of %d byte %s samples",
				m.Data.Step, bps, m.Data.Encoding)
		}
		stride = m.Data.Step / bps
	}
	return &rimage.DepthFrame{
		Width:     m.Data.Width,
		Height:    m.Data.Height,
		Stride:    stride,
		Encoding:  m.Data.Encoding,
		BigEndian: m.Data.IsBigEndian != 0,
		Data:      m.Data.Data,
		Meta: rimage.FrameMetadata{
			CapturedAt: m.Stamp(),
			FrameID:    m.Data.Header.FrameID,
			Seq:        m.Data.Header.Seq,
		},
	}, nil
}
