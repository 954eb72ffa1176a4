package rimage

import (
	"image"
	"image/color"
	"math"
)

// NewDepthFrameFromGray16 converts a 16-bit grayscale image into a compact 16UC1 frame. The
// gray values are taken as millimeters.
func NewDepthFrameFromGray16(img *image.Gray16) *DepthFrame {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	data := make([]byte, 0, width*height*2)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := img.PixOffset(b.Min.X, y)
		data = append(data, img.Pix[start:start+width*2]...)
	}
	return &DepthFrame{
		Width:     width,
		Height:    height,
		Stride:    width,
		Encoding:  UInt16Millimeters.Tag(),
		BigEndian: true, // image.Gray16 stores samples big-endian
		Data:      data,
	}
}

// ConvertDepthFrameToGray16 renders a frame as a 16-bit grayscale image in millimeters.
// 32FC1 samples are taken as meters.
func ConvertDepthFrameToGray16(f *DepthFrame) (*image.Gray16, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	// Validate already rejected unknown tags
	enc, _ := ParseEncoding(f.Encoding)

	img := image.NewGray16(image.Rect(0, 0, f.Width, f.Height))
	switch enc {
	case UInt16Millimeters:
		samples := f.Uint16Samples()
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				img.SetGray16(x, y, color.Gray16{Y: samples[y*f.Stride+x]})
			}
		}
	case Float32Meters:
		samples := f.Float32Samples()
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				img.SetGray16(x, y, color.Gray16{Y: metersToMillimeters(samples[y*f.Stride+x])})
			}
		}
	case UnknownEncoding:
		return nil, NewUnsupportedEncodingError(f.Encoding)
	}
	return img, nil
}

func metersToMillimeters(m float32) uint16 {
	mm := float64(m) * 1000
	switch {
	case math.IsNaN(mm) || mm <= 0:
		return 0
	case mm >= math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(mm)
	}
}
