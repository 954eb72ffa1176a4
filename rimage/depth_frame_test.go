package rimage

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"
)

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("16UC1")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, enc, test.ShouldEqual, UInt16Millimeters)
	test.That(t, enc.BytesPerSample(), test.ShouldEqual, 2)
	test.That(t, enc.Tag(), test.ShouldEqual, EncodingTag16UC1)

	enc, err = ParseEncoding("32FC1")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, enc, test.ShouldEqual, Float32Meters)
	test.That(t, enc.BytesPerSample(), test.ShouldEqual, 4)
	test.That(t, NewFloat32DepthFrame(1, 1, 1, []float32{1}).Encoding, test.ShouldEqual, EncodingTag32FC1)
	test.That(t, NewUint16DepthFrame(1, 1, 1, []uint16{1}).Encoding, test.ShouldEqual, EncodingTag16UC1)

	enc, err = ParseEncoding("mono8")
	test.That(t, enc, test.ShouldEqual, UnknownEncoding)
	var unsupported *UnsupportedEncodingError
	test.That(t, errors.As(err, &unsupported), test.ShouldBeTrue)
	test.That(t, unsupported.Tag, test.ShouldEqual, "mono8")
	test.That(t, err.Error(), test.ShouldContainSubstring, "16UC1")

	test.That(t, SupportedEncodings(), test.ShouldResemble, []string{"16UC1", "32FC1"})
}

func TestDepthFrameSamples(t *testing.T) {
	t.Run("uint16 little and big endian", func(t *testing.T) {
		f := NewUint16DepthFrame(2, 2, 2, []uint16{1, 258, 65535, 0})
		test.That(t, f.Data[:4], test.ShouldResemble, []byte{1, 0, 2, 1})
		test.That(t, f.Uint16Samples(), test.ShouldResemble, []uint16{1, 258, 65535, 0})

		f.BigEndian = true
		be := f.WithUint16Samples([]uint16{258})
		test.That(t, be.Data, test.ShouldResemble, []byte{1, 2})
		test.That(t, be.Uint16Samples(), test.ShouldResemble, []uint16{258})
	})

	t.Run("float32", func(t *testing.T) {
		f := NewFloat32DepthFrame(3, 1, 3, []float32{0.5, 1.25, -2})
		test.That(t, f.Encoding, test.ShouldEqual, EncodingTag32FC1)
		test.That(t, f.Float32Samples(), test.ShouldResemble, []float32{0.5, 1.25, -2})
	})

	t.Run("metadata is carried to derived frames", func(t *testing.T) {
		f := NewUint16DepthFrame(1, 1, 1, []uint16{7})
		f.Meta = FrameMetadata{CapturedAt: time.Unix(10, 20), FrameID: "camera_depth", Seq: 3}
		out := f.WithUint16Samples([]uint16{9})
		test.That(t, out.Meta, test.ShouldResemble, f.Meta)
		test.That(t, f.Uint16Samples(), test.ShouldResemble, []uint16{7})
	})
}

func TestDepthFrameValidate(t *testing.T) {
	test.That(t, NewUint16DepthFrame(2, 2, 3, make([]uint16, 5)).Validate(), test.ShouldBeNil)

	err := NewUint16DepthFrame(2, 2, 3, make([]uint16, 4)).Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "at least 10 bytes")

	err = NewUint16DepthFrame(3, 1, 2, make([]uint16, 3)).Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "stride")

	err = (&DepthFrame{Width: 0, Height: 1, Stride: 1, Encoding: EncodingTag16UC1}).Validate()
	test.That(t, err, test.ShouldNotBeNil)

	err = (&DepthFrame{Width: 1, Height: 1, Stride: 1, Encoding: "8UC1", Data: []byte{1}}).Validate()
	var unsupported *UnsupportedEncodingError
	test.That(t, errors.As(err, &unsupported), test.ShouldBeTrue)

	var nilFrame *DepthFrame
	test.That(t, nilFrame.HasData(), test.ShouldBeFalse)
	test.That(t, (&DepthFrame{Width: 1, Height: 1}).HasData(), test.ShouldBeFalse)

	zeroWidth := &DepthFrame{Width: 0, Height: 1, Stride: 1, Encoding: EncodingTag16UC1, Data: []byte{1, 2}}
	test.That(t, zeroWidth.HasData(), test.ShouldBeTrue)
	err = zeroWidth.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bad width or height")
}

func TestGray16Conversion(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 3, 2))
	img.SetGray16(0, 0, color.Gray16{Y: 1000})
	img.SetGray16(2, 1, color.Gray16{Y: 4321})

	f := NewDepthFrameFromGray16(img)
	test.That(t, f.Encoding, test.ShouldEqual, EncodingTag16UC1)
	test.That(t, f.Width, test.ShouldEqual, 3)
	test.That(t, f.Height, test.ShouldEqual, 2)
	test.That(t, f.Uint16Samples(), test.ShouldResemble, []uint16{1000, 0, 0, 0, 0, 4321})

	back, err := ConvertDepthFrameToGray16(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Pix, test.ShouldResemble, img.Pix)

	sub, ok := img.SubImage(image.Rect(1, 1, 3, 2)).(*image.Gray16)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, NewDepthFrameFromGray16(sub).Uint16Samples(), test.ShouldResemble, []uint16{0, 4321})

	padded := NewUint16DepthFrame(2, 2, 3, []uint16{1, 2, 99, 3, 4, 99})
	g, err := ConvertDepthFrameToGray16(padded)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Gray16At(1, 1).Y, test.ShouldEqual, uint16(4))

	meters := NewFloat32DepthFrame(4, 1, 4, []float32{1.5, -1, 70, 0.0004})
	g, err = ConvertDepthFrameToGray16(meters)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Gray16At(0, 0).Y, test.ShouldEqual, uint16(1500))
	test.That(t, g.Gray16At(1, 0).Y, test.ShouldEqual, uint16(0))
	test.That(t, g.Gray16At(2, 0).Y, test.ShouldEqual, uint16(65535))
	test.That(t, g.Gray16At(3, 0).Y, test.ShouldEqual, uint16(0))
}

func TestDepthFrameFile(t *testing.T) {
	f := NewUint16DepthFrame(2, 2, 2, []uint16{100, 200, 300, 400})
	fn := filepath.Join(t.TempDir(), "depth.png")
	test.That(t, WriteDepthFrameFile(fn, f), test.ShouldBeNil)

	read, err := ReadDepthFrameFile(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read.Uint16Samples(), test.ShouldResemble, f.Uint16Samples())

	_, err = ReadDepthFrameFile(filepath.Join(t.TempDir(), "depth.jpg"))
	test.That(t, err, test.ShouldNotBeNil)

	err = WriteDepthFrameFile(fn, &DepthFrame{Width: 1, Height: 1, Stride: 1, Encoding: "rgb8", Data: []byte{1, 2, 3}})
	test.That(t, err, test.ShouldNotBeNil)
}
