package rimage

import (
	"bufio"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"golang.org/x/image/tiff"
)

// ReadDepthFrameFile reads a 16-bit grayscale PNG or TIFF depth image into a 16UC1 frame.
func ReadDepthFrameFile(fn string) (*DepthFrame, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer goutils.UncheckedErrorFunc(f.Close)

	var img image.Image
	switch ext := strings.ToLower(filepath.Ext(fn)); ext {
	case ".png":
		img, err = png.Decode(bufio.NewReader(f))
	case ".tif", ".tiff":
		img, err = tiff.Decode(f)
	default:
		return nil, errors.Errorf("don't know how to read depth image with extension %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode depth image %s", fn)
	}

	gray, ok := img.(*image.Gray16)
	if !ok {
		return nil, errors.Errorf("depth image %s must be 16-bit grayscale, got %T", fn, img)
	}
	return NewDepthFrameFromGray16(gray), nil
}

// WriteDepthFrameFile writes a frame as a 16-bit grayscale PNG in millimeters.
func WriteDepthFrameFile(fn string, frame *DepthFrame) (err error) {
	img, err := ConvertDepthFrameToGray16(frame)
	if err != nil {
		return err
	}

	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return png.Encode(f, img)
}
