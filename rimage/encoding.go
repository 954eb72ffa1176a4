package rimage

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// Encoding is the numeric type of the samples in a depth frame.
type Encoding int

// The supported depth encodings.
const (
	UnknownEncoding Encoding = iota
	// UInt16Millimeters is a 16-bit unsigned integer sample, usually millimeters.
	UInt16Millimeters
	// Float32Meters is a 32-bit float sample, usually meters.
	Float32Meters
)

// The encoding tags carried on frames, named after sensor_msgs/Image encodings.
const (
	EncodingTag16UC1 = "16UC1"
	EncodingTag32FC1 = "32FC1"
)

var encodingTags = map[string]Encoding{
	EncodingTag16UC1: UInt16Millimeters,
	EncodingTag32FC1: Float32Meters,
}

// ParseEncoding maps an encoding tag onto a supported Encoding.
func ParseEncoding(tag string) (Encoding, error) {
	enc, ok := encodingTags[tag]
	if !ok {
		return UnknownEncoding, NewUnsupportedEncodingError(tag)
	}
	return enc, nil
}

// SupportedEncodings returns the sorted list of accepted encoding tags.
func SupportedEncodings() []string {
	tags := lo.Keys(encodingTags)
	sort.Strings(tags)
	return tags
}

// Tag returns the encoding tag for the encoding.
func (e Encoding) Tag() string {
	switch e {
	case UInt16Millimeters:
		return EncodingTag16UC1
	case Float32Meters:
		return EncodingTag32FC1
	case UnknownEncoding:
		fallthrough
	default:
		return ""
	}
}

// BytesPerSample is the width in bytes of one sample.
func (e Encoding) BytesPerSample() int {
	switch e {
	case UInt16Millimeters:
		return 2
	case Float32Meters:
		return 4
	case UnknownEncoding:
		fallthrough
	default:
		return 0
	}
}

func (e Encoding) String() string {
	switch e {
	case UInt16Millimeters:
		return "uint16_millimeters"
	case Float32Meters:
		return "float32_meters"
	case UnknownEncoding:
		fallthrough
	default:
		return fmt.Sprintf("unknown_encoding(%d)", int(e))
	}
}

// UnsupportedEncodingError is returned when a frame's encoding tag is not one we can process.
type UnsupportedEncodingError struct {
	Tag string
}

// NewUnsupportedEncodingError returns an error describing the rejected encoding tag.
func NewUnsupportedEncodingError(tag string) error {
	return &UnsupportedEncodingError{Tag: tag}
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("can't process image of encoding %q, need one of %v", e.Tag, SupportedEncodings())
}
