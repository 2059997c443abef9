package ppm

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is matched by every FormatError.
	ErrFormat = errors.New("invalid ppm format")

	// ErrTruncated is matched by every TruncatedInputError.
	ErrTruncated = errors.New("truncated ppm input")

	// ErrReleased is returned when encoding a raster whose storage has
	// already been released by an earlier Encode.
	ErrReleased = errors.New("raster already released")
)

// FormatError reports a malformed or unrecognized tag, header field or text
// sample.
type FormatError struct {
	Field string // "tag", "width", "height", "maxval", "sample" or "encoding"
	Msg   string
	Err   error // underlying parse error, may be nil
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ppm %s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("ppm %s: %s", e.Field, e.Msg)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFormat) true for any FormatError.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// TruncatedInputError reports that the stream ended before every sample the
// header promised was read.
type TruncatedInputError struct {
	Want int // samples expected (width*height*3)
	Got  int // samples read before the stream ended
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("ppm: truncated input: read %d of %d samples", e.Got, e.Want)
}

// Is makes errors.Is(err, ErrTruncated) true for any TruncatedInputError.
func (e *TruncatedInputError) Is(target error) bool { return target == ErrTruncated }
