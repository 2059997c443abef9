package ppm

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"

	"github.com/ironsheep/ppmfill/internal/raster"
)

const (
	magicText   = "P3"
	magicBinary = "P6"

	// Longest token the tokenizer accepts. Tags and integers are far shorter;
	// anything longer is garbage.
	maxTokenLen = 32
)

var errTokenTooLong = errors.New("token too long")

func init() {
	image.RegisterFormat("ppm", magicText, decodeImage, DecodeConfig)
	image.RegisterFormat("ppm", magicBinary, decodeImage, DecodeConfig)
}

type header struct {
	encoding raster.Encoding
	comment  string
	width    int
	height   int
	maxValue int
}

type decoder struct {
	r         *bufio.Reader
	h         header
	m         *raster.Raster
	maxPixels int
	tok       [maxTokenLen]byte
	err       error
}

// Decoder carries decode options. The zero value is ready to use.
type Decoder struct {
	// MaxPixels limits width*height of accepted images. Zero selects
	// raster.DefaultMaxPixels.
	MaxPixels int
}

// Decode reads a P3 or P6 image from r using the default pixel limit.
func Decode(r io.Reader) (*raster.Raster, error) {
	return Decoder{}.Decode(r)
}

// Decode reads a complete P3 or P6 image from r.
//
// The returned Raster carries the encoding, comment and max value found in
// the header so that Encode reproduces the same layout. Bytes following the
// last sample are not consumed beyond what buffering reads ahead.
func (dc Decoder) Decode(r io.Reader) (*raster.Raster, error) {
	d := decoder{
		r:         asBufio(r),
		maxPixels: dc.MaxPixels,
	}

	d.decodeHeader()
	d.allocate()
	d.decodePixels()

	if d.err != nil {
		if d.m != nil {
			d.m.Release()
		}
		return nil, d.err
	}
	return d.m, nil
}

// DecodeConfig returns the dimensions of a PPM image without reading its
// samples.
func DecodeConfig(r io.Reader) (image.Config, error) {
	d := decoder{r: asBufio(r)}

	d.decodeHeader()
	if d.err != nil {
		return image.Config{}, d.err
	}

	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      d.h.width,
		Height:     d.h.height,
	}, nil
}

func decodeImage(r io.Reader) (image.Image, error) {
	m, err := Decode(r)
	if err != nil {
		return nil, err
	}
	img := m.ToNRGBA()
	m.Release()
	return img, nil
}

func asBufio(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}

func (d *decoder) decodeHeader() {
	tag, err := d.token()
	if err != nil {
		d.err = &FormatError{Field: "tag", Msg: "unrecognized format tag", Err: err}
		return
	}
	switch string(tag) {
	case magicText:
		d.h.encoding = raster.Text
	case magicBinary:
		d.h.encoding = raster.Binary
	default:
		d.err = &FormatError{Field: "tag", Msg: fmt.Sprintf("unrecognized format tag %q", tag)}
		return
	}

	d.decodeComment()

	d.h.width = d.headerInt("width")
	d.h.height = d.headerInt("height")
	if d.err != nil {
		return
	}
	if d.h.width <= 0 || d.h.height <= 0 {
		d.err = &FormatError{
			Field: "dimensions",
			Msg:   fmt.Sprintf("width and height must be positive, got %dx%d", d.h.width, d.h.height),
		}
		return
	}

	d.h.maxValue = d.headerInt("maxval")
}

// decodeComment consumes a single '#' line that may follow the tag once any
// blank lines are skipped.
func (d *decoder) decodeComment() {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			// Let the width read report the missing header.
			return
		}
		if b != '\n' && b != '\r' {
			_ = d.r.UnreadByte()
			break
		}
	}

	next, err := d.r.Peek(1)
	if err != nil || next[0] != '#' {
		return
	}

	line, err := d.r.ReadString('\n')
	if err != nil && err != io.EOF {
		d.err = fmt.Errorf("ppm: reading comment: %w", err)
		return
	}
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	d.h.comment = line
}

func (d *decoder) headerInt(field string) int {
	if d.err != nil {
		return 0
	}

	tok, err := d.token()
	if err != nil {
		d.err = &FormatError{Field: field, Msg: "missing value", Err: err}
		return 0
	}

	v, err := strconv.Atoi(string(tok))
	if err != nil {
		d.err = &FormatError{Field: field, Msg: fmt.Sprintf("invalid integer %q", tok), Err: err}
		return 0
	}
	return v
}

func (d *decoder) allocate() {
	if d.err != nil {
		return
	}

	m, err := raster.New(d.h.width, d.h.height, d.maxPixels)
	if err != nil {
		d.err = err
		return
	}
	m.Encoding = d.h.encoding
	m.Comment = d.h.comment
	m.MaxValue = d.h.maxValue
	d.m = m
}

func (d *decoder) decodePixels() {
	if d.err != nil {
		return
	}

	switch d.h.encoding {
	case raster.Text:
		d.decodeText()
	case raster.Binary:
		d.decodeBinary()
	}
}

// decodeText reads one decimal token per sample. Values are narrowed to a
// byte by truncation, so 256 reads as 0.
func (d *decoder) decodeText() {
	pix := d.m.Pix()
	for i := range pix {
		tok, err := d.token()
		switch {
		case err == io.EOF:
			d.err = &TruncatedInputError{Want: len(pix), Got: i}
			return
		case err == errTokenTooLong:
			d.err = &FormatError{Field: "sample", Msg: fmt.Sprintf("sample %d is not an integer", i), Err: err}
			return
		case err != nil:
			d.err = fmt.Errorf("ppm: reading samples: %w", err)
			return
		}

		v, err := strconv.Atoi(string(tok))
		if err != nil {
			d.err = &FormatError{Field: "sample", Msg: fmt.Sprintf("sample %d is not an integer", i), Err: err}
			return
		}
		pix[i] = uint8(v)
	}
}

// decodeBinary consumes exactly one separator byte after maxval, then the
// raw samples. No whitespace skipping happens here.
func (d *decoder) decodeBinary() {
	pix := d.m.Pix()

	if _, err := d.r.ReadByte(); err != nil {
		if err == io.EOF {
			d.err = &TruncatedInputError{Want: len(pix), Got: 0}
			return
		}
		d.err = fmt.Errorf("ppm: reading separator: %w", err)
		return
	}

	n, err := io.ReadFull(d.r, pix)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			d.err = &TruncatedInputError{Want: len(pix), Got: n}
			return
		}
		d.err = fmt.Errorf("ppm: reading samples: %w", err)
	}
}

// token skips leading whitespace and returns the next whitespace-delimited
// token. The delimiter is left unread. io.EOF is returned only when no token
// byte was found.
func (d *decoder) token() ([]byte, error) {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if !isSpace(b) {
			_ = d.r.UnreadByte()
			break
		}
	}

	n := 0
	for {
		b, err := d.r.ReadByte()
		if err == io.EOF {
			return d.tok[:n], nil
		}
		if err != nil {
			return nil, err
		}
		if isSpace(b) {
			_ = d.r.UnreadByte()
			return d.tok[:n], nil
		}
		if n == len(d.tok) {
			return d.tok[:n], errTokenTooLong
		}
		d.tok[n] = b
		n++
	}
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
