package ppm

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/ironsheep/ppmfill/internal/raster"
)

type encoder struct {
	w   *bufio.Writer
	m   *raster.Raster
	err error
}

// Encode writes m to w in the encoding recorded on m, then releases m.
//
// The header is written as the tag line, the comment line when present,
// "<width> <height>" and the max value. Text samples follow on their own
// lines; binary samples follow a single '\n' separator byte.
//
// On success m's pixel storage is released and m must not be used again. On
// failure m is left intact.
func Encode(w io.Writer, m *raster.Raster) error {
	if err := encode(w, m); err != nil {
		return err
	}
	m.Release()
	return nil
}

func encode(w io.Writer, m *raster.Raster) error {
	if m.Released() {
		return ErrReleased
	}
	if !m.Encoding.Valid() {
		return &FormatError{Field: "encoding", Msg: "unrecognized format tag " + strconv.Quote(m.Encoding.String())}
	}

	e := encoder{
		w: bufio.NewWriter(w),
		m: m,
	}

	e.encodeHeader()
	switch m.Encoding {
	case raster.Text:
		e.encodeText()
	case raster.Binary:
		e.encodeBinary()
	}

	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

func (e *encoder) encodeHeader() {
	e.writeString(e.m.Encoding.Tag())
	e.writeByte('\n')

	if c := e.m.Comment; c != "" {
		if !strings.HasPrefix(c, "#") {
			e.writeByte('#')
		}
		e.writeString(c)
		e.writeByte('\n')
	}

	e.writeString(strconv.Itoa(e.m.Width))
	e.writeByte(' ')
	e.writeString(strconv.Itoa(e.m.Height))
	e.writeByte('\n')
	e.writeString(strconv.Itoa(e.m.MaxValue))
}

func (e *encoder) encodeText() {
	e.writeByte('\n')

	var buf [4]byte
	for _, v := range e.m.Pix() {
		if e.err != nil {
			return
		}
		b := strconv.AppendUint(buf[:0], uint64(v), 10)
		b = append(b, '\n')
		_, e.err = e.w.Write(b)
	}
}

func (e *encoder) encodeBinary() {
	e.writeByte('\n')
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(e.m.Pix())
}

func (e *encoder) writeString(s string) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.WriteString(s)
}

func (e *encoder) writeByte(b byte) {
	if e.err != nil {
		return
	}
	e.err = e.w.WriteByte(b)
}
